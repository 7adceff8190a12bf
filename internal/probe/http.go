package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"onomast/internal/availability"
)

const DefaultUserAgent = "Mozilla/5.0 (compatible; Onomast/1.0; +https://onomast.app)"

// maxBody caps how much of any upstream response is read.
const maxBody = 1 << 20

func fill(template, handle string) string {
	return fmt.Sprintf(template, url.PathEscape(handle))
}

func newRequest(ctx context.Context, method, target, userAgent string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}

// drain discards the rest of a body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	_ = resp.Body.Close()
}

// classify maps a registry status code. absent lists the codes the
// registry uses for "no such package". Rate limiting and server errors are
// ambiguous and stay unknown.
func classify(code int, absent ...int) availability.Status {
	for _, a := range absent {
		if code == a {
			return availability.StatusAvailable
		}
	}
	if code == http.StatusTooManyRequests || code >= 500 {
		return availability.StatusUnknown
	}
	return availability.StatusTaken
}
