package probe

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	gh "github.com/google/go-github/v60/github"

	"onomast/internal/availability"
	"onomast/internal/platform/github"
)

// GitHubUserProbe looks the handle up as a GitHub user or organization.
// 404 is available, 403 (usually rate limiting) and other failures are
// unknown, and a found account is taken with its public profile as metadata.
type GitHubUserProbe struct {
	Client *gh.Client
}

func (p *GitHubUserProbe) Source() availability.Source { return availability.GitHubSource }

func (p *GitHubUserProbe) Check(ctx context.Context, handle string) availability.Outcome {
	if len(handle) == 0 || len(handle) > 100 {
		return availability.Outcome{Err: fmt.Errorf("github login %q: %w", handle, availability.ErrRejected)}
	}
	user, resp, err := p.Client.Users.Get(ctx, handle)
	if err != nil {
		switch github.StatusCode(resp) {
		case http.StatusNotFound:
			return availability.Outcome{Status: availability.StatusAvailable}
		case http.StatusForbidden:
			return availability.Outcome{Status: availability.StatusUnknown}
		}
		return availability.Outcome{Err: err}
	}
	return availability.Outcome{
		Status: availability.StatusTaken,
		Meta: map[string]string{
			"login":       user.GetLogin(),
			"type":        user.GetType(),
			"htmlUrl":     user.GetHTMLURL(),
			"avatarUrl":   user.GetAvatarURL(),
			"bio":         user.GetBio(),
			"followers":   strconv.Itoa(user.GetFollowers()),
			"publicRepos": strconv.Itoa(user.GetPublicRepos()),
		},
	}
}
