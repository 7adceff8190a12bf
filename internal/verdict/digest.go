package verdict

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// BuildDigest hashes the canonical form of in: RFC 8785 (JCS) canonical JSON,
// then SHA-256, hex encoded. Model and prompt version are required because
// they are how cached verdicts get invalidated.
func BuildDigest(in Input) (string, error) {
	c := Canonicalize(in)
	if c.Model == "" || c.PromptVersion <= 0 {
		return "", fmt.Errorf("%w: model and prompt version are required for a digest", ErrInvalidInput)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("verdict: encode digest input: %w", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("verdict: canonicalize digest input: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}
