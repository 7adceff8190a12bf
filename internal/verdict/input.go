package verdict

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"onomast/internal/availability"
	"onomast/internal/locale"
)

const (
	maxNameRunes        = 100
	maxDescriptionRunes = 500
	maxShortFieldRunes  = 64
)

// Validate rejects input the caller must fix. It is the only error class
// surfaced to users.
func Validate(in Input) error {
	name := collapse(in.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case utf8.RuneCountInString(name) > maxNameRunes:
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, maxNameRunes)
	case utf8.RuneCountInString(collapse(in.Description)) > maxDescriptionRunes:
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionRunes)
	case utf8.RuneCountInString(collapse(in.Region)) > maxShortFieldRunes:
		return fmt.Errorf("%w: region exceeds %d characters", ErrInvalidInput, maxShortFieldRunes)
	case utf8.RuneCountInString(collapse(in.Language)) > maxShortFieldRunes:
		return fmt.Errorf("%w: language exceeds %d characters", ErrInvalidInput, maxShortFieldRunes)
	case utf8.RuneCountInString(squash(in.Handle)) > availability.MaxHandleRunes:
		return fmt.Errorf("%w: handle exceeds %d characters", ErrInvalidInput, availability.MaxHandleRunes)
	}
	return nil
}

// Canonicalize removes cosmetic variation: free text is trimmed with inner
// whitespace collapsed (case kept), the handle is lower-cased with whitespace
// removed, the locale is snapped to a supported one, owned sets are sorted
// and de-duplicated, and the snapshot is put in static provider order.
func Canonicalize(in Input) Input {
	out := Input{
		Name:          collapse(in.Name),
		Description:   collapse(in.Description),
		Region:        collapse(in.Region),
		Language:      collapse(in.Language),
		Locale:        string(locale.OrDefault(in.Locale)),
		Handle:        squash(in.Handle),
		Snapshot:      in.Snapshot.Canonical(),
		Model:         strings.TrimSpace(in.Model),
		PromptVersion: in.PromptVersion,
		Owned: OwnedAssets{
			Domains:  canonicalSet(in.Owned.Domains, availability.KindDomain),
			Social:   canonicalSet(in.Owned.Social, availability.KindSocial),
			Packages: canonicalSet(in.Owned.Packages, availability.KindPackage),
			GitHub:   in.Owned.GitHub,
		},
	}
	if out.Handle == "" {
		out.Handle = squash(in.Name)
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func squash(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// canonicalSet lower-cases, drops keys outside the static list for kind,
// de-duplicates and sorts. The result is never nil so it hashes as [].
func canonicalSet(in []string, kind availability.Kind) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if !availability.KnownKey(kind, v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
