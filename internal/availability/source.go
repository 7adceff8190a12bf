package availability

import "fmt"

type Kind string

const (
	KindDomain  Kind = "domain"
	KindSocial  Kind = "social"
	KindPackage Kind = "package"
	KindGitHub  Kind = "github"
)

// Source identifies one external signal, e.g. {domain, com}.
type Source struct {
	Kind Kind   `json:"kind"`
	Key  string `json:"key"`
}

func (s Source) String() string { return fmt.Sprintf("%s:%s", s.Kind, s.Key) }

// Provider lists. Their order is part of the digest and must not change
// without bumping the prompt version.
var (
	DomainTLDs        = []string{"com", "dev", "app", "net", "org", "ai"}
	SocialPlatforms   = []string{"instagram", "twitter", "tiktok", "youtube", "facebook"}
	PackageRegistries = []string{"npm", "crates", "go", "homebrew", "apt"}
)

// GitHubSource is the single code-hosting identity check.
var GitHubSource = Source{Kind: KindGitHub, Key: "user"}

// Sources returns every configured source in static order.
func Sources() []Source {
	out := make([]Source, 0, len(DomainTLDs)+len(SocialPlatforms)+len(PackageRegistries)+1)
	for _, tld := range DomainTLDs {
		out = append(out, Source{Kind: KindDomain, Key: tld})
	}
	for _, p := range SocialPlatforms {
		out = append(out, Source{Kind: KindSocial, Key: p})
	}
	for _, r := range PackageRegistries {
		out = append(out, Source{Kind: KindPackage, Key: r})
	}
	return append(out, GitHubSource)
}

func keysFor(kind Kind) []string {
	switch kind {
	case KindDomain:
		return DomainTLDs
	case KindSocial:
		return SocialPlatforms
	case KindPackage:
		return PackageRegistries
	}
	return nil
}

// KnownKey reports whether key is in the static list for kind.
func KnownKey(kind Kind, key string) bool {
	for _, k := range keysFor(kind) {
		if k == key {
			return true
		}
	}
	return false
}
