package probe

import (
	"net/http"

	gh "github.com/google/go-github/v60/github"

	"onomast/internal/availability"
)

// Options configures Defaults.
type Options struct {
	Endpoints Endpoints
	UserAgent string
	GitHub    *gh.Client
	// HTTPClient is used by every non-social probe; nil means a fresh client.
	HTTPClient *http.Client
}

// Defaults returns the full probe set in the static source order.
func Defaults(opts Options) []availability.Probe {
	ep := opts.Endpoints
	if ep.DNS == "" {
		ep = DefaultEndpoints()
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	social := NoRedirectClient()
	social.Transport = hc.Transport
	ghc := opts.GitHub
	if ghc == nil {
		ghc = gh.NewClient(hc)
	}

	probes := make([]availability.Probe, 0, len(availability.Sources()))
	for _, tld := range availability.DomainTLDs {
		probes = append(probes, &DNSProbe{TLD: tld, Endpoint: ep.DNS, Client: hc})
	}
	for _, platform := range availability.SocialPlatforms {
		probes = append(probes, &SocialProbe{Platform: platform, Template: ep.Social[platform], UserAgent: ua, Client: social})
	}
	probes = append(probes,
		&RegistryProbe{Registry: "npm", Template: ep.NPM, Client: hc},
		&RegistryProbe{Registry: "crates", Template: ep.Crates, UserAgent: "Onomast/1.0 (name-checker)", Client: hc},
		&RegistryProbe{Registry: "go", Template: ep.GoProxy, Absent: []int{http.StatusNotFound, http.StatusGone}, Client: hc},
		&RegistryProbe{Registry: "homebrew", Template: ep.Homebrew, Client: hc},
		&AptProbe{Template: ep.Apt, UserAgent: ua, Client: hc},
		&GitHubUserProbe{Client: ghc},
	)
	return probes
}
