package probe

// Endpoints holds every upstream URL template the probes call. Templates
// take the escaped handle through a single %s.
type Endpoints struct {
	DNS       string
	NPM       string
	Crates    string
	GoProxy   string
	Homebrew  string
	Apt       string
	Social    map[string]string
	GitHubAPI string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		DNS:      "https://dns.google/resolve",
		NPM:      "https://registry.npmjs.org/%s",
		Crates:   "https://crates.io/api/v1/crates/%s",
		GoProxy:  "https://proxy.golang.org/github.com/%s/@v/list",
		Homebrew: "https://formulae.brew.sh/api/formula/%s.json",
		Apt:      "https://sources.debian.org/api/search/%s/",
		Social: map[string]string{
			"instagram": "https://www.instagram.com/%s/",
			"twitter":   "https://x.com/%s",
			"tiktok":    "https://www.tiktok.com/@%s",
			"youtube":   "https://www.youtube.com/@%s",
			"facebook":  "https://www.facebook.com/%s",
		},
	}
}

// Public pages shown next to a package result.
var packagePages = map[string]string{
	"npm":      "https://www.npmjs.com/package/%s",
	"crates":   "https://crates.io/crates/%s",
	"go":       "https://pkg.go.dev/github.com/%s",
	"homebrew": "https://formulae.brew.sh/formula/%s",
	"apt":      "https://packages.debian.org/search?keywords=%s",
}
