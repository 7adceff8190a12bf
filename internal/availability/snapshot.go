package availability

// Entry is one (key, status) pair in a snapshot list.
type Entry struct {
	Key    string `json:"key"`
	Status Status `json:"status"`
}

type GitHubEntry struct {
	Status      Status `json:"status"`
	AccountType string `json:"accountType,omitempty"`
}

// Snapshot is the complete, ordered availability picture for one handle.
// Entry order always follows the static provider lists, never completion
// order, because the snapshot is hashed.
type Snapshot struct {
	Domains  []Entry      `json:"domains"`
	Social   []Entry      `json:"social"`
	Packages []Entry      `json:"packages"`
	GitHub   *GitHubEntry `json:"github"`
}

// BuildSnapshot folds probe results into a snapshot. Sources without a
// result are unknown.
func BuildSnapshot(results []ProbeResult) Snapshot {
	bySource := make(map[Source]ProbeResult, len(results))
	for _, r := range results {
		bySource[r.Source] = r
	}
	pick := func(kind Kind, keys []string) []Entry {
		out := make([]Entry, 0, len(keys))
		for _, k := range keys {
			st := StatusUnknown
			if r, ok := bySource[Source{Kind: kind, Key: k}]; ok && r.Status.Valid() {
				st = r.Status
			}
			out = append(out, Entry{Key: k, Status: st})
		}
		return out
	}

	gh := &GitHubEntry{Status: StatusUnknown}
	if r, ok := bySource[GitHubSource]; ok && r.Status.Valid() {
		gh.Status = r.Status
		gh.AccountType = r.Meta["type"]
	}
	return Snapshot{
		Domains:  pick(KindDomain, DomainTLDs),
		Social:   pick(KindSocial, SocialPlatforms),
		Packages: pick(KindPackage, PackageRegistries),
		GitHub:   gh,
	}
}

// Canonical re-orders a snapshot of arbitrary provenance into static order.
// Unknown keys are dropped and missing ones filled with StatusUnknown.
func (s Snapshot) Canonical() Snapshot {
	reorder := func(in []Entry, keys []string) []Entry {
		seen := make(map[string]Status, len(in))
		for _, e := range in {
			seen[e.Key] = e.Status
		}
		out := make([]Entry, 0, len(keys))
		for _, k := range keys {
			st, ok := seen[k]
			if !ok || !st.Valid() {
				st = StatusUnknown
			}
			out = append(out, Entry{Key: k, Status: st})
		}
		return out
	}
	gh := &GitHubEntry{Status: StatusUnknown}
	if s.GitHub != nil {
		gh.AccountType = s.GitHub.AccountType
		if s.GitHub.Status.Valid() {
			gh.Status = s.GitHub.Status
		}
	}
	return Snapshot{
		Domains:  reorder(s.Domains, DomainTLDs),
		Social:   reorder(s.Social, SocialPlatforms),
		Packages: reorder(s.Packages, PackageRegistries),
		GitHub:   gh,
	}
}

// Uniform returns a snapshot with every source set to st.
func Uniform(st Status) Snapshot {
	results := make([]ProbeResult, 0, len(Sources()))
	for _, src := range Sources() {
		results = append(results, ProbeResult{Source: src, Status: st})
	}
	return BuildSnapshot(results)
}

// Count returns how many entries (including github) have status st.
func (s Snapshot) Count(st Status) int {
	n := 0
	for _, list := range [][]Entry{s.Domains, s.Social, s.Packages} {
		for _, e := range list {
			if e.Status == st {
				n++
			}
		}
	}
	if s.GitHub != nil && s.GitHub.Status == st {
		n++
	}
	return n
}
