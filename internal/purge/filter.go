package purge

// Exemptions is the set of whitelisted subreddits. It is built once per run
// and read concurrently by both streams without synchronization; nothing
// mutates it after construction.
type Exemptions map[string]struct{}

func NewExemptions(subreddits []string) Exemptions {
	e := make(Exemptions, len(subreddits))
	for _, sub := range subreddits {
		if sub == "" {
			continue
		}
		e[sub] = struct{}{}
	}
	return e
}

// Exempt reports whether items in the subreddit must be kept.
func (e Exemptions) Exempt(subreddit string) bool {
	_, ok := e[subreddit]
	return ok
}
