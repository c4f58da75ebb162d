package ranking

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithDefaultLimit caps results when Rank is called with maxResults <= 0.
// Zero keeps every candidate.
func WithDefaultLimit(limit int) Option {
	return func(r *Ranker) {
		if limit >= 0 {
			r.defaultLimit = limit
		}
	}
}

// WithPartyNames sets how the two sides are named in reason text.
func WithPartyNames(user1, user2 string) Option {
	return func(r *Ranker) {
		if user1 != "" && user2 != "" {
			r.user1Name = user1
			r.user2Name = user2
		}
	}
}
