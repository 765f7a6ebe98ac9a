package normalize

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithSeasonType keeps only rows of the given season type. Empty keeps all.
func WithSeasonType(seasonType string) Option {
	return func(n *Normalizer) {
		n.seasonType = seasonType
	}
}

// WithMinSeasonID drops rows from seasons before id.
func WithMinSeasonID(id int) Option {
	return func(n *Normalizer) {
		n.minSeasonID = id
	}
}

// WithDuplicateHook is called once for every dropped duplicate row.
func WithDuplicateHook(f func(gameID string)) Option {
	return func(n *Normalizer) {
		n.onDuplicate = f
	}
}
