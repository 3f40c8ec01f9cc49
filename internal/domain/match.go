package domain

// MatchedPair is one candidate same-event correspondence between the two
// platforms. A and B always come from distinct platforms, and a given market
// appears in at most one pair per cycle.
type MatchedPair struct {
	A Market
	B Market

	// Similarity is the normalized title-closeness score in [0,1].
	Similarity float64
}
