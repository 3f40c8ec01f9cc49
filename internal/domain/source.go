package domain

import "context"

// SnapshotSource supplies the full set of open binary markets listed on one
// platform at one point in time. Pagination, authentication, and rate-limit
// handling are the implementation's responsibility; the scanner depends only
// on this contract.
type SnapshotSource interface {
	// Platform identifies which exchange this source reads from.
	Platform() Platform

	// FetchOpenBinaryMarkets returns the current open binary markets. A
	// returned error degrades the platform to an empty snapshot for the
	// cycle; it never aborts the scan.
	FetchOpenBinaryMarkets(ctx context.Context) ([]Market, error)
}
