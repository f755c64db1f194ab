package laplacian

import "errors"

// Every build or solve failure wraps one of these. All of them are
// recoverable: the caller drops the current gesture and keeps running.
var (
	// ErrEmptyChain is returned for chains with fewer than two points.
	ErrEmptyChain = errors.New("laplacian: chain has fewer than two points")

	// ErrDegenerateNeighborhood is returned when the local similarity fit of
	// a point cannot be inverted because its neighbors coincide with it.
	ErrDegenerateNeighborhood = errors.New("laplacian: degenerate neighborhood")

	// ErrSingularSystem is returned when the normal equations cannot be
	// factorized or a triangular solve breaks down.
	ErrSingularSystem = errors.New("laplacian: singular system")

	// ErrIndexOutOfRange is returned for fixed indices outside the chain.
	ErrIndexOutOfRange = errors.New("laplacian: fixed index out of range")

	// ErrTargetCount is returned when Solve gets a different number of
	// targets than the system has fixed points.
	ErrTargetCount = errors.New("laplacian: target count does not match fixed points")
)
