package core

import "errors"

var (
	// ErrInvalidConfiguration covers non-positive scale factors or path-loss
	// constants, malformed grids and empty AP sets.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrCategoryConfiguration marks a category table that does not
	// partition the signal range into disjoint, gap-free intervals.
	ErrCategoryConfiguration = errors.New("invalid category configuration")

	ErrUnknownMaterial   = errors.New("unknown material")
	ErrInvalidMaterial   = errors.New("invalid material")
	ErrMaterialExists    = errors.New("material already exists")
	ErrAccessPointExists = errors.New("access point already exists")
	ErrAccessPointMiss   = errors.New("access point not found")
)
