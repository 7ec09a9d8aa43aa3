package ormvalues

import "go.uber.org/zap"

// ExtractOpt bundles extraction options. The zero value is valid: only values
// implementing Instance are treated as instances, nothing is logged, and
// nesting is only limited for instances that cannot be identified.
type ExtractOpt struct {
	// Adapter recognizes instances of a concrete model system that do not
	// implement Instance themselves.
	Adapter Adapter
	// Logger receives debug events for skipped dedup rules, back references
	// and depth truncation.
	Logger *zap.Logger
	// MaxDepth limits instance nesting. Instances deeper than MaxDepth render
	// their own fields only. 0 means unlimited.
	MaxDepth int
}

// untrackedDepthLimit stops instances that cannot be identified for cycle
// detection when MaxDepth is unset.
const untrackedDepthLimit = 256

func normalizeOpt(opts []ExtractOpt) ExtractOpt {
	var opt ExtractOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.MaxDepth < 0 {
		opt.MaxDepth = 0
	}
	return opt
}
