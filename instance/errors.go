package instance

import "errors"

// Sentinel errors of the instancer. All failures are fatal to the current
// invocation and are wrapped with context; test with errors.Is.
var (
	// ErrMissingTable reports a font lacking a table the instancer requires
	// (no fvar, or gvar without glyf).
	ErrMissingTable = errors.New("missing required table")

	// ErrUnknownAxis reports an axis limit whose tag is not declared in fvar.
	ErrUnknownAxis = errors.New("axis not present in fvar")

	// ErrDuplicateLimit reports two limits given for the same axis tag.
	ErrDuplicateLimit = errors.New("duplicate axis limit")

	// ErrBadLimitSyntax reports a limit string not matching TAG=number or
	// TAG=number:number.
	ErrBadLimitSyntax = errors.New("invalid axis limit syntax")

	// ErrRangeUnsupported reports a non-degenerate range limit; only pinning
	// is implemented.
	ErrRangeUnsupported = errors.New("axis range limits are not supported yet")

	// ErrCorruptFont reports a violated internal invariant of the font.
	ErrCorruptFont = errors.New("corrupt font data")
)
