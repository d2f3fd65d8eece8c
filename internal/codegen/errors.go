package codegen

import (
	"github.com/pkg/errors"
)

// ErrInvariant is the cause of every error returned by the generator. The
// generator is total over well typed trees, so reaching one of these means
// an earlier compiler pass produced a malformed tree.
var ErrInvariant = errors.New("compiler invariant violated")

func invariantf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvariant, format, args...)
}

// IsInvariant reports whether err was caused by an invariant violation.
func IsInvariant(err error) bool {
	return errors.Cause(err) == ErrInvariant
}
