package cli

import "errors"

var ErrUsage = errors.New("cli usage error")

// ErrDiagnostics is returned when a run produced error diagnostics. The
// diagnostics themselves have already been written.
var ErrDiagnostics = errors.New("error diagnostics reported")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}
