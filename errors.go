package pgembed

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure, mirroring the structured error
// taxonomy every internal component propagates.
type Kind string

const (
	KindInvalidPgURL     Kind = "InvalidPgUrl"
	KindDownloadFailure  Kind = "DownloadFailure"
	KindConversionError  Kind = "ConversionFailure"
	KindInvalidPgPackage Kind = "InvalidPgPackage"
	KindUnpackFailure    Kind = "UnpackFailure"
	KindWriteFileError   Kind = "WriteFileError"
	KindReadFileError    Kind = "ReadFileError"
	KindDirCreationError Kind = "DirCreationError"
	KindPgInitFailure    Kind = "PgInitFailure"
	KindPgStartFailure   Kind = "PgStartFailure"
	KindPgStopFailure    Kind = "PgStopFailure"
	KindPgProcessError   Kind = "PgProcessError"
	KindPgTimedOutError  Kind = "PgTimedOutError"
	KindPgBufferReadErr  Kind = "PgBufferReadError"
	KindPgTaskJoinError  Kind = "PgTaskJoinError"
	KindPgLockError      Kind = "PgLockError"
	KindSendFailure      Kind = "SendFailure"
	KindPgCleanUpFailure Kind = "PgCleanUpFailure"
	KindPgPurgeFailure   Kind = "PgPurgeFailure"
	KindSqlQueryError    Kind = "SqlQueryError"
	KindMigrationError   Kind = "MigrationError"
	KindPgError          Kind = "PgError"
)

// PgError is the single structured error type returned by every component,
// carrying a Kind for programmatic matching, free-form context for
// diagnostics, and the wrapped cause.
type PgError struct {
	Kind    Kind
	Message string
	Context map[string]string
	Err     error
}

func (e *PgError) Error() string {
	if e.Message == "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PgError) Unwrap() error { return e.Err }

// newErr builds a PgError, optionally attaching key/value context.
func newErr(kind Kind, message string, cause error, ctx ...string) *PgError {
	e := &PgError{Kind: kind, Message: message, Err: cause}
	if len(ctx) > 0 {
		e.Context = make(map[string]string, len(ctx)/2)
		for i := 0; i+1 < len(ctx); i += 2 {
			e.Context[ctx[i]] = ctx[i+1]
		}
	}
	return e
}

// AsPgError reports whether err is (or wraps, at any depth) a *PgError and
// returns it.
func AsPgError(err error) (*PgError, bool) {
	var pe *PgError
	ok := errors.As(err, &pe)
	return pe, ok
}
