package cachelayout

import "errors"

// errNoCacheRoot is wrapped by the root package into a PgError of kind
// InvalidPgUrl; this package stays free of the root package's error type
// to avoid an import cycle (the root package imports cachelayout).
var errNoCacheRoot = errors.New("cachelayout: could not resolve a cache root directory from the environment")

// ErrNoCacheRoot exposes errNoCacheRoot for errors.Is comparisons by callers.
var ErrNoCacheRoot = errNoCacheRoot
