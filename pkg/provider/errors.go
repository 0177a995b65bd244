package provider

import "errors"

// ErrBackendCallFailed wraps a transport-level failure from a concrete
// Backend (HTTP non-200, gRPC error, connection refused). The router logs a
// single backend's failure and tries the next candidate; once every
// candidate and the fallback are exhausted it returns
// pipeline.ErrAllBackendsFailed carrying the last failure's text.
var ErrBackendCallFailed = errors.New("backend call failed")

// ErrNoQualifiedBackend indicates every backend scored below the routing
// policy's quality threshold for this call.
var ErrNoQualifiedBackend = errors.New("no backend met the quality threshold")
