package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Backend implementations and
// stores return these (optionally wrapped) so flows can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist at the requested path
// - ErrConflict: write raced a concurrent change
// - ErrUnavailable: backend or resource temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
