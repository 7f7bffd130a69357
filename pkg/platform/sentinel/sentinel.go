// Package sentinel holds infrastructure facts that stores return (optionally
// wrapped) so services can translate them into domain errors. For validation
// errors use pkg/domain-errors directly.
package sentinel

import "errors"

// ErrUnavailable marks a backing store that could not be reached.
var ErrUnavailable = errors.New("unavailable")
