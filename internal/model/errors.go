package model

import "errors"

// ErrNotFound marks an unresolvable reference: unknown user, unknown
// persisted conversation, unknown message. Handlers treat it as a reason to
// drop the offending event, never as a fatal condition.
var ErrNotFound = errors.New("not found")
