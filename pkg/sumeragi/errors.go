package sumeragi

import "errors"

// ErrBadSignature is returned when an event signature does not verify over
// the transaction hash it claims to cover (spec §4.1 step 1).
var ErrBadSignature = errors.New("sumeragi: event signature does not verify")
