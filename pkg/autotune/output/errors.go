package output

import "errors"

// ErrUnknownFormat is returned for an output format nobody registered.
var ErrUnknownFormat = errors.New("unknown output format")
