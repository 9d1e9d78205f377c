package showfile

import "errors"

// ErrInvalidDefinition indicates a show definition failed validation.
// Wrapped errors carry the specific field and event index.
var ErrInvalidDefinition = errors.New("invalid show definition")
