package reference

import "errors"

var ErrGeneration = errors.New("reference_generation_failed")
