package transcript

import "errors"

// ErrGeneratorRequired is returned when an annotator is built without a generator.
var ErrGeneratorRequired = errors.New("generator required")
