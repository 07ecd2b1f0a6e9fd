package insights

import "errors"

// ErrGeneratorRequired is returned when a component is built without a generator.
var ErrGeneratorRequired = errors.New("generator required")
