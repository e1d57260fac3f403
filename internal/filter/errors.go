package filter

import "fmt"

// InvalidKeyError is returned for a criterion the compiler does not know.
type InvalidKeyError struct {
	Key  Criterion
	Name string
}

func (e *InvalidKeyError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid filter key '%s'", e.Name)
	}
	return fmt.Sprintf("invalid filter key '%s'", e.Key)
}

// InvalidValueError is returned when a value does not match the shape of its
// criterion.
type InvalidValueError struct {
	Key      Criterion
	Value    any
	Expected Shape
}

func (e *InvalidValueError) Error() string {
	if e.Expected == ShapeNone {
		return fmt.Sprintf("cannot assign value to filter '%s', got %T", e.Key, e.Value)
	}
	return fmt.Sprintf("invalid value type for filter '%s', expected %s, got %T", e.Key, e.Expected, e.Value)
}
