package billing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotLoaded = errors.New("billing schema has not been loaded")
)

// MissingField identifies one required billing field without a value.
type MissingField struct {
	Key   string
	Label string
}

// MissingFields is the validation failure for a submit attempt. It implements
// error; the message names every missing field's label so it can back the
// blocking alert directly.
type MissingFields []MissingField

func (m MissingFields) Error() string {
	if len(m) == 0 {
		return "billing validation failed"
	}
	return fmt.Sprintf("required billing fields are missing: %s", strings.Join(m.Labels(), ", "))
}

// Labels returns the display labels of all missing fields, in schema order.
func (m MissingFields) Labels() []string {
	labels := make([]string, len(m))
	for i, f := range m {
		labels[i] = f.Label
	}
	return labels
}

// Keys returns the field keys of all missing fields.
func (m MissingFields) Keys() []string {
	keys := make([]string, len(m))
	for i, f := range m {
		keys[i] = f.Key
	}
	return keys
}

// Has reports whether the given field key is among the missing fields.
func (m MissingFields) Has(key string) bool {
	for _, f := range m {
		if f.Key == key {
			return true
		}
	}
	return false
}

// IsMissingFieldsError reports whether err is a billing validation failure.
func IsMissingFieldsError(err error) bool {
	var m MissingFields
	return errors.As(err, &m)
}
