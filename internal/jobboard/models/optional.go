package models

import (
	"encoding/json"
)

// Optional distinguishes a field that was left out of a request from one that
// was sent as null and from one that carries a value.
type Optional[T any] struct {
	value   T
	present bool
	null    bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// Null returns a present Optional explicitly set to null.
func Null[T any]() Optional[T] {
	return Optional[T]{present: true, null: true}
}

// IsPresent reports whether the field appeared in the input at all.
func (o Optional[T]) IsPresent() bool {
	return o.present
}

// IsNull reports whether the field appeared as an explicit null.
func (o Optional[T]) IsNull() bool {
	return o.present && o.null
}

// Get returns the value and true only when a non-null value was supplied.
func (o Optional[T]) Get() (T, bool) {
	if !o.present || o.null {
		var zero T
		return zero, false
	}
	return o.value, true
}

// MergeInto copies the value into dst when one was supplied. Absent and null
// both leave dst untouched.
func (o Optional[T]) MergeInto(dst *T) bool {
	v, ok := o.Get()
	if !ok {
		return false
	}
	*dst = v
	return true
}

// UnmarshalJSON is only invoked for keys present in the payload, which is what
// marks the Optional as present.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.present = true
	if string(data) == "null" {
		o.null = true
		var zero T
		o.value = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(data, &o.value)
}
