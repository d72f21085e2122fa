package types

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes the three states a JSON field can be in:
//
//	absent           → Set == false
//	present, null    → Set == true, Null == true
//	present, value   → Set == true, Null == false, Value holds it
//
// encoding/json only calls UnmarshalJSON for keys that appear in the
// document, so a zero Optional means "the client never sent it".
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// Get returns the value and whether one was supplied (present and not null).
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set && !o.Null
}
