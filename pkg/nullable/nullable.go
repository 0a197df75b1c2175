// Package nullable tells an absent JSON field apart from an explicit null.
package nullable

import "encoding/json"

// Field is unset when the key is missing, set with a nil Value on null.
type Field[T any] struct {
	Set   bool
	Value *T
}

func Of[T any](v T) Field[T] { return Field[T]{Set: true, Value: &v} }

func Null[T any]() Field[T] { return Field[T]{Set: true} }

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}
