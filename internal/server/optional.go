package server

import "encoding/json"

// optional is a JSON field that remembers whether it was sent, so an explicit
// null can be told apart from an absent field.
type optional[T any] struct {
	Set   bool
	Value *T
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// some wraps a present value.
func some[T any](v T) optional[T] {
	return optional[T]{Set: true, Value: &v}
}

// patch maps o onto the services' update convention: nil when absent, the
// value when sent, and the zero value for an explicit null, which clears the
// field.
func (o optional[T]) patch() *T {
	if !o.Set {
		return nil
	}
	if o.Value == nil {
		var zero T
		return &zero
	}
	return o.Value
}
