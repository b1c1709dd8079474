package model

import "encoding/json"

// Patch marks a field of a partial update. A field is applied when Present is
// true, even if Value is the zero value; absent fields leave the entity alone.
type Patch[T any] struct {
	Present bool
	Value   T
}

func Set[T any](value T) Patch[T] {
	return Patch[T]{Present: true, Value: value}
}

// UnmarshalJSON is only invoked for keys present in the document, so an
// explicit null still counts as present.
func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	p.Present = true
	if string(data) == "null" {
		var zero T
		p.Value = zero
		return nil
	}
	return json.Unmarshal(data, &p.Value)
}
