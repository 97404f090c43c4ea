package models

import (
	"bytes"
	"encoding/json"

	"github.com/Skryldev/jobboard/query"
)

// Patch is one field of a partial update decoded from JSON. A key that is
// absent leaves Set false; an explicit null sets it with a nil Value, which
// is written as SQL NULL.
type Patch[T any] struct {
	Set   bool
	Value *T
}

// PatchOf returns a Patch assigning v.
func PatchOf[T any](v T) Patch[T] { return Patch[T]{Set: true, Value: &v} }

// PatchNull returns a Patch assigning NULL.
func PatchNull[T any]() Patch[T] { return Patch[T]{Set: true} }

func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	p.Set = true
	if bytes.Equal(data, []byte("null")) {
		p.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.Value = &v
	return nil
}

func (p Patch[T]) MarshalJSON() ([]byte, error) {
	if p.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*p.Value)
}

func (p Patch[T]) value() any {
	if p.Value == nil {
		return nil
	}
	return *p.Value
}

// add appends field to a when the patch was supplied.
func (p Patch[T]) add(a query.Assignments, field string) query.Assignments {
	if !p.Set {
		return a
	}
	return append(a, query.Assignment{Field: field, Value: p.value()})
}
