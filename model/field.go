package model

import (
	"errors"
	"fmt"
)

// ErrUnknownField is returned when a field name is not one of the numeric track fields.
var ErrUnknownField = errors.New("unknown field")

// Field names a numeric track field that charts can bind to.
type Field string

const (
	FieldTempo        Field = "tempo"
	FieldLoudness     Field = "loudness"
	FieldEnergy       Field = "energy"
	FieldAcousticness Field = "acousticness"
)

// Fields lists every numeric field in dataset column order.
var Fields = []Field{FieldTempo, FieldLoudness, FieldEnergy, FieldAcousticness}

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Value selects the field from t. Unknown fields panic.
func (f Field) Value(t Track) float64 {
	switch f {
	case FieldTempo:
		return t.Tempo
	case FieldLoudness:
		return t.Loudness
	case FieldEnergy:
		return t.Energy
	case FieldAcousticness:
		return t.Acousticness
	}
	panic(fmt.Sprintf("model: field %q has no selector", string(f)))
}
