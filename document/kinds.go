package document

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/milk9111/keyanim/linear"
)

var (
	ErrUnknownKind    = errors.New("document: unknown track kind")
	ErrMissingValue   = errors.New("document: missing value")
	ErrMarkerRange    = errors.New("document: marker index out of range")
	ErrDuplicateTrack = errors.New("document: duplicate track name")
)

// Kind names the value type of a track.
type Kind string

const (
	KindDouble       Kind = "double"
	KindInteger      Kind = "integer"
	KindBoolean      Kind = "boolean"
	KindColor        Kind = "color"
	KindTransform    Kind = "transform"
	KindIsometry     Kind = "isometry"
	KindDoubles      Kind = "doubles"
	KindDoubleSet    Kind = "double-set"
	KindIntegerSet   Kind = "integer-set"
	KindBooleanSet   Kind = "boolean-set"
	KindColorSet     Kind = "color-set"
	KindTransformSet Kind = "transform-set"
)

func (k Kind) Known() bool {
	switch k {
	case KindDouble, KindInteger, KindBoolean, KindColor, KindTransform, KindIsometry, KindDoubles:
		return true
	}
	return k.Set()
}

// Set reports whether k animates an array of independent slots.
func (k Kind) Set() bool {
	switch k {
	case KindDoubleSet, KindIntegerSet, KindBooleanSet, KindColorSet, KindTransformSet:
		return true
	}
	return false
}

// Spatial reports whether k may target a node or a body.
func (k Kind) Spatial() bool {
	return k == KindTransform || k == KindIsometry
}

// check decodes raw as a value of kind k, discarding the result.
func (k Kind) check(raw any) error {
	var err error
	switch k {
	case KindDouble, KindDoubleSet:
		_, err = decodeDouble(raw)
	case KindInteger, KindIntegerSet:
		_, err = decodeInteger(raw)
	case KindBoolean, KindBooleanSet:
		_, err = decodeAs[bool](raw)
	case KindColor, KindColorSet:
		_, err = decodeColor(raw)
	case KindTransform, KindIsometry, KindTransformSet:
		_, err = decodeTransform(raw)
	case KindDoubles:
		_, err = decodeAs[[]float64](raw)
	default:
		return fmt.Errorf("%w %q", ErrUnknownKind, string(k))
	}
	return err
}

func decodeDouble(raw any) (float64, error) {
	return decodeAs[float64](raw)
}

// decodeInteger accepts any number and truncates toward zero.
func decodeInteger(raw any) (int, error) {
	f, err := decodeAs[float64](raw)
	return int(f), err
}

func decodeColor(raw any) (color.NRGBA, error) {
	c, err := decodeAs[YAMLColor](raw)
	return c.NRGBA, err
}

func decodeTransform(raw any) (linear.Transform, error) {
	s, err := decodeAs[TransformSpec](raw)
	if err != nil {
		return linear.Ident(), err
	}
	return s.Transform()
}

func encodeColor(c color.NRGBA) any { return hexColor(c) }

func encodeTransform(x linear.Transform) any { return specOf(x) }

func encodeSame[T any](v T) any { return v }
