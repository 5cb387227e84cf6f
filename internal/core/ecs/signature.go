package ecs

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// MaxSignatureSize bounds how many component types one system may require.
const MaxSignatureSize = 8

// Signature is the normalised set of component types a system observes.
// Order of construction does not matter: {A,B} and {B,A} are equal.
type Signature struct {
	types []ComponentType
	key   uint64
}

func NewSignature(types ...ComponentType) (Signature, error) {
	if len(types) == 0 {
		return Signature{}, fmt.Errorf("%w: empty", ErrInvalidSignature)
	}
	set := make([]ComponentType, 0, len(types))
	for _, t := range types {
		if t == nil {
			return Signature{}, fmt.Errorf("%w: nil component type", ErrInvalidSignature)
		}
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if !slices.Contains(set, t) {
			set = append(set, t)
		}
	}
	if len(set) > MaxSignatureSize {
		return Signature{}, fmt.Errorf("%w: %d types, max %d", ErrInvalidSignature, len(set), MaxSignatureSize)
	}
	slices.SortFunc(set, func(a, b ComponentType) int {
		return strings.Compare(typeKey(a), typeKey(b))
	})

	d := xxhash.New()
	for _, t := range set {
		_, _ = d.WriteString(typeKey(t))
		_, _ = d.Write([]byte{0})
	}
	return Signature{types: set, key: d.Sum64()}, nil
}

// MustSignature is NewSignature for static system tables.
func MustSignature(types ...ComponentType) Signature {
	s, err := NewSignature(types...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Signature) Key() uint64 { return s.key }
func (s Signature) Len() int    { return len(s.types) }

func (s Signature) Types() []ComponentType {
	return slices.Clone(s.types)
}

func (s Signature) Contains(t ComponentType) bool {
	return slices.Contains(s.types, t)
}

// MatchedBy reports whether e currently owns every type in s.
func (s Signature) MatchedBy(e *Entity) bool {
	if e == nil || len(s.types) == 0 {
		return false
	}
	for _, t := range s.types {
		if _, ok := e.components[t]; !ok {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	names := make([]string, len(s.types))
	for i, t := range s.types {
		names[i] = t.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}

func typeKey(t reflect.Type) string {
	return t.PkgPath() + "." + t.String()
}
