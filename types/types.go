// The MIT License (MIT)
//
// Copyright (c) 2019 West Damron
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package types

// Type is the base interface for all types.
type Type interface {
	TypeName() string
}

var (
	_ Type = (*Prim)(nil)
	_ Type = (*NullType)(nil)
	_ Type = (*ClassType)(nil)
	_ Type = (*ArrayType)(nil)
	_ Type = (*TypeVar)(nil)
	_ Type = (*Wildcard)(nil)
	_ Type = (*Intersection)(nil)
	_ Type = (*InferenceVar)(nil)
)

func (t *Prim) TypeName() string         { return "Prim" }
func (t *NullType) TypeName() string     { return "Null" }
func (t *ClassType) TypeName() string    { return "Class" }
func (t *ArrayType) TypeName() string    { return "Array" }
func (t *TypeVar) TypeName() string      { return "TypeVar" }
func (t *Wildcard) TypeName() string     { return "Wildcard" }
func (t *Intersection) TypeName() string { return "Intersection" }
func (t *InferenceVar) TypeName() string { return "InferenceVar" }

// Primitive type: `int`, `boolean`, `void`
type Prim struct {
	Kind PrimKind
}

var (
	BooleanType = &Prim{Boolean}
	ByteType    = &Prim{Byte}
	ShortType   = &Prim{Short}
	CharType    = &Prim{Char}
	IntType     = &Prim{Int}
	LongType    = &Prim{Long}
	FloatType   = &Prim{Float}
	DoubleType  = &Prim{Double}
	VoidType    = &Prim{Void}
)

// PrimType returns the shared primitive type for a kind.
func PrimType(k PrimKind) *Prim {
	switch k {
	case Boolean:
		return BooleanType
	case Byte:
		return ByteType
	case Short:
		return ShortType
	case Char:
		return CharType
	case Int:
		return IntType
	case Long:
		return LongType
	case Float:
		return FloatType
	case Double:
		return DoubleType
	case Void:
		return VoidType
	}
	panic("unexpected primitive kind " + k.String())
}

// NullType is the type of the null literal. It is a subtype of every reference type.
type NullType struct{}

var Null = &NullType{}

// Class or interface type: `List<String>`
//
// Args is empty for non-generic classes. A generic class referenced without arguments is raw.
type ClassType struct {
	Sym  ClassID
	Args []Type
}

// Array type: `String[]`
type ArrayType struct {
	Elem Type
}

// Type-variable
//
// Declared type-parameters, captured wildcards and variables synthesized during inference
// are all represented by a TypeVar. Identity is pointer identity.
type TypeVar struct {
	Id   int
	Name string
	// Bound is the upper bound; nil stands for Object.
	Bound Type
	// Lower is the lower bound of a captured `? super` wildcard; nil stands for the null type.
	Lower Type
	// Wildcard is the wildcard a captured type-variable was created from.
	Wildcard *Wildcard
	// Fresh marks variables synthesized for cyclic or under-constrained inference.
	Fresh bool
}

// Captured reports whether the type-variable is the result of capture conversion.
func (tv *TypeVar) Captured() bool { return tv.Wildcard != nil }

// WildcardKind distinguishes `?`, `? extends T` and `? super T`.
type WildcardKind uint8

const (
	Unbounded WildcardKind = iota
	Extends
	Super
)

// Wildcard type-argument: `? extends Number`
type Wildcard struct {
	Kind  WildcardKind
	Bound Type
}

// Intersection type: `Number & Comparable<Integer>`
type Intersection struct {
	Types []Type
}

// InferenceVar stands for a type-argument which has not been determined yet. The bounds
// of an inference-variable are held by the inference context which created it.
type InferenceVar struct {
	Id     int
	Origin *TypeVar
}

// IsReference reports whether t is a reference type (including the null type).
func IsReference(t Type) bool {
	switch t.(type) {
	case *Prim, *Wildcard, nil:
		return false
	}
	return true
}

// IsPrimitive reports whether t is a primitive type other than void.
func IsPrimitive(t Type) bool {
	p, ok := t.(*Prim)
	return ok && p.Kind != Void
}

// IsVoid reports whether t is the void type.
func IsVoid(t Type) bool {
	p, ok := t.(*Prim)
	return ok && p.Kind == Void
}

// Walk visits t and every type nested within it, depth-first.
// If f returns false, the nested types of the visited type are skipped.
func Walk(t Type, f func(Type) bool) {
	if t == nil || !f(t) {
		return
	}
	switch t := t.(type) {
	case *ClassType:
		for _, arg := range t.Args {
			Walk(arg, f)
		}
	case *ArrayType:
		Walk(t.Elem, f)
	case *Wildcard:
		Walk(t.Bound, f)
	case *Intersection:
		for _, c := range t.Types {
			Walk(c, f)
		}
	}
}

// Replace rebuilds t bottom-up. If f returns a non-nil type for a visited type, the visited
// type is replaced and its nested types are not visited. Unchanged sub-trees are shared.
func Replace(t Type, f func(Type) Type) Type {
	if t == nil {
		return nil
	}
	if r := f(t); r != nil {
		return r
	}
	switch t := t.(type) {
	case *ClassType:
		var args []Type
		for i, arg := range t.Args {
			r := Replace(arg, f)
			if r != arg && args == nil {
				args = make([]Type, len(t.Args))
				copy(args, t.Args[:i])
			}
			if args != nil {
				args[i] = r
			}
		}
		if args == nil {
			return t
		}
		return &ClassType{Sym: t.Sym, Args: args}
	case *ArrayType:
		if elem := Replace(t.Elem, f); elem != t.Elem {
			return &ArrayType{Elem: elem}
		}
		return t
	case *Wildcard:
		if bound := Replace(t.Bound, f); bound != t.Bound {
			return &Wildcard{Kind: t.Kind, Bound: bound}
		}
		return t
	case *Intersection:
		var ts []Type
		for i, c := range t.Types {
			r := Replace(c, f)
			if r != c && ts == nil {
				ts = make([]Type, len(t.Types))
				copy(ts, t.Types[:i])
			}
			if ts != nil {
				ts[i] = r
			}
		}
		if ts == nil {
			return t
		}
		return &Intersection{Types: ts}
	}
	return t
}

// Subst replaces occurrences of the type-variables in from with the corresponding types in to.
func Subst(t Type, from []*TypeVar, to []Type) Type {
	if len(from) == 0 {
		return t
	}
	return Replace(t, func(t Type) Type {
		if tv, ok := t.(*TypeVar); ok {
			for i, v := range from {
				if v == tv {
					return to[i]
				}
			}
		}
		return nil
	})
}

// SubstList applies Subst to each type in ts.
func SubstList(ts []Type, from []*TypeVar, to []Type) []Type {
	if len(from) == 0 || len(ts) == 0 {
		return ts
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Subst(t, from, to)
	}
	return out
}

// Mentions reports whether t contains the type-variable tv.
func Mentions(t Type, tv *TypeVar) bool {
	found := false
	Walk(t, func(t Type) bool {
		if t == tv {
			found = true
		}
		return !found
	})
	return found
}

// InferenceVars returns the distinct inference-variables contained in t, in order of appearance.
func InferenceVars(t Type) []*InferenceVar {
	var vs []*InferenceVar
	Walk(t, func(t Type) bool {
		if iv, ok := t.(*InferenceVar); ok {
			for _, v := range vs {
				if v == iv {
					return true
				}
			}
			vs = append(vs, iv)
		}
		return true
	})
	return vs
}

// IsProper reports whether t contains no inference-variables.
func IsProper(t Type) bool {
	proper := true
	Walk(t, func(t Type) bool {
		if _, ok := t.(*InferenceVar); ok {
			proper = false
		}
		return proper
	})
	return proper
}

// HasWildcards reports whether a class type has a wildcard type-argument at the top level.
func HasWildcards(t Type) bool {
	ct, ok := t.(*ClassType)
	if !ok {
		return false
	}
	for _, arg := range ct.Args {
		if _, ok := arg.(*Wildcard); ok {
			return true
		}
	}
	return false
}
