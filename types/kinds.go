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

// PrimKind identifies a primitive type.
type PrimKind uint8

const (
	Boolean PrimKind = iota + 1
	Byte
	Short
	Char
	Int
	Long
	Float
	Double
	Void
)

var primNames = [...]string{
	Boolean: "boolean",
	Byte:    "byte",
	Short:   "short",
	Char:    "char",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
	Void:    "void",
}

func (k PrimKind) String() string {
	if int(k) < len(primNames) && primNames[k] != "" {
		return primNames[k]
	}
	return "prim?"
}

// PrimKindNamed returns the primitive kind with the given keyword, or 0.
func PrimKindNamed(name string) PrimKind {
	for k, n := range primNames {
		if n == name && n != "" {
			return PrimKind(k)
		}
	}
	return 0
}

// Numeric reports whether the kind is a numeric primitive (including char).
func (k PrimKind) Numeric() bool { return k >= Byte && k <= Double }

// Primitive widening (JLS 4.10.1): byte <: short <: int <: long <: float <: double, char <: int.
func primSubtype(s, t PrimKind) bool {
	if s == t {
		return true
	}
	switch s {
	case Byte:
		return t == Short || t == Int || t == Long || t == Float || t == Double
	case Short, Char:
		return t == Int || t == Long || t == Float || t == Double
	case Int:
		return t == Long || t == Float || t == Double
	case Long:
		return t == Float || t == Double
	case Float:
		return t == Double
	}
	return false
}

// BoundKind is the kind of a bound on an inference-variable.
type BoundKind uint8

const (
	// EQ: α = T
	EQ BoundKind = iota
	// LOWER: T <: α
	LOWER
	// UPPER: α <: T
	UPPER
)

// BoundKinds lists every bound kind in a fixed order.
var BoundKinds = [...]BoundKind{EQ, LOWER, UPPER}

func (k BoundKind) String() string {
	switch k {
	case EQ:
		return "eq"
	case LOWER:
		return "lower"
	case UPPER:
		return "upper"
	}
	return "bound?"
}

// Complement returns the kind of bound implied on the other side of a variable-variable bound:
// α <: β implies β :> α.
func (k BoundKind) Complement() BoundKind {
	switch k {
	case LOWER:
		return UPPER
	case UPPER:
		return LOWER
	}
	return EQ
}

// Recorder receives the bounds implied when a structural query meets an inference-variable.
type Recorder interface {
	// Record adds a bound to v. It returns false if v is not owned by the recorder, in which case
	// the inference-variable is treated as an opaque type.
	Record(v *InferenceVar, kind BoundKind, t Type) bool
}
