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

package infer

import (
	"strconv"
	"strings"

	"github.com/wdamron/resolve/types"
)

// ErrorKind classifies inference failures.
type ErrorKind uint8

const (
	// No instantiation satisfies the bounds of a variable.
	NoConformingInstance ErrorKind = iota
	// A lower (or equality) bound is not a subtype of an upper (or equality) bound.
	IncompatibleBounds
	// Two equality bounds are different types.
	IncompatibleEqBounds
	// Two upper bounds require different parameterizations of a generic class, or have no
	// greatest lower bound.
	IncompatibleUpperBounds
	// Incorporation did not reach a fixpoint within the round cap.
	CyclicInferenceExceeded
)

var errorKindNames = [...]string{
	NoConformingInstance:    "NoConformingInstance",
	IncompatibleBounds:      "IncompatibleBounds",
	IncompatibleEqBounds:    "IncompatibleEqBounds",
	IncompatibleUpperBounds: "IncompatibleUpperBounds",
	CyclicInferenceExceeded: "CyclicInferenceExceeded",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return "InferenceError?"
}

// Bound is a (kind, type) pair attached to an inference-variable.
type Bound struct {
	Kind types.BoundKind
	Type types.Type
}

// Error is a structured inference failure.
type Error struct {
	Kind ErrorKind
	// Var is the variable whose bounds could not be satisfied (nil for CyclicInferenceExceeded).
	Var *types.InferenceVar
	// Bounds are the conflicting bounds, or every bound of Var for NoConformingInstance.
	Bounds []Bound
	// Cause is the failure which made a fallback instantiation impossible, if any.
	Cause error

	msg string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.Cause }

// Internal reports whether the error indicates a failure of the engine rather than of the
// program being checked.
func (e *Error) Internal() bool { return e.Kind == CyclicInferenceExceeded }

func (ctx *Context) boundsError(kind ErrorKind, v *types.InferenceVar, bounds ...Bound) *Error {
	var sb strings.Builder
	switch kind {
	case IncompatibleEqBounds:
		sb.WriteString("Incompatible equality constraints for ")
	case IncompatibleUpperBounds:
		sb.WriteString("Incompatible upper bounds for ")
	default:
		sb.WriteString("Incompatible bounds for ")
	}
	sb.WriteString(types.TypeString(ctx.table, v))
	sb.WriteString(": ")
	ctx.writeBounds(&sb, bounds)
	return &Error{Kind: kind, Var: v, Bounds: bounds, msg: sb.String()}
}

func (ctx *Context) noInstanceError(v *types.InferenceVar, cause error) *Error {
	var bounds []Bound
	if i, ok := ctx.index[v]; ok {
		for _, k := range types.BoundKinds {
			for _, t := range ctx.state[i].bounds[k].Types() {
				bounds = append(bounds, Bound{k, t})
			}
		}
	}
	var sb strings.Builder
	sb.WriteString("No instance of ")
	sb.WriteString(types.TypeString(ctx.table, v))
	if len(bounds) > 0 {
		sb.WriteString(" conforms to ")
		ctx.writeBounds(&sb, bounds)
	} else {
		sb.WriteString(" exists")
	}
	return &Error{Kind: NoConformingInstance, Var: v, Bounds: bounds, Cause: cause, msg: sb.String()}
}

func (ctx *Context) roundsError() *Error {
	return &Error{
		Kind: CyclicInferenceExceeded,
		msg:  "Incorporation did not terminate within " + strconv.Itoa(ctx.opts.MaxRounds) + " rounds",
	}
}

func (ctx *Context) writeBounds(sb *strings.Builder, bounds []Bound) {
	for i, b := range bounds {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.Kind.String())
		sb.WriteByte(' ')
		sb.WriteString(types.TypeString(ctx.table, b.Type))
	}
}

// ReturnError reports that no instantiation of the variables of ret makes it compatible
// with the target type of a call. cause is the bound conflict the target introduced, if any.
func (ctx *Context) ReturnError(ret, target types.Type, cause error) *Error {
	var v *types.InferenceVar
	for _, iv := range types.InferenceVars(ret) {
		if ctx.Owns(iv) {
			v = iv
			break
		}
	}
	var bounds []Bound
	if v != nil {
		i := ctx.index[v]
		for _, k := range types.BoundKinds {
			for _, t := range ctx.state[i].bounds[k].Types() {
				bounds = append(bounds, Bound{k, t})
			}
		}
	}
	var sb strings.Builder
	sb.WriteString("No instance of ")
	if v != nil {
		sb.WriteString(types.TypeString(ctx.table, v))
	} else {
		sb.WriteString("the type-variables")
	}
	sb.WriteString(" exists so that ")
	sb.WriteString(types.TypeString(ctx.table, ret))
	sb.WriteString(" conforms to ")
	sb.WriteString(types.TypeString(ctx.table, target))
	return &Error{Kind: NoConformingInstance, Var: v, Bounds: bounds, Cause: cause, msg: sb.String()}
}
