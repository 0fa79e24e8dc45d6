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

package ast

import (
	"github.com/wdamron/resolve/types"
)

// Expr is the base for all actual-argument expressions.
//
// Only the shape of an argument matters to overload resolution: standalone expressions carry a
// type, while poly expressions (lambdas, method references, conditionals and generic calls)
// are typed against the formal parameter they are passed to.
type Expr interface {
	// Name of the syntax-type of the expression.
	ExprName() string
	// Type returns the standalone type of an expression, or nil for a poly expression whose
	// type depends on its target.
	Type() types.Type
}

var (
	_ Expr = (*Typed)(nil)
	_ Expr = (*Lambda)(nil)
	_ Expr = (*MethodRef)(nil)
	_ Expr = (*Conditional)(nil)
	_ Expr = (*Call)(nil)
)

// Standalone expression with a known type: a literal, a variable, a field access
type Typed struct {
	// Syntax is printed in place of the expression; the type is printed when it is empty.
	Syntax string
	T      types.Type
}

func (e *Typed) ExprName() string { return "Typed" }

func (e *Typed) Type() types.Type { return e.T }

// Lambda parameter. Type is nil for an implicitly typed parameter.
type Param struct {
	Name string
	Type types.Type
}

// Lambda expression: `(x, y) -> x` or `(String s) -> { return s; }`
type Lambda struct {
	Params []Param
	// Body is the expression body; nil for a block body.
	Body Expr
	// Returns holds the expressions of the `return` statements of a block body.
	Returns []Expr
}

func (e *Lambda) ExprName() string { return "Lambda" }

func (e *Lambda) Type() types.Type { return nil }

// Explicit reports whether every parameter is declared with a type. A lambda without
// parameters is explicitly typed.
func (e *Lambda) Explicit() bool {
	for _, p := range e.Params {
		if p.Type == nil {
			return false
		}
	}
	return true
}

// ParamTypes returns the declared parameter types of an explicitly typed lambda.
func (e *Lambda) ParamTypes() []types.Type {
	ts := make([]types.Type, len(e.Params))
	for i, p := range e.Params {
		ts[i] = p.Type
	}
	return ts
}

// VoidCompatible reports whether the body may be used where no value is returned.
func (e *Lambda) VoidCompatible() bool {
	if e.Body == nil {
		return len(e.Returns) == 0
	}
	// only statement expressions are allowed as the body of a void lambda
	_, isCall := e.Body.(*Call)
	return isCall
}

// ValueCompatible reports whether the body produces a value on every path.
func (e *Lambda) ValueCompatible() bool {
	return e.Body != nil || len(e.Returns) > 0
}

// Results returns the result expressions of the body.
func (e *Lambda) Results() []Expr {
	if e.Body != nil {
		return []Expr{e.Body}
	}
	return e.Returns
}

// Method reference: `String::length`, `list::add`
type MethodRef struct {
	// Qualifier is the type of the qualifying expression, or the referenced type.
	Qualifier types.Type
	// Static is set when the qualifier names a type rather than an expression.
	Static bool
	Name   string
}

func (e *MethodRef) ExprName() string { return "MethodRef" }

func (e *MethodRef) Type() types.Type { return nil }

// Conditional expression: `c ? a : b`
type Conditional struct {
	Then, Else Expr
}

func (e *Conditional) ExprName() string { return "Conditional" }

// Type returns the standalone type of a conditional whose branches are both standalone and
// of the same type; other conditionals are poly expressions.
func (e *Conditional) Type() types.Type {
	t, u := e.Then.Type(), e.Else.Type()
	if t == nil || u == nil {
		return nil
	}
	tp, ok1 := t.(*types.Prim)
	up, ok2 := u.(*types.Prim)
	if ok1 && ok2 && tp.Kind == up.Kind {
		return tp
	}
	return nil
}

// Method invocation used as an argument: `f(x)`
type Call struct {
	// Receiver is the type searched for Name; nil searches the enclosing classes.
	Receiver types.Type
	Name     string
	Args     []Expr
	TypeArgs []types.Type
	inferred types.Type
}

func (e *Call) ExprName() string { return "Call" }

// Get the assigned standalone type of e, if any.
func (e *Call) Type() types.Type { return e.inferred }

// Assign a standalone type to e. Calls to non-generic methods are standalone expressions.
func (e *Call) SetType(t types.Type) { e.inferred = t }
