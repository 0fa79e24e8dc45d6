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

package resolve

import (
	"github.com/wdamron/resolve/ast"
	"github.com/wdamron/resolve/infer"
	"github.com/wdamron/resolve/types"
)

// Pertinence to applicability (JLS 15.12.2.2)
// https://docs.oracle.com/javase/specs/jls/se8/html/jls-15.html#jls-15.12.2.2
//
//   An argument expression is considered pertinent to applicability for a potentially applicable
//   method m unless it has one of the following forms:
//
//   * An implicitly typed lambda expression.
//   * An inexact method reference expression.
//   * If m is a generic method and the method invocation does not provide explicit type
//     arguments, an explicitly typed lambda expression or an exact method reference expression
//     for which the corresponding target type (as derived from the signature of m) is a type
//     parameter of m.
//   * An explicitly typed lambda expression whose body contains an expression that is not
//     pertinent to applicability.
//   * A parenthesized expression or a conditional expression whose contained expressions are
//     not pertinent to applicability.
//
// Arguments which are not pertinent are only checked for their shape while candidates are
// compared; they are typed against the formals of the selected method afterwards.
func (r *Resolver) pertinent(arg ast.Expr, formal types.Type, ctx *infer.Context) bool {
	switch e := arg.(type) {
	case *ast.Lambda:
		if !e.Explicit() || isMethodTypeParam(formal, ctx) {
			return false
		}
		return r.pertinentResults(e)

	case *ast.MethodRef:
		if _, exact := r.exactMethodRef(e); !exact {
			return false
		}
		return !isMethodTypeParam(formal, ctx)

	case *ast.Conditional:
		return r.pertinent(e.Then, formal, ctx) && r.pertinent(e.Else, formal, ctx)
	}
	return true
}

// pertinentResults reports whether the result expressions of an explicitly typed lambda are
// pertinent to applicability. Arguments of nested calls are typed by those calls and are not
// scanned.
func (r *Resolver) pertinentResults(lambda *ast.Lambda) bool {
	pertinent := true
	for _, res := range lambda.Results() {
		ast.WalkExpr(res, func(e ast.Expr) bool {
			switch e := e.(type) {
			case *ast.Lambda:
				pertinent = pertinent && e.Explicit()
			case *ast.MethodRef:
				_, exact := r.exactMethodRef(e)
				pertinent = pertinent && exact
			case *ast.Call:
				return false
			}
			return pertinent
		})
	}
	return pertinent
}

// isMethodTypeParam reports whether a formal is one of the type-parameters of the method being
// inferred (an open inference-variable of ctx).
func isMethodTypeParam(formal types.Type, ctx *infer.Context) bool {
	iv, ok := formal.(*types.InferenceVar)
	return ok && ctx.Owns(iv) && ctx.Inst(iv) == nil
}

// inputVars returns the inference-variables which must be resolved before a deferred argument
// can be typed against its formal (JLS 18.5.2.2): the formal itself when it is a type-parameter,
// otherwise the variables of the descriptor's parameter types of an implicitly typed lambda or
// an inexact method reference.
func (r *Resolver) inputVars(ctx *infer.Context, arg ast.Expr, formal types.Type) []*types.InferenceVar {
	formal = ctx.Subst(formal)
	if isMethodTypeParam(formal, ctx) {
		return []*types.InferenceVar{formal.(*types.InferenceVar)}
	}
	var params []types.Type
	switch e := arg.(type) {
	case *ast.Lambda:
		if e.Explicit() {
			return nil
		}
	case *ast.MethodRef:
		if _, exact := r.exactMethodRef(e); exact {
			return nil
		}
	case *ast.Conditional:
		return append(r.inputVars(ctx, e.Then, formal), r.inputVars(ctx, e.Else, formal)...)
	default:
		return nil
	}
	target, err := r.functionalTarget(formal, nil, nil)
	if err != nil {
		return nil
	}
	if desc, ok := r.checker.FindDescriptor(target); ok {
		params = desc.Params
	}
	var vs []*types.InferenceVar
	for _, p := range params {
		for _, iv := range types.InferenceVars(p) {
			if ctx.Owns(iv) && ctx.Inst(iv) == nil {
				vs = append(vs, iv)
			}
		}
	}
	return vs
}
