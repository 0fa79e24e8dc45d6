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
	"github.com/wdamron/resolve/infer"
	"github.com/wdamron/resolve/internal/logging"
	"github.com/wdamron/resolve/types"
)

// instantiate infers the invocation type of a selected method (JLS 18.5.2). The target type of
// call, if any, constrains the return type in the given phase. When call.Outer is set, variables
// the return type depends on are left open and propagated into the enclosing context instead of
// being resolved.
func (r *Resolver) instantiate(call *Call, sel selection, targetPhase Phase) (*Signature, error) {
	a, f := r.checkMethod(call, sel.site, sel.method, sel.phase)
	if f != nil {
		return nil, f
	}
	meth := r.Table.Method(sel.method)
	mc := &methodCheck{mode: basicCheck, phase: sel.phase, ctx: a.ctx, site: call.Site, unchecked: a.unchecked}
	sig := &Signature{Method: sel.method, TypeArgs: a.typeArgs}

	if a.ctx == nil {
		if err := r.checkDeferred(mc, call, a); err != nil {
			return nil, err
		}
		sig.Params, sig.Return, sig.Throws = a.params, a.ret, a.throws
		sig.Unchecked = mc.unchecked
		if sig.Unchecked && meth.IsGeneric() {
			r.erase(sig)
		}
		return sig, nil
	}

	ctx := a.ctx
	mc.mode = resolveCheck
	// an unchecked invocation returns an erased type, so the target does not constrain it
	if call.Expected != nil && call.Outer == nil && !a.unchecked {
		if err := r.addTarget(ctx, a.ret, call.Expected, targetPhase); err != nil {
			return nil, err
		}
	}
	if err := r.checkDeferred(mc, call, a); err != nil {
		return nil, err
	}
	if err := ctx.Incorporate(); err != nil {
		return nil, err
	}
	if call.Outer != nil && ctx.IsFree(a.ret) {
		// variables the return type does not mention are resolved here; the others are
		// resolved with the enclosing call
		var rest []*types.InferenceVar
		retVars := types.InferenceVars(ctx.Subst(a.ret))
	Open:
		for _, iv := range ctx.Open() {
			for _, rv := range retVars {
				if rv == iv {
					continue Open
				}
			}
			rest = append(rest, iv)
		}
		if len(rest) > 0 {
			if err := ctx.Solve(rest...); err != nil {
				return nil, err
			}
		}
		if err := ctx.PropagateTo(call.Outer); err != nil {
			return nil, err
		}
	} else if err := ctx.Solve(); err != nil {
		return nil, err
	}

	sig.TypeArgs = make([]types.Type, len(a.ivars))
	for i, iv := range a.ivars {
		sig.TypeArgs[i] = ctx.Subst(iv)
	}
	sig.Params = ctx.SubstList(a.params)
	sig.Return = ctx.Subst(a.ret)
	sig.Throws = ctx.SubstList(a.throws)
	sig.Unchecked = mc.unchecked

	if call.Outer != nil && call.Expected != nil && !sig.Unchecked {
		if err := r.addTarget(call.Outer, sig.Return, call.Expected, targetPhase); err != nil {
			return nil, err
		}
	}
	if sig.Unchecked {
		r.erase(sig)
	}
	if r.log.Enabled(logging.LevelTrace) {
		r.log.Tracef("instantiated %s as (%s) %s", r.Table.MethodString(sel.method), types.TypeListString(r.Table, sig.Params), types.TypeString(r.Table, sig.Return))
	}
	return sig, nil
}

// addTarget adds the constraint that ret is compatible with the target type expected
// (JLS 18.5.2.1). A return type which is a wildcard-parameterization mentioning open variables
// is captured first.
func (r *Resolver) addTarget(ctx *infer.Context, ret, expected types.Type, phase Phase) error {
	if types.IsVoid(expected) {
		return nil
	}
	if types.IsVoid(ret) {
		return ctx.ReturnError(ret, expected, nil)
	}
	ret = r.captureReturn(ctx, ret)
	mc := &methodCheck{mode: resolveCheck, phase: phase, ctx: ctx}
	if !r.compatible(mc, ret, expected) {
		return ctx.ReturnError(ret, expected, nil)
	}
	if err := ctx.Incorporate(); err != nil {
		return ctx.ReturnError(ret, expected, err)
	}
	return nil
}

// captureReturn replaces the wildcards of a parameterized return type by fresh variables
// bounded by the wildcards and the declared bounds of the class's type-parameters.
func (r *Resolver) captureReturn(ctx *infer.Context, ret types.Type) types.Type {
	ct, ok := ret.(*types.ClassType)
	if !ok || !types.HasWildcards(ct) || !ctx.IsFree(ct) {
		return ret
	}
	cls := r.Table.Class(ct.Sym)
	if len(cls.TypeParams) != len(ct.Args) {
		return ret
	}
	args := make([]types.Type, len(ct.Args))
	captured := make(map[int]*types.InferenceVar, len(ct.Args))
	for i, arg := range ct.Args {
		if w, ok := arg.(*types.Wildcard); ok {
			iv := ctx.AddCapturedVar(cls.TypeParams[i], w)
			captured[i] = iv
			args[i] = iv
		} else {
			args[i] = arg
		}
	}
	for i, arg := range ct.Args {
		iv, ok := captured[i]
		if !ok {
			continue
		}
		w := arg.(*types.Wildcard)
		if bound := types.Subst(r.checker.UpperBound(cls.TypeParams[i]), cls.TypeParams, args); !isObject(r.Table, bound) {
			ctx.AddBound(iv, types.UPPER, bound)
		}
		switch w.Kind {
		case types.Extends:
			ctx.AddBound(iv, types.UPPER, w.Bound)
		case types.Super:
			ctx.AddBound(iv, types.LOWER, w.Bound)
		}
	}
	return r.Table.Type(ct.Sym, args...)
}

// checkDeferred checks the arguments which were not pertinent to applicability. The input
// variables of each argument are resolved before it is checked.
func (r *Resolver) checkDeferred(mc *methodCheck, call *Call, a *applicable) error {
	for _, i := range a.deferred {
		arg := call.Args[i]
		formal, elem := formalAt(a.params, i, a.phase)
		if mc.ctx != nil {
			if inputs := r.inputVars(mc.ctx, arg, formal); len(inputs) > 0 {
				if err := mc.ctx.Solve(inputs...); err != nil {
					return err
				}
			}
		}
		if ok, cause := r.checkExpr(mc, arg, formal); !ok {
			kind := ArgMismatch
			if elem {
				kind = VarargsMismatch
			}
			return r.argFailure(kind, i, arg, mc.ctx.Subst(formal), cause)
		}
	}
	return nil
}

// erase replaces the return and thrown types of an unchecked invocation by their erasures
// (JLS 15.12.2.6).
func (r *Resolver) erase(sig *Signature) {
	sig.Return = r.checker.Erasure(sig.Return)
	throws := make([]types.Type, len(sig.Throws))
	for i, t := range sig.Throws {
		throws[i] = r.checker.Erasure(t)
	}
	sig.Throws = throws
}
