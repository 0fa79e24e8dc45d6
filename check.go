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
	"errors"
	"strconv"

	"github.com/wdamron/resolve/ast"
	"github.com/wdamron/resolve/infer"
	"github.com/wdamron/resolve/types"
)

// checkMode selects how argument/formal compatibility is decided.
type checkMode uint8

const (
	// pure subtyping or conversion; formals are proper
	basicCheck checkMode = iota
	// formals mention inference-variables; compatibility records bounds
	resolveCheck
	// formals of one candidate against the formals of another
	mostSpecificCheck
	// inference-variables may also appear on the actual side (method reference parameters)
	methodRefCheck
)

// methodCheck is the state of checking the arguments of one call against one candidate.
type methodCheck struct {
	mode  checkMode
	phase Phase
	ctx   *infer.Context
	site  Scope
	// set when an argument required an unchecked conversion
	unchecked bool
}

func (mc *methodCheck) recorder() types.Recorder {
	if mc.ctx == nil {
		return nil
	}
	return mc.ctx
}

// compatible reports whether actual is compatible with formal in the phase of mc.
func (r *Resolver) compatible(mc *methodCheck, actual, formal types.Type) bool {
	c, rec := r.checker, mc.recorder()
	if types.IsVoid(actual) {
		return false
	}
	if mc.mode == mostSpecificCheck {
		if mc.phase != Strict && types.IsPrimitive(actual) != types.IsPrimitive(formal) {
			if p, ok := actual.(*types.Prim); ok {
				actual = c.Box(p)
			} else if p := c.Unbox(actual); p != nil {
				actual = p
			}
		}
		return c.IsSubtypeNoCapture(actual, formal, rec)
	}
	if types.IsPrimitive(actual) != types.IsPrimitive(formal) {
		if mc.phase == Strict {
			return false
		}
		return c.IsConvertible(actual, formal, rec)
	}
	if types.IsPrimitive(actual) {
		return c.IsSubtype(actual, formal, nil)
	}
	ok, unchecked := c.IsSubtypeUnchecked(actual, formal, rec)
	if ok && unchecked {
		mc.unchecked = true
	}
	return ok
}

// applicable is a candidate which passed the applicability check of a phase.
type applicable struct {
	method types.MethodID
	phase  Phase
	// ctx holds the bounds implied by the pertinent arguments; nil when nothing is inferred
	ctx      *infer.Context
	ivars    []*types.InferenceVar
	typeArgs []types.Type
	params   []types.Type
	ret      types.Type
	throws   []types.Type
	// indexes of the arguments not pertinent to applicability
	deferred  []int
	unchecked bool
}

func (a *applicable) subst(from []*types.TypeVar, to []types.Type) {
	a.params = types.SubstList(a.params, from, to)
	a.ret = types.Subst(a.ret, from, to)
	a.throws = types.SubstList(a.throws, from, to)
}

// formalAt returns the formal matched by argument i. In the variable-arity phase, trailing
// arguments are matched against the element type of the last formal.
func formalAt(params []types.Type, i int, phase Phase) (types.Type, bool) {
	last := len(params) - 1
	if phase == Varargs && i >= last {
		return varargsElem(params[last]), true
	}
	return params[i], false
}

func varargsElem(t types.Type) types.Type {
	if at, ok := t.(*types.ArrayType); ok {
		return at.Elem
	}
	return t
}

// checkMethod checks the applicability of m (as a member of site) to the arguments of call in
// a phase. Generic methods without explicit type-arguments get a fresh inference context; the
// bounds implied by the pertinent arguments must be resolvable.
func (r *Resolver) checkMethod(call *Call, site types.Type, m types.MethodID, phase Phase) (*applicable, *Failure) {
	meth := r.Table.Method(m)
	a := &applicable{
		method: m,
		phase:  phase,
		params: r.checker.MemberParams(site, m),
		ret:    r.checker.MemberReturn(site, m),
		throws: r.checker.MemberThrows(site, m),
	}
	n := len(call.Args)
	switch {
	case phase == Varargs && !meth.IsVarargs():
		return nil, r.arityFailure(len(a.params), n)
	case phase == Varargs && n < len(a.params)-1:
		return nil, r.arityFailure(len(a.params)-1, n)
	case phase != Varargs && n != len(a.params):
		return nil, r.arityFailure(len(a.params), n)
	}

	tparams := meth.TypeParams
	if call.Diamond && meth.IsConstructor() {
		if len(call.TypeArgs) > 0 {
			return nil, r.typeArgsFailure("Explicit type-arguments cannot be used with <>")
		}
		// the class's type-parameters are inferred along with the constructor's
		tparams = append(append([]*types.TypeVar(nil), r.Table.Class(meth.Owner).TypeParams...), meth.TypeParams...)
	}
	if len(tparams) > 0 {
		if len(call.TypeArgs) > 0 {
			if f := r.checkTypeArgs(meth, call.TypeArgs); f != nil {
				return nil, f
			}
			a.typeArgs = call.TypeArgs
			a.subst(meth.TypeParams, call.TypeArgs)
		} else {
			a.ctx = r.NewContext()
			a.ivars = a.ctx.AddVars(tparams)
			to := make([]types.Type, len(a.ivars))
			for i, iv := range a.ivars {
				to[i] = iv
				if r.isThrowsParam(meth, tparams[i]) {
					a.ctx.SetThrows(iv)
				}
			}
			a.subst(tparams, to)
		}
	}

	mc := &methodCheck{mode: basicCheck, phase: phase, ctx: a.ctx, site: call.Site}
	if a.ctx != nil {
		mc.mode = resolveCheck
	}
	for i, arg := range call.Args {
		formal, elem := formalAt(a.params, i, phase)
		if !r.pertinent(arg, formal, a.ctx) {
			if !r.potentiallyCompatible(arg, formal, a.ctx) {
				return nil, r.argFailure(ArgMismatch, i, arg, formal, nil)
			}
			a.deferred = append(a.deferred, i)
			continue
		}
		if ok, cause := r.checkExpr(mc, arg, formal); !ok {
			kind := ArgMismatch
			if elem {
				kind = VarargsMismatch
			}
			return nil, r.argFailure(kind, i, arg, formal, cause)
		}
	}
	a.unchecked = mc.unchecked

	if phase == Varargs {
		elem := varargsElem(a.params[len(a.params)-1])
		if !r.isTypeAccessible(call.Site, r.checker.Erasure(a.ctx.Subst(elem))) {
			return nil, r.varargsAccessFailure(elem)
		}
	}

	if a.ctx != nil {
		if err := a.ctx.Incorporate(); err != nil {
			return nil, inferenceFailure(err)
		}
		// the bounds must be resolvable, but the method's instantiation waits for the target
		snap := a.ctx.Snapshot()
		err := a.ctx.Solve()
		a.ctx.Rollback(snap)
		if err != nil {
			return nil, inferenceFailure(err)
		}
	}
	return a, nil
}

func (r *Resolver) checkTypeArgs(meth *types.Method, typeArgs []types.Type) *Failure {
	if len(typeArgs) != len(meth.TypeParams) {
		return r.typeArgsFailure("Wrong number of type-arguments; required " + strconv.Itoa(len(meth.TypeParams)) + ", found " + strconv.Itoa(len(typeArgs)))
	}
	for i, tp := range meth.TypeParams {
		bound := types.Subst(r.checker.UpperBound(tp), meth.TypeParams, typeArgs)
		if !r.checker.IsSubtype(typeArgs[i], bound, nil) {
			return r.typeArgsFailure("Explicit type-argument " + types.TypeString(r.Table, typeArgs[i]) + " does not conform to declared bound " + types.TypeString(r.Table, bound))
		}
	}
	return nil
}

// isThrowsParam reports whether a type-parameter only appears in the throws clause of a method
// and is bounded by a throwable type.
func (r *Resolver) isThrowsParam(meth *types.Method, tp *types.TypeVar) bool {
	thrown := false
	for _, t := range meth.Throws {
		if t == types.Type(tp) {
			thrown = true
		}
	}
	if !thrown || types.Mentions(meth.Return, tp) {
		return false
	}
	for _, p := range meth.Params {
		if types.Mentions(p, tp) {
			return false
		}
	}
	bound, ok := r.checker.UpperBound(tp).(*types.ClassType)
	return ok && r.Table.IsSubclass(bound.Sym, r.Table.Predef.Throwable)
}

// checkExpr checks an argument expression against a formal. The error, if any, explains a
// failure of a nested call or of a lambda or method reference.
func (r *Resolver) checkExpr(mc *methodCheck, arg ast.Expr, formal types.Type) (bool, error) {
	switch e := arg.(type) {
	case *ast.Typed:
		return r.compatible(mc, e.T, formal), nil

	case *ast.Conditional:
		if t := e.Type(); t != nil {
			return r.compatible(mc, t, formal), nil
		}
		// a poly conditional is compatible if both branches are; a failed branch leaves no bounds
		check := func() error {
			for _, branch := range [...]ast.Expr{e.Then, e.Else} {
				if ok, cause := r.checkExpr(mc, branch, formal); !ok {
					if cause == nil {
						cause = errIncompatibleBranch
					}
					return cause
				}
			}
			return nil
		}
		var err error
		if mc.ctx != nil {
			err = mc.ctx.Try(check)
		} else {
			err = check()
		}
		if err == errIncompatibleBranch {
			return false, nil
		}
		return err == nil, err

	case *ast.Lambda:
		return r.checkLambda(mc, e, formal)

	case *ast.MethodRef:
		return r.checkMethodRef(mc, e, formal)

	case *ast.Call:
		return r.checkCall(mc, e, formal)
	}
	panic("unexpected argument expression " + arg.ExprName())
}

var errIncompatibleBranch = errors.New("Incompatible conditional branch")

// nestedCall is a method invocation used as an argument. It is resolved once per top-level
// call; a generic invocation whose return type mentions its type-parameters is a poly
// expression and is instantiated against each formal it is checked against.
type nestedCall struct {
	call *Call
	sel  selection
	poly bool
	// standalone type of a non-poly invocation
	ret types.Type
	err error
}

func (r *Resolver) resolveNested(site Scope, e *ast.Call) *nestedCall {
	if nc, ok := r.nested[e]; ok {
		return nc
	}
	nc := &nestedCall{call: &Call{Site: site, Receiver: e.Receiver, Name: e.Name, Args: e.Args, TypeArgs: e.TypeArgs}}
	r.nested[e] = nc
	sel, _, err := r.selectMethod(nc.call)
	if err != nil {
		nc.err = err
		return nc
	}
	nc.sel = sel
	meth := r.Table.Method(sel.method)
	nc.poly = meth.IsGeneric() && len(e.TypeArgs) == 0 && mentionsAny(meth.Return, meth.TypeParams)
	if !nc.poly {
		sig, err := r.instantiate(nc.call, sel, Loose)
		if err != nil {
			nc.err = err
			return nc
		}
		nc.ret = sig.Return
		e.SetType(sig.Return)
	}
	return nc
}

// checkCall checks a nested method invocation against a formal. The variables of a poly
// invocation which remain open are propagated into the enclosing call's context.
func (r *Resolver) checkCall(mc *methodCheck, e *ast.Call, formal types.Type) (bool, error) {
	nc := r.resolveNested(mc.site, e)
	if nc.err != nil {
		return false, nc.err
	}
	if !nc.poly {
		if types.IsVoid(nc.ret) {
			return false, nil
		}
		return r.compatible(mc, nc.ret, formal), nil
	}
	inner := *nc.call
	inner.Expected = formal
	if mc.ctx.IsFree(formal) {
		inner.Outer = mc.ctx
	}
	if _, err := r.instantiate(&inner, nc.sel, mc.phase); err != nil {
		return false, err
	}
	return true, nil
}

func mentionsAny(t types.Type, tparams []*types.TypeVar) bool {
	for _, tp := range tparams {
		if types.Mentions(t, tp) {
			return true
		}
	}
	return false
}
