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

	"github.com/wdamron/resolve/ast"
	"github.com/wdamron/resolve/infer"
	"github.com/wdamron/resolve/types"
)

var (
	// ErrNotFunctional is returned when a lambda or method reference targets a type which is not
	// a functional interface.
	ErrNotFunctional = errors.New("Target type is not a functional interface")
	// ErrNoParameterization is returned when a wildcard-parameterized functional interface has no
	// valid parameterization for a lambda.
	ErrNoParameterization = errors.New("No valid parameterization of the functional interface exists")
)

// InstantiateFunctionalInterfaceTarget derives the functional interface type a lambda is typed
// against from a (possibly wildcard-parameterized) target type. explicitParams are the declared
// parameter types of an explicitly typed lambda, or nil for an implicitly typed lambda or a
// method reference.
func (r *Resolver) InstantiateFunctionalInterfaceTarget(target types.Type, explicitParams []types.Type) (types.Type, error) {
	return r.functionalTarget(target, explicitParams, nil)
}

// functionalTarget instantiates target for a lambda. Bounds implied for inference-variables of an
// enclosing call are recorded with rec.
func (r *Resolver) functionalTarget(target types.Type, explicitParams []types.Type, rec types.Recorder) (types.Type, error) {
	ct, ok := target.(*types.ClassType)
	if !ok || !r.checker.IsFunctionalInterface(ct.Sym) {
		return nil, ErrNotFunctional
	}
	if !types.HasWildcards(ct) {
		return ct, nil
	}
	cls := r.Table.Class(ct.Sym)
	if len(cls.TypeParams) != len(ct.Args) {
		return nil, ErrNoParameterization
	}
	if explicitParams == nil {
		return r.nonWildcardParameterization(ct)
	}

	// the parameterization is inferred from the lambda's parameter types (JLS 18.5.3)
	ctx := r.NewContext()
	ivs := ctx.AddVars(cls.TypeParams)
	args := make([]types.Type, len(ivs))
	for i, iv := range ivs {
		args[i] = iv
	}
	desc, _ := r.checker.FindDescriptor(&types.ClassType{Sym: ct.Sym, Args: args})
	if len(desc.Params) != len(explicitParams) {
		return nil, errors.New("Incompatible parameter count in lambda expression")
	}
	for i, p := range explicitParams {
		if !r.checker.IsSameType(p, desc.Params[i], ctx) {
			return nil, errors.New("Incompatible parameter types in lambda expression")
		}
	}
	if err := ctx.Incorporate(); err != nil {
		return nil, err
	}
	for i, iv := range ivs {
		args[i] = ct.Args[i]
		for _, eq := range ctx.Bounds(iv, types.EQ) {
			if types.IsProper(eq) {
				args[i] = eq
				break
			}
		}
	}
	var inst types.Type = &types.ClassType{Sym: ct.Sym, Args: args}
	if types.HasWildcards(inst) {
		var err error
		if inst, err = r.nonWildcardParameterization(inst.(*types.ClassType)); err != nil {
			return nil, err
		}
	}
	if !r.checker.IsSubtype(inst, target, rec) {
		return nil, ErrNoParameterization
	}
	return inst, nil
}

// nonWildcardParameterization replaces each wildcard by the type it most closely stands for
// (JLS 9.9).
func (r *Resolver) nonWildcardParameterization(ct *types.ClassType) (types.Type, error) {
	cls := r.Table.Class(ct.Sym)
	args := make([]types.Type, len(ct.Args))
	for i, arg := range ct.Args {
		w, ok := arg.(*types.Wildcard)
		if !ok {
			args[i] = arg
			continue
		}
		bound := r.checker.UpperBound(cls.TypeParams[i])
		if mentionsAny(bound, cls.TypeParams) {
			return nil, ErrNoParameterization
		}
		switch w.Kind {
		case types.Unbounded:
			args[i] = bound
		case types.Extends:
			if isObject(r.Table, bound) || !types.IsProper(w.Bound) {
				args[i] = w.Bound
				break
			}
			glb, err := r.checker.GLB(w.Bound, bound)
			if err != nil {
				return nil, ErrNoParameterization
			}
			args[i] = glb
		case types.Super:
			args[i] = w.Bound
		}
	}
	return &types.ClassType{Sym: ct.Sym, Args: args}, nil
}

func isObject(table *types.Table, t types.Type) bool {
	ct, ok := t.(*types.ClassType)
	return ok && ct.Sym == table.Predef.Object
}

// descriptorShape returns the descriptor of the class of a functional interface type, ignoring
// its type-arguments. Only the arity and void-ness of the descriptor may be relied upon.
func (r *Resolver) descriptorShape(t types.Type) (*types.Descriptor, bool) {
	ct, ok := t.(*types.ClassType)
	if !ok || !r.checker.IsFunctionalInterface(ct.Sym) {
		return nil, false
	}
	return r.checker.FindDescriptor(r.Table.ThisType(ct.Sym))
}

// potentiallyCompatible checks the shape of an argument which is not pertinent to applicability
// against its formal (JLS 15.12.2.1).
func (r *Resolver) potentiallyCompatible(arg ast.Expr, formal types.Type, ctx *infer.Context) bool {
	if isMethodTypeParam(formal, ctx) {
		return true
	}
	switch e := arg.(type) {
	case *ast.Lambda:
		desc, ok := r.descriptorShape(formal)
		if !ok || len(desc.Params) != len(e.Params) {
			return false
		}
		if types.IsVoid(desc.Return) {
			return e.VoidCompatible()
		}
		return e.ValueCompatible()

	case *ast.MethodRef:
		desc, ok := r.descriptorShape(formal)
		if !ok {
			return false
		}
		n := len(desc.Params)
		for _, m := range r.allMembers(e.Qualifier, e.Name) {
			meth := r.Table.Method(m)
			if acceptsArity(meth, n) {
				return true
			}
			if e.Static && !meth.Flags.Has(types.Static) && n > 0 && acceptsArity(meth, n-1) {
				return true
			}
		}
		return false

	case *ast.Conditional:
		return r.potentiallyCompatible(e.Then, formal, ctx) && r.potentiallyCompatible(e.Else, formal, ctx)
	}
	return true
}

func acceptsArity(meth *types.Method, n int) bool {
	if meth.IsVarargs() {
		return n >= len(meth.Params)-1
	}
	return n == len(meth.Params)
}

// checkLambda checks a lambda against its formal: the parameter count, the declared parameter
// types of an explicitly typed lambda, and every result expression against the descriptor's
// return type.
func (r *Resolver) checkLambda(mc *methodCheck, l *ast.Lambda, formal types.Type) (bool, error) {
	formal = mc.ctx.Subst(formal)
	var explicit []types.Type
	if l.Explicit() {
		explicit = l.ParamTypes()
	}
	target, err := r.functionalTarget(formal, explicit, mc.recorder())
	if err != nil {
		return false, err
	}
	desc, ok := r.checker.FindDescriptor(target)
	if !ok {
		return false, ErrNotFunctional
	}
	if len(desc.Params) != len(l.Params) {
		return false, errors.New("Incompatible parameter count in lambda expression")
	}
	if l.Explicit() {
		for i, p := range explicit {
			if !r.checker.IsSameType(p, desc.Params[i], mc.recorder()) {
				return false, errors.New("Incompatible parameter types in lambda expression")
			}
		}
	}
	if types.IsVoid(desc.Return) {
		if !l.VoidCompatible() {
			return false, errors.New("Bad return type in lambda expression: unexpected return value")
		}
		return true, nil
	}
	if !l.ValueCompatible() {
		return false, errors.New("Bad return type in lambda expression: missing return value")
	}
	// result expressions are in an assignment context
	rmc := &methodCheck{mode: mc.mode, phase: Loose, ctx: mc.ctx, site: mc.site}
	for _, res := range l.Results() {
		if ok, cause := r.checkExpr(rmc, res, desc.Return); !ok {
			if cause != nil {
				return false, cause
			}
			return false, errors.New("Bad return type in lambda expression: " + r.argString(res) + " cannot be converted to " + types.TypeString(r.Table, desc.Return))
		}
	}
	return true, nil
}

// checkMethodRef checks a method reference against its formal: the compile-time declaration
// must be applicable to the descriptor's parameter types, and its return type compatible with
// the descriptor's return type.
func (r *Resolver) checkMethodRef(mc *methodCheck, mr *ast.MethodRef, formal types.Type) (bool, error) {
	formal = mc.ctx.Subst(formal)
	target, err := r.functionalTarget(formal, nil, mc.recorder())
	if err != nil {
		return false, err
	}
	desc, ok := r.checker.FindDescriptor(target)
	if !ok {
		return false, ErrNotFunctional
	}
	decl, err := r.methodRefDecl(mc, mr, desc)
	if err != nil {
		return false, err
	}
	if types.IsVoid(desc.Return) {
		return true, decl.solve()
	}
	if types.IsVoid(decl.ret) {
		return false, errors.New("Bad return type in method reference: void cannot be converted to " + types.TypeString(r.Table, desc.Return))
	}
	rmc := &methodCheck{mode: methodRefCheck, phase: Loose, ctx: decl.ctx, site: mc.site}
	if !r.compatible(rmc, decl.ret, desc.Return) {
		return false, errors.New("Bad return type in method reference: " + types.TypeString(r.Table, decl.ret) + " cannot be converted to " + types.TypeString(r.Table, desc.Return))
	}
	return true, decl.solve()
}

// refDecl is the compile-time declaration of a method reference.
type refDecl struct {
	method types.MethodID
	ret    types.Type
	// ctx holds the inference-variables of a generic declaration. It is the enclosing call's
	// context, or a private context which must be solved before the reference is accepted.
	ctx     *infer.Context
	private bool
}

func (d *refDecl) solve() error {
	if !d.private {
		return nil
	}
	return d.ctx.Solve()
}

// methodRefDecl searches the compile-time declaration of a method reference (JLS 15.13.1). A
// reference through a type searches static methods with the descriptor's parameters as
// arguments, and instance methods with the first parameter as the receiver.
func (r *Resolver) methodRefDecl(mc *methodCheck, mr *ast.MethodRef, desc *types.Descriptor) (*refDecl, error) {
	site := r.checker.Capture(mr.Qualifier)
	members := r.allMembers(site, mr.Name)
	if len(members) == 0 {
		return nil, errors.New("Invalid method reference: cannot find symbol " + mr.Name)
	}
	var first, second []types.MethodID
	for _, m := range members {
		static := r.Table.Method(m).Flags.Has(types.Static)
		switch {
		case !mr.Static:
			if !static && r.refApplicable(mc, site, m, desc.Params, false) != nil {
				first = append(first, m)
			}
		case static:
			if r.refApplicable(mc, site, m, desc.Params, false) != nil {
				first = append(first, m)
			}
		case len(desc.Params) > 0:
			if r.refReceiver(mc, desc.Params[0], site, false) && r.refApplicable(mc, site, m, desc.Params[1:], false) != nil {
				second = append(second, m)
			}
		}
	}
	if len(first) > 0 && len(second) > 0 {
		return nil, errors.New("Invalid method reference: both a static and an instance method " + mr.Name + " are applicable")
	}
	cands, args := first, desc.Params
	if len(second) > 0 {
		cands, args = second, desc.Params[1:]
	}
	if len(cands) == 0 {
		return nil, errors.New("Invalid method reference: no method " + mr.Name + " is applicable to the functional descriptor")
	}
	m, ok := r.refMostSpecific(site, cands)
	if !ok {
		return nil, errors.New("Invalid method reference: reference to " + mr.Name + " is ambiguous")
	}
	// the receiver and argument bounds were only checked apart; recorded together they may conflict
	if len(second) > 0 && !r.refReceiver(mc, desc.Params[0], site, true) {
		return nil, errors.New("Invalid method reference: the receiver is incompatible with " + types.TypeString(r.Table, site))
	}
	d := r.refApplicable(mc, site, m, args, true)
	if d == nil {
		return nil, errors.New("Invalid method reference: " + r.Table.MethodString(m) + " is not applicable to the functional descriptor")
	}
	return d, nil
}

// refReceiver checks the first descriptor parameter of an unbound reference against the
// qualifying type.
func (r *Resolver) refReceiver(mc *methodCheck, recv, site types.Type, record bool) bool {
	if !record && mc.ctx != nil {
		snap := mc.ctx.Snapshot()
		defer mc.ctx.Rollback(snap)
	}
	rmc := &methodCheck{mode: methodRefCheck, phase: Loose, ctx: mc.ctx, site: mc.site}
	if !r.compatible(rmc, recv, site) {
		return false
	}
	return mc.ctx.Incorporate() == nil
}

// refApplicable checks a method of a reference's qualifier against the descriptor's parameter
// types. Unless record is set, the bounds it implies are discarded.
func (r *Resolver) refApplicable(mc *methodCheck, site types.Type, m types.MethodID, args []types.Type, record bool) *refDecl {
	meth := r.Table.Method(m)
	params := r.checker.MemberParams(site, m)
	ret := r.checker.MemberReturn(site, m)
	d := &refDecl{method: m, ctx: mc.ctx}
	if meth.IsGeneric() && d.ctx == nil {
		d.ctx, d.private = r.NewContext(), true
	}
	if !record && !d.private && d.ctx != nil {
		snap := d.ctx.Snapshot()
		defer d.ctx.Rollback(snap)
	}
	if meth.IsGeneric() {
		ivs := d.ctx.AddVars(meth.TypeParams)
		to := make([]types.Type, len(ivs))
		for i, iv := range ivs {
			to[i] = iv
		}
		params = types.SubstList(params, meth.TypeParams, to)
		ret = types.Subst(ret, meth.TypeParams, to)
	}
	d.ret = ret
	phase := Loose
	switch {
	case len(args) == len(params):
	case meth.IsVarargs() && len(args) >= len(params)-1:
		phase = Varargs
	default:
		return nil
	}
	rmc := &methodCheck{mode: methodRefCheck, phase: Loose, ctx: d.ctx, site: mc.site}
	for i, arg := range args {
		formal, _ := formalAt(params, i, phase)
		if !r.compatible(rmc, arg, formal) {
			return nil
		}
	}
	if d.ctx.Incorporate() != nil {
		return nil
	}
	return d
}

// refMostSpecific picks the candidate whose parameters are subtypes of every other candidate's.
func (r *Resolver) refMostSpecific(site types.Type, cands []types.MethodID) (types.MethodID, bool) {
	if len(cands) == 1 {
		return cands[0], true
	}
	for _, m1 := range cands {
		p1 := r.checker.MemberParams(site, m1)
		best := true
		for _, m2 := range cands {
			if m1 == m2 {
				continue
			}
			p2 := r.checker.MemberParams(site, m2)
			if len(p1) != len(p2) {
				best = false
				break
			}
			for i := range p1 {
				if !r.checker.IsSubtype(p1[i], p2[i], nil) {
					best = false
					break
				}
			}
			if !best {
				break
			}
		}
		if best {
			return m1, true
		}
	}
	return types.NoMethod, false
}

// exactMethodRef reports whether a method reference has exactly one possible compile-time
// declaration, which is neither generic nor of variable arity (JLS 15.13.1).
func (r *Resolver) exactMethodRef(mr *ast.MethodRef) (types.MethodID, bool) {
	members := r.allMembers(r.checker.Capture(mr.Qualifier), mr.Name)
	if len(members) != 1 {
		return types.NoMethod, false
	}
	meth := r.Table.Method(members[0])
	if meth.IsGeneric() || meth.IsVarargs() {
		return types.NoMethod, false
	}
	return members[0], true
}
