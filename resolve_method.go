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
	"github.com/wdamron/resolve/internal/logging"
	"github.com/wdamron/resolve/types"
)

// ResolveMethod selects the method invoked by call and infers its invocation type. Exactly one of
// the results is non-nil; the error is always a *ResolveError.
func (r *Resolver) ResolveMethod(call *Call) (*Resolution, error) {
	r.enter()
	defer r.leave()
	return r.resolve(call)
}

// ResolveConstructor selects the constructor invoked by a class instance creation expression
// and infers its invocation type. call.Receiver is the class type created and call.Name is
// ignored; constructors are not inherited, so only those of the class itself are candidates.
// For a diamond call the class type-arguments are inferred, and the signature lists them before
// the constructor's own.
func (r *Resolver) ResolveConstructor(call *Call) (*Resolution, error) {
	r.enter()
	defer r.leave()
	c := *call
	c.Name = types.ConstructorName
	ct, ok := call.Receiver.(*types.ClassType)
	if !ok {
		return nil, r.fail(&c, r.notFoundError(&c, call.Receiver))
	}
	if c.Diamond {
		c.Receiver = r.Table.ThisType(ct.Sym)
	}
	res, err := r.resolve(&c)
	if err != nil {
		return nil, err
	}
	if !c.Diamond {
		// `new Box(x)` creates a raw Box, `new Box<String>(x)` a Box<String>
		res.Signature.Return = call.Receiver
	}
	return res, nil
}

func (r *Resolver) resolve(call *Call) (*Resolution, error) {
	sel, cands, rerr := r.selectMethod(call)
	if rerr != nil {
		return nil, r.fail(call, rerr)
	}
	sig, err := r.instantiate(call, sel, Loose)
	if err != nil {
		if f, ok := err.(*Failure); ok {
			return nil, r.fail(call, r.inapplicableError(call, []Candidate{{Method: sel.method, Phase: sel.phase, Failure: f}}))
		}
		return nil, r.fail(call, r.inferenceError(call, sel.method, err))
	}
	if r.log.Enabled(logging.LevelVerbose) {
		r.log.Verbosef("%s resolved to %s in the %s phase", call.Name, r.Table.MethodString(sel.method), sel.phase)
	}
	return &Resolution{Method: sel.method, Phase: sel.phase, Signature: sig, Candidates: cands}, nil
}

// InstantiateGenericMethod infers the invocation type of m, a member of site, for a list of
// arguments. The phases are tried in order until m is applicable. Calls among the arguments are
// resolved from the root scope.
func (r *Resolver) InstantiateGenericMethod(m types.MethodID, site types.Type, args []ast.Expr, typeArgs []types.Type, expected types.Type, outer *infer.Context) (*Signature, error) {
	r.enter()
	defer r.leave()
	meth := r.Table.Method(m)
	if site == nil {
		site = r.Table.ThisType(meth.Owner)
	}
	call := &Call{Site: Root, Receiver: site, Name: meth.Name, Args: args, TypeArgs: typeArgs, Expected: expected, Outer: outer}
	var last *Failure
	for _, phase := range r.phases() {
		if _, f := r.checkMethod(call, site, m, phase); f != nil {
			last = f
			continue
		}
		return r.instantiate(call, selection{method: m, site: site, phase: phase}, Loose)
	}
	return nil, last
}

func (r *Resolver) enter() {
	if r.depth == 0 {
		r.reset()
	}
	r.depth++
}

func (r *Resolver) leave() {
	r.depth--
	if r.depth == 0 {
		r.needsReset = true
	}
}

func (r *Resolver) fail(call *Call, err *ResolveError) error {
	r.err, r.invalid = err, call
	r.log.Verbosef("%v", err)
	return err
}

// selection is the method chosen for a call, before its invocation type is inferred.
type selection struct {
	method types.MethodID
	site   types.Type
	phase  Phase
}

type bestKind uint8

const (
	absent bestKind = iota
	denied
	wrong
	wrongs
	found
	ambiguous
)

// best is the outcome of a scan so far: the most specific method, the methods tied for most
// specific, or the most specific error.
type best struct {
	kind   bestKind
	phase  Phase
	method types.MethodID
	// why the method is not accessible
	reason string
	failed []Candidate
	tied   []types.MethodID
}

// rank orders errors by specificity. A phase in which every candidate failed on arity found
// nothing more than an empty phase.
func (b *best) rank() int {
	switch b.kind {
	case denied:
		return 1
	case wrong, wrongs:
		for _, c := range b.failed {
			if c.Failure.Kind != ArityMismatch {
				if b.kind == wrongs {
					return 3
				}
				return 2
			}
		}
	}
	return 0
}

// mergePhases keeps the result of a later phase unless it is an error less specific than the
// error of an earlier phase.
func mergePhases(prev, next *best) *best {
	if next.kind >= found {
		return next
	}
	if next.kind == absent || next.rank() < prev.rank() {
		return prev
	}
	return next
}

// selectMethod runs the phases for a call and returns the selected method. Every candidate
// checked is logged.
func (r *Resolver) selectMethod(call *Call) (selection, []Candidate, *ResolveError) {
	site, static, ok := r.searchSite(call)
	if !ok {
		return selection{}, nil, r.notFoundError(call, call.Receiver)
	}
	var log []Candidate
	var b *best
	for _, phase := range r.phases() {
		if r.log.Enabled(logging.LevelTrace) {
			r.log.Tracef("%s phase: %s(%s) in %s", phase, call.Name, r.argsString(call.Args), types.TypeString(r.Table, site))
		}
		r.log.Enter()
		next := r.scan(call, site, phase, &log)
		r.log.Leave()
		if b == nil {
			b = next
		} else {
			b = mergePhases(b, next)
		}
		if b.kind >= found {
			break
		}
	}

	switch b.kind {
	case found:
		if static && !r.Table.Method(b.method).Flags.Has(types.Static) {
			return selection{}, log, r.staticContextError(call, b.method)
		}
		return selection{method: b.method, site: site, phase: b.phase}, log, nil
	case ambiguous:
		cands := make([]Candidate, len(b.tied))
		for i, m := range b.tied {
			cands[i] = Candidate{Method: m, Phase: b.phase}
		}
		return selection{}, log, r.ambiguityError(call, cands)
	case denied:
		return selection{}, log, r.accessError(call, b.method, b.reason)
	case wrong, wrongs:
		return selection{}, log, r.inapplicableError(call, b.failed)
	}
	return selection{}, log, r.notFoundError(call, site)
}

// searchSite returns the type whose members are searched. An unqualified call searches the
// innermost enclosing class which has a method of the given name (JLS 15.12.1); static is set
// when the call reaches that class through a static context, so only its static methods may be
// invoked (JLS 15.12.3).
func (r *Resolver) searchSite(call *Call) (site types.Type, static bool, ok bool) {
	if call.Receiver != nil {
		return r.checker.Capture(call.Receiver), false, true
	}
	for _, cc := range r.Env.classContexts(call.Site) {
		supers, abstractOk, defaultOk := r.hierarchy(cc.class)
		for _, group := range [...][]types.ClassID{supers, abstractOk, defaultOk} {
			for _, s := range group {
				if len(r.Table.Members(s, call.Name)) > 0 {
					return r.Table.ThisType(cc.class), cc.static, true
				}
			}
		}
	}
	return nil, false, false
}

func (r *Resolver) siteClass(site types.Type) types.ClassID {
	if ct, ok := r.checker.Erasure(site).(*types.ClassType); ok {
		return ct.Sym
	}
	return r.Table.Predef.Object
}

// hierarchy returns the superclass chain of c (c first), then the interfaces implemented along
// the chain split in two groups: those reached before the first concrete class (abstract methods
// allowed) and the remaining ones (only default methods searched). Interfaces are listed once,
// depth-first.
func (r *Resolver) hierarchy(c types.ClassID) (supers, abstractOk, defaultOk []types.ClassID) {
	seen := make(map[types.ClassID]bool, 8)
	var visit func(group *[]types.ClassID, t types.Type)
	visit = func(group *[]types.ClassID, t types.Type) {
		ct, ok := t.(*types.ClassType)
		if !ok || seen[ct.Sym] {
			return
		}
		seen[ct.Sym] = true
		*group = append(*group, ct.Sym)
		for _, it := range r.Table.Class(ct.Sym).Interfaces {
			visit(group, it)
		}
	}
	allowAbstract := true
	for c != types.NoClass {
		seen[c] = true
		supers = append(supers, c)
		cls := r.Table.Class(c)
		if allowAbstract && !cls.IsInterface() && !cls.Flags.Has(types.Abstract) {
			allowAbstract = false
		}
		group := &defaultOk
		if allowAbstract {
			group = &abstractOk
		}
		for _, it := range cls.Interfaces {
			visit(group, it)
		}
		switch {
		case cls.Super != nil:
			c = cls.Super.(*types.ClassType).Sym
		case cls.IsInterface() && !seen[r.Table.Predef.Object]:
			// interfaces implicitly declare the public methods of Object
			c = r.Table.Predef.Object
		default:
			c = types.NoClass
		}
	}
	return supers, abstractOk, defaultOk
}

// scan checks every member of site named call.Name in one phase: the superclass chain first,
// then the interfaces in an abstract-allowed and a default-required pass.
func (r *Resolver) scan(call *Call, site types.Type, phase Phase, log *[]Candidate) *best {
	b := &best{kind: absent, phase: phase, method: types.NoMethod}
	siteClass := r.siteClass(site)
	supers, abstractOk, defaultOk := r.hierarchy(siteClass)
	for _, c := range supers {
		for _, m := range r.Table.Members(c, call.Name) {
			b = r.selectBest(call, site, siteClass, m, phase, b, log)
		}
	}
	// a concrete method of a superclass wins over an interface method with the same signature
	concrete := types.NoMethod
	if b.kind == found && !r.Table.Method(b.method).IsAbstract() {
		concrete = b.method
	}
	for pass, group := range [...][]types.ClassID{abstractOk, defaultOk} {
		for _, it := range group {
			for _, m := range r.Table.Members(it, call.Name) {
				meth := r.Table.Method(m)
				if pass == 1 && !meth.Flags.Has(types.Default) {
					continue
				}
				if meth.Flags.Has(types.Static) && it != siteClass {
					// static interface methods are not inherited
					continue
				}
				if concrete != types.NoMethod && r.checker.SameSignature(concrete, m, site) {
					continue
				}
				b = r.selectBest(call, site, siteClass, m, phase, b, log)
			}
		}
	}
	return b
}

// isInherited reports whether m is a member of siteClass.
func (r *Resolver) isInherited(m types.MethodID, siteClass types.ClassID) bool {
	meth := r.Table.Method(m)
	if meth.Owner == siteClass {
		return true
	}
	if meth.IsConstructor() {
		return false
	}
	switch meth.Flags.Access() {
	case types.Private:
		return false
	case 0:
		return r.Table.Class(meth.Owner).Package == r.Table.Class(siteClass).Package
	}
	return true
}

// selectBest checks one candidate and combines its outcome with the best result so far.
// Errors only ever become more specific: absent < denied < wrong < wrongs.
func (r *Resolver) selectBest(call *Call, site types.Type, siteClass types.ClassID, m types.MethodID, phase Phase, b *best, log *[]Candidate) *best {
	meth := r.Table.Method(m)
	if !r.isInherited(m, siteClass) || (phase == Varargs && !meth.IsVarargs()) {
		return b
	}
	_, f := r.checkMethod(call, site, m, phase)
	*log = append(*log, Candidate{Method: m, Phase: phase, Failure: f})
	if f != nil {
		if r.log.Enabled(logging.LevelTrace) {
			r.log.Tracef("%s is not applicable: %v", r.Table.MethodString(m), f)
		}
		switch b.kind {
		case absent, denied:
			return &best{kind: wrong, phase: phase, method: types.NoMethod, failed: []Candidate{(*log)[len(*log)-1]}}
		case wrong, wrongs:
			b.kind = wrongs
			b.failed = append(b.failed, (*log)[len(*log)-1])
		}
		return b
	}
	if reason, ok := r.isAccessible(call.Site, site, m); !ok {
		r.log.Tracef("%s is not accessible: %s", r.Table.MethodString(m), reason)
		if b.kind == absent {
			return &best{kind: denied, phase: phase, method: m, reason: reason}
		}
		return b
	}
	r.log.Tracef("%s is applicable", r.Table.MethodString(m))
	if b.kind < found {
		return &best{kind: found, phase: phase, method: m}
	}
	return r.mostSpecific(call, site, m, b, phase)
}

// mostSpecific reduces an applicable method and the best result so far. Methods which are
// neither more nor less specific than each other accumulate in a tie, which a later method more
// specific than every tied method resolves.
func (r *Resolver) mostSpecific(call *Call, site types.Type, m1 types.MethodID, b *best, phase Phase) *best {
	switch b.kind {
	case found:
		if w, ok := r.mostSpecificPair(call, site, m1, b.method, phase); ok {
			b.method = w
			return b
		}
		return &best{kind: ambiguous, phase: phase, method: types.NoMethod, tied: []types.MethodID{b.method, m1}}
	case ambiguous:
		m1Wins, tiedWin := true, true
		for _, m2 := range b.tied {
			w, ok := r.mostSpecificPair(call, site, m1, m2, phase)
			m1Wins = m1Wins && ok && w == m1
			tiedWin = tiedWin && ok && w == m2
		}
		if m1Wins {
			return &best{kind: found, phase: phase, method: m1}
		}
		if !tiedWin {
			b.tied = append(b.tied, m1)
		}
		return b
	}
	panic("unreachable: most-specific reduction of an error")
}

// mostSpecificPair returns the more specific of two applicable methods. Methods with the same
// signature are ordered: non-bridge over bridge, overriding over overridden, concrete over
// abstract.
func (r *Resolver) mostSpecificPair(call *Call, site types.Type, m1, m2 types.MethodID, phase Phase) (types.MethodID, bool) {
	if m1 == m2 {
		return m1, true
	}
	m1More := r.signatureMoreSpecific(call, site, m1, m2, phase)
	m2More := r.signatureMoreSpecific(call, site, m2, m1, phase)
	if r.log.Enabled(logging.LevelTrace) {
		r.log.Tracef("%s more specific than %s: %t; reverse: %t", r.Table.MethodString(m1), r.Table.MethodString(m2), m1More, m2More)
	}
	switch {
	case m1More && m2More:
		if !r.checker.SameSignature(m1, m2, site) {
			return types.NoMethod, false
		}
		meth1, meth2 := r.Table.Method(m1), r.Table.Method(m2)
		if b1, b2 := meth1.Flags.Has(types.Bridge), meth2.Flags.Has(types.Bridge); b1 != b2 {
			if b1 {
				return m2, true
			}
			return m1, true
		}
		itf1, itf2 := r.Table.Class(meth1.Owner).IsInterface(), r.Table.Class(meth2.Owner).IsInterface()
		if (!itf1 || itf2) && r.checker.Overrides(m1, m2) {
			return m1, true
		}
		if (!itf2 || itf1) && r.checker.Overrides(m2, m1) {
			return m2, true
		}
		a1, a2 := meth1.IsAbstract(), meth2.IsAbstract()
		if a1 && !a2 {
			return m2, true
		}
		if a2 && !a1 {
			return m1, true
		}
		// abstract methods with the same signature from unrelated interfaces are not merged
		// into one candidate; the call is ambiguous
		return types.NoMethod, false
	case m1More:
		return m1, true
	case m2More:
		return m2, true
	}
	return types.NoMethod, false
}

// signatureMoreSpecific reports whether m1 is more specific than m2 for the arguments of call
// (JLS 15.12.2.5): each formal of m1 must be a subtype of the corresponding formal of m2, whose
// type-parameters are inferred. Functional interface formals unrelated by subtyping are compared
// through their descriptors when the argument is an explicitly typed lambda or an exact method
// reference.
func (r *Resolver) signatureMoreSpecific(call *Call, site types.Type, m1, m2 types.MethodID, phase Phase) bool {
	p1 := r.checker.MemberParams(site, m1)
	p2 := r.checker.MemberParams(site, m2)
	k := len(call.Args)
	if phase == Varargs {
		if len(p1) > k {
			k = len(p1)
		}
		if len(p2) > k {
			k = len(p2)
		}
	}
	var ctx *infer.Context
	if meth2 := r.Table.Method(m2); meth2.IsGeneric() {
		ctx = r.NewContext()
		ivs := ctx.AddVars(meth2.TypeParams)
		to := make([]types.Type, len(ivs))
		for i, iv := range ivs {
			to[i] = iv
		}
		p2 = types.SubstList(p2, meth2.TypeParams, to)
	}
	mc := &methodCheck{mode: mostSpecificCheck, phase: phase, ctx: ctx, site: call.Site}
	for i := 0; i < k; i++ {
		s, _ := formalAt(p1, i, phase)
		t, _ := formalAt(p2, i, phase)
		if i < len(call.Args) && r.unrelatedFunctional(s, t) {
			if ok, applies := r.functionalMoreSpecific(mc, call.Args[i], s, t); applies {
				if !ok {
					return false
				}
				continue
			}
		}
		if !r.compatible(mc, s, t) {
			return false
		}
	}
	return ctx.Solve() == nil
}

func (r *Resolver) unrelatedFunctional(s, t types.Type) bool {
	sc, ok1 := s.(*types.ClassType)
	tc, ok2 := t.(*types.ClassType)
	if !ok1 || !ok2 || !r.checker.IsFunctionalInterface(sc.Sym) || !r.checker.IsFunctionalInterface(tc.Sym) {
		return false
	}
	return !r.Table.IsSubclass(sc.Sym, tc.Sym) && !r.Table.IsSubclass(tc.Sym, sc.Sym)
}

// functionalMoreSpecific compares two functional interface formals through the shape of a lambda
// or method reference argument. The second result is false when the argument's shape does not
// allow a structural comparison.
func (r *Resolver) functionalMoreSpecific(mc *methodCheck, arg ast.Expr, s, t types.Type) (bool, bool) {
	switch e := arg.(type) {
	case *ast.Lambda:
		if !e.Explicit() {
			return false, false
		}
	case *ast.MethodRef:
		if _, exact := r.exactMethodRef(e); !exact {
			return false, false
		}
	case *ast.Conditional:
		ok1, applies1 := r.functionalMoreSpecific(mc, e.Then, s, t)
		ok2, applies2 := r.functionalMoreSpecific(mc, e.Else, s, t)
		return ok1 && ok2, applies1 && applies2
	default:
		return false, false
	}
	st, err1 := r.functionalTarget(s, nil, nil)
	tt, err2 := r.functionalTarget(t, nil, nil)
	if err1 != nil || err2 != nil {
		return false, true
	}
	ds, ok1 := r.checker.FindDescriptor(st)
	dt, ok2 := r.checker.FindDescriptor(tt)
	if !ok1 || !ok2 || len(ds.Params) != len(dt.Params) {
		return false, true
	}
	for i := range ds.Params {
		if !r.checker.IsSameType(ds.Params[i], dt.Params[i], mc.recorder()) {
			return false, true
		}
	}
	rs, rt := ds.Return, dt.Return
	switch {
	case types.IsVoid(rt):
		return true, true
	case types.IsVoid(rs):
		return false, true
	case r.checker.IsSubtype(rs, rt, mc.recorder()):
		return true, true
	}
	if sPrim, tPrim := types.IsPrimitive(rs), types.IsPrimitive(rt); sPrim != tPrim {
		// a primitive result is preferred for primitive results, a reference result otherwise
		return r.resultsArePrimitive(arg) == sPrim, true
	}
	return false, true
}

// resultsArePrimitive reports whether every result of a lambda is a standalone expression of a
// primitive type, or whether an exact method reference's declaration returns a primitive type.
func (r *Resolver) resultsArePrimitive(arg ast.Expr) bool {
	switch e := arg.(type) {
	case *ast.Lambda:
		for _, res := range e.Results() {
			if !types.IsPrimitive(res.Type()) {
				return false
			}
		}
		return true
	case *ast.MethodRef:
		m, _ := r.exactMethodRef(e)
		return types.IsPrimitive(r.Table.Method(m).Return)
	}
	return false
}

// allMembers returns the methods named name which are members of site, in scan order. Methods
// overridden by (or with the same signature as) a method listed earlier are omitted.
func (r *Resolver) allMembers(site types.Type, name string) []types.MethodID {
	siteClass := r.siteClass(site)
	supers, abstractOk, defaultOk := r.hierarchy(siteClass)
	var ms []types.MethodID
	for _, group := range [...][]types.ClassID{supers, abstractOk, defaultOk} {
		for _, c := range group {
		Members:
			for _, m := range r.Table.Members(c, name) {
				if !r.isInherited(m, siteClass) {
					continue
				}
				for _, k := range ms {
					if r.checker.SameSignature(k, m, site) {
						continue Members
					}
				}
				ms = append(ms, m)
			}
		}
	}
	return ms
}
