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
	"github.com/wdamron/resolve/types"
)

type actionKind uint8

const (
	// compare a new bound against every other bound of its variable
	checkBounds actionKind = iota
	// link two variables related by a bound and copy bounds across the link
	propagateBounds
	// compare the parameterizations of common generic supertypes of two upper bounds
	checkUpperBounds
	// substitute an instantiation into the bounds of other variables
	substBounds
	// check that the proper upper bounds of a variable have a greatest lower bound
	checkInst
	// compare a new equality bound against the other equality bounds (legacy policy)
	checkEq
)

var actionNames = [...]string{
	checkBounds:      "CheckBounds",
	propagateBounds:  "PropagateBounds",
	checkUpperBounds: "CheckUpperBounds",
	substBounds:      "SubstBounds",
	checkInst:        "CheckInst",
	checkEq:          "CheckEq",
}

func (k actionKind) String() string { return actionNames[k] }

// An action is queued on the context when a bound is added to variable v.
type action struct {
	kind  actionKind
	v     int
	bound types.BoundKind
	t     types.Type
}

func (ctx *Context) addBound(i int, kind types.BoundKind, t types.Type) {
	v := ctx.vars[i]
	if t == types.Type(v) || t == nil {
		return
	}
	switch tt := t.(type) {
	case *types.Intersection:
		if kind == types.UPPER {
			for _, c := range tt.Types {
				ctx.addBound(i, kind, c)
			}
			return
		}
	case *types.Prim:
		if tt.Kind == types.Void {
			return
		}
		t = ctx.checker.Box(tt)
	}
	st := &ctx.state[i]
	dup := false
	st.bounds[kind].Range(func(_ int, b types.Type) bool {
		dup = b == t || ctx.checker.IsSameType(b, t, nil)
		return !dup
	})
	if dup {
		return
	}
	st.bounds[kind] = st.bounds[kind].Append(t)
	if ctx.log.Enabled(traceLevel) {
		ctx.log.Tracef("bound %s %s %s", types.TypeString(ctx.table, v), kind, types.TypeString(ctx.table, t))
	}

	if ctx.opts.Policy == Legacy {
		if kind == types.EQ {
			ctx.enqueue(checkEq, i, kind, t)
		}
		return
	}
	ctx.enqueue(checkBounds, i, kind, t)
	if other, ok := t.(*types.InferenceVar); ok && ctx.Owns(other) {
		ctx.enqueue(propagateBounds, i, kind, t)
	}
	switch kind {
	case types.UPPER:
		ctx.enqueue(checkUpperBounds, i, kind, t)
	case types.EQ:
		if types.IsProper(t) {
			ctx.enqueue(substBounds, i, kind, t)
		}
	}
}

func (ctx *Context) enqueue(kind actionKind, v int, bound types.BoundKind, t types.Type) {
	ctx.queue = append(ctx.queue, action{kind: kind, v: v, bound: bound, t: t})
}

// instantiate fixes the instantiation of variable i. The instantiation is also added as an
// equality bound, so incorporation checks it against the other bounds.
func (ctx *Context) instantiate(i int, t types.Type) {
	if ctx.state[i].inst != nil {
		panic("inference-variable " + types.TypeString(ctx.table, ctx.vars[i]) + " is already instantiated")
	}
	ctx.state[i].inst = t
	ctx.addBound(i, types.EQ, t)
}

// Incorporate processes pending actions until no action remains. Each round drains the actions
// queued by the previous round; exceeding the round cap is a CyclicInferenceExceeded error.
//
// A failure is sticky: later calls return it until the context is rolled back or reset.
func (ctx *Context) Incorporate() error {
	if ctx == nil {
		return nil
	}
	if ctx.err != nil {
		return ctx.err
	}
	rounds := 0
	var batch []action
	for len(ctx.queue) > 0 {
		if rounds >= ctx.opts.MaxRounds {
			ctx.queue = ctx.queue[:0]
			ctx.err = ctx.roundsError()
			ctx.log.Warnf("%v", ctx.err)
			return ctx.err
		}
		rounds++
		batch, ctx.queue = ctx.queue, batch[:0]
		for _, a := range batch {
			if err := ctx.apply(a); err != nil {
				ctx.queue = ctx.queue[:0]
				ctx.err = err
				ctx.log.Tracef("incorporation failed after %d rounds: %v", rounds, err)
				return err
			}
		}
	}
	if rounds > 0 {
		ctx.log.Tracef("incorporation reached a fixpoint after %d rounds", rounds)
	}
	return nil
}

func (ctx *Context) apply(a action) *Error {
	switch a.kind {
	case checkBounds:
		return ctx.checkBounds(a.v, a.bound, a.t)
	case propagateBounds:
		ctx.propagateBounds(a.v, a.bound, a.t.(*types.InferenceVar))
		return nil
	case checkUpperBounds:
		return ctx.checkUpperBounds(a.v, a.t)
	case substBounds:
		ctx.substBounds(a.v, a.t)
		return nil
	case checkInst:
		return ctx.checkInst(a.v)
	case checkEq:
		return ctx.checkEq(a.v, a.t)
	}
	panic("unreachable action " + a.kind.String())
}

// lower-ish bounds are below the variable (T <: α), upper-ish bounds above it (α <: T)
func isLowerish(k types.BoundKind) bool { return k != types.UPPER }
func isUpperish(k types.BoundKind) bool { return k != types.LOWER }

// checkBounds relates a new bound of variable i to each existing bound:
//
//	α = S, α = T     ⇒ S = T
//	S <: α, α <: T   ⇒ S <: T   (an equality bound counts as both)
func (ctx *Context) checkBounds(i int, kind types.BoundKind, t types.Type) *Error {
	st := ctx.state[i]
	for _, k := range types.BoundKinds {
		for _, u := range st.bounds[k].Types() {
			if u == t && k == kind {
				continue
			}
			ok := true
			switch {
			case kind == types.EQ && k == types.EQ:
				ok = ctx.isSameType(t, u)
			case isLowerish(kind) && isUpperish(k):
				ok = ctx.isSubtype(t, u)
			case isUpperish(kind) && isLowerish(k):
				ok = ctx.isSubtype(u, t)
			}
			if !ok {
				errKind := IncompatibleBounds
				if kind == types.EQ && k == types.EQ {
					errKind = IncompatibleEqBounds
				}
				return ctx.boundsError(errKind, ctx.vars[i], Bound{k, u}, Bound{kind, t})
			}
		}
	}
	return nil
}

// propagateBounds links variable i with another variable it is bound to. The complementary
// bound is added to the other variable, and bounds in the same direction are copied across:
//
//	α <: β  ⇒  β :> α, lower(α) ⊆ lower(β), upper(β) ⊆ upper(α)
//	α = β   ⇒  β = α, bounds(α) = bounds(β)
func (ctx *Context) propagateBounds(i int, kind types.BoundKind, other *types.InferenceVar) {
	j := ctx.index[other]
	v := ctx.vars[i]
	ctx.addBound(j, kind.Complement(), v)
	a, b := ctx.state[i], ctx.state[j]
	switch kind {
	case types.UPPER:
		copyBounds(ctx, j, types.LOWER, a.bounds[types.LOWER])
		copyBounds(ctx, i, types.UPPER, b.bounds[types.UPPER])
	case types.LOWER:
		copyBounds(ctx, j, types.UPPER, a.bounds[types.UPPER])
		copyBounds(ctx, i, types.LOWER, b.bounds[types.LOWER])
	case types.EQ:
		for _, k := range types.BoundKinds {
			copyBounds(ctx, j, k, a.bounds[k])
			copyBounds(ctx, i, k, b.bounds[k])
		}
	}
}

func copyBounds(ctx *Context, to int, kind types.BoundKind, from types.TypeList) {
	from.Range(func(_ int, t types.Type) bool {
		ctx.addBound(to, kind, t)
		return true
	})
}

// checkUpperBounds compares a new upper bound of variable i with every other upper bound: when
// both are subtypes of the same generic class, they must agree on its (non-wildcard)
// type-arguments.
func (ctx *Context) checkUpperBounds(i int, t types.Type) *Error {
	tc, ok := t.(*types.ClassType)
	if !ok {
		return nil
	}
	for _, u := range ctx.state[i].bounds[types.UPPER].Types() {
		uc, ok := u.(*types.ClassType)
		if !ok || u == t {
			continue
		}
		for _, g := range commonGenericSupers(ctx.checker, tc, uc) {
			st, su := ctx.checker.AsSuper(tc, g), ctx.checker.AsSuper(uc, g)
			if st == nil || su == nil || len(st.Args) != len(su.Args) {
				continue
			}
			for k := range st.Args {
				_, w1 := st.Args[k].(*types.Wildcard)
				_, w2 := su.Args[k].(*types.Wildcard)
				if w1 || w2 {
					continue
				}
				if !ctx.isSameType(st.Args[k], su.Args[k]) {
					return ctx.boundsError(IncompatibleUpperBounds, ctx.vars[i], Bound{types.UPPER, u}, Bound{types.UPPER, t})
				}
			}
		}
	}
	return nil
}

func commonGenericSupers(c *types.Checker, s, t *types.ClassType) []types.ClassID {
	var out []types.ClassID
	ts := c.ErasedSupertypes(t)
	for _, a := range c.ErasedSupertypes(s) {
		if len(c.Table.Class(a).TypeParams) == 0 {
			continue
		}
		for _, b := range ts {
			if a == b {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// substBounds substitutes the proper equality bound of variable i into every bound of the other
// variables which mentions it.
func (ctx *Context) substBounds(i int, t types.Type) {
	v := ctx.vars[i]
	for j := range ctx.vars {
		if j == i {
			continue
		}
		changed := false
		for _, k := range types.BoundKinds {
			for _, b := range ctx.state[j].bounds[k].Types() {
				if !mentionsVar(b, v) {
					continue
				}
				ctx.addBound(j, k, types.Replace(b, func(b types.Type) types.Type {
					if b == types.Type(v) {
						return t
					}
					return nil
				}))
				changed = true
			}
		}
		if changed {
			ctx.enqueue(checkInst, j, types.EQ, nil)
		}
	}
}

// checkInst verifies that the upper bounds of variable i, once all proper, still admit a
// greatest lower bound.
func (ctx *Context) checkInst(i int) *Error {
	uppers := ctx.state[i].bounds[types.UPPER].Types()
	proper := uppers[:0:0]
	for _, u := range uppers {
		if u = ctx.Subst(u); types.IsProper(u) {
			proper = append(proper, u)
		}
	}
	if len(proper) < 2 {
		return nil
	}
	if _, err := ctx.checker.GLB(proper...); err != nil {
		bounds := make([]Bound, len(proper))
		for k, u := range proper {
			bounds[k] = Bound{types.UPPER, u}
		}
		return ctx.boundsError(IncompatibleUpperBounds, ctx.vars[i], bounds...)
	}
	return nil
}

// checkEq is the only check of the legacy policy: equality bounds must be the same type.
func (ctx *Context) checkEq(i int, t types.Type) *Error {
	for _, u := range ctx.state[i].bounds[types.EQ].Types() {
		if u == t {
			continue
		}
		if !ctx.isSameType(t, u) {
			return ctx.boundsError(IncompatibleEqBounds, ctx.vars[i], Bound{types.EQ, u}, Bound{types.EQ, t})
		}
	}
	return nil
}
