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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wdamron/resolve/construct"
	"github.com/wdamron/resolve/types"
)

type fixture struct {
	table *types.Table
	c     *types.Checker

	collection, list types.ClassID
	object, str, integer, number, exception types.Type
}

func newFixture() *fixture {
	table := types.NewTable()
	coll := construct.Interface(table, "java.util", "Collection")
	construct.Generic(table, coll, "E")
	list := construct.Interface(table, "java.util", "List")
	le := construct.Generic(table, list, "E")
	list.Interfaces = []types.Type{construct.TClass(coll.Id, le[0])}
	p := table.Predef
	return &fixture{
		table:      table,
		c:          types.NewChecker(table),
		collection: coll.Id,
		list:       list.Id,
		object:     table.ObjectType(),
		str:        table.Type(p.String),
		integer:    table.Type(p.Integer),
		number:     table.Type(p.Number),
		exception:  table.Type(p.Exception),
	}
}

func (f *fixture) vars(ctx *Context, names ...string) []*types.InferenceVar {
	tps := make([]*types.TypeVar, len(names))
	for i, name := range names {
		tps[i] = f.table.NewTypeVar(name, nil)
	}
	return ctx.AddVars(tps)
}

func (f *fixture) show(t types.Type) string { return types.TypeString(f.table, t) }

func expectKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	var ierr *Error
	if !errors.As(err, &ierr) {
		t.Fatalf("expected an inference error of kind %v, found %v", kind, err)
	}
	if ierr.Kind != kind {
		t.Fatalf("expected an inference error of kind %v, found %v: %v", kind, ierr.Kind, ierr)
	}
	t.Logf("error: %v", ierr)
	return ierr
}

func TestSolveFromLowerBound(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	T := f.vars(ctx, "T")[0]
	ctx.AddBound(T, types.LOWER, f.str)
	if err := ctx.Solve(); err != nil {
		t.Fatal(err)
	}
	if s := f.show(ctx.Inst(T)); s != "String" {
		t.Fatalf("expected T = String, found %s", s)
	}
}

func TestLowerBoundsLub(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	T := f.vars(ctx, "T")[0]
	ctx.AddBound(T, types.LOWER, types.IntType)
	ctx.AddBound(T, types.LOWER, f.table.Type(f.table.Predef.Double))
	if err := ctx.Solve(); err != nil {
		t.Fatal(err)
	}
	// Integer and Double share Number, Serializable and Comparable<...>
	if s := f.show(ctx.Inst(T)); s[:6] != "Number" {
		t.Fatalf("expected T = Number&..., found %s", s)
	}
}

func TestPropagationAcrossVariables(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	vs := f.vars(ctx, "A", "B")
	A, B := vs[0], vs[1]
	ctx.AddBound(A, types.UPPER, B)
	ctx.AddBound(B, types.UPPER, f.integer)
	if err := ctx.Incorporate(); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, u := range ctx.Bounds(A, types.UPPER) {
		found = found || f.show(u) == "Integer"
	}
	if !found {
		t.Fatalf("expected A <: Integer after incorporation: %#+v", ctx.Dump())
	}
	if lowers := ctx.Bounds(B, types.LOWER); len(lowers) != 1 || lowers[0] != types.Type(A) {
		t.Fatalf("expected B :> A after incorporation: %#+v", ctx.Dump())
	}

	// A conflicting lower bound must be reported during incorporation, not when solving:
	ctx.AddBound(A, types.LOWER, f.str)
	err := expectKind(t, ctx.Incorporate(), IncompatibleBounds)
	if err.Var != A {
		t.Fatalf("expected the conflict to be reported on A, found %s", f.show(err.Var))
	}
	// the failure is sticky
	if ctx.Incorporate() != error(err) {
		t.Fatalf("expected the same failure from a repeated incorporation")
	}
}

func TestIncompatibleEqBounds(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	T := f.vars(ctx, "T")[0]
	ctx.AddBound(T, types.EQ, f.str)
	ctx.AddBound(T, types.EQ, f.integer)
	expectKind(t, ctx.Incorporate(), IncompatibleEqBounds)
}

func TestIncompatibleUpperBounds(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	T := f.vars(ctx, "T")[0]
	ctx.AddBound(T, types.UPPER, f.table.Type(f.list, f.str))
	ctx.AddBound(T, types.UPPER, f.table.Type(f.collection, f.integer))
	expectKind(t, ctx.Incorporate(), IncompatibleUpperBounds)
}

func TestUpperBoundsWithoutGlb(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	T := f.vars(ctx, "T")[0]
	// two unrelated classes without a shared parameterized supertype
	a := construct.Class(f.table, "app", "A", nil)
	b := construct.Class(f.table, "app", "B", nil)
	ctx.AddBound(T, types.UPPER, f.table.Type(a.Id))
	ctx.AddBound(T, types.UPPER, f.table.Type(b.Id))
	if err := ctx.Incorporate(); err != nil {
		t.Fatal(err)
	}
	expectKind(t, ctx.Solve(), IncompatibleUpperBounds)
}

func TestSubstitutedBounds(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	vs := f.vars(ctx, "A", "B")
	A, B := vs[0], vs[1]
	ctx.AddBound(A, types.UPPER, f.table.Type(f.list, B))
	ctx.AddBound(B, types.EQ, f.str)
	if err := ctx.Incorporate(); err != nil {
		t.Fatal(err)
	}
	expect := []string{"Object", "List<'B>", "List<String>"}
	if diff := cmp.Diff(expect, ctx.Dump()[0].Upper); diff != "" {
		t.Fatalf("unexpected upper bounds of A (-expect +actual):\n%s", diff)
	}
}

func TestRollbackRoundTrip(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	vs := f.vars(ctx, "A", "B")
	A, B := vs[0], vs[1]
	ctx.AddBound(A, types.UPPER, B)
	ctx.AddBound(A, types.LOWER, f.integer)
	if err := ctx.Incorporate(); err != nil {
		t.Fatal(err)
	}
	before := ctx.Dump()
	snap := ctx.Snapshot()

	ctx.AddBound(B, types.UPPER, f.number)
	f.vars(ctx, "C")
	if err := ctx.Solve(); err != nil {
		t.Fatal(err)
	}
	if !ctx.Solved() {
		t.Fatalf("expected every variable to be instantiated")
	}

	ctx.Rollback(snap)
	if diff := cmp.Diff(before, ctx.Dump()); diff != "" {
		t.Fatalf("rollback did not restore the context (-before +after):\n%s", diff)
	}
	if len(ctx.Vars()) != 2 || len(ctx.cache) != 0 {
		t.Fatalf("expected variables created after the snapshot and cached queries to be discarded")
	}
	if ctx.Inst(A) != nil || ctx.Inst(B) != nil {
		t.Fatalf("expected open variables after rollback")
	}
}

func TestTryRollsBackFailure(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	T := f.vars(ctx, "T")[0]
	ctx.AddBound(T, types.LOWER, f.integer)
	before := ctx.Dump()
	err := ctx.Try(func() error {
		ctx.AddBound(T, types.UPPER, f.str)
		return ctx.Incorporate()
	})
	expectKind(t, err, IncompatibleBounds)
	if diff := cmp.Diff(before, ctx.Dump()); diff != "" {
		t.Fatalf("failed speculation leaked into the context (-before +after):\n%s", diff)
	}
	if err := ctx.Solve(); err != nil {
		t.Fatal(err)
	}
}

func TestCycleTermination(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	// <A extends B, B extends A>
	tA := f.table.NewTypeVar("A", nil)
	tB := f.table.NewTypeVar("B", tA)
	tA.Bound = tB
	vs := ctx.AddVars([]*types.TypeVar{tA, tB})
	if err := ctx.Solve(); err != nil {
		t.Fatal(err)
	}
	for _, v := range vs {
		tv, ok := ctx.Inst(v).(*types.TypeVar)
		if !ok || !tv.Fresh {
			t.Fatalf("expected a fresh type-variable for %s, found %s", f.show(v), f.show(ctx.Inst(v)))
		}
	}
	a, b := ctx.Inst(vs[0]), ctx.Inst(vs[1])
	if !f.c.IsSubtype(a, b, nil) || !f.c.IsSubtype(b, a, nil) {
		t.Fatalf("expected the fresh variables to bound each other")
	}
}

func TestIdempotentSolve(t *testing.T) {
	for _, policy := range []Policy{Modern, Legacy} {
		f := newFixture()
		ctx := New(f.c, Options{Policy: policy})
		vs := f.vars(ctx, "A", "B")
		ctx.AddBound(vs[0], types.LOWER, f.str)
		if err := ctx.Solve(); err != nil {
			t.Fatal(err)
		}
		first := []types.Type{ctx.Inst(vs[0]), ctx.Inst(vs[1])}
		before := ctx.Dump()
		if err := ctx.Solve(); err != nil {
			t.Fatal(err)
		}
		if ctx.Inst(vs[0]) != first[0] || ctx.Inst(vs[1]) != first[1] {
			t.Fatalf("%v: re-solving changed the instantiation", policy)
		}
		if diff := cmp.Diff(before, ctx.Dump()); diff != "" {
			t.Fatalf("%v: re-solving changed the bounds (-before +after):\n%s", policy, diff)
		}
	}
}

func TestPartialSolve(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	vs := f.vars(ctx, "A", "B", "C")
	A, B, C := vs[0], vs[1], vs[2]
	ctx.AddBound(A, types.UPPER, f.table.Type(f.list, B))
	ctx.AddBound(B, types.LOWER, f.str)
	ctx.AddBound(C, types.LOWER, f.integer)
	if err := ctx.Solve(B); err != nil {
		t.Fatal(err)
	}
	if ctx.Inst(B) == nil || ctx.Inst(A) != nil || ctx.Inst(C) != nil {
		t.Fatalf("expected only B to be solved: %#+v", ctx.Dump())
	}
	if err := ctx.Solve(A); err != nil {
		t.Fatal(err)
	}
	if s := f.show(ctx.Inst(A)); s != "List<String>" {
		t.Fatalf("expected A = List<String>, found %s", s)
	}
	if ctx.Inst(C) != nil {
		t.Fatalf("expected C to remain open")
	}
}

func TestThrowsDefault(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	tE := f.table.NewTypeVar("E", f.exception)
	E := ctx.AddVars([]*types.TypeVar{tE})[0]
	ctx.SetThrows(E)
	if err := ctx.Solve(); err != nil {
		t.Fatal(err)
	}
	if s := f.show(ctx.Inst(E)); s != "RuntimeException" {
		t.Fatalf("expected E = RuntimeException, found %s", s)
	}
}

func TestCapturedVariable(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{})
	w := construct.TExtends(f.number)
	tE := f.table.NewTypeVar("E", nil)
	Z := ctx.AddCapturedVar(tE, w)
	ctx.AddBound(Z, types.UPPER, f.number)
	if err := ctx.Solve(); err != nil {
		t.Fatal(err)
	}
	tv, ok := ctx.Inst(Z).(*types.TypeVar)
	if !ok || !tv.Captured() || f.show(tv.Bound) != "Number" {
		t.Fatalf("expected a captured variable bounded by Number, found %s", f.show(ctx.Inst(Z)))
	}
}

func TestRoundCap(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{MaxRounds: 1})
	vs := f.vars(ctx, "A", "B", "C")
	ctx.AddBound(vs[0], types.UPPER, vs[1])
	ctx.AddBound(vs[1], types.UPPER, vs[2])
	ctx.AddBound(vs[2], types.UPPER, f.str)
	err := expectKind(t, ctx.Incorporate(), CyclicInferenceExceeded)
	if !err.Internal() {
		t.Fatalf("expected the round cap to be an internal error")
	}
}

func TestLegacyPolicy(t *testing.T) {
	f := newFixture()
	ctx := New(f.c, Options{Policy: Legacy})
	vs := f.vars(ctx, "A", "B")
	A, B := vs[0], vs[1]
	ctx.AddBound(A, types.LOWER, f.integer)
	ctx.AddBound(B, types.UPPER, f.number)
	if err := ctx.Solve(); err != nil {
		t.Fatal(err)
	}
	if f.show(ctx.Inst(A)) != "Integer" || f.show(ctx.Inst(B)) != "Number" {
		t.Fatalf("unexpected instantiations: %#+v", ctx.Dump())
	}

	// without propagation, the conflict is found when the instantiation is verified
	ctx = New(f.c, Options{Policy: Legacy})
	vs = f.vars(ctx, "A", "B")
	ctx.AddBound(vs[0], types.UPPER, vs[1])
	ctx.AddBound(vs[0], types.LOWER, f.str)
	ctx.AddBound(vs[1], types.UPPER, f.integer)
	if err := ctx.Incorporate(); err != nil {
		t.Fatalf("expected legacy incorporation to defer the conflict: %v", err)
	}
	expectKind(t, ctx.Solve(), NoConformingInstance)
}

func TestPropagateTo(t *testing.T) {
	f := newFixture()
	outer := New(f.c, Options{})
	R := f.vars(outer, "R")[0]

	inner := New(f.c, Options{})
	T := f.vars(inner, "T")[0]
	inner.AddBound(T, types.LOWER, f.integer)
	// the nested call's result flows into the outer variable
	outer.AddBound(R, types.LOWER, T)
	if err := inner.PropagateTo(outer); err != nil {
		t.Fatal(err)
	}
	if !outer.Owns(T) {
		t.Fatalf("expected T to be propagated")
	}
	if err := outer.Solve(R); err != nil {
		t.Fatal(err)
	}
	if f.show(outer.Inst(R)) != "Integer" || f.show(outer.Inst(T)) != "Integer" {
		t.Fatalf("unexpected instantiations: %#+v", outer.Dump())
	}
}

func TestEmptyContext(t *testing.T) {
	var ctx *Context
	f := newFixture()
	iv := f.table.NewInferenceVar(f.table.NewTypeVar("T", nil))
	if !ctx.Empty() || ctx.Record(iv, types.EQ, f.str) || ctx.Solve() != nil {
		t.Fatalf("expected the empty context to own nothing")
	}
	if f.c.IsSubtype(f.str, iv, ctx) {
		t.Fatalf("expected a foreign inference-variable to be opaque")
	}
}
