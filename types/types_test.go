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

package types_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	. "github.com/wdamron/resolve/construct"
	"github.com/wdamron/resolve/types"
)

type world struct {
	table *types.Table
	c     *types.Checker
	p     types.Predef
}

func newWorld() *world {
	table := types.NewTable()
	return &world{table: table, c: types.NewChecker(table), p: table.Predef}
}

func (w *world) str(t types.Type) string { return types.TypeString(w.table, t) }

func TestSubtyping(t *testing.T) {
	w := newWorld()
	p := w.p
	integer, number, long := TClass(p.Integer), TClass(p.Number), TClass(p.Long)
	comparable := func(arg types.Type) types.Type { return TClass(p.Comparable, arg) }

	cases := []struct {
		s, t types.Type
		want bool
	}{
		{integer, number, true},
		{number, integer, false},
		{integer, TClass(p.Object), true},
		{integer, comparable(integer), true},
		{integer, comparable(long), false},
		{comparable(integer), comparable(number), false},
		{comparable(integer), comparable(TExtends(number)), true},
		{comparable(number), comparable(TSuper(integer)), true},
		{comparable(integer), comparable(TSuper(number)), false},
		{comparable(integer), comparable(TWild()), true},
		{TArray(TClass(p.String)), TArray(TClass(p.Object)), true},
		{TArray(types.IntType), TArray(types.LongType), false},
		{TArray(types.IntType), TClass(p.Cloneable), true},
		{types.Null, TClass(p.String), true},
		{types.Null, types.IntType, false},
		{types.IntType, types.LongType, true},
		{types.LongType, types.IntType, false},
		{types.BooleanType, types.IntType, false},
		{types.IntType, integer, false},
		{integer, TAnd(number, comparable(integer)), true},
		{TAnd(number, comparable(integer)), comparable(integer), true},
	}
	for _, c := range cases {
		if got := w.c.IsSubtype(c.s, c.t, nil); got != c.want {
			t.Fatalf("IsSubtype(%s, %s): expected %v", w.str(c.s), w.str(c.t), c.want)
		}
	}
}

func TestLooseConversion(t *testing.T) {
	w := newWorld()
	p := w.p
	cases := []struct {
		s, t types.Type
		want bool
	}{
		{types.IntType, TClass(p.Integer), true},
		{types.IntType, TClass(p.Number), true},
		{types.IntType, TClass(p.Long), false},
		{TClass(p.Integer), types.IntType, true},
		{TClass(p.Integer), types.LongType, true},
		{TClass(p.Long), types.IntType, false},
		{TClass(p.String), types.IntType, false},
		{types.VoidType, TClass(p.Object), false},
	}
	for _, c := range cases {
		if got := w.c.IsConvertible(c.s, c.t, nil); got != c.want {
			t.Fatalf("IsConvertible(%s, %s): expected %v", w.str(c.s), w.str(c.t), c.want)
		}
	}
}

func TestUncheckedConversion(t *testing.T) {
	w := newWorld()
	box := Class(w.table, "app", "Box", nil)
	Generic(w.table, box, "T")
	raw := TClass(box.Id)
	if !w.table.IsRaw(raw) {
		t.Fatalf("Expected Box to be raw")
	}
	target := TClass(box.Id, TClass(w.p.String))
	if w.c.IsSubtype(raw, target, nil) {
		t.Fatalf("Expected raw Box not to be a subtype of Box<String>")
	}
	ok, unchecked := w.c.IsSubtypeUnchecked(raw, target, nil)
	if !ok || !unchecked {
		t.Fatalf("Expected an unchecked conversion, found ok=%v unchecked=%v", ok, unchecked)
	}
	ok, unchecked = w.c.IsSubtypeUnchecked(target, raw, nil)
	if !ok || unchecked {
		t.Fatalf("Expected a checked conversion to the raw type, found ok=%v unchecked=%v", ok, unchecked)
	}
}

func TestCapture(t *testing.T) {
	w := newWorld()
	p := w.p
	captured := w.c.Capture(TClass(p.Comparable, TExtends(TClass(p.Number))))
	ct, ok := captured.(*types.ClassType)
	if !ok || len(ct.Args) != 1 {
		t.Fatalf("Expected a class type, found %s", w.str(captured))
	}
	tv, ok := ct.Args[0].(*types.TypeVar)
	if !ok || !tv.Captured() {
		t.Fatalf("Expected a captured type-variable, found %s", w.str(ct.Args[0]))
	}
	if !w.c.IsSameType(tv.Bound, TClass(p.Number), nil) {
		t.Fatalf("Expected the capture to be bounded by Number, found %s", w.str(tv.Bound))
	}

	lower := w.c.Capture(TClass(p.Comparable, TSuper(TClass(p.Integer)))).(*types.ClassType).Args[0].(*types.TypeVar)
	if !w.c.IsSameType(lower.Lower, TClass(p.Integer), nil) {
		t.Fatalf("Expected the capture to have lower bound Integer, found %s", w.str(lower.Lower))
	}
	if !w.c.IsSubtype(TClass(p.Integer), lower, nil) {
		t.Fatalf("Expected Integer to be a subtype of its lower-bounded capture")
	}

	plain := TClass(p.Comparable, TClass(p.String))
	if w.c.Capture(plain) != types.Type(plain) {
		t.Fatalf("Expected types without wildcards to be returned unchanged")
	}
}

func TestErasure(t *testing.T) {
	w := newWorld()
	p := w.p
	bounded := w.table.NewTypeVar("T", TClass(p.Number))
	cases := []struct {
		t    types.Type
		want string
	}{
		{TClass(p.Comparable, TClass(p.String)), "Comparable"},
		{bounded, "Number"},
		{TArray(bounded), "Number[]"},
		{w.table.NewTypeVar("U", nil), "Object"},
		{TAnd(TClass(p.Number), TClass(p.Comparable, TClass(p.Integer))), "Number"},
		{types.IntType, "int"},
	}
	for _, c := range cases {
		if got := w.str(w.c.Erasure(c.t)); got != c.want {
			t.Fatalf("Erasure(%s): expected %s, found %s", w.str(c.t), c.want, got)
		}
	}
}

func TestLubGlb(t *testing.T) {
	w := newWorld()
	p := w.p
	base := Class(w.table, "app", "Base", nil)
	a := Class(w.table, "app", "A", TClass(base.Id))
	b := Class(w.table, "app", "B", TClass(base.Id))

	if got := w.str(w.c.LUB(TClass(p.Integer), TClass(p.Integer))); got != "Integer" {
		t.Fatalf("Expected lub(Integer, Integer) = Integer, found %s", got)
	}
	if got := w.str(w.c.LUB(TClass(a.Id), TClass(b.Id))); got != "Base" {
		t.Fatalf("Expected lub(A, B) = Base, found %s", got)
	}
	if got := w.str(w.c.LUB(TClass(a.Id), types.Null)); got != "A" {
		t.Fatalf("Expected lub(A, null) = A, found %s", got)
	}

	glb, err := w.c.GLB(TClass(p.Integer), TClass(p.Number))
	if err != nil || w.str(glb) != "Integer" {
		t.Fatalf("Expected glb(Integer, Number) = Integer, found %s (%v)", w.str(glb), err)
	}
	glb, err = w.c.GLB(TClass(p.Comparable, TClass(p.Integer)), TClass(p.Number))
	if err != nil || w.str(glb) != "Number&Comparable<Integer>" {
		t.Fatalf("Expected the class component first, found %s (%v)", w.str(glb), err)
	}
	if _, err = w.c.GLB(TClass(p.String), TClass(p.Integer)); err != types.ErrNoGLB {
		t.Fatalf("Expected ErrNoGLB for unrelated classes, found %v", err)
	}
}

func TestMembers(t *testing.T) {
	w := newWorld()
	p := w.p
	box := Class(w.table, "app", "Box", nil)
	T := Generic(w.table, box, "T")[0]
	put := Method(w.table, box.Id, "put", types.VoidType, T)
	get := Method(w.table, box.Id, "get", T)

	site := TClass(box.Id, TClass(p.String))
	if diff := cmp.Diff([]string{"String"}, strs(w, w.c.MemberParams(site, put))); diff != "" {
		t.Fatalf("Unexpected member parameters (-want +got):\n%s", diff)
	}
	if got := w.str(w.c.MemberReturn(site, get)); got != "String" {
		t.Fatalf("Expected get() to return String, found %s", got)
	}
	if got := w.str(w.c.MemberReturn(TClass(box.Id), get)); got != "Object" {
		t.Fatalf("Expected members of a raw type to be erased, found %s", got)
	}

	sub := Class(w.table, "app", "StrBox", site)
	subPut := Method(w.table, sub.Id, "put", types.VoidType, TClass(p.String))
	if !w.c.Overrides(subPut, put) {
		t.Fatalf("Expected StrBox.put(String) to override Box.put(T)")
	}
	if w.c.Overrides(put, subPut) {
		t.Fatalf("Expected Box.put(T) not to override StrBox.put(String)")
	}
	if got := w.str(w.c.AsSuper(TClass(sub.Id), box.Id)); got != "Box<String>" {
		t.Fatalf("Expected AsSuper(StrBox, Box) = Box<String>, found %s", got)
	}
	if diff := cmp.Diff([]string{"get", "put"}, w.table.MemberNames(box.Id)); diff != "" {
		t.Fatalf("Unexpected member names (-want +got):\n%s", diff)
	}
	if got := w.table.MethodString(put); got != "Box.put(T)" {
		t.Fatalf("Unexpected method string %s", got)
	}
}

func strs(w *world, ts []types.Type) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = w.str(t)
	}
	return out
}

func TestFunctionalDescriptor(t *testing.T) {
	w := newWorld()
	p := w.p
	fn := Interface(w.table, "app", "Fn")
	tps := Generic(w.table, fn, "T", "R")
	Method(w.table, fn.Id, "apply", tps[1], tps[0])
	w.table.DeclareMethod(types.Method{Name: "andThen", Owner: fn.Id, Flags: types.Public | types.Default, Params: []types.Type{TClass(fn.Id)}, Return: TClass(fn.Id)})

	d, ok := w.c.FindDescriptor(TClass(fn.Id, TClass(p.String), TClass(p.Integer)))
	if !ok {
		t.Fatalf("Expected Fn to be functional")
	}
	if diff := cmp.Diff([]string{"String"}, strs(w, d.Params)); diff != "" {
		t.Fatalf("Unexpected descriptor parameters (-want +got):\n%s", diff)
	}
	if got := w.str(d.Return); got != "Integer" {
		t.Fatalf("Expected the descriptor to return Integer, found %s", got)
	}

	if !w.c.IsFunctionalInterface(p.Comparable) {
		t.Fatalf("Expected Comparable to be functional")
	}
	two := Interface(w.table, "app", "Two")
	Method(w.table, two.Id, "a", types.VoidType)
	Method(w.table, two.Id, "b", types.VoidType)
	if w.c.IsFunctionalInterface(two.Id) {
		t.Fatalf("Expected an interface with two abstract methods not to be functional")
	}
	if w.c.IsFunctionalInterface(p.String) {
		t.Fatalf("Expected a class not to be functional")
	}
}

func TestPrinting(t *testing.T) {
	w := newWorld()
	p := w.p
	t1, t2 := w.table.NewTypeVar("T", nil), w.table.NewTypeVar("T", nil)
	if got := types.TypeListString(w.table, []types.Type{t1, t2, t1}); got != "T, T2, T" {
		t.Fatalf("Expected distinct variables to be numbered, found %s", got)
	}
	cases := []struct {
		t    types.Type
		want string
	}{
		{TClass(p.Comparable, TExtends(TClass(p.Number))), "Comparable<? extends Number>"},
		{TClass(p.Comparable, TSuper(TClass(p.Integer))), "Comparable<? super Integer>"},
		{TArray(TArray(types.IntType)), "int[][]"},
		{types.Null, "null"},
		{nil, "<none>"},
	}
	for _, c := range cases {
		if got := w.str(c.t); got != c.want {
			t.Fatalf("Expected %s, found %s", c.want, got)
		}
	}
	if got := types.TypeString(nil, TClass(p.Object)); got != "class#0" {
		t.Fatalf("Expected class ids without a table, found %s", got)
	}
}

func TestTypeList(t *testing.T) {
	w := newWorld()
	p := w.p
	empty := types.NewTypeList()
	l1 := empty.Append(TClass(p.String))
	l2 := l1.Append(TClass(p.Integer))
	if empty.Len() != 0 || l1.Len() != 1 || l2.Len() != 2 {
		t.Fatalf("Expected appends to leave earlier lists unchanged: %d %d %d", empty.Len(), l1.Len(), l2.Len())
	}
	if diff := cmp.Diff([]string{"String", "Integer"}, strs(w, l2.Types())); diff != "" {
		t.Fatalf("Unexpected list (-want +got):\n%s", diff)
	}
	if i := l2.Index(func(t types.Type) bool { return w.str(t) == "Integer" }); i != 1 {
		t.Fatalf("Expected Integer at index 1, found %d", i)
	}
	if i := l2.Index(func(types.Type) bool { return false }); i != -1 {
		t.Fatalf("Expected -1 for no match, found %d", i)
	}
	if got := l2.Slice(1, 2).Get(0); w.str(got) != "Integer" {
		t.Fatalf("Expected the slice to hold Integer, found %s", w.str(got))
	}
	if !l2.Same(l2) || l2.Same(l1) {
		t.Fatalf("Expected Same to compare storage identity")
	}
	var zero types.TypeList
	if zero.Len() != 0 || zero.Append(types.IntType).Len() != 1 {
		t.Fatalf("Expected the zero list to be usable")
	}

	b := types.NewTypeListBuilder()
	b.Append(TClass(p.String))
	b.Append(TClass(p.Long))
	b.Set(0, TClass(p.Number))
	built := b.Build()
	if diff := cmp.Diff([]string{"Number", "Long"}, strs(w, built.Types())); diff != "" {
		t.Fatalf("Unexpected built list (-want +got):\n%s", diff)
	}
}

func TestExports(t *testing.T) {
	w := newWorld()
	if !w.table.IsExported("java.base", "java.lang") {
		t.Fatalf("Expected java.lang to be exported")
	}
	if w.table.IsExported("lib", "lib.impl") {
		t.Fatalf("Expected lib.impl not to be exported")
	}
	w.table.Export("lib", "lib.impl")
	if !w.table.IsExported("lib", "lib.impl") {
		t.Fatalf("Expected lib.impl to be exported")
	}
	if id, ok := w.table.Lookup("java.lang.String"); !ok || id != w.p.String {
		t.Fatalf("Expected qualified lookup of String")
	}
}
