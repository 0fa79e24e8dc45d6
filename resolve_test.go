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

package resolve_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wdamron/resolve"
	"github.com/wdamron/resolve/ast"
	"github.com/wdamron/resolve/config"
	. "github.com/wdamron/resolve/construct"
	"github.com/wdamron/resolve/infer"
	"github.com/wdamron/resolve/types"
)

type fixture struct {
	table *types.Table
	env   *resolve.Env
	unit  resolve.Scope
	r     *resolve.Resolver
	util  *types.Class
}

func newFixture(cfg *config.Config) *fixture {
	table := types.NewTable()
	env := resolve.NewEnv(table)
	return &fixture{
		table: table,
		env:   env,
		unit:  env.EnterUnit("app", ""),
		r:     resolve.NewResolver(table, cfg, resolve.WithEnv(env)),
		util:  Class(table, "app", "Util", nil),
	}
}

func (f *fixture) str() types.Type     { return TClass(f.table.Predef.String) }
func (f *fixture) obj() types.Type     { return TClass(f.table.Predef.Object) }
func (f *fixture) integer() types.Type { return TClass(f.table.Predef.Integer) }

func (f *fixture) static(m types.MethodID) types.MethodID {
	f.table.Method(m).Flags |= types.Static
	return m
}

func (f *fixture) varargs(m types.MethodID) types.MethodID {
	f.table.Method(m).Flags |= types.Varargs
	return m
}

// function declares `interface Function<T, R> { R apply(T t); }`
func (f *fixture) function() types.ClassID {
	fn := Interface(f.table, "app", "Function")
	tps := Generic(f.table, fn, "T", "R")
	Method(f.table, fn.Id, "apply", tps[1], tps[0])
	return fn.Id
}

func (f *fixture) resolve(t *testing.T, call *resolve.Call) *resolve.Resolution {
	t.Helper()
	res, err := f.r.ResolveMethod(call)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("resolved: %s (%s)", f.table.MethodString(res.Method), res.Phase)
	return res
}

func (f *fixture) fail(t *testing.T, call *resolve.Call, kind resolve.ErrorKind) *resolve.ResolveError {
	t.Helper()
	res, err := f.r.ResolveMethod(call)
	if err == nil {
		t.Fatalf("expected %s error, resolved %s", kind, f.table.MethodString(res.Method))
	}
	rerr, ok := err.(*resolve.ResolveError)
	if !ok {
		t.Fatalf("unexpected error type %T: %v", err, err)
	}
	if rerr.Kind != kind {
		t.Fatalf("expected %s error, found %s: %v", kind, rerr.Kind, rerr)
	}
	t.Logf("Passed check for %s error: %v", kind, rerr)
	return rerr
}

func (f *fixture) call(name string, args ...ast.Expr) *resolve.Call {
	return &resolve.Call{Site: f.unit, Receiver: TClass(f.util.Id), Name: name, Args: args}
}

func TestStrictBeforeLoose(t *testing.T) {
	f := newFixture(nil)
	mObj := Method(f.table, f.util.Id, "m", types.VoidType, f.obj())
	mInt := Method(f.table, f.util.Id, "m", types.VoidType, types.IntType)

	res := f.resolve(t, f.call("m", Arg(types.IntType)))
	if res.Method != mInt || res.Phase != resolve.Strict {
		t.Fatalf("expected strict m(int), found %s (%s)", f.table.MethodString(res.Method), res.Phase)
	}

	// no boxing while a strict candidate exists
	res = f.resolve(t, f.call("m", Arg(f.integer())))
	if res.Method != mObj || res.Phase != resolve.Strict {
		t.Fatalf("expected strict m(Object), found %s (%s)", f.table.MethodString(res.Method), res.Phase)
	}
}

func TestLoosePhase(t *testing.T) {
	f := newFixture(nil)
	mObj := Method(f.table, f.util.Id, "m", types.VoidType, f.obj())
	mLong := Method(f.table, f.util.Id, "w", types.VoidType, types.LongType)

	res := f.resolve(t, f.call("m", Arg(types.IntType)))
	if res.Method != mObj || res.Phase != resolve.Loose {
		t.Fatalf("expected loose m(Object), found %s (%s)", f.table.MethodString(res.Method), res.Phase)
	}

	// unboxing followed by widening
	res = f.resolve(t, f.call("w", Arg(f.integer())))
	if res.Method != mLong || res.Phase != resolve.Loose {
		t.Fatalf("expected loose w(long), found %s (%s)", f.table.MethodString(res.Method), res.Phase)
	}
}

func TestSourceLevelWithoutBoxing(t *testing.T) {
	f := newFixture(&config.Config{Source: 4})
	Method(f.table, f.util.Id, "m", types.VoidType, f.obj())

	rerr := f.fail(t, f.call("m", Arg(types.IntType)), resolve.Inapplicable)
	if len(rerr.Candidates) != 1 || rerr.Candidates[0].Phase != resolve.Strict {
		t.Fatalf("expected a single strict candidate, found %v", rerr.Candidates)
	}
}

func TestVarargsPhase(t *testing.T) {
	f := newFixture(nil)
	join := f.varargs(Method(f.table, f.util.Id, "join", f.str(), TArray(f.str())))

	for n := 0; n < 3; n++ {
		args := make([]ast.Expr, n)
		for i := range args {
			args[i] = Lit(`"s"`, f.str())
		}
		res := f.resolve(t, f.call("join", args...))
		if res.Method != join || res.Phase != resolve.Varargs {
			t.Fatalf("%d args: expected varargs join, found %s (%s)", n, f.table.MethodString(res.Method), res.Phase)
		}
	}

	// an array argument matches the last formal in a fixed-arity phase
	res := f.resolve(t, f.call("join", Arg(TArray(f.str()))))
	if res.Phase != resolve.Strict {
		t.Fatalf("expected strict phase for an array argument, found %s", res.Phase)
	}

	rerr := f.fail(t, f.call("join", Arg(types.IntType)), resolve.Inapplicable)
	if kind := rerr.Candidates[0].Failure.Kind; kind != resolve.VarargsMismatch {
		t.Fatalf("expected varargs mismatch, found %s", kind)
	}

	// the fixed-arity phases only fail on arity, so the varargs mismatch is reported
	rerr = f.fail(t, f.call("join", Arg(types.IntType), Arg(types.IntType)), resolve.Inapplicable)
	if len(rerr.Candidates) != 1 {
		t.Fatalf("expected 1 reported candidate, found %d", len(rerr.Candidates))
	}
	if c := rerr.Candidates[0]; c.Failure.Kind != resolve.VarargsMismatch || c.Phase != resolve.Varargs {
		t.Fatalf("expected varargs mismatch in the varargs phase, found %s (%s)", c.Failure.Kind, c.Phase)
	}
}

func TestInaccessibleVarargsElement(t *testing.T) {
	f := newFixture(nil)
	hidden := f.table.DeclareClass("lib", "Hidden", 0)
	hidden.Super = f.obj()
	api := Class(f.table, "lib", "Api", nil)
	f.static(f.varargs(Method(f.table, api.Id, "m", types.VoidType, TArray(TClass(hidden.Id)))))

	call := &resolve.Call{Site: f.unit, Receiver: TClass(api.Id), Name: "m"}
	rerr := f.fail(t, call, resolve.Inapplicable)
	if kind := rerr.Candidates[0].Failure.Kind; kind != resolve.InaccessibleVarargs {
		t.Fatalf("expected inaccessible varargs element, found %s", kind)
	}
}

func TestMostSpecific(t *testing.T) {
	f := newFixture(nil)
	Method(f.table, f.util.Id, "m", types.VoidType, f.obj())
	mStr := Method(f.table, f.util.Id, "m", types.VoidType, f.str())
	Method(f.table, f.util.Id, "m", types.VoidType, TClass(f.table.Predef.Serializable))

	res := f.resolve(t, f.call("m", Lit(`"s"`, f.str())))
	if res.Method != mStr {
		t.Fatalf("expected m(String), found %s", f.table.MethodString(res.Method))
	}
}

func TestOverridingMethodIsMostSpecific(t *testing.T) {
	f := newFixture(nil)
	base := Class(f.table, "app", "Base", nil)
	derived := Class(f.table, "app", "Derived", TClass(base.Id))
	Method(f.table, base.Id, "m", types.VoidType, f.str())
	over := Method(f.table, derived.Id, "m", types.VoidType, f.str())

	call := &resolve.Call{Site: f.unit, Receiver: TClass(derived.Id), Name: "m", Args: []ast.Expr{Arg(f.str())}}
	res := f.resolve(t, call)
	if res.Method != over {
		t.Fatalf("expected Derived.m, found %s", f.table.MethodString(res.Method))
	}
}

func TestAmbiguity(t *testing.T) {
	f := newFixture(nil)
	I, O := f.integer(), f.obj()
	Method(f.table, f.util.Id, "m", types.VoidType, I, O)
	Method(f.table, f.util.Id, "m", types.VoidType, O, I)

	rerr := f.fail(t, f.call("m", Arg(I), Arg(I)), resolve.Ambiguous)
	if len(rerr.Candidates) != 2 {
		t.Fatalf("expected 2 ambiguous candidates, found %d", len(rerr.Candidates))
	}
	if key := rerr.Diagnostic().Key; key != "ref.ambiguous" {
		t.Fatalf("diagnostic key: %s", key)
	}

	// three methods, none more specific than another
	Method(f.table, f.util.Id, "n", types.VoidType, I, O, O)
	Method(f.table, f.util.Id, "n", types.VoidType, O, I, O)
	Method(f.table, f.util.Id, "n", types.VoidType, O, O, I)
	rerr = f.fail(t, f.call("n", Arg(I), Arg(I), Arg(I)), resolve.Ambiguous)
	if len(rerr.Candidates) != 3 {
		t.Fatalf("expected 3 ambiguous candidates, found %d", len(rerr.Candidates))
	}

	// a later method more specific than every tied method resolves the tie
	Method(f.table, f.util.Id, "k", types.VoidType, I, O)
	Method(f.table, f.util.Id, "k", types.VoidType, O, I)
	kII := Method(f.table, f.util.Id, "k", types.VoidType, I, I)
	res := f.resolve(t, f.call("k", Arg(I), Arg(I)))
	if res.Method != kII {
		t.Fatalf("expected k(Integer, Integer), found %s", f.table.MethodString(res.Method))
	}
}

func TestInapplicable(t *testing.T) {
	f := newFixture(nil)
	Method(f.table, f.util.Id, "m", types.VoidType, types.IntType)

	rerr := f.fail(t, f.call("m", Lit(`"s"`, f.str())), resolve.Inapplicable)
	if key := rerr.Diagnostic().Key; key != "cant.apply.symbol" {
		t.Fatalf("diagnostic key: %s", key)
	}
	if kind := rerr.Candidates[0].Failure.Kind; kind != resolve.ArgMismatch {
		t.Fatalf("expected argument mismatch, found %s", kind)
	}

	rerr = f.fail(t, f.call("m"), resolve.Inapplicable)
	if kind := rerr.Candidates[0].Failure.Kind; kind != resolve.ArityMismatch {
		t.Fatalf("expected arity mismatch, found %s", kind)
	}

	Method(f.table, f.util.Id, "m", types.VoidType, types.BooleanType)
	rerr = f.fail(t, f.call("m", Lit(`"s"`, f.str())), resolve.InapplicableMultiple)
	if key := rerr.Diagnostic().Key; key != "cant.apply.symbols" {
		t.Fatalf("diagnostic key: %s", key)
	}
	if len(rerr.Candidates) != 2 {
		t.Fatalf("expected 2 inapplicable candidates, found %d", len(rerr.Candidates))
	}
	if !strings.HasPrefix(rerr.Error(), "No suitable method found for m(String)") {
		t.Fatalf("message: %s", rerr.Error())
	}
}

func TestNotFound(t *testing.T) {
	f := newFixture(nil)
	rerr := f.fail(t, f.call("missing", Arg(types.IntType)), resolve.NotFound)
	if key := rerr.Diagnostic().Key; key != "cant.resolve.location.args" {
		t.Fatalf("diagnostic key: %s", key)
	}
	if f.r.Error() != error(rerr) {
		t.Fatalf("expected the resolver to keep the last error")
	}
	if f.r.InvalidCall() == nil || f.r.InvalidCall().Name != "missing" {
		t.Fatalf("expected the resolver to keep the invalid call")
	}
}

func TestUnqualifiedCall(t *testing.T) {
	f := newFixture(nil)
	outer := Class(f.table, "app", "Outer", nil)
	inner := Class(f.table, "app", "Inner", nil)
	inner.Outer = outer.Id
	helper := Method(f.table, outer.Id, "helper", types.VoidType, f.str())

	outerScope := f.env.EnterClass(f.unit, outer.Id)
	innerScope := f.env.EnterClass(outerScope, inner.Id)
	block := f.env.EnterBlock(f.env.EnterMethod(innerScope, types.NoMethod))

	res := f.resolve(t, &resolve.Call{Site: block, Name: "helper", Args: []ast.Expr{Arg(f.str())}})
	if res.Method != helper {
		t.Fatalf("expected Outer.helper, found %s", f.table.MethodString(res.Method))
	}

	f.fail(t, &resolve.Call{Site: block, Name: "nothing"}, resolve.NotFound)
}

func TestStaticContext(t *testing.T) {
	f := newFixture(nil)
	outer := Class(f.table, "app", "Outer", nil)
	helper := Method(f.table, outer.Id, "helper", types.VoidType)
	util := f.static(Method(f.table, outer.Id, "util", types.VoidType))
	main := f.static(Method(f.table, outer.Id, "main", types.VoidType))
	run := Method(f.table, outer.Id, "run", types.VoidType)
	outerScope := f.env.EnterClass(f.unit, outer.Id)

	static := f.env.EnterLambda(f.env.EnterMethod(outerScope, main))
	if !f.env.StaticContext(static) {
		t.Fatal("expected a static context within a static method")
	}
	rerr := f.fail(t, &resolve.Call{Site: static, Name: "helper"}, resolve.StaticContext)
	if rerr.Method != helper {
		t.Fatalf("expected Outer.helper, found %s", f.table.MethodString(rerr.Method))
	}
	if key := rerr.Diagnostic().Key; key != "non-static.cant.be.ref" {
		t.Fatalf("diagnostic key: %s", key)
	}
	if res := f.resolve(t, &resolve.Call{Site: static, Name: "util"}); res.Method != util {
		t.Fatalf("expected Outer.util, found %s", f.table.MethodString(res.Method))
	}
	// a qualified call names its receiver
	if res := f.resolve(t, &resolve.Call{Site: static, Receiver: TClass(outer.Id), Name: "helper"}); res.Method != helper {
		t.Fatalf("expected Outer.helper, found %s", f.table.MethodString(res.Method))
	}

	instance := f.env.EnterBlock(f.env.EnterMethod(outerScope, run))
	if f.env.StaticContext(instance) {
		t.Fatal("unexpected static context within an instance method")
	}
	if res := f.resolve(t, &resolve.Call{Site: instance, Name: "helper"}); res.Method != helper {
		t.Fatalf("expected Outer.helper, found %s", f.table.MethodString(res.Method))
	}

	// a static nested class has no enclosing instance
	nested := f.table.DeclareClass("app", "Nested", types.Public|types.Static)
	nested.Super, nested.Outer = f.obj(), outer.Id
	nestedScope := f.env.EnterClass(outerScope, nested.Id)
	f.fail(t, &resolve.Call{Site: f.env.EnterMethod(nestedScope, types.NoMethod), Name: "helper"}, resolve.StaticContext)

	inner := Class(f.table, "app", "Inner", nil)
	inner.Outer = outer.Id
	innerScope := f.env.EnterClass(outerScope, inner.Id)
	if res := f.resolve(t, &resolve.Call{Site: f.env.EnterMethod(innerScope, types.NoMethod), Name: "helper"}); res.Method != helper {
		t.Fatalf("expected Outer.helper from an inner class, found %s", f.table.MethodString(res.Method))
	}
}

func TestResolveConstructor(t *testing.T) {
	f := newFixture(nil)
	box := Class(f.table, "app", "Box", nil)
	X := Generic(f.table, box, "X")[0]
	one := Constructor(f.table, box.Id, X)
	Y := f.table.NewTypeVar("Y", nil)
	two := f.table.DeclareMethod(types.Method{Name: types.ConstructorName, Owner: box.Id, Flags: types.Public, TypeParams: []*types.TypeVar{Y}, Params: []types.Type{X, Y}, Return: f.table.ThisType(box.Id)})

	newBox := func(receiver types.Type, diamond bool, args ...ast.Expr) *resolve.Call {
		return &resolve.Call{Site: f.unit, Receiver: receiver, Args: args, Diamond: diamond}
	}
	ctor := func(call *resolve.Call) *resolve.Resolution {
		t.Helper()
		res, err := f.r.ResolveConstructor(call)
		if err != nil {
			t.Fatal(err)
		}
		t.Logf("resolved: %s (%s)", f.table.MethodString(res.Method), res.Phase)
		return res
	}

	res := ctor(newBox(TClass(box.Id), true, Lit(`"s"`, f.str())))
	if res.Method != one {
		t.Fatalf("expected Box(X), found %s", f.table.MethodString(res.Method))
	}
	if s := types.TypeString(f.table, res.Signature.Return); s != "Box<String>" {
		t.Fatalf("expected Box<String>, found %s", s)
	}

	// the class type-arguments are listed before the constructor's
	res = ctor(newBox(TClass(box.Id), true, Lit(`"s"`, f.str()), Arg(f.integer())))
	if res.Method != two {
		t.Fatalf("expected <Y>Box(X, Y), found %s", f.table.MethodString(res.Method))
	}
	if s := types.TypeListString(f.table, res.Signature.TypeArgs); s != "String, Integer" {
		t.Fatalf("expected String, Integer, found %s", s)
	}

	// the target type constrains a diamond
	call := newBox(TClass(box.Id), true, Arg(f.integer()))
	call.Expected = TClass(box.Id, TClass(f.table.Predef.Number))
	res = ctor(call)
	if s := types.TypeString(f.table, res.Signature.Return); s != "Box<Number>" {
		t.Fatalf("expected Box<Number>, found %s", s)
	}

	res = ctor(newBox(TClass(box.Id, f.integer()), false, Lit("1", types.IntType)))
	if res.Phase != resolve.Loose {
		t.Fatalf("expected the loose phase, found %s", res.Phase)
	}
	if s := types.TypeString(f.table, res.Signature.Return); s != "Box<Integer>" {
		t.Fatalf("expected Box<Integer>, found %s", s)
	}
	if s := types.TypeString(f.table, ctor(newBox(TClass(box.Id), false, Arg(f.str()))).Signature.Return); s != "Box" {
		t.Fatalf("expected the raw type Box, found %s", s)
	}

	// constructors are not inherited
	sub := Class(f.table, "app", "SubBox", TClass(box.Id, f.str()))
	_, err := f.r.ResolveConstructor(newBox(TClass(sub.Id), false, Arg(f.str())))
	var rerr *resolve.ResolveError
	if !errors.As(err, &rerr) || rerr.Kind != resolve.NotFound {
		t.Fatalf("expected NotFound, found %v", err)
	}
	if !strings.HasPrefix(rerr.Error(), "Cannot find constructor SubBox(String)") {
		t.Fatalf("unexpected message: %s", rerr.Error())
	}

	_, err = f.r.ResolveConstructor(newBox(TClass(box.Id, f.str()), false, Arg(f.integer())))
	if !errors.As(err, &rerr) || rerr.Kind != resolve.InapplicableMultiple {
		t.Fatalf("expected InapplicableMultiple, found %v", err)
	}
	if !strings.HasPrefix(rerr.Error(), "No suitable constructor found for Box(Integer)") {
		t.Fatalf("unexpected message: %s", rerr.Error())
	}
}

func TestInterfaceMethods(t *testing.T) {
	f := newFixture(nil)
	greeter := Interface(f.table, "app", "Greeter")
	greet := Method(f.table, greeter.Id, "greet", types.VoidType, f.str())
	f.table.Method(greet).Flags = types.Public | types.Default
	run := Method(f.table, greeter.Id, "run", types.VoidType)

	impl := Class(f.table, "app", "Impl", nil, TClass(greeter.Id))
	res := f.resolve(t, &resolve.Call{Site: f.unit, Receiver: TClass(impl.Id), Name: "greet", Args: []ast.Expr{Arg(f.str())}})
	if res.Method != greet {
		t.Fatalf("expected the default method, found %s", f.table.MethodString(res.Method))
	}

	// abstract interface methods are members of abstract classes only through the first
	// interfaces met before a concrete class
	abs := f.table.DeclareClass("app", "Abs", types.Public|types.Abstract)
	abs.Super, abs.Interfaces = f.obj(), []types.Type{TClass(greeter.Id)}
	res = f.resolve(t, &resolve.Call{Site: f.unit, Receiver: TClass(abs.Id), Name: "run"})
	if res.Method != run {
		t.Fatalf("expected Greeter.run, found %s", f.table.MethodString(res.Method))
	}

	// a concrete superclass method wins over a default method with the same signature
	base := Class(f.table, "app", "Base", nil)
	concrete := Method(f.table, base.Id, "greet", types.VoidType, f.str())
	derived := Class(f.table, "app", "Derived", TClass(base.Id), TClass(greeter.Id))
	res = f.resolve(t, &resolve.Call{Site: f.unit, Receiver: TClass(derived.Id), Name: "greet", Args: []ast.Expr{Arg(f.str())}})
	if res.Method != concrete {
		t.Fatalf("expected Base.greet, found %s", f.table.MethodString(res.Method))
	}
}

func TestAbstractMethodsFromUnrelatedInterfaces(t *testing.T) {
	f := newFixture(nil)
	a := Interface(f.table, "app", "A")
	Method(f.table, a.Id, "m", types.VoidType)
	b := Interface(f.table, "app", "B")
	Method(f.table, b.Id, "m", types.VoidType)
	c := Interface(f.table, "app", "C", TClass(a.Id), TClass(b.Id))

	rerr := f.fail(t, &resolve.Call{Site: f.unit, Receiver: TClass(c.Id), Name: "m"}, resolve.Ambiguous)
	if len(rerr.Candidates) != 2 {
		t.Fatalf("expected 2 ambiguous candidates, found %d", len(rerr.Candidates))
	}

	// an interface redeclaring the method overrides both
	d := Interface(f.table, "app", "D", TClass(a.Id), TClass(b.Id))
	dm := Method(f.table, d.Id, "m", types.VoidType)
	res := f.resolve(t, &resolve.Call{Site: f.unit, Receiver: TClass(d.Id), Name: "m"})
	if res.Method != dm {
		t.Fatalf("expected D.m, found %s", f.table.MethodString(res.Method))
	}
}

func TestAccess(t *testing.T) {
	f := newFixture(nil)
	lib := Class(f.table, "lib", "Lib", nil)
	priv := Method(f.table, lib.Id, "priv", types.VoidType)
	f.table.Method(priv).Flags = types.Private
	pkg := Method(f.table, lib.Id, "pkg", types.VoidType)
	f.table.Method(pkg).Flags = 0
	prot := Method(f.table, lib.Id, "prot", types.VoidType)
	f.table.Method(prot).Flags = types.Protected

	main := Class(f.table, "app", "Main", TClass(lib.Id))
	scope := f.env.EnterClass(f.unit, main.Id)
	call := func(recv types.Type, name string) *resolve.Call {
		return &resolve.Call{Site: scope, Receiver: recv, Name: name}
	}

	rerr := f.fail(t, call(TClass(lib.Id), "priv"), resolve.AccessDenied)
	if rerr.Method != priv || !strings.Contains(rerr.Error(), "private access in lib.Lib") {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if key := rerr.Diagnostic().Key; key != "report.access" {
		t.Fatalf("diagnostic key: %s", key)
	}

	f.fail(t, call(TClass(lib.Id), "pkg"), resolve.AccessDenied)

	// protected members are accessible through the accessing subclass only
	res := f.resolve(t, call(TClass(main.Id), "prot"))
	if res.Method != prot {
		t.Fatalf("expected Lib.prot, found %s", f.table.MethodString(res.Method))
	}
	rerr = f.fail(t, call(TClass(lib.Id), "prot"), resolve.AccessDenied)
	if !strings.Contains(rerr.Error(), "protected access in lib.Lib") {
		t.Fatalf("unexpected error: %v", rerr)
	}

	// an inaccessible method never hides an accessible one
	Method(f.table, lib.Id, "m", types.VoidType, f.obj())
	hiddenStr := Method(f.table, lib.Id, "m", types.VoidType, f.str())
	f.table.Method(hiddenStr).Flags = types.Private
	withArg := call(TClass(lib.Id), "m")
	withArg.Args = []ast.Expr{Arg(f.str())}
	res = f.resolve(t, withArg)
	if res.Method == hiddenStr {
		t.Fatalf("resolved an inaccessible method")
	}
}

func TestModuleExports(t *testing.T) {
	f := newFixture(nil)
	internal := Class(f.table, "lib.internal", "Impl", nil)
	internal.Module = "libmod"
	Method(f.table, internal.Id, "run", types.VoidType)

	unit := f.env.EnterUnit("app", "appmod")
	call := &resolve.Call{Site: unit, Receiver: TClass(internal.Id), Name: "run"}
	rerr := f.fail(t, call, resolve.AccessDenied)
	if !strings.Contains(rerr.Error(), "package lib.internal is not exported by module libmod") {
		t.Fatalf("unexpected error: %v", rerr)
	}

	f.table.Export("libmod", "lib.internal")
	f.resolve(t, call)
}

func TestGenericMethod(t *testing.T) {
	f := newFixture(nil)
	T := f.table.NewTypeVar("T", nil)
	id := f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T}, "id", T, T))

	res := f.resolve(t, f.call("id", Lit(`"s"`, f.str())))
	if res.Method != id {
		t.Fatalf("expected id, found %s", f.table.MethodString(res.Method))
	}
	if diff := cmp.Diff("String", types.TypeString(f.table, res.Signature.Return)); diff != "" {
		t.Fatalf("return type (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("String", types.TypeListString(f.table, res.Signature.TypeArgs)); diff != "" {
		t.Fatalf("type-arguments (-want +got):\n%s", diff)
	}

	// primitive arguments are boxed
	res = f.resolve(t, f.call("id", Arg(types.IntType)))
	if s := types.TypeString(f.table, res.Signature.Return); s != "Integer" || res.Phase != resolve.Loose {
		t.Fatalf("expected loose Integer, found %s (%s)", s, res.Phase)
	}
}

func TestGenericMethodTarget(t *testing.T) {
	f := newFixture(nil)
	base := Class(f.table, "app", "Base", nil)
	a := Class(f.table, "app", "A", TClass(base.Id))
	b := Class(f.table, "app", "B", TClass(base.Id))
	T := f.table.NewTypeVar("T", nil)
	pick := f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T}, "pick", T, T, T))

	call := f.call("pick", Arg(TClass(a.Id)), Arg(TClass(b.Id)))
	res := f.resolve(t, call)
	if s := types.TypeString(f.table, res.Signature.Return); s != "Base" {
		t.Fatalf("expected Base, found %s", s)
	}

	call.Expected = TClass(base.Id)
	res = f.resolve(t, call)
	if s := types.TypeString(f.table, res.Signature.Return); s != "Base" {
		t.Fatalf("expected Base, found %s", s)
	}

	// no instance of T makes pick(A, B) a B
	call.Expected = TClass(b.Id)
	rerr := f.fail(t, call, resolve.InferenceFailed)
	if rerr.Method != pick {
		t.Fatalf("expected the error to name pick, found %v", rerr.Method)
	}
	ierr := rerr.InferenceError()
	if ierr == nil || ierr.Kind != infer.NoConformingInstance {
		t.Fatalf("expected no conforming instance, found %v", ierr)
	}
	if key := rerr.Diagnostic().Key; key != "infer.no.conforming.instance.exists" {
		t.Fatalf("diagnostic key: %s", key)
	}
}

func TestBoundedTypeParameter(t *testing.T) {
	f := newFixture(nil)
	T := f.table.NewTypeVar("T", TClass(f.table.Predef.Number))
	f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T}, "num", T, T))

	res := f.resolve(t, f.call("num", Arg(f.integer())))
	if s := types.TypeString(f.table, res.Signature.Return); s != "Integer" {
		t.Fatalf("expected Integer, found %s", s)
	}

	rerr := f.fail(t, f.call("num", Lit(`"s"`, f.str())), resolve.Inapplicable)
	if kind := rerr.Candidates[0].Failure.Kind; kind != resolve.InferenceFailure {
		t.Fatalf("expected inference failure, found %s", kind)
	}
}

func TestExplicitTypeArguments(t *testing.T) {
	f := newFixture(nil)
	T := f.table.NewTypeVar("T", TClass(f.table.Predef.Number))
	f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T}, "num", T, T))

	call := f.call("num", Arg(f.integer()))
	call.TypeArgs = []types.Type{TClass(f.table.Predef.Number)}
	res := f.resolve(t, call)
	if s := types.TypeString(f.table, res.Signature.Return); s != "Number" {
		t.Fatalf("expected Number, found %s", s)
	}

	call.TypeArgs = []types.Type{f.str()}
	rerr := f.fail(t, call, resolve.Inapplicable)
	if kind := rerr.Candidates[0].Failure.Kind; kind != resolve.ExplicitTypeArgs {
		t.Fatalf("expected explicit type-argument failure, found %s", kind)
	}

	call.TypeArgs = []types.Type{f.integer(), f.integer()}
	rerr = f.fail(t, call, resolve.Inapplicable)
	if !strings.Contains(rerr.Error(), "Wrong number of type-arguments; required 1, found 2") {
		t.Fatalf("unexpected error: %v", rerr)
	}
}

func TestLambdaArgument(t *testing.T) {
	f := newFixture(nil)
	fn := f.function()
	T, R := f.table.NewTypeVar("T", nil), f.table.NewTypeVar("R", nil)
	f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T, R}, "apply", R, T, TClass(fn, TSuper(T), TExtends(R))))

	lambda := Lambda([]string{"x"}, Arg(f.integer()))
	res := f.resolve(t, f.call("apply", Lit(`"s"`, f.str()), lambda))
	if s := types.TypeString(f.table, res.Signature.Return); s != "Integer" {
		t.Fatalf("expected Integer, found %s", s)
	}
	if s := types.TypeListString(f.table, res.Signature.TypeArgs); s != "String, Integer" {
		t.Fatalf("expected String, Integer, found %s", s)
	}

	// the lambda's arity is checked before inference
	bad := Lambda([]string{"x", "y"}, Arg(f.integer()))
	rerr := f.fail(t, f.call("apply", Lit(`"s"`, f.str()), bad), resolve.Inapplicable)
	if kind := rerr.Candidates[0].Failure.Kind; kind != resolve.ArgMismatch {
		t.Fatalf("expected argument mismatch, found %s", kind)
	}
}

func TestMethodRefArgument(t *testing.T) {
	f := newFixture(nil)
	fn := f.function()
	conv := Class(f.table, "app", "Conv", nil)
	f.static(Method(f.table, conv.Id, "len", types.IntType, f.str()))
	T, R := f.table.NewTypeVar("T", nil), f.table.NewTypeVar("R", nil)
	f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T, R}, "map", R, T, TClass(fn, T, R)))

	res := f.resolve(t, f.call("map", Lit(`"s"`, f.str()), StaticRef(TClass(conv.Id), "len")))
	if s := types.TypeString(f.table, res.Signature.Return); s != "Integer" {
		t.Fatalf("expected Integer, found %s", s)
	}

	f.fail(t, f.call("map", Arg(f.integer()), StaticRef(TClass(conv.Id), "len")), resolve.Inapplicable)
}

func TestUnboundMethodRefConflict(t *testing.T) {
	f := newFixture(nil)
	consumer := Interface(f.table, "app", "BiConsumer")
	ab := Generic(f.table, consumer, "A", "B")
	Method(f.table, consumer.Id, "accept", types.VoidType, ab[0], ab[1])
	box := Class(f.table, "app", "Box", nil)
	Generic(f.table, box, "X")
	Method(f.table, box.Id, "m", types.VoidType, TClass(box.Id, f.integer()))
	T := f.table.NewTypeVar("T", nil)
	f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T}, "run", types.VoidType, TClass(consumer.Id, T, T)))

	// the receiver needs T <: Box<String> while the argument needs T <: Box<Integer>
	rerr := f.fail(t, f.call("run", StaticRef(TClass(box.Id, f.str()), "m")), resolve.Inapplicable)
	failure := rerr.Candidates[0].Failure
	if failure.Kind != resolve.ArgMismatch {
		t.Fatalf("expected argument mismatch, found %s", failure.Kind)
	}
	if failure.Cause == nil || !strings.Contains(failure.Cause.Error(), "Invalid method reference") {
		t.Fatalf("expected an invalid method reference, found %v", failure.Cause)
	}

	// either bound alone is satisfiable
	res := f.resolve(t, f.call("run", StaticRef(TClass(box.Id, f.integer()), "m")))
	if s := types.TypeListString(f.table, res.Signature.TypeArgs); s != "Box<Integer>" {
		t.Fatalf("expected Box<Integer>, found %s", s)
	}
}

func TestLambdaReturningImplicitLambda(t *testing.T) {
	f := newFixture(nil)
	fn := f.function()
	nested := Interface(f.table, "app", "NestedSource")
	Method(f.table, nested.Id, "get", TClass(fn, f.str(), f.integer()))
	boxed := Interface(f.table, "app", "IntegerSource")
	Method(f.table, boxed.Id, "get", f.integer())
	mNested := Method(f.table, f.util.Id, "m", types.VoidType, TClass(nested.Id))
	Method(f.table, f.util.Id, "m", types.VoidType, TClass(boxed.Id))

	// an explicitly typed lambda whose result is an implicitly typed lambda is only checked
	// for its shape, which both methods accept
	implicit := TypedLambda(nil, Lambda([]string{"x"}, Arg(f.integer())))
	f.fail(t, f.call("m", implicit), resolve.Ambiguous)

	explicit := TypedLambda(nil, TypedLambda([]ast.Param{Param("x", f.str())}, Arg(f.integer())))
	res := f.resolve(t, f.call("m", explicit))
	if res.Method != mNested {
		t.Fatalf("expected m(NestedSource), found %s", f.table.MethodString(res.Method))
	}
}

func TestInstantiateFunctionalInterfaceTarget(t *testing.T) {
	f := newFixture(nil)
	fn := f.function()
	number := TClass(f.table.Predef.Number)

	for _, tc := range []struct {
		name     string
		target   types.Type
		explicit []types.Type
		expect   string
		err      error
	}{
		{
			name:   "wildcard bounds",
			target: TClass(fn, TSuper(f.str()), TExtends(f.integer())),
			expect: "Function<String,Integer>",
		},
		{
			name:   "unbounded wildcards",
			target: TClass(fn, TWild(), TWild()),
			expect: "Function<Object,Object>",
		},
		{
			name:     "explicit parameter types",
			target:   TClass(fn, TSuper(f.integer()), TExtends(f.integer())),
			explicit: []types.Type{number},
			expect:   "Function<Number,Integer>",
		},
		{
			name:     "explicit parameter outside the wildcard",
			target:   TClass(fn, TSuper(f.integer()), TWild()),
			explicit: []types.Type{f.str()},
			err:      resolve.ErrNoParameterization,
		},
		{
			name:   "not an interface",
			target: f.str(),
			err:    resolve.ErrNotFunctional,
		},
	} {
		inst, err := f.r.InstantiateFunctionalInterfaceTarget(tc.target, tc.explicit)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%s: expected %v, found %v (%s)", tc.name, tc.err, err, types.TypeString(f.table, inst))
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if s := types.TypeString(f.table, inst); s != tc.expect {
			t.Fatalf("%s: expected %s, found %s", tc.name, tc.expect, s)
		}
	}

	if _, err := f.r.InstantiateFunctionalInterfaceTarget(TClass(fn, TWild(), TWild()), []types.Type{f.str(), f.str()}); err == nil {
		t.Fatal("expected a parameter count mismatch")
	}

	// a target without wildcards is its own parameterization
	target := TClass(fn, f.str(), f.integer())
	if inst, err := f.r.InstantiateFunctionalInterfaceTarget(target, nil); err != nil || inst != types.Type(target) {
		t.Fatalf("expected the target itself, found %s (%v)", types.TypeString(f.table, inst), err)
	}

	// the bound of an F-bounded parameter mentions the parameter, so no wildcard can be replaced
	cmpItf := Interface(f.table, "app", "Cmp")
	tps := Generic(f.table, cmpItf, "T")
	tps[0].Bound = TClass(f.table.Predef.Comparable, tps[0])
	Method(f.table, cmpItf.Id, "compare", types.IntType, tps[0])
	if _, err := f.r.InstantiateFunctionalInterfaceTarget(TClass(cmpItf.Id, TWild()), nil); !errors.Is(err, resolve.ErrNoParameterization) {
		t.Fatalf("expected %v, found %v", resolve.ErrNoParameterization, err)
	}
}

func TestFunctionalMostSpecific(t *testing.T) {
	f := newFixture(nil)
	intSource := Interface(f.table, "app", "IntSource")
	Method(f.table, intSource.Id, "get", types.IntType)
	objSource := Interface(f.table, "app", "ObjSource")
	Method(f.table, objSource.Id, "get", f.obj())
	mInt := Method(f.table, f.util.Id, "m", types.VoidType, TClass(intSource.Id))
	mObj := Method(f.table, f.util.Id, "m", types.VoidType, TClass(objSource.Id))

	res := f.resolve(t, f.call("m", TypedLambda(nil, Arg(types.IntType))))
	if res.Method != mInt {
		t.Fatalf("expected m(IntSource) for a primitive result, found %s", f.table.MethodString(res.Method))
	}
	res = f.resolve(t, f.call("m", TypedLambda(nil, Arg(f.integer()))))
	if res.Method != mObj {
		t.Fatalf("expected m(ObjSource) for a reference result, found %s", f.table.MethodString(res.Method))
	}
}

func TestNestedGenericCall(t *testing.T) {
	f := newFixture(nil)
	T := f.table.NewTypeVar("T", nil)
	f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T}, "id", T, T))

	inner := Call(TClass(f.util.Id), "id", Lit(`"s"`, f.str()))
	call := f.call("id", inner)
	call.Expected = f.obj()
	res := f.resolve(t, call)
	if s := types.TypeString(f.table, res.Signature.Return); s != "String" {
		t.Fatalf("expected String, found %s", s)
	}

	// a non-generic nested call is typed once
	Method(f.table, f.util.Id, "name", f.str())
	nested := Call(TClass(f.util.Id), "name")
	f.resolve(t, f.call("id", nested))
	if s := types.TypeString(f.table, nested.Type()); s != "String" {
		t.Fatalf("expected the nested call to be typed String, found %s", s)
	}
}

func TestInstantiateGenericMethod(t *testing.T) {
	f := newFixture(nil)
	T := f.table.NewTypeVar("T", nil)
	id := f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T}, "id", T, T))

	sig, err := f.r.InstantiateGenericMethod(id, TClass(f.util.Id), []ast.Expr{Arg(f.integer())}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s := types.TypeString(f.table, sig.Return); s != "Integer" {
		t.Fatalf("expected Integer, found %s", s)
	}

	sig, err = f.r.InstantiateGenericMethod(id, nil, []ast.Expr{Arg(f.integer())}, []types.Type{TClass(f.table.Predef.Number)}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s := types.TypeString(f.table, sig.Return); s != "Number" {
		t.Fatalf("expected Number, found %s", s)
	}
}

func candidateLog(table *types.Table, cands []resolve.Candidate) []string {
	log := make([]string, len(cands))
	for i, c := range cands {
		outcome := "ok"
		if c.Failure != nil {
			outcome = c.Failure.Kind.String()
		}
		log[i] = table.MethodString(c.Method) + " " + c.Phase.String() + " " + outcome
	}
	return log
}

func TestCandidateLog(t *testing.T) {
	f := newFixture(nil)
	Method(f.table, f.util.Id, "m", types.VoidType, f.obj())
	Method(f.table, f.util.Id, "m", types.VoidType, types.IntType, types.IntType)
	Method(f.table, f.util.Id, "m", types.VoidType, types.LongType)

	res := f.resolve(t, f.call("m", Arg(f.integer())))
	want := []string{
		"Util.m(Object) strict ok",
		"Util.m(int, int) strict " + resolve.ArityMismatch.String(),
		"Util.m(long) strict " + resolve.ArgMismatch.String(),
	}
	if diff := cmp.Diff(want, candidateLog(f.table, res.Candidates)); diff != "" {
		t.Fatalf("candidates (-want +got):\n%s", diff)
	}
}

func TestDeterminism(t *testing.T) {
	f := newFixture(nil)
	fn := f.function()
	T, R := f.table.NewTypeVar("T", nil), f.table.NewTypeVar("R", nil)
	f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T, R}, "apply", R, T, TClass(fn, TSuper(T), TExtends(R))))
	f.static(Method(f.table, f.util.Id, "apply", f.obj(), f.obj(), f.obj()))

	var first []string
	for i := 0; i < 5; i++ {
		call := f.call("apply", Arg(f.str()), Lambda([]string{"x"}, Arg(f.integer())))
		res, err := f.r.ResolveMethod(call)
		if err != nil {
			t.Fatal(err)
		}
		got := append(candidateLog(f.table, res.Candidates), types.TypeString(f.table, res.Signature.Return))
		if first == nil {
			first = got
			continue
		}
		if diff := cmp.Diff(first, got); diff != "" {
			t.Fatalf("resolution %d differs (-first +got):\n%s", i, diff)
		}
	}
}
