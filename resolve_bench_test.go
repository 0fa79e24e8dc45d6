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
	"testing"

	"github.com/wdamron/resolve"
	"github.com/wdamron/resolve/ast"
	. "github.com/wdamron/resolve/construct"
	"github.com/wdamron/resolve/types"
)

func BenchmarkOverloadSelection(b *testing.B) {
	f := newFixture(nil)
	I, O, S := f.integer(), f.obj(), f.str()
	Method(f.table, f.util.Id, "m", types.VoidType, O, O)
	Method(f.table, f.util.Id, "m", types.VoidType, I, O)
	Method(f.table, f.util.Id, "m", types.VoidType, O, I)
	Method(f.table, f.util.Id, "m", types.VoidType, I, I)
	Method(f.table, f.util.Id, "m", types.VoidType, S, S)
	Method(f.table, f.util.Id, "m", types.VoidType, types.IntType, types.IntType)
	call := f.call("m", Arg(I), Arg(I))

	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		res, err := f.r.ResolveMethod(call)
		if err != nil || res == nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVarargs(b *testing.B) {
	f := newFixture(nil)
	f.varargs(Method(f.table, f.util.Id, "join", f.str(), TArray(f.str())))
	args := make([]ast.Expr, 8)
	for i := range args {
		args[i] = Arg(f.str())
	}
	call := f.call("join", args...)

	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		res, err := f.r.ResolveMethod(call)
		if err != nil || res.Phase != resolve.Varargs {
			b.Fatal(err)
		}
	}
}

func BenchmarkGenericInference(b *testing.B) {
	f := newFixture(nil)
	base := Class(f.table, "app", "Base", nil)
	a := Class(f.table, "app", "A", TClass(base.Id))
	c := Class(f.table, "app", "C", TClass(base.Id))
	T := f.table.NewTypeVar("T", nil)
	f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T}, "pick", T, T, T))
	call := f.call("pick", Arg(TClass(a.Id)), Arg(TClass(c.Id)))
	call.Expected = TClass(base.Id)

	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		res, err := f.r.ResolveMethod(call)
		if err != nil || res.Signature == nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLambdaInference(b *testing.B) {
	f := newFixture(nil)
	fn := f.function()
	T, R := f.table.NewTypeVar("T", nil), f.table.NewTypeVar("R", nil)
	f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T, R}, "apply", R, T, TClass(fn, TSuper(T), TExtends(R))))
	call := f.call("apply", Arg(f.str()), Lambda([]string{"x"}, Arg(f.integer())))

	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		res, err := f.r.ResolveMethod(call)
		if err != nil || res.Signature == nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNestedGenericCalls(b *testing.B) {
	f := newFixture(nil)
	T := f.table.NewTypeVar("T", nil)
	f.static(GenericMethod(f.table, f.util.Id, []*types.TypeVar{T}, "id", T, T))
	util := TClass(f.util.Id)
	call := f.call("id", Call(util, "id", Call(util, "id", Arg(f.str()))))
	call.Expected = f.obj()

	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		res, err := f.r.ResolveMethod(call)
		if err != nil || res.Signature == nil {
			b.Fatal(err)
		}
	}
}
