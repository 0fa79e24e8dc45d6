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

package construct

import (
	"github.com/wdamron/resolve/ast"
	"github.com/wdamron/resolve/types"
)

// Types

// Primitive type: `int`, `boolean`, etc
func TPrim(name string) *types.Prim {
	k := types.PrimKindNamed(name)
	if k == 0 {
		panic("unknown primitive type " + name)
	}
	return types.PrimType(k)
}

// Class type: `List<String>`
func TClass(id types.ClassID, args ...types.Type) *types.ClassType {
	return &types.ClassType{Sym: id, Args: args}
}

// Array type: `String[]`
func TArray(elem types.Type) *types.ArrayType {
	return &types.ArrayType{Elem: elem}
}

// Unbounded wildcard: `?`
func TWild() *types.Wildcard {
	return &types.Wildcard{Kind: types.Unbounded}
}

// Upper-bounded wildcard: `? extends Number`
func TExtends(bound types.Type) *types.Wildcard {
	return &types.Wildcard{Kind: types.Extends, Bound: bound}
}

// Lower-bounded wildcard: `? super Integer`
func TSuper(bound types.Type) *types.Wildcard {
	return &types.Wildcard{Kind: types.Super, Bound: bound}
}

// Intersection type: `Number & Comparable<Integer>`
func TAnd(ts ...types.Type) *types.Intersection {
	return &types.Intersection{Types: ts}
}

// Symbols

// Class declares a public class in pkg, extending super (nil for Object).
func Class(table *types.Table, pkg, name string, super types.Type, interfaces ...types.Type) *types.Class {
	c := table.DeclareClass(pkg, name, types.Public)
	if super == nil {
		super = table.ObjectType()
	}
	c.Super, c.Interfaces = super, interfaces
	return c
}

// Interface declares a public interface in pkg.
func Interface(table *types.Table, pkg, name string, supers ...types.Type) *types.Class {
	c := table.DeclareClass(pkg, name, types.Public|types.Interface|types.Abstract)
	c.Interfaces = supers
	return c
}

// Generic adds type-parameters to a class, returning them. Bounds may be set afterwards.
func Generic(table *types.Table, c *types.Class, names ...string) []*types.TypeVar {
	tps := make([]*types.TypeVar, len(names))
	for i, name := range names {
		tps[i] = table.NewTypeVar(name, nil)
	}
	c.TypeParams = append(c.TypeParams, tps...)
	return tps
}

// Method declares a public method of owner.
func Method(table *types.Table, owner types.ClassID, name string, ret types.Type, params ...types.Type) types.MethodID {
	flags := types.Public
	if table.Class(owner).IsInterface() {
		flags |= types.Abstract
	}
	return table.DeclareMethod(types.Method{Name: name, Owner: owner, Flags: flags, Params: params, Return: ret})
}

// GenericMethod declares a public generic method of owner. The method's type-parameters are
// created by the caller, so the parameter and return types may refer to them.
func GenericMethod(table *types.Table, owner types.ClassID, tparams []*types.TypeVar, name string, ret types.Type, params ...types.Type) types.MethodID {
	flags := types.Public
	if table.Class(owner).IsInterface() {
		flags |= types.Abstract
	}
	return table.DeclareMethod(types.Method{Name: name, Owner: owner, Flags: flags, TypeParams: tparams, Params: params, Return: ret})
}

// Constructor declares a public constructor of owner. The owner's type-parameters must be
// declared first.
func Constructor(table *types.Table, owner types.ClassID, params ...types.Type) types.MethodID {
	return table.DeclareMethod(types.Method{Name: types.ConstructorName, Owner: owner, Flags: types.Public, Params: params, Return: table.ThisType(owner)})
}

// Expressions:

// Standalone argument of type t
func Arg(t types.Type) *ast.Typed {
	return &ast.Typed{T: t}
}

// Standalone argument printed as syntax: `"hi"`
func Lit(syntax string, t types.Type) *ast.Typed {
	return &ast.Typed{Syntax: syntax, T: t}
}

// Implicitly typed lambda with an expression body: `(x, y) -> body`
func Lambda(params []string, body ast.Expr) *ast.Lambda {
	ps := make([]ast.Param, len(params))
	for i, name := range params {
		ps[i] = ast.Param{Name: name}
	}
	return &ast.Lambda{Params: ps, Body: body}
}

// Explicitly typed lambda with an expression body: `(String s) -> body`
func TypedLambda(params []ast.Param, body ast.Expr) *ast.Lambda {
	return &ast.Lambda{Params: params, Body: body}
}

// Lambda with a block body: `(x) -> { return a; return b; }`. No results make a void block.
func BlockLambda(params []ast.Param, results ...ast.Expr) *ast.Lambda {
	return &ast.Lambda{Params: params, Returns: results}
}

// Parameter of a lambda; t is nil for an implicitly typed parameter.
func Param(name string, t types.Type) ast.Param {
	return ast.Param{Name: name, Type: t}
}

// Method reference through a type: `String::length`
func StaticRef(qualifier types.Type, name string) *ast.MethodRef {
	return &ast.MethodRef{Qualifier: qualifier, Static: true, Name: name}
}

// Method reference through an expression: `list::add`
func BoundRef(qualifier types.Type, name string) *ast.MethodRef {
	return &ast.MethodRef{Qualifier: qualifier, Name: name}
}

// Conditional expression: `c ? a : b`
func Cond(then, els ast.Expr) *ast.Conditional {
	return &ast.Conditional{Then: then, Else: els}
}

// Method invocation: `recv.name(args...)`
func Call(receiver types.Type, name string, args ...ast.Expr) *ast.Call {
	return &ast.Call{Receiver: receiver, Name: name, Args: args}
}
