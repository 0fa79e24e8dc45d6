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
	"github.com/wdamron/resolve/types"
)

// Scope identifies a lexical scope within an Env.
type Scope int

// Root is the outermost scope of every environment: no package, no module, no enclosing class.
const Root Scope = 0

// ScopeKind distinguishes the lexical constructs which open a scope.
type ScopeKind uint8

const (
	UnitScope ScopeKind = iota
	ClassScope
	MethodScope
	LambdaScope
	BlockScope
)

var scopeKindNames = [...]string{
	UnitScope:   "unit",
	ClassScope:  "class",
	MethodScope: "method",
	LambdaScope: "lambda",
	BlockScope:  "block",
}

func (k ScopeKind) String() string { return scopeKindNames[k] }

type scope struct {
	parent Scope
	kind   ScopeKind
	class  types.ClassID
	method types.MethodID
	pkg    string
	module string
}

// Env is an arena of lexical scopes. A scope refers to its parent by index, so entering a nested
// scope never copies the enclosing chain and scopes stay valid for the life of the Env.
//
// An environment cannot be used concurrently.
type Env struct {
	table  *types.Table
	scopes []scope
}

// Create an environment holding only the root scope.
func NewEnv(table *types.Table) *Env {
	return &Env{
		table:  table,
		scopes: []scope{{parent: -1, kind: UnitScope, class: types.NoClass, method: types.NoMethod}},
	}
}

func (env *Env) enter(s scope) Scope {
	id := Scope(len(env.scopes))
	env.scopes = append(env.scopes, s)
	return id
}

// Enter a compilation unit of a package, within a module ("" for the unnamed module).
func (env *Env) EnterUnit(pkg, module string) Scope {
	return env.enter(scope{parent: Root, kind: UnitScope, class: types.NoClass, method: types.NoMethod, pkg: pkg, module: module})
}

// Enter the body of a class nested in parent.
func (env *Env) EnterClass(parent Scope, c types.ClassID) Scope {
	cls := env.table.Class(c)
	return env.enter(scope{parent: parent, kind: ClassScope, class: c, method: types.NoMethod, pkg: cls.Package, module: cls.Module})
}

// Enter the body of a method nested in parent.
func (env *Env) EnterMethod(parent Scope, m types.MethodID) Scope {
	p := env.scopes[parent]
	return env.enter(scope{parent: parent, kind: MethodScope, class: types.NoClass, method: m, pkg: p.pkg, module: p.module})
}

// Enter the body of a lambda nested in parent.
func (env *Env) EnterLambda(parent Scope) Scope {
	p := env.scopes[parent]
	return env.enter(scope{parent: parent, kind: LambdaScope, class: types.NoClass, method: types.NoMethod, pkg: p.pkg, module: p.module})
}

// Enter a block nested in parent.
func (env *Env) EnterBlock(parent Scope) Scope {
	p := env.scopes[parent]
	return env.enter(scope{parent: parent, kind: BlockScope, class: types.NoClass, method: types.NoMethod, pkg: p.pkg, module: p.module})
}

// Kind returns the kind of a scope.
func (env *Env) Kind(s Scope) ScopeKind { return env.scopes[s].kind }

// Parent returns the scope enclosing s; the root scope has no parent.
func (env *Env) Parent(s Scope) (Scope, bool) {
	p := env.scopes[s].parent
	return p, p >= 0
}

// Enclosing returns the innermost scope of the given kind which encloses (or is) s.
func (env *Env) Enclosing(s Scope, kind ScopeKind) (Scope, bool) {
	for s >= 0 {
		if env.scopes[s].kind == kind {
			return s, true
		}
		s = env.scopes[s].parent
	}
	return -1, false
}

// EnclosingClass returns the innermost class enclosing s, or NoClass.
func (env *Env) EnclosingClass(s Scope) types.ClassID {
	if cs, ok := env.Enclosing(s, ClassScope); ok {
		return env.scopes[cs].class
	}
	return types.NoClass
}

// EnclosingClasses returns the classes enclosing s, innermost first.
func (env *Env) EnclosingClasses(s Scope) []types.ClassID {
	var cs []types.ClassID
	for s >= 0 {
		if sc := env.scopes[s]; sc.kind == ClassScope {
			cs = append(cs, sc.class)
		}
		s = env.scopes[s].parent
	}
	return cs
}

type classContext struct {
	class types.ClassID
	// no instance of the class is available: the code reaches it through a static method, a
	// static nested class or an interface
	static bool
}

// classContexts returns the classes enclosing s, innermost first.
func (env *Env) classContexts(s Scope) []classContext {
	var cs []classContext
	static := false
	for s >= 0 {
		sc := env.scopes[s]
		switch sc.kind {
		case MethodScope:
			if sc.method != types.NoMethod && env.table.Method(sc.method).Flags.Has(types.Static) {
				static = true
			}
		case ClassScope:
			cs = append(cs, classContext{class: sc.class, static: static})
			if cls := env.table.Class(sc.class); cls.Flags.Has(types.Static) || cls.IsInterface() {
				static = true
			}
		}
		s = sc.parent
	}
	return cs
}

// StaticContext reports whether the code within s has no instance of its innermost enclosing
// class: it is in the body of a static method.
func (env *Env) StaticContext(s Scope) bool {
	cs := env.classContexts(s)
	return len(cs) > 0 && cs[0].static
}

// EnclosingMethod returns the innermost method enclosing s, or NoMethod.
func (env *Env) EnclosingMethod(s Scope) types.MethodID {
	if ms, ok := env.Enclosing(s, MethodScope); ok {
		return env.scopes[ms].method
	}
	return types.NoMethod
}

// Package returns the package of the code within s.
func (env *Env) Package(s Scope) string { return env.scopes[s].pkg }

// Module returns the module of the code within s.
func (env *Env) Module(s Scope) string { return env.scopes[s].module }

// Len returns the number of scopes in the environment.
func (env *Env) Len() int { return len(env.scopes) }
