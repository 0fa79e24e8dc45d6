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

// isAccessible reports whether m, a member of site, may be referenced from a scope (JLS 6.6).
// The reason explains a denial.
func (r *Resolver) isAccessible(s Scope, site types.Type, m types.MethodID) (string, bool) {
	meth := r.Table.Method(m)
	owner := r.Table.Class(meth.Owner)
	if reason, ok := r.isClassAccessible(s, meth.Owner); !ok {
		return reason, false
	}
	switch meth.Flags.Access() {
	case types.Public:
		return "", true
	case types.Private:
		if c := r.Env.EnclosingClass(s); c != types.NoClass && r.Table.Outermost(c) == r.Table.Outermost(meth.Owner) {
			return "", true
		}
		return "private access in " + owner.QualifiedName(), false
	case types.Protected:
		if r.Env.Package(s) == owner.Package {
			return "", true
		}
		if meth.Flags.Has(types.Static) {
			for _, c := range r.Env.EnclosingClasses(s) {
				if r.Table.IsSubclass(c, meth.Owner) {
					return "", true
				}
			}
		} else {
			// the qualifying type must be the accessing subclass or one of its subclasses
			siteClass := r.siteClass(site)
			for _, c := range r.Env.EnclosingClasses(s) {
				if r.Table.IsSubclass(c, meth.Owner) && r.Table.IsSubclass(siteClass, c) {
					return "", true
				}
			}
		}
		return "protected access in " + owner.QualifiedName(), false
	}
	if r.Env.Package(s) == owner.Package {
		return "", true
	}
	return "not public in " + owner.QualifiedName() + "; cannot be accessed from outside package", false
}

// isClassAccessible reports whether class c may be referenced from a scope. Classes of another
// module must belong to an exported package.
func (r *Resolver) isClassAccessible(s Scope, c types.ClassID) (string, bool) {
	cls := r.Table.Class(c)
	if cls.Module != r.Env.Module(s) && !r.Table.IsExported(cls.Module, cls.Package) {
		return "package " + cls.Package + " is not exported by module " + cls.Module, false
	}
	switch cls.Flags.Access() {
	case types.Public:
		return "", true
	case types.Private:
		if e := r.Env.EnclosingClass(s); e != types.NoClass && r.Table.Outermost(e) == r.Table.Outermost(c) {
			return "", true
		}
		return cls.QualifiedName() + " has private access", false
	}
	if r.Env.Package(s) == cls.Package {
		return "", true
	}
	return cls.QualifiedName() + " is not public in " + cls.Package + "; cannot be accessed from outside package", false
}

// isTypeAccessible reports whether an erased type may be named from a scope.
func (r *Resolver) isTypeAccessible(s Scope, t types.Type) bool {
	switch t := t.(type) {
	case *types.ArrayType:
		return r.isTypeAccessible(s, t.Elem)
	case *types.ClassType:
		_, ok := r.isClassAccessible(s, t.Sym)
		return ok
	}
	return true
}
