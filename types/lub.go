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

package types

import (
	"errors"
	"sort"
)

// lub recursion is cut off at this depth with an unbounded wildcard (JLS 4.10.4 allows any finite approximation)
const maxLubDepth = 2

// LUB returns the least upper bound of a set of types (JLS 4.10.4).
// Primitive types are boxed unless all types are the same primitive type.
func (c *Checker) LUB(ts ...Type) Type { return c.lub(0, ts) }

func (c *Checker) lub(depth int, ts []Type) Type {
	var refs []Type
	var prim *Prim
	allSamePrim := true
	for _, t := range ts {
		switch t := t.(type) {
		case *NullType:
			continue
		case *Prim:
			if prim == nil {
				prim = t
			} else if prim.Kind != t.Kind {
				allSamePrim = false
			}
			refs = append(refs, c.Box(t))
			continue
		}
		allSamePrim = false
		refs = append(refs, t)
	}
	switch {
	case prim != nil && allSamePrim:
		return prim
	case len(refs) == 0:
		return Null
	}
	refs = c.dedupe(refs)
	if len(refs) == 1 {
		return refs[0]
	}
	// a type which is a supertype of every other is the lub
	for _, cand := range refs {
		all := true
		for _, t := range refs {
			if !c.IsSubtype(t, cand, nil) {
				all = false
				break
			}
		}
		if all {
			return cand
		}
	}
	if elems, ok := c.arrayElems(refs); ok {
		return &ArrayType{Elem: c.lub(depth, elems)}
	}

	// erased candidate set: classes which are supertypes of every type
	var ec []ClassID
	for i, t := range refs {
		est := c.ErasedSupertypes(t)
		if i == 0 {
			ec = est
			continue
		}
		ec = intersectIds(ec, est)
	}
	// minimal erased candidates
	var mec []ClassID
	for _, a := range ec {
		minimal := true
		for _, b := range ec {
			if a != b && c.Table.IsSubclass(b, a) {
				minimal = false
				break
			}
		}
		if minimal {
			mec = append(mec, a)
		}
	}
	sort.SliceStable(mec, func(i, j int) bool {
		ii, ji := c.Table.Class(mec[i]).IsInterface(), c.Table.Class(mec[j]).IsInterface()
		if ii != ji {
			return !ii
		}
		return mec[i] < mec[j]
	})

	var cands []Type
	for _, g := range mec {
		if len(c.Table.Class(g).TypeParams) == 0 {
			cands = append(cands, &ClassType{Sym: g})
			continue
		}
		var params []*ClassType
		for _, t := range refs {
			if sup := c.AsSuper(t, g); sup != nil {
				params = append(params, sup)
			}
		}
		cands = append(cands, c.lci(depth, params))
	}
	switch len(cands) {
	case 0:
		return c.Table.ObjectType()
	case 1:
		return cands[0]
	}
	return &Intersection{Types: cands}
}

func (c *Checker) arrayElems(ts []Type) ([]Type, bool) {
	elems := make([]Type, len(ts))
	for i, t := range ts {
		at, ok := t.(*ArrayType)
		if !ok || !IsReference(at.Elem) {
			return nil, false
		}
		elems[i] = at.Elem
	}
	return elems, true
}

// least containing invocation of a set of parameterizations of one generic class
func (c *Checker) lci(depth int, ps []*ClassType) Type {
	if len(ps) == 0 {
		return nil
	}
	args := make([]Type, len(ps[0].Args))
	if len(args) == 0 {
		return &ClassType{Sym: ps[0].Sym}
	}
	for _, p := range ps[1:] {
		if len(p.Args) != len(args) {
			// a raw parameterization erases the result
			return &ClassType{Sym: ps[0].Sym}
		}
	}
	for i := range args {
		arg := ps[0].Args[i]
		for _, p := range ps[1:] {
			arg = c.lcta(depth, arg, p.Args[i])
		}
		args[i] = arg
	}
	return &ClassType{Sym: ps[0].Sym, Args: args}
}

// least containing type-argument
func (c *Checker) lcta(depth int, u, v Type) Type {
	uw, uIsWild := u.(*Wildcard)
	vw, vIsWild := v.(*Wildcard)
	switch {
	case !uIsWild && !vIsWild:
		if c.IsSameType(u, v, nil) {
			return u
		}
		if depth >= maxLubDepth {
			return &Wildcard{Kind: Unbounded}
		}
		return &Wildcard{Kind: Extends, Bound: c.lub(depth+1, []Type{u, v})}
	case uIsWild && vIsWild && uw.Kind == Super && vw.Kind == Super:
		g, err := c.GLB(uw.Bound, vw.Bound)
		if err != nil {
			return &Wildcard{Kind: Unbounded}
		}
		return &Wildcard{Kind: Super, Bound: g}
	}
	uu, vu := c.wildUpper(u), c.wildUpper(v)
	if uIsWild && uw.Kind == Super || vIsWild && vw.Kind == Super {
		ul, vl := c.wildLower(u), c.wildLower(v)
		if ul != nil && vl != nil && c.IsSameType(ul, vl, nil) {
			return &Wildcard{Kind: Super, Bound: ul}
		}
		return &Wildcard{Kind: Unbounded}
	}
	if depth >= maxLubDepth {
		return &Wildcard{Kind: Unbounded}
	}
	return c.normalWildcard(&Wildcard{Kind: Extends, Bound: c.lub(depth+1, []Type{uu, vu})})
}

// ErasedSupertypes returns the ids of every class which is a supertype of t (including t's own
// class), in ascending order.
func (c *Checker) ErasedSupertypes(t Type) []ClassID {
	var ids []ClassID
	var visit func(t Type)
	visit = func(t Type) {
		switch t := t.(type) {
		case *ClassType:
			for _, id := range ids {
				if id == t.Sym {
					return
				}
			}
			ids = append(ids, t.Sym)
			for _, st := range c.Supertypes(&ClassType{Sym: t.Sym}) {
				visit(st)
			}
			if t.Sym != c.Table.Predef.Object {
				visit(c.Table.ObjectType())
			}
		case *TypeVar:
			if c.seen[t] {
				return
			}
			c.seen[t] = true
			visit(c.UpperBound(t))
			delete(c.seen, t)
		case *Intersection:
			for _, ct := range t.Types {
				visit(ct)
			}
		case *ArrayType:
			p := c.Table.Predef
			visit(&ClassType{Sym: p.Object})
			visit(&ClassType{Sym: p.Cloneable})
			visit(&ClassType{Sym: p.Serializable})
		case *InferenceVar:
			visit(c.UpperBound(t.Origin))
		}
	}
	visit(t)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func intersectIds(a, b []ClassID) []ClassID {
	var out []ClassID
	for _, x := range a {
		for _, y := range b {
			if x == y {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

func (c *Checker) dedupe(ts []Type) []Type {
	out := ts[:0:0]
	for _, t := range ts {
		dup := false
		for _, u := range out {
			if c.IsSameType(t, u, nil) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

// ErrNoGLB is returned when a set of types has no greatest lower bound.
var ErrNoGLB = errors.New("Types have no greatest lower bound")

// GLB returns the greatest lower bound of a set of reference types (JLS 5.1.10): the types
// which are not supertypes of another type in the set, intersected. At most one of them may
// be a class or array type.
func (c *Checker) GLB(ts ...Type) (Type, error) {
	var flat []Type
	for _, t := range ts {
		if it, ok := t.(*Intersection); ok {
			flat = append(flat, it.Types...)
			continue
		}
		if t != nil {
			flat = append(flat, t)
		}
	}
	flat = c.dedupe(flat)
	var minimal []Type
	for i, t := range flat {
		redundant := false
		for j, u := range flat {
			if i != j && c.IsSubtype(u, t, nil) && !(c.IsSubtype(t, u, nil) && j > i) {
				redundant = true
				break
			}
		}
		if !redundant {
			minimal = append(minimal, t)
		}
	}
	switch len(minimal) {
	case 0:
		return c.Table.ObjectType(), nil
	case 1:
		return minimal[0], nil
	}
	var class Type
	rest := make([]Type, 0, len(minimal))
	for _, t := range minimal {
		if c.isClassLike(t) {
			if class != nil {
				return nil, ErrNoGLB
			}
			class = t
			continue
		}
		rest = append(rest, t)
	}
	if class != nil {
		rest = append([]Type{class}, rest...)
	}
	return &Intersection{Types: rest}, nil
}

// class or array types (not interfaces or type-variables)
func (c *Checker) isClassLike(t Type) bool {
	switch t := t.(type) {
	case *ClassType:
		return !c.Table.Class(t.Sym).IsInterface()
	case *ArrayType:
		return true
	}
	return false
}
