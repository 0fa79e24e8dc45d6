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

// Checker answers structural questions about types declared in a Table.
//
// When a query meets an inference-variable and a Recorder is given, the query succeeds after
// recording the bound it implies; otherwise inference-variables only match themselves.
//
// A checker cannot be used concurrently.
type Checker struct {
	Table *Table
	// type-variables whose bounds are being explored (guards against cyclic bounds)
	seen map[*TypeVar]bool
}

func NewChecker(t *Table) *Checker {
	return &Checker{Table: t, seen: make(map[*TypeVar]bool, 8)}
}

// UpperBound returns the upper bound of a type-variable, defaulting to Object.
func (c *Checker) UpperBound(tv *TypeVar) Type {
	if tv.Bound == nil {
		return c.Table.ObjectType()
	}
	return tv.Bound
}

// IsSameType reports whether s and t are the same type.
func (c *Checker) IsSameType(s, t Type, r Recorder) bool {
	if s == t {
		return true
	}
	if sv, ok := s.(*InferenceVar); ok && r != nil && r.Record(sv, EQ, t) {
		return true
	}
	if tv, ok := t.(*InferenceVar); ok && r != nil && r.Record(tv, EQ, s) {
		return true
	}
	switch s := s.(type) {
	case *Prim:
		t, ok := t.(*Prim)
		return ok && s.Kind == t.Kind
	case *NullType:
		_, ok := t.(*NullType)
		return ok
	case *ClassType:
		t, ok := t.(*ClassType)
		if !ok || s.Sym != t.Sym || len(s.Args) != len(t.Args) {
			return false
		}
		for i := range s.Args {
			if !c.isSameTypeArg(s.Args[i], t.Args[i], r) {
				return false
			}
		}
		return true
	case *ArrayType:
		t, ok := t.(*ArrayType)
		return ok && c.IsSameType(s.Elem, t.Elem, r)
	case *Intersection:
		t, ok := t.(*Intersection)
		if !ok || len(s.Types) != len(t.Types) {
			return false
		}
		for _, sc := range s.Types {
			found := false
			for _, tc := range t.Types {
				if c.IsSameType(sc, tc, r) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case *Wildcard:
		return c.isSameTypeArg(s, t, r)
	}
	return false
}

func (c *Checker) isSameTypeArg(s, t Type, r Recorder) bool {
	sw, sIsWild := s.(*Wildcard)
	tw, tIsWild := t.(*Wildcard)
	if !sIsWild && !tIsWild {
		return c.IsSameType(s, t, r)
	}
	if !sIsWild || !tIsWild {
		return false
	}
	sk, tk := c.normalWildcard(sw), c.normalWildcard(tw)
	if sk.Kind != tk.Kind {
		return false
	}
	if sk.Kind == Unbounded {
		return true
	}
	return c.IsSameType(sk.Bound, tk.Bound, r)
}

// `? extends Object` is the same wildcard as `?`
func (c *Checker) normalWildcard(w *Wildcard) *Wildcard {
	if w.Kind == Extends {
		if ct, ok := w.Bound.(*ClassType); ok && ct.Sym == c.Table.Predef.Object {
			return &Wildcard{Kind: Unbounded}
		}
	}
	return w
}

// IsSubtype reports whether s is a subtype of t (JLS 4.10). s is capture-converted first.
func (c *Checker) IsSubtype(s, t Type, r Recorder) bool {
	return c.isSubtype(c.Capture(s), t, r)
}

// IsSubtypeNoCapture reports whether s is a subtype of t without capture-converting s.
func (c *Checker) IsSubtypeNoCapture(s, t Type, r Recorder) bool {
	return c.isSubtype(s, t, r)
}

func (c *Checker) isSubtype(s, t Type, r Recorder) bool {
	if s == t {
		return true
	}
	if sv, ok := s.(*InferenceVar); ok {
		if tv, ok := t.(*InferenceVar); ok && sv == tv {
			return true
		}
		return r != nil && r.Record(sv, UPPER, t)
	}
	if tv, ok := t.(*InferenceVar); ok {
		return r != nil && r.Record(tv, LOWER, s)
	}
	switch tt := t.(type) {
	case *Intersection:
		for _, tc := range tt.Types {
			if !c.isSubtype(s, tc, r) {
				return false
			}
		}
		return true
	case *TypeVar:
		if tt.Lower != nil && s != Type(Null) && !c.seen[tt] {
			c.seen[tt] = true
			ok := c.isSubtype(s, tt.Lower, r)
			delete(c.seen, tt)
			if ok {
				return true
			}
		}
	}

	switch s := s.(type) {
	case *Prim:
		t, ok := t.(*Prim)
		return ok && s.Kind != Void && t.Kind != Void && (s.Kind == t.Kind || s.Kind != Boolean && t.Kind != Boolean && primSubtype(s.Kind, t.Kind))

	case *NullType:
		return IsReference(t)

	case *TypeVar:
		if tv, ok := t.(*TypeVar); ok && tv == s {
			return true
		}
		if c.seen[s] {
			return false
		}
		c.seen[s] = true
		ok := c.isSubtype(c.UpperBound(s), t, r)
		delete(c.seen, s)
		return ok

	case *Intersection:
		for _, sc := range s.Types {
			if c.isSubtype(sc, t, r) {
				return true
			}
		}
		return false

	case *ArrayType:
		switch t := t.(type) {
		case *ArrayType:
			se, sIsPrim := s.Elem.(*Prim)
			te, tIsPrim := t.Elem.(*Prim)
			if sIsPrim || tIsPrim {
				return sIsPrim && tIsPrim && se.Kind == te.Kind
			}
			return c.isSubtype(s.Elem, t.Elem, r)
		case *ClassType:
			p := c.Table.Predef
			return len(t.Args) == 0 && (t.Sym == p.Object || t.Sym == p.Cloneable || t.Sym == p.Serializable)
		}
		return false

	case *ClassType:
		t, ok := t.(*ClassType)
		if !ok {
			return false
		}
		sup := c.AsSuper(s, t.Sym)
		if sup == nil {
			return false
		}
		if len(t.Args) == 0 {
			return true
		}
		if len(sup.Args) != len(t.Args) {
			// raw supertype: only an unchecked conversion applies
			return false
		}
		for i := range t.Args {
			if !c.containsType(t.Args[i], sup.Args[i], r) {
				return false
			}
		}
		return true
	}
	return false
}

// containsType reports whether type-argument t contains type-argument s (JLS 4.5.1).
func (c *Checker) containsType(t, s Type, r Recorder) bool {
	tw, ok := t.(*Wildcard)
	if !ok {
		if _, sIsWild := s.(*Wildcard); sIsWild {
			return false
		}
		return c.IsSameType(s, t, r)
	}
	switch c.normalWildcard(tw).Kind {
	case Unbounded:
		return true
	case Extends:
		return c.isSubtype(c.wildUpper(s), tw.Bound, r)
	default:
		lower := c.wildLower(s)
		return lower != nil && c.isSubtype(tw.Bound, lower, r)
	}
}

func (c *Checker) wildUpper(t Type) Type {
	if w, ok := t.(*Wildcard); ok {
		if w.Kind == Extends {
			return w.Bound
		}
		return c.Table.ObjectType()
	}
	return t
}

// returns nil when t has no lower bound
func (c *Checker) wildLower(t Type) Type {
	if w, ok := t.(*Wildcard); ok {
		if w.Kind == Super {
			return w.Bound
		}
		return nil
	}
	return t
}

// IsSubtypeUnchecked is IsSubtype extended with unchecked conversion from raw types.
// The second result reports whether an unchecked conversion was needed.
func (c *Checker) IsSubtypeUnchecked(s, t Type, r Recorder) (ok, unchecked bool) {
	if c.IsSubtype(s, t, r) {
		return true, false
	}
	if sa, ok := s.(*ArrayType); ok {
		if ta, ok := t.(*ArrayType); ok && IsReference(sa.Elem) && IsReference(ta.Elem) {
			return c.IsSubtypeUnchecked(sa.Elem, ta.Elem, r)
		}
		return false, false
	}
	tc, ok := t.(*ClassType)
	if !ok || len(tc.Args) == 0 {
		return false, false
	}
	sup := c.AsSuper(c.Capture(s), tc.Sym)
	if sup != nil && c.Table.IsRaw(sup) {
		return true, true
	}
	return false, false
}

// IsConvertible reports whether s converts to t in a loose invocation context: widening,
// boxing followed by widening reference, or unboxing followed by widening primitive.
func (c *Checker) IsConvertible(s, t Type, r Recorder) bool {
	sp, sIsPrim := s.(*Prim)
	tp, tIsPrim := t.(*Prim)
	switch {
	case sIsPrim && tIsPrim:
		return c.isSubtype(sp, tp, nil)
	case sIsPrim:
		if sp.Kind == Void {
			return false
		}
		boxed := c.Box(sp)
		ok, _ := c.IsSubtypeUnchecked(boxed, t, r)
		return ok
	case tIsPrim:
		if unboxed := c.Unbox(s); unboxed != nil {
			return c.isSubtype(unboxed, tp, nil)
		}
		if sv, ok := s.(*InferenceVar); ok && r != nil && tp.Kind != Void {
			return r.Record(sv, UPPER, c.Box(tp))
		}
		return false
	}
	ok, _ := c.IsSubtypeUnchecked(s, t, r)
	return ok
}

// Box returns the wrapper class type of a primitive type.
func (c *Checker) Box(p *Prim) *ClassType {
	id, ok := c.Table.BoxClass(p.Kind)
	if !ok {
		panic("no wrapper class for " + p.Kind.String())
	}
	return &ClassType{Sym: id}
}

// Unbox returns the primitive type wrapped by t, or nil.
func (c *Checker) Unbox(t Type) *Prim {
	switch t := t.(type) {
	case *ClassType:
		if k, ok := c.Table.UnboxKind(t.Sym); ok {
			return PrimType(k)
		}
	case *TypeVar:
		if c.seen[t] {
			return nil
		}
		c.seen[t] = true
		p := c.Unbox(c.UpperBound(t))
		delete(c.seen, t)
		return p
	}
	return nil
}

// AsSuper returns the supertype of t whose class is sym, or nil if there is none.
func (c *Checker) AsSuper(t Type, sym ClassID) *ClassType {
	switch t := t.(type) {
	case *ClassType:
		if t.Sym == sym {
			return t
		}
		for _, st := range c.Supertypes(t) {
			if sup := c.AsSuper(st, sym); sup != nil {
				return sup
			}
		}
	case *TypeVar:
		if c.seen[t] {
			return nil
		}
		c.seen[t] = true
		sup := c.AsSuper(c.UpperBound(t), sym)
		delete(c.seen, t)
		return sup
	case *Intersection:
		for _, ct := range t.Types {
			if sup := c.AsSuper(ct, sym); sup != nil {
				return sup
			}
		}
	case *ArrayType:
		p := c.Table.Predef
		if sym == p.Object || sym == p.Cloneable || sym == p.Serializable {
			return &ClassType{Sym: sym}
		}
	}
	return nil
}

// Supertypes returns the direct supertypes of a class type, superclass first. The declared
// supertypes are instantiated with t's type-arguments; supertypes of a raw type are erased.
func (c *Checker) Supertypes(t *ClassType) []Type {
	cls := c.Table.Class(t.Sym)
	var sts []Type
	if cls.Super != nil {
		sts = append(sts, cls.Super)
	} else if cls.IsInterface() && len(cls.Interfaces) == 0 {
		sts = append(sts, c.Table.ObjectType())
	}
	sts = append(sts, cls.Interfaces...)
	switch {
	case len(cls.TypeParams) == 0:
		return sts
	case len(t.Args) == 0:
		for i, st := range sts {
			sts[i] = c.Erasure(st)
		}
		return sts
	}
	return SubstList(sts, cls.TypeParams, t.Args)
}

// Erasure returns the erasure of t (JLS 4.6).
func (c *Checker) Erasure(t Type) Type {
	switch t := t.(type) {
	case *ClassType:
		if len(t.Args) == 0 {
			return t
		}
		return &ClassType{Sym: t.Sym}
	case *ArrayType:
		return &ArrayType{Elem: c.Erasure(t.Elem)}
	case *TypeVar:
		if c.seen[t] {
			return c.Table.ObjectType()
		}
		c.seen[t] = true
		e := c.Erasure(c.UpperBound(t))
		delete(c.seen, t)
		return e
	case *Intersection:
		return c.Erasure(t.Types[0])
	case *Wildcard:
		return c.Erasure(c.wildUpper(t))
	case *InferenceVar:
		return c.Erasure(c.UpperBound(t.Origin))
	}
	return t
}

// Capture applies capture conversion (JLS 5.1.10) to a class type with wildcard arguments.
// Other types are returned unchanged.
func (c *Checker) Capture(t Type) Type {
	ct, ok := t.(*ClassType)
	if !ok || !HasWildcards(ct) {
		return t
	}
	cls := c.Table.Class(ct.Sym)
	if len(cls.TypeParams) != len(ct.Args) {
		return t
	}
	args := make([]Type, len(ct.Args))
	var captured []*TypeVar
	for i, arg := range ct.Args {
		if w, ok := arg.(*Wildcard); ok {
			tv := c.Table.NewCapturedVar(w, nil, nil)
			captured = append(captured, tv)
			args[i] = tv
		} else {
			args[i] = arg
		}
	}
	for i, arg := range args {
		tv, ok := arg.(*TypeVar)
		if !ok || tv.Wildcard == nil || ct.Args[i] != Type(tv.Wildcard) {
			continue
		}
		declared := Subst(c.UpperBound(cls.TypeParams[i]), cls.TypeParams, args)
		switch tv.Wildcard.Kind {
		case Unbounded:
			tv.Bound = declared
		case Extends:
			tv.Bound = c.glbOrFirst(tv.Wildcard.Bound, declared)
		case Super:
			tv.Bound, tv.Lower = declared, tv.Wildcard.Bound
		}
	}
	return &ClassType{Sym: ct.Sym, Args: args}
}

func (c *Checker) glbOrFirst(a, b Type) Type {
	if g, err := c.GLB(a, b); err == nil {
		return g
	}
	return a
}

// SameSignature reports whether two methods have override-equivalent parameter types when
// viewed as members of site.
func (c *Checker) SameSignature(m1, m2 MethodID, site Type) bool {
	a, b := c.Table.Method(m1), c.Table.Method(m2)
	if a.Name != b.Name || len(a.Params) != len(b.Params) || len(a.TypeParams) != len(b.TypeParams) {
		return false
	}
	pa, pb := c.MemberParams(site, m1), c.MemberParams(site, m2)
	if len(b.TypeParams) > 0 {
		to := make([]Type, len(a.TypeParams))
		for i, tp := range a.TypeParams {
			to[i] = tp
		}
		pb = SubstList(pb, b.TypeParams, to)
	}
	for i := range pa {
		if !c.IsSameType(pa[i], pb[i], nil) && !c.IsSameType(c.Erasure(pa[i]), c.Erasure(pb[i]), nil) {
			return false
		}
	}
	return true
}

// Overrides reports whether m1 overrides m2 (JLS 8.4.8.1) when both are viewed from m1's owner.
func (c *Checker) Overrides(m1, m2 MethodID) bool {
	a, b := c.Table.Method(m1), c.Table.Method(m2)
	if m1 == m2 || a.Owner == b.Owner || !c.Table.IsSubclass(a.Owner, b.Owner) {
		return false
	}
	if a.Flags.Has(Static) || b.Flags.Has(Static) || b.Flags.Has(Private) {
		return false
	}
	return c.SameSignature(m1, m2, c.Table.ThisType(a.Owner))
}

// MemberParams returns the parameter types of m as a member of site.
func (c *Checker) MemberParams(site Type, m MethodID) []Type {
	meth := c.Table.Method(m)
	from, to := c.ownerSubst(site, meth.Owner)
	return SubstList(meth.Params, from, to)
}

// MemberReturn returns the return type of m as a member of site.
func (c *Checker) MemberReturn(site Type, m MethodID) Type {
	meth := c.Table.Method(m)
	from, to := c.ownerSubst(site, meth.Owner)
	if len(from) == 0 {
		return meth.Return
	}
	return Subst(meth.Return, from, to)
}

// MemberThrows returns the thrown types of m as a member of site.
func (c *Checker) MemberThrows(site Type, m MethodID) []Type {
	meth := c.Table.Method(m)
	from, to := c.ownerSubst(site, meth.Owner)
	return SubstList(meth.Throws, from, to)
}

func (c *Checker) ownerSubst(site Type, owner ClassID) ([]*TypeVar, []Type) {
	cls := c.Table.Class(owner)
	if len(cls.TypeParams) == 0 || site == nil {
		return nil, nil
	}
	sup := c.AsSuper(site, owner)
	if sup == nil || len(sup.Args) != len(cls.TypeParams) {
		// raw or unrelated site: members are erased
		to := make([]Type, len(cls.TypeParams))
		for i, tp := range cls.TypeParams {
			to[i] = c.Erasure(tp)
		}
		return cls.TypeParams, to
	}
	return cls.TypeParams, sup.Args
}
