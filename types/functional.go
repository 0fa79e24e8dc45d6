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

// Descriptor is the function type of a functional interface: the signature of its single
// abstract method, instantiated for a particular parameterization.
type Descriptor struct {
	Method MethodID
	Params []Type
	Return Type
	Throws []Type
}

// FindDescriptor returns the descriptor of a functional interface type. Wildcard-parameterized
// types must be instantiated before their descriptor is derived.
func (c *Checker) FindDescriptor(t Type) (*Descriptor, bool) {
	ct, ok := t.(*ClassType)
	if !ok || !c.Table.Class(ct.Sym).IsInterface() {
		return nil, false
	}
	m, ok := c.abstractMethod(ct.Sym)
	if !ok {
		return nil, false
	}
	return &Descriptor{
		Method: m,
		Params: c.MemberParams(ct, m),
		Return: c.MemberReturn(ct, m),
		Throws: c.MemberThrows(ct, m),
	}, true
}

// IsFunctionalInterface reports whether a class is an interface with exactly one abstract
// method, not counting the public methods of Object.
func (c *Checker) IsFunctionalInterface(id ClassID) bool {
	if !c.Table.Class(id).IsInterface() {
		return false
	}
	_, ok := c.abstractMethod(id)
	return ok
}

func (c *Checker) abstractMethod(id ClassID) (MethodID, bool) {
	var abstract []MethodID
	seen := make(map[ClassID]bool, 4)
	self := c.Table.ThisType(id)
	var visit func(cls ClassID)
	visit = func(cls ClassID) {
		if seen[cls] {
			return
		}
		seen[cls] = true
		class := c.Table.Class(cls)
		for _, name := range class.members.Names() {
			for _, m := range class.members.Get(name) {
				meth := c.Table.Method(m)
				if !meth.IsAbstract() || meth.Flags.Has(Static) || c.isObjectMethod(meth) {
					continue
				}
				dup := false
				for _, other := range abstract {
					if c.SameSignature(other, m, self) {
						dup = true
						break
					}
				}
				if !dup {
					abstract = append(abstract, m)
				}
			}
		}
		for _, it := range class.Interfaces {
			if ict, ok := it.(*ClassType); ok {
				visit(ict.Sym)
			}
		}
	}
	visit(id)
	if len(abstract) != 1 {
		return NoMethod, false
	}
	return abstract[0], true
}

// equals, hashCode and toString never count towards the abstract methods of an interface
func (c *Checker) isObjectMethod(m *Method) bool {
	switch m.Name {
	case "equals":
		if len(m.Params) == 1 {
			ct, ok := m.Params[0].(*ClassType)
			return ok && ct.Sym == c.Table.Predef.Object
		}
	case "hashCode", "toString":
		return len(m.Params) == 0
	}
	return false
}
