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
	"strings"
)

// ClassID indexes a class within a Table.
type ClassID int

// MethodID indexes a method within a Table.
type MethodID int

const (
	NoClass  ClassID  = -1
	NoMethod MethodID = -1
)

// Flags are modifiers of classes and methods.
type Flags uint32

const (
	Public Flags = 1 << iota
	Protected
	Private
	Static
	Abstract
	Final
	Interface
	Default
	Bridge
	Varargs
)

// Has reports whether all of the given flags are set.
func (f Flags) Has(flags Flags) bool { return f&flags == flags }

// Access returns the access modifier bits.
func (f Flags) Access() Flags { return f & (Public | Protected | Private) }

// Class or interface symbol
type Class struct {
	Id      ClassID
	Name    string
	Package string
	Module  string
	Flags   Flags
	// Outer is the lexically enclosing class, or NoClass.
	Outer      ClassID
	TypeParams []*TypeVar
	// Super is the direct superclass; nil for Object and for interfaces.
	Super      Type
	Interfaces []Type
	members    MemberIndex
}

// IsInterface reports whether the class is an interface.
func (c *Class) IsInterface() bool { return c.Flags.Has(Interface) }

// QualifiedName returns the package-qualified name of the class.
func (c *Class) QualifiedName() string {
	if c.Package == "" {
		return c.Name
	}
	return c.Package + "." + c.Name
}

// ConstructorName is the name of constructors. A constructor returns the self-type of its owner.
const ConstructorName = "<init>"

// Method symbol
type Method struct {
	Id         MethodID
	Name       string
	Owner      ClassID
	Flags      Flags
	TypeParams []*TypeVar
	// Params are the formal parameter types. The last parameter of a varargs method is an array type.
	Params []Type
	Return Type
	Throws []Type
}

// IsVarargs reports whether the method has a variable-arity last parameter.
func (m *Method) IsVarargs() bool { return m.Flags.Has(Varargs) }

// IsGeneric reports whether the method declares type-parameters.
func (m *Method) IsGeneric() bool { return len(m.TypeParams) > 0 }

// IsAbstract reports whether the method has no implementation.
func (m *Method) IsAbstract() bool { return m.Flags.Has(Abstract) }

func (m *Method) IsConstructor() bool { return m.Name == ConstructorName }

// Predef holds the classes every table declares.
type Predef struct {
	Object, String, Number, Throwable, Exception, RuntimeException ClassID
	Cloneable, Serializable, Comparable                             ClassID
	Boolean, Byte, Short, Character, Integer, Long, Float, Double   ClassID
}

// Table is an arena of class and method symbols. Symbols refer to each other by id.
//
// A table cannot be used concurrently.
type Table struct {
	classes []*Class
	methods []*Method
	byName  map[string]ClassID
	exports map[string]map[string]bool
	boxes   map[PrimKind]ClassID
	// Next unused type-variable id
	nextVarId int

	Predef Predef
}

// NewTable creates a table declaring the predefined classes of the `java.lang` package.
func NewTable() *Table {
	t := &Table{
		byName:  make(map[string]ClassID, 32),
		exports: make(map[string]map[string]bool),
		boxes:   make(map[PrimKind]ClassID, 8),
	}
	t.declarePredef()
	return t
}

func (t *Table) freshId() int {
	id := t.nextVarId
	t.nextVarId++
	return id
}

// NewTypeVar creates a declared type-parameter with an optional upper bound.
func (t *Table) NewTypeVar(name string, bound Type) *TypeVar {
	return &TypeVar{Id: t.freshId(), Name: name, Bound: bound}
}

// NewFreshVar creates a type-variable synthesized during inference.
func (t *Table) NewFreshVar(name string, bound Type) *TypeVar {
	return &TypeVar{Id: t.freshId(), Name: name, Bound: bound, Fresh: true}
}

// NewCapturedVar creates the type-variable resulting from the capture of a wildcard.
func (t *Table) NewCapturedVar(w *Wildcard, bound, lower Type) *TypeVar {
	return &TypeVar{Id: t.freshId(), Name: "capture", Bound: bound, Lower: lower, Wildcard: w}
}

// NewInferenceVar creates an inference-variable standing for origin.
func (t *Table) NewInferenceVar(origin *TypeVar) *InferenceVar {
	return &InferenceVar{Id: t.freshId(), Origin: origin}
}

// DeclareClass adds a class to the table. The qualified name must be unique.
func (t *Table) DeclareClass(pkg, name string, flags Flags) *Class {
	c := &Class{Id: ClassID(len(t.classes)), Name: name, Package: pkg, Flags: flags, Outer: NoClass}
	t.classes = append(t.classes, c)
	t.byName[c.QualifiedName()] = c.Id
	if _, exists := t.byName[name]; !exists {
		t.byName[name] = c.Id
	}
	return c
}

// DeclareMethod adds a method to its owner class. The owner must already be declared.
func (t *Table) DeclareMethod(m Method) MethodID {
	m.Id = MethodID(len(t.methods))
	mp := &m
	t.methods = append(t.methods, mp)
	owner := t.classes[m.Owner]
	owner.members = owner.members.Add(m.Name, m.Id)
	return m.Id
}

// Class returns the class with the given id.
func (t *Table) Class(id ClassID) *Class { return t.classes[id] }

// Method returns the method with the given id.
func (t *Table) Method(id MethodID) *Method { return t.methods[id] }

// NumClasses returns the number of declared classes.
func (t *Table) NumClasses() int { return len(t.classes) }

// Lookup finds a class by qualified or simple name.
func (t *Table) Lookup(name string) (ClassID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Members returns the methods named name declared directly in class c, in declaration order.
func (t *Table) Members(c ClassID, name string) []MethodID {
	return t.classes[c].members.Get(name)
}

// MemberNames returns the sorted names of the methods declared directly in class c.
func (t *Table) MemberNames(c ClassID) []string {
	return t.classes[c].members.Names()
}

// Export makes a package of a module accessible to other modules.
func (t *Table) Export(module, pkg string) {
	pkgs := t.exports[module]
	if pkgs == nil {
		pkgs = make(map[string]bool)
		t.exports[module] = pkgs
	}
	pkgs[pkg] = true
}

// IsExported reports whether a package of a module is accessible to other modules.
// Classes outside of any named module are always exported.
func (t *Table) IsExported(module, pkg string) bool {
	if module == "" {
		return true
	}
	return t.exports[module][pkg]
}

// Type creates a class type for the class with the given id.
func (t *Table) Type(id ClassID, args ...Type) *ClassType {
	return &ClassType{Sym: id, Args: args}
}

// ThisType returns the generic self-type of a class: `List<E>` for `List`.
func (t *Table) ThisType(id ClassID) *ClassType {
	c := t.classes[id]
	if len(c.TypeParams) == 0 {
		return &ClassType{Sym: id}
	}
	args := make([]Type, len(c.TypeParams))
	for i, tp := range c.TypeParams {
		args[i] = tp
	}
	return &ClassType{Sym: id, Args: args}
}

// ObjectType returns the type of the root class.
func (t *Table) ObjectType() *ClassType { return &ClassType{Sym: t.Predef.Object} }

// IsRaw reports whether a class type omits the type-arguments of a generic class.
func (t *Table) IsRaw(ct *ClassType) bool {
	return len(ct.Args) == 0 && len(t.classes[ct.Sym].TypeParams) > 0
}

// BoxClass returns the wrapper class of a primitive kind.
func (t *Table) BoxClass(k PrimKind) (ClassID, bool) {
	id, ok := t.boxes[k]
	return id, ok
}

// UnboxKind returns the primitive kind wrapped by a class.
func (t *Table) UnboxKind(id ClassID) (PrimKind, bool) {
	for k, c := range t.boxes {
		if c == id {
			return k, true
		}
	}
	return 0, false
}

// IsSubclass reports whether class sub is super or inherits from it, ignoring type-arguments.
func (t *Table) IsSubclass(sub, super ClassID) bool {
	if sub == super {
		return true
	}
	c := t.classes[sub]
	if ct, ok := c.Super.(*ClassType); ok && t.IsSubclass(ct.Sym, super) {
		return true
	}
	for _, it := range c.Interfaces {
		if ct, ok := it.(*ClassType); ok && t.IsSubclass(ct.Sym, super) {
			return true
		}
	}
	return super == t.Predef.Object
}

// Outermost returns the top-level class enclosing c.
func (t *Table) Outermost(c ClassID) ClassID {
	for t.classes[c].Outer != NoClass {
		c = t.classes[c].Outer
	}
	return c
}

// MethodString returns a readable signature: `List.add(E)`, or `ArrayList(int)` for a constructor.
func (t *Table) MethodString(id MethodID) string {
	m := t.methods[id]
	var sb strings.Builder
	if !m.IsConstructor() {
		sb.WriteString(t.classes[m.Owner].Name)
		sb.WriteByte('.')
	}
	if len(m.TypeParams) > 0 {
		sb.WriteByte('<')
		for i, tp := range m.TypeParams {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(tp.Name)
		}
		sb.WriteString(">")
	}
	if m.IsConstructor() {
		sb.WriteString(t.classes[m.Owner].Name)
	} else {
		sb.WriteString(m.Name)
	}
	sb.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if i == len(m.Params)-1 && m.IsVarargs() {
			if at, ok := p.(*ArrayType); ok {
				sb.WriteString(TypeString(t, at.Elem))
				sb.WriteString("...")
				continue
			}
		}
		sb.WriteString(TypeString(t, p))
	}
	sb.WriteByte(')')
	return sb.String()
}

func (t *Table) declarePredef() {
	p := &t.Predef
	decl := func(name string, flags Flags) *Class {
		c := t.DeclareClass("java.lang", name, Public|flags)
		c.Module = "java.base"
		return c
	}
	object := decl("Object", 0)
	p.Object = object.Id
	obj := t.ObjectType()

	cloneable := decl("Cloneable", Interface|Abstract)
	p.Cloneable = cloneable.Id
	serializable := t.DeclareClass("java.io", "Serializable", Public|Interface|Abstract)
	serializable.Module = "java.base"
	p.Serializable = serializable.Id

	comparable := decl("Comparable", Interface|Abstract)
	p.Comparable = comparable.Id
	cT := t.NewTypeVar("T", nil)
	comparable.TypeParams = []*TypeVar{cT}
	t.DeclareMethod(Method{Name: "compareTo", Owner: comparable.Id, Flags: Public | Abstract, Params: []Type{cT}, Return: IntType})

	ser := t.Type(serializable.Id)
	comparableOf := func(id ClassID) Type { return t.Type(comparable.Id, t.Type(id)) }

	str := decl("String", Final)
	str.Super, str.Interfaces = obj, []Type{ser, comparableOf(str.Id)}
	p.String = str.Id

	number := decl("Number", Abstract)
	number.Super, number.Interfaces = obj, []Type{ser}
	p.Number = number.Id

	box := func(name string, k PrimKind, super Type) ClassID {
		c := decl(name, Final)
		c.Super, c.Interfaces = super, []Type{ser, comparableOf(c.Id)}
		t.boxes[k] = c.Id
		return c.Id
	}
	num := t.Type(number.Id)
	p.Boolean = box("Boolean", Boolean, obj)
	p.Character = box("Character", Char, obj)
	p.Byte = box("Byte", Byte, num)
	p.Short = box("Short", Short, num)
	p.Integer = box("Integer", Int, num)
	p.Long = box("Long", Long, num)
	p.Float = box("Float", Float, num)
	p.Double = box("Double", Double, num)

	throwable := decl("Throwable", 0)
	throwable.Super, throwable.Interfaces = obj, []Type{ser}
	p.Throwable = throwable.Id
	exception := decl("Exception", 0)
	exception.Super = t.Type(throwable.Id)
	p.Exception = exception.Id
	runtime := decl("RuntimeException", 0)
	runtime.Super = t.Type(exception.Id)
	p.RuntimeException = runtime.Id

	t.Export("java.base", "java.lang")
	t.Export("java.base", "java.io")
}
