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
	"strconv"
	"strings"
	"sync"
)

var printerPool = sync.Pool{
	New: func() interface{} {
		return &typePrinter{
			idNames:  make(map[int]string, 16),
			nameUses: make(map[string]int, 16),
		}
	},
}

func newTypePrinter(table *Table) *typePrinter {
	p := printerPool.Get().(*typePrinter)
	p.table = table
	return p
}

func (p *typePrinter) Release() {
	for k := range p.idNames {
		delete(p.idNames, k)
	}
	for k := range p.nameUses {
		delete(p.nameUses, k)
	}
	p.captures, p.table = 0, nil
	p.sb.Reset()
	printerPool.Put(p)
}

// TypeString returns a string representation of a Type. Class names are resolved through
// table; a nil table prints class ids.
func TypeString(table *Table, t Type) string {
	p := newTypePrinter(table)
	p.typeString(t)
	s := p.sb.String()
	p.Release()
	return s
}

// TypeListString returns the comma-separated representations of ts, sharing variable names.
func TypeListString(table *Table, ts []Type) string {
	p := newTypePrinter(table)
	for i, t := range ts {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.typeString(t)
	}
	s := p.sb.String()
	p.Release()
	return s
}

type typePrinter struct {
	table    *Table
	idNames  map[int]string
	nameUses map[string]int
	captures int
	sb       strings.Builder
}

// distinct variables sharing a name are numbered in order of appearance
func (p *typePrinter) varName(id int, base string) string {
	if name, ok := p.idNames[id]; ok {
		return name
	}
	n := p.nameUses[base]
	p.nameUses[base] = n + 1
	name := base
	if n > 0 {
		name += strconv.Itoa(n + 1)
	}
	p.idNames[id] = name
	return name
}

func (p *typePrinter) className(id ClassID) string {
	if p.table == nil {
		return "class#" + strconv.Itoa(int(id))
	}
	return p.table.Class(id).Name
}

func (p *typePrinter) typeString(t Type) {
	switch t := t.(type) {
	case nil:
		p.sb.WriteString("<none>")

	case *Prim:
		p.sb.WriteString(t.Kind.String())

	case *NullType:
		p.sb.WriteString("null")

	case *ClassType:
		p.sb.WriteString(p.className(t.Sym))
		if len(t.Args) == 0 {
			return
		}
		p.sb.WriteByte('<')
		for i, arg := range t.Args {
			if i > 0 {
				p.sb.WriteByte(',')
			}
			p.typeString(arg)
		}
		p.sb.WriteByte('>')

	case *ArrayType:
		p.typeString(t.Elem)
		p.sb.WriteString("[]")

	case *TypeVar:
		if t.Wildcard == nil {
			p.sb.WriteString(p.varName(t.Id, t.Name))
			return
		}
		if name, ok := p.idNames[t.Id]; ok {
			p.sb.WriteString(name)
			return
		}
		p.captures++
		name := "capture#" + strconv.Itoa(p.captures)
		p.idNames[t.Id] = name
		p.sb.WriteString(name)
		p.sb.WriteString(" of ")
		p.typeString(t.Wildcard)

	case *Wildcard:
		p.sb.WriteByte('?')
		switch t.Kind {
		case Extends:
			p.sb.WriteString(" extends ")
			p.typeString(t.Bound)
		case Super:
			p.sb.WriteString(" super ")
			p.typeString(t.Bound)
		}

	case *Intersection:
		for i, c := range t.Types {
			if i > 0 {
				p.sb.WriteByte('&')
			}
			p.typeString(c)
		}

	case *InferenceVar:
		p.sb.WriteByte('\'')
		name := "?"
		if t.Origin != nil {
			name = t.Origin.Name
		}
		p.sb.WriteString(p.varName(t.Id, name))

	default:
		panic("unexpected type " + t.TypeName())
	}
}
