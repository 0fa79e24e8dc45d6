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

package ast

import (
	"strings"

	"github.com/wdamron/resolve/types"
)

// ExprString returns a string representation of an expression. Types are printed through table.
func ExprString(table *types.Table, e Expr) string {
	var sb strings.Builder
	exprString(&sb, table, false, e)
	return sb.String()
}

func exprString(sb *strings.Builder, table *types.Table, simple bool, e Expr) {
	switch e := e.(type) {
	case *Typed:
		if e.Syntax != "" {
			sb.WriteString(e.Syntax)
			return
		}
		sb.WriteByte('(')
		sb.WriteString(types.TypeString(table, e.T))
		sb.WriteByte(')')

	case *Call:
		if e.Receiver != nil {
			sb.WriteString(types.TypeString(table, e.Receiver))
			sb.WriteByte('.')
		}
		if len(e.TypeArgs) > 0 {
			sb.WriteByte('<')
			sb.WriteString(types.TypeListString(table, e.TypeArgs))
			sb.WriteByte('>')
		}
		sb.WriteString(e.Name)
		sb.WriteByte('(')
		for i, arg := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			exprString(sb, table, false, arg)
		}
		sb.WriteByte(')')

	case *Lambda:
		if simple {
			sb.WriteByte('(')
		}
		sb.WriteByte('(')
		for i, p := range e.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			if p.Type != nil {
				sb.WriteString(types.TypeString(table, p.Type))
				sb.WriteByte(' ')
			}
			sb.WriteString(p.Name)
		}
		sb.WriteString(") -> ")
		if e.Body != nil {
			exprString(sb, table, true, e.Body)
		} else {
			sb.WriteString("{ ")
			for _, r := range e.Returns {
				sb.WriteString("return ")
				exprString(sb, table, false, r)
				sb.WriteString("; ")
			}
			sb.WriteByte('}')
		}
		if simple {
			sb.WriteByte(')')
		}

	case *MethodRef:
		sb.WriteString(types.TypeString(table, e.Qualifier))
		sb.WriteString("::")
		sb.WriteString(e.Name)

	case *Conditional:
		if simple {
			sb.WriteByte('(')
		}
		sb.WriteString("c ? ")
		exprString(sb, table, true, e.Then)
		sb.WriteString(" : ")
		exprString(sb, table, true, e.Else)
		if simple {
			sb.WriteByte(')')
		}
	}
}
