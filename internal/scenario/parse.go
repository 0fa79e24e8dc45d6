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

package scenario

import (
	"fmt"
	"strings"

	"github.com/wdamron/resolve/ast"
	"github.com/wdamron/resolve/construct"
	"github.com/wdamron/resolve/types"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j], i})
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.' || src[j] == 'L' || src[j] == 'd' || src[j] == 'f') {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j], i})
			i = j
		case c == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("Unterminated string literal at offset %d", i)
			}
			toks = append(toks, token{tokString, src[i : j+1], i})
			i = j + 1
		case strings.HasPrefix(src[i:], "::"), strings.HasPrefix(src[i:], "->"):
			toks = append(toks, token{tokPunct, src[i : i+2], i})
			i += 2
		case strings.IndexByte("<>,.[]()?&{};", c) >= 0:
			toks = append(toks, token{tokPunct, src[i : i+1], i})
			i++
		default:
			return nil, fmt.Errorf("Unexpected character %q at offset %d", c, i)
		}
	}
	return append(toks, token{tokEOF, "", len(src)}), nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool { return isIdentStart(c) || c >= '0' && c <= '9' }

// names resolves the identifiers of type expressions.
type names struct {
	table   *types.Table
	classes map[string]types.ClassID
	// type-variables in scope, innermost last
	vars []map[string]*types.TypeVar
}

func (n *names) class(name string) (types.ClassID, bool) {
	if id, ok := n.classes[name]; ok {
		return id, true
	}
	return n.table.Lookup(name)
}

func (n *names) typeVar(name string) (*types.TypeVar, bool) {
	for i := len(n.vars) - 1; i >= 0; i-- {
		if tv, ok := n.vars[i][name]; ok {
			return tv, true
		}
	}
	return nil, false
}

func (n *names) push(tps []*types.TypeVar) {
	m := make(map[string]*types.TypeVar, len(tps))
	for _, tp := range tps {
		m[tp.Name] = tp
	}
	n.vars = append(n.vars, m)
}

func (n *names) pop() { n.vars = n.vars[:len(n.vars)-1] }

type parser struct {
	src   string
	toks  []token
	pos   int
	names *names
}

func newParser(src string, n *names) (*parser, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	return &parser{src: src, toks: toks, names: n}, nil
}

func (p *parser) peek() token       { return p.toks[p.pos] }
func (p *parser) peekAt(k int) token {
	if p.pos+k >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+k]
}
func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) is(text string) bool {
	t := p.peek()
	return (t.kind == tokPunct || t.kind == tokIdent) && t.text == text
}

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if !p.accept(text) {
		return p.errorf("expected %q", text)
	}
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	t := p.peek()
	found := t.text
	if t.kind == tokEOF {
		found = "end of input"
	}
	return fmt.Errorf("%s: %s, found %s at offset %d", p.src, fmt.Sprintf(format, args...), found, t.pos)
}

func (p *parser) ident() (string, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return "", p.errorf("expected an identifier")
	}
	p.pos++
	return t.text, nil
}

func (p *parser) done() error {
	if p.peek().kind != tokEOF {
		return p.errorf("unexpected trailing input")
	}
	return nil
}

// parseType parses a type expression: `int`, `String[]`, `List<? extends Number>`, `A & B`.
func parseType(src string, n *names) (types.Type, error) {
	p, err := newParser(src, n)
	if err != nil {
		return nil, err
	}
	t, err := p.typ()
	if err != nil {
		return nil, err
	}
	return t, p.done()
}

func (p *parser) typ() (types.Type, error) {
	t, err := p.typeAtom()
	if err != nil {
		return nil, err
	}
	if !p.is("&") {
		return t, nil
	}
	ts := []types.Type{t}
	for p.accept("&") {
		u, err := p.typeAtom()
		if err != nil {
			return nil, err
		}
		ts = append(ts, u)
	}
	return construct.TAnd(ts...), nil
}

func (p *parser) typeAtom() (types.Type, error) {
	name, err := p.qualifiedName()
	if err != nil {
		return nil, err
	}
	t, err := p.namedType(name)
	if err != nil {
		return nil, err
	}
	return p.arrayDims(t), nil
}

func (p *parser) qualifiedName() (string, error) {
	name, err := p.ident()
	if err != nil {
		return "", err
	}
	for p.is(".") && p.peekAt(1).kind == tokIdent {
		p.pos++
		name += "." + p.next().text
	}
	return name, nil
}

func (p *parser) arrayDims(t types.Type) types.Type {
	for p.is("[") && p.peekAt(1).text == "]" {
		p.pos += 2
		t = construct.TArray(t)
	}
	return t
}

func (p *parser) namedType(name string) (types.Type, error) {
	switch name {
	case "null":
		return types.Null, nil
	case "void":
		return types.VoidType, nil
	}
	if k := types.PrimKindNamed(name); k != 0 {
		return types.PrimType(k), nil
	}
	if tv, ok := p.names.typeVar(name); ok {
		return tv, nil
	}
	id, ok := p.names.class(name)
	if !ok {
		return nil, fmt.Errorf("%s: unknown type %s", p.src, name)
	}
	var args []types.Type
	if p.accept("<") {
		for {
			arg, err := p.typeArg()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.accept(",") {
				break
			}
		}
		if err := p.expect(">"); err != nil {
			return nil, err
		}
	}
	return construct.TClass(id, args...), nil
}

func (p *parser) typeArg() (types.Type, error) {
	if !p.accept("?") {
		return p.typ()
	}
	switch {
	case p.accept("extends"):
		bound, err := p.typ()
		return construct.TExtends(bound), err
	case p.accept("super"):
		bound, err := p.typ()
		return construct.TSuper(bound), err
	}
	return construct.TWild(), nil
}

// parseTypeParams parses declarations such as `T extends Comparable<T>`. Every variable is
// created before any bound is parsed, so bounds may refer to each other.
func parseTypeParams(decls []string, n *names) ([]*types.TypeVar, error) {
	tps := make([]*types.TypeVar, len(decls))
	bounds := make([]string, len(decls))
	for i, decl := range decls {
		fields := strings.Fields(decl)
		if len(fields) == 0 {
			return nil, fmt.Errorf("Empty type-parameter declaration")
		}
		tps[i] = n.table.NewTypeVar(fields[0], nil)
		if len(fields) > 1 {
			if fields[1] != "extends" || len(fields) < 3 {
				return nil, fmt.Errorf("%s: expected `extends` and a bound", decl)
			}
			bounds[i] = strings.TrimSpace(strings.SplitN(decl, "extends", 2)[1])
		}
	}
	n.push(tps)
	defer n.pop()
	for i, b := range bounds {
		if b == "" {
			continue
		}
		bound, err := parseType(b, n)
		if err != nil {
			return nil, err
		}
		tps[i].Bound = bound
	}
	return tps, nil
}

// parseExpr parses an argument expression:
//
//   "text" 42 true         literals (String, int, boolean)
//   String                 a standalone expression of the given type
//   x -> e, (x, y) -> e    implicitly typed lambdas
//   (String s) -> e        explicitly typed lambda; `-> {}` is a void block, `-> { e; f }` returns e and f
//   Type::name             method reference through a type
//   (Type)::name           method reference through an expression of the given type
//   cond(a, b)             conditional expression
//   Recv.<T>name(args)     method invocation; the receiver is omitted for unqualified calls
func parseExpr(src string, n *names) (ast.Expr, error) {
	p, err := newParser(src, n)
	if err != nil {
		return nil, err
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	return e, p.done()
}

func (p *parser) expr() (ast.Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokString:
		p.pos++
		return construct.Lit(t.text, p.predef(p.names.table.Predef.String)), nil
	case tokNumber:
		p.pos++
		return construct.Lit(t.text, numberType(t.text)), nil
	case tokEOF:
		return nil, p.errorf("expected an expression")
	}
	switch {
	case p.is("true") || p.is("false"):
		p.pos++
		return construct.Lit(t.text, types.BooleanType), nil
	case p.is("("):
		close := p.matching(p.pos)
		if close < 0 {
			return nil, p.errorf("unbalanced parentheses")
		}
		if p.toks[close+1].text == "->" {
			return p.lambda()
		}
		p.pos++
		qual, err := p.typ()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		if err := p.expect("::"); err != nil {
			return nil, err
		}
		name, err := p.ident()
		return construct.BoundRef(qual, name), err
	case t.kind == tokIdent && p.peekAt(1).text == "->":
		return p.lambda()
	case p.is("cond") && p.peekAt(1).text == "(":
		p.pos += 2
		then, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		els, err := p.expr()
		if err != nil {
			return nil, err
		}
		return construct.Cond(then, els), p.expect(")")
	}
	return p.primary()
}

func (p *parser) predef(id types.ClassID) types.Type { return construct.TClass(id) }

func numberType(lit string) types.Type {
	switch {
	case strings.HasSuffix(lit, "L"):
		return types.LongType
	case strings.HasSuffix(lit, "f"):
		return types.FloatType
	case strings.HasSuffix(lit, "d") || strings.Contains(lit, "."):
		return types.DoubleType
	}
	return types.IntType
}

// matching returns the index of the parenthesis closing the one at i, or -1.
func (p *parser) matching(i int) int {
	depth := 0
	for j := i; j < len(p.toks); j++ {
		switch p.toks[j].text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// primary parses a standalone typed expression, a method reference through a type, or a call.
func (p *parser) primary() (ast.Expr, error) {
	var segs []string
	for {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		segs = append(segs, name)
		if !p.is(".") {
			break
		}
		p.pos++
		if p.is("<") {
			// explicit type-arguments: `Recv.<T>name(args)`
			return p.call(segs, "")
		}
	}
	if p.is("(") {
		return p.call(segs[:len(segs)-1], segs[len(segs)-1])
	}
	t, err := p.namedType(strings.Join(segs, "."))
	if err != nil {
		return nil, err
	}
	t = p.arrayDims(t)
	if p.accept("::") {
		name, err := p.ident()
		return construct.StaticRef(t, name), err
	}
	return construct.Arg(t), nil
}

// call parses the rest of an invocation whose receiver is named by recv. An empty name means
// explicit type-arguments precede the method name.
func (p *parser) call(recv []string, name string) (ast.Expr, error) {
	var targs []types.Type
	if name == "" {
		p.pos++ // <
		for {
			t, err := p.typ()
			if err != nil {
				return nil, err
			}
			targs = append(targs, t)
			if !p.accept(",") {
				break
			}
		}
		if err := p.expect(">"); err != nil {
			return nil, err
		}
		method, err := p.ident()
		if err != nil {
			return nil, err
		}
		name = method
	}
	var receiver types.Type
	if len(recv) > 0 {
		var err error
		if receiver, err = p.namedType(strings.Join(recv, ".")); err != nil {
			return nil, err
		}
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for !p.accept(")") {
		if len(args) > 0 {
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return &ast.Call{Receiver: receiver, Name: name, Args: args, TypeArgs: targs}, nil
}

// parseNew parses a class instance creation `new Box<String>(args)`, or `new Box<>(args)` whose
// class type-arguments are inferred.
func parseNew(src string, n *names) (*ast.Call, bool, error) {
	p, err := newParser(src, n)
	if err != nil {
		return nil, false, err
	}
	if err := p.expect("new"); err != nil {
		return nil, false, err
	}
	name, err := p.qualifiedName()
	if err != nil {
		return nil, false, err
	}
	diamond := p.is("<") && p.peekAt(1).text == ">"
	if diamond {
		p.pos += 2
	}
	t, err := p.namedType(name)
	if err != nil {
		return nil, false, err
	}
	e, err := p.call(nil, types.ConstructorName)
	if err != nil {
		return nil, false, err
	}
	call := e.(*ast.Call)
	call.Receiver = t
	return call, diamond, p.done()
}

func (p *parser) lambda() (ast.Expr, error) {
	var params []ast.Param
	if p.peek().kind == tokIdent {
		params = append(params, construct.Param(p.next().text, nil))
	} else {
		p.pos++ // (
		for !p.accept(")") {
			if len(params) > 0 {
				if err := p.expect(","); err != nil {
					return nil, err
				}
			}
			// `x` alone is an implicit parameter; otherwise a type precedes the name
			if p.peek().kind == tokIdent && (p.peekAt(1).text == "," || p.peekAt(1).text == ")") {
				params = append(params, construct.Param(p.next().text, nil))
				continue
			}
			t, err := p.typ()
			if err != nil {
				return nil, err
			}
			name, err := p.ident()
			if err != nil {
				return nil, err
			}
			params = append(params, construct.Param(name, t))
		}
	}
	if err := p.expect("->"); err != nil {
		return nil, err
	}
	if !p.accept("{") {
		body, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &ast.Lambda{Params: params, Body: body}, nil
	}
	var results []ast.Expr
	for !p.accept("}") {
		if len(results) > 0 {
			if err := p.expect(";"); err != nil {
				return nil, err
			}
		}
		res, err := p.expr()
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return construct.BlockLambda(params, results...), nil
}
