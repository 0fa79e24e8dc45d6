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

// Package scenario loads YAML descriptions of class hierarchies and method calls, and runs the
// calls through a resolver.
//
//   config:
//     source: 8
//   exports:
//     libmod: [lib.api]
//   classes:
//     - name: Util
//       package: app
//       methods:
//         - name: id
//           flags: [public, static]
//           type_params: [T]
//           params: [T]
//           return: T
//   calls:
//     - name: identity
//       call: Util.id("s")
//       expected: Object
//       expect: {method: Util.<T>id(T), return: String}
package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wdamron/resolve"
	"github.com/wdamron/resolve/ast"
	"github.com/wdamron/resolve/config"
	"github.com/wdamron/resolve/types"
)

// File is the decoded form of a scenario file.
type File struct {
	// Config uses the keys of configuration files; missing keys keep their defaults.
	Config  yaml.Node           `yaml:"config"`
	Exports map[string][]string `yaml:"exports"`
	Classes []ClassSpec         `yaml:"classes"`
	Calls   []CallSpec          `yaml:"calls"`
}

type ClassSpec struct {
	Name    string `yaml:"name"`
	Package string `yaml:"package"`
	Module  string `yaml:"module"`
	// public (default), protected, private, package, abstract, final, interface
	Flags      []string     `yaml:"flags"`
	TypeParams []string     `yaml:"type_params"`
	Extends    string       `yaml:"extends"`
	Implements []string     `yaml:"implements"`
	Outer      string       `yaml:"outer"`
	Methods    []MethodSpec `yaml:"methods"`
}

type MethodSpec struct {
	Name string `yaml:"name"`
	// public (default), protected, private, package, static, abstract, final, default,
	// bridge, varargs
	Flags      []string `yaml:"flags"`
	TypeParams []string `yaml:"type_params"`
	Params     []string `yaml:"params"`
	Return     string   `yaml:"return"`
	Throws     []string `yaml:"throws"`
}

type CallSpec struct {
	Name string `yaml:"name"`
	// In names the class whose body contains the call; Package and Module place a call
	// outside of any class.
	In string `yaml:"in"`
	// Method names the method of In whose body contains the call.
	Method   string `yaml:"method"`
	Package  string `yaml:"package"`
	Module   string `yaml:"module"`
	Call     string `yaml:"call"`
	Expected string `yaml:"expected"`
	Expect   Expect `yaml:"expect"`
}

// Expect holds the expected outcome of a call. Empty fields are not checked.
type Expect struct {
	Method   string `yaml:"method"`
	Phase    string `yaml:"phase"`
	Return   string `yaml:"return"`
	TypeArgs string `yaml:"type_args"`
	// Error is the kind of the expected resolution error, e.g. Ambiguous
	Error string `yaml:"error"`
}

// Scenario is a loaded scenario: a symbol table, an environment and the calls to resolve.
type Scenario struct {
	Config *config.Config
	Table  *types.Table
	Env    *resolve.Env
	Calls  []*Call

	names *names
}

// Call is a parsed call of a scenario.
type Call struct {
	Spec CallSpec
	Call *resolve.Call
}

// Load reads and builds a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse builds a scenario from the contents of a scenario file.
func Parse(data []byte) (*Scenario, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	cfg := config.Default()
	if !f.Config.IsZero() {
		if err := f.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	table := types.NewTable()
	s := &Scenario{
		Config: cfg,
		Table:  table,
		Env:    resolve.NewEnv(table),
		names:  &names{table: table, classes: make(map[string]types.ClassID)},
	}
	if err := s.declare(f.Classes); err != nil {
		return nil, err
	}
	for module, pkgs := range f.Exports {
		for _, pkg := range pkgs {
			table.Export(module, pkg)
		}
	}
	for _, spec := range f.Calls {
		c, err := s.parseCall(spec)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", spec.Name, err)
		}
		s.Calls = append(s.Calls, c)
	}
	return s, nil
}

var classFlags = map[string]types.Flags{
	"public":    types.Public,
	"protected": types.Protected,
	"private":   types.Private,
	"package":   0,
	"abstract":  types.Abstract,
	"final":     types.Final,
	"interface": types.Interface | types.Abstract,
	"static":    types.Static,
}

var methodFlags = map[string]types.Flags{
	"public":    types.Public,
	"protected": types.Protected,
	"private":   types.Private,
	"package":   0,
	"static":    types.Static,
	"abstract":  types.Abstract,
	"final":     types.Final,
	"default":   types.Default,
	"bridge":    types.Bridge,
	"varargs":   types.Varargs,
}

func parseFlags(names []string, known map[string]types.Flags) (types.Flags, error) {
	var flags types.Flags
	access := false
	for _, name := range names {
		f, ok := known[name]
		if !ok {
			return 0, fmt.Errorf("Unknown flag %q", name)
		}
		switch name {
		case "public", "protected", "private", "package":
			access = true
		}
		flags |= f
	}
	if !access {
		flags |= types.Public
	}
	return flags, nil
}

// declare enters the classes in three passes: names, then type-parameters, then supertypes
// and members, so declarations may refer to classes declared later in the file.
func (s *Scenario) declare(specs []ClassSpec) error {
	classes := make([]*types.Class, len(specs))
	for i, spec := range specs {
		flags, err := parseFlags(spec.Flags, classFlags)
		if err != nil {
			return fmt.Errorf("class %s: %w", spec.Name, err)
		}
		if _, dup := s.names.classes[spec.Name]; dup {
			return fmt.Errorf("class %s: duplicate declaration", spec.Name)
		}
		if spec.Package != "" {
			if _, dup := s.Table.Lookup(spec.Package + "." + spec.Name); dup {
				return fmt.Errorf("class %s: duplicate declaration", spec.Name)
			}
		}
		c := s.Table.DeclareClass(spec.Package, spec.Name, flags)
		c.Module = spec.Module
		s.names.classes[spec.Name] = c.Id
		classes[i] = c
	}
	for i, spec := range specs {
		tps, err := parseTypeParams(spec.TypeParams, s.names)
		if err != nil {
			return fmt.Errorf("class %s: %w", spec.Name, err)
		}
		classes[i].TypeParams = tps
	}
	for i, spec := range specs {
		if err := s.define(classes[i], spec); err != nil {
			return fmt.Errorf("class %s: %w", spec.Name, err)
		}
	}
	return nil
}

func (s *Scenario) define(c *types.Class, spec ClassSpec) error {
	if spec.Outer != "" {
		outer, ok := s.names.class(spec.Outer)
		if !ok {
			return fmt.Errorf("unknown outer class %s", spec.Outer)
		}
		c.Outer = outer
	}
	s.names.push(c.TypeParams)
	defer s.names.pop()
	switch {
	case spec.Extends != "":
		super, err := parseType(spec.Extends, s.names)
		if err != nil {
			return err
		}
		c.Super = super
	case !c.IsInterface():
		c.Super = s.Table.ObjectType()
	}
	for _, src := range spec.Implements {
		it, err := parseType(src, s.names)
		if err != nil {
			return err
		}
		c.Interfaces = append(c.Interfaces, it)
	}
	for _, ms := range spec.Methods {
		if err := s.defineMethod(c, ms); err != nil {
			return fmt.Errorf("method %s: %w", ms.Name, err)
		}
	}
	return nil
}

func (s *Scenario) defineMethod(c *types.Class, spec MethodSpec) error {
	flags, err := parseFlags(spec.Flags, methodFlags)
	if err != nil {
		return err
	}
	// interface methods without a body are abstract
	if c.IsInterface() && !flags.Has(types.Static) && !flags.Has(types.Default) && !flags.Has(types.Private) {
		flags |= types.Abstract
	}
	tps, err := parseTypeParams(spec.TypeParams, s.names)
	if err != nil {
		return err
	}
	s.names.push(tps)
	defer s.names.pop()
	m := types.Method{Name: spec.Name, Owner: c.Id, Flags: flags, TypeParams: tps, Return: types.VoidType}
	if m.IsConstructor() {
		m.Return = s.Table.ThisType(c.Id)
	} else if spec.Return != "" {
		if m.Return, err = parseType(spec.Return, s.names); err != nil {
			return err
		}
	}
	for _, src := range spec.Params {
		t, err := parseType(src, s.names)
		if err != nil {
			return err
		}
		m.Params = append(m.Params, t)
	}
	for _, src := range spec.Throws {
		t, err := parseType(src, s.names)
		if err != nil {
			return err
		}
		m.Throws = append(m.Throws, t)
	}
	if flags.Has(types.Varargs) {
		if n := len(m.Params); n == 0 {
			return fmt.Errorf("variable-arity method without parameters")
		} else if _, ok := m.Params[n-1].(*types.ArrayType); !ok {
			return fmt.Errorf("the last parameter of a variable-arity method must be an array")
		}
	}
	s.Table.DeclareMethod(m)
	return nil
}

// scope enters the scope described by a call: the bodies of the named class and its enclosing
// classes, or a compilation unit.
func (s *Scenario) scope(spec CallSpec) (resolve.Scope, error) {
	if spec.In == "" {
		return s.Env.EnterUnit(spec.Package, spec.Module), nil
	}
	id, ok := s.names.class(spec.In)
	if !ok {
		return 0, fmt.Errorf("unknown class %s", spec.In)
	}
	var chain []types.ClassID
	for c := id; c != types.NoClass; c = s.Table.Class(c).Outer {
		chain = append(chain, c)
	}
	outermost := s.Table.Class(chain[len(chain)-1])
	scope := s.Env.EnterUnit(outermost.Package, outermost.Module)
	for i := len(chain) - 1; i >= 0; i-- {
		scope = s.Env.EnterClass(scope, chain[i])
	}
	if spec.Method != "" {
		ms := s.Table.Members(id, spec.Method)
		if len(ms) == 0 {
			return 0, fmt.Errorf("unknown method %s.%s", spec.In, spec.Method)
		}
		scope = s.Env.EnterBlock(s.Env.EnterMethod(scope, ms[0]))
	}
	return scope, nil
}

func (s *Scenario) parseCall(spec CallSpec) (*Call, error) {
	site, err := s.scope(spec)
	if err != nil {
		return nil, err
	}
	if spec.In != "" {
		id, _ := s.names.class(spec.In)
		s.names.push(s.Table.Class(id).TypeParams)
		defer s.names.pop()
	}
	var call *ast.Call
	var diamond bool
	if strings.HasPrefix(spec.Call, "new ") {
		if call, diamond, err = parseNew(spec.Call, s.names); err != nil {
			return nil, err
		}
	} else {
		e, err := parseExpr(spec.Call, s.names)
		if err != nil {
			return nil, err
		}
		var ok bool
		if call, ok = e.(*ast.Call); !ok {
			return nil, fmt.Errorf("%s is not a method invocation", spec.Call)
		}
	}
	c := &resolve.Call{Site: site, Receiver: call.Receiver, Name: call.Name, Args: call.Args, TypeArgs: call.TypeArgs, Diamond: diamond}
	if spec.Expected != "" {
		if c.Expected, err = parseType(spec.Expected, s.names); err != nil {
			return nil, err
		}
	}
	return &Call{Spec: spec, Call: c}, nil
}

// Outcome is the result of one call of a scenario.
type Outcome struct {
	Name     string
	Call     string
	Method   string
	Phase    string
	Return   string
	TypeArgs string
	Err      *resolve.ResolveError
	// Mismatches lists the expectations which were not met.
	Mismatches []string
}

func (o *Outcome) Passed() bool { return len(o.Mismatches) == 0 }

// Run resolves every call of the scenario with a new resolver.
func (s *Scenario) Run(opts ...resolve.Option) []Outcome {
	r := resolve.NewResolver(s.Table, s.Config, append([]resolve.Option{resolve.WithEnv(s.Env)}, opts...)...)
	outcomes := make([]Outcome, len(s.Calls))
	for i, c := range s.Calls {
		outcomes[i] = s.run(r, c)
	}
	return outcomes
}

func (s *Scenario) run(r *resolve.Resolver, c *Call) Outcome {
	o := Outcome{Name: c.Spec.Name, Call: c.Spec.Call}
	resolveCall := r.ResolveMethod
	if c.Call.Name == types.ConstructorName {
		resolveCall = r.ResolveConstructor
	}
	res, err := resolveCall(c.Call)
	if err != nil {
		o.Err = err.(*resolve.ResolveError)
	} else {
		o.Method = s.Table.MethodString(res.Method)
		o.Phase = res.Phase.String()
		o.Return = types.TypeString(s.Table, res.Signature.Return)
		o.TypeArgs = types.TypeListString(s.Table, res.Signature.TypeArgs)
	}
	want := c.Spec.Expect
	check := func(field, want, got string) {
		if want != "" && want != got {
			o.Mismatches = append(o.Mismatches, fmt.Sprintf("%s: expected %s, found %s", field, want, got))
		}
	}
	if o.Err != nil {
		if want.Error == "" {
			o.Mismatches = append(o.Mismatches, "unexpected error: "+o.Err.Error())
		}
		check("error", want.Error, o.Err.Kind.String())
		return o
	}
	if want.Error != "" {
		o.Mismatches = append(o.Mismatches, "expected "+want.Error+" error, resolved "+o.Method)
	}
	check("method", want.Method, o.Method)
	check("phase", strings.ToLower(want.Phase), o.Phase)
	check("return", want.Return, o.Return)
	check("type_args", want.TypeArgs, o.TypeArgs)
	return o
}
