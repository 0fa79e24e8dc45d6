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
	"os"

	"github.com/wdamron/resolve/ast"
	"github.com/wdamron/resolve/config"
	"github.com/wdamron/resolve/infer"
	"github.com/wdamron/resolve/internal/logging"
	"github.com/wdamron/resolve/types"
)

// Phase is an overload resolution phase. Phases run in order until one finds an applicable method.
type Phase uint8

const (
	// Strict invocation: subtyping only, no boxing, fixed arity
	Strict Phase = iota
	// Loose invocation: boxing and unboxing, fixed arity
	Loose
	// Variable-arity invocation: trailing arguments are matched against the element type
	Varargs
)

var phaseNames = [...]string{Strict: "strict", Loose: "loose", Varargs: "varargs"}

func (p Phase) String() string { return phaseNames[p] }

// Call is a method invocation to resolve.
type Call struct {
	// Site is the scope containing the call.
	Site Scope
	// Receiver is the type searched for Name; nil searches the enclosing classes.
	Receiver types.Type
	Name     string
	Args     []ast.Expr
	// TypeArgs are explicit type-arguments: `recv.<String>name(args)`
	TypeArgs []types.Type
	// Expected is the target type of the call, or nil when the call is not in an assignment or
	// invocation context.
	Expected types.Type
	// Outer is the inference context of the enclosing generic call, when the call is an argument
	// of another call. Variables left open by the call are propagated into it.
	Outer *infer.Context
	// Diamond marks a class instance creation `new Box<>(args)` whose class type-arguments are
	// inferred along with the constructor's. Only used by ResolveConstructor.
	Diamond bool
}

// Signature is the instantiated type of a method for one call.
type Signature struct {
	Method types.MethodID
	// TypeArgs are the (explicit or inferred) type-arguments of a generic method.
	TypeArgs []types.Type
	Params   []types.Type
	Return   types.Type
	Throws   []types.Type
	// Unchecked is set when an argument required an unchecked conversion. The return and thrown
	// types of a generic method are then erased.
	Unchecked bool
}

// Candidate records the outcome of checking one method during a phase.
type Candidate struct {
	Method types.MethodID
	Phase  Phase
	// Failure is nil for an applicable candidate.
	Failure *Failure
}

// Resolution is the method selected for a call.
type Resolution struct {
	Method    types.MethodID
	Phase     Phase
	Signature *Signature
	// Candidates logs every candidate checked, in the order they were checked.
	Candidates []Candidate
}

// Resolver is a reusable context for overload resolution.
//
// A resolver cannot be used concurrently. Resolvers may share a types.Table only if no resolver
// declares symbols while another resolves.
type Resolver struct {
	Table *types.Table
	Env   *Env

	checker *types.Checker
	cfg     *config.Config
	log     *logging.Logger
	opts    infer.Options
	boxing  bool

	// nested calls already resolved during the current top-level call
	nested map[*ast.Call]*nestedCall
	// resolution depth, zero outside of ResolveMethod
	depth      int
	needsReset bool

	err     error
	invalid *Call
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger replaces the logger derived from the configuration.
func WithLogger(log *logging.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// WithEnv sets the environment which call sites refer to.
func WithEnv(env *Env) Option {
	return func(r *Resolver) { r.Env = env }
}

// Create a resolver for the symbols of table. A nil configuration selects config.Default().
func NewResolver(table *types.Table, cfg *config.Config, opts ...Option) *Resolver {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Resolver{
		Table:   table,
		checker: types.NewChecker(table),
		cfg:     cfg,
		boxing:  cfg.AllowBoxing(),
		nested:  make(map[*ast.Call]*nestedCall),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Env == nil {
		r.Env = NewEnv(table)
	}
	if r.log == nil && cfg.Level() > logging.LevelSilent {
		r.log = logging.New(os.Stderr, cfg.Level())
	}
	policy := infer.Modern
	if cfg.Policy() == config.Legacy {
		policy = infer.Legacy
	}
	r.opts = infer.Options{
		Policy:         policy,
		MaxRounds:      cfg.MaxIncorporationRounds,
		FallbackWeight: cfg.FallbackWeight,
		Log:            r.log,
	}
	return r
}

func (r *Resolver) reset() {
	for c := range r.nested {
		delete(r.nested, c)
	}
	r.err, r.invalid, r.needsReset = nil, nil, false
}

// Reset the state of the resolver. The resolver will be reset automatically before each call.
func (r *Resolver) Reset() {
	if !r.needsReset {
		return
	}
	r.reset()
}

// Checker returns the checker used for structural type queries.
func (r *Resolver) Checker() *types.Checker { return r.checker }

// Config returns the configuration of the resolver.
func (r *Resolver) Config() *config.Config { return r.cfg }

// Get the error which caused the last resolution to fail.
func (r *Resolver) Error() error { return r.err }

// Get the call which caused the last resolution to fail.
func (r *Resolver) InvalidCall() *Call { return r.invalid }

// NewContext creates an empty inference context using the resolver's incorporation policy.
func (r *Resolver) NewContext() *infer.Context { return infer.New(r.checker, r.opts) }

func (r *Resolver) phases() []Phase {
	if r.boxing {
		return []Phase{Strict, Loose, Varargs}
	}
	return []Phase{Strict}
}
