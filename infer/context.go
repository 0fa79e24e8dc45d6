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

// Package infer implements inference contexts for the type-arguments of generic method calls.
//
// A Context owns a set of inference-variables and their bounds. Bounds are recorded while the
// applicability of a call is checked (the context is the types.Recorder of structural queries),
// kept consistent by incorporation, and finally resolved by the graph solver.
package infer

import (
	"github.com/wdamron/resolve/internal/logging"
	"github.com/wdamron/resolve/types"
)

// Policy selects how bounds are incorporated and solved.
type Policy uint8

const (
	// Modern propagates bounds between variables and solves with the inference graph.
	Modern Policy = iota
	// Legacy only checks equality bounds and solves with a minimize/maximize pass.
	Legacy
)

func (p Policy) String() string {
	if p == Legacy {
		return "legacy"
	}
	return "modern"
}

// Options configure a Context.
type Options struct {
	Policy Policy
	// MaxRounds caps the incorporation loop (default 10000).
	MaxRounds int
	// FallbackWeight is the cost of a variable without proper bounds in the best-leaf strategy
	// (default 4).
	FallbackWeight int
	Log            *logging.Logger
}

const traceLevel = logging.LevelTrace

// per-variable state; copied by value into snapshots
type varState struct {
	bounds [3]types.TypeList
	inst   types.Type
	throws bool
	// source of a variable created for the capture of a wildcard-parameterized type
	wildcard *types.Wildcard
}

type cacheOp uint8

const (
	opSubtype cacheOp = iota
	opSameType
)

type cacheKey struct {
	op   cacheOp
	s, t types.Type
}

// Context holds the inference-variables of one call.
//
// The nil *Context is the empty context: it owns no variables, so structural queries which
// use it as their recorder treat every inference-variable as an opaque type.
//
// A context cannot be used concurrently.
type Context struct {
	checker *types.Checker
	table   *types.Table
	opts    Options
	log     *logging.Logger

	vars  []*types.InferenceVar
	state []varState
	index map[*types.InferenceVar]int

	queue []action
	// first failure of the current incorporation, sticky until rollback
	err *Error
	// memoized structural queries between proper types
	cache map[cacheKey]bool
}

var _ types.Recorder = (*Context)(nil)

// New creates an empty inference context.
func New(c *types.Checker, opts Options) *Context {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = 10000
	}
	if opts.FallbackWeight <= 0 {
		opts.FallbackWeight = 4
	}
	return &Context{
		checker: c,
		table:   c.Table,
		opts:    opts,
		log:     opts.Log,
		index:   make(map[*types.InferenceVar]int, 8),
		cache:   make(map[cacheKey]bool, 16),
	}
}

// Reset discards every variable, pending action and cached query.
func (ctx *Context) Reset() {
	for iv := range ctx.index {
		delete(ctx.index, iv)
	}
	ctx.vars, ctx.state, ctx.queue, ctx.err = ctx.vars[:0], ctx.state[:0], ctx.queue[:0], nil
	ctx.clearCache()
}

func (ctx *Context) clearCache() {
	for k := range ctx.cache {
		delete(ctx.cache, k)
	}
}

// Policy returns the incorporation policy of the context.
func (ctx *Context) Policy() Policy { return ctx.opts.Policy }

// Checker returns the checker used for structural queries.
func (ctx *Context) Checker() *types.Checker { return ctx.checker }

// Empty reports whether the context owns no variables.
func (ctx *Context) Empty() bool { return ctx == nil || len(ctx.vars) == 0 }

// Owns reports whether v is a variable of the context.
func (ctx *Context) Owns(v *types.InferenceVar) bool {
	if ctx == nil {
		return false
	}
	_, ok := ctx.index[v]
	return ok
}

// Vars returns the variables of the context in order of creation.
func (ctx *Context) Vars() []*types.InferenceVar {
	if ctx == nil {
		return nil
	}
	return append([]*types.InferenceVar(nil), ctx.vars...)
}

// Open returns the variables which have not been instantiated.
func (ctx *Context) Open() []*types.InferenceVar {
	if ctx == nil {
		return nil
	}
	var open []*types.InferenceVar
	for i, v := range ctx.vars {
		if ctx.state[i].inst == nil {
			open = append(open, v)
		}
	}
	return open
}

func (ctx *Context) adopt(v *types.InferenceVar) int {
	i := len(ctx.vars)
	ctx.vars = append(ctx.vars, v)
	ctx.state = append(ctx.state, varState{})
	ctx.index[v] = i
	return i
}

// AddVars creates one variable per type-parameter. The declared bound of each type-parameter,
// with the type-parameters replaced by the new variables, becomes an upper bound.
func (ctx *Context) AddVars(tparams []*types.TypeVar) []*types.InferenceVar {
	ivs := make([]*types.InferenceVar, len(tparams))
	to := make([]types.Type, len(tparams))
	for i, tp := range tparams {
		ivs[i] = ctx.table.NewInferenceVar(tp)
		to[i] = ivs[i]
		ctx.adopt(ivs[i])
	}
	for i, tp := range tparams {
		bound := ctx.checker.UpperBound(tp)
		ctx.addBound(ctx.index[ivs[i]], types.UPPER, types.Subst(bound, tparams, to))
	}
	return ivs
}

// AddCapturedVar creates a variable standing for the capture of wildcard w. Its bounds are
// added by the caller.
func (ctx *Context) AddCapturedVar(origin *types.TypeVar, w *types.Wildcard) *types.InferenceVar {
	iv := ctx.table.NewInferenceVar(origin)
	i := ctx.adopt(iv)
	ctx.state[i].wildcard = w
	return iv
}

// SetThrows marks v as standing for a thrown exception type.
func (ctx *Context) SetThrows(v *types.InferenceVar) {
	if i, ok := ctx.index[v]; ok {
		ctx.state[i].throws = true
	}
}

// IsThrows reports whether v stands for a thrown exception type.
func (ctx *Context) IsThrows(v *types.InferenceVar) bool {
	i, ok := ctx.index[v]
	return ok && ctx.state[i].throws
}

// IsCaptured reports whether v stands for the capture of a wildcard.
func (ctx *Context) IsCaptured(v *types.InferenceVar) bool {
	i, ok := ctx.index[v]
	return ok && ctx.state[i].wildcard != nil
}

// Record implements types.Recorder: it adds a bound to v if v belongs to the context. The
// consistency of the new bound is checked by the next call to Incorporate.
func (ctx *Context) Record(v *types.InferenceVar, kind types.BoundKind, t types.Type) bool {
	if ctx == nil {
		return false
	}
	i, ok := ctx.index[v]
	if !ok {
		return false
	}
	ctx.addBound(i, kind, t)
	return true
}

// AddBound adds a bound to v, which must belong to the context.
func (ctx *Context) AddBound(v *types.InferenceVar, kind types.BoundKind, t types.Type) {
	i, ok := ctx.index[v]
	if !ok {
		panic("inference-variable " + types.TypeString(ctx.table, v) + " does not belong to the context")
	}
	ctx.addBound(i, kind, t)
}

// Bounds returns the bounds of v of the given kind, in the order they were added.
func (ctx *Context) Bounds(v *types.InferenceVar, kind types.BoundKind) []types.Type {
	i, ok := ctx.index[v]
	if !ok {
		return nil
	}
	return ctx.state[i].bounds[kind].Types()
}

// Inst returns the instantiation of v, or nil if v is open or does not belong to the context.
func (ctx *Context) Inst(v *types.InferenceVar) types.Type {
	if ctx == nil {
		return nil
	}
	if i, ok := ctx.index[v]; ok {
		return ctx.state[i].inst
	}
	return nil
}

// Solved reports whether every variable has been instantiated.
func (ctx *Context) Solved() bool {
	if ctx == nil {
		return true
	}
	for i := range ctx.state {
		if ctx.state[i].inst == nil {
			return false
		}
	}
	return true
}

// Subst replaces the instantiated variables of the context in t by their instantiations.
func (ctx *Context) Subst(t types.Type) types.Type {
	if ctx.Empty() {
		return t
	}
	return types.Replace(t, func(t types.Type) types.Type {
		if iv, ok := t.(*types.InferenceVar); ok {
			if i, ok := ctx.index[iv]; ok && ctx.state[i].inst != nil {
				return ctx.state[i].inst
			}
			return iv
		}
		return nil
	})
}

// SubstList applies Subst to each type in ts.
func (ctx *Context) SubstList(ts []types.Type) []types.Type {
	out := make([]types.Type, len(ts))
	for i, t := range ts {
		out[i] = ctx.Subst(t)
	}
	return out
}

// IsFree reports whether t mentions an open variable of the context.
func (ctx *Context) IsFree(t types.Type) bool {
	if ctx.Empty() {
		return false
	}
	free := false
	types.Walk(t, func(t types.Type) bool {
		if iv, ok := t.(*types.InferenceVar); ok {
			if i, ok := ctx.index[iv]; ok && ctx.state[i].inst == nil {
				free = true
			}
		}
		return !free
	})
	return free
}

// Snapshot is the saved state of a context.
type Snapshot struct {
	n     int
	state []varState
	queue []action
}

// Snapshot saves the bounds and instantiations of every variable.
func (ctx *Context) Snapshot() Snapshot {
	return Snapshot{
		n:     len(ctx.vars),
		state: append([]varState(nil), ctx.state...),
		queue: append([]action(nil), ctx.queue...),
	}
}

// Rollback restores the state saved by Snapshot. Variables created after the snapshot are
// discarded.
func (ctx *Context) Rollback(s Snapshot) {
	for _, v := range ctx.vars[s.n:] {
		delete(ctx.index, v)
	}
	ctx.vars = ctx.vars[:s.n]
	ctx.state = append(ctx.state[:0], s.state...)
	ctx.queue = append(ctx.queue[:0], s.queue...)
	ctx.err = nil
	ctx.clearCache()
}

// Try runs f and rolls the context back if f fails.
func (ctx *Context) Try(f func() error) error {
	s := ctx.Snapshot()
	if err := f(); err != nil {
		ctx.Rollback(s)
		return err
	}
	return nil
}

// PropagateTo duplicates every variable of ctx (with its bounds and instantiation) into an
// enclosing context, then incorporates the enclosing context. Variables which outer already
// owns are skipped.
func (ctx *Context) PropagateTo(outer *Context) error {
	if outer == nil {
		panic("cannot propagate inference-variables into the empty context")
	}
	for i, v := range ctx.vars {
		if _, ok := outer.index[v]; ok {
			continue
		}
		st := ctx.state[i]
		j := outer.adopt(v)
		outer.state[j].throws, outer.state[j].wildcard = st.throws, st.wildcard
		for _, k := range types.BoundKinds {
			for _, t := range st.bounds[k].Types() {
				outer.addBound(j, k, t)
			}
		}
		if st.inst != nil {
			outer.instantiate(j, st.inst)
		}
	}
	outer.log.Tracef("propagated %d inference-variables into the enclosing context", len(ctx.vars))
	return outer.Incorporate()
}

// VarDump is a printable view of a variable, for tests and traces.
type VarDump struct {
	Var              string
	Eq, Lower, Upper []string
	Inst             string
	Throws, Captured bool
}

// Dump returns a printable view of every variable.
func (ctx *Context) Dump() []VarDump {
	if ctx == nil {
		return nil
	}
	out := make([]VarDump, len(ctx.vars))
	str := func(l types.TypeList) []string {
		var ss []string
		l.Range(func(_ int, t types.Type) bool {
			ss = append(ss, types.TypeString(ctx.table, t))
			return true
		})
		return ss
	}
	for i, v := range ctx.vars {
		st := &ctx.state[i]
		d := VarDump{
			Var:      types.TypeString(ctx.table, v),
			Eq:       str(st.bounds[types.EQ]),
			Lower:    str(st.bounds[types.LOWER]),
			Upper:    str(st.bounds[types.UPPER]),
			Throws:   st.throws,
			Captured: st.wildcard != nil,
		}
		if st.inst != nil {
			d.Inst = types.TypeString(ctx.table, st.inst)
		}
		out[i] = d
	}
	return out
}

func (ctx *Context) isSubtype(s, t types.Type) bool {
	if types.IsProper(s) && types.IsProper(t) {
		key := cacheKey{opSubtype, s, t}
		if ok, found := ctx.cache[key]; found {
			return ok
		}
		ok, _ := ctx.checker.IsSubtypeUnchecked(s, t, nil)
		ctx.cache[key] = ok
		return ok
	}
	// a bound between a variable and a type is recorded without capture conversion
	if _, ok := s.(*types.InferenceVar); ok {
		return ctx.checker.IsSubtypeNoCapture(s, t, ctx)
	}
	ok, _ := ctx.checker.IsSubtypeUnchecked(s, t, ctx)
	return ok
}

func (ctx *Context) isSameType(s, t types.Type) bool {
	if types.IsProper(s) && types.IsProper(t) {
		key := cacheKey{opSameType, s, t}
		if ok, found := ctx.cache[key]; found {
			return ok
		}
		ok := ctx.checker.IsSameType(s, t, nil)
		ctx.cache[key] = ok
		return ok
	}
	return ctx.checker.IsSameType(s, t, ctx)
}

func mentionsVar(t types.Type, v *types.InferenceVar) bool {
	found := false
	types.Walk(t, func(t types.Type) bool {
		if t == types.Type(v) {
			found = true
		}
		return !found
	})
	return found
}
