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

package infer

import (
	"sort"

	"github.com/wdamron/resolve/internal/util"
	"github.com/wdamron/resolve/types"
)

// Strategy selects the next node of the inference graph to solve.
type Strategy uint8

const (
	// Leaf solves any node without unresolved dependencies, until the graph is empty.
	Leaf Strategy = iota
	// BestLeaf solves the cheapest path to a set of target variables, then stops.
	BestLeaf
)

// A step derives an instantiation for a variable from its proper bounds.
type step uint8

const (
	stepEq step = iota
	stepLower
	stepThrows
	stepUpper
	stepCaptured
)

var steps = [...]step{stepEq, stepLower, stepThrows, stepUpper, stepCaptured}

var stepNames = [...]string{
	stepEq:       "EQ",
	stepLower:    "LOWER",
	stepThrows:   "THROWS",
	stepUpper:    "UPPER",
	stepCaptured: "CAPTURED",
}

func (s step) String() string { return stepNames[s] }

// Solve instantiates variables of the context. Without targets, every variable is instantiated
// (the Leaf strategy); otherwise only the targets and the variables they depend on (the BestLeaf
// strategy). Solving a solved context does nothing.
func (ctx *Context) Solve(targets ...*types.InferenceVar) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Incorporate(); err != nil {
		return err
	}
	if ctx.opts.Policy == Legacy {
		return ctx.solveLegacy()
	}
	strategy := Leaf
	if len(targets) > 0 {
		strategy = BestLeaf
	}
	for {
		if strategy == BestLeaf && !ctx.anyOpen(targets) {
			return nil
		}
		open := ctx.openIndexes()
		if len(open) == 0 {
			return nil
		}
		g := ctx.graph(open)
		dag, sccs, comp := g.Condense()
		var node int
		if strategy == Leaf {
			node = pickLeaf(dag)
		} else {
			node = ctx.pickBestLeaf(dag, sccs, comp, open, targets)
		}
		vars := make([]int, len(sccs[node]))
		for k, vertex := range sccs[node] {
			vars[k] = open[vertex]
		}
		sort.Ints(vars)
		if err := ctx.solveNode(vars); err != nil {
			return err
		}
	}
}

func (ctx *Context) anyOpen(targets []*types.InferenceVar) bool {
	for _, v := range targets {
		if i, ok := ctx.index[v]; ok && ctx.state[i].inst == nil {
			return true
		}
	}
	return false
}

func (ctx *Context) openIndexes() []int {
	var open []int
	for i := range ctx.vars {
		if ctx.state[i].inst == nil {
			open = append(open, i)
		}
	}
	return open
}

// graph returns the dependencies between open variables: an edge from α to β if a bound of α
// mentions β.
func (ctx *Context) graph(open []int) util.Graph {
	vertex := make(map[*types.InferenceVar]int, len(open))
	for k, i := range open {
		vertex[ctx.vars[i]] = k
	}
	g := util.NewGraph(len(open))
	for k, i := range open {
		for _, kind := range types.BoundKinds {
			ctx.state[i].bounds[kind].Range(func(_ int, b types.Type) bool {
				types.Walk(b, func(t types.Type) bool {
					if iv, ok := t.(*types.InferenceVar); ok {
						if dep, ok := vertex[iv]; ok && dep != k {
							g.AddEdge(k, dep)
						}
					}
					return true
				})
				return true
			})
		}
	}
	return g
}

// the last sink in topological order
func pickLeaf(dag util.Graph) int {
	for n := len(dag) - 1; n >= 0; n-- {
		if len(dag[n]) == 0 {
			return n
		}
	}
	panic("unreachable: a condensed graph always has a sink")
}

// pickBestLeaf chooses the target node whose dependency closure is cheapest, where each variable
// costs 1, or the fallback weight if it has no proper bound. A leaf of that closure is returned.
// Costs are recomputed on every call.
func (ctx *Context) pickBestLeaf(dag util.Graph, sccs [][]int, comp, open []int, targets []*types.InferenceVar) int {
	weights := make([]int, len(sccs))
	for n, c := range sccs {
		for _, vertex := range c {
			if ctx.hasProperBound(open[vertex]) {
				weights[n]++
			} else {
				weights[n] += ctx.opts.FallbackWeight
			}
		}
	}
	cost := func(reach []bool) int {
		sum := 0
		for n, ok := range reach {
			if ok {
				sum += weights[n]
			}
		}
		return sum
	}
	vertex := make(map[int]int, len(open))
	for k, i := range open {
		vertex[i] = k
	}
	best, bestCost := -1, 0
	var bestReach []bool
	for _, v := range targets {
		i, ok := ctx.index[v]
		if !ok || ctx.state[i].inst != nil {
			continue
		}
		n := comp[vertex[i]]
		reach := dag.Reachable(n)
		if c := cost(reach); best < 0 || c < bestCost || c == bestCost && n < best {
			best, bestCost, bestReach = n, c, reach
		}
	}
	leaf := -1
	for n, ok := range bestReach {
		if ok && len(dag[n]) == 0 && (leaf < 0 || weights[n] < weights[leaf]) {
			leaf = n
		}
	}
	if ctx.log.Enabled(traceLevel) {
		ctx.log.Tracef("best leaf: node %d (closure cost %d)", leaf, bestCost)
	}
	return leaf
}

func (ctx *Context) hasProperBound(i int) bool {
	for _, k := range types.BoundKinds {
		if len(ctx.properBounds(i, k)) > 0 {
			return true
		}
	}
	return false
}

// properBounds returns the bounds of variable i of the given kind which mention no open
// variable, with instantiated variables substituted.
func (ctx *Context) properBounds(i int, kind types.BoundKind) []types.Type {
	var out []types.Type
	ctx.state[i].bounds[kind].Range(func(_ int, b types.Type) bool {
		b = ctx.Subst(b)
		if !types.IsProper(b) {
			return true
		}
		for _, u := range out {
			if ctx.checker.IsSameType(u, b, nil) {
				return true
			}
		}
		out = append(out, b)
		return true
	})
	return out
}

func withoutNull(ts []types.Type) []types.Type {
	out := ts[:0:0]
	for _, t := range ts {
		if t != types.Type(types.Null) {
			out = append(out, t)
		}
	}
	return out
}

// solveNode applies the first step which instantiates at least one variable of a node, then
// incorporates. If no step applies, fresh type-variables are synthesized for the node.
func (ctx *Context) solveNode(vars []int) error {
	for _, s := range steps {
		var solved []int
		var insts []types.Type
		for _, i := range vars {
			t, err := ctx.applyStep(s, i)
			if err != nil {
				return err
			}
			if t != nil {
				solved, insts = append(solved, i), append(insts, t)
			}
		}
		if len(solved) == 0 {
			continue
		}
		for k, i := range solved {
			if ctx.log.Enabled(traceLevel) {
				ctx.log.Tracef("%s: %s := %s", s, types.TypeString(ctx.table, ctx.vars[i]), types.TypeString(ctx.table, insts[k]))
			}
			ctx.instantiate(i, insts[k])
		}
		return ctx.Incorporate()
	}
	return ctx.fallback(vars)
}

// applyStep returns the instantiation derived by step s for variable i, or nil if the step
// does not apply.
func (ctx *Context) applyStep(s step, i int) (types.Type, error) {
	st := &ctx.state[i]
	captured := st.wildcard != nil
	switch s {
	case stepEq:
		if eqs := ctx.properBounds(i, types.EQ); len(eqs) > 0 {
			return eqs[0], nil
		}

	case stepLower:
		if captured {
			return nil, nil
		}
		if lowers := withoutNull(ctx.properBounds(i, types.LOWER)); len(lowers) > 0 {
			return ctx.checker.LUB(lowers...), nil
		}

	case stepThrows:
		if !st.throws || len(ctx.properBounds(i, types.EQ)) > 0 || len(withoutNull(ctx.properBounds(i, types.LOWER))) > 0 {
			return nil, nil
		}
		p := ctx.table.Predef
		for _, u := range ctx.properBounds(i, types.UPPER) {
			ct, ok := u.(*types.ClassType)
			if !ok || ct.Sym != p.Object && ct.Sym != p.Throwable && ct.Sym != p.Exception {
				return nil, nil
			}
		}
		return ctx.table.Type(p.RuntimeException), nil

	case stepUpper:
		if captured {
			return nil, nil
		}
		uppers := ctx.properBounds(i, types.UPPER)
		if len(uppers) == 0 {
			return nil, nil
		}
		glb, err := ctx.checker.GLB(uppers...)
		if err != nil {
			bounds := make([]Bound, len(uppers))
			for k, u := range uppers {
				bounds[k] = Bound{types.UPPER, u}
			}
			return nil, ctx.boundsError(IncompatibleUpperBounds, ctx.vars[i], bounds...)
		}
		return glb, nil

	case stepCaptured:
		if !captured || ctx.IsFree(ctx.boundsOf(i, types.LOWER, types.UPPER)) {
			return nil, nil
		}
		upper, err := ctx.checker.GLB(ctx.properBounds(i, types.UPPER)...)
		if err != nil {
			return nil, ctx.noInstanceError(ctx.vars[i], err)
		}
		var lower types.Type
		if lowers := withoutNull(ctx.properBounds(i, types.LOWER)); len(lowers) > 0 {
			lower = ctx.checker.LUB(lowers...)
		}
		return ctx.table.NewCapturedVar(st.wildcard, upper, lower), nil
	}
	return nil, nil
}

// boundsOf collects bounds of the given kinds into a single type, for free-variable queries.
func (ctx *Context) boundsOf(i int, kinds ...types.BoundKind) types.Type {
	var ts []types.Type
	for _, k := range kinds {
		ts = append(ts, ctx.state[i].bounds[k].Types()...)
	}
	return &types.Intersection{Types: ts}
}

// fallback instantiates every variable of a node with a fresh type-variable. The upper bound of
// each fresh variable is the glb of the variable's upper bounds, with the node's variables
// replaced by their fresh counterparts; the lower bound is the lub of its proper lower bounds
// (lower bounds mentioning the node's variables are dropped).
func (ctx *Context) fallback(vars []int) error {
	fresh := make([]*types.TypeVar, len(vars))
	for k, i := range vars {
		fresh[k] = ctx.table.NewFreshVar(ctx.vars[i].Origin.Name, nil)
	}
	toFresh := func(t types.Type) types.Type {
		return types.Replace(ctx.Subst(t), func(t types.Type) types.Type {
			if iv, ok := t.(*types.InferenceVar); ok {
				for k, i := range vars {
					if ctx.vars[i] == iv {
						return fresh[k]
					}
				}
			}
			return nil
		})
	}
	for k, i := range vars {
		var uppers []types.Type
		for _, b := range ctx.state[i].bounds[types.UPPER].Types() {
			if b = toFresh(b); b != types.Type(fresh[k]) && types.IsProper(b) {
				uppers = append(uppers, b)
			}
		}
		lowers := withoutNull(ctx.properBounds(i, types.LOWER))
		if len(uppers) > 0 {
			glb, err := ctx.checker.GLB(uppers...)
			if err != nil {
				return ctx.noInstanceError(ctx.vars[i], err)
			}
			fresh[k].Bound = glb
		}
		if len(lowers) > 0 {
			fresh[k].Lower = ctx.checker.LUB(lowers...)
		}
	}
	for k, i := range vars {
		ctx.log.Warnf("fallback: %s := %s", types.TypeString(ctx.table, ctx.vars[i]), types.TypeString(ctx.table, fresh[k]))
		ctx.instantiate(i, fresh[k])
	}
	if err := ctx.Incorporate(); err != nil {
		return ctx.noInstanceError(ctx.vars[vars[0]], err)
	}
	return nil
}

// solveLegacy instantiates every variable in two passes: variables with equality or lower bounds
// are minimized first, the remaining ones are maximized from their upper bounds. The result is
// then checked against every bound.
func (ctx *Context) solveLegacy() error {
	var solved []int
	var insts []types.Type
	for i := range ctx.vars {
		if ctx.state[i].inst != nil {
			continue
		}
		if eqs := ctx.properBounds(i, types.EQ); len(eqs) > 0 {
			solved, insts = append(solved, i), append(insts, eqs[0])
		} else if lowers := withoutNull(ctx.properBounds(i, types.LOWER)); len(lowers) > 0 {
			solved, insts = append(solved, i), append(insts, ctx.checker.LUB(lowers...))
		}
	}
	for k, i := range solved {
		ctx.instantiate(i, insts[k])
	}
	if err := ctx.Incorporate(); err != nil {
		return err
	}
	for i := range ctx.vars {
		if ctx.state[i].inst != nil {
			continue
		}
		inst := types.Type(ctx.table.ObjectType())
		if uppers := ctx.properBounds(i, types.UPPER); len(uppers) > 0 {
			glb, err := ctx.checker.GLB(uppers...)
			if err != nil {
				return ctx.noInstanceError(ctx.vars[i], err)
			}
			inst = glb
		}
		ctx.instantiate(i, inst)
	}
	if err := ctx.Incorporate(); err != nil {
		return err
	}
	return ctx.verify()
}

// verify checks every instantiation against the bounds of its variable.
func (ctx *Context) verify() error {
	for i, v := range ctx.vars {
		inst := ctx.state[i].inst
		for _, k := range types.BoundKinds {
			for _, b := range ctx.state[i].bounds[k].Types() {
				b = ctx.Subst(b)
				var ok bool
				switch k {
				case types.EQ:
					ok = ctx.isSameType(inst, b)
				case types.LOWER:
					ok = ctx.isSubtype(b, inst)
				case types.UPPER:
					ok = ctx.isSubtype(inst, b)
				}
				if !ok {
					return ctx.noInstanceError(v, ctx.boundsError(IncompatibleBounds, v, Bound{types.EQ, inst}, Bound{k, b}))
				}
			}
		}
	}
	return nil
}
