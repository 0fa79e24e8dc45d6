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

package util_test

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	. "github.com/wdamron/resolve/internal/util"
)

func sortedComponents(sccs [][]int) [][]int {
	out := make([][]int, len(sccs))
	for i, c := range sccs {
		c = append([]int(nil), c...)
		sort.Ints(c)
		out[i] = c
	}
	return out
}

func TestSCC(t *testing.T) {
	g := NewGraph(5)
	g.AddEdge(0, 1)
	g.AddEdge(1, 0)
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(3, 2)
	g.AddEdge(3, 4)

	expect := [][]int{{0, 1}, {2, 3}, {4}}
	if diff := cmp.Diff(expect, sortedComponents(g.SCC())); diff != "" {
		t.Fatalf("unexpected components (-expect +actual):\n%s", diff)
	}
}

func TestSCCSourcesFirst(t *testing.T) {
	g := NewGraph(3)
	g.AddEdge(2, 1)
	g.AddEdge(1, 0)

	expect := [][]int{{2}, {1}, {0}}
	if diff := cmp.Diff(expect, g.SCC()); diff != "" {
		t.Fatalf("unexpected component order (-expect +actual):\n%s", diff)
	}
}

func TestAddEdgeDedupes(t *testing.T) {
	g := NewGraph(2)
	g.AddEdge(0, 1)
	g.AddEdge(0, 1)
	if len(g[0]) != 1 || !g.HasEdge(0, 1) || g.HasEdge(1, 0) {
		t.Fatalf("unexpected edges: %#+v", g)
	}
}

func TestCondense(t *testing.T) {
	g := NewGraph(4)
	g.AddEdge(0, 1)
	g.AddEdge(1, 0)
	g.AddEdge(0, 0)
	g.AddEdge(1, 2)
	g.AddEdge(3, 2)

	dag, sccs, comp := g.Condense()
	if len(dag) != len(sccs) || len(sccs) != 3 {
		t.Fatalf("expected 3 components, found %v", sccs)
	}
	if comp[0] != comp[1] {
		t.Fatalf("expected vertices 0 and 1 to be merged: %v", comp)
	}
	for v, succs := range dag {
		for _, succ := range succs {
			if succ == v {
				t.Fatalf("unexpected self-edge on component %d", v)
			}
		}
	}
	if !dag.HasEdge(comp[0], comp[2]) || !dag.HasEdge(comp[3], comp[2]) {
		t.Fatalf("unexpected component edges: %#+v", dag)
	}
}

func TestReachable(t *testing.T) {
	g := NewGraph(4)
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	seen := g.Reachable(1)
	if diff := cmp.Diff([]bool{false, true, true, false}, seen); diff != "" {
		t.Fatalf("unexpected reachable set (-expect +actual):\n%s", diff)
	}
}
