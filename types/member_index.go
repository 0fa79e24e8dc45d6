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
	"github.com/benbjohnson/immutable"
)

var emptyIndex = immutable.NewSortedMap(nil)

// MemberIndex is a persistent mapping from member names to the ids of the methods declared
// with that name. Names are kept sorted so iteration is deterministic.
type MemberIndex struct {
	m *immutable.SortedMap
}

// Len returns the number of distinct names in the index.
func (ix MemberIndex) Len() int {
	if ix.m == nil {
		return 0
	}
	return ix.m.Len()
}

// Get returns the method ids declared with the given name, in declaration order.
func (ix MemberIndex) Get(name string) []MethodID {
	if ix.m == nil {
		return nil
	}
	v, ok := ix.m.Get(name)
	if !ok {
		return nil
	}
	l := v.(*immutable.List)
	ids := make([]MethodID, 0, l.Len())
	iter := l.Iterator()
	for !iter.Done() {
		_, id := iter.Next()
		ids = append(ids, id.(MethodID))
	}
	return ids
}

// Add returns a new index with id appended to the methods declared with the given name.
// The receiver is not modified.
func (ix MemberIndex) Add(name string, id MethodID) MemberIndex {
	m := ix.m
	if m == nil {
		m = emptyIndex
	}
	l := immutable.NewList()
	if v, ok := m.Get(name); ok {
		l = v.(*immutable.List)
	}
	return MemberIndex{m.Set(name, l.Append(id))}
}

// Names returns the member names in sorted order.
func (ix MemberIndex) Names() []string {
	if ix.m == nil {
		return nil
	}
	names := make([]string, 0, ix.m.Len())
	iter := ix.m.Iterator()
	for !iter.Done() {
		k, _ := iter.Next()
		names = append(names, k.(string))
	}
	return names
}
