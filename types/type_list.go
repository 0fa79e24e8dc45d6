package types

import (
	"github.com/benbjohnson/immutable"
)

var emptyList = immutable.NewList()

var EmptyTypeList = TypeList{emptyList}

// TypeList is an immutable list of types. Appending returns a new list which shares
// structure with the old one, so a saved list is an exact snapshot.
type TypeList struct {
	l *immutable.List
}

func NewTypeList(ts ...Type) TypeList {
	b := NewTypeListBuilder()
	for _, t := range ts {
		b.Append(t)
	}
	return b.Build()
}

func SingletonTypeList(t Type) TypeList {
	return TypeList{emptyList.Append(t)}
}

func (l TypeList) list() *immutable.List {
	if l.l == nil {
		return emptyList
	}
	return l.l
}

func (l TypeList) Len() int                      { return l.list().Len() }
func (l TypeList) Get(i int) Type                { return l.list().Get(i).(Type) }
func (l TypeList) Slice(start, end int) TypeList { return TypeList{l.list().Slice(start, end)} }
func (l TypeList) Append(t Type) TypeList        { return TypeList{l.list().Append(t)} }

// If f returns false, iteration will be stopped.
func (l TypeList) Range(f func(int, Type) bool) {
	iter := l.list().Iterator()
	for !iter.Done() {
		i, v := iter.Next()
		if !f(i, v.(Type)) {
			return
		}
	}
}

// Types copies the list into a new slice.
func (l TypeList) Types() []Type {
	ts := make([]Type, 0, l.Len())
	l.Range(func(_ int, t Type) bool {
		ts = append(ts, t)
		return true
	})
	return ts
}

// Index returns the position of the first type for which match returns true, or -1.
func (l TypeList) Index(match func(Type) bool) int {
	found := -1
	l.Range(func(i int, t Type) bool {
		if match(t) {
			found = i
			return false
		}
		return true
	})
	return found
}

// Same reports whether both lists share the same underlying storage.
func (l TypeList) Same(other TypeList) bool { return l.list() == other.list() }

// TypeListBuilder appends to a list in place. Builders always start from a new list since
// in-place updates would be visible through every list sharing the same nodes.
type TypeListBuilder struct {
	b *immutable.ListBuilder
}

func NewTypeListBuilder() TypeListBuilder {
	return TypeListBuilder{immutable.NewListBuilder(immutable.NewList())}
}

func (b TypeListBuilder) Len() int          { return b.b.Len() }
func (b TypeListBuilder) Append(t Type)     { b.b.Append(t) }
func (b TypeListBuilder) Set(i int, t Type) { b.b.Set(i, t) }
func (b TypeListBuilder) Build() TypeList   { return TypeList{b.b.List()} }
