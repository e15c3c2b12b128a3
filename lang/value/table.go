package value

import "github.com/dolthub/swiss"

// TableObj is a mutable mapping from arbitrary Value keys (hashed by
// type+bits, §3) to Values, backed by an open-addressing swiss table rather
// than Go's built-in map, matching the hash-table choice made throughout the
// retrieval pack for the same "value -> value" mapping concern.
type TableObj struct {
	m *swiss.Map[Value, Value]
}

var _ Object = (*TableObj)(nil)

// NewTable returns an empty table with initial capacity for at least size
// entries.
func NewTable(size int) *TableObj {
	if size < 1 {
		size = 1
	}
	return &TableObj{m: swiss.NewMap[Value, Value](uint32(size))}
}

func (t *TableObj) ObjType() ObjType { return ObjTable }
func (t *TableObj) String() string   { return "<table>" }

// Get returns the value stored under key, and whether it was present.
func (t *TableObj) Get(key Value) (Value, bool) {
	return t.m.Get(key)
}

// Set stores v under key, overwriting any previous entry.
func (t *TableObj) Set(key, v Value) {
	t.m.Put(key, v)
}

// Delete removes key from the table, reporting whether it was present.
func (t *TableObj) Delete(key Value) bool {
	return t.m.Delete(key)
}

// Len reports the number of entries in the table.
func (t *TableObj) Len() int { return int(t.m.Count()) }

// Each calls fn for every (key, value) pair in the table. Iteration order is
// unspecified, matching the swiss table's probe order.
func (t *TableObj) Each(fn func(key, val Value) bool) {
	t.m.Iter(fn)
}

// Merge implements the ADD fallback for table⊕table (§4.4): a fresh table is
// built by applying left's entries, then right's, so that right keys win on
// conflict (right-biased, per the resolved Open Question in §9).
func Merge(left, right *TableObj) *TableObj {
	out := NewTable(left.Len() + right.Len())
	left.Each(func(k, v Value) bool {
		out.Set(k, v)
		return false
	})
	right.Each(func(k, v Value) bool {
		out.Set(k, v)
		return false
	})
	return out
}
