package value_test

import (
	"testing"

	"github.com/emberlang/ember/lang/value"
	"github.com/stretchr/testify/assert"
)

func TestFalsey(t *testing.T) {
	assert.True(t, value.Nil.IsFalsey())
	assert.True(t, value.Bool(false).IsFalsey())
	assert.False(t, value.Bool(true).IsFalsey())
	assert.False(t, value.Number(0).IsFalsey())
	assert.False(t, value.Obj((*value.StringObj)(nil)).IsFalsey())
}

func TestNumberEquality(t *testing.T) {
	assert.True(t, value.Number(1.5).Equal(value.Number(1.5)))
	assert.False(t, value.Number(1).Equal(value.Number(2)))
	assert.False(t, value.Number(1).Equal(value.Bool(true)))
}

func TestInternerDeduplicates(t *testing.T) {
	in := value.NewInterner()
	a := in.Intern("hello")
	b := in.Intern("hello")
	c := in.Intern("world")
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.True(t, value.Obj(a).Equal(value.Obj(b)))
	assert.False(t, value.Obj(a).Equal(value.Obj(c)))
}

func TestTableMergeIsRightBiased(t *testing.T) {
	in := value.NewInterner()
	keyA := value.Obj(in.Intern("a"))

	left := value.NewTable(1)
	left.Set(keyA, value.Number(1))
	right := value.NewTable(1)
	right.Set(keyA, value.Number(2))

	merged := value.Merge(left, right)
	got, ok := merged.Get(keyA)
	assert.True(t, ok)
	assert.Equal(t, 2.0, got.AsNumber())
}

func TestArrayConcat(t *testing.T) {
	left := value.NewArray([]value.Value{value.Number(1)})
	right := value.NewArray([]value.Value{value.Number(2), value.Number(3)})
	out := value.Concat(left, right)
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, 1.0, out.Get(0).AsNumber())
	assert.Equal(t, 3.0, out.Get(2).AsNumber())
}
