package pegparser

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceMapDeleteKeepsIndexes(t *testing.T) {
	m := NewSliceMap()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)
	m.Delete("a")
	m.Set("c", 30)

	require.Equal(t, 2, m.Size())
	v, ok := m.GetAt(1)
	require.True(t, ok)
	assert.Equal(t, 30, v)
	assert.Equal(t, 0, m.Index("b"))
}

func TestSliceMapInsertAt(t *testing.T) {
	m := NewSliceMap()
	m.Set("a", 1)
	m.Set("c", 3)
	m.InsertAt(1, "b", 2)

	keys := []interface{}{}
	for _, item := range m.Items() {
		keys = append(keys, item.Key())
	}
	assert.Equal(t, []interface{}{"a", "b", "c"}, keys)
	assert.Equal(t, 2, m.Index("c"))
}

func TestObjectClone(t *testing.T) {
	inner := NewObjectWithData([]ObjectItem{NewObjectItem("x", "1")})
	o := NewObjectWithData([]ObjectItem{
		NewObjectItem("inner", inner),
		NewObjectItem("list", []interface{}{"a"}),
	})
	c := o.Clone()
	inner.Set("x", "2")
	o.Set("list", append(o.GetList("list"), "b"))

	assert.Equal(t, "1", c.GetObject("inner").GetString("x"))
	assert.Equal(t, []interface{}{"a"}, c.GetList("list"))
}

func TestObjectYAMLKeepsOrder(t *testing.T) {
	o := NewObjectWithData([]ObjectItem{
		NewObjectItem("isa", "PBXGroup"),
		NewObjectItem("children", []interface{}{"A"}),
		NewObjectItem("name", "App"),
	})
	out, err := yaml.Marshal(o)
	require.NoError(t, err)
	assert.Equal(t, "isa: PBXGroup\nchildren:\n- A\nname: App\n", string(out))
}

func TestObjectFilterAndGetInt(t *testing.T) {
	o := NewObjectWithData([]ObjectItem{
		NewObjectItem("fileEncoding", 4),
		NewObjectItem("path", "a.swift"),
		NewObjectItem("path"+CommentKeySuffix, "a.swift"),
	})
	assert.Equal(t, 4, o.GetInt("fileEncoding"))
	assert.Zero(t, o.GetInt("path"))

	kept := o.Filter(func(key string, _ interface{}) bool {
		return key != "path"+CommentKeySuffix
	})
	assert.Equal(t, []string{"fileEncoding", "path"}, kept.Keys())

	o.Clear()
	assert.True(t, o.IsEmpty())
}
