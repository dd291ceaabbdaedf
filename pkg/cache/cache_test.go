package cache

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Method string `msgpack:"method"`
	Lines  []int  `msgpack:"lines"`
}

func TestLRU_Basic(t *testing.T) {
	c := New[string](Options{MaxSize: 3})

	c.Set("a", "value_a")
	c.Set("b", "value_b")
	c.Set("c", "value_c")

	assert.Equal(t, 3, c.Len())

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "value_a", val)

	_, found = c.Get("missing")
	assert.False(t, found)
}

func TestLRU_Eviction(t *testing.T) {
	var evicted []string
	c := New[string](Options{MaxSize: 3, OnEvict: func(k string) { evicted = append(evicted, k) }})

	c.Set("a", "value_a")
	c.Set("b", "value_b")
	c.Set("c", "value_c")

	// a becomes most recently used
	c.Get("a")
	c.Set("d", "value_d")

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"b"}, evicted)

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")
	for _, k := range []string{"a", "c", "d"} {
		_, found = c.Get(k)
		assert.True(t, found, "%s should still be present", k)
	}
}

func TestLRU_UpdateExisting(t *testing.T) {
	c := New[int](Options{MaxSize: 2})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3)
	c.Set("c", 4)

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, 3, val)
	_, found = c.Get("b")
	assert.False(t, found)
}

func TestLRU_DeleteAndClear(t *testing.T) {
	c := New[string](Options{})
	c.Set("a", "value_a")
	c.Set("b", "value_b")

	c.Delete("a")
	c.Delete("missing")
	assert.Equal(t, 1, c.Len())
	_, found := c.Get("a")
	assert.False(t, found)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestLRU_SaveLoad(t *testing.T) {
	c := New[summary](Options{MaxSize: 10})
	c.Set("x", summary{Method: "A.f()", Lines: []int{3, 5}})
	c.Set("y", summary{Method: "A.g()"})

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	loaded := New[summary](Options{MaxSize: 10})
	require.NoError(t, loaded.Load(&buf))
	assert.Equal(t, 2, loaded.Len())

	got, found := loaded.Get("x")
	require.True(t, found)
	assert.Equal(t, "A.f()", got.Method)
	assert.Equal(t, []int{3, 5}, got.Lines)
}

func TestLRU_LoadKeepsRecency(t *testing.T) {
	c := New[int](Options{})
	c.Set("old", 1)
	c.Set("new", 2)

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	small := New[int](Options{MaxSize: 1})
	require.NoError(t, small.Load(&buf))
	_, found := small.Get("new")
	assert.True(t, found)
	_, found = small.Get("old")
	assert.False(t, found)
}

func TestLRU_LoadInvalid(t *testing.T) {
	c := New[int](Options{})
	assert.Error(t, c.Load(bytes.NewReader([]byte{0xc1})))
}

func TestLRU_PersistToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "summaries.msgpack")

	c := New[summary](Options{})
	c.Set("k", summary{Method: "B.h(int)"})
	require.NoError(t, c.PersistToFile(path))

	loaded := New[summary](Options{})
	require.NoError(t, loaded.LoadFromFile(path))
	got, found := loaded.Get("k")
	require.True(t, found)
	assert.Equal(t, "B.h(int)", got.Method)

	empty := New[summary](Options{})
	require.NoError(t, empty.LoadFromFile(filepath.Join(t.TempDir(), "none")))
	assert.Equal(t, 0, empty.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key([]byte("a"), []byte("b")), Key([]byte("a"), []byte("b")))
	assert.NotEqual(t, Key([]byte("ab"), []byte("")), Key([]byte("a"), []byte("b")))
	assert.Len(t, Key(), 64)
}
