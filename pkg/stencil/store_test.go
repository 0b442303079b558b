package stencil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTemplate(t *testing.T, id, content string) *Template {
	t.Helper()
	tmpl, err := NewTemplate(id, content)
	require.NoError(t, err)
	return tmpl
}

func TestTemplateStore_Basic(t *testing.T) {
	store := NewTemplateStore(10)

	tmpl := mustTemplate(t, "report", "{{title}}")
	evicted, ok := store.Put(tmpl)
	assert.False(t, ok)
	assert.Empty(t, evicted)

	got, found := store.Get("report")
	require.True(t, found)
	assert.Same(t, tmpl, got)

	_, found = store.Get("missing")
	assert.False(t, found)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 10, store.Capacity())
}

func TestTemplateStore_FIFOEviction(t *testing.T) {
	store := NewTemplateStore(2)

	store.Put(mustTemplate(t, "a", "A"))
	store.Put(mustTemplate(t, "b", "B"))

	// Reading "a" must not protect it from eviction.
	_, found := store.Get("a")
	require.True(t, found)

	evicted, ok := store.Put(mustTemplate(t, "c", "C"))
	assert.True(t, ok)
	assert.Equal(t, "a", evicted)

	_, found = store.Get("a")
	assert.False(t, found)
	assert.Equal(t, []string{"b", "c"}, store.IDs())
}

func TestTemplateStore_ReplaceKeepsPosition(t *testing.T) {
	store := NewTemplateStore(2)

	store.Put(mustTemplate(t, "a", "first"))
	store.Put(mustTemplate(t, "b", "B"))

	_, ok := store.Put(mustTemplate(t, "a", "second"))
	assert.False(t, ok, "replacing an existing id must not evict")

	got, _ := store.Get("a")
	assert.Equal(t, "second", got.Content)

	evicted, ok := store.Put(mustTemplate(t, "c", "C"))
	assert.True(t, ok)
	assert.Equal(t, "a", evicted)
}

func TestTemplateStore_RemoveAndClear(t *testing.T) {
	store := NewTemplateStore(3)
	store.Put(mustTemplate(t, "a", "A"))
	store.Put(mustTemplate(t, "b", "B"))

	assert.True(t, store.Remove("a"))
	assert.False(t, store.Remove("a"))
	assert.Equal(t, []string{"b"}, store.IDs())

	store.Clear()
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.IDs())
}

func TestTemplateStore_Unbounded(t *testing.T) {
	store := NewTemplateStore(0)
	for i := 0; i < 500; i++ {
		_, ok := store.Put(mustTemplate(t, fmt.Sprintf("t%d", i), "x"))
		require.False(t, ok)
	}
	assert.Equal(t, 500, store.Len())
}

func TestTemplateStore_Concurrent(t *testing.T) {
	store := NewTemplateStore(50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("t-%d-%d", n, j)
				tmpl, err := NewTemplate(id, "{{x}}")
				if err != nil {
					t.Error(err)
					return
				}
				store.Put(tmpl)
				store.Get(id)
				store.IDs()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
	assert.Len(t, store.IDs(), 50)
}
