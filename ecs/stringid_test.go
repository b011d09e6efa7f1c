package ecs_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/plus3/simcore/ecs"
	"github.com/stretchr/testify/assert"
)

func TestStringTableRoundTrip(t *testing.T) {
	table := ecs.NewStringTable()

	for _, s := range []string{"", "Transform", "transform", "a longer name with spaces", "ü"} {
		id := table.Intern(s)
		assert.Equal(t, id, table.Intern(s), "interning %q twice", s)

		got, ok := table.Resolve(id)
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}

	assert.Equal(t, ecs.StringId(0), table.Intern(""))
}

func TestStringTableUnknownId(t *testing.T) {
	table := ecs.NewStringTable()

	_, ok := table.Resolve(12345)
	assert.False(t, ok)

	_, ok = table.Find("never interned")
	assert.False(t, ok)
	assert.Equal(t, 1, table.Len())
}

func TestStringTablesAreIndependent(t *testing.T) {
	a := ecs.NewStringTable()
	b := ecs.NewStringTable()

	a.Intern("only-in-a")
	idB := b.Intern("only-in-b")

	_, ok := a.Find("only-in-b")
	assert.False(t, ok)
	got, _ := b.Resolve(idB)
	assert.Equal(t, "only-in-b", got)
}

func TestStringTableConcurrentIntern(t *testing.T) {
	table := ecs.NewStringTable()

	const workers = 8
	results := make([][]ecs.StringId, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				results[w] = append(results[w], table.Intern(fmt.Sprintf("name-%d", i)))
			}
		}(w)
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		assert.Equal(t, results[0], results[w])
	}
	assert.Equal(t, 101, table.Len())
}

func TestProcessWideTable(t *testing.T) {
	id := ecs.SID("ProcessWideName")
	assert.Equal(t, "ProcessWideName", ecs.Lookup(id))
	assert.Equal(t, "ProcessWideName", id.String())
	assert.Equal(t, "", ecs.Lookup(ecs.StringId(1<<31)))
}
