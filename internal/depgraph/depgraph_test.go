package depgraph

// Test Plan for the dependency graph:
// - Modules become module nodes; unknown imports become external nodes
// - Dependencies/Dependents list direct neighbours
// - TopologicalOrder puts imports before importers and is stable
// - Cycles are reported and make TopologicalOrder fail
// - WriteDOT renders a digraph with the module edges

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/modforge/internal/definition"
)

func def(ns, name string, deps ...string) *definition.ModuleDef {
	return definition.NewModuleDefBuilder().
		SetDescriptor(definition.NewModuleDescriptor(ns, name)).
		SetDependencies(deps).
		Build()
}

func sample(t *testing.T) *Graph {
	t.Helper()
	g, err := New([]*definition.ModuleDef{
		def("c", "list", "c/card", "lwc"),
		def("c", "card", "ui/button", "lwc"),
		def("ui", "button", "lwc"),
	})
	require.NoError(t, err)
	return g
}

func TestNew(t *testing.T) {
	t.Parallel()

	g := sample(t)

	nodes, edges, err := g.Len()
	require.NoError(t, err)
	assert.Equal(t, 4, nodes)
	assert.Equal(t, 5, edges)

	card, ok := g.Node("c/card")
	require.True(t, ok)
	assert.Equal(t, KindModule, card.Kind)
	assert.Equal(t, "c:card", card.Definition.Descriptor().DescriptorName())

	lwc, ok := g.Node("lwc")
	require.True(t, ok)
	assert.Equal(t, KindExternal, lwc.Kind)
	assert.Nil(t, lwc.Definition)

	_, ok = g.Node("nope")
	assert.False(t, ok)
}

func TestNeighbours(t *testing.T) {
	t.Parallel()

	g := sample(t)

	deps, err := g.Dependencies("c/list")
	require.NoError(t, err)
	assert.Equal(t, []string{"c/card", "lwc"}, deps)

	dependents, err := g.Dependents("lwc")
	require.NoError(t, err)
	assert.Equal(t, []string{"c/card", "c/list", "ui/button"}, dependents)

	_, err = g.Dependencies("missing")
	assert.Error(t, err)
}

func TestTopologicalOrder(t *testing.T) {
	t.Parallel()

	order, err := sample(t).TopologicalOrder()
	require.NoError(t, err)

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	assert.Len(t, order, 4)
	assert.Less(t, pos["lwc"], pos["ui/button"])
	assert.Less(t, pos["ui/button"], pos["c/card"])
	assert.Less(t, pos["c/card"], pos["c/list"])

	again, err := sample(t).TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, order, again)
}

func TestCycles(t *testing.T) {
	t.Parallel()

	g, err := New([]*definition.ModuleDef{
		def("c", "a", "c/b"),
		def("c", "b", "c/a"),
		def("c", "solo", "lwc"),
	})
	require.NoError(t, err)

	cycles, err := g.Cycles()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"c/a", "c/b"}}, cycles)

	_, err = g.TopologicalOrder()
	assert.Error(t, err)

	none, err := sample(t).Cycles()
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWriteDOT(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, sample(t).WriteDOT(&buf))

	out := buf.String()
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, `"c/list" -> "c/card"`)
	assert.Contains(t, out, `"ui/button" -> "lwc"`)
}
