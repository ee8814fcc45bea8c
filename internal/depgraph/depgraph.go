// Package depgraph links compiled modules by the imports their compiler
// reported. It is a reporting aid; module resolution at runtime does not
// depend on it.
package depgraph

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/mvp-joe/modforge/internal/definition"
)

// NodeKind distinguishes compiled modules from imports outside the build.
type NodeKind string

const (
	KindModule   NodeKind = "module"
	KindExternal NodeKind = "external"
)

// Node is a vertex of the dependency graph. Module IDs use the import
// specifier form "namespace/name".
type Node struct {
	ID         string
	Kind       NodeKind
	Definition *definition.ModuleDef
}

// Graph is a directed graph with an edge from each module to its imports.
type Graph struct {
	g graph.Graph[string, *Node]
}

// SpecifierFor returns the import specifier other modules use for desc.
func SpecifierFor(desc definition.Descriptor) string {
	return desc.Namespace + "/" + desc.Name
}

// New builds the graph. Dependencies that are not among defs become external
// nodes.
func New(defs []*definition.ModuleDef) (*Graph, error) {
	g := graph.New(func(n *Node) string { return n.ID }, graph.Directed())

	for _, def := range defs {
		node := &Node{ID: SpecifierFor(def.Descriptor()), Kind: KindModule, Definition: def}
		err := g.AddVertex(node, graph.VertexAttribute("shape", "box"))
		if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("failed to add module %s: %w", node.ID, err)
		}
	}

	for _, def := range defs {
		from := SpecifierFor(def.Descriptor())
		for _, dep := range def.Dependencies() {
			if _, err := g.Vertex(dep); errors.Is(err, graph.ErrVertexNotFound) {
				ext := &Node{ID: dep, Kind: KindExternal}
				if err := g.AddVertex(ext, graph.VertexAttribute("style", "dashed")); err != nil {
					return nil, fmt.Errorf("failed to add external %s: %w", dep, err)
				}
			}
			if err := g.AddEdge(from, dep); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("failed to link %s -> %s: %w", from, dep, err)
			}
		}
	}

	return &Graph{g: g}, nil
}

// Node returns the vertex with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, err := g.g.Vertex(id)
	if err != nil {
		return nil, false
	}
	return n, true
}

// Dependencies lists the direct imports of id, sorted.
func (g *Graph) Dependencies(id string) ([]string, error) {
	adjacency, err := g.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	edges, ok := adjacency[id]
	if !ok {
		return nil, fmt.Errorf("unknown node %s", id)
	}
	return sortedKeys(edges), nil
}

// Dependents lists the modules importing id directly, sorted.
func (g *Graph) Dependents(id string) ([]string, error) {
	predecessors, err := g.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	edges, ok := predecessors[id]
	if !ok {
		return nil, fmt.Errorf("unknown node %s", id)
	}
	return sortedKeys(edges), nil
}

// TopologicalOrder lists every node with dependencies before the modules that
// import them. Ties are broken alphabetically so the order is stable. It
// fails when the modules import each other in a cycle.
func (g *Graph) TopologicalOrder() ([]string, error) {
	order, err := graph.StableTopologicalSort(g.g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, err
	}
	// Edges point from importer to import; reverse so imports come first.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// Cycles returns each group of mutually importing modules, members sorted.
func (g *Graph) Cycles() ([][]string, error) {
	components, err := graph.StronglyConnectedComponents(g.g)
	if err != nil {
		return nil, err
	}
	var cycles [][]string
	for _, c := range components {
		if len(c) > 1 {
			sort.Strings(c)
			cycles = append(cycles, c)
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return strings.Join(cycles[i], ",") < strings.Join(cycles[j], ",") })
	return cycles, nil
}

// Len returns the number of nodes and edges.
func (g *Graph) Len() (nodes, edges int, err error) {
	adjacency, err := g.g.AdjacencyMap()
	if err != nil {
		return 0, 0, err
	}
	for _, out := range adjacency {
		edges += len(out)
	}
	return len(adjacency), edges, nil
}

// WriteDOT renders the graph in Graphviz DOT format.
func (g *Graph) WriteDOT(w io.Writer) error {
	return draw.DOT(g.g, w, draw.GraphAttribute("rankdir", "LR"))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
