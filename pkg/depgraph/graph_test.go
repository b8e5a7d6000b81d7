package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
)

func TestCheckAcyclic(t *testing.T) {
	t.Run("empty_graph", func(t *testing.T) {
		assert.NoError(t, CheckAcyclic(Graph{}))
	})

	t.Run("linear_chain", func(t *testing.T) {
		graph := Graph{
			"api":   {"cache"},
			"cache": {"db"},
			"db":    nil,
		}
		assert.NoError(t, CheckAcyclic(graph))
	})

	t.Run("diamond", func(t *testing.T) {
		graph := Graph{
			"app":   {"left", "right"},
			"left":  {"base"},
			"right": {"base"},
			"base":  nil,
		}
		assert.NoError(t, CheckAcyclic(graph))
	})

	t.Run("self_cycle", func(t *testing.T) {
		err := CheckAcyclic(Graph{"a": {"a"}})
		require.Error(t, err)
		assert.True(t, errors.IsCyclicDependencyError(err))
	})

	t.Run("two_node_cycle", func(t *testing.T) {
		graph := Graph{
			"a": {"b"},
			"b": {"a"},
		}
		err := CheckAcyclic(graph)
		require.Error(t, err)
		assert.True(t, errors.IsCyclicDependencyError(err))
		assert.Contains(t, err.Error(), " -> ")
	})

	t.Run("long_cycle", func(t *testing.T) {
		graph := Graph{
			"a": {"b"},
			"b": {"c"},
			"c": {"a"},
		}
		err := CheckAcyclic(graph)
		require.Error(t, err)
		assert.True(t, errors.IsCyclicDependencyError(err))
	})

	t.Run("unknown_edges_tolerated", func(t *testing.T) {
		// Dependencies may be registered later; only edges between known
		// nodes participate in cycle detection.
		graph := Graph{
			"api": {"db", "cache"},
		}
		assert.NoError(t, CheckAcyclic(graph))
	})
}

func TestStartOrder(t *testing.T) {
	graph := Graph{
		"api":   {"cache", "db"},
		"cache": {"db"},
		"db":    nil,
	}

	t.Run("dependencies_before_dependents", func(t *testing.T) {
		order, err := StartOrder("api", graph)
		require.NoError(t, err)
		assert.Equal(t, []string{"db", "cache"}, order)
	})

	t.Run("no_dependencies", func(t *testing.T) {
		order, err := StartOrder("db", graph)
		require.NoError(t, err)
		assert.Empty(t, order)
	})

	t.Run("excludes_self", func(t *testing.T) {
		order, err := StartOrder("cache", graph)
		require.NoError(t, err)
		assert.NotContains(t, order, "cache")
	})

	t.Run("unknown_service", func(t *testing.T) {
		_, err := StartOrder("ghost", graph)
		require.Error(t, err)
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("unregistered_dependency", func(t *testing.T) {
		partial := Graph{
			"api": {"db"},
		}
		_, err := StartOrder("api", partial)
		require.Error(t, err)
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("shared_dependency_deduplicated", func(t *testing.T) {
		diamond := Graph{
			"app":   {"left", "right"},
			"left":  {"base"},
			"right": {"base"},
			"base":  nil,
		}
		order, err := StartOrder("app", diamond)
		require.NoError(t, err)
		assert.Len(t, order, 3)
		assert.Equal(t, "base", order[0])
	})
}

func TestOrder(t *testing.T) {
	graph := Graph{
		"api":    {"cache", "db"},
		"cache":  {"db"},
		"db":     nil,
		"worker": {"db"},
	}

	order := Order(graph)
	require.Len(t, order, 4)

	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}

	assert.Less(t, position["db"], position["cache"])
	assert.Less(t, position["cache"], position["api"])
	assert.Less(t, position["db"], position["worker"])
}
