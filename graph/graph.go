package graph

import (
	"context"
	"errors"
	"fmt"
)

// NodeType represents the type of a node in the graph
type NodeType string

const (
	NodeTypeStart     NodeType = "start"
	NodeTypeEnd       NodeType = "end"
	NodeTypeAction    NodeType = "action"
	NodeTypeCondition NodeType = "condition"
)

// ErrVisitLimit is returned when a node exceeds its visit budget and no
// fallback node is configured.
var ErrVisitLimit = errors.New("visit limit reached")

// NodeFunc is the function executed by a node
type NodeFunc[S any] func(context.Context, S) (S, error)

// ConditionFunc evaluates a condition and returns the key of the next node
type ConditionFunc[S any] func(context.Context, S) (string, error)

// LimitFunc runs when a node exceeds its visit budget, before control moves
// to the fallback node.
type LimitFunc[S any] func(ctx context.Context, state S, node string) (S, error)

// Node represents a node in the execution graph
type Node[S any] struct {
	Name      string
	Type      NodeType
	Execute   NodeFunc[S]
	Condition ConditionFunc[S]  // Only for condition nodes
	Next      string            // Successor for start and action nodes
	NextMap   map[string]string // For condition nodes: condition result -> next node
}

// Graph is a single-threaded state machine. Exactly one node is active at a
// time; condition nodes pick the successor, other nodes follow Next.
type Graph[S any] struct {
	nodes     map[string]*Node[S]
	startNode string
	endNode   string
	maxVisits int
	fallback  string
	onLimit   LimitFunc[S]
}

// NewGraph creates a new graph
func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:     make(map[string]*Node[S]),
		maxVisits: 10,
	}
}

func (g *Graph[S]) validateNode(node *Node[S]) {
	if node.Name == "" {
		panic("node name cannot be empty")
	}

	switch node.Type {
	case NodeTypeCondition:
		if node.Condition == nil {
			panic(fmt.Sprintf("condition node %s must have non-nil Condition function", node.Name))
		}
	case NodeTypeAction:
		if node.Execute == nil {
			panic(fmt.Sprintf("node %s of type %s must have non-nil Execute function", node.Name, node.Type))
		}
	}
}

// AddNode adds a node to the graph
func (g *Graph[S]) AddNode(node *Node[S]) {
	if _, exists := g.nodes[node.Name]; exists {
		panic(fmt.Sprintf("node %s already exists", node.Name))
	}

	g.validateNode(node)

	g.nodes[node.Name] = node

	if node.Type == NodeTypeStart {
		g.startNode = node.Name
	}
	if node.Type == NodeTypeEnd {
		g.endNode = node.Name
	}
}

// SetStartNode sets the start node
func (g *Graph[S]) SetStartNode(name string) {
	if _, exists := g.nodes[name]; !exists {
		panic(fmt.Sprintf("node %s not found", name))
	}
	g.startNode = name
}

// SetEndNode sets the end node
func (g *Graph[S]) SetEndNode(name string) {
	if _, exists := g.nodes[name]; !exists {
		panic(fmt.Sprintf("node %s not found", name))
	}
	g.endNode = name
}

// SetMaxVisits sets the maximum number of visits to a node
func (g *Graph[S]) SetMaxVisits(maxVisits int) {
	g.maxVisits = maxVisits
}

// SetFallback routes execution to node when any node exceeds its visit
// budget. onLimit, if non-nil, may adjust the state first.
func (g *Graph[S]) SetFallback(node string, onLimit LimitFunc[S]) {
	if _, exists := g.nodes[node]; !exists {
		panic(fmt.Sprintf("node %s not found", node))
	}
	g.fallback = node
	g.onLimit = onLimit
}

// GetNode returns a node by name
func (g *Graph[S]) GetNode(name string) (*Node[S], error) {
	node, exists := g.nodes[name]
	if !exists {
		return nil, fmt.Errorf("node %s not found", name)
	}
	return node, nil
}

// Execute runs the graph from the start node until an end node returns.
// The context is checked before every node, so cancellation takes effect at
// node boundaries. When the visit budget is exceeded execution jumps to the
// fallback node once; a second overflow is an error.
func (g *Graph[S]) Execute(ctx context.Context, state S) (S, error) {
	if g.startNode == "" {
		return state, fmt.Errorf("start node not set")
	}

	visited := make(map[string]int)
	current := g.startNode
	limited := false

	for {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, exists := g.nodes[current]
		if !exists {
			return state, fmt.Errorf("node %s not found", current)
		}

		visited[current]++
		if visited[current] > g.maxVisits {
			if g.fallback == "" || limited {
				return state, fmt.Errorf("%w at node %s", ErrVisitLimit, current)
			}
			limited = true
			if g.onLimit != nil {
				var err error
				state, err = g.onLimit(ctx, state, current)
				if err != nil {
					return state, err
				}
			}
			current = g.fallback
			continue
		}

		switch node.Type {
		case NodeTypeEnd:
			if node.Execute == nil {
				return state, nil
			}
			return node.Execute(ctx, state)

		case NodeTypeCondition:
			result, err := node.Condition(ctx, state)
			if err != nil {
				return state, fmt.Errorf("error evaluating condition at node %s: %w", node.Name, err)
			}
			next := node.NextMap[result]
			if next == "" {
				return state, fmt.Errorf("no next node for result %q at node %s", result, node.Name)
			}
			current = next

		default:
			if node.Execute != nil {
				var err error
				state, err = node.Execute(ctx, state)
				if err != nil {
					return state, fmt.Errorf("error executing node %s: %w", node.Name, err)
				}
			}
			if node.Next == "" {
				return state, fmt.Errorf("no next node specified for node %s", node.Name)
			}
			current = node.Next
		}
	}
}

// Builder helps build graphs fluently
type Builder[S any] struct {
	graph *Graph[S]
}

// NewBuilder creates a new graph builder
func NewBuilder[S any]() *Builder[S] {
	return &Builder[S]{
		graph: NewGraph[S](),
	}
}

// AddNode adds a node to the graph
func (b *Builder[S]) AddNode(name string, nodeType NodeType, execute NodeFunc[S]) *Builder[S] {
	b.graph.AddNode(&Node[S]{
		Name:    name,
		Type:    nodeType,
		Execute: execute,
	})
	return b
}

// AddConditionNode adds a condition node
func (b *Builder[S]) AddConditionNode(name string, condition ConditionFunc[S], nextMap map[string]string) *Builder[S] {
	b.graph.AddNode(&Node[S]{
		Name:      name,
		Type:      NodeTypeCondition,
		Condition: condition,
		NextMap:   nextMap,
	})
	return b
}

// AddEdge connects two nodes
func (b *Builder[S]) AddEdge(from, to string) *Builder[S] {
	node, exists := b.graph.nodes[from]
	if !exists {
		panic(fmt.Sprintf("node %s not found", from))
	}
	node.Next = to
	return b
}

// SetStart sets the start node
func (b *Builder[S]) SetStart(name string) *Builder[S] {
	b.graph.SetStartNode(name)
	return b
}

// SetEnd sets the end node
func (b *Builder[S]) SetEnd(name string) *Builder[S] {
	b.graph.SetEndNode(name)
	return b
}

// SetMaxVisits sets the maximum number of visits to a node
func (b *Builder[S]) SetMaxVisits(maxVisits int) *Builder[S] {
	b.graph.SetMaxVisits(maxVisits)
	return b
}

// SetFallback sets the node taken when a visit budget is exceeded
func (b *Builder[S]) SetFallback(name string, onLimit LimitFunc[S]) *Builder[S] {
	b.graph.SetFallback(name, onLimit)
	return b
}

// Build returns the constructed graph
func (b *Builder[S]) Build() *Graph[S] {
	return b.graph
}
