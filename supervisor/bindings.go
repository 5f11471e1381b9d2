package supervisor

import (
	"context"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/router"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// Retriever runs the data-retrieval step.
type Retriever interface {
	Retrieve(ctx context.Context, question string) *turn.Retrieval
}

// Searcher runs the contextual-search step.
type Searcher interface {
	Search(ctx context.Context, question string) *turn.Search
}

// Visualizer runs the chart step over rows retrieved this turn.
type Visualizer interface {
	Visualize(ctx context.Context, question string, table *turn.Table) *turn.Chart
}

// Dispatcher runs the notification step.
type Dispatcher interface {
	Dispatch(ctx context.Context, question string, material turn.Material) *turn.Dispatch
}

// Summarizer writes the reply that ends the turn.
type Summarizer interface {
	Summarize(ctx context.Context, st *turn.State) (string, error)
}

// Decider picks the next step.
type Decider interface {
	Decide(ctx context.Context, st *turn.State) (router.Decision, error)
}

// Agents binds each non-terminal label to its implementation. A missing
// binding records a failure marker when selected.
type Agents struct {
	Retriever  Retriever
	Searcher   Searcher
	Visualizer Visualizer
	Dispatcher Dispatcher
}
