package relgraph

import (
	"context"
	"time"
)

// AdjacencyReader supplies the outgoing transfer edges of an account
type AdjacencyReader interface {
	OutgoingTransfers(ctx context.Context, accountID string) ([]TransferEdge, error)
}

// Cycle is a money ring found in the relationship graph. Path alternates
// account and transaction identifiers, starting and ending at the origin
// account, e.g. [A001 T001 A002 T002 A001].
type Cycle struct {
	Path []string
	Hops int
	Span time.Duration
}

// CycleDetector searches for short transaction rings that return funds to
// their origin within a small time window.
type CycleDetector struct {
	adjacency AdjacencyReader
	maxHops   int
	window    time.Duration
}

// NewCycleDetector creates a detector bounded to maxHops account-to-account
// hops, considering only rings whose transactions all fall within window.
func NewCycleDetector(adjacency AdjacencyReader, maxHops int, window time.Duration) *CycleDetector {
	if maxHops < 2 {
		maxHops = 2
	}
	return &CycleDetector{adjacency: adjacency, maxHops: maxHops, window: window}
}

// Detect runs an iterative-deepening depth-first search from the origin
// account, shallowest rings first, and returns the first ring found or nil.
// A ring qualifies only when the spread between its earliest and latest
// transaction timestamps is strictly below the window.
func (d *CycleDetector) Detect(ctx context.Context, originID string) (*Cycle, error) {
	search := &cycleSearch{
		ctx:       ctx,
		adjacency: d.adjacency,
		origin:    originID,
		window:    d.window,
		edges:     make(map[string][]TransferEdge),
	}

	for depth := 2; depth <= d.maxHops; depth++ {
		cycle, err := search.walk(originID, depth, nil, map[string]bool{originID: true})
		if err != nil {
			return nil, err
		}
		if cycle != nil {
			return cycle, nil
		}
	}
	return nil, nil
}

type cycleSearch struct {
	ctx       context.Context
	adjacency AdjacencyReader
	origin    string
	window    time.Duration

	// adjacency is fetched at most once per account across all depths
	edges map[string][]TransferEdge
}

type pathStep struct {
	edge TransferEdge
	prev *pathStep
}

func (s *cycleSearch) outgoing(accountID string) ([]TransferEdge, error) {
	if edges, ok := s.edges[accountID]; ok {
		return edges, nil
	}
	edges, err := s.adjacency.OutgoingTransfers(s.ctx, accountID)
	if err != nil {
		return nil, err
	}
	s.edges[accountID] = edges
	return edges, nil
}

// walk extends the current path from accountID with remaining hops left.
// The visited set keeps intermediate accounts distinct; only the origin may
// repeat, and only as the final node.
func (s *cycleSearch) walk(accountID string, remaining int, tail *pathStep, visited map[string]bool) (*Cycle, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}

	edges, err := s.outgoing(accountID)
	if err != nil {
		return nil, err
	}

	for _, edge := range edges {
		if !s.withinWindow(tail, edge) {
			continue
		}

		step := &pathStep{edge: edge, prev: tail}
		if edge.ToAccountID == s.origin {
			if remaining == 1 {
				return s.buildCycle(step), nil
			}
			continue
		}
		if remaining == 1 || visited[edge.ToAccountID] {
			continue
		}

		visited[edge.ToAccountID] = true
		cycle, err := s.walk(edge.ToAccountID, remaining-1, step, visited)
		delete(visited, edge.ToAccountID)
		if err != nil {
			return nil, err
		}
		if cycle != nil {
			return cycle, nil
		}
	}
	return nil, nil
}

// withinWindow prunes any path whose timestamp spread would reach the window
// once edge is appended.
func (s *cycleSearch) withinWindow(tail *pathStep, edge TransferEdge) bool {
	earliest, latest := edge.Timestamp, edge.Timestamp
	for step := tail; step != nil; step = step.prev {
		if step.edge.Timestamp.Before(earliest) {
			earliest = step.edge.Timestamp
		}
		if step.edge.Timestamp.After(latest) {
			latest = step.edge.Timestamp
		}
	}
	return latest.Sub(earliest) < s.window
}

func (s *cycleSearch) buildCycle(last *pathStep) *Cycle {
	var steps []TransferEdge
	for step := last; step != nil; step = step.prev {
		steps = append(steps, step.edge)
	}
	// reverse into origin-first order
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}

	path := make([]string, 0, 2*len(steps)+1)
	path = append(path, s.origin)
	earliest, latest := steps[0].Timestamp, steps[0].Timestamp
	for _, step := range steps {
		path = append(path, step.TransactionID, step.ToAccountID)
		if step.Timestamp.Before(earliest) {
			earliest = step.Timestamp
		}
		if step.Timestamp.After(latest) {
			latest = step.Timestamp
		}
	}

	return &Cycle{
		Path: path,
		Hops: len(steps),
		Span: latest.Sub(earliest),
	}
}
