package network

import "context"

// NodeAttributes is the label-per-node mapping attached to an exported graph.
type NodeAttributes struct {
	ID         NodeID
	Attributes map[string]interface{}
}

// EdgeAttributes is the label-per-edge mapping attached to an exported graph.
// Interaction is "cosine" for similarity edges and the motif id for virtual
// motif edges.
type EdgeAttributes struct {
	Source      NodeID
	Target      NodeID
	Interaction string
	Attributes  map[string]interface{}
}

// Repository persists an annotated network produced by one run.
type Repository interface {
	SaveNodes(ctx context.Context, runID string, nodes []NodeAttributes) error
	SaveEdges(ctx context.Context, runID string, edges []EdgeAttributes) error
	DeleteRun(ctx context.Context, runID string) error
	CountNodes(ctx context.Context, runID string) (int, error)
}
