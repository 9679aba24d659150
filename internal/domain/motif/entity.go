// Package motif overlays MS2LDA Mass2Motif assignments onto a molecular
// network: per-node motif summaries, shared motifs per edge, the most shared
// motifs per family, and one virtual edge per shared motif.
package motif

import (
	"strconv"
	"strings"

	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
)

// Assignment is one row of the MS2LDA motif summary table.
type Assignment struct {
	Node          network.NodeID
	Motif         string
	Probability   float64
	Overlap       float64
	PrecursorMass float64
	RetentionTime float64
	Document      string
}

// Options holds the mapping thresholds.
type Options struct {
	// MinProbability and MinOverlap are exclusive lower bounds.
	MinProbability float64
	MinOverlap     float64
	// Top is the number of most shared motifs kept per family.
	Top int
}

// DefaultOptions returns the MS2LDA defaults.
func DefaultOptions() Options {
	return Options{MinProbability: 0.01, MinOverlap: 0.3, Top: 5}
}

// InteractionCosine labels the original similarity edges.
const InteractionCosine = "cosine"

// NodeSummary collects a node's surviving assignments in table order.
type NodeSummary struct {
	Node        network.NodeID
	Assignments []Assignment
	// Motifs lists the distinct motif ids in first-seen order.
	Motifs []string
}

// OverlapOf returns the overlap score of motif m on this node, 0 if absent.
func (n NodeSummary) OverlapOf(m string) float64 {
	for _, a := range n.Assignments {
		if a.Motif == m {
			return a.Overlap
		}
	}
	return 0
}

// AnnotatedEdge is a base similarity edge or a virtual motif edge.
type AnnotatedEdge struct {
	network.Edge

	// Interaction is InteractionCosine for base edges and the motif id for
	// virtual edges.
	Interaction string
	// Motif is empty for base edges.
	Motif string

	SharedMotifs    []string
	TopSharedMotifs []string
}

// IsVirtual reports whether the record stands for a single shared motif.
func (e AnnotatedEdge) IsVirtual() bool { return e.Motif != "" }

// Result is the motif-annotated network.
type Result struct {
	Nodes []NodeSummary
	// Edges holds every base edge followed by the virtual edges.
	Edges []AnnotatedEdge
	// Motifs lists every surviving motif id in first-seen order; it is the
	// column set of the per-node overlap matrix.
	Motifs []string
	// HasAnnotation is true when the edge table carried EdgeAnnotation.
	HasAnnotation bool
}

// ─────────────────────────────────────────────────────────────────────────────
// Rendering
// ─────────────────────────────────────────────────────────────────────────────

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func joinFloats(as []Assignment, f func(Assignment) float64) string {
	parts := make([]string, len(as))
	for i, a := range as {
		parts[i] = formatFloat(f(a))
	}
	return strings.Join(parts, ",")
}

func joinStrings(as []Assignment, f func(Assignment) string) string {
	parts := make([]string, len(as))
	for i, a := range as {
		parts[i] = f(a)
	}
	return strings.Join(parts, ",")
}

// Attributes renders the node summary as graph node attributes: the
// multi-valued fields comma-joined, plus one overlap attribute per motif.
func (n NodeSummary) Attributes(motifs []string) map[string]interface{} {
	attrs := map[string]interface{}{
		"precursormass": joinFloats(n.Assignments, func(a Assignment) float64 { return a.PrecursorMass }),
		"parentrt":      joinFloats(n.Assignments, func(a Assignment) float64 { return a.RetentionTime }),
		"document":      joinStrings(n.Assignments, func(a Assignment) string { return a.Document }),
		"motif":         joinStrings(n.Assignments, func(a Assignment) string { return a.Motif }),
		"probability":   joinFloats(n.Assignments, func(a Assignment) float64 { return a.Probability }),
		"overlap":       joinFloats(n.Assignments, func(a Assignment) float64 { return a.Overlap }),
	}
	for _, m := range motifs {
		attrs[m] = n.OverlapOf(m)
	}
	return attrs
}

// NodeColumns is the header of the motif node table.
func NodeColumns(motifs []string) []string {
	cols := []string{"scans", "precursormass", "parentrt", "document", "motif", "probability", "overlap"}
	return append(cols, motifs...)
}

// Values renders the node summary in NodeColumns order.
func (n NodeSummary) Values(motifs []string) []string {
	attrs := n.Attributes(nil)
	vals := []string{
		n.Node.String(),
		attrs["precursormass"].(string),
		attrs["parentrt"].(string),
		attrs["document"].(string),
		attrs["motif"].(string),
		attrs["probability"].(string),
		attrs["overlap"].(string),
	}
	for _, m := range motifs {
		vals = append(vals, formatFloat(n.OverlapOf(m)))
	}
	return vals
}

// EdgeColumns is the header of the motif edge table.
func EdgeColumns(withAnnotation bool) []string {
	cols := []string{"CLUSTERID1", "interaction", "CLUSTERID2", "DeltaMZ", "MEH", "Cosine", "OtherScore", "ComponentIndex"}
	if withAnnotation {
		cols = append(cols, "EdgeAnnotation")
	}
	return append(cols, "shared_motifs", "TopSharedMotifs")
}

// Values renders the edge in EdgeColumns order.
func (e AnnotatedEdge) Values(withAnnotation bool) []string {
	vals := []string{
		e.Source.String(),
		e.Interaction,
		e.Target.String(),
		formatFloat(e.DeltaMZ),
		formatFloat(e.MEH),
		formatFloat(e.Cosine),
		formatFloat(e.OtherScore),
		string(e.Family),
	}
	if withAnnotation {
		vals = append(vals, e.Annotation)
	}
	return append(vals, strings.Join(e.SharedMotifs, ","), strings.Join(e.TopSharedMotifs, ","))
}

// Attributes renders the edge as graph edge attributes.
func (e AnnotatedEdge) Attributes() map[string]interface{} {
	attrs := map[string]interface{}{
		"interaction":     e.Interaction,
		"DeltaMZ":         e.DeltaMZ,
		"MEH":             e.MEH,
		"Cosine":          e.Cosine,
		"OtherScore":      e.OtherScore,
		"ComponentIndex":  string(e.Family),
		"shared_motifs":   strings.Join(e.SharedMotifs, ","),
		"TopSharedMotifs": strings.Join(e.TopSharedMotifs, ","),
	}
	if e.HasAnnotation {
		attrs["EdgeAnnotation"] = e.Annotation
	}
	return attrs
}
