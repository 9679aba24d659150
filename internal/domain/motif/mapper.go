package motif

import (
	"fmt"
	"sort"

	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
)

// Filter keeps the assignments whose probability and overlap both exceed
// the thresholds.
func Filter(assignments []Assignment, opts Options) []Assignment {
	out := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.Probability > opts.MinProbability && a.Overlap > opts.MinOverlap {
			out = append(out, a)
		}
	}
	return out
}

// Summarize groups assignments by node, in first-seen node order.
func Summarize(assignments []Assignment) []NodeSummary {
	idx := make(map[network.NodeID]int)
	var out []NodeSummary
	for _, a := range assignments {
		i, ok := idx[a.Node]
		if !ok {
			i = len(out)
			idx[a.Node] = i
			out = append(out, NodeSummary{Node: a.Node})
		}
		n := &out[i]
		n.Assignments = append(n.Assignments, a)
		if !contains(n.Motifs, a.Motif) {
			n.Motifs = append(n.Motifs, a.Motif)
		}
	}
	return out
}

// SharedMotifs returns the motifs present in both a and b, in a's order.
// The result is empty, never nil.
func SharedMotifs(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, m := range b {
		inB[m] = true
	}
	out := []string{}
	for _, m := range a {
		if inB[m] && !contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}

// TopSharedMotifs ranks the motifs of the pooled shared-motif sets by
// occurrence count, descending, ties going to the motif seen first, and
// keeps at most top distinct ids.
func TopSharedMotifs(sets [][]string, top int) []string {
	counts := make(map[string]int)
	var order []string
	for _, set := range sets {
		for _, m := range set {
			if counts[m] == 0 {
				order = append(order, m)
			}
			counts[m]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if top >= 0 && len(order) > top {
		order = order[:top]
	}
	if order == nil {
		order = []string{}
	}
	return order
}

// Map overlays the filtered assignments onto edges.  Edges are grouped by
// family for the top-k ranking; edges whose family is the raw unclustered id
// are each ranked on their own.
func Map(edges []network.Edge, assignments []Assignment, opts Options) Result {
	filtered := Filter(assignments, opts)
	nodes := Summarize(filtered)

	byNode := make(map[network.NodeID][]string, len(nodes))
	var motifs []string
	for _, n := range nodes {
		byNode[n.Node] = n.Motifs
		for _, m := range n.Motifs {
			if !contains(motifs, m) {
				motifs = append(motifs, m)
			}
		}
	}

	res := Result{Nodes: nodes, Motifs: motifs}

	shared := make([][]string, len(edges))
	groupOf := make([]string, len(edges))
	groups := make(map[string][][]string)
	for i, e := range edges {
		if e.HasAnnotation {
			res.HasAnnotation = true
		}
		a, okA := byNode[e.Source]
		b, okB := byNode[e.Target]
		if okA && okB {
			shared[i] = SharedMotifs(a, b)
		} else {
			shared[i] = []string{}
		}

		g := string(e.Family)
		if e.Family.IsUnclustered() {
			g = fmt.Sprintf("edge#%d", i)
		}
		groupOf[i] = g
		groups[g] = append(groups[g], shared[i])
	}

	topByGroup := make(map[string][]string, len(groups))
	for g, sets := range groups {
		topByGroup[g] = TopSharedMotifs(sets, opts.Top)
	}

	base := make([]AnnotatedEdge, len(edges))
	var virtual []AnnotatedEdge
	for i, e := range edges {
		base[i] = AnnotatedEdge{
			Edge:            e,
			Interaction:     InteractionCosine,
			SharedMotifs:    shared[i],
			TopSharedMotifs: topByGroup[groupOf[i]],
		}
		for _, m := range shared[i] {
			v := base[i]
			v.Interaction = m
			v.Motif = m
			virtual = append(virtual, v)
		}
	}
	res.Edges = append(base, virtual...)
	return res
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
