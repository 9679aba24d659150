package ontology

import (
	"strconv"

	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
)

// FamilyScore is the dominant class of one family at one level.
type FamilyScore struct {
	Family network.FamilyID
	Size   int
	Class  string
	Score  float64
	// HasScore is false for families without any classified node; Class is
	// then NoMatches and Score must be ignored.
	HasScore bool
}

// ScoreString renders the score for tables: empty when there is none.
func (s FamilyScore) ScoreString() string {
	if !s.HasScore {
		return ""
	}
	return strconv.FormatFloat(s.Score, 'g', -1, 64)
}

// ScoreLevel computes the dominant class of every family at one level.
//
// Each node with at least one structure found in lookup casts a vote that
// sums to 1, split across its classes in proportion to its structure counts.
// Votes are summed per family; the class with the highest total wins, ties
// going to the class encountered first (members in family order, structures
// in per-node order).  The score is the winning total divided by the family
// size, unclassified members included.
func ScoreLevel(families *network.Families, lookup Lookup, perNode map[network.NodeID][]string) []FamilyScore {
	out := make([]FamilyScore, 0, families.Len())
	for _, f := range families.All() {
		sums := make(map[string]float64)
		var order []string

		for _, node := range f.Members {
			counts, classes, total := nodeVotes(perNode[node], lookup)
			if total == 0 {
				continue
			}
			for _, c := range classes {
				if _, seen := sums[c]; !seen {
					order = append(order, c)
				}
				sums[c] += float64(counts[c]) / float64(total)
			}
		}

		fs := FamilyScore{Family: f.ID, Size: f.Size()}
		if len(order) == 0 {
			fs.Class = NoMatches
			out = append(out, fs)
			continue
		}
		best := order[0]
		for _, c := range order[1:] {
			if sums[c] > sums[best] {
				best = c
			}
		}
		fs.Class = best
		fs.Score = sums[best] / float64(f.Size())
		fs.HasScore = true
		out = append(out, fs)
	}
	return out
}

// nodeVotes counts the classes of a node's structures.  classes lists the
// distinct classes in first-seen order; total is the number of structures
// that had a class.
func nodeVotes(structures []string, lookup Lookup) (counts map[string]int, classes []string, total int) {
	counts = make(map[string]int)
	for _, s := range structures {
		c, ok := lookup[s]
		if !ok {
			continue
		}
		if counts[c] == 0 {
			classes = append(classes, c)
		}
		counts[c]++
		total++
	}
	return counts, classes, total
}
