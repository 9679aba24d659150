package ontology

import (
	"strconv"

	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
)

// SummaryRow is the family-level classification summary joined onto a node.
type SummaryRow struct {
	Node       network.NodeID
	Family     network.FamilyID
	FamilySize int
	Levels     [NumLevels]FamilyScore
}

// Aggregate assigns singleton families, scores every level and joins the
// family results back onto each node, in node-table order.  perNode is keyed
// by identity key, the same key space as lookups.
func Aggregate(rows []network.NodeRow, lookups Lookups, perNode map[network.NodeID][]string) []SummaryRow {
	families := network.GroupByFamily(network.AssignSingletonFamilies(rows))

	var byLevel [NumLevels]map[network.FamilyID]FamilyScore
	for _, l := range AllLevels {
		scores := ScoreLevel(families, lookups[l], perNode)
		byLevel[l] = make(map[network.FamilyID]FamilyScore, len(scores))
		for _, s := range scores {
			byLevel[l][s.Family] = s
		}
	}

	out := make([]SummaryRow, 0, len(rows))
	seen := make(map[network.NodeID]bool, len(rows))
	for _, r := range rows {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		fid, _ := families.FamilyOf(r.ID)
		f, _ := families.Get(fid)
		row := SummaryRow{Node: r.ID, Family: fid, FamilySize: f.Size()}
		for _, l := range AllLevels {
			row.Levels[l] = byLevel[l][fid]
		}
		out = append(out, row)
	}
	return out
}

// SummaryColumns is the header of the per-node summary table.
func SummaryColumns() []string {
	cols := []string{"cluster index", "CF_componentindex", "CF_NrNodes"}
	for _, l := range AllLevels {
		cols = append(cols, l.Column(), l.ScoreColumn())
	}
	return cols
}

// Values renders the row in SummaryColumns order.
func (r SummaryRow) Values() []string {
	vals := []string{r.Node.String(), string(r.Family), strconv.Itoa(r.FamilySize)}
	for _, l := range AllLevels {
		vals = append(vals, r.Levels[l].Class, r.Levels[l].ScoreString())
	}
	return vals
}

// Attributes renders the row as graph node attributes.  Score attributes are
// omitted for levels without a score.
func (r SummaryRow) Attributes() map[string]interface{} {
	attrs := map[string]interface{}{
		"CF_componentindex": string(r.Family),
		"CF_NrNodes":        float64(r.FamilySize),
	}
	for _, l := range AllLevels {
		attrs[l.Column()] = r.Levels[l].Class
		if r.Levels[l].HasScore {
			attrs[l.ScoreColumn()] = r.Levels[l].Score
		}
	}
	return attrs
}
