package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/MolNetEnhancer/internal/application/enhancer"
)

// reportView is the printable form of a run report.
type reportView struct {
	RunID        string            `json:"run_id"`
	Command      string            `json:"command"`
	Nodes        int               `json:"nodes"`
	Edges        int               `json:"edges"`
	Families     int               `json:"families"`
	Singletons   int               `json:"singletons,omitempty"`
	Motifs       int               `json:"motifs,omitempty"`
	Classified   int               `json:"classified,omitempty"`
	Unclassified int               `json:"unclassified,omitempty"`
	LookupFailed int               `json:"lookup_failed,omitempty"`
	Outputs      map[string]string `json:"outputs"`
	Artifacts    []string          `json:"artifacts,omitempty"`
	Duration     string            `json:"duration"`
}

func newReportView(r *enhancer.RunReport) reportView {
	v := reportView{
		RunID:        r.RunID,
		Command:      r.Command,
		Nodes:        r.Nodes,
		Edges:        r.Edges,
		Families:     r.Families,
		Singletons:   r.Singletons,
		Motifs:       r.Motifs,
		Classified:   r.Lookups.Classified,
		Unclassified: r.Lookups.Unclassified,
		LookupFailed: r.Lookups.LookupFailed,
		Outputs:      r.Outputs,
		Duration:     r.Duration().Round(time.Millisecond).String(),
	}
	for _, a := range r.Artifacts {
		v.Artifacts = append(v.Artifacts, a.ObjectKey)
	}
	return v
}

func (v reportView) outputNames() []string {
	names := make([]string, 0, len(v.Outputs))
	for name := range v.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v reportView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s run %s finished in %s\n", v.Command, v.RunID, v.Duration)
	fmt.Fprintf(&sb, "  nodes: %d  edges: %d  families: %d", v.Nodes, v.Edges, v.Families)
	if v.Singletons > 0 {
		fmt.Fprintf(&sb, " (%d singletons)", v.Singletons)
	}
	if v.Motifs > 0 {
		fmt.Fprintf(&sb, "  motifs: %d", v.Motifs)
	}
	sb.WriteString("\n")
	if v.Classified+v.Unclassified+v.LookupFailed > 0 {
		fmt.Fprintf(&sb, "  classified: %d  unclassified: %d  lookup failed: %d\n",
			v.Classified, v.Unclassified, v.LookupFailed)
	}
	for _, name := range v.outputNames() {
		fmt.Fprintf(&sb, "  wrote %s\n", v.Outputs[name])
	}
	for _, key := range v.Artifacts {
		fmt.Fprintf(&sb, "  uploaded %s\n", key)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (v reportView) TableHeaders() []string { return []string{"FIELD", "VALUE"} }

func (v reportView) TableRows() [][]string {
	rows := [][]string{
		{"run_id", v.RunID},
		{"command", v.Command},
		{"nodes", strconv.Itoa(v.Nodes)},
		{"edges", strconv.Itoa(v.Edges)},
		{"families", strconv.Itoa(v.Families)},
		{"singletons", strconv.Itoa(v.Singletons)},
		{"motifs", strconv.Itoa(v.Motifs)},
		{"classified", strconv.Itoa(v.Classified)},
		{"unclassified", strconv.Itoa(v.Unclassified)},
		{"lookup_failed", strconv.Itoa(v.LookupFailed)},
	}
	for _, name := range v.outputNames() {
		rows = append(rows, []string{name, v.Outputs[name]})
	}
	return append(rows, []string{"duration", v.Duration})
}
