package repositories

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
	driver "github.com/turtacn/MolNetEnhancer/internal/infrastructure/database/neo4j"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
)

// batchSize bounds the rows sent in one UNWIND.
const batchSize = 1000

const (
	cypherSaveNodes = `
		UNWIND $rows AS row
		MERGE (n:SpectrumNode {run_id: $runId, node_id: row.node_id})
		SET n += row.attrs, n.updated_at = datetime()
	`
	cypherSaveEdges = `
		UNWIND $rows AS row
		MATCH (a:SpectrumNode {run_id: $runId, node_id: row.source})
		MATCH (b:SpectrumNode {run_id: $runId, node_id: row.target})
		MERGE (a)-[r:INTERACTS {run_id: $runId, interaction: row.interaction}]->(b)
		SET r += row.attrs
	`
	cypherDeleteRun = `
		MATCH (n:SpectrumNode {run_id: $runId})
		DETACH DELETE n
	`
	cypherCountNodes = `
		MATCH (n:SpectrumNode {run_id: $runId})
		RETURN count(n) AS total
	`
)

type neo4jNetworkRepo struct {
	driver driver.DriverInterface
	log    logging.Logger
}

// NewNeo4jNetworkRepo stores each run's nodes as :SpectrumNode and its
// similarity and motif edges as :INTERACTS relationships.
func NewNeo4jNetworkRepo(d driver.DriverInterface, log logging.Logger) network.Repository {
	return &neo4jNetworkRepo{driver: d, log: log}
}

func (r *neo4jNetworkRepo) SaveNodes(ctx context.Context, runID string, nodes []network.NodeAttributes) error {
	rows := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, map[string]any{
			"node_id": int64(n.ID),
			"attrs":   properties(n.Attributes),
		})
	}
	return r.writeBatches(ctx, cypherSaveNodes, runID, rows)
}

func (r *neo4jNetworkRepo) SaveEdges(ctx context.Context, runID string, edges []network.EdgeAttributes) error {
	rows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, map[string]any{
			"source":      int64(e.Source),
			"target":      int64(e.Target),
			"interaction": e.Interaction,
			"attrs":       properties(e.Attributes),
		})
	}
	return r.writeBatches(ctx, cypherSaveEdges, runID, rows)
}

func (r *neo4jNetworkRepo) writeBatches(ctx context.Context, cypher, runID string, rows []map[string]any) error {
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		params := map[string]any{"runId": runID, "rows": rows[start:end]}
		_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
			_, err := tx.Run(ctx, cypher, params)
			return nil, err
		})
		if err != nil {
			return err
		}
	}
	r.log.Debug("Network rows written", logging.String("run_id", runID), logging.Int("rows", len(rows)))
	return nil
}

func (r *neo4jNetworkRepo) DeleteRun(ctx context.Context, runID string) error {
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		_, err := tx.Run(ctx, cypherDeleteRun, map[string]any{"runId": runID})
		return nil, err
	})
	return err
}

func (r *neo4jNetworkRepo) CountNodes(ctx context.Context, runID string) (int, error) {
	res, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		result, err := tx.Run(ctx, cypherCountNodes, map[string]any{"runId": runID})
		if err != nil {
			return nil, err
		}
		return driver.ExtractSingleRecord(ctx, result, func(rec *neo4j.Record) (int64, error) {
			v, ok := rec.Get("total")
			if !ok {
				return 0, fmt.Errorf("missing total column")
			}
			n, ok := v.(int64)
			if !ok {
				return 0, fmt.Errorf("unexpected total type %T", v)
			}
			return n, nil
		})
	})
	if err != nil {
		return 0, err
	}
	return int(res.(int64)), nil
}

// properties converts attribute values to types Neo4j can store.
func properties(attrs map[string]interface{}) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case nil:
		case string, bool, int64, float64:
			out[k] = val
		case int:
			out[k] = int64(val)
		case network.NodeID:
			out[k] = int64(val)
		case network.FamilyID:
			out[k] = string(val)
		case []string:
			out[k] = val
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
