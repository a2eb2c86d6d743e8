package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"Watchtower/internal/domain/models"
)

// ClickHouseHistory persists per-cycle outputs so the fixed fusion
// constants can be calibrated against real history offline. Writes are
// best-effort; the evaluator ignores errors.
type ClickHouseHistory struct {
	db            *sql.DB
	entitiesTable string
	findingsTable string
}

// NewClickHouseHistory creates a history sink writing to the given tables.
func NewClickHouseHistory(db *sql.DB, entitiesTable, findingsTable string) *ClickHouseHistory {
	return &ClickHouseHistory{db: db, entitiesTable: entitiesTable, findingsTable: findingsTable}
}

// Schema returns idempotent DDL for the history tables.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.cycle_entities (
			cycle_at DateTime,
			entity_id String,
			fused_strength Float64,
			direction String,
			convergence Float64,
			signal_count UInt32
		) ENGINE=MergeTree ORDER BY (cycle_at, entity_id)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.cycle_findings (
			cycle_at DateTime,
			rule_id String,
			severity String,
			confidence Float64,
			entity_ids String
		) ENGINE=MergeTree ORDER BY (cycle_at, rule_id)`, database),
	}
}

func (h *ClickHouseHistory) WriteCycle(ctx context.Context, fusion *models.FusionResult, results []models.InferenceResult) error {
	entityStmt := fmt.Sprintf(
		"INSERT INTO %s (cycle_at, entity_id, fused_strength, direction, convergence, signal_count) VALUES (?, ?, ?, ?, ?, ?)",
		h.entitiesTable)
	for _, e := range fusion.Entities {
		if _, err := h.db.ExecContext(ctx, entityStmt,
			fusion.CycleAt, e.EntityID, e.FusedStrength, string(e.Direction), e.Convergence, uint32(e.SignalCount)); err != nil {
			return fmt.Errorf("insert cycle entity: %w", err)
		}
	}

	findingStmt := fmt.Sprintf(
		"INSERT INTO %s (cycle_at, rule_id, severity, confidence, entity_ids) VALUES (?, ?, ?, ?, ?)",
		h.findingsTable)
	for _, r := range results {
		ids, _ := json.Marshal(r.EntityIDs)
		if _, err := h.db.ExecContext(ctx, findingStmt,
			fusion.CycleAt, r.RuleID, string(r.Severity), r.Confidence, string(ids)); err != nil {
			return fmt.Errorf("insert cycle finding: %w", err)
		}
	}
	return nil
}
