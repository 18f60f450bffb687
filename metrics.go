package bfopt

import (
	"database/sql"
	"fmt"
)

// RunStats holds aggregate metrics over every stored run.
type RunStats struct {
	RunCount     uint
	PassedCount  uint
	ProgramCount uint
	// Average instructions executed per run, by mode.
	AvgExecutedRaw       float64
	AvgExecutedOptimized float64
	// Average optimized/raw ratio of instructions executed, over programs
	// with both runs stored. Lower is better.
	AvgExecutedRatio float64
}

// PassSummary aggregates every stored application of one pass.
type PassSummary struct {
	Pass         string
	Count        uint
	AvgShrink    float64
	AvgElapsedNs float64
}

func (p *Persistence) QueryStats() (*RunStats, error) {
	db, err := p.SQLDB()
	if err != nil {
		return nil, err
	}
	return QueryStats(db)
}

func (p *Persistence) QueryPassSummaries() ([]PassSummary, error) {
	db, err := p.SQLDB()
	if err != nil {
		return nil, err
	}
	return QueryPassSummaries(db)
}

func QueryStats(db *sql.DB) (*RunStats, error) {
	s := &RunStats{}
	row := db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(passed), 0),
		COUNT(DISTINCT program_hash),
		COALESCE(AVG(CASE WHEN mode = ? THEN instructions_executed END), 0),
		COALESCE(AVG(CASE WHEN mode = ? THEN instructions_executed END), 0)
		FROM run_records`, ModeRaw, ModeOptimized)

	var runs, passed, programs int64
	if err := row.Scan(&runs, &passed, &programs, &s.AvgExecutedRaw, &s.AvgExecutedOptimized); err != nil {
		return nil, fmt.Errorf("Failed to query run stats: %w", err)
	}
	s.RunCount = uint(runs)
	s.PassedCount = uint(passed)
	s.ProgramCount = uint(programs)

	// Pair each program's latest raw and optimized runs.
	row = db.QueryRow(`SELECT COALESCE(AVG(CAST(o.instructions_executed AS REAL) / r.instructions_executed), 0)
		FROM run_records o
		JOIN (
			SELECT MAX(id) AS id FROM run_records WHERE mode = ? GROUP BY program_hash
		) lo ON o.id = lo.id
		JOIN run_records r ON r.program_hash = o.program_hash
		JOIN (
			SELECT MAX(id) AS id FROM run_records WHERE mode = ? GROUP BY program_hash
		) lr ON r.id = lr.id
		WHERE r.instructions_executed > 0`, ModeOptimized, ModeRaw)
	if err := row.Scan(&s.AvgExecutedRatio); err != nil {
		return nil, fmt.Errorf("Failed to query execution ratio: %w", err)
	}

	return s, nil
}

func QueryPassSummaries(db *sql.DB) ([]PassSummary, error) {
	rows, err := db.Query(`SELECT pass, COUNT(*),
		AVG(CAST(len_before AS REAL) - len_after), AVG(elapsed_nanos)
		FROM pass_records
		GROUP BY pass
		ORDER BY pass`)
	if err != nil {
		return nil, fmt.Errorf("Failed to query pass summaries: %w", err)
	}
	defer rows.Close()

	var summaries []PassSummary
	for rows.Next() {
		var ps PassSummary
		var count int64
		if err := rows.Scan(&ps.Pass, &count, &ps.AvgShrink, &ps.AvgElapsedNs); err != nil {
			return nil, err
		}
		ps.Count = uint(count)
		summaries = append(summaries, ps)
	}
	return summaries, rows.Err()
}
