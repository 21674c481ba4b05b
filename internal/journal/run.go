package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/wasmpack/internal/pipeline"
)

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ErrNotFound is returned when no run matches a lookup.
var ErrNotFound = errors.New("run not found")

// Run is one recorded pipeline run.
type Run struct {
	Seq             int64    `json:"seq"`
	ID              string   `json:"id"`
	Package         string   `json:"package"`
	Stage           string   `json:"stage"`
	FailedStage     string   `json:"failed_stage,omitempty"`
	Status          string   `json:"status"`
	ErrorKind       string   `json:"error_kind,omitempty"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	Branch          string   `json:"branch,omitempty"`
	BinarySize      int64    `json:"binary_size"`
	OptimizedSize   int64    `json:"optimized_size"`
	ModuleSize      int64    `json:"module_size"`
	BinaryDigest    string   `json:"binary_digest,omitempty"`
	OptimizedDigest string   `json:"optimized_digest,omitempty"`
	ModuleDigest    string   `json:"module_digest,omitempty"`
	ModulePath      string   `json:"module_path"`
	Warnings        []string `json:"warnings"`
}

// NewRun builds a Run record from a pipeline report and the error the run
// returned, if any.
func NewRun(id, pkg string, report *pipeline.Report, runErr error) Run {
	run := Run{
		ID:       id,
		Package:  pkg,
		Status:   StatusOK,
		Warnings: []string{},
	}
	if report != nil {
		run.Stage = string(report.Stage)
		run.FailedStage = string(report.FailedStage)
		run.Branch = string(report.Branch)
		run.BinarySize = report.BinarySize
		run.OptimizedSize = report.OptimizedSize
		run.ModuleSize = report.ModuleSize
		run.BinaryDigest = report.BinaryDigest
		run.OptimizedDigest = report.OptimizedDigest
		run.ModuleDigest = report.ModuleDigest
		run.ModulePath = report.ModulePath
		if len(report.Warnings) > 0 {
			run.Warnings = append(run.Warnings, report.Warnings...)
		}
	}
	if runErr != nil {
		run.Status = StatusFailed
		run.Stage = string(pipeline.StageFailed)
		run.ErrorMessage = runErr.Error()
		var pe *pipeline.Error
		if errors.As(runErr, &pe) {
			run.ErrorKind = string(pe.Kind)
		}
	}
	return run
}

// Record appends run and returns its assigned seq.
func (j *Journal) Record(ctx context.Context, run Run) (int64, error) {
	if run.ID == "" {
		return 0, fmt.Errorf("record run: id is required")
	}
	warnings := run.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return 0, fmt.Errorf("record run: marshal warnings: %w", err)
	}

	res, err := j.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, package, stage, failed_stage, status, error_kind, error_message, branch,
		 binary_size, optimized_size, module_size,
		 binary_digest, optimized_digest, module_digest, module_path, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Package, run.Stage, run.FailedStage, run.Status,
		run.ErrorKind, run.ErrorMessage, run.Branch,
		run.BinarySize, run.OptimizedSize, run.ModuleSize,
		run.BinaryDigest, run.OptimizedDigest, run.ModuleDigest,
		run.ModulePath, string(warningsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record run: last insert id: %w", err)
	}
	return seq, nil
}

const selectRun = `
	SELECT seq, id, package, stage, failed_stage, status, error_kind, error_message, branch,
	       binary_size, optimized_size, module_size,
	       binary_digest, optimized_digest, module_digest, module_path, warnings
	FROM runs`

// Get returns the run with the given ID, or ErrNotFound.
func (j *Journal) Get(ctx context.Context, id string) (*Run, error) {
	row := j.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// List returns the most recent runs, newest first. limit <= 0 returns all.
func (j *Journal) List(ctx context.Context, limit int) ([]Run, error) {
	query := selectRun + ` ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// LatestSuccess returns the newest successful run of pkg, or ErrNotFound.
func (j *Journal) LatestSuccess(ctx context.Context, pkg string) (*Run, error) {
	row := j.db.QueryRowContext(ctx,
		selectRun+` WHERE package = ? AND status = ? ORDER BY seq DESC LIMIT 1`,
		pkg, StatusOK)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest success for %s: %w", pkg, err)
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var warningsJSON string
	err := s.Scan(
		&run.Seq, &run.ID, &run.Package, &run.Stage, &run.FailedStage, &run.Status,
		&run.ErrorKind, &run.ErrorMessage, &run.Branch,
		&run.BinarySize, &run.OptimizedSize, &run.ModuleSize,
		&run.BinaryDigest, &run.OptimizedDigest, &run.ModuleDigest,
		&run.ModulePath, &warningsJSON,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(warningsJSON), &run.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	return &run, nil
}
