package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"

	"github.com/pistalabs/pista/internal/domain"
)

// PgxPool is the minimal pgx pool surface the repositories need.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// EvaluationRepo persists evaluation documents as JSONB rows. Both the
// structured and the legacy document shapes live in the same table; the shape
// is decided on read by the presence of the metadata field.
type EvaluationRepo struct{ Pool PgxPool }

// NewEvaluationRepo constructs an EvaluationRepo with the given pool.
func NewEvaluationRepo(p PgxPool) *EvaluationRepo { return &EvaluationRepo{Pool: p} }

// Create inserts a new evaluation record and returns its generated id.
func (r *EvaluationRepo) Create(ctx domain.Context, rec domain.EvaluationRecord) (string, error) {
	tracer := otel.Tracer("repo.evaluations")
	ctx, span := tracer.Start(ctx, "evaluations.Create")
	defer span.End()

	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	doc, err := marshalDoc(rec.Doc)
	if err != nil {
		return "", fmt.Errorf("op=evaluation.create: %w", err)
	}
	q := `INSERT INTO evaluations (id, subject, created_by, excerpt, doc, created_at) VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err := r.Pool.Exec(ctx, q, id, rec.Subject, rec.CreatedBy, rec.Excerpt, doc, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("op=evaluation.create: %w", err)
	}
	return id, nil
}

// Get loads one evaluation record by id.
func (r *EvaluationRepo) Get(ctx domain.Context, id string) (domain.EvaluationRecord, error) {
	tracer := otel.Tracer("repo.evaluations")
	ctx, span := tracer.Start(ctx, "evaluations.Get")
	defer span.End()

	q := `SELECT id, subject, created_by, excerpt, doc, created_at FROM evaluations WHERE id=$1`
	rec, err := scanRecord(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EvaluationRecord{}, fmt.Errorf("op=evaluation.get: %w", domain.ErrNotFound)
		}
		return domain.EvaluationRecord{}, fmt.Errorf("op=evaluation.get: %w", err)
	}
	return rec, nil
}

// ListRecent returns the caller's evaluations, newest first.
func (r *EvaluationRepo) ListRecent(ctx domain.Context, subject string, limit int) ([]domain.EvaluationRecord, error) {
	tracer := otel.Tracer("repo.evaluations")
	ctx, span := tracer.Start(ctx, "evaluations.ListRecent")
	defer span.End()

	q := `SELECT id, subject, created_by, excerpt, doc, created_at FROM evaluations WHERE subject=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.Pool.Query(ctx, q, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("op=evaluation.list: %w", err)
	}
	defer rows.Close()

	var out []domain.EvaluationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("op=evaluation.list: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=evaluation.list: %w", err)
	}
	return out, nil
}

func marshalDoc(doc domain.EvaluationDoc) ([]byte, error) {
	if doc.IsLegacy() {
		return json.Marshal(doc.Legacy)
	}
	return json.Marshal(doc.Structured)
}

func scanRecord(row pgx.Row) (domain.EvaluationRecord, error) {
	var rec domain.EvaluationRecord
	var raw []byte
	if err := row.Scan(&rec.ID, &rec.Subject, &rec.CreatedBy, &rec.Excerpt, &raw, &rec.CreatedAt); err != nil {
		return domain.EvaluationRecord{}, err
	}
	doc, err := decodeDoc(raw)
	if err != nil {
		return domain.EvaluationRecord{}, err
	}
	rec.Doc = doc
	return rec, nil
}

// decodeDoc discriminates the persisted union on the metadata field: the
// structured document always carries it, the legacy one never does.
func decodeDoc(raw []byte) (domain.EvaluationDoc, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return domain.EvaluationDoc{}, fmt.Errorf("decode evaluation doc: %w", err)
	}
	if _, ok := probe["metadata"]; ok {
		var data domain.StructuredEvaluationData
		if err := json.Unmarshal(raw, &data); err != nil {
			return domain.EvaluationDoc{}, fmt.Errorf("decode structured doc: %w", err)
		}
		return domain.EvaluationDoc{Structured: &data}, nil
	}
	var legacy domain.LegacyEvaluationData
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return domain.EvaluationDoc{}, fmt.Errorf("decode legacy doc: %w", err)
	}
	return domain.EvaluationDoc{Legacy: &legacy}, nil
}
