package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/MedRemind/internal/domain/prescription"
	"github.com/turtacn/MedRemind/internal/infrastructure/database/postgres"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

const uniqueViolation = "23505"

// postgresPrescriptionRepo stores each aggregate as one JSONB document.
// user_id, status and the timestamps are mirrored into columns for the
// due-scan and listing queries.
type postgresPrescriptionRepo struct {
	conn *postgres.Connection
	log  logging.Logger
	now  func() time.Time
}

// NewPostgresPrescriptionRepo returns a prescription.Repository over conn.
func NewPostgresPrescriptionRepo(conn *postgres.Connection, log logging.Logger) prescription.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresPrescriptionRepo{conn: conn, log: log, now: time.Now}
}

func (r *postgresPrescriptionRepo) executor() queryExecutor {
	return r.conn.DB()
}

func (r *postgresPrescriptionRepo) Add(ctx context.Context, p *medication.Prescription) (string, error) {
	if p == nil {
		return "", errors.New(errors.CodeInvalidParam, "prescription is nil")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode prescription")
	}

	query := `
		INSERT INTO prescriptions (id, user_id, source, status, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.executor().ExecContext(ctx, query, p.ID, p.UserID, string(p.Source), string(p.Status), doc, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", errors.New(errors.CodeConflict, "prescription already exists").WithDetail(p.ID)
		}
		return "", errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert prescription")
	}
	return p.ID, nil
}

func (r *postgresPrescriptionRepo) Get(ctx context.Context, id string) (*medication.Prescription, error) {
	row := r.executor().QueryRowContext(ctx, `SELECT document FROM prescriptions WHERE id = $1`, id)
	p, err := scanPrescription(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodePrescriptionNotFound, "prescription not found").WithDetail(id)
		}
		return nil, err
	}
	return p, nil
}

// Update reads the document under a row lock, applies patch and writes it
// back in the same transaction.
func (r *postgresPrescriptionRepo) Update(ctx context.Context, id string, patch prescription.Patch) error {
	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	p, err := scanPrescription(tx.QueryRowContext(ctx, `SELECT document FROM prescriptions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.New(errors.ErrCodePrescriptionNotFound, "prescription not found").WithDetail(id)
		}
		return err
	}

	if patch.UpdatedAt.IsZero() {
		patch.UpdatedAt = r.now()
	}
	if err := prescription.ApplyPatch(p, patch); err != nil {
		return err
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode prescription")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE prescriptions SET status = $2, document = $3, updated_at = $4 WHERE id = $1`,
		id, string(p.Status), doc, p.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update prescription")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit prescription update")
	}
	return nil
}

func (r *postgresPrescriptionRepo) FindByStatus(ctx context.Context, status medication.Status) ([]*medication.Prescription, error) {
	rows, err := r.executor().QueryContext(ctx,
		`SELECT document FROM prescriptions WHERE status = $1 ORDER BY created_at`, string(status))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query prescriptions by status")
	}
	return collectPrescriptions(rows)
}

func (r *postgresPrescriptionRepo) FindByUser(ctx context.Context, userID string, filter prescription.ListFilter) ([]*medication.Prescription, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT document FROM prescriptions WHERE user_id = $1`)
	args := []interface{}{userID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		fmt.Fprintf(&sb, ` AND status = $%d`, len(args))
	}
	limit := sql.NullInt64{Int64: int64(filter.Limit), Valid: filter.Limit > 0}
	args = append(args, limit, filter.Offset)
	fmt.Fprintf(&sb, ` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.executor().QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query prescriptions by user")
	}
	return collectPrescriptions(rows)
}

func (r *postgresPrescriptionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.executor().ExecContext(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete prescription")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodePrescriptionNotFound, "prescription not found").WithDetail(id)
	}
	return nil
}

func scanPrescription(row scanner) (*medication.Prescription, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read prescription")
	}
	var p medication.Prescription
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode prescription document")
	}
	return &p, nil
}

func collectPrescriptions(rows *sql.Rows) ([]*medication.Prescription, error) {
	defer rows.Close()
	out := make([]*medication.Prescription, 0)
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate prescriptions")
	}
	return out, nil
}

//Personal.AI order the ending
