package repository

import (
	"context"
	"database/sql"
	"fmt"

	"commerce-service/internal/entity"
)

// AuditRepository stores audit records in audit_logs.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Write inserts the record once; a replay of the same event id is a no-op.
func (r *AuditRepository) Write(ctx context.Context, record entity.AuditRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (event_id, action, audit_data, status, error_message, audit_by, audit_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = id`,
		record.EventID, record.Action, string(record.AuditData), record.Status, record.ErrorMessage,
		record.AuditBy, record.AuditOn, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListRecent returns the latest audit records, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]entity.AuditRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, action, audit_data, status, error_message, audit_by, audit_on, created_at
		FROM audit_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var records []entity.AuditRecord
	for rows.Next() {
		var (
			rec  entity.AuditRecord
			data []byte
			msg  sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Action, &data, &rec.Status, &msg, &rec.AuditBy, &rec.AuditOn, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		rec.AuditData = data
		if msg.Valid {
			rec.ErrorMessage = &msg.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
