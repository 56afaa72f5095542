package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/internal/repository"
)

type contactRepository struct {
	BaseRepository
}

func NewContactRepository(base BaseRepository) repository.ContactRepository {
	return &contactRepository{base}
}

func (r *contactRepository) Upsert(ctx context.Context, c *model.ReminderContact) error {
	c.UpdatedAt = time.Now()
	query := `
		INSERT INTO reminder_contacts (patient_id, email, enabled, updated_at)
		VALUES (:patient_id, :email, :enabled, :updated_at)
		ON CONFLICT (patient_id) DO UPDATE
		SET email = EXCLUDED.email, enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("failed to save reminder contact: %w", err)
	}
	return nil
}

func (r *contactRepository) Get(ctx context.Context, patientID string) (*model.ReminderContact, error) {
	var c model.ReminderContact
	err := r.db.GetContext(ctx, &c, `
		SELECT patient_id, email, enabled, updated_at
		FROM reminder_contacts
		WHERE patient_id = $1`, patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder contact: %w", err)
	}
	return &c, nil
}

func (r *contactRepository) Delete(ctx context.Context, patientID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminder_contacts WHERE patient_id = $1`, patientID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
