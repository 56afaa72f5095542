package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/internal/repository"
)

const maxDeliveryPage = 500

type deliveryRepository struct {
	BaseRepository
}

func NewDeliveryRepository(base BaseRepository) repository.DeliveryRepository {
	return &deliveryRepository{base}
}

func (r *deliveryRepository) Create(ctx context.Context, d *model.Delivery) error {
	if d == nil {
		return fmt.Errorf("delivery cannot be nil")
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()

	query := `
		INSERT INTO reminder_deliveries (
			id, patient_id, handle, medication_id, channel, status,
			body, error_message, due_at, fired_at, created_at
		) VALUES (
			:id, :patient_id, :handle, :medication_id, :channel, :status,
			:body, :error_message, :due_at, :fired_at, :created_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}
	return nil
}

func (r *deliveryRepository) List(ctx context.Context, f model.DeliveryFilter) ([]*model.Delivery, error) {
	query := `
		SELECT id, patient_id, handle, medication_id, channel, status,
		       body, error_message, due_at, fired_at, created_at
		FROM reminder_deliveries
		WHERE patient_id = ?`
	args := []interface{}{f.PatientID}

	if f.MedicationID != "" {
		query += " AND medication_id = ?"
		args = append(args, f.MedicationID)
	}
	if f.Since != nil {
		query += " AND fired_at >= ?"
		args = append(args, *f.Since)
	}

	limit := f.Limit
	if limit <= 0 || limit > maxDeliveryPage {
		limit = maxDeliveryPage
	}
	query += " ORDER BY fired_at DESC LIMIT ?"
	args = append(args, limit)

	var deliveries []*model.Delivery
	if err := r.db.SelectContext(ctx, &deliveries, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return deliveries, nil
}

func (r *deliveryRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminder_deliveries WHERE fired_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old deliveries: %w", err)
	}
	return res.RowsAffected()
}
