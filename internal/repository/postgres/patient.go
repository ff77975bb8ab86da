package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/jwalitptl/medibook-api/internal/model"
)

const patientColumns = `id, email, password_hash, name, phone, photo, gender, blood_group, role, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = time.Now()
	}
	patient.UpdatedAt = patient.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Email,
		patient.PasswordHash,
		patient.Name,
		patient.Phone,
		patient.Photo,
		patient.Gender,
		patient.BloodGroup,
		patient.Role,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", translate(err))
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id string) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, translate(err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE email = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, email); err != nil {
		return nil, translate(err)
	}
	return &patient, nil
}

func (r *patientRepository) GetMany(ctx context.Context, ids []string) (map[string]*model.Patient, error) {
	out := make(map[string]*model.Patient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = ANY($1)`
	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get patients: %w", err)
	}
	for _, p := range patients {
		out[p.ID] = p
	}
	return out, nil
}

// Update writes profile fields. Email, password and role are immutable here.
func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	patient.UpdatedAt = time.Now()
	query := `
		UPDATE patients
		SET name = $1, phone = $2, photo = $3, gender = $4, blood_group = $5, updated_at = $6
		WHERE id = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		patient.Name,
		patient.Phone,
		patient.Photo,
		patient.Gender,
		patient.BloodGroup,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return affected(res)
}

func (r *patientRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return affected(res)
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY created_at DESC`
	patients := make([]*model.Patient, 0)
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM patients`); err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return n, nil
}
