package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"

	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (dni, name, age, sex, phone, blood_type, discapacity_level,
			medical_history, enabled, created_at, updated_at, created_by, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	now := time.Now()
	patient.CreatedAt = now
	patient.UpdatedAt = now
	patient.Enabled = true

	_, err := r.db.ExecContext(ctx, query,
		patient.DNI,
		patient.Name,
		patient.Age,
		patient.Sex,
		patient.Phone,
		patient.BloodType,
		patient.DiscapacityLevel,
		patient.MedicalHistory,
		patient.Enabled,
		patient.CreatedAt,
		patient.UpdatedAt,
		patient.CreatedBy,
		patient.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("a patient with this dni already exists", err)
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) GetByDNI(ctx context.Context, dni string) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE dni = $1`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, dni)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

// Update replaces the whole patient document, embedded history included.
func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients SET name = $1, age = $2, sex = $3, phone = $4, blood_type = $5,
			discapacity_level = $6, medical_history = $7, enabled = $8, disabled_by = $9,
			updated_at = $10, last_updated_by = $11
		WHERE dni = $12
	`
	patient.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		patient.Name,
		patient.Age,
		patient.Sex,
		patient.Phone,
		patient.BloodType,
		patient.DiscapacityLevel,
		patient.MedicalHistory,
		patient.Enabled,
		patient.DisabledBy,
		patient.UpdatedAt,
		patient.LastUpdatedBy,
		patient.DNI,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return checkAffected(result, "patient")
}

func (r *patientRepository) Disable(ctx context.Context, dni, disabledBy string) error {
	query := `UPDATE patients SET enabled = false, disabled_by = $1, updated_at = $2, last_updated_by = $1 WHERE dni = $3`
	result, err := r.db.ExecContext(ctx, query, disabledBy, time.Now(), dni)
	if err != nil {
		return fmt.Errorf("failed to disable patient: %w", err)
	}
	return checkAffected(result, "patient")
}

func (r *patientRepository) List(ctx context.Context, onlyEnabled bool) ([]*model.Patient, error) {
	query := `SELECT * FROM patients`
	if onlyEnabled {
		query += ` WHERE enabled = true`
	}
	query += ` ORDER BY name`
	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) Search(ctx context.Context, namePrefix string) ([]*model.Patient, error) {
	query := `SELECT * FROM patients WHERE enabled = true AND name ILIKE $1 ORDER BY name`
	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, namePrefix+"%"); err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return patients, nil
}
