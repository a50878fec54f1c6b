package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"

	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

type visitRepository struct {
	db *sqlx.DB
}

func NewVisitRepository(db *sqlx.DB) repository.VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(ctx context.Context, visit *model.Visit) error {
	query := `
		INSERT INTO visits (visit_id, patient_dni, reason, attention_place, attention_details, location,
			visit_status, triage, priority_level, attending_doctor_dni, referring_doctor_dni,
			admission_vital_signs, current_vital_signs, diagnoses, procedures, evolutions, prescriptions,
			laboratory_orders, imaging_orders, referrals, blood_analyses, radiology_studies,
			discharge_summary, discharge_instructions, follow_up_required, follow_up_date, follow_up_specialty,
			nursing_notes, additional_observations, complications,
			created_at, updated_at, admission_date, discharge_date, created_by, last_updated_by, is_completed)
		VALUES (:visit_id, :patient_dni, :reason, :attention_place, :attention_details, :location,
			:visit_status, :triage, :priority_level, :attending_doctor_dni, :referring_doctor_dni,
			:admission_vital_signs, :current_vital_signs, :diagnoses, :procedures, :evolutions, :prescriptions,
			:laboratory_orders, :imaging_orders, :referrals, :blood_analyses, :radiology_studies,
			:discharge_summary, :discharge_instructions, :follow_up_required, :follow_up_date, :follow_up_specialty,
			:nursing_notes, :additional_observations, :complications,
			:created_at, :updated_at, :admission_date, :discharge_date, :created_by, :last_updated_by, :is_completed)
	`
	now := time.Now()
	visit.CreatedAt = now
	visit.UpdatedAt = now
	if visit.AdmissionDate.IsZero() {
		visit.AdmissionDate = now
	}

	_, err := r.db.NamedExecContext(ctx, query, visit)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}
	return nil
}

func (r *visitRepository) Get(ctx context.Context, visitID uuid.UUID) (*model.Visit, error) {
	query := `SELECT * FROM visits WHERE visit_id = $1`
	var visit model.Visit
	err := r.db.GetContext(ctx, &visit, query, visitID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("visit", err)
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return &visit, nil
}

// Update replaces every mutable column so the row always mirrors the
// in-memory document.
func (r *visitRepository) Update(ctx context.Context, visit *model.Visit) error {
	query := `
		UPDATE visits SET reason = :reason, attention_details = :attention_details, location = :location,
			visit_status = :visit_status, triage = :triage, priority_level = :priority_level,
			attending_doctor_dni = :attending_doctor_dni, referring_doctor_dni = :referring_doctor_dni,
			admission_vital_signs = :admission_vital_signs, current_vital_signs = :current_vital_signs,
			diagnoses = :diagnoses, procedures = :procedures, evolutions = :evolutions,
			prescriptions = :prescriptions, laboratory_orders = :laboratory_orders,
			imaging_orders = :imaging_orders, referrals = :referrals,
			blood_analyses = :blood_analyses, radiology_studies = :radiology_studies,
			discharge_summary = :discharge_summary, discharge_instructions = :discharge_instructions,
			follow_up_required = :follow_up_required, follow_up_date = :follow_up_date,
			follow_up_specialty = :follow_up_specialty, nursing_notes = :nursing_notes,
			additional_observations = :additional_observations, complications = :complications,
			updated_at = :updated_at, discharge_date = :discharge_date,
			last_updated_by = :last_updated_by, is_completed = :is_completed
		WHERE visit_id = :visit_id
	`
	visit.UpdatedAt = time.Now()
	result, err := r.db.NamedExecContext(ctx, query, visit)
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
	}
	return checkAffected(result, "visit")
}

func (r *visitRepository) Delete(ctx context.Context, visitID uuid.UUID) error {
	query := `DELETE FROM visits WHERE visit_id = $1`
	result, err := r.db.ExecContext(ctx, query, visitID)
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}
	return checkAffected(result, "visit")
}

func (r *visitRepository) ListByPatient(ctx context.Context, patientDNI string) ([]*model.Visit, error) {
	query := `SELECT * FROM visits WHERE patient_dni = $1 ORDER BY admission_date DESC`
	var visits []*model.Visit
	if err := r.db.SelectContext(ctx, &visits, query, patientDNI); err != nil {
		return nil, fmt.Errorf("failed to list visits by patient: %w", err)
	}
	return visits, nil
}

func (r *visitRepository) ListByDoctor(ctx context.Context, doctorDNI string) ([]*model.Visit, error) {
	query := `SELECT * FROM visits WHERE attending_doctor_dni = $1 ORDER BY admission_date DESC`
	var visits []*model.Visit
	if err := r.db.SelectContext(ctx, &visits, query, doctorDNI); err != nil {
		return nil, fmt.Errorf("failed to list visits by doctor: %w", err)
	}
	return visits, nil
}

func (r *visitRepository) ListByStatus(ctx context.Context, status model.VisitStatus) ([]*model.Visit, error) {
	query := `SELECT * FROM visits WHERE visit_status = $1 ORDER BY priority_level, admission_date`
	var visits []*model.Visit
	if err := r.db.SelectContext(ctx, &visits, query, status); err != nil {
		return nil, fmt.Errorf("failed to list visits by status: %w", err)
	}
	return visits, nil
}

// GetOpenByPatient returns the patient's current admission, if any.
func (r *visitRepository) GetOpenByPatient(ctx context.Context, patientDNI string) (*model.Visit, error) {
	query := `SELECT * FROM visits WHERE patient_dni = $1 AND visit_status = $2 ORDER BY admission_date DESC LIMIT 1`
	var visit model.Visit
	err := r.db.GetContext(ctx, &visit, query, patientDNI, model.VisitStatusAdmission)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("visit", err)
		}
		return nil, fmt.Errorf("failed to get open visit: %w", err)
	}
	return &visit, nil
}
