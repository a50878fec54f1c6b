package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"

	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

type examResultRepository struct {
	db *sqlx.DB
}

func NewExamResultRepository(db *sqlx.DB) repository.ExamResultRepository {
	return &examResultRepository{db: db}
}

// Create inserts a graded submission. Results are immutable once stored.
func (r *examResultRepository) Create(ctx context.Context, result *model.ExamResult) error {
	query := `
		INSERT INTO exam_results (result_id, exam_id, exam_name, patient_dni, patient_name,
			answers, total_questions, correct_answers, incorrect_answers, score_percentage,
			approved, status, submitted_at, graded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		result.ResultID,
		result.ExamID,
		result.ExamName,
		result.PatientDNI,
		result.PatientName,
		result.Answers,
		result.TotalQuestions,
		result.CorrectAnswers,
		result.IncorrectAnswers,
		result.ScorePercentage,
		result.Approved,
		result.Status,
		result.SubmittedAt,
		result.GradedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create exam result: %w", err)
	}
	return nil
}

func (r *examResultRepository) Get(ctx context.Context, resultID uuid.UUID) (*model.ExamResult, error) {
	query := `SELECT * FROM exam_results WHERE result_id = $1`
	var result model.ExamResult
	err := r.db.GetContext(ctx, &result, query, resultID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("exam result", err)
		}
		return nil, fmt.Errorf("failed to get exam result: %w", err)
	}
	return &result, nil
}

func (r *examResultRepository) ListByPatient(ctx context.Context, patientDNI string) ([]*model.ExamResult, error) {
	query := `SELECT * FROM exam_results WHERE patient_dni = $1 ORDER BY submitted_at DESC`
	var results []*model.ExamResult
	if err := r.db.SelectContext(ctx, &results, query, patientDNI); err != nil {
		return nil, fmt.Errorf("failed to list exam results by patient: %w", err)
	}
	return results, nil
}

func (r *examResultRepository) ListByExam(ctx context.Context, examID uuid.UUID, limit int) ([]*model.ExamResult, error) {
	query := `SELECT * FROM exam_results WHERE exam_id = $1 ORDER BY submitted_at DESC`
	args := []interface{}{examID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	var results []*model.ExamResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list exam results by exam: %w", err)
	}
	return results, nil
}

func (r *examResultRepository) GetLatest(ctx context.Context, examID uuid.UUID, patientDNI string) (*model.ExamResult, error) {
	query := `SELECT * FROM exam_results WHERE exam_id = $1 AND patient_dni = $2 ORDER BY submitted_at DESC LIMIT 1`
	var result model.ExamResult
	err := r.db.GetContext(ctx, &result, query, examID, patientDNI)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("exam result", err)
		}
		return nil, fmt.Errorf("failed to get latest exam result: %w", err)
	}
	return &result, nil
}

func (r *examResultRepository) GetLatestApproved(ctx context.Context, examID uuid.UUID, patientDNI string) (*model.ExamResult, error) {
	query := `SELECT * FROM exam_results WHERE exam_id = $1 AND patient_dni = $2 AND approved = true ORDER BY submitted_at DESC LIMIT 1`
	var result model.ExamResult
	err := r.db.GetContext(ctx, &result, query, examID, patientDNI)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("exam result", err)
		}
		return nil, fmt.Errorf("failed to get latest approved exam result: %w", err)
	}
	return &result, nil
}

// SearchByPatient matches an exact dni or a name prefix.
func (r *examResultRepository) SearchByPatient(ctx context.Context, query string) ([]*model.ExamResult, error) {
	stmt := `SELECT * FROM exam_results WHERE patient_dni = $1 OR patient_name ILIKE $2 ORDER BY submitted_at DESC`
	var results []*model.ExamResult
	if err := r.db.SelectContext(ctx, &results, stmt, query, query+"%"); err != nil {
		return nil, fmt.Errorf("failed to search exam results: %w", err)
	}
	return results, nil
}

func (r *examResultRepository) ListPatientRecords(ctx context.Context) ([]model.PatientExamRecord, error) {
	query := `
		SELECT patient_dni, patient_name,
			COUNT(*) AS total_attempts,
			COUNT(*) FILTER (WHERE approved) AS passed_attempts,
			MAX(submitted_at) AS last_submitted_at
		FROM exam_results
		GROUP BY patient_dni, patient_name
		ORDER BY patient_name
	`
	var records []model.PatientExamRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list patient exam records: %w", err)
	}
	return records, nil
}
