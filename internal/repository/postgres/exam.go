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

type examRepository struct {
	db *sqlx.DB
}

func NewExamRepository(db *sqlx.DB) repository.ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) Create(ctx context.Context, exam *model.Exam) error {
	query := `
		INSERT INTO exams (exam_id, name, description, categories, max_error_allowed,
			time_limit_minutes, enabled, disabled_by, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	now := time.Now()
	exam.CreatedAt = now
	exam.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		exam.ExamID,
		exam.Name,
		exam.Description,
		exam.Categories,
		exam.MaxErrorAllowed,
		exam.TimeLimit,
		exam.Enabled,
		exam.DisabledBy,
		exam.CreatedAt,
		exam.UpdatedAt,
		exam.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

func (r *examRepository) Get(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	query := `SELECT * FROM exams WHERE exam_id = $1`
	var exam model.Exam
	err := r.db.GetContext(ctx, &exam, query, examID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("exam", err)
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return &exam, nil
}

func (r *examRepository) Update(ctx context.Context, exam *model.Exam) error {
	query := `
		UPDATE exams SET name = $1, description = $2, categories = $3, max_error_allowed = $4,
			time_limit_minutes = $5, enabled = $6, disabled_by = $7, updated_at = $8
		WHERE exam_id = $9
	`
	exam.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		exam.Name, exam.Description, exam.Categories, exam.MaxErrorAllowed,
		exam.TimeLimit, exam.Enabled, exam.DisabledBy, exam.UpdatedAt, exam.ExamID)
	if err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}
	return checkAffected(result, "exam")
}

func (r *examRepository) List(ctx context.Context, onlyEnabled bool) ([]*model.Exam, error) {
	query := `SELECT * FROM exams`
	if onlyEnabled {
		query += ` WHERE enabled = true`
	}
	query += ` ORDER BY name`
	var exams []*model.Exam
	if err := r.db.SelectContext(ctx, &exams, query); err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, nil
}

func (r *examRepository) Search(ctx context.Context, namePrefix string) ([]*model.Exam, error) {
	query := `SELECT * FROM exams WHERE enabled = true AND name ILIKE $1 ORDER BY name`
	var exams []*model.Exam
	if err := r.db.SelectContext(ctx, &exams, query, namePrefix+"%"); err != nil {
		return nil, fmt.Errorf("failed to search exams: %w", err)
	}
	return exams, nil
}
