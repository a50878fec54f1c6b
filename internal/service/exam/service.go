// Package exam manages psychometric exam definitions.
package exam

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"

	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

type ExamService interface {
	CreateExam(ctx context.Context, req *model.CreateExamRequest, createdBy string) (*model.Exam, error)
	GetExam(ctx context.Context, examID uuid.UUID, includeAnswers bool) (*model.Exam, error)
	UpdateExam(ctx context.Context, examID uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error)
	DeleteExam(ctx context.Context, examID uuid.UUID, disabledBy string) error
	ListExams(ctx context.Context, includeDisabled bool) ([]*model.Exam, error)
	SearchExams(ctx context.Context, namePrefix string) ([]*model.Exam, error)
	AddCategory(ctx context.Context, examID uuid.UUID, req *model.CategoryRequest) (*model.Exam, error)
	AddQuestion(ctx context.Context, examID uuid.UUID, categoryID string, req *model.QuestionRequest) (*model.Exam, error)
	ListQuestions(ctx context.Context, examID uuid.UUID, includeAnswers bool) ([]model.Question, error)
}

type Service struct {
	repo repository.ExamRepository
}

func NewService(repo repository.ExamRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateExam(ctx context.Context, req *model.CreateExamRequest, createdBy string) (*model.Exam, error) {
	categories, err := buildCategories(req.Categories)
	if err != nil {
		return nil, err
	}
	exam := &model.Exam{
		ExamID:          uuid.New(),
		Name:            req.Name,
		Description:     req.Description,
		Categories:      categories,
		MaxErrorAllowed: req.MaxErrorAllowed,
		TimeLimit:       req.TimeLimit,
		Enabled:         true,
		CreatedBy:       createdBy,
	}
	if err := s.repo.Create(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// buildCategories assigns stable ids to categories, questions and
// options. The correct option index is resolved to the generated
// option id.
func buildCategories(reqs []model.CategoryRequest) (model.CategoryList, error) {
	categories := make(model.CategoryList, 0, len(reqs))
	for _, cr := range reqs {
		category, err := buildCategory(cr)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func buildCategory(cr model.CategoryRequest) (model.Category, error) {
	category := model.Category{
		CategoryID:  uuid.NewString(),
		Name:        cr.Name,
		Description: cr.Description,
	}
	for _, qr := range cr.Questions {
		question, err := buildQuestion(qr)
		if err != nil {
			return model.Category{}, err
		}
		category.Questions = append(category.Questions, question)
	}
	return category, nil
}

func buildQuestion(qr model.QuestionRequest) (model.Question, error) {
	if qr.CorrectOption < 0 || qr.CorrectOption >= len(qr.Options) {
		return model.Question{}, apperrors.Validation(
			fmt.Sprintf("correct_option %d is out of range for %d options", qr.CorrectOption, len(qr.Options)), nil)
	}
	question := model.Question{
		QuestionID: uuid.NewString(),
		Text:       qr.Text,
		Points:     qr.Points,
	}
	for i, or := range qr.Options {
		option := model.QuestionOption{
			OptionID: fmt.Sprintf("%s-%d", question.QuestionID, i),
			Text:     or.Text,
		}
		question.Options = append(question.Options, option)
		if i == qr.CorrectOption {
			question.CorrectOption = option.OptionID
		}
	}
	return question, nil
}

// GetExam strips correct options unless the caller is allowed to see
// them.
func (s *Service) GetExam(ctx context.Context, examID uuid.UUID, includeAnswers bool) (*model.Exam, error) {
	exam, err := s.repo.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !includeAnswers {
		return exam.Sanitized(), nil
	}
	return exam, nil
}

func (s *Service) UpdateExam(ctx context.Context, examID uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.repo.Get(ctx, examID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		exam.Name = *req.Name
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.MaxErrorAllowed != nil {
		exam.MaxErrorAllowed = *req.MaxErrorAllowed
	}
	if req.TimeLimit != nil {
		exam.TimeLimit = *req.TimeLimit
	}
	if req.Enabled != nil {
		exam.Enabled = *req.Enabled
	}

	if err := s.repo.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// DeleteExam disables the exam instead of removing it; stored results
// keep referring to it.
func (s *Service) DeleteExam(ctx context.Context, examID uuid.UUID, disabledBy string) error {
	exam, err := s.repo.Get(ctx, examID)
	if err != nil {
		return err
	}
	exam.Enabled = false
	exam.DisabledBy = disabledBy
	return s.repo.Update(ctx, exam)
}

func (s *Service) ListExams(ctx context.Context, includeDisabled bool) ([]*model.Exam, error) {
	return s.repo.List(ctx, !includeDisabled)
}

func (s *Service) SearchExams(ctx context.Context, namePrefix string) ([]*model.Exam, error) {
	return s.repo.Search(ctx, namePrefix)
}

func (s *Service) AddCategory(ctx context.Context, examID uuid.UUID, req *model.CategoryRequest) (*model.Exam, error) {
	exam, err := s.repo.Get(ctx, examID)
	if err != nil {
		return nil, err
	}

	category, err := buildCategory(*req)
	if err != nil {
		return nil, err
	}
	exam.Categories = append(exam.Categories, category)
	if err := s.repo.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *Service) AddQuestion(ctx context.Context, examID uuid.UUID, categoryID string, req *model.QuestionRequest) (*model.Exam, error) {
	exam, err := s.repo.Get(ctx, examID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range exam.Categories {
		if exam.Categories[i].CategoryID == categoryID {
			question, err := buildQuestion(*req)
			if err != nil {
				return nil, err
			}
			exam.Categories[i].Questions = append(exam.Categories[i].Questions, question)
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.NotFound("category", nil)
	}

	if err := s.repo.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// ListQuestions flattens the category tree in definition order.
func (s *Service) ListQuestions(ctx context.Context, examID uuid.UUID, includeAnswers bool) ([]model.Question, error) {
	exam, err := s.repo.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !includeAnswers {
		exam = exam.Sanitized()
	}
	return exam.AllQuestions(), nil
}
