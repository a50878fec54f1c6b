package exam

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"

	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

type fakeExamRepo struct {
	repository.ExamRepository
	exams map[uuid.UUID]*model.Exam
}

func newFakeExamRepo() *fakeExamRepo {
	return &fakeExamRepo{exams: map[uuid.UUID]*model.Exam{}}
}

func (f *fakeExamRepo) Create(ctx context.Context, exam *model.Exam) error {
	f.exams[exam.ExamID] = exam
	return nil
}

func (f *fakeExamRepo) Get(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, ok := f.exams[examID]
	if !ok {
		return nil, apperrors.NotFound("exam", nil)
	}
	return exam, nil
}

func (f *fakeExamRepo) Update(ctx context.Context, exam *model.Exam) error {
	f.exams[exam.ExamID] = exam
	return nil
}

func createRequest() *model.CreateExamRequest {
	return &model.CreateExamRequest{
		Name:            "Psychometric Evaluation",
		MaxErrorAllowed: 2,
		Categories: []model.CategoryRequest{
			{
				Name: "Reasoning",
				Questions: []model.QuestionRequest{
					{
						Text:          "Pick the second option",
						Options:       []model.QuestionOptionRequest{{Text: "first"}, {Text: "second"}, {Text: "third"}},
						CorrectOption: 1,
					},
				},
			},
		},
	}
}

func TestCreateExamAssignsIdentifiers(t *testing.T) {
	svc := NewService(newFakeExamRepo())

	exam, err := svc.CreateExam(context.Background(), createRequest(), "admin-1")
	require.NoError(t, err)

	assert.True(t, exam.Enabled)
	assert.Equal(t, "admin-1", exam.CreatedBy)
	require.Len(t, exam.Categories, 1)
	assert.NotEmpty(t, exam.Categories[0].CategoryID)

	question := exam.Categories[0].Questions[0]
	require.Len(t, question.Options, 3)
	for i, option := range question.Options {
		assert.NotEmpty(t, option.OptionID)
		if i == 1 {
			assert.Equal(t, option.OptionID, question.CorrectOption)
		} else {
			assert.NotEqual(t, option.OptionID, question.CorrectOption)
		}
	}
}

func TestCreateExamRejectsOutOfRangeCorrectOption(t *testing.T) {
	repo := newFakeExamRepo()
	svc := NewService(repo)

	req := createRequest()
	req.Categories[0].Questions[0].CorrectOption = 5

	_, err := svc.CreateExam(context.Background(), req, "admin-1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.Empty(t, repo.exams)
}

func TestAddQuestionRejectsOutOfRangeCorrectOption(t *testing.T) {
	repo := newFakeExamRepo()
	svc := NewService(repo)

	created, err := svc.CreateExam(context.Background(), createRequest(), "admin-1")
	require.NoError(t, err)

	_, err = svc.AddQuestion(context.Background(), created.ExamID, created.Categories[0].CategoryID, &model.QuestionRequest{
		Text:          "Pick one",
		Options:       []model.QuestionOptionRequest{{Text: "a"}, {Text: "b"}},
		CorrectOption: 2,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.Len(t, repo.exams[created.ExamID].Categories[0].Questions, 1)
}

func TestGetExamSanitizesForNonAdmins(t *testing.T) {
	repo := newFakeExamRepo()
	svc := NewService(repo)

	created, err := svc.CreateExam(context.Background(), createRequest(), "admin-1")
	require.NoError(t, err)

	sanitized, err := svc.GetExam(context.Background(), created.ExamID, false)
	require.NoError(t, err)
	assert.Empty(t, sanitized.Categories[0].Questions[0].CorrectOption)
	assert.Len(t, sanitized.Categories[0].Questions[0].Options, 3)

	full, err := svc.GetExam(context.Background(), created.ExamID, true)
	require.NoError(t, err)
	assert.NotEmpty(t, full.Categories[0].Questions[0].CorrectOption)

	// The stored definition keeps its answers after a sanitized read.
	assert.NotEmpty(t, repo.exams[created.ExamID].Categories[0].Questions[0].CorrectOption)
}

func TestUpdateExamMergesFields(t *testing.T) {
	svc := NewService(newFakeExamRepo())

	created, err := svc.CreateExam(context.Background(), createRequest(), "admin-1")
	require.NoError(t, err)

	disabled := false
	maxErrors := 0
	updated, err := svc.UpdateExam(context.Background(), created.ExamID, &model.UpdateExamRequest{
		Enabled:         &disabled,
		MaxErrorAllowed: &maxErrors,
	})
	require.NoError(t, err)

	assert.False(t, updated.Enabled)
	assert.Equal(t, 0, updated.MaxErrorAllowed)
	assert.Equal(t, "Psychometric Evaluation", updated.Name)
}

func TestGetExamNotFound(t *testing.T) {
	svc := NewService(newFakeExamRepo())

	_, err := svc.GetExam(context.Background(), uuid.New(), true)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteExamDisablesInsteadOfRemoving(t *testing.T) {
	repo := newFakeExamRepo()
	svc := NewService(repo)

	created, err := svc.CreateExam(context.Background(), createRequest(), "admin-1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteExam(context.Background(), created.ExamID, "admin-2"))

	stored := repo.exams[created.ExamID]
	require.NotNil(t, stored)
	assert.False(t, stored.Enabled)
	assert.Equal(t, "admin-2", stored.DisabledBy)
}

func TestAddCategoryAndQuestion(t *testing.T) {
	repo := newFakeExamRepo()
	svc := NewService(repo)

	created, err := svc.CreateExam(context.Background(), createRequest(), "admin-1")
	require.NoError(t, err)

	updated, err := svc.AddCategory(context.Background(), created.ExamID, &model.CategoryRequest{
		Name: "Memory",
		Questions: []model.QuestionRequest{
			{
				Text:          "Pick the first option",
				Options:       []model.QuestionOptionRequest{{Text: "yes"}, {Text: "no"}},
				CorrectOption: 0,
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Categories, 2)
	assert.NotEmpty(t, updated.Categories[1].CategoryID)

	categoryID := updated.Categories[1].CategoryID
	updated, err = svc.AddQuestion(context.Background(), created.ExamID, categoryID, &model.QuestionRequest{
		Text:          "Pick the second option",
		Options:       []model.QuestionOptionRequest{{Text: "a"}, {Text: "b"}},
		CorrectOption: 1,
	})
	require.NoError(t, err)
	require.Len(t, updated.Categories[1].Questions, 2)
	added := updated.Categories[1].Questions[1]
	assert.Equal(t, added.Options[1].OptionID, added.CorrectOption)
}

func TestAddQuestionUnknownCategory(t *testing.T) {
	svc := NewService(newFakeExamRepo())

	created, err := svc.CreateExam(context.Background(), createRequest(), "admin-1")
	require.NoError(t, err)

	_, err = svc.AddQuestion(context.Background(), created.ExamID, "missing", &model.QuestionRequest{
		Text:          "unused",
		Options:       []model.QuestionOptionRequest{{Text: "a"}, {Text: "b"}},
		CorrectOption: 0,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListQuestionsFlattensAndSanitizes(t *testing.T) {
	svc := NewService(newFakeExamRepo())

	created, err := svc.CreateExam(context.Background(), createRequest(), "admin-1")
	require.NoError(t, err)

	_, err = svc.AddCategory(context.Background(), created.ExamID, &model.CategoryRequest{
		Name: "Memory",
		Questions: []model.QuestionRequest{
			{
				Text:          "Pick the first option",
				Options:       []model.QuestionOptionRequest{{Text: "yes"}, {Text: "no"}},
				CorrectOption: 0,
			},
		},
	})
	require.NoError(t, err)

	questions, err := svc.ListQuestions(context.Background(), created.ExamID, false)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	for _, q := range questions {
		assert.Empty(t, q.CorrectOption)
	}

	withAnswers, err := svc.ListQuestions(context.Background(), created.ExamID, true)
	require.NoError(t, err)
	for _, q := range withAnswers {
		assert.NotEmpty(t, q.CorrectOption)
	}
}
