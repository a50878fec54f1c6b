package examresult

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"
	"github.com/latra/medicsystem-gta-backend/pkg/logger"

	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

type fakeExamRepo struct {
	repository.ExamRepository
	exam *model.Exam
}

func (f *fakeExamRepo) Get(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	if f.exam == nil || f.exam.ExamID != examID {
		return nil, apperrors.NotFound("exam", nil)
	}
	return f.exam, nil
}

type fakeResultRepo struct {
	repository.ExamResultRepository
	created []*model.ExamResult
	results []*model.ExamResult
	err     error
}

func (f *fakeResultRepo) Create(ctx context.Context, result *model.ExamResult) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, result)
	return nil
}

func (f *fakeResultRepo) ListByExam(ctx context.Context, examID uuid.UUID, limit int) ([]*model.ExamResult, error) {
	return f.results, nil
}

type fakePatientRepo struct {
	repository.PatientRepository
	patient *model.Patient
}

func (f *fakePatientRepo) GetByDNI(ctx context.Context, dni string) (*model.Patient, error) {
	if f.patient == nil || f.patient.DNI != dni {
		return nil, apperrors.NotFound("patient", nil)
	}
	return f.patient, nil
}

type fakeUserRepo struct {
	repository.UserRepository
	user *model.User
}

func (f *fakeUserRepo) GetByDNI(ctx context.Context, dni string) (*model.User, error) {
	if f.user == nil || f.user.DNI != dni {
		return nil, apperrors.NotFound("user", nil)
	}
	return f.user, nil
}

type fakeMailer struct {
	certificates []string
	err          error
}

func (f *fakeMailer) SendWelcome(ctx context.Context, to, name, defaultPassword string) error {
	return nil
}

func (f *fakeMailer) SendExamCertificate(ctx context.Context, to, name, examName string, score float64) error {
	if f.err != nil {
		return f.err
	}
	f.certificates = append(f.certificates, to)
	return nil
}

func (f *fakeMailer) SendCustom(ctx context.Context, to, subject, content string) error {
	return nil
}

func testExam() *model.Exam {
	return &model.Exam{
		ExamID:          uuid.New(),
		Name:            "Aptitude Exam",
		MaxErrorAllowed: 1,
		Enabled:         true,
		Categories: model.CategoryList{
			{
				CategoryID: "cat-1",
				Name:       "General",
				Questions: []model.Question{
					{QuestionID: "q1", CorrectOption: "q1-0"},
					{QuestionID: "q2", CorrectOption: "q2-1"},
					{QuestionID: "q3", CorrectOption: "q3-2"},
				},
			},
		},
	}
}

func newTestService(exam *model.Exam, patient *model.Patient, user *model.User) (*Service, *fakeResultRepo, *fakeMailer) {
	results := &fakeResultRepo{}
	mailer := &fakeMailer{}
	svc := NewService(
		results,
		&fakeExamRepo{exam: exam},
		&fakePatientRepo{patient: patient},
		&fakeUserRepo{user: user},
		mailer,
		logger.NewNopLogger(),
	)
	return svc, results, mailer
}

func TestSubmitGradesAgainstExamDefinition(t *testing.T) {
	exam := testExam()
	patient := &model.Patient{DNI: "123456", Name: "John Doe"}
	svc, results, _ := newTestService(exam, patient, nil)

	result, err := svc.Submit(context.Background(), exam.ExamID, &model.SubmitExamRequest{
		PatientDNI: "123456",
		Answers: []model.SubmittedAnswer{
			{QuestionID: "q1", SelectedOption: "q1-0"},
			{QuestionID: "q2", SelectedOption: "q2-0"},
			{QuestionID: "q3", SelectedOption: "q3-2"},
		},
	}, "doctor-1")
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 2, result.CorrectAnswers)
	assert.Equal(t, 1, result.IncorrectAnswers)
	assert.True(t, result.Approved)
	assert.Equal(t, model.ExamResultPassed, result.Status)
	assert.Equal(t, "Aptitude Exam", result.ExamName)
	assert.Equal(t, "John Doe", result.PatientName)
	assert.Equal(t, "doctor-1", result.GradedBy)
	require.Len(t, results.created, 1)
}

func TestSubmitDropsUnknownQuestions(t *testing.T) {
	exam := testExam()
	patient := &model.Patient{DNI: "123456", Name: "John Doe"}
	svc, _, _ := newTestService(exam, patient, nil)

	result, err := svc.Submit(context.Background(), exam.ExamID, &model.SubmitExamRequest{
		PatientDNI: "123456",
		Answers: []model.SubmittedAnswer{
			{QuestionID: "q1", SelectedOption: "q1-0"},
			{QuestionID: "ghost", SelectedOption: "anything"},
		},
	}, "doctor-1")
	require.NoError(t, err)

	// The unknown question neither counts as correct nor incorrect.
	assert.Equal(t, 1, result.TotalQuestions)
	assert.Equal(t, 1, result.CorrectAnswers)
	assert.Equal(t, 0, result.IncorrectAnswers)
	for _, a := range result.Answers {
		assert.NotEqual(t, "ghost", a.QuestionID)
	}
}

func TestSubmitFreezesExamNameAndCorrectOptions(t *testing.T) {
	exam := testExam()
	patient := &model.Patient{DNI: "123456", Name: "John Doe"}
	svc, results, _ := newTestService(exam, patient, nil)

	_, err := svc.Submit(context.Background(), exam.ExamID, &model.SubmitExamRequest{
		PatientDNI: "123456",
		Answers:    []model.SubmittedAnswer{{QuestionID: "q2", SelectedOption: "q2-1"}},
	}, "doctor-1")
	require.NoError(t, err)

	// Rename the exam after submission; the stored result keeps the
	// name and correct options it was graded with.
	exam.Name = "Renamed Exam"
	exam.Categories[0].Questions[1].CorrectOption = "q2-0"

	stored := results.created[0]
	assert.Equal(t, "Aptitude Exam", stored.ExamName)
	require.Len(t, stored.Answers, 1)
	assert.Equal(t, "q2-1", stored.Answers[0].CorrectOption)
	assert.True(t, stored.Answers[0].IsCorrect)
}

func TestSubmitRejectsDisabledExam(t *testing.T) {
	exam := testExam()
	exam.Enabled = false
	svc, results, _ := newTestService(exam, &model.Patient{DNI: "123456"}, nil)

	_, err := svc.Submit(context.Background(), exam.ExamID, &model.SubmitExamRequest{
		PatientDNI: "123456",
	}, "doctor-1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Empty(t, results.created)
}

func TestSubmitRequiresExistingPatient(t *testing.T) {
	exam := testExam()
	svc, _, _ := newTestService(exam, nil, nil)

	_, err := svc.Submit(context.Background(), exam.ExamID, &model.SubmitExamRequest{
		PatientDNI: "123456",
	}, "doctor-1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestSubmitSendsCertificateOnPass(t *testing.T) {
	exam := testExam()
	patient := &model.Patient{DNI: "123456", Name: "John Doe"}
	user := &model.User{DNI: "123456", Email: "john@example.com"}
	svc, _, mailer := newTestService(exam, patient, user)

	_, err := svc.Submit(context.Background(), exam.ExamID, &model.SubmitExamRequest{
		PatientDNI: "123456",
		Answers: []model.SubmittedAnswer{
			{QuestionID: "q1", SelectedOption: "q1-0"},
			{QuestionID: "q2", SelectedOption: "q2-1"},
			{QuestionID: "q3", SelectedOption: "q3-2"},
		},
	}, "doctor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"john@example.com"}, mailer.certificates)
}

func TestSubmitSkipsCertificateOnFail(t *testing.T) {
	exam := testExam()
	patient := &model.Patient{DNI: "123456", Name: "John Doe"}
	user := &model.User{DNI: "123456", Email: "john@example.com"}
	svc, _, mailer := newTestService(exam, patient, user)

	_, err := svc.Submit(context.Background(), exam.ExamID, &model.SubmitExamRequest{
		PatientDNI: "123456",
		Answers: []model.SubmittedAnswer{
			{QuestionID: "q1", SelectedOption: "wrong"},
			{QuestionID: "q2", SelectedOption: "wrong"},
			{QuestionID: "q3", SelectedOption: "wrong"},
		},
	}, "doctor-1")
	require.NoError(t, err)
	assert.Empty(t, mailer.certificates)
}

func TestSubmitCertificateFailureDoesNotAffectResult(t *testing.T) {
	exam := testExam()
	patient := &model.Patient{DNI: "123456", Name: "John Doe"}
	user := &model.User{DNI: "123456", Email: "john@example.com"}
	results := &fakeResultRepo{}
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc := NewService(results, &fakeExamRepo{exam: exam}, &fakePatientRepo{patient: patient}, &fakeUserRepo{user: user}, mailer, logger.NewNopLogger())

	result, err := svc.Submit(context.Background(), exam.ExamID, &model.SubmitExamRequest{
		PatientDNI: "123456",
		Answers:    []model.SubmittedAnswer{{QuestionID: "q1", SelectedOption: "q1-0"}},
	}, "doctor-1")
	require.NoError(t, err)
	assert.True(t, result.Approved)
	require.Len(t, results.created, 1)
}

func TestGetStatistics(t *testing.T) {
	exam := testExam()
	results := &fakeResultRepo{results: []*model.ExamResult{
		{ScorePercentage: 100, Approved: true, SubmittedAt: time.Now()},
		{ScorePercentage: 50, Approved: false, SubmittedAt: time.Now()},
		{ScorePercentage: 90, Approved: true, SubmittedAt: time.Now()},
	}}
	svc := NewService(results, &fakeExamRepo{exam: exam}, &fakePatientRepo{}, &fakeUserRepo{}, nil, logger.NewNopLogger())

	stats, err := svc.GetStatistics(context.Background(), exam.ExamID, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalAttempts)
	assert.Equal(t, 2, stats.PassedAttempts)
	assert.Equal(t, 1, stats.FailedAttempts)
	assert.InDelta(t, 66.666, stats.PassRate, 0.01)
	assert.InDelta(t, 80, stats.AverageScore, 0.001)
}

func TestGetStatisticsTrailingWindow(t *testing.T) {
	exam := testExam()
	results := &fakeResultRepo{results: []*model.ExamResult{
		{ScorePercentage: 100, Approved: true, SubmittedAt: time.Now()},
		{ScorePercentage: 50, Approved: false, SubmittedAt: time.Now().Add(-48 * time.Hour)},
	}}
	svc := NewService(results, &fakeExamRepo{exam: exam}, &fakePatientRepo{}, &fakeUserRepo{}, nil, logger.NewNopLogger())

	stats, err := svc.GetStatistics(context.Background(), exam.ExamID, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalAttempts)
	assert.Equal(t, 1, stats.PassedAttempts)
	assert.InDelta(t, 100, stats.PassRate, 0.001)
}
