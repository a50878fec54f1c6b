// Package examresult grades exam submissions and serves the recorded
// outcomes.
package examresult

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"
	"github.com/latra/medicsystem-gta-backend/pkg/logger"

	"github.com/latra/medicsystem-gta-backend/internal/email"
	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

type ExamResultService interface {
	Submit(ctx context.Context, examID uuid.UUID, req *model.SubmitExamRequest, gradedBy string) (*model.ExamResult, error)
	GetResult(ctx context.Context, resultID uuid.UUID) (*model.ExamResult, error)
	ListByPatient(ctx context.Context, patientDNI string) ([]model.ExamResultSummary, error)
	ListByExam(ctx context.Context, examID uuid.UUID, limit int) ([]model.ExamResultSummary, error)
	GetLatest(ctx context.Context, examID uuid.UUID, patientDNI string) (*model.ExamResult, error)
	GetLatestCertificate(ctx context.Context, examID uuid.UUID, patientDNI string) (*model.ExamResult, error)
	GetStatistics(ctx context.Context, examID uuid.UUID, window time.Duration) (*model.ExamStatistics, error)
	SearchByPatient(ctx context.Context, query string) ([]model.ExamResultSummary, error)
	ListPatientRecords(ctx context.Context) ([]model.PatientExamRecord, error)
}

type Service struct {
	results  repository.ExamResultRepository
	exams    repository.ExamRepository
	patients repository.PatientRepository
	users    repository.UserRepository
	mailer   email.Service
	logger   *logger.Logger
}

func NewService(results repository.ExamResultRepository, exams repository.ExamRepository, patients repository.PatientRepository, users repository.UserRepository, mailer email.Service, log *logger.Logger) *Service {
	if mailer == nil {
		mailer = email.NewNoopService()
	}
	return &Service{
		results:  results,
		exams:    exams,
		patients: patients,
		users:    users,
		mailer:   mailer,
		logger:   log,
	}
}

// Submit grades a submission against the exam definition. Answers for
// questions the exam does not contain are dropped. The result freezes
// the exam name and the correct options so later edits to the exam do
// not rewrite history.
func (s *Service) Submit(ctx context.Context, examID uuid.UUID, req *model.SubmitExamRequest, gradedBy string) (*model.ExamResult, error) {
	exam, err := s.exams.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !exam.Enabled {
		// A disabled exam is invisible to submitters.
		return nil, apperrors.NotFound("exam", nil)
	}

	patient, err := s.patients.GetByDNI(ctx, req.PatientDNI)
	if err != nil {
		return nil, err
	}

	result := &model.ExamResult{
		ResultID:    uuid.New(),
		ExamID:      exam.ExamID,
		ExamName:    exam.Name,
		PatientDNI:  patient.DNI,
		PatientName: patient.Name,
		SubmittedAt: time.Now(),
		GradedBy:    gradedBy,
	}

	for _, answer := range req.Answers {
		question, ok := exam.FindQuestion(answer.QuestionID)
		if !ok {
			continue
		}
		result.Answers = append(result.Answers, model.QuestionAnswer{
			QuestionID:     question.QuestionID,
			SelectedOption: answer.SelectedOption,
			CorrectOption:  question.CorrectOption,
			IsCorrect:      answer.SelectedOption == question.CorrectOption,
		})
	}

	result.CalculateResults(exam.MaxErrorAllowed)

	if err := s.results.Create(ctx, result); err != nil {
		return nil, err
	}

	if result.Approved {
		s.sendCertificate(ctx, patient, result)
	}
	return result, nil
}

// sendCertificate mails the passing patient's user account, when one
// exists. Failures never affect the recorded result.
func (s *Service) sendCertificate(ctx context.Context, patient *model.Patient, result *model.ExamResult) {
	user, err := s.users.GetByDNI(ctx, patient.DNI)
	if err != nil || user.Email == "" {
		return
	}
	if err := s.mailer.SendExamCertificate(ctx, user.Email, patient.Name, result.ExamName, result.ScorePercentage); err != nil {
		s.logger.Warn(fmt.Sprintf("failed to send exam certificate to %s: %v", user.Email, err))
	}
}

func (s *Service) GetResult(ctx context.Context, resultID uuid.UUID) (*model.ExamResult, error) {
	return s.results.Get(ctx, resultID)
}

func (s *Service) ListByPatient(ctx context.Context, patientDNI string) ([]model.ExamResultSummary, error) {
	results, err := s.results.ListByPatient(ctx, patientDNI)
	if err != nil {
		return nil, err
	}
	return summarize(results), nil
}

func (s *Service) ListByExam(ctx context.Context, examID uuid.UUID, limit int) ([]model.ExamResultSummary, error) {
	results, err := s.results.ListByExam(ctx, examID, limit)
	if err != nil {
		return nil, err
	}
	return summarize(results), nil
}

func (s *Service) GetLatest(ctx context.Context, examID uuid.UUID, patientDNI string) (*model.ExamResult, error) {
	return s.results.GetLatest(ctx, examID, patientDNI)
}

// GetLatestCertificate returns the most recent passing result only.
func (s *Service) GetLatestCertificate(ctx context.Context, examID uuid.UUID, patientDNI string) (*model.ExamResult, error) {
	return s.results.GetLatestApproved(ctx, examID, patientDNI)
}

func (s *Service) SearchByPatient(ctx context.Context, query string) ([]model.ExamResultSummary, error) {
	results, err := s.results.SearchByPatient(ctx, query)
	if err != nil {
		return nil, err
	}
	return summarize(results), nil
}

func (s *Service) ListPatientRecords(ctx context.Context) ([]model.PatientExamRecord, error) {
	return s.results.ListPatientRecords(ctx)
}

// GetStatistics aggregates attempts, optionally limited to a trailing
// window. A zero window covers everything.
func (s *Service) GetStatistics(ctx context.Context, examID uuid.UUID, window time.Duration) (*model.ExamStatistics, error) {
	exam, err := s.exams.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	results, err := s.results.ListByExam(ctx, examID, 0)
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if window > 0 {
		cutoff = time.Now().Add(-window)
	}

	stats := &model.ExamStatistics{
		ExamID:   exam.ExamID,
		ExamName: exam.Name,
	}
	var totalScore float64
	for _, r := range results {
		if !cutoff.IsZero() && r.SubmittedAt.Before(cutoff) {
			continue
		}
		stats.TotalAttempts++
		totalScore += r.ScorePercentage
		if r.Approved {
			stats.PassedAttempts++
		} else {
			stats.FailedAttempts++
		}
	}
	if stats.TotalAttempts > 0 {
		stats.PassRate = float64(stats.PassedAttempts) * 100 / float64(stats.TotalAttempts)
		stats.AverageScore = totalScore / float64(stats.TotalAttempts)
	}
	return stats, nil
}

func summarize(results []*model.ExamResult) []model.ExamResultSummary {
	summaries := make([]model.ExamResultSummary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, r.Summary())
	}
	return summaries
}
