package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

type QuestionOption struct {
	OptionID string `json:"option_id"`
	Text     string `json:"text"`
}

type Question struct {
	QuestionID    string           `json:"question_id"`
	Text          string           `json:"text"`
	Options       []QuestionOption `json:"options"`
	CorrectOption string           `json:"correct_option"`
	Points        int              `json:"points,omitempty"`
}

type Category struct {
	CategoryID  string     `json:"category_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

type CategoryList []Category

func (l CategoryList) Value() (driver.Value, error) {
	if l == nil {
		l = CategoryList{}
	}
	return jsonbMarshal(l)
}

func (l *CategoryList) Scan(src interface{}) error { return jsonbScan(l, src) }

// Exam is a psychometric exam definition. Questions live inside
// categories; correct options are stripped before handing the exam to
// anyone who is not an admin.
type Exam struct {
	ExamID          uuid.UUID    `db:"exam_id" json:"exam_id"`
	Name            string       `db:"name" json:"name"`
	Description     string       `db:"description" json:"description,omitempty"`
	Categories      CategoryList `db:"categories" json:"categories"`
	MaxErrorAllowed int          `db:"max_error_allowed" json:"max_error_allowed"`
	TimeLimit       int          `db:"time_limit_minutes" json:"time_limit_minutes,omitempty"`
	Enabled         bool         `db:"enabled" json:"enabled"`
	DisabledBy      string       `db:"disabled_by" json:"disabled_by,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
	CreatedBy       string       `db:"created_by" json:"created_by,omitempty"`
}

// AllQuestions flattens every category's questions in definition order.
func (e *Exam) AllQuestions() []Question {
	var out []Question
	for _, c := range e.Categories {
		out = append(out, c.Questions...)
	}
	return out
}

// FindQuestion returns the question with the given id, or false when the
// exam does not contain it.
func (e *Exam) FindQuestion(questionID string) (Question, bool) {
	for _, c := range e.Categories {
		for _, q := range c.Questions {
			if q.QuestionID == questionID {
				return q, true
			}
		}
	}
	return Question{}, false
}

// Sanitized returns a copy with correct options removed.
func (e *Exam) Sanitized() *Exam {
	out := *e
	out.Categories = make(CategoryList, len(e.Categories))
	for i, c := range e.Categories {
		sc := c
		sc.Questions = make([]Question, len(c.Questions))
		for j, q := range c.Questions {
			sq := q
			sq.CorrectOption = ""
			sc.Questions[j] = sq
		}
		out.Categories[i] = sc
	}
	return &out
}

// QuestionAnswer is one graded answer inside an ExamResult.
type QuestionAnswer struct {
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	CorrectOption  string `json:"correct_option"`
	IsCorrect      bool   `json:"is_correct"`
}

type AnswerList []QuestionAnswer

func (l AnswerList) Value() (driver.Value, error) {
	if l == nil {
		l = AnswerList{}
	}
	return jsonbMarshal(l)
}

func (l *AnswerList) Scan(src interface{}) error { return jsonbScan(l, src) }

// ExamResult freezes the exam name and the correct options at submission
// time, so later edits to the exam never change a recorded outcome.
type ExamResult struct {
	ResultID         uuid.UUID        `db:"result_id" json:"result_id"`
	ExamID           uuid.UUID        `db:"exam_id" json:"exam_id"`
	ExamName         string           `db:"exam_name" json:"exam_name"`
	PatientDNI       string           `db:"patient_dni" json:"patient_dni"`
	PatientName      string           `db:"patient_name" json:"patient_name"`
	Answers          AnswerList       `db:"answers" json:"answers"`
	TotalQuestions   int              `db:"total_questions" json:"total_questions"`
	CorrectAnswers   int              `db:"correct_answers" json:"correct_answers"`
	IncorrectAnswers int              `db:"incorrect_answers" json:"incorrect_answers"`
	ScorePercentage  float64          `db:"score_percentage" json:"score_percentage"`
	Approved         bool             `db:"approved" json:"approved"`
	Status           ExamResultStatus `db:"status" json:"status"`
	SubmittedAt      time.Time        `db:"submitted_at" json:"submitted_at"`
	GradedBy         string           `db:"graded_by" json:"graded_by,omitempty"`
}

// CalculateResults derives the aggregate fields from the answer list.
// Every answer in the list was matched against a known question; the
// incorrect count is whatever remains after the correct ones.
func (r *ExamResult) CalculateResults(maxErrorAllowed int) {
	r.TotalQuestions = len(r.Answers)
	r.CorrectAnswers = 0
	for _, a := range r.Answers {
		if a.IsCorrect {
			r.CorrectAnswers++
		}
	}
	r.IncorrectAnswers = r.TotalQuestions - r.CorrectAnswers
	if r.TotalQuestions > 0 {
		r.ScorePercentage = float64(r.CorrectAnswers) * 100 / float64(r.TotalQuestions)
	} else {
		r.ScorePercentage = 0
	}
	r.Approved = r.IncorrectAnswers <= maxErrorAllowed
	if r.Approved {
		r.Status = ExamResultPassed
	} else {
		r.Status = ExamResultFailed
	}
}

type QuestionOptionRequest struct {
	Text string `json:"text" binding:"required"`
}

type QuestionRequest struct {
	Text          string                  `json:"text" binding:"required"`
	Options       []QuestionOptionRequest `json:"options" binding:"required,min=2,dive"`
	CorrectOption int                     `json:"correct_option" binding:"min=0"`
	Points        int                     `json:"points" binding:"omitempty,min=0"`
}

type CategoryRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	Questions   []QuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

type CreateExamRequest struct {
	Name            string            `json:"name" binding:"required,min=3"`
	Description     string            `json:"description"`
	Categories      []CategoryRequest `json:"categories" binding:"required,min=1,dive"`
	MaxErrorAllowed int               `json:"max_error_allowed" binding:"min=0"`
	TimeLimit       int               `json:"time_limit_minutes" binding:"omitempty,min=1"`
}

type UpdateExamRequest struct {
	Name            *string `json:"name" binding:"omitempty,min=3"`
	Description     *string `json:"description"`
	MaxErrorAllowed *int    `json:"max_error_allowed" binding:"omitempty,min=0"`
	TimeLimit       *int    `json:"time_limit_minutes" binding:"omitempty,min=1"`
	Enabled         *bool   `json:"enabled"`
}

type SubmittedAnswer struct {
	QuestionID     string `json:"question_id" binding:"required"`
	SelectedOption string `json:"selected_option" binding:"required"`
}

type SubmitExamRequest struct {
	PatientDNI string            `json:"patient_dni" binding:"required,dni"`
	Answers    []SubmittedAnswer `json:"answers" binding:"required,dive"`
}

// ExamResultSummary is the listing view of a graded submission.
type ExamResultSummary struct {
	ResultID        uuid.UUID        `json:"result_id"`
	ExamID          uuid.UUID        `json:"exam_id"`
	ExamName        string           `json:"exam_name"`
	PatientDNI      string           `json:"patient_dni"`
	PatientName     string           `json:"patient_name"`
	ScorePercentage float64          `json:"score_percentage"`
	Approved        bool             `json:"approved"`
	Status          ExamResultStatus `json:"status"`
	SubmittedAt     time.Time        `json:"submitted_at"`
}

func (r *ExamResult) Summary() ExamResultSummary {
	return ExamResultSummary{
		ResultID:        r.ResultID,
		ExamID:          r.ExamID,
		ExamName:        r.ExamName,
		PatientDNI:      r.PatientDNI,
		PatientName:     r.PatientName,
		ScorePercentage: r.ScorePercentage,
		Approved:        r.Approved,
		Status:          r.Status,
		SubmittedAt:     r.SubmittedAt,
	}
}

// ExamStatistics aggregates the outcomes recorded for one exam.
// PatientExamRecord aggregates a patient's attempts across all exams.
type PatientExamRecord struct {
	PatientDNI      string    `db:"patient_dni" json:"patient_dni"`
	PatientName     string    `db:"patient_name" json:"patient_name"`
	TotalAttempts   int       `db:"total_attempts" json:"total_attempts"`
	PassedAttempts  int       `db:"passed_attempts" json:"passed_attempts"`
	LastSubmittedAt time.Time `db:"last_submitted_at" json:"last_submitted_at"`
}

type ExamStatistics struct {
	ExamID         uuid.UUID `json:"exam_id"`
	ExamName       string    `json:"exam_name"`
	TotalAttempts  int       `json:"total_attempts"`
	PassedAttempts int       `json:"passed_attempts"`
	FailedAttempts int       `json:"failed_attempts"`
	PassRate       float64   `json:"pass_rate"`
	AverageScore   float64   `json:"average_score"`
}
