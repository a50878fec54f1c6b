package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/latra/medicsystem-gta-backend/internal/model"
)

// UserRepository stores users and their role profiles. A user row is the
// identity-facing record; doctor and police profiles hang off it by user id.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	CreateDoctor(ctx context.Context, doctor *model.Doctor) error
	CreatePolice(ctx context.Context, police *model.Police) error
	Get(ctx context.Context, userID uuid.UUID) (*model.User, error)
	GetBySubjectID(ctx context.Context, subjectID string) (*model.User, error)
	GetByDNI(ctx context.Context, dni string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetDoctor(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
	GetDoctorByDNI(ctx context.Context, dni string) (*model.Doctor, error)
	GetPolice(ctx context.Context, userID uuid.UUID) (*model.Police, error)
	GetPoliceByDNI(ctx context.Context, dni string) (*model.Police, error)
	Update(ctx context.Context, user *model.User) error
	UpdateDoctorProfile(ctx context.Context, profile *model.DoctorProfile) error
	UpdatePoliceProfile(ctx context.Context, profile *model.PoliceProfile) error
	SetEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error
	List(ctx context.Context, filters model.UserSearchFilters) ([]*model.User, error)
	ListDoctors(ctx context.Context, onlyEnabled bool) ([]*model.Doctor, error)
	ListPolice(ctx context.Context, onlyEnabled bool) ([]*model.Police, error)
}

// PatientRepository stores patient documents keyed by DNI. Updates replace
// the whole document, so embedded history edits stay atomic per row.
type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	GetByDNI(ctx context.Context, dni string) (*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	Disable(ctx context.Context, dni, disabledBy string) error
	List(ctx context.Context, onlyEnabled bool) ([]*model.Patient, error)
	Search(ctx context.Context, namePrefix string) ([]*model.Patient, error)
}

// VisitRepository stores visit documents. Like patients, a visit row is
// updated as a whole document.
type VisitRepository interface {
	Create(ctx context.Context, visit *model.Visit) error
	Get(ctx context.Context, visitID uuid.UUID) (*model.Visit, error)
	Update(ctx context.Context, visit *model.Visit) error
	Delete(ctx context.Context, visitID uuid.UUID) error
	ListByPatient(ctx context.Context, patientDNI string) ([]*model.Visit, error)
	ListByDoctor(ctx context.Context, doctorDNI string) ([]*model.Visit, error)
	ListByStatus(ctx context.Context, status model.VisitStatus) ([]*model.Visit, error)
	GetOpenByPatient(ctx context.Context, patientDNI string) (*model.Visit, error)
}

type ExamRepository interface {
	Create(ctx context.Context, exam *model.Exam) error
	Get(ctx context.Context, examID uuid.UUID) (*model.Exam, error)
	Update(ctx context.Context, exam *model.Exam) error
	List(ctx context.Context, onlyEnabled bool) ([]*model.Exam, error)
	Search(ctx context.Context, namePrefix string) ([]*model.Exam, error)
}

type ExamResultRepository interface {
	Create(ctx context.Context, result *model.ExamResult) error
	Get(ctx context.Context, resultID uuid.UUID) (*model.ExamResult, error)
	ListByPatient(ctx context.Context, patientDNI string) ([]*model.ExamResult, error)
	ListByExam(ctx context.Context, examID uuid.UUID, limit int) ([]*model.ExamResult, error)
	GetLatest(ctx context.Context, examID uuid.UUID, patientDNI string) (*model.ExamResult, error)
	GetLatestApproved(ctx context.Context, examID uuid.UUID, patientDNI string) (*model.ExamResult, error)
	SearchByPatient(ctx context.Context, query string) ([]*model.ExamResult, error)
	ListPatientRecords(ctx context.Context) ([]model.PatientExamRecord, error)
}
