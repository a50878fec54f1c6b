// Package patient manages patient records and their embedded medical
// history.
package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"

	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

type PatientService interface {
	CreatePatient(ctx context.Context, req *model.CreatePatientRequest, createdBy string) (*model.Patient, error)
	GetPatient(ctx context.Context, dni string) (*model.Patient, error)
	UpdatePatient(ctx context.Context, dni string, req *model.UpdatePatientRequest, updatedBy string) (*model.Patient, error)
	DeletePatient(ctx context.Context, dni, deletedBy string) error
	ListPatients(ctx context.Context) ([]model.PatientSummary, error)
	SearchPatients(ctx context.Context, namePrefix string) ([]model.PatientSummary, error)
	UpdateMedicalHistory(ctx context.Context, dni string, req *model.UpdateMedicalHistoryRequest, updatedBy string) (*model.Patient, error)
	ListAdmitted(ctx context.Context) ([]model.PatientAdmitted, error)
	GetObservationsByVisit(ctx context.Context, dni, visitID string) (*model.MedicalHistory, error)

	AddBloodAnalysis(ctx context.Context, dni string, req *model.BloodAnalysisRequest, performedByDNI, performedByName string) (*model.BloodAnalysis, error)
	AddRadiologyStudy(ctx context.Context, dni string, req *model.RadiologyStudyRequest, performedByDNI, performedByName string) (*model.RadiologyStudy, error)
	GetLatestBloodAnalysis(ctx context.Context, dni string) (*model.BloodAnalysis, error)
	GetLatestRadiologyStudy(ctx context.Context, dni string) (*model.RadiologyStudy, error)
}

type Service struct {
	repo   repository.PatientRepository
	visits repository.VisitRepository
}

func NewService(repo repository.PatientRepository, visits repository.VisitRepository) *Service {
	return &Service{repo: repo, visits: visits}
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest, createdBy string) (*model.Patient, error) {
	patient := &model.Patient{
		DNI:              req.DNI,
		Name:             req.Name,
		Age:              req.Age,
		Sex:              req.Sex,
		Phone:            req.Phone,
		BloodType:        req.BloodType,
		DiscapacityLevel: req.DiscapacityLevel,
		MedicalHistory: model.MedicalHistory{
			Allergies:          req.Allergies,
			MedicalNotes:       req.MedicalNotes,
			MajorSurgeries:     req.MajorSurgeries,
			CurrentMedications: req.CurrentMedications,
			ChronicConditions:  req.ChronicConditions,
			FamilyHistory:      req.FamilyHistory,
			LastUpdated:        time.Now(),
			UpdatedBy:          createdBy,
		},
		CreatedBy:     createdBy,
		LastUpdatedBy: createdBy,
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, dni string) (*model.Patient, error) {
	return s.repo.GetByDNI(ctx, dni)
}

func (s *Service) UpdatePatient(ctx context.Context, dni string, req *model.UpdatePatientRequest, updatedBy string) (*model.Patient, error) {
	patient, err := s.repo.GetByDNI(ctx, dni)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.Sex != nil {
		patient.Sex = *req.Sex
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.BloodType != nil {
		patient.BloodType = *req.BloodType
	}
	if req.DiscapacityLevel != nil {
		patient.DiscapacityLevel = req.DiscapacityLevel
	}
	patient.LastUpdatedBy = updatedBy

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// DeletePatient soft-deletes, recording who disabled the record.
func (s *Service) DeletePatient(ctx context.Context, dni, deletedBy string) error {
	return s.repo.Disable(ctx, dni, deletedBy)
}

func (s *Service) ListPatients(ctx context.Context) ([]model.PatientSummary, error) {
	patients, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.PatientSummary, 0, len(patients))
	for _, p := range patients {
		summaries = append(summaries, p.Summary())
	}
	return summaries, nil
}

func (s *Service) SearchPatients(ctx context.Context, namePrefix string) ([]model.PatientSummary, error) {
	patients, err := s.repo.Search(ctx, namePrefix)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.PatientSummary, 0, len(patients))
	for _, p := range patients {
		summaries = append(summaries, p.Summary())
	}
	return summaries, nil
}

func (s *Service) UpdateMedicalHistory(ctx context.Context, dni string, req *model.UpdateMedicalHistoryRequest, updatedBy string) (*model.Patient, error) {
	patient, err := s.repo.GetByDNI(ctx, dni)
	if err != nil {
		return nil, err
	}

	history := &patient.MedicalHistory
	if req.Allergies != nil {
		history.Allergies = *req.Allergies
	}
	if req.MedicalNotes != nil {
		history.MedicalNotes = *req.MedicalNotes
	}
	if req.MajorSurgeries != nil {
		history.MajorSurgeries = *req.MajorSurgeries
	}
	if req.CurrentMedications != nil {
		history.CurrentMedications = *req.CurrentMedications
	}
	if req.ChronicConditions != nil {
		history.ChronicConditions = *req.ChronicConditions
	}
	if req.FamilyHistory != nil {
		history.FamilyHistory = *req.FamilyHistory
	}
	history.LastUpdated = time.Now()
	history.UpdatedBy = updatedBy
	patient.LastUpdatedBy = updatedBy

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// ListAdmitted joins currently admitted visits with their patients.
func (s *Service) ListAdmitted(ctx context.Context) ([]model.PatientAdmitted, error) {
	visits, err := s.visits.ListByStatus(ctx, model.VisitStatusAdmission)
	if err != nil {
		return nil, err
	}
	admitted := make([]model.PatientAdmitted, 0, len(visits))
	for _, v := range visits {
		patient, err := s.repo.GetByDNI(ctx, v.PatientDNI)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		admitted = append(admitted, model.PatientAdmitted{
			PatientSummary: patient.Summary(),
			VisitID:        v.VisitID.String(),
			Reason:         v.Reason,
			Location:       v.Location,
			AttentionPlace: v.AttentionPlace,
			AdmissionDate:  v.AdmissionDate,
		})
	}
	return admitted, nil
}

// AddBloodAnalysis records an analysis performed outside any admission,
// straight into the patient's history.
func (s *Service) AddBloodAnalysis(ctx context.Context, dni string, req *model.BloodAnalysisRequest, performedByDNI, performedByName string) (*model.BloodAnalysis, error) {
	patient, err := s.repo.GetByDNI(ctx, dni)
	if err != nil {
		return nil, err
	}

	analysis := model.BloodAnalysis{
		AnalysisID:      uuid.NewString(),
		DatePerformed:   time.Now(),
		RedBloodCells:   req.RedBloodCells,
		Hemoglobin:      req.Hemoglobin,
		Hematocrit:      req.Hematocrit,
		Platelets:       req.Platelets,
		Lymphocytes:     req.Lymphocytes,
		Glucose:         req.Glucose,
		Cholesterol:     req.Cholesterol,
		Urea:            req.Urea,
		Cocaine:         req.Cocaine,
		Alcohol:         req.Alcohol,
		MDMA:            req.MDMA,
		Fentanyl:        req.Fentanyl,
		PerformedByDNI:  performedByDNI,
		PerformedByName: performedByName,
		Notes:           req.Notes,
	}
	patient.AddBloodAnalysis(analysis)

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// AddRadiologyStudy records a study performed outside any admission.
func (s *Service) AddRadiologyStudy(ctx context.Context, dni string, req *model.RadiologyStudyRequest, performedByDNI, performedByName string) (*model.RadiologyStudy, error) {
	patient, err := s.repo.GetByDNI(ctx, dni)
	if err != nil {
		return nil, err
	}

	study := model.RadiologyStudy{
		StudyID:         uuid.NewString(),
		DatePerformed:   time.Now(),
		StudyType:       req.StudyType,
		BodyPart:        req.BodyPart,
		Findings:        req.Findings,
		ImageURL:        req.ImageURL,
		PerformedByDNI:  performedByDNI,
		PerformedByName: performedByName,
	}
	patient.AddRadiologyStudy(study)

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}
	return &study, nil
}

func (s *Service) GetLatestBloodAnalysis(ctx context.Context, dni string) (*model.BloodAnalysis, error) {
	patient, err := s.repo.GetByDNI(ctx, dni)
	if err != nil {
		return nil, err
	}
	latest := patient.LatestBloodAnalysis()
	if latest == nil {
		return nil, apperrors.NotFound("blood analysis", nil)
	}
	return latest, nil
}

func (s *Service) GetLatestRadiologyStudy(ctx context.Context, dni string) (*model.RadiologyStudy, error) {
	patient, err := s.repo.GetByDNI(ctx, dni)
	if err != nil {
		return nil, err
	}
	latest := patient.LatestRadiologyStudy()
	if latest == nil {
		return nil, apperrors.NotFound("radiology study", nil)
	}
	return latest, nil
}

// GetObservationsByVisit returns only the history entries recorded
// during the given visit.
func (s *Service) GetObservationsByVisit(ctx context.Context, dni, visitID string) (*model.MedicalHistory, error) {
	patient, err := s.repo.GetByDNI(ctx, dni)
	if err != nil {
		return nil, err
	}

	filtered := patient.MedicalHistory
	filtered.BloodAnalyses = nil
	filtered.RadiologyStudies = nil
	for _, a := range patient.MedicalHistory.BloodAnalyses {
		if a.VisitRelatedID == visitID {
			filtered.BloodAnalyses = append(filtered.BloodAnalyses, a)
		}
	}
	for _, r := range patient.MedicalHistory.RadiologyStudies {
		if r.VisitRelatedID == visitID {
			filtered.RadiologyStudies = append(filtered.RadiologyStudies, r)
		}
	}
	return &filtered, nil
}
