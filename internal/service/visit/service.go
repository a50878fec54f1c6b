// Package visit manages admissions and everything recorded during one:
// vitals, diagnoses, prescriptions, procedures, evolutions and
// observations. Observations are mirrored into the patient's aggregate
// history so both records can be read on their own.
package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"
	"github.com/latra/medicsystem-gta-backend/pkg/logger"

	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

type VisitService interface {
	CreateVisit(ctx context.Context, req *model.CreateVisitRequest, doctorDNI string) (*model.Visit, error)
	GetVisit(ctx context.Context, visitID uuid.UUID) (*model.Visit, error)
	UpdateVisit(ctx context.Context, visitID uuid.UUID, req *model.UpdateVisitRequest, updatedBy string) (*model.Visit, error)
	DeleteVisit(ctx context.Context, visitID uuid.UUID) error
	ListByPatient(ctx context.Context, patientDNI string) ([]model.VisitSummary, error)
	ListByDoctor(ctx context.Context, doctorDNI string) ([]model.VisitSummary, error)
	ListAdmitted(ctx context.Context) ([]*model.Visit, error)
	ListByStatus(ctx context.Context, status model.VisitStatus) ([]*model.Visit, error)
	Discharge(ctx context.Context, visitID uuid.UUID, req *model.DischargeRequest, dischargedBy string) (*model.Visit, error)

	AddVitalSigns(ctx context.Context, visitID uuid.UUID, req *model.VitalSignsRequest, measuredBy string) (*model.Visit, error)
	AddDiagnosis(ctx context.Context, visitID uuid.UUID, req *model.DiagnosisRequest, diagnosedBy string) (*model.Visit, error)
	AddPrescription(ctx context.Context, visitID uuid.UUID, req *model.PrescriptionRequest, prescribedBy string) (*model.Visit, error)
	AddProcedure(ctx context.Context, visitID uuid.UUID, req *model.ProcedureRequest, performedBy string) (*model.Visit, error)
	AddEvolution(ctx context.Context, visitID uuid.UUID, req *model.EvolutionRequest, recordedBy string) (*model.Visit, error)

	RecordBloodAnalysis(ctx context.Context, visitID uuid.UUID, req *model.BloodAnalysisRequest, performer Performer) (*model.BloodAnalysis, error)
	RecordRadiologyStudy(ctx context.Context, visitID uuid.UUID, req *model.RadiologyStudyRequest, performer Performer) (*model.RadiologyStudy, error)
}

// Performer identifies the doctor recording an observation.
type Performer struct {
	DNI  string
	Name string
}

type Service struct {
	repo     repository.VisitRepository
	patients repository.PatientRepository
	users    repository.UserRepository
	logger   *logger.Logger
}

func NewService(repo repository.VisitRepository, patients repository.PatientRepository, users repository.UserRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, patients: patients, users: users, logger: log}
}

func (s *Service) CreateVisit(ctx context.Context, req *model.CreateVisitRequest, doctorDNI string) (*model.Visit, error) {
	if _, err := s.patients.GetByDNI(ctx, req.PatientDNI); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetOpenByPatient(ctx, req.PatientDNI); err == nil {
		return nil, apperrors.Conflict("patient already has an open visit", nil)
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	triage := req.Triage
	if triage == "" {
		triage = model.TriageUnknown
	}
	priority := req.PriorityLevel
	if priority == 0 {
		priority = 3
	}

	visit := &model.Visit{
		VisitID:            uuid.New(),
		PatientDNI:         req.PatientDNI,
		Reason:             req.Reason,
		AttentionPlace:     req.AttentionPlace,
		AttentionDetails:   req.AttentionDetails,
		Location:           req.Location,
		Status:             model.VisitStatusAdmission,
		Triage:             triage,
		PriorityLevel:      priority,
		AttendingDoctorDNI: doctorDNI,
		AdmissionDate:      time.Now(),
		CreatedBy:          doctorDNI,
		LastUpdatedBy:      doctorDNI,
	}

	if req.AdmissionHeartRate != 0 || req.AdmissionBloodPressure != 0 ||
		req.AdmissionTemperature != 0 || req.AdmissionOxygenSaturation != 0 {
		visit.AdmissionVitalSigns = model.VitalSigns{
			MeasurementID:    uuid.NewString(),
			MeasuredAt:       visit.AdmissionDate,
			HeartRate:        req.AdmissionHeartRate,
			SystolicPressure: req.AdmissionBloodPressure,
			Temperature:      req.AdmissionTemperature,
			OxygenSaturation: req.AdmissionOxygenSaturation,
			MeasuredBy:       doctorDNI,
		}
	}

	if err := s.repo.Create(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

func (s *Service) GetVisit(ctx context.Context, visitID uuid.UUID) (*model.Visit, error) {
	return s.repo.Get(ctx, visitID)
}

func (s *Service) UpdateVisit(ctx context.Context, visitID uuid.UUID, req *model.UpdateVisitRequest, updatedBy string) (*model.Visit, error) {
	visit, err := s.openVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	if req.Reason != nil {
		visit.Reason = *req.Reason
	}
	if req.AttentionDetails != nil {
		visit.AttentionDetails = *req.AttentionDetails
	}
	if req.Location != nil {
		visit.Location = *req.Location
	}
	if req.Triage != nil {
		visit.Triage = *req.Triage
	}
	if req.PriorityLevel != nil {
		visit.PriorityLevel = *req.PriorityLevel
	}
	if req.AdditionalObservations != nil {
		visit.AdditionalObservations = *req.AdditionalObservations
	}
	if req.NursingNote != nil && *req.NursingNote != "" {
		visit.NursingNotes = append(visit.NursingNotes, *req.NursingNote)
	}
	visit.LastUpdatedBy = updatedBy

	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

func (s *Service) DeleteVisit(ctx context.Context, visitID uuid.UUID) error {
	return s.repo.Delete(ctx, visitID)
}

func (s *Service) ListByPatient(ctx context.Context, patientDNI string) ([]model.VisitSummary, error) {
	visits, err := s.repo.ListByPatient(ctx, patientDNI)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, visits), nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorDNI string) ([]model.VisitSummary, error) {
	visits, err := s.repo.ListByDoctor(ctx, doctorDNI)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, visits), nil
}

func (s *Service) ListAdmitted(ctx context.Context) ([]*model.Visit, error) {
	return s.repo.ListByStatus(ctx, model.VisitStatusAdmission)
}

func (s *Service) ListByStatus(ctx context.Context, status model.VisitStatus) ([]*model.Visit, error) {
	switch status {
	case model.VisitStatusAdmission, model.VisitStatusDischarge:
	default:
		return nil, apperrors.Validation("invalid visit status", nil)
	}
	return s.repo.ListByStatus(ctx, status)
}

// summarize denormalizes the attending doctor into each summary. A
// missing doctor record leaves the name fields empty rather than
// failing the listing.
func (s *Service) summarize(ctx context.Context, visits []*model.Visit) []model.VisitSummary {
	doctors := make(map[string]*model.Doctor)
	summaries := make([]model.VisitSummary, 0, len(visits))
	for _, v := range visits {
		summary := model.VisitSummary{
			VisitID:          v.VisitID,
			PatientDNI:       v.PatientDNI,
			Status:           v.Status,
			Reason:           v.Reason,
			AttentionPlace:   v.AttentionPlace,
			AttentionDetails: v.AttentionDetails,
			Location:         v.Location,
			Triage:           v.Triage,
			DoctorDNI:        v.AttendingDoctorDNI,
			AdmissionDate:    v.AdmissionDate,
			DischargeDate:    v.DischargeDate,
		}
		doctor, ok := doctors[v.AttendingDoctorDNI]
		if !ok {
			var err error
			doctor, err = s.users.GetDoctorByDNI(ctx, v.AttendingDoctorDNI)
			if err != nil {
				doctor = nil
			}
			doctors[v.AttendingDoctorDNI] = doctor
		}
		if doctor != nil {
			summary.DoctorName = doctor.Name
			summary.DoctorEmail = doctor.Email
			summary.DoctorSpecialty = doctor.Profile.Specialty
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func (s *Service) Discharge(ctx context.Context, visitID uuid.UUID, req *model.DischargeRequest, dischargedBy string) (*model.Visit, error) {
	visit, err := s.openVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	visit.FollowUpRequired = req.FollowUpRequired
	visit.FollowUpDate = req.FollowUpDate
	visit.FollowUpSpecialty = req.FollowUpSpecialty
	visit.Discharge(req.DischargeSummary, req.DischargeInstructions, dischargedBy)

	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

// openVisit rejects writes against discharged visits.
func (s *Service) openVisit(ctx context.Context, visitID uuid.UUID) (*model.Visit, error) {
	visit, err := s.repo.Get(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if visit.IsCompleted {
		return nil, apperrors.Conflict("visit is already discharged", nil)
	}
	return visit, nil
}

func (s *Service) AddVitalSigns(ctx context.Context, visitID uuid.UUID, req *model.VitalSignsRequest, measuredBy string) (*model.Visit, error) {
	visit, err := s.openVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	visit.AddVitalSigns(model.VitalSigns{
		MeasurementID:     uuid.NewString(),
		MeasuredAt:        time.Now(),
		HeartRate:         req.HeartRate,
		SystolicPressure:  req.SystolicPressure,
		DiastolicPressure: req.DiastolicPressure,
		Temperature:       req.Temperature,
		OxygenSaturation:  req.OxygenSaturation,
		RespiratoryRate:   req.RespiratoryRate,
		Weight:            req.Weight,
		Height:            req.Height,
		MeasuredBy:        measuredBy,
		Notes:             req.Notes,
	})

	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

func (s *Service) AddDiagnosis(ctx context.Context, visitID uuid.UUID, req *model.DiagnosisRequest, diagnosedBy string) (*model.Visit, error) {
	visit, err := s.openVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	visit.AddDiagnosis(model.Diagnosis{
		DiagnosisID:           uuid.NewString(),
		DiagnosedAt:           time.Now(),
		PrimaryDiagnosis:      req.PrimaryDiagnosis,
		SecondaryDiagnoses:    req.SecondaryDiagnoses,
		ICD10Code:             req.ICD10Code,
		Severity:              req.Severity,
		Confirmed:             req.Confirmed,
		DifferentialDiagnoses: req.DifferentialDiagnoses,
		DiagnosedBy:           diagnosedBy,
	})

	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

func (s *Service) AddPrescription(ctx context.Context, visitID uuid.UUID, req *model.PrescriptionRequest, prescribedBy string) (*model.Visit, error) {
	visit, err := s.openVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	visit.AddPrescription(model.Prescription{
		PrescriptionID: uuid.NewString(),
		PrescribedAt:   time.Now(),
		MedicationName: req.MedicationName,
		Dosage:         req.Dosage,
		Frequency:      req.Frequency,
		Duration:       req.Duration,
		Route:          req.Route,
		Instructions:   req.Instructions,
		PrescribedBy:   prescribedBy,
	})

	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

func (s *Service) AddProcedure(ctx context.Context, visitID uuid.UUID, req *model.ProcedureRequest, performedBy string) (*model.Visit, error) {
	visit, err := s.openVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	visit.AddProcedure(model.MedicalProcedure{
		ProcedureID:     uuid.NewString(),
		PerformedAt:     time.Now(),
		ProcedureType:   req.ProcedureType,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Complications:   req.Complications,
		Outcome:         req.Outcome,
		PerformedBy:     performedBy,
		Assistants:      req.Assistants,
	})
	if req.Complications != "" {
		visit.Complications = append(visit.Complications, req.Complications)
	}

	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

func (s *Service) AddEvolution(ctx context.Context, visitID uuid.UUID, req *model.EvolutionRequest, recordedBy string) (*model.Visit, error) {
	visit, err := s.openVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	visit.AddEvolution(model.MedicalEvolution{
		EvolutionID:         uuid.NewString(),
		RecordedAt:          time.Now(),
		ClinicalStatus:      req.ClinicalStatus,
		Symptoms:            req.Symptoms,
		PhysicalExamination: req.PhysicalExamination,
		ClinicalImpression:  req.ClinicalImpression,
		Plan:                req.Plan,
		RecordedBy:          recordedBy,
	})

	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

// RecordBloodAnalysis appends the analysis to the visit first, then
// mirrors it into the patient's aggregate history. The visit copy is
// authoritative; if the mirror write fails the observation is still
// recorded and the failure is only logged, leaving the patient copy to
// catch up on a later write.
func (s *Service) RecordBloodAnalysis(ctx context.Context, visitID uuid.UUID, req *model.BloodAnalysisRequest, performer Performer) (*model.BloodAnalysis, error) {
	visit, err := s.openVisit(ctx, visitID)
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
		PerformedByDNI:  performer.DNI,
		PerformedByName: performer.Name,
		Notes:           req.Notes,
	}
	analysis = visit.AddBloodAnalysis(analysis)

	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}

	s.mirrorToPatient(ctx, visit.PatientDNI, func(p *model.Patient) {
		p.AddBloodAnalysis(analysis)
	})
	return &analysis, nil
}

func (s *Service) RecordRadiologyStudy(ctx context.Context, visitID uuid.UUID, req *model.RadiologyStudyRequest, performer Performer) (*model.RadiologyStudy, error) {
	visit, err := s.openVisit(ctx, visitID)
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
		PerformedByDNI:  performer.DNI,
		PerformedByName: performer.Name,
	}
	study = visit.AddRadiologyStudy(study)

	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}

	s.mirrorToPatient(ctx, visit.PatientDNI, func(p *model.Patient) {
		p.AddRadiologyStudy(study)
	})
	return &study, nil
}

func (s *Service) mirrorToPatient(ctx context.Context, patientDNI string, apply func(*model.Patient)) {
	patient, err := s.patients.GetByDNI(ctx, patientDNI)
	if err != nil {
		s.logger.Error(fmt.Sprintf("failed to load patient %s for observation mirror: %v", patientDNI, err))
		return
	}
	apply(patient)
	if err := s.patients.Update(ctx, patient); err != nil {
		s.logger.Error(fmt.Sprintf("failed to mirror observation to patient %s: %v", patientDNI, err))
	}
}
