package visit

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

type fakeVisitRepo struct {
	repository.VisitRepository
	visits    map[uuid.UUID]*model.Visit
	updates   int
	updateErr error
}

func newFakeVisitRepo() *fakeVisitRepo {
	return &fakeVisitRepo{visits: map[uuid.UUID]*model.Visit{}}
}

func (f *fakeVisitRepo) Create(ctx context.Context, visit *model.Visit) error {
	f.visits[visit.VisitID] = visit
	return nil
}

func (f *fakeVisitRepo) Get(ctx context.Context, visitID uuid.UUID) (*model.Visit, error) {
	visit, ok := f.visits[visitID]
	if !ok {
		return nil, apperrors.NotFound("visit", nil)
	}
	copied := *visit
	return &copied, nil
}

func (f *fakeVisitRepo) Update(ctx context.Context, visit *model.Visit) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.visits[visit.VisitID]; !ok {
		return apperrors.NotFound("visit", nil)
	}
	f.updates++
	f.visits[visit.VisitID] = visit
	return nil
}

func (f *fakeVisitRepo) GetOpenByPatient(ctx context.Context, patientDNI string) (*model.Visit, error) {
	for _, v := range f.visits {
		if v.PatientDNI == patientDNI && !v.IsCompleted {
			return v, nil
		}
	}
	return nil, apperrors.NotFound("visit", nil)
}

type fakePatientRepo struct {
	repository.PatientRepository
	patients  map[string]*model.Patient
	updates   int
	updateErr error
}

func newFakePatientRepo(patients ...*model.Patient) *fakePatientRepo {
	repo := &fakePatientRepo{patients: map[string]*model.Patient{}}
	for _, p := range patients {
		repo.patients[p.DNI] = p
	}
	return repo
}

func (f *fakePatientRepo) GetByDNI(ctx context.Context, dni string) (*model.Patient, error) {
	patient, ok := f.patients[dni]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	copied := *patient
	return &copied, nil
}

func (f *fakePatientRepo) Update(ctx context.Context, patient *model.Patient) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates++
	f.patients[patient.DNI] = patient
	return nil
}

type fakeUserRepo struct {
	repository.UserRepository
	doctors map[string]*model.Doctor
}

func (f *fakeUserRepo) GetDoctorByDNI(ctx context.Context, dni string) (*model.Doctor, error) {
	doctor, ok := f.doctors[dni]
	if !ok {
		return nil, apperrors.NotFound("doctor", nil)
	}
	return doctor, nil
}

func newTestService() (*Service, *fakeVisitRepo, *fakePatientRepo) {
	visits := newFakeVisitRepo()
	patients := newFakePatientRepo(&model.Patient{DNI: "123456", Name: "John Doe", Enabled: true})
	users := &fakeUserRepo{doctors: map[string]*model.Doctor{}}
	svc := NewService(visits, patients, users, logger.NewNopLogger())
	return svc, visits, patients
}

func admit(t *testing.T, svc *Service) *model.Visit {
	t.Helper()
	visit, err := svc.CreateVisit(context.Background(), &model.CreateVisitRequest{
		PatientDNI: "123456",
		Reason:     "chest pain",
	}, "doctor-1")
	require.NoError(t, err)
	return visit
}

func TestCreateVisitDefaults(t *testing.T) {
	svc, _, _ := newTestService()

	visit := admit(t, svc)
	assert.Equal(t, model.VisitStatusAdmission, visit.Status)
	assert.Equal(t, model.TriageUnknown, visit.Triage)
	assert.Equal(t, 3, visit.PriorityLevel)
	assert.Equal(t, "doctor-1", visit.AttendingDoctorDNI)
	assert.False(t, visit.IsCompleted)
}

func TestCreateVisitRejectsSecondOpenVisit(t *testing.T) {
	svc, _, _ := newTestService()
	admit(t, svc)

	_, err := svc.CreateVisit(context.Background(), &model.CreateVisitRequest{
		PatientDNI: "123456",
		Reason:     "another complaint",
	}, "doctor-2")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestCreateVisitRequiresPatient(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateVisit(context.Background(), &model.CreateVisitRequest{
		PatientDNI: "999999",
		Reason:     "walk-in",
	}, "doctor-1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestRecordBloodAnalysisWritesVisitAndMirrorsPatient(t *testing.T) {
	svc, visits, patients := newTestService()
	visit := admit(t, svc)

	analysis, err := svc.RecordBloodAnalysis(context.Background(), visit.VisitID, &model.BloodAnalysisRequest{
		Hemoglobin: 13.5,
		Glucose:    92,
	}, Performer{DNI: "doctor-1", Name: "Dr. Grey"})
	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Equal(t, visit.VisitID.String(), analysis.VisitRelatedID)
	assert.Equal(t, "doctor-1", analysis.PerformedByDNI)

	stored := visits.visits[visit.VisitID]
	require.Len(t, stored.BloodAnalyses, 1)
	assert.Equal(t, analysis.AnalysisID, stored.BloodAnalyses[0].AnalysisID)

	patient := patients.patients["123456"]
	require.Len(t, patient.MedicalHistory.BloodAnalyses, 1)
	mirrored := patient.MedicalHistory.BloodAnalyses[0]
	assert.Equal(t, analysis.AnalysisID, mirrored.AnalysisID)
	assert.Equal(t, visit.VisitID.String(), mirrored.VisitRelatedID)
}

func TestRecordBloodAnalysisSurvivesMirrorFailure(t *testing.T) {
	svc, visits, patients := newTestService()
	visit := admit(t, svc)

	patients.updateErr = errors.New("connection reset")

	analysis, err := svc.RecordBloodAnalysis(context.Background(), visit.VisitID, &model.BloodAnalysisRequest{
		Hemoglobin: 13.5,
	}, Performer{DNI: "doctor-1"})
	require.NoError(t, err)
	require.NotNil(t, analysis)

	// The visit copy is authoritative and still recorded.
	stored := visits.visits[visit.VisitID]
	require.Len(t, stored.BloodAnalyses, 1)
	assert.Empty(t, patients.patients["123456"].MedicalHistory.BloodAnalyses)
}

func TestRecordBloodAnalysisFailsWhenVisitWriteFails(t *testing.T) {
	svc, visits, patients := newTestService()
	visit := admit(t, svc)

	visits.updateErr = errors.New("connection reset")

	_, err := svc.RecordBloodAnalysis(context.Background(), visit.VisitID, &model.BloodAnalysisRequest{}, Performer{DNI: "doctor-1"})
	require.Error(t, err)
	assert.Equal(t, 0, patients.updates)
}

func TestRecordRadiologyStudyMirrorsPatient(t *testing.T) {
	svc, _, patients := newTestService()
	visit := admit(t, svc)

	study, err := svc.RecordRadiologyStudy(context.Background(), visit.VisitID, &model.RadiologyStudyRequest{
		StudyType: "x-ray",
		BodyPart:  "left arm",
		Findings:  "no fracture",
	}, Performer{DNI: "doctor-1", Name: "Dr. Grey"})
	require.NoError(t, err)
	assert.Equal(t, visit.VisitID.String(), study.VisitRelatedID)

	patient := patients.patients["123456"]
	require.Len(t, patient.MedicalHistory.RadiologyStudies, 1)
	assert.Equal(t, study.StudyID, patient.MedicalHistory.RadiologyStudies[0].StudyID)
}

func TestDischargedVisitRejectsWrites(t *testing.T) {
	svc, _, _ := newTestService()
	visit := admit(t, svc)

	_, err := svc.Discharge(context.Background(), visit.VisitID, &model.DischargeRequest{
		DischargeSummary: "recovered",
	}, "doctor-1")
	require.NoError(t, err)

	_, err = svc.AddVitalSigns(context.Background(), visit.VisitID, &model.VitalSignsRequest{HeartRate: 70}, "doctor-1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	_, err = svc.RecordBloodAnalysis(context.Background(), visit.VisitID, &model.BloodAnalysisRequest{}, Performer{DNI: "doctor-1"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestDischargeSetsTerminalState(t *testing.T) {
	svc, visits, _ := newTestService()
	visit := admit(t, svc)

	discharged, err := svc.Discharge(context.Background(), visit.VisitID, &model.DischargeRequest{
		DischargeSummary:      "recovered",
		DischargeInstructions: "rest for two days",
	}, "doctor-1")
	require.NoError(t, err)

	assert.Equal(t, model.VisitStatusDischarge, discharged.Status)
	assert.True(t, discharged.IsCompleted)
	require.NotNil(t, discharged.DischargeDate)
	assert.Equal(t, "doctor-1", discharged.LastUpdatedBy)

	// A new admission is possible once the previous visit is closed.
	_, err = svc.CreateVisit(context.Background(), &model.CreateVisitRequest{
		PatientDNI: "123456",
		Reason:     "follow up",
	}, "doctor-1")
	require.NoError(t, err)
	assert.Len(t, visits.visits, 2)
}

func TestUpdateVisitMergesFields(t *testing.T) {
	svc, _, _ := newTestService()
	visit := admit(t, svc)

	reason := "updated reason"
	triage := model.TriageRed
	note := "patient stable overnight"
	updated, err := svc.UpdateVisit(context.Background(), visit.VisitID, &model.UpdateVisitRequest{
		Reason:      &reason,
		Triage:      &triage,
		NursingNote: &note,
	}, "doctor-2")
	require.NoError(t, err)

	assert.Equal(t, reason, updated.Reason)
	assert.Equal(t, triage, updated.Triage)
	require.Len(t, updated.NursingNotes, 1)
	assert.Equal(t, note, updated.NursingNotes[0])
	assert.Equal(t, "doctor-2", updated.LastUpdatedBy)
}

func TestSummarizeDenormalizesDoctor(t *testing.T) {
	visits := newFakeVisitRepo()
	patients := newFakePatientRepo(&model.Patient{DNI: "123456", Enabled: true})
	users := &fakeUserRepo{doctors: map[string]*model.Doctor{
		"doctor-1": {
			User:    model.User{DNI: "doctor-1", Name: "Dr. Grey", Email: "grey@hospital.example"},
			Profile: model.DoctorProfile{Specialty: "trauma"},
		},
	}}
	svc := NewService(visits, patients, users, logger.NewNopLogger())

	known := admit(t, svc)
	orphan := &model.Visit{
		VisitID:            uuid.New(),
		PatientDNI:         "123456",
		Status:             model.VisitStatusDischarge,
		IsCompleted:        true,
		AttendingDoctorDNI: "doctor-gone",
		AdmissionDate:      time.Now(),
	}
	visits.visits[orphan.VisitID] = orphan

	summaries := svc.summarize(context.Background(), []*model.Visit{visits.visits[known.VisitID], orphan})
	require.Len(t, summaries, 2)
	assert.Equal(t, "Dr. Grey", summaries[0].DoctorName)
	assert.Equal(t, "trauma", summaries[0].DoctorSpecialty)
	assert.Empty(t, summaries[1].DoctorName)
}

func TestListByStatusRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ListByStatus(context.Background(), model.VisitStatus("triage"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}
