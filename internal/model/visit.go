package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// VitalSigns is a single measurement. A zero MeasurementID means no
// measurement was taken.
type VitalSigns struct {
	MeasurementID     string    `json:"measurement_id"`
	MeasuredAt        time.Time `json:"measured_at"`
	HeartRate         int       `json:"heart_rate,omitempty"`
	SystolicPressure  int       `json:"systolic_pressure,omitempty"`
	DiastolicPressure int       `json:"diastolic_pressure,omitempty"`
	Temperature       float64   `json:"temperature,omitempty"`
	OxygenSaturation  int       `json:"oxygen_saturation,omitempty"`
	RespiratoryRate   int       `json:"respiratory_rate,omitempty"`
	Weight            float64   `json:"weight,omitempty"`
	Height            float64   `json:"height,omitempty"`
	MeasuredBy        string    `json:"measured_by,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

func (v VitalSigns) IsZero() bool { return v.MeasurementID == "" }

func (v VitalSigns) Value() (driver.Value, error) {
	if v.IsZero() {
		return nil, nil
	}
	return jsonbMarshal(v)
}

func (v *VitalSigns) Scan(src interface{}) error { return jsonbScan(v, src) }

type Diagnosis struct {
	DiagnosisID           string    `json:"diagnosis_id"`
	DiagnosedAt           time.Time `json:"diagnosed_at"`
	PrimaryDiagnosis      string    `json:"primary_diagnosis"`
	SecondaryDiagnoses    []string  `json:"secondary_diagnoses,omitempty"`
	ICD10Code             string    `json:"icd10_code,omitempty"`
	Severity              string    `json:"severity,omitempty"`
	Confirmed             bool      `json:"confirmed"`
	DifferentialDiagnoses []string  `json:"differential_diagnoses,omitempty"`
	DiagnosedBy           string    `json:"diagnosed_by,omitempty"`
}

type Prescription struct {
	PrescriptionID string    `json:"prescription_id"`
	PrescribedAt   time.Time `json:"prescribed_at"`
	MedicationName string    `json:"medication_name"`
	Dosage         string    `json:"dosage"`
	Frequency      string    `json:"frequency"`
	Duration       string    `json:"duration"`
	Route          string    `json:"route"`
	Instructions   string    `json:"instructions,omitempty"`
	PrescribedBy   string    `json:"prescribed_by,omitempty"`
}

type MedicalProcedure struct {
	ProcedureID     string    `json:"procedure_id"`
	PerformedAt     time.Time `json:"performed_at"`
	ProcedureType   string    `json:"procedure_type"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	Complications   string    `json:"complications,omitempty"`
	Outcome         string    `json:"outcome,omitempty"`
	PerformedBy     string    `json:"performed_by,omitempty"`
	Assistants      []string  `json:"assistants,omitempty"`
}

type MedicalEvolution struct {
	EvolutionID         string        `json:"evolution_id"`
	RecordedAt          time.Time     `json:"recorded_at"`
	ClinicalStatus      PatientStatus `json:"clinical_status"`
	Symptoms            []string      `json:"symptoms,omitempty"`
	PhysicalExamination string        `json:"physical_examination,omitempty"`
	ClinicalImpression  string        `json:"clinical_impression,omitempty"`
	Plan                string        `json:"plan,omitempty"`
	RecordedBy          string        `json:"recorded_by,omitempty"`
}

// Visit references its patient and attending doctor by DNI. The embedded
// blood analyses and radiology studies are mirrored into the owning
// patient's aggregate history; both copies carry this visit's id as
// visit_related_id.
type Visit struct {
	VisitID          uuid.UUID     `db:"visit_id" json:"visit_id"`
	PatientDNI       string        `db:"patient_dni" json:"patient_dni"`
	Reason           string        `db:"reason" json:"reason"`
	AttentionPlace   AttentionType `db:"attention_place" json:"attention_place"`
	AttentionDetails string        `db:"attention_details" json:"attention_details,omitempty"`
	Location         string        `db:"location" json:"location"`

	Status        VisitStatus `db:"visit_status" json:"visit_status"`
	Triage        Triage      `db:"triage" json:"triage,omitempty"`
	PriorityLevel int         `db:"priority_level" json:"priority_level"`

	AttendingDoctorDNI string `db:"attending_doctor_dni" json:"attending_doctor_dni"`
	ReferringDoctorDNI string `db:"referring_doctor_dni" json:"referring_doctor_dni,omitempty"`

	AdmissionVitalSigns VitalSigns         `db:"admission_vital_signs" json:"admission_vital_signs"`
	CurrentVitalSigns   VitalSigns         `db:"current_vital_signs" json:"current_vital_signs"`
	Diagnoses           DiagnosisList      `db:"diagnoses" json:"diagnoses"`
	Procedures          ProcedureList      `db:"procedures" json:"procedures"`
	Evolutions          EvolutionList      `db:"evolutions" json:"evolutions"`
	Prescriptions       PrescriptionList   `db:"prescriptions" json:"prescriptions"`
	LaboratoryOrders    StringList         `db:"laboratory_orders" json:"laboratory_orders"`
	ImagingOrders       StringList         `db:"imaging_orders" json:"imaging_orders"`
	Referrals           StringList         `db:"referrals" json:"referrals"`
	BloodAnalyses       BloodAnalysisList  `db:"blood_analyses" json:"blood_analyses"`
	RadiologyStudies    RadiologyStudyList `db:"radiology_studies" json:"radiology_studies"`

	DischargeSummary      string     `db:"discharge_summary" json:"discharge_summary,omitempty"`
	DischargeInstructions string     `db:"discharge_instructions" json:"discharge_instructions,omitempty"`
	FollowUpRequired      bool       `db:"follow_up_required" json:"follow_up_required"`
	FollowUpDate          *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	FollowUpSpecialty     string     `db:"follow_up_specialty" json:"follow_up_specialty,omitempty"`

	NursingNotes           StringList `db:"nursing_notes" json:"nursing_notes"`
	AdditionalObservations string     `db:"additional_observations" json:"additional_observations,omitempty"`
	Complications          StringList `db:"complications" json:"complications"`

	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	AdmissionDate time.Time  `db:"admission_date" json:"admission_date"`
	DischargeDate *time.Time `db:"discharge_date" json:"discharge_date,omitempty"`
	CreatedBy     string     `db:"created_by" json:"created_by,omitempty"`
	LastUpdatedBy string     `db:"last_updated_by" json:"last_updated_by,omitempty"`
	IsCompleted   bool       `db:"is_completed" json:"is_completed"`
}

func (v *Visit) touch(updatedBy string) {
	v.UpdatedAt = time.Now()
	if updatedBy != "" {
		v.LastUpdatedBy = updatedBy
	}
}

func (v *Visit) AddVitalSigns(vs VitalSigns) {
	v.CurrentVitalSigns = vs
	v.touch(vs.MeasuredBy)
}

func (v *Visit) AddDiagnosis(d Diagnosis) {
	v.Diagnoses = append(v.Diagnoses, d)
	v.touch(d.DiagnosedBy)
}

func (v *Visit) AddPrescription(p Prescription) {
	v.Prescriptions = append(v.Prescriptions, p)
	v.touch(p.PrescribedBy)
}

func (v *Visit) AddProcedure(p MedicalProcedure) {
	v.Procedures = append(v.Procedures, p)
	v.touch(p.PerformedBy)
}

func (v *Visit) AddEvolution(e MedicalEvolution) {
	v.Evolutions = append(v.Evolutions, e)
	v.touch(e.RecordedBy)
}

// AddBloodAnalysis stamps the analysis with this visit's id before embedding it.
func (v *Visit) AddBloodAnalysis(analysis BloodAnalysis) BloodAnalysis {
	analysis.VisitRelatedID = v.VisitID.String()
	v.BloodAnalyses = append(v.BloodAnalyses, analysis)
	v.touch(analysis.PerformedByDNI)
	return analysis
}

func (v *Visit) AddRadiologyStudy(study RadiologyStudy) RadiologyStudy {
	study.VisitRelatedID = v.VisitID.String()
	v.RadiologyStudies = append(v.RadiologyStudies, study)
	v.touch(study.PerformedByDNI)
	return study
}

// Discharge moves the visit to its terminal state.
func (v *Visit) Discharge(summary, instructions, dischargedBy string) {
	now := time.Now()
	v.Status = VisitStatusDischarge
	v.DischargeDate = &now
	v.DischargeSummary = summary
	v.DischargeInstructions = instructions
	v.IsCompleted = true
	v.touch(dischargedBy)
}

// LengthOfStayHours is measured to discharge, or to now for open visits.
func (v *Visit) LengthOfStayHours() int {
	end := time.Now()
	if v.DischargeDate != nil {
		end = *v.DischargeDate
	}
	return int(end.Sub(v.AdmissionDate).Hours())
}

// VisitSummary is the per-patient listing view, denormalized with the
// attending doctor's details.
type VisitSummary struct {
	VisitID          uuid.UUID     `json:"visit_id"`
	PatientDNI       string        `json:"patient_dni"`
	Status           VisitStatus   `json:"visit_status"`
	Reason           string        `json:"reason"`
	AttentionPlace   AttentionType `json:"attention_place"`
	AttentionDetails string        `json:"attention_details,omitempty"`
	Location         string        `json:"location"`
	Triage           Triage        `json:"triage,omitempty"`
	DoctorDNI        string        `json:"doctor_dni"`
	DoctorName       string        `json:"doctor_name"`
	DoctorEmail      string        `json:"doctor_email,omitempty"`
	DoctorSpecialty  string        `json:"doctor_specialty,omitempty"`
	AdmissionDate    time.Time     `json:"admission_date"`
	DischargeDate    *time.Time    `json:"discharge_date,omitempty"`
}

type CreateVisitRequest struct {
	PatientDNI       string        `json:"patient_dni" binding:"required,dni"`
	Reason           string        `json:"reason" binding:"required,min=3"`
	AttentionPlace   AttentionType `json:"attention_place" binding:"required"`
	AttentionDetails string        `json:"attention_details"`
	Location         string        `json:"location" binding:"required"`
	Triage           Triage        `json:"triage"`
	PriorityLevel    int           `json:"priority_level" binding:"omitempty,min=1,max=5"`

	AdmissionHeartRate        int     `json:"admission_heart_rate"`
	AdmissionBloodPressure    int     `json:"admission_blood_pressure"`
	AdmissionTemperature      float64 `json:"admission_temperature"`
	AdmissionOxygenSaturation int     `json:"admission_oxygen_saturation"`
}

type UpdateVisitRequest struct {
	Reason                 *string `json:"reason" binding:"omitempty,min=3"`
	AttentionDetails       *string `json:"attention_details"`
	Location               *string `json:"location"`
	Triage                 *Triage `json:"triage"`
	PriorityLevel          *int    `json:"priority_level" binding:"omitempty,min=1,max=5"`
	AdditionalObservations *string `json:"additional_observations"`
	NursingNote            *string `json:"nursing_note"`
}

type DischargeRequest struct {
	DischargeSummary      string     `json:"discharge_summary" binding:"required"`
	DischargeInstructions string     `json:"discharge_instructions" binding:"required"`
	FollowUpRequired      bool       `json:"follow_up_required"`
	FollowUpDate          *time.Time `json:"follow_up_date"`
	FollowUpSpecialty     string     `json:"follow_up_specialty"`
}

type VitalSignsRequest struct {
	HeartRate         int     `json:"heart_rate" binding:"omitempty,min=30,max=300"`
	SystolicPressure  int     `json:"systolic_pressure" binding:"omitempty,min=50,max=300"`
	DiastolicPressure int     `json:"diastolic_pressure" binding:"omitempty,min=30,max=200"`
	Temperature       float64 `json:"temperature" binding:"omitempty,min=30,max=45"`
	OxygenSaturation  int     `json:"oxygen_saturation" binding:"omitempty,min=70,max=100"`
	RespiratoryRate   int     `json:"respiratory_rate" binding:"omitempty,min=8,max=60"`
	Weight            float64 `json:"weight" binding:"omitempty,min=0,max=500"`
	Height            float64 `json:"height" binding:"omitempty,min=0,max=300"`
	Notes             string  `json:"notes"`
}

type DiagnosisRequest struct {
	PrimaryDiagnosis      string   `json:"primary_diagnosis" binding:"required"`
	SecondaryDiagnoses    []string `json:"secondary_diagnoses"`
	ICD10Code             string   `json:"icd10_code"`
	Severity              string   `json:"severity"`
	Confirmed             bool     `json:"confirmed"`
	DifferentialDiagnoses []string `json:"differential_diagnoses"`
}

type PrescriptionRequest struct {
	MedicationName string `json:"medication_name" binding:"required"`
	Dosage         string `json:"dosage" binding:"required"`
	Frequency      string `json:"frequency" binding:"required"`
	Duration       string `json:"duration" binding:"required"`
	Route          string `json:"route" binding:"required"`
	Instructions   string `json:"instructions"`
}

type ProcedureRequest struct {
	ProcedureType   string   `json:"procedure_type" binding:"required"`
	Description     string   `json:"description" binding:"required"`
	DurationMinutes int      `json:"duration_minutes" binding:"omitempty,min=0"`
	Complications   string   `json:"complications"`
	Outcome         string   `json:"outcome"`
	Assistants      []string `json:"assistants"`
}

type EvolutionRequest struct {
	ClinicalStatus      PatientStatus `json:"clinical_status" binding:"required"`
	Symptoms            []string      `json:"symptoms"`
	PhysicalExamination string        `json:"physical_examination"`
	ClinicalImpression  string        `json:"clinical_impression"`
	Plan                string        `json:"plan"`
}
