package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ObservationKind distinguishes the two clinical observation types that are
// mirrored between a visit and its patient's aggregate history.
type ObservationKind string

const (
	ObservationBloodAnalysis  ObservationKind = "blood_analysis"
	ObservationRadiologyStudy ObservationKind = "radiology_study"
)

// BloodAnalysis is one blood panel. VisitRelatedID is set when the analysis
// was recorded through a visit and empty when entered directly on the patient.
type BloodAnalysis struct {
	AnalysisID      string    `json:"analysis_id"`
	DatePerformed   time.Time `json:"date_performed"`
	RedBloodCells   float64   `json:"red_blood_cells"`
	Hemoglobin      float64   `json:"hemoglobin"`
	Hematocrit      float64   `json:"hematocrit"`
	Platelets       int       `json:"platelets"`
	Lymphocytes     float64   `json:"lymphocytes"`
	Glucose         int       `json:"glucose"`
	Cholesterol     int       `json:"cholesterol"`
	Urea            int       `json:"urea"`
	Cocaine         float64   `json:"cocaine"`
	Alcohol         float64   `json:"alcohol"`
	MDMA            float64   `json:"mdma"`
	Fentanyl        float64   `json:"fentanyl"`
	PerformedByDNI  string    `json:"performed_by_dni,omitempty"`
	PerformedByName string    `json:"performed_by_name,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	VisitRelatedID  string    `json:"visit_related_id,omitempty"`
}

type RadiologyStudy struct {
	StudyID         string    `json:"study_id"`
	DatePerformed   time.Time `json:"date_performed"`
	StudyType       string    `json:"study_type"`
	BodyPart        string    `json:"body_part"`
	Findings        string    `json:"findings"`
	ImageURL        string    `json:"image_url,omitempty"`
	PerformedByDNI  string    `json:"performed_by_dni,omitempty"`
	PerformedByName string    `json:"performed_by_name,omitempty"`
	VisitRelatedID  string    `json:"visit_related_id,omitempty"`
}

// MedicalHistory is the patient's aggregate record, stored as one JSONB
// document so a history update stays a single-row write.
type MedicalHistory struct {
	Allergies          []string           `json:"allergies"`
	MedicalNotes       string             `json:"medical_notes"`
	MajorSurgeries     []string           `json:"major_surgeries"`
	CurrentMedications []string           `json:"current_medications"`
	ChronicConditions  []string           `json:"chronic_conditions"`
	FamilyHistory      string             `json:"family_history"`
	BloodAnalyses      []BloodAnalysis    `json:"blood_analyses"`
	RadiologyStudies   []RadiologyStudy   `json:"radiology_studies"`
	LastUpdated        time.Time          `json:"last_updated"`
	UpdatedBy          string             `json:"updated_by,omitempty"`
}

func (h MedicalHistory) Value() (driver.Value, error) {
	return json.Marshal(h)
}

func (h *MedicalHistory) Scan(src interface{}) error { return jsonbScan(h, src) }

// Patient is keyed by national identifier (DNI).
type Patient struct {
	DNI              string         `db:"dni" json:"dni"`
	Name             string         `db:"name" json:"name"`
	Age              int            `db:"age" json:"age"`
	Sex              Gender         `db:"sex" json:"sex"`
	Phone            string         `db:"phone" json:"phone,omitempty"`
	BloodType        BloodType      `db:"blood_type" json:"blood_type"`
	DiscapacityLevel *int           `db:"discapacity_level" json:"discapacity_level,omitempty"`
	MedicalHistory   MedicalHistory `db:"medical_history" json:"medical_history"`
	Enabled          bool           `db:"enabled" json:"enabled"`
	DisabledBy       string         `db:"disabled_by" json:"disabled_by,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
	CreatedBy        string         `db:"created_by" json:"created_by,omitempty"`
	LastUpdatedBy    string         `db:"last_updated_by" json:"last_updated_by,omitempty"`
}

// AddBloodAnalysis appends an analysis to the aggregate, keeping insertion order.
func (p *Patient) AddBloodAnalysis(analysis BloodAnalysis) {
	p.MedicalHistory.BloodAnalyses = append(p.MedicalHistory.BloodAnalyses, analysis)
	p.MedicalHistory.LastUpdated = time.Now()
	p.touch(analysis.PerformedByDNI)
}

func (p *Patient) AddRadiologyStudy(study RadiologyStudy) {
	p.MedicalHistory.RadiologyStudies = append(p.MedicalHistory.RadiologyStudies, study)
	p.MedicalHistory.LastUpdated = time.Now()
	p.touch(study.PerformedByDNI)
}

func (p *Patient) touch(updatedBy string) {
	p.UpdatedAt = time.Now()
	if updatedBy != "" {
		p.LastUpdatedBy = updatedBy
	}
}

// LatestBloodAnalysis returns the most recent analysis, or nil.
func (p *Patient) LatestBloodAnalysis() *BloodAnalysis {
	var latest *BloodAnalysis
	for i := range p.MedicalHistory.BloodAnalyses {
		a := &p.MedicalHistory.BloodAnalyses[i]
		if latest == nil || a.DatePerformed.After(latest.DatePerformed) {
			latest = a
		}
	}
	return latest
}

func (p *Patient) LatestRadiologyStudy() *RadiologyStudy {
	var latest *RadiologyStudy
	for i := range p.MedicalHistory.RadiologyStudies {
		s := &p.MedicalHistory.RadiologyStudies[i]
		if latest == nil || s.DatePerformed.After(latest.DatePerformed) {
			latest = s
		}
	}
	return latest
}

type PatientSummary struct {
	DNI       string    `json:"dni"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Sex       Gender    `json:"sex"`
	BloodType BloodType `json:"blood_type"`
	Enabled   bool      `json:"enabled"`
}

func (p *Patient) Summary() PatientSummary {
	return PatientSummary{
		DNI:       p.DNI,
		Name:      p.Name,
		Age:       p.Age,
		Sex:       p.Sex,
		BloodType: p.BloodType,
		Enabled:   p.Enabled,
	}
}

// PatientAdmitted pairs a patient with its currently open visit.
type PatientAdmitted struct {
	PatientSummary
	VisitID        string        `json:"visit_id"`
	Reason         string        `json:"reason"`
	Location       string        `json:"location"`
	AttentionPlace AttentionType `json:"attention_place"`
	AdmissionDate  time.Time     `json:"admission_date"`
}

type CreatePatientRequest struct {
	DNI              string    `json:"dni" binding:"required,dni"`
	Name             string    `json:"name" binding:"required,min=2"`
	Age              int       `json:"age" binding:"min=0,max=150"`
	Sex              Gender    `json:"sex" binding:"required,oneof=male female"`
	Phone            string    `json:"phone"`
	BloodType        BloodType `json:"blood_type" binding:"required"`
	DiscapacityLevel *int      `json:"discapacity_level"`

	Allergies          []string `json:"allergies"`
	MedicalNotes       string   `json:"medical_notes"`
	MajorSurgeries     []string `json:"major_surgeries"`
	CurrentMedications []string `json:"current_medications"`
	ChronicConditions  []string `json:"chronic_conditions"`
	FamilyHistory      string   `json:"family_history"`
}

type UpdatePatientRequest struct {
	Name             *string    `json:"name" binding:"omitempty,min=2"`
	Age              *int       `json:"age" binding:"omitempty,min=0,max=150"`
	Sex              *Gender    `json:"sex" binding:"omitempty,oneof=male female"`
	Phone            *string    `json:"phone"`
	BloodType        *BloodType `json:"blood_type"`
	DiscapacityLevel *int       `json:"discapacity_level"`
}

// UpdateMedicalHistoryRequest covers the free-text parts of the aggregate;
// analyses and studies have their own endpoints.
type UpdateMedicalHistoryRequest struct {
	Allergies          *[]string `json:"allergies"`
	MedicalNotes       *string   `json:"medical_notes"`
	MajorSurgeries     *[]string `json:"major_surgeries"`
	CurrentMedications *[]string `json:"current_medications"`
	ChronicConditions  *[]string `json:"chronic_conditions"`
	FamilyHistory      *string   `json:"family_history"`
}

type BloodAnalysisRequest struct {
	RedBloodCells float64 `json:"red_blood_cells" binding:"min=0"`
	Hemoglobin    float64 `json:"hemoglobin" binding:"min=0"`
	Hematocrit    float64 `json:"hematocrit" binding:"min=0,max=100"`
	Platelets     int     `json:"platelets" binding:"min=0"`
	Lymphocytes   float64 `json:"lymphocytes" binding:"min=0,max=100"`
	Glucose       int     `json:"glucose" binding:"min=0"`
	Cholesterol   int     `json:"cholesterol" binding:"min=0"`
	Urea          int     `json:"urea" binding:"min=0"`
	Cocaine       float64 `json:"cocaine" binding:"min=0"`
	Alcohol       float64 `json:"alcohol" binding:"min=0"`
	MDMA          float64 `json:"mdma" binding:"min=0"`
	Fentanyl      float64 `json:"fentanyl" binding:"min=0"`
	Notes         string  `json:"notes"`
}

type RadiologyStudyRequest struct {
	StudyType string `json:"study_type" binding:"required"`
	BodyPart  string `json:"body_part" binding:"required"`
	Findings  string `json:"findings" binding:"required"`
	ImageURL  string `json:"image_url"`
}
