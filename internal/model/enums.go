package model

// UserRole identifies what a user is allowed to do in the system.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleDoctor  UserRole = "doctor"
	RolePolice  UserRole = "police"
	RolePatient UserRole = "patient"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePolice, RolePatient:
		return true
	}
	return false
}

// VisitStatus tracks a visit through its lifecycle. Discharge is terminal.
type VisitStatus string

const (
	VisitStatusAdmission VisitStatus = "admission"
	VisitStatusDischarge VisitStatus = "discharge"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type BloodType string

const (
	BloodTypeAPositive  BloodType = "A+"
	BloodTypeANegative  BloodType = "A-"
	BloodTypeBPositive  BloodType = "B+"
	BloodTypeBNegative  BloodType = "B-"
	BloodTypeABPositive BloodType = "AB+"
	BloodTypeABNegative BloodType = "AB-"
	BloodTypeOPositive  BloodType = "O+"
	BloodTypeONegative  BloodType = "O-"
)

type AttentionType string

const (
	AttentionHome         AttentionType = "home"
	AttentionHeadquarters AttentionType = "headquarters"
	AttentionStreet       AttentionType = "street"
	AttentionHospital     AttentionType = "hospital"
	AttentionTraslad      AttentionType = "traslad"
	AttentionOther        AttentionType = "other"
)

// PatientStatus is the clinical condition recorded in an evolution.
type PatientStatus string

const (
	PatientConscious   PatientStatus = "conscious"
	PatientUnconscious PatientStatus = "unconscious"
	PatientInDanger    PatientStatus = "in_danger"
	PatientStable      PatientStatus = "stable"
	PatientCritical    PatientStatus = "critical"
)

type Triage string

const (
	TriageUnknown Triage = "unknown"
	TriageGreen   Triage = "green"
	TriageYellow  Triage = "yellow"
	TriageRed     Triage = "red"
	TriageBlack   Triage = "black"
)

// ExamResultStatus is derived from the score, never set directly.
type ExamResultStatus string

const (
	ExamResultPassed ExamResultStatus = "passed"
	ExamResultFailed ExamResultStatus = "failed"
)

// Catalog lists exposed by the system info endpoints.
var (
	UserRoles       = []UserRole{RoleAdmin, RoleDoctor, RolePolice, RolePatient}
	BloodTypes      = []BloodType{BloodTypeAPositive, BloodTypeANegative, BloodTypeBPositive, BloodTypeBNegative, BloodTypeABPositive, BloodTypeABNegative, BloodTypeOPositive, BloodTypeONegative}
	AttentionTypes  = []AttentionType{AttentionHome, AttentionHeadquarters, AttentionStreet, AttentionHospital, AttentionTraslad, AttentionOther}
	PatientStatuses = []PatientStatus{PatientConscious, PatientUnconscious, PatientInDanger, PatientStable, PatientCritical}
	TriageLevels    = []Triage{TriageUnknown, TriageGreen, TriageYellow, TriageRed, TriageBlack}
)
