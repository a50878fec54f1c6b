package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the base identity record, keyed internally by UserID and joined to
// the identity provider through SubjectID. DNI is the business key.
type User struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	SubjectID string    `db:"subject_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	DNI       string    `db:"dni" json:"dni"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Role      UserRole  `db:"role" json:"role"`
	Enabled   bool      `db:"enabled" json:"enabled"`
	IsAdmin   bool      `db:"is_admin" json:"is_admin"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DoctorProfile holds the doctor-specific fields, keyed by the base user id.
type DoctorProfile struct {
	UserID               uuid.UUID `db:"user_id" json:"-"`
	MedicalLicense       string    `db:"medical_license" json:"medical_license,omitempty"`
	Specialty            string    `db:"specialty" json:"specialty,omitempty"`
	SubSpecialty         string    `db:"sub_specialty" json:"sub_specialty,omitempty"`
	Institution          string    `db:"institution" json:"institution,omitempty"`
	YearsExperience      int       `db:"years_experience" json:"years_experience"`
	CanPrescribe         bool      `db:"can_prescribe" json:"can_prescribe"`
	CanDiagnose          bool      `db:"can_diagnose" json:"can_diagnose"`
	CanPerformProcedures bool      `db:"can_perform_procedures" json:"can_perform_procedures"`
	CreatedAt            time.Time `db:"created_at" json:"-"`
	UpdatedAt            time.Time `db:"updated_at" json:"-"`
}

// PoliceProfile holds the police-specific fields, keyed by the base user id.
type PoliceProfile struct {
	UserID               uuid.UUID `db:"user_id" json:"-"`
	BadgeNumber          string    `db:"badge_number" json:"badge_number,omitempty"`
	Rank                 string    `db:"rank" json:"rank,omitempty"`
	Department           string    `db:"department" json:"department,omitempty"`
	Station              string    `db:"station" json:"station,omitempty"`
	YearsService         int       `db:"years_service" json:"years_service"`
	CanArrest            bool      `db:"can_arrest" json:"can_arrest"`
	CanInvestigate       bool      `db:"can_investigate" json:"can_investigate"`
	CanAccessMedicalInfo bool      `db:"can_access_medical_info" json:"can_access_medical_info"`
	CreatedAt            time.Time `db:"created_at" json:"-"`
	UpdatedAt            time.Time `db:"updated_at" json:"-"`
}

// Doctor is a user narrowed to its doctor profile.
type Doctor struct {
	User
	Profile DoctorProfile `json:"profile"`
}

// Police is a user narrowed to its police profile.
type Police struct {
	User
	Profile PoliceProfile `json:"profile"`
}

type UserSummary struct {
	UserID  uuid.UUID `json:"user_id"`
	Name    string    `json:"name"`
	DNI     string    `json:"dni"`
	Email   string    `json:"email"`
	Role    UserRole  `json:"role"`
	Enabled bool      `json:"enabled"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		UserID:  u.UserID,
		Name:    u.Name,
		DNI:     u.DNI,
		Email:   u.Email,
		Role:    u.Role,
		Enabled: u.Enabled,
	}
}

type RegisterDoctorRequest struct {
	Name            string `json:"name" binding:"required,min=2"`
	DNI             string `json:"dni" binding:"required,dni"`
	Email           string `json:"email" binding:"required,email"`
	Phone           string `json:"phone"`
	MedicalLicense  string `json:"medical_license"`
	Specialty       string `json:"specialty"`
	Institution     string `json:"institution"`
	YearsExperience int    `json:"years_experience" binding:"omitempty,min=0"`
}

type RegisterPoliceRequest struct {
	Name         string `json:"name" binding:"required,min=2"`
	DNI          string `json:"dni" binding:"required,dni"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone"`
	BadgeNumber  string `json:"badge_number"`
	Rank         string `json:"rank"`
	Department   string `json:"department"`
	Station      string `json:"station"`
	YearsService int    `json:"years_service" binding:"omitempty,min=0"`
}

// CreateDoctorRequest is the admin variant of doctor creation with the full
// profile available.
type CreateDoctorRequest struct {
	RegisterDoctorRequest
	SubSpecialty         string `json:"sub_specialty"`
	CanPrescribe         *bool  `json:"can_prescribe"`
	CanDiagnose          *bool  `json:"can_diagnose"`
	CanPerformProcedures *bool  `json:"can_perform_procedures"`
	IsAdmin              bool   `json:"is_admin"`
}

type CreatePoliceRequest struct {
	RegisterPoliceRequest
	CanArrest            *bool `json:"can_arrest"`
	CanInvestigate       *bool `json:"can_investigate"`
	CanAccessMedicalInfo *bool `json:"can_access_medical_info"`
}

type UserSearchFilters struct {
	Name        string   `form:"name"`
	DNI         string   `form:"dni"`
	Role        UserRole `form:"role"`
	EnabledOnly bool     `form:"enabled_only"`
}
