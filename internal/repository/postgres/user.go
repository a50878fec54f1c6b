package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"

	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `user_id, subject_id, name, dni, email, phone, role, enabled, is_admin, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (user_id, subject_id, name, dni, email, phone, role, enabled, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.UserID,
		user.SubjectID,
		user.Name,
		user.DNI,
		user.Email,
		user.Phone,
		user.Role,
		user.Enabled,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("a user with this dni or email already exists", err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) CreateDoctor(ctx context.Context, doctor *model.Doctor) error {
	if err := r.Create(ctx, &doctor.User); err != nil {
		return err
	}
	query := `
		INSERT INTO doctor_profiles (user_id, medical_license, specialty, sub_specialty, institution,
			years_experience, can_prescribe, can_diagnose, can_perform_procedures, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	now := time.Now()
	doctor.Profile.UserID = doctor.UserID
	doctor.Profile.CreatedAt = now
	doctor.Profile.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		doctor.Profile.UserID,
		doctor.Profile.MedicalLicense,
		doctor.Profile.Specialty,
		doctor.Profile.SubSpecialty,
		doctor.Profile.Institution,
		doctor.Profile.YearsExperience,
		doctor.Profile.CanPrescribe,
		doctor.Profile.CanDiagnose,
		doctor.Profile.CanPerformProcedures,
		doctor.Profile.CreatedAt,
		doctor.Profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor profile: %w", err)
	}
	return nil
}

func (r *userRepository) CreatePolice(ctx context.Context, police *model.Police) error {
	if err := r.Create(ctx, &police.User); err != nil {
		return err
	}
	query := `
		INSERT INTO police_profiles (user_id, badge_number, rank, department, station,
			years_service, can_arrest, can_investigate, can_access_medical_info, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	now := time.Now()
	police.Profile.UserID = police.UserID
	police.Profile.CreatedAt = now
	police.Profile.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		police.Profile.UserID,
		police.Profile.BadgeNumber,
		police.Profile.Rank,
		police.Profile.Department,
		police.Profile.Station,
		police.Profile.YearsService,
		police.Profile.CanArrest,
		police.Profile.CanInvestigate,
		police.Profile.CanAccessMedicalInfo,
		police.Profile.CreatedAt,
		police.Profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create police profile: %w", err)
	}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	var user model.User
	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Get(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, `user_id = $1`, userID)
}

func (r *userRepository) GetBySubjectID(ctx context.Context, subjectID string) (*model.User, error) {
	return r.getOne(ctx, `subject_id = $1`, subjectID)
}

func (r *userRepository) GetByDNI(ctx context.Context, dni string) (*model.User, error) {
	return r.getOne(ctx, `dni = $1`, dni)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `email = $1`, email)
}

func (r *userRepository) getDoctorProfile(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	query := `SELECT * FROM doctor_profiles WHERE user_id = $1`
	var profile model.DoctorProfile
	err := r.db.GetContext(ctx, &profile, query, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to get doctor profile: %w", err)
	}
	return &profile, nil
}

func (r *userRepository) GetDoctor(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	user, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.assembleDoctor(ctx, user)
}

func (r *userRepository) GetDoctorByDNI(ctx context.Context, dni string) (*model.Doctor, error) {
	user, err := r.GetByDNI(ctx, dni)
	if err != nil {
		return nil, err
	}
	return r.assembleDoctor(ctx, user)
}

func (r *userRepository) assembleDoctor(ctx context.Context, user *model.User) (*model.Doctor, error) {
	if user.Role != model.RoleDoctor {
		return nil, apperrors.NotFound("doctor", nil)
	}
	profile, err := r.getDoctorProfile(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return &model.Doctor{User: *user, Profile: *profile}, nil
}

func (r *userRepository) getPoliceProfile(ctx context.Context, userID uuid.UUID) (*model.PoliceProfile, error) {
	query := `SELECT * FROM police_profiles WHERE user_id = $1`
	var profile model.PoliceProfile
	err := r.db.GetContext(ctx, &profile, query, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("police", err)
		}
		return nil, fmt.Errorf("failed to get police profile: %w", err)
	}
	return &profile, nil
}

func (r *userRepository) GetPolice(ctx context.Context, userID uuid.UUID) (*model.Police, error) {
	user, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.assemblePolice(ctx, user)
}

func (r *userRepository) GetPoliceByDNI(ctx context.Context, dni string) (*model.Police, error) {
	user, err := r.GetByDNI(ctx, dni)
	if err != nil {
		return nil, err
	}
	return r.assemblePolice(ctx, user)
}

func (r *userRepository) assemblePolice(ctx context.Context, user *model.User) (*model.Police, error) {
	if user.Role != model.RolePolice {
		return nil, apperrors.NotFound("police", nil)
	}
	profile, err := r.getPoliceProfile(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return &model.Police{User: *user, Profile: *profile}, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET name = $1, email = $2, phone = $3, enabled = $4, is_admin = $5, updated_at = $6
		WHERE user_id = $7
	`
	user.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		user.Name, user.Email, user.Phone, user.Enabled, user.IsAdmin, user.UpdatedAt, user.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("a user with this email already exists", err)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkAffected(result, "user")
}

func (r *userRepository) UpdateDoctorProfile(ctx context.Context, profile *model.DoctorProfile) error {
	query := `
		UPDATE doctor_profiles SET medical_license = $1, specialty = $2, sub_specialty = $3,
			institution = $4, years_experience = $5, can_prescribe = $6, can_diagnose = $7,
			can_perform_procedures = $8, updated_at = $9
		WHERE user_id = $10
	`
	profile.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		profile.MedicalLicense, profile.Specialty, profile.SubSpecialty, profile.Institution,
		profile.YearsExperience, profile.CanPrescribe, profile.CanDiagnose,
		profile.CanPerformProcedures, profile.UpdatedAt, profile.UserID)
	if err != nil {
		return fmt.Errorf("failed to update doctor profile: %w", err)
	}
	return checkAffected(result, "doctor")
}

func (r *userRepository) UpdatePoliceProfile(ctx context.Context, profile *model.PoliceProfile) error {
	query := `
		UPDATE police_profiles SET badge_number = $1, rank = $2, department = $3, station = $4,
			years_service = $5, can_arrest = $6, can_investigate = $7, can_access_medical_info = $8,
			updated_at = $9
		WHERE user_id = $10
	`
	profile.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		profile.BadgeNumber, profile.Rank, profile.Department, profile.Station,
		profile.YearsService, profile.CanArrest, profile.CanInvestigate,
		profile.CanAccessMedicalInfo, profile.UpdatedAt, profile.UserID)
	if err != nil {
		return fmt.Errorf("failed to update police profile: %w", err)
	}
	return checkAffected(result, "police")
}

func (r *userRepository) SetEnabled(ctx context.Context, userID uuid.UUID, enabled bool) error {
	query := `UPDATE users SET enabled = $1, updated_at = $2 WHERE user_id = $3`
	result, err := r.db.ExecContext(ctx, query, enabled, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set user enabled: %w", err)
	}
	return checkAffected(result, "user")
}

func (r *userRepository) List(ctx context.Context, filters model.UserSearchFilters) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var conditions []string
	var args []interface{}

	if filters.Role != "" {
		args = append(args, filters.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filters.DNI != "" {
		args = append(args, filters.DNI)
		conditions = append(conditions, fmt.Sprintf("dni = $%d", len(args)))
	}
	if filters.EnabledOnly {
		conditions = append(conditions, "enabled = true")
	}
	if filters.Name != "" {
		args = append(args, filters.Name+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"

	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) ListDoctors(ctx context.Context, onlyEnabled bool) ([]*model.Doctor, error) {
	users, err := r.List(ctx, model.UserSearchFilters{Role: model.RoleDoctor, EnabledOnly: onlyEnabled})
	if err != nil {
		return nil, err
	}
	doctors := make([]*model.Doctor, 0, len(users))
	for _, user := range users {
		doctor, err := r.assembleDoctor(ctx, user)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, doctor)
	}
	return doctors, nil
}

func (r *userRepository) ListPolice(ctx context.Context, onlyEnabled bool) ([]*model.Police, error) {
	users, err := r.List(ctx, model.UserSearchFilters{Role: model.RolePolice, EnabledOnly: onlyEnabled})
	if err != nil {
		return nil, err
	}
	officers := make([]*model.Police, 0, len(users))
	for _, user := range users {
		police, err := r.assemblePolice(ctx, user)
		if err != nil {
			return nil, err
		}
		officers = append(officers, police)
	}
	return officers, nil
}
