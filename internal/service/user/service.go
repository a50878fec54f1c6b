// Package user manages the directory of doctors and police officers,
// including account provisioning at the identity provider.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"
	"github.com/latra/medicsystem-gta-backend/pkg/identity"
	"github.com/latra/medicsystem-gta-backend/pkg/logger"

	"github.com/latra/medicsystem-gta-backend/internal/email"
	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

type UserService interface {
	RegisterDoctor(ctx context.Context, req *model.RegisterDoctorRequest) (*model.Doctor, error)
	RegisterPolice(ctx context.Context, req *model.RegisterPoliceRequest) (*model.Police, error)
	CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error)
	CreatePolice(ctx context.Context, req *model.CreatePoliceRequest) (*model.Police, error)
	GetDoctor(ctx context.Context, dni string) (*model.Doctor, error)
	GetPolice(ctx context.Context, dni string) (*model.Police, error)
	ListDoctors(ctx context.Context) ([]*model.Doctor, error)
	ListPolice(ctx context.Context) ([]*model.Police, error)
	UpdateDoctorProfile(ctx context.Context, dni string, profile *model.DoctorProfile) (*model.Doctor, error)
	UpdatePoliceProfile(ctx context.Context, dni string, profile *model.PoliceProfile) (*model.Police, error)
	DisableUser(ctx context.Context, dni string) error
	EnableUser(ctx context.Context, dni string) error
	GetProfile(ctx context.Context, subjectID string) (*model.User, error)
	GetOwnDoctor(ctx context.Context, subjectID string) (*model.Doctor, error)
	GetOwnPolice(ctx context.Context, subjectID string) (*model.Police, error)
	SearchUsers(ctx context.Context, filters model.UserSearchFilters) ([]*model.User, error)
}

// Revoker is satisfied by the authorization gate; disabling a user
// pushes its subject into the revocation set.
type Revoker interface {
	RevokeUser(ctx context.Context, subjectID string) error
	RestoreUser(ctx context.Context, subjectID string) error
}

type Service struct {
	repo        repository.UserRepository
	provisioner identity.Provisioner
	revoker     Revoker
	mailer      email.Service
	logger      *logger.Logger
}

func NewService(repo repository.UserRepository, provisioner identity.Provisioner, revoker Revoker, mailer email.Service, log *logger.Logger) *Service {
	if mailer == nil {
		mailer = email.NewNoopService()
	}
	return &Service{
		repo:        repo,
		provisioner: provisioner,
		revoker:     revoker,
		mailer:      mailer,
		logger:      log,
	}
}

// defaultPassword derives the initial credential from the DNI, zero
// padded to six characters.
func defaultPassword(dni string) string {
	return fmt.Sprintf("%06s", dni)
}

func (s *Service) provision(ctx context.Context, name, email, dni string) (string, string, error) {
	password := defaultPassword(dni)
	subjectID, err := s.provisioner.CreateAccount(ctx, identity.AccountRequest{
		Email:       email,
		Password:    password,
		DisplayName: name,
	})
	if err != nil {
		if errors.Is(err, identity.ErrAccountExists) {
			return "", "", apperrors.Conflict("an account with this email already exists", err)
		}
		return "", "", fmt.Errorf("failed to provision account: %w", err)
	}
	return subjectID, password, nil
}

func (s *Service) sendWelcome(ctx context.Context, to, name, password string) {
	if err := s.mailer.SendWelcome(ctx, to, name, password); err != nil {
		s.logger.Warn(fmt.Sprintf("failed to send welcome email to %s: %v", to, err))
	}
}

// RegisterDoctor is the public self-registration path. New doctors get
// full clinical capabilities and no admin flag.
func (s *Service) RegisterDoctor(ctx context.Context, req *model.RegisterDoctorRequest) (*model.Doctor, error) {
	return s.createDoctor(ctx, &model.CreateDoctorRequest{
		RegisterDoctorRequest: *req,
		CanPrescribe:          boolPtr(true),
		CanDiagnose:           boolPtr(true),
		CanPerformProcedures:  boolPtr(true),
	})
}

func (s *Service) RegisterPolice(ctx context.Context, req *model.RegisterPoliceRequest) (*model.Police, error) {
	return s.createPolice(ctx, &model.CreatePoliceRequest{
		RegisterPoliceRequest: *req,
		CanArrest:             boolPtr(true),
		CanInvestigate:        boolPtr(true),
		CanAccessMedicalInfo:  boolPtr(false),
	})
}

// CreateDoctor is the admin path and honors capability overrides.
func (s *Service) CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	return s.createDoctor(ctx, req)
}

func (s *Service) CreatePolice(ctx context.Context, req *model.CreatePoliceRequest) (*model.Police, error) {
	return s.createPolice(ctx, req)
}

func (s *Service) createDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if err := s.checkAvailable(ctx, req.DNI, req.Email); err != nil {
		return nil, err
	}

	subjectID, password, err := s.provision(ctx, req.Name, req.Email, req.DNI)
	if err != nil {
		return nil, err
	}

	doctor := &model.Doctor{
		User: model.User{
			UserID:    uuid.New(),
			SubjectID: subjectID,
			Name:      req.Name,
			DNI:       req.DNI,
			Email:     req.Email,
			Phone:     req.Phone,
			Role:      model.RoleDoctor,
			Enabled:   true,
			IsAdmin:   req.IsAdmin,
		},
		Profile: model.DoctorProfile{
			MedicalLicense:       req.MedicalLicense,
			Specialty:            req.Specialty,
			SubSpecialty:         req.SubSpecialty,
			Institution:          req.Institution,
			YearsExperience:      req.YearsExperience,
			CanPrescribe:         boolValue(req.CanPrescribe, true),
			CanDiagnose:          boolValue(req.CanDiagnose, true),
			CanPerformProcedures: boolValue(req.CanPerformProcedures, true),
		},
	}

	if err := s.repo.CreateDoctor(ctx, doctor); err != nil {
		return nil, err
	}

	s.sendWelcome(ctx, doctor.Email, doctor.Name, password)
	return doctor, nil
}

func (s *Service) createPolice(ctx context.Context, req *model.CreatePoliceRequest) (*model.Police, error) {
	if err := s.checkAvailable(ctx, req.DNI, req.Email); err != nil {
		return nil, err
	}

	subjectID, password, err := s.provision(ctx, req.Name, req.Email, req.DNI)
	if err != nil {
		return nil, err
	}

	police := &model.Police{
		User: model.User{
			UserID:    uuid.New(),
			SubjectID: subjectID,
			Name:      req.Name,
			DNI:       req.DNI,
			Email:     req.Email,
			Phone:     req.Phone,
			Role:      model.RolePolice,
			Enabled:   true,
		},
		Profile: model.PoliceProfile{
			BadgeNumber:          req.BadgeNumber,
			Rank:                 req.Rank,
			Department:           req.Department,
			Station:              req.Station,
			YearsService:         req.YearsService,
			CanArrest:            boolValue(req.CanArrest, true),
			CanInvestigate:       boolValue(req.CanInvestigate, true),
			CanAccessMedicalInfo: boolValue(req.CanAccessMedicalInfo, false),
		},
	}

	if err := s.repo.CreatePolice(ctx, police); err != nil {
		return nil, err
	}

	s.sendWelcome(ctx, police.Email, police.Name, password)
	return police, nil
}

func (s *Service) checkAvailable(ctx context.Context, dni, email string) error {
	if _, err := s.repo.GetByDNI(ctx, dni); err == nil {
		return apperrors.Conflict("a user with this dni already exists", nil)
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return apperrors.Conflict("a user with this email already exists", nil)
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) GetDoctor(ctx context.Context, dni string) (*model.Doctor, error) {
	return s.repo.GetDoctorByDNI(ctx, dni)
}

func (s *Service) GetPolice(ctx context.Context, dni string) (*model.Police, error) {
	return s.repo.GetPoliceByDNI(ctx, dni)
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	return s.repo.ListDoctors(ctx, true)
}

func (s *Service) ListPolice(ctx context.Context) ([]*model.Police, error) {
	return s.repo.ListPolice(ctx, true)
}

func (s *Service) UpdateDoctorProfile(ctx context.Context, dni string, profile *model.DoctorProfile) (*model.Doctor, error) {
	doctor, err := s.repo.GetDoctorByDNI(ctx, dni)
	if err != nil {
		return nil, err
	}
	profile.UserID = doctor.UserID
	if err := s.repo.UpdateDoctorProfile(ctx, profile); err != nil {
		return nil, err
	}
	doctor.Profile = *profile
	return doctor, nil
}

func (s *Service) UpdatePoliceProfile(ctx context.Context, dni string, profile *model.PoliceProfile) (*model.Police, error) {
	police, err := s.repo.GetPoliceByDNI(ctx, dni)
	if err != nil {
		return nil, err
	}
	profile.UserID = police.UserID
	if err := s.repo.UpdatePoliceProfile(ctx, profile); err != nil {
		return nil, err
	}
	police.Profile = *profile
	return police, nil
}

// DisableUser is a soft delete. The identity provider account is
// disabled too and the subject enters the revocation set so active
// tokens stop working right away.
func (s *Service) DisableUser(ctx context.Context, dni string) error {
	user, err := s.repo.GetByDNI(ctx, dni)
	if err != nil {
		return err
	}
	if err := s.repo.SetEnabled(ctx, user.UserID, false); err != nil {
		return err
	}
	if err := s.provisioner.DisableAccount(ctx, user.SubjectID); err != nil {
		s.logger.Warn(fmt.Sprintf("failed to disable identity account for %s: %v", dni, err))
	}
	if s.revoker != nil {
		if err := s.revoker.RevokeUser(ctx, user.SubjectID); err != nil {
			s.logger.Warn(fmt.Sprintf("failed to revoke subject for %s: %v", dni, err))
		}
	}
	return nil
}

// EnableUser undoes a disable. The provider account comes back and the
// subject leaves the revocation set.
func (s *Service) EnableUser(ctx context.Context, dni string) error {
	user, err := s.repo.GetByDNI(ctx, dni)
	if err != nil {
		return err
	}
	if err := s.repo.SetEnabled(ctx, user.UserID, true); err != nil {
		return err
	}
	if err := s.provisioner.EnableAccount(ctx, user.SubjectID); err != nil {
		s.logger.Warn(fmt.Sprintf("failed to enable identity account for %s: %v", dni, err))
	}
	if s.revoker != nil {
		if err := s.revoker.RestoreUser(ctx, user.SubjectID); err != nil {
			s.logger.Warn(fmt.Sprintf("failed to restore subject for %s: %v", dni, err))
		}
	}
	return nil
}

func (s *Service) GetProfile(ctx context.Context, subjectID string) (*model.User, error) {
	return s.repo.GetBySubjectID(ctx, subjectID)
}

func (s *Service) GetOwnDoctor(ctx context.Context, subjectID string) (*model.Doctor, error) {
	user, err := s.repo.GetBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetDoctor(ctx, user.UserID)
}

func (s *Service) GetOwnPolice(ctx context.Context, subjectID string) (*model.Police, error) {
	user, err := s.repo.GetBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetPolice(ctx, user.UserID)
}

func (s *Service) SearchUsers(ctx context.Context, filters model.UserSearchFilters) ([]*model.User, error) {
	return s.repo.List(ctx, filters)
}

func boolPtr(v bool) *bool { return &v }

func boolValue(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
