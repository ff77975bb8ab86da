package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
	"github.com/jwalitptl/medibook-api/pkg/auth"
	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
	"github.com/jwalitptl/medibook-api/pkg/security"
)

type Service struct {
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	hasher   security.PasswordHasher
	jwtSvc   auth.JWTService
	now      func() time.Time
}

func NewService(patients repository.PatientRepository, doctors repository.DoctorRepository,
	hasher security.PasswordHasher, jwtSvc auth.JWTService) *Service {
	return &Service{
		patients: patients,
		doctors:  doctors,
		hasher:   hasher,
		jwtSvc:   jwtSvc,
		now:      time.Now,
	}
}

// Register creates a patient or doctor account. Patient and doctor emails
// are separate namespaces, so one address may hold one of each.
func (s *Service) Register(ctx context.Context, in model.RegisterInput) (interface{}, error) {
	in.Email = model.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	var missing []string
	if in.Name == "" {
		missing = append(missing, "name")
	}
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, apperrors.MissingField(missing...)
	}
	if in.Role == "" {
		in.Role = model.RolePatient
	}
	if in.Gender != "" && !in.Gender.Valid() {
		return nil, apperrors.BadRequest("Invalid gender", nil)
	}

	switch in.Role {
	case model.RolePatient:
		patient, err := s.registerPatient(ctx, in)
		if err != nil {
			return nil, err
		}
		return patient, nil
	case model.RoleDoctor:
		doctor, err := s.registerDoctor(ctx, in)
		if err != nil {
			return nil, err
		}
		return doctor, nil
	default:
		return nil, apperrors.BadRequest("Invalid role", nil)
	}
}

func (s *Service) registerPatient(ctx context.Context, in model.RegisterInput) (*model.Patient, error) {
	if in.BloodGroup != "" && !in.BloodGroup.Valid() {
		return nil, apperrors.BadRequest("Invalid bloodGroup", nil)
	}
	if _, err := s.patients.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.DuplicateEmail()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	patient := &model.Patient{
		Base:         model.NewBase(s.now()),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Phone:        in.Phone,
		Photo:        in.Photo,
		Gender:       in.Gender,
		BloodGroup:   in.BloodGroup,
		Role:         model.RolePatient,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, createError(err)
	}

	log.Info().Str("user_id", patient.ID).Msg("patient registered")
	return patient, nil
}

func (s *Service) registerDoctor(ctx context.Context, in model.RegisterInput) (*model.Doctor, error) {
	if _, err := s.doctors.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.DuplicateEmail()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	price := float64(model.DefaultTicketPrice)
	if in.TicketPrice != nil {
		if *in.TicketPrice < 0 {
			return nil, apperrors.BadRequest("Invalid ticketPrice", nil)
		}
		price = *in.TicketPrice
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	doctor := &model.Doctor{
		Base:           model.NewBase(s.now()),
		Email:          in.Email,
		PasswordHash:   hash,
		Name:           in.Name,
		Phone:          in.Phone,
		Photo:          in.Photo,
		Role:           model.RoleDoctor,
		Gender:         in.Gender,
		TicketPrice:    price,
		Specialization: in.Specialization,
		Qualifications: in.Qualifications,
		Experiences:    in.Experiences,
		IsApproved:     model.ApprovalPending,
	}
	doctor.EnsureLists()
	if err := s.doctors.Create(ctx, doctor); err != nil {
		return nil, createError(err)
	}

	log.Info().Str("doctor_id", doctor.ID).Msg("doctor registered")
	return doctor, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, security.ErrPasswordTooShort) {
		return "", apperrors.BadRequest("Password must be at least 6 characters", err)
	}
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return hash, nil
}

func createError(err error) error {
	// a concurrent registration won the unique index
	if errors.Is(err, repository.ErrDuplicateKey) {
		return apperrors.DuplicateEmail()
	}
	return apperrors.Internal(err)
}

// Login looks the email up among patients first, then doctors.
func (s *Service) Login(ctx context.Context, in model.LoginInput) (*model.LoginResult, error) {
	email := model.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperrors.MissingField()
	}

	var (
		id   string
		role model.Role
		hash string
		data interface{}
	)

	patient, err := s.patients.GetByEmail(ctx, email)
	switch {
	case err == nil:
		id, role, hash, data = patient.ID, patient.Role, patient.PasswordHash, patient
	case errors.Is(err, repository.ErrNotFound):
		doctor, err := s.doctors.GetByEmail(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User", err)
		}
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		id, role, hash, data = doctor.ID, model.RoleDoctor, doctor.PasswordHash, doctor
	default:
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(hash, in.Password); err != nil {
		return nil, apperrors.InvalidCredential()
	}

	token, err := s.jwtSvc.GenerateToken(id, string(role))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.LoginResult{Token: token, Role: role, Data: data}, nil
}
