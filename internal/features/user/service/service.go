package service

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "accounts-backend/internal/common/errors"
	"accounts-backend/internal/common/logger"
	"accounts-backend/internal/common/metrics"
	"accounts-backend/internal/common/validation"
	"accounts-backend/internal/features/session"
	"accounts-backend/internal/features/upload"
	"accounts-backend/internal/features/user/mapper"
	"accounts-backend/internal/features/user/models"
	"accounts-backend/internal/features/user/repository"
)

// UserService covers registration, session login, the document ledger,
// and role transitions.
type UserService interface {
	Register(ctx context.Context, req *models.CreateUserRequest) (*models.UserResponse, error)
	Login(ctx context.Context, email, password string) (string, *models.SessionIdentity, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentSession(ctx context.Context, sessionID string) (*models.SessionIdentity, error)
	GetUser(ctx context.Context, id string) (*models.UserResponse, error)
	UploadDocument(ctx context.Context, id, field, filename, docName string, content io.Reader) (*models.UserResponse, error)
	ToggleRole(ctx context.Context, id string) (*models.UserResponse, error)
	UpgradeToPremium(ctx context.Context, id string) (*models.UserResponse, error)
}

type userService struct {
	repo       repository.UserRepository
	sessions   session.Store
	storage    upload.Storage
	bcryptCost int
}

func NewUserService(repo repository.UserRepository, sessions session.Store, storage upload.Storage, bcryptCost int) UserService {
	return &userService{
		repo:       repo,
		sessions:   sessions,
		storage:    storage,
		bcryptCost: bcryptCost,
	}
}

func (s *userService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.UserResponse, error) {
	if err := validation.ValidateCreateUser(req); err != nil {
		return nil, apperrors.NewValidationError(validation.Details(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError("hash password", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Age:          req.Age,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewEmailTakenError(req.Email)
		}
		return nil, apperrors.NewDatabaseError("create user", err)
	}

	logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")

	return mapper.ToUserResponse(user), nil
}

// Login verifies credentials, projects the user into a SessionIdentity,
// and saves it in the session store. The projection is not refreshed if
// the user record changes later.
func (s *userService) Login(ctx context.Context, email, password string) (string, *models.SessionIdentity, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return "", nil, apperrors.NewAuthenticationError("invalid credentials")
		}
		return "", nil, apperrors.NewDatabaseError("get user by email", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", nil, apperrors.NewAuthenticationError("invalid credentials")
	}

	identity := mapper.ToSessionIdentity(user)

	sessionID, err := s.sessions.Create(ctx, identity)
	if err != nil {
		return "", nil, apperrors.NewSessionError("create session", err)
	}

	if err := s.repo.TouchLastConnection(ctx, user.ID); err != nil {
		// The session is already established; a stale last_connection is
		// not worth failing the login over.
		logger.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to update last connection")
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	logger.Info().Str("user_id", user.ID).Msg("User logged in")

	return sessionID, &identity, nil
}

func (s *userService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.NewSessionError("delete session", err)
	}
	return nil
}

func (s *userService) CurrentSession(ctx context.Context, sessionID string) (*models.SessionIdentity, error) {
	identity, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, apperrors.NewAuthenticationError("no active session")
		}
		return nil, apperrors.NewSessionError("get session", err)
	}
	return identity, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	return mapper.ToUserResponse(user), nil
}

// UploadDocument stores the file and appends a ledger entry. Any name is
// accepted; entries that do not match a required document name simply do
// not count toward premium eligibility.
func (s *userService) UploadDocument(ctx context.Context, id, field, filename, docName string, content io.Reader) (*models.UserResponse, error) {
	if docName == "" {
		docName = filename
	}

	reference, err := s.storage.Store(ctx, field, filename, content)
	if err != nil {
		return nil, apperrors.NewStorageError("store upload", err)
	}

	user, err := s.repo.AppendDocument(ctx, id, models.Document{
		Name:      docName,
		Reference: reference,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("append document", err)
	}

	metrics.DocumentUploadsTotal.WithLabelValues(upload.FolderForField(field)).Inc()
	logger.Info().Str("user_id", id).Str("document", docName).Msg("Document uploaded")

	return mapper.ToUserResponse(user), nil
}

// ToggleRole flips the role between user and premium without an
// eligibility check. Admins are outside the toggle pair.
func (s *userService) ToggleRole(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(id)
		}
		return nil, apperrors.NewInternalError("toggle role", err)
	}

	var newRole models.Role
	switch user.Role {
	case models.RoleUser:
		newRole = models.RolePremium
	case models.RolePremium:
		newRole = models.RoleUser
	default:
		return nil, apperrors.NewConflictError("user role",
			"only user and premium roles can be toggled")
	}

	updated, err := s.repo.UpdateRole(ctx, id, newRole)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(id)
		}
		return nil, apperrors.NewInternalError("toggle role", err)
	}

	logger.Info().Str("user_id", id).Str("role", string(newRole)).Msg("User role toggled")

	return mapper.ToUserResponse(updated), nil
}

// UpgradeToPremium sets role=premium if the ledger holds every required
// document. This is a direct transition, not a toggle. The check runs on
// the fetched snapshot only; premium is not revoked later.
func (s *userService) UpgradeToPremium(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(id)
		}
		metrics.PremiumUpgradesTotal.WithLabelValues("error").Inc()
		return nil, apperrors.NewDatabaseError("get user", err)
	}

	if missing := MissingDocuments(user.Documents); len(missing) > 0 {
		metrics.PremiumUpgradesTotal.WithLabelValues("ineligible").Inc()
		return nil, apperrors.NewIneligibleError(missing)
	}

	updated, err := s.repo.UpdateRole(ctx, id, models.RolePremium)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(id)
		}
		metrics.PremiumUpgradesTotal.WithLabelValues("error").Inc()
		return nil, apperrors.NewInternalError("upgrade to premium", err)
	}

	metrics.PremiumUpgradesTotal.WithLabelValues("upgraded").Inc()
	logger.Info().Str("user_id", id).Msg("User upgraded to premium")

	return mapper.ToUserResponse(updated), nil
}
