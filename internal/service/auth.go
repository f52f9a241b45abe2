package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"todoapp/internal/auth"
	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

var userValidator = validator.New()

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type AuthService struct {
	repo   UserRepository
	hasher *auth.PasswordHasher
	logger *zap.Logger
}

func NewAuthService(repo UserRepository, hasher *auth.PasswordHasher, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, hasher: hasher, logger: logger}
}

// Register validates the whole form before failing, so every problem reaches the
// user at once. Validation failures come back as a *multierror.Error of
// *errors.FieldError; see FieldMessages.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var result *multierror.Error

	username := strings.TrimSpace(req.Username)
	switch {
	case username == "":
		result = multierror.Append(result, &errors.FieldError{Field: "username", Err: errors.ErrBlankUsername})
	case userValidator.Var(username, models.UsernameRules) != nil:
		result = multierror.Append(result, &errors.FieldError{Field: "username", Err: errors.ErrUsernameTooLong})
	default:
		taken, err := s.usernameTaken(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			result = multierror.Append(result, &errors.FieldError{Field: "username", Err: errors.ErrUsernameTaken})
		}
	}

	if strings.TrimSpace(req.Password) == "" {
		result = multierror.Append(result, &errors.FieldError{Field: "password", Err: errors.ErrBlankPassword})
	}
	if req.Password != req.ConfirmPassword {
		result = multierror.Append(result, &errors.FieldError{Field: "password", Err: errors.ErrPasswordMismatch})
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:       uuid.New().String(),
		Username: username,
		Password: hash,
		Role:     models.RoleUser,
	}
	if err := userValidator.Struct(user); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrValidationFailed, err)
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if stderrors.Is(err, errors.ErrConflict) {
			// lost a race with a concurrent registration of the same name
			return nil, multierror.Append(nil, &errors.FieldError{Field: "username", Err: errors.ErrUsernameTaken})
		}
		s.logger.Error("не удалось создать пользователя", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	s.logger.Info("пользователь зарегистрирован", zap.String("user_id", user.ID), zap.String("username", username))
	return user, nil
}

func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.Password) {
		return nil, errors.ErrInvalidCredentials
	}
	return user, nil
}

// User resolves a session back to a stored account.
func (s *AuthService) User(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *AuthService) usernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := s.repo.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, errors.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// FieldMessages groups the field errors inside err by form field.
// It returns nil when err carries no field errors.
func FieldMessages(err error) map[string][]string {
	var merr *multierror.Error
	if !stderrors.As(err, &merr) {
		return nil
	}
	var messages map[string][]string
	for _, e := range merr.Errors {
		var fe *errors.FieldError
		if !stderrors.As(e, &fe) {
			continue
		}
		if messages == nil {
			messages = make(map[string][]string)
		}
		messages[fe.Field] = append(messages[fe.Field], fe.Err.Error())
	}
	return messages
}
