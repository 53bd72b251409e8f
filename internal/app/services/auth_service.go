package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/app/models/dto"
	"github.com/yigit/studentgrades/internal/app/repositories"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
	"github.com/yigit/studentgrades/internal/pkg/auth"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo    *repositories.UserRepository
	studentRepo *repositories.StudentRepository
	teacherRepo *repositories.TeacherRepository
	jwtService  *auth.JWTService
	logger      zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(repos *repositories.Repositories, jwtService *auth.JWTService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo:    repos.UserRepository,
		studentRepo: repos.StudentRepository,
		teacherRepo: repos.TeacherRepository,
		jwtService:  jwtService,
		logger:      logger,
	}
}

// Login checks credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.ValidateLogin(ctx, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			s.logger.Info().Str("username", req.Username).Msg("Login attempt rejected")
		}
		return nil, err
	}
	return s.issueToken(ctx, user)
}

// Register creates a user together with its student or teacher profile
// and logs it in
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	const op = "auth.register"

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrValidationFailed, op, "invalid password", err)
	}
	user := models.NewUser(req.Username, hash, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), req.RoleType)

	switch req.RoleType {
	case models.RoleStudent:
		err = s.userRepo.CreateStudentAccount(ctx, user, models.NewStudent(0, strings.TrimSpace(req.Course), strings.TrimSpace(req.Group)))
	case models.RoleTeacher:
		err = s.userRepo.CreateTeacherAccount(ctx, user, models.NewTeacher(0, strings.TrimSpace(req.Department), strings.TrimSpace(req.Specialty)))
	default:
		return nil, apperrors.Validation(op, "unknown role %q", req.RoleType)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", int64(user.ID)).Str("role", string(user.RoleType)).Msg("User registered")
	return s.issueToken(ctx, user)
}

// Me returns the user with its role profile
func (s *AuthService) Me(ctx context.Context, userID models.UserID) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.userResponse(ctx, user)
}

// ChangePassword replaces the password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID models.UserID, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return apperrors.ErrInvalidCredentials
	}
	if err := s.userRepo.ChangePassword(ctx, userID, req.NewPassword); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", int64(userID)).Msg("Password changed")
	return nil
}

func (s *AuthService) issueToken(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	token, expiresIn, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}
	resp, err := s.userResponse(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(expiresIn),
		User:        resp,
	}, nil
}

func (s *AuthService) userResponse(ctx context.Context, user *models.User) (*dto.UserResponse, error) {
	var (
		student *models.Student
		teacher *models.Teacher
		err     error
	)
	switch user.RoleType {
	case models.RoleStudent:
		student, err = s.studentRepo.FindByUserID(ctx, user.ID)
	case models.RoleTeacher:
		teacher, err = s.teacherRepo.FindByUserID(ctx, user.ID)
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	return dto.NewUserResponse(user, student, teacher), nil
}
