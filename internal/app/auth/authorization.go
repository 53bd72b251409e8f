package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/app/repositories"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

// ErrNotTeacher is returned when a teacher-only action is attempted by another role
var ErrNotTeacher = fmt.Errorf("only teachers can perform this action: %w", apperrors.ErrPermissionDenied)

// Principal is the authenticated caller as carried by the access token
type Principal struct {
	UserID   models.UserID
	RoleType models.RoleType
}

// IsTeacher reports whether the principal has the teacher role
func (p Principal) IsTeacher() bool {
	return p.RoleType == models.RoleTeacher
}

// AuthorizationService decides which gradebook records a principal may see or change
type AuthorizationService struct {
	studentRepo    *repositories.StudentRepository
	teacherRepo    *repositories.TeacherRepository
	enrollmentRepo *repositories.EnrollmentRepository
	gradeRepo      *repositories.GradeRepository
	logger         zerolog.Logger
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(repos *repositories.Repositories, logger zerolog.Logger) *AuthorizationService {
	return &AuthorizationService{
		studentRepo:    repos.StudentRepository,
		teacherRepo:    repos.TeacherRepository,
		enrollmentRepo: repos.EnrollmentRepository,
		gradeRepo:      repos.GradeRepository,
		logger:         logger,
	}
}

// ValidateTeacher returns ErrNotTeacher unless p is a teacher
func (s *AuthorizationService) ValidateTeacher(p Principal) error {
	if !p.IsTeacher() {
		return ErrNotTeacher
	}
	return nil
}

// CanViewStudent reports whether p may read the records of studentID.
// Teachers see every student, students only themselves.
func (s *AuthorizationService) CanViewStudent(ctx context.Context, p Principal, studentID models.StudentID) (bool, error) {
	if p.IsTeacher() {
		return true, nil
	}
	own, err := s.studentRepo.FindByUserID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn().Int64("userID", int64(p.UserID)).Msg("Student profile not found for user marked as student")
			return false, nil
		}
		return false, fmt.Errorf("failed to load student profile: %w", err)
	}
	return own.ID == studentID, nil
}

// ValidateStudentAccess returns ErrPermissionDenied unless p may read studentID
func (s *AuthorizationService) ValidateStudentAccess(ctx context.Context, p Principal, studentID models.StudentID) error {
	ok, err := s.CanViewStudent(ctx, p, studentID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

// ValidateEnrollmentAccess returns NotFound for an unknown enrollment and
// ErrPermissionDenied when p may not read its student.
func (s *AuthorizationService) ValidateEnrollmentAccess(ctx context.Context, p Principal, enrollmentID models.EnrollmentID) error {
	enrollment, err := s.enrollmentRepo.FindByID(ctx, enrollmentID)
	if err != nil {
		return err
	}
	return s.ValidateStudentAccess(ctx, p, enrollment.StudentID)
}

// CanGradeEnrollment reports whether p teaches the module of enrollmentID
func (s *AuthorizationService) CanGradeEnrollment(ctx context.Context, p Principal, enrollmentID models.EnrollmentID) (bool, error) {
	if !p.IsTeacher() {
		return false, nil
	}
	enrollment, err := s.enrollmentRepo.FindByID(ctx, enrollmentID)
	if err != nil {
		return false, err
	}
	teacher, err := s.teacherRepo.FindByUserID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn().Int64("userID", int64(p.UserID)).Msg("Teacher profile not found for user marked as teacher")
			return false, nil
		}
		return false, fmt.Errorf("failed to load teacher profile: %w", err)
	}
	return s.teacherRepo.TeachesModule(ctx, teacher.ID, enrollment.ModuleID)
}

// ValidateGradeEnrollment returns ErrPermissionDenied unless p teaches the
// module of enrollmentID
func (s *AuthorizationService) ValidateGradeEnrollment(ctx context.Context, p Principal, enrollmentID models.EnrollmentID) error {
	ok, err := s.CanGradeEnrollment(ctx, p, enrollmentID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

// ValidateGradeOwnership resolves gradeID to its enrollment and applies
// ValidateGradeEnrollment
func (s *AuthorizationService) ValidateGradeOwnership(ctx context.Context, p Principal, gradeID models.GradeID) error {
	grade, err := s.gradeRepo.FindByID(ctx, gradeID)
	if err != nil {
		return err
	}
	return s.ValidateGradeEnrollment(ctx, p, grade.EnrollmentID)
}
