package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/app/models/dto"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

// Enroll enrolls a student in a module
func (s *GradebookService) Enroll(ctx context.Context, req *dto.EnrollRequest) (*models.Enrollment, error) {
	return s.enrollmentRepo.EnrollStudent(ctx, req.StudentID, req.ModuleID)
}

// Unenroll removes an enrollment and its grades; an absent pair is a no-op
func (s *GradebookService) Unenroll(ctx context.Context, studentID models.StudentID, moduleID models.ModuleID) error {
	return s.enrollmentRepo.UnenrollStudent(ctx, studentID, moduleID)
}

// GetEnrollment returns an enrollment by id
func (s *GradebookService) GetEnrollment(ctx context.Context, id models.EnrollmentID) (*models.Enrollment, error) {
	return s.enrollmentRepo.FindByID(ctx, id)
}

// ListStudentEnrollments returns a student's enrollments
func (s *GradebookService) ListStudentEnrollments(ctx context.Context, studentID models.StudentID) ([]*models.Enrollment, error) {
	if _, err := s.studentRepo.FindByID(ctx, studentID); err != nil {
		return nil, err
	}
	return s.studentRepo.FindEnrollments(ctx, studentID)
}

// ListGrades returns an enrollment's grades, newest first
func (s *GradebookService) ListGrades(ctx context.Context, enrollmentID models.EnrollmentID) ([]*models.Grade, error) {
	if _, err := s.enrollmentRepo.FindByID(ctx, enrollmentID); err != nil {
		return nil, err
	}
	return s.enrollmentRepo.FindGrades(ctx, enrollmentID)
}

// ListModuleGrades returns a module's grades. outcome "passed" or "failed"
// narrows the list to grades on that side of the passing mark.
func (s *GradebookService) ListModuleGrades(ctx context.Context, moduleID models.ModuleID, outcome string) ([]*models.Grade, error) {
	if err := s.requireModule(ctx, "grades.by_module", moduleID); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "":
		return s.gradeRepo.FindByModule(ctx, moduleID)
	case "passed":
		return s.gradeRepo.FindPassedGradesByModule(ctx, moduleID)
	case "failed":
		return s.gradeRepo.FindFailedGradesByModule(ctx, moduleID)
	default:
		return nil, apperrors.Validation("grades.by_module", "outcome must be passed or failed, got %q", outcome)
	}
}

// ListGradesInRange returns grades whose value lies in [min, max]
func (s *GradebookService) ListGradesInRange(ctx context.Context, minRaw, maxRaw string) ([]*models.Grade, error) {
	const op = "grades.by_value_range"
	lo, err := parseGrade(op, minRaw)
	if err != nil {
		return nil, err
	}
	hi, err := parseGrade(op, maxRaw)
	if err != nil {
		return nil, err
	}
	return s.gradeRepo.FindByValueRange(ctx, lo, hi)
}

// AddGrade records a grade on an enrollment
func (s *GradebookService) AddGrade(ctx context.Context, enrollmentID models.EnrollmentID, req *dto.GradeRequest) (*models.Grade, error) {
	const op = "grades.add"
	value, err := parseGrade(op, req.Value)
	if err != nil {
		return nil, err
	}
	if _, err := s.enrollmentRepo.FindByID(ctx, enrollmentID); err != nil {
		return nil, err
	}

	grade := models.NewGrade(enrollmentID, value, strings.TrimSpace(req.Notes))
	if err := s.gradeRepo.Save(ctx, grade); err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("gradeID", int64(grade.ID)).
		Int64("enrollmentID", int64(enrollmentID)).
		Str("value", grade.Value.StringFixed(2)).
		Msg("Grade recorded")
	return grade, nil
}

// UpdateGrade corrects a grade's value and notes
func (s *GradebookService) UpdateGrade(ctx context.Context, id models.GradeID, req *dto.GradeRequest) (*models.Grade, error) {
	value, err := parseGrade("grades.update", req.Value)
	if err != nil {
		return nil, err
	}
	grade, err := s.gradeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	grade.Value = value
	grade.Notes = strings.TrimSpace(req.Notes)
	if err := s.gradeRepo.Update(ctx, grade); err != nil {
		return nil, err
	}
	return grade, nil
}

// DeleteGrade removes a grade
func (s *GradebookService) DeleteGrade(ctx context.Context, id models.GradeID) error {
	exists, err := s.gradeRepo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound("grades.delete", "grade %d not found", int64(id))
	}
	return s.gradeRepo.DeleteByID(ctx, id)
}

// EnrollmentReport summarizes one enrollment
func (s *GradebookService) EnrollmentReport(ctx context.Context, id models.EnrollmentID) (*dto.EnrollmentReport, error) {
	enrollment, err := s.enrollmentRepo.FindByIDWithGrades(ctx, id)
	if err != nil {
		return nil, err
	}
	student, err := s.studentRepo.FindByID(ctx, enrollment.StudentID)
	if err != nil {
		return nil, err
	}
	module, err := s.moduleRepo.FindByID(ctx, enrollment.ModuleID)
	if err != nil {
		return nil, err
	}
	count, err := s.gradeRepo.CountByEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	average, err := s.gradeRepo.CalculateAverageGrade(ctx, id)
	if err != nil {
		return nil, err
	}
	passed, err := s.gradeRepo.HasPassed(ctx, id, models.PassingGrade)
	if err != nil {
		return nil, err
	}

	report := &dto.EnrollmentReport{
		Enrollment: &enrollment.Enrollment,
		Student:    student,
		Module:     module,
		Grades:     dto.NewGradeResponses(enrollment.Grades),
		GradeCount: count,
		Average:    dto.FormatGrade(average),
		Passed:     passed,
	}
	if count == 0 {
		return report, nil
	}

	if report.Latest, err = s.extreme(ctx, id, s.gradeRepo.FindLatestGrade); err != nil {
		return nil, err
	}
	if report.Highest, err = s.extreme(ctx, id, s.gradeRepo.FindHighestGrade); err != nil {
		return nil, err
	}
	if report.Lowest, err = s.extreme(ctx, id, s.gradeRepo.FindLowestGrade); err != nil {
		return nil, err
	}
	return report, nil
}

// extreme runs one of the single-grade lookups; a concurrently emptied
// enrollment yields nil instead of an error
func (s *GradebookService) extreme(
	ctx context.Context,
	id models.EnrollmentID,
	find func(context.Context, models.EnrollmentID) (*models.Grade, error),
) (*dto.GradeResponse, error) {
	grade, err := find(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return dto.NewGradeResponse(grade), nil
}

// StudentReport summarizes every enrollment of a student
func (s *GradebookService) StudentReport(ctx context.Context, id models.StudentID) (*dto.StudentReport, error) {
	student, err := s.studentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollmentRepo.FindByStudentWithGrades(ctx, id)
	if err != nil {
		return nil, err
	}
	modules, err := s.moduleRepo.FindByStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	overall, err := s.gradeRepo.CalculateOverallAverageByStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	byID := make(map[models.ModuleID]*models.Module, len(modules))
	for _, m := range modules {
		byID[m.ID] = m
	}

	summaries := make([]*dto.EnrollmentSummary, 0, len(enrollments))
	for _, e := range enrollments {
		average := e.Average()
		summaries = append(summaries, &dto.EnrollmentSummary{
			EnrollmentID: e.ID,
			Module:       byID[e.ModuleID],
			GradeCount:   len(e.Grades),
			Average:      dto.FormatGrade(average),
			Passed:       e.Passed(),
		})
	}

	return &dto.StudentReport{
		Student:        student,
		Enrollments:    summaries,
		OverallAverage: dto.FormatGrade(overall),
	}, nil
}

// ModuleReport summarizes a module's staffing and results
func (s *GradebookService) ModuleReport(ctx context.Context, id models.ModuleID) (*dto.ModuleReport, error) {
	module, err := s.moduleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	teachers, err := s.moduleRepo.FindTeachers(ctx, id)
	if err != nil {
		return nil, err
	}
	students, err := s.moduleRepo.CountStudents(ctx, id)
	if err != nil {
		return nil, err
	}
	average, err := s.gradeRepo.CalculateAverageByModule(ctx, id)
	if err != nil {
		return nil, err
	}
	passed, err := s.gradeRepo.CountPassedByModule(ctx, id)
	if err != nil {
		return nil, err
	}
	failed, err := s.gradeRepo.CountFailedByModule(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.ModuleReport{
		Module:       module,
		Teachers:     teachers,
		StudentCount: students,
		TeacherCount: int64(len(teachers)),
		Average:      dto.FormatGrade(average),
		PassedCount:  passed,
		FailedCount:  failed,
	}, nil
}

func parseGrade(op, raw string) (decimal.Decimal, error) {
	value, err := models.ParseGradeValue(raw)
	if err != nil {
		return decimal.Zero, apperrors.NewStorageError(apperrors.ErrValidationFailed, op, "invalid grade value", err)
	}
	return value, nil
}
