package models

import "github.com/shopspring/decimal"

// Enrollment records a student's registration in a module. It owns the
// grades given for that pair.
type Enrollment struct {
	ID        EnrollmentID `json:"id" db:"id" example:"1"`
	StudentID StudentID    `json:"studentId" db:"student_id" example:"1"`
	ModuleID  ModuleID     `json:"moduleId" db:"module_id" example:"1"`
}

// NewEnrollment creates an enrollment of student in module
func NewEnrollment(studentID StudentID, moduleID ModuleID) *Enrollment {
	return &Enrollment{StudentID: studentID, ModuleID: moduleID}
}

// Validate checks the enrollment's references
func (e *Enrollment) Validate() error {
	var v validator
	v.positive("studentId", int64(e.StudentID))
	v.positive("moduleId", int64(e.ModuleID))
	return v.err()
}

// EnrollmentWithGrades is an enrollment loaded together with its grades,
// newest first.
type EnrollmentWithGrades struct {
	Enrollment
	Grades []*Grade `json:"grades"`
}

// Average returns the rounded mean of the loaded grades, zero when empty
func (e *EnrollmentWithGrades) Average() decimal.Decimal {
	return AverageFromHundredths(e.gradeSum(), int64(len(e.Grades)))
}

// Passed reports whether the exact mean of the loaded grades reaches
// PassingGrade
func (e *EnrollmentWithGrades) Passed() bool {
	return MeanReaches(e.gradeSum(), int64(len(e.Grades)), PassingGrade)
}

func (e *EnrollmentWithGrades) gradeSum() int64 {
	var sum int64
	for _, g := range e.Grades {
		sum += ToHundredths(g.Value)
	}
	return sum
}
