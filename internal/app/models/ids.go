package models

// Identifier types. Each entity kind has its own so that a StudentID can
// never be passed where a ModuleID is expected.
type (
	UserID       int64
	StudentID    int64
	TeacherID    int64
	ModuleID     int64
	EnrollmentID int64
	GradeID      int64
)

// RoleType defines the user role type
type RoleType string

const (
	RoleTeacher RoleType = "TEACHER"
	RoleStudent RoleType = "STUDENT"
)

// Valid reports whether r is a known role
func (r RoleType) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Column limits enforced before any write reaches the store
const (
	MaxUsernameLength   = 50
	MaxNameLength       = 100
	MaxModuleNameLength = 150
	MaxCourseLength     = 50
	MaxGroupLength      = 10
	MaxDepartmentLength = 100
	MaxSpecialtyLength  = 100
	MaxNotesLength      = 500
)
