package models

// Teacher defines the teacher model based on the 'teachers' table
type Teacher struct {
	ID         TeacherID `json:"id" db:"id" example:"1"`
	UserID     UserID    `json:"userId" db:"user_id" example:"2"`
	Department string    `json:"department" db:"department" example:"Computing"`
	Specialty  string    `json:"specialty" db:"specialty" example:"Databases"`
}

// NewTeacher creates a teacher profile for an existing user
func NewTeacher(userID UserID, department, specialty string) *Teacher {
	return &Teacher{UserID: userID, Department: department, Specialty: specialty}
}

// Validate checks the teacher's fields
func (t *Teacher) Validate() error {
	var v validator
	v.positive("userId", int64(t.UserID))
	v.maxLen("department", t.Department, MaxDepartmentLength)
	v.maxLen("specialty", t.Specialty, MaxSpecialtyLength)
	return v.err()
}
