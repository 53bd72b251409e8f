package models

// Student defines the student model based on the 'students' table
type Student struct {
	ID     StudentID `json:"id" db:"id" example:"1"`
	UserID UserID    `json:"userId" db:"user_id" example:"5"`
	Course string    `json:"course" db:"course" example:"2DAM"`
	Group  string    `json:"group" db:"grade_group" example:"A"`
}

// NewStudent creates a student profile for an existing user
func NewStudent(userID UserID, course, group string) *Student {
	return &Student{UserID: userID, Course: course, Group: group}
}

// Validate checks the student's fields
func (s *Student) Validate() error {
	var v validator
	v.positive("userId", int64(s.UserID))
	v.maxLen("course", s.Course, MaxCourseLength)
	v.maxLen("group", s.Group, MaxGroupLength)
	return v.err()
}
