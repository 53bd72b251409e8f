package models

// Module defines a course module based on the 'modules' table
type Module struct {
	ID          ModuleID `json:"id" db:"id" example:"1"`
	Name        string   `json:"name" db:"name" example:"Databases"`
	Course      string   `json:"course" db:"course" example:"2DAM"`
	WeeklyHours int      `json:"weeklyHours" db:"weekly_hours" example:"6"`
}

// NewModule creates a module
func NewModule(name, course string, weeklyHours int) *Module {
	return &Module{Name: name, Course: course, WeeklyHours: weeklyHours}
}

// Validate checks the module's fields
func (m *Module) Validate() error {
	var v validator
	v.required("name", m.Name)
	v.maxLen("name", m.Name, MaxModuleNameLength)
	v.maxLen("course", m.Course, MaxCourseLength)
	if m.WeeklyHours < 0 {
		v.add("weeklyHours", "must not be negative")
	}
	return v.err()
}
