package repositories

import (
	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository       *UserRepository
	StudentRepository    *StudentRepository
	TeacherRepository    *TeacherRepository
	ModuleRepository     *ModuleRepository
	EnrollmentRepository *EnrollmentRepository
	GradeRepository      *GradeRepository
}

// NewRepositories initializes all repositories on one storage engine
func NewRepositories(database *db.Database) *Repositories {
	return &Repositories{
		UserRepository:       NewUserRepository(database),
		StudentRepository:    NewStudentRepository(database),
		TeacherRepository:    NewTeacherRepository(database),
		ModuleRepository:     NewModuleRepository(database),
		EnrollmentRepository: NewEnrollmentRepository(database),
		GradeRepository:      NewGradeRepository(database),
	}
}

// Compile-time checks that every repository satisfies the generic contract
var (
	_ Repository[models.User, models.UserID]             = (*UserRepository)(nil)
	_ Repository[models.Student, models.StudentID]       = (*StudentRepository)(nil)
	_ Repository[models.Teacher, models.TeacherID]       = (*TeacherRepository)(nil)
	_ Repository[models.Module, models.ModuleID]         = (*ModuleRepository)(nil)
	_ Repository[models.Enrollment, models.EnrollmentID] = (*EnrollmentRepository)(nil)
	_ Repository[models.Grade, models.GradeID]           = (*GradeRepository)(nil)
)
