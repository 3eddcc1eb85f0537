package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/models"
)

// Role short names seeded by NewFixture.
const (
	RoleStudent = "student"
	RoleTeacher = "editingteacher"
)

var studentCapabilities = []string{
	"moodle/grade:view",
	"gradereport/user:view",
	"mod/assign:submit",
	"mod/quiz:attempt",
	"mod/choice:choose",
	"mod/feedback:complete",
}

var teacherCapabilities = []string{
	"moodle/grade:view",
	"moodle/grade:viewall",
	"moodle/grade:viewhidden",
	"gradereport/user:view",
	"gradereport/grader:view",
	"moodle/site:accessallgroups",
	"moodle/course:viewhiddenactivities",
}

// Fixture writes domain rows for tests.
type Fixture struct {
	t     *testing.T
	DB    *gorm.DB
	roles map[string]uint
}

// NewFixture seeds the student and teacher roles and the installed module types.
func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()
	f := &Fixture{t: t, DB: db, roles: map[string]uint{}}
	f.Role(RoleStudent, studentCapabilities...)
	f.Role(RoleTeacher, teacherCapabilities...)
	for _, name := range []string{"assign", "quiz", "forum", "advancedforum", "choice"} {
		f.Create(&models.ModuleType{Name: name, Visible: true})
	}
	return f
}

// Create inserts any model.
func (f *Fixture) Create(value any) {
	f.t.Helper()
	require.NoError(f.t, f.DB.Create(value).Error)
}

// Role creates a role allowing every listed capability.
func (f *Fixture) Role(shortName string, capabilities ...string) uint {
	f.t.Helper()
	role := models.Role{ShortName: shortName}
	f.Create(&role)
	for _, name := range capabilities {
		f.Create(&models.RoleCapability{RoleID: role.ID, Capability: name, Permission: models.PermissionAllow})
	}
	f.roles[shortName] = role.ID
	return role.ID
}

// RoleID returns the id of a previously created role.
func (f *Fixture) RoleID(shortName string) uint {
	id, ok := f.roles[shortName]
	require.True(f.t, ok, "unknown role %s", shortName)
	return id
}

// User creates a user with the given username.
func (f *Fixture) User(username string) models.User {
	f.t.Helper()
	user := models.User{
		Username:  username,
		FirstName: username,
		LastName:  "Tester",
		Email:     fmt.Sprintf("%s@example.com", username),
	}
	f.Create(&user)
	return user
}

// Course creates a visible course with grades shown to students.
func (f *Fixture) Course(fullName string) models.Course {
	f.t.Helper()
	course := models.Course{ShortName: fullName, FullName: fullName, ShowGrades: true, EnableCompletion: true, Visible: true}
	f.Create(&course)
	return course
}

// Enrol actively enrols the user and assigns the role in the course context.
func (f *Fixture) Enrol(user models.User, course models.Course, role string) {
	f.t.Helper()
	f.Create(&models.Enrollment{UserID: user.ID, CourseID: course.ID, Status: models.EnrollmentStatusActive})
	f.Assign(user, role, models.ContextRef{Level: models.ContextLevelCourse, InstanceID: course.ID})
}

// Assign gives the user a role in an arbitrary context.
func (f *Fixture) Assign(user models.User, role string, ref models.ContextRef) {
	f.t.Helper()
	f.Create(&models.RoleAssignment{
		UserID:       user.ID,
		RoleID:       f.RoleID(role),
		ContextLevel: ref.Level,
		InstanceID:   ref.InstanceID,
	})
}

// Module places an activity instance in a course.
func (f *Fixture) Module(course models.Course, moduleName string, instanceID uint, groupMode int) models.CourseModule {
	f.t.Helper()
	cm := models.CourseModule{
		CourseID:   course.ID,
		ModuleName: moduleName,
		InstanceID: instanceID,
		Visible:    true,
		GroupMode:  groupMode,
	}
	f.Create(&cm)
	return cm
}

// Group creates a group and adds the members.
func (f *Fixture) Group(course models.Course, name string, members ...models.User) models.Group {
	f.t.Helper()
	group := models.Group{CourseID: course.ID, Name: name}
	f.Create(&group)
	for _, member := range members {
		f.Create(&models.GroupMember{GroupID: group.ID, UserID: member.ID})
	}
	return group
}
