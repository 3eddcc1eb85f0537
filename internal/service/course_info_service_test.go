package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/testutil"
)

type courseInfoWorld struct {
	*engine
	course  models.Course
	student models.User
	teacher models.User
}

func newCourseInfoWorld(t *testing.T) courseInfoWorld {
	e := newEngine(t)
	w := courseInfoWorld{engine: e, course: e.fx.Course("Music"), student: e.fx.User("student"), teacher: e.fx.User("teacher")}
	e.fx.Enrol(w.student, w.course, testutil.RoleStudent)
	e.fx.Enrol(w.teacher, w.course, testutil.RoleTeacher)
	return w
}

func (w courseInfoWorld) tracked(instanceID uint) models.CourseModule {
	cm := w.fx.Module(w.course, "assign", instanceID, models.GroupModeNone)
	w.fx.DB.Model(&cm).Update("completion", true)
	cm.Completion = true
	return cm
}

func (w courseInfoWorld) complete(user models.User, cm models.CourseModule, state int) {
	w.fx.Create(&models.CourseModuleCompletion{CourseModuleID: cm.ID, UserID: user.ID, State: state})
}

func TestCourseInfoCompletionRoundsUp(t *testing.T) {
	w := newCourseInfoWorld(t)
	first := w.tracked(1)
	second := w.tracked(2)
	w.tracked(3)
	hidden := w.tracked(4)
	w.hide(&hidden)
	w.fx.Module(w.course, "quiz", 5, models.GroupModeNone)

	w.complete(w.student, first, models.CompletionCompletePass)
	w.complete(w.student, second, models.CompletionCompleteFail)
	w.complete(w.student, hidden, models.CompletionComplete)

	infos, err := w.courseInfoService().CourseInfo(context.Background(), w.student, []uint{w.course.ID})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, w.course.ID, infos[0].CourseID)
	require.Equal(t, 1, infos[0].Completion.Complete)
	require.Equal(t, 3, infos[0].Completion.Total)
	require.Equal(t, 34, infos[0].Completion.Percent)
}

func TestCourseInfoCompletionDisabled(t *testing.T) {
	w := newCourseInfoWorld(t)
	w.tracked(1)
	w.fx.DB.Model(&w.course).Update("enable_completion", false)

	infos, err := w.courseInfoService().CourseInfo(context.Background(), w.student, []uint{w.course.ID})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Zero(t, infos[0].Completion.Total)
	require.Zero(t, infos[0].Completion.Percent)
}

func TestCourseInfoFeedback(t *testing.T) {
	w := newCourseInfoWorld(t)
	svc := w.courseInfoService()

	infos, err := svc.CourseInfo(context.Background(), w.student, []uint{w.course.ID})
	require.NoError(t, err)
	require.False(t, infos[0].Feedback.Available)

	w.fx.Create(&models.GradeGrade{CourseID: w.course.ID, ItemID: 1, UserID: w.student.ID, FinalGrade: testutil.Ptr(9.0), Hidden: true})
	w.fx.Create(&models.GradeGrade{CourseID: w.course.ID, ItemID: 1, UserID: w.teacher.ID, FinalGrade: testutil.Ptr(9.0), Hidden: true})

	infos, err = svc.CourseInfo(context.Background(), w.student, []uint{w.course.ID})
	require.NoError(t, err)
	require.False(t, infos[0].Feedback.Available, "hidden grades need viewhidden")

	infos, err = svc.CourseInfo(context.Background(), w.teacher, []uint{w.course.ID})
	require.NoError(t, err)
	require.True(t, infos[0].Feedback.Available)

	w.fx.Create(&models.GradeGrade{CourseID: w.course.ID, ItemID: 2, UserID: w.student.ID, Feedback: "Well played"})
	infos, err = svc.CourseInfo(context.Background(), w.student, []uint{w.course.ID})
	require.NoError(t, err)
	require.True(t, infos[0].Feedback.Available)
	require.Equal(t, "/grade/report/user/index.php?id=1", infos[0].Feedback.URL)
}

func TestCourseInfoFeedbackHiddenGradebook(t *testing.T) {
	w := newCourseInfoWorld(t)
	w.fx.DB.Model(&w.course).Update("show_grades", false)
	w.fx.Create(&models.GradeGrade{CourseID: w.course.ID, ItemID: 1, UserID: w.student.ID, FinalGrade: testutil.Ptr(7.0)})

	infos, err := w.courseInfoService().CourseInfo(context.Background(), w.student, []uint{w.course.ID})
	require.NoError(t, err)
	require.False(t, infos[0].Feedback.Available)
}

func TestCourseInfoSkipsUnknownAndForeignCourses(t *testing.T) {
	w := newCourseInfoWorld(t)
	foreign := w.fx.Course("Dance")
	suspended := w.fx.Course("Drama")
	w.fx.Create(&models.Enrollment{UserID: w.student.ID, CourseID: suspended.ID, Status: models.EnrollmentStatusSuspended})

	infos, err := w.courseInfoService().CourseInfo(context.Background(), w.student, []uint{9999, foreign.ID, w.course.ID, suspended.ID, w.course.ID})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, w.course.ID, infos[0].CourseID)

	infos, err = w.courseInfoService().CourseInfo(context.Background(), uint(5150), []uint{w.course.ID})
	require.NoError(t, err)
	require.Empty(t, infos)
}
