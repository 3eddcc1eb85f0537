package service

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-activity-api/internal/dto"
	"github.com/noah-isme/gema-activity-api/internal/identity"
	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/testutil"
)

type deadlineWorld struct {
	*engine
	course  models.Course
	student models.User
	teacher models.User
	next    uint
}

func newDeadlineWorld(t *testing.T) *deadlineWorld {
	e := newEngine(t)
	w := &deadlineWorld{engine: e, course: e.fx.Course("History"), student: e.fx.User("student"), teacher: e.fx.User("teacher")}
	e.fx.Enrol(w.student, w.course, testutil.RoleStudent)
	e.fx.Enrol(w.teacher, w.course, testutil.RoleTeacher)
	return w
}

// event places an assignment in course and records its calendar event.
func (w *deadlineWorld) event(course models.Course, name string, start time.Time) (models.CalendarEvent, models.CourseModule) {
	w.next++
	cm := w.fx.Module(course, "assign", w.next, models.GroupModeNone)
	event := models.CalendarEvent{
		Name:       name,
		CourseID:   course.ID,
		ModuleName: "assign",
		InstanceID: w.next,
		EventType:  models.EventTypeDue,
		TimeStart:  start,
		Visible:    true,
	}
	w.fx.Create(&event)
	return event, cm
}

func names(deadlines []dto.Deadline) []string {
	out := make([]string, 0, len(deadlines))
	for _, deadline := range deadlines {
		out = append(out, deadline.Name)
	}
	return out
}

func seedCalendar(w *deadlineWorld) {
	w.event(w.course, "e1", at(3*time.Hour))
	w.event(w.course, "e2", at(-4*time.Hour))
	w.event(w.course, "e3 yesterday", at(-24*time.Hour))
	w.event(w.course, "e4", at(21*time.Hour))
	w.event(w.course, "e5", at(3*24*time.Hour))
	w.event(w.course, "e6", at(10*24*time.Hour))

	w.fx.Create(&models.CalendarEvent{Name: "course event", CourseID: w.course.ID, EventType: models.EventTypeCourse, TimeStart: at(2 * 24 * time.Hour), Visible: true})
	w.fx.Create(&models.CalendarEvent{Name: "orphan", CourseID: w.course.ID, ModuleName: "quiz", InstanceID: 999, EventType: models.EventTypeClose, TimeStart: at(2 * 24 * time.Hour), Visible: true})
	w.fx.Create(&models.CalendarEvent{Name: "hidden event", CourseID: w.course.ID, ModuleName: "assign", InstanceID: 998, EventType: models.EventTypeDue, TimeStart: at(2 * 24 * time.Hour)})

	_, hidden := w.event(w.course, "hidden module", at(2*24*time.Hour))
	w.hide(&hidden)

	other := w.fx.Course("Geography")
	w.event(other, "other course", at(2*24*time.Hour))
}

func TestDeadlinesTodayThenFuture(t *testing.T) {
	w := newDeadlineWorld(t)
	seedCalendar(w)
	svc := w.deadlineService()

	deadlines, err := svc.Upcoming(context.Background(), w.student, 3)
	require.NoError(t, err)
	require.Equal(t, []string{"e2", "e1", "e4"}, names(deadlines))

	deadlines, err = svc.Upcoming(context.Background(), w.student, 5)
	require.NoError(t, err)
	require.Equal(t, []string{"e2", "e1", "e4", "e5", "e6"}, names(deadlines))

	first := deadlines[0]
	require.Equal(t, "History", first.CourseFullName)
	require.Equal(t, "assign", first.ModuleName)
	require.NotZero(t, first.CourseModuleID)
	require.Equal(t, models.EventTypeDue, first.EventType)
}

func TestDeadlinesTodayIsNotCappedByMaxCount(t *testing.T) {
	w := newDeadlineWorld(t)
	seedCalendar(w)

	deadlines, err := w.deadlineService().Upcoming(context.Background(), w.student, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"e2", "e1"}, names(deadlines))
}

func TestDeadlinesHiddenModulesNeedCapability(t *testing.T) {
	w := newDeadlineWorld(t)
	seedCalendar(w)

	deadlines, err := w.deadlineService().Upcoming(context.Background(), w.teacher, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"e2", "e1", "e4", "hidden module", "e5", "e6"}, names(deadlines))
}

func TestDeadlinesImpersonateTargetAndRestoreStack(t *testing.T) {
	w := newDeadlineWorld(t)
	seedCalendar(w)

	stack := identity.NewStack(w.teacher)
	ctx := identity.WithStack(context.Background(), stack)

	deadlines, err := w.deadlineService().Upcoming(ctx, w.student, 10)
	require.NoError(t, err)
	require.NotContains(t, names(deadlines), "hidden module")

	current, ok := stack.Current()
	require.True(t, ok)
	require.Equal(t, w.teacher.ID, current.ID)
	require.Equal(t, 1, stack.Depth())
}

func TestDeadlinesEmptyCases(t *testing.T) {
	w := newDeadlineWorld(t)
	svc := w.deadlineService()

	deadlines, err := svc.Upcoming(context.Background(), w.student, 5)
	require.NoError(t, err)
	require.NotNil(t, deadlines)
	require.Empty(t, deadlines)

	loner := w.fx.User("loner")
	deadlines, err = svc.Upcoming(context.Background(), loner, 5)
	require.NoError(t, err)
	require.Empty(t, deadlines)

	deadlines, err = svc.Upcoming(context.Background(), uint(31337), 5)
	require.NoError(t, err)
	require.Empty(t, deadlines)

	_, err = svc.Upcoming(context.Background(), w.student, -2)
	require.True(t, errors.Is(err, ErrInvalidLimit))
}

func TestDeadlinesUseUserTimezone(t *testing.T) {
	w := newDeadlineWorld(t)
	// 12:00 UTC is 21:00 in Tokyo, so 16:00 UTC already falls on the next local day.
	w.fx.DB.Model(&w.student).Update("timezone", "Asia/Tokyo")
	w.event(w.course, "late tonight", at(4*time.Hour))
	w.event(w.course, "tokyo morning", at(-10*time.Hour))

	deadlines, err := w.deadlineService().Upcoming(context.Background(), w.student.ID, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"tokyo morning"}, names(deadlines))
}

func TestMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	got := midnight(time.Date(2026, time.March, 8, 3, 0, 0, 0, time.UTC), loc)
	require.Equal(t, time.Date(2026, time.March, 7, 0, 0, 0, 0, loc), got)
}

func TestDeadlinesLateEveningStillIncludesTomorrow(t *testing.T) {
	w := newDeadlineWorld(t)
	w.event(w.course, "tomorrow morning", time.Date(2026, time.March, 11, 10, 0, 0, 0, time.UTC))
	w.event(w.course, "day after", time.Date(2026, time.March, 12, 10, 0, 0, 0, time.UTC))

	svc := w.deadlineService()
	svc.(*deadlineService).now = func() time.Time { return time.Date(2026, time.March, 10, 22, 0, 0, 0, time.UTC) }

	deadlines, err := svc.Upcoming(context.Background(), w.student, 5)
	require.NoError(t, err)
	require.Equal(t, []string{"tomorrow morning", "day after"}, names(deadlines))
}
