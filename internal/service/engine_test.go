package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/capability"
	"github.com/noah-isme/gema-activity-api/internal/identity"
	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/repository"
	"github.com/noah-isme/gema-activity-api/internal/testutil"
	"github.com/noah-isme/gema-activity-api/internal/visibility"
)

var fixedNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type engine struct {
	db          *gorm.DB
	fx          *testutil.Fixture
	resolver    *identity.Resolver
	caps        capability.Checker
	gate        visibility.Gate
	moduleGate  *visibility.ModuleGate
	enrollments repository.EnrollmentRepository
	modules     repository.CourseModuleRepository
	config      AggregationConfig
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	db := testutil.NewDB(t)
	caps := capability.NewChecker(repository.NewAccessRepository(db))
	enrollments := repository.NewEnrollmentRepository(db)
	gate := visibility.NewGate(caps, enrollments, repository.NewGroupRepository(db))

	return &engine{
		db:          db,
		fx:          testutil.NewFixture(t, db),
		resolver:    identity.NewResolver(repository.NewUserRepository(db)),
		caps:        caps,
		gate:        gate,
		moduleGate:  visibility.NewModuleGate(gate),
		enrollments: enrollments,
		modules:     repository.NewCourseModuleRepository(db),
		config:      AggregationConfig{Timezone: time.UTC},
	}
}

func (e *engine) forumService() ForumActivityService {
	deps := ForumAdapterDeps{
		Forums:      repository.NewForumRepository(e.db),
		Enrollments: e.enrollments,
		Modules:     e.modules,
		Gate:        e.gate,
		Caps:        e.caps,
	}
	adapters := []ForumAdapter{NewStandardForumAdapter(deps), NewAdvancedForumAdapter(deps, nil)}
	for _, adapter := range adapters {
		adapter.(*forumAdapter).now = func() time.Time { return fixedNow }
	}

	svc := NewForumActivityService(e.resolver, adapters, e.config, zerolog.Nop())
	svc.(*forumActivityService).now = func() time.Time { return fixedNow }
	return svc
}

func (e *engine) deadlineService() DeadlineService {
	svc := NewDeadlineService(e.resolver, e.enrollments, repository.NewCalendarRepository(e.db), e.modules, e.moduleGate, e.config, zerolog.Nop())
	svc.(*deadlineService).now = func() time.Time { return fixedNow }
	return svc
}

func (e *engine) gradingService() GradingService {
	registry := DefaultGradingRegistry(repository.NewGradingRepository(e.db))
	svc := NewGradingService(e.resolver, e.gate, registry, e.modules, e.enrollments, e.config, zerolog.Nop())
	svc.(*gradingService).now = func() time.Time { return fixedNow }
	return svc
}

func (e *engine) messageService() MessageService {
	svc := NewMessageService(e.resolver, repository.NewMessageRepository(e.db), e.config, zerolog.Nop())
	svc.(*messageService).now = func() time.Time { return fixedNow }
	return svc
}

func (e *engine) courseInfoService() CourseInfoService {
	svc := NewCourseInfoService(e.resolver, e.gate, e.moduleGate, e.caps, e.enrollments, e.modules, repository.NewGradebookRepository(e.db), zerolog.Nop())
	svc.(*courseInfoService).now = func() time.Time { return fixedNow }
	return svc
}

func (e *engine) overviewService() OverviewService {
	return NewOverviewService(e.resolver, e.forumService(), e.deadlineService(), e.gradingService(), e.messageService(), zerolog.Nop())
}

func (e *engine) hide(cm *models.CourseModule) {
	e.fx.DB.Model(cm).Update("visible", false)
	cm.Visible = false
}

func at(offset time.Duration) time.Time {
	return fixedNow.Add(offset)
}
