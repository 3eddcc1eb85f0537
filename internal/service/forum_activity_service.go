package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-activity-api/internal/aggregate"
	"github.com/noah-isme/gema-activity-api/internal/capability"
	"github.com/noah-isme/gema-activity-api/internal/dto"
	"github.com/noah-isme/gema-activity-api/internal/identity"
	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/repository"
	"github.com/noah-isme/gema-activity-api/internal/visibility"
)

// Forum kinds.
const (
	ForumKindStandard = "forum"
	ForumKindAdvanced = "advancedforum"
)

const excerptLength = 200

// ForumScope lists the forums a user may read and those where the user
// bypasses separate groups.
type ForumScope struct {
	ForumIDs          []uint
	AllGroupsForumIDs []uint
}

// Empty reports whether no forum is readable.
func (s ForumScope) Empty() bool {
	return len(s.ForumIDs) == 0
}

// ForumAdapter fetches recent posts of one forum kind.
type ForumAdapter interface {
	Kind() string
	Scope(ctx context.Context, user models.User) (ForumScope, error)
	FetchRecent(ctx context.Context, user models.User, scope ForumScope, since time.Time, limit int) ([]dto.ForumActivity, error)
}

// ForumDescriptor identifies the forum a post belongs to for anonymisation.
type ForumDescriptor struct {
	ID        uint
	CourseID  uint
	Anonymous int
}

// Anonymizer decides the identity shown for a post author.
type Anonymizer func(author dto.ForumAuthor, forum ForumDescriptor, post repository.ForumPostRow) dto.ForumAuthor

// DefaultAnonymizer hides authors in anonymous forums unless the post reveals them.
func DefaultAnonymizer(author dto.ForumAuthor, forum ForumDescriptor, post repository.ForumPostRow) dto.ForumAuthor {
	if forum.Anonymous == models.AnonymityNone || post.Reveal {
		return author
	}
	return dto.ForumAuthor{FullName: "Anonymous", Anonymous: true}
}

// ForumAdapterDeps groups the collaborators shared by every forum kind.
type ForumAdapterDeps struct {
	Forums      repository.ForumRepository
	Enrollments repository.EnrollmentRepository
	Modules     repository.CourseModuleRepository
	Gate        visibility.Gate
	Caps        capability.Checker
}

type forumAdapter struct {
	kind       string
	deps       ForumAdapterDeps
	fetch      func(ctx context.Context, query repository.ForumPostQuery) ([]repository.ForumPostRow, error)
	anonymizer Anonymizer
	policy     *bluemonday.Policy
	now        func() time.Time
}

// NewStandardForumAdapter returns the adapter for standard forums, whose posts are never anonymous.
func NewStandardForumAdapter(deps ForumAdapterDeps) ForumAdapter {
	return &forumAdapter{
		kind:   ForumKindStandard,
		deps:   deps,
		fetch:  deps.Forums.RecentPosts,
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

// NewAdvancedForumAdapter returns the adapter for advanced forums. Private
// replies are filtered in the query and every author passes through anonymizer.
func NewAdvancedForumAdapter(deps ForumAdapterDeps, anonymizer Anonymizer) ForumAdapter {
	if anonymizer == nil {
		anonymizer = DefaultAnonymizer
	}
	return &forumAdapter{
		kind:       ForumKindAdvanced,
		deps:       deps,
		fetch:      deps.Forums.RecentAdvancedPosts,
		anonymizer: anonymizer,
		policy:     bluemonday.StrictPolicy(),
		now:        time.Now,
	}
}

func (a *forumAdapter) Kind() string {
	return a.kind
}

// Scope collects the user-visible forums of the kind across active enrolments.
func (a *forumAdapter) Scope(ctx context.Context, user models.User) (ForumScope, error) {
	courses, err := a.deps.Enrollments.EnrolledCourses(ctx, user.ID, false, a.now())
	if err != nil {
		return ForumScope{}, fmt.Errorf("load enrolled courses: %w", err)
	}
	if len(courses) == 0 {
		return ForumScope{}, nil
	}

	courseIDs := make([]uint, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}

	modules, err := a.deps.Modules.ByCourses(ctx, courseIDs, a.kind)
	if err != nil {
		return ForumScope{}, fmt.Errorf("load %s modules: %w", a.kind, err)
	}

	scope := ForumScope{}
	for _, cm := range modules {
		visible, err := a.deps.Gate.ModuleVisible(ctx, user, cm)
		if err != nil {
			return ForumScope{}, err
		}
		if !visible {
			continue
		}
		scope.ForumIDs = append(scope.ForumIDs, cm.InstanceID)

		if !cm.SeparateGroups() {
			continue
		}
		allGroups, err := a.deps.Caps.Has(ctx, user.ID, capability.Module(cm.ID), capability.AccessAllGroups)
		if err != nil {
			return ForumScope{}, err
		}
		if allGroups {
			scope.AllGroupsForumIDs = append(scope.AllGroupsForumIDs, cm.InstanceID)
		}
	}

	return scope, nil
}

func (a *forumAdapter) FetchRecent(ctx context.Context, user models.User, scope ForumScope, since time.Time, limit int) ([]dto.ForumActivity, error) {
	if scope.Empty() {
		return []dto.ForumActivity{}, nil
	}

	rows, err := a.fetch(ctx, repository.ForumPostQuery{
		UserID:            user.ID,
		ForumIDs:          scope.ForumIDs,
		AllGroupsForumIDs: scope.AllGroupsForumIDs,
		Since:             since,
		Limit:             limit,
	})
	if err != nil {
		return nil, err
	}

	activities := make([]dto.ForumActivity, 0, len(rows))
	for _, row := range rows {
		author := dto.ForumAuthor{
			ID:       row.AuthorID,
			FullName: models.User{Username: row.AuthorUsername, FirstName: row.AuthorFirstName, LastName: row.AuthorLastName}.FullName(),
			Email:    row.AuthorEmail,
		}
		if a.anonymizer != nil {
			author = a.anonymizer(author, ForumDescriptor{ID: row.ForumID, CourseID: row.CourseID, Anonymous: row.ForumAnonymous}, row)
		}

		activities = append(activities, dto.ForumActivity{
			Type:            a.kind,
			CourseModuleID:  row.CourseModuleID,
			CourseID:        row.CourseID,
			CourseShortName: row.CourseShortName,
			CourseFullName:  row.CourseFullName,
			ForumID:         row.ForumID,
			ForumName:       row.ForumName,
			PostID:          row.PostID,
			DiscussionID:    row.DiscussionID,
			ParentID:        row.ParentID,
			Subject:         strings.TrimSpace(a.policy.Sanitize(row.Subject)),
			Excerpt:         excerpt(a.policy.Sanitize(row.Message)),
			Timestamp:       row.Modified,
			Author:          author,
		})
	}

	if limit > 0 && len(activities) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= excerptLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:excerptLength])) + "…"
}

// ForumActivityService lists recent posts by other people across forum kinds.
type ForumActivityService interface {
	Recent(ctx context.Context, ref any, limit int, since time.Time) ([]dto.ForumActivity, error)
}

type forumActivityService struct {
	resolver *identity.Resolver
	adapters []ForumAdapter
	config   AggregationConfig
	logger   zerolog.Logger
	now      func() time.Time
}

// NewForumActivityService constructs the forum activity service. Adapters are
// queried in the given order.
func NewForumActivityService(resolver *identity.Resolver, adapters []ForumAdapter, config AggregationConfig, logger zerolog.Logger) ForumActivityService {
	return &forumActivityService{
		resolver: resolver,
		adapters: adapters,
		config:   config.withDefaults(),
		logger:   logger.With().Str("component", "forum_activity_service").Logger(),
		now:      time.Now,
	}
}

// Recent returns at most limit posts modified after since, newest first. A
// zero limit or since falls back to the configured defaults.
func (s *forumActivityService) Recent(ctx context.Context, ref any, limit int, since time.Time) ([]dto.ForumActivity, error) {
	limit, err := resolveLimit(limit, s.config.ForumLimit)
	if err != nil {
		return nil, err
	}
	if since.IsZero() {
		since = s.now().Add(-s.config.Lookback)
	}

	return track(ctx, SourceForum, func(ctx context.Context, span trace.Span) ([]dto.ForumActivity, error) {
		user, ok, err := resolve(ctx, s.resolver, ref)
		if err != nil || !ok {
			return []dto.ForumActivity{}, err
		}
		span.SetAttributes(attribute.Int64("aggregation.user_id", int64(user.ID)))

		streams := make([][]dto.Envelope, 0, len(s.adapters))
		for _, adapter := range s.adapters {
			scope, err := adapter.Scope(ctx, user)
			if err != nil {
				return nil, fmt.Errorf("%s scope: %w", adapter.Kind(), err)
			}
			if scope.Empty() {
				continue
			}

			activities, err := adapter.FetchRecent(ctx, user, scope, since, limit)
			if err != nil {
				s.logger.Error().Err(err).Str("kind", adapter.Kind()).Uint("user_id", user.ID).Msg("failed to fetch forum activity")
				return nil, fmt.Errorf("%s posts: %w", adapter.Kind(), err)
			}

			stream := make([]dto.Envelope, 0, len(activities))
			for _, activity := range activities {
				stream = append(stream, dto.Wrap(activity, activity.Timestamp, int64(activity.PostID)))
			}
			streams = append(streams, stream)
		}

		return dto.Unwrap[dto.ForumActivity](aggregate.Merge(aggregate.Newest, limit, streams...)), nil
	})
}
