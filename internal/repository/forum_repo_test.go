package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/testutil"
)

func TestForumRepositoryRecentPostsRespectsSeparateGroups(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewForumRepository(db)
	now := testutil.Now()

	course := fx.Course("Maths")
	reader := fx.User("reader")
	author := fx.User("author")
	member := fx.Group(course, "Blue", reader, author)
	other := fx.Group(course, "Red", author)

	forum := models.Forum{CourseID: course.ID, Name: "Groups"}
	fx.Create(&forum)
	fx.Module(course, "forum", forum.ID, models.GroupModeSeparate)

	post := func(groupID int64, subject string, modified time.Time) {
		discussion := models.ForumDiscussion{ForumID: forum.ID, CourseID: course.ID, Name: subject, GroupID: groupID}
		fx.Create(&discussion)
		fx.Create(&models.ForumPost{DiscussionID: discussion.ID, UserID: author.ID, Subject: subject, Modified: modified})
	}
	post(int64(member.ID), "blue", now.Add(-time.Hour))
	post(int64(other.ID), "red", now.Add(-2*time.Hour))
	post(-1, "everyone", now.Add(-3*time.Hour))

	query := ForumPostQuery{UserID: reader.ID, ForumIDs: []uint{forum.ID}, Since: now.Add(-24 * time.Hour), Limit: 10}
	rows, err := repo.RecentPosts(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "blue", rows[0].Subject)
	require.Equal(t, "Maths", rows[0].CourseFullName)
	require.Equal(t, "author", rows[0].AuthorUsername)

	query.AllGroupsForumIDs = []uint{forum.ID}
	rows, err = repo.RecentPosts(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "blue", rows[0].Subject)
	require.Equal(t, "everyone", rows[2].Subject)

	query.Limit = 2
	rows, err = repo.RecentPosts(context.Background(), query)
	require.NoError(t, err)
	require.Equal(t, "", LimitClause(DialectFamily(db), 0, query.Limit), "sqlite has no limit clause")
	require.Len(t, rows, 2)
	require.Equal(t, "blue", rows[0].Subject)
	require.Equal(t, "red", rows[1].Subject)

	query.UserID = author.ID
	rows, err = repo.RecentPosts(context.Background(), query)
	require.NoError(t, err)
	require.Empty(t, rows, "own posts are excluded")
}

func TestForumRepositoryAdvancedPrivateReplies(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewForumRepository(db)
	now := testutil.Now()

	course := fx.Course("Maths")
	reader := fx.User("reader")
	author := fx.User("author")
	bystander := fx.User("bystander")

	forum := models.AdvancedForum{CourseID: course.ID, Name: "Board", Anonymous: models.AnonymityOptional}
	fx.Create(&forum)
	fx.Module(course, "advancedforum", forum.ID, models.GroupModeVisible)
	discussion := models.AdvancedForumDiscussion{ForumID: forum.ID, CourseID: course.ID, Name: "Topic", GroupID: -1}
	fx.Create(&discussion)

	fx.Create(&models.AdvancedForumPost{DiscussionID: discussion.ID, UserID: author.ID, Subject: "public", Modified: now.Add(-time.Hour)})
	fx.Create(&models.AdvancedForumPost{DiscussionID: discussion.ID, UserID: author.ID, Subject: "for reader", PrivateReplyTo: reader.ID, Reveal: true, Modified: now.Add(-2 * time.Hour)})
	fx.Create(&models.AdvancedForumPost{DiscussionID: discussion.ID, UserID: author.ID, Subject: "for bystander", PrivateReplyTo: bystander.ID, Modified: now.Add(-3 * time.Hour)})

	rows, err := repo.RecentAdvancedPosts(context.Background(), ForumPostQuery{UserID: reader.ID, ForumIDs: []uint{forum.ID}, Since: now.Add(-time.Hour - time.Minute)})
	require.NoError(t, err)
	require.Len(t, rows, 1, "since bound excludes older posts")

	rows, err = repo.RecentAdvancedPosts(context.Background(), ForumPostQuery{UserID: reader.ID, ForumIDs: []uint{forum.ID}, Since: now.Add(-24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "public", rows[0].Subject)
	require.Equal(t, "for reader", rows[1].Subject)
	require.True(t, rows[1].Reveal)
	require.Equal(t, models.AnonymityOptional, rows[1].ForumAnonymous)

	rows, err = repo.RecentAdvancedPosts(context.Background(), ForumPostQuery{UserID: reader.ID, Since: now.Add(-24 * time.Hour)})
	require.NoError(t, err)
	require.Empty(t, rows)
}
