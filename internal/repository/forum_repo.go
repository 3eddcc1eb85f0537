package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/models"
)

// ForumPostQuery describes the recent-posts push-down filter.
type ForumPostQuery struct {
	UserID            uint
	ForumIDs          []uint
	AllGroupsForumIDs []uint
	Since             time.Time
	Limit             int
}

// ForumPostRow is a post joined with its forum, course and author.
type ForumPostRow struct {
	PostID          uint
	DiscussionID    uint
	ParentID        uint
	Subject         string
	Message         string
	Modified        time.Time
	PrivateReplyTo  uint
	Reveal          bool
	AuthorID        uint
	AuthorUsername  string
	AuthorFirstName string
	AuthorLastName  string
	AuthorEmail     string
	GroupID         int64
	ForumID         uint
	ForumName       string
	ForumAnonymous  int
	CourseID        uint
	CourseShortName string
	CourseFullName  string
	CourseModuleID  uint
}

// ForumRepository fetches recent posts of both forum kinds.
type ForumRepository interface {
	RecentPosts(ctx context.Context, query ForumPostQuery) ([]ForumPostRow, error)
	RecentAdvancedPosts(ctx context.Context, query ForumPostQuery) ([]ForumPostRow, error)
}

type forumRepository struct {
	db *gorm.DB
}

// NewForumRepository constructs a forum repository.
func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

const standardPostsSQL = `
SELECT p.id AS post_id, p.discussion_id, p.parent_id, p.subject, p.message, p.modified,
       0 AS private_reply_to, 0 AS reveal,
       u.id AS author_id, u.username AS author_username, u.first_name AS author_first_name,
       u.last_name AS author_last_name, u.email AS author_email,
       d.group_id, f.id AS forum_id, f.name AS forum_name, 0 AS forum_anonymous,
       c.id AS course_id, c.short_name AS course_short_name, c.full_name AS course_full_name,
       cm.id AS course_module_id
  FROM forum_posts p
  JOIN users u ON u.id = p.user_id
  JOIN forum_discussions d ON d.id = p.discussion_id
  JOIN forums f ON f.id = d.forum_id AND f.id IN ?
  JOIN course_modules cm ON cm.instance_id = f.id AND cm.module_name = 'forum'
  JOIN courses c ON c.id = f.course_id
  LEFT JOIN group_members gm ON cm.group_mode = ? AND gm.group_id = d.group_id AND gm.user_id = ?
 WHERE (cm.group_mode <> ? OR gm.user_id IS NOT NULL OR f.id IN ?)
   AND p.user_id <> ?
   AND p.modified > ?
 ORDER BY p.modified DESC, p.id ASC`

const advancedPostsSQL = `
SELECT p.id AS post_id, p.discussion_id, p.parent_id, p.subject, p.message, p.modified,
       p.private_reply_to, p.reveal,
       u.id AS author_id, u.username AS author_username, u.first_name AS author_first_name,
       u.last_name AS author_last_name, u.email AS author_email,
       d.group_id, f.id AS forum_id, f.name AS forum_name, f.anonymous AS forum_anonymous,
       c.id AS course_id, c.short_name AS course_short_name, c.full_name AS course_full_name,
       cm.id AS course_module_id
  FROM advanced_forum_posts p
  JOIN users u ON u.id = p.user_id
  JOIN advanced_forum_discussions d ON d.id = p.discussion_id
  JOIN advanced_forums f ON f.id = d.forum_id AND f.id IN ?
  JOIN course_modules cm ON cm.instance_id = f.id AND cm.module_name = 'advancedforum'
  JOIN courses c ON c.id = f.course_id
  LEFT JOIN group_members gm ON cm.group_mode = ? AND gm.group_id = d.group_id AND gm.user_id = ?
 WHERE (cm.group_mode <> ? OR gm.user_id IS NOT NULL OR f.id IN ?)
   AND (p.private_reply_to = 0 OR p.private_reply_to = ? OR p.user_id = ?)
   AND p.user_id <> ?
   AND p.modified > ?
 ORDER BY p.modified DESC, p.id ASC`

// RecentPosts returns standard forum posts newest first. The limit is pushed
// down where the dialect supports it and applied in memory otherwise.
func (r *forumRepository) RecentPosts(ctx context.Context, query ForumPostQuery) ([]ForumPostRow, error) {
	if len(query.ForumIDs) == 0 {
		return []ForumPostRow{}, nil
	}

	sql := standardPostsSQL + LimitClause(DialectFamily(r.db), 0, query.Limit)
	args := []any{
		query.ForumIDs,
		models.GroupModeSeparate, query.UserID,
		models.GroupModeSeparate, allGroupIDs(query.AllGroupsForumIDs),
		query.UserID,
		query.Since.UTC(),
	}

	return r.scan(ctx, sql, args, query.Limit)
}

// RecentAdvancedPosts also hides private replies addressed to somebody else.
func (r *forumRepository) RecentAdvancedPosts(ctx context.Context, query ForumPostQuery) ([]ForumPostRow, error) {
	if len(query.ForumIDs) == 0 {
		return []ForumPostRow{}, nil
	}

	sql := advancedPostsSQL + LimitClause(DialectFamily(r.db), 0, query.Limit)
	args := []any{
		query.ForumIDs,
		models.GroupModeSeparate, query.UserID,
		models.GroupModeSeparate, allGroupIDs(query.AllGroupsForumIDs),
		query.UserID, query.UserID,
		query.UserID,
		query.Since.UTC(),
	}

	return r.scan(ctx, sql, args, query.Limit)
}

func (r *forumRepository) scan(ctx context.Context, sql string, args []any, limit int) ([]ForumPostRow, error) {
	var rows []ForumPostRow
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query recent posts: %w", err)
	}
	if rows == nil {
		rows = []ForumPostRow{}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// allGroupIDs keeps the IN list valid when no forum grants the override.
func allGroupIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{0}
	}
	return ids
}
