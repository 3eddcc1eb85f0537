package dto

import "time"

// ForumAuthor is the display identity of a post author, possibly anonymised.
type ForumAuthor struct {
	ID        uint   `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anonymous"`
}

// ForumActivity describes a recent post in a forum visible to the user.
type ForumActivity struct {
	Type            string      `json:"type"`
	CourseModuleID  uint        `json:"course_module_id"`
	CourseID        uint        `json:"course_id"`
	CourseShortName string      `json:"course_short_name"`
	CourseFullName  string      `json:"course_full_name"`
	ForumID         uint        `json:"forum_id"`
	ForumName       string      `json:"forum_name"`
	PostID          uint        `json:"post_id"`
	DiscussionID    uint        `json:"discussion_id"`
	ParentID        uint        `json:"parent_id"`
	Subject         string      `json:"subject"`
	Excerpt         string      `json:"excerpt"`
	Timestamp       time.Time   `json:"timestamp"`
	Author          ForumAuthor `json:"author"`
}

func (ForumActivity) Kind() Kind { return KindForumActivity }

// BacklogItem is an activity with submissions waiting to be graded.
type BacklogItem struct {
	CourseID       uint       `json:"course_id"`
	CourseFullName string     `json:"course_full_name"`
	ModuleType     string     `json:"module_type"`
	InstanceID     uint       `json:"instance_id"`
	CourseModuleID uint       `json:"course_module_id"`
	Name           string     `json:"name"`
	Ungraded       int64      `json:"ungraded"`
	Submitted      int64      `json:"submitted"`
	Participants   int64      `json:"participants"`
	OpenTime       *time.Time `json:"open_time"`
	CloseTime      *time.Time `json:"close_time"`
}

func (BacklogItem) Kind() Kind { return KindBacklogItem }

// DueTime is the close time when set, otherwise the open time.
func (b BacklogItem) DueTime() time.Time {
	switch {
	case b.CloseTime != nil && !b.CloseTime.IsZero():
		return *b.CloseTime
	case b.OpenTime != nil:
		return *b.OpenTime
	default:
		return time.Time{}
	}
}

// Deadline is an upcoming calendar event tied to an activity.
type Deadline struct {
	EventID        uint      `json:"event_id"`
	Name           string    `json:"name"`
	CourseID       uint      `json:"course_id"`
	CourseFullName string    `json:"course_full_name"`
	ModuleName     string    `json:"module_name"`
	InstanceID     uint      `json:"instance_id"`
	CourseModuleID uint      `json:"course_module_id"`
	EventType      string    `json:"event_type"`
	TimeStart      time.Time `json:"time_start"`
}

func (Deadline) Kind() Kind { return KindDeadline }

// DirectMessage is a person-to-person message received by the user.
type DirectMessage struct {
	ID         uint      `json:"id"`
	SenderID   uint      `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Subject    string    `json:"subject"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	Unread     bool      `json:"unread"`
}

func (DirectMessage) Kind() Kind { return KindDirectMessage }

// OverviewResponse bundles every source for the personal dashboard.
type OverviewResponse struct {
	ForumActivity []ForumActivity `json:"forum_activity"`
	Deadlines     []Deadline      `json:"deadlines"`
	Grading       []BacklogItem   `json:"grading"`
	Messages      []DirectMessage `json:"messages"`
}

// CompletionProgress summarises completion of tracked activities.
type CompletionProgress struct {
	Complete int `json:"complete"`
	Total    int `json:"total"`
	Percent  int `json:"percent"`
}

// CourseFeedback tells whether graded work or feedback is available.
type CourseFeedback struct {
	Available bool   `json:"available"`
	URL       string `json:"url,omitempty"`
}

// CourseInfo aggregates per-course supplementary dashboard data.
type CourseInfo struct {
	CourseID   uint               `json:"course_id"`
	Completion CompletionProgress `json:"completion"`
	Feedback   CourseFeedback     `json:"feedback"`
}

// AggregationRequest carries the optional query parameters of the personal endpoints.
type AggregationRequest struct {
	Limit int   `query:"limit" validate:"omitempty,min=1,max=100"`
	Since int64 `query:"since" validate:"omitempty,min=0"`
}

// CourseInfoRequest lists the courses to describe.
type CourseInfoRequest struct {
	IDs []uint `validate:"required,min=1,max=50,dive,gt=0"`
}
