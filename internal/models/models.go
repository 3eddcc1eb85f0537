package models

// All returns every model managed by the store, in migration order.
func All() []any {
	return []any{
		&User{},
		&Course{},
		&Enrollment{},
		&ModuleType{},
		&CourseModule{},
		&Group{},
		&GroupMember{},
		&CourseModuleCompletion{},
		&Role{},
		&RoleAssignment{},
		&RoleCapability{},
		&Forum{},
		&ForumDiscussion{},
		&ForumPost{},
		&AdvancedForum{},
		&AdvancedForumDiscussion{},
		&AdvancedForumPost{},
		&Assignment{},
		&AssignmentSubmission{},
		&AssignmentGrade{},
		&Quiz{},
		&QuizAttempt{},
		&CalendarEvent{},
		&Message{},
		&GradeGrade{},
	}
}
