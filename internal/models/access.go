package models

// Context levels used for capability evaluation.
const (
	ContextLevelSystem = 10
	ContextLevelCourse = 50
	ContextLevelModule = 70
)

// Capability permissions. Prohibit overrides any allow.
const (
	PermissionAllow    = 1
	PermissionPrevent  = -1
	PermissionProhibit = -1000
)

// Role is a named bundle of capabilities, e.g. "student" or "editingteacher".
type Role struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ShortName string `gorm:"size:100;uniqueIndex;not null" json:"short_name"`
}

// RoleAssignment grants a role to a user in a context.
type RoleAssignment struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	UserID       uint `gorm:"not null;index" json:"user_id"`
	RoleID       uint `gorm:"not null;index" json:"role_id"`
	ContextLevel int  `gorm:"not null;index:idx_role_assignment_context" json:"context_level"`
	InstanceID   uint `gorm:"not null;index:idx_role_assignment_context" json:"instance_id"`
}

// RoleCapability defines the permission a role has for a capability.
type RoleCapability struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	RoleID     uint   `gorm:"not null;uniqueIndex:idx_role_capability" json:"role_id"`
	Capability string `gorm:"size:255;not null;uniqueIndex:idx_role_capability;index" json:"capability"`
	Permission int    `gorm:"not null" json:"permission"`
}

// ContextRef identifies the scope a capability is evaluated in.
type ContextRef struct {
	Level      int  `json:"level"`
	InstanceID uint `json:"instance_id"`
}
