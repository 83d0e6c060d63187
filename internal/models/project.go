package models

// Project is a funded research project.
type Project struct {
	Base
	Code     string `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Title    string `gorm:"not null" json:"title"`
	HeadID   string `gorm:"type:uuid;not null;index" json:"head_id"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// Relationships
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
}

// ProjectMember links a staff user to a project.
type ProjectMember struct {
	Base
	ProjectID string `gorm:"type:uuid;not null;uniqueIndex:idx_project_member" json:"project_id"`
	UserID    string `gorm:"type:uuid;not null;uniqueIndex:idx_project_member" json:"user_id"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`
}
