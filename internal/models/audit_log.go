package models

// AuditLog records every ledger mutation for traceability.
type AuditLog struct {
	Base
	ActorID      string `gorm:"type:uuid;not null;index" json:"actor_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `gorm:"index" json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	OldValue     string `gorm:"type:text" json:"old_value,omitempty"`
	NewValue     string `gorm:"type:text" json:"new_value,omitempty"`
}
