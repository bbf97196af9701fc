package models

import (
	"time"

	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorAdmin   ActorType = "ADMIN"
	ActorStudent ActorType = "STUDENT"
	ActorSystem  ActorType = "SYSTEM"
)

// AuditLog rows are only ever inserted.
type AuditLog struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	EventID    string         `json:"event_id" gorm:"size:64;uniqueIndex"`
	ActorType  ActorType      `json:"actor_type" gorm:"size:10;not null;index"`
	ActorID    string         `json:"actor_id" gorm:"size:255;not null"`
	Action     string         `json:"action" gorm:"size:64;not null;index"`
	Resource   string         `json:"resource" gorm:"size:64;not null"`
	ResourceID string         `json:"resource_id" gorm:"size:64"`
	IP         *string        `json:"ip" gorm:"size:45"`
	Metadata   datatypes.JSON `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at" gorm:"index"`
}
