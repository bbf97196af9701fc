package models

import (
	"strings"
	"time"
)

type AdminRole string

const (
	RoleSuperAdmin AdminRole = "SUPER_ADMIN"
	RoleExamAdmin  AdminRole = "EXAM_ADMIN"
)

type Admin struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Name         string    `json:"name" gorm:"size:200;not null"`
	PasswordHash string    `json:"-" gorm:"size:100"`
	Role         AdminRole `json:"role" gorm:"size:20;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the authenticated caller of an admin route, whether it came
// from a local session token or from Casdoor.
type Principal struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     AdminRole `json:"role"`
	Provider string    `json:"provider"`
}

type Student struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	StudentCode   string     `json:"student_id" gorm:"column:student_code;type:varchar(50);not null;uniqueIndex"`
	FirstName     string     `json:"first_name" gorm:"size:100;not null"`
	LastName      *string    `json:"last_name" gorm:"size:100"`
	ClassLevel    string     `json:"class_level" gorm:"size:20;not null;index"`
	Section       *string    `json:"section" gorm:"size:20"`
	AdmissionNo   *string    `json:"admission_no" gorm:"size:50"`
	DateOfBirth   *time.Time `json:"dob"`
	ParentContact *string    `json:"parent_contact" gorm:"size:100"`
	Email         *string    `json:"email" gorm:"size:255"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (s *Student) FullName() string {
	if s.LastName == nil {
		return s.FirstName
	}
	return strings.TrimSpace(s.FirstName + " " + *s.LastName)
}
