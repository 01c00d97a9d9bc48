package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role names resolved at login.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleTeacher    = "teacher"
	RoleParent     = "parent"
)

// Base model with UUID
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Student is the identity record referenced by every fee ledger.
type Student struct {
	BaseModel
	AdmissionNo   string `gorm:"type:varchar(50);uniqueIndex;not null" json:"admission_no"`
	Roll          int    `json:"roll"`
	ClassName     string `gorm:"type:varchar(100);not null;index" json:"class_name"`
	Section       string `gorm:"type:varchar(50)" json:"section"`
	Name          string `gorm:"type:varchar(255);not null" json:"name"`
	FatherName    string `gorm:"type:varchar(255)" json:"father_name"`
	MotherName    string `gorm:"type:varchar(255)" json:"mother_name"`
	FatherPhone   string `gorm:"type:varchar(50);index" json:"father_phone"`
	MotherPhone   string `gorm:"type:varchar(50);index" json:"mother_phone"`
	GuardianEmail string `gorm:"type:varchar(255);index" json:"guardian_email"`
	AvatarURL     string `gorm:"type:varchar(500)" json:"avatar_url"`
}

// Teacher is staff who manage exams and results and may collect fees.
type Teacher struct {
	BaseModel
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Email   string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone   string `gorm:"type:varchar(50)" json:"phone"`
	Subject string `gorm:"type:varchar(100)" json:"subject"`
}

// Admin is office staff; IsSuper grants the school-wide financial dashboard.
type Admin struct {
	BaseModel
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Email   string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone   string `gorm:"type:varchar(50)" json:"phone"`
	IsSuper bool   `gorm:"default:false" json:"is_super"`
}

// Class groups students; fee settings are keyed by its name.
type Class struct {
	BaseModel
	Name      string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Sections  datatypes.JSON `gorm:"type:json" json:"sections" swaggertype:"array,string"`
	TeacherID *uuid.UUID     `gorm:"type:char(36);index" json:"teacher_id"`
}

// Account holds sign-in credentials. The role is not stored here; it is
// resolved from admins, teachers and guardian contacts after sign-in.
type Account struct {
	BaseModel
	Email        string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone        string `gorm:"type:varchar(50);index" json:"phone"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
}

// RefreshToken stores refresh tokens for revocation
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	AccountID uuid.UUID `gorm:"type:char(36);not null;index" json:"account_id"`
	Token     string    `gorm:"type:varchar(500);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Revoked   bool      `gorm:"default:false;index" json:"revoked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// AuditLog tracks all data changes
type AuditLog struct {
	ID           uuid.UUID         `gorm:"type:char(36);primaryKey" json:"id"`
	ActorID      string            `gorm:"type:varchar(64);index" json:"actor_id"`
	Action       string            `gorm:"type:varchar(50);not null" json:"action"`
	ResourceType string            `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   string            `gorm:"type:varchar(100);index" json:"resource_id"`
	Before       datatypes.JSONMap `gorm:"type:json" json:"before" swaggertype:"object"`
	After        datatypes.JSONMap `gorm:"type:json" json:"after" swaggertype:"object"`
	Timestamp    time.Time         `gorm:"autoCreateTime;index" json:"timestamp"`
	IP           string            `gorm:"type:varchar(45)" json:"ip"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
