package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a Commune account. Credentials live here but the engine
// packages only ever read the ID - identity verification happens at the
// HTTP edge.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`

	// Native auth fields
	PasswordHash *string `gorm:"type:text" json:"-"`

	// getstream.io chat integration
	StreamUserID string `gorm:"uniqueIndex" json:"stream_user_id"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CollectiveKind distinguishes the three membership-bearing entities
type CollectiveKind string

const (
	CollectiveKindGroup     CollectiveKind = "group"
	CollectiveKindCommunity CollectiveKind = "community"
	CollectiveKindAlbum     CollectiveKind = "album"
)

// Collective is any membership-bearing entity: a group, community, or
// shared album. The creator always holds an admin membership and can
// never leave; end of life is a soft deactivation, never a row delete.
type Collective struct {
	ID        string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Kind      CollectiveKind `gorm:"not null" json:"kind"`
	Name      string         `gorm:"not null" json:"name"`
	CreatorID string         `gorm:"not null;index" json:"creator_id"`
	Creator   User           `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`

	// Capacity is the max member count, nil = unbounded
	Capacity *int `json:"capacity"`

	// Public collectives accept contributions from non-members
	IsPublic bool `gorm:"default:false" json:"is_public"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	// GORM fields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MembershipRole is the role a member holds within a collective
type MembershipRole string

const (
	RoleAdmin  MembershipRole = "admin"
	RoleMember MembershipRole = "member"
)

// Membership is the join relation between a User and a Collective.
// Unique on (collective_id, user_id). Rows are hard-deleted on leave;
// the creator's row is protected by the membership service.
type Membership struct {
	ID           string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CollectiveID string         `gorm:"not null;index:idx_memberships_collective_user,unique" json:"collective_id"`
	Collective   Collective     `gorm:"foreignKey:CollectiveID" json:"-"`
	UserID       string         `gorm:"not null;index:idx_memberships_collective_user,unique" json:"user_id"`
	User         User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role         MembershipRole `gorm:"not null;default:member" json:"role"`
	JoinedAt     time.Time      `gorm:"not null" json:"joined_at"`
}

func (Membership) TableName() string {
	return "memberships"
}

// WorkflowStatus is the lifecycle state of a two-party request
type WorkflowStatus string

const (
	WorkflowStatusPending  WorkflowStatus = "pending"
	WorkflowStatusAccepted WorkflowStatus = "accepted"
	WorkflowStatusDenied   WorkflowStatus = "denied"
)

// WorkflowDomain tags what kind of access a request asks for
type WorkflowDomain string

const (
	WorkflowDomainLocation WorkflowDomain = "location"
	WorkflowDomainInvite   WorkflowDomain = "invite"
)

// WorkflowRequest is a two-party accept/deny request: a requester asks the
// owner of a subject (a post, an album, ...) for access. Transitions are
// one-way (pending -> accepted|denied) and rows are never deleted, so the
// table doubles as an audit trail.
type WorkflowRequest struct {
	ID          string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Domain      WorkflowDomain `gorm:"not null" json:"domain"`
	SubjectID   string         `gorm:"not null;index:idx_workflow_requests_subject_requester" json:"subject_id"`
	RequesterID string         `gorm:"not null;index:idx_workflow_requests_subject_requester" json:"requester_id"`
	Requester   User           `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	OwnerID     string         `gorm:"not null;index" json:"owner_id"`
	Owner       User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Status      WorkflowStatus `gorm:"not null;default:pending;index" json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at"`
}

func (WorkflowRequest) TableName() string {
	return "workflow_requests"
}

// BeforeCreate hooks for GORM
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	if u.StreamUserID == "" {
		u.StreamUserID = u.ID // Use same ID for getstream.io
	}
	return nil
}

func (cl *Collective) BeforeCreate(tx *gorm.DB) error {
	if cl.ID == "" {
		cl.ID = generateUUID()
	}
	return nil
}

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	return nil
}

func (r *WorkflowRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	if r.Status == "" {
		r.Status = WorkflowStatusPending
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
