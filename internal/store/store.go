// Package store is the entity store: durable keyed storage for users,
// collectives, memberships, workflow requests, and notification events.
// It is the single source of truth shared by every concurrent operation;
// the engine packages above it own the rules, this package only owns the
// lookups and writes.
package store

import (
	"errors"
	"time"

	apperrors "github.com/orbitlabs/commune/backend/internal/errors"
	"github.com/orbitlabs/commune/backend/internal/models"
	"gorm.io/gorm"
)

// Store wraps a gorm handle with the typed lookups the engine needs.
type Store struct {
	db *gorm.DB
}

// New creates a Store on top of an open gorm connection
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for callers that need raw queries
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn inside a database transaction. The Store passed to
// fn is scoped to that transaction, so paired writes either both commit
// or both roll back.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// ----------------------------------------------------------------------
// Users
// ----------------------------------------------------------------------

func (s *Store) GetUser(id string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(user *models.User) error {
	return s.db.Create(user).Error
}

// ----------------------------------------------------------------------
// Collectives
// ----------------------------------------------------------------------

func (s *Store) GetCollective(id string) (*models.Collective, error) {
	var collective models.Collective
	if err := s.db.First(&collective, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("collective")
		}
		return nil, err
	}
	return &collective, nil
}

// GetActiveCollective treats deactivated collectives as absent
func (s *Store) GetActiveCollective(id string) (*models.Collective, error) {
	collective, err := s.GetCollective(id)
	if err != nil {
		return nil, err
	}
	if !collective.IsActive {
		return nil, apperrors.NotFound("collective")
	}
	return collective, nil
}

func (s *Store) CreateCollective(collective *models.Collective) error {
	return s.db.Create(collective).Error
}

func (s *Store) DeactivateCollective(id string) error {
	return s.db.Model(&models.Collective{}).Where("id = ?", id).Update("is_active", false).Error
}

// ListCollectivesForUser returns active collectives the user belongs to,
// newest first
func (s *Store) ListCollectivesForUser(userID string) ([]models.Collective, error) {
	var collectives []models.Collective
	err := s.db.
		Joins("JOIN memberships ON memberships.collective_id = collectives.id").
		Where("memberships.user_id = ? AND collectives.is_active = ?", userID, true).
		Order("collectives.created_at DESC").
		Find(&collectives).Error
	return collectives, err
}

// ----------------------------------------------------------------------
// Memberships
// ----------------------------------------------------------------------

func (s *Store) GetMembership(collectiveID, userID string) (*models.Membership, error) {
	var membership models.Membership
	if err := s.db.Where("collective_id = ? AND user_id = ?", collectiveID, userID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("membership")
		}
		return nil, err
	}
	return &membership, nil
}

func (s *Store) HasMembership(collectiveID, userID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Membership{}).
		Where("collective_id = ? AND user_id = ?", collectiveID, userID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CountMembers(collectiveID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Membership{}).
		Where("collective_id = ?", collectiveID).
		Count(&count).Error
	return count, err
}

func (s *Store) ListMembers(collectiveID string) ([]models.Membership, error) {
	var memberships []models.Membership
	err := s.db.Where("collective_id = ?", collectiveID).
		Preload("User").
		Order("joined_at ASC").
		Find(&memberships).Error
	return memberships, err
}

func (s *Store) CreateMembership(membership *models.Membership) error {
	return s.db.Create(membership).Error
}

func (s *Store) DeleteMembership(collectiveID, userID string) error {
	return s.db.Where("collective_id = ? AND user_id = ?", collectiveID, userID).
		Delete(&models.Membership{}).Error
}

func (s *Store) UpdateMembershipRole(collectiveID, userID string, role models.MembershipRole) error {
	return s.db.Model(&models.Membership{}).
		Where("collective_id = ? AND user_id = ?", collectiveID, userID).
		Update("role", role).Error
}

// ----------------------------------------------------------------------
// Workflow requests
// ----------------------------------------------------------------------

func (s *Store) GetWorkflowRequest(id string) (*models.WorkflowRequest, error) {
	var request models.WorkflowRequest
	if err := s.db.First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("request")
		}
		return nil, err
	}
	return &request, nil
}

// HasPendingRequest reports whether a pending request exists for the
// (subject, requester) pair. Terminal requests never count, so a denied
// requester may ask again.
func (s *Store) HasPendingRequest(subjectID, requesterID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.WorkflowRequest{}).
		Where("subject_id = ? AND requester_id = ? AND status = ?",
			subjectID, requesterID, models.WorkflowStatusPending).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CreateWorkflowRequest(request *models.WorkflowRequest) error {
	return s.db.Create(request).Error
}

// DecideWorkflowRequest flips a pending request to its terminal status.
// The caller is responsible for the status precondition; this is the write.
func (s *Store) DecideWorkflowRequest(id string, status models.WorkflowStatus, respondedAt time.Time) error {
	return s.db.Model(&models.WorkflowRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": respondedAt,
		}).Error
}

func (s *Store) ListRequestsForOwner(ownerID string, status models.WorkflowStatus) ([]models.WorkflowRequest, error) {
	var requests []models.WorkflowRequest
	err := s.db.Where("owner_id = ? AND status = ?", ownerID, status).
		Preload("Requester").
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (s *Store) ListRequestsForRequester(requesterID string) ([]models.WorkflowRequest, error) {
	var requests []models.WorkflowRequest
	err := s.db.Where("requester_id = ?", requesterID).
		Preload("Owner").
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// ----------------------------------------------------------------------
// Notifications
// ----------------------------------------------------------------------

func (s *Store) GetNotification(id string) (*models.NotificationEvent, error) {
	var event models.NotificationEvent
	if err := s.db.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("notification")
		}
		return nil, err
	}
	return &event, nil
}

func (s *Store) CreateNotification(event *models.NotificationEvent) error {
	return s.db.Create(event).Error
}

func (s *Store) ListNotifications(recipientID string, limit, offset int) ([]models.NotificationEvent, error) {
	var events []models.NotificationEvent
	err := s.db.Where("recipient_id = ?", recipientID).
		Preload("SourceUser").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	return events, err
}

func (s *Store) CountUnreadNotifications(recipientID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.NotificationEvent{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (s *Store) MarkNotificationRead(id string) error {
	return s.db.Model(&models.NotificationEvent{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

// MarkAllNotificationsRead flips every unread row for the recipient and
// returns how many were affected
func (s *Store) MarkAllNotificationsRead(recipientID string) (int64, error) {
	result := s.db.Model(&models.NotificationEvent{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
