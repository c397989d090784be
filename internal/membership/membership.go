// Package membership owns the join/leave/capacity rules for collectives.
// Two invariants hold for every active collective: the creator always has
// an admin membership, and the member count never exceeds capacity, even
// under concurrent joins.
package membership

import (
	"time"

	"github.com/orbitlabs/commune/backend/internal/authz"
	apperrors "github.com/orbitlabs/commune/backend/internal/errors"
	"github.com/orbitlabs/commune/backend/internal/keylock"
	"github.com/orbitlabs/commune/backend/internal/metrics"
	"github.com/orbitlabs/commune/backend/internal/models"
	"github.com/orbitlabs/commune/backend/internal/notify"
	"github.com/orbitlabs/commune/backend/internal/store"
	"go.uber.org/zap"
)

// Service is the membership manager
type Service struct {
	store  *store.Store
	authz  *authz.Evaluator
	notify *notify.Dispatcher
	locks  *keylock.KeyLock
	log    *zap.Logger
}

// New creates a membership Service
func New(st *store.Store, evaluator *authz.Evaluator, dispatcher *notify.Dispatcher, locks *keylock.KeyLock, log *zap.Logger) *Service {
	return &Service{
		store:  st,
		authz:  evaluator,
		notify: dispatcher,
		locks:  locks,
		log:    log,
	}
}

// CreateCollective inserts the collective and the creator's admin
// membership as one transaction, so the collective is never visible
// without its first member.
func (s *Service) CreateCollective(creatorID string, kind models.CollectiveKind, name string, capacity *int, isPublic bool) (collective *models.Collective, err error) {
	defer record("create_collective")(&err)

	if name == "" {
		return nil, apperrors.ValidationError("name", "name is required")
	}
	if capacity != nil && *capacity < 1 {
		return nil, apperrors.ValidationError("capacity", "capacity must be at least 1")
	}
	switch kind {
	case models.CollectiveKindGroup, models.CollectiveKindCommunity, models.CollectiveKindAlbum:
	default:
		return nil, apperrors.ValidationError("kind", "kind must be group, community, or album")
	}
	if _, err := s.store.GetUser(creatorID); err != nil {
		return nil, err
	}

	collective = &models.Collective{
		Kind:      kind,
		Name:      name,
		CreatorID: creatorID,
		Capacity:  capacity,
		IsPublic:  isPublic,
		IsActive:  true,
	}

	err = s.store.Transaction(func(tx *store.Store) error {
		if err := tx.CreateCollective(collective); err != nil {
			return err
		}
		return tx.CreateMembership(&models.Membership{
			CollectiveID: collective.ID,
			UserID:       creatorID,
			Role:         models.RoleAdmin,
			JoinedAt:     time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("collective created",
		zap.String("collective_id", collective.ID),
		zap.String("kind", string(kind)),
		zap.String("creator_id", creatorID),
	)
	return collective, nil
}

// Join adds userID as a member. The capacity check and the insert run
// under the collective's lock inside one transaction, so concurrent
// joiners cannot overshoot capacity. The creator gets a member_joined
// notification unless they are the one joining.
func (s *Service) Join(collectiveID, userID string) (membership *models.Membership, err error) {
	defer record("join")(&err)

	if _, err := s.store.GetUser(userID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock("collective:" + collectiveID)
	defer unlock()

	var collective *models.Collective
	err = s.store.Transaction(func(tx *store.Store) error {
		var err error
		collective, err = tx.GetActiveCollective(collectiveID)
		if err != nil {
			return err
		}

		exists, err := tx.HasMembership(collectiveID, userID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.AlreadyMember()
		}

		if collective.Capacity != nil {
			count, err := tx.CountMembers(collectiveID)
			if err != nil {
				return err
			}
			if count >= int64(*collective.Capacity) {
				return apperrors.Full()
			}
		}

		membership = &models.Membership{
			CollectiveID: collectiveID,
			UserID:       userID,
			Role:         models.RoleMember,
			JoinedAt:     time.Now().UTC(),
		}
		if err := tx.CreateMembership(membership); err != nil {
			return err
		}

		if collective.CreatorID != userID {
			_, err = s.notify.Emit(tx, collective.CreatorID, userID, models.NotificationMemberJoined, &models.NotificationPayload{
				CollectiveID:   collective.ID,
				CollectiveName: collective.Name,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("member joined",
		zap.String("collective_id", collectiveID),
		zap.String("user_id", userID),
	)
	return membership, nil
}

// Leave removes the user's membership. Creators cannot leave their own
// collective - that is the rule, not an oversight - so their admin row
// survives for the collective's whole active lifetime.
func (s *Service) Leave(collectiveID, userID string) (err error) {
	defer record("leave")(&err)

	unlock := s.locks.Lock("collective:" + collectiveID)
	defer unlock()

	return s.store.Transaction(func(tx *store.Store) error {
		collective, err := tx.GetCollective(collectiveID)
		if err != nil {
			return err
		}
		if _, err := tx.GetMembership(collectiveID, userID); err != nil {
			return err
		}
		if collective.CreatorID == userID {
			return apperrors.Forbidden("creators cannot leave their own collective")
		}
		if err := tx.DeleteMembership(collectiveID, userID); err != nil {
			return err
		}

		s.log.Info("member left",
			zap.String("collective_id", collectiveID),
			zap.String("user_id", userID),
		)
		return nil
	})
}

// Deactivate soft-deactivates a collective. Admin only; the rows stay.
func (s *Service) Deactivate(collectiveID, actorID string) error {
	if _, err := s.store.GetActiveCollective(collectiveID); err != nil {
		return err
	}
	allowed, err := s.authz.CanPerform(actorID, authz.ActionModifyCollective, collectiveID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.Forbidden("only admins can deactivate a collective")
	}

	if err := s.store.DeactivateCollective(collectiveID); err != nil {
		return err
	}
	s.log.Info("collective deactivated",
		zap.String("collective_id", collectiveID),
		zap.String("actor_id", actorID),
	)
	return nil
}

// Promote raises a member to admin. Admin only.
func (s *Service) Promote(collectiveID, actorID, targetUserID string) error {
	allowed, err := s.authz.CanPerform(actorID, authz.ActionModifyCollective, collectiveID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.Forbidden("only admins can change roles")
	}
	if _, err := s.store.GetMembership(collectiveID, targetUserID); err != nil {
		return err
	}
	return s.store.UpdateMembershipRole(collectiveID, targetUserID, models.RoleAdmin)
}

// record reports one membership operation to Prometheus once it returns
func record(operation string) func(*error) {
	return func(err *error) {
		outcome := "success"
		if *err != nil {
			outcome = string(apperrors.CodeOf(*err))
		}
		metrics.Get().EngineOperationsTotal.WithLabelValues("membership_"+operation, outcome).Inc()
	}
}

// Members lists memberships with user info, oldest first
func (s *Service) Members(collectiveID string) ([]models.Membership, error) {
	if _, err := s.store.GetActiveCollective(collectiveID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(collectiveID)
}

// Get returns an active collective
func (s *Service) Get(collectiveID string) (*models.Collective, error) {
	return s.store.GetActiveCollective(collectiveID)
}

// Mine lists the active collectives the user belongs to
func (s *Service) Mine(userID string) ([]models.Collective, error) {
	return s.store.ListCollectivesForUser(userID)
}
