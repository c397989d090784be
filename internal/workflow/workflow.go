// Package workflow manages the lifecycle of two-party accept/deny
// requests. One state machine serves both domains the app needs -
// location-sharing requests and collective invites - which differ only in
// the notification tags their transitions emit.
//
// States: pending -> accepted | denied. Both outcomes are terminal and
// transitions are never reversed. At most one pending request may exist
// per (subject, requester) pair; once a request is decided the pair is
// free again, so a denied requester may ask another time.
package workflow

import (
	"time"

	apperrors "github.com/orbitlabs/commune/backend/internal/errors"
	"github.com/orbitlabs/commune/backend/internal/keylock"
	"github.com/orbitlabs/commune/backend/internal/metrics"
	"github.com/orbitlabs/commune/backend/internal/models"
	"github.com/orbitlabs/commune/backend/internal/notify"
	"github.com/orbitlabs/commune/backend/internal/store"
	"go.uber.org/zap"
)

// notification tags per domain and transition
var requestNotification = map[models.WorkflowDomain]models.NotificationType{
	models.WorkflowDomainLocation: models.NotificationLocationRequest,
	models.WorkflowDomainInvite:   models.NotificationInviteRequest,
}

var acceptNotification = map[models.WorkflowDomain]models.NotificationType{
	models.WorkflowDomainLocation: models.NotificationLocationShared,
	models.WorkflowDomainInvite:   models.NotificationInviteAccepted,
}

var denyNotification = map[models.WorkflowDomain]models.NotificationType{
	models.WorkflowDomainLocation: models.NotificationLocationDenied,
	models.WorkflowDomainInvite:   models.NotificationInviteDenied,
}

// Service is the workflow state machine
type Service struct {
	store  *store.Store
	notify *notify.Dispatcher
	locks  *keylock.KeyLock
	log    *zap.Logger
}

// New creates a workflow Service
func New(st *store.Store, dispatcher *notify.Dispatcher, locks *keylock.KeyLock, log *zap.Logger) *Service {
	return &Service{
		store:  st,
		notify: dispatcher,
		locks:  locks,
		log:    log,
	}
}

// Create opens a new pending request from requester to owner for subject
// and notifies the owner. The duplicate-pending check and the insert run
// under the (subject, requester) lock so two concurrent submissions cannot
// both pass the check.
func (s *Service) Create(domain models.WorkflowDomain, requesterID, ownerID, subjectID string) (request *models.WorkflowRequest, err error) {
	defer record("create", time.Now())(&err)

	if requesterID == ownerID {
		return nil, apperrors.InvalidActor("cannot request access from yourself")
	}
	if _, err := s.store.GetUser(ownerID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock("workflow:" + subjectID + ":" + requesterID)
	defer unlock()

	err = s.store.Transaction(func(tx *store.Store) error {
		pending, err := tx.HasPendingRequest(subjectID, requesterID)
		if err != nil {
			return err
		}
		if pending {
			return apperrors.DuplicatePending()
		}

		request = &models.WorkflowRequest{
			Domain:      domain,
			SubjectID:   subjectID,
			RequesterID: requesterID,
			OwnerID:     ownerID,
			Status:      models.WorkflowStatusPending,
		}
		if err := tx.CreateWorkflowRequest(request); err != nil {
			return err
		}

		_, err = s.notify.Emit(tx, ownerID, requesterID, requestNotification[domain], &models.NotificationPayload{
			RequestID: request.ID,
			SubjectID: subjectID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("workflow request created",
		zap.String("workflow_request_id", request.ID),
		zap.String("domain", string(domain)),
		zap.String("requester_id", requesterID),
		zap.String("owner_id", ownerID),
	)
	return request, nil
}

// Decide moves a pending request to accepted or denied and notifies the
// requester. Only the owner may decide; a terminal request stays exactly
// as its first decision left it. The status write and the notification
// commit as one unit.
func (s *Service) Decide(requestID, deciderID string, outcome models.WorkflowStatus) (request *models.WorkflowRequest, err error) {
	defer record("decide", time.Now())(&err)

	if outcome != models.WorkflowStatusAccepted && outcome != models.WorkflowStatusDenied {
		return nil, apperrors.BadRequest("outcome must be accepted or denied")
	}

	unlock := s.locks.Lock("workflow-decide:" + requestID)
	defer unlock()

	err = s.store.Transaction(func(tx *store.Store) error {
		var err error
		request, err = tx.GetWorkflowRequest(requestID)
		if err != nil {
			return err
		}
		if request.OwnerID != deciderID {
			return apperrors.Forbidden("only the owner can decide this request")
		}
		if request.Status != models.WorkflowStatusPending {
			return apperrors.AlreadyDecided()
		}

		now := time.Now().UTC()
		if err := tx.DecideWorkflowRequest(requestID, outcome, now); err != nil {
			return err
		}
		request.Status = outcome
		request.RespondedAt = &now

		tag := acceptNotification[request.Domain]
		if outcome == models.WorkflowStatusDenied {
			tag = denyNotification[request.Domain]
		}
		_, err = s.notify.Emit(tx, request.RequesterID, deciderID, tag, &models.NotificationPayload{
			RequestID: request.ID,
			SubjectID: request.SubjectID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("workflow request decided",
		zap.String("workflow_request_id", request.ID),
		zap.String("outcome", string(outcome)),
		zap.String("decider_id", deciderID),
	)
	return request, nil
}

// record reports one transition to Prometheus once the operation returns
func record(operation string, start time.Time) func(*error) {
	return func(err *error) {
		outcome := "success"
		if *err != nil {
			outcome = string(apperrors.CodeOf(*err))
		}
		m := metrics.Get()
		m.EngineOperationsTotal.WithLabelValues("workflow_"+operation, outcome).Inc()
		m.WorkflowTransitionDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// Inbox returns the pending requests waiting on the owner
func (s *Service) Inbox(ownerID string) ([]models.WorkflowRequest, error) {
	return s.store.ListRequestsForOwner(ownerID, models.WorkflowStatusPending)
}

// Outbox returns every request the user has sent, newest first
func (s *Service) Outbox(requesterID string) ([]models.WorkflowRequest, error) {
	return s.store.ListRequestsForRequester(requesterID)
}

// Get returns a single request if the caller is a party to it
func (s *Service) Get(requestID, actorID string) (*models.WorkflowRequest, error) {
	request, err := s.store.GetWorkflowRequest(requestID)
	if err != nil {
		return nil, err
	}
	if request.OwnerID != actorID && request.RequesterID != actorID {
		return nil, apperrors.Forbidden("not a party to this request")
	}
	return request, nil
}
