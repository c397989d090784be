// Package authz decides whether an actor may perform an action against a
// target entity. The evaluator is side-effect free and deterministic with
// respect to store state at call time; it offers no isolation beyond what
// the store itself guarantees, so mutating operations re-check inside
// their own serialization scope.
package authz

import (
	"errors"

	apperrors "github.com/orbitlabs/commune/backend/internal/errors"
	"github.com/orbitlabs/commune/backend/internal/models"
	"github.com/orbitlabs/commune/backend/internal/store"
)

// Action is an authorization-relevant operation
type Action string

const (
	// ActionModifyCollective covers deactivation and role changes
	ActionModifyCollective Action = "modify_collective"
	// ActionContributeToCollective covers posting into a collective
	ActionContributeToCollective Action = "contribute_to_collective"
	// ActionDecideWorkflowRequest covers accept/deny of a request
	ActionDecideWorkflowRequest Action = "decide_workflow_request"
	// ActionLeaveCollective covers membership removal by the member
	ActionLeaveCollective Action = "leave_collective"
)

// Evaluator answers CanPerform questions against the entity store
type Evaluator struct {
	store *store.Store
}

// New creates an Evaluator
func New(st *store.Store) *Evaluator {
	return &Evaluator{store: st}
}

// CanPerform reports whether actor may apply action to the target. The
// target is a collective ID for collective actions and a workflow request
// ID for ActionDecideWorkflowRequest. A missing target yields false with
// no error: absence is simply "not allowed" here, and the mutating
// operation reports NotFound itself.
func (e *Evaluator) CanPerform(actorID string, action Action, targetID string) (bool, error) {
	switch action {
	case ActionModifyCollective:
		return e.canModifyCollective(actorID, targetID)
	case ActionContributeToCollective:
		return e.canContribute(actorID, targetID)
	case ActionDecideWorkflowRequest:
		return e.canDecide(actorID, targetID)
	case ActionLeaveCollective:
		return e.canLeave(actorID, targetID)
	default:
		return false, apperrors.BadRequest("unknown action")
	}
}

// canModifyCollective: actor's membership role must be admin
func (e *Evaluator) canModifyCollective(actorID, collectiveID string) (bool, error) {
	membership, err := e.store.GetMembership(collectiveID, actorID)
	if err != nil {
		return false, ignoreNotFound(err)
	}
	return membership.Role == models.RoleAdmin, nil
}

// canContribute: collective is public, or actor is the creator, or actor
// holds any membership
func (e *Evaluator) canContribute(actorID, collectiveID string) (bool, error) {
	collective, err := e.store.GetCollective(collectiveID)
	if err != nil {
		return false, ignoreNotFound(err)
	}
	if collective.IsPublic || collective.CreatorID == actorID {
		return true, nil
	}
	return e.store.HasMembership(collectiveID, actorID)
}

// canDecide: actor must be the request's owner
func (e *Evaluator) canDecide(actorID, requestID string) (bool, error) {
	request, err := e.store.GetWorkflowRequest(requestID)
	if err != nil {
		return false, ignoreNotFound(err)
	}
	return request.OwnerID == actorID, nil
}

// canLeave: actor holds a membership and is not the creator
func (e *Evaluator) canLeave(actorID, collectiveID string) (bool, error) {
	collective, err := e.store.GetCollective(collectiveID)
	if err != nil {
		return false, ignoreNotFound(err)
	}
	if collective.CreatorID == actorID {
		return false, nil
	}
	return e.store.HasMembership(collectiveID, actorID)
}

// ignoreNotFound maps a NotFound lookup to a plain deny
func ignoreNotFound(err error) error {
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) && apiErr.Code == apperrors.ErrNotFound {
		return nil
	}
	return err
}
