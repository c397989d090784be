package handlers

import (
	"github.com/orbitlabs/commune/backend/internal/authz"
	"github.com/orbitlabs/commune/backend/internal/chat"
	"github.com/orbitlabs/commune/backend/internal/membership"
	"github.com/orbitlabs/commune/backend/internal/notify"
	"github.com/orbitlabs/commune/backend/internal/typing"
	"github.com/orbitlabs/commune/backend/internal/workflow"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	memberships *membership.Service
	workflows   *workflow.Service
	notify      *notify.Dispatcher
	authz       *authz.Evaluator
	typing      *typing.Store
	chat        *chat.Client
}

// NewHandlers creates a new handlers instance
func NewHandlers(memberships *membership.Service, workflows *workflow.Service, dispatcher *notify.Dispatcher, evaluator *authz.Evaluator) *Handlers {
	return &Handlers{
		memberships: memberships,
		workflows:   workflows,
		notify:      dispatcher,
		authz:       evaluator,
	}
}

// SetTypingStore sets the typing-indicator store
func (h *Handlers) SetTypingStore(ts *typing.Store) {
	h.typing = ts
}

// SetChatClient sets the getstream.io chat client
func (h *Handlers) SetChatClient(cc *chat.Client) {
	h.chat = cc
}
