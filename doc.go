// Package backend provides the Commune API server.

// The actual implementation is organized into subpackages:

// - cmd/server: API server entry point
// - cmd/migrate: standalone migration runner
// - cmd/seed: development database seeder
// - cmd/cli: operator command line tooling
// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Registration, login, and JWT sessions
// - internal/authz: Action-level authorization checks
// - internal/membership: Collective create/join/leave/capacity rules
// - internal/workflow: Two-party accept/deny request state machine
// - internal/notify: Durable notification events
// - internal/typing: Ephemeral typing indicators
// - internal/store: Typed entity storage over GORM
// - internal/keylock: Per-key mutual exclusion for check-then-write sections
// - internal/chat: getstream.io chat integration
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (auth, logging, metrics)

// See the individual package documentation for detailed API reference.
package backend
