// Package authorization authenticates admin requests against configured
// password hashes and checks role permissions with casbin.
package authorization

import (
	"context"
	"errors"
	"net/http"
)

const (
	ObjectCategory       = "category"
	ObjectRateItem       = "rate_item"
	ObjectActivationCode = "activation_code"
	ObjectNote           = "note"
	ObjectAuditLog       = "audit_log"
)

const (
	ActionView     = "view"
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionGenerate = "generate"
	ActionPurge    = "purge"
)

const (
	RoleAdmin    = "role:admin"
	RoleOperator = "role:operator"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Principal is an authenticated admin-side caller.
type Principal struct {
	Subject string
	Role    string
}

// Authenticator resolves the caller of an HTTP request.
type Authenticator interface {
	Authorize(r *http.Request) (Principal, error)
}

// Service decides whether a principal may perform action on object.
type Service interface {
	Authorize(ctx context.Context, principal Principal, object string, action string) error
}
