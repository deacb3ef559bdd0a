package authorization

import (
	"context"
	"strings"

	"github.com/casbin/casbin/v2"
	auditdomain "github.com/smallbiznis/scraprates/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, principal Principal, object string, action string) error {
	subject := strings.TrimSpace(principal.Subject)
	if subject == "" {
		return ErrUnauthorized
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, principal, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, principal Principal, object string, action string) {
	s.log.Warn("authorization denied",
		zap.String("subject", principal.Subject),
		zap.String("object", object),
		zap.String("action", action),
	)
	if s.auditSvc == nil {
		return
	}
	subject := principal.Subject
	_ = s.auditSvc.AuditLog(ctx, principal.Subject, &subject, "authorization.denied", "authorization", &object, map[string]any{
		"object": object,
		"action": action,
		"role":   principal.Role,
	})
}
