package authorization

import (
	"crypto/sha256"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/smallbiznis/scraprates/internal/auth/password"
	"github.com/smallbiznis/scraprates/internal/config"
	"go.uber.org/zap"
)

const (
	SubjectAdmin    = "admin"
	SubjectOperator = "operator"
)

type credential struct {
	principal Principal
	hash      string
}

// CredentialAuthenticator checks bearer secrets against Argon2id hashes
// supplied through configuration. With no credentials configured every
// request is rejected.
type CredentialAuthenticator struct {
	log         *zap.Logger
	credentials []credential

	mu       sync.RWMutex
	verified map[[sha256.Size]byte]Principal
}

// NewAuthenticator builds the authenticator from ADMIN_PASSWORD_HASH and
// OPERATOR_PASSWORD_HASH. A plain ADMIN_PASSWORD is hashed at start-up when
// no admin hash is set.
func NewAuthenticator(cfg config.Config, log *zap.Logger) (Authenticator, error) {
	log = log.Named("authorization.authenticator")
	a := &CredentialAuthenticator{
		log:      log,
		verified: make(map[[sha256.Size]byte]Principal),
	}

	adminHash := strings.TrimSpace(cfg.Admin.AdminPasswordHash)
	if adminHash == "" && cfg.Admin.AdminPassword != "" {
		if cfg.IsProduction() {
			log.Warn("ADMIN_PASSWORD is set in production; prefer ADMIN_PASSWORD_HASH")
		}
		hashed, err := password.Hash(cfg.Admin.AdminPassword)
		if err != nil {
			return nil, err
		}
		adminHash = hashed
	}
	if err := a.add(Principal{Subject: SubjectAdmin, Role: RoleAdmin}, adminHash); err != nil {
		return nil, err
	}
	if err := a.add(Principal{Subject: SubjectOperator, Role: RoleOperator}, cfg.Admin.OperatorPasswordHash); err != nil {
		return nil, err
	}

	if len(a.credentials) == 0 {
		log.Warn("no admin credentials configured; admin routes will reject every request")
	}
	return a, nil
}

func (a *CredentialAuthenticator) add(p Principal, hash string) error {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil
	}
	if _, err := password.Decode(hash); err != nil {
		return errors.New("invalid password hash for " + p.Subject)
	}
	a.credentials = append(a.credentials, credential{principal: p, hash: hash})
	return nil
}

func (a *CredentialAuthenticator) Authorize(r *http.Request) (Principal, error) {
	secret, ok := bearerToken(r)
	if !ok || len(a.credentials) == 0 {
		return Principal{}, ErrUnauthorized
	}

	digest := sha256.Sum256([]byte(secret))
	a.mu.RLock()
	p, cached := a.verified[digest]
	a.mu.RUnlock()
	if cached {
		return p, nil
	}

	for _, c := range a.credentials {
		if password.Verify(secret, c.hash) {
			a.mu.Lock()
			a.verified[digest] = c.principal
			a.mu.Unlock()
			return c.principal, nil
		}
	}
	return Principal{}, ErrUnauthorized
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
