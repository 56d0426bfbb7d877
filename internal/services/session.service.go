package services

import (
	"context"
	"crypto/subtle"
	"time"

	"sparklean/config"
	"sparklean/internal/database"
	"sparklean/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionCachePrefix = "adminSession:"

// AdminSession is the cached record behind an issued token. Revoking a
// session deletes this record, which invalidates the token even before
// its expiry.
type AdminSession struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type adminClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionService issues and validates admin bearer tokens. Tokens are
// signed JWTs whose session ID must also exist in the session cache, so
// logout revokes a token immediately.
type SessionService struct {
	cache    database.CacheClient
	log      logger.Logger
	secret   []byte
	lifetime time.Duration

	adminUsername    string
	adminPassword    string
	adminDisplayName string
}

func NewSessionService(db database.DB, cfg config.Config) *SessionService {
	hours := cfg.AdminSessionHours
	if hours <= 0 {
		hours = 12
	}

	return &SessionService{
		cache:            db.Cache.Session,
		log:              logger.New("SessionService"),
		secret:           []byte(cfg.AdminSessionSecret),
		lifetime:         time.Duration(hours) * time.Hour,
		adminUsername:    cfg.AdminUsername,
		adminPassword:    cfg.AdminPassword,
		adminDisplayName: cfg.AdminDisplayName,
	}
}

// CheckCredentials compares the submitted admin credentials in constant
// time and returns the display name on success.
func (s *SessionService) CheckCredentials(username, password string) (string, bool) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
	if !userOK || !passOK {
		return "", false
	}
	return s.adminDisplayName, true
}

// Issue creates a new admin session and returns the signed bearer token.
func (s *SessionService) Issue(ctx context.Context, username string) (string, error) {
	log := s.log.Function("Issue")

	now := time.Now().UTC()
	session := AdminSession{
		ID:        uuid.NewString(),
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.lifetime),
	}

	if err := database.NewCacheBuilder(s.cache, sessionCachePrefix+session.ID).
		WithContext(ctx).
		WithStruct(session).
		WithTTL(s.lifetime).
		Set(); err != nil {
		return "", log.Err("failed to store admin session", err)
	}

	claims := adminClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", log.Err("failed to sign admin session token", err)
	}

	return token, nil
}

// Validate parses the bearer token and checks that its session is still
// live in the cache.
func (s *SessionService) Validate(ctx context.Context, token string) (*AdminSession, error) {
	log := s.log.Function("Validate")

	claims := &adminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, log.ErrMsg("unexpected token signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, log.Err("failed to parse admin session token", err)
	}
	if !parsed.Valid {
		return nil, log.ErrMsg("admin session token is not valid")
	}

	var session AdminSession
	found, err := database.NewCacheBuilder(s.cache, sessionCachePrefix+claims.ID).
		WithContext(ctx).
		Get(&session)
	if err != nil {
		return nil, log.Err("failed to load admin session", err)
	}
	if !found {
		return nil, log.ErrMsg("admin session was revoked or expired")
	}

	return &session, nil
}

// Revoke removes the session behind the token. Parse failures are
// treated as already revoked.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	log := s.log.Function("Revoke")

	claims := &adminClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		log.Warn("revoke called with unparseable token", "error", err)
		return nil
	}

	if err := database.NewCacheBuilder(s.cache, sessionCachePrefix+claims.ID).
		WithContext(ctx).
		Delete(); err != nil {
		return log.Err("failed to delete admin session", err)
	}

	return nil
}
