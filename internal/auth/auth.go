// Package auth implements the shared-passphrase admin gate and the bearer
// tokens it hands out.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/spot-booking/internal/apperrors"
	"github.com/Shivanand-hulikatti/spot-booking/internal/config"
	"github.com/Shivanand-hulikatti/spot-booking/internal/model"
	"github.com/Shivanand-hulikatti/spot-booking/internal/repository"
)

const issuer = "spot-booking"

// UserStore is the subset of user storage the gate needs.
type UserStore interface {
	GetByExternalID(ctx context.Context, externalID int64) (*model.User, error)
	IsAdmin(ctx context.Context, externalID int64) (bool, error)
	SetAdmin(ctx context.Context, externalID int64, isAdmin bool) error
}

// Gate checks the admin passphrase, promotes the caller and issues tokens.
type Gate struct {
	users  UserStore
	hash   []byte
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
}

// NewGate prepares the passphrase hash. A configured bcrypt hash wins over a
// plain passphrase. With neither set, every Login fails. An empty JWT secret
// is replaced by a random one, so tokens do not survive a restart.
func NewGate(cfg config.AdminConfig, users UserStore, log *zap.Logger) (*Gate, error) {
	g := &Gate{
		users: users,
		ttl:   cfg.TokenTTL,
		now:   time.Now,
		log:   log,
	}

	if !cfg.Enabled() {
		log.Warn("no admin passphrase configured, admin login is disabled")
	}
	switch {
	case cfg.PassphraseHash != "":
		if _, err := bcrypt.Cost([]byte(cfg.PassphraseHash)); err != nil {
			return nil, fmt.Errorf("admin.passphrase_hash is not a bcrypt hash: %w", err)
		}
		g.hash = []byte(cfg.PassphraseHash)
	case cfg.Passphrase != "":
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Passphrase), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin passphrase: %w", err)
		}
		g.hash = hash
	}

	if cfg.JWTSecret != "" {
		g.secret = []byte(cfg.JWTSecret)
	} else {
		g.secret = make([]byte, 32)
		if _, err := rand.Read(g.secret); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		if g.hash != nil {
			log.Warn("admin.jwt_secret not set, using a random secret for this process")
		}
	}

	if g.ttl <= 0 {
		g.ttl = time.Hour
	}
	return g, nil
}

// Enabled reports whether a passphrase is configured.
func (g *Gate) Enabled() bool {
	return g.hash != nil
}

// Login checks passphrase, marks the registered user externalID as admin and
// returns a signed token with its expiry.
func (g *Gate) Login(ctx context.Context, externalID int64, passphrase string) (string, time.Time, error) {
	if !g.Enabled() {
		return "", time.Time{}, apperrors.Unauthorized("admin login is disabled")
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(passphrase)); err != nil {
		g.log.Warn("admin login rejected", zap.Int64("external_id", externalID))
		return "", time.Time{}, apperrors.Unauthorized("wrong passphrase")
	}

	if _, err := g.users.GetByExternalID(ctx, externalID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, apperrors.NotRegistered()
		}
		return "", time.Time{}, apperrors.Internal("failed to load user", err)
	}
	if err := g.users.SetAdmin(ctx, externalID, true); err != nil {
		return "", time.Time{}, apperrors.Internal("failed to grant admin", err)
	}

	token, expiresAt, err := g.Issue(externalID)
	if err != nil {
		return "", time.Time{}, apperrors.Internal("failed to issue token", err)
	}
	g.log.Info("admin login", zap.Int64("external_id", externalID))
	return token, expiresAt, nil
}

// Issue signs an HS256 token for externalID.
func (g *Gate) Issue(externalID int64) (string, time.Time, error) {
	now := g.now()
	expiresAt := now.Add(g.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(externalID, 10),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses a token and returns the external id it was issued to.
func (g *Gate) Verify(tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return 0, apperrors.Unauthorized("invalid or expired token")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, apperrors.Unauthorized("invalid token subject")
	}
	return id, nil
}

// Authorize verifies the token and re-checks that its holder is still an
// admin.
func (g *Gate) Authorize(ctx context.Context, tokenString string) (int64, error) {
	id, err := g.Verify(tokenString)
	if err != nil {
		return 0, err
	}
	isAdmin, err := g.users.IsAdmin(ctx, id)
	if err != nil {
		return 0, apperrors.Internal("failed to check admin", err)
	}
	if !isAdmin {
		return 0, apperrors.Unauthorized("admin access required")
	}
	return id, nil
}
