package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "ptm/backend/internal/errors"
	"ptm/backend/internal/model"
	"ptm/backend/internal/storage"
)

const minPassphraseLength = 6

// AuthService guards the API of a single-user instance with a local
// passphrase. The bcrypt hash is stored through the gateway.
type AuthService struct {
	gateway   *storage.Gateway
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(gateway *storage.Gateway, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		gateway:   gateway,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

type credentials struct {
	Subject        string          `json:"subject"`
	PassphraseHash string          `json:"passphraseHash"`
	CreatedAt      model.Timestamp `json:"createdAt"`
}

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Configured reports whether a passphrase has been set up.
func (s *AuthService) Configured() bool {
	ok, err := s.gateway.Has(storage.KeyAuth)
	return err == nil && ok
}

func (s *AuthService) Setup(_ context.Context, passphrase string) (*AuthResult, *apperrors.APIError) {
	if len(passphrase) < minPassphraseLength {
		return nil, apperrors.BadRequest("invalid_passphrase", "passphrase must be at least 6 characters")
	}
	if s.Configured() {
		return nil, apperrors.Conflict("already_configured", "passphrase already configured", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to secure passphrase")
	}

	creds := credentials{
		Subject:        uuid.NewString(),
		PassphraseHash: string(hash),
		CreatedAt:      model.NewTimestamp(s.now()),
	}
	if err := s.gateway.Save(storage.KeyAuth, creds); err != nil {
		return nil, apperrors.FromDomain(err)
	}
	return s.issueToken(creds.Subject)
}

func (s *AuthService) Login(_ context.Context, passphrase string) (*AuthResult, *apperrors.APIError) {
	if passphrase == "" {
		return nil, apperrors.BadRequest("invalid_credentials", "passphrase is required")
	}

	creds, err := storage.LoadAs[credentials](s.gateway, storage.KeyAuth)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NotFound("not_configured", "passphrase has not been set up")
	}
	if err != nil {
		return nil, apperrors.FromDomain(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(creds.PassphraseHash), []byte(passphrase)) != nil {
		return nil, apperrors.Unauthorized("invalid passphrase")
	}
	return s.issueToken(creds.Subject)
}

func (s *AuthService) ParseToken(tokenString string) (string, *apperrors.APIError) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", apperrors.Unauthorized("invalid token")
	}

	if claims.Subject == "" {
		return "", apperrors.Unauthorized("invalid token subject")
	}

	return claims.Subject, nil
}

func (s *AuthService) issueToken(subject string) (*AuthResult, *apperrors.APIError) {
	now := s.now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperrors.Internal("failed to sign token")
	}
	return &AuthResult{Token: signed, ExpiresAt: expiresAt}, nil
}
