package auth

import (
	"encoding/json"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
)

const (
	tokenIssuer   = "readtrack-server"
	tokenAudience = "readtrack-client"
)

// TokenService issues and verifies v4.local access tokens.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
	clock        clock.Clock
}

// NewTokenService creates a token service from a 32-byte key.
func NewTokenService(key []byte, duration time.Duration, clk clock.Clock) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	if duration <= 0 {
		return nil, fmt.Errorf("token duration must be positive, got %s", duration)
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey: symmetricKey,
		duration:     duration,
		clock:        clk,
	}, nil
}

// Issue creates an access token for user and returns it with its expiry.
func (s *TokenService) Issue(user *domain.User) (string, time.Time, error) {
	now := s.clock.Now()
	expires := now.Add(s.duration)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(user.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)
	token.SetJti(uuid.NewString())

	if err := token.Set("user_id", user.ID); err != nil {
		return "", time.Time{}, fmt.Errorf("set user_id claim: %w", err)
	}
	if err := token.Set("email", user.Email); err != nil {
		return "", time.Time{}, fmt.Errorf("set email claim: %w", err)
	}

	return token.V4Encrypt(s.symmetricKey, nil), expires, nil
}

// Verify decrypts tokenString and checks issuer, audience and validity
// window against the service clock.
func (s *TokenService) Verify(tokenString string) (*AccessClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(s.clock.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	if claims.UserID == "" || claims.UserID != claims.Subject {
		return nil, fmt.Errorf("invalid token: subject does not match user")
	}

	return &claims, nil
}

// Duration returns the configured token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}
