// Package attestation signs portable completion attestations for finished
// verification sessions. The attestation is a compact HS256 JWT a relying
// party can verify offline with the shared signing key.
package attestation

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vouch/internal/verification/models"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/requestcontext"
)

// DefaultValidity is how long an attestation stays verifiable.
const DefaultValidity = 90 * 24 * time.Hour

// Claims are the attestation JWT claims.
type Claims struct {
	UserID       string  `json:"user_id"`
	FinalScore   float64 `json:"final_score"`
	MethodsCount int     `json:"methods_count"`
	Status       string  `json:"status"`
	jwt.RegisteredClaims
}

// Service signs and verifies completion attestations.
type Service struct {
	signingKey []byte
	issuer     string
	validity   time.Duration
}

func NewService(signingKey, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		validity:   DefaultValidity,
	}
}

// Attest signs an attestation for a finished session.
func (s *Service) Attest(ctx context.Context, result models.Result) (string, error) {
	if !result.Status.Terminal() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "cannot attest non-terminal status %q", result.Status)
	}

	now := requestcontext.Now(ctx)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:       result.UserID.String(),
		FinalScore:   result.FinalScore,
		MethodsCount: len(result.MethodsCompleted),
		Status:       string(result.Status),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   result.UserID.String(),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign attestation")
	}
	return signed, nil
}

// Verify validates an attestation and returns its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "attestation has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid attestation")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid attestation")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid attestation claims")
	}
	return claims, nil
}
