package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/case-workflow/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute, now: time.Now}
}

// Claims describes JWT payload.
type Claims struct {
	Role   domain.Role `json:"role"`
	Office string      `json:"office,omitempty"`
	jwt.RegisteredClaims
}

// Principal returns the caller the claims describe.
func (c *Claims) Principal() domain.Principal {
	return domain.Principal{Role: c.Role, Office: c.Office}
}

// GenerateToken builds and signs a JWT for the principal.
func (tm *TokenManager) GenerateToken(principal domain.Principal) (string, time.Time, error) {
	if err := ValidatePrincipal(principal); err != nil {
		return "", time.Time{}, err
	}
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	subject := string(principal.Role)
	if principal.Office != "" {
		subject = principal.Office
	}
	claims := &Claims{
		Role:   principal.Role,
		Office: principal.Office,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if err := ValidatePrincipal(claims.Principal()); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidatePrincipal checks the role is known and that only intake offices carry an office.
func ValidatePrincipal(p domain.Principal) error {
	if !p.Role.Valid() {
		return errors.New("unknown role")
	}
	if p.Role == domain.RoleIntakeOffice && p.Office == "" {
		return errors.New("intake office token requires an office")
	}
	if p.Role != domain.RoleIntakeOffice && p.Office != "" {
		return errors.New("only intake office tokens carry an office")
	}
	return nil
}
