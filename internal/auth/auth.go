// Package auth issues API tokens and decides who may validate the journal.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/simonvc/bistroledger/internal/config"
	"github.com/simonvc/bistroledger/internal/logger"
)

// Roles allowed to validate entries and decide expense claims.
var ValidatorRoles = []string{"owner", "manager", "accountant"}

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an HS256 token for userID.
func (t *Tokens) Issue(userID, role string) (string, error) {
	now := t.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "bistroledger",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Parse(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}

func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPIN(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

type pinKey struct{}

// WithPIN attaches the PIN a user presented with a validation request.
func WithPIN(ctx context.Context, pin string) context.Context {
	return context.WithValue(ctx, pinKey{}, pin)
}

func pinFromContext(ctx context.Context) string {
	pin, _ := ctx.Value(pinKey{}).(string)
	return pin
}

// Directory is the set of configured validators.
type Directory struct {
	validators map[string]config.Validator
}

func NewDirectory(validators []config.Validator) *Directory {
	d := &Directory{validators: make(map[string]config.Validator, len(validators))}
	for _, v := range validators {
		d.validators[v.UserID] = v
	}
	return d
}

func (d *Directory) Lookup(userID string) (config.Validator, bool) {
	v, ok := d.validators[userID]
	return v, ok
}

// CanValidate grants users with a validator role. Users configured with a
// PIN hash must also have presented the matching PIN.
func (d *Directory) CanValidate(ctx context.Context, userID string) bool {
	v, ok := d.validators[userID]
	if !ok || !slices.Contains(ValidatorRoles, v.Role) {
		return false
	}
	if v.PINHash == "" {
		return true
	}
	if !VerifyPIN(v.PINHash, pinFromContext(ctx)) {
		logger.FromContext(ctx).Warn("validation PIN rejected", "user", userID)
		return false
	}
	return true
}
