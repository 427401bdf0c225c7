package frontend

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrChallengeInvalid = errors.New("challenge token is invalid")
	ErrChallengeExpired = errors.New("challenge token has expired")
	ErrChallengeReused  = errors.New("challenge token was already used")
	ErrWrongAnswer      = errors.New("challenge answer is wrong")
)

// challengeTTL bounds how long a user has to answer before the form must be
// re-issued.
const challengeTTL = 5 * time.Minute

type challengeClaims struct {
	Address string `json:"addr"`
	A       int    `json:"a"`
	B       int    `json:"b"`
	jwt.RegisteredClaims
}

// ChallengeManager issues and verifies arithmetic verification challenges.
// The challenge state travels with the form as a signed token bound to the
// requesting address, so the portal stays stateless apart from replay
// tracking: each token verifies exactly once.
type ChallengeManager struct {
	secret []byte

	mu   sync.Mutex
	used map[string]time.Time // jti -> token expiry
}

// NewChallengeManager creates a ChallengeManager signing with secret.
func NewChallengeManager(secret string) *ChallengeManager {
	return &ChallengeManager{
		secret: []byte(secret),
		used:   make(map[string]time.Time),
	}
}

// Issue creates a fresh challenge for an address and returns the signed
// token plus the question to render.
func (cm *ChallengeManager) Issue(address string) (token, question string, err error) {
	a := rand.IntN(9) + 1
	b := rand.IntN(9) + 1
	now := time.Now()

	claims := challengeClaims{
		Address: address,
		A:       a,
		B:       b,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(challengeTTL)),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cm.secret)
	if err != nil {
		return "", "", fmt.Errorf("signing challenge token: %w", err)
	}

	return token, fmt.Sprintf("%d + %d = ?", a, b), nil
}

// Verify checks an answer against the token it was issued with. The token
// is consumed whether or not the answer is right; a retry always needs a
// fresh challenge.
func (cm *ChallengeManager) Verify(tokenString, address, answer string) error {
	var claims challengeClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return cm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrChallengeExpired
		}
		return ErrChallengeInvalid
	}

	if claims.Address != address {
		return ErrChallengeInvalid
	}

	if err := cm.consume(claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}

	got, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || got != claims.A+claims.B {
		return ErrWrongAnswer
	}

	return nil
}

func (cm *ChallengeManager) consume(jti string, expiry time.Time) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	now := time.Now()
	for id, exp := range cm.used {
		if now.After(exp) {
			delete(cm.used, id)
		}
	}

	if _, seen := cm.used[jti]; seen {
		return ErrChallengeReused
	}
	cm.used[jti] = expiry
	return nil
}
