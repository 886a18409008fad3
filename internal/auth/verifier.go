// Package auth issues and verifies employee tokens and hashes
// passwords. Tokens carry franchise, role and optionally a driver id.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/argon2"
)

// Verifier validates bearer tokens and extracts franchise/role claims.
// Supports modes: dev (unsigned franchise:role tokens) and hmac (HS256).
type Verifier struct {
	Mode   string
	Secret []byte
	TTL    time.Duration
}

type Claims struct {
	Franchise string `json:"franchise"`
	Role      string `json:"role"`
	DriverID  string `json:"driver_id,omitempty"`
	jwt.RegisteredClaims
}

type Principal struct {
	Franchise string
	Role      string
	DriverID  string
}

func NewVerifierFromEnv() *Verifier {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_MODE")))
	if mode == "" {
		mode = "dev"
	}
	return NewVerifier(mode, os.Getenv("AUTH_SECRET"))
}

func NewVerifier(mode, secret string) *Verifier {
	if mode == "" {
		mode = "dev"
	}
	return &Verifier{Mode: strings.ToLower(mode), Secret: []byte(secret), TTL: 12 * time.Hour}
}

// Sign issues a token for an authenticated employee. In dev mode the
// token is the plain franchise:role[:driver] triple.
func (v *Verifier) Sign(franchise, role, driverID string) (string, error) {
	if v.Mode == "dev" {
		tok := franchise + ":" + role
		if driverID != "" {
			tok += ":" + driverID
		}
		return tok, nil
	}
	if len(v.Secret) == 0 {
		return "", errors.New("auth: AUTH_SECRET not set")
	}
	now := time.Now()
	claims := Claims{
		Franchise: franchise,
		Role:      role,
		DriverID:  driverID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "fzclean",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.Secret)
}

// Verify validates a bearer token and returns the principal.
func (v *Verifier) Verify(token string) (Principal, error) {
	if v.Mode == "dev" {
		// token format: franchise:role[:driver]
		parts := strings.Split(token, ":")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return Principal{}, errors.New("auth: invalid dev token; expected franchise:role")
		}
		p := Principal{Franchise: parts[0], Role: strings.ToLower(parts[1])}
		if len(parts) > 2 {
			p.DriverID = parts[2]
		}
		return p, nil
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil {
		return Principal{}, err
	}
	if !parsed.Valid || claims.Franchise == "" {
		return Principal{}, errors.New("auth: invalid token claims")
	}
	role := claims.Role
	if role == "" {
		role = "staff"
	}
	return Principal{Franchise: claims.Franchise, Role: strings.ToLower(role), DriverID: claims.DriverID}, nil
}

// NewSalt returns a random hex salt for password hashing.
func NewSalt() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// HashPassword derives the argon2id digest stored for employees.
// Interactive cost: 64 MB, one pass, four lanes.
func HashPassword(password, salt string) string {
	key := argon2.IDKey([]byte(password), []byte(salt), 1, 64*1024, 4, 32)
	return hex.EncodeToString(key)
}

// VerifyPassword checks a login attempt against the stored digest in
// constant time.
func VerifyPassword(password, salt, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashPassword(password, salt)), []byte(hash)) == 1
}
