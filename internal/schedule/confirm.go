package schedule

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Offer is the payload of a pending alternative-time suggestion. It carries
// everything needed to resume the interrupted operation, so the server keeps
// no state while the user decides.
type Offer struct {
	// Op names the operation awaiting confirmation ("check_availability"
	// or "move").
	Op string `json:"op"`

	OriginalDate    string `json:"original_date"`
	OriginalTime    string `json:"original_time"`
	AlternativeDate string `json:"alternative_date"`
	AlternativeTime string `json:"alternative_time"`

	// Identity context for move offers, empty otherwise.
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Offer operation names.
const (
	OfferOpCheckAvailability = "check_availability"
	OfferOpMove              = "move"
)

// ErrInvalidOffer is returned when a confirmation token fails verification:
// bad signature, expired, or malformed.
var ErrInvalidOffer = errors.New("invalid or expired confirmation token")

type offerClaims struct {
	Offer Offer `json:"offer"`
	jwt.RegisteredClaims
}

// OfferSigner issues and verifies the opaque confirmation tokens handed to
// callers with pending results. Tokens are HS256-signed JWTs carrying the
// full offer payload, bounded by a TTL. Since the server keeps no offer
// state, tokens are not single-use: a verified offer stays redeemable until
// it expires, and the resuming operation re-checks the slot before writing.
type OfferSigner struct {
	key []byte
	ttl time.Duration
}

// NewOfferSigner creates a signer with the given key and token lifetime.
// When key is empty a random per-process key is generated; offers then
// survive only the current process.
func NewOfferSigner(key []byte, ttl time.Duration) (*OfferSigner, error) {
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = DefaultOfferTTL
	}
	return &OfferSigner{key: key, ttl: ttl}, nil
}

// Sign issues a confirmation token for the offer.
func (s *OfferSigner) Sign(offer Offer) (string, error) {
	now := time.Now()
	claims := offerClaims{
		Offer: offer,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign offer token: %w", err)
	}
	return signed, nil
}

// Verify checks a confirmation token and returns the offer it carries.
func (s *OfferSigner) Verify(tokenString string) (*Offer, error) {
	var claims offerClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOffer, err)
	}
	return &claims.Offer, nil
}
