package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/ports/adapter"
)

// referencePrefix tags every external reference this service generates.
const referencePrefix = "SPG"

var _ adapter.ReferenceGenerator = (*ReferenceFactory)(nil)

// ReferenceFactory mints external references of the form
// SPG<timestamp8><random3>_<antiReplay> and a signed session token binding the
// anti-replay component to the checkout session that generated it. Verifying
// the token later defeats replay or substitution from another tab.
type ReferenceFactory struct {
	secret []byte
	ttl    time.Duration
}

func NewReferenceFactory(secret string, ttl time.Duration) *ReferenceFactory {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ReferenceFactory{secret: []byte(secret), ttl: ttl}
}

type sessionClaims struct {
	ReferenceToken string `json:"ref_token"`
	jwt.RegisteredClaims
}

func (f *ReferenceFactory) Generate(sessionID string) (string, string, error) {
	now := time.Now()
	id := ulid.Make()
	entropy := strings.ToLower(id.String())

	ts := strconv.FormatInt(now.UnixMilli(), 10)
	ts = ts[len(ts)-8:]
	// The ULID's first 10 chars encode time; the rest is entropy. Split the
	// entropy between a short random component and the anti-replay token.
	random := entropy[10:13]
	antiReplay := entropy[len(entropy)-13:]
	reference := fmt.Sprintf("%s%s%s_%s", referencePrefix, ts, random, antiReplay)

	claims := sessionClaims{
		ReferenceToken: antiReplay,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(f.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign session token: %w", err)
	}
	return reference, signed, nil
}

func (f *ReferenceFactory) Verify(sessionID, token string) error {
	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return f.secret, nil
	})
	if err != nil || !tkn.Valid {
		return domain.ErrInvalidToken
	}
	if claims.Subject != sessionID || claims.ReferenceToken == "" {
		return domain.ErrInvalidToken
	}
	return nil
}
