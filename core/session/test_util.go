package session

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// MakeTestToken issues a signed HS256 token for tests. The portal never
// verifies signatures, so the key does not matter to the store under test.
func MakeTestToken(subject, scope string, expiresAt time.Time) string {
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
		Scope: scope,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		panic(err)
	}
	return token
}
