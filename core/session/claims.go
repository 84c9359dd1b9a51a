package session

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var (
	nowFunc = time.Now // mockable

	errMalformedToken = errors.New("malformed token")
	errExpiredToken   = errors.New("token expired")
)

// Claims represents the authorization claims transmitted via a JWT.
// The portal holds no signing key: tokens are decoded, not verified, and
// expiry is still enforced locally.
type Claims struct {
	jwt.StandardClaims
	// Scope enumerates the roles granted to the subject, space-separated.
	Scope string `json:"scope,omitempty"`
}

// Roles splits the scope claim into its role set.
func (c Claims) Roles() []string {
	return strings.Fields(c.Scope)
}

// decodeToken extracts an Identity from a raw bearer token.
// Malformed and expired tokens both fail; callers collapse the two into
// "not authenticated".
func decodeToken(raw string) (Identity, error) {
	claims := new(Claims)
	if _, _, err := new(jwt.Parser).ParseUnverified(raw, claims); err != nil {
		return Identity{}, errors.Wrap(errMalformedToken, err.Error())
	}
	if claims.ExpiresAt != 0 && nowFunc().Unix() >= claims.ExpiresAt {
		return Identity{}, errExpiredToken
	}
	if claims.Subject == "" {
		return Identity{}, errMalformedToken
	}

	roles := claims.Roles()
	highest, _ := HighestRole(roles)
	return Identity{
		Subject: claims.Subject,
		Roles:   roles,
		Highest: highest,
	}, nil
}
