package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var unverifiedParser = jwt.NewParser()

// decodes the claims segment of a compact token without verifying the signature.
// the backend verifies; the client only needs exp and display fields.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}

	if _, _, err := unverifiedParser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token claims: %w", err)
	}

	return claims, nil
}

// reports whether the token is expired at the current time.
// undecodable tokens and tokens without exp count as expired.
func IsExpired(token string) bool {
	return IsExpiredAt(token, time.Now())
}

// reports whether the token is expired at now
func IsExpiredAt(token string, now time.Time) bool {
	claims, err := ParseClaims(token)
	if err != nil {
		return true
	}

	if claims.ExpiresAt == nil {
		return true
	}

	return now.Unix() >= claims.ExpiresAt.Unix()
}

// returns the name to greet the user with, from an id token
func DisplayName(idToken string) string {
	claims, err := ParseClaims(idToken)
	if err != nil {
		return ""
	}

	switch {
	case claims.Name != "":
		return claims.Name
	case claims.Username != "":
		return claims.Username
	default:
		return claims.Email
	}
}
