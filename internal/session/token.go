package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned by TokenExpiry for a token without an exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// TokenExpiry decodes the payload of a JWT without verifying its signature
// and returns the exp claim. The result is only fit for deciding what to show
// the user; the server remains the sole judge of whether a token is valid.
func TokenExpiry(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, err
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}
