package shiptheory

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DecodedToken is the inspected form of a three-segment access token.
//
// Decoding does NOT verify the signature and is not a trust boundary. The
// claims are read only to schedule refreshes of a token that the API handed
// us over TLS; nothing here may be used to authorize anything.
type DecodedToken struct {
	Header    map[string]any
	Claims    jwt.MapClaims
	Signature []byte
}

// ExpiresAt returns the exp claim. ok is false when the claim is absent or
// not a number.
func (d *DecodedToken) ExpiresAt() (time.Time, bool) {
	if d == nil || d.Claims == nil {
		return time.Time{}, false
	}
	exp, err := d.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

var tokenParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeToken splits token into header, payload and signature without
// verifying it. It fails with *FormatError unless the token has exactly
// three base64url segments whose first two are JSON objects.
func DecodeToken(token string) (*DecodedToken, error) {
	claims := jwt.MapClaims{}
	parsed, parts, err := tokenParser.ParseUnverified(token, claims)
	if err != nil {
		// A missing or unknown alg only matters for verification.
		if !errors.Is(err, jwt.ErrTokenUnverifiable) || parsed == nil || len(parts) != 3 {
			return nil, newFormatError("cannot decode token", err)
		}
	}

	signature, err := tokenParser.DecodeSegment(parts[2])
	if err != nil {
		return nil, newFormatError("could not base64 decode signature", err)
	}

	header := parsed.Header
	if header == nil {
		header = map[string]any{}
	}

	return &DecodedToken{
		Header:    header,
		Claims:    claims,
		Signature: signature,
	}, nil
}

// isJWTShaped reports whether token has the three dot-separated segments of
// a signed token. Anything else is treated as an opaque token.
func isJWTShaped(token string) bool {
	return strings.Count(token, ".") == 2
}
