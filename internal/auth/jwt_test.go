package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestValidator_Validate(t *testing.T) {
	req := require.New(t)
	v := NewValidator("devsecret", "tutorlink")

	raw := signed(t, "devsecret", Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "tutorlink",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := v.Validate(raw)
	req.NoError(err)
	req.Equal(int64(7), claims.UserID)
}

func TestValidator_RejectsWrongSecret(t *testing.T) {
	req := require.New(t)
	v := NewValidator("devsecret", "")

	raw := signed(t, "othersecret", Claims{UserID: 7})
	_, err := v.Validate(raw)
	req.Error(err)
}

func TestValidator_RejectsWrongIssuer(t *testing.T) {
	req := require.New(t)
	v := NewValidator("devsecret", "tutorlink")

	raw := signed(t, "devsecret", Claims{
		UserID:           7,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	})
	_, err := v.Validate(raw)
	req.ErrorIs(err, ErrInvalidToken)
}

func TestValidator_RejectsMissingUserID(t *testing.T) {
	req := require.New(t)
	v := NewValidator("devsecret", "")

	raw := signed(t, "devsecret", Claims{})
	_, err := v.Validate(raw)
	req.ErrorIs(err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	req := require.New(t)

	tok, err := ExtractBearerToken("Bearer abc.def.ghi")
	req.NoError(err)
	req.Equal("abc.def.ghi", tok)

	_, err = ExtractBearerToken("")
	req.ErrorIs(err, ErrMissingToken)

	_, err = ExtractBearerToken("Basic abc")
	req.ErrorIs(err, ErrInvalidToken)

	_, err = ExtractBearerToken("Bearer ")
	req.ErrorIs(err, ErrInvalidToken)
}
