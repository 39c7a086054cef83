package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetra-app/vetra/internal/config"
)

func TestMintAndParseRoundTrip(t *testing.T) {
	token, err := MintToken(3, 7, "user")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
	assert.Equal(t, int64(7), claims.ShopID)
	assert.Equal(t, "user", claims.Role)
}

func TestShopIDOmittedWhenZero(t *testing.T) {
	token, err := MintToken(3, 0, "admin")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(0), claims.ShopID)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	token, err := MintToken(3, 0, "user")
	require.NoError(t, err)

	_, err = ParseToken(token + "x")
	assert.Error(t, err)
}

func TestParseRejectsWrongSigningMethod(t *testing.T) {
	// alg=none tokens must never verify
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 3})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(raw)
	assert.Error(t, err)
}

func TestParseRequiresUserID(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "user"})
	raw, err := token.SignedString(config.JWTSecret())
	require.NoError(t, err)

	_, err = ParseToken(raw)
	assert.Error(t, err)
}
