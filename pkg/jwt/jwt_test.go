package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateAndParse(t *testing.T) {
	tok, err := Generate(secret, "u1", "t1", RoleBodeguero, "pyme-stock-test", 5)
	require.NoError(t, err)

	userID, tenantID, role, err := Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "t1", tenantID)
	assert.Equal(t, RoleBodeguero, role)
}

func TestParse_Expirado(t *testing.T) {
	tok, err := Generate(secret, "u1", "t1", RoleAdmin, "pyme-stock-test", -1)
	require.NoError(t, err)
	_, _, _, err = Parse(secret, tok)
	assert.Error(t, err)
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := Generate(secret, "u1", "t1", RoleAdmin, "pyme-stock-test", 5)
	require.NoError(t, err)
	_, _, _, err = Parse("otro", tok)
	assert.Error(t, err)
}

func TestSecretVacio(t *testing.T) {
	_, err := Generate("", "u1", "t1", RoleAdmin, "x", 5)
	assert.Error(t, err)
	_, _, _, err = Parse("", "abc")
	assert.Error(t, err)
}
