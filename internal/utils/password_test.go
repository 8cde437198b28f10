package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("MotDePasse!2024")
	require.NoError(t, err)
	assert.NotEqual(t, "MotDePasse!2024", hash)

	assert.True(t, CheckPasswordHash("MotDePasse!2024", hash))
	assert.False(t, CheckPasswordHash("autre", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, ValidatePasswordStrength("MotDePasse2024"))

	assert.Error(t, ValidatePasswordStrength("court1A"))
	assert.Error(t, ValidatePasswordStrength("toutenminuscule1"))
	assert.Error(t, ValidatePasswordStrength("TOUTENMAJUSCULE1"))
	assert.Error(t, ValidatePasswordStrength("SansChiffres"))
}
