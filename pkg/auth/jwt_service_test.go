package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	token, err := svc.GenerateToken("alice", RoleOperator)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Operator)
	assert.Equal(t, RoleOperator, claims.Role)
}

func TestValidate_RejectsOtherSecretAndExpired(t *testing.T) {
	token, err := NewJWTService("secret", time.Hour).GenerateToken("alice", RoleOperator)
	require.NoError(t, err)
	_, err = NewJWTService("other", time.Hour).ValidateToken(token)
	assert.Error(t, err)

	expired, err := NewJWTService("secret", -time.Minute).GenerateToken("alice", RoleOperator)
	require.NoError(t, err)
	_, err = NewJWTService("secret", time.Hour).ValidateToken(expired)
	assert.Error(t, err)
}

func TestGenerate_RequiresOperator(t *testing.T) {
	_, err := NewJWTService("secret", time.Hour).GenerateToken("", RoleOperator)
	assert.Error(t, err)
}
