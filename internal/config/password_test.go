package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordConfig_Validate(t *testing.T) {
	tests := []struct {
		cost    int
		wantErr bool
	}{
		{cost: 9, wantErr: true},
		{cost: 10},
		{cost: 12},
		{cost: 14},
		{cost: 15, wantErr: true},
	}

	for _, tt := range tests {
		err := PasswordConfig{BcryptCost: tt.cost}.Validate()
		if tt.wantErr {
			assert.Error(t, err, "cost %d", tt.cost)
		} else {
			assert.NoError(t, err, "cost %d", tt.cost)
		}
	}
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := PasswordConfig{BcryptCost: MinBcryptCost}

	hash, err := cfg.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"))

	assert.True(t, cfg.VerifyPassword("correct horse battery", hash))
	assert.False(t, cfg.VerifyPassword("wrong password", hash))
	assert.False(t, cfg.VerifyPassword("correct horse battery", "not-a-hash"))
}

func TestPasswordConfig_Pepper(t *testing.T) {
	peppered := PasswordConfig{BcryptCost: MinBcryptCost, Pepper: "pepper"}
	plain := PasswordConfig{BcryptCost: MinBcryptCost}

	hash, err := peppered.HashPassword("secret-password")
	require.NoError(t, err)

	assert.True(t, peppered.VerifyPassword("secret-password", hash))
	assert.False(t, plain.VerifyPassword("secret-password", hash))
}

func TestPasswordConfig_TooLong(t *testing.T) {
	cfg := PasswordConfig{BcryptCost: MinBcryptCost, Pepper: "xx"}

	_, err := cfg.HashPassword(strings.Repeat("a", 71))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
