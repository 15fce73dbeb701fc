package main

import (
	"testing"

	"mochi_forums/internal/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagValue(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"separate", []string{"list", "--config", "a.yaml"}, "a.yaml"},
		{"equals", []string{"--config=b.yaml", "feed"}, "b.yaml"},
		{"missing", []string{"feed", "f1"}, ""},
		{"after terminator", []string{"comment", "add", "--", "--config", "c.yaml"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flagValue(tt.args, "config"))
		})
	}
}

func TestCurrentUser(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u42"}).SignedString([]byte("k"))
	require.NoError(t, err)

	cfg := &config.Config{API: config.APIConfig{Token: token}, App: config.AppConfig{UserID: "fallback"}}
	assert.Equal(t, "u42", currentUser(cfg))

	cfg.API.Token = "not-a-jwt"
	assert.Equal(t, "fallback", currentUser(cfg))
}
