package handler

import (
	"sync"

	"github.com/Meesho/BharatMLStack/model-serving/internal/configs"
)

var (
	authOnce      sync.Once
	authenticator Authenticator
	JwtKey        = []byte("model-serving-admin-secret") // Replace with a secure secret key
	tokenExpiry   = defaultTokenExpiry
)

type Authenticator interface {
	Register(user *User) error
	Login(user *Login) (*LoginResponse, error)
	Logout(token string) error
	UpdateUserAccessAndRole(email string, isActive bool, role string) error
}

// Configure overrides the JWT signing key and token expiry from app config.
// Must be called before InitAuthHandler.
func Configure(config configs.Configs) {
	if config.JwtSecret != "" {
		JwtKey = []byte(config.JwtSecret)
	}
	if config.TokenExpiryHours > 0 {
		tokenExpiry = config.TokenExpiryHours
	}
}
