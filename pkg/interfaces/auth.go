package interfaces

import (
	"context"
)

// Claims проверенные данные токена
type Claims struct {
	Subject string
	Roles   []string
}

// HasRole проверяет наличие роли
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthPort определяет интерфейс для проверки токенов API
type AuthPort interface {
	// ValidateToken проверяет токен и возвращает claims
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}
