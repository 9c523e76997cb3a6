package domain

import "github.com/golang-jwt/jwt/v5"

// CustomClaims токен выпускает внешний сервис авторизации, здесь только проверка
type CustomClaims struct {
	UserID string          `json:"user_id"`
	Scopes map[string]bool `json:"scopes"` // "admin": true или "state.read": true
	jwt.RegisteredClaims
}

// Скоупы, которые проверяют шлюз и консоль
const (
	ScopeStateRead  = "state.read"
	ScopeAdmin      = "admin"
	ScopeThresholds = "thresholds.write"
)

// HasScope admin покрывает все скоупы
func (c *CustomClaims) HasScope(scope string) bool {
	return c.Scopes[ScopeAdmin] || c.Scopes[scope]
}
