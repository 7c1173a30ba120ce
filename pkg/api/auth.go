package api

// RegisterRequest представляет запрос на регистрацию нового аккаунта
type RegisterRequest struct {
	Email      string `json:"email"`       // email пользователя
	AuthSecret string `json:"auth_secret"` // секрет identity provider (hex), выведенный из master password
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email      string `json:"email"`
	AuthSecret string `json:"auth_secret"`
}

// SaltResponse представляет ответ с солью KDF пользователя
type SaltResponse struct {
	KDFSalt []byte `json:"kdf_salt"` // base64 в JSON
}

// TokenResponse представляет ответ с токенами доступа
type TokenResponse struct {
	UserID       string `json:"user_id"`       // UUID пользователя
	Email        string `json:"email"`         // нормализованный email
	AccessToken  string `json:"access_token"`  // JWT access token
	RefreshToken string `json:"refresh_token"` // refresh token
	ExpiresIn    int64  `json:"expires_in"`    // время жизни access token в секундах
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
