package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GintGld/video-splitter/internal/service"
)

// Session issues and verifies anonymous signed session tokens.
// A token carries only a generated session id, enough to tie
// jobs to the browser that uploaded them.
type Session struct {
	secret []byte
	ttl    time.Duration
}

func New(secret []byte, ttl time.Duration) *Session {
	return &Session{
		secret: secret,
		ttl:    ttl,
	}
}

func (s *Session) NewToken(sid string) (string, error) {
	const op = "Session.NewToken"

	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["sid"] = sid
	claims["exp"] = time.Now().Add(s.ttl).Unix()

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return tokenString, nil
}

// Parse returns session id stored in the token.
func (s *Session) Parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, service.ErrInvalidToken
		}

		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", service.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", service.ErrInvalidToken
	}

	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", service.ErrInvalidToken
	}

	return sid, nil
}
