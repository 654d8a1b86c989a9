package jwtController

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie holding the signed token.
const CookieName = "session"

type JWT struct {
	secret []byte
}

func New(secret []byte) *JWT {
	return &JWT{secret: secret}
}

func (jwtController *JWT) AuthRequired() func(*fiber.Ctx) error {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: jwtController.secret},
		TokenLookup: "cookie:" + CookieName,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication error",
			})
		},
	})
}

// SessionID extracts session id from the token parsed by AuthRequired.
// Returns empty string if the middleware did not run.
func SessionID(c *fiber.Ctx) string {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}

	sid, _ := claims["sid"].(string)

	return sid
}
