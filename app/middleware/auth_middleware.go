// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/referralpro/funnel/app/dto"
	"github.com/referralpro/funnel/app/services"
)

// AuthMiddleware handles token handling for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// SignupAuthenticate validates the signup session token issued by the start
// endpoint and stores the session id for the wizard handlers.
func (m *AuthMiddleware) SignupAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok, resp := bearerToken(c)
		if !ok {
			return resp
		}

		claims, err := m.tokenService.ValidateSignupToken(token)
		if err != nil {
			var errorCode string
			var message string

			if errors.Is(err, services.ErrTokenExpired) {
				errorCode = "TOKEN_EXPIRED"
				message = "Signup session token has expired"
			} else if errors.Is(err, services.ErrTokenRevoked) {
				errorCode = "TOKEN_REVOKED"
				message = "Signup session token has been revoked"
			} else {
				errorCode = "TOKEN_INVALID"
				message = "Invalid signup session token"
			}

			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: message,
				Error: dto.ErrorDetail{
					Code: errorCode,
				},
			})
		}

		// Store session information for downstream handlers
		c.Locals("session_id", claims.SessionID)
		c.Locals("token_id", claims.TokenID)
		c.Locals("signup_token", token)

		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// DashboardPassthrough extracts the bearer token without validating it. The
// product API owns dashboard authentication; an absent token is allowed and
// simply yields the placeholder datasets downstream.
func (m *AuthMiddleware) DashboardPassthrough() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			if token := strings.TrimPrefix(authHeader, "Bearer "); token != "" {
				c.Locals("access_token", token)
			}
		}

		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// bearerToken extracts the bearer token. When ok is false the 401 response
// has already been written and its write result must be returned.
func bearerToken(c fiber.Ctx) (string, bool, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false, c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Authorization header is required",
			Error: dto.ErrorDetail{
				Code: "MISSING_AUTHORIZATION_HEADER",
			},
		})
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false, c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Invalid authorization header format. Expected 'Bearer <token>'",
			Error: dto.ErrorDetail{
				Code: "INVALID_AUTHORIZATION_FORMAT",
			},
		})
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", false, c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Access token is required",
			Error: dto.ErrorDetail{
				Code: "MISSING_ACCESS_TOKEN",
			},
		})
	}

	return token, true, nil
}
