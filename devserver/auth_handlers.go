package devserver

import (
	"errors"
	"time"

	"zaivio-client/models"
	"zaivio-client/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (s *Server) login(c *fiber.Ctx) error {
	var req models.Credentials
	if err := c.BodyParser(&req); err != nil {
		s.logger.Error("Error parsing login request body", zap.Error(err))
		return failure(c, fiber.StatusBadRequest, "Invalid request", "Invalid request format.")
	}

	user, ok := s.store.Authenticate(req.Email, req.Password)
	if !ok {
		s.logger.Warn("Login attempt failed", zap.String("email", req.Email))
		return failure(c, fiber.StatusUnauthorized, "Invalid email or password", "Authentication failed")
	}

	accessToken, err := s.issueTokens(c, user)
	if err != nil {
		s.logger.Error("Could not issue tokens", zap.Int("user_id", user.UserID), zap.Error(err))
		return failure(c, fiber.StatusInternalServerError, "Something went wrong", "An internal server error occurred.")
	}
	return success(c, fiber.StatusOK, "Login successful", models.LoginResult{AccessToken: accessToken, TokenType: "bearer"})
}

func (s *Server) signup(c *fiber.Ctx) error {
	var req models.Credentials
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" || req.Username == "" {
		return failure(c, fiber.StatusBadRequest, "Username, email and password are required", "Invalid request format.")
	}

	user, err := s.store.CreateUser(models.User{Username: req.Username, Email: req.Email, IsFirstTimeLogin: true}, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrUsernameExists) {
			return failure(c, fiber.StatusBadRequest, capitalize(err.Error()), err.Error())
		}
		return failure(c, fiber.StatusInternalServerError, "Something went wrong", err.Error())
	}
	return success(c, fiber.StatusCreated, "User created", user)
}

func (s *Server) logout(c *fiber.Ctx) error {
	if refreshToken := c.Cookies(refreshCookieName); refreshToken != "" {
		if userID, ok := s.store.ConsumeRefreshToken(refreshToken); ok {
			s.store.RevokeRefreshTokens(userID)
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Path:     "/",
	})
	return success(c, fiber.StatusOK, "Logged out", nil)
}

// refresh exchanges the refresh cookie for a new access token. Refresh tokens
// are single use; a new one replaces it in the cookie.
func (s *Server) refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(refreshCookieName)
	if refreshToken == "" {
		return failure(c, fiber.StatusUnauthorized, "Refresh token missing", "Authentication required")
	}

	payload, err := s.maker.VerifyToken(refreshToken)
	if err != nil || payload.Subject.Kind != token.RefreshKind {
		s.logger.Debug("Invalid refresh token", zap.Error(err))
		return failure(c, fiber.StatusUnauthorized, "Invalid refresh token", "Session expired or invalid. Please log in again.")
	}

	userID, ok := s.store.ConsumeRefreshToken(refreshToken)
	if !ok || userID != payload.Subject.UserID {
		s.logger.Warn("Refresh token not recognised", zap.String("payload_id", payload.ID.String()))
		return failure(c, fiber.StatusUnauthorized, "Invalid refresh token", "Session invalid. Please log in again.")
	}

	user, err := s.store.User(userID)
	if err != nil || user.Status == models.StatusSuspended {
		return failure(c, fiber.StatusUnauthorized, "Invalid refresh token", "Session invalid. Please log in again.")
	}

	accessToken, err := s.issueTokens(c, user)
	if err != nil {
		s.logger.Error("Could not issue tokens", zap.Int("user_id", userID), zap.Error(err))
		return failure(c, fiber.StatusInternalServerError, "Something went wrong", "An internal server error occurred.")
	}
	return success(c, fiber.StatusOK, "Token refreshed", models.LoginResult{AccessToken: accessToken, TokenType: "bearer"})
}

func (s *Server) forgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return failure(c, fiber.StatusBadRequest, "Email is required", "Invalid request format.")
	}
	// The response does not reveal whether the email is registered.
	s.logger.Info("Password reset requested", zap.String("email", req.Email))
	return success(c, fiber.StatusOK, "If the email exists, a reset link has been sent", nil)
}

func (s *Server) resetPassword(c *fiber.Ctx) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return failure(c, fiber.StatusBadRequest, "Token and new password are required", "Invalid request format.")
	}
	return failure(c, fiber.StatusBadRequest, "Invalid or expired reset token", "reset tokens are not issued by the development backend")
}

// issueTokens creates an access token and sets a fresh refresh cookie.
func (s *Server) issueTokens(c *fiber.Ctx, user models.User) (string, error) {
	accessToken, err := s.maker.CreateToken(token.Subject{UserID: user.UserID, Email: user.Email, Kind: token.AccessKind}, s.accessTTL)
	if err != nil {
		return "", err
	}
	refreshToken, err := s.maker.CreateToken(token.Subject{UserID: user.UserID, Email: user.Email, Kind: token.RefreshKind}, s.refreshTTL)
	if err != nil {
		return "", err
	}
	s.store.SaveRefreshToken(refreshToken, user.UserID)

	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Expires:  time.Now().Add(s.refreshTTL),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
	return accessToken, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
