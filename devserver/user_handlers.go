package devserver

import (
	"errors"
	"fmt"
	"strings"

	"zaivio-client/middleware"
	"zaivio-client/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type createdUser struct {
	Email  string `json:"email"`
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
}

type rejectedUser struct {
	Username string `json:"username"`
	Error    string `json:"error"`
	Code     int    `json:"code"`
}

func (s *Server) currentUser(c *fiber.Ctx) error {
	user, err := s.store.User(middleware.Payload(c).Subject.UserID)
	if err != nil {
		return failure(c, fiber.StatusNotFound, "User not found", err.Error())
	}
	return success(c, fiber.StatusOK, "User retrieved", user)
}

func (s *Server) allUsers(c *fiber.Ctx) error {
	return success(c, fiber.StatusOK, "User retrieved", s.store.Users())
}

// bulkCreateUsers creates each record on its own and reports a per-record
// partition with 207 Multi-Status.
func (s *Server) bulkCreateUsers(c *fiber.Ctx) error {
	var records []models.ImportRecord
	if err := c.BodyParser(&records); err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid request", "Expected an array of users.")
	}

	created := []createdUser{}
	rejected := []rejectedUser{}
	for _, record := range records {
		if strings.TrimSpace(record.Username) == "" {
			rejected = append(rejected, rejectedUser{Username: record.Username, Error: "Username is required", Code: fiber.StatusBadRequest})
			continue
		}

		user, err := s.store.CreateUser(models.User{
			Username:         record.Username,
			Email:            record.EmailValue(),
			AssignedNodes:    record.AssignedNodes,
			ImportStatus:     record.ImportStatus,
			Status:           record.Status,
			IsFirstTimeLogin: true,
		}, initialPassword(record.Username))
		if err != nil {
			code := fiber.StatusInternalServerError
			if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrUsernameExists) {
				code = fiber.StatusBadRequest
			}
			rejected = append(rejected, rejectedUser{Username: record.Username, Error: capitalize(err.Error()), Code: code})
			continue
		}
		created = append(created, createdUser{Email: user.Email, UserID: user.UserID, Name: user.Username})
	}

	s.logger.Info("Bulk user creation completed",
		zap.Int("total", len(records)),
		zap.Int("succeeded", len(created)),
		zap.Int("failed", len(rejected)),
	)
	return success(c, fiber.StatusMultiStatus, "Bulk user creation completed", fiber.Map{
		"success": created,
		"failed":  rejected,
		"summary": models.ImportSummary{Total: len(records), Succeeded: len(created), Failed: len(rejected)},
	})
}

func (s *Server) updateUser(c *fiber.Ctx) error {
	var req struct {
		UserID           int     `json:"user_id"`
		Email            *string `json:"email"`
		Nodes            *int    `json:"nodes"`
		IsFirstTimeLogin *bool   `json:"is_first_time_login"`
		ImportStatus     *string `json:"import_status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid request", "Invalid request format.")
	}

	subject := middleware.Payload(c).Subject
	target := subject.UserID
	if req.UserID != 0 && req.UserID != subject.UserID {
		if !s.isAdmin(subject) {
			return failure(c, fiber.StatusForbidden, "You are not authorized to update this user", "admin role required")
		}
		target = req.UserID
	}

	user, err := s.store.UpdateUser(target, func(u *models.User) {
		if req.Email != nil {
			u.Email = *req.Email
		}
		if req.Nodes != nil {
			u.AssignedNodes = *req.Nodes
		}
		if req.IsFirstTimeLogin != nil {
			u.IsFirstTimeLogin = *req.IsFirstTimeLogin
		}
		if req.ImportStatus != nil && *req.ImportStatus != "" {
			u.ImportStatus = *req.ImportStatus
		}
	})
	if err != nil {
		return failure(c, fiber.StatusNotFound, "User not found", err.Error())
	}
	return success(c, fiber.StatusOK, "User updated", user)
}

func (s *Server) suspendUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return failure(c, fiber.StatusBadRequest, "Invalid user id", c.Params("id"))
	}
	user, err := s.store.UpdateUser(id, func(u *models.User) { u.Status = models.StatusSuspended })
	if err != nil {
		return failure(c, fiber.StatusNotFound, "User not found", err.Error())
	}
	s.store.RevokeRefreshTokens(id)
	return success(c, fiber.StatusOK, "User suspended", user)
}

// initialPassword is the password given to imported accounts until they reset it.
func initialPassword(username string) string {
	prefix := username
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("%sXrbnh@123", prefix)
}
