package devserver

import (
	"errors"
	"strings"

	"zaivio-client/middleware"
	"zaivio-client/models"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) getPoints(c *fiber.Ctx) error {
	return success(c, fiber.StatusOK, "Points retrieved", s.store.Points(middleware.Payload(c).Subject.UserID))
}

func (s *Server) redeemPoints(c *fiber.Ctx) error {
	result, err := s.store.Redeem(middleware.Payload(c).Subject.UserID)
	if err != nil {
		if errors.Is(err, ErrNothingToRedeem) {
			return failure(c, fiber.StatusBadRequest, capitalize(err.Error()), err.Error())
		}
		return failure(c, fiber.StatusInternalServerError, "Something went wrong", err.Error())
	}
	return success(c, fiber.StatusOK, "Points redeemed", result)
}

func (s *Server) activities(rewardsOnly bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return success(c, fiber.StatusOK, "Activity retrieved", s.store.Activities(middleware.Payload(c).Subject.UserID, rewardsOnly))
	}
}

func (s *Server) getWallet(c *fiber.Ctx) error {
	wallet, ok := s.store.Wallet(middleware.Payload(c).Subject.UserID)
	if !ok {
		return failure(c, fiber.StatusNotFound, "Wallet not found", "no wallet for this user")
	}
	return success(c, fiber.StatusOK, "Wallet retrieved", wallet)
}

func (s *Server) createWallet(c *fiber.Ctx) error {
	userID := middleware.Payload(c).Subject.UserID
	if _, ok := s.store.Wallet(userID); ok {
		return failure(c, fiber.StatusBadRequest, "Wallet already exists", "a user has at most one wallet")
	}
	return success(c, fiber.StatusCreated, "Wallet created", s.store.SaveWallet(userID, ""))
}

func (s *Server) updateWallet(c *fiber.Ctx) error {
	// Query values alias fiber's request buffer; the stored address needs its own copy.
	address := strings.Clone(strings.TrimSpace(c.Query("wallet_address")))
	if address == "" {
		return failure(c, fiber.StatusBadRequest, "Wallet address is required", "missing wallet_address")
	}
	return success(c, fiber.StatusOK, "Wallet updated", s.store.SaveWallet(middleware.Payload(c).Subject.UserID, address))
}

func (s *Server) allNodes(c *fiber.Ctx) error {
	return success(c, fiber.StatusOK, "Nodes retrieved", s.store.Nodes())
}

func (s *Server) createNode(c *fiber.Ctx) error {
	input, err := parseNodeInput(c)
	if err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid node", err.Error())
	}
	node, _ := s.store.SaveNode(0, input)
	return success(c, fiber.StatusCreated, "Node created", node)
}

func (s *Server) updateNode(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return failure(c, fiber.StatusBadRequest, "Invalid node id", c.Params("id"))
	}
	input, err := parseNodeInput(c)
	if err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid node", err.Error())
	}
	node, ok := s.store.SaveNode(id, input)
	if !ok {
		return failure(c, fiber.StatusNotFound, "Node not found", c.Params("id"))
	}
	return success(c, fiber.StatusOK, "Node updated", node)
}

func parseNodeInput(c *fiber.Ctx) (models.NodeInput, error) {
	var input models.NodeInput
	if err := c.BodyParser(&input); err != nil {
		return input, err
	}
	if !input.Status.Valid() {
		return input, errors.New("status must be active, reserved or inactive")
	}
	if input.TotalNodes < 0 || input.DailyReward.IsNegative() {
		return input, errors.New("node counts and rewards cannot be negative")
	}
	return input, nil
}

func (s *Server) myTransactions(c *fiber.Ctx) error {
	return success(c, fiber.StatusOK, "Transactions retrieved", s.store.Transactions(middleware.Payload(c).Subject.UserID))
}

func (s *Server) allTransactions(c *fiber.Ctx) error {
	return success(c, fiber.StatusOK, "Transactions retrieved", s.store.AllTransactions())
}

func (s *Server) approveTransactions(c *fiber.Ctx) error {
	var req models.ApproveTransactionsRequest
	if err := c.BodyParser(&req); err != nil || len(req.TransactionIDs) == 0 {
		return failure(c, fiber.StatusBadRequest, "Transaction ids are required", "Invalid request format.")
	}
	approved := s.store.ApproveTransactions(req.TransactionIDs)
	return success(c, fiber.StatusOK, "Transactions approved", fiber.Map{"approved": approved})
}
