package seeds

import (
	"errors"
	"fmt"

	"zaivio-client/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Target is the data store seeding writes into.
type Target interface {
	CreateUser(user models.User, password string) (models.User, error)
	Reward(userID int, points int64, description string)
	SaveWallet(userID int, address string) models.Wallet
	SaveNode(nodeID int, input models.NodeInput) (models.Node, bool)
}

// Options names the initial admin account.
type Options struct {
	AdminEmail    string
	AdminPassword string
	DemoUsers     bool
}

const (
	DefaultAdminEmail    = "admin@zaiv.io"
	DefaultAdminPassword = "admin123"
)

// SeedDevData creates the admin account, the node tiers and, optionally, a
// demo member with some reward history.
func SeedDevData(target Target, opts Options, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.AdminEmail == "" {
		opts.AdminEmail = DefaultAdminEmail
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = DefaultAdminPassword
	}
	logger.Info("Starting development data seeding...")

	admin, err := target.CreateUser(models.User{
		Username: "admin",
		Email:    opts.AdminEmail,
		Role:     models.AdminRole,
	}, opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	logger.Info("Seeded admin user", zap.String("email", admin.Email))

	nodeTiers := []models.NodeInput{
		{Status: models.NodeActive, TotalNodes: 100, DailyReward: decimal.RequireFromString("2.5")},
		{Status: models.NodeReserved, TotalNodes: 20, DailyReward: decimal.RequireFromString("1.25")},
	}
	for _, tier := range nodeTiers {
		if _, ok := target.SaveNode(0, tier); !ok {
			return errors.New("failed to seed node tier")
		}
	}

	if !opts.DemoUsers {
		return nil
	}

	demo, err := target.CreateUser(models.User{
		Username:         "demo",
		Email:            "demo@zaiv.io",
		AssignedNodes:    3,
		IsFirstTimeLogin: true,
		ImportStatus:     models.ImportStatusCompleted,
	}, "Password123!")
	if err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}
	target.SaveWallet(demo.UserID, "0x0000000000000000000000000000000000de0001")
	for day := 1; day <= 3; day++ {
		target.Reward(demo.UserID, 150, fmt.Sprintf("Daily node reward, day %d", day))
	}
	logger.Info("Seeded demo user", zap.String("email", demo.Email))
	return nil
}
