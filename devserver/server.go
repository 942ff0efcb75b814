package devserver

import (
	"context"
	"errors"
	"time"

	"zaivio-client/middleware"
	"zaivio-client/models"
	"zaivio-client/seeds"
	"zaivio-client/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	refreshCookieName = "refresh_token"
)

type Config struct {
	Maker        token.Maker
	Logger       *zap.Logger
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	AllowOrigins string
	Seed         seeds.Options
}

// Server is an in-memory stand-in for the Zaivio backend.
type Server struct {
	app        *fiber.App
	store      *Store
	maker      token.Maker
	logger     *zap.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Server, error) {
	if cfg.Maker == nil {
		return nil, errors.New("token maker is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	s := &Server{
		store:      NewStore(),
		maker:      cfg.Maker,
		logger:     cfg.Logger,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
	if err := seeds.SeedDevData(s.store, cfg.Seed, cfg.Logger); err != nil {
		return nil, err
	}

	s.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	middleware.InitCors(s.app, cfg.AllowOrigins)
	s.routes(&middleware.AppContext{PasetoMaker: cfg.Maker, Logger: cfg.Logger})
	return s, nil
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Store() *Store {
	return s.store
}

// Listen serves on addr until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Development backend listening", zap.String("addr", addr))
		errc <- s.app.Listen(addr)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}

func (s *Server) routes(appCtx *middleware.AppContext) {
	protected := middleware.ProtectedRoute(appCtx)
	adminOnly := middleware.AdminOnly(s.isAdmin)

	auth := s.app.Group("/auth")
	auth.Post("/login", s.login)
	auth.Post("/signup", s.signup)
	auth.Post("/logout", s.logout)
	auth.Post("/token/refresh", s.refresh)
	auth.Post("/forgot-password", s.forgotPassword)
	auth.Post("/reset-password", s.resetPassword)

	users := s.app.Group("/users", protected)
	users.Get("/get", s.currentUser)
	users.Patch("/update", s.updateUser)
	users.Get("/all", adminOnly, s.allUsers)
	users.Post("/bulk/create", adminOnly, s.bulkCreateUsers)
	users.Patch("/suspend/:id", adminOnly, s.suspendUser)

	points := s.app.Group("/points", protected)
	points.Get("/get", s.getPoints)
	points.Get("/redeeme", s.redeemPoints)

	activity := s.app.Group("/activity", protected)
	activity.Get("/all", s.activities(false))
	activity.Get("/all_reward", s.activities(true))

	wallet := s.app.Group("/wallet", protected)
	wallet.Get("/get_wallet", s.getWallet)
	wallet.Post("/create_wallet", s.createWallet)
	wallet.Put("/update_wallet", s.updateWallet)

	nodes := s.app.Group("/admin/nodes", protected, adminOnly)
	nodes.Get("/all", s.allNodes)
	nodes.Post("/create", s.createNode)
	nodes.Patch("/update/:id", s.updateNode)

	transactions := s.app.Group("/transaction", protected)
	transactions.Get("/all", s.myTransactions)
	transactions.Get("/admin/all", adminOnly, s.allTransactions)
	transactions.Patch("/admin/approve", adminOnly, s.approveTransactions)
}

func (s *Server) isAdmin(subject token.Subject) bool {
	user, err := s.store.User(subject.UserID)
	return err == nil && user.Role == models.AdminRole
}
