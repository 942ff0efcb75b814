package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"

	"zaivio-client/apiclient"
	"zaivio-client/config"
	"zaivio-client/token"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const usage = `usage: zaivio <command> [flags] [args]

commands:
  login -email E -password P       log in and store the session
  logout                           end the session
  signup -username U -email E -password P
  whoami                           show the current user
  points                           show point balance
  redeem                           redeem available points
  activity [-rewards]              list activity
  wallet get|create|update ADDR    manage the wallet
  nodes list|create|update ID      manage node tiers (admin)
  users list|suspend ID            manage users (admin)
  transactions [-admin]            list redemption transactions
  approve ID...                    approve transactions (admin)
  import [-async] [-report] [-notify EMAIL] FILE
  worker                           run the import worker and report cleanup
  devserver                        run the in-memory development backend
`

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := config.InitLogger(settings.LogDir, settings.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer config.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &app{settings: settings, logger: config.Logger, stdout: os.Stdout, stderr: os.Stderr}
	defer cli.close()

	if err := cli.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		var apiErr *apiclient.ApiError
		// The notifier already printed API failures.
		if !errors.As(err, &apiErr) && !errors.Is(err, apiclient.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		config.Logger.Error("Command failed", zap.Strings("args", os.Args[1:]), zap.Error(err))
		cli.close()
		stop()
		config.SyncLogger()
		os.Exit(1)
	}
}

type app struct {
	settings *config.Settings
	logger   *zap.Logger
	stdout   io.Writer
	stderr   io.Writer

	gateway *apiclient.Gateway
	redis   *redis.Client
}

// cliNotifier prints request failures for the person at the terminal.
type cliNotifier struct {
	w io.Writer
}

func (n cliNotifier) Notify(category apiclient.Category, message string) {
	fmt.Fprintf(n.w, "%s: %s\n", category, message)
}

func (n cliNotifier) SessionExpired() {
	fmt.Fprintln(n.w, "Run `zaivio login` to start a new session.")
}

func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client, err := config.InitRedisClient(ctx, a.settings.RedisAddress)
	if err != nil {
		return nil, err
	}
	a.redis = client
	return client, nil
}

func (a *app) credentialStore(ctx context.Context) (token.Store, error) {
	switch a.settings.TokenStore {
	case config.TokenStoreMemory:
		return token.NewMemoryStore(), nil
	case config.TokenStoreRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return token.NewRedisStore(client, token.DefaultRedisKey, 0), nil
	default:
		return token.NewFileStore(a.settings.CredentialFile()), nil
	}
}

// api returns the shared gateway, building it on first use.
func (a *app) api(ctx context.Context) (*apiclient.Gateway, error) {
	if a.gateway != nil {
		return a.gateway, nil
	}

	store, err := a.credentialStore(ctx)
	if err != nil {
		return nil, err
	}

	var jar http.CookieJar
	if a.settings.TokenStore == config.TokenStoreMemory {
		jar, err = cookiejar.New(nil)
	} else {
		jar, err = token.NewFileJar(a.settings.CookieFile())
	}
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	gw, err := apiclient.New(apiclient.Config{
		BaseURL:        a.settings.APIBaseURL,
		Store:          store,
		Jar:            jar,
		Timeout:        a.settings.HTTPTimeout,
		RefreshTimeout: a.settings.RefreshTimeout,
		RateLimit:      a.settings.RateLimit,
		Notifier:       cliNotifier{w: a.stderr},
		Logger:         a.logger,
	})
	if err != nil {
		return nil, err
	}
	a.gateway = gw
	return gw, nil
}

func (a *app) close() {
	if a.gateway != nil {
		_ = a.gateway.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
