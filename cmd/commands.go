package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"zaivio-client/apiclient"
	"zaivio-client/devserver"
	importsvc "zaivio-client/imports/services"
	"zaivio-client/imports/tasks"
	"zaivio-client/models"
	nodesvc "zaivio-client/nodes/services"
	rewardsvc "zaivio-client/rewards/services"
	"zaivio-client/seeds"
	"zaivio-client/token"
	txsvc "zaivio-client/transactions/services"
	usersvc "zaivio-client/users/services"
	"zaivio-client/utils"
	walletsvc "zaivio-client/wallet/services"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var errUsage = errors.New("invalid usage")

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, usage)
		return errUsage
	}

	commands := map[string]func(context.Context, []string) error{
		"login":        a.login,
		"logout":       a.logout,
		"signup":       a.signup,
		"whoami":       a.whoami,
		"points":       a.points,
		"redeem":       a.redeem,
		"activity":     a.activity,
		"wallet":       a.wallet,
		"nodes":        a.nodes,
		"users":        a.users,
		"transactions": a.transactions,
		"approve":      a.approve,
		"import":       a.importFile,
		"worker":       a.worker,
		"devserver":    a.devserver,
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprint(a.stderr, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	return cmd(ctx, args[1:])
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("ZAIVIO_PASSWORD"), "account password (or ZAIVIO_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("%w: login needs -email and -password", errUsage)
	}

	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	if _, err := usersvc.NewAuthService(gw, a.logger).Login(ctx, models.Credentials{Email: *email, Password: *password}); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Logged in as", *email)
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	if err := usersvc.NewAuthService(gw, a.logger).Logout(ctx); err != nil {
		a.logger.Warn("Logout request failed, local session cleared", zap.Error(err))
	}
	fmt.Fprintln(a.stdout, "Logged out")
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := a.flags("signup")
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email")
	password := fs.String("password", os.Getenv("ZAIVIO_PASSWORD"), "password (or ZAIVIO_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	user, err := usersvc.NewAuthService(gw, a.logger).Signup(ctx, models.Credentials{Username: *username, Email: *email, Password: *password})
	if err != nil {
		return err
	}
	return a.print(user)
}

func (a *app) whoami(ctx context.Context, _ []string) error {
	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	user, err := usersvc.NewUserService(gw).Current(ctx)
	if err != nil {
		return err
	}
	return a.print(user)
}

func (a *app) points(ctx context.Context, _ []string) error {
	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	points, err := rewardsvc.NewPointsService(gw).GetPoints(ctx)
	if err != nil {
		return err
	}
	return a.print(points)
}

func (a *app) redeem(ctx context.Context, _ []string) error {
	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	result, err := rewardsvc.NewPointsService(gw).Redeem(ctx)
	if err != nil {
		return err
	}
	return a.print(result)
}

func (a *app) activity(ctx context.Context, args []string) error {
	fs := a.flags("activity")
	rewardsOnly := fs.Bool("rewards", false, "only list rewards")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	svc := rewardsvc.NewActivityService(gw)
	var list []models.Activity
	if *rewardsOnly {
		list, err = svc.Rewards(ctx)
	} else {
		list, err = svc.Activities(ctx)
	}
	if err != nil {
		return err
	}
	return a.print(list)
}

func (a *app) wallet(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: wallet get|create|update ADDR", errUsage)
	}
	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	svc := walletsvc.NewWalletService(gw)

	var w *models.Wallet
	switch args[0] {
	case "get":
		w, err = svc.Get(ctx)
	case "create":
		w, err = svc.Create(ctx)
	case "update":
		if len(args) < 2 {
			return fmt.Errorf("%w: wallet update ADDR", errUsage)
		}
		w, err = svc.Update(ctx, args[1])
	default:
		return fmt.Errorf("%w: unknown wallet action %q", errUsage, args[0])
	}
	if err != nil {
		return err
	}
	return a.print(w)
}

func (a *app) nodes(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: nodes list|create|update ID", errUsage)
	}
	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	svc := nodesvc.NewNodeService(gw)

	if args[0] == "list" {
		list, err := svc.All(ctx)
		if err != nil {
			return err
		}
		return a.print(list)
	}

	fs := a.flags("nodes " + args[0])
	status := fs.String("status", string(models.NodeActive), "active, reserved or inactive")
	total := fs.Int("total", 0, "total nodes")
	reward := fs.String("reward", "0", "daily reward per node")

	var nodeID int
	rest := args[1:]
	if args[0] == "update" {
		if len(rest) == 0 {
			return fmt.Errorf("%w: nodes update ID", errUsage)
		}
		if nodeID, err = strconv.Atoi(rest[0]); err != nil {
			return fmt.Errorf("invalid node id %q", rest[0])
		}
		rest = rest[1:]
	} else if args[0] != "create" {
		return fmt.Errorf("%w: unknown nodes action %q", errUsage, args[0])
	}
	if err := fs.Parse(rest); err != nil {
		return err
	}

	dailyReward, err := decimal.NewFromString(*reward)
	if err != nil {
		return fmt.Errorf("invalid reward %q: %w", *reward, err)
	}
	input := models.NodeInput{Status: models.NodeStatus(*status), TotalNodes: *total, DailyReward: dailyReward}

	var node *models.Node
	if nodeID == 0 {
		node, err = svc.Create(ctx, input)
	} else {
		node, err = svc.Update(ctx, nodeID, input)
	}
	if err != nil {
		return err
	}
	return a.print(node)
}

func (a *app) users(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: users list|suspend ID", errUsage)
	}
	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	svc := usersvc.NewUserService(gw)

	switch args[0] {
	case "list":
		list, err := svc.All(ctx)
		if err != nil {
			return err
		}
		return a.print(list)
	case "suspend":
		if len(args) < 2 {
			return fmt.Errorf("%w: users suspend ID", errUsage)
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[1])
		}
		if err := svc.Suspend(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "User %d suspended\n", id)
		return nil
	}
	return fmt.Errorf("%w: unknown users action %q", errUsage, args[0])
}

func (a *app) transactions(ctx context.Context, args []string) error {
	fs := a.flags("transactions")
	admin := fs.Bool("admin", false, "list every user's transactions")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	svc := txsvc.NewTransactionService(gw)
	if *admin {
		list, err := svc.All(ctx)
		if err != nil {
			return err
		}
		return a.print(list)
	}
	list, err := svc.Mine(ctx)
	if err != nil {
		return err
	}
	return a.print(list)
}

func (a *app) approve(ctx context.Context, args []string) error {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid transaction id %q", arg)
		}
		ids = append(ids, id)
	}

	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	if err := txsvc.NewTransactionService(gw).Approve(ctx, ids); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Approved %d transactions\n", len(ids))
	return nil
}

func (a *app) importFile(ctx context.Context, args []string) error {
	fs := a.flags("import")
	async := fs.Bool("async", false, "queue the import for the worker")
	report := fs.Bool("report", false, "write an xlsx report of errors and failed records")
	notify := fs.String("notify", "", "email the result to this address (worker only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: import FILE", errUsage)
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return err
	}

	if *async {
		client := asynq.NewClient(asynq.RedisClientOpt{Addr: a.settings.RedisAddress})
		defer client.Close()
		info, err := tasks.Enqueue(ctx, client, tasks.UserImportPayload{Path: path, NotifyEmail: *notify})
		if err != nil {
			return fmt.Errorf("enqueue import: %w", err)
		}
		fmt.Fprintf(a.stdout, "Import queued as task %s\n", info.ID)
		return nil
	}

	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	outcome, err := importsvc.NewPipeline(usersvc.NewUserService(gw), a.logger).ProcessFile(ctx, path)
	if err != nil {
		return err
	}

	if len(outcome.ValidationErrors) > 0 {
		fmt.Fprintf(a.stdout, "Nothing was imported: %d validation errors\n", len(outcome.ValidationErrors))
		for _, e := range outcome.ValidationErrors {
			fmt.Fprintf(a.stdout, "  row %d, %s: %s\n", e.Row, e.Field, e.Message)
		}
	} else {
		r := outcome.Result
		fmt.Fprintf(a.stdout, "%d users created, %d failed\n", len(r.Success), len(r.Failed))
		for _, f := range r.Failed {
			fmt.Fprintf(a.stdout, "  %s: %s\n", f.Data.Username, f.Error)
		}
	}

	if *report && outcome.NeedsReport() {
		reportPath, err := importsvc.WriteReport(a.settings.ReportDir, outcome)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "Report written to", reportPath)
	}
	if len(outcome.ValidationErrors) > 0 {
		return errors.New("import file failed validation")
	}
	return nil
}

// worker processes queued imports and cleans up old reports until interrupted.
func (a *app) worker(ctx context.Context, _ []string) error {
	gw, err := a.api(ctx)
	if err != nil {
		return err
	}
	s := a.settings

	pipeline := importsvc.NewPipeline(usersvc.NewUserService(gw), a.logger)
	mailer := utils.NewMailer(s.SMTPHost, s.SMTPPort, s.SMTPUser, s.SMTPPassword, s.SMTPFrom, a.logger)
	handler := tasks.NewHandler(pipeline, mailer, s.ReportDir, a.logger)

	scheduler := cron.New()
	if _, err := utils.ScheduleReportCleanup(scheduler, s.ReportDir, s.ReportTTL, a.logger); err != nil {
		return fmt.Errorf("schedule report cleanup: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: s.RedisAddress}, asynq.Config{
		Concurrency: 2,
		Logger:      a.logger.Sugar(),
	})
	mux := asynq.NewServeMux()
	handler.Register(mux)

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	a.logger.Info("Import worker started", zap.String("redis", s.RedisAddress))
	fmt.Fprintln(a.stdout, "Worker running, press Ctrl+C to stop")

	<-ctx.Done()
	srv.Shutdown()
	return nil
}

func (a *app) devserver(ctx context.Context, args []string) error {
	fs := a.flags("devserver")
	demo := fs.Bool("demo", true, "seed a demo member with rewards")
	if err := fs.Parse(args); err != nil {
		return err
	}

	maker, err := token.NewPasetoMaker(a.settings.TokenSymmetricKey)
	if err != nil {
		return fmt.Errorf("TOKEN_SYMMETRIC_KEY: %w", err)
	}
	srv, err := devserver.New(devserver.Config{
		Maker:  maker,
		Logger: a.logger,
		Seed:   seeds.Options{DemoUsers: *demo},
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Development backend on :%s (admin %s)\n", a.settings.Port, seeds.DefaultAdminEmail)
	return srv.Listen(ctx, ":"+a.settings.Port)
}

var _ apiclient.Notifier = cliNotifier{}
