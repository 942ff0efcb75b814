package devserver_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"zaivio-client/apiclient"
	"zaivio-client/devserver"
	importsvc "zaivio-client/imports/services"
	"zaivio-client/models"
	"zaivio-client/seeds"
	"zaivio-client/token"
	usersvc "zaivio-client/users/services"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

func TestClientAgainstDevelopmentBackend(t *testing.T) {
	maker, err := token.NewPasetoMaker("12345678901234567890123456789012")
	if err != nil {
		t.Fatal(err)
	}
	srv, err := devserver.New(devserver.Config{Maker: maker, Seed: seeds.Options{DemoUsers: true}})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(adaptor.FiberApp(srv.App()))
	defer ts.Close()

	gw, err := apiclient.New(apiclient.Config{BaseURL: ts.URL})
	if err != nil {
		t.Fatal(err)
	}
	defer gw.Close()

	ctx := context.Background()
	auth := usersvc.NewAuthService(gw, nil)
	users := usersvc.NewUserService(gw)

	if _, err := auth.Login(ctx, models.Credentials{Email: seeds.DefaultAdminEmail, Password: seeds.DefaultAdminPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}

	// A credential the server no longer accepts is renewed through the refresh cookie.
	if err := gw.SetCredential(ctx, "stale"); err != nil {
		t.Fatal(err)
	}
	me, err := users.Current(ctx)
	if err != nil {
		t.Fatalf("current user after renewal: %v", err)
	}
	if !me.IsAdmin() {
		t.Errorf("current user = %+v", me)
	}
	if credential, _ := gw.Credential(ctx); credential == "stale" || credential == "" {
		t.Errorf("credential not renewed: %q", credential)
	}

	csv := "Username,Email Address,Node Count\nnewbie,newbie@zaiv.io,2\ndemo2,demo@zaiv.io,1\n"
	outcome, err := importsvc.NewPipeline(users, nil).Process(ctx, "users.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	result := outcome.Result
	if len(result.Success) != 1 || result.Success[0].Username != "newbie" || result.Success[0].AssignedNodes != 2 {
		t.Errorf("success = %+v", result.Success)
	}
	if len(result.Failed) != 1 || result.Failed[0].Data.Username != "demo2" || result.Failed[0].Error != "Email already exists" {
		t.Errorf("failed = %+v", result.Failed)
	}

	if err := auth.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := users.Current(ctx); !errors.Is(err, apiclient.ErrSessionExpired) {
		t.Errorf("after logout: expected ErrSessionExpired, got %v", err)
	}
}
