package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zaivio-client/config"
	"zaivio-client/devserver"
	"zaivio-client/seeds"
	"zaivio-client/token"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, baseURL string) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{
		settings: &config.Settings{
			APIBaseURL: baseURL,
			TokenStore: config.TokenStoreMemory,
			Home:       t.TempDir(),
			ReportDir:  t.TempDir(),
		},
		logger: zap.NewNop(),
		stdout: &stdout,
		stderr: &stderr,
	}
	t.Cleanup(a.close)
	return a, &stdout, &stderr
}

func TestRunRejectsUnknownCommands(t *testing.T) {
	a, _, stderr := newTestApp(t, "http://localhost:1")

	if err := a.run(context.Background(), nil); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(stderr.String(), "usage: zaivio") {
		t.Errorf("usage not printed: %q", stderr.String())
	}
	if err := a.run(context.Background(), []string{"frobnicate"}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestApproveRejectsBadIDs(t *testing.T) {
	a, _, _ := newTestApp(t, "http://localhost:1")
	err := a.run(context.Background(), []string{"approve", "3", "x"})
	if err == nil || !strings.Contains(err.Error(), `"x"`) {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestLoginAndImportAgainstDevServer(t *testing.T) {
	maker, err := token.NewPasetoMaker("12345678901234567890123456789012")
	if err != nil {
		t.Fatal(err)
	}
	srv, err := devserver.New(devserver.Config{Maker: maker, Logger: zap.NewNop()})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(adaptor.FiberApp(srv.App()))
	defer ts.Close()

	a, stdout, _ := newTestApp(t, ts.URL)
	ctx := context.Background()

	if err := a.run(ctx, []string{"login", "-email", seeds.DefaultAdminEmail, "-password", seeds.DefaultAdminPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(stdout.String(), "Logged in as "+seeds.DefaultAdminEmail) {
		t.Errorf("unexpected output %q", stdout.String())
	}

	file := filepath.Join(t.TempDir(), "users.csv")
	if err := os.WriteFile(file, []byte("Username,Email,Nodes\ncli_one,cli_one@example.com,2\ncli_two,,0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout.Reset()
	if err := a.run(ctx, []string{"import", file}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(stdout.String(), "2 users created, 0 failed") {
		t.Errorf("unexpected output %q", stdout.String())
	}

	bad := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(bad, []byte("Username,Nodes\n,abc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout.Reset()
	if err := a.run(ctx, []string{"import", "-report", bad}); err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"row 1, username: Username is required", "Report written to"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("output %q missing %q", stdout.String(), want)
		}
	}
}
