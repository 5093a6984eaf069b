package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shyamjith/shyamjith-dev/internal/config"
	"github.com/shyamjith/shyamjith-dev/internal/contact"
)

func executeRoot(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "absent.yaml")))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestSendDeliversThroughLogProvider(t *testing.T) {
	t.Setenv("PORTFOLIO_CONTACT__PROVIDER", contact.ProviderLog)
	t.Setenv("PORTFOLIO_LOG__LEVEL", "error")

	out, err := executeRoot(t, context.Background(), "send",
		"--name", "Ada Lovelace",
		"--email", "ada@example.com",
		"--subject", "Engine",
		"--message", "Shall we build something?",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Message Sent!")
}

func TestSendRejectsInvalidEmail(t *testing.T) {
	t.Setenv("PORTFOLIO_CONTACT__PROVIDER", contact.ProviderLog)
	t.Setenv("PORTFOLIO_LOG__LEVEL", "error")

	out, err := executeRoot(t, context.Background(), "send",
		"--name", "Ada Lovelace",
		"--email", "ada-at-example",
		"--subject", "Engine",
		"--message", "Shall we build something?",
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, contact.ErrInvalidForm)
	assert.NotContains(t, out, "Message Sent!")
}

func TestSendRejectsUnknownProvider(t *testing.T) {
	t.Setenv("PORTFOLIO_CONTACT__PROVIDER", "pigeon")

	_, err := executeRoot(t, context.Background(), "send",
		"--name", "Ada Lovelace",
		"--email", "ada@example.com",
		"--subject", "Engine",
		"--message", "Shall we build something?",
	)
	assert.ErrorIs(t, err, contact.ErrUnknownProvider)
}

func TestServeAnswersThenShutsDown(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.Server.ShutdownTimeout = 2 * time.Second

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, zap.NewNop(), ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}

	_, err = http.Get("http://" + addr + "/healthz")
	assert.Error(t, err)
}

func TestRunServeStopsOnCancelledContext(t *testing.T) {
	t.Setenv("PORTFOLIO_SERVER__PORT", "0")
	t.Setenv("PORTFOLIO_SERVER__MODE", "test")
	t.Setenv("PORTFOLIO_LOG__LEVEL", "error")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executeRoot(t, ctx, "serve")
	assert.NoError(t, err)
}
