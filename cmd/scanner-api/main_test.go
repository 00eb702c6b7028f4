package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/monument-scanner/app"
	"github.com/upb/monument-scanner/config"
	"github.com/upb/monument-scanner/routes"
	"github.com/upb/monument-scanner/services/guard"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
)

// executeCommand runs a fresh root command with args and returns its output
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestPolicyCommand(t *testing.T) {
	t.Setenv("GUARD_POLICY_FILE", "")

	t.Run("defaults", func(t *testing.T) {
		out, err := executeCommand(t, "policy")
		require.NoError(t, err)

		var policy guard.Policy
		require.NoError(t, yaml.Unmarshal([]byte(out), &policy))
		assert.Equal(t, guard.DefaultPolicy(), policy)
	})

	t.Run("file flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "guard.yaml")
		require.NoError(t, os.WriteFile(path, []byte("protected_default_path: /(tabs)/home\n"), 0o600))

		out, err := executeCommand(t, "policy", "--file", path)
		require.NoError(t, err)

		var policy guard.Policy
		require.NoError(t, yaml.Unmarshal([]byte(out), &policy))
		assert.Equal(t, "/(tabs)/home", policy.ProtectedDefaultPath)
		assert.Equal(t, guard.DefaultLoginPath, policy.LoginPath)
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "guard.yaml")
		require.NoError(t, os.WriteFile(path, []byte("protected_group: \"\"\n"), 0o600))

		_, err := executeCommand(t, "policy", "-f", path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := executeCommand(t, "policy", "--file", filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestVersionFlag(t *testing.T) {
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	cfg := &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ShutdownTimeout: 5 * time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret",
			LookupTimeout: time.Second,
		},
	}

	deps, err := app.NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	srv := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: routes.SetupRoutes(deps),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, deps) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeReturnsListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            busy.Addr().(*net.TCPAddr).Port,
			ShutdownTimeout: time.Second,
		},
		Auth: config.AuthConfig{JWTSecret: "test-secret", LookupTimeout: time.Second},
	}

	deps, err := app.NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	srv := &http.Server{Addr: cfg.Server.Address(), Handler: routes.SetupRoutes(deps)}

	err = serve(context.Background(), srv, deps)
	assert.Error(t, err)
}

func TestReplayCommand(t *testing.T) {
	input := strings.Join([]string{
		"# cold start",
		"loading /(tabs)/home",
		"unauthenticated /(tabs)/home",
		"unauthenticated /login",
		"authenticated /login",
		"authenticated /login",
		"authenticated /(tabs)",
		"authenticated /scan-result/scan_1_abc",
		"unauthenticated /scan-result/scan_1_abc",
	}, "\n")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs([]string{"replay"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "replace /login\nreplace /(tabs)\n", out.String())
}

func TestReplay_InvalidLine(t *testing.T) {
	var out bytes.Buffer
	err := replay(context.Background(), guard.DefaultPolicy(), strings.NewReader("signed-in /login\n"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
	assert.Empty(t, out.String())
}
