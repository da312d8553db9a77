package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/photoly-interactive/api"
	"github.com/wricardo/photoly-interactive/game/config"
	"github.com/wricardo/photoly-interactive/transport/mcp"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	expectedAppName := "Photoly Studio"
	if AppName != expectedAppName {
		t.Errorf("Expected app name %s, got %s", expectedAppName, AppName)
	}
}

func TestAppCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"serve", "mcp", "play", "version"} {
		if app.Command(name) == nil {
			t.Errorf("Expected command %q", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	if err := app.Run(context.Background(), []string{"photoly", "version"}); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), "Photoly Studio v"+Version) {
		t.Errorf("Unexpected version output: %q", out.String())
	}
}

// runWithSettings parses args with the global flags and returns the resulting settings
func runWithSettings(t *testing.T, args ...string) (*config.Settings, error) {
	t.Helper()
	var settings *config.Settings
	cmd := &cli.Command{
		Name:  "photoly",
		Flags: globalFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var err error
			settings, err = loadSettings(cmd)
			return err
		},
	}
	err := cmd.Run(context.Background(), append([]string{"photoly"}, args...))
	return settings, err
}

func TestLoadSettingsDefaults(t *testing.T) {
	settings, err := runWithSettings(t, "--settings", filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", settings.Port)
	}
	if settings.ConfigDir != "configs" {
		t.Errorf("Expected default config dir, got %s", settings.ConfigDir)
	}
	if settings.FPS != 60 {
		t.Errorf("Expected 60 fps, got %d", settings.FPS)
	}
}

func TestLoadSettingsFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photoly.yaml")
	content := "port: 9000\nconfig_dir: presets\nfps: 30\nngrok:\n  enabled: false\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := runWithSettings(t, "--settings", path)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if settings.Port != 9000 || settings.ConfigDir != "presets" || settings.FPS != 30 {
		t.Errorf("Settings file not applied: %+v", settings)
	}

	settings, err = runWithSettings(t, "--settings", path, "--port", "9090", "--config-dir", "other", "--ngrok", "--debug")
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if settings.Port != 9090 {
		t.Errorf("Expected flag port 9090, got %d", settings.Port)
	}
	if settings.ConfigDir != "other" {
		t.Errorf("Expected flag config dir, got %s", settings.ConfigDir)
	}
	if !settings.Ngrok.Enabled || !settings.Debug {
		t.Error("Expected boolean flags to override the file")
	}
	if settings.FPS != 30 {
		t.Errorf("Unset flags should keep file values, got fps %d", settings.FPS)
	}
}

func TestLoadSettingsInvalidPort(t *testing.T) {
	_, err := runWithSettings(t, "--settings", filepath.Join(t.TempDir(), "missing.yaml"), "--port", "70000")
	if err == nil {
		t.Error("Expected error for out of range port")
	}
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}
	dir := t.TempDir()
	settings := config.DefaultSettings()
	settings.SessionsDir = filepath.Join(dir, "sessions")
	settings.StatsDB = filepath.Join(dir, "photoly.db")
	return settings
}

func TestInitializeServices(t *testing.T) {
	log.Logger = log.Output(io.Discard)
	settings := testSettings(t)

	svc, err := initializeServices(settings)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	if svc.studio == nil || svc.hub == nil || svc.db == nil {
		t.Fatal("Expected all services to be initialized")
	}

	ctx := context.Background()
	info, err := svc.studio.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if err := svc.studio.Flush(ctx); err != nil {
		t.Fatalf("Failed to flush sessions: %v", err)
	}
	if _, err := os.Stat(filepath.Join(settings.SessionsDir, info.ID+".json")); err != nil {
		t.Errorf("Expected session file after flush: %v", err)
	}
}

func TestInitializeServicesWithoutStats(t *testing.T) {
	log.Logger = log.Output(io.Discard)
	settings := testSettings(t)
	settings.StatsDB = ""

	svc, err := initializeServices(settings)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	if svc.db != nil {
		t.Error("Expected no stats database")
	}
	if err := svc.Close(); err != nil {
		t.Errorf("Close without database failed: %v", err)
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	settings := config.DefaultSettings()
	settings.ConfigDir = "/non/existent/path"

	if _, err := initializeServices(settings); err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestSyncWithFilesystem(t *testing.T) {
	log.Logger = log.Output(io.Discard)
	settings := testSettings(t)
	svc, err := initializeServices(settings)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	ctx := context.Background()
	kept, err := svc.studio.CreateSession(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	removed, err := svc.studio.CreateSession(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.studio.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(settings.SessionsDir, removed.ID+".json")); err != nil {
		t.Fatal(err)
	}

	if pruned := svc.syncWithFilesystem(); pruned != 1 {
		t.Errorf("Expected 1 pruned session, got %d", pruned)
	}
	if _, err := svc.studio.GetSession(ctx, kept.ID); err != nil {
		t.Errorf("Kept session should remain: %v", err)
	}
	if _, err := svc.studio.GetSession(ctx, removed.ID); err == nil {
		t.Error("Removed session should be pruned from memory")
	}
}

func TestMCPHandler(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://127.0.0.1:1"))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", rec.Code)
	}

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test","version":"1.0"},"capabilities":{}}}`
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}
	if !strings.Contains(rec.Body.String(), AppName) {
		t.Errorf("Expected server name in initialize response: %s", rec.Body.String())
	}
}

func TestRouterMountsAPIAndMCP(t *testing.T) {
	log.Logger = log.Output(io.Discard)
	settings := testSettings(t)
	svc, err := initializeServices(settings)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	router := newRouter(api.NewServer(svc.studio, svc.hub), mcp.NewClient("http://127.0.0.1:1"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected /health 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected /mcp GET 405, got %d", rec.Code)
	}
}

func TestExternalAPIAvailable(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer healthy.Close()

	if !externalAPIAvailable(healthy.URL) {
		t.Error("Expected healthy server to be available")
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	if externalAPIAvailable(broken.URL) {
		t.Error("Expected failing server to be unavailable")
	}
	if externalAPIAvailable("http://127.0.0.1:1") {
		t.Error("Expected closed port to be unavailable")
	}
}

func TestPositive(t *testing.T) {
	if got := positive(0, 5); got != 5 {
		t.Errorf("Expected fallback, got %v", got)
	}
	if got := positive(3, 5); got != 3 {
		t.Errorf("Expected value, got %v", got)
	}
}
