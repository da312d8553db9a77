// Command photoly runs the Photoly Studio widget server.
//
// Commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket and an /mcp endpoint
//  2. "mcp" runs an MCP stdio server against an external API, or an internal one if none answers
//  3. "play" opens the terminal player with local engines
//  4. "version" prints the version
//
// Settings come from configs/photoly.yaml; flags and environment variables
// override them. An ngrok tunnel can be enabled for external access during
// development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/photoly-interactive/api"
	"github.com/wricardo/photoly-interactive/game/assets"
	"github.com/wricardo/photoly-interactive/game/config"
	"github.com/wricardo/photoly-interactive/game/service"
	"github.com/wricardo/photoly-interactive/game/session"
	"github.com/wricardo/photoly-interactive/game/storage"
	"github.com/wricardo/photoly-interactive/transport/mcp"
	"github.com/wricardo/photoly-interactive/transport/tui"
	"github.com/wricardo/photoly-interactive/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Photoly Studio"
)

const (
	defaultSettingsPath = "configs/photoly.yaml"
	defaultExternalAPI  = "http://localhost:8080"
	shutdownTimeout     = 10 * time.Second
	syncInterval        = 5 * time.Second
)

func main() {
	setupLogging(os.Stderr, false)

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("error loading .env file")
		}
	} else {
		log.Debug().Msg("loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("photoly failed")
	}
}

// setupLogging points the global zerolog logger at w
func setupLogging(w io.Writer, debug bool) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// globalFlags are accepted by every command
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "settings",
			Usage:   "YAML settings file",
			Value:   defaultSettingsPath,
			Sources: cli.EnvVars("PHOTOLY_SETTINGS"),
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "config-dir",
			Usage:   "Directory containing studio presets",
			Sources: cli.EnvVars("CONFIG_DIR"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Enable debug logging",
			Sources: cli.EnvVars("DEBUG"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "photoly",
		Usage:   AppName + " widget server",
		Version: Version,
		Flags:   globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(os.Stderr, cmd.Bool("debug"))
			return ctx, nil
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action: serveAction,
			},
			{
				Name:  "mcp",
				Usage: "Run MCP stdio server, starting an internal HTTP API if needed",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Usage:   "External API to use when it answers",
						Value:   defaultExternalAPI,
						Sources: cli.EnvVars("PHOTOLY_API_URL"),
					},
				},
				Action: mcpAction,
			},
			{
				Name:  "play",
				Usage: "Play the puzzle and the cube in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Preset to play (defaults to the classic preset)",
					},
				},
				Action: playAction,
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Fprintf(cmd.Root().Writer, "%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
	}
}

// loadSettings reads the settings file and applies flag overrides
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	settings, err := config.LoadSettings(cmd.String("settings"))
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("host") {
		settings.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		settings.Port = cmd.Int("port")
	}
	if cmd.IsSet("config-dir") {
		settings.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("debug") {
		settings.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("ngrok") {
		settings.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-domain") {
		settings.Ngrok.Domain = cmd.String("ngrok-domain")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// services are the long-lived components shared by serve and mcp
type services struct {
	studio      service.StudioService
	sessions    *session.Manager
	persistence *session.FilePersistence
	hub         *websocket.Hub
	db          *storage.DB
}

// initializeServices wires session/config managers, the stats database,
// the asset prober and the websocket hub into the studio service
func initializeServices(settings *config.Settings) (*services, error) {
	configManager, err := config.NewManager(settings.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(settings.SessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to load persisted sessions")
	}

	hub := websocket.NewHub(nil)
	prober := assets.NewProber(
		assets.WithClient(&http.Client{Timeout: settings.Assets.Timeout}),
		assets.WithBaseURL(fmt.Sprintf("http://localhost:%d", settings.Port)),
		assets.WithConcurrency(settings.Assets.Concurrency),
		assets.WithRetries(settings.Assets.Retries, 100*time.Millisecond, 2*time.Second),
		assets.WithLogger(log.With().Str("component", "assets").Logger()),
	)

	opts := []service.Option{
		service.WithPublisher(hub),
		service.WithAssetProber(prober),
		service.WithLogger(log.With().Str("component", "service").Logger()),
	}

	s := &services{sessions: sessionManager, persistence: persistence, hub: hub}
	if settings.StatsDB != "" {
		db, err := storage.Open(settings.StatsDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open stats database: %w", err)
		}
		s.db = db
		opts = append(opts, service.WithStatsStore(storage.NewStatsStore(db)))
	}

	s.studio = service.NewStudioService(sessionManager, configManager, opts...)
	hub.SetController(s.studio)
	return s, nil
}

// Close releases the stats database
func (s *services) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// run drives the hub, the frame loop and session upkeep until ctx is done
func (s *services) run(ctx context.Context, g *errgroup.Group, settings *config.Settings) {
	g.Go(func() error {
		s.hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		s.studio.RunFrameLoop(ctx, settings.FPS)
		return nil
	})
	g.Go(func() error {
		s.maintain(ctx, settings.Sessions)
		return nil
	})
}

// maintain expires idle sessions, saves them periodically and drops
// sessions whose files were removed
func (s *services) maintain(ctx context.Context, cfg config.SessionSettings) {
	cleanup := time.NewTicker(positive(cfg.CleanupInterval, time.Hour))
	save := time.NewTicker(positive(cfg.SaveInterval, 5*time.Minute))
	syncTick := time.NewTicker(syncInterval)
	defer cleanup.Stop()
	defer save.Stop()
	defer syncTick.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.studio.Flush(context.Background()); err != nil {
				log.Error().Err(err).Msg("final session flush failed")
			}
			return
		case <-cleanup.C:
			if removed := s.sessions.CleanupExpiredSessions(positive(cfg.TTL, 24*time.Hour)); removed > 0 {
				log.Info().Int("removed", removed).Msg("cleaned up expired sessions")
			}
		case <-save.C:
			if err := s.studio.Flush(ctx); err != nil {
				log.Warn().Err(err).Msg("session flush failed")
			}
		case <-syncTick.C:
			s.syncWithFilesystem()
		}
	}
}

// syncWithFilesystem removes sessions from memory when their files are deleted
func (s *services) syncWithFilesystem() int {
	pruned := 0
	for _, sess := range s.sessions.List() {
		if s.persistence.Exists(sess.ID) {
			continue
		}
		if err := s.sessions.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.Debug().Str("session", sess.ID).Msg("pruned session from memory (file deleted)")
		}
	}
	if pruned > 0 {
		log.Info().Int("pruned", pruned).Msg("filesystem sync pruned orphaned sessions")
	}
	return pruned
}

func positive(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// mcpHandler serves single JSON-RPC messages over HTTP POST
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter mounts the REST API at the root and the MCP endpoint at /mcp
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))
	return mainRouter
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := initializeServices(settings)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.Close()

	addr := settings.Addr()
	baseURL := fmt.Sprintf("http://localhost:%d", settings.Port)
	router := newRouter(api.NewServer(svc.studio, svc.hub), mcp.NewClient(baseURL))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("version", Version).Str("addr", addr).Msgf("starting %s", AppName)

	g, gctx := errgroup.WithContext(ctx)
	svc.run(gctx, g, settings)

	g.Go(func() error {
		log.Info().Msgf("REST API: %s/api", baseURL)
		log.Info().Msgf("WebSocket: ws://localhost:%d/ws?session=<session_id>", settings.Port)
		log.Info().Msgf("MCP endpoint: %s/mcp", baseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if settings.Ngrok.Enabled {
		g.Go(func() error {
			runNgrok(gctx, router, cmd.String("ngrok-auth"), settings.Ngrok.Domain)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
		return nil
	})

	err = g.Wait()
	log.Info().Msg("server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, handler http.Handler, authToken, domain string) {
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info().Msg("starting ngrok tunnel")
	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.Info().Msgf("ngrok tunnel established: %s", ngrokURL)
	log.Info().Msgf("  REST API (ngrok): %s/api", ngrokURL)
	log.Info().Msgf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Info().Msgf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// externalAPIAvailable reports whether an API answers health checks at baseURL
func externalAPIAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// mcpAction runs an MCP stdio server. It reuses an external API when one
// answers; otherwise it starts an internal HTTP API on a random loopback port.
func mcpAction(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseURL := cmd.String("api-url")
	log.Info().Str("url", baseURL).Msg("checking for external API server")

	if externalAPIAvailable(baseURL) {
		log.Info().Str("url", baseURL).Msg("external API server found, using it for MCP")
	} else {
		log.Info().Msg("no external API server found, starting internal HTTP server")

		svc, err := initializeServices(settings)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svc.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())

		g, gctx := errgroup.WithContext(ctx)
		svc.run(gctx, g, settings)

		httpServer := &http.Server{Handler: api.NewServer(svc.studio, svc.hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer func() {
			stop()
			httpServer.Close()
			g.Wait()
		}()
		log.Info().Str("url", baseURL).Msg("internal HTTP server started for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Msg("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// playAction opens the terminal player. Logs would corrupt the screen, so
// they go to photoly-play.log with --debug and are discarded otherwise.
func playAction(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	if settings.Debug {
		f, err := os.OpenFile("photoly-play.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		setupLogging(f, true)
	} else {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}

	configManager, err := config.NewManager(settings.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}

	cfg := configManager.GetDefault()
	if name := cmd.String("config"); name != "" {
		if cfg, err = configManager.LoadConfig(name); err != nil {
			return err
		}
	}
	return tui.Run(cfg)
}
