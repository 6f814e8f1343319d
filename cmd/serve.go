package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/jobfinder-mcp/pkg/auth"
	"github.com/theapemachine/jobfinder-mcp/pkg/config"
	"github.com/theapemachine/jobfinder-mcp/pkg/fetch"
	"github.com/theapemachine/jobfinder-mcp/pkg/provider"
	"github.com/theapemachine/jobfinder-mcp/pkg/search"
	"github.com/theapemachine/jobfinder-mcp/pkg/service"
	"github.com/theapemachine/jobfinder-mcp/pkg/tools"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools over streamable HTTP",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			setupLogging(cfg.Log)

			broker, err := newBroker(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				<-ctx.Done()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := broker.Shutdown(shutdownCtx); err != nil {
					log.Error("failed to shut down", "error", err)
				}
			}()

			return broker.Start()
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8086, "Port to serve on")
	serveCmd.Flags().StringP("host", "H", "0.0.0.0", "Host address to bind to")
	serveCmd.Flags().String("fetch-backend", config.BackendHTTP, "Fetch backend: http or browser")
	serveCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("fetch.backend", serveCmd.Flags().Lookup("fetch-backend"))
	_ = viper.BindPFlag("log.level", serveCmd.Flags().Lookup("log-level"))
}

func setupLogging(cfg config.Log) {
	log.SetReportTimestamp(true)

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warn("unknown log level, using info", "level", cfg.Level)
		level = log.InfoLevel
	}

	log.SetLevel(level)
}

func newAuthenticator(cfg config.Auth) (auth.Authenticator, error) {
	if cfg.Mode != config.AuthModeJWT {
		return auth.NewTokenAuthenticator(cfg.Token), nil
	}

	key, err := auth.LoadPublicKey(cfg.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to set up jwt auth: %w", err)
	}

	return auth.NewJWTAuthenticator(key, cfg.Issuer, cfg.Audience), nil
}

// newBroker wires the configured components into an MCP broker.
func newBroker(cfg *config.Config) (*service.MCPBroker, error) {
	authenticator, err := newAuthenticator(cfg.Auth)
	if err != nil {
		return nil, err
	}

	opts := []fetch.Option{fetch.WithTimeout(cfg.Fetch.Timeout)}
	if cfg.Fetch.Backend == config.BackendBrowser {
		opts = append(opts, fetch.WithRenderer(fetch.NewBrowserRenderer()))
	}

	dispatcher := tools.NewDispatcher(
		fetch.NewFetcher(opts...),
		search.NewSearcher(
			cfg.Fetch.UserAgent,
			search.WithEndpoint(cfg.Search.Endpoint),
			search.WithTimeout(cfg.Fetch.Timeout),
		),
		cfg.Fetch.UserAgent,
		cfg.Search.MaxResults,
	)

	served := []tools.Tool{
		tools.NewValidateTool(cfg.Auth.Number),
		tools.NewJobFinderTool(dispatcher),
		tools.NewGrayscaleTool(),
	}

	if cfg.Resume.Enabled() {
		gemini, err := provider.NewGoogleProvider(
			context.Background(),
			cfg.Resume.APIKey,
			provider.WithGoogleModel(cfg.Resume.Model),
			provider.WithGoogleBaseURL(cfg.Resume.BaseURL),
		)
		if err != nil {
			return nil, err
		}

		served = append(served, tools.NewUpdateResumeTool(gemini), tools.NewATSScoreTool(gemini))
	} else {
		log.Info("GEMINI_API_KEY not set, resume tools disabled")
	}

	return service.NewMCPBroker(cfg.Server.Addr(), authenticator, served...), nil
}

var longServe = `
Serve the job finder tools over streamable HTTP at /mcp.

Examples:
  # Serve on the default address (0.0.0.0:8086)
  jobfinder-mcp serve

  # Render pages in a headless browser before simplifying them
  jobfinder-mcp serve --fetch-backend browser --port 9000
`
