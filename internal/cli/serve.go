package cli

import (
	"fmt"

	"coverdraft/internal/config"
	"coverdraft/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume parsing and draft generation",
	Long: `Start an HTTP server that provides REST API endpoints for resume parsing,
job scraping, and draft generation.

Available endpoints:
- POST /parse: Parse an uploaded resume into a candidate profile
- POST /scrape: Scrape a job listing URL into structured fields
- POST /generate: Generate a cover letter and outreach email
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

// Flag-to-config-key pairs; flags override config file values through
// viper's binding.
var serveFlagBindings = []struct {
	key  string
	flag string
}{
	{"server.port", "port"},
	{"server.host", "host"},
	{"server.tls.mode", "tls-mode"},
	{"server.tls.certfile", "cert-file"},
	{"server.tls.keyfile", "key-file"},
	{"server.tls.cafile", "ca-file"},
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	for _, b := range serveFlagBindings {
		if err := viper.BindPFlag(b.key, serveCmd.Flags().Lookup(b.flag)); err != nil {
			panic(err)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Flags may have changed the TLS section; re-validate before binding
	// a listener to it.
	tlsCheck := &config.Config{Server: cfg.Server}
	if err := tlsCheck.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Document.MaxFileSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, serverCfg, logger).Start()
}
