package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appregistry "github.com/chandra-gummaluru/beamer-plus/internal/app/registry"
	"github.com/chandra-gummaluru/beamer-plus/internal/app/server"
	"github.com/chandra-gummaluru/beamer-plus/internal/app/server/handlers"
	"github.com/chandra-gummaluru/beamer-plus/internal/config"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/services"
	"github.com/chandra-gummaluru/beamer-plus/internal/platform/logger"
	"github.com/chandra-gummaluru/beamer-plus/internal/platform/telemetry"
	"github.com/chandra-gummaluru/beamer-plus/internal/plugins/backends"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the presentation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SERVICE_ADDR)")

	return cmd
}

func runServe(addr string) error {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	_ = godotenv.Load()
	cfg := config.Load()
	if addr != "" {
		cfg.Service.Addr = addr
	}

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Analysis backends
	backendRegistry := backends.NewRegistry()
	backendRegistry.Register("cluster", backends.NewClusterBackend())
	if cfg.OpenAI.APIKey != "" {
		backendRegistry.Register("openai", backends.NewOpenAIBackend(*cfg.OpenAI))
		log.Info("openai analysis backend registered", "model", cfg.OpenAI.Model)
	}

	// Core
	hub := appregistry.NewRegistry()
	loop := services.NewLoop()
	stateStore := services.NewStateStore()
	surveySvc := services.NewSurveyService(log, loop, hub, backendRegistry, cfg.Survey.DefaultSummaryCount)
	router := services.NewRouter(log, loop, hub, stateStore, surveySvc)
	gateway := services.NewAnalysisGateway(log, surveySvc, backendRegistry)
	go router.Run(ctx)

	// Server
	wsHandler := handlers.NewWSHandler(router)
	surveyHandler := handlers.NewSurveyHandler(surveySvc, gateway, backendRegistry)
	srv := server.NewServer(log, *cfg, wsHandler, surveyHandler)

	printAccessURLs(cfg.Service.Addr)
	return srv.Start(ctx)
}

// printAccessURLs mirrors the launcher banner: a local URL always, a
// network URL when a LAN address can be detected.
func printAccessURLs(addr string) {
	port := addr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		port = addr[i+1:]
	}
	fmt.Printf("\n  Local:   http://localhost:%s\n", port)
	if ip := localIP(); ip != "" {
		fmt.Printf("  Network: http://%s:%s\n", ip, port)
		fmt.Println("\n  Devices on the same network can join the network URL.")
	}
	fmt.Println()
}

// localIP detects the outbound interface address. The dial never sends
// a packet; UDP connect only picks a route.
func localIP() string {
	conn, err := net.Dial("udp", "10.254.254.254:1")
	if err != nil {
		return ""
	}
	defer conn.Close()
	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ""
	}
	return localAddr.IP.String()
}
