package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironsheep/image-compose-mcp/internal/api"
	"github.com/ironsheep/image-compose-mcp/internal/config"
	"github.com/ironsheep/image-compose-mcp/internal/dispatch"
	"github.com/ironsheep/image-compose-mcp/internal/imaging"
	"github.com/ironsheep/image-compose-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	command := ""
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "--version", "-v", "version":
		fmt.Printf("image-compose-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		printUsage()
		return
	}

	// Configure logging to stderr (stdout is for MCP protocol and worker traffic)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	switch command {
	case "":
		runMCP(cfg)
	case "worker":
		runWorker(cfg)
	case "http":
		runHTTP(cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println("image-compose-mcp - MCP server for combining images")
	fmt.Println()
	fmt.Println("Usage: image-compose-mcp [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  (none)           Serve MCP over stdin/stdout")
	fmt.Println("  http             Serve the HTTP API")
	fmt.Println("  worker           Serve one composition worker over stdin/stdout")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  IMAGE_COMPOSE_LOG_LEVEL=debug         Enable debug logging")
	fmt.Println("  IMAGE_COMPOSE_WORKER=process          Worker mode: process, local or off")
	fmt.Println("  IMAGE_COMPOSE_WORKER_TIMEOUT=30s      Time allowed for a worker composition")
	fmt.Println("  IMAGE_COMPOSE_MAX_PIXELS=67108864     Largest canvas in pixels")
	fmt.Println("  IMAGE_COMPOSE_RESAMPLE=lanczos        lanczos, catmullrom, linear, box or nearest")
	fmt.Println("  IMAGE_COMPOSE_FETCH_TIMEOUT=10s       Timeout for images given by URL")
	fmt.Println("  IMAGE_COMPOSE_HTTP_ADDR=:8080         Listen address for the http command")
}

func newCompositor(cfg *config.Config) *imaging.Compositor {
	c := imaging.NewCompositor()
	c.Filter = cfg.Filter
	c.MaxPixels = cfg.MaxPixels
	return c
}

// newDispatcher wires the worker mode from cfg into a Dispatcher.
func newDispatcher(cfg *config.Config) *dispatch.Dispatcher {
	compositor := newCompositor(cfg)
	opts := dispatch.Options{
		Timeout:    cfg.WorkerTimeout,
		Compositor: compositor,
		Debug:      cfg.Debug,
	}

	switch cfg.Worker {
	case config.WorkerProcess:
		exe, err := os.Executable()
		if err != nil {
			log.Printf("Worker processes unavailable, composing inline: %v", err)
			break
		}
		opts.Spawner = &dispatch.ProcessSpawner{Path: exe, Args: []string{"worker"}}
		opts.OffscreenSurface = true
	case config.WorkerLocal:
		opts.Spawner = &dispatch.LocalSpawner{Compositor: compositor}
		opts.OffscreenSurface = true
	}

	if cfg.Debug {
		log.Printf("Worker mode %s, timeout %s", cfg.Worker, cfg.WorkerTimeout)
	}
	return dispatch.New(opts)
}

func runMCP(cfg *config.Config) {
	if cfg.Debug {
		log.Printf("Image Compose MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv := server.New(newDispatcher(cfg), cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// runWorker serves the parent process until it closes stdin or kills us.
func runWorker(cfg *config.Config) {
	if err := dispatch.ServeWorker(context.Background(), os.Stdin, os.Stdout, newCompositor(cfg)); err != nil {
		log.Fatalf("Worker error: %v", err)
	}
}

func runHTTP(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewRouter(api.NewHandler(newDispatcher(cfg))),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}
	}()

	log.Printf("Starting HTTP server on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server error: %v", err)
	}
}
