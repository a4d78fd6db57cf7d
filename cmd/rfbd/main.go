// Command rfbd runs the RFB server against a simulated display. It exists
// as a reference embedder for internal/rfbserver; real deployments
// typically embed the package directly with an internal/display.Real wired
// to a platform-specific capture backend instead of using this binary.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/openrfb/rfbd/internal/auth"
	"github.com/openrfb/rfbd/internal/config"
	"github.com/openrfb/rfbd/internal/display"
	"github.com/openrfb/rfbd/internal/rfbserver"
)

const (
	exitOK          = 0
	exitConfigError = 1
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("rfbd", flag.ContinueOnError)
	host := fs.String("host", "127.0.0.1", "address to listen on")
	port := fs.Int("port", 5900, "TCP port to listen on")
	authRequired := fs.Bool("auth", false, "require VNC authentication")
	userFile := fs.String("user-file", "", "path to the persisted user credential file")
	maxConnections := fs.Int("max-connections", 32, "maximum simultaneous clients")
	frameRate := fs.Int("frame-rate", 30, "capture rate in frames per second")
	width := fs.Int("width", 1280, "simulated screen width")
	height := fs.Int("height", 800, "simulated screen height")
	verbose := fs.Bool("verbose", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return exitConfigError
	}

	log := newLogger(*verbose)

	cfg := config.Config{
		Host:           *host,
		Port:           *port,
		AuthRequired:   *authRequired,
		UserFile:       *userFile,
		MaxConnections: *maxConnections,
		FrameRate:      *frameRate,
		ScreenWidth:    *width,
		ScreenHeight:   *height,
		IdleTimeout:    5 * time.Minute,
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return exitConfigError
	}

	var store *auth.Store
	if cfg.AuthRequired {
		s, err := auth.NewStore(cfg.UserFile, auth.WithLogger(log))
		if err != nil {
			log.Error().Err(err).Msg("failed to load user file")
			return exitConfigError
		}
		store = s
	}

	disp := display.NewSimulated(cfg.ScreenWidth, cfg.ScreenHeight)
	srv, err := rfbserver.New(cfg, disp, store, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to construct server")
		return exitConfigError
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		log.Error().Err(err).Msg("failed to start server")
		return exitConfigError
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	srv.Stop()
	return exitOK
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !isatty.IsTerminal(os.Stderr.Fd())}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
