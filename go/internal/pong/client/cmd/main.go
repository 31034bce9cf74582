package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell"
	"github.com/joho/godotenv"
	"github.com/mcdev12/pong/go/internal/pong/client"
	"github.com/mcdev12/pong/go/internal/pong/config"
	"github.com/mcdev12/pong/go/internal/pong/events"
	"github.com/mcdev12/pong/go/internal/pong/logging"
	"github.com/mcdev12/pong/go/internal/pong/tui"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	join := flag.String("join", "", "join an existing game by code")
	bot := flag.Bool("bot", false, "play headless with the autopilot")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// the terminal belongs to the game screen
	if !*bot {
		cfg.Logging.Console = false
		if cfg.Logging.File == "" {
			cfg.Logging.File = "pong-client.log"
		}
	}
	closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *join, *bot); err != nil {
		fmt.Fprintln(os.Stderr, err)
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, joinCode string, bot bool) error {
	lobby := client.NewLobby(cfg.Client.RelayURL, nil)

	var code string
	var err error
	if joinCode != "" {
		code, err = lobby.Join(ctx, joinCode)
	} else {
		code, err = lobby.Create(ctx)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "game code: %s\n", code)

	transportConfig := client.DefaultTransportConfig()
	transportConfig.Codec = events.CodecByName(cfg.Client.Codec)
	transport, err := client.Dial(ctx, lobby.WebSocketURL()+"?codec="+transportConfig.Codec.Name(), transportConfig)
	if err != nil {
		return err
	}

	clientConfig := client.Config{
		Field:            cfg.Game,
		TickRate:         cfg.Client.TickRate,
		UpdateRate:       cfg.Client.UpdateRate,
		ExitOnDisconnect: bot,
	}

	g, gctx := errgroup.WithContext(ctx)

	var (
		input    client.InputSource
		renderer client.Renderer
		screen   tcell.Screen
	)
	if bot {
		input = client.NewAutopilot(4)
		renderer = &client.LogRenderer{}
	} else {
		screen, err = tcell.NewScreen()
		if err != nil {
			transport.Close()
			return fmt.Errorf("failed to open terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			transport.Close()
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		keyboard := tui.NewKeyboard(nil, tui.DefaultHold)
		input = keyboard
		renderer = tui.NewRenderer(screen)

		g.Go(func() error {
			keyboard.Listen(screen)
			return nil
		})
	}

	c := client.New(clientConfig, transport, input, renderer, nil, nil)

	g.Go(func() error {
		defer transport.Close()
		if screen != nil {
			defer screen.Fini()
		}
		return c.Run(gctx, code)
	})

	err = g.Wait()
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		log.Info().Str("session_id", code).Msg("left the game")
		return nil
	case errors.Is(err, client.ErrPeerLeft):
		fmt.Fprintln(os.Stderr, err)
		return nil
	}
	return err
}
