package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"portfolio-backend/internal/client"
	"portfolio-backend/internal/playback"
)

func main() {
	cmd := &cli.Command{
		Name:  "chatcli",
		Usage: "talk to the portfolio assistant from a terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   "http://localhost:8080",
				Usage:   "backend base URL",
				Sources: cli.EnvVars("PORTFOLIO_URL"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer token sent with every request",
				Sources: cli.EnvVars("PORTFOLIO_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "player",
				Usage:   "audio player command, the clip path is appended",
				Value:   strings.Join(playback.DefaultCommand, " "),
				Sources: cli.EnvVars("PORTFOLIO_PLAYER"),
			},
			&cli.BoolFlag{
				Name:  "mute",
				Usage: "do not play narrated replies",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log client diagnostics to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "send one message, print the reply and exit",
				ArgsUsage: "<message>",
				Action:    runAsk,
			},
		},
		Action: runInteractive,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatalf("✗ %v", err)
	}
}

func newSession(cmd *cli.Command) *client.Session {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cmd.Bool("verbose") {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var opts []client.HTTPOption
	if token := cmd.String("token"); token != "" {
		opts = append(opts, client.WithToken(token))
	}
	api := client.NewHTTPAPI(cmd.String("server"), opts...)

	var player playback.Player
	if !cmd.Bool("mute") {
		player = playback.NewCommandPlayer(strings.Fields(cmd.String("player")), logger)
	}
	return client.NewSession(api, player, logger)
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	message := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("usage: chatcli ask <message>")
	}

	session := newSession(cmd)
	done := make(chan struct{})
	session.OnChange(func(st client.State) {
		if !st.Loading && st.Phase == client.PhaseIdle {
			select {
			case <-done:
			default:
				close(done)
			}
		}
	})

	if err := session.Send(ctx, message); err != nil {
		return err
	}
	st := session.Snapshot()
	for _, m := range st.Messages[1:] {
		printMessage(os.Stdout, m)
	}
	if st.Error != "" {
		return fmt.Errorf("%s", st.Error)
	}

	if st.Loading {
		select {
		case <-done:
		case <-ctx.Done():
			session.Skip()
		}
	}
	return nil
}

func runInteractive(ctx context.Context, cmd *cli.Command) error {
	session := newSession(cmd)
	view := newView(os.Stdout)
	session.OnChange(view.render)

	fmt.Fprintln(os.Stdout, "Ask about Kristopher. Commands: /about /projects /skip /toggle N /clear /quit")
	go session.FocusInput(ctx)

	return readLoop(ctx, os.Stdin, session, view)
}
