package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"opendart/internal/gateway/app"
	"opendart/internal/gateway/config"
	"opendart/internal/util/jsonutil"
)

const usage = `usage: opendart [flags] [command]

commands:
  serve                     serve HTTP, connect and websocket transports (default)
  stdio                     read tool call frames as JSON lines on stdin
  update-corp-codes [--data]
                            download and rebuild the company directory in the
                            user cache (--cache-path); --data writes the
                            project-local file (--data-path) instead, which is
                            only read when no cache file exists
  call <tool> [json-input]  run one tool and print its output
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, rest, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprint(os.Stderr, usage)
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	log, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	a, err := app.New(cfg, log, app.Options{})
	if err != nil {
		log.WithError(err).Error("failed to initialize app")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := "serve"
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}
	switch cmd {
	case "serve":
		return serve(ctx, a, log)
	case "stdio":
		a.Prepare(ctx)
		if err := a.ServeLines(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("stdio transport stopped")
			return 1
		}
		return 0
	case "update-corp-codes":
		return updateCorpCodes(ctx, a, rest, log)
	case "call":
		return call(ctx, a, rest, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
}

func serve(ctx context.Context, a *app.App, log logrus.FieldLogger) int {
	a.Prepare(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("server error")
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
		return 1
	}
	log.Info("server exiting")
	return 0
}

func updateCorpCodes(ctx context.Context, a *app.App, args []string, log logrus.FieldLogger) int {
	fs := pflag.NewFlagSet("update-corp-codes", pflag.ContinueOnError)
	toData := fs.Bool("data", false, "write the project-local data file instead of the user cache")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprint(os.Stderr, usage)
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	stats, path, err := a.UpdateCorpCodes(ctx, *toData)
	if err != nil {
		log.WithError(err).Error("company directory update failed")
		return 1
	}
	fmt.Printf("company directory updated at %s: %d records, %d companies, %d listed, %d skipped\n",
		path, stats.Records, stats.Total, stats.Listed, stats.Skipped)
	return 0
}

func call(ctx context.Context, a *app.App, args []string, log logrus.FieldLogger) int {
	if len(args) == 0 || len(args) > 2 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	input := json.RawMessage("{}")
	if len(args) == 2 {
		input = json.RawMessage(args[1])
	}
	a.Prepare(ctx)

	out, err := a.Registry.Call(ctx, args[0], input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	var text struct {
		Text *string `json:"text"`
	}
	if json.Unmarshal(out, &text) == nil && text.Text != nil {
		fmt.Println(*text.Text)
		return 0
	}
	pretty, err := jsonutil.Indent(out, "  ")
	if err != nil {
		log.WithError(err).Debug("tool output is not indentable JSON")
	}
	fmt.Println(string(pretty))
	return 0
}
