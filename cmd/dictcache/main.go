// Command dictcache runs dictionary conversions and validity-interval lookups
// through the cache.
//
//	dictcache [-config file] convert -table currency -from code -to name -value USD
//	dictcache [-config file] dates -table fx_rate -filter currency=EUR
//	dictcache [-config file] demo
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/dictcache/config"
)

var errUsage = errors.New("usage: dictcache [-config file] convert|dates|demo [flags]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("dictcache", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "demo":
		codec, err := buildCodec(cfg.Cache)
		if err != nil {
			return err
		}
		return demo(out, codec)
	case "convert", "dates":
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	app, err := bootstrap(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))

	if cmd == "convert" {
		return convert(ctx, app.svc, rest, out)
	}
	return dates(ctx, app.svc, rest, out)
}
