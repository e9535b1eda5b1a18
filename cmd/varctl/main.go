package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/variational-research/variational-go/internal/cli"
	"github.com/variational-research/variational-go/internal/config"
	"github.com/variational-research/variational-go/internal/svc"
)

func main() {
	var (
		configPath = flag.String("f", config.DefaultPath, "path to the main configuration")
		profile    = flag.String("profile", "", "API profile to use (defaults to the file's default)")
		verbose    = flag.Bool("v", false, "log the configuration summary before running")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: varctl [-f config] [-profile name] <command> [args]\n\n")
		printCommands(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	open := func() (*svc.ServiceContext, error) {
		cfg, err := config.Load(config.LocateMain(*configPath))
		if err != nil {
			return nil, err
		}
		if *profile != "" {
			cfg.Profile = *profile
		}
		if err := cli.SetupLogging(cfg); err != nil {
			return nil, err
		}
		if *verbose {
			cli.LogConfigSummary(cfg)
		}
		return svc.New(*cfg)
	}

	err := run(ctx, flag.Args(), os.Stdout, open)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		flag.Usage()
		os.Exit(2)
	default:
		log.Fatalf("varctl: %v", err)
	}
}
