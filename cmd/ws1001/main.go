package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/errors"
	"github.com/temoto/ws1001/cmd/ws1001/subcmd"
	"github.com/temoto/ws1001/internal/config"
	"github.com/temoto/ws1001/log2"
)

var log = log2.NewStderr(log2.LDebug)

var modules = []subcmd.Mod{
	observeMod,
	framesMod,
	decodeMod,
}

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "ws1001.hcl", "HCL config file, missing default file means default config")
	cmdline.Usage = func() {
		fmt.Fprintf(cmdline.Output(), "usage: %s [-config=path] [command] [args...]\ncommands:\n%s", os.Args[0], subcmd.Usage(modules))
		cmdline.PrintDefaults()
	}
	_ = cmdline.Parse(os.Args[1:])

	if subcmd.SdNotify("start") {
		// under systemd, journal adds timestamps
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	command := cmdline.Arg(0)
	if command == "" {
		command = observeMod.Name
	}
	mod, err := subcmd.Parse(command, modules)
	if err != nil {
		cmdline.Usage()
		log.Fatal(err)
	}

	cfg := loadConfig(cmdline, *flagConfig)
	log.SetLevel(cfg.Level())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	var args []string
	if cmdline.NArg() > 1 {
		args = cmdline.Args()[1:]
	}
	if err := mod.Main(ctx, cfg, args); err != nil {
		cancel()
		log.Fatal(errors.ErrorStack(err))
	}
}

func loadConfig(cmdline *flag.FlagSet, path string) *config.Config {
	explicit := false
	cmdline.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	if !explicit {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Debugf("config file %s not found, using defaults", path)
			return new(config.Config)
		}
	}
	return config.MustReadConfigFile(path, log)
}
