package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lepinkainen/pageconv/cmd"
	"github.com/lepinkainen/pageconv/config"
	"github.com/lepinkainen/pageconv/types"
	"github.com/lepinkainen/pageconv/utils"
	"github.com/sirupsen/logrus"
)

var Version = "dev"

type CLI struct {
	LogLevel string           `name:"log-level" help:"Log level" default:"${config_log_level}" enum:"${log_levels}"`
	Version  kong.VersionFlag `help:"Show version and exit"`

	Convert cmd.ConvertCmd `cmd:"" help:"Convert files or folders between pdf, cbz, cbr and image folders"`
	Inspect cmd.InspectCmd `cmd:"" help:"List the pages a file or folder contains"`
	Verify  cmd.VerifyCmd  `cmd:"" help:"Check that a converted output has the same pages as its source"`
	Formats cmd.FormatsCmd `cmd:"" help:"List supported formats and check for the RAR packer"`
}

// configPath honours PAGECONV_CONFIG before the per-user default
func configPath() string {
	if p := os.Getenv(config.EnvPrefix + "CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath()
}

// newParser builds the command line parser with configuration values as flag defaults
func newParser(cli *CLI, cfg *config.Config) (*kong.Kong, error) {
	vars := cfg.Vars()
	vars["version"] = Version
	vars["lock_path"] = utils.DefaultLockPath()

	return kong.New(cli,
		kong.Name("pageconv"),
		kong.Description("Convert comic and book page containers between PDF, CBZ, CBR and image folders."),
		kong.UsageOnError(),
		vars,
	)
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "pageconv: %v\n", err)
		os.Exit(1)
	}

	var cli CLI
	parser, err := newParser(&cli, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pageconv: %v\n", err)
		os.Exit(1)
	}

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	logger := newLogger(cli.LogLevel)
	logger.WithField("config", configPath()).Debug("Configuration loaded")

	err = ctx.Run(&types.AppContext{
		Version: Version,
		Logger:  logger,
		Config:  cfg,
	})
	ctx.FatalIfErrorf(err)
}
