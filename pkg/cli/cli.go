// Package cli provides the command-line interface for element-locator.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/element-locator/pkg/config"
	"github.com/devicelab-dev/element-locator/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

const configKey = "config"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"s"},
		Usage:   "Device serial (default: first connected device)",
		EnvVars: []string{config.EnvDevice},
	},
	&cli.StringFlag{
		Name:    "adb",
		Usage:   "Path to the adb binary (default: looked up in PATH)",
		EnvVars: []string{config.EnvADBPath},
	},
	&cli.StringFlag{
		Name:  "config",
		Usage: "Config file (default: config.yaml or config.yml in the working directory)",
	},
	&cli.StringFlag{
		Name:  "env-file",
		Usage: "Load environment variables from this file",
		Value: ".env",
	},
	&cli.StringFlag{
		Name:  "log-file",
		Usage: "Write logs to this file (default: <home>/element-locator.log)",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"ELEMENT_LOCATOR_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// Commands are the subcommands of the app.
var Commands = []*cli.Command{
	locateCommand,
	hierarchyCommand,
	devicesCommand,
	serveCommand,
	doctorCommand,
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "element-locator",
		Usage:   "Find the UI element under a screen coordinate and build a selector for it",
		Version: Version,
		Description: `element-locator dumps the UI hierarchy of an Android device, finds the
element at a given point and prints an XPath selector that re-finds it.

Examples:
  element-locator locate --x 540 --y 1200
  element-locator locate --file window_dump.xml --x 540 --y 1200 --all
  element-locator hierarchy --compact
  element-locator serve --port 3001`,
		Flags:    GlobalFlags,
		Commands: Commands,
		Before:   setup,
		After: func(c *cli.Context) error {
			logger.Close()
			return nil
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and opens the log file before any command runs.
func setup(c *cli.Context) error {
	if c.Bool("no-ansi") {
		colorsEnabled = false
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg

	logPath := c.String("log-file")
	if logPath == "" {
		logPath = cfg.LogPath()
	}
	if err := logger.Init(logPath); err != nil {
		return err
	}
	logger.SetVerbose(c.Bool("verbose"))
	logger.Debug("Config: %+v", *cfg)
	return nil
}

// loadConfig resolves configuration: defaults < config file < environment < flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadEnvFile(c.String("env-file")); err != nil {
		return nil, err
	}

	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if v := c.String("device"); v != "" {
		cfg.Device = v
	}
	if v := c.String("adb"); v != "" {
		cfg.ADBPath = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configFrom returns the configuration loaded by setup.
func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Defaults()
}
