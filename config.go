package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tabletop/internal/server"
)

type Config struct {
	bind        string
	port        int
	dataDir     string
	webDir      string
	defaultBack string
	verbose     bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.dataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TABLETOP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "tabletop",
		Short:         "A shared card table: upload decks, draw, shuffle and pass cards in real time.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return server.New(server.Config{
				Bind:        cfg.bind,
				Port:        cfg.port,
				DataDir:     cfg.dataDir,
				WebDir:      cfg.webDir,
				DefaultBack: cfg.defaultBack,
				Verbose:     cfg.verbose,
			}).Start()
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TABLETOP_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 3000, "port to listen on (env: TABLETOP_PORT)")
	fs.StringVar(&cfg.dataDir, "data", "uploads", "directory for uploaded decks (env: TABLETOP_DATA)")
	fs.StringVar(&cfg.webDir, "web", "client", "directory of static client files (env: TABLETOP_WEB)")
	fs.StringVar(&cfg.defaultBack, "default-back", "/assets/card-back.png", "back image for decks without a custom one (env: TABLETOP_DEFAULT_BACK)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log every table operation (env: TABLETOP_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("tabletop v{{.Version}}\n")

	return cmd
}
