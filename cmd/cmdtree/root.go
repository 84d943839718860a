package main

import (
	"fmt"
	"os"

	"github.com/aretw0/cmdtree/internal/cli"
	"github.com/aretw0/cmdtree/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cmdtree",
	Short: "cmdtree shows which robot commands are running",
	Long: `cmdtree renders the command tree published by a robot controller:
one section per subsystem plus the scheduled commands, with running commands
highlighted and expansion remembered across updates and restarts.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultPath, "Path to the configuration file")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("source", "", "Payload source: file, redis, exec or memory")
	flags.String("exec", "", "Command whose stdout is the payload, for the exec source")
	flags.String("path", "", "Payload file for the file source")
	flags.String("key", "", "Redis key holding the payload")
	flags.String("redis-addr", "", "Redis address")
	flags.String("state", "", "Saved view store: file, redis or memory")
	flags.String("view", "", "Name of the saved view")
	flags.Duration("hold", 0, "How long a highlight outlives its command")
	flags.Duration("poll-interval", 0, "How often the source is polled")
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("log-level", &cfg.LogLevel)
	str("source", &cfg.Source.Kind)
	str("path", &cfg.Source.Path)
	str("key", &cfg.Source.Key)
	str("exec", &cfg.Source.Command)
	str("redis-addr", &cfg.Redis.Addr)
	str("state", &cfg.State.Kind)
	str("view", &cfg.State.View)
	if flags.Changed("hold") {
		cfg.Hold, _ = flags.GetDuration("hold")
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval, _ = flags.GetDuration("poll-interval")
	}

	return cfg, cfg.Validate()
}

// newApp loads the configuration and wires an App. quiet silences logging,
// for commands whose stdout or stderr carries data.
func newApp(cmd *cobra.Command, quiet bool) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cfg, cli.NewLogger(cfg.LogLevel, quiet))
}
