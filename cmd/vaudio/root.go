package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/vaudio/internal/cli"
	"github.com/aretw0/vaudio/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "vaudio",
	Short: "vaudio is a four-signal navigation engine for programs and games",
	Long: `vaudio drives menus and narrative games with four signals and their pair combinations
(1+2, 1+4, 3+2, 3+4), fed by keyboards, pointers, controllers, touch, voice or MQTT buttons.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory containing the vaudio content")
	flags.String("log-level", "", "Log level on stderr: debug, info, warn or error (off by default)")
	flags.String("log-format", logging.FormatText, "Log format: text or json")
	flags.Duration("window", 0, "Combination window (default 300ms or the project file)")
	flags.Bool("no-combinations", false, "Dispatch every signal on its own")
	flags.String("source", cli.SourceAuto, "Content source: file, loam or redis (auto-detected by default)")
	flags.String("redis", "", "Redis address for --source redis")
	flags.Bool("seed", false, "Copy the directory content into Redis before starting")
	flags.String("mqtt-broker", "", "MQTT broker URL for physical buttons")
	flags.String("initial", "", "Path of the initial menu")
}

// options reads the persistent flags.
func options(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	opts := cli.Options{}
	opts.Dir, _ = flags.GetString("dir")
	opts.LogLevel, _ = flags.GetString("log-level")
	opts.LogFormat, _ = flags.GetString("log-format")
	opts.Window, _ = flags.GetDuration("window")
	opts.NoCombinations, _ = flags.GetBool("no-combinations")
	opts.Source, _ = flags.GetString("source")
	opts.Redis, _ = flags.GetString("redis")
	opts.Seed, _ = flags.GetBool("seed")
	opts.MQTTBroker, _ = flags.GetString("mqtt-broker")
	opts.Initial, _ = flags.GetString("initial")
	return opts
}

// dirFromArgs lets the content directory be passed positionally.
func dirFromArgs(cmd *cobra.Command, args []string, opts *cli.Options) {
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		opts.Dir = args[0]
	}
}
