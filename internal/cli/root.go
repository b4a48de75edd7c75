// Package cli implements the warden command line: the serve command that
// runs the manager daemon, and client commands that drive a running one.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/constants"
	"github.com/wardenhq/warden/internal/daemon"
)

// Version is set during build
var Version = "dev"

// Global flags
var (
	configPath           string
	apiAddr              string
	apiAddrExplicitlySet bool
	detach               bool
	verbose              bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "A game server console manager",
	Long: `warden supervises a single game server process and serves its
console remotely. It supports:
  - Start/stop lifecycle control with graceful shutdown
  - Live console streaming to any number of viewers
  - Command forwarding into the server's input
  - Background daemon mode`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("addr") {
			apiAddrExplicitlySet = true
		}

		// Client commands discover the API address unless --addr was given
		clientCommands := map[string]bool{
			"start":   true,
			"stop":    true,
			"status":  true,
			"send":    true,
			"tail":    true,
			"console": true,
			"down":    true,
		}
		if clientCommands[cmd.Name()] && !apiAddrExplicitlySet {
			apiAddr = discoverAPIAddress()
		}

		log.SetOutput(logDestination(clientCommands[cmd.Name()], verbose))
	},
}

// logDestination decides where package log output goes. Client commands
// keep reconnect chatter off the terminal unless --verbose is set; the
// serve daemon always logs.
func logDestination(clientCommand, verbose bool) io.Writer {
	if clientCommand && !verbose {
		return io.Discard
	}
	return os.Stderr
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("warden version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", constants.DefaultConfigFile, "Config file")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "addr", constants.DefaultAPIAddress, "API address for client commands")
	rootCmd.PersistentFlags().BoolVarP(&detach, "detach", "d", false, "Run in background (daemon mode)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.SetVersionTemplate("warden version {{.Version}}\n")

	rootCmd.AddCommand(versionCmd)
}

// loadAPIAddrFromConfig reads the API address from the config file.
// Returns empty string if the config cannot be read.
func loadAPIAddrFromConfig() string {
	cfg, err := config.Load(configPath)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", cfg.API.Host, cfg.API.Port)
}

// discoverAPIAddress resolves the API address a client command talks to.
// Priority: state file of a running daemon, then config file, then the
// built-in default.
func discoverAPIAddress() string {
	cwd, err := os.Getwd()
	if err == nil {
		if state, err := daemon.LoadState(cwd); err == nil {
			return state.APIAddress()
		}
	}

	if addr := loadAPIAddrFromConfig(); addr != "" {
		return addr
	}

	return constants.DefaultAPIAddress
}
