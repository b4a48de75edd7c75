package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/client"
	"github.com/wardenhq/warden/internal/constants"
	"github.com/wardenhq/warden/internal/tui"
)

var statusJSON bool

var startCmd = &cobra.Command{
	Use:   "start [path]",
	Short: "Start the game server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}

		if err := NewClient(apiAddr).Start(path); err != nil {
			return err
		}
		fmt.Println("game server starting")
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the game server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := NewClient(apiAddr).Stop(); err != nil {
			return err
		}
		fmt.Println("game server stopped")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show game server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := NewClient(apiAddr).GetStatus()
		if err != nil {
			return fmt.Errorf("%w\nIs warden running? Try 'warden serve' first", err)
		}

		if statusJSON {
			return json.NewEncoder(os.Stdout).Encode(status)
		}

		fmt.Println(status.Message)
		if status.PID > 0 {
			fmt.Printf("  pid:    %d\n", status.PID)
			fmt.Printf("  path:   %s\n", status.Path)
			fmt.Printf("  uptime: %s\n", formatDuration(time.Duration(status.UptimeSeconds)*time.Second))
		}
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <command...>",
	Short: "Send a command to the game server console",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		manager := client.GetInstance()
		manager.Configure(NewClient(apiAddr).ConsoleURL(),
			constants.DefaultReconnectInterval, constants.DefaultMaxReconnectAttempts)
		defer manager.Close()

		_, msgs := manager.SubscribeMessages()
		if err := manager.Connect(); err != nil {
			return err
		}
		if err := manager.Send(text); err != nil {
			return err
		}

		// Wait briefly for the acknowledgement frame
		deadline := time.After(2 * time.Second)
		for {
			select {
			case line := <-msgs:
				if strings.HasPrefix(line, "Command received:") {
					fmt.Println(line)
					return nil
				}
			case <-deadline:
				fmt.Println("command sent")
				return nil
			}
		}
	},
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Stream the game server console to the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := client.GetInstance()
		manager.Configure(NewClient(apiAddr).ConsoleURL(),
			constants.DefaultReconnectInterval, constants.DefaultMaxReconnectAttempts)
		defer manager.Close()

		_, msgs := manager.SubscribeMessages()
		if err := manager.Connect(); err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		for {
			select {
			case line, ok := <-msgs:
				if !ok {
					return nil
				}
				printConsoleLine(line)
			case <-sigCh:
				return nil
			}
		}
	},
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Attach an interactive console to the game server",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient := NewClient(apiAddr)
		if _, err := httpClient.GetStatus(); err != nil {
			return fmt.Errorf("%w\nIs warden running? Try 'warden serve' first", err)
		}

		manager := client.GetInstance()
		manager.Configure(httpClient.ConsoleURL(),
			constants.DefaultReconnectInterval, constants.DefaultMaxReconnectAttempts)
		defer manager.Close()

		return tui.Run(manager)
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Shut down the warden daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := NewClient(apiAddr).Shutdown(); err != nil {
			return err
		}
		fmt.Println("shutdown initiated")
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(downCmd)
}

// formatDuration formats a duration for human reading
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
