package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/api"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/console"
	"github.com/wardenhq/warden/internal/daemon"
	"github.com/wardenhq/warden/internal/domain"
	"github.com/wardenhq/warden/internal/gateway"
	"github.com/wardenhq/warden/internal/supervisor"
)

var serveAutostart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the warden manager",
	Long: `Runs the manager process: the HTTP API, the websocket console,
and the game server supervisor. With --detach it runs in the background
and records its address in .warden/ for client commands.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveAutostart, "start", false, "Start the game server immediately")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	if detach && !daemon.IsDaemonChild() {
		if daemon.IsRunning(cwd) {
			return daemon.ErrAlreadyRunning
		}
		// Exits the parent; only the child returns from here
		return daemon.Daemonize()
	}

	if daemon.IsDaemonChild() {
		logFile, err := daemon.SetupLogging(cwd)
		if err != nil {
			return err
		}
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, domain.ErrConfigNotFound) {
			return err
		}
		log.Printf("no config file at %s, using defaults", configPath)
		cfg = config.Default()
	}

	if cfg.API.Port == 0 {
		port, err := daemon.FindAvailablePort(cfg.API.Host)
		if err != nil {
			return err
		}
		cfg.API.Port = port
	}

	configDir := filepath.Dir(configPath)
	if abs, err := filepath.Abs(configPath); err == nil {
		configDir = filepath.Dir(abs)
	}
	serverEnv, err := config.LoadServerEnv(cfg.Server, configDir)
	if err != nil {
		return err
	}

	broadcaster := console.New(console.Config{
		BacklogSize: cfg.Console.Backlog,
		QueueSize:   cfg.Console.SubscriberQueue,
	})
	defer broadcaster.Close()

	sup := supervisor.New(supervisor.Config{
		Path:        cfg.Server.Path,
		Dir:         cfg.Server.Dir,
		Env:         serverEnv,
		StopCommand: cfg.Server.StopCommand,
		GracePeriod: cfg.Server.GracePeriod,
	}, broadcaster, nil)

	gw := gateway.New(broadcaster, sup, gateway.Config{
		HeartbeatInterval: cfg.Console.HeartbeatInterval,
		HeartbeatMisses:   cfg.Console.HeartbeatMisses,
	})

	shutdownCh := make(chan struct{})
	shutdownFn := func() { close(shutdownCh) }

	handlers := api.NewHandlers(sup, gw, shutdownFn)
	apiServer := api.NewServer(api.ServerConfig{
		Host: cfg.API.Host,
		Port: cfg.API.Port,
	}, handlers)

	pidFile := daemon.NewPIDFile(daemon.PIDPath(cwd))
	if err := daemon.EnsureStateDir(cwd); err != nil {
		return err
	}
	if err := pidFile.Create(); err != nil {
		if err == daemon.ErrPIDFileLocked {
			return daemon.ErrAlreadyRunning
		}
		return err
	}
	defer pidFile.Release()

	state := &daemon.State{
		PID:        os.Getpid(),
		Host:       cfg.API.Host,
		Port:       cfg.API.Port,
		StartedAt:  time.Now(),
		ConfigFile: configPath,
	}
	if err := state.Write(cwd); err != nil {
		return err
	}
	defer daemon.RemoveState(cwd)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Printf("warden listening on http://%s", apiServer.Addr())

	if serveAutostart {
		if err := sup.Start(ctx, ""); err != nil {
			log.Printf("autostart failed: %v", err)
		}
	}

	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("API server error: %v", err)
		}
	}()

	// Foreground mode mirrors the console to the terminal
	if !daemon.IsDaemonChild() {
		sub := broadcaster.Subscribe()
		defer broadcaster.Unsubscribe(sub.ID())
		go func() {
			for line := range sub.Lines() {
				printConsoleLine(line.WireText())
			}
		}()
	}

	select {
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
	case <-shutdownCh:
		log.Printf("shutdown requested via API")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracePeriod+10*time.Second)
	defer shutdownCancel()

	if err := sup.Stop(shutdownCtx); err != nil && !errors.Is(err, domain.ErrNotRunning) {
		log.Printf("stopping game server: %v", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("stopping API server: %v", err)
	}

	log.Printf("shutdown complete")
	return nil
}
