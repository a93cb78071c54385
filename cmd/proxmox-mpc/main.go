package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/proxmox-mpc/proxmox-mpc/internal/config"
	"github.com/proxmox-mpc/proxmox-mpc/internal/console"
	"github.com/proxmox-mpc/proxmox-mpc/internal/logging"
)

// Version is set via -ldflags during build
var Version = "dev"

func main() {
	var (
		workDir     = flag.String("workspace", "", "Override the workspace detection directory")
		oneShot     = flag.String("c", "", "Execute a single console line and exit (non-interactive mode)")
		versionFlag = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("proxmox-mpc version %s\n", Version)
		return
	}

	if err := config.EnsureDefaultConfig(); err != nil {
		log.Fatalf("Failed to ensure default config: %v", err)
	}
	cfg, err := config.LoadUserConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.NewFileLogger(cfg.LogPath)
	logging.SetLogger(logger)
	structured := logging.NewStructuredLogger(logger, "console", cfg.LogJSON)
	logging.DevLog("starting proxmox-mpc %s", Version)

	c := console.New(console.Options{
		Config:  cfg,
		Logger:  logger,
		Log:     structured,
		Version: Version,
		WorkDir: strings.TrimSpace(*workDir),
	})

	ctx := context.Background()

	if line := strings.TrimSpace(*oneShot); line != "" {
		// One-shot mode mirrors loop semantics: command failures are
		// reported, not reflected in the exit status.
		c.RunLine(ctx, line)
		return
	}

	if err := c.Run(ctx); err != nil {
		logger.Printf("console terminated: %v", err)
	}
}
