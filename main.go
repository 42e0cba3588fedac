package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/aftermidnight/cmd"
	"github.com/tphakala/aftermidnight/internal/conf"
	runtimectx "github.com/tphakala/aftermidnight/internal/runtime"
)

// buildDate is the time when the binary was built
var buildDate string

// version holds the Git version tag
var version string

func main() {
	rt := &runtimectx.Context{
		Version:   version,
		BuildDate: buildDate,
	}
	if rt.Version == "" {
		rt.Version = "dev"
	}

	// Interrupt stops a running import between files
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	settings := &conf.Settings{}
	rootCmd := cmd.RootCommand(settings, rt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
