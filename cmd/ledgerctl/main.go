package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/eventledger/internal/admin"
	"github.com/JonMunkholm/eventledger/internal/core"
)

func main() {
	// Same .env handling as the server; a missing file is fine
	_ = godotenv.Overload()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := admin.NewRootCmd(admin.OpenFromEnv).ExecuteContext(ctx); err != nil {
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, "error:", core.FormatUserError(err))
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}
