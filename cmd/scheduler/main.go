package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/affirmpost-backend/internal/app"
	"github.com/yungbote/affirmpost-backend/internal/pkg/env"
)

// scheduler posts on a cron cadence. POST_CRON uses the standard 5-field
// spec and defaults to 09:00 daily; DEFAULT_PROFILE picks the variant each
// run uses.
func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Log.Sync()

	spec := env.Get("POST_CRON", "0 9 * * *", a.Log)
	profileName := a.DefaultProfile

	c := cron.New()
	_, err = c.AddFunc(spec, func() {
		a.Log.Info("scheduled run starting", "profile", profileName)
		result, err := a.Pipeline.Run(context.Background(), profileName)
		if err != nil {
			a.Log.Error("scheduled run failed", "profile", profileName, "error", err)
			return
		}
		a.Log.Info("scheduled run finished",
			"profile", result.Profile,
			"theme", result.Theme,
			"success", result.Success())
	})
	if err != nil {
		a.Log.Fatal("Invalid POST_CRON expression", "spec", spec, "error", err)
	}

	c.Start()
	a.Log.Info("Scheduler started", "cron", spec, "profile", profileName)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx := c.Stop()
	<-ctx.Done()
	a.Log.Info("Scheduler stopped")
}
