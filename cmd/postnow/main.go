package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/affirmpost-backend/internal/app"
)

// postnow runs one pipeline pass and exits nonzero when any attempted
// platform failed to publish. This is the direct replacement for running a
// generation script by hand.
func main() {
	profileName := flag.String("profile", "", "pipeline profile to run (defaults to DEFAULT_PROFILE)")
	list := flag.Bool("list", false, "list available profiles and exit")
	flag.Parse()

	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Log.Sync()

	if *list {
		fmt.Println(strings.Join(a.Profiles.Names(), "\n"))
		return
	}

	name := *profileName
	if name == "" {
		name = a.DefaultProfile
	}

	result, err := a.Pipeline.Run(context.Background(), name)
	if err != nil {
		a.Log.Error("pipeline run failed", "profile", name, "error", err)
		os.Exit(1)
	}
	if !result.Success() {
		a.Log.Error("publish incomplete",
			"profile", result.Profile,
			"theme", result.Theme,
			"instagram", string(result.Instagram.State))
		os.Exit(1)
	}
	a.Log.Info("published", "profile", result.Profile, "theme", result.Theme)
}
