package main

import (
	"fmt"
	"os"

	"github.com/yungbote/affirmpost-backend/internal/app"
	"github.com/yungbote/affirmpost-backend/internal/pkg/env"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Log.Sync()

	router, err := a.Router()
	if err != nil {
		a.Log.Fatal("Failed to build router", "error", err)
	}

	port := env.Get("PORT", "8000", a.Log)
	a.Log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		a.Log.Fatal("Server failed", "error", err)
	}
}
