package main

import (
	"fmt"
	"os"

	"github.com/stillpath/stillpath-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		a.Log.Error("Failed to start background jobs", "error", err)
		os.Exit(1)
	}

	a.Log.Info("Starting server", "port", a.Cfg.Port)
	if err := a.Run(); err != nil {
		a.Log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
