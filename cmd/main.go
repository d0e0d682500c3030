package main

import (
	"fmt"
	"os"

	"github.com/strideworks/coachbridge-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		a.Log.Error("failed to start event forwarder", "error", err)
		os.Exit(1)
	}

	a.Log.Info("listening", "addr", a.Cfg.HTTPAddr)
	if err := a.Run(); err != nil {
		a.Log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
