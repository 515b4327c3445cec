package main

import (
	"inboxpilot-backend/internal/cli"
	"inboxpilot-backend/pkg/config"
)

func main() {
	// Load configuration
	cfg := config.Load()

	cli.Execute(cfg)
}
