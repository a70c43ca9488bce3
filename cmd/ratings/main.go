package main

import (
	"os"

	"github.com/wonny/aegis-ratings/cmd/ratings/commands"
)

// main is the entry point for the ratings CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/ratings [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
