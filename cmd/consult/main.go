// Package main is the entry point for the consult CLI.
package main

import (
	"log/slog"
	"os"

	"github.com/sunhs/consult.code/internal/cmd"
	"github.com/sunhs/consult.code/internal/log"
)

func main() {
	slog.SetDefault(log.NewFromEnv())
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
