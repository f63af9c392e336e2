package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/prcodex/codexsage/internal/cli"
)

func main() {
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
