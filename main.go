package main

import (
	"github.com/joho/godotenv"

	"utility-rate-sync/internal/cli"
)

func main() {
	// A missing .env file is fine; credentials usually arrive via the
	// environment directly.
	_ = godotenv.Load()

	cli.Execute()
}
