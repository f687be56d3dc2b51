package main

import (
	"github.com/joho/godotenv"
	"github.com/kcaldas/ragpack/cmd/cli"
)

func main() {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cli.Execute()
}
