package main

import (
	"os"

	"parking_api_testing/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
