package main

import (
	"os"

	"coach-center/cmd/coachctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
