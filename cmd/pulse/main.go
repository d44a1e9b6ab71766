package main

import (
	"os"

	"github.com/solvaholic/teampulse/cmd/pulse/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.OutputError("%v", err)
		os.Exit(1)
	}
}
