package main

import (
	"os"

	"github.com/rustyeddy/riskcalc/cmd/riskcalc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
