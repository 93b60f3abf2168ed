package main

import (
	"os"

	"github.com/AenganZ/pseudo/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
