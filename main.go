package main

import (
	"os"

	"github.com/mverdier/lineflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
