package main

import (
	"os"

	"github.com/conneroisu/jsxlive/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
