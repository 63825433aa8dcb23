// Package main provides the Vantage CLI.
package main

import (
	"os"

	"github.com/romaninsh/vantage/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
