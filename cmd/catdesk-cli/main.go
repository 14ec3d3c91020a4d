// Package main provides the entry point for catdesk-cli.
//
// catdesk-cli manages a product catalog behind a dummyjson-style API,
// either one command at a time or from the interactive shell.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/catdesk-go/internal/cli/command"
	"github.com/yndnr/catdesk-go/internal/core/domain"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", domain.ErrorMessage(err))
		os.Exit(1)
	}
}
