// Package main is the entry point for the boardrecipe CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/boardrecipe/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
