// Command flagcheck inspects flag images from the command line.
package main

import (
	"os"

	"github.com/anime-shed/flag-inspector-go/internal/cli"
)

func main() {
	os.Exit(cli.New(os.Stdout, os.Stderr).Execute(os.Args[1:]))
}
