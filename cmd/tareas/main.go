package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/camoris/tareas/internal/cli"
)

func main() {
	// Root flags (apply to every subcommand)
	theme := flag.String("theme", os.Getenv("TAREAS_THEME"), "output theme: classic|neon|mono")
	flag.Parse()

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	code := cli.Run(args, cli.Options{
		Theme: *theme,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
