package main

import (
	"errors"
	"fmt"
	"os"

	"digital.vasic.minitest/internal/cli"
	"digital.vasic.minitest/internal/demo"
	"digital.vasic.minitest/pkg/registry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := demo.Register(registry.Default); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := cli.New(cli.App{
		Registry: registry.Default,
		Version:  version,
	})
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrTestsFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
