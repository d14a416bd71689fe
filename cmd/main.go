package main

import (
	"os"

	"github.com/sebspolo/scrobble-guessr/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
