package main

import (
	"os"

	"github.com/lugondev/go-tokengate/cmd/tokengate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
