// Package main provides the events record service entry point.
package main

import (
	"os"

	"github.com/lllypuk/eventboard/internal/bootstrap"
	"github.com/lllypuk/eventboard/internal/config"
)

func main() {
	os.Exit(bootstrap.Run(config.ServiceEvents, bootstrap.Events))
}
