// Package main provides the pageserve HTML front end entry point.
package main

import (
	"os"

	"github.com/lllypuk/eventboard/internal/bootstrap"
	"github.com/lllypuk/eventboard/internal/config"
)

func main() {
	os.Exit(bootstrap.Run(config.ServicePageserve, bootstrap.Pageserve))
}
