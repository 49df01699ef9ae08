// Package main provides the users profile and sign-in service entry point.
package main

import (
	"os"

	"github.com/lllypuk/eventboard/internal/bootstrap"
	"github.com/lllypuk/eventboard/internal/config"
)

func main() {
	os.Exit(bootstrap.Run(config.ServiceUsers, bootstrap.Users))
}
