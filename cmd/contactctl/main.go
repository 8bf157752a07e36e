/*
Package main provides the contactctl command for previewing contact messages
and checking site settings.
*/
package main

import (
	"os"

	"go-contact-backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
