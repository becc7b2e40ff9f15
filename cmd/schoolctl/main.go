// Package main is the operator CLI for the school identity service.
package main

import (
	"os"
)

func main() {
	if err := NewRootCmd(defaultDeps()).Execute(); err != nil {
		os.Exit(1)
	}
}
