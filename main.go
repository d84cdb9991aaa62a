// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main is the entry point for the Shield CLI application.
// It protects JavaScript files through the remote Shield protection service.
package main

import (
	"shield/cli/cmd"
)

// main is the entry point for the Shield CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
