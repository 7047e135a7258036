// Package main is the entry point for the supplierctl CLI.
package main

import (
	"github.com/dropforge/supplier-bridge/cmd/supplierctl/cmd"
)

func main() {
	cmd.Execute()
}
