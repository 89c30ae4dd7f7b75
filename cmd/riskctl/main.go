// Package main is the entry point for riskctl, the operator CLI for the
// Risk Service. It scores locations and analyzes alert batches either
// in-process against the configured zone table or against a running service.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
