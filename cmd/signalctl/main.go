// cmd/signalctl is the operator CLI for the signal store: fetch or import
// prices, train models, run predictions, export CSVs and report accuracy.
//
// Usage:
//
//	go run ./cmd/signalctl fetch
//	go run ./cmd/signalctl train --split 0.8
//	go run ./cmd/signalctl predict
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
