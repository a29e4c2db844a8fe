// Command dockctl inspects and drives the dock from a terminal. It works on
// the configured storage backend directly, so it can run next to the server
// or without it.
package main

import (
	"fmt"
	"os"
)

func main() {
	c := &cli{out: os.Stdout}
	if err := newRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
