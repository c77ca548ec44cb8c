package main

import (
	"fmt"
	"os"
)

// contractAddress is the default wallet contract, set at build time with
// -ldflags "-X main.contractAddress=0x...".
var contractAddress string

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(app.ErrWriter, err)
		os.Exit(1)
	}
}
