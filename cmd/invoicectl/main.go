package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp(openStack).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
