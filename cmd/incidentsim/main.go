// Command incidentsim simulates a population of nodes that report incidents
// and validate them with the confirmations of their neighbours.
package main

import (
	"fmt"
	"os"
)

func main() {
	err := newApp(os.Stdout).Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
