// Command sqlweave generates typed query bindings from annotated SQL.
package main

import (
	"os"

	"github.com/sqlweave/sqlweave/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
