// Command growthctl administers the growth service database: schema creation,
// reference table import and ad-hoc growth result computation.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
