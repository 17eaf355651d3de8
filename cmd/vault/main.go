// Command vault manages encrypted vault files and moves them through OCI
// registries.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
