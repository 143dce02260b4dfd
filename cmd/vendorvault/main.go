// VendorVault CLI — vendor credential fulfillment from the command line
//
// Usage:
//
//	vendorvault login --server https://localhost:8443 --email vendor@example.com
//	vendorvault product list
//	vendorvault upload csv <product-id> credentials.csv
//	vendorvault request list --status requested
package main

import (
	"fmt"
	"os"

	"github.com/vendorvault/vendorvault/cmd/vendorvault/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
