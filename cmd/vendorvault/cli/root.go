package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vendorvault",
	Short: "VendorVault — credential fulfillment for marketplace vendors",
	Long: `VendorVault manages encrypted credential inventory for marketplace
vendors. Upload credential batches, track stock requests, and review
inventory without ever seeing plaintext on the wire longer than needed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(productCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(versionCmd)
}
