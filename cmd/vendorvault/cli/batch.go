package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Inspect credential batches",
}

var batchListCmd = &cobra.Command{
	Use:   "list [product-id]",
	Short: "List a product's batches (masked, no plaintext)",
	Long: `List a product's batches without decrypting anything. With no argument
the default product from 'vendorvault product use' is listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatchList,
}

var batchRevealCmd = &cobra.Command{
	Use:   "reveal <batch-id>",
	Short: "Decrypt a batch for review (admin, audited)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchReveal,
}

var batchApproveComment string

var batchApproveCmd = &cobra.Command{
	Use:   "approve <batch-id>",
	Short: "Approve a request-linked batch into sellable stock (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchApprove,
}

var batchRejectReason string

var batchRejectCmd = &cobra.Command{
	Use:   "reject <batch-id>",
	Short: "Reject a batch and roll back its units (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchReject,
}

func init() {
	batchApproveCmd.Flags().StringVar(&batchApproveComment, "comment", "", "Optional approval comment")
	batchRejectCmd.Flags().StringVar(&batchRejectReason, "reason", "", "Rejection reason (required)")
	batchRejectCmd.MarkFlagRequired("reason")

	batchCmd.AddCommand(batchListCmd)
	batchCmd.AddCommand(batchRevealCmd)
	batchCmd.AddCommand(batchApproveCmd)
	batchCmd.AddCommand(batchRejectCmd)
}

func runBatchList(cmd *cobra.Command, args []string) error {
	productID, err := resolveProduct(args)
	if err != nil {
		return err
	}

	client, err := NewClient()
	if err != nil {
		return err
	}

	batches, err := client.ListBatches(productID)
	if err != nil {
		return err
	}

	if len(batches) == 0 {
		fmt.Println("No batches")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NO\tTYPE\tLABEL\tASSIGNED\tAVAILABLE\tSTATE")
	for _, b := range batches {
		state := "valid"
		if !b.IsValid {
			state = "rejected"
		} else if b.Approved {
			state = "approved"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
			b.BatchNumber, b.CredentialType, b.MaskedLabel, b.AssignedCount, b.AvailableCount, state)
	}
	return w.Flush()
}

func runBatchReveal(cmd *cobra.Command, args []string) error {
	client, err := NewClient()
	if err != nil {
		return err
	}

	payload, err := client.RevealBatch(args[0])
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		os.Stdout.Write(payload)
		fmt.Println()
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func runBatchApprove(cmd *cobra.Command, args []string) error {
	client, err := NewClient()
	if err != nil {
		return err
	}

	if err := client.ApproveBatch(args[0], batchApproveComment); err != nil {
		return err
	}
	fmt.Printf("Batch %s approved\n", args[0])
	return nil
}

func runBatchReject(cmd *cobra.Command, args []string) error {
	client, err := NewClient()
	if err != nil {
		return err
	}

	if err := client.RejectBatch(args[0], batchRejectReason); err != nil {
		return err
	}
	fmt.Printf("Batch %s rejected\n", args[0])
	return nil
}
