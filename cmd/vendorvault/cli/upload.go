package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var uploadRequestID string

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload credential batches",
}

var uploadCSVCmd = &cobra.Command{
	Use:   "csv <product-id> <file>",
	Short: "Upload a CSV file of credentials for a product",
	Long: `Upload a CSV file of credentials for a product. Header names are
matched against the server's alias table, so exports from different
vendor tools work without renaming columns.

Example:
  vendorvault upload csv 4f1c... netflix-batch.csv --request 9ab2...`,
	Args: cobra.ExactArgs(2),
	RunE: runUploadCSV,
}

var uploadManualCmd = &cobra.Command{
	Use:   "manual <product-id> <entries.json>",
	Short: "Upload structured credential entries from a JSON file",
	Long: `Upload structured credential entries from a JSON file. The file holds
an array of objects whose fields match the product's service type, e.g.
for an account share:

  [{"account": "a@x.com", "secret": "pw",
    "profiles": [{"name": "P1", "pin": "1234"}, {"name": "P2"}]}]`,
	Args: cobra.ExactArgs(2),
	RunE: runUploadManual,
}

func init() {
	uploadCSVCmd.Flags().StringVar(&uploadRequestID, "request", "", "Stock request ID this upload fulfills")
	uploadManualCmd.Flags().StringVar(&uploadRequestID, "request", "", "Stock request ID this upload fulfills")
	uploadCmd.AddCommand(uploadCSVCmd)
	uploadCmd.AddCommand(uploadManualCmd)
}

func runUploadCSV(cmd *cobra.Command, args []string) error {
	productID, file := args[0], args[1]

	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", file, err)
	}

	client, err := NewClient()
	if err != nil {
		return err
	}

	result, err := client.UploadCSV(productID, string(content), uploadRequestID)
	if err != nil {
		return err
	}

	printUploadResult(result)
	return nil
}

func runUploadManual(cmd *cobra.Command, args []string) error {
	productID, file := args[0], args[1]

	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", file, err)
	}

	var entries []map[string]interface{}
	if err := json.Unmarshal(content, &entries); err != nil {
		return fmt.Errorf("%s is not a JSON array of entries: %w", file, err)
	}

	client, err := NewClient()
	if err != nil {
		return err
	}

	result, err := client.UploadManual(productID, entries, uploadRequestID)
	if err != nil {
		return err
	}

	printUploadResult(result)
	return nil
}

func printUploadResult(result *UploadResult) {
	fmt.Printf("Imported %d batches (%d units)\n", result.Imported, result.TotalUnits)
	for _, rowErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "  line %d skipped: %s\n", rowErr.Line, rowErr.Reason)
	}
	if result.UpdatedRequest != nil {
		r := result.UpdatedRequest
		fmt.Printf("Request %s: %d/%d units, status %s\n",
			r.ID, r.QuantityFulfilled, r.QuantityRequested, r.Status)
	}
}
