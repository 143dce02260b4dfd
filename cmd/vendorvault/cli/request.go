package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var requestListStatus string

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Work with stock requests",
}

var requestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stock requests addressed to you",
	RunE:  runRequestList,
}

var requestDeclineCmd = &cobra.Command{
	Use:   "decline <request-id>",
	Short: "Decline an open stock request",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequestDecline,
}

var (
	requestCreateVendor   string
	requestCreateProduct  string
	requestCreateQuantity int
	requestCreateNotes    string
)

var requestCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a stock request to a vendor (admin)",
	RunE:  runRequestCreate,
}

var requestCancelCmd = &cobra.Command{
	Use:   "cancel <request-id>",
	Short: "Cancel an open stock request (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequestCancel,
}

func init() {
	requestListCmd.Flags().StringVar(&requestListStatus, "status", "", "Filter by status (requested, partially_fulfilled, fulfilled, cancelled, rejected)")

	requestCreateCmd.Flags().StringVar(&requestCreateVendor, "vendor", "", "Vendor ID the request is addressed to")
	requestCreateCmd.Flags().StringVar(&requestCreateProduct, "product", "", "Product ID to restock")
	requestCreateCmd.Flags().IntVar(&requestCreateQuantity, "quantity", 0, "Units requested")
	requestCreateCmd.Flags().StringVar(&requestCreateNotes, "notes", "", "Free-form notes for the vendor")
	requestCreateCmd.MarkFlagRequired("vendor")
	requestCreateCmd.MarkFlagRequired("product")
	requestCreateCmd.MarkFlagRequired("quantity")

	requestCmd.AddCommand(requestListCmd)
	requestCmd.AddCommand(requestCreateCmd)
	requestCmd.AddCommand(requestCancelCmd)
	requestCmd.AddCommand(requestDeclineCmd)
}

func runRequestList(cmd *cobra.Command, args []string) error {
	client, err := NewClient()
	if err != nil {
		return err
	}

	requests, err := client.ListStockRequests(requestListStatus)
	if err != nil {
		return err
	}

	if len(requests) == 0 {
		fmt.Println("No stock requests")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tFULFILLED\tSTATUS\tDEADLINE")
	for _, r := range requests {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\n",
			r.ID, r.ProductID, r.QuantityFulfilled, r.QuantityRequested, r.Status, r.Deadline)
	}
	return w.Flush()
}

func runRequestCreate(cmd *cobra.Command, args []string) error {
	client, err := NewClient()
	if err != nil {
		return err
	}

	request, err := client.CreateStockRequest(requestCreateVendor, requestCreateProduct, requestCreateQuantity, requestCreateNotes)
	if err != nil {
		return err
	}

	fmt.Printf("Request %s created for %d units\n", request.ID, request.QuantityRequested)
	return nil
}

func runRequestCancel(cmd *cobra.Command, args []string) error {
	client, err := NewClient()
	if err != nil {
		return err
	}

	request, err := client.CancelStockRequest(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Request %s cancelled\n", request.ID)
	return nil
}

func runRequestDecline(cmd *cobra.Command, args []string) error {
	client, err := NewClient()
	if err != nil {
		return err
	}

	request, err := client.DeclineStockRequest(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Request %s declined\n", request.ID)
	return nil
}
