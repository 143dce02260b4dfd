package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Manage products",
}

var productListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your products",
	RunE:  runProductList,
}

var (
	productCreateServiceType string
	productCreateProvider    string
)

var productCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Register a product for admin review",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductCreate,
}

var productReviewDecision string

var productReviewCmd = &cobra.Command{
	Use:   "review <product-id>",
	Short: "Approve or reject a product (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductReview,
}

var productUseCmd = &cobra.Command{
	Use:   "use <product-id>",
	Short: "Set the default product for batch commands",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductUse,
}

func init() {
	productCreateCmd.Flags().StringVar(&productCreateServiceType, "type", "account_share", "Service type (account_share, email_invite, license_key, other)")
	productCreateCmd.Flags().StringVar(&productCreateProvider, "provider", "", "Upstream provider name (e.g. netflix)")
	productCreateCmd.MarkFlagRequired("provider")

	productReviewCmd.Flags().StringVar(&productReviewDecision, "decision", "", "Review decision (approved or rejected)")
	productReviewCmd.MarkFlagRequired("decision")

	productCmd.AddCommand(productListCmd)
	productCmd.AddCommand(productCreateCmd)
	productCmd.AddCommand(productReviewCmd)
	productCmd.AddCommand(productUseCmd)
}

func runProductList(cmd *cobra.Command, args []string) error {
	client, err := NewClient()
	if err != nil {
		return err
	}

	products, err := client.ListProducts()
	if err != nil {
		return err
	}

	if len(products) == 0 {
		fmt.Println("No products")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tPROVIDER\tSTOCK\tREVIEW")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			p.ID, p.Name, p.ServiceType, p.Provider, p.Stock, p.ReviewStatus)
	}
	return w.Flush()
}

func runProductCreate(cmd *cobra.Command, args []string) error {
	client, err := NewClient()
	if err != nil {
		return err
	}

	product, err := client.CreateProduct(args[0], productCreateServiceType, productCreateProvider)
	if err != nil {
		return err
	}

	fmt.Printf("Product %s created (%s), pending admin review\n", product.Name, product.ID)
	return nil
}

func runProductUse(cmd *cobra.Command, args []string) error {
	if err := SetDefaultProduct(args[0]); err != nil {
		return err
	}
	fmt.Printf("Default product set to %s\n", args[0])
	return nil
}

func runProductReview(cmd *cobra.Command, args []string) error {
	client, err := NewClient()
	if err != nil {
		return err
	}

	product, err := client.ReviewProduct(args[0], productReviewDecision)
	if err != nil {
		return err
	}

	fmt.Printf("Product %s is now %s\n", product.Name, product.ReviewStatus)
	return nil
}
