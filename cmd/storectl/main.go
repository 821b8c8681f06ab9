// storectl is the operator CLI: catalog seeding and account administration
// against the same data directory the server uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fiestaliquor/storefront/internal/models"
	"github.com/fiestaliquor/storefront/internal/repository"
)

var dataDir string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "storectl",
		Short:        "Manage the storefront data directory",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", envOr("DATA_DIR", "data"), "directory holding the JSON data files")

	root.AddCommand(seedProductsCmd())
	root.AddCommand(makeAdminCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func seedProductsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-products",
		Short: "Replace the product catalog with the contents of a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading catalog file: %w", err)
			}

			var products []models.Product
			if err := json.Unmarshal(data, &products); err != nil {
				return fmt.Errorf("parsing catalog file: %w", err)
			}
			if len(products) == 0 {
				return fmt.Errorf("catalog file %s contains no products", file)
			}

			repo := repository.NewFileProductRepository(dataDir)
			if err := repo.Seed(context.Background(), products); err != nil {
				return fmt.Errorf("seeding catalog: %w", err)
			}

			fmt.Printf("Seeded %d products into %s\n", len(products), dataDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to the catalog JSON file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func makeAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "make-admin <email>",
		Short: "Grant the admin role to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := repository.NewFileUserRepository(dataDir)
			if err := repo.SetRole(context.Background(), args[0], models.RoleAdmin); err != nil {
				return fmt.Errorf("setting role: %w", err)
			}
			fmt.Printf("Granted admin to %s\n", args[0])
			return nil
		},
	}
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
