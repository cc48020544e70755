package cmd

import (
	"fmt"
	"io"
	"nutrition-catalog/cmd/config"
	"nutrition-catalog/domain"
	"nutrition-catalog/pkg/catalog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	var (
		user     domain.Identity
		category string
		search   string
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the merged catalog as a user sees it",
		Example: `  nutrition-catalog catalog --user alice --category fruits
  nutrition-catalog catalog --search "greek"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var criteria catalog.Criteria
			if category != "" {
				parsed, err := domain.ParseCategory(category)
				if err != nil {
					return err
				}
				criteria.Category = parsed
			}
			criteria.Search = search

			backends, closeBackends, err := config.OpenBackends(cmd.Context())
			if err != nil {
				return err
			}
			defer closeBackends()
			svc := config.NewServices(backends)
			defer svc.Assets.Close()

			agg := svc.Sessions.For(user)
			snap, err := agg.Load(cmd.Context(), user)
			if err != nil {
				return err
			}
			if len(snap.Degraded) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: unavailable sources: %s\n", strings.Join(snap.Degraded, ", "))
			}
			return printItems(cmd.OutOrStdout(), agg.SetFilter(criteria))
		},
	}

	cmd.Flags().StringVar(&user.ID, "user", "", "Show the catalog as this user id")
	cmd.Flags().StringVar(&user.Email, "email", "", "Email of --user")
	cmd.Flags().StringVar(&category, "category", "", "Only this category")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive name search")

	return cmd
}

func printItems(out io.Writer, items []domain.CatalogItem) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tKCAL\tP\tC\tF\tSERVING\tSOURCE")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.0fg\t%s\n",
			item.ID, item.Name, item.Category, item.Calories, item.Protein, item.Carbs, item.Fat,
			item.ServingSizeGrams, item.Source)
	}
	return w.Flush()
}
