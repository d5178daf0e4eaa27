package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gastos/internal/cli"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cat"},
	Short:   "Manage the category taxonomy",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories and their subcategories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), cli.AppOptions{}, func(app *cli.App) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, c := range app.Taxonomy.ListCategories() {
				fmt.Fprintf(w, "%s\t%s\n", c.Name, strings.Join(c.Subcategories, ", "))
			}
			return w.Flush()
		})
	},
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add <categoría> [subcategoría]",
	Short: "Add a category, or a subcategory to an existing category",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cli.AppOptions{}, func(app *cli.App) error {
			if len(args) == 2 {
				if err := app.Taxonomy.AddSubcategory(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Printf("Subcategoría %q añadida a %q\n", args[1], args[0])
				return nil
			}
			c, err := app.Taxonomy.AddCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Categoría %q añadida\n", c.Name)
			return nil
		})
	},
}

var categoriesRemoveCmd = &cobra.Command{
	Use:     "remove <categoría> [subcategoría]",
	Aliases: []string{"rm"},
	Short:   "Remove a category with its budget, or one of its subcategories",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cli.AppOptions{}, func(app *cli.App) error {
			if len(args) == 2 {
				if err := app.Taxonomy.RemoveSubcategory(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Printf("Subcategoría %q eliminada de %q\n", args[1], args[0])
				return nil
			}
			if err := app.Taxonomy.RemoveCategory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Categoría %q eliminada\n", args[0])
			return nil
		})
	},
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd, categoriesAddCmd, categoriesRemoveCmd)
	rootCmd.AddCommand(categoriesCmd)
}
