package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gastos/internal/cli"
	"gastos/internal/core"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage monthly budgets",
}

var budgetSetCmd = &cobra.Command{
	Use:     "set <categoría> <límite>",
	Short:   "Create or replace a category's monthly limit",
	Example: "  gastos budget set Ocio 150\n  gastos budget set comida 320,50",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := core.ParseMoney(args[1])
		if err != nil {
			return fmt.Errorf("límite %q: %w", args[1], err)
		}
		return withApp(cmd.Context(), cli.AppOptions{}, func(app *cli.App) error {
			b, err := app.Taxonomy.SetBudget(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			fmt.Printf("Presupuesto de %s: %s al mes\n", b.Category, b.MonthlyLimit.FormatEuros())
			return nil
		})
	},
}

var budgetRemoveCmd = &cobra.Command{
	Use:     "remove <categoría>",
	Aliases: []string{"rm"},
	Short:   "Remove a category's budget",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cli.AppOptions{}, func(app *cli.App) error {
			if err := app.Taxonomy.RemoveBudget(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Presupuesto de %q eliminado\n", args[0])
			return nil
		})
	},
}

var budgetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List budgets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), cli.AppOptions{}, func(app *cli.App) error {
			budgets := app.Taxonomy.ListBudgets()
			if len(budgets) == 0 {
				fmt.Println("No hay presupuestos definidos.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, b := range budgets {
				fmt.Fprintf(w, "%s\t%s\n", b.Category, b.MonthlyLimit.FormatEuros())
			}
			return w.Flush()
		})
	},
}

func init() {
	budgetCmd.AddCommand(budgetSetCmd, budgetListCmd, budgetRemoveCmd)
	rootCmd.AddCommand(budgetCmd)
}
