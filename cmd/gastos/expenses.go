package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gastos/internal/cli"
	"gastos/internal/storage"
)

var flagCategory string

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "List or delete stored expenses",
}

var expensesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the month's expenses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		year, month := period()
		return withApp(cmd.Context(), cli.AppOptions{}, func(app *cli.App) error {
			expenses, err := app.Expenses.ListExpenses(cmd.Context(), storage.Filter{
				Year: year, Month: month, Category: flagCategory,
			})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, e := range expenses {
				recurring := ""
				if e.Recurring {
					recurring = "recurrente"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s/%s\t%s\t%s\t%s\n",
					e.Date, e.ID, e.Name, e.Category, e.Subcategory, e.Amount.FormatEuros(), e.PaymentMethod, recurring)
			}
			return w.Flush()
		})
	},
}

var expensesDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an expense by id",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cli.AppOptions{Publish: true}, func(app *cli.App) error {
			e, err := app.Expenses.DeleteExpense(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Eliminado: %s %s (%s)\n", e.Name, e.Amount.FormatEuros(), e.Date)
			return nil
		})
	},
}

func init() {
	addPeriodFlags(expensesListCmd)
	expensesListCmd.Flags().StringVarP(&flagCategory, "category", "c", "", "Only this category")
	expensesCmd.AddCommand(expensesListCmd, expensesDeleteCmd)
	rootCmd.AddCommand(expensesCmd)
}
