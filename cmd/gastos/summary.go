package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gastos/internal/budget"
	"gastos/internal/cli"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Monthly spending per category against budgets",
	RunE:  runSummary,
}

var tipsCmd = &cobra.Command{
	Use:   "tips",
	Short: "Spending advice for the month",
	RunE:  runTips,
}

var recurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "Recurring charges grouped by category",
	RunE:  runRecurring,
}

func init() {
	addPeriodFlags(summaryCmd)
	addPeriodFlags(tipsCmd)
	rootCmd.AddCommand(summaryCmd, tipsCmd, recurringCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	year, month := period()
	return withApp(cmd.Context(), cli.AppOptions{}, func(app *cli.App) error {
		s, err := app.Summaries.Month(cmd.Context(), year, month)
		if err != nil {
			return err
		}
		printSummary(year, month, s)
		return nil
	})
}

func runTips(cmd *cobra.Command, _ []string) error {
	year, month := period()
	return withApp(cmd.Context(), cli.AppOptions{}, func(app *cli.App) error {
		s, tips, err := app.Summaries.Tips(cmd.Context(), year, month)
		if err != nil {
			return err
		}
		printSummary(year, month, s)
		fmt.Println()
		for _, tip := range tips {
			fmt.Println("•", tip)
		}
		return nil
	})
}

func runRecurring(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), cli.AppOptions{}, func(app *cli.App) error {
		groups, err := app.Summaries.Recurring(cmd.Context())
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Println("No hay gastos recurrentes.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
		for _, g := range groups {
			fmt.Fprintf(w, "%s\t%s\t\n", g.Category, g.MonthlyTotal.FormatEuros())
			for _, e := range g.Charges {
				fmt.Fprintf(w, "  %s\t%s\t\n", e.Name, e.Amount.FormatEuros())
			}
		}
		return w.Flush()
	})
}

func printSummary(year, month int, s budget.Summary) {
	fmt.Printf("Resumen %04d-%02d\n\n", year, month)
	if len(s.Categories) == 0 {
		fmt.Println("Sin gastos este mes.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Categoría\tGastado\tPresupuesto\tUso\t")
	for _, c := range s.Categories {
		limit, usage := "-", "-"
		if c.HasBudget {
			limit = c.Limit.FormatEuros()
			switch {
			case c.Unbounded || math.IsInf(c.Percentage, 1):
				usage = "∞"
			default:
				usage = fmt.Sprintf("%.0f%%", c.Percentage)
			}
			if c.OverBudget {
				usage += " !"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", c.Category, c.Total.FormatEuros(), limit, usage)
		for _, sub := range c.Subcategories {
			fmt.Fprintf(w, "  %s\t%s\t\t\t\n", sub.Subcategory, sub.Total.FormatEuros())
		}
	}
	fmt.Fprintf(w, "Total\t%s\t%s\t\t\n", s.Total.FormatEuros(), s.Budgeted.FormatEuros())
	_ = w.Flush()
}
