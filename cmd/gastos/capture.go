package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gastos/internal/capture"
	"gastos/internal/cli"
)

var (
	flagSave     bool
	flagDescribe bool
)

var captureCmd = &cobra.Command{
	Use:   "capture <texto>",
	Short: "Read a spoken or typed expense and show the candidate",
	Example: `  gastos capture "veinte euros en comida con tarjeta"
  gastos capture --save "45 euros gasolina ayer"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().BoolVarP(&flagSave, "save", "s", false, "Store the candidate as read")
	captureCmd.Flags().BoolVar(&flagDescribe, "describe", false, "Let the assistant rephrase text without an amount")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	return withApp(cmd.Context(), cli.AppOptions{Publish: flagSave}, func(app *cli.App) error {
		ctx := cmd.Context()
		var (
			cand      capture.CandidateExpense
			utterance = text
			err       error
		)
		if flagDescribe {
			cand, utterance, err = app.Capture.CaptureDescribed(ctx, text)
		} else {
			cand, err = app.Capture.Capture(ctx, text)
		}
		if err != nil {
			return err
		}

		if utterance != text {
			fmt.Printf("Interpretado como: %q\n", utterance)
		}
		printCandidate(cand)

		if !flagSave {
			return nil
		}
		saved, err := app.Expenses.CreateExpense(ctx, cand.Expense)
		if err != nil {
			return err
		}
		fmt.Printf("\nGuardado con id %s\n", saved.ID)
		return nil
	})
}

func printCandidate(c capture.CandidateExpense) {
	e := c.Expense
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	rows := []struct {
		label string
		value string
		field capture.Field
	}{
		{"Nombre", e.Name, capture.FieldName},
		{"Importe", e.Amount.FormatEuros(), capture.FieldAmount},
		{"Categoría", e.Category, capture.FieldCategory},
		{"Subcategoría", e.Subcategory, capture.FieldSubcategory},
		{"Fecha", e.Date.String(), capture.FieldDate},
		{"Forma de pago", string(e.PaymentMethod), capture.FieldPayment},
	}
	for _, r := range rows {
		mark := ""
		if c.Needs(r.field) {
			mark = "confirmar"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.label, r.value, mark)
	}
	_ = w.Flush()

	if len(c.Alternatives) > 0 {
		fmt.Println("\nAlternativas:")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, a := range c.Alternatives {
			fmt.Fprintf(w, "  %s\t%s\t%.2f\n", a.Category, a.Subcategory, a.Confidence)
		}
		_ = w.Flush()
	}
}
