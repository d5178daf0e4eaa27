package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gastos/internal/budget"
	"gastos/internal/core"
	"gastos/internal/log"
)

const maxTips = 5

// Assistant is safe for concurrent use when its producer is.
type Assistant struct {
	producer TextProducer
	logger   *log.Logger
}

// NewAssistant accepts a nil producer; every call then uses the local fallback.
func NewAssistant(producer TextProducer, logger *log.Logger) *Assistant {
	if logger == nil {
		logger = log.Discard()
	}
	return &Assistant{producer: producer, logger: logger.WithComponent(log.ComponentAssist)}
}

// Enabled reports whether a model is configured.
func (a *Assistant) Enabled() bool {
	return a.producer != nil
}

const suggestPrompt = `Reescribe la siguiente descripción de un gasto como una frase corta en español,
como la diría una persona al registrar el gasto en voz alta. Incluye el importe con la palabra "euros"
si aparece, la forma de pago si aparece (tarjeta, efectivo, bizum, transferencia) y el concepto.
Responde solo con la frase, sin comillas ni explicaciones.

Categorías disponibles: %s

Descripción: %s`

// Suggest rephrases a free-text description into a capture utterance. Without
// a model, or when the model fails, the description is returned unchanged.
func (a *Assistant) Suggest(ctx context.Context, description string, categories []core.Category) string {
	description = strings.TrimSpace(description)
	if a.producer == nil || description == "" {
		return description
	}

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	out, err := a.producer.Produce(ctx, fmt.Sprintf(suggestPrompt, strings.Join(names, ", "), description))
	if err != nil {
		a.logger.WarnContext(ctx, "Suggestion failed, using original description", log.FieldError, err)
		return description
	}
	line := strings.TrimSpace(strings.SplitN(cleanModelOutput(out), "\n", 2)[0])
	line = strings.Trim(line, `"'«»`)
	if line == "" {
		return description
	}
	a.logger.DebugContext(ctx, "Suggested utterance", "input", description, "output", line)
	return line
}

const tipsPrompt = `Eres un asesor de finanzas personales. Con el resumen mensual de gastos siguiente,
escribe como máximo %d consejos breves en español para ajustarse a los presupuestos.
Responde solo con un array JSON de cadenas.

%s`

// Tips returns budget advice for the summary, from the model when possible.
func (a *Assistant) Tips(ctx context.Context, s budget.Summary) []string {
	if a.producer == nil {
		return LocalTips(s)
	}
	out, err := a.producer.Produce(ctx, fmt.Sprintf(tipsPrompt, maxTips, describe(s)))
	if err != nil {
		a.logger.WarnContext(ctx, "Tips generation failed, using local tips", log.FieldError, err)
		return LocalTips(s)
	}
	tips, err := parseTips(out)
	if err != nil || len(tips) == 0 {
		a.logger.WarnContext(ctx, "Unusable tips from model, using local tips", log.FieldError, err)
		return LocalTips(s)
	}
	return tips
}

func parseTips(raw string) ([]string, error) {
	var tips []string
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &tips); err != nil {
		// Plain lines, optionally bulleted.
		for _, line := range strings.Split(cleanModelOutput(raw), "\n") {
			line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•0123456789.) "))
			if line != "" {
				tips = append(tips, line)
			}
		}
		if len(tips) == 0 {
			return nil, fmt.Errorf("parse tips: %w", err)
		}
	}
	out := tips[:0]
	for _, t := range tips {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) > maxTips {
		out = out[:maxTips]
	}
	return out, nil
}

func describe(s budget.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total gastado: %s\n", s.Total.FormatEuros())
	for _, c := range s.Categories {
		fmt.Fprintf(&b, "- %s: %s", c.Category, c.Total.FormatEuros())
		if c.HasBudget {
			fmt.Fprintf(&b, " de %s presupuestados", c.Limit.FormatEuros())
			if !c.Unbounded {
				fmt.Fprintf(&b, " (%.0f%%)", c.Percentage)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// LocalTips derives advice from the summary alone.
func LocalTips(s budget.Summary) []string {
	var over, near []budget.CategoryTotal
	for _, c := range s.Categories {
		if !c.HasBudget {
			continue
		}
		switch {
		case c.OverBudget:
			over = append(over, c)
		case c.Percentage >= 80:
			near = append(near, c)
		}
	}
	sort.SliceStable(over, func(i, j int) bool { return over[i].Percentage > over[j].Percentage })
	sort.SliceStable(near, func(i, j int) bool { return near[i].Percentage > near[j].Percentage })

	var tips []string
	for _, c := range over {
		if c.Unbounded || math.IsInf(c.Percentage, 1) {
			tips = append(tips, fmt.Sprintf("%s tiene un presupuesto de cero y ya llevas %s. Define un límite mensual realista.",
				c.Category, c.Total.FormatEuros()))
			continue
		}
		tips = append(tips, fmt.Sprintf("Has superado el presupuesto de %s en %s (%.0f%%). Reduce estos gastos el resto del mes.",
			c.Category, core.Money{Cents: -c.Remaining().Cents}.FormatEuros(), c.Percentage))
	}
	for _, c := range near {
		tips = append(tips, fmt.Sprintf("%s está al %.0f%% del presupuesto; te quedan %s.",
			c.Category, c.Percentage, c.Remaining().FormatEuros()))
	}
	if len(tips) == 0 {
		tips = append(tips, "Vas bien: ninguna categoría se acerca a su presupuesto este mes.")
	}
	if len(tips) > maxTips {
		tips = tips[:maxTips]
	}
	return tips
}
