package capture

import (
	"errors"

	"github.com/google/uuid"

	"gastos/internal/core"
	"gastos/internal/taxonomy"
)

// ErrInsufficientData is returned when no amount could be read. It is the only
// fatal outcome of a capture.
var ErrInsufficientData = errors.New("insufficient data: no amount recognised")

// DefaultThreshold is the minimum confidence accepted without confirmation.
const DefaultThreshold = 0.6

// Field names a CandidateExpense field that may need confirmation.
type Field string

const (
	FieldAmount      Field = "amount"
	FieldName        Field = "name"
	FieldCategory    Field = "category"
	FieldSubcategory Field = "subcategory"
	FieldPayment     Field = "paymentMethod"
	FieldDate        Field = "date"
)

// Defaults fill fields the utterance left out.
type Defaults struct {
	Today   core.Date
	Payment core.PaymentMethod
}

// CandidateExpense is a complete expense awaiting user confirmation.
type CandidateExpense struct {
	Expense           core.Expense
	Confidence        map[Field]float64
	NeedsConfirmation []Field
	// Alternatives holds the remaining resolver candidates, best first.
	Alternatives []Candidate
}

// Needs reports whether f was flagged for confirmation.
func (c CandidateExpense) Needs(f Field) bool {
	for _, n := range c.NeedsConfirmation {
		if n == f {
			return true
		}
	}
	return false
}

type Synthesizer struct {
	Threshold float64
	NewID     func() string
}

func NewSynthesizer(threshold float64) *Synthesizer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Synthesizer{Threshold: threshold, NewID: uuid.NewString}
}

// Synthesize always produces a full record unless the amount is missing.
// Guessed or defaulted fields are flagged rather than rejected.
func (s *Synthesizer) Synthesize(u Utterance, candidates []Candidate, snap *taxonomy.Snapshot, d Defaults) (CandidateExpense, error) {
	if u.Amount == nil {
		return CandidateExpense{}, ErrInsufficientData
	}
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	out := CandidateExpense{Confidence: map[Field]float64{}}
	flag := func(f Field, conf float64) {
		out.Confidence[f] = conf
		if conf < threshold {
			out.NeedsConfirmation = append(out.NeedsConfirmation, f)
		}
	}

	e := core.Expense{ID: newID(), Amount: *u.Amount, Recurring: u.Recurring}
	if u.AmountAdjacent {
		flag(FieldAmount, 1)
	} else {
		flag(FieldAmount, 0.8)
	}

	if len(candidates) > 0 {
		top := candidates[0]
		e.Category = top.Category
		flag(FieldCategory, top.Confidence)
		if top.Subcategory != "" {
			e.Subcategory = top.Subcategory
			flag(FieldSubcategory, top.SubConfidence)
		} else {
			e.Subcategory = firstSub(snap, top.Category)
			flag(FieldSubcategory, 0)
		}
		out.Alternatives = append([]Candidate(nil), candidates[1:]...)
	} else {
		if snap != nil {
			if first, ok := snap.First(); ok {
				e.Category = first.Name
				e.Subcategory = firstSub(snap, first.Name)
			}
		}
		flag(FieldCategory, 0)
		flag(FieldSubcategory, 0)
	}

	if u.Payment != nil && u.Payment.IsValid() {
		e.PaymentMethod = *u.Payment
		flag(FieldPayment, 1)
	} else {
		e.PaymentMethod = d.Payment
		if !e.PaymentMethod.IsValid() {
			e.PaymentMethod = core.Card
		}
		flag(FieldPayment, 0)
	}

	switch {
	case u.Date != nil && u.DateExplicit:
		e.Date = *u.Date
		flag(FieldDate, 1)
	case !d.Today.IsZero():
		e.Date = d.Today
		flag(FieldDate, 0)
	case u.Date != nil:
		e.Date = *u.Date
		flag(FieldDate, 0)
	}

	switch {
	case u.Residual != "":
		e.Name = capitalize(u.Residual)
		flag(FieldName, 1)
	case e.Subcategory != "":
		e.Name = e.Subcategory
		flag(FieldName, 0)
	default:
		e.Name = e.Category
		flag(FieldName, 0)
	}

	out.Expense = e
	return out, nil
}

func firstSub(snap *taxonomy.Snapshot, category string) string {
	if snap == nil {
		return ""
	}
	subs := snap.SubcategoriesOf(category)
	if len(subs) == 0 {
		return ""
	}
	return subs[0]
}
