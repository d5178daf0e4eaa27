package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"gastos/internal/core"
)

// Op names what happened to the expense carried by an event.
type Op string

const (
	OpCreated Op = "created"
	OpDeleted Op = "deleted"
)

// ExpenseEvent is published after a confirmed expense is stored or removed.
// It carries the full expense so consumers never read the database.
type ExpenseEvent struct {
	Op         Op             `json:"op"`
	Expense    ExpensePayload `json:"expense"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// ExpensePayload is the wire form of core.Expense.
type ExpensePayload struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AmountCents   int64  `json:"amount_cents"`
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory"`
	Date          string `json:"date"`
	PaymentMethod string `json:"payment_method"`
	Recurring     bool   `json:"recurring"`
}

func NewExpenseEvent(op Op, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Op: op,
		Expense: ExpensePayload{
			ID:            e.ID,
			Name:          e.Name,
			AmountCents:   e.Amount.Cents,
			Category:      e.Category,
			Subcategory:   e.Subcategory,
			Date:          e.Date.String(),
			PaymentMethod: string(e.PaymentMethod),
			Recurring:     e.Recurring,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// ToExpense converts the payload back into a domain value.
func (p ExpensePayload) ToExpense() (core.Expense, error) {
	d, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("event date %q: %w", p.Date, err)
	}
	return core.Expense{
		ID:            p.ID,
		Name:          p.Name,
		Amount:        core.Money{Cents: p.AmountCents},
		Category:      p.Category,
		Subcategory:   p.Subcategory,
		Date:          d,
		PaymentMethod: core.PaymentMethod(p.PaymentMethod),
		Recurring:     p.Recurring,
	}, nil
}

func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpCreated, OpDeleted:
	default:
		return nil, fmt.Errorf("unknown event op %q", msg.Op)
	}
	return &msg, nil
}
