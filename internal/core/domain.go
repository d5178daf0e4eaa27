package core

import (
	"errors"
	"strings"
	"time"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Category is a named bucket with an ordered list of subcategories.
	// Subcategory order is insertion order and drives default selection.
	Category struct {
		Name          string
		Subcategories []string
	}

	Expense struct {
		ID            string
		Name          string
		Amount        Money
		Category      string
		Subcategory   string
		Date          Date
		PaymentMethod PaymentMethod
		Recurring     bool
	}

	// Budget caps the monthly spending of one category.
	Budget struct {
		Category     string
		MonthlyLimit Money
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty expense name")
	ErrEmptyCategory    = errors.New("empty category")
	ErrNameTooLong      = errors.New("name too long (max 200 characters)")
	ErrInvalidPayment   = errors.New("invalid payment method")
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrNegativeBudget   = errors.New("budget limit cannot be negative")
	ErrEmptyBudgetOwner = errors.New("budget category cannot be empty")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date in the timestamp's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// Validate accepts zero: expenses and budgets are non-negative.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 200 {
		return ErrNameTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if !e.PaymentMethod.IsValid() {
		return ErrInvalidPayment
	}
	return nil
}

// Edit returns a copy of the expense with fn applied; the receiver is left untouched.
func (e Expense) Edit(fn func(*Expense)) Expense {
	out := e
	fn(&out)
	return out
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyBudgetOwner
	}
	if b.MonthlyLimit.Cents < 0 {
		return ErrNegativeBudget
	}
	return nil
}

// Clone returns a deep copy of the category.
func (c Category) Clone() Category {
	return Category{Name: c.Name, Subcategories: append([]string(nil), c.Subcategories...)}
}
