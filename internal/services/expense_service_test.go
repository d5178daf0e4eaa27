package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/storage"
	"gastos/internal/storage/memory"
	"gastos/internal/taxonomy"
)

type recordedEvent struct {
	op amqp.Op
	e  core.Expense
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakePublisher) PublishExpense(_ context.Context, op amqp.Op, e core.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{op, e})
	return f.err
}

func seededStore(t *testing.T) *taxonomy.Store {
	t.Helper()
	seed, err := taxonomy.DefaultSeed()
	if err != nil {
		t.Fatalf("default seed: %v", err)
	}
	store, err := taxonomy.NewFromSeed(seed)
	if err != nil {
		t.Fatalf("apply seed: %v", err)
	}
	return store
}

func validExpense() core.Expense {
	return core.Expense{
		Name:          "Gasolina",
		Amount:        core.Money{Cents: 4500},
		Category:      "transporte",
		Subcategory:   "gasolina",
		Date:          core.NewDate(2026, 3, 15),
		PaymentMethod: core.Card,
	}
}

func TestExpenseService_CreateExpense(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	pub := &fakePublisher{}
	svc := NewExpenseService(repo, seededStore(t), pub, nil)
	svc.newID = func() string { return "fixed-id" }

	got, err := svc.CreateExpense(ctx, validExpense())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ID != "fixed-id" || got.Category != "Transporte" || got.Subcategory != "Gasolina" {
		t.Fatalf("expected canonical names and generated id, got %+v", got)
	}
	stored, err := repo.GetExpense(ctx, "fixed-id")
	if err != nil || stored != got {
		t.Fatalf("stored %+v (%v), want %+v", stored, err, got)
	}
	if len(pub.events) != 1 || pub.events[0].op != amqp.OpCreated {
		t.Fatalf("expected one created event, got %+v", pub.events)
	}
}

func TestExpenseService_CreateExpenseRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.Expense)
		want   error
	}{
		{"unknown category", func(e *core.Expense) { e.Category = "Mascotas" }, taxonomy.ErrUnknownCategory},
		{"subcategory of another category", func(e *core.Expense) { e.Subcategory = "Cine" }, taxonomy.ErrUnknownSubcategory},
		{"missing subcategory", func(e *core.Expense) { e.Subcategory = "" }, taxonomy.ErrUnknownSubcategory},
		{"negative amount", func(e *core.Expense) { e.Amount = core.Money{Cents: -1} }, core.ErrInvalidAmount},
		{"blank name", func(e *core.Expense) { e.Name = "   " }, core.ErrEmptyName},
		{"bad payment", func(e *core.Expense) { e.PaymentMethod = "Cheque" }, core.ErrInvalidPayment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.New()
			pub := &fakePublisher{}
			svc := NewExpenseService(repo, seededStore(t), pub, nil)

			e := validExpense()
			tt.mutate(&e)
			_, err := svc.CreateExpense(context.Background(), e)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !IsValidationError(err) {
				t.Fatalf("%v should count as a validation error", err)
			}
			if all, _ := repo.ListExpenses(context.Background(), storage.Filter{}); len(all) != 0 {
				t.Fatal("rejected expense must not be stored")
			}
			if len(pub.events) != 0 {
				t.Fatal("rejected expense must not be published")
			}
		})
	}
}

func TestExpenseService_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	svc := NewExpenseService(repo, seededStore(t), &fakePublisher{err: errors.New("broker down")}, nil)

	got, err := svc.CreateExpense(ctx, validExpense())
	if err != nil {
		t.Fatalf("publish errors must not fail creation: %v", err)
	}
	if _, err := repo.GetExpense(ctx, got.ID); err != nil {
		t.Fatalf("expense should be stored: %v", err)
	}
}

func TestExpenseService_DeleteExpense(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	pub := &fakePublisher{}
	svc := NewExpenseService(repo, seededStore(t), pub, nil)

	created, err := svc.CreateExpense(ctx, validExpense())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	removed, err := svc.DeleteExpense(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.ID != created.ID {
		t.Fatalf("removed %+v", removed)
	}
	if len(pub.events) != 2 || pub.events[1].op != amqp.OpDeleted || pub.events[1].e.Amount.Cents != 4500 {
		t.Fatalf("delete event should carry the expense: %+v", pub.events)
	}
	if _, err := svc.DeleteExpense(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpenseService_NilPublisher(t *testing.T) {
	svc := NewExpenseService(memory.New(), seededStore(t), nil, nil)
	if _, err := svc.CreateExpense(context.Background(), validExpense()); err != nil {
		t.Fatalf("create without publisher: %v", err)
	}
}

func TestExpenseService_ListExpenses(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(memory.New(), seededStore(t), nil, nil)
	for _, d := range []time.Month{time.March, time.March, time.April} {
		e := validExpense()
		e.Date = core.NewDate(2026, int(d), 1)
		if _, err := svc.CreateExpense(ctx, e); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	march, err := svc.ListExpenses(ctx, storage.Filter{Year: 2026, Month: 3})
	if err != nil || len(march) != 2 {
		t.Fatalf("expected 2 March expenses, got %d (%v)", len(march), err)
	}
}
