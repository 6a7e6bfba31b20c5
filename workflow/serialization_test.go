package workflow

import (
	"errors"
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/garage_backend/models"
	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"github.com/shopspring/decimal"
)

// These tests are intentionally DB-free. They validate the serialization
// semantics the per-invoice lock is meant to provide: concurrent transition
// attempts on one invoice resolve to exactly one winner, and the losers see
// a clean transition error instead of corrupted state.

type fakeLocker struct {
	mu      sync.Mutex
	byKey   map[string]*sync.Mutex
	holders int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{byKey: map[string]*sync.Mutex{}}
}

func (l *fakeLocker) with(key string, fn func()) {
	l.mu.Lock()
	km := l.byKey[key]
	if km == nil {
		km = &sync.Mutex{}
		l.byKey[key] = km
	}
	l.mu.Unlock()

	km.Lock()
	defer km.Unlock()
	fn()
}

func draftForTest(t *testing.T) *models.Invoice {
	t.Helper()
	price := decimal.NewFromFloat(12.50)
	inv, err := models.NewDraftInvoice(&models.NewInvoice{
		CustomerName: "Sok Dara",
		TaxRate:      decimal.NewFromInt(10),
		Items: []models.NewInvoiceItem{
			{Description: "Oil change", Quantity: 2, UnitPrice: &price},
		},
	})
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}
	return inv
}

func TestConcurrentTransitions_ExactlyOneWinner(t *testing.T) {
	inv := draftForTest(t)
	locker := newFakeLocker()

	const workers = 16
	var wg sync.WaitGroup
	var winners, losers int
	var countMu sync.Mutex

	for i := 0; i < workers; i++ {
		markPaid := i%2 == 0
		wg.Add(1)
		go func() {
			defer wg.Done()
			locker.with("Invoice:1", func() {
				var err error
				if markPaid {
					err = inv.MarkPaid()
				} else {
					err = inv.Cancel()
				}
				countMu.Lock()
				defer countMu.Unlock()
				if err == nil {
					winners++
				} else if errors.Is(err, utils.ErrorInvalidTransition) {
					losers++
				} else {
					t.Errorf("unexpected error: %v", err)
				}
			})
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winning transition, got %d", winners)
	}
	if losers != workers-1 {
		t.Fatalf("expected %d losers, got %d", workers-1, losers)
	}
	if !inv.CurrentStatus.IsTerminal() {
		t.Fatalf("invoice left in non-terminal state %s", inv.CurrentStatus)
	}
}

func TestConcurrentItemEdits_SerializedPerInvoice(t *testing.T) {
	inv := draftForTest(t)
	locker := newFakeLocker()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locker.with("Invoice:1", func() {
				if _, err := inv.AddItem(); err != nil {
					t.Errorf("AddItem error: %v", err)
				}
			})
		}()
	}
	wg.Wait()

	if len(inv.Items) != workers+1 {
		t.Fatalf("expected %d items, got %d", workers+1, len(inv.Items))
	}
	// positions stay dense under serialization
	for i, item := range inv.Items {
		if item.Position != i {
			t.Fatalf("item %d has position %d", i, item.Position)
		}
	}
}
