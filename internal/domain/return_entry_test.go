package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func returnEntry(amount int64) *ReturnEntry {
	return &ReturnEntry{
		ID:         uuid.New(),
		Amount:     decimal.NewFromInt(amount),
		ReturnDate: time.Now(),
	}
}

func TestTotalReturned_SumsEntriesAndLegacyField(t *testing.T) {
	record := validRecord()
	record.Amount = decimal.NewFromInt(100)
	record.PartialReturnAmount = decimal.NewFromInt(20)

	returns := []*ReturnEntry{returnEntry(30), returnEntry(10)}

	total := TotalReturned(record, returns)
	if !total.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected total 60, got %s", total)
	}
}

func TestTotalReturned_NoHistory(t *testing.T) {
	record := validRecord()
	record.PartialReturnAmount = decimal.Zero

	total := TotalReturned(record, nil)
	if !total.IsZero() {
		t.Errorf("expected zero, got %s", total)
	}
}

func TestRemainingBalance_Basic(t *testing.T) {
	record := validRecord()
	record.Amount = decimal.NewFromInt(100)

	remaining := RemainingBalance(record, []*ReturnEntry{returnEntry(40)})
	if !remaining.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected remaining 60, got %s", remaining)
	}
}

func TestRemainingBalance_ClampedAtZero(t *testing.T) {
	record := validRecord()
	record.Amount = decimal.NewFromInt(100)
	record.PartialReturnAmount = decimal.NewFromInt(50)

	// Legacy field plus entries overshoot the principal
	remaining := RemainingBalance(record, []*ReturnEntry{returnEntry(80)})
	if !remaining.IsZero() {
		t.Errorf("expected remaining clamped to zero, got %s", remaining)
	}
}

func TestRemainingBalance_OrderIndependent(t *testing.T) {
	record := validRecord()
	record.Amount = decimal.NewFromInt(100)

	a := []*ReturnEntry{returnEntry(30), returnEntry(20), returnEntry(10)}
	b := []*ReturnEntry{a[2], a[0], a[1]}

	if !RemainingBalance(record, a).Equal(RemainingBalance(record, b)) {
		t.Error("remaining balance must not depend on entry order")
	}
}

func TestIsFullSettlementAllowed(t *testing.T) {
	record := validRecord()
	record.Amount = decimal.NewFromInt(100)

	if !IsFullSettlementAllowed(record, nil) {
		t.Error("fresh record must allow full settlement")
	}

	// Any return entry closes the full-settlement path
	if IsFullSettlementAllowed(record, []*ReturnEntry{returnEntry(10)}) {
		t.Error("record with return history must not allow full settlement")
	}

	// The legacy cumulative field closes it too
	record.PartialReturnAmount = decimal.NewFromInt(5)
	if IsFullSettlementAllowed(record, nil) {
		t.Error("record with legacy partial amount must not allow full settlement")
	}
}

func TestIsFullSettlementAllowed_ZeroRemaining(t *testing.T) {
	record := validRecord()
	record.Amount = decimal.NewFromInt(100)
	record.PartialReturnAmount = decimal.NewFromInt(100)

	if IsFullSettlementAllowed(record, nil) {
		t.Error("record with nothing outstanding must not allow full settlement")
	}
}
