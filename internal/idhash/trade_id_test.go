package idhash

import (
	"testing"
	"time"
)

func TestComputeTradeID_Deterministic(t *testing.T) {
	at := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	id1 := ComputeTradeID(1, 42, 1001, at)
	id2 := ComputeTradeID(1, 42, 1001, at)

	if id1 != id2 {
		t.Errorf("same inputs produced different ids: %s vs %s", id1, id2)
	}
	if len(id1) != 64 {
		t.Errorf("expected 64-char hex id, got %d chars", len(id1))
	}
}

func TestComputeTradeID_DistinctInputs(t *testing.T) {
	at := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	base := ComputeTradeID(1, 42, 1001, at)

	if ComputeTradeID(2, 42, 1001, at) == base {
		t.Error("different user produced same id")
	}
	if ComputeTradeID(1, 43, 1001, at) == base {
		t.Error("different instrument produced same id")
	}
	if ComputeTradeID(1, 42, 1002, at) == base {
		t.Error("different execution produced same id")
	}
	if ComputeTradeID(1, 42, 1001, at.Add(time.Millisecond)) == base {
		t.Error("different timestamp produced same id")
	}
}

func TestComputeTradeID_TimezoneNormalized(t *testing.T) {
	utc := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	est := utc.In(time.FixedZone("EST", -5*3600))

	if ComputeTradeID(1, 42, 1001, utc) != ComputeTradeID(1, 42, 1001, est) {
		t.Error("same instant in different zones produced different ids")
	}
}
