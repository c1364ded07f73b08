package model

import "testing"

func TestAccumulatorKeepsBatchOrder(t *testing.T) {
	var acc Accumulator[int]
	acc.Add([]int{1, 2})
	acc.Add(nil)
	acc.Add([]int{3})

	if acc.Len() != 3 {
		t.Fatalf("Len: want 3, got %d", acc.Len())
	}
	if acc.Batches() != 2 {
		t.Errorf("Batches: want 2 (empty batch skipped), got %d", acc.Batches())
	}
	got := acc.Rows()
	want := []int{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Rows: want %v, got %v", want, got)
		}
	}
}

func TestZoneKeyGameState(t *testing.T) {
	k := ZoneKey{Season: 2022, TeamID: "t1", Zone: 4, GameState: NoGameState}
	if k.HasGameState() || k.GameStatePtr() != nil {
		t.Error("expected no game state")
	}
	k.GameState = -1
	if p := k.GameStatePtr(); p == nil || *p != -1 {
		t.Errorf("expected game state -1, got %v", p)
	}
}
