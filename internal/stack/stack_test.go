package stack

import "testing"

func TestPushPop(t *testing.T) {
	var s Stack
	s.Push(Const(1))
	s.Push(Temp("n1"))
	c, ok := s.Pop()
	if !ok || c.Kind != CellTemp || c.Temp != "n1" {
		t.Fatalf("expected temp cell n1, got %+v ok=%v", c, ok)
	}
	c, ok = s.Pop()
	if !ok || c.Kind != CellConst || c.ConstIdx != 1 {
		t.Fatalf("expected const cell 1, got %+v ok=%v", c, ok)
	}
	if !s.Empty() {
		t.Fatalf("stack should be empty after popping both cells")
	}
}

func TestPopUnderflow(t *testing.T) {
	var s Stack
	if _, ok := s.Pop(); ok {
		t.Fatalf("pop on empty stack should report ok=false")
	}
}

func TestPopN(t *testing.T) {
	var s Stack
	s.Push(Const(1))
	s.Push(Const(2))
	s.Push(Const(3))
	cells, ok := s.PopN(2)
	if !ok || len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %v ok=%v", cells, ok)
	}
	if cells[0].ConstIdx != 2 || cells[1].ConstIdx != 3 {
		t.Fatalf("PopN should preserve bottom-to-top order, got %+v", cells)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 cell remaining, got %d", s.Len())
	}
}

func TestPopNOverflow(t *testing.T) {
	var s Stack
	s.Push(Const(1))
	if _, ok := s.PopN(5); ok {
		t.Fatalf("PopN should fail when n exceeds stack depth")
	}
}

func TestSnapshotRestore(t *testing.T) {
	var s Stack
	s.Push(Const(1))
	s.Push(Const(2))
	snap := s.Snapshot()
	s.Push(Const(3))
	s.Restore(snap)
	if s.Len() != 2 {
		t.Fatalf("restore should reset to the snapshot's length, got %d", s.Len())
	}
}

func TestReset(t *testing.T) {
	var s Stack
	s.Push(Const(1))
	s.Reset()
	if !s.Empty() {
		t.Fatalf("reset should empty the stack")
	}
}
