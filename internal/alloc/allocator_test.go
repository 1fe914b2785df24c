package alloc

import "testing"

func TestAllocSequential(t *testing.T) {
	a := New(64)

	addr1 := a.Alloc(100)
	if addr1 != 64 {
		t.Errorf("first Alloc = %d; want 64", addr1)
	}

	addr2 := a.Alloc(50)
	if addr2 != 164 {
		t.Errorf("second Alloc = %d; want 164", addr2)
	}

	if a.EOFAddr() != 214 {
		t.Errorf("EOFAddr = %d; want 214", a.EOFAddr())
	}
}

func TestAllocZeroSize(t *testing.T) {
	a := New(64)
	addr := a.Alloc(0)
	if addr != 64 {
		t.Errorf("zero-size Alloc = %d; want 64", addr)
	}
	if a.EOFAddr() != 64 {
		t.Errorf("EOFAddr after zero-size Alloc = %d; want 64", a.EOFAddr())
	}
	if a.Stats().TotalAllocations != 0 {
		t.Error("zero-size Alloc should not count as an allocation")
	}
}

func TestStats(t *testing.T) {
	a := New(0)
	a.Alloc(10)
	a.Alloc(30)
	a.Alloc(20)

	s := a.Stats()
	if s.TotalAllocations != 3 {
		t.Errorf("TotalAllocations = %d; want 3", s.TotalAllocations)
	}
	if s.TotalBytesAlloc != 60 {
		t.Errorf("TotalBytesAlloc = %d; want 60", s.TotalBytesAlloc)
	}
	if s.LargestAlloc != 30 {
		t.Errorf("LargestAlloc = %d; want 30", s.LargestAlloc)
	}
}
