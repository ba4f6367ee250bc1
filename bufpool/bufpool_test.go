package bufpool

import "testing"

func TestGetPutReuse(t *testing.T) {
	p := New()
	b := p.Get(100)
	if len(b) != 100 {
		t.Fatalf("len = %d, want 100", len(b))
	}
	origCap := cap(b)
	p.Put(b)

	b2 := p.Get(90)
	if cap(b2) != origCap {
		t.Fatalf("expected reused backing array of cap %d, got %d", origCap, cap(b2))
	}
}

func TestClassSizeMonotonic(t *testing.T) {
	if classSize(1) < 256 {
		t.Fatalf("classSize(1) = %d, want >= 256", classSize(1))
	}
	if classSize(300) != 512 {
		t.Fatalf("classSize(300) = %d, want 512", classSize(300))
	}
}

func TestDefaultShared(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default() should return the same instance")
	}
}
