package console

import (
	"bytes"
	"testing"
)

func TestTransmitCRLF(t *testing.T) {
	var out bytes.Buffer
	u := New(&out)

	// a guest writing "\r\n" should produce a single host newline, and a
	// bare "\n" on its own should pass through unchanged.
	if err := u.StoreControl(0, Base, '\r'); err != nil {
		t.Fatalf("store \\r: %v", err)
	}
	if err := u.StoreControl(0, Base, '\n'); err != nil {
		t.Fatalf("store \\n: %v", err)
	}
	if err := u.StoreControl(0, Base, 'A'); err != nil {
		t.Fatalf("store A: %v", err)
	}
	if err := u.StoreControl(0, Base, '\n'); err != nil {
		t.Fatalf("store \\n: %v", err)
	}

	want := "\nA\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestFeedAndReadRBR(t *testing.T) {
	u := New(&bytes.Buffer{})
	u.Feed([]byte("hi"))

	v, err := u.LoadControl(0, Base) // RBR
	if err != nil {
		t.Fatalf("load rbr: %v", err)
	}
	if v != 'h' {
		t.Fatalf("rbr = %q, want 'h'", v)
	}

	lsr, err := u.LoadControl(0, Base+5)
	if err != nil {
		t.Fatalf("load lsr: %v", err)
	}
	if lsr&lsrDataReady == 0 {
		t.Fatalf("lsr should still report data ready for the second byte")
	}

	v, err = u.LoadControl(0, Base)
	if err != nil {
		t.Fatalf("load rbr: %v", err)
	}
	if v != 'i' {
		t.Fatalf("rbr = %q, want 'i'", v)
	}

	lsr, _ = u.LoadControl(0, Base+5)
	if lsr&lsrDataReady != 0 {
		t.Fatalf("lsr should clear data-ready once the queue drains")
	}
}

func TestLoopbackMode(t *testing.T) {
	var out bytes.Buffer
	u := New(&out)
	if err := u.StoreControl(0, Base+4, mcrLoop); err != nil { // MCR: set loopback
		t.Fatalf("store mcr: %v", err)
	}
	if err := u.StoreControl(0, Base, 'x'); err != nil {
		t.Fatalf("store thr: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("loopback mode must not reach the host writer, got %q", out.String())
	}
	v, _ := u.LoadControl(0, Base)
	if v != 'x' {
		t.Fatalf("loopback rbr = %q, want 'x'", v)
	}
}

func TestOutsideWindowIgnored(t *testing.T) {
	u := New(&bytes.Buffer{})
	v, err := u.LoadControl(0, Base+Size)
	if err != nil || v != 0 {
		t.Fatalf("load past the register window: v=%d err=%v", v, err)
	}
}
