package binary

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecoderIntegers(t *testing.T) {
	data := []byte{
		0xAB,
		0x34, 0x12,
		0x78, 0x56, 0x34, 0x12,
		0xEF, 0xCD, 0xAB, 0x89, 0x67, 0x45, 0x23, 0x01,
	}
	d := NewDecoder(data, DefaultConfig())

	if v := d.Uint8(); v != 0xAB {
		t.Errorf("Uint8 = 0x%X, want 0xAB", v)
	}
	if v := d.Uint16(); v != 0x1234 {
		t.Errorf("Uint16 = 0x%X, want 0x1234", v)
	}
	if v := d.Uint32(); v != 0x12345678 {
		t.Errorf("Uint32 = 0x%X, want 0x12345678", v)
	}
	if v := d.Uint64(); v != 0x0123456789ABCDEF {
		t.Errorf("Uint64 = 0x%X, want 0x0123456789ABCDEF", v)
	}
	if d.Err() != nil {
		t.Fatalf("unexpected error: %v", d.Err())
	}
	if d.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", d.Remaining())
	}
}

func TestDecoderOffsetWidths(t *testing.T) {
	tests := []struct {
		name string
		size int
		data []byte
		want uint64
	}{
		{"2-byte", 2, []byte{0x34, 0x12}, 0x1234},
		{"4-byte", 4, []byte{0x78, 0x56, 0x34, 0x12}, 0x12345678},
		{"8-byte", 8, []byte{1, 0, 0, 0, 0, 0, 0, 0}, 1},
		{"4-byte undefined", 4, []byte{0xFF, 0xFF, 0xFF, 0xFF}, Undefined},
		{"8-byte undefined", 8, bytes.Repeat([]byte{0xFF}, 8), Undefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(tt.data, Config{OffsetSize: tt.size, LengthSize: tt.size})
			if got := d.Offset(); got != tt.want {
				t.Errorf("Offset() = 0x%X, want 0x%X", got, tt.want)
			}
		})
	}
}

func TestDecoderStickyError(t *testing.T) {
	d := NewDecoder([]byte{1, 2, 3}, DefaultConfig())
	_ = d.Uint32()
	if !errors.Is(d.Err(), ErrShortBuffer) {
		t.Fatalf("expected ErrShortBuffer, got %v", d.Err())
	}
	if v := d.Uint8(); v != 0 {
		t.Errorf("expected zero after failure, got %d", v)
	}
	if d.Pos() != 0 {
		t.Errorf("failed read must not advance, pos = %d", d.Pos())
	}
}

func TestDecoderCString(t *testing.T) {
	d := NewDecoder([]byte("Point\x00rest"), DefaultConfig())
	if s := d.CString(); s != "Point" {
		t.Errorf("CString = %q, want %q", s, "Point")
	}
	if d.Pos() != 6 {
		t.Errorf("Pos = %d, want 6", d.Pos())
	}
	_ = d.CString()
	if !errors.Is(d.Err(), ErrShortBuffer) {
		t.Errorf("expected unterminated string error, got %v", d.Err())
	}
}

func TestReaderDecoder(t *testing.T) {
	data := []byte{0, 0, 0, 0, 0x2A, 0, 0, 0, 0, 0, 0, 0}
	r := NewReader(bytes.NewReader(data), DefaultConfig())

	d, err := r.Decoder(4, 8)
	if err != nil {
		t.Fatalf("Decoder: %v", err)
	}
	if v := d.Offset(); v != 42 {
		t.Errorf("Offset = %d, want 42", v)
	}

	if _, err := r.ReadAt(8, 16); err == nil {
		t.Error("expected error reading past end of input")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	if err := (Config{OffsetSize: 3, LengthSize: 8}).Validate(); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}
