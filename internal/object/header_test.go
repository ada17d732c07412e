package object

import (
	"bytes"
	"errors"
	"testing"

	"github.com/robert-malhotra/h5stream/internal/binary"
	"github.com/robert-malhotra/h5stream/internal/message"
)

var cfg = binary.DefaultConfig()

func datasetMessages(n uint64) []message.Encoder {
	layout := message.NewChunkedLayout([]uint32{8}, 4)
	return []message.Encoder{
		message.NewSimpleDataspace([]uint64{n}, []uint64{message.Unlimited}),
		message.NewFixedPointDatatype(4, true),
		message.NewFillValue(make([]byte, 4)),
		layout,
		message.NewStringAttribute("go_type", "int32"),
	}
}

func readBack(t *testing.T, buf []byte, addr uint64) *Header {
	t.Helper()
	r := binary.NewReader(bytes.NewReader(buf), cfg)
	h, err := Read(r, addr)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return h
}

func TestHeaderGetMessage(t *testing.T) {
	h := &Header{
		Version: 2,
		Messages: []message.Message{
			message.NewSimpleDataspace([]uint64{10, 20}, nil),
			message.NewFixedPointDatatype(4, true),
		},
	}

	ds := h.GetMessage(message.TypeDataspace)
	if ds == nil {
		t.Fatal("expected to find dataspace message")
	}
	if space, ok := ds.(*message.Dataspace); !ok || space.Rank() != 2 {
		t.Error("wrong dataspace returned")
	}

	if h.GetMessage(message.TypeDataLayout) != nil {
		t.Error("expected nil for missing layout message")
	}
	if h.DataLayout() != nil {
		t.Error("expected nil layout accessor")
	}
	if h.IsDataset() {
		t.Error("header without layout reported as dataset")
	}
}

func TestHeaderGetMessages(t *testing.T) {
	h := &Header{
		Version: 2,
		Messages: []message.Message{
			message.NewScalarDataspace(),
			message.NewStringAttribute("attr1", "a"),
			message.NewStringAttribute("attr2", "b"),
		},
	}

	if attrs := h.GetMessages(message.TypeAttribute); len(attrs) != 2 {
		t.Errorf("expected 2 attributes, got %d", len(attrs))
	}
	if got := h.Attributes(); len(got) != 2 || got[1].Name != "attr2" {
		t.Errorf("Attributes() = %v", got)
	}
	if links := h.GetMessages(message.TypeLink); links != nil {
		t.Errorf("expected nil for missing type, got %d messages", len(links))
	}
}

func TestEncodeReadRoundTrip(t *testing.T) {
	msgs := datasetMessages(3)
	buf, err := Encode(cfg, msgs, 0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(buf[:4], SignatureV2) {
		t.Fatalf("signature = %q", buf[:4])
	}
	if len(buf) != EncodedSize(MessagesSize(cfg, msgs)) {
		t.Errorf("len = %d, want %d", len(buf), EncodedSize(MessagesSize(cfg, msgs)))
	}

	h := readBack(t, buf, 0)
	if !h.IsDataset() || h.IsGroup() {
		t.Fatal("expected a dataset header")
	}
	if got := h.Dataspace().Dimensions[0]; got != 3 {
		t.Errorf("dims = %d, want 3", got)
	}
	if !h.DataLayout().IsChunked() || h.DataLayout().IndexAddress != binary.Undefined {
		t.Errorf("layout = %+v", h.DataLayout())
	}
	if h.FillValue() == nil || !h.FillValue().Defined {
		t.Error("missing fill value")
	}
	if v, _ := h.Attributes()[0].StringValue(); v != "int32" {
		t.Errorf("attribute = %q", v)
	}
}

func TestEncodeReservedInPlaceRewrite(t *testing.T) {
	const reserved = 256

	first, err := Encode(cfg, datasetMessages(0), reserved)
	if err != nil {
		t.Fatal(err)
	}
	msgs := datasetMessages(1000)
	msgs[3].(*message.DataLayout).IndexAddress = 0x2000
	second, err := Encode(cfg, msgs, reserved)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("rewrite changed size: %d -> %d", len(first), len(second))
	}

	// Place the header after some unrelated bytes and overwrite it.
	file := &memFile{}
	file.WriteAt(bytes.Repeat([]byte{0xEE}, 64), 0)
	if err := Write(file, 64, cfg, datasetMessages(0), reserved); err != nil {
		t.Fatal(err)
	}
	if err := Write(file, 64, cfg, msgs, reserved); err != nil {
		t.Fatal(err)
	}

	h := readBack(t, file.buf, 64)
	if h.ChunkSize != reserved {
		t.Errorf("ChunkSize = %d, want %d", h.ChunkSize, reserved)
	}
	if h.Dataspace().Dimensions[0] != 1000 || h.DataLayout().IndexAddress != 0x2000 {
		t.Errorf("rewrite not visible: %+v %+v", h.Dataspace(), h.DataLayout())
	}
	if len(h.Messages) != 5 {
		t.Errorf("expected NIL padding to be dropped, got %d messages", len(h.Messages))
	}
}

func TestEncodeOverflow(t *testing.T) {
	_, err := Encode(cfg, datasetMessages(1), 16)
	if !errors.Is(err, ErrHeaderOverflow) {
		t.Errorf("expected ErrHeaderOverflow, got %v", err)
	}
}

func TestEncodeGapPadding(t *testing.T) {
	msgs := []message.Encoder{message.NewLinkInfo(), message.NewGroupInfo()}
	used := MessagesSize(cfg, msgs)

	// Leave a two-byte tail: too short for a NIL message.
	buf, err := Encode(cfg, msgs, used+2)
	if err != nil {
		t.Fatal(err)
	}
	h := readBack(t, buf, 0)
	if !h.IsGroup() || len(h.Messages) != 2 {
		t.Errorf("messages = %d, group = %v", len(h.Messages), h.IsGroup())
	}
}

func TestGroupHeaderLinks(t *testing.T) {
	msgs := []message.Encoder{
		message.NewLinkInfo(),
		message.NewGroupInfo(),
		message.NewHardLink("a", 100),
		message.NewHardLink("b", 200),
	}
	buf, err := Encode(cfg, msgs, MinGroupChunkSize)
	if err != nil {
		t.Fatal(err)
	}
	h := readBack(t, buf, 0)
	links := h.Links()
	if len(links) != 2 || links[0].Name != "a" || links[1].ObjectAddress != 200 {
		t.Errorf("links = %+v", links)
	}
}

func TestLargeChunkSizeField(t *testing.T) {
	buf, err := Encode(cfg, datasetMessages(1), 70000)
	if err != nil {
		t.Fatal(err)
	}
	if buf[5]&0x03 != 2 {
		t.Errorf("flags = 0x%02X, want 4-byte size field", buf[5])
	}
	h := readBack(t, buf, 0)
	if h.ChunkSize != 70000 || !h.IsDataset() {
		t.Errorf("ChunkSize = %d", h.ChunkSize)
	}
}

func TestReadChecksumMismatch(t *testing.T) {
	buf, err := Encode(cfg, datasetMessages(1), 0)
	if err != nil {
		t.Fatal(err)
	}
	buf[10] ^= 0xFF

	r := binary.NewReader(bytes.NewReader(buf), cfg)
	if _, err := Read(r, 0); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestReadInvalidSignature(t *testing.T) {
	r := binary.NewReader(bytes.NewReader([]byte("NOPE\x02\x00\x00\x00")), cfg)
	if _, err := Read(r, 0); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}

	r = binary.NewReader(bytes.NewReader([]byte{1, 0, 0, 0, 0, 0, 0, 0}), cfg)
	if _, err := Read(r, 0); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion for v1 header, got %v", err)
	}
}

func TestChunkSizeFieldBytes(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, 1}, {255, 1}, {256, 2}, {65535, 2}, {65536, 4},
	}
	for _, tt := range tests {
		if got := chunkSizeFieldBytes(tt.size); got != tt.want {
			t.Errorf("chunkSizeFieldBytes(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

// memFile implements io.WriterAt over a growable slice.
type memFile struct {
	buf []byte
}

func (f *memFile) WriteAt(p []byte, off int64) (int, error) {
	if end := int(off) + len(p); end > len(f.buf) {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[off:], p)
	return len(p), nil
}
