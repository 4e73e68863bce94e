package snl

import (
	"bytes"
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

func TestWriterFinalizeLength(t *testing.T) {
	w := NewWriter()
	w.BeginMessage(unix.RTM_NEWROUTE, unix.NLM_F_REQUEST)
	w.ReserveRaw(unix.SizeofRtMsg)
	if err := w.AddAttr(unix.RTA_DST, []byte{10, 0, 0, 0}); err != nil {
		t.Fatalf("add attr: %v", err)
	}
	if err := w.AddAttr(unix.RTA_PREFSRC, []byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("add attr: %v", err)
	}
	m, err := w.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if int(m.Header.Len) != len(m.Bytes()) {
		t.Fatalf("header length %d, emitted %d bytes", m.Header.Len, len(m.Bytes()))
	}
	if len(m.Bytes())%4 != 0 {
		t.Fatalf("emitted %d bytes, not 4-byte aligned", len(m.Bytes()))
	}
}

func TestWriterFinalizePadsUnalignedPayload(t *testing.T) {
	w := NewWriter()
	w.BeginMessage(unix.RTM_NEWLINK, 0)
	b := w.ReserveRaw(5)
	copy(b, []byte{1, 2, 3, 4, 5})
	m, err := w.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(m.Bytes())%4 != 0 {
		t.Fatalf("emitted %d bytes, not 4-byte aligned", len(m.Bytes()))
	}
	if int(m.Header.Len) != len(m.Bytes()) {
		t.Fatalf("header length %d, emitted %d bytes", m.Header.Len, len(m.Bytes()))
	}
	if got, want := len(m.Bytes()), hdrLen+8; got != want {
		t.Fatalf("emitted %d bytes, want %d", got, want)
	}
	if !bytes.Equal(m.Data[:5], []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("payload corrupted: % x", m.Data)
	}
}

func TestWriterAttrPaddingRoundTrip(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef, 0x01}
	w := NewWriter()
	w.BeginMessage(unix.RTM_NEWLINK, 0)
	if err := w.AddAttr(7, payload); err != nil {
		t.Fatalf("add attr: %v", err)
	}
	m, err := w.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got := hostOrder.Uint16(m.Data[0:2]); got != uint16(attrHdrLen+len(payload)) {
		t.Fatalf("attribute length field %d, want %d", got, attrHdrLen+len(payload))
	}
	var seen [][]byte
	err = forEachAttr(m.Data, func(a Attr) error {
		seen = append(seen, a.Data)
		return nil
	})
	if err != nil {
		t.Fatalf("walk attrs: %v", err)
	}
	if len(seen) != 1 || !bytes.Equal(seen[0], payload) {
		t.Fatalf("payload did not round-trip: %v", seen)
	}
}

func TestWriterAttrTooLong(t *testing.T) {
	w := NewWriter()
	w.BeginMessage(unix.RTM_NEWLINK, 0)
	err := w.AddAttr(1, make([]byte, maxAttrData+1))
	var ee *EncodingError
	if !errors.As(err, &ee) {
		t.Fatalf("got %v, want EncodingError", err)
	}
	if _, err := w.Finalize(); err == nil {
		t.Fatal("finalize succeeded on poisoned writer")
	}

	// BeginMessage makes the writer usable again
	w.BeginMessage(unix.RTM_GETLINK, unix.NLM_F_REQUEST)
	if _, err := w.Finalize(); err != nil {
		t.Fatalf("finalize after reuse: %v", err)
	}
}

func TestWriterUnterminatedNested(t *testing.T) {
	w := NewWriter()
	w.BeginMessage(unix.RTM_NEWROUTE, 0)
	w.BeginNested(unix.RTA_METRICS)
	w.AddAttrUint32(unix.RTAX_MTU, 1400)
	_, err := w.Finalize()
	var ee *EncodingError
	if !errors.As(err, &ee) {
		t.Fatalf("got %v, want EncodingError", err)
	}
}

func TestWriterNestedLengthPatch(t *testing.T) {
	w := NewWriter()
	w.BeginMessage(unix.RTM_NEWROUTE, 0)
	h := w.BeginNested(unix.RTA_METRICS)
	w.AddAttrUint32(unix.RTAX_MTU, 1400)
	if err := w.EndNested(h); err != nil {
		t.Fatalf("end nested: %v", err)
	}
	m, err := w.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	var mtu uint32
	err = forEachAttr(m.Data, func(a Attr) error {
		if a.Type != unix.RTA_METRICS {
			t.Fatalf("unexpected attribute %d", a.Type)
		}
		if len(a.Data) != attrHdrLen+4 {
			t.Fatalf("nested payload %d bytes, want %d", len(a.Data), attrHdrLen+4)
		}
		return forEachAttr(a.Data, func(inner Attr) error {
			if inner.Type == unix.RTAX_MTU {
				mtu = hostOrder.Uint32(inner.Data)
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("walk attrs: %v", err)
	}
	if mtu != 1400 {
		t.Fatalf("nested mtu %d, want 1400", mtu)
	}
}

func TestWriterNestedCloseMismatch(t *testing.T) {
	w := NewWriter()
	w.BeginMessage(unix.RTM_NEWROUTE, 0)
	outer := w.BeginNested(1)
	w.BeginNested(2)
	if err := w.EndNested(outer); err == nil {
		t.Fatal("closing outer nested before inner succeeded")
	}
}

func TestWriterSetSeq(t *testing.T) {
	w := NewWriter()
	w.BeginMessage(unix.RTM_GETLINK, unix.NLM_F_REQUEST|unix.NLM_F_DUMP)
	w.SetSeq(7)
	m, err := w.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if m.Header.Seq != 7 {
		t.Fatalf("seq %d, want 7", m.Header.Seq)
	}
	if m.Header.Flags != unix.NLM_F_REQUEST|unix.NLM_F_DUMP {
		t.Fatalf("flags %#x", m.Header.Flags)
	}
}
