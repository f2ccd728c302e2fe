package pcap

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"udt-relay/pkg/types"
)

// LinkTypeMTP3 is the pcap link type for bare MTP level 3 MSUs.
const LinkTypeMTP3 layers.LinkType = 141

const snapLen = 65535

// Tracer writes the MSUs exchanged with the BSC to a pcap file, one record
// per MSU, in both directions.
type Tracer struct {
	mu     sync.Mutex
	w      *pcapgo.Writer
	closer io.Closer
}

// NewTracer creates filename and writes the file header.
func NewTracer(filename string) (*Tracer, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file %s: %w", filename, err)
	}
	t, err := NewTracerWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	t.closer = f
	return t, nil
}

// NewTracerWriter traces into w.
func NewTracerWriter(w io.Writer) (*Tracer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, LinkTypeMTP3); err != nil {
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}
	return &Tracer{w: pw}, nil
}

// WriteMSU appends one MSU. MTP3 captures carry no direction, so dir is not
// recorded.
func (t *Tracer) WriteMSU(dir types.Direction, msu []byte) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(msu),
		Length:        len(msu),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.w.WritePacket(ci, msu); err != nil {
		return fmt.Errorf("failed to trace %s MSU: %w", dir, err)
	}
	return nil
}

// Close closes the underlying file, if the tracer opened one.
func (t *Tracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	return err
}
