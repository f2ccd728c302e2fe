package sccp

import (
	"bytes"
	"fmt"
	"sort"
)

// RewriteForMSC returns a copy of the message in v with the interconnect
// point code removed from every address part that carries one. Length octets
// and self-relative pointers are recomputed from the view's index table. When
// r is not PatchToMSC, or nothing is left to strip, the copy is byte
// identical, so the rewrite is idempotent on its own output.
//
// A result that fails the self-check is reported as ErrInternalInconsistency
// and no buffer is returned.
func RewriteForMSC(r Result, v *View) ([]byte, error) {
	in := v.Bytes()

	var parts []AddressPart
	if r.Disposition == PatchToMSC {
		parts = pointCodeParts(v)
	}
	if len(parts) == 0 {
		out := make([]byte, len(in))
		copy(out, in)
		return out, nil
	}

	holes := make([]int, 0, len(parts))
	for _, a := range parts {
		holes = append(holes, a.Field.Offset+1)
	}
	sort.Ints(holes)
	for i := 1; i < len(holes); i++ {
		if holes[i] < holes[i-1]+PointCodeLen {
			return nil, fmt.Errorf("%w: point codes at %d and %d overlap", ErrInternalInconsistency, holes[i-1], holes[i])
		}
	}

	removed := len(holes) * PointCodeLen
	out := make([]byte, 0, len(in)-removed)
	prev := 0
	for _, h := range holes {
		out = append(out, in[prev:h]...)
		prev = h + PointCodeLen
	}
	out = append(out, in[prev:]...)

	// newPos maps an offset of the input to the output. It is only ever
	// called for offsets outside the removed ranges.
	newPos := func(pos int) int {
		n := 0
		for _, h := range holes {
			if h < pos {
				n += PointCodeLen
			}
		}
		return pos - n
	}

	for _, a := range parts {
		ind := newPos(a.Field.Offset)
		out[ind] &^= AddrPointCode | AddrNational
		out[ind-1] -= PointCodeLen
	}
	for _, p := range v.Pointers {
		target := p.Pos + int(in[p.Pos])
		out[newPos(p.Pos)] = byte(newPos(target) - newPos(p.Pos))
	}

	if err := checkRewrite(v, out, removed); err != nil {
		return nil, err
	}
	return out, nil
}

// pointCodeParts returns the address parts carrying a point code, each
// field once.
func pointCodeParts(v *View) []AddressPart {
	var parts []AddressPart
	seen := make(map[int]bool)
	for _, a := range v.Addresses() {
		if !a.Address.HasPointCode || seen[a.Field.Offset] {
			continue
		}
		seen[a.Field.Offset] = true
		parts = append(parts, a)
	}
	return parts
}

// checkRewrite re-parses out and verifies that exactly the point codes were
// removed.
func checkRewrite(v *View, out []byte, removed int) error {
	if len(out) != v.Len()-removed {
		return fmt.Errorf("%w: length %d, want %d", ErrInternalInconsistency, len(out), v.Len()-removed)
	}
	w, err := Parse(out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternalInconsistency, err)
	}
	if w.Type != v.Type {
		return fmt.Errorf("%w: type changed from %s to %s", ErrInternalInconsistency, v.Type, w.Type)
	}
	for _, a := range w.Addresses() {
		if a.Address.HasPointCode {
			return fmt.Errorf("%w: point code left in %s address", ErrInternalInconsistency, w.Type)
		}
	}
	if !bytes.Equal(v.Data(), w.Data()) {
		return fmt.Errorf("%w: user data changed", ErrInternalInconsistency)
	}
	return nil
}

// RewriteForBSC patches the point codes of a UDT paging command in place:
// the called party gets dpc, the calling party opc. The message length never
// changes. Both addresses are validated before anything is written.
func RewriteForBSC(buf []byte, opc, dpc uint16) error {
	if len(buf) < 5 || MessageType(buf[0]) != MsgTypeUDT {
		return fmt.Errorf("%w: only UDT can be patched toward the BSC", ErrUnexpectedLayout)
	}

	called, err := pointCodeAt(buf, 2)
	if err != nil {
		return fmt.Errorf("called party: %w", err)
	}
	calling, err := pointCodeAt(buf, 3)
	if err != nil {
		return fmt.Errorf("calling party: %w", err)
	}

	putPointCode(buf[called:], dpc)
	putPointCode(buf[calling:], opc)
	return nil
}

// pointCodeAt follows the pointer at ptrPos to an address and returns the
// offset of its point code.
func pointCodeAt(buf []byte, ptrPos int) (int, error) {
	if buf[ptrPos] == 0 {
		return 0, fmt.Errorf("%w: zero pointer", ErrUnexpectedLayout)
	}
	start := ptrPos + int(buf[ptrPos])
	if start >= len(buf) {
		return 0, fmt.Errorf("%w: pointer beyond message", ErrUnexpectedLayout)
	}
	l := int(buf[start])
	if l < 1+PointCodeLen || start+1+l > len(buf) {
		return 0, fmt.Errorf("%w: address of %d octets", ErrUnexpectedLayout, l)
	}
	if buf[start+1]&AddrPointCode == 0 {
		return 0, fmt.Errorf("%w: address without point code", ErrUnexpectedLayout)
	}
	return start + 2, nil
}

// putPointCode writes a 14-bit ITU point code, keeping the two spare bits.
func putPointCode(b []byte, pc uint16) {
	pc &= PointCodeMask
	b[0] = byte(pc)
	b[1] = b[1]&^0x3f | byte(pc>>8)
}
