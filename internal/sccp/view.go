package sccp

import "fmt"

// Pointer is a self-relative pointer octet. Its target is Pos + buf[Pos].
type Pointer struct {
	Pos      int
	Tag      Tag
	Optional bool
}

// Field is a length-prefixed part of the message. Offset is the first value
// octet; the length octet sits at Offset-1 (and the parameter name octet at
// Offset-2 for optional parameters).
type Field struct {
	Tag      Tag
	Offset   int
	Length   int
	Optional bool
}

// AddressPart ties a decoded called/calling party address to its field.
type AddressPart struct {
	Field   Field
	Address Address
}

// View is a read-only index over an SCCP message. It borrows the buffer
// passed to Parse and must not outlive it or survive its mutation.
type View struct {
	Type     MessageType
	Pointers []Pointer
	Fields   []Field

	addrs []AddressPart
	spans []span
	buf   []byte
}

// span is the octet range [start, end) taken by one part, including its
// length octet and, for optional parameters, its name octet.
type span struct {
	start, end int
}

// Parse indexes buf as an SCCP message without copying it. Unknown message
// types produce an opaque view carrying only the type.
func Parse(buf []byte) (*View, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrMalformed)
	}

	v := &View{Type: MessageType(buf[0]), buf: buf}
	lay, ok := layouts[v.Type]
	if !ok {
		return v, nil
	}

	pos := 1 + lay.fixed
	end := pos + len(lay.variable)
	if lay.optional {
		end++
	}
	if len(buf) < end {
		return nil, fmt.Errorf("%w: %s needs at least %d octets, got %d", ErrMalformed, v.Type, end, len(buf))
	}

	for i, tag := range lay.variable {
		p := pos + i
		if buf[p] == 0 {
			return nil, fmt.Errorf("%w: %s has a zero pointer at %d", ErrMalformed, v.Type, p)
		}
		target := p + int(buf[p])
		if target < end {
			return nil, fmt.Errorf("%w: %s pointer at %d points into the header", ErrMalformed, v.Type, p)
		}
		f, err := lengthCoded(buf, target, tag)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Type, err)
		}
		if err := v.claim(target, f.Offset+f.Length); err != nil {
			return nil, fmt.Errorf("%s: %w", v.Type, err)
		}
		v.Pointers = append(v.Pointers, Pointer{Pos: p, Tag: tag})
		v.Fields = append(v.Fields, f)
	}

	if lay.optional {
		p := end - 1
		if buf[p] != 0 {
			target := p + int(buf[p])
			if target < end {
				return nil, fmt.Errorf("%w: %s optional pointer points into the header", ErrMalformed, v.Type)
			}
			v.Pointers = append(v.Pointers, Pointer{Pos: p, Optional: true})
			if err := v.parseOptional(target); err != nil {
				return nil, fmt.Errorf("%s: %w", v.Type, err)
			}
		}
	}

	for _, f := range v.Fields {
		if f.Tag != TagCalledParty && f.Tag != TagCallingParty {
			continue
		}
		addr, err := ParseAddress(v.Value(f))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Type, err)
		}
		v.addrs = append(v.addrs, AddressPart{Field: f, Address: addr})
	}

	return v, nil
}

func lengthCoded(buf []byte, at int, tag Tag) (Field, error) {
	if at >= len(buf) {
		return Field{}, fmt.Errorf("%w: part at %d beyond %d octets", ErrMalformed, at, len(buf))
	}
	l := int(buf[at])
	if at+1+l > len(buf) {
		return Field{}, fmt.Errorf("%w: part at %d claims %d octets, only %d left", ErrMalformed, at, l, len(buf)-at-1)
	}
	return Field{Tag: tag, Offset: at + 1, Length: l}, nil
}

// parseOptional walks the optional part until end-of-optional or the end of
// the buffer.
func (v *View) parseOptional(start int) error {
	buf := v.buf
	if start >= len(buf) {
		return fmt.Errorf("%w: optional part at %d beyond %d octets", ErrMalformed, start, len(buf))
	}
	for i := start; i < len(buf); {
		tag := Tag(buf[i])
		if tag == TagEndOfOptional {
			return v.claim(i, i+1)
		}
		if i+1 >= len(buf) {
			return fmt.Errorf("%w: optional parameter 0x%02x without length", ErrMalformed, uint8(tag))
		}
		f, err := lengthCoded(buf, i+1, tag)
		if err != nil {
			return err
		}
		f.Optional = true
		if err := v.claim(i, f.Offset+f.Length); err != nil {
			return err
		}
		v.Fields = append(v.Fields, f)
		i = f.Offset + f.Length
	}
	return nil
}

// claim records [start, end) as taken. Two parts never share an octet.
func (v *View) claim(start, end int) error {
	for _, s := range v.spans {
		if start < s.end && s.start < end {
			return fmt.Errorf("%w: part at %d overlaps part at %d", ErrMalformed, start, s.start)
		}
	}
	v.spans = append(v.spans, span{start: start, end: end})
	return nil
}

// Bytes returns the underlying buffer.
func (v *View) Bytes() []byte {
	return v.buf
}

// Len returns the message length in octets.
func (v *View) Len() int {
	return len(v.buf)
}

// Field returns the first part with the given tag.
func (v *View) Field(tag Tag) (Field, bool) {
	for _, f := range v.Fields {
		if f.Tag == tag {
			return f, true
		}
	}
	return Field{}, false
}

// Value returns the value octets of f.
func (v *View) Value(f Field) []byte {
	return v.buf[f.Offset : f.Offset+f.Length]
}

// Data returns the user data of the message, or nil if it carries none.
func (v *View) Data() []byte {
	f, ok := v.Field(TagData)
	if !ok {
		return nil
	}
	return v.Value(f)
}

// Addresses returns the decoded called/calling party addresses in buffer
// order.
func (v *View) Addresses() []AddressPart {
	return v.addrs
}

// Address returns the decoded address with the given tag.
func (v *View) Address(tag Tag) (AddressPart, bool) {
	for _, a := range v.addrs {
		if a.Field.Tag == tag {
			return a, true
		}
	}
	return AddressPart{}, false
}
