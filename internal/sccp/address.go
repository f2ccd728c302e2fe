package sccp

import "fmt"

// Address indicator bits (Q.713 section 3.4.1, ITU variant).
const (
	AddrPointCode  uint8 = 0x01
	AddrSSN        uint8 = 0x02
	AddrRouteOnSSN uint8 = 0x40
	AddrNational   uint8 = 0x80

	gtiShift = 2
	gtiMask  = 0x0f

	// PointCodeLen is the size of an ITU point code inside an address.
	PointCodeLen = 2
	// PointCodeMask keeps the 14 significant bits of an ITU point code.
	PointCodeMask = 0x3fff

	SSNBSSAP uint8 = 0xfe
)

// Address is a decoded called or calling party address. A point code in an
// address coming from the BSC side is the network's interconnect marker
// (the POI); the MSC expects SSN-only addresses.
type Address struct {
	Indicator    uint8
	HasPointCode bool
	PointCode    uint16
	HasSSN       bool
	SSN          uint8
	GTI          uint8
	GlobalTitle  []byte
}

// ParseAddress decodes the value octets of an address part.
func ParseAddress(b []byte) (Address, error) {
	if len(b) == 0 {
		return Address{}, fmt.Errorf("%w: empty address", ErrMalformed)
	}

	a := Address{Indicator: b[0], GTI: (b[0] >> gtiShift) & gtiMask}
	i := 1
	if b[0]&AddrPointCode != 0 {
		if len(b) < i+PointCodeLen {
			return Address{}, fmt.Errorf("%w: address too short for point code", ErrMalformed)
		}
		a.HasPointCode = true
		a.PointCode = (uint16(b[i]) | uint16(b[i+1])<<8) & PointCodeMask
		i += PointCodeLen
	}
	if b[0]&AddrSSN != 0 {
		if len(b) < i+1 {
			return Address{}, fmt.Errorf("%w: address too short for SSN", ErrMalformed)
		}
		a.HasSSN = true
		a.SSN = b[i]
		i++
	}
	if a.GTI != 0 {
		a.GlobalTitle = b[i:]
	}
	return a, nil
}

// RouteOnSSN reports whether the routing indicator selects SSN routing.
func (a Address) RouteOnSSN() bool {
	return a.Indicator&AddrRouteOnSSN != 0
}

// Digits decodes the BCD address signals of the global title.
func (a Address) Digits() string {
	var skip int
	odd := false
	switch a.GTI {
	case 1:
		skip = 1
		odd = len(a.GlobalTitle) > 0 && a.GlobalTitle[0]&0x80 != 0
	case 2:
		skip = 1
	case 3:
		skip = 2
		odd = len(a.GlobalTitle) > 1 && a.GlobalTitle[1]&0x0f == 1
	case 4:
		skip = 3
		odd = len(a.GlobalTitle) > 1 && a.GlobalTitle[1]&0x0f == 1
	default:
		return ""
	}
	if len(a.GlobalTitle) <= skip {
		return ""
	}

	number := make([]byte, 0, 2*(len(a.GlobalTitle)-skip))
	for _, b := range a.GlobalTitle[skip:] {
		number = append(number, bcdDigit(b&0x0f), bcdDigit(b>>4))
	}
	if odd {
		number = number[:len(number)-1]
	}
	return string(number)
}

func bcdDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return "*#abc?"[n-10]
}
