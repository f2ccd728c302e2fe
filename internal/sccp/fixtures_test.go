package sccp

// Captured messages exercised by the filter and rewriter tests.

var assignmentRequest = []byte{
	0x06, 0x01, 0x04,
	0x00, 0x00, 0x01, 0x0b, 0x00, 0x09, 0x01, 0x0b,
	0x03, 0x01, 0x0b, 0x25, 0x01, 0x00, 0x02}

var assignmentRequestPatched = []byte{
	0x06, 0x01, 0x04,
	0x00, 0x00, 0x01, 0x0b, 0x00, 0x09, 0x01, 0x0b,
	0x03, 0x01, 0x0a, 0x11, 0x01, 0x00, 0x02}

var assignmentComplete = []byte{
	0x06, 0x01, 0x05,
	0x2b, 0x00, 0x01, 0x09, 0x00, 0x07, 0x02, 0x21,
	0x08, 0x2c, 0x02, 0x40, 0x11}

var assignmentCompletePatched = []byte{
	0x06, 0x01, 0x05,
	0x2b, 0x00, 0x01, 0x09, 0x00, 0x07, 0x02, 0x21,
	0x09, 0x2c, 0x02, 0x40, 0x25}

var resetAck = []byte{
	0x09, 0x00, 0x03,
	0x07, 0x0b, 0x04, 0x43, 0x0a, 0x00, 0xfe, 0x04,
	0x43, 0x5c, 0x00, 0xfe, 0x03, 0x00, 0x01, 0x31}

var connectionConfirm = []byte{
	0x02, 0x01, 0x04,
	0x00, 0x01, 0x01, 0xb4, 0x02, 0x01, 0x00}

var udtWithPOI = []byte{
	0x09, 0x00, 0x03,
	0x07, 0x0b, 0x04, 0x43, 0x0a, 0x00, 0xfe, 0x04,
	0x43, 0x5c, 0x00, 0xfe, 0x10, 0x00, 0x0e, 0x44,
	0x04, 0x01, 0x00, 0x01, 0x00, 0x01, 0x1e, 0x05,
	0x1e, 0x00, 0x00, 0x00, 0x40}

var udtWithoutPOI = []byte{
	0x09, 0x00, 0x03,
	0x05, 0x07, 0x02, 0x42, 0xfe,
	0x02, 0x42, 0xfe,
	0x10, 0x00, 0x0e, 0x44,
	0x04, 0x01, 0x00, 0x01, 0x00, 0x01, 0x1e, 0x05,
	0x1e, 0x00, 0x00, 0x00, 0x40}

var crWithPOI = []byte{
	0x01, 0x01, 0x04,
	0x00, 0x02, 0x02, 0x06, 0x04, 0xc3, 0x5c, 0x00,
	0xfe, 0x0f, 0x21, 0x00, 0x1f, 0x57, 0x05, 0x08,
	0x00, 0x72, 0xf4, 0x80, 0x23, 0x29, 0xc3, 0x50,
	0x17, 0x10, 0x05, 0x24, 0x11, 0x03, 0x33, 0x19,
	0x81, 0x08, 0x29, 0x47, 0x80, 0x00, 0x00, 0x00,
	0x00, 0x80, 0x21, 0x01, 0x00}

var crWithoutPOI = []byte{
	0x01, 0x01, 0x04,
	0x00, 0x02, 0x02, 0x04, 0x02, 0x42, 0xfe,
	0x0f, 0x21, 0x00, 0x1f, 0x57, 0x05, 0x08,
	0x00, 0x72, 0xf4, 0x80, 0x23, 0x29, 0xc3, 0x50,
	0x17, 0x10, 0x05, 0x24, 0x11, 0x03, 0x33, 0x19,
	0x81, 0x08, 0x29, 0x47, 0x80, 0x00, 0x00, 0x00,
	0x00, 0x80, 0x21, 0x01, 0x00}

var cr2WithoutPOI = []byte{
	0x01, 0x00, 0x00, 0x03, 0x02, 0x02, 0x04, 0x02,
	0x42, 0xfe, 0x0f, 0x1f, 0x00, 0x1d, 0x57, 0x05,
	0x08, 0x00, 0x72, 0xf4, 0x80, 0x20, 0x1d, 0xc3,
	0x50, 0x17, 0x10, 0x05, 0x24, 0x31, 0x03, 0x50,
	0x18, 0x93, 0x08, 0x29, 0x47, 0x80, 0x00, 0x00,
	0x00, 0x00, 0x80, 0x00}

var pagingCommand = []byte{
	0x09, 0x00, 0x03, 0x07, 0x0b, 0x04, 0x43, 0x0a,
	0x00, 0xfe, 0x04, 0x43, 0x5c, 0x00, 0xfe, 0x10,
	0x00, 0x0e, 0x52, 0x08, 0x08, 0x29, 0x80, 0x10,
	0x76, 0x10, 0x77, 0x46, 0x05, 0x1a, 0x01, 0x06}

var pagingCommandPatched = []byte{
	0x09, 0x00, 0x03, 0x07, 0x0b, 0x04, 0x43, 0x02,
	0x00, 0xfe, 0x04, 0x43, 0x01, 0x00, 0xfe, 0x10,
	0x00, 0x0e, 0x52, 0x08, 0x08, 0x29, 0x80, 0x10,
	0x76, 0x10, 0x77, 0x46, 0x05, 0x1a, 0x01, 0x06}

// clone keeps the package-level fixtures untouched by in-place patching.
func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
