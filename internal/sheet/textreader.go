package sheet

import (
	"bufio"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textReader strips a leading UTF-8 BOM and replaces each invalid UTF-8 byte
// with '?'. Memory use is bounded by the bufio buffer regardless of input size.
type textReader struct {
	br      *bufio.Reader
	checked bool
}

// NewTextReader wraps r for CSV decoding. Spreadsheet tools on Windows
// commonly prepend a BOM, which would otherwise end up in the first header.
func NewTextReader(r io.Reader) io.Reader {
	return &textReader{br: bufio.NewReader(r)}
}

func (t *textReader) Read(p []byte) (int, error) {
	if !t.checked {
		t.checked = true
		if head, _ := t.br.Peek(len(utf8BOM)); len(head) == len(utf8BOM) &&
			head[0] == utf8BOM[0] && head[1] == utf8BOM[1] && head[2] == utf8BOM[2] {
			t.br.Discard(len(utf8BOM))
		}
	}

	n := 0
	for n+utf8.UTFMax <= len(p) || (n < len(p) && t.nextIsASCII()) {
		r, size, err := t.br.ReadRune()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}
		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}
		n += utf8.EncodeRune(p[n:], r)

		// return what we have rather than block on a slow reader
		if t.br.Buffered() == 0 {
			break
		}
	}
	return n, nil
}

// nextIsASCII reports whether the next buffered byte fits in one output byte.
func (t *textReader) nextIsASCII() bool {
	b, err := t.br.Peek(1)
	return err == nil && b[0] < utf8.RuneSelf
}
