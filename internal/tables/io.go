package tables

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/streamlex/streamlex/internal/grammar"
	"github.com/streamlex/streamlex/internal/lexerr"
)

// magic and version identify the on-disk table format, the same
// header-then-flat-arrays discipline as KorAP/Datok's double-array
// tokenizer file.
var magic = [8]byte{'S', 'T', 'R', 'M', 'L', 'E', 'X', '1'}

const formatVersion uint16 = 1

// WriteTo writes the table set in the compact binary format:
// magic, version, the M/Identity/Reject/Start/NStates header (uint32
// each), then the flat CharToFunc/Merge/TokenOf/EmitOnStart/
// FilterMask/NextEmit/TokenMap arrays in that fixed order, all
// little-endian.
func (t *Tables) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	if _, err := bw.Write(magic[:]); err != nil {
		return cw.n, err
	}
	if err := binary.Write(bw, binary.LittleEndian, formatVersion); err != nil {
		return cw.n, err
	}
	header := []uint32{t.M, t.Identity, uint32(t.Reject), uint32(t.Start), uint32(t.NStates)}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return cw.n, err
		}
	}

	for _, v := range t.CharToFunc {
		if err := binary.Write(bw, binary.LittleEndian, uint16(v)); err != nil {
			return cw.n, err
		}
	}
	for _, id := range t.Merge {
		if err := binary.Write(bw, binary.LittleEndian, id); err != nil {
			return cw.n, err
		}
	}
	for _, k := range t.TokenOf {
		if err := binary.Write(bw, binary.LittleEndian, uint8(k)); err != nil {
			return cw.n, err
		}
	}
	if err := writeBits(bw, t.EmitOnStart); err != nil {
		return cw.n, err
	}
	for _, f := range t.FilterMask {
		b := byte(0)
		if f {
			b = 1
		}
		if err := bw.WriteByte(b); err != nil {
			return cw.n, err
		}
	}
	for _, e := range t.NextEmit {
		if err := binary.Write(bw, binary.LittleEndian, uint32(e)); err != nil {
			return cw.n, err
		}
	}
	for _, k := range t.TokenMap {
		if err := bw.WriteByte(uint8(k)); err != nil {
			return cw.n, err
		}
	}

	return cw.n, bw.Flush()
}

// ReadFrom reads a table set written by WriteTo.
func (t *Tables) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	br := bufio.NewReader(cr)

	var got [8]byte
	if _, err := io.ReadFull(br, got[:]); err != nil {
		return cr.n, fmt.Errorf("tables: read magic: %w", err)
	}
	if got != magic {
		return cr.n, &lexerr.InvalidTableError{Reason: "bad magic"}
	}
	var version uint16
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return cr.n, err
	}
	if version != formatVersion {
		return cr.n, &lexerr.InvalidTableError{Reason: fmt.Sprintf("unsupported version %d", version)}
	}

	var m, identity, reject, start, nstates uint32
	for _, p := range []*uint32{&m, &identity, &reject, &start, &nstates} {
		if err := binary.Read(br, binary.LittleEndian, p); err != nil {
			return cr.n, err
		}
	}
	t.M, t.Identity, t.Reject, t.Start, t.NStates = m, identity, uint16(reject), uint16(start), int(nstates)

	for i := range t.CharToFunc {
		var v uint16
		if err := binary.Read(br, binary.LittleEndian, &v); err != nil {
			return cr.n, err
		}
		t.CharToFunc[i] = PackedUTF(v)
	}

	mm := int(m) * int(m)
	t.Merge = make([]uint32, mm)
	for i := range t.Merge {
		if err := binary.Read(br, binary.LittleEndian, &t.Merge[i]); err != nil {
			return cr.n, err
		}
	}

	t.TokenOf = make([]grammar.Kind, m)
	for i := range t.TokenOf {
		var b uint8
		if err := binary.Read(br, binary.LittleEndian, &b); err != nil {
			return cr.n, err
		}
		t.TokenOf[i] = grammar.Kind(b)
	}

	emit, err := readBits(br, int(m))
	if err != nil {
		return cr.n, err
	}
	t.EmitOnStart = emit

	for i := range t.FilterMask {
		b, err := br.ReadByte()
		if err != nil {
			return cr.n, err
		}
		t.FilterMask[i] = b != 0
	}

	t.NextEmit = make([]NextEmitEntry, t.NStates*256)
	for i := range t.NextEmit {
		var v uint32
		if err := binary.Read(br, binary.LittleEndian, &v); err != nil {
			return cr.n, err
		}
		t.NextEmit[i] = NextEmitEntry(v)
	}

	t.TokenMap = make([]grammar.Kind, t.NStates)
	for i := range t.TokenMap {
		b, err := br.ReadByte()
		if err != nil {
			return cr.n, err
		}
		t.TokenMap[i] = grammar.Kind(b)
	}

	return cr.n, nil
}

func writeBits(w io.Writer, bits []bool) error {
	buf := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			buf[i/8] |= 1 << (i % 8)
		}
	}
	_, err := w.Write(buf)
	return err
}

func readBits(r io.Reader, n int) ([]bool, error) {
	buf := make([]byte, (n+7)/8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = buf[i/8]&(1<<(i%8)) != 0
	}
	return out, nil
}

// Save writes the table set to path, gzip-compressed.
func (t *Tables) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	if _, err := t.WriteTo(gz); err != nil {
		return err
	}
	return gz.Close()
}

// Load reads a table set previously written by Save.
func Load(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	t := &Tables{}
	if _, err := t.ReadFrom(gz); err != nil {
		return nil, err
	}
	return t, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
