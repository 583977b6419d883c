package sheet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/record"
	"github.com/shakinm/xlsReader/xls/structure"
)

var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Compound file layout used when repacking a workbook stream.
const (
	cfbSectorSize    = 512
	cfbFATEntries    = cfbSectorSize / 4
	cfbHeaderFATs    = 109
	cfbMiniCutoff    = 4096
	cfbEndOfChain    = 0xFFFFFFFE
	cfbFreeSector    = 0xFFFFFFFF
	cfbFATSector     = 0xFFFFFFFD
	cfbNoStream      = 0xFFFFFFFF
	biffDateMode     = 0x0022
	biffEOF          = 0x000A
	cfbStorageObject = 5
	cfbStreamObject  = 2
)

// ReadXLS reads the first sheet of a legacy .xls (BIFF8) workbook.
//
// The workbook stream is extracted with mscfb and handed to xlsReader inside
// a freshly written compound file with a single contiguous chain.
func ReadXLS(r io.Reader) (table *Table, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	stream, err := workbookStream(data)
	if err != nil {
		return nil, err
	}
	container, err := repackCFB(stream)
	if err != nil {
		return nil, err
	}

	defer func() {
		if p := recover(); p != nil {
			table, err = nil, fmt.Errorf("malformed workbook: %v", p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(container))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb.GetNumberSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sh, err := wb.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("read first sheet: %w", err)
	}

	c := &xlsClassifier{wb: &wb, date1904: biffDate1904(stream), dateStyles: make(map[int]bool)}
	rows := sh.GetRows()
	table = &Table{Date1904: c.date1904, Rows: make([][]Cell, len(rows))}
	for i, row := range rows {
		cols := row.GetCols()
		cells := make([]Cell, len(cols))
		for j, cd := range cols {
			cells[j] = c.classify(cd)
		}
		table.Rows[i] = cells
	}
	return table, nil
}

// workbookStream returns the BIFF stream of an OLE2 compound file.
func workbookStream(data []byte) ([]byte, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook container: %w", err)
	}

	for {
		entry, err := doc.Next()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("workbook stream not found")
		}
		if err != nil {
			return nil, fmt.Errorf("read workbook container: %w", err)
		}
		if entry.Name != "Workbook" && entry.Name != "Book" {
			continue
		}
		if entry.Size <= 0 || entry.Size > int64(len(data)) {
			return nil, fmt.Errorf("workbook stream size %d out of range", entry.Size)
		}

		stream := make([]byte, entry.Size)
		if _, err := io.ReadFull(entry, stream); err != nil {
			return nil, fmt.Errorf("read workbook stream: %w", err)
		}
		return stream, nil
	}
}

// repackCFB writes stream into a version 3 compound file laid out as FAT
// sectors, then the stream in consecutive sectors, then one directory
// sector. The stream is padded to the mini stream cutoff so it is always
// stored in regular sectors.
func repackCFB(stream []byte) ([]byte, error) {
	size := max(len(stream), cfbMiniCutoff)
	n := (size + cfbSectorSize - 1) / cfbSectorSize

	fats := 1
	for fats*cfbFATEntries < fats+n+1 {
		fats++
	}
	if fats > cfbHeaderFATs {
		return nil, fmt.Errorf("workbook stream of %d bytes is too large", len(stream))
	}
	dirSector := fats + n

	le := binary.LittleEndian
	buf := make([]byte, cfbSectorSize*(dirSector+2))

	h := buf[:cfbSectorSize]
	copy(h, oleMagic)
	le.PutUint16(h[24:], 0x003E)
	le.PutUint16(h[26:], 3)
	le.PutUint16(h[28:], 0xFFFE)
	le.PutUint16(h[30:], 9)
	le.PutUint16(h[32:], 6)
	le.PutUint32(h[44:], uint32(fats))
	le.PutUint32(h[48:], uint32(dirSector))
	le.PutUint32(h[56:], cfbMiniCutoff)
	le.PutUint32(h[60:], cfbEndOfChain)
	le.PutUint32(h[68:], cfbEndOfChain)
	for i := 0; i < cfbHeaderFATs; i++ {
		sid := uint32(cfbFreeSector)
		if i < fats {
			sid = uint32(i)
		}
		le.PutUint32(h[76+4*i:], sid)
	}

	// FAT entry e lives at byte 512+4e since the FAT sectors come first.
	for e := 0; e < fats*cfbFATEntries; e++ {
		next := uint32(cfbFreeSector)
		switch {
		case e < fats:
			next = cfbFATSector
		case e < dirSector-1:
			next = uint32(e + 1)
		case e == dirSector-1, e == dirSector:
			next = cfbEndOfChain
		}
		le.PutUint32(buf[cfbSectorSize+4*e:], next)
	}

	copy(buf[(fats+1)*cfbSectorSize:], stream)

	dir := buf[(dirSector+1)*cfbSectorSize:]
	putDirEntry(dir[0:128], "Root Entry", cfbStorageObject, 1, cfbEndOfChain, 0)
	putDirEntry(dir[128:256], "Workbook", cfbStreamObject, cfbNoStream, uint32(fats), uint64(size))

	return buf, nil
}

func putDirEntry(b []byte, name string, objectType byte, child, start uint32, size uint64) {
	le := binary.LittleEndian
	u := utf16.Encode([]rune(name))
	for i, c := range u {
		le.PutUint16(b[2*i:], c)
	}
	le.PutUint16(b[64:], uint16(2*(len(u)+1)))
	b[66] = objectType
	b[67] = 1
	le.PutUint32(b[68:], cfbNoStream)
	le.PutUint32(b[72:], cfbNoStream)
	le.PutUint32(b[76:], child)
	le.PutUint32(b[116:], start)
	le.PutUint64(b[120:], size)
}

// biffDate1904 scans the workbook globals for a DATEMODE record.
func biffDate1904(stream []byte) bool {
	le := binary.LittleEndian
	for p := 0; p+4 <= len(stream); {
		id := le.Uint16(stream[p:])
		n := int(le.Uint16(stream[p+2:]))
		switch id {
		case biffDateMode:
			return p+6 <= len(stream) && le.Uint16(stream[p+4:]) == 1
		case biffEOF:
			return false
		}
		p += 4 + n
	}
	return false
}

// xlsClassifier maps BIFF cell records to typed cells, caching whether each
// XF index carries a date format.
type xlsClassifier struct {
	wb         *xls.Workbook
	date1904   bool
	dateStyles map[int]bool
}

func (c *xlsClassifier) classify(cd structure.CellData) Cell {
	switch cd.(type) {
	case *record.Number, *record.Rk:
		num := cd.GetFloat64()
		if c.isDateStyled(cd.GetXFIndex()) {
			if cell := SerialDateCell(num, c.date1904); !cell.IsEmpty() {
				return cell
			}
		}
		return NumberCell(num)

	case *record.BoolErr:
		switch s := cd.GetString(); s {
		case "TRUE":
			return StringCell("true")
		case "FALSE":
			return StringCell("false")
		default:
			return StringCell(s)
		}

	case *record.Blank, *record.FakeBlank:
		return Cell{}
	}
	return StringCell(cd.GetString())
}

func (c *xlsClassifier) isDateStyled(xfIndex int) bool {
	if v, ok := c.dateStyles[xfIndex]; ok {
		return v
	}

	xf := c.wb.GetXFbyIndex(xfIndex)
	id := xf.GetFormatIndex()

	isDate := isBuiltinDateFormat(id)
	if id >= firstCustomFormat {
		format := c.wb.GetFormatByIndex(id)
		isDate = IsDateFormat(format.String())
	}
	c.dateStyles[xfIndex] = isDate
	return isDate
}
