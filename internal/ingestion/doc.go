package ingestion

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Word 97-2003 binary layout (MS-DOC).
const (
	fibMagic          = 0xA5EC
	fibFlagsOffset    = 0x0A
	fibEncryptedFlag  = 0x0100
	fibWhichTableFlag = 0x0200
	fibBaseSize       = 32
	fibCcpTextIndex   = 3  // FibRgLw97.ccpText
	fibClxPairIndex   = 33 // FibRgFcLcb97.fcClx / lcbClx
	pieceCompressed   = 0x40000000
	clxPrc            = 0x01
	clxPcdt           = 0x02
	pcdSize           = 8
	maxDocStreamBytes = 64 << 20
)

var errTruncated = errors.New("truncated Word binary structure")

// extractDOC reads a legacy .doc compound file. Files that are really
// OOXML archives with a .doc name are decoded as DOCX.
func extractDOC(data []byte) (string, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return extractDOCX(data)
	}

	cfb, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("not an OLE compound file: %w", err)
	}

	streams := make(map[string][]byte)
	for entry, err := cfb.Next(); err == nil; entry, err = cfb.Next() {
		switch entry.Name {
		case "WordDocument", "0Table", "1Table":
		default:
			continue
		}
		if entry.Size > maxDocStreamBytes {
			return "", fmt.Errorf("stream %s exceeds %d bytes", entry.Name, maxDocStreamBytes)
		}
		buf := make([]byte, entry.Size)
		if _, err := io.ReadFull(entry, buf); err != nil {
			return "", fmt.Errorf("failed to read stream %s: %w", entry.Name, err)
		}
		streams[entry.Name] = buf
	}

	wordDoc, ok := streams["WordDocument"]
	if !ok {
		return "", errors.New("compound file has no WordDocument stream")
	}
	return decodeWordText(wordDoc, streams["0Table"], streams["1Table"])
}

// decodeWordText walks the piece table of the main document and returns its
// text with paragraph marks converted to newlines.
func decodeWordText(wordDoc, table0, table1 []byte) (string, error) {
	if len(wordDoc) < fibBaseSize+2 {
		return "", errTruncated
	}
	if binary.LittleEndian.Uint16(wordDoc) != fibMagic {
		return "", errors.New("WordDocument stream has no FIB signature")
	}
	flags := binary.LittleEndian.Uint16(wordDoc[fibFlagsOffset:])
	if flags&fibEncryptedFlag != 0 {
		return "", errors.New("document is encrypted")
	}
	table := table0
	if flags&fibWhichTableFlag != 0 {
		table = table1
	}
	if table == nil {
		return "", errors.New("table stream referenced by FIB is missing")
	}

	ccpText, fcClx, lcbClx, err := readFib(wordDoc)
	if err != nil {
		return "", err
	}
	if uint64(fcClx)+uint64(lcbClx) > uint64(len(table)) {
		return "", errTruncated
	}

	pieces, err := readPieceTable(table[fcClx : fcClx+lcbClx])
	if err != nil {
		return "", err
	}

	// Each character takes at least one byte of the WordDocument stream.
	// A larger count means pieces overlap.
	if uint64(ccpText) > uint64(len(wordDoc)) {
		return "", fmt.Errorf("character count %d exceeds WordDocument stream size %d", ccpText, len(wordDoc))
	}

	var out []rune
	for _, p := range pieces {
		remaining := ccpText - uint32(len(out))
		if remaining == 0 {
			break
		}
		chunk, err := p.decode(wordDoc, remaining)
		if err != nil {
			return "", err
		}
		out = append(out, []rune(chunk)...)
	}
	return mapWordControls(out), nil
}

// readFib returns the main-document character count and the Clx location.
func readFib(wordDoc []byte) (ccpText, fcClx, lcbClx uint32, err error) {
	pos := fibBaseSize
	csw := int(binary.LittleEndian.Uint16(wordDoc[pos:]))
	pos += 2 + csw*2
	if pos+2 > len(wordDoc) {
		return 0, 0, 0, errTruncated
	}
	cslw := int(binary.LittleEndian.Uint16(wordDoc[pos:]))
	rgLw := pos + 2
	pos = rgLw + cslw*4
	if cslw <= fibCcpTextIndex || pos+2 > len(wordDoc) {
		return 0, 0, 0, errTruncated
	}
	ccpText = binary.LittleEndian.Uint32(wordDoc[rgLw+fibCcpTextIndex*4:])

	cbRgFcLcb := int(binary.LittleEndian.Uint16(wordDoc[pos:]))
	rgFcLcb := pos + 2
	pair := rgFcLcb + fibClxPairIndex*8
	if cbRgFcLcb <= fibClxPairIndex || pair+8 > len(wordDoc) {
		return 0, 0, 0, errTruncated
	}
	fcClx = binary.LittleEndian.Uint32(wordDoc[pair:])
	lcbClx = binary.LittleEndian.Uint32(wordDoc[pair+4:])
	return ccpText, fcClx, lcbClx, nil
}

type piece struct {
	cpStart, cpEnd uint32
	fc             uint32
	compressed     bool
}

// decode returns at most limit characters of the piece.
func (p piece) decode(wordDoc []byte, limit uint32) (string, error) {
	count := uint64(min(p.cpEnd-p.cpStart, limit))
	if p.compressed {
		start := uint64(p.fc / 2)
		if start+count > uint64(len(wordDoc)) {
			return "", errTruncated
		}
		b, err := charmap.Windows1252.NewDecoder().Bytes(wordDoc[start : start+count])
		if err != nil {
			return "", fmt.Errorf("failed to decode CP1252 piece: %w", err)
		}
		return string(b), nil
	}
	start := uint64(p.fc)
	if start+count*2 > uint64(len(wordDoc)) {
		return "", errTruncated
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	b, err := dec.Bytes(wordDoc[start : start+count*2])
	if err != nil {
		return "", fmt.Errorf("failed to decode UTF-16 piece: %w", err)
	}
	return string(b), nil
}

// readPieceTable skips Prc entries and parses the PlcPcd inside the Pcdt.
func readPieceTable(clx []byte) ([]piece, error) {
	pos := 0
	for pos < len(clx) && clx[pos] == clxPrc {
		if pos+3 > len(clx) {
			return nil, errTruncated
		}
		cb := int(int16(binary.LittleEndian.Uint16(clx[pos+1:])))
		if cb < 0 {
			return nil, errors.New("negative Prc size")
		}
		pos += 3 + cb
	}
	if pos+5 > len(clx) || clx[pos] != clxPcdt {
		return nil, errors.New("Clx has no piece table")
	}
	lcb := int(binary.LittleEndian.Uint32(clx[pos+1:]))
	plc := clx[pos+5:]
	if lcb < 4 || lcb > len(plc) || (lcb-4)%(4+pcdSize) != 0 {
		return nil, errors.New("malformed PlcPcd")
	}
	plc = plc[:lcb]

	n := (lcb - 4) / (4 + pcdSize)
	pcds := plc[4*(n+1):]
	pieces := make([]piece, 0, n)
	for i := 0; i < n; i++ {
		cpStart := binary.LittleEndian.Uint32(plc[4*i:])
		cpEnd := binary.LittleEndian.Uint32(plc[4*(i+1):])
		if cpEnd < cpStart {
			return nil, errors.New("piece table is not ascending")
		}
		fc := binary.LittleEndian.Uint32(pcds[i*pcdSize+2:])
		pieces = append(pieces, piece{
			cpStart:    cpStart,
			cpEnd:      cpEnd,
			fc:         fc &^ pieceCompressed,
			compressed: fc&pieceCompressed != 0,
		})
	}
	return pieces, nil
}

// mapWordControls converts Word's in-band control characters to plain text
// and drops field instructions, keeping field results.
func mapWordControls(text []rune) string {
	var sb strings.Builder
	fieldDepth := 0
	inCode := make([]bool, 0, 4)
	for _, r := range text {
		switch r {
		case 0x13: // field begin
			fieldDepth++
			inCode = append(inCode, true)
			continue
		case 0x14: // field separator
			if fieldDepth > 0 {
				inCode[fieldDepth-1] = false
			}
			continue
		case 0x15: // field end
			if fieldDepth > 0 {
				fieldDepth--
				inCode = inCode[:fieldDepth]
			}
			continue
		}
		if fieldDepth > 0 && inCode[fieldDepth-1] {
			continue
		}
		switch r {
		case '\r', 0x0B, 0x0C:
			sb.WriteByte('\n')
		case 0x07:
			sb.WriteByte('\t')
		case 0x1E:
			sb.WriteByte('-')
		case 0x01, 0x08, 0x1F:
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
