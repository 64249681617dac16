package ingestion

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"html"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal PDF with one Helvetica text run per page. An
// empty string produces a page with an empty content stream.
func buildPDF(pages ...string) []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // pages, filled below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	kids := make([]string, 0, len(pages))
	for i, text := range pages {
		pageNum := 4 + 2*i
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))
		stream := ""
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageNum+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// buildDOCX writes a DOCX archive whose body holds one w:p per paragraph.
func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, html.EscapeString(p))
	}
	return buildDOCXRaw(t, body.String())
}

func buildDOCXRaw(t *testing.T, bodyXML string) []byte {
	t.Helper()
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006">` +
		`<w:body>` + bodyXML + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml":   document,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// wordDocFixture is the stream pair of a Word 97 document. The text is
// stored once; repeat > 1 lists that many pieces all pointing at it.
type wordDocFixture struct {
	text       string
	compressed bool
	prcPrefix  bool
	repeat     int
}

const fixtureTextOffset = 1024

func (f wordDocFixture) build() (wordDoc, table []byte) {
	wordDoc = make([]byte, 4096)
	le16 := binary.LittleEndian.PutUint16
	le32 := binary.LittleEndian.PutUint32

	le16(wordDoc[0:], fibMagic)
	le16(wordDoc[2:], 0x00C1)
	le16(wordDoc[fibFlagsOffset:], fibWhichTableFlag)
	le16(wordDoc[32:], 14) // csw
	le16(wordDoc[62:], 22) // cslw
	chars := []rune(f.text)
	repeat := max(f.repeat, 1)
	le32(wordDoc[64+fibCcpTextIndex*4:], uint32(len(chars)*repeat))
	le16(wordDoc[152:], 93) // cbRgFcLcb

	var fc uint32
	if f.compressed {
		copy(wordDoc[fixtureTextOffset:], []byte(f.text))
		fc = uint32(fixtureTextOffset*2) | pieceCompressed
	} else {
		units := utf16.Encode(chars)
		for i, u := range units {
			le16(wordDoc[fixtureTextOffset+2*i:], u)
		}
		fc = fixtureTextOffset
	}

	var clx bytes.Buffer
	if f.prcPrefix {
		clx.Write([]byte{clxPrc, 0x02, 0x00, 0xAA, 0xBB})
	}
	plc := make([]byte, 4*(repeat+1)+pcdSize*repeat)
	for i := 0; i <= repeat; i++ {
		le32(plc[4*i:], uint32(len(chars)*i))
	}
	for i := range repeat {
		le32(plc[4*(repeat+1)+pcdSize*i+2:], fc)
	}
	clx.WriteByte(clxPcdt)
	lcb := make([]byte, 4)
	le32(lcb, uint32(len(plc)))
	clx.Write(lcb)
	clx.Write(plc)

	table = make([]byte, max(4096, (clx.Len()+511)/512*512))
	copy(table, clx.Bytes())
	pair := 154 + fibClxPairIndex*8
	le32(wordDoc[pair:], 0)
	le32(wordDoc[pair+4:], uint32(clx.Len()))
	return wordDoc, table
}

// buildCompoundFile writes a version 3 OLE compound file: one FAT sector,
// one directory sector, then each stream in regular sectors. Streams must be
// at least 4096 bytes so no mini stream is needed.
func buildCompoundFile(t *testing.T, names []string, streams [][]byte) []byte {
	t.Helper()
	const (
		sector     = 512
		endOfChain = 0xFFFFFFFE
		freeSect   = 0xFFFFFFFF
		fatSect    = 0xFFFFFFFD
		noStream   = 0xFFFFFFFF
	)
	require.Len(t, streams, len(names))
	require.LessOrEqual(t, len(names), 3)

	le16 := binary.LittleEndian.PutUint16
	le32 := binary.LittleEndian.PutUint32

	fat := make([]uint32, sector/4)
	for i := range fat {
		fat[i] = freeSect
	}
	fat[0] = fatSect
	fat[1] = endOfChain

	starts := make([]uint32, len(streams))
	next := uint32(2)
	for i, s := range streams {
		require.GreaterOrEqual(t, len(s), 4096)
		require.Zero(t, len(s)%sector)
		starts[i] = next
		count := uint32(len(s) / sector)
		for j := uint32(0); j < count; j++ {
			if j == count-1 {
				fat[next+j] = endOfChain
			} else {
				fat[next+j] = next + j + 1
			}
		}
		next += count
	}

	header := make([]byte, sector)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le16(header[24:], 0x003E)
	le16(header[26:], 0x0003)
	le16(header[28:], 0xFFFE)
	le16(header[30:], 9)
	le16(header[32:], 6)
	le32(header[44:], 1) // FAT sectors
	le32(header[48:], 1) // first directory sector
	le32(header[56:], 4096)
	le32(header[60:], endOfChain)
	le32(header[68:], endOfChain)
	le32(header[76:], 0)
	for i := 1; i < 109; i++ {
		le32(header[76+4*i:], freeSect)
	}

	entry := func(name string, objType byte, right, child, start uint32, size int) []byte {
		e := make([]byte, 128)
		units := utf16.Encode([]rune(name))
		for i, u := range units {
			le16(e[2*i:], u)
		}
		le16(e[64:], uint16((len(units)+1)*2))
		e[66] = objType
		e[67] = 1 // black
		le32(e[68:], noStream)
		le32(e[72:], right)
		le32(e[76:], child)
		le32(e[116:], start)
		le32(e[120:], uint32(size))
		return e
	}

	dir := make([]byte, 0, sector)
	dir = append(dir, entry("Root Entry", 5, noStream, 1, endOfChain, 0)...)
	for i, name := range names {
		right := uint32(noStream)
		if i < len(names)-1 {
			right = uint32(i + 2)
		}
		dir = append(dir, entry(name, 2, right, noStream, starts[i], len(streams[i]))...)
	}
	for len(dir) < sector {
		e := make([]byte, 128)
		le32(e[68:], noStream)
		le32(e[72:], noStream)
		le32(e[76:], noStream)
		dir = append(dir, e...)
	}

	var buf bytes.Buffer
	buf.Write(header)
	fatBytes := make([]byte, sector)
	for i, v := range fat {
		le32(fatBytes[4*i:], v)
	}
	buf.Write(fatBytes)
	buf.Write(dir)
	for _, s := range streams {
		buf.Write(s)
	}
	return buf.Bytes()
}

func buildDOC(t *testing.T, f wordDocFixture) []byte {
	t.Helper()
	wordDoc, table := f.build()
	return buildCompoundFile(t, []string{"1Table", "WordDocument"}, [][]byte{table, wordDoc})
}
