// Package pdftest builds small, valid PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// PageSpec describes one page of a generated document.
type PageSpec struct {
	// Lines are drawn top to bottom. Text must be printable ASCII without
	// parentheses or backslashes.
	Lines []string
	// Corrupt gives the page a content stream that cannot be decoded.
	Corrupt bool
}

// Build returns a PDF with one page per entry of pages. An empty string
// produces a page without a content stream; "\n" separates lines.
func Build(pages ...string) []byte {
	specs := make([]PageSpec, len(pages))
	for i, text := range pages {
		if text != "" {
			specs[i].Lines = strings.Split(text, "\n")
		}
	}
	return BuildPages(specs...)
}

// BuildPages returns a PDF with one page per spec.
func BuildPages(pages ...PageSpec) []byte {
	// Object layout: 1 catalog, 2 page tree, 3 font, then per page a page
	// object followed by its content stream.
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")
	objects = append(objects, "") // page tree, filled in below
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	kids := make([]string, 0, len(pages))
	for _, page := range pages {
		pageNum := len(objects) + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))

		if !page.Corrupt && len(page.Lines) == 0 {
			objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> >>")
			continue
		}

		contentNum := pageNum + 1
		objects = append(objects, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentNum))

		if page.Corrupt {
			garbage := "this is not a zlib stream"
			objects = append(objects, fmt.Sprintf("<< /Length %d /Filter /FlateDecode >>\nstream\n%s\nendstream",
				len(garbage), garbage))
			continue
		}

		var content strings.Builder
		content.WriteString("BT\n/F1 12 Tf\n72 720 Td\n14 TL\n")
		for i, line := range page.Lines {
			if i > 0 {
				content.WriteString("T*\n")
			}
			fmt.Fprintf(&content, "(%s) Tj\n", line)
		}
		content.WriteString("ET")
		stream := content.String()
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
