package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/dvloznov/bank-portal-sync/internal/portal"
)

// LineTerminator separates statement lines.
const LineTerminator = "\r\n"

// Unpack reads the first .csv entry of a ZIP archive as ISO-8859-1 text and
// splits it into lines. Other entries, including further CSV files, are
// ignored. An archive without a CSV entry yields no lines.
func Unpack(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("Unpack: %w: reading zip: %v", apperrors.ErrFormat, err)
	}

	for _, f := range zr.File {
		if !isCSV(f.Name) {
			continue
		}
		raw, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("Unpack: %s: %w", f.Name, err)
		}
		text, err := portal.DecodeLatin1(raw)
		if err != nil {
			return nil, fmt.Errorf("Unpack: %s: %w", f.Name, err)
		}
		return SplitLines(text), nil
	}
	return nil, nil
}

// SplitLines splits decoded statement text on CRLF.
func SplitLines(text string) []string {
	return strings.Split(text, LineTerminator)
}

func isCSV(name string) bool {
	return len(name) >= 4 && strings.EqualFold(name[len(name)-4:], ".csv")
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
