// Package fitsheader reads the primary header of FITS files into a keyword map.
package fitsheader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tphakala/aftermidnight/internal/errors"
)

const (
	// BlockSize is the FITS logical record length
	BlockSize = 2880
	// CardSize is the length of one header card
	CardSize = 80

	// maxHeaderBlocks bounds how far a reader looks for END
	maxHeaderBlocks = 1024
)

// ErrHeaderRead marks a file whose header could not be read or parsed
var ErrHeaderRead = errors.NewStd("header read failure")

// Reader returns the header keywords of an image file
type Reader interface {
	Read(path string) (map[string]any, error)
}

// ReaderFunc adapts a function to Reader
type ReaderFunc func(path string) (map[string]any, error)

// Read calls f(path)
func (f ReaderFunc) Read(path string) (map[string]any, error) {
	return f(path)
}

// PrimaryHeaderReader parses the primary HDU header of a FITS file.
// Values are typed as string, bool, int64 or float64; keywords without a
// value, COMMENT and HISTORY cards are left out.
type PrimaryHeaderReader struct{}

// NewReader returns the default FITS header reader
func NewReader() PrimaryHeaderReader {
	return PrimaryHeaderReader{}
}

// Read implements Reader
func (PrimaryHeaderReader) Read(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, headerError(err, path, errors.CategoryFileIO)
	}
	defer f.Close()

	header, err := Parse(bufio.NewReaderSize(f, BlockSize))
	if err != nil {
		return nil, headerError(err, path, errors.CategoryFileParsing)
	}
	return header, nil
}

func headerError(err error, path string, category errors.ErrorCategory) error {
	return errors.New(fmt.Errorf("%w: %w", ErrHeaderRead, err)).
		Component("fitsheader").
		Category(category).
		FileContext(path).
		Build()
}

// Parse reads header blocks from r up to the END card
func Parse(r io.Reader) (map[string]any, error) {
	header := make(map[string]any)
	block := make([]byte, BlockSize)

	for n := 0; n < maxHeaderBlocks; n++ {
		if _, err := io.ReadFull(r, block); err != nil {
			if n == 0 && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
				return nil, fmt.Errorf("file shorter than one header block")
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("header ended without END card")
			}
			return nil, err
		}

		if n == 0 && !bytes.HasPrefix(block, []byte("SIMPLE  =")) {
			return nil, fmt.Errorf("missing SIMPLE card")
		}

		for off := 0; off < BlockSize; off += CardSize {
			card := string(block[off : off+CardSize])
			keyword := strings.TrimRight(card[:8], " ")
			if keyword == "END" {
				return header, nil
			}

			key, value, ok, err := parseCard(keyword, card)
			if err != nil {
				return nil, fmt.Errorf("card %q: %w", keyword, err)
			}
			if ok {
				header[key] = value
			}
		}
	}

	return nil, fmt.Errorf("no END card within %d blocks", maxHeaderBlocks)
}

// parseCard returns the keyword and typed value of a value card
func parseCard(keyword, card string) (string, any, bool, error) {
	switch keyword {
	case "", "COMMENT", "HISTORY":
		return "", nil, false, nil
	case "HIERARCH":
		rest := card[8:]
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			return "", nil, false, nil
		}
		key := strings.TrimSpace(rest[:eq])
		value, ok, err := parseValue(rest[eq+1:])
		return key, value, ok && key != "", err
	}

	if card[8:10] != "= " {
		return "", nil, false, nil
	}
	value, ok, err := parseValue(card[10:])
	return keyword, value, ok, err
}

// parseValue decodes the value field of a card, dropping any inline comment
func parseValue(field string) (any, bool, error) {
	field = strings.TrimLeft(field, " ")
	if field == "" || field[0] == '/' {
		return nil, false, nil
	}

	if field[0] == '\'' {
		s, err := parseString(field)
		if err != nil {
			return nil, false, err
		}
		return s, true, nil
	}

	if slash := strings.IndexByte(field, '/'); slash >= 0 {
		field = field[:slash]
	}
	field = strings.TrimSpace(field)

	switch field {
	case "":
		return nil, false, nil
	case "T":
		return true, true, nil
	case "F":
		return false, true, nil
	}

	if i, err := strconv.ParseInt(field, 10, 64); err == nil {
		return i, true, nil
	}
	if f, err := strconv.ParseFloat(strings.NewReplacer("D", "E", "d", "e").Replace(field), 64); err == nil {
		return f, true, nil
	}
	// Complex and other non-standard values are kept verbatim.
	return field, true, nil
}

// parseString decodes a quoted FITS string with '' escapes. Trailing blanks
// are not significant.
func parseString(field string) (string, error) {
	var sb strings.Builder
	for i := 1; i < len(field); i++ {
		if field[i] != '\'' {
			sb.WriteByte(field[i])
			continue
		}
		if i+1 < len(field) && field[i+1] == '\'' {
			sb.WriteByte('\'')
			i++
			continue
		}
		return strings.TrimRight(sb.String(), " "), nil
	}
	return "", fmt.Errorf("unterminated string")
}
