// Package fitstest builds minimal FITS files for tests.
package fitstest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// Card is one header keyword and value. A nil Value writes a keyword with
// no value.
type Card struct {
	Key   string
	Value any
}

// Encode returns a primary header with SIMPLE, the given cards and END,
// padded to whole blocks, followed by one empty data block.
func Encode(cards ...Card) []byte {
	var buf bytes.Buffer
	writeCard(&buf, formatCard(Card{Key: "SIMPLE", Value: true}))
	writeCard(&buf, formatCard(Card{Key: "BITPIX", Value: 16}))
	writeCard(&buf, formatCard(Card{Key: "NAXIS", Value: 0}))
	for _, c := range cards {
		writeCard(&buf, formatCard(c))
	}
	writeCard(&buf, "END")
	pad(&buf, ' ')

	buf.Write(make([]byte, blockSize))
	return buf.Bytes()
}

// Write creates dir/name (and missing parent dirs) holding Encode(cards...)
// and returns the full path.
func Write(t *testing.T, dir, name string, cards ...Card) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, Encode(cards...), 0o600))
	return path
}

func formatCard(c Card) string {
	var value string
	switch v := c.Value.(type) {
	case nil:
		return fmt.Sprintf("%-8s=", c.Key)
	case string:
		quoted := "'" + strings.ReplaceAll(v, "'", "''")
		for len(quoted) < 9 {
			quoted += " "
		}
		value = quoted + "'"
	case bool:
		value = fmt.Sprintf("%20s", map[bool]string{true: "T", false: "F"}[v])
	case float64:
		value = fmt.Sprintf("%20s", strconv.FormatFloat(v, 'E', -1, 64))
	default:
		value = fmt.Sprintf("%20v", v)
	}
	return fmt.Sprintf("%-8s= %s", c.Key, value)
}

func writeCard(buf *bytes.Buffer, card string) {
	if len(card) > cardSize {
		card = card[:cardSize]
	}
	buf.WriteString(card)
	buf.WriteString(strings.Repeat(" ", cardSize-len(card)))
}

func pad(buf *bytes.Buffer, fill byte) {
	if rem := buf.Len() % blockSize; rem != 0 {
		buf.Write(bytes.Repeat([]byte{fill}, blockSize-rem))
	}
}
