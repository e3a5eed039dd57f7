package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/cobranzas/internal/encoding"
)

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestDetect_UTF8Passthrough(t *testing.T) {
	input := "status,item_type\npending,depósito\n"

	r, charset, err := encoding.Detect(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, encoding.UTF8, charset)
	assert.Equal(t, input, readAll(t, r))
}

func TestDetect_Windows1252(t *testing.T) {
	utf8CSV := "status,client_last_names,item_type\npending,Muñoz Peña,depósito\n"

	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	r, charset, err := encoding.Detect(bytes.NewReader(latin1))
	require.NoError(t, err)

	// chardet may label short Latin-1 text as Turkish; both decode these bytes identically.
	assert.Contains(t, []string{encoding.Windows1252, encoding.ISO88599}, charset)
	assert.Equal(t, utf8CSV, readAll(t, r))
}

func TestDetect_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("status\npendiente\n")...)

	r, charset, err := encoding.Detect(bytes.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, encoding.UTF8BOM, charset)
	assert.Equal(t, "status\npendiente\n", readAll(t, r))
}

func TestDetect_RuneSplitAtPeekBoundary(t *testing.T) {
	// 4095 ASCII bytes followed by a two-byte rune straddles the peek window.
	input := strings.Repeat("a", 4095) + "ó\n"

	r, charset, err := encoding.Detect(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, encoding.UTF8, charset)
	assert.Equal(t, input, readAll(t, r))
}

func TestDetect_Empty(t *testing.T) {
	r, charset, err := encoding.Detect(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, encoding.UTF8, charset)
	assert.Equal(t, "", readAll(t, r))
}
