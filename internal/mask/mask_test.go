package mask

import (
	"bytes"
	"compress/flate"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

func TestReadExpandSingleWord(t *testing.T) {
	word := []byte{0x55, 0x55, 0x55, 0x55}
	r := NewReaderFromBytes(bytes.NewReader(word))

	dst := make([]byte, 31)
	require.NoError(t, r.ReadExpand(dst, 31))

	want := make([]byte, 31)
	for i := range want {
		if i%2 == 0 {
			want[i] = 1
		}
	}
	require.Equal(t, want, dst)
}

func TestReadExpandAcrossWords(t *testing.T) {
	data := []byte{0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00}
	r := NewReaderFromBytes(bytes.NewReader(data))

	dst := make([]byte, 40)
	require.NoError(t, r.ReadExpand(dst, 40))
	for i := 0; i < 31; i++ {
		require.Equal(t, byte(1), dst[i], "bit %d", i)
	}
	for i := 31; i < 40; i++ {
		require.Equal(t, byte(0), dst[i], "bit %d", i)
	}
}

func TestReadExpandShortWordIsFormatError(t *testing.T) {
	r := NewReaderFromBytes(bytes.NewReader([]byte{0x01, 0x02, 0x03}))
	dst := make([]byte, 1)
	require.Error(t, r.ReadExpand(dst, 1))
}

func TestDecompressRejectsUnrecognizedMagic(t *testing.T) {
	_, err := Decompress([]byte{0x55, 0x55, 0x55, 0x55})
	require.Error(t, err)
}

func TestDecompressZstd(t *testing.T) {
	payload := []byte{0x55, 0x55, 0x55, 0x55, 0xff, 0xff, 0xff, 0xff}
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write(payload)
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	r, err := Decompress(buf.Bytes())
	require.NoError(t, err)
	got := make([]byte, len(payload))
	_, err = r.Read(got)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestDecompressFlate(t *testing.T) {
	payload := []byte{0x55, 0x55, 0x55, 0x55, 0xff, 0xff, 0xff, 0xff}
	var raw bytes.Buffer
	raw.Write([]byte{0x78, 0x9c})
	fw, err := flate.NewWriter(&raw, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	r, err := Decompress(raw.Bytes())
	require.NoError(t, err)
	got := make([]byte, len(payload))
	_, err = r.Read(got)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}
