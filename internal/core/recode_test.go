package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInPlaceRecodeInvolution(t *testing.T) {
	types := []Type{TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64, TypeComplex, TypeText}
	for _, typ := range types {
		typ := typ
		t.Run(typ.String(), func(t *testing.T) {
			n := 3
			orig := make([]byte, n*typ.Size())
			for i := range orig {
				orig[i] = byte(i*7 + 1)
			}
			buf := append([]byte(nil), orig...)

			require.NoError(t, InPlaceRecode(buf, typ, n))
			require.NoError(t, InPlaceRecode(buf, typ, n))
			require.Equal(t, orig, buf)
		})
	}
}

func TestInPlaceRecodeZeroCountNoop(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	require.NoError(t, InPlaceRecode(buf, TypeInt32, 0))
	require.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestCopyRecodeMatchesInPlace(t *testing.T) {
	src := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	inPlace := append([]byte(nil), src...)
	require.NoError(t, InPlaceRecode(inPlace, TypeInt32, 2))

	dst := make([]byte, len(src))
	require.NoError(t, CopyRecode(dst, src, TypeInt32, 2))
	require.Equal(t, inPlace, dst)
}

func TestCopyRecodeBufferTooSmall(t *testing.T) {
	src := []byte{1, 2, 3}
	dst := make([]byte, 4)
	require.Error(t, CopyRecode(dst, src, TypeInt32, 1))
}
