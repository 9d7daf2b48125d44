package miriad

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/miriadio/miriad/internal/core"
)

func TestOpenCreateAndReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ds.mir")

	ds, err := Open(dir, ModeWrite, FlagCreateOK)
	require.NoError(t, err)
	require.True(t, ds.Writable())
	require.Equal(t, StatusOK, ds.SetSmall("ncorr", core.TypeInt32, 1, binary.NativeEndian.AppendUint32(nil, 1)))
	require.NoError(t, ds.Close())

	ds2, err := Open(dir, ModeRead, 0)
	require.NoError(t, err)
	defer ds2.Close()
	require.False(t, ds2.Writable())
	v, err := ds2.GetI64("ncorr")
	require.NoError(t, err)
	require.Equal(t, int64(1), v)
}

func TestOpenExistBadFailsWhenDirExists(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir, ModeWrite, FlagExistBad)
	require.Error(t, err)
}

func TestOpenExistBadSucceedsWhenAbsent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh.mir")
	ds, err := Open(dir, ModeWrite, FlagExistBad)
	require.NoError(t, err)
	require.NoError(t, ds.Close())
}

func TestOpenReadNonexistentDirFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nope.mir")
	_, err := Open(dir, ModeRead, 0)
	require.Error(t, err)
}

func TestOpenTruncateRemovesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vis"), []byte("stale"), 0644))

	ds, err := Open(dir, ModeWrite, FlagTruncate)
	require.NoError(t, err)
	require.False(t, ds.HasItem("vis"))
	require.NoError(t, ds.Close())
}

func TestOpenAppendRejectsOverwriteOfExistingSmallItem(t *testing.T) {
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	require.Equal(t, StatusOK, ds.SetSmall("nchan", core.TypeInt32, 1, []byte{0, 0, 0, 2}))
	require.NoError(t, ds.Close())

	ds2, err := Open(dir, ModeWrite, FlagAppend)
	require.NoError(t, err)
	defer ds2.Close()
	require.True(t, ds2.Append())
	status := ds2.SetSmall("nchan", core.TypeInt32, 1, []byte{0, 0, 0, 3})
	require.Equal(t, StatusInternalPerms, status)
}

func TestHeaderRoundTripMultipleItems(t *testing.T) {
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	require.Equal(t, StatusOK, ds.SetI64("nants", 27))
	require.Equal(t, StatusOK, ds.SetF64("epoch", 2000.5))
	require.Equal(t, StatusOK, ds.SetSmallString("telescop", "ATCA"))
	require.NoError(t, ds.Close())

	ds2, err := Open(dir, ModeRead, 0)
	require.NoError(t, err)
	defer ds2.Close()

	n, err := ds2.GetI64("nants")
	require.NoError(t, err)
	require.Equal(t, int64(27), n)

	e, err := ds2.GetF64("epoch")
	require.NoError(t, err)
	require.InDelta(t, 2000.5, e, 1e-9)

	s, err := ds2.GetSmallString("telescop")
	require.NoError(t, err)
	require.Equal(t, "ATCA", s)
}

func TestSetSmallRejectsOversizedValue(t *testing.T) {
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	defer ds.Close()

	big := make([]byte, 100)
	status := ds.SetSmall("big", core.TypeInt8, len(big), big)
	require.Equal(t, StatusFormat, status)
}

func TestSetSmallRejectsNvalsSizeMismatchWithoutOverflowingProduct(t *testing.T) {
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	defer ds.Close()

	// nvals chosen so nvals*t.Size() overflows a 64-bit product; SetSmall
	// must reject this as StatusFormat rather than let the multiplication
	// wrap around and accidentally match a short data slice.
	status := ds.SetSmall("huge", core.TypeInt64, 1<<62, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.Equal(t, StatusFormat, status)
}

func TestSetSmallRejectsOnReadOnlyDataset(t *testing.T) {
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	ds2, err := Open(dir, ModeRead, 0)
	require.NoError(t, err)
	defer ds2.Close()
	status := ds2.SetSmall("x", core.TypeInt32, 1, []byte{0, 0, 0, 1})
	require.Equal(t, StatusInternalPerms, status)
}

func TestItemLifecycleLargeItem(t *testing.T) {
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	defer ds.Close()

	w, err := ds.OpenItemWrite("vis", true)
	require.NoError(t, err)
	require.NoError(t, w.WriteRaw([]byte("some visibility bytes")))
	require.NoError(t, w.Close())

	require.True(t, ds.HasItem("vis"))

	r, err := ds.OpenItemRead("vis")
	require.NoError(t, err)
	got, err := r.FetchTemp(len("some visibility bytes"))
	require.NoError(t, err)
	require.Equal(t, "some visibility bytes", string(got))
	require.NoError(t, r.Close())

	require.NoError(t, ds.RenameItem("vis", "vis2"))
	require.False(t, ds.HasItem("vis"))
	require.True(t, ds.HasItem("vis2"))
}

func TestItemForReplaceAtomicRewrite(t *testing.T) {
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	defer ds.Close()

	w, err := ds.OpenItemWrite("flags", true)
	require.NoError(t, err)
	require.NoError(t, w.WriteRaw([]byte("old")))
	require.NoError(t, w.Close())

	rw, err := ds.OpenItemForReplace("flags")
	require.NoError(t, err)
	require.NoError(t, rw.WriteRaw([]byte("new-flags")))
	require.NoError(t, rw.Close())
	require.NoError(t, ds.FinishItemReplace("flags"))

	r, err := ds.OpenItemRead("flags")
	require.NoError(t, err)
	got, err := r.FetchTemp(len("new-flags"))
	require.NoError(t, err)
	require.Equal(t, "new-flags", string(got))
	require.NoError(t, r.Close())
}

func TestListItemsAndProbeItem(t *testing.T) {
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	defer ds.Close()

	require.Equal(t, StatusOK, ds.SetI64("nants", 6))
	w, err := ds.OpenItemWrite("vis", true)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	items, err := ds.ListItems()
	require.NoError(t, err)
	require.Len(t, items, 2)

	typ, nvals, err := ds.ProbeItem("nants")
	require.NoError(t, err)
	require.Equal(t, core.TypeInt64, typ)
	require.Equal(t, 1, nvals)

	_, _, err = ds.ProbeItem("nosuch")
	require.Error(t, err)
}

// probedSmallItem captures a small item's visible state (type, count,
// and widened value) for diffing across a write/reopen round-trip.
type probedSmallItem struct {
	Name  string
	Type  core.Type
	NVals int
	I64   int64
}

func probeAllSmall(t *testing.T, ds *Dataset, names []string) []probedSmallItem {
	t.Helper()
	out := make([]probedSmallItem, 0, len(names))
	for _, name := range names {
		typ, nvals, err := ds.ProbeItem(name)
		require.NoError(t, err)
		v, err := ds.GetI64(name)
		require.NoError(t, err)
		out = append(out, probedSmallItem{Name: name, Type: typ, NVals: nvals, I64: v})
	}
	return out
}

// TestHeaderRoundTripIsByteIdenticalInEffect covers Testable Property 7:
// a header successfully parsed and written back with no mutations
// reproduces identical small-item state, diffed with cmp.Diff for a
// readable failure instead of a raw reflect.DeepEqual mismatch.
func TestHeaderRoundTripIsByteIdenticalInEffect(t *testing.T) {
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	require.Equal(t, StatusOK, ds.SetI64("nants", 6))
	require.Equal(t, StatusOK, ds.SetI64("nchan", 128))
	require.NoError(t, ds.Close())

	names := []string{"nants", "nchan"}

	ds1, err := Open(dir, ModeRead, 0)
	require.NoError(t, err)
	before := probeAllSmall(t, ds1, names)
	require.NoError(t, ds1.Close())

	// Reopen for write with no mutations, forcing a header rewrite, then
	// reopen for read again.
	ds2, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	require.NoError(t, ds2.WriteHeader())
	require.NoError(t, ds2.Close())

	ds3, err := Open(dir, ModeRead, 0)
	require.NoError(t, err)
	after := probeAllSmall(t, ds3, names)
	require.NoError(t, ds3.Close())

	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("header round-trip changed small-item state (-before +after):\n%s", diff)
	}
}

func TestListItemsMatchesSmallAndLargeUnion(t *testing.T) {
	// E6: a dataset with large items flags, visdata, vartable plus small
	// items ncorr, telescop lists exactly that union, never "header".
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	defer ds.Close()

	require.Equal(t, StatusOK, ds.SetI64("ncorr", 4))
	require.Equal(t, StatusOK, ds.SetSmallString("telescop", "ATCA"))
	for _, name := range []string{"flags", "visdata", "vartable"} {
		w, err := ds.OpenItemWrite(name, true)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	items, err := ds.ListItems()
	require.NoError(t, err)
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	require.ElementsMatch(t, []string{"flags", "visdata", "vartable", "ncorr", "telescop"}, names)
}

// writeRawHeader writes a hand-built header file directly, bypassing
// writeHeader, so malformed records can be exercised.
func writeRawHeader(t *testing.T, dir string, body []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "header"), body, 0644))
}

// paddedRecordName returns the fixed 15-byte name field for a header
// record: name, NUL-padded, with byte 8 always NUL.
func paddedRecordName(name string) []byte {
	b := make([]byte, 15)
	copy(b, name)
	return b
}

func TestHeaderParseRejectsAlenFour(t *testing.T) {
	// Boundary case (§8): alen must be 0 or in [5,64]; 4 is invalid. The
	// record's 16-byte name+alen prefix is enough to trigger the check;
	// no further bytes are needed.
	dir := t.TempDir()
	body := append(paddedRecordName("x"), 4)
	writeRawHeader(t, dir, body)

	_, err := Open(dir, ModeRead, 0)
	require.Error(t, err)
}

func TestHeaderParseAcceptsAlenSixtyFour(t *testing.T) {
	// Boundary case (§8): alen = 64 is the maximum legal value. A
	// text item (align 1, data offset 4) with 60 bytes of payload packs
	// to exactly alen = 64.
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, FlagCreateOK)
	require.NoError(t, err)
	val := make([]byte, 60)
	for i := range val {
		val[i] = 'a' + byte(i%26)
	}
	require.Equal(t, StatusOK, ds.SetSmallString("big", string(val)))
	require.NoError(t, ds.Close())

	ds2, err := Open(dir, ModeRead, 0)
	require.NoError(t, err)
	defer ds2.Close()
	got, err := ds2.GetSmallString("big")
	require.NoError(t, err)
	require.Equal(t, string(val), got)
}

func TestHeaderParseRejectsNonNulByteEight(t *testing.T) {
	dir := t.TempDir()
	name := paddedRecordName("abcdefgh")
	name[8] = 'x' // violates "byte 8 must be NUL"
	body := append(name, 0)
	writeRawHeader(t, dir, body)

	_, err := Open(dir, ModeRead, 0)
	require.Error(t, err)
}

func TestOpenMaskExpandsUncompressedWordsWithoutLoadingWholeFile(t *testing.T) {
	// E4: a single big-endian word 0x55555555 expands to alternating
	// 1,0,1,0,... for its 31 payload bits.
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	w, err := ds.OpenItemWrite("flags", true)
	require.NoError(t, err)
	require.NoError(t, w.WriteRaw([]byte{0x55, 0x55, 0x55, 0x55}))
	require.NoError(t, w.Close())
	require.NoError(t, ds.Close())

	ds2, err := Open(dir, ModeRead, 0)
	require.NoError(t, err)
	defer ds2.Close()

	r, err := ds2.OpenMask("flags")
	require.NoError(t, err)
	defer r.Close()

	got := make([]byte, 31)
	require.NoError(t, r.ReadExpand(got, 31))
	want := make([]byte, 31)
	for i := range want {
		if i%2 == 0 {
			want[i] = 1
		}
	}
	require.Equal(t, want, got)
}

func TestOpenCompressedMaskDecompressesExternallyWrittenItem(t *testing.T) {
	payload := []byte{0x55, 0x55, 0x55, 0x55, 0xff, 0xff, 0xff, 0xff}
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	w, err := ds.OpenItemWrite("flags_z", true)
	require.NoError(t, err)

	var b bytes.Buffer
	enc, err := zstd.NewWriter(&b)
	require.NoError(t, err)
	_, err = enc.Write(payload)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, w.WriteRaw(b.Bytes()))
	require.NoError(t, w.Close())
	require.NoError(t, ds.Close())

	ds2, err := Open(dir, ModeRead, 0)
	require.NoError(t, err)
	defer ds2.Close()

	r, err := ds2.OpenCompressedMask("flags_z")
	require.NoError(t, err)
	defer r.Close()

	got := make([]byte, 31)
	require.NoError(t, r.ReadExpand(got, 31))
	want := make([]byte, 31)
	for i := range want {
		if i%2 == 0 {
			want[i] = 1
		}
	}
	require.Equal(t, want, got)
}

func TestListItemsFailsOnNameCollisionBetweenSmallAndFile(t *testing.T) {
	dir := t.TempDir()
	ds, err := Open(dir, ModeWrite, 0)
	require.NoError(t, err)
	defer ds.Close()

	require.Equal(t, StatusOK, ds.SetI64("ncorr", 4))
	require.NoError(t, ds.WriteHeader())
	// Simulate a malformed dataset where a small item's name also exists
	// as a sibling file, violating the "at most one of small_items[N] or
	// file N" invariant (§3).
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ncorr"), []byte("x"), 0644))

	_, err = ds.ListItems()
	require.Error(t, err)
}
