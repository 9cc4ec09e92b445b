package mzdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/mobiusklein/mzdata/bindata"
	"github.com/mobiusklein/mzdata/meta"
	"github.com/mobiusklein/mzdata/mzml"
	"github.com/mobiusklein/mzdata/spectrum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMzML writes a small synthetic run: an MS1 every third spectrum, MS2
// children pointing at the preceding MS1.
func buildMzML(t *testing.T, n int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := mzml.NewWriter(&buf, mzml.WithSpectrumCountHint(n))
	w.SetRun(meta.Run{ID: "synthetic"})
	lastMS1 := ""
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("scan=%d", i+1)
		s := spectrum.New(id, i)
		s.Continuity = spectrum.ContinuityCentroid
		s.Polarity = spectrum.PolarityPositive
		s.ScanList.Events = append(s.ScanList.Events, spectrum.ScanEvent{StartTime: float64(i) * 0.2})
		mz := []float64{200.25, 450.5, 810.4154}
		intens := []float64{5, 10, 100}
		s.Arrays.Add(bindata.NewDataArray(bindata.ArrayMZ, bindata.Float64, mz))
		s.Arrays.Add(bindata.NewDataArray(bindata.ArrayIntensity, bindata.Float32, intens))
		if i%3 == 0 {
			s.MSLevel = 1
			lastMS1 = id
		} else {
			s.MSLevel = 2
			s.Precursors = append(s.Precursors, spectrum.Precursor{
				SpectrumRef: lastMS1,
				Ions:        []spectrum.SelectedIon{{MZ: 450.5, Charge: 2}},
			})
		}
		require.NoError(t, w.WriteSpectrum(s))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestInferFromStream(t *testing.T) {
	doc := buildMzML(t, 3)

	format, gzipped, err := InferFromStream(bytes.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, FormatMzML, format)
	assert.False(t, gzipped)

	format, gzipped, err = InferFromStream(bytes.NewReader(gzipBytes(t, doc)))
	require.NoError(t, err)
	assert.Equal(t, FormatMzML, format)
	assert.True(t, gzipped)

	mgfDoc := []byte("BEGIN IONS\nTITLE=a\nPEPMASS=100\n1 2\nEND IONS\n")
	format, gzipped, err = InferFromStream(bytes.NewReader(mgfDoc))
	require.NoError(t, err)
	assert.Equal(t, FormatMGF, format)
	assert.False(t, gzipped)

	hdf5 := append([]byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}, make([]byte, 64)...)
	format, _, err = InferFromStream(bytes.NewReader(hdf5))
	require.NoError(t, err)
	assert.Equal(t, FormatMzMLb, format)

	format, _, err = InferFromStream(bytes.NewReader([]byte("just some text, nothing else")))
	require.NoError(t, err)
	assert.Equal(t, FormatUnknown, format)
}

func TestInferFromPath(t *testing.T) {
	f, g := InferFromPath("sample.mzML")
	assert.Equal(t, FormatMzML, f)
	assert.False(t, g)
	f, g = InferFromPath("sample.mzML.gz")
	assert.Equal(t, FormatMzML, f)
	assert.True(t, g)
	f, g = InferFromPath("peaks.MGF")
	assert.Equal(t, FormatMGF, f)
	assert.False(t, g)
}

func TestRestartableGzipReader(t *testing.T) {
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	r, err := NewRestartableGzipReader(bytes.NewReader(gzipBytes(t, payload)))
	require.NoError(t, err)

	head := make([]byte, 100)
	_, err = io.ReadFull(r, head)
	require.NoError(t, err)
	assert.Equal(t, payload[:100], head)

	// Forward seek decodes and discards
	_, err = r.Seek(1000, io.SeekStart)
	require.NoError(t, err)
	chunk := make([]byte, 10)
	_, err = io.ReadFull(r, chunk)
	require.NoError(t, err)
	assert.Equal(t, payload[1000:1010], chunk)

	// Backward seek replays from the start
	_, err = r.Seek(50, io.SeekStart)
	require.NoError(t, err)
	_, err = io.ReadFull(r, chunk)
	require.NoError(t, err)
	assert.Equal(t, payload[50:60], chunk)

	// End-relative seeks are not supported
	_, err = r.Seek(0, io.SeekEnd)
	assert.True(t, errors.Is(err, ErrUnseekable))
}

func TestOpenReadSeekerMzML(t *testing.T) {
	doc := buildMzML(t, 6)
	r, err := OpenReadSeeker(bytes.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, FormatMzML, r.Format)
	assert.Equal(t, 6, r.Len())

	s, err := r.SpectrumByID("scan=4")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Index)
	peak, err := s.BasePeak()
	require.NoError(t, err)
	assert.InDelta(t, 810.4154, peak.Mz, 1e-4)
}

func TestGzippedMzMLRandomAccess(t *testing.T) {
	doc := buildMzML(t, 5)
	r, err := OpenReadSeeker(bytes.NewReader(gzipBytes(t, doc)))
	require.NoError(t, err)
	assert.Equal(t, FormatMzML, r.Format)
	require.Equal(t, 5, r.Len())

	// Random access over gzip replays the stream as needed
	s, err := r.SpectrumByIndex(4)
	require.NoError(t, err)
	assert.Equal(t, "scan=5", s.ID)
	s, err = r.SpectrumByIndex(1)
	require.NoError(t, err)
	assert.Equal(t, "scan=2", s.ID)
}

// sliceSource feeds a fixed spectrum list.
type sliceSource struct {
	spectra []*spectrum.Spectrum
	pos     int
}

func (s *sliceSource) Next() (*spectrum.Spectrum, error) {
	if s.pos >= len(s.spectra) {
		return nil, io.EOF
	}
	out := s.spectra[s.pos]
	s.pos++
	return out, nil
}

func (s *sliceSource) SpectrumCountHint() int       { return len(s.spectra) }
func (s *sliceSource) Metadata() *meta.FileMetadata { md := meta.NewFileMetadata(); return &md }

func makeGroupedRun() []*spectrum.Spectrum {
	mk := func(id string, index, level int, ref string) *spectrum.Spectrum {
		s := spectrum.New(id, index)
		s.MSLevel = level
		if ref != "" {
			s.Precursors = append(s.Precursors, spectrum.Precursor{SpectrumRef: ref})
		}
		return s
	}
	return []*spectrum.Spectrum{
		mk("scan=1", 0, 1, ""),
		mk("scan=2", 1, 2, "scan=1"),
		mk("scan=3", 2, 2, "scan=1"),
		mk("scan=4", 3, 1, ""),
		mk("scan=5", 4, 2, "scan=4"),
		mk("scan=6", 5, 2, "scan=4"),
		mk("scan=7", 6, 2, "scan=4"),
	}
}

func TestGroupingIterator(t *testing.T) {
	it := NewGroupIterator(&sliceSource{spectra: makeGroupedRun()})
	groups, err := it.Collect()
	require.NoError(t, err)
	require.Len(t, groups, 2)

	require.NotNil(t, groups[0].Precursor)
	assert.Equal(t, "scan=1", groups[0].Precursor.ID)
	require.Len(t, groups[0].Products, 2)
	assert.Equal(t, "scan=2", groups[0].Products[0].ID)
	assert.Equal(t, "scan=3", groups[0].Products[1].ID)

	assert.Equal(t, "scan=4", groups[1].Precursor.ID)
	assert.Len(t, groups[1].Products, 3)
	assert.Equal(t, 7, groups[0].TotalSpectra()+groups[1].TotalSpectra())
}

func TestGroupingOrphans(t *testing.T) {
	mk := func(id string, index, level int, ref string) *spectrum.Spectrum {
		s := spectrum.New(id, index)
		s.MSLevel = level
		if ref != "" {
			s.Precursors = append(s.Precursors, spectrum.Precursor{SpectrumRef: ref})
		}
		return s
	}
	// MSn spectra whose parents were never seen
	run := []*spectrum.Spectrum{
		mk("scan=10", 0, 2, "scan=9"),
		mk("scan=11", 1, 2, "scan=9"),
		mk("scan=20", 2, 1, ""),
		mk("scan=21", 3, 2, "scan=20"),
	}
	it := NewGroupIterator(&sliceSource{spectra: run})
	groups, err := it.Collect()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Nil(t, groups[0].Precursor, "unseen parent yields a nil precursor")
	assert.Len(t, groups[0].Products, 2)
	require.NotNil(t, groups[1].Precursor)
	assert.Equal(t, "scan=20", groups[1].Precursor.ID)
}

// forwardOnly hides the Seek method of a reader.
type forwardOnly struct{ r io.Reader }

func (f forwardOnly) Read(p []byte) (int, error) { return f.r.Read(p) }

func TestStreamingSourceContract(t *testing.T) {
	doc := buildMzML(t, 6)

	open := func() *StreamingSource {
		mr, err := mzml.NewReader(forwardOnly{bytes.NewReader(doc)})
		require.NoError(t, err)
		return NewStreamingSource(mr)
	}

	// Far-forward index requests run off the end and report a miss
	s := open()
	_, err := s.SpectrumByIndex(1000000)
	assert.True(t, errors.Is(err, ErrIndexNotFound))

	// Forward then backward: the passed position panics
	s = open()
	sp, err := s.SpectrumByIndex(3)
	require.NoError(t, err)
	assert.Equal(t, 3, sp.Index)
	assert.Panics(t, func() { _, _ = s.SpectrumByIndex(1) })

	// By-id forward scan
	s = open()
	sp, err = s.SpectrumByID("scan=2")
	require.NoError(t, err)
	assert.Equal(t, 1, sp.Index)

	// By-time forward scan buffers the overshoot spectrum
	s = open()
	sp, err = s.SpectrumByTime(0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, sp.Index, "largest start time at or below 0.5")
	nxt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, 3, nxt.Index, "the overshoot spectrum is not lost")
}

func TestGroupingOverRealRun(t *testing.T) {
	doc := buildMzML(t, 9)
	r, err := OpenReadSeeker(bytes.NewReader(doc))
	require.NoError(t, err)
	groups, err := r.Groups().Collect()
	require.NoError(t, err)
	require.Len(t, groups, 3)
	for _, g := range groups {
		require.NotNil(t, g.Precursor)
		assert.Equal(t, 1, g.Precursor.MSLevel)
		assert.Len(t, g.Products, 2)
		for _, p := range g.Products {
			assert.Equal(t, g.Precursor.ID, p.Precursors[0].SpectrumRef,
				"products sit in the group of the MS1 their precursor references")
		}
	}
}
