package mgf

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mobiusklein/mzdata/spectrum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallMGF = `COM=test run
CHARGE=2+

BEGIN IONS
TITLE=small.1.1
PEPMASS=445.12 12500.5
CHARGE=2+
RTINSECONDS=90
SCANS=1
100.1 200.0
101.2 300.5
102.3 10.0
END IONS

BEGIN IONS
TITLE=small.2.2
PEPMASS=612.37
CHARGE=+2
RTINSECONDS=150
200.5 10
201.5 20
END IONS

BEGIN IONS
TITLE=small.3.3
PEPMASS=733.9
CHARGE=2-
RTINSECONDS=210
300.1 5
END IONS

`

func TestParseCharge(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"2+", 2},
		{"+2", 2},
		{"2-", -2},
		{"-2", -2},
		{"3", 3},
		{"2+-4+", 2},
		{"2-4", 2},
	}
	for _, tc := range cases {
		got, err := ParseCharge(tc.in)
		require.NoError(t, err, "%q", tc.in)
		assert.Equal(t, tc.want, got, "%q", tc.in)
	}
	_, err := ParseCharge("")
	assert.Error(t, err)
	_, err = ParseCharge("++")
	assert.Error(t, err)
}

func TestReadSeekable(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte(smallMGF)))
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())
	assert.Equal(t, "test run", r.Globals()["COM"])

	s, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "small.1.1", s.ID)
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, 2, s.MSLevel, "MGF spectra are always MSn")
	assert.Equal(t, spectrum.ContinuityCentroid, s.Continuity)
	assert.Equal(t, spectrum.PolarityPositive, s.Polarity)
	require.Len(t, s.Peaks, 3)
	assert.InDelta(t, 100.1, s.Peaks[0].Mz, 1e-9)
	require.Len(t, s.Precursors, 1)
	ion := s.Precursors[0].Ions[0]
	assert.InDelta(t, 445.12, ion.MZ, 1e-9)
	assert.InDelta(t, 12500.5, ion.Intensity, 1e-9)
	assert.Equal(t, 2, ion.Charge)
	assert.InDelta(t, 1.5, s.StartTime(), 1e-9, "RTINSECONDS=90 is 1.5 minutes")

	// Sign-leading and sign-trailing forms both parse as +2, 2- as -2
	s2, err := r.SpectrumByID("small.2.2")
	require.NoError(t, err)
	assert.Equal(t, 2, s2.Precursors[0].Ions[0].Charge)
	s3, err := r.SpectrumByIndex(2)
	require.NoError(t, err)
	assert.Equal(t, -2, s3.Precursors[0].Ions[0].Charge)
	assert.Equal(t, spectrum.PolarityNegative, s3.Polarity)

	_, err = r.SpectrumByID("nope")
	assert.True(t, errors.Is(err, ErrInvalidSpectrumID))
}

func TestTrailingBlanksYieldNoSpectrum(t *testing.T) {
	src := "BEGIN IONS\nTITLE=x\nPEPMASS=100\n1 2\nEND IONS\n\n\n\n"
	r, err := NewReader(strings.NewReader(src))
	require.NoError(t, err)
	var count int
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 1, count)
}

type forwardOnly struct{ r io.Reader }

func (f forwardOnly) Read(p []byte) (int, error) { return f.r.Read(p) }

func TestStreamingRead(t *testing.T) {
	r, err := NewReader(forwardOnly{strings.NewReader(smallMGF)})
	require.NoError(t, err)
	assert.Nil(t, r.Index())

	ids := []string{}
	for {
		s, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"small.1.1", "small.2.2", "small.3.3"}, ids)

	_, err = r.SpectrumByIndex(0)
	assert.True(t, errors.Is(err, ErrUnseekable))
}

func TestWriteRoundTrip(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte(smallMGF)))
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewWriter(&buf)

	// MS1 spectra are skipped silently
	ms1 := spectrum.New("scan=1", 0)
	ms1.MSLevel = 1
	require.NoError(t, w.WriteSpectrum(ms1))
	assert.Equal(t, 1, w.SpectraSkipped())

	for {
		s, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.NoError(t, w.WriteSpectrum(s))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, 3, w.SpectraWritten())

	out := buf.String()
	assert.NotContains(t, out, "scan=1", "MS1 must not appear")
	assert.Contains(t, out, "CHARGE=2+")
	assert.Contains(t, out, "CHARGE=2-", "negative charge uses the sign suffix form")
	assert.Contains(t, out, "RTINSECONDS=90")

	back, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 3, back.Len())
	s, err := back.SpectrumByID("small.1.1")
	require.NoError(t, err)
	require.Len(t, s.Peaks, 3)
	assert.InDelta(t, 101.2, s.Peaks[1].Mz, 1e-9)
}

func TestTitleSynthesisedFromIndex(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	s := spectrum.New("", 7)
	s.MSLevel = 2
	s.Peaks = []spectrum.CentroidPeak{{Mz: 100, Intens: 1}}
	require.NoError(t, w.WriteSpectrum(s))
	require.NoError(t, w.Close())
	assert.Contains(t, buf.String(), "TITLE=index=7")
}
