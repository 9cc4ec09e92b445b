package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mobiusklein/mzdata/bindata"
)

func testSpectrum() *Spectrum {
	s := New("scan=1", 0)
	s.MSLevel = 1
	s.Continuity = ContinuityCentroid
	s.Arrays.Add(bindata.NewDataArray(bindata.ArrayMZ, bindata.Float64,
		[]float64{100.5, 200.25, 810.4154, 1201.9}))
	s.Arrays.Add(bindata.NewDataArray(bindata.ArrayIntensity, bindata.Float32,
		[]float64{10, 250, 1000, 3}))
	return s
}

func TestCentroidLayerFromArrays(t *testing.T) {
	s := testSpectrum()
	peaks, err := s.CentroidLayer()
	if err != nil {
		t.Errorf("CentroidLayer: error return %v", err)
	}
	want := []CentroidPeak{
		{100.5, 10}, {200.25, 250}, {810.4154, 1000}, {1201.9, 3},
	}
	if diff := cmp.Diff(want, peaks); diff != "" {
		t.Errorf("CentroidLayer mismatch (-want +got):\n%s", diff)
	}
	if s.PeakCount() != 4 {
		t.Errorf("PeakCount: %d, should be 4", s.PeakCount())
	}
}

func TestBasePeakAndTIC(t *testing.T) {
	s := testSpectrum()
	bp, err := s.BasePeak()
	if err != nil {
		t.Errorf("BasePeak: error return %v", err)
	}
	if math.Abs(bp.Mz-810.4154) > 1e-9 {
		t.Errorf("BasePeak: mz %f, should be 810.4154", bp.Mz)
	}
	tic, err := s.TotalIonCurrent()
	if err != nil {
		t.Errorf("TotalIonCurrent: error return %v", err)
	}
	if tic != 1263 {
		t.Errorf("TotalIonCurrent: %f, should be 1263", tic)
	}
	lo, hi, err := s.MzRange()
	if err != nil {
		t.Errorf("MzRange: error return %v", err)
	}
	if lo != 100.5 || hi != 1201.9 {
		t.Errorf("MzRange: [%f, %f]", lo, hi)
	}
}

func TestPeaksLayerWins(t *testing.T) {
	s := testSpectrum()
	s.Peaks = []CentroidPeak{{500, 1}}
	peaks, err := s.CentroidLayer()
	if err != nil {
		t.Errorf("CentroidLayer: error return %v", err)
	}
	if len(peaks) != 1 || peaks[0].Mz != 500 {
		t.Errorf("CentroidLayer: %+v, the explicit peak layer should win", peaks)
	}
}

func TestEmptySpectrum(t *testing.T) {
	s := New("scan=2", 1)
	if _, err := s.BasePeak(); !errors.Is(err, ErrNoPeakData) {
		t.Errorf("BasePeak: error return %v, should be ErrNoPeakData", err)
	}
	if s.PeakCount() != 0 {
		t.Errorf("PeakCount: %d, should be 0", s.PeakCount())
	}
}

func TestFrameRoundTrip(t *testing.T) {
	s := New("frame=1", 0)
	s.Arrays.Add(bindata.NewDataArray(bindata.ArrayRawIonMobility, bindata.Float64,
		[]float64{0.8, 0.8, 1.0, 1.0, 1.0}))
	s.Arrays.Add(bindata.NewDataArray(bindata.ArrayMZ, bindata.Float64,
		[]float64{100, 200, 110, 210, 310}))
	s.Arrays.Add(bindata.NewDataArray(bindata.ArrayIntensity, bindata.Float32,
		[]float64{1, 2, 3, 4, 5}))

	frame, err := FrameFromSpectrum(s, 1e-6)
	if err != nil {
		t.Fatalf("FrameFromSpectrum: error return %v", err)
	}
	if frame.BinCount() != 2 {
		t.Errorf("BinCount: %d, should be 2", frame.BinCount())
	}

	back, err := frame.ToSpectrum()
	if err != nil {
		t.Fatalf("ToSpectrum: error return %v", err)
	}
	mz, err := back.Arrays.MZ()
	if err != nil {
		t.Fatalf("MZ: error return %v", err)
	}
	if diff := cmp.Diff([]float64{100, 200, 110, 210, 310}, mz); diff != "" {
		t.Errorf("unstacked m/z mismatch (-want +got):\n%s", diff)
	}
}

func TestChromatogramAxes(t *testing.T) {
	c := &Chromatogram{ID: "TIC", Type: ChromatogramTIC, Arrays: bindata.NewBinaryArrayMap()}
	c.Arrays.Add(bindata.NewDataArray(bindata.ArrayTime, bindata.Float64, []float64{0.1, 0.2, 0.3}))
	c.Arrays.Add(bindata.NewDataArray(bindata.ArrayIntensity, bindata.Float32, []float64{9, 8, 7}))

	tm, err := c.Time()
	if err != nil {
		t.Errorf("Time: error return %v", err)
	}
	if len(tm) != 3 || tm[2] != 0.3 {
		t.Errorf("Time: %+v", tm)
	}
	intens, err := c.Intensity()
	if err != nil {
		t.Errorf("Intensity: error return %v", err)
	}
	if len(intens) != 3 {
		t.Errorf("Intensity: %+v", intens)
	}
}
