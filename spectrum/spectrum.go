package spectrum

import (
	"errors"
	"math"

	"github.com/mobiusklein/mzdata/bindata"
)

// ErrNoPeakData means a spectrum carries no layer the operation can use.
var ErrNoPeakData = errors.New("spectrum: no peak data")

// CentroidPeak is one centroided peak.
type CentroidPeak struct {
	Mz     float64
	Intens float64
}

// DeconvolutedPeak is one charge-deconvoluted peak.
type DeconvolutedPeak struct {
	NeutralMass float64
	Charge      int
	Intens      float64
}

// Spectrum is a multi-layer spectrum: raw binary arrays, an optional
// centroid peak list, and an optional deconvoluted peak list may coexist.
// Raw arrays stay encoded until first use.
type Spectrum struct {
	Description
	Arrays       *bindata.BinaryArrayMap
	Peaks        []CentroidPeak
	Deconvoluted []DeconvolutedPeak
}

// New returns an empty spectrum with an allocated array map.
func New(id string, index int) *Spectrum {
	return &Spectrum{
		Description: Description{ID: id, Index: index, MSLevel: 1},
		Arrays:      bindata.NewBinaryArrayMap(),
	}
}

// HasRawArrays reports whether raw binary arrays are present.
func (s *Spectrum) HasRawArrays() bool {
	return s.Arrays != nil && s.Arrays.Len() > 0
}

// PeakCount returns the number of points in the first populated layer,
// checked in order: centroid peaks, deconvoluted peaks, raw arrays.
func (s *Spectrum) PeakCount() int {
	if len(s.Peaks) > 0 {
		return len(s.Peaks)
	}
	if len(s.Deconvoluted) > 0 {
		return len(s.Deconvoluted)
	}
	if s.Arrays != nil {
		return s.Arrays.PointCount()
	}
	return 0
}

// CentroidLayer returns the centroid peak list, materialising it from the
// m/z and intensity arrays when only arrays were stored. The spectrum's
// continuity is not consulted.
func (s *Spectrum) CentroidLayer() ([]CentroidPeak, error) {
	if len(s.Peaks) > 0 {
		return s.Peaks, nil
	}
	if !s.HasRawArrays() {
		return nil, ErrNoPeakData
	}
	mz, err := s.Arrays.MZ()
	if err != nil {
		return nil, err
	}
	intens, err := s.Arrays.Intensity()
	if err != nil {
		return nil, err
	}
	n := len(mz)
	if len(intens) < n {
		n = len(intens)
	}
	peaks := make([]CentroidPeak, n)
	for i := 0; i < n; i++ {
		peaks[i] = CentroidPeak{Mz: mz[i], Intens: intens[i]}
	}
	return peaks, nil
}

// BasePeak returns the most intense peak.
func (s *Spectrum) BasePeak() (CentroidPeak, error) {
	peaks, err := s.CentroidLayer()
	if err != nil {
		return CentroidPeak{}, err
	}
	if len(peaks) == 0 {
		return CentroidPeak{}, ErrNoPeakData
	}
	best := peaks[0]
	for _, p := range peaks[1:] {
		if p.Intens > best.Intens {
			best = p
		}
	}
	return best, nil
}

// TotalIonCurrent sums the intensity layer.
func (s *Spectrum) TotalIonCurrent() (float64, error) {
	peaks, err := s.CentroidLayer()
	if err != nil {
		return math.NaN(), err
	}
	tic := 0.0
	for _, p := range peaks {
		tic += p.Intens
	}
	return tic, nil
}

// MzRange returns the lowest and highest observed m/z.
func (s *Spectrum) MzRange() (lo, hi float64, err error) {
	peaks, err := s.CentroidLayer()
	if err != nil || len(peaks) == 0 {
		return 0, 0, ErrNoPeakData
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range peaks {
		lo = math.Min(lo, p.Mz)
		hi = math.Max(hi, p.Mz)
	}
	return lo, hi, nil
}
