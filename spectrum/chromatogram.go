package spectrum

import (
	"github.com/mobiusklein/mzdata/bindata"
	"github.com/mobiusklein/mzdata/params"
)

// ChromatogramType classifies a chromatogram trace.
type ChromatogramType int

const (
	ChromatogramUnknown ChromatogramType = iota
	ChromatogramTIC
	ChromatogramBasePeak
	ChromatogramSIC
)

// ChromatogramTypeFromParam classifies the declaring cvParam.
func ChromatogramTypeFromParam(p params.Param) ChromatogramType {
	switch {
	case p.Is(params.TermTICChromatogram):
		return ChromatogramTIC
	case p.Is(params.TermBPCChromatogram):
		return ChromatogramBasePeak
	case p.Is(params.TermSICChromatogram):
		return ChromatogramSIC
	}
	return ChromatogramUnknown
}

// Term returns the CV term declaring the chromatogram type.
func (c ChromatogramType) Term() (params.CURIE, string, bool) {
	switch c {
	case ChromatogramTIC:
		return params.TermTICChromatogram, "total ion current chromatogram", true
	case ChromatogramBasePeak:
		return params.TermBPCChromatogram, "basepeak chromatogram", true
	case ChromatogramSIC:
		return params.TermSICChromatogram, "selected ion current chromatogram", true
	}
	return params.CURIE{}, "", false
}

// Chromatogram mirrors Spectrum with the time axis primary.
type Chromatogram struct {
	ID        string
	Index     int
	Type      ChromatogramType
	Precursor *Precursor
	Arrays    *bindata.BinaryArrayMap
	Params    params.ParamList
}

// Time returns the decoded time axis.
func (c *Chromatogram) Time() ([]float64, error) {
	a, ok := c.Arrays.Get(bindata.ArrayTime)
	if !ok {
		return nil, ErrNoPeakData
	}
	return a.Decoded()
}

// Intensity returns the decoded intensity trace.
func (c *Chromatogram) Intensity() ([]float64, error) {
	return c.Arrays.Intensity()
}
