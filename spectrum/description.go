// Package spectrum models spectra and chromatograms: scan and precursor
// descriptions, the peak layers of a multi-layer spectrum, and ion-mobility
// frames.
package spectrum

import (
	"github.com/mobiusklein/mzdata/params"
)

// Polarity is the scan polarity.
type Polarity int

const (
	PolarityUnknown Polarity = iota
	PolarityPositive
	PolarityNegative
)

func (p Polarity) String() string {
	switch p {
	case PolarityPositive:
		return "positive"
	case PolarityNegative:
		return "negative"
	}
	return "unknown"
}

// SignalContinuity distinguishes profile traces from centroided peaks.
type SignalContinuity int

const (
	ContinuityUnknown SignalContinuity = iota
	ContinuityProfile
	ContinuityCentroid
)

func (c SignalContinuity) String() string {
	switch c {
	case ContinuityProfile:
		return "profile"
	case ContinuityCentroid:
		return "centroid"
	}
	return "unknown"
}

// ScanWindow is one [low, high] m/z acquisition window.
type ScanWindow struct {
	Low  float64
	High float64
}

// ScanEvent describes a single scan of the acquisition. StartTime is in
// minutes regardless of the unit on the wire.
type ScanEvent struct {
	StartTime                  float64
	InjectionTime              float64
	DriftTime                  float64 // ion mobility drift, milliseconds
	InverseReducedIM           float64 // 1/K0, Vs/cm^2
	FilterString               string
	InstrumentConfigurationRef string
	Windows                    []ScanWindow
	Params                     params.ParamList
}

// ScanList is the scan combination of a spectrum.
type ScanList struct {
	Events []ScanEvent
	Params params.ParamList
}

// First returns the first scan event, the common case.
func (s *ScanList) First() *ScanEvent {
	if len(s.Events) == 0 {
		return nil
	}
	return &s.Events[0]
}

// IsolationWindow is the precursor isolation window.
type IsolationWindow struct {
	Target      float64
	LowerOffset float64
	UpperOffset float64
	Params      params.ParamList
}

// SelectedIon is one selected precursor ion.
type SelectedIon struct {
	MZ        float64
	Charge    int
	Intensity float64
	Params    params.ParamList
}

// Activation describes the dissociation applied to the precursor.
type Activation struct {
	Method   params.DissociationMethod
	Energy   float64
	Energies []float64
	Params   params.ParamList
}

// Precursor ties selected ions, isolation and activation to the parent
// spectrum's native id.
type Precursor struct {
	SpectrumRef     string
	Ions            []SelectedIon
	IsolationWindow IsolationWindow
	Activation      Activation
	Params          params.ParamList
}

// Ion returns the first selected ion, the common case.
func (p *Precursor) Ion() *SelectedIon {
	if len(p.Ions) == 0 {
		return nil
	}
	return &p.Ions[0]
}

// Description carries the spectrum-level attributes shared by every peak
// layer state.
type Description struct {
	ID         string
	Index      int
	MSLevel    int
	Polarity   Polarity
	Continuity SignalContinuity
	ScanList   ScanList
	Precursors []Precursor
	Params     params.ParamList
}

// StartTime returns the scan start time in minutes, or 0 when absent.
func (d *Description) StartTime() float64 {
	if ev := d.ScanList.First(); ev != nil {
		return ev.StartTime
	}
	return 0
}

// Precursor returns the first precursor, nil for MS1 spectra.
func (d *Description) Precursor() *Precursor {
	if len(d.Precursors) == 0 {
		return nil
	}
	return &d.Precursors[0]
}
