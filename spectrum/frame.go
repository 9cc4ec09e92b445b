package spectrum

import (
	"github.com/mobiusklein/mzdata/bindata"
)

// IonMobilityFrame is a spectrum whose points are additionally resolved
// along an ion-mobility axis, stored as stacked per-bin 2-D maps.
type IonMobilityFrame struct {
	Description
	Arrays *bindata.BinaryArrayMap3D
}

// FrameFromSpectrum stacks a spectrum carrying a per-point ion-mobility
// array into frame form. tol is the bin-equality tolerance.
func FrameFromSpectrum(s *Spectrum, tol float64) (*IonMobilityFrame, error) {
	stacked, err := bindata.Stack(s.Arrays, tol)
	if err != nil {
		return nil, err
	}
	return &IonMobilityFrame{Description: s.Description, Arrays: stacked}, nil
}

// ToSpectrum flattens the frame back to a 2-D spectrum.
func (f *IonMobilityFrame) ToSpectrum() (*Spectrum, error) {
	flat, err := bindata.Unstack(f.Arrays)
	if err != nil {
		return nil, err
	}
	return &Spectrum{Description: f.Description, Arrays: flat}, nil
}

// BinCount returns the number of ion-mobility bins.
func (f *IonMobilityFrame) BinCount() int { return len(f.Arrays.Bins) }
