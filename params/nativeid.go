package params

import (
	"errors"
	"regexp"
	"strconv"
)

// NativeIDFormat identifies one of the closed set of CV native spectrum
// identifier formats.
type NativeIDFormat int

const (
	NativeIDUnknown          NativeIDFormat = iota
	NativeIDThermo                          // controllerType=x controllerNumber=y scan=z
	NativeIDScanNumber                      // scan=N
	NativeIDSpectrumID                      // spectrum=N
	NativeIDMultiplePeakList                // index=N
	NativeIDSinglePeakList                  // file=...
	NativeIDMGFTitle                        // arbitrary TITLE text
)

type nativeIDSpec struct {
	format    NativeIDFormat
	accession CURIE
	name      string
	re        *regexp.Regexp
	scanGroup int // regexp group holding the numeric scan value, 0 if none
}

// Regexes follow the CV xsd patterns; a scan number is derived from the
// capture group when one exists.
var nativeIDSpecs = []nativeIDSpec{
	{NativeIDThermo, MS(1000768), "Thermo nativeID format",
		regexp.MustCompile(`^controllerType=(\d+) controllerNumber=(\d+) scan=(\d+)$`), 3},
	{NativeIDScanNumber, MS(1000776), "scan number only nativeID format",
		regexp.MustCompile(`^scan=(\d+)$`), 1},
	{NativeIDSpectrumID, MS(1000777), "spectrum identifier nativeID format",
		regexp.MustCompile(`^spectrum=(\d+)$`), 1},
	{NativeIDMultiplePeakList, MS(1000774), "multiple peak list nativeID format",
		regexp.MustCompile(`^index=(\d+)$`), 1},
	{NativeIDSinglePeakList, MS(1000775), "single peak list nativeID format",
		regexp.MustCompile(`^file=(.+)$`), 0},
	{NativeIDMGFTitle, MS(1000824), "no nativeID format", regexp.MustCompile(`^.*$`), 0},
}

// ErrNoScanNumber means a native id carries no derivable numeric scan number.
var ErrNoScanNumber = errors.New("params: native id has no scan number")

// DetectNativeIDFormat classifies a native id string against the CV patterns.
func DetectNativeIDFormat(id string) NativeIDFormat {
	for _, spec := range nativeIDSpecs {
		if spec.re != nil && spec.re.MatchString(id) {
			return spec.format
		}
	}
	return NativeIDUnknown
}

// NativeIDFormatParam returns the CV term describing the format.
func NativeIDFormatParam(f NativeIDFormat) (CURIE, string, bool) {
	for _, spec := range nativeIDSpecs {
		if spec.format == f {
			return spec.accession, spec.name, true
		}
	}
	return CURIE{}, "", false
}

// ScanNumber derives the numeric scan number from a native id using the CV
// regex for its detected format.
func ScanNumber(id string) (int, error) {
	for _, spec := range nativeIDSpecs {
		if spec.re == nil || spec.scanGroup == 0 {
			continue
		}
		if m := spec.re.FindStringSubmatch(id); m != nil {
			n, err := strconv.Atoi(m[spec.scanGroup])
			if err != nil {
				return 0, err
			}
			return n, nil
		}
	}
	return 0, ErrNoScanNumber
}
