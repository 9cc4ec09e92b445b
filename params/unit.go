package params

// Unit terms used on parameters and binary data arrays. The closed set here
// covers the units the mzML and MGF codecs emit; unrecognised units survive
// as raw CURIEs on the Param.
var (
	UnitMZ                            = MS(1000040) // m/z
	UnitMinute                        = UO(31)      // minute
	UnitSecond                        = UO(10)      // second
	UnitMillisecond                   = UO(28)      // millisecond
	UnitNanometer                     = UO(18)      // nanometer
	UnitDetectorCounts                = MS(1000131) // number of detector counts
	UnitPercentBase                   = MS(1000132) // percent of base peak
	UnitElectronvolt                  = UO(266)     // electronvolt
	UnitCelsius                       = UO(27)      // degree Celsius
	UnitPascal                        = UO(110)     // pascal
	UnitVoltSecondPerSquareCentimeter = MS(1002814) // inverse reduced ion mobility unit
)

// UnitName returns the CV name for the known unit terms, or "" when the unit
// is outside the emitted set.
func UnitName(u CURIE) string {
	switch u {
	case UnitMZ:
		return "m/z"
	case UnitMinute:
		return "minute"
	case UnitSecond:
		return "second"
	case UnitMillisecond:
		return "millisecond"
	case UnitNanometer:
		return "nanometer"
	case UnitDetectorCounts:
		return "number of detector counts"
	case UnitPercentBase:
		return "percent of base peak"
	case UnitElectronvolt:
		return "electronvolt"
	case UnitCelsius:
		return "degree Celsius"
	case UnitPascal:
		return "pascal"
	case UnitVoltSecondPerSquareCentimeter:
		return "volt-second per square centimeter"
	}
	return ""
}
