package params

// Compact enums for frequently consulted PSI-MS term families. The tables
// are immutable after init and safe for concurrent reads.

// DissociationMethod enumerates activation cvParam terms.
type DissociationMethod int

const (
	DissociationUnknown DissociationMethod = iota
	DissociationCID
	DissociationHCD
	DissociationETD
	DissociationECD
	DissociationEThcD
	DissociationPhotodissociation
	DissociationIRMPD
	DissociationSID
	DissociationBIRD
	DissociationInSourceCID
)

var dissociationByAccession = map[CURIE]DissociationMethod{
	MS(1000133): DissociationCID,
	MS(1000422): DissociationHCD,
	MS(1000598): DissociationETD,
	MS(1000250): DissociationECD,
	MS(1002631): DissociationEThcD,
	MS(1000435): DissociationPhotodissociation,
	MS(1000262): DissociationIRMPD,
	MS(1000297): DissociationSID,
	MS(1000242): DissociationBIRD,
	MS(1001880): DissociationInSourceCID,
}

var dissociationTerms = map[DissociationMethod]struct {
	accession CURIE
	name      string
}{
	DissociationCID:               {MS(1000133), "collision-induced dissociation"},
	DissociationHCD:               {MS(1000422), "beam-type collision-induced dissociation"},
	DissociationETD:               {MS(1000598), "electron transfer dissociation"},
	DissociationECD:               {MS(1000250), "electron capture dissociation"},
	DissociationEThcD:             {MS(1002631), "Electron-Transfer/Higher-Energy Collision Dissociation (EThcD)"},
	DissociationPhotodissociation: {MS(1000435), "photodissociation"},
	DissociationIRMPD:             {MS(1000262), "infrared multiphoton dissociation"},
	DissociationSID:               {MS(1000297), "surface-induced dissociation"},
	DissociationBIRD:              {MS(1000242), "blackbody infrared radiative dissociation"},
	DissociationInSourceCID:       {MS(1001880), "in-source collision-induced dissociation"},
}

// DissociationFromAccession classifies an activation term.
func DissociationFromAccession(c CURIE) DissociationMethod {
	return dissociationByAccession[c]
}

// Param returns the CV term for a dissociation method.
func (d DissociationMethod) Param() (Param, bool) {
	t, ok := dissociationTerms[d]
	if !ok {
		return Param{}, false
	}
	return NewCVParam(t.accession, t.name, Value{}), true
}

// File-format and conversion terms used on sourceFile and dataProcessing
// records when copying metadata between files.
var (
	TermMzMLFormat       = MS(1000584) // mzML format
	TermMGFFormat        = MS(1001062) // Mascot MGF format
	TermMzMLbFormat      = MS(1002838) // mzMLb format
	TermThermoRAWFormat  = MS(1000563) // Thermo RAW format
	TermBrukerTDFFormat  = MS(1002817) // Bruker TDF format
	TermConversionToMzML = MS(1000544) // Conversion to mzML
	TermSHA1             = MS(1000569) // SHA-1
	TermMD5              = MS(1000568) // MD5
)

// Spectrum attribute terms read and written by every format backend.
var (
	TermMSLevel           = MS(1000511)
	TermCentroidSpectrum  = MS(1000127)
	TermProfileSpectrum   = MS(1000128)
	TermPositiveScan      = MS(1000130)
	TermNegativeScan      = MS(1000129)
	TermMS1Spectrum       = MS(1000579)
	TermMSnSpectrum       = MS(1000580)
	TermScanStartTime     = MS(1000016)
	TermIonInjectionTime  = MS(1000927)
	TermFilterString      = MS(1000512)
	TermPresetScanConfig  = MS(1000616)
	TermBasePeakMZ        = MS(1000504)
	TermBasePeakIntensity = MS(1000505)
	TermTotalIonCurrent   = MS(1000285)
	TermLowestObservedMZ  = MS(1000528)
	TermHighestObservedMZ = MS(1000527)
	TermScanWindowLower   = MS(1000501)
	TermScanWindowUpper   = MS(1000500)
	TermSelectedIonMZ     = MS(1000744)
	TermChargeState       = MS(1000041)
	TermPeakIntensity     = MS(1000042)
	TermIsolationTarget   = MS(1000827)
	TermIsolationLower    = MS(1000828)
	TermIsolationUpper    = MS(1000829)
	TermCollisionEnergy   = MS(1000045)
	TermIonMobilityDrift  = MS(1002476) // ion mobility drift time
	TermInverseReducedIM  = MS(1002815) // inverse reduced ion mobility
	TermSpectrumTitle     = MS(1000796)
)

// MassAnalyzer enumerates the analyzer component terms that drive
// instrument-dependent behavior downstream.
type MassAnalyzer int

const (
	AnalyzerUnknown MassAnalyzer = iota
	AnalyzerFTICR
	AnalyzerTOF
	AnalyzerOrbitrap
	AnalyzerQuadrupole
	AnalyzerIonTrap
)

var analyzerByAccession = map[CURIE]MassAnalyzer{
	MS(1000079): AnalyzerFTICR,
	MS(1000084): AnalyzerTOF,
	MS(1000484): AnalyzerOrbitrap,
	MS(1000081): AnalyzerQuadrupole,
	MS(1000264): AnalyzerIonTrap,
}

// AnalyzerFromAccession classifies an analyzer component term.
func AnalyzerFromAccession(c CURIE) MassAnalyzer {
	return analyzerByAccession[c]
}

// SoftwareKind enumerates acquisition/processing software terms worth
// recognising when copying metadata.
type SoftwareKind int

const (
	SoftwareUnknown SoftwareKind = iota
	SoftwareXcalibur
	SoftwareProteoWizard
	SoftwareMascot
	SoftwareCompassXtract
)

var softwareByAccession = map[CURIE]SoftwareKind{
	MS(1000532): SoftwareXcalibur,
	MS(1000615): SoftwareProteoWizard,
	MS(1001456): SoftwareMascot,
	MS(1000718): SoftwareCompassXtract,
}

// SoftwareFromAccession classifies a software cvParam.
func SoftwareFromAccession(c CURIE) SoftwareKind {
	return softwareByAccession[c]
}

// Chromatogram type terms.
var (
	TermTICChromatogram = MS(1000235)
	TermBPCChromatogram = MS(1000628)
	TermSICChromatogram = MS(1000627)
)
