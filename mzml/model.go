// Package mzml reads and writes the HUPO-PSI mzML format, including the
// indexed variant with its byte-offset trailer and file checksum.
package mzml

import (
	"encoding/xml"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mobiusklein/mzdata/bindata"
	"github.com/mobiusklein/mzdata/meta"
	"github.com/mobiusklein/mzdata/params"
	"github.com/mobiusklein/mzdata/spectrum"
)

var (
	// ErrMalformedXML means the document structure could not be parsed.
	ErrMalformedXML = errors.New("mzml: malformed XML")
	// ErrMalformedAttribute means a required attribute was missing or bad.
	ErrMalformedAttribute = errors.New("mzml: malformed attribute")
	// ErrInvalidSpectrumID means an unknown native id was requested.
	ErrInvalidSpectrumID = errors.New("mzml: invalid spectrum id")
	// ErrInvalidSpectrumIndex means an out-of-range index was requested.
	ErrInvalidSpectrumIndex = errors.New("mzml: invalid spectrum index")
	// ErrChecksumMismatch means the persisted file checksum disagrees.
	ErrChecksumMismatch = errors.New("mzml: file checksum mismatch")
	// ErrUnseekable means random access was requested on a non-seekable input.
	ErrUnseekable = errors.New("mzml: input is not seekable")
)

// DetailLevel controls how much of each spectrum is materialised.
type DetailLevel int

const (
	// DetailLazy keeps binary payloads encoded until first use.
	DetailLazy DetailLevel = iota
	// DetailMetadataOnly skips binary payloads entirely.
	DetailMetadataOnly
	// DetailFull eagerly decodes every array.
	DetailFull
)

// xmlCVParam mirrors a cvParam or userParam element.
type xmlCVParam struct {
	Accession     string `xml:"accession,attr"`
	Name          string `xml:"name,attr"`
	Value         string `xml:"value,attr"`
	Type          string `xml:"type,attr"`
	UnitCvRef     string `xml:"unitCvRef,attr"`
	UnitAccession string `xml:"unitAccession,attr"`
	UnitName      string `xml:"unitName,attr"`
}

type xmlGroupRef struct {
	Ref string `xml:"ref,attr"`
}

type xmlParamContainer struct {
	GroupRefs []xmlGroupRef `xml:"referenceableParamGroupRef"`
	CvParams  []xmlCVParam  `xml:"cvParam"`
	UserPars  []xmlCVParam  `xml:"userParam"`
}

type xmlSpectrum struct {
	Index              int    `xml:"index,attr"`
	ID                 string `xml:"id,attr"`
	DefaultArrayLength int    `xml:"defaultArrayLength,attr"`
	xmlParamContainer
	ScanList struct {
		Count int `xml:"count,attr"`
		xmlParamContainer
		Scans []xmlScan `xml:"scan"`
	} `xml:"scanList"`
	PrecursorList struct {
		Count      int            `xml:"count,attr"`
		Precursors []xmlPrecursor `xml:"precursor"`
	} `xml:"precursorList"`
	BinaryDataArrayList struct {
		Count  int                  `xml:"count,attr"`
		Arrays []xmlBinaryDataArray `xml:"binaryDataArray"`
	} `xml:"binaryDataArrayList"`
}

type xmlScan struct {
	InstrumentConfigurationRef string `xml:"instrumentConfigurationRef,attr"`
	xmlParamContainer
	ScanWindowList struct {
		Count   int `xml:"count,attr"`
		Windows []struct {
			xmlParamContainer
		} `xml:"scanWindow"`
	} `xml:"scanWindowList"`
}

type xmlPrecursor struct {
	SpectrumRef     string `xml:"spectrumRef,attr"`
	IsolationWindow struct {
		xmlParamContainer
	} `xml:"isolationWindow"`
	SelectedIonList struct {
		Count int `xml:"count,attr"`
		Ions  []struct {
			xmlParamContainer
		} `xml:"selectedIon"`
	} `xml:"selectedIonList"`
	Activation struct {
		xmlParamContainer
	} `xml:"activation"`
}

type xmlBinaryDataArray struct {
	EncodedLength int `xml:"encodedLength,attr"`
	ArrayLength   int `xml:"arrayLength,attr"`
	xmlParamContainer
	Binary string `xml:"binary"`
}

type xmlChromatogram struct {
	Index              int    `xml:"index,attr"`
	ID                 string `xml:"id,attr"`
	DefaultArrayLength int    `xml:"defaultArrayLength,attr"`
	xmlParamContainer
	Precursor           *xmlPrecursor `xml:"precursor"`
	BinaryDataArrayList struct {
		Count  int                  `xml:"count,attr"`
		Arrays []xmlBinaryDataArray `xml:"binaryDataArray"`
	} `xml:"binaryDataArrayList"`
}

// Metadata section mirrors, decoded with DecodeElement during the header
// phase.

type xmlFileDescription struct {
	FileContent struct {
		xmlParamContainer
	} `xml:"fileContent"`
	SourceFileList struct {
		Count       int `xml:"count,attr"`
		SourceFiles []struct {
			ID       string `xml:"id,attr"`
			Name     string `xml:"name,attr"`
			Location string `xml:"location,attr"`
			xmlParamContainer
		} `xml:"sourceFile"`
	} `xml:"sourceFileList"`
	Contact struct {
		xmlParamContainer
	} `xml:"contact"`
}

type xmlReferenceableParamGroupList struct {
	Count  int `xml:"count,attr"`
	Groups []struct {
		ID string `xml:"id,attr"`
		xmlParamContainer
	} `xml:"referenceableParamGroup"`
}

type xmlSoftwareList struct {
	Count     int `xml:"count,attr"`
	Softwares []struct {
		ID      string `xml:"id,attr"`
		Version string `xml:"version,attr"`
		xmlParamContainer
	} `xml:"software"`
}

type xmlComponent struct {
	Order int `xml:"order,attr"`
	xmlParamContainer
}

type xmlInstrumentConfigurationList struct {
	Count   int `xml:"count,attr"`
	Configs []struct {
		ID           string `xml:"id,attr"`
		ScanSettings string `xml:"scanSettingsRef,attr"`
		xmlParamContainer
		ComponentList struct {
			Count     int            `xml:"count,attr"`
			Sources   []xmlComponent `xml:"source"`
			Analyzers []xmlComponent `xml:"analyzer"`
			Detectors []xmlComponent `xml:"detector"`
		} `xml:"componentList"`
		SoftwareRef struct {
			Ref string `xml:"ref,attr"`
		} `xml:"softwareRef"`
	} `xml:"instrumentConfiguration"`
}

type xmlDataProcessingList struct {
	Count      int `xml:"count,attr"`
	Processing []struct {
		ID      string `xml:"id,attr"`
		Methods []struct {
			Order       int    `xml:"order,attr"`
			SoftwareRef string `xml:"softwareRef,attr"`
			xmlParamContainer
		} `xml:"processingMethod"`
	} `xml:"dataProcessing"`
}

type xmlSampleList struct {
	Count   int `xml:"count,attr"`
	Samples []struct {
		ID   string `xml:"id,attr"`
		Name string `xml:"name,attr"`
		xmlParamContainer
	} `xml:"sample"`
}

type xmlScanSettingsList struct {
	Count    int `xml:"count,attr"`
	Settings []struct {
		ID string `xml:"id,attr"`
		xmlParamContainer
		SourceFileRefList struct {
			Refs []struct {
				Ref string `xml:"ref,attr"`
			} `xml:"sourceFileRef"`
		} `xml:"sourceFileRefList"`
	} `xml:"scanSettings"`
}

// convertParam turns a wire cvParam/userParam into the model form. isCV
// selects whether an accession is expected.
func convertParam(x xmlCVParam, isCV bool) params.Param {
	var value params.Value
	if x.Type != "" {
		value = params.ParseValueAs(x.Value, x.Type)
	} else {
		value = params.ParseValue(x.Value)
	}
	p := params.Param{Name: x.Name, Value: value}
	if isCV && x.Accession != "" {
		if c, err := params.ParseCURIE(x.Accession); err == nil {
			p.Accession = &c
		} else {
			log.Printf("mzml: unparsable accession %q on param %q", x.Accession, x.Name)
		}
	}
	if x.UnitAccession != "" {
		if u, err := params.ParseCURIE(x.UnitAccession); err == nil {
			p.Unit = &u
			p.UnitName = x.UnitName
		}
	}
	return p
}

// collectParams flattens a param container, resolving group references
// against the registry. Unresolved references are logged and stripped.
func collectParams(c xmlParamContainer, groups *params.GroupRegistry) params.ParamList {
	var out params.ParamList
	for _, ref := range c.GroupRefs {
		if groups == nil {
			continue
		}
		resolved, err := groups.Resolve(out, ref.Ref)
		if err != nil {
			continue
		}
		out = resolved
	}
	for _, cv := range c.CvParams {
		out = append(out, convertParam(cv, true))
	}
	for _, up := range c.UserPars {
		out = append(out, convertParam(up, false))
	}
	return out
}

// paramFloat fetches a float-valued term, tolerating an integer wire form.
func paramFloat(pl params.ParamList, term params.CURIE) (float64, bool) {
	p, ok := pl.Get(term)
	if !ok {
		return 0, false
	}
	f, err := p.Value.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// convertScan builds a ScanEvent, normalising the start time to minutes.
func convertScan(x xmlScan, groups *params.GroupRegistry) spectrum.ScanEvent {
	ev := spectrum.ScanEvent{InstrumentConfigurationRef: x.InstrumentConfigurationRef}
	pl := collectParams(x.xmlParamContainer, groups)
	var kept params.ParamList
	for _, p := range pl {
		switch {
		case p.Is(params.TermScanStartTime):
			t, err := p.Value.Float64()
			if err != nil {
				log.Printf("mzml: bad scan start time %q", p.Value)
				continue
			}
			// Normalise seconds to minutes
			if p.Unit != nil && *p.Unit == params.UnitSecond {
				t /= 60
			}
			ev.StartTime = t
		case p.Is(params.TermIonInjectionTime):
			ev.InjectionTime, _ = p.Value.Float64()
		case p.Is(params.TermFilterString):
			ev.FilterString = p.Value.String()
		case p.Is(params.TermIonMobilityDrift):
			ev.DriftTime, _ = p.Value.Float64()
		case p.Is(params.TermInverseReducedIM):
			ev.InverseReducedIM, _ = p.Value.Float64()
		default:
			kept = append(kept, p)
		}
	}
	ev.Params = kept
	for _, w := range x.ScanWindowList.Windows {
		wp := collectParams(w.xmlParamContainer, groups)
		var sw spectrum.ScanWindow
		sw.Low, _ = paramFloat(wp, params.TermScanWindowLower)
		sw.High, _ = paramFloat(wp, params.TermScanWindowUpper)
		ev.Windows = append(ev.Windows, sw)
	}
	return ev
}

// convertPrecursor builds a Precursor from its wire form.
func convertPrecursor(x xmlPrecursor, groups *params.GroupRegistry) spectrum.Precursor {
	prec := spectrum.Precursor{SpectrumRef: x.SpectrumRef}

	iw := collectParams(x.IsolationWindow.xmlParamContainer, groups)
	prec.IsolationWindow.Target, _ = paramFloat(iw, params.TermIsolationTarget)
	prec.IsolationWindow.LowerOffset, _ = paramFloat(iw, params.TermIsolationLower)
	prec.IsolationWindow.UpperOffset, _ = paramFloat(iw, params.TermIsolationUpper)

	for _, ion := range x.SelectedIonList.Ions {
		ip := collectParams(ion.xmlParamContainer, groups)
		var si spectrum.SelectedIon
		si.MZ, _ = paramFloat(ip, params.TermSelectedIonMZ)
		si.Intensity, _ = paramFloat(ip, params.TermPeakIntensity)
		if p, ok := ip.Get(params.TermChargeState); ok {
			if z, err := p.Value.Int64(); err == nil {
				si.Charge = int(z)
			}
		}
		si.Params = ip
		prec.Ions = append(prec.Ions, si)
	}

	ap := collectParams(x.Activation.xmlParamContainer, groups)
	for _, p := range ap {
		if p.Accession == nil {
			continue
		}
		if m := params.DissociationFromAccession(*p.Accession); m != params.DissociationUnknown {
			prec.Activation.Method = m
		}
	}
	if e, ok := paramFloat(ap, params.TermCollisionEnergy); ok {
		prec.Activation.Energy = e
		prec.Activation.Energies = append(prec.Activation.Energies, e)
	}
	prec.Activation.Params = ap
	return prec
}

// convertBinaryArray builds a lazily decoded DataArray from its wire form.
// detail MetadataOnly drops the payload.
func convertBinaryArray(x xmlBinaryDataArray, groups *params.GroupRegistry, detail DetailLevel) (*bindata.DataArray, error) {
	pl := collectParams(x.xmlParamContainer, groups)
	arr := &bindata.DataArray{DType: bindata.Float32, DeclaredLen: x.ArrayLength}
	var kept params.ParamList
	for _, p := range pl {
		if p.Accession != nil {
			if dt := bindata.DTypeFromAccession(*p.Accession); dt != bindata.UnknownType {
				arr.DType = dt
				continue
			}
			if at := bindata.ArrayTypeFromAccession(*p.Accession); at != bindata.ArrayUnknown {
				arr.Name = at
				if at == bindata.ArrayNonStandard {
					arr.NonStandardName = p.Value.String()
				}
				if p.Unit != nil {
					arr.Unit = *p.Unit
				}
				continue
			}
		}
		if c, ok := bindata.CompressionFromParam(p); ok {
			arr.Compression = c
			continue
		}
		if p.Name == bindata.DictionaryIDParamName {
			id, err := strconv.ParseUint(p.Value.String(), 16, 64)
			if err != nil {
				return nil, ErrMalformedAttribute
			}
			arr.DictionaryID = id
			continue
		}
		kept = append(kept, p)
	}
	arr.Params = kept

	if detail == DetailMetadataOnly {
		return arr, nil
	}
	text := strings.TrimSpace(x.Binary)
	if text == "" {
		arr.Set([]float64{})
		return arr, nil
	}
	payload, err := bindata.DecodeBase64Payload(text)
	if err != nil {
		return nil, err
	}
	enc := bindata.NewEncodedDataArray(arr.Name, arr.DType, arr.Compression, payload)
	enc.NonStandardName = arr.NonStandardName
	enc.Unit = arr.Unit
	enc.Params = arr.Params
	enc.DictionaryID = arr.DictionaryID
	enc.DeclaredLen = arr.DeclaredLen
	if detail == DetailFull {
		if _, err := enc.Decoded(); err != nil {
			return nil, err
		}
	}
	return enc, nil
}

// convertSpectrum materialises the model spectrum from its wire form.
func convertSpectrum(x xmlSpectrum, groups *params.GroupRegistry, detail DetailLevel) (*spectrum.Spectrum, error) {
	s := spectrum.New(x.ID, x.Index)
	pl := collectParams(x.xmlParamContainer, groups)
	var kept params.ParamList
	for _, p := range pl {
		switch {
		case p.Is(params.TermMSLevel):
			if lvl, err := p.Value.Int64(); err == nil {
				s.MSLevel = int(lvl)
			}
		case p.Is(params.TermCentroidSpectrum):
			s.Continuity = spectrum.ContinuityCentroid
		case p.Is(params.TermProfileSpectrum):
			s.Continuity = spectrum.ContinuityProfile
		case p.Is(params.TermMS1Spectrum), p.Is(params.TermMSnSpectrum):
			// re-derived from the ms level on write
		case p.Is(params.TermPositiveScan):
			s.Polarity = spectrum.PolarityPositive
		case p.Is(params.TermNegativeScan):
			s.Polarity = spectrum.PolarityNegative
		default:
			kept = append(kept, p)
		}
	}
	s.Params = kept
	s.ScanList.Params = collectParams(x.ScanList.xmlParamContainer, groups)
	for _, sc := range x.ScanList.Scans {
		s.ScanList.Events = append(s.ScanList.Events, convertScan(sc, groups))
	}
	for _, prec := range x.PrecursorList.Precursors {
		s.Precursors = append(s.Precursors, convertPrecursor(prec, groups))
	}
	for _, ba := range x.BinaryDataArrayList.Arrays {
		arr, err := convertBinaryArray(ba, groups, detail)
		if err != nil {
			return nil, err
		}
		if arr.DeclaredLen == 0 {
			arr.DeclaredLen = x.DefaultArrayLength
		}
		s.Arrays.Add(arr)
	}
	return s, nil
}

// convertChromatogram materialises a chromatogram from its wire form.
func convertChromatogram(x xmlChromatogram, groups *params.GroupRegistry, detail DetailLevel) (*spectrum.Chromatogram, error) {
	c := &spectrum.Chromatogram{
		ID:     x.ID,
		Index:  x.Index,
		Arrays: bindata.NewBinaryArrayMap(),
	}
	pl := collectParams(x.xmlParamContainer, groups)
	var kept params.ParamList
	for _, p := range pl {
		if t := spectrum.ChromatogramTypeFromParam(p); t != spectrum.ChromatogramUnknown {
			c.Type = t
			continue
		}
		kept = append(kept, p)
	}
	c.Params = kept
	if x.Precursor != nil {
		prec := convertPrecursor(*x.Precursor, groups)
		c.Precursor = &prec
	}
	for _, ba := range x.BinaryDataArrayList.Arrays {
		arr, err := convertBinaryArray(ba, groups, detail)
		if err != nil {
			return nil, err
		}
		if arr.DeclaredLen == 0 {
			arr.DeclaredLen = x.DefaultArrayLength
		}
		c.Arrays.Add(arr)
	}
	return c, nil
}

// headerSections holds the decoded header sections; toMetadata folds them
// into the shared model.
type headerSections struct {
	fileDescription *xmlFileDescription
	paramGroups     *xmlReferenceableParamGroupList
	softwares       *xmlSoftwareList
	instruments     *xmlInstrumentConfigurationList
	processing      *xmlDataProcessingList
	samples         *xmlSampleList
	scanSettings    *xmlScanSettingsList
}

func (h headerSections) toMetadata(runAttrs map[string]string) meta.FileMetadata {
	md := meta.NewFileMetadata()

	if h.paramGroups != nil {
		for _, g := range h.paramGroups.Groups {
			md.ParamGroups.Add(params.ParamGroup{
				ID:     g.ID,
				Params: collectParams(g.xmlParamContainer, nil),
			})
		}
	}
	groups := md.ParamGroups

	if h.fileDescription != nil {
		md.FileDescription.Contents = collectParams(h.fileDescription.FileContent.xmlParamContainer, groups)
		md.FileDescription.Params = collectParams(h.fileDescription.Contact.xmlParamContainer, groups)
		for _, sf := range h.fileDescription.SourceFileList.SourceFiles {
			md.FileDescription.SourceFiles = append(md.FileDescription.SourceFiles, meta.SourceFile{
				ID:       sf.ID,
				Name:     sf.Name,
				Location: sf.Location,
				Params:   collectParams(sf.xmlParamContainer, groups),
			})
		}
	}
	if h.softwares != nil {
		for _, sw := range h.softwares.Softwares {
			md.Softwares = append(md.Softwares, meta.Software{
				ID:      sw.ID,
				Version: sw.Version,
				Params:  collectParams(sw.xmlParamContainer, groups),
			})
		}
	}
	if h.instruments != nil {
		for _, ic := range h.instruments.Configs {
			cfg := meta.InstrumentConfiguration{
				ID:              ic.ID,
				Params:          collectParams(ic.xmlParamContainer, groups),
				SoftwareRef:     ic.SoftwareRef.Ref,
				ScanSettingsRef: ic.ScanSettings,
			}
			for _, c := range ic.ComponentList.Sources {
				cfg.Components = append(cfg.Components, meta.Component{
					Kind: meta.ComponentSource, Order: c.Order,
					Params: collectParams(c.xmlParamContainer, groups),
				})
			}
			for _, c := range ic.ComponentList.Analyzers {
				cfg.Components = append(cfg.Components, meta.Component{
					Kind: meta.ComponentAnalyzer, Order: c.Order,
					Params: collectParams(c.xmlParamContainer, groups),
				})
			}
			for _, c := range ic.ComponentList.Detectors {
				cfg.Components = append(cfg.Components, meta.Component{
					Kind: meta.ComponentDetector, Order: c.Order,
					Params: collectParams(c.xmlParamContainer, groups),
				})
			}
			md.Instruments = append(md.Instruments, cfg)
		}
	}
	if h.processing != nil {
		for _, dp := range h.processing.Processing {
			rec := meta.DataProcessing{ID: dp.ID}
			for _, pm := range dp.Methods {
				rec.Methods = append(rec.Methods, meta.ProcessingMethod{
					Order:       pm.Order,
					SoftwareRef: pm.SoftwareRef,
					Params:      collectParams(pm.xmlParamContainer, groups),
				})
			}
			md.DataProcessing = append(md.DataProcessing, rec)
		}
	}
	if h.samples != nil {
		for _, sm := range h.samples.Samples {
			md.Samples = append(md.Samples, meta.Sample{
				ID: sm.ID, Name: sm.Name,
				Params: collectParams(sm.xmlParamContainer, groups),
			})
		}
	}
	if h.scanSettings != nil {
		for _, ss := range h.scanSettings.Settings {
			rec := meta.ScanSettings{
				ID:     ss.ID,
				Params: collectParams(ss.xmlParamContainer, groups),
			}
			for _, ref := range ss.SourceFileRefList.Refs {
				rec.SourceFileRefs = append(rec.SourceFileRefs, ref.Ref)
			}
			md.ScanSettings = append(md.ScanSettings, rec)
		}
	}

	md.Run.ID = runAttrs["id"]
	md.Run.DefaultInstrumentConfigurationRef = runAttrs["defaultInstrumentConfigurationRef"]
	md.Run.DefaultSourceFileRef = runAttrs["defaultSourceFileRef"]
	if ts := runAttrs["startTimeStamp"]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			md.Run.StartTime = t
		} else {
			log.Printf("mzml: unparsable run startTimeStamp %q", ts)
		}
	}
	return md
}

// attrMap flattens a start element's attributes.
func attrMap(se xml.StartElement) map[string]string {
	out := make(map[string]string, len(se.Attr))
	for _, a := range se.Attr {
		out[a.Name.Local] = a.Value
	}
	return out
}
