package mzml

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"hash"
	"io"
	"log"
	"runtime"
	"strconv"
	"time"

	"github.com/mobiusklein/mzdata/bindata"
	"github.com/mobiusklein/mzdata/meta"
	"github.com/mobiusklein/mzdata/offsets"
	"github.com/mobiusklein/mzdata/params"
	"github.com/mobiusklein/mzdata/spectrum"
)

const (
	writerSoftwareID = "go_mzdata"
	writerVersion    = "1.0.0"
)

// Writer emits an indexedmzML document. Spectrum offsets are accumulated as
// elements are written and emitted as the trailing index on Close, together
// with the file checksum. The document is malformed until Close has run; a
// finalizer closes abandoned writers as a last resort.
type Writer struct {
	w     io.Writer
	hash  hash.Hash
	count int64

	metadata      meta.FileMetadata
	index         *offsets.OffsetIndex
	chromIndex    *offsets.OffsetIndex
	generateIndex bool
	countHint     int
	chromHint     int

	// per-role compression defaults
	mzCompression        bindata.Compression
	intensityCompression bindata.Compression
	otherCompression     bindata.Compression

	headerWritten  bool
	inChromList    bool
	spectraWritten int
	chromWritten   int
	closed         bool
	checksum       string
	err            error
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithIndex controls whether the indexedmzML trailer is emitted (default on).
func WithIndex(enabled bool) WriterOption {
	return func(w *Writer) { w.generateIndex = enabled }
}

// WithSpectrumCountHint sets the count emitted on the spectrumList element,
// which streams before the spectra are observed.
func WithSpectrumCountHint(n int) WriterOption {
	return func(w *Writer) { w.countHint = n }
}

// WithChromatogramCountHint sets the count emitted on the chromatogramList.
func WithChromatogramCountHint(n int) WriterOption {
	return func(w *Writer) { w.chromHint = n }
}

// WithCompression overrides the default compression for every array role.
// Arrays that declare their own compression keep it, and integer arrays
// outside the m/z and intensity roles are always written uncompressed.
func WithCompression(c bindata.Compression) WriterOption {
	return func(w *Writer) {
		w.mzCompression = c
		w.intensityCompression = c
		w.otherCompression = c
	}
}

// NewWriter wraps a byte sink. The caller must Close the writer; the
// document is invalid without the trailer.
func NewWriter(dst io.Writer, opts ...WriterOption) *Writer {
	w := &Writer{
		w:                    dst,
		hash:                 sha1.New(),
		index:                offsets.New(),
		chromIndex:           offsets.New(),
		generateIndex:        true,
		metadata:             meta.NewFileMetadata(),
		mzCompression:        bindata.Zlib,
		intensityCompression: bindata.Zlib,
		otherCompression:     bindata.NoCompression,
	}
	for _, opt := range opts {
		opt(w)
	}
	runtime.SetFinalizer(w, func(fw *Writer) {
		if !fw.closed {
			log.Printf("mzml: writer for run %q abandoned without Close, closing", fw.metadata.Run.ID)
			fw.Close()
		}
	})
	return w
}

// CopyMetadataFrom transfers the source file's metadata sections and appends
// a processing method identifying this writer.
func (w *Writer) CopyMetadataFrom(src *meta.FileMetadata) {
	w.metadata.CopyFrom(src, writerSoftwareID, writerVersion)
	if w.countHint == 0 {
		w.countHint = src.Run.SpectrumCountHint
	}
}

// SetRun sets the run record when not copying metadata.
func (w *Writer) SetRun(run meta.Run) {
	w.metadata.Run = run
	if w.countHint == 0 {
		w.countHint = run.SpectrumCountHint
	}
}

// write pushes bytes to the sink, the running checksum and the byte counter.
func (w *Writer) write(s string) {
	if w.err != nil {
		return
	}
	n, err := io.WriteString(w.w, s)
	w.hash.Write([]byte(s[:n]))
	w.count += int64(n)
	if err != nil {
		w.err = err
	}
}

func (w *Writer) writef(format string, args ...interface{}) {
	w.write(fmt.Sprintf(format, args...))
}

func escapeAttr(s string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

// emitParam writes one cvParam or userParam element.
func (w *Writer) emitParam(indent string, p params.Param) {
	if p.Accession != nil {
		w.writef("%s<cvParam cvRef=\"%s\" accession=\"%s\" name=\"%s\"",
			indent, p.Accession.CV.Prefix(), p.Accession.String(), escapeAttr(p.Name))
	} else {
		w.writef("%s<userParam name=\"%s\"", indent, escapeAttr(p.Name))
	}
	if !p.Value.IsEmpty() {
		w.writef(" value=\"%s\"", escapeAttr(p.Value.String()))
	}
	if p.Unit != nil {
		unitName := p.UnitName
		if unitName == "" {
			unitName = params.UnitName(*p.Unit)
		}
		w.writef(" unitCvRef=\"%s\" unitAccession=\"%s\" unitName=\"%s\"",
			p.Unit.CV.Prefix(), p.Unit.String(), escapeAttr(unitName))
	}
	w.write("/>\n")
}

func (w *Writer) emitParams(indent string, pl params.ParamList) {
	for _, p := range pl {
		w.emitParam(indent, p)
	}
}

func (w *Writer) emitCV(acc params.CURIE, name, indent string) {
	w.emitParam(indent, params.NewCVParam(acc, name, params.Value{}))
}

func (w *Writer) emitCVValue(acc params.CURIE, name string, value params.Value, indent string) {
	w.emitParam(indent, params.NewCVParam(acc, name, value))
}

// writeHeader emits everything before the first spectrum.
func (w *Writer) writeHeader() {
	if w.headerWritten {
		return
	}
	w.headerWritten = true
	md := &w.metadata

	w.write(xml.Header)
	if w.generateIndex {
		w.write(`<indexedmzML xmlns="http://psi.hupo.org/ms/mzml" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:schemaLocation="http://psi.hupo.org/ms/mzml http://psidev.info/files/ms/mzML/xsd/mzML1.1.2_idx.xsd">` + "\n")
	}
	w.write(`<mzML xmlns="http://psi.hupo.org/ms/mzml" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:schemaLocation="http://psi.hupo.org/ms/mzml http://psidev.info/files/ms/mzML/xsd/mzML1.1.0.xsd" version="1.1.0">` + "\n")
	w.write(`  <cvList count="2">` + "\n")
	w.write(`    <cv id="MS" fullName="Proteomics Standards Initiative Mass Spectrometry Ontology" URI="https://raw.githubusercontent.com/HUPO-PSI/psi-ms-CV/master/psi-ms.obo"/>` + "\n")
	w.write(`    <cv id="UO" fullName="Unit Ontology" URI="http://obo.cvs.sourceforge.net/*checkout*/obo/obo/ontology/phenotype/unit.obo"/>` + "\n")
	w.write("  </cvList>\n")

	w.write("  <fileDescription>\n")
	w.write("    <fileContent>\n")
	w.emitParams("      ", md.FileDescription.Contents)
	w.write("    </fileContent>\n")
	if len(md.FileDescription.SourceFiles) > 0 {
		w.writef("    <sourceFileList count=\"%d\">\n", len(md.FileDescription.SourceFiles))
		for _, sf := range md.FileDescription.SourceFiles {
			w.writef("      <sourceFile id=\"%s\" name=\"%s\" location=\"%s\">\n",
				escapeAttr(sf.ID), escapeAttr(sf.Name), escapeAttr(sf.Location))
			w.emitParams("        ", sf.Params)
			w.write("      </sourceFile>\n")
		}
		w.write("    </sourceFileList>\n")
	}
	w.write("  </fileDescription>\n")

	if n := md.ParamGroups.Len(); n > 0 {
		w.writef("  <referenceableParamGroupList count=\"%d\">\n", n)
		for _, id := range md.ParamGroups.IDs() {
			g, _ := md.ParamGroups.Get(id)
			w.writef("    <referenceableParamGroup id=\"%s\">\n", escapeAttr(id))
			w.emitParams("      ", g.Params)
			w.write("    </referenceableParamGroup>\n")
		}
		w.write("  </referenceableParamGroupList>\n")
	}

	softwares := md.Softwares
	if len(softwares) == 0 {
		softwares = []meta.Software{{ID: writerSoftwareID, Version: writerVersion}}
	}
	w.writef("  <softwareList count=\"%d\">\n", len(softwares))
	for _, sw := range softwares {
		w.writef("    <software id=\"%s\" version=\"%s\">\n", escapeAttr(sw.ID), escapeAttr(sw.Version))
		w.emitParams("      ", sw.Params)
		w.write("    </software>\n")
	}
	w.write("  </softwareList>\n")

	instruments := md.Instruments
	if len(instruments) == 0 {
		instruments = []meta.InstrumentConfiguration{{ID: "IC1"}}
	}
	w.writef("  <instrumentConfigurationList count=\"%d\">\n", len(instruments))
	for _, ic := range instruments {
		w.writef("    <instrumentConfiguration id=\"%s\"", escapeAttr(ic.ID))
		if ic.ScanSettingsRef != "" {
			w.writef(" scanSettingsRef=\"%s\"", escapeAttr(ic.ScanSettingsRef))
		}
		w.write(">\n")
		w.emitParams("      ", ic.Params)
		if len(ic.Components) > 0 {
			w.writef("      <componentList count=\"%d\">\n", len(ic.Components))
			for _, c := range ic.Components {
				tag := "source"
				switch c.Kind {
				case meta.ComponentAnalyzer:
					tag = "analyzer"
				case meta.ComponentDetector:
					tag = "detector"
				}
				w.writef("        <%s order=\"%d\">\n", tag, c.Order)
				w.emitParams("          ", c.Params)
				w.writef("        </%s>\n", tag)
			}
			w.write("      </componentList>\n")
		}
		if ic.SoftwareRef != "" {
			w.writef("      <softwareRef ref=\"%s\"/>\n", escapeAttr(ic.SoftwareRef))
		}
		w.write("    </instrumentConfiguration>\n")
	}
	w.write("  </instrumentConfigurationList>\n")

	processing := md.DataProcessing
	if len(processing) == 0 {
		processing = []meta.DataProcessing{{
			ID: writerSoftwareID + "_processing",
			Methods: []meta.ProcessingMethod{{
				Order:       1,
				SoftwareRef: writerSoftwareID,
				Params: params.ParamList{
					params.NewCVParam(params.TermConversionToMzML, "Conversion to mzML", params.Value{}),
				},
			}},
		}}
	}
	w.writef("  <dataProcessingList count=\"%d\">\n", len(processing))
	for _, dp := range processing {
		w.writef("    <dataProcessing id=\"%s\">\n", escapeAttr(dp.ID))
		for _, pm := range dp.Methods {
			w.writef("      <processingMethod order=\"%d\"", pm.Order)
			if pm.SoftwareRef != "" {
				w.writef(" softwareRef=\"%s\"", escapeAttr(pm.SoftwareRef))
			}
			w.write(">\n")
			w.emitParams("        ", pm.Params)
			w.write("      </processingMethod>\n")
		}
		w.write("    </dataProcessing>\n")
	}
	w.write("  </dataProcessingList>\n")

	runID := md.Run.ID
	if runID == "" {
		runID = "run1"
	}
	defaultIC := md.Run.DefaultInstrumentConfigurationRef
	if defaultIC == "" {
		defaultIC = instruments[0].ID
	}
	w.writef("  <run id=\"%s\" defaultInstrumentConfigurationRef=\"%s\"", escapeAttr(runID), escapeAttr(defaultIC))
	if !md.Run.StartTime.IsZero() {
		w.writef(" startTimeStamp=\"%s\"", md.Run.StartTime.Format(time.RFC3339))
	}
	if md.Run.DefaultSourceFileRef != "" {
		w.writef(" defaultSourceFileRef=\"%s\"", escapeAttr(md.Run.DefaultSourceFileRef))
	}
	w.write(">\n")
	w.writef("    <spectrumList count=\"%d\" defaultDataProcessingRef=\"%s\">\n",
		w.countHint, escapeAttr(processing[0].ID))
}

// compressionFor picks the configured default for an array role.
func (w *Writer) compressionFor(a *bindata.DataArray) bindata.Compression {
	if a.Compression != bindata.NoCompression {
		return a.Compression
	}
	switch a.Name {
	case bindata.ArrayMZ:
		if a.DType == bindata.Float64 {
			return w.mzCompression
		}
	case bindata.ArrayIntensity:
		if a.DType == bindata.Float32 || a.DType == bindata.Float64 {
			return w.intensityCompression
		}
	}
	switch a.DType {
	case bindata.Int32, bindata.Int64:
		return bindata.NoCompression
	}
	return w.otherCompression
}

// WriteSpectrum emits one spectrum and records its byte offset.
func (w *Writer) WriteSpectrum(s *spectrum.Spectrum) error {
	if w.closed {
		return fmt.Errorf("mzml: write on closed writer")
	}
	w.writeHeader()
	if w.inChromList {
		return fmt.Errorf("mzml: spectra cannot follow chromatograms")
	}

	arrays, err := w.spectrumArrays(s)
	if err != nil {
		return err
	}

	w.write("      ")
	w.index.Insert(s.ID, uint64(w.count))
	w.writef("<spectrum index=\"%d\" id=\"%s\" defaultArrayLength=\"%d\">\n",
		w.spectraWritten, escapeAttr(s.ID), s.PeakCount())

	ind := "        "
	w.emitCVValue(params.TermMSLevel, "ms level", params.Int(int64(s.MSLevel)), ind)
	if s.MSLevel > 1 {
		w.emitCV(params.TermMSnSpectrum, "MSn spectrum", ind)
	} else {
		w.emitCV(params.TermMS1Spectrum, "MS1 spectrum", ind)
	}
	switch s.Continuity {
	case spectrum.ContinuityCentroid:
		w.emitCV(params.TermCentroidSpectrum, "centroid spectrum", ind)
	case spectrum.ContinuityProfile:
		w.emitCV(params.TermProfileSpectrum, "profile spectrum", ind)
	}
	switch s.Polarity {
	case spectrum.PolarityPositive:
		w.emitCV(params.TermPositiveScan, "positive scan", ind)
	case spectrum.PolarityNegative:
		w.emitCV(params.TermNegativeScan, "negative scan", ind)
	}
	w.emitParams(ind, s.Params)

	w.writeScanList(&s.ScanList, ind)
	if len(s.Precursors) > 0 {
		w.writef("%s<precursorList count=\"%d\">\n", ind, len(s.Precursors))
		for _, prec := range s.Precursors {
			w.writePrecursor(&prec, ind+"  ")
		}
		w.writef("%s</precursorList>\n", ind)
	}
	if err := w.writeBinaryArrays(arrays, ind); err != nil {
		return err
	}

	w.write("      </spectrum>\n")
	w.spectraWritten++
	return w.err
}

// spectrumArrays returns the arrays to serialise, synthesising m/z and
// intensity arrays from the centroid layer when only peaks are present.
func (w *Writer) spectrumArrays(s *spectrum.Spectrum) ([]*bindata.DataArray, error) {
	if s.HasRawArrays() {
		return s.Arrays.Arrays(), nil
	}
	if len(s.Peaks) == 0 {
		return nil, nil
	}
	mz := make([]float64, len(s.Peaks))
	intens := make([]float64, len(s.Peaks))
	for i, p := range s.Peaks {
		mz[i] = p.Mz
		intens[i] = p.Intens
	}
	return []*bindata.DataArray{
		bindata.NewDataArray(bindata.ArrayMZ, bindata.Float64, mz),
		bindata.NewDataArray(bindata.ArrayIntensity, bindata.Float32, intens),
	}, nil
}

func (w *Writer) writeScanList(sl *spectrum.ScanList, indent string) {
	events := sl.Events
	if len(events) == 0 {
		events = []spectrum.ScanEvent{{}}
	}
	w.writef("%s<scanList count=\"%d\">\n", indent, len(events))
	w.emitParams(indent+"  ", sl.Params)
	for _, ev := range events {
		w.writef("%s  <scan", indent)
		if ev.InstrumentConfigurationRef != "" {
			w.writef(" instrumentConfigurationRef=\"%s\"", escapeAttr(ev.InstrumentConfigurationRef))
		}
		w.write(">\n")
		ind := indent + "    "
		w.emitParam(ind, params.NewCVParam(params.TermScanStartTime, "scan start time",
			params.Float(ev.StartTime)).WithUnit(params.UnitMinute, "minute"))
		if ev.InjectionTime > 0 {
			w.emitParam(ind, params.NewCVParam(params.TermIonInjectionTime, "ion injection time",
				params.Float(ev.InjectionTime)).WithUnit(params.UnitMillisecond, "millisecond"))
		}
		if ev.FilterString != "" {
			w.emitCVValue(params.TermFilterString, "filter string", params.Str(ev.FilterString), ind)
		}
		if ev.DriftTime > 0 {
			w.emitParam(ind, params.NewCVParam(params.TermIonMobilityDrift, "ion mobility drift time",
				params.Float(ev.DriftTime)).WithUnit(params.UnitMillisecond, "millisecond"))
		}
		if ev.InverseReducedIM > 0 {
			w.emitParam(ind, params.NewCVParam(params.TermInverseReducedIM, "inverse reduced ion mobility",
				params.Float(ev.InverseReducedIM)).WithUnit(params.UnitVoltSecondPerSquareCentimeter,
				"volt-second per square centimeter"))
		}
		w.emitParams(ind, ev.Params)
		if len(ev.Windows) > 0 {
			w.writef("%s<scanWindowList count=\"%d\">\n", ind, len(ev.Windows))
			for _, sw := range ev.Windows {
				w.writef("%s  <scanWindow>\n", ind)
				w.emitParam(ind+"    ", params.NewCVParam(params.TermScanWindowLower,
					"scan window lower limit", params.Float(sw.Low)).WithUnit(params.UnitMZ, "m/z"))
				w.emitParam(ind+"    ", params.NewCVParam(params.TermScanWindowUpper,
					"scan window upper limit", params.Float(sw.High)).WithUnit(params.UnitMZ, "m/z"))
				w.writef("%s  </scanWindow>\n", ind)
			}
			w.writef("%s</scanWindowList>\n", ind)
		}
		w.writef("%s  </scan>\n", indent)
	}
	w.writef("%s</scanList>\n", indent)
}

func (w *Writer) writePrecursor(prec *spectrum.Precursor, indent string) {
	w.writef("%s<precursor", indent)
	if prec.SpectrumRef != "" {
		w.writef(" spectrumRef=\"%s\"", escapeAttr(prec.SpectrumRef))
	}
	w.write(">\n")
	ind := indent + "  "

	if prec.IsolationWindow.Target != 0 {
		w.writef("%s<isolationWindow>\n", ind)
		w.emitParam(ind+"  ", params.NewCVParam(params.TermIsolationTarget,
			"isolation window target m/z", params.Float(prec.IsolationWindow.Target)).WithUnit(params.UnitMZ, "m/z"))
		w.emitParam(ind+"  ", params.NewCVParam(params.TermIsolationLower,
			"isolation window lower offset", params.Float(prec.IsolationWindow.LowerOffset)).WithUnit(params.UnitMZ, "m/z"))
		w.emitParam(ind+"  ", params.NewCVParam(params.TermIsolationUpper,
			"isolation window upper offset", params.Float(prec.IsolationWindow.UpperOffset)).WithUnit(params.UnitMZ, "m/z"))
		w.writef("%s</isolationWindow>\n", ind)
	}

	if len(prec.Ions) > 0 {
		w.writef("%s<selectedIonList count=\"%d\">\n", ind, len(prec.Ions))
		for _, ion := range prec.Ions {
			w.writef("%s  <selectedIon>\n", ind)
			w.emitParam(ind+"    ", params.NewCVParam(params.TermSelectedIonMZ,
				"selected ion m/z", params.Float(ion.MZ)).WithUnit(params.UnitMZ, "m/z"))
			if ion.Charge != 0 {
				w.emitCVValue(params.TermChargeState, "charge state",
					params.Int(int64(ion.Charge)), ind+"    ")
			}
			if ion.Intensity != 0 {
				w.emitParam(ind+"    ", params.NewCVParam(params.TermPeakIntensity,
					"peak intensity", params.Float(ion.Intensity)).WithUnit(params.UnitDetectorCounts,
					"number of detector counts"))
			}
			w.writef("%s  </selectedIon>\n", ind)
		}
		w.writef("%s</selectedIonList>\n", ind)
	}

	w.writef("%s<activation>\n", ind)
	if p, ok := prec.Activation.Method.Param(); ok {
		w.emitParam(ind+"  ", p)
	}
	if prec.Activation.Energy > 0 {
		w.emitParam(ind+"  ", params.NewCVParam(params.TermCollisionEnergy, "collision energy",
			params.Float(prec.Activation.Energy)).WithUnit(params.UnitElectronvolt, "electronvolt"))
	}
	w.writef("%s</activation>\n", ind)
	w.writef("%s</precursor>\n", indent)
}

func (w *Writer) writeBinaryArrays(arrays []*bindata.DataArray, indent string) error {
	w.writef("%s<binaryDataArrayList count=\"%d\">\n", indent, len(arrays))
	for _, a := range arrays {
		comp := w.compressionFor(a)
		values, err := a.Decoded()
		if err != nil {
			return err
		}
		text, err := bindata.EncodeBase64(values, a.DType, comp, a.DictionaryID)
		if err != nil {
			return err
		}
		wire := *a
		wire.Compression = comp
		ind := indent + "  "
		w.writef("%s<binaryDataArray encodedLength=\"%d\"", ind, len(text))
		if a.Name != bindata.ArrayMZ && a.Name != bindata.ArrayIntensity {
			w.writef(" arrayLength=\"%d\"", len(values))
		}
		w.write(">\n")
		w.emitParams(ind+"  ", wire.WireParams())
		w.writef("%s  <binary>%s</binary>\n", ind, text)
		w.writef("%s</binaryDataArray>\n", ind)
	}
	w.writef("%s</binaryDataArrayList>\n", indent)
	return w.err
}

// WriteChromatogram emits one chromatogram, closing the spectrum list first.
func (w *Writer) WriteChromatogram(c *spectrum.Chromatogram) error {
	if w.closed {
		return fmt.Errorf("mzml: write on closed writer")
	}
	w.writeHeader()
	if !w.inChromList {
		w.write("    </spectrumList>\n")
		w.writef("    <chromatogramList count=\"%d\" defaultDataProcessingRef=\"%s\">\n",
			w.chromHint, escapeAttr(w.defaultProcessingID()))
		w.inChromList = true
	}

	w.write("      ")
	w.chromIndex.Insert(c.ID, uint64(w.count))
	w.writef("<chromatogram index=\"%d\" id=\"%s\" defaultArrayLength=\"%d\">\n",
		w.chromWritten, escapeAttr(c.ID), c.Arrays.PointCount())
	ind := "        "
	if acc, name, ok := c.Type.Term(); ok {
		w.emitCV(acc, name, ind)
	}
	w.emitParams(ind, c.Params)
	if c.Precursor != nil {
		w.writePrecursor(c.Precursor, ind)
	}
	if err := w.writeBinaryArrays(c.Arrays.Arrays(), ind); err != nil {
		return err
	}
	w.write("      </chromatogram>\n")
	w.chromWritten++
	return w.err
}

func (w *Writer) defaultProcessingID() string {
	if len(w.metadata.DataProcessing) > 0 {
		return w.metadata.DataProcessing[0].ID
	}
	return writerSoftwareID + "_processing"
}

// Close finalises the document: list and run closers, the offset index
// trailer, the indexListOffset pointer, and the file checksum. Close is
// idempotent; the underlying sink is not closed.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	runtime.SetFinalizer(w, nil)
	w.writeHeader()

	if w.inChromList {
		w.write("    </chromatogramList>\n")
	} else {
		w.write("    </spectrumList>\n")
	}
	w.write("  </run>\n")
	w.write("</mzML>\n")

	if w.generateIndex {
		indexListOffset := w.count
		nIndexes := 1
		if w.chromIndex.Len() > 0 {
			nIndexes = 2
		}
		w.writef("<indexList count=\"%d\">\n", nIndexes)
		w.write("  <index name=\"spectrum\">\n")
		for _, e := range w.index.Entries() {
			w.writef("    <offset idRef=\"%s\">%d</offset>\n", escapeAttr(e.ID), e.Offset)
		}
		w.write("  </index>\n")
		if w.chromIndex.Len() > 0 {
			w.write("  <index name=\"chromatogram\">\n")
			for _, e := range w.chromIndex.Entries() {
				w.writef("    <offset idRef=\"%s\">%d</offset>\n", escapeAttr(e.ID), e.Offset)
			}
			w.write("  </index>\n")
		}
		w.write("</indexList>\n")
		w.writef("<indexListOffset>%d</indexListOffset>\n", indexListOffset)

		// The checksum covers every byte up to and including this opening tag
		w.write("<fileChecksum>")
		w.checksum = hex.EncodeToString(w.hash.Sum(nil))
		w.write(w.checksum + "</fileChecksum>\n")
		w.write("</indexedmzML>\n")
	}
	return w.err
}

// Checksum returns the SHA-1 emitted in the fileChecksum element. Only valid
// after Close.
func (w *Writer) Checksum() string { return w.checksum }

// SpectraWritten returns the number of spectra emitted so far.
func (w *Writer) SpectraWritten() int { return w.spectraWritten }

// Index returns the accumulated spectrum offset index.
func (w *Writer) Index() *offsets.OffsetIndex { return w.index }

var _ io.Closer = (*Writer)(nil)

// BytesWritten returns the number of bytes emitted so far.
func (w *Writer) BytesWritten() int64 { return w.count }

// String renders a short description for logs.
func (w *Writer) String() string {
	return "mzml.Writer{run=" + w.metadata.Run.ID + ", spectra=" + strconv.Itoa(w.spectraWritten) + "}"
}
