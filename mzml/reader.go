package mzml

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"hash"
	"io"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/mobiusklein/mzdata/meta"
	"github.com/mobiusklein/mzdata/offsets"
	"github.com/mobiusklein/mzdata/params"
	"github.com/mobiusklein/mzdata/spectrum"
)

// parserState names where in the document the streaming cursor is, for error
// context and to gate which elements Next will accept.
type parserState int

const (
	stateStart parserState = iota
	stateHeader
	stateRun
	stateSpectrumList
	stateChromatogramList
	stateDone
)

func (s parserState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateHeader:
		return "header"
	case stateRun:
		return "run"
	case stateSpectrumList:
		return "spectrumList"
	case stateChromatogramList:
		return "chromatogramList"
	case stateDone:
		return "done"
	}
	return "unknown"
}

// tailProbeSize is the initial window searched for <indexListOffset> at EOF.
// It doubles until the offset is found or the whole file has been probed.
const tailProbeSize = 128 * 1024

// Reader reads spectra from an mzML or indexedmzML document. Seekable inputs
// get random access backed by the persisted offset index, or by a linear
// scan when the trailer is missing or damaged; non-seekable inputs iterate
// forward only.
type Reader struct {
	src    io.Reader
	seeker io.ReadSeeker

	detail           DetailLevel
	validateChecksum bool

	metadata  meta.FileMetadata
	specCount int

	index      *offsets.OffsetIndex
	chromIndex *offsets.OffsetIndex
	declared   string // fileChecksum from the trailer, if present

	cursor  int
	times   []float64 // lazily filled index -> start time, NaN when unvisited
	decoder *xml.Decoder
	state   parserState
}

// Option configures a Reader.
type Option func(*Reader)

// WithDetailLevel sets how eagerly binary payloads are materialised.
func WithDetailLevel(d DetailLevel) Option {
	return func(r *Reader) { r.detail = d }
}

// WithChecksumValidation makes open verify the persisted fileChecksum and
// fall back to a linear index scan when it disagrees.
func WithChecksumValidation() Option {
	return func(r *Reader) { r.validateChecksum = true }
}

// NewReader opens an mzML document. When src is seekable the offset index is
// loaded (or rebuilt) before the header is parsed.
func NewReader(src io.Reader, opts ...Option) (*Reader, error) {
	r := &Reader{src: src, detail: DetailLazy, state: stateStart}
	if s, ok := src.(io.ReadSeeker); ok {
		r.seeker = s
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.seeker != nil {
		if err := r.loadIndex(); err != nil {
			log.Printf("mzml: no usable index trailer (%v), scanning file", err)
			if err := r.buildIndexByScan(); err != nil {
				return nil, err
			}
		}
		if r.validateChecksum && r.declared != "" {
			actual, err := r.computeChecksum()
			if err == nil && actual != r.declared {
				log.Printf("mzml: %v: declared %s, computed %s; rebuilding index",
					ErrChecksumMismatch, r.declared, actual)
				if err := r.buildIndexByScan(); err != nil {
					return nil, err
				}
			}
		}
		if _, err := r.seeker.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	if r.index != nil {
		r.times = make([]float64, r.index.Len())
		for i := range r.times {
			r.times[i] = math.NaN()
		}
	}
	return r, nil
}

func newDecoder(src io.Reader) *xml.Decoder {
	d := xml.NewDecoder(src)
	d.CharsetReader = charset.NewReaderLabel
	return d
}

// parseHeader consumes the document up to the first spectrum, materialising
// every metadata section along the way.
func (r *Reader) parseHeader() error {
	r.decoder = newDecoder(r.src)
	r.state = stateHeader
	var sections headerSections
	runAttrs := map[string]string{}

	for {
		t, err := r.decoder.Token()
		if err != nil {
			if err == io.EOF {
				// Document with no run section at all
				r.metadata = sections.toMetadata(runAttrs)
				r.state = stateDone
				return nil
			}
			return fmt.Errorf("%w: %v", ErrMalformedXML, err)
		}
		se, ok := t.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "indexedmzML", "mzML":
			// descend
		case "cvList":
			if err := r.decoder.Skip(); err != nil {
				return fmt.Errorf("%w: cvList: %v", ErrMalformedXML, err)
			}
		case "fileDescription":
			sections.fileDescription = &xmlFileDescription{}
			if err := r.decoder.DecodeElement(sections.fileDescription, &se); err != nil {
				return fmt.Errorf("%w: fileDescription: %v", ErrMalformedXML, err)
			}
		case "referenceableParamGroupList":
			sections.paramGroups = &xmlReferenceableParamGroupList{}
			if err := r.decoder.DecodeElement(sections.paramGroups, &se); err != nil {
				return fmt.Errorf("%w: referenceableParamGroupList: %v", ErrMalformedXML, err)
			}
		case "softwareList":
			sections.softwares = &xmlSoftwareList{}
			if err := r.decoder.DecodeElement(sections.softwares, &se); err != nil {
				return fmt.Errorf("%w: softwareList: %v", ErrMalformedXML, err)
			}
		case "instrumentConfigurationList":
			sections.instruments = &xmlInstrumentConfigurationList{}
			if err := r.decoder.DecodeElement(sections.instruments, &se); err != nil {
				return fmt.Errorf("%w: instrumentConfigurationList: %v", ErrMalformedXML, err)
			}
		case "dataProcessingList":
			sections.processing = &xmlDataProcessingList{}
			if err := r.decoder.DecodeElement(sections.processing, &se); err != nil {
				return fmt.Errorf("%w: dataProcessingList: %v", ErrMalformedXML, err)
			}
		case "sampleList":
			sections.samples = &xmlSampleList{}
			if err := r.decoder.DecodeElement(sections.samples, &se); err != nil {
				return fmt.Errorf("%w: sampleList: %v", ErrMalformedXML, err)
			}
		case "scanSettingsList":
			sections.scanSettings = &xmlScanSettingsList{}
			if err := r.decoder.DecodeElement(sections.scanSettings, &se); err != nil {
				return fmt.Errorf("%w: scanSettingsList: %v", ErrMalformedXML, err)
			}
		case "run":
			runAttrs = attrMap(se)
			r.state = stateRun
		case "spectrumList":
			attrs := attrMap(se)
			if c, err := strconv.Atoi(attrs["count"]); err == nil {
				r.specCount = c
			}
			r.metadata = sections.toMetadata(runAttrs)
			r.metadata.Run.SpectrumCountHint = r.specCount
			r.metadata.Run.DefaultDataProcessingRef = attrs["defaultDataProcessingRef"]
			r.state = stateSpectrumList
			return nil
		case "chromatogramList":
			// Run with chromatograms but no spectra
			r.metadata = sections.toMetadata(runAttrs)
			r.state = stateChromatogramList
			return nil
		default:
			if err := r.decoder.Skip(); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrMalformedXML, se.Name.Local, err)
			}
		}
	}
}

// Metadata returns the file-level metadata sections.
func (r *Reader) Metadata() *meta.FileMetadata { return &r.metadata }

// DetailLevel returns the configured materialisation policy.
func (r *Reader) DetailLevel() DetailLevel { return r.detail }

// SetDetailLevel changes the materialisation policy for subsequent reads.
func (r *Reader) SetDetailLevel(d DetailLevel) { r.detail = d }

// Len returns the number of spectra: the index size when random access is
// available, otherwise the declared count.
func (r *Reader) Len() int {
	if r.index != nil {
		return r.index.Len()
	}
	return r.specCount
}

// SpectrumCountHint returns the count declared in the spectrumList element.
func (r *Reader) SpectrumCountHint() int { return r.specCount }

// Index returns the spectrum offset index, nil for non-seekable inputs.
func (r *Reader) Index() *offsets.OffsetIndex { return r.index }

// Next returns the next spectrum in file order, io.EOF at the end.
func (r *Reader) Next() (*spectrum.Spectrum, error) {
	if r.index != nil {
		if r.cursor >= r.index.Len() {
			return nil, io.EOF
		}
		s, err := r.SpectrumByIndex(r.cursor)
		if err != nil {
			return nil, err
		}
		r.cursor++
		return s, nil
	}
	return r.nextStreaming()
}

func (r *Reader) nextStreaming() (*spectrum.Spectrum, error) {
	if r.state != stateSpectrumList {
		return nil, io.EOF
	}
	for {
		t, err := r.decoder.Token()
		if err != nil {
			r.state = stateDone
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: in %s: %v", ErrMalformedXML, r.state, err)
		}
		switch t := t.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "spectrum":
				var x xmlSpectrum
				if err := r.decoder.DecodeElement(&x, &t); err != nil {
					return nil, fmt.Errorf("%w: spectrum %d: %v", ErrMalformedXML, r.cursor, err)
				}
				s, err := convertSpectrum(x, r.metadata.ParamGroups, r.detail)
				if err != nil {
					return nil, err
				}
				r.cursor++
				return s, nil
			case "chromatogramList":
				r.state = stateChromatogramList
				return nil, io.EOF
			}
		case xml.EndElement:
			if t.Name.Local == "spectrumList" {
				r.state = stateRun
			}
			if t.Name.Local == "run" {
				r.state = stateDone
				return nil, io.EOF
			}
		}
	}
}

// NextChromatogram returns the next chromatogram for streaming inputs after
// the spectra are exhausted, io.EOF at the end.
func (r *Reader) NextChromatogram() (*spectrum.Chromatogram, error) {
	if r.index != nil {
		return nil, io.EOF
	}
	for r.state == stateRun || r.state == stateSpectrumList {
		// drain remaining spectra to reach the chromatogram section
		if _, err := r.nextStreaming(); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
	}
	if r.state != stateChromatogramList {
		return nil, io.EOF
	}
	for {
		t, err := r.decoder.Token()
		if err != nil {
			r.state = stateDone
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: in %s: %v", ErrMalformedXML, r.state, err)
		}
		switch t := t.(type) {
		case xml.StartElement:
			if t.Name.Local == "chromatogram" {
				var x xmlChromatogram
				if err := r.decoder.DecodeElement(&x, &t); err != nil {
					return nil, fmt.Errorf("%w: chromatogram: %v", ErrMalformedXML, err)
				}
				return convertChromatogram(x, r.metadata.ParamGroups, r.detail)
			}
		case xml.EndElement:
			if t.Name.Local == "chromatogramList" || t.Name.Local == "run" {
				r.state = stateDone
				return nil, io.EOF
			}
		}
	}
}

// SpectrumByIndex seeks to and parses the spectrum at a positional index.
// The logical iteration position is unchanged.
func (r *Reader) SpectrumByIndex(i int) (*spectrum.Spectrum, error) {
	if r.index == nil {
		return nil, ErrUnseekable
	}
	entry, ok := r.index.At(i)
	if !ok {
		return nil, ErrInvalidSpectrumIndex
	}
	s, err := r.parseSpectrumAt(entry.Offset)
	if err != nil {
		return nil, err
	}
	if i < len(r.times) {
		r.times[i] = s.StartTime()
	}
	return s, nil
}

// SpectrumByID looks up a native id in the offset index.
func (r *Reader) SpectrumByID(id string) (*spectrum.Spectrum, error) {
	if r.index == nil {
		return nil, ErrUnseekable
	}
	i, ok := r.index.IndexOf(id)
	if !ok {
		return nil, ErrInvalidSpectrumID
	}
	return r.SpectrumByIndex(i)
}

// SpectrumByTime returns the spectrum with the greatest start time not
// exceeding t (minutes), assuming non-decreasing acquisition times. Ties
// break toward the lower index.
func (r *Reader) SpectrumByTime(t float64) (*spectrum.Spectrum, error) {
	if r.index == nil {
		return nil, ErrUnseekable
	}
	n := r.index.Len()
	if n == 0 {
		return nil, ErrInvalidSpectrumIndex
	}
	lo, hi := 0, n-1
	first, err := r.timeAt(lo)
	if err != nil {
		return nil, err
	}
	if first > t {
		return nil, ErrInvalidSpectrumIndex
	}
	for lo < hi {
		mid := (lo + hi + 1) / 2
		tm, err := r.timeAt(mid)
		if err != nil {
			return nil, err
		}
		if tm <= t {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	// Ties break toward the lower index
	best, err := r.timeAt(lo)
	if err != nil {
		return nil, err
	}
	for lo > 0 {
		prev, err := r.timeAt(lo - 1)
		if err != nil {
			return nil, err
		}
		if prev != best {
			break
		}
		lo--
	}
	return r.SpectrumByIndex(lo)
}

// timeAt returns the start time of the spectrum at an index, parsing it on
// first visit and caching the result.
func (r *Reader) timeAt(i int) (float64, error) {
	if i < len(r.times) && !math.IsNaN(r.times[i]) {
		return r.times[i], nil
	}
	s, err := r.SpectrumByIndex(i)
	if err != nil {
		return 0, err
	}
	return s.StartTime(), nil
}

// StartFromIndex repositions sequential iteration and returns the reader for
// chaining.
func (r *Reader) StartFromIndex(i int) (*Reader, error) {
	if r.index == nil {
		return nil, ErrUnseekable
	}
	if i < 0 || i > r.index.Len() {
		return nil, ErrInvalidSpectrumIndex
	}
	r.cursor = i
	return r, nil
}

// StartFromID repositions sequential iteration at a native id.
func (r *Reader) StartFromID(id string) (*Reader, error) {
	if r.index == nil {
		return nil, ErrUnseekable
	}
	i, ok := r.index.IndexOf(id)
	if !ok {
		return nil, ErrInvalidSpectrumID
	}
	r.cursor = i
	return r, nil
}

// StartFromTime repositions sequential iteration at the first spectrum whose
// start time is not less than t.
func (r *Reader) StartFromTime(t float64) (*Reader, error) {
	s, err := r.SpectrumByTime(t)
	if err != nil {
		return nil, err
	}
	r.cursor = s.Index
	if s.StartTime() < t {
		r.cursor++
	}
	return r, nil
}

// ChromatogramByIndex parses the chromatogram at a positional index.
func (r *Reader) ChromatogramByIndex(i int) (*spectrum.Chromatogram, error) {
	if r.chromIndex == nil {
		return nil, ErrUnseekable
	}
	entry, ok := r.chromIndex.At(i)
	if !ok {
		return nil, ErrInvalidSpectrumIndex
	}
	return r.parseChromatogramAt(entry.Offset)
}

// ChromatogramCount returns the number of indexed chromatograms.
func (r *Reader) ChromatogramCount() int {
	if r.chromIndex == nil {
		return 0
	}
	return r.chromIndex.Len()
}

func (r *Reader) parseSpectrumAt(offset uint64) (*spectrum.Spectrum, error) {
	dec, err := r.decoderAt(offset)
	if err != nil {
		return nil, err
	}
	for {
		t, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: at offset %d: %v", ErrMalformedXML, offset, err)
		}
		if se, ok := t.(xml.StartElement); ok {
			if se.Name.Local != "spectrum" {
				return nil, fmt.Errorf("%w: offset %d does not address a spectrum", ErrMalformedXML, offset)
			}
			var x xmlSpectrum
			if err := dec.DecodeElement(&x, &se); err != nil {
				return nil, fmt.Errorf("%w: at offset %d: %v", ErrMalformedXML, offset, err)
			}
			return convertSpectrum(x, r.metadata.ParamGroups, r.detail)
		}
	}
}

func (r *Reader) parseChromatogramAt(offset uint64) (*spectrum.Chromatogram, error) {
	dec, err := r.decoderAt(offset)
	if err != nil {
		return nil, err
	}
	for {
		t, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: at offset %d: %v", ErrMalformedXML, offset, err)
		}
		if se, ok := t.(xml.StartElement); ok {
			if se.Name.Local != "chromatogram" {
				return nil, fmt.Errorf("%w: offset %d does not address a chromatogram", ErrMalformedXML, offset)
			}
			var x xmlChromatogram
			if err := dec.DecodeElement(&x, &se); err != nil {
				return nil, fmt.Errorf("%w: at offset %d: %v", ErrMalformedXML, offset, err)
			}
			return convertChromatogram(x, r.metadata.ParamGroups, r.detail)
		}
	}
}

func (r *Reader) decoderAt(offset uint64) (*xml.Decoder, error) {
	if r.seeker == nil {
		return nil, ErrUnseekable
	}
	if _, err := r.seeker.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}
	return newDecoder(bufio.NewReader(r.seeker)), nil
}

// loadIndex probes the file tail for <indexListOffset>, then parses the
// persisted index list.
func (r *Reader) loadIndex() error {
	size, err := r.seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	var tail []byte
	probe := int64(tailProbeSize)
	for {
		if probe > size {
			probe = size
		}
		if _, err := r.seeker.Seek(size-probe, io.SeekStart); err != nil {
			return err
		}
		tail = make([]byte, probe)
		if _, err := io.ReadFull(r.seeker, tail); err != nil {
			return err
		}
		if bytes.Contains(tail, []byte("<indexListOffset>")) || probe == size {
			break
		}
		probe *= 2
	}

	offset, err := parseIndexListOffset(tail)
	if err != nil {
		return err
	}
	if offset <= 0 || offset >= uint64(size) {
		return fmt.Errorf("%w: indexListOffset %d out of range", ErrMalformedXML, offset)
	}
	r.declared = parseFileChecksum(tail)

	if _, err := r.seeker.Seek(int64(offset), io.SeekStart); err != nil {
		return err
	}
	dec := newDecoder(bufio.NewReader(r.seeker))
	for {
		t, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: indexList: %v", ErrMalformedXML, err)
		}
		se, ok := t.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != "indexList" {
			return fmt.Errorf("%w: indexListOffset does not address indexList", ErrMalformedXML)
		}
		var x xmlIndexList
		if err := dec.DecodeElement(&x, &se); err != nil {
			return fmt.Errorf("%w: indexList: %v", ErrMalformedXML, err)
		}
		spec, chrom := x.toOffsetIndexes()
		if spec.Len() == 0 {
			return fmt.Errorf("%w: empty spectrum index", ErrMalformedXML)
		}
		for _, e := range spec.Entries() {
			if e.Offset >= uint64(size) {
				return fmt.Errorf("%w: index offset %d beyond EOF", ErrMalformedXML, e.Offset)
			}
		}
		r.index = spec
		r.chromIndex = chrom
		return nil
	}
}

// buildIndexByScan rebuilds the offset index with a full forward pass,
// recording the byte position of every spectrum and chromatogram start tag.
func (r *Reader) buildIndexByScan() error {
	if _, err := r.seeker.Seek(0, io.SeekStart); err != nil {
		return err
	}
	spec := offsets.New()
	chrom := offsets.New()
	dec := newDecoder(r.seeker)
	last := dec.InputOffset()
scan:
	for {
		t, err := dec.Token()
		if err != nil {
			if err != io.EOF {
				// The scan is the damage-recovery path; keep what was found
				log.Printf("mzml: index scan stopped early: %v", err)
			}
			break
		}
		if se, ok := t.(xml.StartElement); ok {
			switch se.Name.Local {
			case "spectrum", "chromatogram":
				attrs := attrMap(se)
				id := attrs["id"]
				if id == "" {
					return fmt.Errorf("%w: %s without id", ErrMalformedAttribute, se.Name.Local)
				}
				if se.Name.Local == "spectrum" {
					spec.Insert(id, uint64(last))
				} else {
					chrom.Insert(id, uint64(last))
				}
				if err := dec.Skip(); err != nil {
					log.Printf("mzml: index scan stopped early in %s %q: %v", se.Name.Local, id, err)
					break scan
				}
			}
		}
		last = dec.InputOffset()
	}
	spec.SetFinal()
	chrom.SetFinal()
	r.index = spec
	r.chromIndex = chrom
	return nil
}

// ChecksumKind selects the digest used for source-file checksums.
type ChecksumKind int

const (
	ChecksumSHA1 ChecksumKind = iota
	ChecksumMD5
)

// SourceChecksum hashes the entire input with the requested digest, for
// writers that emit the observed checksum as a source-file param on
// pass-through. The stream position is restored.
func (r *Reader) SourceChecksum(kind ChecksumKind) (string, params.CURIE, error) {
	if r.seeker == nil {
		return "", params.CURIE{}, ErrUnseekable
	}
	pos, err := r.seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", params.CURIE{}, err
	}
	if _, err := r.seeker.Seek(0, io.SeekStart); err != nil {
		return "", params.CURIE{}, err
	}
	var h hash.Hash
	term := params.TermSHA1
	switch kind {
	case ChecksumMD5:
		h = md5.New()
		term = params.TermMD5
	default:
		h = sha1.New()
	}
	if _, err := io.Copy(h, r.seeker); err != nil {
		return "", params.CURIE{}, err
	}
	if _, err := r.seeker.Seek(pos, io.SeekStart); err != nil {
		return "", params.CURIE{}, err
	}
	return hex.EncodeToString(h.Sum(nil)), term, nil
}

// computeChecksum hashes the document up to and including the opening
// <fileChecksum> tag, the region the trailer checksum covers.
func (r *Reader) computeChecksum() (string, error) {
	if _, err := r.seeker.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	h := sha1.New()
	br := bufio.NewReader(r.seeker)
	marker := []byte("<fileChecksum>")
	var window []byte
	buf := make([]byte, 64*1024)
	for {
		n, err := br.Read(buf)
		if n > 0 {
			window = append(window, buf[:n]...)
			if i := bytes.Index(window, marker); i >= 0 {
				h.Write(window[:i+len(marker)])
				return hex.EncodeToString(h.Sum(nil)), nil
			}
			// keep a marker-sized overlap, flush the rest into the hash
			if len(window) > len(marker) {
				flush := len(window) - len(marker)
				h.Write(window[:flush])
				window = window[flush:]
			}
		}
		if err != nil {
			if err == io.EOF {
				return "", fmt.Errorf("%w: no fileChecksum element", ErrMalformedXML)
			}
			return "", err
		}
	}
}

func parseIndexListOffset(tail []byte) (uint64, error) {
	start := bytes.LastIndex(tail, []byte("<indexListOffset>"))
	if start < 0 {
		return 0, fmt.Errorf("%w: no indexListOffset element", ErrMalformedXML)
	}
	rest := tail[start+len("<indexListOffset>"):]
	end := bytes.Index(rest, []byte("</indexListOffset>"))
	if end < 0 {
		return 0, fmt.Errorf("%w: unterminated indexListOffset", ErrMalformedXML)
	}
	text := strings.TrimSpace(string(rest[:end]))
	offset, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: indexListOffset %q: %v", ErrMalformedAttribute, text, err)
	}
	return offset, nil
}

func parseFileChecksum(tail []byte) string {
	start := bytes.LastIndex(tail, []byte("<fileChecksum>"))
	if start < 0 {
		return ""
	}
	rest := tail[start+len("<fileChecksum>"):]
	end := bytes.Index(rest, []byte("</fileChecksum>"))
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(string(rest[:end]))
}

// xmlIndexList mirrors the indexedmzML trailer.
type xmlIndexList struct {
	Count   int `xml:"count,attr"`
	Indexes []struct {
		Name    string `xml:"name,attr"`
		Offsets []struct {
			IDRef  string `xml:"idRef,attr"`
			Offset string `xml:",chardata"`
		} `xml:"offset"`
	} `xml:"index"`
}

func (x xmlIndexList) toOffsetIndexes() (*offsets.OffsetIndex, *offsets.OffsetIndex) {
	spec := offsets.New()
	chrom := offsets.New()
	for _, idx := range x.Indexes {
		target := spec
		if idx.Name == "chromatogram" {
			target = chrom
		}
		for _, o := range idx.Offsets {
			v, err := strconv.ParseUint(strings.TrimSpace(o.Offset), 10, 64)
			if err != nil {
				log.Printf("mzml: discarding malformed index offset %q for %q", o.Offset, o.IDRef)
				continue
			}
			target.Insert(o.IDRef, v)
		}
	}
	spec.SetFinal()
	chrom.SetFinal()
	return spec, chrom
}

// TimeIndex returns the already-visited (index, time) anchors, sorted by
// index, mainly for diagnostics.
func (r *Reader) TimeIndex() []struct {
	Index int
	Time  float64
} {
	var out []struct {
		Index int
		Time  float64
	}
	for i, t := range r.times {
		if !math.IsNaN(t) {
			out = append(out, struct {
				Index int
				Time  float64
			}{i, t})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
