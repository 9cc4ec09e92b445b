// Package mgf reads and writes the Mascot Generic Format, a line-oriented
// peak-list format for MS/MS spectra.
package mgf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/mobiusklein/mzdata/meta"
	"github.com/mobiusklein/mzdata/offsets"
	"github.com/mobiusklein/mzdata/params"
	"github.com/mobiusklein/mzdata/spectrum"
)

var (
	// ErrMalformedHeader means a scan header line could not be parsed.
	ErrMalformedHeader = errors.New("mgf: malformed header line")
	// ErrMalformedPeak means a peak line could not be parsed.
	ErrMalformedPeak = errors.New("mgf: malformed peak line")
	// ErrInvalidSpectrumID means an unknown title was requested.
	ErrInvalidSpectrumID = errors.New("mgf: invalid spectrum id")
	// ErrInvalidSpectrumIndex means an out-of-range index was requested.
	ErrInvalidSpectrumIndex = errors.New("mgf: invalid spectrum index")
	// ErrUnseekable means random access was requested on a forward-only input.
	ErrUnseekable = errors.New("mgf: input is not seekable")
)

// readerState names the line-machine states.
type readerState int

const (
	statePreamble readerState = iota
	stateBetween
	stateHeader
	statePeaks
	stateDone
)

// Reader reads MGF spectra. Seekable inputs get an offset index over the
// BEGIN IONS delimiters; forward-only inputs iterate sequentially.
type Reader struct {
	src    io.Reader
	seeker io.ReadSeeker
	br     *bufio.Reader

	globals map[string]string // preamble KEY=VALUE defaults
	index   *offsets.OffsetIndex

	state  readerState
	cursor int
	pos    int64 // byte offset of the next line to read
}

// NewReader opens an MGF stream. Seekable inputs are scanned once to build
// the offset index.
func NewReader(src io.Reader) (*Reader, error) {
	r := &Reader{
		src:     src,
		globals: make(map[string]string),
		state:   statePreamble,
	}
	if s, ok := src.(io.ReadSeeker); ok {
		r.seeker = s
		if err := r.buildIndex(); err != nil {
			return nil, err
		}
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}
	r.br = bufio.NewReader(src)
	r.pos = 0
	return r, nil
}

// buildIndex records the byte offset of every BEGIN IONS line.
func (r *Reader) buildIndex() error {
	if _, err := r.seeker.Seek(0, io.SeekStart); err != nil {
		return err
	}
	idx := offsets.New()
	br := bufio.NewReader(r.seeker)
	var pos int64
	n := 0
	seenBegin := false
	var pendingOffset int64 = -1
	for {
		line, err := br.ReadString('\n')
		if strings.HasPrefix(line, "BEGIN IONS") {
			pendingOffset = pos
			seenBegin = true
		} else if !seenBegin && !isBlank(line) {
			// Preamble KEY=VALUE lines are global defaults
			if key, value, ok := splitHeader(strings.TrimSpace(line)); ok {
				r.globals[key] = value
			}
		} else if pendingOffset >= 0 {
			if key, value, ok := splitHeader(strings.TrimSpace(line)); ok && key == "TITLE" {
				idx.Insert(value, uint64(pendingOffset))
				pendingOffset = -1
			} else if strings.HasPrefix(strings.TrimSpace(line), "END IONS") || !ok && line != "" && !isBlank(line) {
				// No TITLE before peaks; synthesise an id from the ordinal
				idx.Insert(fmt.Sprintf("index=%d", n), uint64(pendingOffset))
				pendingOffset = -1
			}
		}
		if strings.HasPrefix(line, "END IONS") {
			n++
		}
		pos += int64(len(line))
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}
	idx.SetFinal()
	r.index = idx
	return nil
}

func isBlank(line string) bool { return strings.TrimSpace(line) == "" }

// splitHeader splits a KEY=VALUE scan header line.
func splitHeader(line string) (string, string, bool) {
	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	return strings.ToUpper(strings.TrimSpace(key)), strings.TrimSpace(value), true
}

// ParseCharge parses the MGF charge forms: sign-trailing (2+), sign-leading
// (+2), bare, and ranges (2+-4+), where the first value wins.
func ParseCharge(text string) (int, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("%w: empty CHARGE", ErrMalformedHeader)
	}
	neg := false
	i := 0
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0, fmt.Errorf("%w: CHARGE %q", ErrMalformedHeader, text)
	}
	mag, err := strconv.Atoi(s[i:j])
	if err != nil {
		return 0, fmt.Errorf("%w: CHARGE %q", ErrMalformedHeader, text)
	}
	// A trailing sign binds to this value unless it separates a range
	if j < len(s) && (s[j] == '+' || s[j] == '-') {
		if !(j+1 < len(s) && s[j+1] >= '0' && s[j+1] <= '9') {
			neg = s[j] == '-'
		}
	}
	if neg {
		return -mag, nil
	}
	return mag, nil
}

// Globals returns the preamble KEY=VALUE defaults seen before any ion block.
func (r *Reader) Globals() map[string]string { return r.globals }

// Len returns the number of indexed spectra, 0 for forward-only inputs.
func (r *Reader) Len() int {
	if r.index == nil {
		return 0
	}
	return r.index.Len()
}

// SpectrumCountHint mirrors Len for the source contract.
func (r *Reader) SpectrumCountHint() int { return r.Len() }

// Index returns the offset index, nil for forward-only inputs.
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
	s, err := r.parseBlock(r.br, r.cursor)
	if err != nil {
		return nil, err
	}
	r.cursor++
	return s, nil
}

// SpectrumByIndex seeks to and parses the spectrum at a positional index.
func (r *Reader) SpectrumByIndex(i int) (*spectrum.Spectrum, error) {
	if r.index == nil {
		return nil, ErrUnseekable
	}
	entry, ok := r.index.At(i)
	if !ok {
		return nil, ErrInvalidSpectrumIndex
	}
	if _, err := r.seeker.Seek(int64(entry.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	return r.parseBlock(bufio.NewReader(r.seeker), i)
}

// SpectrumByID looks a title up in the offset index.
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

// SpectrumByTime scans the index for the spectrum with the greatest
// RTINSECONDS not exceeding t (minutes).
func (r *Reader) SpectrumByTime(t float64) (*spectrum.Spectrum, error) {
	if r.index == nil {
		return nil, ErrUnseekable
	}
	var best *spectrum.Spectrum
	for i := 0; i < r.index.Len(); i++ {
		s, err := r.SpectrumByIndex(i)
		if err != nil {
			return nil, err
		}
		st := s.StartTime()
		if st > t {
			break
		}
		best = s
	}
	if best == nil {
		return nil, ErrInvalidSpectrumIndex
	}
	return best, nil
}

// StartFromIndex repositions sequential iteration.
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

// StartFromID repositions sequential iteration at a title.
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

// parseBlock consumes one BEGIN IONS .. END IONS block. Lines before the
// block feed the preamble defaults; trailing blank lines at EOF never yield
// an empty spectrum.
func (r *Reader) parseBlock(br *bufio.Reader, index int) (*spectrum.Spectrum, error) {
	s := spectrum.New("", index)
	// MGF carries MS/MS peak lists only
	s.MSLevel = 2
	s.Continuity = spectrum.ContinuityCentroid

	prec := spectrum.Precursor{}
	var scanEvent spectrum.ScanEvent
	state := r.state
	if state == stateDone || state == statePeaks {
		state = stateBetween
	}

	for k, v := range r.globals {
		applyHeader(s, &prec, &scanEvent, k, v)
	}

	for {
		raw, err := br.ReadString('\n')
		line := strings.TrimSpace(raw)
		switch state {
		case statePreamble, stateBetween:
			if line == "BEGIN IONS" {
				state = stateHeader
			} else if state == statePreamble && line != "" {
				if key, value, ok := splitHeader(line); ok {
					// Preamble KEY=VALUE lines are global defaults
					r.globals[key] = value
					applyHeader(s, &prec, &scanEvent, key, value)
				}
			}
		case stateHeader, statePeaks:
			switch {
			case line == "END IONS":
				r.state = stateBetween
				finishSpectrum(s, &prec, &scanEvent, index)
				return s, nil
			case line == "":
				// blank lines inside a block carry nothing
			default:
				if key, value, ok := splitHeader(line); ok && state == stateHeader {
					applyHeader(s, &prec, &scanEvent, key, value)
				} else {
					if err := applyPeakLine(s, line); err != nil {
						return nil, err
					}
					state = statePeaks
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				if state == statePeaks {
					// Unterminated final block, accept what was read
					log.Printf("mgf: block %d missing END IONS", index)
					r.state = stateDone
					finishSpectrum(s, &prec, &scanEvent, index)
					return s, nil
				}
				r.state = stateDone
				return nil, io.EOF
			}
			return nil, err
		}
	}
}

// applyHeader folds one KEY=VALUE scan header into the spectrum.
func applyHeader(s *spectrum.Spectrum, prec *spectrum.Precursor, ev *spectrum.ScanEvent, key, value string) {
	switch key {
	case "TITLE":
		s.ID = value
	case "PEPMASS":
		fields := strings.Fields(value)
		if len(fields) == 0 {
			log.Printf("mgf: no m/z value in PEPMASS header")
			return
		}
		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			log.Printf("mgf: malformed m/z value in PEPMASS header %q: %v", value, err)
			return
		}
		if len(prec.Ions) == 0 {
			prec.Ions = append(prec.Ions, spectrum.SelectedIon{})
		}
		prec.Ions[0].MZ = mz
		if len(fields) > 1 {
			if intens, err := strconv.ParseFloat(fields[1], 64); err == nil {
				prec.Ions[0].Intensity = intens
			} else {
				log.Printf("mgf: failed to parse PEPMASS intensity %q: %v", fields[1], err)
			}
		}
	case "CHARGE":
		z, err := ParseCharge(value)
		if err != nil {
			log.Printf("mgf: %v", err)
			return
		}
		if len(prec.Ions) == 0 {
			prec.Ions = append(prec.Ions, spectrum.SelectedIon{})
		}
		prec.Ions[0].Charge = z
		if z > 0 {
			s.Polarity = spectrum.PolarityPositive
		} else if z < 0 {
			s.Polarity = spectrum.PolarityNegative
		}
	case "RTINSECONDS":
		if rt, err := strconv.ParseFloat(value, 64); err == nil {
			ev.StartTime = rt / 60
		} else {
			log.Printf("mgf: malformed RTINSECONDS %q", value)
		}
	case "SCANS":
		s.Params = append(s.Params, params.NewUserParam("SCANS", params.ParseValue(value)))
	default:
		s.Params = append(s.Params, params.NewUserParam(key, params.ParseValue(value)))
	}
}

// applyPeakLine folds one "m/z intensity [charge]" line into the peak list.
func applyPeakLine(s *spectrum.Spectrum, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fmt.Errorf("%w: %q", ErrMalformedPeak, line)
	}
	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrMalformedPeak, line, err)
	}
	intens, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrMalformedPeak, line, err)
	}
	s.Peaks = append(s.Peaks, spectrum.CentroidPeak{Mz: mz, Intens: intens})
	return nil
}

func finishSpectrum(s *spectrum.Spectrum, prec *spectrum.Precursor, ev *spectrum.ScanEvent, index int) {
	if s.ID == "" {
		s.ID = fmt.Sprintf("index=%d", index)
	}
	if len(prec.Ions) > 0 {
		s.Precursors = append(s.Precursors, *prec)
	}
	s.ScanList.Events = append(s.ScanList.Events, *ev)
}

// Metadata returns a metadata record whose only populated field is the run's
// spectrum count hint: MGF carries no file-level metadata sections.
func (r *Reader) Metadata() *meta.FileMetadata {
	md := meta.NewFileMetadata()
	md.Run.SpectrumCountHint = r.Len()
	return &md
}
