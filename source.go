package mzdata

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mobiusklein/mzdata/meta"
	"github.com/mobiusklein/mzdata/mgf"
	"github.com/mobiusklein/mzdata/mzml"
	"github.com/mobiusklein/mzdata/spectrum"
)

var (
	// ErrIndexNotFound means a random-access lookup missed.
	ErrIndexNotFound = errors.New("mzdata: index not found")
	// ErrReversedStream is the panic value when a forward-only source is
	// asked to revisit a passed position. This is deliberate: the streaming
	// fallback surfaces a fatal error rather than silently misbehaving.
	ErrReversedStream = errors.New("mzdata: streaming source cannot revisit a passed position")
	// ErrUnsupportedFormat means no backend exists for the detected format.
	ErrUnsupportedFormat = errors.New("mzdata: unsupported format")
)

// SpectrumSource is the uniform random-access contract every format backend
// satisfies.
type SpectrumSource interface {
	Len() int
	SpectrumCountHint() int
	Next() (*spectrum.Spectrum, error)
	SpectrumByID(id string) (*spectrum.Spectrum, error)
	SpectrumByIndex(i int) (*spectrum.Spectrum, error)
	SpectrumByTime(t float64) (*spectrum.Spectrum, error)
	Metadata() *meta.FileMetadata
}

var (
	_ SpectrumSource = (*mzml.Reader)(nil)
	_ SpectrumSource = (*mgf.Reader)(nil)
	_ SpectrumSource = (*StreamingSource)(nil)
)

// MZReader dispatches the SpectrumSource contract over the closed set of
// format backends. The Other arm carries an out-of-tree capability for
// formats this package does not implement.
type MZReader struct {
	Format Format
	MzML   *mzml.Reader
	MGF    *mgf.Reader
	Other  SpectrumSource

	closer io.Closer
}

// Open opens a path, inferring format and gzip wrapping.
func Open(path string) (*MZReader, error) {
	format, gzipped, err := InferFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := openStream(f, format, gzipped)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// OpenReadSeeker opens a seekable stream, inferring format by content.
func OpenReadSeeker(rs io.ReadSeeker) (*MZReader, error) {
	format, gzipped, err := InferFromStream(rs)
	if err != nil {
		return nil, err
	}
	return openStream(rs, format, gzipped)
}

func openStream(rs io.ReadSeeker, format Format, gzipped bool) (*MZReader, error) {
	var src io.ReadSeeker = rs
	if gzipped {
		gz, err := NewRestartableGzipReader(rs)
		if err != nil {
			return nil, err
		}
		src = gz
	}
	out := &MZReader{Format: format}
	switch format {
	case FormatMzML:
		r, err := mzml.NewReader(src)
		if err != nil {
			return nil, err
		}
		out.MzML = r
	case FormatMGF:
		r, err := mgf.NewReader(src)
		if err != nil {
			return nil, err
		}
		out.MGF = r
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return out, nil
}

// source returns the active backend.
func (r *MZReader) source() SpectrumSource {
	switch {
	case r.MzML != nil:
		return r.MzML
	case r.MGF != nil:
		return r.MGF
	}
	return r.Other
}

// Close releases the underlying file handle, when owned.
func (r *MZReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Len returns the number of spectra.
func (r *MZReader) Len() int { return r.source().Len() }

// SpectrumCountHint returns the backend's declared count.
func (r *MZReader) SpectrumCountHint() int { return r.source().SpectrumCountHint() }

// Next returns the next spectrum in file order.
func (r *MZReader) Next() (*spectrum.Spectrum, error) { return r.source().Next() }

// SpectrumByID looks a native id up.
func (r *MZReader) SpectrumByID(id string) (*spectrum.Spectrum, error) {
	return r.source().SpectrumByID(id)
}

// SpectrumByIndex looks a positional index up.
func (r *MZReader) SpectrumByIndex(i int) (*spectrum.Spectrum, error) {
	return r.source().SpectrumByIndex(i)
}

// SpectrumByTime looks the last spectrum at or before a start time up.
func (r *MZReader) SpectrumByTime(t float64) (*spectrum.Spectrum, error) {
	return r.source().SpectrumByTime(t)
}

// Metadata returns the file-level metadata.
func (r *MZReader) Metadata() *meta.FileMetadata { return r.source().Metadata() }

// StartFromIndex repositions sequential iteration and returns the reader for
// chaining.
func (r *MZReader) StartFromIndex(i int) (*MZReader, error) {
	var err error
	switch {
	case r.MzML != nil:
		_, err = r.MzML.StartFromIndex(i)
	case r.MGF != nil:
		_, err = r.MGF.StartFromIndex(i)
	default:
		err = ErrUnsupportedFormat
	}
	return r, err
}

// StartFromID repositions sequential iteration at a native id.
func (r *MZReader) StartFromID(id string) (*MZReader, error) {
	var err error
	switch {
	case r.MzML != nil:
		_, err = r.MzML.StartFromID(id)
	case r.MGF != nil:
		_, err = r.MGF.StartFromID(id)
	default:
		err = ErrUnsupportedFormat
	}
	return r, err
}

// StartFromTime repositions sequential iteration at the first spectrum whose
// start time is not less than t.
func (r *MZReader) StartFromTime(t float64) (*MZReader, error) {
	var err error
	switch {
	case r.MzML != nil:
		_, err = r.MzML.StartFromTime(t)
	case r.MGF != nil:
		s, serr := r.MGF.SpectrumByTime(t)
		if serr != nil {
			err = serr
			break
		}
		if s.StartTime() < t {
			_, err = r.MGF.StartFromIndex(s.Index + 1)
		} else {
			_, err = r.MGF.StartFromIndex(s.Index)
		}
	default:
		err = ErrUnsupportedFormat
	}
	return r, err
}

// Groups returns a grouping iterator over this reader.
func (r *MZReader) Groups() *GroupIterator { return NewGroupIterator(r) }

// SetDetailLevel forwards the materialisation policy to backends that carry
// binary payloads; line-based formats decode eagerly by nature.
func (r *MZReader) SetDetailLevel(d mzml.DetailLevel) {
	if r.MzML != nil {
		r.MzML.SetDetailLevel(d)
	}
}

// StreamingSource adapts a forward-only iterator to the SpectrumSource
// contract. By-id and by-index access scan forward from the current
// position, buffering one spectrum; requests for already-passed positions
// panic with ErrReversedStream.
type StreamingSource struct {
	next func() (*spectrum.Spectrum, error)
	md   *meta.FileMetadata
	hint int

	pos      int // index of the next spectrum the iterator will yield
	buffered *spectrum.Spectrum
	done     bool
}

// NewStreamingSource wraps any sequential source.
func NewStreamingSource(src interface {
	Next() (*spectrum.Spectrum, error)
	SpectrumCountHint() int
	Metadata() *meta.FileMetadata
}) *StreamingSource {
	return &StreamingSource{next: src.Next, md: src.Metadata(), hint: src.SpectrumCountHint()}
}

// Len returns the declared count hint; a forward-only source cannot count
// without consuming itself.
func (s *StreamingSource) Len() int { return s.hint }

// SpectrumCountHint returns the declared count.
func (s *StreamingSource) SpectrumCountHint() int { return s.hint }

// Metadata returns the wrapped source's metadata.
func (s *StreamingSource) Metadata() *meta.FileMetadata { return s.md }

// Next yields the buffered spectrum when one is pending, otherwise pulls.
func (s *StreamingSource) Next() (*spectrum.Spectrum, error) {
	if s.buffered != nil {
		out := s.buffered
		s.buffered = nil
		return out, nil
	}
	if s.done {
		return nil, io.EOF
	}
	out, err := s.next()
	if err != nil {
		if err == io.EOF {
			s.done = true
		}
		return nil, err
	}
	s.pos++
	return out, nil
}

// SpectrumByIndex scans forward to the requested index. Passed positions
// panic with ErrReversedStream; positions beyond EOF report
// ErrIndexNotFound.
func (s *StreamingSource) SpectrumByIndex(i int) (*spectrum.Spectrum, error) {
	if s.buffered != nil && s.pos-1 == i {
		out := s.buffered
		s.buffered = nil
		return out, nil
	}
	if i < s.pos {
		panic(fmt.Errorf("%w: index %d already passed (at %d)", ErrReversedStream, i, s.pos))
	}
	for {
		sp, err := s.Next()
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("%w: index %d", ErrIndexNotFound, i)
			}
			return nil, err
		}
		if sp.Index == i || s.pos-1 == i {
			return sp, nil
		}
	}
}

// SpectrumByID scans forward to the requested id. If the stream ends without
// a match the id is reported as not found; an id behind the current position
// is indistinguishable from a missing one.
func (s *StreamingSource) SpectrumByID(id string) (*spectrum.Spectrum, error) {
	if s.buffered != nil && s.buffered.ID == id {
		out := s.buffered
		s.buffered = nil
		return out, nil
	}
	for {
		sp, err := s.Next()
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("%w: id %q", ErrIndexNotFound, id)
			}
			return nil, err
		}
		if sp.ID == id {
			return sp, nil
		}
	}
}

// SpectrumByTime scans forward to the last spectrum at or before t,
// buffering the first spectrum past it.
func (s *StreamingSource) SpectrumByTime(t float64) (*spectrum.Spectrum, error) {
	var best *spectrum.Spectrum
	for {
		sp, err := s.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if sp.StartTime() > t {
			s.buffered = sp
			break
		}
		best = sp
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no spectrum at or before %f", ErrIndexNotFound, t)
	}
	return best, nil
}

// Groups returns a grouping iterator over this source.
func (s *StreamingSource) Groups() *GroupIterator { return NewGroupIterator(s) }
