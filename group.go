package mzdata

import (
	"io"

	"github.com/mobiusklein/mzdata/spectrum"
)

// SpectrumGroup is one precursor spectrum together with its product spectra.
// Precursor is nil when the parent MS1 was never seen (forward-only streams,
// cross-file groupings).
type SpectrumGroup struct {
	Precursor *spectrum.Spectrum
	Products  []*spectrum.Spectrum
}

// TotalSpectra counts the members of the group.
func (g *SpectrumGroup) TotalSpectra() int {
	n := len(g.Products)
	if g.Precursor != nil {
		n++
	}
	return n
}

// sequentialSource is the minimal surface the grouping iterator needs.
type sequentialSource interface {
	Next() (*spectrum.Spectrum, error)
}

// GroupIterator batches spectra into precursor/product groups. It buffers at
// most one MS1 plus its MSn descendants; an MSn spectrum joins the group of
// the most recent MS1 whose id its precursor reference names. Orphan MSn
// runs sharing a parent reference are emitted together with a nil precursor.
// Relative product order is preserved. Remaining groups flush at EOF.
type GroupIterator struct {
	src     sequentialSource
	current *SpectrumGroup
	curRef  string // parent reference of an orphan run
	done    bool
}

// NewGroupIterator wraps a sequential source.
func NewGroupIterator(src sequentialSource) *GroupIterator {
	return &GroupIterator{src: src}
}

// precursorRef extracts the parent spectrum reference of an MSn spectrum.
func precursorRef(s *spectrum.Spectrum) string {
	if p := s.Description.Precursor(); p != nil {
		return p.SpectrumRef
	}
	return ""
}

// Next returns the next complete group, io.EOF after the final flush.
func (it *GroupIterator) Next() (*SpectrumGroup, error) {
	if it.done {
		return nil, io.EOF
	}
	for {
		s, err := it.src.Next()
		if err != nil {
			if err == io.EOF {
				it.done = true
				if it.current != nil {
					out := it.current
					it.current = nil
					return out, nil
				}
				return nil, io.EOF
			}
			return nil, err
		}

		if s.MSLevel <= 1 {
			// A new MS1 seals whatever was being accumulated
			out := it.current
			it.current = &SpectrumGroup{Precursor: s}
			it.curRef = s.ID
			if out != nil {
				return out, nil
			}
			continue
		}

		ref := precursorRef(s)
		switch {
		case it.current == nil:
			// Orphan run with an unseen parent
			it.current = &SpectrumGroup{Products: []*spectrum.Spectrum{s}}
			it.curRef = ref
		case it.current.Precursor != nil && (ref == it.current.Precursor.ID || ref == ""):
			it.current.Products = append(it.current.Products, s)
		case it.current.Precursor == nil && ref == it.curRef:
			it.current.Products = append(it.current.Products, s)
		default:
			// Parent not in the buffered group: emit and start an orphan run
			out := it.current
			it.current = &SpectrumGroup{Products: []*spectrum.Spectrum{s}}
			it.curRef = ref
			return out, nil
		}
	}
}

// Collect drains the iterator into a slice.
func (it *GroupIterator) Collect() ([]*SpectrumGroup, error) {
	var out []*SpectrumGroup
	for {
		g, err := it.Next()
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
		out = append(out, g)
	}
}
