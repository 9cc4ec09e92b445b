package mgf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/mobiusklein/mzdata/meta"
	"github.com/mobiusklein/mzdata/spectrum"
)

// Writer emits MGF ion blocks. MS1 spectra are skipped silently: the format
// only represents MS/MS peak lists.
type Writer struct {
	bw       *bufio.Writer
	metadata meta.FileMetadata
	written  int
	skipped  int
	closed   bool
	err      error
}

// NewWriter wraps a byte sink.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(dst), metadata: meta.NewFileMetadata()}
}

// CopyMetadataFrom retains the source metadata for processing history. MGF
// has no metadata section, so nothing is emitted.
func (w *Writer) CopyMetadataFrom(src *meta.FileMetadata) {
	w.metadata.CopyFrom(src, "go_mzdata", "1.0.0")
}

func (w *Writer) writef(format string, args ...interface{}) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.bw, format, args...)
}

// formatCharge renders the sign-suffix charge form: 2+ or 2-.
func formatCharge(z int) string {
	if z < 0 {
		return strconv.Itoa(-z) + "-"
	}
	return strconv.Itoa(z) + "+"
}

// WriteSpectrum emits one ion block, or skips it for MS1 input.
func (w *Writer) WriteSpectrum(s *spectrum.Spectrum) error {
	if w.closed {
		return fmt.Errorf("mgf: write on closed writer")
	}
	if s.MSLevel < 2 {
		w.skipped++
		return nil
	}

	peaks, err := s.CentroidLayer()
	if err != nil && err != spectrum.ErrNoPeakData {
		return err
	}

	title := s.ID
	if title == "" {
		title = fmt.Sprintf("index=%d", s.Index)
	}

	w.writef("BEGIN IONS\n")
	w.writef("TITLE=%s\n", title)
	if prec := s.Description.Precursor(); prec != nil {
		if ion := prec.Ion(); ion != nil {
			if ion.Intensity > 0 {
				w.writef("PEPMASS=%s %s\n",
					strconv.FormatFloat(ion.MZ, 'f', -1, 64),
					strconv.FormatFloat(ion.Intensity, 'f', -1, 64))
			} else {
				w.writef("PEPMASS=%s\n", strconv.FormatFloat(ion.MZ, 'f', -1, 64))
			}
			if ion.Charge != 0 {
				w.writef("CHARGE=%s\n", formatCharge(ion.Charge))
			}
		}
	}
	if ev := s.ScanList.First(); ev != nil && ev.StartTime > 0 {
		w.writef("RTINSECONDS=%s\n", strconv.FormatFloat(ev.StartTime*60, 'f', -1, 64))
	}
	if p, ok := s.Params.GetByName("SCANS"); ok {
		w.writef("SCANS=%s\n", p.Value.String())
	}
	for _, p := range peaks {
		w.writef("%s %s\n",
			strconv.FormatFloat(p.Mz, 'f', -1, 64),
			strconv.FormatFloat(p.Intens, 'f', -1, 64))
	}
	w.writef("END IONS\n\n")
	if w.err == nil {
		w.written++
	}
	return w.err
}

// SpectraWritten returns the number of ion blocks emitted.
func (w *Writer) SpectraWritten() int { return w.written }

// SpectraSkipped returns the number of MS1 spectra silently dropped.
func (w *Writer) SpectraSkipped() int { return w.skipped }

// Close flushes buffered output. The underlying sink is not closed.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	if err := w.bw.Flush(); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}

var _ io.Closer = (*Writer)(nil)
