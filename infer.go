// Package mzdata ties the format backends together: format inference over
// byte streams, gzip unwrapping, the unified spectrum source contract, the
// grouping iterator and the streaming fallback for non-seekable inputs.
package mzdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Format identifies a supported mass-spectrometry file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatMzML
	FormatMGF
	FormatMzMLb
	FormatThermoRaw
	FormatBrukerTDF
)

func (f Format) String() string {
	switch f {
	case FormatMzML:
		return "mzML"
	case FormatMGF:
		return "MGF"
	case FormatMzMLb:
		return "mzMLb"
	case FormatThermoRaw:
		return "ThermoRAW"
	case FormatBrukerTDF:
		return "BrukerTDF"
	}
	return "unknown"
}

// ErrUnseekable means a seek was requested that the stream cannot satisfy.
var ErrUnseekable = errors.New("mzdata: stream does not support this seek")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	hdf5Magic = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}
	// Thermo RAW starts 0x01 0xA1 then "Finnigan" in UTF-16LE
	thermoMagic = []byte{0x01, 0xa1, 'F', 0, 'i', 0, 'n', 0, 'n', 0, 'i', 0, 'g', 0, 'a', 0, 'n', 0}
)

// IsGzipped reports whether a buffer starts with the RFC-1952 magic.
func IsGzipped(prefix []byte) bool {
	return bytes.HasPrefix(prefix, gzipMagic)
}

// probeSize is how many bytes of the stream head classification looks at,
// enough for a complete XML declaration plus the opening root tag.
const probeSize = 512

// InferFromStream classifies a seekable stream by content, unwrapping a gzip
// layer for the probe. The stream position is restored.
func InferFromStream(rs io.ReadSeeker) (Format, bool, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return FormatUnknown, false, err
	}
	buf := make([]byte, probeSize)
	n, err := io.ReadFull(rs, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, false, err
	}
	buf = buf[:n]
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return FormatUnknown, false, err
	}

	gzipped := IsGzipped(buf)
	if gzipped {
		gz, err := gzip.NewReader(bytes.NewReader(buf))
		if err != nil {
			return FormatUnknown, true, nil
		}
		// The probe window may hold an incomplete gzip segment; take what
		// decodes and classify that
		head := make([]byte, probeSize)
		m, _ := io.ReadFull(gz, head)
		buf = head[:m]
	}
	return classify(buf), gzipped, nil
}

// classify inspects a decompressed head.
func classify(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, hdf5Magic):
		return FormatMzMLb
	case bytes.HasPrefix(head, thermoMagic):
		return FormatThermoRaw
	case isMzML(head):
		return FormatMzML
	case isMGF(head):
		return FormatMGF
	}
	return FormatUnknown
}

// isMzML accepts an XML head whose root is mzML or indexedmzML.
func isMzML(head []byte) bool {
	if !bytes.Contains(head, []byte("<")) {
		return false
	}
	return bytes.Contains(head, []byte("<mzML")) ||
		bytes.Contains(head, []byte("<indexedmzML"))
}

// isMGF accepts a head whose first non-blank line is a recognised MGF header
// or a BEGIN IONS delimiter.
func isMGF(head []byte) bool {
	for _, line := range strings.Split(string(head), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "BEGIN IONS" || strings.HasPrefix(line, "BEGIN IONS") {
			return true
		}
		key, _, found := strings.Cut(line, "=")
		if !found {
			return false
		}
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "COM", "CHARGE", "TITLE", "PEPMASS", "RTINSECONDS", "SCANS",
			"ITOL", "ITOLU", "TOL", "TOLU", "MASS", "USERNAME", "SEARCH":
			return true
		}
		return false
	}
	return false
}

// InferFromPath classifies by file extension alone.
func InferFromPath(path string) (Format, bool) {
	gzipped := false
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".gz" {
		gzipped = true
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	switch ext {
	case ".mzml":
		return FormatMzML, gzipped
	case ".mgf":
		return FormatMGF, gzipped
	case ".mzmlb":
		return FormatMzMLb, gzipped
	case ".raw":
		return FormatThermoRaw, gzipped
	case ".d", ".tdf":
		return FormatBrukerTDF, gzipped
	}
	return FormatUnknown, gzipped
}

// InferFormat classifies a file by extension, falling back to content.
func InferFormat(path string) (Format, bool, error) {
	format, gzipped := InferFromPath(path)
	if format != FormatUnknown {
		return format, gzipped, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, false, err
	}
	defer f.Close()
	return InferFromStream(f)
}

// RestartableGzipReader exposes Read+Seek over a gzip stream. Forward seeks
// decode and discard; backward seeks restart the decoder from the source's
// start and re-decode. Seeks relative to the end are unsupported.
type RestartableGzipReader struct {
	src io.ReadSeeker
	gz  *gzip.Reader
	pos int64
}

// NewRestartableGzipReader wraps a seekable gzip source.
func NewRestartableGzipReader(src io.ReadSeeker) (*RestartableGzipReader, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	gz, err := gzip.NewReader(src)
	if err != nil {
		return nil, err
	}
	return &RestartableGzipReader{src: src, gz: gz}, nil
}

// Read decodes from the current logical position.
func (r *RestartableGzipReader) Read(p []byte) (int, error) {
	n, err := r.gz.Read(p)
	r.pos += int64(n)
	return n, err
}

// Seek repositions the logical decompressed offset.
func (r *RestartableGzipReader) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		return 0, fmt.Errorf("%w: SeekEnd on gzip stream", ErrUnseekable)
	default:
		return 0, fmt.Errorf("%w: whence %d", ErrUnseekable, whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrUnseekable, target)
	}
	if target < r.pos {
		// Restart and re-decode from the beginning
		if _, err := r.src.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
		if err := r.gz.Reset(r.src); err != nil {
			return 0, err
		}
		r.pos = 0
	}
	if target > r.pos {
		if _, err := io.CopyN(io.Discard, r, target-r.pos); err != nil {
			return r.pos, err
		}
	}
	return r.pos, nil
}

var _ io.ReadSeeker = (*RestartableGzipReader)(nil)
