// Package bindata implements the binary data array codec: typed buffers that
// round-trip between raw numeric slices and the base64 + compression wire
// form used inside mzML binaryDataArray elements.
package bindata

import (
	"errors"

	"github.com/mobiusklein/mzdata/params"
)

// ArrayType is the semantic role of a data array, governed by the PSI-MS
// controlled vocabulary.
type ArrayType int

const (
	ArrayUnknown ArrayType = iota
	ArrayMZ
	ArrayIntensity
	ArrayCharge
	ArraySignalToNoise
	ArrayTime
	ArrayWavelength
	ArrayIonMobility
	ArrayMeanIonMobility
	ArrayRawIonMobility
	ArrayDeconvolutedIonMobility
	ArrayBaseline
	ArrayResolution
	ArrayPressure
	ArrayTemperature
	ArrayFlowRate
	ArrayNonStandard // named by NonStandardName on the DataArray
)

// IsIonMobility reports whether the role is one of the ion-mobility axes.
func (a ArrayType) IsIonMobility() bool {
	switch a {
	case ArrayIonMobility, ArrayMeanIonMobility, ArrayRawIonMobility, ArrayDeconvolutedIonMobility:
		return true
	}
	return false
}

// PreferredDType returns the dtype a writer should default to for the role.
func (a ArrayType) PreferredDType() DataType {
	switch a {
	case ArrayMZ:
		return Float64
	case ArrayIntensity:
		return Float32
	case ArrayCharge:
		return Int32
	}
	return Float32
}

var arrayTypeTerms = map[ArrayType]struct {
	accession params.CURIE
	name      string
}{
	ArrayMZ:                      {params.MS(1000514), "m/z array"},
	ArrayIntensity:               {params.MS(1000515), "intensity array"},
	ArrayCharge:                  {params.MS(1000516), "charge array"},
	ArraySignalToNoise:           {params.MS(1000517), "signal to noise array"},
	ArrayTime:                    {params.MS(1000595), "time array"},
	ArrayWavelength:              {params.MS(1000617), "wavelength array"},
	ArrayIonMobility:             {params.MS(1002893), "ion mobility array"},
	ArrayMeanIonMobility:         {params.MS(1002816), "mean ion mobility array"},
	ArrayRawIonMobility:          {params.MS(1003007), "raw ion mobility array"},
	ArrayDeconvolutedIonMobility: {params.MS(1003154), "deconvoluted ion mobility array"},
	ArrayBaseline:                {params.MS(1002530), "baseline array"},
	ArrayResolution:              {params.MS(1002529), "resolution array"},
	ArrayPressure:                {params.MS(1000821), "pressure array"},
	ArrayTemperature:             {params.MS(1000822), "temperature array"},
	ArrayFlowRate:                {params.MS(1000820), "flow rate array"},
	ArrayNonStandard:             {params.MS(1000786), "non-standard data array"},
}

var arrayTypeByAccession = func() map[params.CURIE]ArrayType {
	m := make(map[params.CURIE]ArrayType, len(arrayTypeTerms))
	for at, t := range arrayTypeTerms {
		m[t.accession] = at
	}
	return m
}()

// Term returns the CV term describing the role.
func (a ArrayType) Term() (params.CURIE, string, bool) {
	t, ok := arrayTypeTerms[a]
	return t.accession, t.name, ok
}

// ArrayTypeFromAccession classifies a cvParam accession as an array role.
func ArrayTypeFromAccession(c params.CURIE) ArrayType {
	return arrayTypeByAccession[c]
}

// DefaultUnit returns the unit conventionally attached to the role.
func (a ArrayType) DefaultUnit() (params.CURIE, bool) {
	switch a {
	case ArrayMZ:
		return params.UnitMZ, true
	case ArrayIntensity:
		return params.UnitDetectorCounts, true
	case ArrayTime:
		return params.UnitMinute, true
	case ArrayWavelength:
		return params.UnitNanometer, true
	}
	return params.CURIE{}, false
}

// DataType is the primitive element type of a decoded array.
type DataType int

const (
	UnknownType DataType = iota
	Float32
	Float64
	Int32
	Int64
	ASCII
)

// Size returns the byte width of one element.
func (d DataType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	}
	return 1
}

func (d DataType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case ASCII:
		return "ascii"
	}
	return "unknown"
}

var dtypeTerms = map[DataType]struct {
	accession params.CURIE
	name      string
}{
	Float32: {params.MS(1000521), "32-bit float"},
	Float64: {params.MS(1000523), "64-bit float"},
	Int32:   {params.MS(1000519), "32-bit integer"},
	Int64:   {params.MS(1000522), "64-bit integer"},
	ASCII:   {params.MS(1001479), "null-terminated ASCII string"},
}

var dtypeByAccession = func() map[params.CURIE]DataType {
	m := make(map[params.CURIE]DataType, len(dtypeTerms))
	for d, t := range dtypeTerms {
		m[t.accession] = d
	}
	return m
}()

// Term returns the CV term declaring the dtype.
func (d DataType) Term() (params.CURIE, string, bool) {
	t, ok := dtypeTerms[d]
	return t.accession, t.name, ok
}

// DTypeFromAccession classifies a cvParam accession as a dtype.
func DTypeFromAccession(c params.CURIE) DataType {
	return dtypeByAccession[c]
}

// Compression is the wire compression scheme of an encoded array.
type Compression int

const (
	NoCompression Compression = iota
	Zlib
	Zstd
	NumpressLinear
	NumpressSLOF
	NumpressPIC
	NumpressLinearZlib
	NumpressSLOFZlib
	NumpressPICZlib
	ZstdDict // byte-shuffle then zstd with an external dictionary
)

func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case Zlib:
		return "zlib"
	case Zstd:
		return "zstd"
	case NumpressLinear:
		return "numpress-linear"
	case NumpressSLOF:
		return "numpress-slof"
	case NumpressPIC:
		return "numpress-pic"
	case NumpressLinearZlib:
		return "numpress-linear-zlib"
	case NumpressSLOFZlib:
		return "numpress-slof-zlib"
	case NumpressPICZlib:
		return "numpress-pic-zlib"
	case ZstdDict:
		return "zstd-dict-shuffle"
	}
	return "unknown"
}

// isNumpress reports whether the scheme includes a numpress stage.
func (c Compression) isNumpress() bool {
	switch c {
	case NumpressLinear, NumpressSLOF, NumpressPIC,
		NumpressLinearZlib, NumpressSLOFZlib, NumpressPICZlib:
		return true
	}
	return false
}

var compressionTerms = map[Compression]struct {
	accession params.CURIE
	name      string
}{
	NoCompression:      {params.MS(1000576), "no compression"},
	Zlib:               {params.MS(1000574), "zlib compression"},
	NumpressLinear:     {params.MS(1002312), "MS-Numpress linear prediction compression"},
	NumpressPIC:        {params.MS(1002313), "MS-Numpress positive integer compression"},
	NumpressSLOF:       {params.MS(1002314), "MS-Numpress short logged float compression"},
	NumpressLinearZlib: {params.MS(1002746), "MS-Numpress linear prediction compression followed by zlib compression"},
	NumpressPICZlib:    {params.MS(1002747), "MS-Numpress positive integer compression followed by zlib compression"},
	NumpressSLOFZlib:   {params.MS(1002748), "MS-Numpress short logged float compression followed by zlib compression"},
}

// The zstd schemes have no CV term; they travel as userParams with these
// names plus a "zstd dictionary id" userParam for the dictionary variant.
const (
	zstdUserParamName     = "zstd compression"
	zstdDictUserParamName = "dictionary and byte shuffle zstd compression"
	// DictionaryIDParamName carries the dictionary id on ZstdDict arrays.
	DictionaryIDParamName = "zstd dictionary id"
)

var compressionByAccession = func() map[params.CURIE]Compression {
	m := make(map[params.CURIE]Compression, len(compressionTerms))
	for c, t := range compressionTerms {
		m[t.accession] = c
	}
	return m
}()

// Param returns the parameter declaring the scheme on the wire. Schemes
// without a CV term are declared with a userParam.
func (c Compression) Param() params.Param {
	if t, ok := compressionTerms[c]; ok {
		return params.NewCVParam(t.accession, t.name, params.Value{})
	}
	switch c {
	case Zstd:
		return params.NewUserParam(zstdUserParamName, params.Value{})
	case ZstdDict:
		return params.NewUserParam(zstdDictUserParamName, params.Value{})
	}
	return params.NewUserParam(c.String(), params.Value{})
}

// CompressionFromParam classifies a declared compression parameter.
func CompressionFromParam(p params.Param) (Compression, bool) {
	if p.Accession != nil {
		c, ok := compressionByAccession[*p.Accession]
		return c, ok
	}
	switch p.Name {
	case zstdUserParamName:
		return Zstd, true
	case zstdDictUserParamName:
		return ZstdDict, true
	}
	return NoCompression, false
}

// Error kinds of the codec, matching the library-wide taxonomy.
var (
	ErrDtypeMismatch           = errors.New("bindata: dtype mismatch")
	ErrIncompatibleCompression = errors.New("bindata: compression scheme incompatible with dtype")
	ErrUnknownDictionary       = errors.New("bindata: unknown zstd dictionary")
	ErrMalformedNumber         = errors.New("bindata: malformed numeric data")
	ErrArrayNotFound           = errors.New("bindata: array not found")
)
