package bindata

import (
	"fmt"
	"strconv"

	"github.com/mobiusklein/mzdata/params"
)

// DataArray is one binary data array of a spectrum or chromatogram. The
// encoded payload is kept as read from the file; the decoded form is computed
// on first access and cached. Re-encoding always re-runs the pipeline rather
// than replaying a stored copy.
type DataArray struct {
	Name            ArrayType
	NonStandardName string // set when Name is ArrayNonStandard
	DType           DataType
	Compression     Compression
	Unit            params.CURIE
	Params          params.ParamList
	DictionaryID    uint64

	encoded     []byte // wire payload, post-base64-decode
	decoded     []float64
	hasDecoded  bool
	DeclaredLen int // arrayLength/defaultArrayLength hint from the file
}

// NewDataArray wraps already-decoded values.
func NewDataArray(name ArrayType, dtype DataType, values []float64) *DataArray {
	unit, _ := name.DefaultUnit()
	return &DataArray{
		Name:        name,
		DType:       dtype,
		Unit:        unit,
		decoded:     values,
		hasDecoded:  true,
		DeclaredLen: len(values),
	}
}

// NewEncodedDataArray wraps a wire payload that will be decoded lazily.
func NewEncodedDataArray(name ArrayType, dtype DataType, compression Compression, payload []byte) *DataArray {
	unit, _ := name.DefaultUnit()
	return &DataArray{
		Name:        name,
		DType:       dtype,
		Compression: compression,
		Unit:        unit,
		encoded:     payload,
	}
}

// IsDecoded reports whether the decoded form has been materialised.
func (a *DataArray) IsDecoded() bool { return a.hasDecoded }

// Decoded returns the decoded values, decompressing on first access.
func (a *DataArray) Decoded() ([]float64, error) {
	if a.hasDecoded {
		return a.decoded, nil
	}
	values, err := Decode(a.encoded, a.DType, a.Compression, a.DictionaryID)
	if err != nil {
		return nil, fmt.Errorf("decoding %s array: %w", a.Label(), err)
	}
	a.decoded = values
	a.hasDecoded = true
	return a.decoded, nil
}

// Len returns the decoded element count without forcing a decode when a
// declared length is available.
func (a *DataArray) Len() int {
	if a.hasDecoded {
		return len(a.decoded)
	}
	return a.DeclaredLen
}

// Set replaces the decoded values, invalidating the encoded payload.
func (a *DataArray) Set(values []float64) {
	a.decoded = values
	a.hasDecoded = true
	a.encoded = nil
	a.DeclaredLen = len(values)
}

// Encode produces the wire payload under the array's declared dtype and
// compression.
func (a *DataArray) Encode() ([]byte, error) {
	values, err := a.Decoded()
	if err != nil {
		return nil, err
	}
	return Encode(values, a.DType, a.Compression, a.DictionaryID)
}

// EncodeBase64 produces the base64 text carried in a <binary> element.
func (a *DataArray) EncodeBase64() (string, error) {
	values, err := a.Decoded()
	if err != nil {
		return "", err
	}
	return EncodeBase64(values, a.DType, a.Compression, a.DictionaryID)
}

// CoerceTo returns the values as the requested dtype's value domain.
// Widening conversions (f32 -> f64, i32 -> i64) are free; anything narrowing
// fails with ErrDtypeMismatch. The returned slice is fresh when the dtype
// differs from the declared one, so mutation never aliases the cache.
func (a *DataArray) CoerceTo(dtype DataType) ([]float64, error) {
	values, err := a.Decoded()
	if err != nil {
		return nil, err
	}
	if dtype == a.DType {
		return values, nil
	}
	switch {
	case a.DType == Float32 && dtype == Float64,
		a.DType == Int32 && dtype == Int64:
		return append([]float64{}, values...), nil
	}
	return nil, fmt.Errorf("%w: cannot coerce %s to %s", ErrDtypeMismatch, a.DType, dtype)
}

// Label names the array for error context.
func (a *DataArray) Label() string {
	if a.Name == ArrayNonStandard && a.NonStandardName != "" {
		return a.NonStandardName
	}
	_, name, ok := a.Name.Term()
	if !ok {
		return "unknown"
	}
	return name
}

// WireParams returns the cvParams/userParams a writer must emit alongside the
// <binary> payload: dtype, compression, and array role.
func (a *DataArray) WireParams() params.ParamList {
	var out params.ParamList
	if acc, name, ok := a.DType.Term(); ok {
		out = append(out, params.NewCVParam(acc, name, params.Value{}))
	}
	out = append(out, a.Compression.Param())
	if a.Compression == ZstdDict {
		out = append(out, params.NewUserParam(DictionaryIDParamName,
			params.Str(strconv.FormatUint(a.DictionaryID, 16))))
	}
	if acc, name, ok := a.Name.Term(); ok {
		p := params.NewCVParam(acc, name, params.Value{})
		if a.Name == ArrayNonStandard {
			p.Value = params.Str(a.NonStandardName)
		}
		if !a.Unit.IsZero() {
			p = p.WithUnit(a.Unit, params.UnitName(a.Unit))
		}
		out = append(out, p)
	}
	out = append(out, a.Params...)
	return out
}
