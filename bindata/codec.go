package bindata

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// toBytes serialises a float64 slice into little-endian wire bytes of the
// given dtype.
func toBytes(data []float64, dtype DataType) ([]byte, error) {
	out := make([]byte, 0, len(data)*dtype.Size())
	switch dtype {
	case Float64:
		for _, v := range data {
			out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v))
		}
	case Float32:
		for _, v := range data {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(v)))
		}
	case Int32:
		for _, v := range data {
			out = binary.LittleEndian.AppendUint32(out, uint32(int32(v)))
		}
	case Int64:
		for _, v := range data {
			out = binary.LittleEndian.AppendUint64(out, uint64(int64(v)))
		}
	default:
		return nil, fmt.Errorf("%w: cannot serialise %s", ErrDtypeMismatch, dtype)
	}
	return out, nil
}

// fromBytes deserialises little-endian wire bytes into float64 values.
func fromBytes(data []byte, dtype DataType) ([]float64, error) {
	size := dtype.Size()
	if dtype == UnknownType || dtype == ASCII {
		return nil, fmt.Errorf("%w: cannot interpret %s as numbers", ErrDtypeMismatch, dtype)
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes does not divide by %s width %d",
			ErrDtypeMismatch, len(data), dtype, size)
	}
	n := len(data) / size
	out := make([]float64, n)
	switch dtype {
	case Float64:
		for i := 0; i < n; i++ {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	case Float32:
		for i := 0; i < n; i++ {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
	case Int32:
		for i := 0; i < n; i++ {
			out[i] = float64(int32(binary.LittleEndian.Uint32(data[i*4:])))
		}
	case Int64:
		for i := 0; i < n; i++ {
			out[i] = float64(int64(binary.LittleEndian.Uint64(data[i*8:])))
		}
	}
	return out, nil
}

func zlibCompress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	z := zlib.NewWriter(&b)
	if _, err := z.Write(data); err != nil {
		z.Close()
		return nil, err
	}
	// zlib writer must explicitly be closed here, otherwise the stream is invalid
	if err := z.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func zlibDecompress(data []byte) ([]byte, error) {
	z, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer z.Close()
	return io.ReadAll(z)
}

var (
	zstdEncoderOnce sync.Once
	zstdEncoder     *zstd.Encoder
	zstdDecoderOnce sync.Once
	zstdDecoder     *zstd.Decoder
)

func zstdCompress(data []byte) ([]byte, error) {
	zstdEncoderOnce.Do(func() {
		zstdEncoder, _ = zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1), zstd.WithEncoderCRC(false))
	})
	if zstdEncoder == nil {
		return nil, fmt.Errorf("bindata: zstd compression context init failed")
	}
	return zstdEncoder.EncodeAll(data, nil), nil
}

func zstdDecompress(data []byte) ([]byte, error) {
	zstdDecoderOnce.Do(func() {
		zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
	if zstdDecoder == nil {
		return nil, fmt.Errorf("bindata: zstd decompression context init failed")
	}
	return zstdDecoder.DecodeAll(data, nil)
}

// Dictionary registry for the byte-shuffle + zstd scheme. Ids are the
// xxhash64 of the dictionary content, carried on the array as a userParam.
// The registry is append-only and safe for concurrent reads after init.
var (
	dictMu   sync.RWMutex
	dictById = make(map[uint64][]byte)
)

// RegisterDictionary stores dictionary content, used by zstd as raw history,
// and returns its id.
func RegisterDictionary(dict []byte) uint64 {
	id := xxhash.Sum64(dict)
	dictMu.Lock()
	dictById[id] = append([]byte{}, dict...)
	dictMu.Unlock()
	return id
}

// LookupDictionary returns the dictionary registered under id.
func LookupDictionary(id uint64) ([]byte, bool) {
	dictMu.RLock()
	d, ok := dictById[id]
	dictMu.RUnlock()
	return d, ok
}

func zstdDictCompress(data []byte, dictID uint64) ([]byte, error) {
	dict, ok := LookupDictionary(dictID)
	if !ok {
		return nil, fmt.Errorf("%w: id %#x", ErrUnknownDictionary, dictID)
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderConcurrency(1), zstd.WithEncoderCRC(false),
		zstd.WithEncoderDictRaw(uint32(dictID), dict))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func zstdDictDecompress(data []byte, dictID uint64) ([]byte, error) {
	dict, ok := LookupDictionary(dictID)
	if !ok {
		return nil, fmt.Errorf("%w: id %#x", ErrUnknownDictionary, dictID)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderDictRaw(uint32(dictID), dict))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

// byteShuffle transposes an array of n-byte elements so all first bytes come
// first, improving zstd compressibility of slowly varying numeric data.
func byteShuffle(data []byte, width int) []byte {
	if width <= 1 || len(data)%width != 0 {
		return data
	}
	n := len(data) / width
	out := make([]byte, len(data))
	for i := 0; i < n; i++ {
		for j := 0; j < width; j++ {
			out[j*n+i] = data[i*width+j]
		}
	}
	return out
}

func byteUnshuffle(data []byte, width int) []byte {
	if width <= 1 || len(data)%width != 0 {
		return data
	}
	n := len(data) / width
	out := make([]byte, len(data))
	for i := 0; i < n; i++ {
		for j := 0; j < width; j++ {
			out[i*width+j] = data[j*n+i]
		}
	}
	return out
}

// Encode runs the write pipeline: typed values -> optional numpress ->
// little-endian bytes -> optional general compression. The result is the raw
// (pre-base64) wire payload.
func Encode(data []float64, dtype DataType, compression Compression, dictID uint64) ([]byte, error) {
	if compression.isNumpress() && dtype != Float64 {
		return nil, fmt.Errorf("%w: %s applies to 64-bit floats, not %s",
			ErrIncompatibleCompression, compression, dtype)
	}
	switch compression {
	case NoCompression:
		return toBytes(data, dtype)
	case Zlib:
		raw, err := toBytes(data, dtype)
		if err != nil {
			return nil, err
		}
		return zlibCompress(raw)
	case Zstd:
		raw, err := toBytes(data, dtype)
		if err != nil {
			return nil, err
		}
		return zstdCompress(raw)
	case ZstdDict:
		raw, err := toBytes(data, dtype)
		if err != nil {
			return nil, err
		}
		return zstdDictCompress(byteShuffle(raw, dtype.Size()), dictID)
	case NumpressLinear:
		return numpressLinearEncode(data)
	case NumpressSLOF:
		return numpressSlofEncode(data)
	case NumpressPIC:
		return numpressPicEncode(data)
	case NumpressLinearZlib:
		raw, err := numpressLinearEncode(data)
		if err != nil {
			return nil, err
		}
		return zlibCompress(raw)
	case NumpressSLOFZlib:
		raw, err := numpressSlofEncode(data)
		if err != nil {
			return nil, err
		}
		return zlibCompress(raw)
	case NumpressPICZlib:
		raw, err := numpressPicEncode(data)
		if err != nil {
			return nil, err
		}
		return zlibCompress(raw)
	}
	return nil, fmt.Errorf("%w: unsupported scheme %s", ErrIncompatibleCompression, compression)
}

// Decode runs the read pipeline, the inverse of Encode. Zero-length payloads
// return an empty slice without touching any decompressor: several back-ends
// misbehave on empty input.
func Decode(payload []byte, dtype DataType, compression Compression, dictID uint64) ([]float64, error) {
	if len(payload) == 0 {
		return []float64{}, nil
	}
	switch compression {
	case NoCompression:
		return fromBytes(payload, dtype)
	case Zlib:
		raw, err := zlibDecompress(payload)
		if err != nil {
			return nil, err
		}
		return fromBytes(raw, dtype)
	case Zstd:
		raw, err := zstdDecompress(payload)
		if err != nil {
			return nil, err
		}
		return fromBytes(raw, dtype)
	case ZstdDict:
		raw, err := zstdDictDecompress(payload, dictID)
		if err != nil {
			return nil, err
		}
		return fromBytes(byteUnshuffle(raw, dtype.Size()), dtype)
	case NumpressLinear:
		return numpressLinearDecode(payload)
	case NumpressSLOF:
		return numpressSlofDecode(payload)
	case NumpressPIC:
		return numpressPicDecode(payload)
	case NumpressLinearZlib:
		raw, err := zlibDecompress(payload)
		if err != nil {
			return nil, err
		}
		return numpressLinearDecode(raw)
	case NumpressSLOFZlib:
		raw, err := zlibDecompress(payload)
		if err != nil {
			return nil, err
		}
		return numpressSlofDecode(raw)
	case NumpressPICZlib:
		raw, err := zlibDecompress(payload)
		if err != nil {
			return nil, err
		}
		return numpressPicDecode(raw)
	}
	return nil, fmt.Errorf("%w: unsupported scheme %s", ErrIncompatibleCompression, compression)
}

// EncodeBase64 runs Encode and wraps the payload in base64 text as embedded
// in a <binary> element.
func EncodeBase64(data []float64, dtype DataType, compression Compression, dictID uint64) (string, error) {
	payload, err := Encode(data, dtype, compression, dictID)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeBase64Payload unwraps base64 text into the raw wire payload without
// running the decompression stages.
func DecodeBase64Payload(text string) ([]byte, error) {
	payload, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("bindata: base64 decode failed: %w", err)
	}
	return payload, nil
}

// DecodeBase64 unwraps base64 text and runs Decode.
func DecodeBase64(text string, dtype DataType, compression Compression, dictID uint64) ([]float64, error) {
	if len(text) == 0 {
		return []float64{}, nil
	}
	payload, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("bindata: base64 decode failed: %w", err)
	}
	return Decode(payload, dtype, compression, dictID)
}
