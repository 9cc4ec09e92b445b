package bindata

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticMZ(n int) []float64 {
	rng := rand.New(rand.NewSource(42))
	out := make([]float64, n)
	mz := 150.0
	for i := range out {
		mz += 0.25 + rng.Float64()*0.05
		out[i] = mz
	}
	return out
}

func syntheticIntensity(n int) []float64 {
	rng := rand.New(rand.NewSource(7))
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Floor(rng.Float64()*1e6) / 10
	}
	return out
}

func TestLosslessRoundTrips(t *testing.T) {
	data := syntheticMZ(257)
	cases := []struct {
		dtype       DataType
		compression Compression
	}{
		{Float64, NoCompression},
		{Float64, Zlib},
		{Float64, Zstd},
		{Int32, NoCompression},
		{Int64, Zlib},
		{Float32, Zstd},
	}
	for _, tc := range cases {
		in := data
		if tc.dtype == Int32 || tc.dtype == Int64 {
			in = make([]float64, len(data))
			for i, v := range data {
				in[i] = math.Floor(v)
			}
		}
		if tc.dtype == Float32 {
			in = make([]float64, len(data))
			for i, v := range data {
				in[i] = float64(float32(v))
			}
		}
		payload, err := Encode(in, tc.dtype, tc.compression, 0)
		require.NoError(t, err, "%s/%s", tc.dtype, tc.compression)
		got, err := Decode(payload, tc.dtype, tc.compression, 0)
		require.NoError(t, err, "%s/%s", tc.dtype, tc.compression)
		assert.Equal(t, in, got, "%s/%s round trip", tc.dtype, tc.compression)
	}
}

func TestNumpressLinearTolerance(t *testing.T) {
	// Spec scenario: length-1024 f64 m/z with numpress-linear + zlib
	data := syntheticMZ(1024)
	payload, err := Encode(data, Float64, NumpressLinearZlib, 0)
	require.NoError(t, err)
	got, err := Decode(payload, Float64, NumpressLinearZlib, 0)
	require.NoError(t, err)
	require.Len(t, got, len(data))
	for i := range data {
		relErr := math.Abs(got[i]-data[i]) / data[i]
		assert.LessOrEqual(t, relErr, 1e-6, "index %d", i)
	}
}

func TestNumpressSlof(t *testing.T) {
	data := syntheticIntensity(512)
	payload, err := Encode(data, Float64, NumpressSLOF, 0)
	require.NoError(t, err)
	got, err := Decode(payload, Float64, NumpressSLOF, 0)
	require.NoError(t, err)
	require.Len(t, got, len(data))
	for i := range data {
		if data[i] == 0 {
			assert.InDelta(t, 0, got[i], 1e-4)
			continue
		}
		logErr := math.Abs(math.Log(got[i]+1) - math.Log(data[i]+1))
		assert.LessOrEqual(t, logErr, 0.0005, "index %d", i)
	}
}

func TestNumpressPic(t *testing.T) {
	data := []float64{0, 1, 2, 17, 255, 65535, 1 << 20, 0, 3}
	payload, err := Encode(data, Float64, NumpressPIC, 0)
	require.NoError(t, err)
	got, err := Decode(payload, Float64, NumpressPIC, 0)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestNumpressRefusesNonF64(t *testing.T) {
	_, err := Encode([]float64{1, 2, 3}, Float32, NumpressLinear, 0)
	assert.ErrorIs(t, err, ErrIncompatibleCompression)
	_, err = Encode([]float64{1, 2, 3}, Int32, NumpressPIC, 0)
	assert.ErrorIs(t, err, ErrIncompatibleCompression)
}

func TestZeroLengthFastPath(t *testing.T) {
	// An empty declared array must not touch the decompressor
	for _, c := range []Compression{NoCompression, Zlib, Zstd, NumpressLinear, ZstdDict} {
		got, err := Decode(nil, Float64, c, 0)
		require.NoError(t, err, "%s", c)
		assert.Empty(t, got, "%s", c)
	}
	got, err := DecodeBase64("", Float64, Zlib, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDictionaryScheme(t *testing.T) {
	dict := make([]byte, 0, 1024)
	for i := 0; i < 128; i++ {
		dict = append(dict, byte(i), 0, 0, 0, byte(i), 0, 0, 0)
	}
	id := RegisterDictionary(dict)

	data := syntheticIntensity(300)
	payload, err := Encode(data, Float64, ZstdDict, id)
	require.NoError(t, err)
	got, err := Decode(payload, Float64, ZstdDict, id)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = Decode(payload, Float64, ZstdDict, id+1)
	assert.ErrorIs(t, err, ErrUnknownDictionary)
}

func TestByteShuffle(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	shuffled := byteShuffle(data, 4)
	assert.Equal(t, []byte{1, 5, 9, 2, 6, 10, 3, 7, 11, 4, 8, 12}, shuffled)
	assert.Equal(t, data, byteUnshuffle(shuffled, 4))
}

func TestCoercion(t *testing.T) {
	a := NewDataArray(ArrayIntensity, Float32, []float64{1, 2, 3})
	widened, err := a.CoerceTo(Float64)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, widened)
	// Mutating the widened copy must not touch the cached decoded form
	widened[0] = 99
	orig, err := a.Decoded()
	require.NoError(t, err)
	assert.Equal(t, 1.0, orig[0])

	_, err = a.CoerceTo(Int32)
	assert.True(t, errors.Is(err, ErrDtypeMismatch))
}

func TestLazyDecodeCaching(t *testing.T) {
	data := syntheticIntensity(64)
	payload, err := Encode(data, Float64, Zlib, 0)
	require.NoError(t, err)
	a := NewEncodedDataArray(ArrayIntensity, Float64, Zlib, payload)
	assert.False(t, a.IsDecoded())
	got, err := a.Decoded()
	require.NoError(t, err)
	assert.True(t, a.IsDecoded())
	assert.Equal(t, data, got)
	// Re-encoding runs the pipeline again and round-trips
	again, err := a.Encode()
	require.NoError(t, err)
	back, err := Decode(again, Float64, Zlib, 0)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestDeltaAndLinearTransforms(t *testing.T) {
	data := syntheticMZ(50)
	cp := append([]float64{}, data...)
	DeltaDecode(DeltaEncode(cp))
	for i := range data {
		assert.InDelta(t, data[i], cp[i], 1e-9)
	}
	cp2 := append([]float64{}, data...)
	LinearPredictionDecode(LinearPredictionEncode(cp2))
	for i := range data {
		assert.InDelta(t, data[i], cp2[i], 1e-6)
	}
}

func TestStackUnstack(t *testing.T) {
	m := NewBinaryArrayMap()
	im := []float64{0.9, 0.9, 0.9, 1.1, 1.1, 1.3}
	mz := []float64{100, 200, 300, 150, 250, 175}
	inten := []float64{10, 20, 30, 15, 25, 17}
	m.Add(NewDataArray(ArrayRawIonMobility, Float64, im))
	m.Add(NewDataArray(ArrayMZ, Float64, mz))
	m.Add(NewDataArray(ArrayIntensity, Float32, inten))

	stacked, err := Stack(m, 1e-3)
	require.NoError(t, err)
	require.Len(t, stacked.Bins, 3)
	assert.Equal(t, []float64{0.9, 1.1, 1.3}, stacked.IonMobilityAxis)
	assert.Equal(t, 3, stacked.Bins[0].PointCount())
	assert.Equal(t, 2, stacked.Bins[1].PointCount())
	assert.Equal(t, 1, stacked.Bins[2].PointCount())

	bin, ok := stacked.BinAt(1.1, 1e-3)
	require.True(t, ok)
	binMz, err := bin.MZ()
	require.NoError(t, err)
	assert.Equal(t, []float64{150, 250}, binMz)

	flat, err := Unstack(stacked)
	require.NoError(t, err)
	assert.Equal(t, 6, flat.PointCount())
	gotMz, err := flat.MZ()
	require.NoError(t, err)
	assert.Equal(t, mz, gotMz)
	imArr, ok := flat.IonMobility()
	require.True(t, ok)
	gotIm, err := imArr.Decoded()
	require.NoError(t, err)
	assert.Equal(t, im, gotIm)
	intenArr, ok := flat.Get(ArrayIntensity)
	require.True(t, ok)
	assert.Equal(t, Float32, intenArr.DType)
}
