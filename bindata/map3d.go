package bindata

import (
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
)

// BinaryArrayMap3D stacks per-ion-mobility-bin 2-D maps along a shared
// ion-mobility axis. All inner maps share the same role set and per-role
// dtype.
type BinaryArrayMap3D struct {
	IonMobilityAxis []float64
	IonMobilityType ArrayType
	Bins            []*BinaryArrayMap
}

// BinAt returns the 2-D map whose ion-mobility bin matches value within tol.
func (m *BinaryArrayMap3D) BinAt(value, tol float64) (*BinaryArrayMap, bool) {
	for i, im := range m.IonMobilityAxis {
		if scalar.EqualWithinAbsOrRel(im, value, tol, tol) {
			return m.Bins[i], true
		}
	}
	return nil, false
}

// Stack partitions the rows of a 2-D map into contiguous runs of equal
// ion-mobility value (within tol) and yields the 3-D form. The input must
// contain an ion-mobility array.
func Stack(m *BinaryArrayMap, tol float64) (*BinaryArrayMap3D, error) {
	imArray, ok := m.IonMobility()
	if !ok {
		return nil, fmt.Errorf("%w: no ion mobility array to stack on", ErrArrayNotFound)
	}
	imValues, err := imArray.Decoded()
	if err != nil {
		return nil, err
	}

	type role struct {
		name   ArrayType
		dtype  DataType
		values []float64
	}
	var roles []role
	for _, a := range m.Arrays() {
		if a.Name == imArray.Name {
			continue
		}
		values, err := a.Decoded()
		if err != nil {
			return nil, err
		}
		if len(values) != len(imValues) {
			return nil, fmt.Errorf("bindata: %s array has %d rows, ion mobility axis has %d",
				a.Label(), len(values), len(imValues))
		}
		roles = append(roles, role{a.Name, a.DType, values})
	}

	out := &BinaryArrayMap3D{IonMobilityType: imArray.Name}
	start := 0
	flush := func(end int) {
		bin := NewBinaryArrayMap()
		for _, ro := range roles {
			slice := append([]float64{}, ro.values[start:end]...)
			arr := NewDataArray(ro.name, ro.dtype, slice)
			bin.Add(arr)
		}
		out.IonMobilityAxis = append(out.IonMobilityAxis, imValues[start])
		out.Bins = append(out.Bins, bin)
	}
	for i := 1; i < len(imValues); i++ {
		if !scalar.EqualWithinAbsOrRel(imValues[i], imValues[start], tol, tol) {
			flush(i)
			start = i
		}
	}
	if len(imValues) > 0 {
		flush(len(imValues))
	}
	return out, nil
}

// Unstack flattens the 3-D form back to a 2-D map, restoring the ion-mobility
// array. The total row count and the dtypes of the bin roles are preserved;
// the restored ion-mobility array is always Float64, whatever its dtype was
// before Stack.
func Unstack(m *BinaryArrayMap3D) (*BinaryArrayMap, error) {
	out := NewBinaryArrayMap()
	if len(m.Bins) == 0 {
		return out, nil
	}

	ref := m.Bins[0].SortedRoles()
	total := 0
	for i, bin := range m.Bins {
		got := bin.SortedRoles()
		if len(got) != len(ref) {
			return nil, fmt.Errorf("bindata: bin %d has %d roles, expected %d", i, len(got), len(ref))
		}
		for j := range ref {
			if got[j] != ref[j] {
				return nil, fmt.Errorf("bindata: bin %d role set differs from bin 0", i)
			}
		}
		total += bin.PointCount()
	}

	imValues := make([]float64, 0, total)
	merged := make(map[ArrayType][]float64, len(ref))
	dtypes := make(map[ArrayType]DataType, len(ref))
	for i, bin := range m.Bins {
		n := bin.PointCount()
		for k := 0; k < n; k++ {
			imValues = append(imValues, m.IonMobilityAxis[i])
		}
		for _, a := range bin.Arrays() {
			values, err := a.Decoded()
			if err != nil {
				return nil, err
			}
			if prev, ok := dtypes[a.Name]; ok && prev != a.DType {
				return nil, fmt.Errorf("%w: role %s switches dtype between bins",
					ErrDtypeMismatch, a.Label())
			}
			dtypes[a.Name] = a.DType
			merged[a.Name] = append(merged[a.Name], values...)
		}
	}

	imType := m.IonMobilityType
	if imType == ArrayUnknown {
		imType = ArrayIonMobility
	}
	out.Add(NewDataArray(imType, Float64, imValues))
	for _, name := range ref {
		out.Add(NewDataArray(name, dtypes[name], merged[name]))
	}
	return out, nil
}
