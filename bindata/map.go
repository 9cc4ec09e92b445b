package bindata

import (
	"fmt"
	"sort"
)

// BinaryArrayMap is the ordered set of data arrays belonging to one spectrum
// or chromatogram, keyed by semantic role. A 2-D map holds at most one array
// per role.
type BinaryArrayMap struct {
	arrays []*DataArray
}

// NewBinaryArrayMap returns an empty map.
func NewBinaryArrayMap() *BinaryArrayMap {
	return &BinaryArrayMap{}
}

// Add inserts an array, replacing any existing array of the same role.
func (m *BinaryArrayMap) Add(a *DataArray) {
	for i, existing := range m.arrays {
		if existing.Name == a.Name && existing.NonStandardName == a.NonStandardName {
			m.arrays[i] = a
			return
		}
	}
	m.arrays = append(m.arrays, a)
}

// Get returns the array for a role.
func (m *BinaryArrayMap) Get(name ArrayType) (*DataArray, bool) {
	for _, a := range m.arrays {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Has reports whether an array of the role is present.
func (m *BinaryArrayMap) Has(name ArrayType) bool {
	_, ok := m.Get(name)
	return ok
}

// MZ returns the decoded m/z array.
func (m *BinaryArrayMap) MZ() ([]float64, error) {
	a, ok := m.Get(ArrayMZ)
	if !ok {
		return nil, fmt.Errorf("%w: m/z array", ErrArrayNotFound)
	}
	return a.Decoded()
}

// Intensity returns the decoded intensity array.
func (m *BinaryArrayMap) Intensity() ([]float64, error) {
	a, ok := m.Get(ArrayIntensity)
	if !ok {
		return nil, fmt.Errorf("%w: intensity array", ErrArrayNotFound)
	}
	return a.Decoded()
}

// IonMobility returns the first ion-mobility-like array present.
func (m *BinaryArrayMap) IonMobility() (*DataArray, bool) {
	for _, a := range m.arrays {
		if a.Name.IsIonMobility() {
			return a, true
		}
	}
	return nil, false
}

// Arrays iterates the arrays in insertion order.
func (m *BinaryArrayMap) Arrays() []*DataArray { return m.arrays }

// Len returns the number of arrays.
func (m *BinaryArrayMap) Len() int { return len(m.arrays) }

// PointCount returns the row count of the map, taken from the m/z array when
// present, otherwise the first array.
func (m *BinaryArrayMap) PointCount() int {
	if a, ok := m.Get(ArrayMZ); ok {
		return a.Len()
	}
	if len(m.arrays) > 0 {
		return m.arrays[0].Len()
	}
	return 0
}

// DecodeAll forces every array's decoded form, for the eager detail level.
func (m *BinaryArrayMap) DecodeAll() error {
	for _, a := range m.arrays {
		if _, err := a.Decoded(); err != nil {
			return err
		}
	}
	return nil
}

// SortedRoles returns the role set in stable order, used to compare maps.
func (m *BinaryArrayMap) SortedRoles() []ArrayType {
	roles := make([]ArrayType, 0, len(m.arrays))
	for _, a := range m.arrays {
		roles = append(roles, a.Name)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}
