package params

import (
	"errors"
	"fmt"
	"log"
)

// ErrUnknownReference means a referenceableParamGroup or instrument
// configuration reference could not be resolved.
var ErrUnknownReference = errors.New("params: unknown reference")

// Param is a single controlled-vocabulary or user parameter. A cvParam has a
// non-nil Accession; a userParam does not.
type Param struct {
	Name      string
	Value     Value
	Accession *CURIE
	Unit      *CURIE
	UnitName  string
}

// NewCVParam builds a cvParam from a term and an optional value.
func NewCVParam(accession CURIE, name string, value Value) Param {
	a := accession
	return Param{Name: name, Value: value, Accession: &a}
}

// NewUserParam builds a userParam.
func NewUserParam(name string, value Value) Param {
	return Param{Name: name, Value: value}
}

// WithUnit attaches a unit term, builder style.
func (p Param) WithUnit(unit CURIE, unitName string) Param {
	u := unit
	p.Unit = &u
	p.UnitName = unitName
	return p
}

// IsCV reports whether the parameter carries a CV accession.
func (p Param) IsCV() bool { return p.Accession != nil }

// Is reports whether the parameter is the given CV term.
func (p Param) Is(c CURIE) bool { return p.Accession != nil && *p.Accession == c }

func (p Param) String() string {
	if p.Accession != nil {
		return fmt.Sprintf("%s|%s=%s", p.Accession, p.Name, p.Value)
	}
	return fmt.Sprintf("%s=%s", p.Name, p.Value)
}

// ParamList is an ordered parameter collection with by-term lookup.
type ParamList []Param

// Get returns the first parameter matching the accession.
func (pl ParamList) Get(c CURIE) (Param, bool) {
	for _, p := range pl {
		if p.Is(c) {
			return p, true
		}
	}
	return Param{}, false
}

// GetByName returns the first parameter with the given name, CV or user.
func (pl ParamList) GetByName(name string) (Param, bool) {
	for _, p := range pl {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Has reports whether the accession appears in the list.
func (pl ParamList) Has(c CURIE) bool {
	_, ok := pl.Get(c)
	return ok
}

// ParamGroup is a named, reusable parameter bundle referenced by id
// (referenceableParamGroup in mzML).
type ParamGroup struct {
	ID     string
	Params ParamList
}

// GroupRegistry resolves referenceableParamGroupRef ids to their bundles.
type GroupRegistry struct {
	groups map[string]*ParamGroup
}

// NewGroupRegistry returns an empty registry.
func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{groups: make(map[string]*ParamGroup)}
}

// Add registers a group, replacing any previous definition of the same id.
func (r *GroupRegistry) Add(g ParamGroup) {
	cp := g
	r.groups[g.ID] = &cp
}

// Get returns the group for an id.
func (r *GroupRegistry) Get(id string) (*ParamGroup, bool) {
	g, ok := r.groups[id]
	return g, ok
}

// Resolve appends the referenced group's parameters to dst. An unresolved
// reference is logged and dropped; the caller keeps the element but loses the
// reference.
func (r *GroupRegistry) Resolve(dst ParamList, ref string) (ParamList, error) {
	g, ok := r.groups[ref]
	if !ok {
		log.Printf("params: dropping unresolvable paramGroup reference %q", ref)
		return dst, fmt.Errorf("%w: paramGroup %q", ErrUnknownReference, ref)
	}
	return append(dst, g.Params...), nil
}

// Len returns the number of registered groups.
func (r *GroupRegistry) Len() int { return len(r.groups) }

// IDs returns the registered group ids in unspecified order.
func (r *GroupRegistry) IDs() []string {
	ids := make([]string, 0, len(r.groups))
	for id := range r.groups {
		ids = append(ids, id)
	}
	return ids
}
