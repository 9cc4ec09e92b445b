// Package meta models the file-level metadata sections of an mzML document:
// file description, software, instrument configurations, data processing,
// samples and the run record. The same model backs metadata copying between
// formats.
package meta

import (
	"time"

	"github.com/mobiusklein/mzdata/params"
)

// SourceFile describes one input file the data was derived from, including
// checksum and native-id format params.
type SourceFile struct {
	ID       string
	Name     string
	Location string
	Params   params.ParamList
}

// Checksum returns the SHA-1 checksum param value when present.
func (s SourceFile) Checksum() (string, bool) {
	if p, ok := s.Params.Get(params.TermSHA1); ok {
		return p.Value.String(), true
	}
	return "", false
}

// FileDescription carries the fileDescription section: what kinds of spectra
// the file contains and where the data came from.
type FileDescription struct {
	Contents    params.ParamList
	SourceFiles []SourceFile
	Params      params.ParamList
}

// Software identifies one processing tool named in the file.
type Software struct {
	ID      string
	Version string
	Params  params.ParamList
}

// ComponentKind distinguishes the three instrument component roles.
type ComponentKind int

const (
	ComponentSource ComponentKind = iota
	ComponentAnalyzer
	ComponentDetector
)

// Component is one element of an instrument's component list.
type Component struct {
	Kind   ComponentKind
	Order  int
	Params params.ParamList
}

// InstrumentConfiguration describes one instrument setup. ScanSettingsRef and
// SoftwareRef are id references resolved by lookup, never owning pointers, so
// the instrument-configuration / scan-settings cycle stays representable.
type InstrumentConfiguration struct {
	ID              string
	Components      []Component
	Params          params.ParamList
	SoftwareRef     string
	ScanSettingsRef string
}

// ProcessingMethod is one ordered step of a data-processing chain.
type ProcessingMethod struct {
	Order       int
	SoftwareRef string
	Params      params.ParamList
}

// DataProcessing is a named, ordered chain of processing methods.
type DataProcessing struct {
	ID      string
	Methods []ProcessingMethod
}

// Sample describes a measured sample.
type Sample struct {
	ID     string
	Name   string
	Params params.ParamList
}

// ScanSettings cross-references an instrument configuration with acquisition
// targets.
type ScanSettings struct {
	ID             string
	SourceFileRefs []string
	Params         params.ParamList
}

// Run is the per-acquisition record that owns the spectrum list.
type Run struct {
	ID                                string
	StartTime                         time.Time
	DefaultInstrumentConfigurationRef string
	DefaultSourceFileRef              string
	DefaultDataProcessingRef          string
	SpectrumCountHint                 int
}

// FileMetadata aggregates every metadata section of a file. Readers populate
// it before the first spectrum is surfaced; writers consume it when copying
// metadata from a source.
type FileMetadata struct {
	FileDescription FileDescription
	Softwares       []Software
	Instruments     []InstrumentConfiguration
	DataProcessing  []DataProcessing
	Samples         []Sample
	ScanSettings    []ScanSettings
	ParamGroups     *params.GroupRegistry
	Run             Run
}

// NewFileMetadata returns a metadata record with an empty group registry.
func NewFileMetadata() FileMetadata {
	return FileMetadata{ParamGroups: params.NewGroupRegistry()}
}

// InstrumentByID resolves an instrumentConfigurationRef.
func (m *FileMetadata) InstrumentByID(id string) (*InstrumentConfiguration, bool) {
	for i := range m.Instruments {
		if m.Instruments[i].ID == id {
			return &m.Instruments[i], true
		}
	}
	return nil, false
}

// SoftwareByID resolves a softwareRef.
func (m *FileMetadata) SoftwareByID(id string) (*Software, bool) {
	for i := range m.Softwares {
		if m.Softwares[i].ID == id {
			return &m.Softwares[i], true
		}
	}
	return nil, false
}

// CopyFrom transfers the source's metadata sections and appends a processing
// method attributed to the named software, the operation both writers expose
// as "copy metadata from source".
func (m *FileMetadata) CopyFrom(src *FileMetadata, softwareID, softwareVersion string) {
	m.FileDescription = src.FileDescription
	m.Softwares = append([]Software{}, src.Softwares...)
	m.Instruments = append([]InstrumentConfiguration{}, src.Instruments...)
	m.DataProcessing = append([]DataProcessing{}, src.DataProcessing...)
	m.Samples = append([]Sample{}, src.Samples...)
	m.ScanSettings = append([]ScanSettings{}, src.ScanSettings...)
	m.ParamGroups = src.ParamGroups
	m.Run = src.Run

	m.Softwares = append(m.Softwares, Software{ID: softwareID, Version: softwareVersion})
	order := 1
	for _, dp := range m.DataProcessing {
		for _, pm := range dp.Methods {
			if pm.Order >= order {
				order = pm.Order + 1
			}
		}
	}
	method := ProcessingMethod{
		Order:       order,
		SoftwareRef: softwareID,
		Params: params.ParamList{
			params.NewCVParam(params.TermConversionToMzML, "Conversion to mzML", params.Value{}),
		},
	}
	if len(m.DataProcessing) == 0 {
		m.DataProcessing = append(m.DataProcessing, DataProcessing{ID: softwareID + "_processing"})
	}
	last := len(m.DataProcessing) - 1
	m.DataProcessing[last].Methods = append(m.DataProcessing[last].Methods, method)
}
