package meta

import (
	"testing"

	"github.com/mobiusklein/mzdata/params"
)

func TestCopyFromAppendsProcessingMethod(t *testing.T) {
	src := NewFileMetadata()
	src.Softwares = append(src.Softwares, Software{ID: "xcalibur", Version: "4.1"})
	src.DataProcessing = append(src.DataProcessing, DataProcessing{
		ID: "conv",
		Methods: []ProcessingMethod{
			{Order: 1, SoftwareRef: "xcalibur"},
			{Order: 2, SoftwareRef: "xcalibur"},
		},
	})
	src.Run = Run{ID: "r1", SpectrumCountHint: 42}

	dst := NewFileMetadata()
	dst.CopyFrom(&src, "converter", "0.9")

	if len(dst.Softwares) != 2 {
		t.Errorf("Softwares: %d, should be 2", len(dst.Softwares))
	}
	if dst.Softwares[1].ID != "converter" {
		t.Errorf("Softwares: %s, should be converter", dst.Softwares[1].ID)
	}
	methods := dst.DataProcessing[0].Methods
	if len(methods) != 3 {
		t.Errorf("Methods: %d, should be 3", len(methods))
	}
	last := methods[len(methods)-1]
	if last.Order != 3 || last.SoftwareRef != "converter" {
		t.Errorf("appended method: %+v", last)
	}
	if !last.Params.Has(params.TermConversionToMzML) {
		t.Errorf("appended method lacks the conversion term")
	}
	if dst.Run.SpectrumCountHint != 42 {
		t.Errorf("Run hint: %d, should carry over", dst.Run.SpectrumCountHint)
	}

	// Mutating the copy must not leak into the source
	dst.Softwares[0].Version = "changed"
	if src.Softwares[0].Version != "4.1" {
		t.Errorf("CopyFrom aliased the software list")
	}
}

func TestCopyFromWithoutProcessing(t *testing.T) {
	src := NewFileMetadata()
	dst := NewFileMetadata()
	dst.CopyFrom(&src, "converter", "0.9")
	if len(dst.DataProcessing) != 1 {
		t.Fatalf("DataProcessing: %d, should be 1", len(dst.DataProcessing))
	}
	if len(dst.DataProcessing[0].Methods) != 1 {
		t.Errorf("Methods: %d, should be 1", len(dst.DataProcessing[0].Methods))
	}
}

func TestReferenceLookups(t *testing.T) {
	md := NewFileMetadata()
	md.Instruments = append(md.Instruments, InstrumentConfiguration{ID: "IC1", ScanSettingsRef: "acq1"})
	md.ScanSettings = append(md.ScanSettings, ScanSettings{ID: "acq1"})
	md.Softwares = append(md.Softwares, Software{ID: "sw1"})

	if _, ok := md.InstrumentByID("IC1"); !ok {
		t.Errorf("InstrumentByID: miss for IC1")
	}
	if _, ok := md.InstrumentByID("IC2"); ok {
		t.Errorf("InstrumentByID: hit for missing id")
	}
	if _, ok := md.SoftwareByID("sw1"); !ok {
		t.Errorf("SoftwareByID: miss for sw1")
	}
}
