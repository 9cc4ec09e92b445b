package params

import (
	"errors"
	"testing"
)

func TestParseCURIE(t *testing.T) {
	c, err := ParseCURIE("MS:1000511")
	if err != nil {
		t.Errorf("ParseCURIE: error return %v", err)
	}
	if c.CV != CVMS || c.Accession != 1000511 {
		t.Errorf("ParseCURIE: got %+v", c)
	}
	if c.String() != "MS:1000511" {
		t.Errorf("CURIE.String: %s, should be MS:1000511", c.String())
	}

	u, err := ParseCURIE("UO:0000031")
	if err != nil {
		t.Errorf("ParseCURIE: error return %v", err)
	}
	if u != UnitMinute {
		t.Errorf("ParseCURIE: %+v, should equal UnitMinute", u)
	}
	if u.String() != "UO:0000031" {
		t.Errorf("CURIE.String: %s, should be UO:0000031", u.String())
	}

	_, err = ParseCURIE("1000511")
	if !errors.Is(err, ErrInvalidCURIE) {
		t.Errorf("ParseCURIE: error return %v, should be ErrInvalidCURIE", err)
	}
	_, err = ParseCURIE("XX:123")
	if !errors.Is(err, ErrInvalidCURIE) {
		t.Errorf("ParseCURIE: error return %v, should be ErrInvalidCURIE", err)
	}
}

func TestValueInference(t *testing.T) {
	v := ParseValue("42")
	if v.Kind() != KindInt {
		t.Errorf("ParseValue: kind %v, should be KindInt", v.Kind())
	}
	i, err := v.Int64()
	if err != nil || i != 42 {
		t.Errorf("Int64: %d %v", i, err)
	}
	f, err := v.Float64()
	if err != nil || f != 42.0 {
		t.Errorf("Float64: %f %v", f, err)
	}

	v = ParseValue("810.41541")
	if v.Kind() != KindFloat {
		t.Errorf("ParseValue: kind %v, should be KindFloat", v.Kind())
	}
	if _, err := v.Int64(); !errors.Is(err, ErrInvalidCoercion) {
		t.Errorf("Int64: error return %v, should be ErrInvalidCoercion", err)
	}
	if v.String() != "810.41541" {
		t.Errorf("String: %s, round-trip form lost", v.String())
	}

	v = ParseValue("true")
	b, err := v.Bool()
	if err != nil || !b {
		t.Errorf("Bool: %v %v", b, err)
	}

	v = ParseValue("controllerType=0 controllerNumber=1 scan=1")
	if v.Kind() != KindString {
		t.Errorf("ParseValue: kind %v, should be KindString", v.Kind())
	}
}

func TestValueDeclaredType(t *testing.T) {
	// A declared string type must suppress numeric inference
	v := ParseValueAs("0001", "xsd:string")
	if v.Kind() != KindString {
		t.Errorf("ParseValueAs: kind %v, should be KindString", v.Kind())
	}
	v = ParseValueAs("17", "xsd:int")
	if v.Kind() != KindInt {
		t.Errorf("ParseValueAs: kind %v, should be KindInt", v.Kind())
	}
}

func TestParamGroupResolve(t *testing.T) {
	reg := NewGroupRegistry()
	reg.Add(ParamGroup{
		ID: "CommonInstrumentParams",
		Params: ParamList{
			NewCVParam(MS(1000031), "instrument model", Value{}),
		},
	})

	pl, err := reg.Resolve(nil, "CommonInstrumentParams")
	if err != nil {
		t.Errorf("Resolve: error return %v", err)
	}
	if len(pl) != 1 || pl[0].Name != "instrument model" {
		t.Errorf("Resolve: %+v", pl)
	}

	_, err = reg.Resolve(nil, "missing")
	if !errors.Is(err, ErrUnknownReference) {
		t.Errorf("Resolve: error return %v, should be ErrUnknownReference", err)
	}
}

func TestNativeIDFormats(t *testing.T) {
	id := `controllerType=0 controllerNumber=1 scan=25788`
	if f := DetectNativeIDFormat(id); f != NativeIDThermo {
		t.Errorf("DetectNativeIDFormat: %v, should be NativeIDThermo", f)
	}
	n, err := ScanNumber(id)
	if err != nil || n != 25788 {
		t.Errorf("ScanNumber: %d %v", n, err)
	}

	if f := DetectNativeIDFormat("scan=17"); f != NativeIDScanNumber {
		t.Errorf("DetectNativeIDFormat: %v, should be NativeIDScanNumber", f)
	}
	if f := DetectNativeIDFormat("index=4"); f != NativeIDMultiplePeakList {
		t.Errorf("DetectNativeIDFormat: %v, should be NativeIDMultiplePeakList", f)
	}
	n, err = ScanNumber("spectrum=9")
	if err != nil || n != 9 {
		t.Errorf("ScanNumber: %d %v", n, err)
	}
}

func TestTermTables(t *testing.T) {
	if d := DissociationFromAccession(MS(1000422)); d != DissociationHCD {
		t.Errorf("DissociationFromAccession: %v, should be DissociationHCD", d)
	}
	p, ok := DissociationHCD.Param()
	if !ok || p.Accession == nil || *p.Accession != MS(1000422) {
		t.Errorf("DissociationMethod.Param: %+v", p)
	}
	if a := AnalyzerFromAccession(MS(1000484)); a != AnalyzerOrbitrap {
		t.Errorf("AnalyzerFromAccession: %v, should be AnalyzerOrbitrap", a)
	}
	if a := AnalyzerFromAccession(MS(1234567)); a != AnalyzerUnknown {
		t.Errorf("AnalyzerFromAccession: %v, should be AnalyzerUnknown", a)
	}
	if s := SoftwareFromAccession(MS(1000615)); s != SoftwareProteoWizard {
		t.Errorf("SoftwareFromAccession: %v, should be SoftwareProteoWizard", s)
	}
}
