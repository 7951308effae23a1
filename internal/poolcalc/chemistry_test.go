package poolcalc

import "testing"

func fptr(v float64) *float64 { return &v }

func TestClassify_PH(t *testing.T) {
	cases := []struct {
		value float64
		want  Band
	}{
		{7.4, BandGood},
		{7.2, BandGood}, // inclusive lower good bound
		{7.6, BandGood}, // inclusive upper good bound
		{7.7, BandWarning},
		{7.0, BandWarning},
		{7.8, BandWarning},
		{9.0, BandDanger},
		{6.5, BandDanger},
	}
	for _, tc := range cases {
		if got := Classify(ParamPH, fptr(tc.value)); got != tc.want {
			t.Fatalf("ph %.1f: expected %s, got %s", tc.value, tc.want, got)
		}
	}
}

func TestClassify_FreeChlorine(t *testing.T) {
	if got := Classify(ParamFreeChlorine, fptr(2.0)); got != BandGood {
		t.Fatalf("expected good, got %s", got)
	}
	if got := Classify(ParamFreeChlorine, fptr(0.7)); got != BandWarning {
		t.Fatalf("expected warning, got %s", got)
	}
	if got := Classify(ParamFreeChlorine, fptr(4.5)); got != BandDanger {
		t.Fatalf("expected danger, got %s", got)
	}
}

func TestClassify_Alkalinity(t *testing.T) {
	if got := Classify(ParamAlkalinity, fptr(100)); got != BandGood {
		t.Fatalf("expected good, got %s", got)
	}
	if got := Classify(ParamAlkalinity, fptr(70)); got != BandWarning {
		t.Fatalf("expected warning, got %s", got)
	}
	if got := Classify(ParamAlkalinity, fptr(160)); got != BandDanger {
		t.Fatalf("expected danger, got %s", got)
	}
}

func TestClassify_CalciumHardness(t *testing.T) {
	if got := Classify(ParamCalciumHardness, fptr(300)); got != BandGood {
		t.Fatalf("expected good, got %s", got)
	}
	if got := Classify(ParamCalciumHardness, fptr(450)); got != BandWarning {
		t.Fatalf("expected warning, got %s", got)
	}
	if got := Classify(ParamCalciumHardness, fptr(100)); got != BandDanger {
		t.Fatalf("expected danger, got %s", got)
	}
}

func TestClassify_AbsentReading(t *testing.T) {
	if got := Classify(ParamPH, nil); got != BandNone {
		t.Fatalf("expected none for absent reading, got %s", got)
	}
}

func TestClassify_UnknownParameter(t *testing.T) {
	if got := Classify("salinity", fptr(3000)); got != BandNone {
		t.Fatalf("expected none for unknown parameter, got %s", got)
	}
}
