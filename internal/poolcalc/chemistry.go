package poolcalc

// Band is the severity classification of a chemical reading.  It drives
// display styling only; classification has no write side effects.
type Band string

const (
	BandGood    Band = "good"
	BandWarning Band = "warning"
	BandDanger  Band = "danger"
	BandNone    Band = "none" // absent reading or unknown parameter
)

// Chemical parameter names accepted by Classify.
const (
	ParamPH              = "ph"
	ParamFreeChlorine    = "free_chlorine"
	ParamAlkalinity      = "alkalinity"
	ParamCalciumHardness = "calcium_hardness"
)

// chemRange holds the inclusive good and warning bounds for one parameter.
// Readings outside the warning range are danger.
type chemRange struct {
	goodMin, goodMax float64
	warnMin, warnMax float64
}

var chemRanges = map[string]chemRange{
	ParamPH:              {7.2, 7.6, 7.0, 7.8},
	ParamFreeChlorine:    {1.0, 3.0, 0.5, 4.0},
	ParamAlkalinity:      {80, 120, 60, 150},
	ParamCalciumHardness: {200, 400, 150, 500},
}

// Classify maps a chemical reading to its severity band.  A nil reading or
// an unknown parameter name yields BandNone.
func Classify(param string, value *float64) Band {
	if value == nil {
		return BandNone
	}
	r, known := chemRanges[param]
	if !known {
		return BandNone
	}
	v := *value
	switch {
	case v >= r.goodMin && v <= r.goodMax:
		return BandGood
	case v >= r.warnMin && v <= r.warnMax:
		return BandWarning
	default:
		return BandDanger
	}
}
