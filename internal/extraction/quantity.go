package extraction

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is a weight or volume unit as written on a document, normalized.
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitTonne      Unit = "t"
	UnitPound      Unit = "lb"
	UnitCubicMetre Unit = "m3"
)

// Dimension groups units that convert into one another.
type Dimension string

const (
	DimensionMass    Dimension = "mass"
	DimensionVolume  Dimension = "volume"
	DimensionUnknown Dimension = ""
)

const poundInKilograms = 0.45359237

var unitAliases = map[string]Unit{
	"kg":        UnitKilogram,
	"kgs":       UnitKilogram,
	"kilo":      UnitKilogram,
	"kilos":     UnitKilogram,
	"kilogram":  UnitKilogram,
	"kilograms": UnitKilogram,
	"t":         UnitTonne,
	"mt":        UnitTonne,
	"ton":       UnitTonne,
	"tons":      UnitTonne,
	"tonne":     UnitTonne,
	"tonnes":    UnitTonne,
	"lb":        UnitPound,
	"lbs":       UnitPound,
	"pound":     UnitPound,
	"pounds":    UnitPound,
	"m3":        UnitCubicMetre,
	"cbm":       UnitCubicMetre,
}

// ParseUnit normalizes a written unit. Unknown units report false.
func ParseUnit(s string) (Unit, bool) {
	u, ok := unitAliases[strings.ToLower(strings.TrimSpace(s))]
	return u, ok
}

// Quantity is a mass value with its unit.
type Quantity struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (q Quantity) String() string {
	return fmt.Sprintf("%s %s", strconv.FormatFloat(q.Value, 'f', -1, 64), q.Unit)
}

// Dimension reports what q measures.
func (q Quantity) Dimension() Dimension {
	switch q.Unit {
	case UnitKilogram, UnitTonne, UnitPound:
		return DimensionMass
	case UnitCubicMetre:
		return DimensionVolume
	default:
		return DimensionUnknown
	}
}

// Kilograms converts q to kilograms. It reports false for anything that is
// not a mass.
func (q Quantity) Kilograms() (float64, bool) {
	switch q.Unit {
	case UnitKilogram:
		return q.Value, true
	case UnitTonne:
		return q.Value * 1000, true
	case UnitPound:
		return q.Value * poundInKilograms, true
	default:
		return 0, false
	}
}

// ParseNumber reads a document-formatted decimal. Both "1,234.5" and
// "1.234,5" are accepted; a lone separator followed by exactly three digits
// is read as a thousands separator unless the integer part is zero, so
// "1.040" is 1040 while "0.750" stays 0.75.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, " ", ""))
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || groupsThousands(s, lastComma) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || groupsThousands(s, lastDot) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return strconv.ParseFloat(s, 64)
}

// groupsThousands reports whether the lone separator at i splits off a
// three-digit group from a non-zero integer part.
func groupsThousands(s string, i int) bool {
	if len(s)-i-1 != 3 {
		return false
	}
	integer := strings.TrimLeft(s[:i], "+-")
	return integer != "" && strings.Trim(integer, "0") != ""
}
