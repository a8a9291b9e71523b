package codecarbon

import "strings"

// DefaultGridIntensity is the global-average grid carbon intensity in grams
// of CO2 per kWh, matching the CodeCarbon default.
const DefaultGridIntensity = 475.0

// gridIntensities maps ISO country codes to grid carbon intensity in
// g CO2/kWh, from CodeCarbon and IEA published figures.
var gridIntensities = map[string]float64{
	"USA": 475,
	"GBR": 233,
	"FRA": 58,
	"DEU": 385,
	"CHN": 537,
	"IND": 724,
	"JPN": 465,
	"AUS": 720,
	"CAN": 140,
	"BRA": 84,
}

// GridIntensity returns the grid carbon intensity for a country code,
// falling back to the global average for unknown codes.
func GridIntensity(countryCode string) float64 {
	if v, ok := gridIntensities[strings.ToUpper(strings.TrimSpace(countryCode))]; ok {
		return v
	}
	return DefaultGridIntensity
}
