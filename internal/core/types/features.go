package types

import "math"

// NumFeatures is the arity the scaler and classifier were fitted on.
const NumFeatures = 10

// FeatureVector holds one observation in the exact column order used at fit time.
// Fields must not be reordered: Values relies on declaration order.
type FeatureVector struct {
	OrbitalPeriod         float64 // koi_period, days
	TransitDuration       float64 // koi_duration, hours
	TransitDepth          float64 // koi_depth, ppm
	ImpactParameter       float64 // koi_impact
	PlanetRadius          float64 // koi_prad, Earth radii
	SignalToNoise         float64 // koi_model_snr
	StellarTemperature    float64 // koi_steff, Kelvin
	StellarSurfaceGravity float64 // koi_slogg, log10(cm/s^2)
	StellarRadius         float64 // koi_srad, solar radii
	KeplerMagnitude       float64 // koi_kepmag
}

func (v FeatureVector) Values() [NumFeatures]float64 {
	return [NumFeatures]float64{
		v.OrbitalPeriod,
		v.TransitDuration,
		v.TransitDepth,
		v.ImpactParameter,
		v.PlanetRadius,
		v.SignalToNoise,
		v.StellarTemperature,
		v.StellarSurfaceGravity,
		v.StellarRadius,
		v.KeplerMagnitude,
	}
}

func (v FeatureVector) Slice() []float64 {
	values := v.Values()
	return values[:]
}

func FeatureVectorFromValues(values [NumFeatures]float64) FeatureVector {
	return FeatureVector{
		OrbitalPeriod:         values[0],
		TransitDuration:       values[1],
		TransitDepth:          values[2],
		ImpactParameter:       values[3],
		PlanetRadius:          values[4],
		SignalToNoise:         values[5],
		StellarTemperature:    values[6],
		StellarSurfaceGravity: values[7],
		StellarRadius:         values[8],
		KeplerMagnitude:       values[9],
	}
}

// PartialVector is the boundary form of a FeatureVector where any field may be absent.
// A NaN value counts as absent.
type PartialVector [NumFeatures]*float64

// Complete returns the FeatureVector if every field is present and finite. Missing fields
// yield an *IncompleteInputError and infinite ones an *InvalidInputError, both listing
// feature names in fitted order.
func (p PartialVector) Complete() (FeatureVector, error) {
	var values [NumFeatures]float64
	var missing []string
	for i, value := range p {
		if value == nil || math.IsNaN(*value) {
			missing = append(missing, FeatureSpecs[i].Name)
			continue
		}
		values[i] = *value
	}
	if len(missing) > 0 {
		return FeatureVector{}, &IncompleteInputError{Missing: missing}
	}
	v := FeatureVectorFromValues(values)
	if err := v.Validate(); err != nil {
		return FeatureVector{}, err
	}
	return v, nil
}

// Validate rejects NaN and infinite values, which no fitted scaler accepts.
func (v FeatureVector) Validate() error {
	var invalid []string
	for i, value := range v.Values() {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			invalid = append(invalid, FeatureSpecs[i].Name)
		}
	}
	if len(invalid) > 0 {
		return &InvalidInputError{Invalid: invalid}
	}
	return nil
}

func PartialFromVector(v FeatureVector) PartialVector {
	var p PartialVector
	for i, value := range v.Values() {
		value := value
		p[i] = &value
	}
	return p
}

// FeatureSpec describes one input field as presented to a human.
type FeatureSpec struct {
	Name    string
	Label   string
	Unit    string
	Help    string
	Default float64
}

var FeatureSpecs = [NumFeatures]FeatureSpec{
	{
		Name:  "koi_period",
		Label: "Orbital Period of the Exoplanet (koi_period in days)",
		Unit:  "days",
		Help:  "The time taken for the planet to complete one orbit around its star.",
	},
	{
		Name:  "koi_duration",
		Label: "Transit Duration (koi_duration in hours)",
		Unit:  "hours",
		Help:  "Duration of the planet's transit across the star (hours).",
	},
	{
		Name:  "koi_depth",
		Label: "Transit Depth (koi_depth in ppm)",
		Unit:  "ppm",
		Help:  "The depth of the transit as a percentage of the star's brightness.",
	},
	{
		Name:  "koi_impact",
		Label: "Impact Parameter (koi_impact)",
		Unit:  "",
		Help:  "Measure of how central the planet's transit is across the star (0 = central).",
	},
	{
		Name:  "koi_prad",
		Label: "Planet Radius (koi_prad in Earth radii)",
		Unit:  "Earth radii",
		Help:  "The radius of the planet in Earth radii.",
	},
	{
		Name:  "koi_model_snr",
		Label: "Signal-to-Noise Ratio (koi_model_snr)",
		Unit:  "",
		Help:  "The ratio of the transit signal to the noise in the data.",
	},
	{
		Name:  "koi_steff",
		Label: "Stellar Effective Temperature (koi_steff in Kelvin)",
		Unit:  "K",
		Help:  "The effective temperature of the star in Kelvin.",
	},
	{
		Name:  "koi_slogg",
		Label: "Stellar Surface Gravity (koi_slogg in cgs)",
		Unit:  "log10(cm/s^2)",
		Help:  "The logarithm of the star's surface gravity (cgs units).",
	},
	{
		Name:  "koi_srad",
		Label: "Stellar Radius (koi_srad in solar radii)",
		Unit:  "solar radii",
		Help:  "The radius of the star in solar radii.",
	},
	{
		Name:  "koi_kepmag",
		Label: "Kepler Magnitude (koi_kepmag)",
		Unit:  "",
		Help:  "The brightness of the star as seen by the Kepler telescope.",
	},
}

func FeatureNames() []string {
	names := make([]string, NumFeatures)
	for i, spec := range FeatureSpecs {
		names[i] = spec.Name
	}
	return names
}

// FeatureIndex returns the fitted position of a feature name, or -1.
func FeatureIndex(name string) int {
	for i, spec := range FeatureSpecs {
		if spec.Name == name {
			return i
		}
	}
	return -1
}
