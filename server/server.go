package server

import (
	"fmt"
	"math"
)

// Profile represents the reference server a piece of code is assumed to run on.
// Every energy figure reported by the tool is derived from its power draw, and every
// emissions figure from the carbon intensity of the electricity feeding it.
type Profile struct {
	// PowerWatts is the average power draw of the server in W.
	PowerWatts float64
	// CO2PerKWH is the emission factor of the electricity mix in kg CO2 / kWh.
	CO2PerKWH float64
}

// GenericProfile returns a server with default values for power draw and emission factor.
func GenericProfile() Profile {
	const (
		avgServerPowerWatts = 500
		co2PerKWH           = 0.475
	)

	return Profile{
		PowerWatts: avgServerPowerWatts,
		CO2PerKWH:  co2PerKWH,
	}
}

// NewProfile returns a server profile overriding the generic constants.
func NewProfile(powerWatts, co2PerKWH float64) (Profile, error) {
	p := Profile{PowerWatts: powerWatts, CO2PerKWH: co2PerKWH}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate reports whether both constants are finite and greater than 0.
func (p Profile) Validate() error {
	if p.PowerWatts <= 0 || math.IsInf(p.PowerWatts, 0) || math.IsNaN(p.PowerWatts) {
		return fmt.Errorf("server power must be greater than 0, got %v", p.PowerWatts)
	}
	if p.CO2PerKWH <= 0 || math.IsInf(p.CO2PerKWH, 0) || math.IsNaN(p.CO2PerKWH) {
		return fmt.Errorf("co2 per kWh must be greater than 0, got %v", p.CO2PerKWH)
	}
	return nil
}
