/*
Package impact provides utilities for calculating the energy and carbon impact of running a piece of code
on a reference server.
*/
package impact

import (
	"errors"
	"fmt"
	"math"

	"github.com/omegabytes/ecocode-sentinel/server"
)

// ErrInvalidArgument is returned when an estimate is requested for negative or non-finite inputs.
var ErrInvalidArgument = errors.New("invalid argument")

// Estimate is the monthly energy and carbon impact of a piece of code.
type Estimate struct {
	EnergyKWH float64 `json:"energy_kwh"`
	CO2Kg     float64 `json:"co2_kg"`
}

// Calculator converts execution time and invocation counts into impact estimates for a server profile.
// The zero value is not usable; use NewCalculator.
type Calculator struct {
	profile server.Profile
}

// NewCalculator returns a calculator for the given server profile.
func NewCalculator(profile server.Profile) Calculator {
	return Calculator{profile: profile}
}

// Profile returns the server profile the calculator was built with.
func (c Calculator) Profile() server.Profile {
	return c.profile
}

// Estimate computes the monthly energy (kWh) and carbon (kg CO2) impact of code that takes
// executionTimeMs milliseconds per run and runs monthlyExecutions times per month.
//
//	energy_kwh = power_watts * (execution_time_ms / 1000) * monthly_executions / 1000
//	co2_kg     = energy_kwh * co2_per_kwh
func (c Calculator) Estimate(executionTimeMs float64, monthlyExecutions int64) (Estimate, error) {
	if executionTimeMs < 0 || math.IsNaN(executionTimeMs) || math.IsInf(executionTimeMs, 0) {
		return Estimate{}, fmt.Errorf("%w: execution time must be a non-negative number, got %v",
			ErrInvalidArgument, executionTimeMs)
	}
	if monthlyExecutions < 0 {
		return Estimate{}, fmt.Errorf("%w: monthly executions must be non-negative, got %d",
			ErrInvalidArgument, monthlyExecutions)
	}

	energyKWH := c.profile.PowerWatts * (executionTimeMs / 1000) * float64(monthlyExecutions) / 1000
	return Estimate{
		EnergyKWH: energyKWH,
		CO2Kg:     c.CO2ForEnergy(energyKWH),
	}, nil
}

// CO2ForEnergy converts an amount of energy in kWh into kg CO2 using the profile's emission factor.
func (c Calculator) CO2ForEnergy(energyKWH float64) float64 {
	return energyKWH * c.profile.CO2PerKWH
}

// EstimateImpact computes an estimate against the generic server profile.
func EstimateImpact(executionTimeMs float64, monthlyExecutions int64) (Estimate, error) {
	return NewCalculator(server.GenericProfile()).Estimate(executionTimeMs, monthlyExecutions)
}
