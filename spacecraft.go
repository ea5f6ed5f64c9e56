package nyx

import (
	"fmt"
	"os"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

// GuidanceMode defines an enum of guidance modes of a spacecraft.
type GuidanceMode uint8

const (
	// Coast means the thruster is off.
	Coast GuidanceMode = iota + 1
	// Thrust means the maneuver currently attached to the dynamics is executed.
	Thrust
)

func (m GuidanceMode) String() string {
	switch m {
	case Coast:
		return "coast"
	case Thrust:
		return "thrust"
	}
	panic("cannot stringify unknown guidance mode")
}

// Spacecraft defines a vehicle and its state at a given epoch.
type Spacecraft struct {
	Name     string
	DryMass  float64 // in kg
	FuelMass float64 // in kg
	Orbit    *Orbit
	DT       time.Time  // epoch of the orbit state
	Thruster EPThruster // nil means no thruster is configured
	Mode     GuidanceMode
	logger   kitlog.Logger
}

// NewSpacecraft returns a new spacecraft with the provided thruster (which may be nil).
func NewSpacecraft(name string, dryMass, fuelMass float64, o *Orbit, dt time.Time, thruster EPThruster) *Spacecraft {
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "spacecraft", name)
	return &Spacecraft{name, dryMass, fuelMass, o, dt.UTC(), thruster, Coast, klog}
}

// NewEmptySC returns a spacecraft without a thruster.
func NewEmptySC(name string, mass float64, o *Orbit, dt time.Time) *Spacecraft {
	return NewSpacecraft(name, mass, 0, o, dt, nil)
}

// Mass returns the total mass of this spacecraft, in kg.
func (s Spacecraft) Mass() float64 {
	return s.DryMass + s.FuelMass
}

// Clone returns an independent deep copy of this spacecraft. The logger is shared.
func (s Spacecraft) Clone() Spacecraft {
	c := s
	c.Orbit = s.Orbit.Clone()
	return c
}

// WithGuidanceMode returns a copy of this spacecraft in the provided guidance mode.
func (s Spacecraft) WithGuidanceMode(m GuidanceMode) Spacecraft {
	c := s.Clone()
	c.Mode = m
	return c
}

// WithΔv returns a copy of this spacecraft with the provided instantaneous Δv applied, in km/s.
func (s Spacecraft) WithΔv(Δv []float64) Spacecraft {
	c := s.Clone()
	c.Orbit.ApplyΔv(Δv)
	return c
}

// LogStatus logs the status of this spacecraft.
func (s Spacecraft) LogStatus() {
	s.logger.Log("level", "info", "subsys", "sc", "date", s.DT, "fuel(kg)", s.FuelMass, "orbit", s.Orbit)
}

func (s Spacecraft) String() string {
	return fmt.Sprintf("%s (%.1f kg) @ %s: %s", s.Name, s.Mass(), s.DT, s.Orbit)
}
