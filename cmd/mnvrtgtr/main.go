package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gregjesl/nyx"
)

// NOTE: This tool corrects a velocity at periapsis such that the orbit half a
// period later matches the desired shape, then converts the total correction
// into an equivalent finite burn.

/* === CONFIG === */
var (
	epoch      = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	initOrbit  = []float64{8000, 0.05, 28.5, 40, 60, 0} // a, e, i, Ω, ω, ν
	desiredSMA = 8200.0
	desiredEcc = 0.02
	fuel       = 50.0
	dryMass    = 450.0
)

/* ===  END  === */

var verbose bool

func init() {
	flag.BoolVar(&verbose, "v", false, "log each spacecraft status")
}

func main() {
	flag.Parse()
	orbit := nyx.NewOrbitFromOE(initOrbit[0], initOrbit[1], initOrbit[2], initOrbit[3], initOrbit[4], initOrbit[5], nyx.Earth)
	sc := nyx.NewSpacecraft("mnvrtgtr", dryMass, fuel, orbit, epoch, nyx.NewGenericEP(5, 5000))
	if verbose {
		sc.LogStatus()
	}

	prop := nyx.NewTwoBody(nyx.Perturbations{Jn: 2})
	achievementEpoch := epoch.Add(time.Duration(orbit.Period()/2) * time.Second)
	tgt := nyx.NewTargeter(prop,
		[]nyx.Variable{
			nyx.NewVariable(nyx.VelocityX),
			nyx.NewVariable(nyx.VelocityY),
			nyx.NewVariable(nyx.VelocityZ),
		},
		[]nyx.Objective{
			nyx.NewObjective(nyx.SMA, desiredSMA),
			{Parameter: nyx.Eccentricity, Desired: desiredEcc, Tolerance: 1e-5},
		})

	sol, err := tgt.TryAchieve(*sc, achievementEpoch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "targeting failed: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("achieved at %s (JD %f)\n%s", achievementEpoch, nyx.JulianDate(achievementEpoch), sol)

	// Convert the correction into a finite burn.
	mnvr, err := nyx.ConvertImpulsiveMnvr(*sc, sol.Correction, prop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "conversion failed: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", mnvr)
	if verbose {
		sol.AchievedState.LogStatus()
	}
}
