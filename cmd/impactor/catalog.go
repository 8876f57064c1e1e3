package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orbitlab/impactor"
)

// elementsFile is a catalog of bodies:
//
//	bodies:
//	  - name: Apophis
//	    radius: 0.185
//	    elements:
//	      semi_major_axis: 0.9224
//	      eccentricity: 0.1914
//	      inclination: 3.339
//	      ascending_node: 204.43
//	      argument_of_perihelion: 126.6
//	      mean_anomaly: 180.0
//
// Either mean_longitude and longitude_of_perihelion, or argument_of_perihelion
// and mean_anomaly (both at J2000) must be given. A missing period is derived from the axis.
type elementsFile struct {
	Bodies []bodyEntry `yaml:"bodies"`
}

type bodyEntry struct {
	Name     string       `yaml:"name"`
	Radius   float64      `yaml:"radius"`
	Mass     float64      `yaml:"mass"`
	Elements elementEntry `yaml:"elements"`
}

type elementEntry struct {
	SemiMajorAxis         float64  `yaml:"semi_major_axis"`
	Eccentricity          float64  `yaml:"eccentricity"`
	Period                float64  `yaml:"period"`
	MeanLongitude         *float64 `yaml:"mean_longitude"`
	LongitudeOfPerihelion *float64 `yaml:"longitude_of_perihelion"`
	ArgumentOfPerihelion  *float64 `yaml:"argument_of_perihelion"`
	MeanAnomaly           *float64 `yaml:"mean_anomaly"`
	Inclination           *float64 `yaml:"inclination"`
	AscendingNode         *float64 `yaml:"ascending_node"`
}

func (e elementEntry) toElements() (impactor.OrbitalElements, error) {
	o := impactor.OrbitalElements{
		SemiMajorAxis: e.SemiMajorAxis,
		Eccentricity:  e.Eccentricity,
		Period:        e.Period,
	}
	if o.Period == 0 {
		P, err := impactor.PeriodFromAxis(e.SemiMajorAxis)
		if err != nil {
			return impactor.OrbitalElements{}, err
		}
		o.Period = P
	}
	if (e.Inclination == nil) != (e.AscendingNode == nil) {
		return impactor.OrbitalElements{}, fmt.Errorf("inclination and ascending_node must be given together")
	}
	node := 0.0
	if e.Inclination != nil {
		node = *e.AscendingNode
		o.Orientation = &impactor.Orientation{Inclination: *e.Inclination, AscendingNode: node}
	}
	switch {
	case e.MeanLongitude != nil && e.LongitudeOfPerihelion != nil:
		o.MeanLongitude, o.LongitudeOfPerihelion = *e.MeanLongitude, *e.LongitudeOfPerihelion
	case e.ArgumentOfPerihelion != nil && e.MeanAnomaly != nil:
		o.LongitudeOfPerihelion = *e.ArgumentOfPerihelion + node
		o.MeanLongitude = *e.MeanAnomaly + o.LongitudeOfPerihelion
	default:
		return impactor.OrbitalElements{}, fmt.Errorf("need mean_longitude and longitude_of_perihelion, or argument_of_perihelion and mean_anomaly")
	}
	return o, o.Validate()
}

// readCatalog decodes a body catalog.
func readCatalog(r io.Reader) ([]impactor.Body, error) {
	var f elementsFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Bodies) == 0 {
		return nil, fmt.Errorf("catalog has no bodies")
	}
	bodies := make([]impactor.Body, len(f.Bodies))
	for i, b := range f.Bodies {
		if b.Name == "" {
			return nil, fmt.Errorf("body #%d has no name", i)
		}
		o, err := b.Elements.toElements()
		if err != nil {
			return nil, fmt.Errorf("body %s: %w", b.Name, err)
		}
		bodies[i] = impactor.Body{Name: b.Name, Radius: b.Radius, Mass: b.Mass, Elements: o}
	}
	return bodies, nil
}

func loadCatalog(path string) ([]impactor.Body, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCatalog(f)
}

// sweepFile describes an impact grid. Omitted densities or angles use the defaults.
//
//	diameters: [0.01, 0.1, 1]
//	velocities: [12, 20, 30]
//	densities: [1500, 3000]
//	angles: [30, 45, 90]
type sweepFile struct {
	Diameters  []float64               `yaml:"diameters"`
	Velocities []float64               `yaml:"velocities"`
	Densities  []float64               `yaml:"densities"`
	Angles     []float64               `yaml:"angles"`
	Impactors  []impactor.ImpactorSpec `yaml:"impactors"`
}

func readSweep(r io.Reader) (sweepFile, error) {
	var s sweepFile
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return sweepFile{}, fmt.Errorf("decode sweep: %w", err)
	}
	if len(s.Impactors) == 0 && (len(s.Diameters) == 0 || len(s.Velocities) == 0) {
		return sweepFile{}, fmt.Errorf("sweep needs diameters and velocities, or a list of impactors")
	}
	return s, nil
}

func loadSweep(path string) (sweepFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return sweepFile{}, err
	}
	defer f.Close()
	return readSweep(f)
}
