// Package batchfile loads reading batches from YAML (or JSON) files and
// watches them for edits.
package batchfile

import (
	"bytes"
	"fmt"
	"os"

	exchanger "HeatX/internal/calc/exchanger"

	"gopkg.in/yaml.v3"
)

// Document mirrors the batch file layout. JSON files parse through the same
// decoder since JSON is valid YAML.
type Document struct {
	SurfaceAreaM2 float64   `yaml:"surface_area_m2"`
	SpecificHeat  float64   `yaml:"specific_heat"`
	Policy        string    `yaml:"duty_policy"`
	Readings      []Reading `yaml:"readings"`
}

type Reading struct {
	MassFlow       float64 `yaml:"m"`
	HotMassFlow    float64 `yaml:"m_hot"`
	ColdMassFlow   float64 `yaml:"m_cold"`
	HotInletTemp   float64 `yaml:"th_in"`
	HotOutletTemp  float64 `yaml:"th_out"`
	ColdInletTemp  float64 `yaml:"tc_in"`
	ColdOutletTemp float64 `yaml:"tc_out"`
}

// Load reads the batch at path. Values the file omits stay zero and are
// filled from engine defaults at calculation time.
func Load(path string) (exchanger.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return exchanger.Input{}, fmt.Errorf("batchfile: read %q: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (exchanger.Input, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return exchanger.Input{}, fmt.Errorf("batchfile: parse: %w", err)
	}
	return doc.Input(), nil
}

func (d Document) Input() exchanger.Input {
	in := exchanger.Input{
		Readings: make([]exchanger.Reading, len(d.Readings)),
		Config: exchanger.Config{
			SurfaceAreaM2: d.SurfaceAreaM2,
			SpecificHeat:  d.SpecificHeat,
			Policy:        exchanger.DutyPolicy(d.Policy),
		},
	}
	for i, r := range d.Readings {
		in.Readings[i] = exchanger.Reading(r)
	}
	return in
}
