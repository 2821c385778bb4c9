package config

import (
	"path/filepath"
	"strconv"
)

// Stage is one analysis step of the workflow.
type Stage string

// Stages in the order the workflow runs them.
const (
	StageDischarge    Stage = "discharge"
	StageBaseflow     Stage = "baseflow"
	StageRecession    Stage = "recession"
	StageHydrogeology Stage = "hydrogeology"
	StageWaterbalance Stage = "waterbalance"
	StageBayesian     Stage = "bayesian_updating"
)

// ActiveStages lists the enabled stages in run order.
func (c *Config) ActiveStages() []Stage {
	var stages []Stage
	if c.Discharge.Activate {
		stages = append(stages, StageDischarge)
	}
	if c.Baseflow.Activate {
		stages = append(stages, StageBaseflow)
	}
	if c.Recession.Activate {
		stages = append(stages, StageRecession)
		if c.Recession.HydrogeoParameterEstimation.Activate {
			stages = append(stages, StageHydrogeology)
		}
	}
	if c.Waterbalance.Activate {
		stages = append(stages, StageWaterbalance)
		if c.Waterbalance.BayesianUpdating.Activate {
			stages = append(stages, StageBayesian)
		}
	}
	return stages
}

// Decades returns the decade labels covered by the analysis period. A decade
// is labelled by its middle year, so 1990-1999 is "1995".
func (c *Config) Decades() []string {
	start, end := c.Time.StartDate, c.Time.EndDate
	if start.IsZero() || end.IsZero() || start.After(end) {
		return nil
	}
	var labels []string
	for decade := start.Time().Year() / 10 * 10; decade <= end.Time().Year(); decade += 10 {
		labels = append(labels, strconv.Itoa(decade+5))
	}
	return labels
}

// resolve joins p onto base unless p is already absolute.
func resolve(base, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// DataPath is the input data directory relative to base.
func (c *Config) DataPath(base string) string {
	return resolve(base, c.FileIO.Input.DataDir)
}

// OutputPath is the output directory relative to base.
func (c *Config) OutputPath(base string) string {
	return resolve(base, c.FileIO.Output.OutputDirectory)
}

// GaugeTimeSeriesPath is the gauge time series file inside the data directory.
func (c *Config) GaugeTimeSeriesPath(base string) string {
	return resolve(c.DataPath(base), c.FileIO.Input.Gauges.GaugeTimeSeries)
}

// GaugeMetaPath is the gauge metadata file inside the data directory.
func (c *Config) GaugeMetaPath(base string) string {
	return resolve(c.DataPath(base), c.FileIO.Input.Gauges.GaugeMeta)
}

// GWLevelsPath is the groundwater level raster, or "" when not configured.
func (c *Config) GWLevelsPath(base string) string {
	return resolve(c.DataPath(base), c.FileIO.Input.Hydrogeology.GWLevels)
}

// GeospatialPaths returns the configured geospatial inputs keyed by their document key.
func (c *Config) GeospatialPaths(base string) map[string]string {
	data := c.DataPath(base)
	geo := c.FileIO.Input.Geospatial
	out := make(map[string]string, 3)
	for key, p := range map[string]string{
		"river_network":     geo.RiverNetwork,
		"gauge_basins":      geo.GaugeBasins,
		"branches_topology": geo.BranchesTopology,
	} {
		if p != "" {
			out[key] = resolve(data, p)
		}
	}
	return out
}
