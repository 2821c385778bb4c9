package config

import "strings"

// crossCheck runs the checks that span several fields or sections. Each check
// only fires when the values it compares were present, so a missing field is
// reported once by the decoder and not again here.
func crossCheck(d *decoder, cfg *Config) {
	checks := []func(*decoder, *Config){
		checkDateOrder,
		checkBaseflowMethods,
		checkBaseflowDependency,
		checkMastercurve,
		checkHydrogeoInputs,
		checkGeospatialInputs,
	}
	for _, check := range checks {
		check(d, cfg)
	}
}

func checkDateOrder(d *decoder, cfg *Config) {
	start, end := cfg.Time.StartDate, cfg.Time.EndDate
	if start.IsZero() || end.IsZero() {
		return
	}
	if start.After(end) {
		d.add(KindDateOrderViolation, "time.start_date", d.line("time.start_date"),
			"start_date %s is after end_date %s", start, end)
	}
}

func checkBaseflowMethods(d *decoder, cfg *Config) {
	if !cfg.Baseflow.Activate || !d.has("baseflow.methods") {
		return
	}
	if len(cfg.Baseflow.Methods) == 0 && !hasIssueUnder(d, "baseflow.methods") {
		d.add(KindInconsistent, "baseflow.methods", d.line("baseflow.methods"),
			"at least one method is required when baseflow is activated")
	}
}

// checkBaseflowDependency rejects stages that consume baseflow series while
// baseflow separation is switched off.
func checkBaseflowDependency(d *decoder, cfg *Config) {
	if cfg.Baseflow.Activate || !d.has("baseflow.activate") || hasIssueAt(d, "baseflow.activate") {
		return
	}
	if cfg.Recession.Activate && cfg.Recession.CurveData.FlowType == FlowBaseflow {
		d.add(KindInconsistent, "recession.curve_data.flow_type", d.line("recession.curve_data.flow_type"),
			"flow_type %q requires baseflow.activate to be true", FlowBaseflow)
	}
	if cfg.Waterbalance.Activate && cfg.Waterbalance.FlowType == FlowBaseflow {
		d.add(KindInconsistent, "waterbalance.flow_type", d.line("waterbalance.flow_type"),
			"flow_type %q requires baseflow.activate to be true", FlowBaseflow)
	}
}

func checkMastercurve(d *decoder, cfg *Config) {
	rec := cfg.Recession
	if !rec.Activate || !d.has("recession.fitting") {
		return
	}
	const path = "recession.fitting.mastercurve_algorithm"
	switch rec.CurveData.CurveType {
	case CurveHydrograph:
		if rec.Fitting.MastercurveAlgorithm == "" && !d.has(path) {
			d.add(KindMissingField, path, d.line("recession.fitting"),
				"required when curve_type is %q", CurveHydrograph)
		}
	case CurveWaterbalance:
		if rec.Fitting.MastercurveAlgorithm != "" {
			d.warn(KindInconsistent, path, d.line(path),
				"master recession curve is not defined for curve_type %q and is ignored", CurveWaterbalance)
		}
	}
}

func checkHydrogeoInputs(d *decoder, cfg *Config) {
	if !cfg.Recession.Activate || !cfg.Recession.HydrogeoParameterEstimation.Activate {
		return
	}
	const reason = "required when recession.hydrogeo_parameter_estimation is activated"
	requireInput(d, "file_io.input.hydrogeology.gw_levels", cfg.FileIO.Input.Hydrogeology.GWLevels, reason)
	requireInput(d, "file_io.input.geospatial.river_network", cfg.FileIO.Input.Geospatial.RiverNetwork, reason)
	if cfg.Recession.CurveData.CurveType == CurveHydrograph {
		requireInput(d, "file_io.input.geospatial.gauge_basins", cfg.FileIO.Input.Geospatial.GaugeBasins, reason)
	}
	if !cfg.Waterbalance.Activate {
		requireInput(d, "waterbalance.basin_id_col", cfg.Waterbalance.BasinIDCol, reason)
	}
}

// checkGeospatialInputs covers the water balance and recession analysis on
// water balance curves, which both build the river section network.
func checkGeospatialInputs(d *decoder, cfg *Config) {
	var reason string
	switch {
	case cfg.Waterbalance.Activate:
		reason = "required when waterbalance is activated"
	case cfg.Recession.Activate && cfg.Recession.CurveData.CurveType == CurveWaterbalance:
		reason = "required when recession curve_type is \"waterbalance\""
	default:
		return
	}
	geo := cfg.FileIO.Input.Geospatial
	requireInput(d, "file_io.input.geospatial.river_network", geo.RiverNetwork, reason)
	requireInput(d, "file_io.input.geospatial.gauge_basins", geo.GaugeBasins, reason)
	requireInput(d, "file_io.input.geospatial.branches_topology", geo.BranchesTopology, reason)
}

func requireInput(d *decoder, path, value, reason string) {
	if value != "" || hasIssueAt(d, path) {
		return
	}
	d.add(KindMissingField, path, d.line(parentPath(path)), "%s", reason)
}

func hasIssueAt(d *decoder, path string) bool {
	for _, issue := range d.issues {
		if issue.Path == path && issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func hasIssueUnder(d *decoder, path string) bool {
	for _, issue := range d.issues {
		if issue.Severity != SeverityError {
			continue
		}
		p := issue.Path
		if p == path || strings.HasPrefix(p, path+".") || strings.HasPrefix(p, path+"[") {
			return true
		}
	}
	return false
}

func parentPath(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return ""
}
