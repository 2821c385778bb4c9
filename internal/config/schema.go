package config

// requiredSections are the top-level sections every document must contain.
var requiredSections = []string{
	"info", "file_io", "data_cleaning", "time",
	"baseflow", "discharge", "recession", "waterbalance",
}

// decodeConfig maps the document tree onto Config. Keys inside an analysis
// stage are required only when the stage's activate flag is true; values
// that are present are always checked.
func decodeConfig(root *section) *Config {
	cfg := &Config{}

	decodeInfo(root.child("info", true), &cfg.Info)
	decodeFileIO(root.child("file_io", true), &cfg.FileIO)
	decodeDataCleaning(root.child("data_cleaning", true), &cfg.DataCleaning)
	decodeTime(root.child("time", true), &cfg.Time)
	decodeBaseflow(root.child("baseflow", true), &cfg.Baseflow)
	decodeDischarge(root.child("discharge", true), &cfg.Discharge)
	decodeRecession(root.child("recession", true), &cfg.Recession)
	decodeWaterbalance(root.child("waterbalance", true), &cfg.Waterbalance)

	root.finish()
	return cfg
}

func decodeInfo(s *section, out *InfoSection) {
	out.ModelName = s.str("model_name", true)
	out.Contact = s.str("contact", false)
	s.finish()
}

func decodeFileIO(s *section, out *FileIOSection) {
	in := s.child("input", s.present())
	out.Input.DataDir = in.str("data_dir", true)

	gauges := in.child("gauges", in.present())
	out.Input.Gauges.GaugeTimeSeries = gauges.str("gauge_time_series", true)
	out.Input.Gauges.GaugeMeta = gauges.str("gauge_meta", true)
	gauges.finish()

	hydro := in.child("hydrogeology", false)
	out.Input.Hydrogeology.GWLevels = hydro.str("gw_levels", false)
	hydro.finish()

	// Geospatial files are only needed by some stages; validate enforces them.
	geo := in.child("geospatial", false)
	out.Input.Geospatial.RiverNetwork = geo.str("river_network", false)
	out.Input.Geospatial.GaugeBasins = geo.str("gauge_basins", false)
	out.Input.Geospatial.BranchesTopology = geo.str("branches_topology", false)
	geo.finish()
	in.finish()

	output := s.child("output", s.present())
	out.Output.OutputDirectory = output.str("output_directory", true)
	out.Output.PlotResults = output.boolean("plot_results", false)
	output.finish()

	s.finish()
}

func decodeDataCleaning(s *section, out *DataCleaningSection) {
	out.DropNAAxis = s.intChoice("drop_na_axis", true, []int{0, 1})
	out.ValidDatapairsOnly = s.boolean("valid_datapairs_only", true)
	out.TestMode = s.boolean("test_mode", false)
	s.finish()
}

func decodeTime(s *section, out *TimeSection) {
	out.ComputeEachDecade = s.boolean("compute_each_decade", true)
	out.StartDate = s.date("start_date", true)
	out.EndDate = s.date("end_date", true)
	s.finish()
}

func decodeBaseflow(s *section, out *BaseflowSection) {
	out.Activate = s.boolean("activate", true)
	active := out.Activate
	for _, m := range s.enumList("methods", active, literals(BaseflowMethods)) {
		out.Methods = append(out.Methods, BaseflowMethod(m))
	}
	out.ComputeBaseflowIndex = s.boolean("compute_baseflow_index", active)
	out.CalculateMonthly = s.boolean("calculate_monthly", active)
	out.UpdateMetadata = s.boolean("update_metadata", false)
	s.finish()
}

func decodeDischarge(s *section, out *DischargeSection) {
	out.Activate = s.boolean("activate", true)
	out.ColName = s.str("col_name", out.Activate)
	out.ComputeMonthly = s.boolean("compute_monthly", out.Activate)
	s.finish()
}

func decodeRecession(s *section, out *RecessionSection) {
	out.Activate = s.boolean("activate", true)
	active := out.Activate

	cd := s.child("curve_data", active)
	out.CurveData.FlowType = FlowType(cd.enum("flow_type", active, literals(FlowTypes)))
	out.CurveData.CurveType = CurveType(cd.enum("curve_type", active, literals(CurveTypes)))
	out.CurveData.MinimumLimbs = cd.integer("minimum_limbs", active, atLeastOne)
	out.CurveData.SplitAtInflection = cd.boolean("split_at_inflection", active)
	out.CurveData.MovingAverageFilterSteps = cd.integer("moving_average_filter_steps", active, nonNegative)
	cd.finish()

	fit := s.child("fitting", active)
	out.Fitting.MastercurveAlgorithm = MastercurveAlgorithm(fit.enum("mastercurve_algorithm", false, literals(MastercurveAlgorithms)))
	out.Fitting.RecessionAlgorithm = RecessionAlgorithm(fit.enum("recession_algorithm", active, literals(RecessionAlgorithms)))
	out.Fitting.MinimumLimbs = fit.integer("minimum_limbs", active, atLeastOne)
	out.Fitting.MaximumReservoirs = fit.integer("maximum_reservoirs", active, atLeastOne)
	out.Fitting.MinimumRecessionCurveLength = fit.integer("minimum_recession_curve_length", active, atLeastOne)
	fit.finish()

	hpe := s.child("hydrogeo_parameter_estimation", false)
	out.HydrogeoParameterEstimation.Activate = hpe.boolean("activate", hpe.present())
	hpeActive := out.HydrogeoParameterEstimation.Activate
	out.HydrogeoParameterEstimation.RorabaughSimplification = hpe.boolean("rorabaugh_simplification", hpeActive)
	hpe.finish()

	s.finish()
}

func decodeWaterbalance(s *section, out *WaterbalanceSection) {
	out.Activate = s.boolean("activate", true)
	active := out.Activate
	out.FlowType = FlowType(s.enum("flow_type", active, literals(FlowTypes)))
	out.ConfidenceAcceptanceLevel = s.float("confidence_acceptance_level", active, openUnit)
	out.TimeSeriesAnalysisOption = TimeSeriesOption(s.enum("time_series_analysis_option", active, literals(TimeSeriesOptions)))
	out.BasinIDCol = s.str("basin_id_col", active)
	decodeBayesianUpdating(s.child("bayesian_updating", false), &out.BayesianUpdating)
	s.finish()
}

func decodeBayesianUpdating(s *section, out *BayesianUpdating) {
	out.Activate = s.boolean("activate", s.present())
	active := out.Activate
	out.ScalingFactor = s.float("scaling_factor", active, positive)

	rdu := s.child("river_discharge_uncertainty", active)
	out.RiverDischargeUncertainty.MeasurementUncertainty = rdu.float("measurement_uncertainty", active, closedUnit)
	out.RiverDischargeUncertainty.RatingCurveUncertainty = rdu.float("rating_curve_uncertainty", active, closedUnit)
	out.RiverDischargeUncertainty.NumberOfDatapoints = rdu.integer("number_of_datapoints", active, atLeastOne)
	rdu.finish()

	bp := s.child("bayesian_parameters", active)
	prior := bp.child("prior_gaussian_parameters", active)
	out.BayesianParameters.PriorGaussianParameters.Mean = prior.float("mean", active, anyNumber)
	out.BayesianParameters.PriorGaussianParameters.StandardDeviation = prior.float("standard_deviation", active, positive)
	prior.finish()

	mc := bp.child("monte_carlo_parameters", active)
	mcp := &out.BayesianParameters.MonteCarloParameters
	mcp.TargetAccept = mc.float("target_accept", active, openUnit)
	mcp.NumberOfTunes = mc.integer("number_of_tunes", active, nonNegative)
	mcp.NumberOfSamples = mc.integer("number_of_samples", active, atLeastOne)
	mcp.NumberOfCores = mc.integer("number_of_cores", active, atLeastOne)
	mc.finish()
	bp.finish()

	s.finish()
}
