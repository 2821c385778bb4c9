// Package config loads and validates the configuration document of the sbat
// analysis workflow.
//
// A Config is produced only by Load (or Loader.Check) and is read-only
// afterwards: the analysis stages that consume it share one instance and
// must not modify it.
package config

import (
	"time"
)

// Config is the fully validated configuration document.
type Config struct {
	Info         InfoSection         `yaml:"info" json:"info"`
	FileIO       FileIOSection       `yaml:"file_io" json:"file_io"`
	DataCleaning DataCleaningSection `yaml:"data_cleaning" json:"data_cleaning"`
	Time         TimeSection         `yaml:"time" json:"time"`
	Baseflow     BaseflowSection     `yaml:"baseflow" json:"baseflow"`
	Discharge    DischargeSection    `yaml:"discharge" json:"discharge"`
	Recession    RecessionSection    `yaml:"recession" json:"recession"`
	Waterbalance WaterbalanceSection `yaml:"waterbalance" json:"waterbalance"`
}

// InfoSection identifies the model run.
type InfoSection struct {
	ModelName string `yaml:"model_name" json:"model_name"`
	Contact   string `yaml:"contact" json:"contact"`
}

// FileIOSection names the input data and where results go.
type FileIOSection struct {
	Input  InputFiles  `yaml:"input" json:"input"`
	Output OutputFiles `yaml:"output" json:"output"`
}

// InputFiles are relative to DataDir unless absolute.
type InputFiles struct {
	DataDir      string           `yaml:"data_dir" json:"data_dir"`
	Gauges       GaugeFiles       `yaml:"gauges" json:"gauges"`
	Hydrogeology HydrogeologyFile `yaml:"hydrogeology" json:"hydrogeology"`
	Geospatial   GeospatialFiles  `yaml:"geospatial" json:"geospatial"`
}

// GaugeFiles holds the gauge time series (one column per gauge) and metadata tables.
type GaugeFiles struct {
	GaugeTimeSeries string `yaml:"gauge_time_series" json:"gauge_time_series"`
	GaugeMeta       string `yaml:"gauge_meta" json:"gauge_meta"`
}

// HydrogeologyFile is optional; it is only read when hydrogeological
// parameters are estimated.
type HydrogeologyFile struct {
	GWLevels string `yaml:"gw_levels,omitempty" json:"gw_levels,omitempty"`
}

// GeospatialFiles describe the river network used by the water balance.
type GeospatialFiles struct {
	RiverNetwork     string `yaml:"river_network" json:"river_network"`
	GaugeBasins      string `yaml:"gauge_basins" json:"gauge_basins"`
	BranchesTopology string `yaml:"branches_topology" json:"branches_topology"`
}

// OutputFiles controls result placement.
type OutputFiles struct {
	OutputDirectory string `yaml:"output_directory" json:"output_directory"`
	PlotResults     bool   `yaml:"plot_results" json:"plot_results"`
}

// DataCleaningSection controls NaN handling before any analysis.
type DataCleaningSection struct {
	// DropNAAxis is nil when no NaN values are removed, 0 to drop time steps
	// and 1 to drop gauges containing a NaN.
	DropNAAxis         *int `yaml:"drop_na_axis" json:"drop_na_axis"`
	ValidDatapairsOnly bool `yaml:"valid_datapairs_only" json:"valid_datapairs_only"`
	// TestMode restricts the analysis to the first three gauges.
	TestMode bool `yaml:"test_mode" json:"test_mode"`
}

// TimeSection bounds the analysed period.
type TimeSection struct {
	ComputeEachDecade bool `yaml:"compute_each_decade" json:"compute_each_decade"`
	StartDate         Date `yaml:"start_date" json:"start_date"`
	EndDate           Date `yaml:"end_date" json:"end_date"`
}

// BaseflowSection configures baseflow separation.
type BaseflowSection struct {
	Activate             bool             `yaml:"activate" json:"activate"`
	Methods              []BaseflowMethod `yaml:"methods" json:"methods"`
	ComputeBaseflowIndex bool             `yaml:"compute_baseflow_index" json:"compute_baseflow_index"`
	CalculateMonthly     bool             `yaml:"calculate_monthly" json:"calculate_monthly"`
	UpdateMetadata       bool             `yaml:"update_metadata" json:"update_metadata"`
}

// DischargeSection configures discharge statistics.
type DischargeSection struct {
	Activate       bool   `yaml:"activate" json:"activate"`
	ColName        string `yaml:"col_name" json:"col_name"`
	ComputeMonthly bool   `yaml:"compute_monthly" json:"compute_monthly"`
}

// RecessionSection configures recession curve analysis.
type RecessionSection struct {
	Activate                    bool                        `yaml:"activate" json:"activate"`
	CurveData                   CurveData                   `yaml:"curve_data" json:"curve_data"`
	Fitting                     Fitting                     `yaml:"fitting" json:"fitting"`
	HydrogeoParameterEstimation HydrogeoParameterEstimation `yaml:"hydrogeo_parameter_estimation" json:"hydrogeo_parameter_estimation"`
}

// CurveData selects and pre-processes the series that recession limbs are cut from.
// Fields whose zero value is never valid are omitted when unset, so an
// inactive stage encodes to a document that loads again.
type CurveData struct {
	FlowType                 FlowType  `yaml:"flow_type,omitempty" json:"flow_type,omitempty"`
	CurveType                CurveType `yaml:"curve_type,omitempty" json:"curve_type,omitempty"`
	MinimumLimbs             int       `yaml:"minimum_limbs,omitempty" json:"minimum_limbs,omitempty"`
	SplitAtInflection        bool      `yaml:"split_at_inflection" json:"split_at_inflection"`
	MovingAverageFilterSteps int       `yaml:"moving_average_filter_steps" json:"moving_average_filter_steps"`
}

// Fitting configures master recession curve and reservoir model fitting.
type Fitting struct {
	// MastercurveAlgorithm is empty when no master curve is built.
	MastercurveAlgorithm        MastercurveAlgorithm `yaml:"mastercurve_algorithm,omitempty" json:"mastercurve_algorithm,omitempty"`
	RecessionAlgorithm          RecessionAlgorithm   `yaml:"recession_algorithm,omitempty" json:"recession_algorithm,omitempty"`
	MinimumLimbs                int                  `yaml:"minimum_limbs,omitempty" json:"minimum_limbs,omitempty"`
	MaximumReservoirs           int                  `yaml:"maximum_reservoirs,omitempty" json:"maximum_reservoirs,omitempty"`
	MinimumRecessionCurveLength int                  `yaml:"minimum_recession_curve_length,omitempty" json:"minimum_recession_curve_length,omitempty"`
}

// HydrogeoParameterEstimation derives aquifer parameters from fitted recessions.
type HydrogeoParameterEstimation struct {
	Activate                bool `yaml:"activate" json:"activate"`
	RorabaughSimplification bool `yaml:"rorabaugh_simplification" json:"rorabaugh_simplification"`
}

// WaterbalanceSection configures the section water balance.
type WaterbalanceSection struct {
	Activate                  bool             `yaml:"activate" json:"activate"`
	FlowType                  FlowType         `yaml:"flow_type,omitempty" json:"flow_type,omitempty"`
	ConfidenceAcceptanceLevel float64          `yaml:"confidence_acceptance_level,omitempty" json:"confidence_acceptance_level,omitempty"`
	TimeSeriesAnalysisOption  TimeSeriesOption `yaml:"time_series_analysis_option,omitempty" json:"time_series_analysis_option,omitempty"`
	BasinIDCol                string           `yaml:"basin_id_col" json:"basin_id_col"`
	BayesianUpdating          BayesianUpdating `yaml:"bayesian_updating" json:"bayesian_updating"`
}

// BayesianUpdating configures the Monte Carlo update of groundwater exchange.
type BayesianUpdating struct {
	Activate                  bool                      `yaml:"activate" json:"activate"`
	ScalingFactor             float64                   `yaml:"scaling_factor,omitempty" json:"scaling_factor,omitempty"`
	RiverDischargeUncertainty RiverDischargeUncertainty `yaml:"river_discharge_uncertainty" json:"river_discharge_uncertainty"`
	BayesianParameters        BayesianParameters        `yaml:"bayesian_parameters" json:"bayesian_parameters"`
}

// RiverDischargeUncertainty values are fractions of the measured discharge.
type RiverDischargeUncertainty struct {
	MeasurementUncertainty float64 `yaml:"measurement_uncertainty" json:"measurement_uncertainty"`
	RatingCurveUncertainty float64 `yaml:"rating_curve_uncertainty" json:"rating_curve_uncertainty"`
	NumberOfDatapoints     int     `yaml:"number_of_datapoints,omitempty" json:"number_of_datapoints,omitempty"`
}

// BayesianParameters groups prior and sampler settings.
type BayesianParameters struct {
	PriorGaussianParameters PriorGaussianParameters `yaml:"prior_gaussian_parameters" json:"prior_gaussian_parameters"`
	MonteCarloParameters    MonteCarloParameters    `yaml:"monte_carlo_parameters" json:"monte_carlo_parameters"`
}

// PriorGaussianParameters describe the normal prior.
type PriorGaussianParameters struct {
	Mean              float64 `yaml:"mean" json:"mean"`
	StandardDeviation float64 `yaml:"standard_deviation,omitempty" json:"standard_deviation,omitempty"`
}

// MonteCarloParameters configure the sampler.
type MonteCarloParameters struct {
	TargetAccept    float64 `yaml:"target_accept,omitempty" json:"target_accept,omitempty"`
	NumberOfTunes   int     `yaml:"number_of_tunes" json:"number_of_tunes"`
	NumberOfSamples int     `yaml:"number_of_samples,omitempty" json:"number_of_samples,omitempty"`
	NumberOfCores   int     `yaml:"number_of_cores,omitempty" json:"number_of_cores,omitempty"`
}

// DateLayout is the calendar date format used in documents.
const DateLayout = "2006-01-02"

// Date is a calendar day in UTC.
type Date struct {
	t time.Time
}

// NewDate returns the Date for year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD. Timestamps with a clock part are truncated to their day.
func ParseDate(s string) (Date, error) {
	var lastErr error
	for _, layout := range []string{DateLayout, time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NewDate(t.Year(), t.Month(), t.Day()), nil
		}
		lastErr = err
	}
	return Date{}, lastErr
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

// After reports whether d is a later day than other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalText renders YYYY-MM-DD for YAML and JSON output.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses YYYY-MM-DD, the inverse of MarshalText.
func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
