package config

// BaseflowMethod names a baseflow separation filter.
type BaseflowMethod string

// Supported baseflow separation methods.
const (
	MethodUKIH     BaseflowMethod = "UKIH"
	MethodLocal    BaseflowMethod = "Local"
	MethodFixed    BaseflowMethod = "Fixed"
	MethodSlide    BaseflowMethod = "Slide"
	MethodLH       BaseflowMethod = "LH"
	MethodChapman  BaseflowMethod = "Chapman"
	MethodCM       BaseflowMethod = "CM"
	MethodBoughton BaseflowMethod = "Boughton"
	MethodFurey    BaseflowMethod = "Furey"
	MethodEckhardt BaseflowMethod = "Eckhardt"
	MethodEWMA     BaseflowMethod = "EWMA"
	MethodWillems  BaseflowMethod = "Willems"
)

// BaseflowMethods lists every accepted method in documentation order.
var BaseflowMethods = []BaseflowMethod{
	MethodUKIH, MethodLocal, MethodFixed, MethodSlide, MethodLH, MethodChapman,
	MethodCM, MethodBoughton, MethodFurey, MethodEckhardt, MethodEWMA, MethodWillems,
}

// FlowType selects which series an analysis runs on.
type FlowType string

const (
	FlowDischarge FlowType = "discharge"
	FlowBaseflow  FlowType = "baseflow"
)

// FlowTypes lists the accepted flow types.
var FlowTypes = []FlowType{FlowDischarge, FlowBaseflow}

// CurveType selects the source of recession limbs.
type CurveType string

const (
	CurveHydrograph   CurveType = "hydrograph"
	CurveWaterbalance CurveType = "waterbalance"
)

// CurveTypes lists the accepted curve types.
var CurveTypes = []CurveType{CurveHydrograph, CurveWaterbalance}

// MastercurveAlgorithm builds the master recession curve from individual limbs.
type MastercurveAlgorithm string

const (
	MastercurveDemuth        MastercurveAlgorithm = "demuth"
	MastercurveMatchingStrip MastercurveAlgorithm = "matching_strip"
)

// MastercurveAlgorithms lists the accepted master curve algorithms.
var MastercurveAlgorithms = []MastercurveAlgorithm{MastercurveDemuth, MastercurveMatchingStrip}

// RecessionAlgorithm is the reservoir model fitted to recession limbs.
type RecessionAlgorithm string

const (
	RecessionBoussinesq RecessionAlgorithm = "boussinesq"
	RecessionMaillet    RecessionAlgorithm = "maillet"
)

// RecessionAlgorithms lists the accepted reservoir models.
var RecessionAlgorithms = []RecessionAlgorithm{RecessionBoussinesq, RecessionMaillet}

// TimeSeriesOption is the temporal resolution of the water balance.
type TimeSeriesOption string

const (
	SeriesDaily   TimeSeriesOption = "daily"
	SeriesMonthly TimeSeriesOption = "monthly"
)

// TimeSeriesOptions lists the accepted resolutions.
var TimeSeriesOptions = []TimeSeriesOption{SeriesDaily, SeriesMonthly}

// literals converts an enum list to plain strings for lookup and messages.
func literals[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
