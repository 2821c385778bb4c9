// Package report renders a human-readable summary of a Configuration: the
// analysis period, the enabled stages with their parameters and the input
// files they read.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/sbat/internal/config"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown returns the summary of cfg as GitHub flavoured Markdown.
func Markdown(cfg *config.Config) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", escape(cfg.Info.ModelName))
	if cfg.Info.Contact != "" {
		fmt.Fprintf(&sb, "Contact: %s\n\n", escape(cfg.Info.Contact))
	}

	sb.WriteString("## Period\n\n")
	period := [][2]string{
		{"Start date", cfg.Time.StartDate.String()},
		{"End date", cfg.Time.EndDate.String()},
		{"Per decade", yesNo(cfg.Time.ComputeEachDecade)},
	}
	if cfg.Time.ComputeEachDecade {
		period = append(period, [2]string{"Decades", strings.Join(cfg.Decades(), ", ")})
	}
	table(&sb, period)

	sb.WriteString("## Data cleaning\n\n")
	dropNA := "none"
	if axis := cfg.DataCleaning.DropNAAxis; axis != nil {
		dropNA = map[int]string{0: "time steps (axis 0)", 1: "gauges (axis 1)"}[*axis]
	}
	table(&sb, [][2]string{
		{"Drop NaN", dropNA},
		{"Valid data pairs only", yesNo(cfg.DataCleaning.ValidDatapairsOnly)},
		{"Test mode", yesNo(cfg.DataCleaning.TestMode)},
	})

	stages := cfg.ActiveStages()
	sb.WriteString("## Stages\n\n")
	if len(stages) == 0 {
		sb.WriteString("No analysis stage is enabled.\n\n")
	}
	for i, stage := range stages {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, stage)
	}
	if len(stages) > 0 {
		sb.WriteString("\n")
	}

	for _, stage := range stages {
		fmt.Fprintf(&sb, "### %s\n\n", title(stage))
		table(&sb, parameters(cfg, stage))
	}

	sb.WriteString("## Inputs\n\n")
	inputs := [][2]string{
		{"Data directory", code(cfg.FileIO.Input.DataDir)},
		{"Gauge time series", code(cfg.FileIO.Input.Gauges.GaugeTimeSeries)},
		{"Gauge metadata", code(cfg.FileIO.Input.Gauges.GaugeMeta)},
	}
	if p := cfg.FileIO.Input.Hydrogeology.GWLevels; p != "" {
		inputs = append(inputs, [2]string{"Groundwater levels", code(p)})
	}
	geo := cfg.FileIO.Input.Geospatial
	for _, in := range [][2]string{
		{"River network", geo.RiverNetwork},
		{"Gauge basins", geo.GaugeBasins},
		{"Branches topology", geo.BranchesTopology},
	} {
		if in[1] != "" {
			inputs = append(inputs, [2]string{in[0], code(in[1])})
		}
	}
	table(&sb, inputs)

	sb.WriteString("## Output\n\n")
	table(&sb, [][2]string{
		{"Directory", code(cfg.FileIO.Output.OutputDirectory)},
		{"Plot results", yesNo(cfg.FileIO.Output.PlotResults)},
	})

	return sb.String()
}

// HTML renders Markdown(cfg) to an HTML fragment.
func HTML(cfg *config.Config) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(cfg)), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

func parameters(cfg *config.Config, stage config.Stage) [][2]string {
	switch stage {
	case config.StageDischarge:
		d := cfg.Discharge
		return [][2]string{
			{"Column", code(d.ColName)},
			{"Monthly statistics", yesNo(d.ComputeMonthly)},
		}
	case config.StageBaseflow:
		b := cfg.Baseflow
		methods := make([]string, len(b.Methods))
		for i, m := range b.Methods {
			methods[i] = string(m)
		}
		return [][2]string{
			{"Methods", strings.Join(methods, ", ")},
			{"Baseflow index", yesNo(b.ComputeBaseflowIndex)},
			{"Monthly", yesNo(b.CalculateMonthly)},
			{"Update metadata", yesNo(b.UpdateMetadata)},
		}
	case config.StageRecession:
		c, f := cfg.Recession.CurveData, cfg.Recession.Fitting
		mastercurve := string(f.MastercurveAlgorithm)
		if mastercurve == "" {
			mastercurve = "none"
		}
		return [][2]string{
			{"Flow type", string(c.FlowType)},
			{"Curve type", string(c.CurveType)},
			{"Minimum limbs (curve data)", strconv.Itoa(c.MinimumLimbs)},
			{"Split at inflection", yesNo(c.SplitAtInflection)},
			{"Moving average steps", strconv.Itoa(c.MovingAverageFilterSteps)},
			{"Master curve", mastercurve},
			{"Reservoir model", string(f.RecessionAlgorithm)},
			{"Minimum limbs (fitting)", strconv.Itoa(f.MinimumLimbs)},
			{"Maximum reservoirs", strconv.Itoa(f.MaximumReservoirs)},
			{"Minimum curve length", strconv.Itoa(f.MinimumRecessionCurveLength)},
		}
	case config.StageHydrogeology:
		return [][2]string{
			{"Rorabaugh simplification", yesNo(cfg.Recession.HydrogeoParameterEstimation.RorabaughSimplification)},
			{"Groundwater levels", code(cfg.FileIO.Input.Hydrogeology.GWLevels)},
		}
	case config.StageWaterbalance:
		w := cfg.Waterbalance
		return [][2]string{
			{"Flow type", string(w.FlowType)},
			{"Confidence acceptance level", formatFloat(w.ConfidenceAcceptanceLevel)},
			{"Resolution", string(w.TimeSeriesAnalysisOption)},
			{"Basin id column", code(w.BasinIDCol)},
		}
	case config.StageBayesian:
		b := cfg.Waterbalance.BayesianUpdating
		u := b.RiverDischargeUncertainty
		prior := b.BayesianParameters.PriorGaussianParameters
		mc := b.BayesianParameters.MonteCarloParameters
		return [][2]string{
			{"Scaling factor", formatFloat(b.ScalingFactor)},
			{"Measurement uncertainty", formatFloat(u.MeasurementUncertainty)},
			{"Rating curve uncertainty", formatFloat(u.RatingCurveUncertainty)},
			{"Data points", strconv.Itoa(u.NumberOfDatapoints)},
			{"Prior", fmt.Sprintf("N(%s, %s)", formatFloat(prior.Mean), formatFloat(prior.StandardDeviation))},
			{"Target accept", formatFloat(mc.TargetAccept)},
			{"Tunes", strconv.Itoa(mc.NumberOfTunes)},
			{"Samples", strconv.Itoa(mc.NumberOfSamples)},
			{"Cores", strconv.Itoa(mc.NumberOfCores)},
		}
	}
	return nil
}

func table(sb *strings.Builder, rows [][2]string) {
	sb.WriteString("| Parameter | Value |\n|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(sb, "| %s | %s |\n", row[0], row[1])
	}
	sb.WriteString("\n")
}

func title(stage config.Stage) string {
	s := strings.ReplaceAll(string(stage), "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func code(s string) string {
	if s == "" {
		return "-"
	}
	return "`" + strings.ReplaceAll(s, "|", `\|`) + "`"
}

// escape keeps user text from breaking table and heading syntax.
func escape(s string) string {
	r := strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "#", `\#`, "<", "&lt;")
	return r.Replace(s)
}
