package distrib

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// StatisticalDistributions provides unified access to all statistical distributions
// used by the engines, so CDF calculations are not fragmented across packages
type StatisticalDistributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *StatisticalDistributions {
	return &StatisticalDistributions{}
}

// TTestPValue computes exact two-tailed p-value using Student's t-distribution
func (sd *StatisticalDistributions) TTestPValue(tStatistic float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}

	df := float64(degreesOfFreedom)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}

	// Two-tailed test
	return 2 * (1 - tDist.CDF(math.Abs(tStatistic)))
}

// TCriticalValue computes the two-tailed critical value at significance alpha
func (sd *StatisticalDistributions) TCriticalValue(alpha float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return math.NaN()
	}

	df := float64(degreesOfFreedom)
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(1.0 - alpha/2.0)
}

// FTestPValue computes p-value for F-distribution (ANOVA, regression)
func (sd *StatisticalDistributions) FTestPValue(fStatistic float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 {
		return 1.0
	}
	if fStatistic <= 0 {
		return 1.0
	}

	fDist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return 1 - fDist.CDF(fStatistic)
}

// ChiSquarePValue computes p-value for chi-square distribution
func (sd *StatisticalDistributions) ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return 1 - chiDist.CDF(chiSquare)
}

// NormalCDF computes cumulative distribution function for standard normal
func (sd *StatisticalDistributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile computes quantile function for standard normal (inverse CDF)
func (sd *StatisticalDistributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// BootstrapConfidenceInterval computes a percentile confidence interval from
// bootstrap samples
func (sd *StatisticalDistributions) BootstrapConfidenceInterval(samples []float64, confidenceLevel float64) (lower, upper float64) {
	if len(samples) == 0 {
		return 0, 0
	}

	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		confidenceLevel = 0.95
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	// Compute percentiles
	alpha := 1.0 - confidenceLevel
	lowerPercentile := alpha / 2.0
	upperPercentile := 1.0 - alpha/2.0

	lowerIdx := int(math.Round(float64(len(sorted)-1) * lowerPercentile))
	upperIdx := int(math.Round(float64(len(sorted)-1) * upperPercentile))

	if lowerIdx >= len(sorted) {
		lowerIdx = len(sorted) - 1
	}
	if upperIdx >= len(sorted) {
		upperIdx = len(sorted) - 1
	}

	return sorted[lowerIdx], sorted[upperIdx]
}
