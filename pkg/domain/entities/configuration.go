package entities

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Year is a calendar year on the time axis
type Year int

// DefaultLifespan is the mean product lifetime, in periods, used when a scenario does not override it
const DefaultLifespan = 15.0

// LifetimeDistribution describes how long a cohort stays in the use phase
type LifetimeDistribution struct {
	Type   string
	Mean   float64
	StdDev float64

	dist distuv.LogNormal
}

// NewLogNormalLifetime creates a log-normal lifetime parameterised by its arithmetic mean and standard deviation
func NewLogNormalLifetime(mean, stdDev float64) (LifetimeDistribution, error) {
	if mean <= 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return LifetimeDistribution{}, fmt.Errorf("%w: mean must be positive, got %v", ErrInvalidLifespan, mean)
	}
	if stdDev <= 0 || math.IsNaN(stdDev) || math.IsInf(stdDev, 0) {
		return LifetimeDistribution{}, fmt.Errorf("%w: standard deviation must be positive, got %v", ErrInvalidLifespan, stdDev)
	}

	ratio := (stdDev * stdDev) / (mean * mean)
	return LifetimeDistribution{
		Type:   "LogNormal",
		Mean:   mean,
		StdDev: stdDev,
		dist: distuv.LogNormal{
			Mu:    math.Log(mean / math.Sqrt(1+ratio)),
			Sigma: math.Sqrt(math.Log(1 + ratio)),
		},
	}, nil
}

// Survival returns the fraction of a cohort still in use at the given age
func (l LifetimeDistribution) Survival(age float64) float64 {
	if age <= 0 {
		return 1
	}
	return l.dist.Survival(age)
}

// Mu returns the location parameter of the underlying normal distribution
func (l LifetimeDistribution) Mu() float64 { return l.dist.Mu }

// Sigma returns the scale parameter of the underlying normal distribution
func (l LifetimeDistribution) Sigma() float64 { return l.dist.Sigma }

// Configuration holds the time grid and survival matrix shared by every model of a scenario.
// It is read-only once constructed.
type Configuration struct {
	TimeStart Year
	TimeEnd   Year
	Lifespan  float64
	TimeList  []Year
	Nt        int
	Nc        int
	Lifetime  LifetimeDistribution

	sf *mat.Dense
}

// NewConfiguration creates a validated Configuration.
// Cohorts are indexed like periods, so the survival matrix is square.
func NewConfiguration(timeStart, timeEnd Year, lifespan float64) (*Configuration, error) {
	if timeEnd < timeStart {
		return nil, fmt.Errorf("%w: end %d is before start %d", ErrInvalidTimeRange, timeEnd, timeStart)
	}

	lifetime, err := NewLogNormalLifetime(lifespan, lifespan)
	if err != nil {
		return nil, err
	}

	nt := int(timeEnd-timeStart) + 1
	timeList := make([]Year, nt)
	for i := range timeList {
		timeList[i] = timeStart + Year(i)
	}

	sf := mat.NewDense(nt, nt, nil)
	for c := 0; c < nt; c++ {
		for t := c; t < nt; t++ {
			sf.Set(t, c, lifetime.Survival(float64(t-c)))
		}
		// no attrition within the entry period
		sf.Set(c, c, 1)
	}

	return &Configuration{
		TimeStart: timeStart,
		TimeEnd:   timeEnd,
		Lifespan:  lifespan,
		TimeList:  timeList,
		Nt:        nt,
		Nc:        nt,
		Lifetime:  lifetime,
		sf:        sf,
	}, nil
}

// SurvivalFactor returns sf[t,c], the share of cohort c still present at period t
func (c *Configuration) SurvivalFactor(t, cohort int) float64 {
	return c.sf.At(t, cohort)
}

// SurvivalMatrix returns a copy of the survival matrix
func (c *Configuration) SurvivalMatrix() *mat.Dense {
	return mat.DenseCopyOf(c.sf)
}

// IndexOf returns the period index of a year, or -1 when it lies outside the grid
func (c *Configuration) IndexOf(year Year) int {
	if year < c.TimeStart || year > c.TimeEnd {
		return -1
	}
	return int(year - c.TimeStart)
}

// CheckSeries verifies that a series spans exactly the time horizon
func (c *Configuration) CheckSeries(name string, series []float64) error {
	if len(series) != c.Nt {
		return fmt.Errorf("%w: %s has %d values, expected %d", ErrShapeMismatch, name, len(series), c.Nt)
	}
	return nil
}
