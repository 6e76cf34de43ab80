package entities

import "errors"

// Sentinel errors returned by the engine. Callers match them with errors.Is.
var (
	ErrInvalidTimeRange            = errors.New("invalid time range")
	ErrInvalidLifespan             = errors.New("invalid lifespan")
	ErrShapeMismatch               = errors.New("series length does not match time horizon")
	ErrInvalidSeries               = errors.New("invalid series value")
	ErrNegativeInflow              = errors.New("stock-driven model produced negative inflow")
	ErrOutOfOrderStep              = errors.New("flow network step solved out of order")
	ErrInvalidShift                = errors.New("invalid export lag")
	ErrInvalidEmissionFactor       = errors.New("emission factor must be in [0, 1)")
	ErrUnknownFlow                 = errors.New("unknown flow")
	ErrUnknownStock                = errors.New("unknown stock")
	ErrInvalidTransferCoefficients = errors.New("invalid transfer coefficients")
	ErrScenarioNotFound            = errors.New("scenario not found")
)
