package interpolation

import (
	"github.com/notargets/fvmesh/types"
)

const (
	// Relative distance under which two stencil members are equally close to a face
	tieTolerance = 1.e-8
	// Allowed deviation of a local barycentric solution from unit sum
	unitSumTolerance = 1.e-8
	// Floor of the normalized distance between a face and a combination centroid
	closenessFloor = 0.1
)

type Config struct {
	Method types.InterpolationMethod
	// Upper bound on the stencil size, zero selects 2, 6 or 12 for 1, 2 or 3 dimensional meshes
	MaxStencilSize int
	// Minimum triangle skewness, both for classifying a stencil as planar and for accepting a triangle. Zero selects 0.1
	AreaTolerance float64
	// Minimum tetrahedron skewness, both for classifying a stencil as volumetric and for accepting a tetrahedron. Zero
	// selects 0.01
	VolumeTolerance float64
	// Goroutines computing face weights, zero uses GOMAXPROCS
	Workers int
}

func DefaultConfig() Config {
	return Config{
		Method:          types.WTLI,
		AreaTolerance:   0.1,
		VolumeTolerance: 0.01,
	}
}

func (c Config) Validate() error {
	if int(c.Method) > int(types.Simple) {
		return types.NewConfigurationError("unknown interpolation method %d", c.Method)
	}
	if c.MaxStencilSize < 0 {
		return types.NewConfigurationError("maximum stencil size %d must be positive", c.MaxStencilSize)
	}
	if c.AreaTolerance < 0 || c.VolumeTolerance < 0 {
		return types.NewConfigurationError("skewness tolerances must not be negative, have %g and %g",
			c.AreaTolerance, c.VolumeTolerance)
	}
	if c.Workers < 0 {
		return types.NewConfigurationError("worker count %d must not be negative", c.Workers)
	}
	return nil
}

// withDefaults fills zero tolerances from DefaultConfig
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.AreaTolerance == 0 {
		c.AreaTolerance = def.AreaTolerance
	}
	if c.VolumeTolerance == 0 {
		c.VolumeTolerance = def.VolumeTolerance
	}
	return c
}

// DefaultStencilSize is the stencil cap used for a mesh of the given dimensionality
func DefaultStencilSize(dimension int) int {
	switch dimension {
	case 1:
		return 2
	case 2:
		return 6
	default:
		return 12
	}
}

// StencilCap is the hard bound on the number of members selected for one face
func (c Config) StencilCap(dimension, candidates int) int {
	limit := c.MaxStencilSize
	if limit == 0 {
		limit = DefaultStencilSize(dimension)
	}
	return min(limit, candidates)
}
