package InputParameters

import (
	"fmt"
	"io"

	"github.com/ghodss/yaml"

	"github.com/notargets/fvmesh/interpolation"
	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/types"
)

// Parameters obtained from the YAML input file
type PrepParameters struct {
	Title           string          `json:"Title"`
	Ranks           int             `json:"Ranks"`
	Partitioner     string          `json:"Partitioner"` // graph, block or metis
	Interpolation   string          `json:"Interpolation"`
	MaxStencilSize  int             `json:"MaxStencilSize"`
	AreaTolerance   float64         `json:"AreaTolerance"`
	VolumeTolerance float64         `json:"VolumeTolerance"`
	Workers         int             `json:"Workers"`
	Block           BlockParameters `json:"Block"`
}

// BlockParameters describe the structured block to preprocess, explicit planes override Cells and Lengths
type BlockParameters struct {
	Shape     string    `json:"Shape"`
	Cells     []int     `json:"Cells"`
	Lengths   []float64 `json:"Lengths"`
	X         []float64 `json:"X"`
	Y         []float64 `json:"Y"`
	Z         []float64 `json:"Z"`
	Dimension int       `json:"Dimension"`
}

func (ip *PrepParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	if ip.Ranks == 0 {
		ip.Ranks = 1
	}
	if len(ip.Block.Shape) == 0 {
		ip.Block.Shape = "hex"
	}
	return ip.Validate()
}

func (ip *PrepParameters) Validate() (err error) {
	if ip.Ranks < 1 {
		return types.NewConfigurationError("Ranks must be positive, have %d", ip.Ranks)
	}
	if _, err = ip.InterpolationConfig(); err != nil {
		return
	}
	_, err = ip.BlockSpec()
	return
}

func (ip *PrepParameters) InterpolationConfig() (cfg interpolation.Config, err error) {
	if cfg.Method, err = types.NewInterpolationMethod(ip.Interpolation); err != nil {
		return
	}
	cfg.MaxStencilSize = ip.MaxStencilSize
	cfg.AreaTolerance = ip.AreaTolerance
	cfg.VolumeTolerance = ip.VolumeTolerance
	cfg.Workers = ip.Workers
	err = cfg.Validate()
	return
}

func (ip *PrepParameters) BlockSpec() (spec mesh.BlockSpec, err error) {
	bp := ip.Block
	if spec.Shape, err = mesh.NewShapeType(bp.Shape); err != nil {
		return
	}
	spec.Dimension = bp.Dimension
	planes := [3]*[]float64{&spec.X, &spec.Y, &spec.Z}
	explicit := [3][]float64{bp.X, bp.Y, bp.Z}
	for a := 0; a < 3; a++ {
		if len(explicit[a]) != 0 {
			*planes[a] = explicit[a]
			continue
		}
		if len(bp.Cells) != 3 || len(bp.Lengths) != 3 {
			err = types.NewConfigurationError("Block needs three Cells and Lengths, or explicit planes on axis %d", a)
			return
		}
		if bp.Cells[a] < 1 || !(bp.Lengths[a] > 0) {
			err = types.NewConfigurationError("Block axis %d has %d cells over length %g", a, bp.Cells[a], bp.Lengths[a])
			return
		}
		*planes[a] = mesh.UniformAxis(bp.Cells[a], bp.Lengths[a])
	}
	return
}

func (ip *PrepParameters) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ip.Title)
	fmt.Fprintf(w, "[%d]\t\t\t\t= Ranks\n", ip.Ranks)
	fmt.Fprintf(w, "[%s]\t\t\t= Partitioner\n", ip.Partitioner)
	fmt.Fprintf(w, "[%s]\t\t\t= Interpolation\n", ip.Interpolation)
	fmt.Fprintf(w, "[%d]\t\t\t\t= Max Stencil Size\n", ip.MaxStencilSize)
	fmt.Fprintf(w, "%8.5f\t\t= Area Tolerance\n", ip.AreaTolerance)
	fmt.Fprintf(w, "%8.5f\t\t= Volume Tolerance\n", ip.VolumeTolerance)
	fmt.Fprintf(w, "[%s]\t\t\t= Block Shape\n", ip.Block.Shape)
	if len(ip.Block.Cells) != 0 {
		fmt.Fprintf(w, "%v\t\t\t= Block Cells\n", ip.Block.Cells)
		fmt.Fprintf(w, "%v\t\t\t= Block Lengths\n", ip.Block.Lengths)
	}
	for a, planes := range [][]float64{ip.Block.X, ip.Block.Y, ip.Block.Z} {
		if len(planes) != 0 {
			fmt.Fprintf(w, "%v\t= Block %c Planes\n", planes, "XYZ"[a])
		}
	}
}
