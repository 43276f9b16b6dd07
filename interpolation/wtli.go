package interpolation

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fvmesh/geometry3D"
	"github.com/notargets/fvmesh/types"
)

func (e *Engine) wtli(f int, s *Scratch) (class types.Classification, wm types.WeightMap, warnings int, err error) {
	var (
		fc = e.mesh.Faces[f].Centroid
	)
	class = Classify(s.centroids, e.mesh.Dimension, e.cfg.AreaTolerance, e.cfg.VolumeTolerance)
	switch class {
	case types.Point:
		wm = types.WeightMap{s.selected[0]: 1}
	case types.Line:
		wm, warnings = e.line(f, fc, s)
	case types.Tri:
		wm, warnings, err = e.tri(f, fc, s)
	case types.Tetra:
		wm, err = e.tetra(f, fc, s)
	}
	return
}

/*
line interpolates linearly between the two members nearest the face centroid. The face centroid is projected on the
line joining them, so a face outside the segment extrapolates with a negative weight.
*/
func (e *Engine) line(f int, fc r3.Vec, s *Scratch) (wm types.WeightMap, warnings int) {
	var (
		p1, p2 = -1, -1
		d1, d2 = math.Inf(1), math.Inf(1)
	)
	for i, c := range s.centroids {
		if d := geometry3D.Distance(fc, c); d < d1 {
			p1, d1 = i, d
		}
	}
	for i, c := range s.centroids {
		if i == p1 {
			continue
		}
		if d := geometry3D.Distance(fc, c); d < d2 {
			p2, d2 = i, d
		}
	}
	var (
		c1, c2 = s.centroids[p1], s.centroids[p2]
		span   = r3.Sub(c2, c1)
		length = r3.Norm(span)
	)
	wm = make(types.WeightMap, 2)
	if length == 0 {
		e.logger.Warn("coincident line centroids, splitting evenly",
			"face", f, "members", []string{s.selected[p1].String(), s.selected[p2].String()})
		wm[s.selected[p1]], wm[s.selected[p2]] = 0.5, 0.5
		warnings++
		return
	}
	w2 := r3.Dot(r3.Sub(fc, c1), r3.Scale(1/length, span)) / length
	wm[s.selected[p1]] = 1 - w2
	wm[s.selected[p2]] = w2
	return
}

// closeness is the inverse distance from p to a combination centroid in units of the combination edge length
func closeness(p, centroid r3.Vec, aveEdge float64) float64 {
	return 1 / math.Max(geometry3D.Distance(p, centroid)/aveEdge, closenessFloor)
}

type accumulator struct {
	wm       types.WeightMap
	accepted int
	solved   int
	lastErr  error
}

func (acc *accumulator) add(members []types.StencilMember, local []float64, weight float64) {
	for i, sm := range members {
		acc.wm.Add(sm, weight*local[i])
	}
	acc.solved++
}

/*
tri accumulates the planar barycentric weights of every triangle of stencil members whose skewness exceeds the area
tolerance, each weighted by its skewness and its closeness to the projected face centroid.
*/
func (e *Engine) tri(f int, fc r3.Vec, s *Scratch) (wm types.WeightMap, warnings int, err error) {
	var (
		n       = len(s.selected)
		acc     = accumulator{wm: make(types.WeightMap, n)}
		members [3]types.StencilMember
		local   = s.x[:3]
	)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				c := [3]r3.Vec{s.centroids[i], s.centroids[j], s.centroids[k]}
				skew, aveEdge := geometry3D.TriSkewness(c[0], c[1], c[2])
				if skew <= e.cfg.AreaTolerance {
					continue
				}
				acc.accepted++
				normal := r3.Unit(r3.Cross(r3.Sub(c[1], c[0]), r3.Sub(c[2], c[0])))
				center := geometry3D.Mean(c[:])
				weight := skew * closeness(geometry3D.ProjectToPlane(fc, c[0], normal), center, aveEdge)
				if err = solveTri(fc, c, s, local); err != nil {
					acc.lastErr = err
					continue
				}
				if sum := local[0] + local[1] + local[2]; math.Abs(sum-1) > unitSumTolerance {
					e.logger.Warn("triangle weights do not sum to one", "face", f, "sum", sum)
					warnings++
				}
				members = [3]types.StencilMember{s.selected[i], s.selected[j], s.selected[k]}
				acc.add(members[:], local, weight)
			}
		}
	}
	wm, err = e.finish(f, types.Tri, &acc)
	return
}

// solveTri finds the barycentric weights of the projection of p on the plane of triangle c
func solveTri(p r3.Vec, c [3]r3.Vec, s *Scratch, local []float64) error {
	var (
		origin = 0
		best   = math.Inf(1)
	)
	// The corner with the angle closest to square gives the best conditioned basis
	for i := 0; i < 3; i++ {
		a, b := r3.Sub(c[(i+1)%3], c[i]), r3.Sub(c[(i+2)%3], c[i])
		if cos := math.Abs(r3.Dot(r3.Unit(a), r3.Unit(b))); cos < best {
			origin, best = i, cos
		}
	}
	var (
		o      = c[origin]
		edge1  = r3.Sub(c[(origin+1)%3], o)
		edge2  = r3.Sub(c[(origin+2)%3], o)
		normal = r3.Unit(r3.Cross(edge1, edge2))
		basis1 = r3.Unit(edge1)
		basis2 = r3.Unit(r3.Cross(normal, basis1))
		pp     = r3.Sub(p, o)
		a      = s.a3
	)
	pp = r3.Sub(pp, r3.Scale(r3.Dot(pp, normal), normal))
	for i := 0; i < 3; i++ {
		ci := r3.Sub(c[i], o)
		a.Set(0, i, r3.Dot(ci, basis1))
		a.Set(1, i, r3.Dot(ci, basis2))
		a.Set(2, i, 1)
	}
	b := s.b[:3]
	b[0], b[1], b[2] = r3.Dot(pp, basis1), r3.Dot(pp, basis2), 1
	return SolveGauss(a, b, local)
}

/*
tetra accumulates the barycentric weights of every tetrahedron of stencil members whose skewness exceeds the volume
tolerance, each weighted by its skewness and its closeness to the face centroid. A local solution that does not sum
to one is fatal.
*/
func (e *Engine) tetra(f int, fc r3.Vec, s *Scratch) (wm types.WeightMap, err error) {
	var (
		n       = len(s.selected)
		acc     = accumulator{wm: make(types.WeightMap, n)}
		members [4]types.StencilMember
		local   = s.x[:4]
	)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				for l := k + 1; l < n; l++ {
					c := [4]r3.Vec{s.centroids[i], s.centroids[j], s.centroids[k], s.centroids[l]}
					skew, aveEdge := geometry3D.TetSkewness(c[0], c[1], c[2], c[3])
					if skew <= e.cfg.VolumeTolerance {
						continue
					}
					acc.accepted++
					weight := skew * closeness(fc, geometry3D.Mean(c[:]), aveEdge)
					if err = solveTet(fc, c, s, local); err != nil {
						acc.lastErr = err
						continue
					}
					if sum := local[0] + local[1] + local[2] + local[3]; math.Abs(sum-1) > unitSumTolerance {
						return nil, types.NewWeightSumError(e.mesh.Rank, f, sum)
					}
					members = [4]types.StencilMember{s.selected[i], s.selected[j], s.selected[k], s.selected[l]}
					acc.add(members[:], local, weight)
				}
			}
		}
	}
	return e.finish(f, types.Tetra, &acc)
}

// solveTet finds the barycentric weights of p in tetrahedron c, with the origin moved to the first corner
func solveTet(p r3.Vec, c [4]r3.Vec, s *Scratch, local []float64) error {
	var (
		a = s.a4
		b = s.b[:4]
	)
	for i := 0; i < 4; i++ {
		ci := r3.Sub(c[i], c[0])
		a.Set(0, i, ci.X)
		a.Set(1, i, ci.Y)
		a.Set(2, i, ci.Z)
		a.Set(3, i, 1)
	}
	pp := r3.Sub(p, c[0])
	b[0], b[1], b[2], b[3] = pp.X, pp.Y, pp.Z, 1
	return SolveGauss(a, b, local)
}

func (e *Engine) finish(f int, class types.Classification, acc *accumulator) (types.WeightMap, error) {
	switch {
	case acc.accepted == 0:
		return nil, types.NewGeometryDegeneracyError(e.mesh.Rank, f,
			"no %s combination exceeds the skewness tolerance", class)
	case acc.solved == 0:
		err := types.NewGeometryDegeneracyError(e.mesh.Rank, f,
			"all %d %s combinations are singular", acc.accepted, class)
		err.Err = acc.lastErr
		return nil, err
	}
	if !acc.wm.Normalize() {
		return nil, types.NewGeometryDegeneracyError(e.mesh.Rank, f, "%s weights sum to %g", class, acc.wm.Sum())
	}
	if acc.solved < acc.accepted {
		e.logger.Debug("skipped singular combinations", "face", f, "class", class.String(),
			"skipped", acc.accepted-acc.solved, "error", acc.lastErr)
	}
	return acc.wm, nil
}
