package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/params"
)

// RectangleBounds limits a plane to |loc0| <= HalfX and |loc1| <= HalfY.
type RectangleBounds struct {
	HalfX float64 `json:"half_x" yaml:"half_x"`
	HalfY float64 `json:"half_y" yaml:"half_y"`
}

func (b RectangleBounds) Inside(loc r2.Vec) bool {
	return math.Abs(loc.X) <= b.HalfX && math.Abs(loc.Y) <= b.HalfY
}

// PlaneSurface is a flat surface through Center with the frame of
// CurvilinearFrame(normal). A nil Bounds makes it infinite.
type PlaneSurface struct {
	name   string
	center r3.Vec
	frame  Frame
	bounds *RectangleBounds
}

// NewPlaneSurface returns an unbounded plane. The normal is normalised.
func NewPlaneSurface(center, normal r3.Vec) *PlaneSurface {
	n := r3.Unit(normal)
	return &PlaneSurface{
		name:   "plane",
		center: center,
		frame:  CurvilinearFrame(n),
	}
}

// NewBoundedPlaneSurface returns a rectangular plane.
func NewBoundedPlaneSurface(name string, center, normal r3.Vec, halfX, halfY float64) (*PlaneSurface, error) {
	if r3.Norm(normal) == 0 {
		return nil, ErrDegenerateNormal
	}
	if !(halfX > 0) || !(halfY > 0) {
		return nil, fmt.Errorf("%w: %gx%g", ErrInvalidBounds, halfX, halfY)
	}
	p := NewPlaneSurface(center, normal)
	p.name = name
	p.bounds = &RectangleBounds{HalfX: halfX, HalfY: halfY}
	return p, nil
}

func (p *PlaneSurface) Name() string { return p.name }

func (p *PlaneSurface) Bounds() *RectangleBounds { return p.bounds }

func (p *PlaneSurface) Center(GeometryContext) r3.Vec { return p.center }

func (p *PlaneSurface) Normal(GeometryContext, r3.Vec) r3.Vec { return p.frame.N }

func (p *PlaneSurface) ReferenceFrame(GeometryContext, r3.Vec, r3.Vec) Frame { return p.frame }

func (p *PlaneSurface) LocalToGlobal(_ GeometryContext, loc r2.Vec, _ r3.Vec) r3.Vec {
	return r3.Add(p.center, p.frame.ToGlobal(r3.Vec{X: loc.X, Y: loc.Y}))
}

func (p *PlaneSurface) GlobalToLocal(_ GeometryContext, pos, _ r3.Vec) (r2.Vec, bool) {
	l := p.frame.ToLocal(r3.Sub(pos, p.center))
	return r2.Vec{X: l.X, Y: l.Y}, math.Abs(l.Z) <= OnSurfaceTolerance
}

func (p *PlaneSurface) InsideBounds(loc r2.Vec) bool {
	return p.bounds == nil || p.bounds.Inside(loc)
}

func (p *PlaneSurface) Intersect(gctx GeometryContext, pos, dir r3.Vec, bcheck BoundaryCheck) Intersection {
	denom := r3.Dot(dir, p.frame.N)
	if denom == 0 {
		return Intersection{Position: pos, PathLength: math.Inf(1), Status: Missed}
	}
	path := r3.Dot(p.frame.N, r3.Sub(p.center, pos)) / denom
	is := Intersection{
		Position:   r3.Add(pos, r3.Scale(path, dir)),
		PathLength: path,
		Status:     Reachable,
	}
	if path*path < OnSurfaceTolerance*OnSurfaceTolerance {
		is.Status = OnSurface
	}
	if bcheck {
		loc, _ := p.GlobalToLocal(gctx, is.Position, dir)
		if !p.InsideBounds(loc) {
			is.Status = Missed
		}
	}
	return is
}

func (p *PlaneSurface) InitJacobianToGlobal(_ GeometryContext, jac *mat.Dense, _, _ r3.Vec, bound params.BoundVector) {
	sinPhi, cosPhi := math.Sincos(bound[params.BoundPhi])
	sinTheta, cosTheta := math.Sincos(bound[params.BoundTheta])

	u, v := p.frame.U, p.frame.V
	jac.Zero()
	jac.Set(0, int(params.BoundLoc0), u.X)
	jac.Set(1, int(params.BoundLoc0), u.Y)
	jac.Set(2, int(params.BoundLoc0), u.Z)
	jac.Set(0, int(params.BoundLoc1), v.X)
	jac.Set(1, int(params.BoundLoc1), v.Y)
	jac.Set(2, int(params.BoundLoc1), v.Z)

	jac.Set(int(params.FreeTime), int(params.BoundTime), 1)

	jac.Set(int(params.FreeDir0), int(params.BoundPhi), -sinTheta*sinPhi)
	jac.Set(int(params.FreeDir1), int(params.BoundPhi), sinTheta*cosPhi)
	jac.Set(int(params.FreeDir0), int(params.BoundTheta), cosTheta*cosPhi)
	jac.Set(int(params.FreeDir1), int(params.BoundTheta), cosTheta*sinPhi)
	jac.Set(int(params.FreeDir2), int(params.BoundTheta), -sinTheta)

	jac.Set(int(params.FreeQOverP), int(params.BoundQOverP), 1)
}

func (p *PlaneSurface) InitJacobianToLocal(_ GeometryContext, jac *mat.Dense, _, dir r3.Vec) Frame {
	sinTheta := math.Hypot(dir.X, dir.Y)
	cosTheta := dir.Z
	invSinTheta := 1 / sinTheta
	cosPhi := dir.X * invSinTheta
	sinPhi := dir.Y * invSinTheta

	u, v := p.frame.U, p.frame.V
	jac.Zero()
	jac.Set(int(params.BoundLoc0), 0, u.X)
	jac.Set(int(params.BoundLoc0), 1, u.Y)
	jac.Set(int(params.BoundLoc0), 2, u.Z)
	jac.Set(int(params.BoundLoc1), 0, v.X)
	jac.Set(int(params.BoundLoc1), 1, v.Y)
	jac.Set(int(params.BoundLoc1), 2, v.Z)

	jac.Set(int(params.BoundTime), int(params.FreeTime), 1)

	jac.Set(int(params.BoundPhi), int(params.FreeDir0), -sinPhi*invSinTheta)
	jac.Set(int(params.BoundPhi), int(params.FreeDir1), cosPhi*invSinTheta)
	jac.Set(int(params.BoundTheta), int(params.FreeDir0), cosPhi*cosTheta)
	jac.Set(int(params.BoundTheta), int(params.FreeDir1), sinPhi*cosTheta)
	jac.Set(int(params.BoundTheta), int(params.FreeDir2), -sinTheta)

	jac.Set(int(params.BoundQOverP), int(params.FreeQOverP), 1)
	return p.frame
}

func (p *PlaneSurface) DerivativeFactors(_ GeometryContext, _, dir r3.Vec, frame Frame, jac mat.Matrix) *mat.VecDense {
	n := r3.Scale(1/r3.Dot(frame.N, dir), frame.N)
	s := mat.NewVecDense(params.BoundSize, nil)
	for j := 0; j < params.BoundSize; j++ {
		s.SetVec(j, n.X*jac.At(0, j)+n.Y*jac.At(1, j)+n.Z*jac.At(2, j))
	}
	return s
}

func (p *PlaneSurface) String() string {
	return fmt.Sprintf("%s{center=%v normal=%v}", p.name, p.center, p.frame.N)
}
