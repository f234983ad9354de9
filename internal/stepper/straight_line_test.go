package stepper_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/covariance"
	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/params"
	"github.com/san-kum/trackprop/internal/stepper"
	"github.com/san-kum/trackprop/internal/track"
	"github.com/san-kum/trackprop/internal/transform"
)

func scaledIdentity(n int, v float64) *mat.SymDense {
	c := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		c.SetSym(i, i, v)
	}
	return c
}

func expectVec(got, want r3.Vec) {
	ExpectWithOffset(1, got.X).To(BeNumerically("~", want.X, 1e-6))
	ExpectWithOffset(1, got.Y).To(BeNumerically("~", want.Y, 1e-6))
	ExpectWithOffset(1, got.Z).To(BeNumerically("~", want.Z, 1e-6))
}

var (
	gctx = geom.GeometryContext{}
	mctx = geom.MagneticFieldContext{}

	pos    = r3.Vec{X: 1, Y: 2, Z: 3}
	mom    = r3.Vec{X: 4, Y: 5, Z: 6}
	charge = -1.0
	time   = 7.0

	stepSize  = 123.0
	tolerance = 234.0
	opts      = stepper.Options{Mass: 42}
)

var _ = Describe("State", func() {
	It("starts from charged parameters without covariance", func() {
		cp, err := track.NewCurvilinearParameters(nil, pos, mom, charge, time)
		Expect(err).NotTo(HaveOccurred())

		st, err := stepper.NewState(gctx, mctx, cp, stepper.Backward, stepSize, tolerance)
		Expect(err).NotTo(HaveOccurred())

		Expect(mat.Equal(st.JacToGlobal, mat.NewDense(params.FreeSize, params.BoundSize, nil))).To(BeTrue())
		Expect(mat.Equal(st.JacTransport, covariance.Identity(params.FreeSize))).To(BeTrue())
		Expect(st.Derivative).To(Equal(params.FreeVector{}))
		Expect(st.CovTransport).To(BeFalse())
		Expect(st.Cov).To(BeNil())
		Expect(st.Pos).To(Equal(pos))
		expectVec(st.Dir, r3.Unit(mom))
		Expect(st.P).To(BeNumerically("~", r3.Norm(mom), 1e-12))
		Expect(st.Q).To(Equal(charge))
		Expect(st.T).To(Equal(time))
		Expect(st.NavDir).To(Equal(stepper.Backward))
		Expect(st.PathAccumulated).To(BeZero())
		Expect(st.StepSize.Value()).To(Equal(-stepSize))
		Expect(st.PreviousStepSize).To(BeZero())
		Expect(st.Tolerance).To(Equal(tolerance))
	})

	It("starts from neutral parameters", func() {
		ncp, err := track.NewNeutralCurvilinearParameters(nil, pos, mom, time)
		Expect(err).NotTo(HaveOccurred())

		st, err := stepper.NewState(gctx, mctx, ncp, stepper.Backward, stepSize, tolerance)
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Q).To(BeZero())
		Expect(st.P).To(BeNumerically("~", r3.Norm(mom), 1e-12))
	})

	It("enables covariance transport when a covariance is given", func() {
		cov := scaledIdentity(params.BoundSize, 8)
		ncp, err := track.NewNeutralCurvilinearParameters(cov, pos, mom, time)
		Expect(err).NotTo(HaveOccurred())

		st, err := stepper.NewState(gctx, mctx, ncp, stepper.Backward, stepSize, tolerance)
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.Equal(st.JacToGlobal, mat.NewDense(params.FreeSize, params.BoundSize, nil))).To(BeFalse())
		Expect(st.CovTransport).To(BeTrue())
		Expect(mat.Equal(st.Cov, cov)).To(BeTrue())

		// the state owns its covariance
		cov.SetSym(0, 0, 1)
		Expect(st.Cov.At(0, 0)).To(Equal(8.0))
	})

	It("clones deeply", func() {
		cp, err := track.NewCurvilinearParameters(scaledIdentity(params.BoundSize, 1), pos, mom, charge, time)
		Expect(err).NotTo(HaveOccurred())
		st, err := stepper.NewState(gctx, mctx, cp, stepper.Forward, stepSize, tolerance)
		Expect(err).NotTo(HaveOccurred())

		c := st.Clone()
		c.JacTransport.Set(0, 0, 5)
		c.Cov.SetSym(1, 1, 5)
		c.StepSize.Update(1, stepper.Actor, false)

		Expect(st.JacTransport.At(0, 0)).To(Equal(1.0))
		Expect(st.Cov.At(1, 1)).To(Equal(1.0))
		Expect(st.StepSize.Value()).To(Equal(stepSize))
	})
})

var _ = Describe("StraightLineStepper", func() {
	var (
		sls *stepper.StraightLineStepper
		cov *mat.SymDense
		cp  *track.CurvilinearParameters
		st  *stepper.State
	)

	BeforeEach(func() {
		var err error
		sls = stepper.New()
		cov = scaledIdentity(params.BoundSize, 8)
		cp, err = track.NewCurvilinearParameters(cov, pos, mom, charge, time)
		Expect(err).NotTo(HaveOccurred())
		st, err = stepper.NewState(gctx, mctx, cp, stepper.Backward, stepSize, tolerance)
		Expect(err).NotTo(HaveOccurred())
	})

	It("exposes the state", func() {
		Expect(sls.Position(st)).To(Equal(st.Pos))
		Expect(sls.Direction(st)).To(Equal(st.Dir))
		Expect(sls.Momentum(st)).To(Equal(st.P))
		Expect(sls.Charge(st)).To(Equal(st.Q))
		Expect(sls.Time(st)).To(Equal(st.T))
		Expect(sls.OverstepLimit(st)).To(Equal(-tolerance))
	})

	It("overrides and releases the step size", func() {
		original := sls.OutputStepSize(st)

		sls.SetStepSize(st, 1337, stepper.Actor)
		Expect(st.PreviousStepSize).To(Equal(-stepSize))
		Expect(st.StepSize.Value()).To(Equal(1337.0))

		sls.ReleaseStepSize(st)
		Expect(st.StepSize.Value()).To(Equal(-123.0))
		Expect(st.PreviousStepSize).To(Equal(-123.0))
		Expect(sls.OutputStepSize(st)).To(Equal(original))
	})

	It("builds the curvilinear state", func() {
		curv, jac, path, err := sls.CurvilinearState(st)
		Expect(err).NotTo(HaveOccurred())

		expectVec(curv.Position(), cp.Position())
		expectVec(curv.Momentum(), cp.Momentum())
		Expect(curv.Charge()).To(BeNumerically("~", cp.Charge(), 1e-6))
		Expect(curv.Time()).To(BeNumerically("~", cp.Time(), 1e-6))
		Expect(curv.Covariance()).NotTo(BeNil())
		Expect(mat.EqualApprox(curv.Covariance(), cov, 1e-6)).To(BeTrue())
		Expect(mat.EqualApprox(jac, covariance.Identity(params.BoundSize), 1e-6)).To(BeTrue())
		Expect(path).To(BeNumerically("~", 0, 1e-6))
	})

	Context("after a direct update", func() {
		newPos := r3.Vec{X: 2, Y: 4, Z: 8}
		newMom := r3.Vec{X: 3, Y: 9, Z: 27}
		newTime := 321.0

		BeforeEach(func() {
			Expect(sls.UpdatePosition(st, newPos, r3.Unit(newMom), r3.Norm(newMom), newTime)).To(Succeed())
		})

		It("keeps the charge", func() {
			Expect(st.Pos).To(Equal(newPos))
			expectVec(st.Dir, r3.Unit(newMom))
			Expect(st.P).To(Equal(r3.Norm(newMom)))
			Expect(st.Q).To(Equal(charge))
			Expect(st.T).To(Equal(newTime))
		})

		It("transports the covariance and resets the transport jacobian", func() {
			sls.CovarianceTransport(st)
			Expect(mat.EqualApprox(st.Cov, cov, 1e-6)).To(BeFalse())
			Expect(mat.Equal(st.JacToGlobal, mat.NewDense(params.FreeSize, params.BoundSize, nil))).To(BeFalse())
			Expect(mat.Equal(st.JacTransport, covariance.Identity(params.FreeSize))).To(BeTrue())
			Expect(st.Derivative).To(Equal(params.FreeVector{}))
		})

		It("steps with and without covariance transport", func() {
			st.CovTransport = false
			h, err := sls.Step(st, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(st.StepSize.Value()).To(Equal(-stepSize))
			Expect(h).To(Equal(st.StepSize.Value()))
			Expect(mat.EqualApprox(st.Cov, cov, 1e-6)).To(BeTrue())
			Expect(r3.Norm(st.Pos)).To(BeNumerically(">", r3.Norm(newPos)))
			expectVec(st.Dir, r3.Unit(newMom))
			Expect(st.P).To(Equal(r3.Norm(newMom)))
			Expect(st.Q).To(Equal(charge))
			Expect(st.T).To(BeNumerically("<", newTime))
			Expect(st.Derivative).To(Equal(params.FreeVector{}))
			Expect(mat.Equal(st.JacTransport, covariance.Identity(params.FreeSize))).To(BeTrue())

			st.CovTransport = true
			h2, err := sls.Step(st, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(h2).To(Equal(h))
			Expect(st.PathAccumulated).To(Equal(2 * h))
			Expect(mat.EqualApprox(st.Cov, cov, 1e-6)).To(BeTrue())
			Expect(st.T).To(BeNumerically("<", newTime))
			Expect(st.Derivative).NotTo(Equal(params.FreeVector{}))
			Expect(mat.Equal(st.JacTransport, covariance.Identity(params.FreeSize))).To(BeFalse())
		})

		Describe("ResetState", func() {
			var (
				cp2   *track.CurvilinearParameters
				cov2  *mat.SymDense
				free  params.FreeVector
				ref   geom.Surface
				moved *stepper.State
			)

			BeforeEach(func() {
				var err error
				cov2 = scaledIdentity(params.BoundSize, 8.5)
				cp2, err = track.NewCurvilinearParameters(cov2, r3.Vec{X: 1.5, Y: -2.5, Z: 3.5}, r3.Vec{X: 4.5, Y: -5.5, Z: 6.5}, 1, 7.5)
				Expect(err).NotTo(HaveOccurred())
				ref, err = cp2.ReferenceSurface()
				Expect(err).NotTo(HaveOccurred())
				free = transform.BoundToFree(gctx, cp2.BoundVector(), ref)

				_, err = sls.Step(st, opts)
				Expect(err).NotTo(HaveOccurred())
				moved = st.Clone()
			})

			check := func(c *stepper.State) {
				Expect(mat.Equal(c.JacToGlobal, mat.NewDense(params.FreeSize, params.BoundSize, nil))).To(BeFalse())
				Expect(mat.Equal(c.JacToGlobal, moved.JacToGlobal)).To(BeFalse())
				Expect(mat.Equal(c.JacTransport, covariance.Identity(params.FreeSize))).To(BeTrue())
				Expect(mat.Equal(c.Jacobian, covariance.Identity(params.BoundSize))).To(BeTrue())
				Expect(c.Derivative).To(Equal(params.FreeVector{}))
				Expect(c.CovTransport).To(BeTrue())
				Expect(mat.Equal(c.Cov, cov2)).To(BeTrue())
				Expect(c.Pos).To(Equal(free.Position()))
				expectVec(c.Dir, r3.Unit(free.Direction()))
				Expect(c.P).To(BeNumerically("~", math.Abs(1/free.QOverP()), 1e-12))
				// the charge follows the sign of q/p
				Expect(c.Q).To(Equal(1.0))
				Expect(c.T).To(Equal(free.Time()))
				Expect(c.NavDir).To(Equal(stepper.Forward))
				Expect(c.PathAccumulated).To(BeZero())
				Expect(c.PreviousStepSize).To(Equal(moved.PreviousStepSize))
				Expect(c.Tolerance).To(Equal(moved.Tolerance))
			}

			It("restarts with the given step size", func() {
				c := moved.Clone()
				Expect(sls.ResetState(c, cp2.BoundVector(), cp2.Covariance(), ref, stepper.Forward, -2*stepSize)).To(Succeed())
				check(c)
				Expect(c.StepSize.Value()).To(Equal(-2 * stepSize))
			})

			It("restarts unconstrained", func() {
				c := moved.Clone()
				Expect(sls.ResetState(c, cp2.BoundVector(), cp2.Covariance(), ref, stepper.Forward, stepper.Unconstrained)).To(Succeed())
				check(c)
				Expect(c.StepSize.Value()).To(Equal(math.MaxFloat64))
			})
		})
	})

	Context("with surfaces", func() {
		var (
			plane  *geom.PlaneSurface
			target *geom.PlaneSurface
			bp     *track.BoundParameters
		)

		BeforeEach(func() {
			var err error
			plane = geom.NewPlaneSurface(pos, r3.Unit(mom))
			bp, err = track.NewBoundParameters(gctx, cov, pos, mom, charge, time, geom.Detached(plane))
			Expect(err).NotTo(HaveOccurred())
			target = geom.NewPlaneSurface(r3.Add(pos, r3.Scale(float64(stepper.Backward)*2, r3.Unit(mom))), r3.Unit(mom))
		})

		It("constrains the step to a reachable surface", func() {
			status := sls.UpdateSurfaceStatus(st, target, false)
			Expect(status).To(Equal(geom.Reachable))
			Expect(st.StepSize.Limit(stepper.Actor)).To(BeNumerically("~", -2, 1e-9))
			Expect(st.PreviousStepSize).To(Equal(-stepSize))
		})

		It("updates the step size from an intersection", func() {
			is := target.Intersect(gctx, st.Pos, r3.Scale(float64(st.NavDir), st.Dir), false)
			Expect(is.PathLength).To(BeNumerically("~", 2, 1e-9))

			sls.UpdateStepSize(st, is, false)
			Expect(st.StepSize.Value()).To(BeNumerically("~", -2, 1e-9))

			st.StepSize = stepper.NewConstrainedStep(-stepSize)
			sls.UpdateStepSize(st, is, true)
			Expect(st.StepSize.Value()).To(BeNumerically("~", -2, 1e-9))
		})

		It("releases the actor limit on the surface", func() {
			sls.SetStepSize(st, -1, stepper.Actor)
			Expect(sls.UpdateSurfaceStatus(st, plane, false)).To(Equal(geom.OnSurface))
			Expect(st.StepSize.Value()).To(Equal(-stepSize))
		})

		It("reports parallel surfaces as missed", func() {
			Expect(sls.UpdatePosition(st, pos, r3.Vec{X: 1}, 1, 0)).To(Succeed())
			parallel := geom.NewPlaneSurface(r3.Vec{Y: 10}, r3.Vec{Y: 1})
			Expect(sls.UpdateSurfaceStatus(st, parallel, false)).To(Equal(geom.Missed))
		})

		It("rejects surfaces behind the overstep limit", func() {
			st.Tolerance = 1e-3
			ahead := geom.NewPlaneSurface(r3.Add(pos, r3.Scale(5, r3.Unit(mom))), r3.Unit(mom))
			Expect(sls.UpdateSurfaceStatus(st, ahead, false)).To(Equal(geom.Unreachable))
			Expect(st.StepSize.Value()).To(Equal(-stepSize))
		})

		It("builds the bound state", func() {
			bound, jac, path, err := sls.BoundState(st, geom.Detached(plane))
			Expect(err).NotTo(HaveOccurred())

			expectVec(bound.Position(), bp.Position())
			expectVec(bound.Momentum(), bp.Momentum())
			Expect(bound.Charge()).To(BeNumerically("~", bp.Charge(), 1e-6))
			Expect(bound.Time()).To(BeNumerically("~", bp.Time(), 1e-6))
			Expect(bound.Covariance()).NotTo(BeNil())
			Expect(mat.EqualApprox(jac, covariance.Identity(params.BoundSize), 1e-6)).To(BeTrue())
			Expect(path).To(BeNumerically("~", 0, 1e-6))
		})

		It("updates from free parameters", func() {
			bpTarget, err := track.NewBoundParameters(gctx, scaledCov(cov, 2), r3.Scale(2, pos), r3.Scale(2, mom), -charge, 2*time, geom.Detached(target))
			Expect(err).NotTo(HaveOccurred())

			free := params.NewFreeVector(bpTarget.Position(), bpTarget.Time(), bpTarget.Direction(),
				bpTarget.Charge()/bpTarget.AbsoluteMomentum())

			Expect(sls.Update(st, free, bpTarget.Covariance())).To(Succeed())
			Expect(st.Pos).To(Equal(r3.Scale(2, pos)))
			expectVec(st.Dir, r3.Unit(mom))
			Expect(st.P).To(BeNumerically("~", 2*r3.Norm(mom), 1e-9))
			Expect(st.Q).To(Equal(-charge))
			Expect(st.T).To(Equal(2 * time))
			Expect(mat.EqualApprox(st.Cov, scaledCov(cov, 2), 1e-6)).To(BeTrue())

			sls.CovarianceTransportToSurface(st, plane)
			Expect(mat.EqualApprox(st.Cov, cov, 1e-6)).To(BeFalse())
			Expect(mat.Equal(st.JacToGlobal, mat.NewDense(params.FreeSize, params.BoundSize, nil))).To(BeFalse())
			Expect(mat.Equal(st.JacTransport, covariance.Identity(params.FreeSize))).To(BeTrue())
			Expect(st.Derivative).To(Equal(params.FreeVector{}))
		})
	})

	Context("invalid input", func() {
		It("refuses to step without momentum", func() {
			st.P = 0
			_, err := sls.Step(st, opts)
			Expect(err).To(MatchError(stepper.ErrInvalidState))
		})

		It("refuses zero q/p", func() {
			free := st.FreeVector()
			free[params.FreeQOverP] = 0
			Expect(sls.Update(st, free, nil)).To(MatchError(stepper.ErrInvalidState))
		})

		It("refuses a zero direction", func() {
			Expect(sls.UpdatePosition(st, pos, r3.Vec{}, 1, 0)).To(MatchError(stepper.ErrInvalidState))
		})

		It("keeps momentum positive and direction unit after an update", func() {
			free := params.NewFreeVector(pos, 0, r3.Vec{X: 0, Y: 3, Z: 4}, -0.5)
			Expect(sls.Update(st, free, nil)).To(Succeed())
			Expect(st.P).To(BeNumerically(">", 0))
			Expect(r3.Norm(st.Dir)).To(BeNumerically("~", 1, 1e-12))
			Expect(st.Cov).To(BeNil())
		})
	})
})

func scaledCov(c *mat.SymDense, f float64) *mat.SymDense {
	var s mat.SymDense
	s.ScaleSym(f, c)
	return &s
}
