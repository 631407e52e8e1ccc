// Package constraint solves the velocity constraints a vehicle adds to its
// chassis: sticky tire friction at rest and the suspension compression limit.
package constraint

import (
	"math"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/suspension"
	"github.com/go-gl/mathgl/mgl64"
)

type Constraint interface {
	SolveVelocity(dt float64)
}

type RowKind int

const (
	RowStickyForward RowKind = iota
	RowStickySide
	RowSuspensionLimit
)

const (
	// LimitBaumgarte is the share of the suspension limit error removed per second of dt.
	LimitBaumgarte = 0.2
	// Iterations of the sequential impulse loop
	DefaultIterations = 4
)

// Row is one scalar velocity constraint: the chassis velocity at Offset along
// Dir must equal Target (or exceed it for unilateral rows).
type Row struct {
	Kind       RowKind
	Dir        mgl64.Vec3
	Offset     mgl64.Vec3
	Target     float64
	Unilateral bool

	effectiveMass float64
	accumulated   float64
}

// VehicleConstraint gathers the rows of one vehicle for one step.
type VehicleConstraint struct {
	Body       *actor.RigidBody
	Rows       []Row
	Iterations int
}

func NewVehicleConstraint(body *actor.RigidBody) *VehicleConstraint {
	return &VehicleConstraint{
		Body:       body,
		Iterations: DefaultIterations,
	}
}

// AddWheel adds the active sticky and limit rows of a wheel result.
func (c *VehicleConstraint) AddWheel(res *suspension.Result, dt float64) {
	if res.InAir {
		return
	}

	if res.Forward.Active {
		c.Rows = append(c.Rows, Row{
			Kind:   RowStickyForward,
			Dir:    res.Forward.Dir,
			Offset: res.Forward.Offset,
			Target: res.Forward.Target,
		})
	}
	if res.Side.Active {
		c.Rows = append(c.Rows, Row{
			Kind:   RowStickySide,
			Dir:    res.Side.Dir,
			Offset: res.Side.Offset,
			Target: res.Side.Target,
		})
	}
	if res.Limit.Active && dt > 0 {
		// the travel dir points down: push the chassis back up
		c.Rows = append(c.Rows, Row{
			Kind:       RowSuspensionLimit,
			Dir:        res.Limit.Dir.Mul(-1),
			Offset:     res.Limit.Offset,
			Target:     res.Limit.Error * LimitBaumgarte / dt,
			Unilateral: true,
		})
	}
}

func (c *VehicleConstraint) Reset() {
	c.Rows = c.Rows[:0]
}

func (c *VehicleConstraint) SolveVelocity(dt float64) {
	body := c.Body
	if len(c.Rows) == 0 || body.BodyType != actor.BodyTypeDynamic {
		return
	}

	invMass := body.InverseMass()
	invInertia := body.GetInverseInertiaWorld()

	for i := range c.Rows {
		row := &c.Rows[i]
		rCrossD := row.Offset.Cross(row.Dir)
		k := invMass + invInertia.Mul3x1(rCrossD).Dot(rCrossD)
		row.effectiveMass = 0
		if k > 1e-10 {
			row.effectiveMass = 1.0 / k
		}
		row.accumulated = 0
	}

	for range max(1, c.Iterations) {
		for i := range c.Rows {
			row := &c.Rows[i]
			if row.effectiveMass == 0 {
				continue
			}

			v := body.Velocity.Add(body.AngularVelocity.Cross(row.Offset)).Dot(row.Dir)
			lambda := (row.Target - v) * row.effectiveMass

			if row.Unilateral {
				// the limit can only push
				previous := row.accumulated
				row.accumulated = math.Max(0, previous+lambda)
				lambda = row.accumulated - previous
			} else {
				row.accumulated += lambda
			}

			impulse := row.Dir.Mul(lambda)
			body.Velocity = body.Velocity.Add(impulse.Mul(invMass))
			body.AngularVelocity = body.AngularVelocity.Add(invInertia.Mul3x1(row.Offset.Cross(impulse)))
		}
	}
}

// Impulse returns the total impulse applied by a row during the last solve.
func (c *VehicleConstraint) Impulse(i int) float64 {
	return c.Rows[i].accumulated
}
