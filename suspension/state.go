package suspension

import (
	"math"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/friction"
	"github.com/go-gl/mathgl/mgl64"
)

// InvalidJounce marks a previous jounce that must not be used for damping.
const InvalidJounce = math.MaxFloat64

// Hit is a raw suspension raycast result.
type Hit struct {
	Hit      bool
	Distance float64
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	Surface  friction.SurfaceType
	Actor    *actor.RigidBody
}

// Contact is the plane a wheel is resolved against, either from a fresh hit
// or reused from a previous update.
type Contact struct {
	Count              int
	Normal             mgl64.Vec3
	PlaneDistance      float64 // plane: Normal·p + PlaneDistance = 0
	Distance           float64
	FrictionMultiplier float64
	Point              mgl64.Vec3
	Surface            friction.SurfaceType
	Actor              *actor.RigidBody
}

func NewContact(hit Hit, frictionMultiplier float64) Contact {
	if !hit.Hit {
		return Contact{}
	}

	return Contact{
		Count:              1,
		Normal:             hit.Normal,
		PlaneDistance:      -hit.Normal.Dot(hit.Position),
		Distance:           hit.Distance,
		FrictionMultiplier: frictionMultiplier,
		Point:              hit.Position,
		Surface:            hit.Surface,
		Actor:              hit.Actor,
	}
}

// Cached strips the contact down to what can be reused without a new query:
// the plane, the distance and the friction.
func (c Contact) Cached() Contact {
	return Contact{
		Count:              c.Count,
		Normal:             c.Normal,
		PlaneDistance:      c.PlaneDistance,
		Distance:           c.Distance,
		FrictionMultiplier: c.FrictionMultiplier,
		Surface:            c.Surface,
	}
}

// RuntimeState is the per-wheel state carried between updates.
type RuntimeState struct {
	// Rotation angle, wrapped to [-10π, 10π]
	Angle          float64
	Omega          float64
	CorrectedOmega float64

	Jounce     float64
	PrevJounce float64

	LowForwardSpeedTimer float64
	LowSideSpeedTimer    float64

	CachedHit Contact

	Steer  float64
	InAir  bool
	Result Result

	// Force applied to the hit actor over the last update
	HitActorForce         mgl64.Vec3
	HitActorForcePosition mgl64.Vec3
	HitActor              *actor.RigidBody
}

func NewRuntimeState() RuntimeState {
	return RuntimeState{
		PrevJounce: InvalidJounce,
		InAir:      true,
	}
}

// Reset returns the wheel to rest, forgetting any contact.
func (s *RuntimeState) Reset() {
	*s = NewRuntimeState()
}
