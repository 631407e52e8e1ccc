package traction

import (
	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/suspension"
)

// castVehicle casts the suspension rays of a vehicle against the world.
// Only the vehicle scratch is written, vehicles can be cast in parallel.
func (w *World) castVehicle(v *Vehicle) {
	if len(v.seen) < len(w.Bodies) {
		v.seen = make([]bool, len(w.Bodies))
	}

	for i := range v.Wheels {
		ray := v.Wheels[i].Ray(v.Chassis.Transform, v.enabled[i])
		v.hits[i] = w.raycast(ray, v.Chassis, v)
	}
}

// raycast returns the nearest hit of the ray, ignoring the given body.
func (w *World) raycast(ray suspension.Ray, ignore *actor.RigidBody, v *Vehicle) suspension.Hit {
	v.candidates = w.SpatialGrid.QueryRay(ray.Origin, ray.Direction, ray.Length, v.seen, v.candidates[:0])

	var best suspension.Hit
	for _, bodyIdx := range v.candidates {
		body := w.Bodies[bodyIdx]
		if body == ignore {
			continue
		}

		hit, ok := body.Raycast(ray.Origin, ray.Direction, ray.Length)
		if !ok || (best.Hit && hit.Distance >= best.Distance) {
			continue
		}
		best = suspension.Hit{
			Hit:      true,
			Distance: hit.Distance,
			Position: hit.Position,
			Normal:   hit.Normal,
			Surface:  body.Material.Surface,
			Actor:    body,
		}
	}

	return best
}
