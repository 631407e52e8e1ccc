package traction

import "github.com/akmonengine/traction/drivetrain"

// Observer is called by World.Step once the vehicle updates are done, from
// the stepping goroutine, vehicle after vehicle.
type Observer interface {
	OnSubstep(v *Vehicle, trace SubstepTrace)
	OnWarning(v *Vehicle, warning drivetrain.Warning)
	OnSkip(v *Vehicle, err error)
	OnVehicleUpdate(v *Vehicle, out *Output)
}

// Observers fans out every call to each observer, in order.
type Observers []Observer

func (o Observers) OnSubstep(v *Vehicle, trace SubstepTrace) {
	for _, observer := range o {
		observer.OnSubstep(v, trace)
	}
}

func (o Observers) OnWarning(v *Vehicle, warning drivetrain.Warning) {
	for _, observer := range o {
		observer.OnWarning(v, warning)
	}
}

func (o Observers) OnSkip(v *Vehicle, err error) {
	for _, observer := range o {
		observer.OnSkip(v, err)
	}
}

func (o Observers) OnVehicleUpdate(v *Vehicle, out *Output) {
	for _, observer := range o {
		observer.OnVehicleUpdate(v, out)
	}
}

// notify replays an update to the observer.
func notify(o Observer, v *Vehicle, out *Output) {
	if out.Skipped {
		o.OnSkip(v, out.Err)
		return
	}
	for _, trace := range out.Trace {
		o.OnSubstep(v, trace)
	}
	if out.Warning != drivetrain.WarningNone {
		o.OnWarning(v, out.Warning)
	}
	o.OnVehicleUpdate(v, out)
}
