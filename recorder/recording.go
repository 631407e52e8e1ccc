package recorder

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/akmonengine/traction"
	"github.com/akmonengine/traction/drivetrain"
)

// Sink receives every sample as it is recorded.
type Sink interface {
	WriteSample(run *Run, sample *Sample)
}

// Recording implements traction.Observer. Samples are buffered until Flush.
type Recording struct {
	store *Store
	run   *Run
	sinks []Sink

	mu      sync.Mutex
	ticks   map[*traction.Vehicle]int
	pending []Sample
}

func newRecording(store *Store, run *Run, sinks []Sink) *Recording {
	return &Recording{
		store: store,
		run:   run,
		sinks: sinks,
		ticks: make(map[*traction.Vehicle]int),
	}
}

func (r *Recording) Run() *Run {
	return r.run
}

// OnSubstep does nothing, only whole ticks are recorded.
func (r *Recording) OnSubstep(v *traction.Vehicle, trace traction.SubstepTrace) {}

// OnWarning does nothing, the warning is read from the output.
func (r *Recording) OnWarning(v *traction.Vehicle, warning drivetrain.Warning) {}

func (r *Recording) OnSkip(v *traction.Vehicle, err error) {
	sample := r.newSample(v)
	sample.Skipped = true
	if err != nil {
		sample.Error = err.Error()
	}
	r.add(sample)
}

func (r *Recording) OnVehicleUpdate(v *traction.Vehicle, out *traction.Output) {
	sample := r.newSample(v)
	sample.Asleep = out.Asleep
	sample.Gear = out.Gear
	sample.EngineOmega = out.EngineOmega
	sample.ForwardSpeed = out.ForwardSpeed
	sample.Substeps = out.Substeps
	if out.Warning != drivetrain.WarningNone {
		sample.Warning = out.Warning.String()
	}

	wheels := make([]WheelSnapshot, len(out.Wheels))
	for i, w := range out.Wheels {
		wheels[i] = WheelSnapshot{
			InAir:           w.InAir,
			Surface:         uint32(w.Surface),
			Jounce:          w.Jounce,
			SuspensionForce: w.SuspensionForce,
			TireLoad:        w.TireLoad,
			LongSlip:        w.LongSlip,
			LatSlip:         w.LatSlip,
			Steer:           w.Steer,
			Omega:           w.Omega,
		}
	}
	// plain floats and bools always marshal
	sample.Wheels, _ = json.Marshal(wheels)

	r.add(sample)
}

// newSample starts the sample of the next tick of a vehicle.
func (r *Recording) newSample(v *traction.Vehicle) Sample {
	r.mu.Lock()
	tick := r.ticks[v]
	r.ticks[v] = tick + 1
	r.mu.Unlock()

	return Sample{
		RunID:   r.run.ID,
		Vehicle: v.Name,
		Tick:    tick,
		SimTime: float64(tick+1) * r.run.Dt,
	}
}

func (r *Recording) add(sample Sample) {
	for _, sink := range r.sinks {
		sink.WriteSample(r.run, &sample)
	}

	r.mu.Lock()
	r.pending = append(r.pending, sample)
	r.mu.Unlock()
}

// Pending returns the number of samples waiting for Flush.
func (r *Recording) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Flush writes the buffered samples to the store.
func (r *Recording) Flush(ctx context.Context) error {
	r.mu.Lock()
	samples := r.pending
	r.pending = nil
	r.mu.Unlock()

	if err := r.store.insert(ctx, samples); err != nil {
		r.store.logger.Error().Err(err).Int("samples", len(samples)).Str("run", r.run.Name).Msg("failed to write samples")
		return err
	}
	return nil
}
