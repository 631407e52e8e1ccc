package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/akmonengine/traction"
	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/drivetrain"
	"github.com/akmonengine/traction/gearbox"
	"github.com/akmonengine/traction/suspension"
	"github.com/akmonengine/traction/tire"
	"github.com/go-gl/mathgl/mgl64"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
)

const testDt = 1.0 / 60

type countingSink struct {
	samples []Sample
}

func (s *countingSink) WriteSample(run *Run, sample *Sample) {
	s.samples = append(s.samples, *sample)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(Config{Driver: DriverSQLite}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestVehicle(t *testing.T, height float64) *traction.Vehicle {
	t.Helper()

	offsets := []mgl64.Vec3{{-0.8, -0.5, 1.3}, {0.8, -0.5, 1.3}, {-0.8, -0.5, -1.3}, {0.8, -0.5, -1.3}}
	wheels := make([]suspension.WheelSim, len(offsets))
	for i, offset := range offsets {
		wheels[i] = suspension.WheelSim{
			Wheel:      suspension.Wheel{Radius: 0.35, Width: 0.25, Mass: 20, MOI: 1.2, DampingRate: 0.25, MaxBrakeTorque: 1500},
			Suspension: suspension.Suspension{MaxCompression: 0.3, MaxDroop: 0.1, SpringStrength: 35000, SpringDamperRate: 4500, SprungMass: 250},
			Tire:       tire.DefaultData(),
			Geometry: suspension.Geometry{
				SuspensionTravelDir:      mgl64.Vec3{0, -1, 0},
				WheelCentreOffset:        offset,
				SuspensionForceAppOffset: offset,
				TireForceAppOffset:       offset,
			},
		}
	}

	transform := actor.NewTransform()
	transform.Position = mgl64.Vec3{0, height, 0}
	chassis := actor.NewRigidBody(transform, &actor.Box{HalfExtents: mgl64.Vec3{1, 0.5, 2.2}}, actor.BodyTypeDynamic, 1)
	chassis.SetMass(1000)

	v, err := traction.NewVehicle(traction.VehicleDesc{Name: "car", Chassis: chassis, Wheels: wheels, Drive: traction.NewDrive4W()})
	if err != nil {
		t.Fatalf("NewVehicle() error = %v", err)
	}
	return v
}

// ============================================================================
// Store
// ============================================================================

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"}, zerolog.Nop())
	if !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Open() error = %v, want %v", err, ErrUnknownDriver)
	}
}

func TestStore_Runs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second"} {
		if _, err := store.StartRun(ctx, name, testDt); err != nil {
			t.Fatalf("StartRun() error = %v", err)
		}
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 2 || runs[0].Name != "first" || runs[1].Name != "second" {
		t.Errorf("Runs() = %+v, want first and second", runs)
	}
	if runs[0].Dt != testDt {
		t.Errorf("Dt = %v, want %v", runs[0].Dt, testDt)
	}
}

// ============================================================================
// Recording
// ============================================================================

func TestRecording_Flush(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	sink := &countingSink{}

	rec, err := store.StartRun(ctx, "flush", testDt, sink)
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	v := newTestVehicle(t, 0.85)

	out := &traction.Output{
		Wheels:       make([]traction.WheelOutput, 4),
		Gear:         gearbox.First,
		EngineOmega:  210,
		ForwardSpeed: 4.5,
		Substeps:     3,
		Warning:      drivetrain.WarningResidual,
	}
	out.Wheels[2].Jounce = 0.04
	out.Wheels[3].InAir = true

	rec.OnVehicleUpdate(v, out)
	rec.OnSkip(v, traction.ErrNoGravity)

	if rec.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", rec.Pending())
	}
	if len(sink.samples) != 2 {
		t.Errorf("sink samples = %d, want 2", len(sink.samples))
	}

	if err := rec.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if rec.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 after flush", rec.Pending())
	}

	samples, err := store.Samples(ctx, rec.Run().ID, "car")
	if err != nil {
		t.Fatalf("Samples() error = %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(samples))
	}

	first := samples[0]
	if first.Tick != 0 || first.Gear != gearbox.First || first.EngineOmega != 210 || first.Substeps != 3 {
		t.Errorf("first sample = %+v", first)
	}
	if first.Warning != drivetrain.WarningResidual.String() {
		t.Errorf("Warning = %q, want %q", first.Warning, drivetrain.WarningResidual.String())
	}
	if math.Abs(first.SimTime-testDt) > 1e-12 {
		t.Errorf("SimTime = %v, want %v", first.SimTime, testDt)
	}

	var wheels []WheelSnapshot
	if err := json.Unmarshal(first.Wheels, &wheels); err != nil {
		t.Fatalf("wheels: %v", err)
	}
	if len(wheels) != 4 || wheels[2].Jounce != 0.04 || !wheels[3].InAir {
		t.Errorf("wheels = %+v", wheels)
	}

	second := samples[1]
	if second.Tick != 1 || !second.Skipped || !strings.Contains(second.Error, "gravity") {
		t.Errorf("second sample = %+v, want a skipped tick", second)
	}
}

func TestRecording_FlushEmpty(t *testing.T) {
	store := openTestStore(t)
	rec, err := store.StartRun(context.Background(), "empty", testDt)
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	if err := rec.Flush(context.Background()); err != nil {
		t.Errorf("Flush() error = %v, want nil", err)
	}
}

func TestRecording_WorldStep(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec, err := store.StartRun(ctx, "rest", testDt)
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	world := traction.NewWorld(mgl64.Vec3{0, -9.81, 0})
	world.AddBody(actor.NewRigidBody(actor.NewTransform(), &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}}, actor.BodyTypeStatic, 0))
	world.AddVehicle(newTestVehicle(t, 0.85))
	world.Observer = rec

	for i := 0; i < 10; i++ {
		world.Step(testDt)
	}
	if err := rec.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	samples, err := store.Samples(ctx, rec.Run().ID, "car")
	if err != nil {
		t.Fatalf("Samples() error = %v", err)
	}
	if len(samples) != 10 {
		t.Fatalf("samples = %d, want 10", len(samples))
	}
	for i, s := range samples {
		if s.Tick != i {
			t.Errorf("sample %d: Tick = %d", i, s.Tick)
		}
	}
	if last := samples[9].SimTime; math.Abs(last-10*testDt) > 1e-9 {
		t.Errorf("last SimTime = %v, want %v", last, 10*testDt)
	}
}

// ============================================================================
// Influx
// ============================================================================

func TestSamplePoint(t *testing.T) {
	run := &Run{Name: "drag", CreatedAt: time.Unix(1700000000, 0)}

	tests := []struct {
		name   string
		sample Sample
		want   []string
		absent []string
	}{
		{
			name:   "update",
			sample: Sample{Vehicle: "car", Tick: 59, SimTime: 1, Gear: 2, EngineOmega: 120, ForwardSpeed: 3.5, Substeps: 3},
			want:   []string{"vehicle,", "run=drag", "vehicle=car", "gear=2i", "engine_omega=120", "forward_speed=3.5", "substeps=3i", "tick=59i", " 1700000001000000000"},
			absent: []string{"skipped", "warning"},
		},
		{
			name:   "warning",
			sample: Sample{Vehicle: "car", Warning: "residual"},
			want:   []string{"warning=residual"},
		},
		{
			name:   "skipped",
			sample: Sample{Vehicle: "car", Skipped: true},
			want:   []string{"skipped=true"},
			absent: []string{"gear="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := influxdb2_write.PointToLineProtocol(SamplePoint(run, &tt.sample), time.Nanosecond)

			for _, s := range tt.want {
				if !strings.Contains(line, s) {
					t.Errorf("line %q does not contain %q", line, s)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(line, s) {
					t.Errorf("line %q contains %q", line, s)
				}
			}
		})
	}
}
