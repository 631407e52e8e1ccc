// Package telemetry exports vehicle updates as OpenTelemetry metrics.
package telemetry

import (
	"context"
	"fmt"

	"github.com/akmonengine/traction"
	"github.com/akmonengine/traction/drivetrain"
	"github.com/akmonengine/traction/gearbox"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/akmonengine/traction/telemetry"

// Observer implements traction.Observer. Every measurement carries the
// vehicle name.
type Observer struct {
	updates     metric.Int64Counter
	skipped     metric.Int64Counter
	warnings    metric.Int64Counter
	gearChanges metric.Int64Counter
	substeps    metric.Int64Histogram
	engineOmega metric.Float64Gauge
}

// New creates an observer on the global meter provider (no-op if not configured).
func New() (*Observer, error) {
	return NewObserver(otel.Meter(instrumentationName))
}

func NewObserver(meter metric.Meter) (*Observer, error) {
	o := &Observer{}

	var err error
	o.updates, err = meter.Int64Counter(
		"traction.vehicle.updates",
		metric.WithDescription("Vehicle updates applied to the chassis"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating updates counter: %w", err)
	}

	o.skipped, err = meter.Int64Counter(
		"traction.vehicle.skipped",
		metric.WithDescription("Vehicle updates rejected by validation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	o.warnings, err = meter.Int64Counter(
		"traction.solver.warnings",
		metric.WithDescription("Drivetrain solver warnings"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating warnings counter: %w", err)
	}

	o.gearChanges, err = meter.Int64Counter(
		"traction.gear.changes",
		metric.WithDescription("Gear changes, counted when the new gear engages"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gear changes counter: %w", err)
	}

	o.substeps, err = meter.Int64Histogram(
		"traction.vehicle.substeps",
		metric.WithDescription("Substeps per vehicle update"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 8, 16),
	)
	if err != nil {
		return nil, fmt.Errorf("creating substeps histogram: %w", err)
	}

	o.engineOmega, err = meter.Float64Gauge(
		"traction.engine.omega",
		metric.WithDescription("Engine rotational speed"),
		metric.WithUnit("rad/s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating engine omega gauge: %w", err)
	}

	return o, nil
}

func vehicleAttr(v *traction.Vehicle) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("vehicle", v.Name))
}

// OnSubstep does nothing, substeps are counted from the output.
func (o *Observer) OnSubstep(v *traction.Vehicle, trace traction.SubstepTrace) {}

func (o *Observer) OnWarning(v *traction.Vehicle, warning drivetrain.Warning) {
	o.warnings.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("vehicle", v.Name),
		attribute.Stringer("warning", warning),
	))
}

func (o *Observer) OnSkip(v *traction.Vehicle, err error) {
	o.skipped.Add(context.Background(), 1, vehicleAttr(v))
}

func (o *Observer) OnVehicleUpdate(v *traction.Vehicle, out *traction.Output) {
	ctx := context.Background()
	attr := vehicleAttr(v)

	o.engineOmega.Record(ctx, out.EngineOmega, attr)
	if out.Asleep {
		return
	}

	o.updates.Add(ctx, 1, attr)
	o.substeps.Record(ctx, int64(out.Substeps), attr)
	if out.Gear != out.PreviousGear {
		o.gearChanges.Add(ctx, 1, metric.WithAttributes(
			attribute.String("vehicle", v.Name),
			attribute.String("gear", gearbox.GearName(out.Gear)),
		))
	}
}
