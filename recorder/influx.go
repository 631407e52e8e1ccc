package recorder

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
)

const measurementName = "vehicle"

// InfluxSink streams samples to an InfluxDB bucket. Writes are batched and
// sent in the background by the client.
type InfluxSink struct {
	writer influxdb2_api.WriteAPI
}

func NewInfluxSink(client influxdb2.Client, org, bucket string, log zerolog.Logger) *InfluxSink {
	writer := client.WriteAPI(org, bucket)

	errorsCh := writer.Errors()
	go func() {
		for err := range errorsCh {
			log.Error().Err(err).Str("bucket", bucket).Msg("failed to send samples to InfluxDB")
		}
	}()

	return &InfluxSink{writer: writer}
}

func (s *InfluxSink) WriteSample(run *Run, sample *Sample) {
	s.writer.WritePoint(SamplePoint(run, sample))
}

// Flush sends the pending points.
func (s *InfluxSink) Flush() {
	s.writer.Flush()
}

// SamplePoint converts a sample. The point is stamped with the run start
// plus the simulated time of the sample.
func SamplePoint(run *Run, sample *Sample) *influxdb2_write.Point {
	at := run.CreatedAt.Add(time.Duration(sample.SimTime * float64(time.Second)))

	point := influxdb2_write.NewPointWithMeasurement(measurementName).
		AddTag("run", run.Name).
		AddTag("vehicle", sample.Vehicle).
		AddField("tick", sample.Tick).
		SetTime(at)

	if sample.Skipped {
		return point.AddField("skipped", true)
	}

	point.AddField("gear", sample.Gear).
		AddField("engine_omega", sample.EngineOmega).
		AddField("forward_speed", sample.ForwardSpeed).
		AddField("substeps", sample.Substeps).
		AddField("asleep", sample.Asleep)
	if sample.Warning != "" {
		point.AddTag("warning", sample.Warning)
	}

	return point
}
