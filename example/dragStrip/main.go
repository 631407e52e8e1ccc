// dragStrip runs a standing start on a flat strip and records every tick.
//
//	go run ./example/dragStrip -seconds 12 -db drag.db
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/akmonengine/traction"
	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/config"
	"github.com/akmonengine/traction/gearbox"
	"github.com/akmonengine/traction/recorder"
	"github.com/akmonengine/traction/telemetry"
	"github.com/go-gl/mathgl/mgl64"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/rs/zerolog"
)

const dt = 1.0 / 60

const defaultCar = `{
	"vehicle": {
		"name": "dragster",
		"chassis": { "mass": 1200, "position": [0, 0.85, 0] },
		"engine": { "peakTorque": 600, "maxOmega": 700 },
		"diff": { "type": "LS_REARWD" },
		"wheel": { "radius": 0.35 },
		"wheels": [
			{ "offset": [-0.8, -0.5, 1.3], "maxSteer": 30 },
			{ "offset": [0.8, -0.5, 1.3], "maxSteer": 30 },
			{ "offset": [-0.8, -0.5, -1.3], "maxHandBrakeTorque": 4000 },
			{ "offset": [0.8, -0.5, -1.3], "maxHandBrakeTorque": 4000 }
		]
	}
}`

var (
	configPath   = flag.String("config", "", "JSON vehicle description, a stock dragster if empty")
	seconds      = flag.Float64("seconds", 10, "simulated duration of the run")
	dbPath       = flag.String("db", "", "SQLite file for the samples, in memory if empty")
	graylogAddr  = flag.String("graylog", "", "GELF UDP address, e.g. localhost:12201")
	influxURL    = flag.String("influx", "", "InfluxDB URL, e.g. http://localhost:8086")
	influxToken  = flag.String("influx-token", "", "InfluxDB token")
	influxOrg    = flag.String("influx-org", "traction", "InfluxDB organization")
	influxBucket = flag.String("influx-bucket", "runs", "InfluxDB bucket")
	debug        = flag.Bool("debug", false, "log gear changes")
)

func newLogger() zerolog.Logger {
	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339},
	}

	if *graylogAddr != "" {
		gelfWriter, err := gelf.NewWriter(*graylogAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Graylog disabled: %v\n", err)
		} else {
			writers = append(writers, gelfWriter)
		}
	}

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.LoadFile(*configPath)
	}
	return config.Load(strings.NewReader(defaultCar))
}

func main() {
	flag.Parse()
	log := newLogger()

	if err := run(log); err != nil {
		log.Error().Err(err).Msg("drag run failed")
		os.Exit(1)
	}
}

func run(log zerolog.Logger) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	world, err := cfg.World.Build()
	if err != nil {
		return err
	}
	world.Logger = log

	strip := actor.NewRigidBody(actor.NewTransform(), &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}}, actor.BodyTypeStatic, 0)
	world.AddBody(strip)

	car, err := cfg.Vehicle.Build()
	if err != nil {
		return err
	}
	world.AddVehicle(car)

	store, err := recorder.Open(recorder.Config{Driver: recorder.DriverSQLite, DSN: *dbPath}, log)
	if err != nil {
		return err
	}
	defer store.Close()

	var sinks []recorder.Sink
	if *influxURL != "" {
		client := influxdb2.NewClient(*influxURL, *influxToken)
		defer client.Close()

		influx := recorder.NewInfluxSink(client, *influxOrg, *influxBucket, log)
		defer influx.Flush()
		sinks = append(sinks, influx)
	}

	rec, err := store.StartRun(ctx, "dragStrip", dt, sinks...)
	if err != nil {
		return err
	}
	metrics, err := telemetry.New()
	if err != nil {
		return err
	}
	world.Observer = traction.Observers{rec, metrics}

	world.Events.Subscribe(traction.GEAR_CHANGE, func(event traction.Event) {
		e := event.(traction.GearChangeEvent)
		log.Info().
			Str("vehicle", e.Vehicle.Name).
			Str("gear", gearbox.GearName(e.To)).
			Float64("speed", e.Vehicle.ForwardSpeed()).
			Msg("shift")
	})

	car.Gearbox.UseAutoGears = true
	if err := car.Gearbox.ForceGearChange(&car.Drive.Engine.Gears, gearbox.First); err != nil {
		return err
	}

	start := car.Chassis.Transform.Position
	quarterMile := 402.336
	quarterTime := 0.0
	ticks := int(*seconds / dt)
	for i := 0; i < ticks; i++ {
		car.Controls.Accel = 1
		world.Step(dt)

		distance := car.Chassis.Transform.Position.Sub(start).Dot(mgl64.Vec3{0, 0, 1})
		if quarterTime == 0 && distance >= quarterMile {
			quarterTime = float64(i+1) * dt
		}
		if (i+1)%60 == 0 {
			if err := rec.Flush(ctx); err != nil {
				return err
			}
		}
	}
	if err := rec.Flush(ctx); err != nil {
		return err
	}

	distance := car.Chassis.Transform.Position.Sub(start).Dot(mgl64.Vec3{0, 0, 1})
	event := log.Info().
		Float64("distance", distance).
		Float64("speed_kmh", car.ForwardSpeed()*3.6).
		Str("gear", gearbox.GearName(car.Gearbox.Current)).
		Float64("rpm", car.EngineRPM())
	if quarterTime > 0 {
		event = event.Float64("quarter_mile_s", quarterTime)
	}
	event.Msg("run finished")

	samples, err := store.Samples(ctx, rec.Run().ID, car.Name)
	if err != nil {
		return err
	}
	log.Info().Int("samples", len(samples)).Uint("run", rec.Run().ID).Msg("samples recorded")

	return nil
}
