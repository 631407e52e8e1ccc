// dashboard drives a car in the terminal.
//
// Up accelerates, Down brakes, Left and Right steer, Space pulls the
// handbrake, A and Z shift up and down, G toggles the automatic gearbox.
// Esc quits.
package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/akmonengine/traction"
	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/drivetrain"
	"github.com/akmonengine/traction/gearbox"
	"github.com/akmonengine/traction/suspension"
	"github.com/akmonengine/traction/tire"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

const (
	dt         = 1.0 / 60
	frameDelay = time.Second / 60
	// inputHoldMs is how long a key counts as held after its last repeat
	inputHoldMs = 120
)

var wheelNames = []string{"FL", "FR", "RL", "RR"}

type Dashboard struct {
	screen tcell.Screen
	world  *traction.World
	car    *traction.Vehicle

	// last press of each control key
	pressed map[tcell.Key]time.Time
	warning drivetrain.Warning
	landed  int
}

func newCar() (*traction.Vehicle, error) {
	offsets := []mgl64.Vec3{{-0.8, -0.5, 1.3}, {0.8, -0.5, 1.3}, {-0.8, -0.5, -1.3}, {0.8, -0.5, -1.3}}

	wheels := make([]suspension.WheelSim, len(offsets))
	for i, offset := range offsets {
		wheels[i] = suspension.WheelSim{
			Wheel: suspension.Wheel{
				Radius:         0.35,
				Width:          0.25,
				Mass:           20,
				MOI:            1.2,
				DampingRate:    0.25,
				MaxBrakeTorque: 1500,
			},
			Suspension: suspension.Suspension{
				MaxCompression:   0.3,
				MaxDroop:         0.1,
				SpringStrength:   35000,
				SpringDamperRate: 4500,
			},
			Tire: tire.DefaultData(),
			Geometry: suspension.Geometry{
				SuspensionTravelDir:      mgl64.Vec3{0, -1, 0},
				WheelCentreOffset:        offset,
				SuspensionForceAppOffset: offset,
				TireForceAppOffset:       offset,
			},
		}
		if i < 2 {
			wheels[i].Wheel.MaxSteer = math.Pi / 4
		} else {
			wheels[i].Wheel.MaxHandBrakeTorque = 4000
		}
	}

	transform := actor.NewTransform()
	transform.Position = mgl64.Vec3{0, 0.85, 0}
	chassis := actor.NewRigidBody(transform, &actor.Box{HalfExtents: mgl64.Vec3{1, 0.5, 2.2}}, actor.BodyTypeDynamic, 1)
	chassis.SetMass(1200)

	drive := traction.NewDrive4W()
	drive.Ackermann.FrontWidth = 1.6
	drive.Ackermann.RearWidth = 1.6
	drive.Ackermann.AxleSeparation = 2.6

	car, err := traction.NewVehicle(traction.VehicleDesc{
		Name:                "car",
		Chassis:             chassis,
		Wheels:              wheels,
		Drive:               drive,
		ComputeSprungMasses: true,
	})
	if err != nil {
		return nil, err
	}
	car.Gearbox.UseAutoGears = true
	return car, nil
}

func NewDashboard() (*Dashboard, error) {
	car, err := newCar()
	if err != nil {
		return nil, err
	}

	world := traction.NewWorld(mgl64.Vec3{0, -9.81, 0})
	world.AddBody(actor.NewRigidBody(actor.NewTransform(), &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}}, actor.BodyTypeStatic, 0))
	world.AddVehicle(car)

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		screen:  screen,
		world:   world,
		car:     car,
		pressed: make(map[tcell.Key]time.Time),
	}

	// the screen owns the terminal, warnings are shown in the dashboard
	world.Logger = zerolog.Nop()
	world.Events.Subscribe(traction.SOLVER_WARNING, func(event traction.Event) {
		d.warning = event.(traction.SolverWarningEvent).Warning
	})
	world.Events.Subscribe(traction.WHEEL_LANDED, func(event traction.Event) {
		d.landed++
	})

	return d, nil
}

func (d *Dashboard) held(key tcell.Key, now time.Time) float64 {
	if now.Sub(d.pressed[key]).Milliseconds() < inputHoldMs {
		return 1
	}
	return 0
}

// handleInput returns false to quit.
func (d *Dashboard) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp, tcell.KeyDown, tcell.KeyLeft, tcell.KeyRight:
			d.pressed[ev.Key()] = time.Now()
		case tcell.KeyRune:
			switch ev.Rune() {
			case ' ':
				d.pressed[tcell.KeyRune] = time.Now()
			case 'a':
				d.shift(d.car.Gearbox.Target + 1)
			case 'z':
				d.shift(d.car.Gearbox.Target - 1)
			case 'g':
				d.car.Gearbox.UseAutoGears = !d.car.Gearbox.UseAutoGears
			case 'q':
				return false
			}
		}
	case *tcell.EventResize:
		d.screen.Sync()
	}

	return true
}

func (d *Dashboard) shift(gear int) {
	gears := &d.car.Drive.Engine.Gears
	if gear < gearbox.Reverse || gear >= gears.NbRatios() {
		return
	}
	_ = d.car.Gearbox.StartGearChange(gears, gear)
}

func (d *Dashboard) update(now time.Time) {
	c := &d.car.Controls
	c.Accel = d.held(tcell.KeyUp, now)
	c.Brake = d.held(tcell.KeyDown, now)
	c.SteerLeft = d.held(tcell.KeyLeft, now)
	c.SteerRight = d.held(tcell.KeyRight, now)
	c.Handbrake = d.held(tcell.KeyRune, now)

	d.world.Step(dt)
}

func (d *Dashboard) print(x, y int, style tcell.Style, format string, args ...any) {
	for _, r := range fmt.Sprintf(format, args...) {
		d.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (d *Dashboard) bar(x, y, width int, value float64, style tcell.Style) {
	filled := int(math.Round(math.Min(1, math.Max(0, value)) * float64(width)))
	for i := 0; i < width; i++ {
		r := '·'
		if i < filled {
			r = '█'
		}
		d.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (d *Dashboard) draw() {
	d.screen.Clear()

	out := d.car.Output()
	title := tcell.StyleDefault.Bold(true)
	normal := tcell.StyleDefault
	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)

	gearStyle := normal.Foreground(tcell.ColorGreen)
	if d.car.Gearbox.Changing() {
		gearStyle = normal.Foreground(tcell.ColorYellow)
	}
	mode := "manual"
	if d.car.Gearbox.UseAutoGears {
		mode = "auto"
	}

	rpm := d.car.EngineRPM()
	maxRPM := d.car.Drive.Engine.Engine.MaxOmega * 60 / (2 * math.Pi)

	d.print(2, 1, title, "traction dashboard")
	d.print(2, 3, normal, "gear   ")
	d.print(9, 3, gearStyle, "%-8s", gearbox.GearName(d.car.Gearbox.Current))
	d.print(18, 3, dim, "(%s)", mode)
	d.print(2, 4, normal, "speed  %6.1f km/h", d.car.ForwardSpeed()*3.6)
	d.print(2, 5, normal, "rpm    %6.0f", rpm)
	rpmStyle := normal.Foreground(tcell.ColorGreen)
	if rpm > 0.85*maxRPM {
		rpmStyle = normal.Foreground(tcell.ColorRed)
	}
	d.bar(22, 5, 30, rpm/maxRPM, rpmStyle)
	d.print(2, 6, dim, "substeps %d, landings %d", out.Substeps, d.landed)

	d.print(2, 8, title, "wheel  air  jounce   load    long slip  lat slip   steer")
	for i, w := range out.Wheels {
		air := "-"
		if w.InAir {
			air = "x"
		}
		d.print(2, 9+i, normal, "%-5s  %-3s  %+6.3f  %6.0f  %+9.3f  %+8.3f  %+6.1f°",
			wheelNames[i%len(wheelNames)], air, w.Jounce, w.TireLoad, w.LongSlip, w.LatSlip, w.Steer*180/math.Pi)
	}

	y := 10 + len(out.Wheels)
	if d.warning != drivetrain.WarningNone {
		d.print(2, y, normal.Foreground(tcell.ColorYellow), "solver: %s", d.warning)
	}
	if d.car.Chassis.IsSleeping {
		d.print(2, y+1, dim, "asleep")
	}
	d.print(2, y+3, dim, "arrows drive, space handbrake, a/z shift, g auto gears, esc quits")

	d.screen.Show()
}

func (d *Dashboard) run() {
	ticker := time.NewTicker(frameDelay)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- d.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !d.handleInput(ev) {
				return
			}
		case now := <-ticker.C:
			d.update(now)
			d.draw()
		}
	}
}

func main() {
	dashboard, err := NewDashboard()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer dashboard.screen.Fini()

	dashboard.run()
}
