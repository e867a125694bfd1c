// Command heatsim runs the Crank–Nicolson heat solver and writes PNG
// snapshots of the temperature field.
//
// Usage:
//
//	heatsim -n 256 -steps 200 -every 20 -out frames
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/heat"
	"github.com/gogpu/heat/backend"
	_ "github.com/gogpu/heat/backend/software"
	_ "github.com/gogpu/heat/backend/wgpu"
	"github.com/gogpu/heat/gpucore"
)

type options struct {
	cfg     heat.Config
	steps   int
	every   int
	out     string
	scale   int
	backend string
	verbose bool
}

func parseFlags(args []string) (options, error) {
	def := heat.DefaultConfig()
	var o options

	fs := flag.NewFlagSet("heatsim", flag.ContinueOnError)
	fs.IntVar(&o.cfg.N, "n", 128, "grid points per axis")
	alpha := fs.Float64("alpha", float64(def.Alpha), "thermal diffusivity")
	dt := fs.Float64("dt", float64(def.Dt), "time step")
	fs.IntVar(&o.cfg.CGSteps, "cg-steps", def.CGSteps, "CG iterations per time step")
	fs.IntVar(&o.steps, "steps", 100, "time steps to run")
	fs.IntVar(&o.every, "every", 10, "write a frame every k steps (0 writes only the last)")
	fs.StringVar(&o.out, "out", "frames", "output directory")
	fs.IntVar(&o.scale, "scale", 2, "frame magnification")
	fs.StringVar(&o.backend, "backend", "", "device backend: wgpu or software (default: first that opens)")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.cfg.Alpha = float32(*alpha)
	o.cfg.Dt = float32(*dt)

	switch {
	case o.steps < 0:
		return o, fmt.Errorf("-steps = %d, must not be negative", o.steps)
	case o.every < 0:
		return o, fmt.Errorf("-every = %d, must not be negative", o.every)
	case o.scale < 1:
		return o, fmt.Errorf("-scale = %d, must be at least 1", o.scale)
	}
	return o, o.cfg.Validate()
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		log.Fatalf("heatsim: %v", err)
	}
	if err := run(o); err != nil {
		log.Fatalf("heatsim: %v", err)
	}
}

func openDevice(name string) (gpucore.Adapter, error) {
	if name == "" {
		return backend.Default()
	}
	return backend.Open(name)
}

func run(o options) error {
	if o.verbose {
		heat.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	dev, err := openDevice(o.backend)
	if err != nil {
		return err
	}
	defer dev.Destroy()

	caps := dev.Capabilities()
	log.Printf("device %s, %d×%d grid, %s of device memory (max buffer %s)",
		caps.Name, o.cfg.N, o.cfg.N, humanize.Bytes(o.cfg.DeviceBytes()), humanize.Bytes(caps.MaxBufferSize))

	sim, err := heat.New(dev, o.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = sim.Close() }()

	field := Seed(o.cfg.N, 1)
	if err := sim.Seed(field); err != nil {
		return err
	}
	colors := NewColormap(field)

	if err := os.MkdirAll(o.out, 0o755); err != nil {
		return err
	}
	frames := 0
	write := func() error {
		f, err := sim.Read()
		if err != nil {
			return err
		}
		name := filepath.Join(o.out, fmt.Sprintf("frame_%05d.png", sim.Steps()))
		if err := WriteFrame(name, o.cfg.N, f, colors, o.scale); err != nil {
			return err
		}
		frames++
		return nil
	}
	if err := write(); err != nil {
		return err
	}

	bar := newProgress(o.steps)
	for i := 1; i <= o.steps; i++ {
		if err := sim.Step(); err != nil {
			return err
		}
		if (o.every > 0 && i%o.every == 0) || i == o.steps {
			if err := write(); err != nil {
				return err
			}
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	last, err := sim.Read()
	if err != nil {
		return err
	}
	p := message.NewPrinter(language.English)
	p.Printf("%d steps of %d CG iterations, t = %.4f, heat %.6f, %d frames in %s\n",
		sim.Steps(), o.cfg.CGSteps, sim.Time(), Total(last), frames, o.out)
	return nil
}

// newProgress returns a progress bar on a terminal and nil otherwise.
func newProgress(steps int) *progressbar.ProgressBar {
	if steps == 0 || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return progressbar.NewOptions(steps,
		progressbar.OptionSetDescription("stepping"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("steps"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
	)
}
