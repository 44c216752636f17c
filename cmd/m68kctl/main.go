// Command m68kctl loads a flat binary image onto a RAM-backed bus and
// runs or single-steps it through the interpreter core.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/mc68kcore/m68k/pkg/bus"
	"github.com/mc68kcore/m68k/pkg/cpu"
	"github.com/mc68kcore/m68k/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:    "m68kctl",
		Usage:   "run or step a flat binary image through the m68k interpreter core",
		Version: "v0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "flat binary image to load at address 0",
			},
			&cli.UintFlag{
				Name:  "mem",
				Usage: "RAM size in bytes",
				Value: 1 << 20,
			},
			&cli.StringFlag{
				Name:  "cpu",
				Usage: "processor version: 68000, 68010, or 68020",
				Value: "68000",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "off|error|warn|info|debug|trace",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			stepCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) (*cpu.Core, *bus.FlatBus, error) {
	level := logger.GetLogLevelFromString(c.String("log-level"))
	if err := logger.Initialize(level, ""); err != nil {
		return nil, nil, errors.Wrap(err, "initializing logger")
	}

	version, err := parseVersion(c.String("cpu"))
	if err != nil {
		return nil, nil, err
	}

	memSize := c.Uint("mem")
	b := bus.NewFlatBus(int(memSize))

	imagePath := c.String("image")
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading image %q", imagePath)
		}
		b.Load(0, data)
	}

	core := cpu.New(version)
	core.Reset(b)
	return core, b, nil
}

func parseVersion(s string) (cpu.Version, error) {
	switch s {
	case "68000":
		return cpu.MC68000, nil
	case "68010":
		return cpu.MC68010, nil
	case "68020":
		return cpu.MC68020, nil
	default:
		return 0, errors.Errorf("unknown cpu version %q", s)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run the image until STOP or until --cycles is exhausted",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "cycles",
				Usage: "cycle budget",
				Value: 1_000_000,
			},
		},
		Action: func(c *cli.Context) error {
			core, b, err := setup(c)
			if err != nil {
				return err
			}
			budget := c.Uint64("cycles")
			var spent uint64
			for spent < budget && core.State() != cpu.Stopped {
				spent += uint64(core.Step(b))
			}
			logger.LogInfo("halted after %d cycles at pc=%#08x", spent, core.PC)
			return nil
		},
	}
}

func stepCommand() *cli.Command {
	return &cli.Command{
		Name:  "step",
		Usage: "execute a fixed number of instructions, printing register state after each",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "number of instructions to step",
				Value: 1,
			},
		},
		Action: func(c *cli.Context) error {
			core, b, err := setup(c)
			if err != nil {
				return err
			}
			count := c.Int("count")
			for i := 0; i < count; i++ {
				cycles := core.Step(b)
				dar := core.DAR()
				fmt.Printf("pc=%#08x sr=%#04x cycles=%d d=%08x a=%08x\n",
					core.PC, core.StatusRegister(), cycles, dar[0:8], dar[8:16])
				if core.State() == cpu.Stopped {
					break
				}
			}
			return nil
		},
	}
}
