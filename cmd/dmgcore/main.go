package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"
	"github.com/kallenhart/dmgcore/engine"
)

func main() {
	app := cli.NewApp()
	app.Name = "dmgcore"
	app.Description = "A DMG (Game Boy) CPU core"
	app.Usage = "dmgcore [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "steps",
			Usage: "Number of instructions to run before stopping (0 = unbounded)",
			Value: 0,
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "Log each executed instruction's PC and machine-cycle count",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("dmgcore: fatal", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		cli.ShowAppHelp(c)
		return errors.New("no ROM path provided")
	}
	romPath := c.Args().Get(0)

	if c.Bool("trace") {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		slog.SetDefault(slog.New(handler))
	}

	e, err := engine.NewWithFile(romPath)
	if err != nil {
		return fmt.Errorf("dmgcore: %w", err)
	}

	steps := c.Int("steps")
	trace := c.Bool("trace")

	for i := 0; steps <= 0 || i < steps; i++ {
		pc := e.PC()
		cycles, err := e.Step()
		if err != nil {
			return fmt.Errorf("dmgcore: step %d at pc 0x%04X: %w", i, pc, err)
		}
		if trace {
			slog.Debug("step", "pc", fmt.Sprintf("0x%04X", pc), "cycles", cycles)
		}
	}

	slog.Info("run completed", "instructions", e.InstructionCount())
	return nil
}
