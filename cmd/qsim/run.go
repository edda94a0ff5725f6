package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/common"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/qasm"
	"github.com/oqtopus-team/qsim/qpu"
	"github.com/oqtopus-team/qsim/render"
	"github.com/oqtopus-team/qsim/sim"
)

type runCmd struct {
	Shots       int    `long:"shots" description:"number of samples" default:"1024"`
	Seed        uint64 `long:"seed" description:"seed for the sampling random source, 0 means random"`
	StateVector bool   `long:"statevector" description:"print the final state vector"`
	JSON        bool   `long:"json" description:"print the state vector as json"`
	Histogram   bool   `long:"histogram" description:"print the counts as a histogram"`
	Draw        bool   `long:"draw" description:"draw the circuit before simulating"`
	Color       bool   `long:"color" description:"colorize the histogram"`
	File        string `long:"file" short:"f" description:"path to an OpenQASM 2 or 3 file" required:"true"`
}

func newRunCmd() *runCmd {
	return &runCmd{}
}

func (c *runCmd) Execute(args []string) error {
	logger := setZap(qsim.Conf)
	defer logger.Sync()

	if err := loadRunSetting(qsim.Conf.SettingPath); err != nil {
		return err
	}
	src, err := common.ReadFile(c.File)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", c.File)
	}
	return c.simulate(os.Stdout, src)
}

// loadRunSetting reads [com.simulator] from the setting file. A missing file
// leaves the defaults.
func loadRunSetting(path string) error {
	core.ResetSetting()
	registerSetting()
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		zap.L().Info(fmt.Sprintf("setting file %s is not found, using the default simulator setting", path))
		return nil
	}
	if err := core.ParseSettingFromPath(path); err != nil {
		return errors.Wrapf(err, "failed to parse %s", path)
	}
	return nil
}

func (c *runCmd) simulate(w io.Writer, src string) error {
	ds := qpu.NewDeviceSetting()
	if !qsim.Conf.UseDefaultDevice {
		loaded, err := qpu.LoadDeviceSetting(qsim.Conf.DeviceSettingPath)
		if err != nil {
			return err
		}
		ds = loaded
	}
	simSetting := qpu.GetSimulatorSetting()
	zap.L().Debug(fmt.Sprintf("simulating with device %s/max qubits:%d", ds.DeviceName, ds.MaxQubits))

	circ, err := qasm.Unmarshal(src, circuit.WithMaxQubits(ds.MaxQubits))
	if err != nil {
		return err
	}
	s := newSimulator(ds, simSetting)

	if c.Draw {
		if err := render.Circuit(w, circ); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if c.StateVector || c.JSON {
		sv, err := s.Run(circ)
		if err != nil {
			return err
		}
		if c.JSON {
			fmt.Fprintln(w, string(pretty.Pretty(render.StateVectorJSON(sv))))
		} else if err := render.StateVector(w, sv); err != nil {
			return err
		}
	}

	if c.Shots <= 0 {
		return nil
	}
	if c.Shots > ds.MaxShots {
		return fmt.Errorf("shots(%d) is over the limit(%d)", c.Shots, ds.MaxShots)
	}
	opts := []sim.RunOption{}
	if c.Seed != 0 {
		opts = append(opts, sim.WithSeed(c.Seed))
	}
	counts, err := sim.NewSampler(s).Run(circ, c.Shots, opts...)
	if err != nil {
		return err
	}
	if c.Histogram {
		return render.Histogram(w, counts, render.WithColor(c.Color))
	}
	fmt.Fprintln(w, counts.String())
	return nil
}

func newSimulator(ds *qpu.DeviceSetting, ss *qpu.SimulatorSetting) *sim.Simulator {
	return sim.New(
		sim.WithMaxQubits(ds.MaxQubits),
		sim.WithDenseLimit(ss.DenseLimit),
		sim.WithTolerance(ss.Tolerance),
	)
}
