package qpu

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-openapi/strfmt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/outcome"
	"github.com/oqtopus-team/qsim/qasm"
	"github.com/oqtopus-team/qsim/sim"
)

const (
	SIMULATOR_SETTING = "simulator"
	instrumentation   = "github.com/oqtopus-team/qsim/qpu"
)

// SimulatorQPU runs jobs on the local state-vector simulator.
type SimulatorQPU struct {
	deviceSetting *DeviceSetting
	setting       *SimulatorSetting
	sampler       *sim.Sampler
	status        atomic.Int32

	tracer      trace.Tracer
	jobCounter  metric.Int64Counter
	shotCounter metric.Int64Counter
}

func (q *SimulatorQPU) Setup(conf *core.Conf) error {
	zap.L().Debug("setting up Simulator QPU")
	ds := NewDeviceSetting()
	if !conf.UseDefaultDevice {
		var err error
		ds, err = LoadDeviceSetting(conf.DeviceSettingPath)
		if err != nil {
			zap.L().Error(fmt.Sprintf("Failed to load a device setting. Reason:%s", err))
			return err
		}
	}
	q.deviceSetting = ds
	q.setting = GetSimulatorSetting()
	zap.L().Debug(fmt.Sprintf("simulator setting:%+v", *q.setting))
	q.sampler = sim.NewSampler(sim.New(
		sim.WithMaxQubits(ds.MaxQubits),
		sim.WithDenseLimit(q.setting.DenseLimit),
		sim.WithTolerance(q.setting.Tolerance),
	))
	q.SetStatus(core.Available)

	q.tracer = otel.Tracer(instrumentation)
	meter := otel.Meter(instrumentation)
	var err error
	if q.jobCounter, err = meter.Int64Counter("qsim.jobs",
		metric.WithDescription("number of jobs run on the simulator")); err != nil {
		return errors.Wrap(err, "create job counter")
	}
	if q.shotCounter, err = meter.Int64Counter("qsim.shots",
		metric.WithDescription("number of shots sampled")); err != nil {
		return errors.Wrap(err, "create shot counter")
	}
	return nil
}

func (q *SimulatorQPU) SetStatus(st core.DeviceStatus) {
	q.status.Store(int32(st))
}

// Validate parses program and checks it against the device limits.
func (q *SimulatorQPU) Validate(program string) error {
	_, err := q.parse(program)
	return err
}

func (q *SimulatorQPU) parse(program string) (*circuit.Circuit, error) {
	c, err := qasm.Unmarshal(program, circuit.WithMaxQubits(q.deviceSetting.MaxQubits))
	if err != nil {
		return nil, err
	}
	if err := q.deviceSetting.GateSupport.check(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (q *SimulatorQPU) Send(j core.Job) (err error) {
	jd := j.JobData()
	ctx, span := q.tracer.Start(context.Background(), "SimulatorQPU.Send",
		trace.WithAttributes(
			attribute.String("job.id", jd.ID),
			attribute.String("job.type", jd.JobType),
			attribute.Int("job.shots", jd.Shots),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			msg := core.SetFailureWithError(j, err)
			zap.L().Info(msg)
		}
		q.jobCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("job.type", jd.JobType),
			attribute.String("job.status", jd.Status.String())))
		span.End()
	}()
	zap.L().Info("Starting Simulator QPU execution of Job ID:" + jd.ID)

	if st := core.DeviceStatus(q.status.Load()); st != core.Available {
		return errors.Errorf("simulator is %s", st)
	}
	c, err := q.parse(jd.QASM)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse the program of job(%s). Reason:%s", jd.ID, err))
		return err
	}
	span.SetAttributes(attribute.Int("circuit.width", c.Width()), attribute.Int("circuit.length", c.Len()))

	start := time.Now()
	res := core.NewResult()
	var counts outcome.Counts
	if jd.JobType == core.STATEVECTOR_JOB {
		var sv *sim.StateVector
		sv, err = q.sampler.Simulator().Run(c)
		if err != nil {
			zap.L().Error(fmt.Sprintf("failed to simulate job(%s). Reason:%s", jd.ID, err))
			return err
		}
		fillStateVector(sv, c.MeasuredQubits(), res)
		if jd.Shots > 0 {
			counts, err = q.sampler.Sample(sv, c.MeasuredQubits(), jd.Shots, q.runOptions(jd)...)
		}
	} else if jd.Shots > 0 {
		counts, err = q.sampler.Run(c, jd.Shots, q.runOptions(jd)...)
	}
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to sample job(%s). Reason:%s", jd.ID, err))
		return err
	}
	if counts != nil {
		res.Counts = counts
		q.shotCounter.Add(ctx, int64(jd.Shots))
	}
	res.ExecutionTime = time.Since(start)
	jd.Result = res
	jd.Status = core.SUCCEEDED
	jd.Ended = strfmt.DateTime(time.Now())
	zap.L().Debug(fmt.Sprintf("Job ID:%s is processed/status:%s/time:%s", jd.ID, jd.Status, res.ExecutionTime))
	return nil
}

func (q *SimulatorQPU) runOptions(jd *core.JobData) []sim.RunOption {
	if jd.Seed == nil {
		return nil
	}
	return []sim.RunOption{sim.WithSeed(*jd.Seed)}
}

func fillStateVector(sv *sim.StateVector, measured []int, res *core.Result) {
	amps := sv.Amplitudes()
	res.Amplitudes = make([]core.Amplitude, len(amps))
	for i, a := range amps {
		res.Amplitudes[i] = core.Amplitude{
			Basis: outcome.FormatKey(i, sv.Width()),
			Re:    real(a),
			Im:    imag(a),
		}
	}
	res.Probabilities = sim.MarginalProbabilities(sv, measured)
}

func (q *SimulatorQPU) GetDeviceInfo() *core.DeviceInfo {
	return &core.DeviceInfo{
		DeviceName:   q.deviceSetting.DeviceName,
		ProviderName: q.deviceSetting.ProviderName,
		Type:         q.deviceSetting.DeviceType,
		Status:       core.DeviceStatus(q.status.Load()),
		MaxQubits:    q.deviceSetting.MaxQubits,
		MaxShots:     q.deviceSetting.MaxShots,
		DenseLimit:   q.setting.DenseLimit,
		Tolerance:    q.setting.Tolerance,
	}
}
