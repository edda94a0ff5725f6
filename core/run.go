package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"
	"github.com/oklog/run"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/common"
)

var runContext *RunContext

const PERIODIC_TASKS = "periodic_tasks"

type PeriodicTaskImplMap map[string]PeriodicTaskImpl

type PeriodicTaskMap map[string]*PeriodicTask

type RunnerImpl interface {
	// GetEmptyParams returns a pointer the task's params table is decoded
	// into. Defaults set on it survive keys missing from the file.
	GetEmptyParams() interface{}
	SetParams(interface{}) error
	Setup() error
}

type RunContext struct {
	*run.Group
	context.Context

	settingsPath  string
	PeriodicTasks PeriodicTaskMap
}

type runGroupFile struct {
	RunGroup struct {
		PeriodicTasks map[string]periodicTaskEntry `toml:"periodic_tasks"`
	} `toml:"run_group"`
}

type periodicTaskEntry struct {
	Period time.Duration  `toml:"period"`
	Params toml.Primitive `toml:"params"`
}

func NewRunContext() *RunContext {
	return &RunContext{
		Group:         &run.Group{},
		Context:       context.Background(),
		PeriodicTasks: make(PeriodicTaskMap),
	}
}

func NewRunContextWithSettingPath(settingsPath string, im PeriodicTaskImplMap) (*RunContext, error) {
	tomlString, err := common.ReadSettingsFile(settingsPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read settings file/reason:%s", err))
		return nil, err
	}
	rc, err := NewRunContextFromString(tomlString, im)
	if err != nil {
		return nil, err
	}
	rc.settingsPath = settingsPath
	return rc, nil
}

// NewRunContextFromString builds the periodic tasks listed under
// [run_group.periodic_tasks.<name>], sets their params, sets them up and adds
// them to the run group.
func NewRunContextFromString(tomlString string, im PeriodicTaskImplMap) (*RunContext, error) {
	var f runGroupFile
	md, err := toml.Decode(tomlString, &f)
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to decode settings file. Reason:%s", err))
		return nil, err
	}
	rc := NewRunContext()
	names := make([]string, 0, len(f.RunGroup.PeriodicTasks))
	for name := range f.RunGroup.PeriodicTasks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entry := f.RunGroup.PeriodicTasks[name]
		impl, ok := im[name]
		if !ok {
			msg := fmt.Sprintf("failed to find %s implementation from PeriodicTaskImplMap", name)
			zap.L().Error(msg)
			return nil, errors.New(msg)
		}
		if entry.Period <= 0 {
			return nil, errors.Errorf("period of %s must be positive, got %s", name, entry.Period)
		}
		params := impl.GetEmptyParams()
		if md.IsDefined("run_group", PERIODIC_TASKS, name, "params") {
			if err := md.PrimitiveDecode(entry.Params, params); err != nil {
				zap.L().Error(fmt.Sprintf("failed to decode params of %s/reason:%s", name, err))
				return nil, errors.Wrapf(err, "decode params of %s", name)
			}
		}
		t := &PeriodicTask{Period: entry.Period, Params: params, PeriodicTaskImpl: impl}
		if err := t.SetParams(params); err != nil {
			zap.L().Error(fmt.Sprintf("failed to set parameters to %s/reason:%s", name, err))
			return nil, err
		}
		if err := t.Setup(); err != nil {
			zap.L().Error(fmt.Sprintf("failed to setup/name:%s/reason:%s", name, err))
			return nil, err
		}
		if err := rc.AddPeriodicTask(t, name); err != nil {
			zap.L().Error(fmt.Sprintf("failed to add periodic task/name:%s/reason:%s", name, err))
			return nil, err
		}
		rc.PeriodicTasks[name] = t
		zap.L().Info(fmt.Sprintf("successfully added periodic task/name:%s/period:%s", name, t.Period))
	}
	return rc, nil
}

func GetRunContext() *RunContext {
	return runContext
}

func SetRunContext(rc *RunContext) {
	runContext = rc
}

type PeriodicTask struct {
	Period time.Duration
	Params interface{}
	PeriodicTaskImpl
}

func (t *PeriodicTask) GetParams() interface{} {
	return t.Params
}

type PeriodicTaskImpl interface {
	RunnerImpl
	RequirePeriodUpdate() (ok bool, duration time.Duration)
	Task()
	Cleanup()
}

type DefaultTaskImpl struct{}

func (v *DefaultTaskImpl) Setup() error {
	return nil
}

func (v *DefaultTaskImpl) GetEmptyParams() interface{} {
	return &struct{}{}
}

func (v *DefaultTaskImpl) SetParams(p interface{}) error {
	return nil
}

func (v *DefaultTaskImpl) RequirePeriodUpdate() (bool, time.Duration) {
	return false, 0
}

func (v *DefaultTaskImpl) Task() {}

func (v *DefaultTaskImpl) Cleanup() {}

func (rc *RunContext) AddPeriodicTask(t *PeriodicTask, taskName string) error {
	ctx, cancel := context.WithCancel(rc.Context)
	lastPeriod := t.Period
	rc.Group.Add(
		func() error {
			ticker := time.NewTicker(t.Period)
			zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/Start]", taskName))
			t.PeriodicTaskImpl.Task()
			for {
				select {
				case <-ctx.Done():
					zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/TearDown]Cleaning up periodic task", taskName))
					ticker.Stop()
					t.PeriodicTaskImpl.Cleanup()
					zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/TearDown]Cleaned up periodic task", taskName))
					return ctx.Err()
				case <-ticker.C:
					t.PeriodicTaskImpl.Task()
					ok, newPeriod := t.RequirePeriodUpdate()
					if ok && newPeriod > 0 && newPeriod != lastPeriod {
						zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/ResetPeriod]Resetting periodic task. from %v to %v",
							taskName, lastPeriod, newPeriod))
						ticker.Reset(newPeriod)
						lastPeriod = newPeriod
					}
				}
			}
		},
		func(error) {
			zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/TearDown]Cancelling periodic task", taskName))
			cancel()
		},
	)
	return nil
}
