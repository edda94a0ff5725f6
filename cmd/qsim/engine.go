package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/oklog/run"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/log"
	"github.com/oqtopus-team/qsim/poller"
	"github.com/oqtopus-team/qsim/sampling"
	"github.com/oqtopus-team/qsim/statevector"
)

type engineCmd struct{}

func newEngineCmd() *engineCmd {
	return &engineCmd{}
}

func (c *engineCmd) Execute(args []string) error {
	logger := setZap(qsim.Conf)
	defer logger.Sync()

	core.ResetSetting()
	registerSetting()
	zap.L().Debug("Registered setting")
	if err := core.ParseSettingFromPath(qsim.Conf.SettingPath); err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse settings/reason:%s", err))
		return err
	}

	s, err := setupSystemComponents(qsim.Conf)
	if err != nil {
		return err
	}
	defer s.TearDown()

	pp := poller.DefaultParams()
	pp.InboxDir = qsim.Conf.InboxDir
	pp.DefaultShots = qsim.Conf.DefaultShots
	im := core.PeriodicTaskImplMap{
		poller.PollerTaskName:  poller.NewPoller(pp),
		log.VersionLogTaskName: &log.VersionLogTaskImpl{},
		log.MetricsLogTaskName: &log.MetricsLogTaskImpl{},
	}
	rc, err := core.NewRunContextWithSettingPath(qsim.Conf.SettingPath, im)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to setup run context/reason:%s", err.Error()))
		return err
	}

	if err := startCore(s, qsim.Conf); err != nil {
		zap.L().Error(fmt.Sprintf("failed to start core/reason:%s", err))
		return err
	}

	zap.L().Debug("Setting up run-group")
	rc.Add(run.SignalHandler(rc.Context, os.Interrupt, syscall.SIGTERM))
	core.SetRunContext(rc)

	if err := rc.Run(); err != nil {
		var se run.SignalError
		if errors.As(err, &se) {
			zap.L().Info(fmt.Sprintf("stopping engine/reason:%s", se))
			return nil
		}
		fmt.Fprintf(os.Stderr, "execution error:%v\n", err)
		return err
	}
	return nil
}

func setupSystemComponents(conf *core.Conf) (*core.SystemComponents, error) {
	core.SetVersion(conf, versionByBuildFlag)
	zap.L().Debug(fmt.Sprintf("Providing DI Container with parameters %+v", qsim.DIContainerParameters))

	container, err := qsim.provideDIContainer()
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setting up DI-Container. Reason:%s", err.Error()))
		return nil, err
	}
	zap.L().Debug("Setting up System Components")
	s := core.NewSystemComponents(container)
	if err := s.Setup(conf); err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setting up Container. Reason:%s", err.Error()))
		return nil, err
	}
	return s, nil
}

func startCore(s *core.SystemComponents, conf *core.Conf) error {
	if _, err := core.NewJobManager(
		&sampling.SamplingJob{},
		&statevector.StateVectorJob{},
		&core.NormalJob{},
	); err != nil {
		return err
	}
	if err := s.StartContainer(); err != nil {
		return err
	}
	core.SetInfo(conf)
	return nil
}
