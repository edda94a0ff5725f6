package poller

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/core"
)

type state int

const PollerTaskName = "poller"

const (
	POLLING state = iota
	SUB_IDLE
	IDLE
)

const (
	DEFAULT_INBOX_DIR     = "./shares/inbox"
	DEFAULT_COUNT         = 10
	DEFAULT_NORMAL_PERIOD = time.Duration(2) * time.Second
	DEFAULT_IDLE_PERIOD   = time.Duration(10) * time.Second
	DEFAULT_MAX_RETRY     = 3
	DEFAULT_SHOTS         = 1000
	DEFAULT_JOB_TYPE      = "sampling"
)

func (s state) String() string {
	switch s {
	case POLLING:
		return "POLLING"
	case SUB_IDLE:
		return "SUB_IDLE"
	case IDLE:
		return "IDLE"
	default:
		return "UNKNOWN"
	}
}

// Params is the [run_group.periodic_tasks.poller.params] table.
type Params struct {
	InboxDir       string        `toml:"inbox_dir"`
	Count          int           `toml:"count"`
	NormalPeriod   time.Duration `toml:"normal_period"`
	IdlePeriod     time.Duration `toml:"idle_period"`
	MaxRetry       int           `toml:"max_retry"`
	DefaultShots   int           `toml:"default_shots"`
	DefaultJobType string        `toml:"default_job_type"`
}

func DefaultParams() Params {
	return Params{
		InboxDir:       DEFAULT_INBOX_DIR,
		Count:          DEFAULT_COUNT,
		NormalPeriod:   DEFAULT_NORMAL_PERIOD,
		IdlePeriod:     DEFAULT_IDLE_PERIOD,
		MaxRetry:       DEFAULT_MAX_RETRY,
		DefaultShots:   DEFAULT_SHOTS,
		DefaultJobType: DEFAULT_JOB_TYPE,
	}
}

// Poller scans the inbox for job files and hands the jobs to the scheduler.
type Poller struct {
	Params

	pollClient

	currentPeriod time.Duration
	noJobsCount   int
	state         state

	sysCom *core.SystemComponents
}

// NewPoller returns a poller whose params default to p.
func NewPoller(p Params) *Poller {
	return &Poller{Params: p}
}

func (p *Poller) GetEmptyParams() interface{} {
	params := p.Params
	if params == (Params{}) {
		params = DefaultParams()
	}
	return &params
}

func (p *Poller) SetParams(params interface{}) error {
	pp, ok := params.(*Params)
	if !ok {
		err := errors.Errorf("failed to set params for poller/params: %v", params)
		zap.L().Error(err.Error())
		return err
	}
	if pp.Count <= 0 {
		return errors.Errorf("count(%d) must be greater than 0", pp.Count)
	}
	if pp.NormalPeriod <= 0 || pp.IdlePeriod <= 0 {
		return errors.Errorf("periods must be positive/normal:%s/idle:%s", pp.NormalPeriod, pp.IdlePeriod)
	}
	zap.L().Debug(fmt.Sprintf("Set params for poller: %+v", *pp))
	p.Params = *pp
	return nil
}

func (p *Poller) RequirePeriodUpdate() (bool, time.Duration) {
	return true, p.currentPeriod
}

type pollClient interface {
	request() ([]core.Job, error)
}

func (p *Poller) Setup() error {
	c, err := newSpoolClient(&spoolClientParams{
		inboxDir:       p.InboxDir,
		count:          p.Count,
		defaultShots:   p.DefaultShots,
		defaultJobType: p.DefaultJobType,
	})
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to set spool client/reason:%s", err))
		return err
	}
	zap.L().Info(fmt.Sprintf("polling inbox:%s", p.InboxDir))
	p.pollClient = c
	p.currentPeriod = p.NormalPeriod
	p.noJobsCount = 0
	p.state = POLLING
	p.sysCom = core.GetSystemComponents()
	return nil
}

func (p *Poller) Task() {
	zap.L().Debug("Poller is getting jobs")
	jobsNum, err := p.getJobs()
	if err != nil || jobsNum == 0 {
		if err != nil {
			zap.L().Info(fmt.Sprintf("Failed to get jobs. NoJobsCount:%d, Reason:%s",
				p.noJobsCount, err))
		} else {
			zap.L().Debug(fmt.Sprintf("Get no jobs. NoJobsCount:%d", p.noJobsCount))
		}
		switch p.state {
		case POLLING:
			p.noJobsCount = 1
			p.updateState(SUB_IDLE)
			zap.L().Debug(fmt.Sprintf("Transition to sub idle mode. Retry after %s", p.NormalPeriod))
			return
		case SUB_IDLE:
			p.noJobsCount++
			if p.noJobsCount < p.MaxRetry {
				zap.L().Debug(fmt.Sprintf("Retry after %s", p.NormalPeriod))
			} else {
				zap.L().Info("Reached max retry. Transition to idle mode")
				p.noJobsCount = 0
				p.updateState(IDLE)
				p.currentPeriod = p.IdlePeriod
			}
		case IDLE:
			zap.L().Debug(fmt.Sprintf("Already in idle mode. Retry after idle period %s", p.IdlePeriod))
		default:
			zap.L().Error(fmt.Sprintf("Unknown state %d", int(p.state)))
		}
	} else { // got jobs
		switch p.state {
		case POLLING:
			zap.L().Debug("keep polling")
		case SUB_IDLE:
			zap.L().Info("Transition to polling mode from sub_idle state")
			p.updateState(POLLING)
			p.noJobsCount = 0
		case IDLE:
			zap.L().Info("Transition to polling mode from idle state")
			p.currentPeriod = p.NormalPeriod
			p.updateState(POLLING)
			p.noJobsCount = 0
		default:
			zap.L().Error(fmt.Sprintf("Unknown state %d", int(p.state)))
		}
	}
}

func (p *Poller) Cleanup() {
	zap.L().Info("Poller is cleaning up")
}

func (p *Poller) request() ([]core.Job, error) {
	return p.pollClient.request()
}

func (p *Poller) getJobs() (int, error) {
	if err := passPollingCondition(p.sysCom); err != nil {
		zap.L().Info(fmt.Sprintf("not get jobs. reason:%s", err))
		return 0, err
	}
	jobs, err := p.request()
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to get jobs. Reason:%s", err))
		return 0, err
	}
	zap.L().Debug(fmt.Sprintf("get %d jobs", len(jobs)))
	handlingJobsNum := 0
	for _, job := range jobs {
		jd := job.JobData()
		zap.L().Debug(fmt.Sprintf("Handling a job. Job ID:%s created:%s", jd.ID, jd.Created))
		p.sysCom.Invoke(
			func(s core.Scheduler) error {
				s.HandleJob(job)
				return nil
			})
		handlingJobsNum++
	}
	return handlingJobsNum, nil
}

func (p *Poller) updateState(newState state) {
	p.state = newState
}

func passPollingCondition(s *core.SystemComponents) error {
	if s.IsQueueOverRefillThreshold() {
		return errors.Errorf("queue size is over refill-threshold. current queue size:%d",
			s.GetCurrentQueueSize())
	}
	zap.L().Debug(fmt.Sprintf("queue is under refill-threshold. current queue size:%d",
		s.GetCurrentQueueSize()))
	di := s.GetDeviceInfo()
	if di.Status != core.Available {
		return errors.Errorf("device is not available. current status:%s", di.Status)
	}
	zap.L().Debug("device is available")
	return nil
}
