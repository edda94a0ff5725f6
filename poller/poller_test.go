//go:build unit
// +build unit

package poller

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/oqtopus-team/qsim/common"
	"github.com/oqtopus-team/qsim/core"
)

func newTestPoller(t *testing.T) *Poller {
	p := NewPoller(Params{
		InboxDir:       t.TempDir(),
		Count:          1,
		NormalPeriod:   1,
		IdlePeriod:     1,
		MaxRetry:       3,
		DefaultShots:   100,
		DefaultJobType: core.NORMAL_JOB,
	})
	assert.Nil(t, p.Setup())
	return p
}

func TestPoll(t *testing.T) {
	tests := []struct {
		name                    string
		client                  pollClient
		wantCurrentPollerStates []state
	}{
		{
			name:   "normal",
			client: &oneJobPollClient{},
			wantCurrentPollerStates: []state{
				POLLING,
				POLLING,
				POLLING,
			},
		},
		{
			name:   "no jobs count",
			client: &zeroJobsPollClient{},
			wantCurrentPollerStates: []state{
				POLLING,
				SUB_IDLE,
				SUB_IDLE,
				IDLE,
			},
		},
		{
			name:   "recover to polling state",
			client: &recoveringPollClient{},
			wantCurrentPollerStates: []state{
				POLLING,
				SUB_IDLE,
				SUB_IDLE,
				IDLE,
				IDLE,
				POLLING,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := core.SCWithDBContainer()
			defer s.TearDown()
			p := newTestPoller(t)
			p.pollClient = tt.client
			periodicTask := &core.PeriodicTask{
				PeriodicTaskImpl: p,
			}
			for _, want := range tt.wantCurrentPollerStates {
				assert.Equal(t, want, p.state, "want %v, got %v", want, p.state)
				periodicTask.Task()
			}
		})
	}
}

func TestPollPeriodUpdate(t *testing.T) {
	s := core.SCWithDBContainer()
	defer s.TearDown()
	p := newTestPoller(t)
	p.NormalPeriod = time.Second
	p.IdlePeriod = time.Minute
	p.currentPeriod = p.NormalPeriod
	p.pollClient = &recoveringPollClient{}

	for i := 0; i < 3; i++ {
		p.Task()
	}
	ok, d := p.RequirePeriodUpdate()
	assert.True(t, ok)
	assert.Equal(t, time.Minute, d)
	p.Task()
	p.Task()
	_, d = p.RequirePeriodUpdate()
	assert.Equal(t, time.Second, d)
}

func TestSetParams(t *testing.T) {
	p := NewPoller(Params{})
	params, ok := p.GetEmptyParams().(*Params)
	assert.True(t, ok)
	assert.Equal(t, DefaultParams(), *params)

	params.Count = 5
	assert.Nil(t, p.SetParams(params))
	assert.Equal(t, 5, p.Count)

	assert.EqualError(t, p.SetParams(&Params{Count: 0, NormalPeriod: 1, IdlePeriod: 1}),
		"count(0) must be greater than 0")
	assert.EqualError(t, p.SetParams(&Params{Count: 1}),
		"periods must be positive/normal:0s/idle:0s")
	assert.Error(t, p.SetParams(map[string]interface{}{}))
}

func TestPollerRunContext(t *testing.T) {
	s := core.SCWithDBContainer()
	defer s.TearDown()
	inbox := t.TempDir()
	p := NewPoller(DefaultParams())
	rc, err := core.NewRunContextFromString(heredoc.Docf(`
		[run_group.periodic_tasks.poller]
		period = "1s"
		[run_group.periodic_tasks.poller.params]
		inbox_dir = "%s"
		count = 4
		idle_period = "1m"
	`, inbox), core.PeriodicTaskImplMap{PollerTaskName: p})
	assert.Nil(t, err)
	assert.Contains(t, rc.PeriodicTasks, PollerTaskName)
	assert.Equal(t, inbox, p.InboxDir)
	assert.Equal(t, 4, p.Count)
	assert.Equal(t, time.Minute, p.IdlePeriod)
	assert.Equal(t, DEFAULT_NORMAL_PERIOD, p.NormalPeriod)
	assert.DirExists(t, filepath.Join(inbox, processedDir))
}

func TestPollingCondition(t *testing.T) {
	sc := &overThresholdScheduler{}
	s := core.SCWithScheduler(sc)
	defer s.TearDown()
	assert.EqualError(t, passPollingCondition(s),
		"queue size is over refill-threshold. current queue size:7")
}

func TestSpoolClientRequest(t *testing.T) {
	s := core.SCWithDBContainer()
	defer s.TearDown()
	_, err := core.NewJobManager(&core.NormalJob{})
	assert.Nil(t, err)

	bell, err := common.GetAsset("bell_pair.qasm")
	assert.Nil(t, err)
	inbox := t.TempDir()
	files := map[string]string{
		"a_bell.qasm": bell,
		"b_doc.json": heredoc.Doc(`
			{"job_id": "doc", "job_type": "normal", "shots": 10, "seed": 5,
			 "program": "OPENQASM 3; qubit[1] q; x q[0];"}
		`),
		"c_broken.json":   `{"job_id": `,
		"d_zero.json":     `{"job_id": "zero", "shots": 0, "program": "OPENQASM 3; qubit[1] q;"}`,
		"e_unknown.json":  `{"job_id": "est", "job_type": "estimation", "program": "OPENQASM 3; qubit[1] q;"}`,
		"notes.txt":       "ignored",
		"z_later.qasm":    bell,
	}
	for name, body := range files {
		assert.Nil(t, os.WriteFile(filepath.Join(inbox, name), []byte(body), 0o644))
	}

	c, err := newSpoolClient(&spoolClientParams{
		inboxDir: inbox, count: 5, defaultShots: 100, defaultJobType: core.NORMAL_JOB,
	})
	assert.Nil(t, err)
	jobs, err := c.request()
	assert.Nil(t, err)
	assert.Len(t, jobs, 2)

	qjd := jobs[0].JobData()
	_, err = uuid.Parse(qjd.ID)
	assert.Nil(t, err)
	assert.Equal(t, bell, qjd.QASM)
	assert.Equal(t, 100, qjd.Shots)
	assert.Nil(t, qjd.Seed)

	djd := jobs[1].JobData()
	assert.Equal(t, "doc", djd.ID)
	assert.Equal(t, 10, djd.Shots)
	assert.Equal(t, uint64(5), *djd.Seed)
	assert.Equal(t, "OPENQASM 3; qubit[1] q; x q[0];", djd.QASM)

	for _, id := range []string{"zero", "est"} {
		assert.Eventually(t, func() bool {
			j := core.GetJob(id)
			return j != nil && j.JobData().Status == core.FAILED
		}, time.Second, 10*time.Millisecond, id)
	}
	assert.Equal(t, "shots(0) must be greater than 0", core.GetJob("zero").JobData().Result.Message)
	assert.Equal(t, "job type estimation is not registered", core.GetJob("est").JobData().Result.Message)

	// the count limit leaves the last file for the next poll
	assert.FileExists(t, filepath.Join(inbox, "z_later.qasm"))
	assert.FileExists(t, filepath.Join(inbox, "notes.txt"))
	assert.FileExists(t, filepath.Join(inbox, processedDir, "a_bell.qasm"))
	assert.NoFileExists(t, filepath.Join(inbox, "c_broken.json"))

	jobs, err = c.request()
	assert.Nil(t, err)
	assert.Len(t, jobs, 1)
}

func TestSpoolClientRejectReplacesUnsafeJobID(t *testing.T) {
	dbc := make(core.DBChan, 1)
	jc := &core.JobContext{Channels: &core.Channels{DBChan: dbc}}
	c := &spoolClient{}
	c.reject(&core.JobParam{JobID: "../escaped", Shots: 1}, assert.AnError, jc)

	jd := (<-dbc).JobData()
	_, err := uuid.Parse(jd.ID)
	assert.Nil(t, err)
	assert.Equal(t, core.FAILED, jd.Status)
	assert.Equal(t, assert.AnError.Error(), jd.Result.Message)

	c.reject(&core.JobParam{JobID: "safe-id", Shots: 1}, assert.AnError, jc)
	assert.Equal(t, "safe-id", (<-dbc).JobData().ID)
}

type overThresholdScheduler struct{}

func (o *overThresholdScheduler) Setup(*core.Conf) error      { return nil }
func (o *overThresholdScheduler) Start() error                { return nil }
func (o *overThresholdScheduler) HandleJob(core.Job)          {}
func (o *overThresholdScheduler) GetCurrentQueueSize() int    { return 7 }
func (o *overThresholdScheduler) IsOverRefillThreshold() bool { return true }

type zeroJobsPollClient struct{}

func (m *zeroJobsPollClient) request() ([]core.Job, error) {
	return []core.Job{}, nil
}

type oneJobPollClient struct{}

func (m *oneJobPollClient) request() ([]core.Job, error) {
	return oneJobRequestImpl(core.READY)
}

type recoveringPollClient struct {
	count int
}

func (m *recoveringPollClient) request() ([]core.Job, error) {
	m.count++
	if m.count >= 5 {
		return oneJobRequestImpl(core.READY)
	} else {
		return []core.Job{}, nil
	}
}

func oneJobRequestImpl(st core.Status) ([]core.Job, error) {
	nj, err := core.NewJobManager(&core.NormalJob{})
	if err != nil {
		return []core.Job{}, err
	}
	jc, err := core.NewJobContext()
	if err != nil {
		return []core.Job{}, err
	}

	j, err := nj.NewJobFromJobDataWithValidation(
		&core.JobData{
			ID:      uuid.NewString(),
			QASM:    "OPENQASM 3;qubit[2] q;h q[1];cx q[1],q[0];",
			Shots:   1,
			JobType: "normal",
			Status:  st,
		}, jc)
	if err != nil {
		return []core.Job{}, err
	}
	return []core.Job{j}, nil
}
