//go:build unit
// +build unit

package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oqtopus-team/qsim/common"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/qpu"
)

func newSamplingJob(t *testing.T, jm *core.JobManager, id, program string, shots int) core.Job {
	t.Helper()
	jc, err := core.NewJobContext()
	assert.Nil(t, err)
	seed := uint64(3)
	j, err := jm.NewJobWithValidation(&core.JobParam{
		JobID: id, QASM: program, Shots: shots, Seed: &seed, JobType: SAMPLING_JOB,
	}, jc)
	assert.Nil(t, err)
	return j
}

func TestSamplingJob(t *testing.T) {
	core.ResetSetting()
	s, err := core.SCWithComponents(&qpu.SimulatorQPU{}, &core.Conf{UseDefaultDevice: true})
	assert.Nil(t, err)
	defer s.TearDown()
	jm, err := core.NewJobManager(&SamplingJob{})
	assert.Nil(t, err)
	assert.Equal(t, []string{SAMPLING_JOB}, jm.AcceptableJobTypes())

	bell, err := common.GetAsset("bell_pair.qasm")
	assert.Nil(t, err)
	j := newSamplingJob(t, jm, "bell", bell, 200)
	assert.IsType(t, &SamplingJob{}, j)

	j.PreProcess()
	assert.False(t, j.IsFinished())
	assert.Equal(t, core.READY, j.JobData().Status)

	dup := newSamplingJob(t, jm, "bell", bell, 200)
	dup.PreProcess()
	assert.True(t, dup.IsFinished())
	assert.Equal(t, core.FAILED, dup.JobData().Status)
	assert.Equal(t, "job(bell): jobID is already used", dup.JobData().Result.Message)

	j.Process()
	assert.True(t, j.IsFinished())
	assert.Equal(t, core.SUCCEEDED, j.JobData().Status)
	assert.Equal(t, 200, j.JobData().Result.Counts.Total())

	again := newSamplingJob(t, jm, "bell", bell, 200)
	again.PreProcess()
	assert.False(t, again.IsFinished())
	again.Process()
	assert.Equal(t, j.JobData().Result.Counts, again.JobData().Result.Counts)
}

func TestSamplingJobInvalidProgram(t *testing.T) {
	core.ResetSetting()
	s, err := core.SCWithComponents(&qpu.SimulatorQPU{}, &core.Conf{UseDefaultDevice: true})
	assert.Nil(t, err)
	defer s.TearDown()
	jm, err := core.NewJobManager(&SamplingJob{})
	assert.Nil(t, err)

	j := newSamplingJob(t, jm, "broken", "OPENQASM 3;\nqubit[1] q;\nrz(0.5) q[0];\n", 10)
	j.PreProcess()
	assert.True(t, j.IsFinished())
	assert.Equal(t, core.FAILED, j.JobData().Status)
	assert.Contains(t, j.JobData().Result.Message, "line 3")
}

func TestCloneSamplingJob(t *testing.T) {
	jd := core.NewJobData()
	jd.ID = "clone"
	jd.JobType = SAMPLING_JOB
	org := (&SamplingJob{}).New(jd, nil)
	cloned := org.Clone()
	assert.False(t, cloned.JobData() == org.JobData())
	cloned.JobData().Result.Counts["0"] = 1
	assert.Empty(t, org.JobData().Result.Counts)
}
