// Package statevector provides the job type whose result carries the final
// amplitudes and the exact outcome distribution next to optional samples.
package statevector

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/core"
)

const STATEVECTOR_JOB = core.STATEVECTOR_JOB

type StateVectorJob struct {
	jobData    *core.JobData
	jobContext *core.JobContext
}

func (j *StateVectorJob) New(jd *core.JobData, jc *core.JobContext) core.Job {
	return &StateVectorJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *StateVectorJob) PreProcess() {
	if err := core.AdmitJob(j); err != nil {
		zap.L().Error(fmt.Sprintf("failed to pre-process a job(%s). Reason:%s",
			j.JobData().ID, err.Error()))
		core.SetFailureWithError(j, err)
	}
}

func (j *StateVectorJob) Process() {
	defer core.ReleaseJob(j)
	err := core.GetSystemComponents().Invoke(
		func(q core.QPUManager) error {
			return q.Send(j)
		})
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to simulate a job(%s). Reason:%s", j.JobData().ID, err.Error()))
		core.SetFailureWithError(j, err)
	}
	zap.L().Debug(fmt.Sprintf("finished to process a job(%s)/status:%s/amplitudes:%d",
		j.JobData().ID, j.JobData().Status, len(j.JobData().Result.Amplitudes)))
}

func (j *StateVectorJob) PostProcess() {}

func (j *StateVectorJob) IsFinished() bool {
	return j.JobData().Status == core.SUCCEEDED || j.JobData().Status == core.FAILED
}

func (j *StateVectorJob) JobData() *core.JobData {
	return j.jobData
}

func (j *StateVectorJob) JobType() string {
	return STATEVECTOR_JOB
}

func (j *StateVectorJob) JobContext() *core.JobContext {
	return j.jobContext
}

func (j *StateVectorJob) Clone() core.Job {
	return &StateVectorJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
	}
}
