package sampling

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/core"
)

const SAMPLING_JOB = "sampling"

type SamplingJob struct {
	jobData    *core.JobData
	jobContext *core.JobContext
}

func (j *SamplingJob) New(jd *core.JobData, jc *core.JobContext) core.Job {
	return &SamplingJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *SamplingJob) PreProcess() {
	if err := core.AdmitJob(j); err != nil {
		zap.L().Error(fmt.Sprintf("failed to pre-process a job(%s). Reason:%s",
			j.JobData().ID, err.Error()))
		core.SetFailureWithError(j, err)
	}
}

func (j *SamplingJob) Process() {
	defer core.ReleaseJob(j)
	c := core.GetSystemComponents().Container
	err := c.Invoke(
		func(q core.QPUManager) error {
			return q.Send(j)
		})
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to send a job(%s) to QPU. Reason:%s", j.JobData().ID, err.Error()))
		core.SetFailureWithError(j, err)
	}
	zap.L().Debug(fmt.Sprintf("finished to process a job(%s)/status:%s", j.JobData().ID, j.JobData().Status))
}

func (j *SamplingJob) PostProcess() {}

func (j *SamplingJob) IsFinished() bool {
	return j.JobData().Status == core.SUCCEEDED || j.JobData().Status == core.FAILED
}

func (j *SamplingJob) JobData() *core.JobData {
	return j.jobData
}

func (j *SamplingJob) JobType() string {
	return SAMPLING_JOB
}

func (j *SamplingJob) JobContext() *core.JobContext {
	return j.jobContext
}

func (j *SamplingJob) UpdateJobData(jd *core.JobData) {
	j.jobData = jd
}

func (j *SamplingJob) Clone() core.Job {
	cloned := &SamplingJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
	}
	return cloned
}
