package core

import (
	"fmt"
	"reflect"
	"regexp"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-openapi/strfmt"
	"go.uber.org/zap"
)

var ErrorJobIDConflict = errors.New("jobID is already used")
var ErrorInvalidJobID = errors.New("invalid jobID")

// job IDs name result files, so they are restricted to one path element
var jobIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)
var jobManager *JobManager

const (
	NORMAL_JOB      = "normal"
	STATEVECTOR_JOB = "statevector"
)

type Job interface {
	// Job Control
	New(*JobData, *JobContext) Job
	PreProcess()
	Process()
	PostProcess()
	IsFinished() bool

	// Data Access
	JobData() *JobData // Get mutable JobData
	JobType() string
	JobContext() *JobContext
	Clone() Job
}

type JobContext struct {
	*Channels
}

func NewJobContext() (*JobContext, error) {
	s := GetSystemComponents()
	if s == nil {
		return nil, fmt.Errorf("system components is not initialized")
	}
	c := s.Channels
	if c == nil {
		return nil, fmt.Errorf("channels is not initialized")
	}
	return &JobContext{
		Channels: GetSystemComponents().Channels,
	}, nil
}

type JobParam struct {
	JobID   string
	QASM    string
	Shots   int
	Seed    *uint64
	JobType string
}

type NormalJob struct {
	jobData    *JobData
	jobContext *JobContext
}

func (j *NormalJob) New(jd *JobData, jc *JobContext) Job {
	return &NormalJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *NormalJob) PreProcess() {
	jd := j.JobData()
	err := GetSystemComponents().Invoke(
		func(q QPUManager) error {
			return q.Validate(jd.QASM)
		})
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to pre-process a job(%s). Reason:%s", jd.ID, err.Error()))
		SetFailureWithError(j, err)
	}
}

func (j *NormalJob) Process() {
	c := GetSystemComponents().Container
	err := c.Invoke(
		func(q QPUManager) error {
			return q.Send(j)
		})
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to send a job(%s) to QPU. Reason:%s", j.JobData().ID, err.Error()))
		SetFailureWithError(j, err)
	}
	zap.L().Debug(fmt.Sprintf("finished to process a job(%s)/status:%s", j.JobData().ID, j.JobData().Status))
}

func (j *NormalJob) PostProcess() {}

func (j *NormalJob) IsFinished() bool {
	return j.JobData().Status == SUCCEEDED || j.JobData().Status == FAILED
}

func (j *NormalJob) JobData() *JobData {
	return j.jobData
}

func (j *NormalJob) JobType() string {
	return NORMAL_JOB
}

func (j *NormalJob) JobContext() *JobContext {
	return j.jobContext
}

func (j *NormalJob) UpdateJobData(jd *JobData) {
	j.jobData = jd
}

func (j *NormalJob) Clone() Job {
	cloned := &NormalJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
	}
	return cloned
}

// UnknownJob carries job data whose type is not registered so that the
// failure can still be stored.
type UnknownJob struct {
	jobData    *JobData
	jobContext *JobContext
}

func NewUnknownJob(jd *JobData, jc *JobContext) *UnknownJob {
	return &UnknownJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *UnknownJob) New(jd *JobData, jc *JobContext) Job {
	return NewUnknownJob(jd, jc)
}

func (j *UnknownJob) PreProcess() {
	SetFailureWithError(j, errors.Errorf("job type %s is not registered", j.jobData.JobType))
}

func (j *UnknownJob) Process() {}

func (j *UnknownJob) PostProcess() {}

func (j *UnknownJob) IsFinished() bool {
	return j.JobData().Status == SUCCEEDED || j.JobData().Status == FAILED
}

func (j *UnknownJob) JobData() *JobData {
	return j.jobData
}

func (j *UnknownJob) JobType() string {
	// return unknown job type itself
	return j.jobData.JobType
}

func (j *UnknownJob) JobContext() *JobContext {
	return j.jobContext
}

func (j *UnknownJob) Clone() Job {
	cloned := &UnknownJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
	}
	return cloned
}

func GetJob(id string) (job Job) {
	job = nil
	c := GetSystemComponents().Container
	err := c.Invoke(
		func(d DBManager) error {
			var getErr error
			job, getErr = d.Get(id)
			return getErr
		})
	if err != nil {
		zap.L().Info(fmt.Sprintf("failed to find a job(%s)", id))
		return nil
	}
	return job
}

// factory pattern
type JobManager struct {
	acceptableJobs []Job //empty jobs
}

func (j *JobManager) RegisterJob(jobs ...Job) error {
	for _, job := range jobs {
		for _, t := range j.acceptableJobs {
			if reflect.TypeOf(t) == reflect.TypeOf(job) {
				return errors.Errorf("job:%s is already registered", job.JobType())
			}
		}
		zap.L().Debug(fmt.Sprintf("registering job type %s", job.JobType()))
		j.acceptableJobs = append(j.acceptableJobs, job)
	}
	return nil
}

func (j *JobManager) AcceptableJobTypes() []string {
	types := []string{}
	for _, job := range j.acceptableJobs {
		types = append(types, job.JobType())
	}
	return types
}

func (j *JobManager) NewJobWithValidation(param *JobParam, jc *JobContext) (Job, error) {
	if param.JobType == "" { // default job type
		param.JobType = NORMAL_JOB
	}
	if err := validateJobParam(param); err != nil {
		zap.L().Info(fmt.Sprintf("failed to validate job param. Reason:%s", err.Error()))
		return nil, err
	}
	return j.NewJob(param, jc)
}

func (j *JobManager) NewJob(param *JobParam, jc *JobContext) (Job, error) {
	jd := NewJobData()
	jd.ID = param.JobID
	jd.QASM = param.QASM
	jd.Shots = param.Shots
	jd.Seed = param.Seed
	jd.JobType = param.JobType
	return j.NewJobFromJobData(jd, jc)
}

func (j *JobManager) NewJobFromJobDataWithValidation(jd *JobData, jc *JobContext) (Job, error) {
	if jd.JobType == "" { // default job type
		jd.JobType = NORMAL_JOB
	}
	p := &JobParam{
		JobID:   jd.ID,
		QASM:    jd.QASM,
		Shots:   jd.Shots,
		Seed:    jd.Seed,
		JobType: jd.JobType,
	}
	if err := validateJobParam(p); err != nil {
		zap.L().Info(fmt.Sprintf("failed to validate job data. Reason:%s", err.Error()))
		return nil, err
	}
	return j.NewJobFromJobData(jd, jc)
}

func (j *JobManager) NewJobFromJobData(jd *JobData, jc *JobContext) (Job, error) {
	if jd.JobType == "" { // default job type
		jd.JobType = NORMAL_JOB
	}
	zap.L().Debug(fmt.Sprintf("creating a job from job data. Job ID:%s, Job Type:%s", jd.ID, jd.JobType))
	for _, j := range j.acceptableJobs {
		if j.JobType() == jd.JobType {
			t := reflect.TypeOf(j)
			newInstance := reflect.New(t).Elem().Interface()
			job := newInstance.(Job).New(jd, jc)
			return job, nil
		}
	}
	return nil, errors.Errorf("job type %s is not registered", jd.JobType)
}

// ValidateJobID accepts up to 128 letters, digits, '.', '_' and '-' starting
// with a letter or digit.
func ValidateJobID(id string) error {
	if !jobIDRegex.MatchString(id) {
		return errors.Wrapf(ErrorInvalidJobID, "%q", id)
	}
	return nil
}

func validateJobParam(p *JobParam) error {
	if p.JobID == "" {
		return errors.New("jobID is empty")
	}
	if err := ValidateJobID(p.JobID); err != nil {
		return err
	}
	if p.QASM == "" {
		return errors.Errorf("program of job(%s) is empty", p.JobID)
	}
	// a state-vector job reads amplitudes and may skip sampling
	if p.JobType == STATEVECTOR_JOB && p.Shots == 0 {
		return nil
	}
	if p.Shots <= 0 {
		msg := fmt.Sprintf("shots(%d) must be greater than 0", p.Shots)
		zap.L().Info(msg + fmt.Sprintf("/jobID:%s", p.JobID))
		return errors.New(msg)
	}
	maxShots := GetSystemComponents().GetDeviceInfo().MaxShots
	if p.Shots > maxShots {
		msg := fmt.Sprintf("shots(%d) is over the limit(%d)", p.Shots, maxShots)
		zap.L().Info(msg + fmt.Sprintf("/jobID:%s", p.JobID))
		return errors.New(msg)
	}
	return nil
}

func NewJobManager(jobs ...Job) (*JobManager, error) {
	jm := &JobManager{}
	for _, job := range jobs {
		err := jm.RegisterJob(job)
		if err != nil {
			return nil, err
		}
	}
	jobManager = jm
	return jm, nil
}

func GetJobManager() *JobManager {
	return jobManager
}

func SetFailureWithError(j Job, err error) (msg string) {
	jd := j.JobData()
	return SetFailureWithErrorToJobData(jd, err)
}

func SetFailureWithErrorToJobData(jd *JobData, err error) (msg string) {
	msg = err.Error()
	if jd.Result == nil {
		jd.Result = NewResult()
	}
	jd.Result.Message = msg
	jd.Status = FAILED
	jd.Ended = strfmt.DateTime(time.Now())
	return msg
}

// AdmitJob rejects a job whose ID is already in flight or whose program does
// not fit the device, and marks the ID as in flight otherwise.
func AdmitJob(j Job) error {
	jd := j.JobData()
	container := GetSystemComponents().Container
	err := container.Invoke(
		func(d DBManager) error {
			if d.ExistInInnerJobIDSet(jd.ID) {
				return errors.Wrapf(ErrorJobIDConflict, "job(%s)", jd.ID)
			}
			return nil
		})
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to check the existence of a job(%s). Reason:%s", jd.ID, err.Error()))
		return err
	}
	err = container.Invoke(
		func(q QPUManager) error {
			return q.Validate(jd.QASM)
		})
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to validate the program of a job(%s). Reason:%s", jd.ID, err.Error()))
		return err
	}
	return container.Invoke(
		func(d DBManager) {
			d.AddToInnerJobIDSet(jd.ID)
		})
}

// ReleaseJob removes the job ID from the in-flight set.
func ReleaseJob(j Job) {
	_ = GetSystemComponents().Invoke(
		func(d DBManager) {
			d.RemoveFromInnerJobIDSet(j.JobData().ID)
		})
}
