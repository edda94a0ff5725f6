package core

import (
	"fmt"

	"go.uber.org/dig"
)

const MockMaxQubits int = 10
const MockMaxShots int = 10000
const validateErrorMessage string = `line 3: "rz(0.5) q[0]": syntax error`

type UnimplementedJob struct {
	jobData    *JobData
	jobContext *JobContext
}

func (j *UnimplementedJob) New(jd *JobData, jc *JobContext) Job {
	return &UnimplementedJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *UnimplementedJob) PreProcess() {}

func (j *UnimplementedJob) Process() {}

func (j *UnimplementedJob) PostProcess() {}

func (j *UnimplementedJob) IsFinished() bool {
	return j.JobData().Status == SUCCEEDED || j.JobData().Status == FAILED
}

func (j *UnimplementedJob) JobData() *JobData {
	return j.jobData
}

func (j *UnimplementedJob) JobType() string {
	return j.jobData.JobType
}

func (j *UnimplementedJob) JobContext() *JobContext {
	return j.jobContext
}

func (j *UnimplementedJob) Clone() Job {
	cloned := &UnimplementedJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
	}
	return cloned
}

type UnimplementedQPU struct{}

func (u *UnimplementedQPU) Setup(*Conf) error {
	return nil
}

func (u *UnimplementedQPU) Send(Job) error {
	return nil
}

func (u *UnimplementedQPU) Validate(string) error {
	return nil
}

func (u *UnimplementedQPU) GetDeviceInfo() *DeviceInfo {
	return &DeviceInfo{
		MaxQubits:    MockMaxQubits,
		MaxShots:     MockMaxShots,
		DeviceName:   "unimplementedQPU",
		ProviderName: "qsim",
		Type:         "simulator",
		Status:       Available,
	}
}

type validateErrorQPUForTest struct {
	UnimplementedQPU
}

func (validateErrorQPUForTest) Validate(string) error {
	return fmt.Errorf(validateErrorMessage)
}

type successQPUForTest struct {
	UnimplementedQPU
}

func (successQPUForTest) Send(j Job) error {
	j.JobData().Status = SUCCEEDED
	return nil
}

type unimplementedDB struct {
	innerJobIDSet map[string]struct{}
}

func (u *unimplementedDB) Setup(DBChan, *Conf) error {
	u.innerJobIDSet = make(map[string]struct{})
	return nil
}
func (u *unimplementedDB) Insert(Job) error { return nil }
func (u *unimplementedDB) Get(JobID string) (Job, error) {
	return &NormalJob{}, nil
}
func (u *unimplementedDB) Update(Job) error    { return nil }
func (u *unimplementedDB) Delete(string) error { return nil }
func (u *unimplementedDB) AddToInnerJobIDSet(jobID string) {
	u.innerJobIDSet[jobID] = struct{}{}
}
func (u *unimplementedDB) RemoveFromInnerJobIDSet(jobID string) {
	delete(u.innerJobIDSet, jobID)
}
func (u *unimplementedDB) ExistInInnerJobIDSet(jobID string) bool {
	_, ok := u.innerJobIDSet[jobID]
	return ok
}

type successDBForTest struct {
	unimplementedDB
}

func (successDBForTest) Get(jobID string) (Job, error) {
	return &NormalJob{
		jobData: &JobData{
			ID:     jobID,
			Status: RUNNING,
		},
	}, nil
}

type notFindDBForTest struct {
	unimplementedDB
}

func (notFindDBForTest) Get(jobID string) (Job, error) {
	return &NormalJob{}, fmt.Errorf("failed to find %s", jobID)
}

type UnimplementedScheduler struct{}

func (u *UnimplementedScheduler) Setup(*Conf) error           { return nil }
func (u *UnimplementedScheduler) Start() error                { return nil }
func (u *UnimplementedScheduler) HandleJob(_ Job)             {}
func (u *UnimplementedScheduler) GetCurrentQueueSize() int    { return 0 }
func (u *UnimplementedScheduler) IsOverRefillThreshold() bool { return false }

func SCWithUnimplementedContainer() *SystemComponents {
	c := dig.New()
	c.Provide(func() QPUManager { return &successQPUForTest{} })
	c.Provide(func() DBManager { return &successDBForTest{} })
	c.Provide(func() Scheduler { return &UnimplementedScheduler{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{})
	return s
}

func SCWithValidateErrorContainer() *SystemComponents {
	c := dig.New()
	c.Provide(func() QPUManager { return &validateErrorQPUForTest{} })
	c.Provide(func() DBManager { return &successDBForTest{} })
	c.Provide(func() Scheduler { return &UnimplementedScheduler{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{})
	return s
}

func SCWithNotFindDBContainer() *SystemComponents {
	c := dig.New()
	c.Provide(func() QPUManager { return &successQPUForTest{} })
	c.Provide(func() DBManager { return &notFindDBForTest{} })
	c.Provide(func() Scheduler { return &UnimplementedScheduler{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{})
	return s
}

func SCWithDBContainer() *SystemComponents {
	c := dig.New()
	c.Provide(func() QPUManager { return &successQPUForTest{} })
	c.Provide(func() DBManager { return &MemoryDB{} })
	c.Provide(func() Scheduler { return &UnimplementedScheduler{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{})
	return s
}

func SCWithScheduler(sc Scheduler) *SystemComponents {
	c := dig.New()
	c.Provide(func() QPUManager { return &successQPUForTest{} })
	c.Provide(func() DBManager { return &MemoryDB{} })
	c.Provide(func() Scheduler { return sc })
	s := NewSystemComponents(c)
	s.Setup(&Conf{QueueMaxSize: 1000})
	return s
}

// SCWithComponents wires the given QPU with a MemoryDB and a no-op scheduler.
func SCWithComponents(q QPUManager, conf *Conf) (*SystemComponents, error) {
	c := dig.New()
	c.Provide(func() QPUManager { return q })
	c.Provide(func() DBManager { return &MemoryDB{} })
	c.Provide(func() Scheduler { return &UnimplementedScheduler{} })
	s := NewSystemComponents(c)
	if err := s.Setup(conf); err != nil {
		return nil, err
	}
	return s, nil
}
