package scheduler

import (
	"fmt"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/core"
)

type statusManager interface {
	Update(job core.Job, status core.Status)
	Delete(jobID string)
	Get(jobID string) []core.Status
}

type statusHistory map[string][]core.Status

// historyManager records the statuses a job goes through in the scheduler.
type historyManager struct {
	statusHistory statusHistory
	mu            sync.RWMutex
}

func newHistoryManager() *historyManager {
	return &historyManager{statusHistory: make(statusHistory)}
}

func (h *historyManager) Update(job core.Job, status core.Status) {
	job.JobData().Status = status
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statusHistory[job.JobData().ID] = append(h.statusHistory[job.JobData().ID], status)
}

func (h *historyManager) Delete(jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.statusHistory, jobID)
}

func (h *historyManager) Get(jobID string) []core.Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]core.Status(nil), h.statusHistory[jobID]...)
}

type NormalScheduler struct {
	queue         *NormalQueue
	statusManager statusManager
}

type jobInScheduler struct {
	job      core.Job
	finished *sync.WaitGroup
}

func (n *NormalScheduler) Setup(conf *core.Conf) error {
	n.queue = &NormalQueue{}
	if err := n.queue.Setup(conf); err != nil {
		return err
	}
	n.statusManager = newHistoryManager()
	return nil
}

// Start runs the worker that processes queued jobs one at a time.
func (n *NormalScheduler) Start() error {
	go func() {
		for {
			zap.L().Debug("checking the queue...")
			jis, err := n.queue.Dequeue(true)
			if err != nil {
				zap.L().Error(fmt.Sprintf("failed to get job from queue. Reason:%s", err))
				continue
			}
			jid := jis.job.JobData().ID
			zap.L().Debug(fmt.Sprintf("processing job:%s", jid))
			n.statusManager.Update(jis.job, core.RUNNING)
			jis.job.JobContext().DBChan <- jis.job.Clone()
			n.process(jis.job)
			zap.L().Debug(fmt.Sprintf("finished to process job(%s), status:%s", jid, jis.job.JobData().Status))
			jis.finished.Done()
		}
	}()
	return nil
}

func (n *NormalScheduler) process(j core.Job) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("panic in processing job(%s): %v", j.JobData().ID, r)
			zap.L().Error(err.Error())
			core.SetFailureWithError(j, err)
		}
	}()
	j.Process()
}

func (n *NormalScheduler) HandleJob(j core.Job) {
	zap.L().Debug(fmt.Sprintf("starting to handle job(%s) in %s", j.JobData().ID, j.JobData().Status))
	go func() {
		defer func() {
			jid := j.JobData().ID
			zap.L().Debug(fmt.Sprintf("status history job(%s): %v", jid, n.statusManager.Get(jid)))
			n.statusManager.Delete(jid)
		}()
		n.handleImpl(j)
	}()
}

func (n *NormalScheduler) HandleJobForTest(j core.Job, wg *sync.WaitGroup) {
	go func() {
		defer wg.Done()
		n.handleImpl(j)
	}()
}

func (n *NormalScheduler) record(j core.Job) {
	n.statusManager.Update(j, j.JobData().Status)
}

func (n *NormalScheduler) handleImpl(j core.Job) {
	jid := j.JobData().ID
	n.record(j) // must be ready
	zap.L().Debug(fmt.Sprintf("handling job(%s) in %s starting", jid, j.JobData().Status))
	if j.JobData().Status != core.READY {
		zap.L().Error(
			fmt.Sprintf("finished to handle job(%s) with unexpected status:%s", jid, j.JobData().Status))
		// not write to DB
		return
	}
	for {
		zap.L().Debug(fmt.Sprintf("handling job(%s). start pre-processing", jid))
		j.PreProcess()
		if j.IsFinished() {
			zap.L().Debug(fmt.Sprintf("finished to handle job(%s) after pre-processing", jid))
			n.record(j)
			j.JobContext().DBChan <- j.Clone()
			return
		}
		var wg sync.WaitGroup
		wg.Add(1)
		jis := &jobInScheduler{
			job:      j,
			finished: &wg,
		}
		if err := n.queue.Put(jis); err != nil {
			core.SetFailureWithError(j, err)
			n.record(j)
			j.JobContext().DBChan <- j.Clone()
			return
		}
		wg.Wait() // wait for processing
		zap.L().Debug(fmt.Sprintf("Processed Job Status: %s", j.JobData().Status))
		if j.IsFinished() {
			zap.L().Debug(fmt.Sprintf("finished to handle job(%s) after processing with status:%s",
				jid, j.JobData().Status))
			n.record(j)
			j.JobContext().DBChan <- j.Clone()
			return
		}
		zap.L().Debug(fmt.Sprintf("handling job(%s). start post-processing", jid))
		j.PostProcess()
		if j.IsFinished() {
			zap.L().Debug(fmt.Sprintf("finished to handle job(%s) after post-processing with status:%s",
				jid, j.JobData().Status))
			n.record(j)
			j.JobContext().DBChan <- j.Clone()
			return
		}
		zap.L().Debug(fmt.Sprintf("one more loop for job(%s)", jid))
		n.statusManager.Update(j, core.READY)
	}
}

func (n *NormalScheduler) GetCurrentQueueSize() int {
	return n.queue.GetCurrentSize()
}

func (n *NormalScheduler) IsOverRefillThreshold() bool {
	return n.queue.IsOverRefillThreshold()
}
