package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/common"
	"github.com/oqtopus-team/qsim/core"
)

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is the document written for every finished job.
type Record struct {
	JobID   string       `json:"job_id"`
	JobType string       `json:"job_type"`
	Status  core.Status  `json:"status"`
	Shots   int          `json:"shots"`
	Seed    *uint64      `json:"seed,omitempty"`
	Program string       `json:"program"`
	Result  *core.Result `json:"result"`
	Created time.Time    `json:"created"`
	Ended   time.Time    `json:"ended"`
}

func NewRecord(jd *core.JobData) *Record {
	return &Record{
		JobID:   jd.ID,
		JobType: jd.JobType,
		Status:  jd.Status,
		Shots:   jd.Shots,
		Seed:    jd.Seed,
		Program: jd.QASM,
		Result:  jd.Result,
		Created: time.Time(jd.Created),
		Ended:   time.Time(jd.Ended),
	}
}

// FileDB keeps jobs in memory and writes each finished job to
// <outbox>/<job id>.json.
type FileDB struct {
	core.MemoryDB
	outboxDir string
	done      chan struct{}
}

func (f *FileDB) Setup(dbc core.DBChan, c *core.Conf) error {
	zap.L().Debug("Setting up File DB")
	if err := f.MemoryDB.Setup(nil, c); err != nil {
		return err
	}
	if err := os.MkdirAll(c.OutboxDir, 0o755); err != nil {
		return errors.Wrapf(err, "create outbox %s", c.OutboxDir)
	}
	if err := common.IsDirWritable(c.OutboxDir); err != nil {
		return err
	}
	f.outboxDir = c.OutboxDir
	f.done = make(chan struct{})
	go func() {
		defer close(f.done)
		for job := range dbc {
			zap.L().Debug(fmt.Sprintf("[FileDB] Received %s/status:%s", job.JobData().ID, job.JobData().Status))
			if err := f.Update(job); err != nil {
				zap.L().Error(fmt.Sprintf("failed to update a job(%s). Reason:%s",
					job.JobData().ID, err.Error()))
			}
		}
	}()
	return nil
}

func (f *FileDB) Update(j core.Job) error {
	if err := f.MemoryDB.Update(j); err != nil {
		return err
	}
	if !j.IsFinished() {
		return nil
	}
	return f.write(j.JobData())
}

func (f *FileDB) write(jd *core.JobData) error {
	if err := core.ValidateJobID(jd.ID); err != nil {
		return errors.Wrap(err, "refuse to write outside the outbox")
	}
	b, err := jsonIter.Marshal(NewRecord(jd))
	if err != nil {
		return errors.Wrapf(err, "marshal job(%s)", jd.ID)
	}
	path := f.Path(jd.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, pretty.Pretty(b), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "rename %s", tmp)
	}
	zap.L().Info(fmt.Sprintf("[FileDB] wrote job(%s) to %s", jd.ID, path))
	return nil
}

// Path returns the outbox file of the job.
func (f *FileDB) Path(jobID string) string {
	return filepath.Join(f.outboxDir, jobID+".json")
}

// Close waits until every job sent before the DB channel was closed is stored.
func (f *FileDB) Close() error {
	if f.done == nil {
		return nil
	}
	select {
	case <-f.done:
		return nil
	case <-time.After(5 * time.Second):
		return errors.New("timed out waiting for the file DB to flush")
	}
}
