package poller

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/common"
	"github.com/oqtopus-team/qsim/core"
)

const processedDir = "processed"

// jobDocument is the JSON form of a job file in the inbox.
type jobDocument struct {
	JobID   string  `json:"job_id"`
	JobType string  `json:"job_type"`
	Shots   *int    `json:"shots"`
	Seed    *uint64 `json:"seed"`
	Program string  `json:"program"`
}

type spoolClientParams struct {
	inboxDir       string
	count          int
	defaultShots   int
	defaultJobType string
}

// spoolClient reads job files from the inbox directory. Every file it reads
// is moved to the processed directory so that it is only submitted once.
type spoolClient struct {
	*spoolClientParams
	processed string
}

func newSpoolClient(p *spoolClientParams) (*spoolClient, error) {
	processed := filepath.Join(p.inboxDir, processedDir)
	if err := os.MkdirAll(processed, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", processed)
	}
	if err := common.IsDirWritable(p.inboxDir); err != nil {
		return nil, err
	}
	return &spoolClient{spoolClientParams: p, processed: processed}, nil
}

func (c *spoolClient) request() ([]core.Job, error) {
	entries, err := os.ReadDir(c.inboxDir)
	if err != nil {
		return nil, errors.Wrapf(err, "read inbox %s", c.inboxDir)
	}
	jm := core.GetJobManager()
	if jm == nil {
		return nil, errors.New("job manager is not initialized")
	}
	jc, err := core.NewJobContext()
	if err != nil {
		return nil, err
	}
	jobs := []core.Job{}
	taken := 0
	for _, e := range entries {
		if taken >= c.count {
			break
		}
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".json" && ext != ".qasm") {
			continue
		}
		taken++
		param, err := c.take(e.Name())
		if err != nil {
			zap.L().Error(fmt.Sprintf("failed to read job file %s/reason:%s", e.Name(), err))
			c.reject(param, err, jc)
			continue
		}
		job, err := jm.NewJobWithValidation(param, jc)
		if err != nil {
			c.reject(param, err, jc)
			continue
		}
		zap.L().Info(fmt.Sprintf("accepted job file %s as job(%s)", e.Name(), param.JobID))
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// take reads the job file and moves it out of the inbox. The returned param
// carries the job ID even when the file is malformed.
func (c *spoolClient) take(name string) (*core.JobParam, error) {
	path := filepath.Join(c.inboxDir, name)
	blob, readErr := common.ReadFile(path)
	if err := os.Rename(path, filepath.Join(c.processed, name)); err != nil {
		return nil, errors.Wrapf(err, "move %s", name)
	}
	param := &core.JobParam{
		JobID:   uuid.NewString(),
		Shots:   c.defaultShots,
		JobType: c.defaultJobType,
	}
	if readErr != nil {
		return param, readErr
	}
	if filepath.Ext(name) == ".qasm" {
		param.QASM = blob
		return param, nil
	}
	var doc jobDocument
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(blob, &doc); err != nil {
		return param, errors.Wrapf(err, "decode %s", name)
	}
	zap.L().Debug(fmt.Sprintf("job document %s:%s", name, common.PlainJsonString(blob)))
	if doc.JobID != "" {
		param.JobID = doc.JobID
	}
	if doc.JobType != "" {
		param.JobType = doc.JobType
	}
	if doc.Shots != nil {
		param.Shots = *doc.Shots
	}
	param.Seed = doc.Seed
	param.QASM = strings.TrimSpace(doc.Program)
	return param, nil
}

// reject stores a failed job for a file that could not become a job.
func (c *spoolClient) reject(param *core.JobParam, reason error, jc *core.JobContext) {
	if param == nil {
		return
	}
	jd := core.NewJobData()
	jd.ID = param.JobID
	if err := core.ValidateJobID(jd.ID); err != nil {
		jd.ID = uuid.NewString()
		zap.L().Info(fmt.Sprintf("replaced job id %q with %s", param.JobID, jd.ID))
	}
	jd.QASM = param.QASM
	jd.Shots = param.Shots
	jd.Seed = param.Seed
	jd.JobType = param.JobType
	core.SetFailureWithErrorToJobData(jd, reason)
	zap.L().Info(fmt.Sprintf("rejected job(%s)/reason:%s", jd.ID, reason))
	jc.DBChan <- core.NewUnknownJob(jd, jc)
}
