package core

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-openapi/strfmt"
	jsoniter "github.com/json-iterator/go"
	"github.com/mohae/deepcopy"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/outcome"
)

type Status int

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	SUBMITTED Status = iota // Accepted from the inbox, not yet validated.
	READY                   // Validated input; every job enters the scheduler in this status.
	RUNNING                 // Being simulated.
	SUCCEEDED               // Finished successfully.
	FAILED                  // Finished with failure.
	CANCELLED               // Finished with cancellation.
)

func (s Status) String() string {
	switch s {
	case SUBMITTED:
		return "submitted"
	case READY:
		return "ready"
	case RUNNING:
		return "running"
	case SUCCEEDED:
		return "succeeded"
	case FAILED:
		return "failed"
	case CANCELLED:
		return "cancelled"
	default:
		return "unknown"
	}
}

func ToStatus(s string) (Status, error) {
	switch s {
	case "submitted":
		return SUBMITTED, nil
	case "ready":
		return READY, nil
	case "running":
		return RUNNING, nil
	case "succeeded":
		return SUCCEEDED, nil
	case "failed":
		return FAILED, nil
	case "cancelled":
		return CANCELLED, nil
	default:
		return 0, errors.Errorf("unknown status: %s", s)
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	st, err := ToStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Amplitude is one entry of a state vector in JSON-friendly form.
type Amplitude struct {
	Basis string  `json:"basis"`
	Re    float64 `json:"re"`
	Im    float64 `json:"im"`
}

type Result struct {
	Counts        outcome.Counts        `json:"counts"`
	Probabilities outcome.Probabilities `json:"probabilities,omitempty"`
	Amplitudes    []Amplitude           `json:"amplitudes,omitempty"`
	Message       string                `json:"message"`
	ExecutionTime time.Duration         `json:"execution_time"`
}

type JobData struct {
	ID      string
	Status  Status
	Shots   int
	Seed    *uint64
	QASM    string
	Result  *Result
	JobType string
	Created strfmt.DateTime
	Ended   strfmt.DateTime
	Info    string
}

func (jd *JobData) Clone() *JobData {
	c := deepcopy.Copy(jd).(*JobData)
	c.Created = *jd.Created.DeepCopy()
	c.Ended = *jd.Ended.DeepCopy()
	return c
}

func NewResult() *Result {
	return &Result{
		Counts: make(outcome.Counts),
	}
}

func NewJobData() *JobData {
	return &JobData{
		Status:  READY,
		Result:  NewResult(),
		Created: strfmt.DateTime(time.Now()),
	}
}

func (r *Result) ToString() string {
	st, err := jsonIter.Marshal(r)
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to marshal core.Result. Reason:%s", err))
		return ""
	}
	st = pretty.Pretty(st)
	return string(st)
}
