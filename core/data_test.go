//go:build unit
// +build unit

package core

import (
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"

	"github.com/oqtopus-team/qsim/outcome"
)

func TestResultToString(t *testing.T) {
	tests := []struct {
		name       string
		result     *Result
		wantString string
	}{
		{
			name:   "empty result",
			result: NewResult(),
			wantString: heredoc.Doc(`
			  {
			    "counts": {},
			    "message": "",
			    "execution_time": 0
			  }
			`),
		},
		{
			name:   "message in result",
			result: messageInResult(),
			wantString: heredoc.Doc(`
			  {
			    "counts": {},
			    "message": "dummy message",
			    "execution_time": 0
			  }
			`),
		},
		{
			name:   "counts and probabilities in result",
			result: countsInResult(),
			wantString: heredoc.Doc(`
			  {
			    "counts": {
			      "00": 10,
			      "11": 30
			    },
			    "probabilities": {
			      "00": 0.25,
			      "11": 0.75
			    },
			    "message": "",
			    "execution_time": 0
			  }
			`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := tt.result.ToString()
			assert.Equal(t, tt.wantString, act)
		})
	}
}

func messageInResult() *Result {
	r := NewResult()
	r.Message = "dummy message"
	return r
}

func countsInResult() *Result {
	r := NewResult()
	r.Counts = outcome.Counts{"00": 10, "11": 30}
	r.Probabilities = outcome.ToProbabilities(r.Counts)
	return r
}

func TestCloneJobData(t *testing.T) {
	seed := uint64(7)
	tests := []struct {
		name    string
		jobData *JobData
	}{
		{
			name: "no result",
			jobData: &JobData{
				ID:      "dummy_id",
				QASM:    "dummy_qasm",
				Shots:   1000,
				Result:  NewResult(),
				Created: strfmt.NewDateTime(),
				Ended:   strfmt.NewDateTime(),
			},
		},
		{
			name: "with result and seed",
			jobData: &JobData{
				ID:     "dummy_id",
				QASM:   "dummy_qasm",
				Shots:  1000,
				Seed:   &seed,
				Result: countsInResult(),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clonedJobData := tt.jobData.Clone()

			assert.False(t, tt.jobData == clonedJobData)
			assert.Equal(t, tt.jobData.ID, clonedJobData.ID)
			assert.Equal(t, tt.jobData.QASM, clonedJobData.QASM)
			assert.Equal(t, tt.jobData.Shots, clonedJobData.Shots)
			assert.Equal(t, tt.jobData.Seed, clonedJobData.Seed)
			assert.Equal(t, tt.jobData.Created, clonedJobData.Created)
			assert.Equal(t, tt.jobData.Ended, clonedJobData.Ended)
			assert.False(t, tt.jobData.Result == clonedJobData.Result)
			assert.Equal(t, tt.jobData.Result.Counts, clonedJobData.Result.Counts)

			clonedJobData.Result.Counts["01"] = 1
			assert.NotContains(t, tt.jobData.Result.Counts, "01")
		})
	}
}

func TestStatus(t *testing.T) {
	for _, st := range []Status{SUBMITTED, READY, RUNNING, SUCCEEDED, FAILED, CANCELLED} {
		got, err := ToStatus(st.String())
		assert.Nil(t, err)
		assert.Equal(t, st, got)
	}
	_, err := ToStatus("paused")
	assert.NotNil(t, err)

	b, err := jsonIter.Marshal(struct {
		Status Status `json:"status"`
	}{Status: FAILED})
	assert.Nil(t, err)
	assert.Equal(t, `{"status":"failed"}`, string(b))
}
