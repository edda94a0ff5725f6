package core

import (
	"fmt"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

type MemoryDB struct {
	dbMap         map[string]Job
	innerJobIDSet map[string]struct{}
	dbChan        <-chan Job
	mu            sync.RWMutex
}

func (d *MemoryDB) Setup(dbc DBChan, c *Conf) error {
	d.dbMap = make(map[string]Job)
	d.innerJobIDSet = make(map[string]struct{})
	d.dbChan = dbc
	if dbc == nil {
		return nil
	}
	go func() {
		for job := range d.dbChan {
			zap.L().Debug(fmt.Sprintf("[MemoryDB] Received %s", job.JobData().ID))
			if err := d.Update(job); err != nil {
				zap.L().Error(fmt.Sprintf("failed to update a job(%s). Reason:%s",
					job.JobData().ID, err.Error()))
			}
		}
	}()
	return nil
}

func (d *MemoryDB) Insert(j Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := j.JobData().ID
	if _, ok := d.dbMap[id]; ok {
		return errors.Wrapf(ErrorJobIDConflict, "insert %s", id)
	}
	d.dbMap[id] = j
	return nil
}

func (d *MemoryDB) Get(jobID string) (Job, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if val, ok := d.dbMap[jobID]; ok {
		return val, nil
	}
	err := errors.Errorf("not found %s", jobID)
	zap.L().Info("[MemoryDB]", zap.Error(err))
	return &NormalJob{}, err
}

func (d *MemoryDB) Update(j Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dbMap[j.JobData().ID] = j
	return nil
}

func (d *MemoryDB) Delete(jobID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.dbMap[jobID]; ok {
		delete(d.dbMap, jobID)
		zap.L().Info(fmt.Sprintf("[MemoryDB] deleted %s from DB", jobID))
		return nil
	}
	err := errors.Errorf("failed to find %s", jobID)
	zap.L().Info("[MemoryDB]", zap.Error(err))
	return err
}

// Len returns the number of stored jobs.
func (d *MemoryDB) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.dbMap)
}

func (d *MemoryDB) AddToInnerJobIDSet(jobID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.innerJobIDSet[jobID] = struct{}{}
}

func (d *MemoryDB) RemoveFromInnerJobIDSet(jobID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.innerJobIDSet, jobID)
}

func (d *MemoryDB) ExistInInnerJobIDSet(jobID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.innerJobIDSet[jobID]
	return ok
}
