package core

import (
	"fmt"
	"io"

	"go.uber.org/dig"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var systemComponents *SystemComponents

type DBChan chan Job

type Channels struct {
	DBChan
	// when more channel is needed, add here
}

func NewChannels() *Channels {
	return &Channels{
		DBChan: make(DBChan),
	}
}

func (c *Channels) Close() {
	close(c.DBChan)
}

func (c *Channels) Check() error {
	if c.DBChan == nil {
		return fmt.Errorf("DBChan is nil")
	}
	return nil
}

type DeviceInfo struct {
	DeviceName   string       `json:"device_name"`
	ProviderName string       `json:"provider_name"`
	Type         string       `json:"type"`
	Status       DeviceStatus `json:"status"`
	MaxQubits    int          `json:"max_qubits"`
	MaxShots     int          `json:"max_shots"`
	DenseLimit   int          `json:"dense_limit"`
	Tolerance    float64      `json:"tolerance"`
}

type DeviceStatus int

const (
	Available DeviceStatus = iota
	Unavailable
	QueuePaused
)

func (ds DeviceStatus) String() string {
	switch ds {
	case Available:
		return "Available"
	case Unavailable:
		return "Unavailable"
	case QueuePaused:
		return "QueuePaused"
	default:
		return "Unknown"
	}
}

func (ds DeviceStatus) MarshalText() ([]byte, error) {
	return []byte(ds.String()), nil
}

type QPUManager interface {
	Setup(*Conf) error
	Send(Job) error
	// Validate parses the program and checks it fits on the device.
	Validate(program string) error
	GetDeviceInfo() *DeviceInfo
}

type Scheduler interface {
	Setup(*Conf) error
	Start() error
	HandleJob(Job)
	// Queue Data Access
	GetCurrentQueueSize() int
	IsOverRefillThreshold() bool
}

type DBManager interface {
	Setup(DBChan, *Conf) error
	Insert(Job) error
	Get(string) (Job, error)
	Update(Job) error
	Delete(string) error

	AddToInnerJobIDSet(string)
	RemoveFromInnerJobIDSet(string)
	ExistInInnerJobIDSet(string) bool
}

type SystemComponents struct {
	*dig.Container
	*Channels
}

func NewSystemComponents(con *dig.Container) *SystemComponents {
	return &SystemComponents{
		con,
		NewChannels(),
	}
}

func GetSystemComponents() *SystemComponents {
	return systemComponents
}

func (s *SystemComponents) Setup(conf *Conf) error {
	dbChan := s.DBChan

	zap.L().Debug("Setting up scheduler")
	err := s.Invoke(
		func(s Scheduler) error {
			return s.Setup(conf)
		})
	if err != nil {
		return err
	}

	zap.L().Debug("Setting up DB")
	err = s.Invoke(
		func(d DBManager) error {
			return d.Setup(dbChan, conf)
		})
	if err != nil {
		return err
	}

	zap.L().Debug("Setting up QPU")
	err = s.Invoke(func(q QPUManager) error {
		return q.Setup(conf)
	})
	if err != nil {
		return err
	}
	systemComponents = s
	return nil
}

// TearDown closes the DB channel and then every component that is an
// io.Closer.
func (s *SystemComponents) TearDown() (err error) {
	s.Channels.Close()
	_ = s.Invoke(
		func(d DBManager) {
			if c, ok := d.(io.Closer); ok {
				err = multierr.Append(err, c.Close())
			}
		})
	_ = s.Invoke(
		func(q QPUManager) {
			if c, ok := q.(io.Closer); ok {
				err = multierr.Append(err, c.Close())
			}
		})
	return err
}

func (s *SystemComponents) StartContainer() error {
	return s.Container.Invoke(
		func(s Scheduler) error {
			return s.Start()
		})
}

func (s *SystemComponents) GetDeviceInfo() *DeviceInfo {
	var deviceInfo *DeviceInfo
	s.Invoke(
		func(q QPUManager) error {
			deviceInfo = q.GetDeviceInfo()
			return nil
		})
	return deviceInfo
}

func (s *SystemComponents) GetCurrentQueueSize() int {
	var size int
	s.Invoke(
		func(sc Scheduler) {
			size = sc.GetCurrentQueueSize()
		})
	return size
}

func (s *SystemComponents) IsQueueOverRefillThreshold() bool {
	var over bool
	s.Invoke(
		func(sc Scheduler) {
			over = sc.IsOverRefillThreshold()
		})
	return over
}
