package log

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/common"
	"github.com/oqtopus-team/qsim/core"
)

const MetricsLogTaskName = "metrics_log"
const (
	queueLengthKeyInMetrics  = "queue_length"
	deviceStatusKeyInMetrics = "device_status"
	deviceNameKeyInMetrics   = "device_name"
)

type MetricsLogParams struct {
	FileDir string `toml:"file_dir"`
}

type MetricsLogTaskImpl struct {
	MetricsLogParams

	dl     *dailyLogger
	logger *slog.Logger
	sc     *core.SystemComponents

	core.DefaultTaskImpl
}

func setupMetricsLogTask(fileDir string) (*dailyLogger, error) {
	if err := common.IsDirWritable(fileDir); err != nil {
		return nil, errors.Wrapf(err, "failed to write to %s", fileDir)
	}
	return newDailyLogger(fileDir), nil
}

func (m *MetricsLogTaskImpl) Setup() error {
	dl, err := setupMetricsLogTask(m.FileDir)
	if err != nil {
		zap.L().Error("failed to set up metrics log task", zap.Error(err))
		return err
	}
	m.dl = dl
	m.logger = slog.New(slog.NewJSONHandler(dl, nil))
	m.sc = core.GetSystemComponents()
	return nil
}

func (m *MetricsLogTaskImpl) GetEmptyParams() interface{} {
	p := m.MetricsLogParams
	if p.FileDir == "" {
		p.FileDir = "./shares/logs"
	}
	return &p
}

func (m *MetricsLogTaskImpl) SetParams(p interface{}) error {
	mp, ok := p.(*MetricsLogParams)
	if !ok {
		err := fmt.Errorf("failed to set params for metrics log task/params: %v", p)
		zap.L().Error(err.Error())
		return err
	}
	m.MetricsLogParams = *mp
	return nil
}

func (m *MetricsLogTaskImpl) Task() {
	di := m.sc.GetDeviceInfo()
	m.logger.Info(
		"Metrics",
		slog.Int(queueLengthKeyInMetrics, m.sc.GetCurrentQueueSize()),
		slog.String(deviceStatusKeyInMetrics, di.Status.String()),
		slog.String(deviceNameKeyInMetrics, di.DeviceName),
	)
}

func (m *MetricsLogTaskImpl) Cleanup() {
	if err := m.dl.Close(); err != nil {
		zap.L().Error("failed to close metrics log", zap.Error(err))
	}
}

type dailyLogger struct {
	mu              sync.Mutex
	fileDir         string
	currentFileName string
	file            *os.File
	now             func() time.Time
}

func newDailyLogger(fileDir string) *dailyLogger {
	return &dailyLogger{
		fileDir: fileDir,
		now:     time.Now,
	}
}

func (dl *dailyLogger) fileName() string {
	return fmt.Sprintf("metrics-%s.log", dl.now().Format("2006-01-02"))
}

func (dl *dailyLogger) Write(p []byte) (n int, err error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	fileName := dl.fileName()
	if dl.file == nil || dl.currentFileName != fileName {
		if dl.file != nil {
			dl.file.Close()
		}
		var err error
		dl.file, err = os.OpenFile(filepath.Join(dl.fileDir, fileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return 0, err
		}
		dl.currentFileName = fileName
	}

	return dl.file.Write(p)
}

func (dl *dailyLogger) Close() error {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file != nil {
		err := dl.file.Close()
		dl.file = nil
		return err
	}
	return nil
}
