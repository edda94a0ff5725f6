package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/massn/envordot"

	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/db"
	"github.com/oqtopus-team/qsim/qpu"
	"github.com/oqtopus-team/qsim/scheduler"

	"go.uber.org/dig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	rotate "github.com/lestrrat-go/file-rotatelogs"
)

var versionByBuildFlag string
var parser *flags.Parser
var qsim *QSim

func init() {
	if err := envordot.Load(false, ".env"); err != nil {
		fmt.Printf("Not found \".env\" file. Use only environment variables. Reason:%s\n", err.Error())
	} else {
		fmt.Println("Found \".env\" file. Environment variables are preferred, " +
			"but non-conflicting variables are those in the \".env\" file.")
	}
	qsim = &QSim{}
	setParser(qsim)
}

type QSim struct {
	DIContainerParameters *DIContainerParameters
	Conf                  *core.Conf
}

type DIContainerParameters struct {
	DBManager string `long:"db" description:"db" default:"file" choice:"memory" choice:"file" env:"QSIM_DB_MANAGER_TYPE"`
	Scheduler string `long:"scheduler" description:"scheduler-type" default:"normal" env:"QSIM_SCHEDULER_TYPE"`
}

func setParser(q *QSim) {
	parser = flags.NewParser(q, flags.Default)
	parser.ShortDescription = "qsim"
	parser.LongDescription = "a state-vector simulator of quantum circuits written in OpenQASM."
	parser.AddCommand("run", "simulate a circuit", "simulate one OpenQASM file and print the result", newRunCmd())
	parser.AddCommand("engine", "start engine", "start polling the inbox for simulation jobs", newEngineCmd())
}

func parse() {
	if _, err := parser.Parse(); err != nil {
		code := 1
		if fe, ok := err.(*flags.Error); ok {
			if fe.Type == flags.ErrHelp {
				code = 0
			}
		}
		if code == 1 {
			fmt.Printf("failed to parse flags, because %s\n", err)
		}
		os.Exit(code)
	}
}

func (q *QSim) provideDIContainer() (c *dig.Container, err error) {
	c = dig.New()
	err = c.Provide(func() core.QPUManager { return &qpu.SimulatorQPU{} })
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func() (core.Scheduler, error) {
		switch q.DIContainerParameters.Scheduler {
		case "normal":
			return &scheduler.NormalScheduler{}, nil
		default:
			return &scheduler.NormalScheduler{}, fmt.Errorf("%s is an unknown Scheduler", q.DIContainerParameters.Scheduler)
		}
	})
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func() (core.DBManager, error) {
		switch q.DIContainerParameters.DBManager {
		case "memory":
			return &core.MemoryDB{}, nil
		case "file":
			return &db.FileDB{}, nil
		default:
			return &core.MemoryDB{}, fmt.Errorf("%s is an unknown DB", q.DIContainerParameters.DBManager)
		}
	})
	if err != nil {
		return &dig.Container{}, err
	}
	return
}

func zapLogger(conf *core.Conf) (*zap.Logger, error) {
	var encoder zapcore.Encoder
	if conf.DevMode {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		c := zap.NewProductionEncoderConfig()
		c.EncodeTime = zapcore.ISO8601TimeEncoder
		c.TimeKey = "timestamp"
		encoder = zapcore.NewJSONEncoder(c)
	}
	var level zap.AtomicLevel
	switch conf.LogLevel {
	case "debug":
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cores := []zapcore.Core{}
	if conf.EnableFileLog {
		rotater, err := makeRotator(conf.LogDir, conf.LogRotationMaxDays)
		if err != nil {
			return &zap.Logger{}, err
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotater), level))
	}
	if !conf.DisableStdoutLog {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func makeRotator(dirPath string, rotationMaxDays int) (*rotate.RotateLogs, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return &rotate.RotateLogs{}, fmt.Errorf("directory:%s is not found", dirPath)
	}
	if info.Mode().Perm()&(1<<uint(7)) == 0 {
		return &rotate.RotateLogs{}, fmt.Errorf("%s is not a writable directory", dirPath)
	}
	rotator, err := rotate.New(
		filepath.Join(dirPath, "qsim-%Y-%m-%d.log"),
		rotate.WithMaxAge(time.Duration(rotationMaxDays)*24*time.Hour),
		rotate.WithRotationTime(time.Hour))
	if err != nil {
		return &rotate.RotateLogs{}, err
	}
	return rotator, nil
}

func setZap(conf *core.Conf) *zap.Logger {
	logger, err := zapLogger(conf)
	if err != nil {
		fmt.Printf("Failed to setup logger. Reason:%s\n", err)
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	zap.L().Info("Starting logger")
	zap.L().Info(fmt.Sprintf("DevMode is %t", conf.DevMode))
	zap.L().Info(fmt.Sprintf("Log rotation max days is %d", conf.LogRotationMaxDays))
	return logger
}

func registerSetting() {
	core.RegisterSetting(qpu.SIMULATOR_SETTING, qpu.NewDefaultSimulatorSetting())
}

func main() {
	parse()
}
