package core

type NonSecretConf struct {
	DevMode              bool
	DisableStdoutLog     bool
	EnableFileLog        bool
	LogDir               string
	LogLevel             string
	LogRotationMaxDays   int
	UseDefaultDevice     bool
	DeviceSettingPath    string
	QueueMaxSize         int
	QueueRefillThreshold int
	InboxDir             string
	OutboxDir            string
	DefaultShots         int
}

type Info struct {
	Conf *NonSecretConf
}

var CurrentInfo *Info

func SetInfo(c *Conf) {
	conf := &NonSecretConf{
		DevMode:              c.DevMode,
		DisableStdoutLog:     c.DisableStdoutLog,
		EnableFileLog:        c.EnableFileLog,
		LogDir:               c.LogDir,
		LogLevel:             c.LogLevel,
		LogRotationMaxDays:   c.LogRotationMaxDays,
		UseDefaultDevice:     c.UseDefaultDevice,
		DeviceSettingPath:    c.DeviceSettingPath,
		QueueMaxSize:         c.QueueMaxSize,
		QueueRefillThreshold: c.QueueRefillThreshold,
		InboxDir:             c.InboxDir,
		OutboxDir:            c.OutboxDir,
		DefaultShots:         c.DefaultShots,
	}

	CurrentInfo = &Info{
		Conf: conf,
	}
}
