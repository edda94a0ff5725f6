package core

type Conf struct {
	Version              string `long:"version" description:"version of qsim engine" env:"QSIM_VERSION"`
	DevMode              bool   `long:"dev-mode" description:"run in dev mode" env:"QSIM_DEV_MODE"`
	DisableStdoutLog     bool   `long:"disable-stdout-log" description:"do not log in standard output" env:"QSIM_DISABLE_STDOUT_LOG"`
	EnableFileLog        bool   `long:"enable-file-log" description:"enable log in file" env:"QSIM_ENABLE_FILE_LOG"`
	LogDir               string `long:"log-dir" description:"rotating log file dir" default:"./shares/logs" env:"QSIM_LOG_DIR"`
	LogLevel             string `long:"log-level" description:"log level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" env:"QSIM_LOG_LEVEL"`
	LogRotationMaxDays   int    `long:"log-rotation-max-days" description:"max days of log rotation" default:"7" env:"QSIM_LOG_ROTATION_MAX_DAYS"`
	DeviceSettingPath    string `long:"device-setting-path" description:"simulator setting file path" default:"./setting/device_setting.toml" env:"QSIM_DEVICE_SETTING_PATH"`
	UseDefaultDevice     bool   `long:"use-default-device" description:"ignore the device setting file and use built-in simulator limits" env:"QSIM_USE_DEFAULT_DEVICE"`
	QueueMaxSize         int    `long:"queue-max-size" description:"queue max size" default:"100" env:"QSIM_QUEUE_MAX_SIZE"`
	QueueRefillThreshold int    `long:"queue-refill-threshold" description:"queue refill threshold" default:"10" env:"QSIM_QUEUE_REFILL_THRESHOLD"`
	InboxDir             string `long:"inbox-dir" description:"directory polled for job files" default:"./shares/inbox" env:"QSIM_INBOX_DIR"`
	OutboxDir            string `long:"outbox-dir" description:"directory finished job results are written to" default:"./shares/outbox" env:"QSIM_OUTBOX_DIR"`
	DefaultShots         int    `long:"default-shots" description:"shots used when a job file does not specify them" default:"1000" env:"QSIM_DEFAULT_SHOTS"`
	SettingPath          string `long:"setting-path" description:"setting file path" default:"./setting/setting.toml" env:"QSIM_SETTING_PATH"`
}
