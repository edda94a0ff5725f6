package core

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/common"
)

var globalSetting *Setting

// Setting holds the component sections of the setting file. Each component
// registers a pointer to its default setting; [com.<name>] is decoded into it.
type Setting struct {
	ComponentSetting map[string]interface{}
}

type settingFile struct {
	Com      map[string]toml.Primitive `toml:"com"`
	RunGroup toml.Primitive            `toml:"run_group"`
}

func ResetSetting() {
	globalSetting = newSetting()
}

func RegisterSetting(settingName string, settingVal interface{}) {
	globalSetting.registerSetting(settingName, settingVal)
}

func ParseSettingFromPath(settingsPath string) error {
	tomlString, err := common.ReadSettingsFile(settingsPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read setting file/reason:%s", err))
		return err
	}
	return globalSetting.parseSetting(tomlString)
}

func GetGlobalSetting() *Setting {
	return globalSetting
}

func GetComponentSetting(name string) (interface{}, bool) {
	if globalSetting == nil {
		zap.L().Error("Setting is not initialized")
		return nil, false
	}
	val, ok := globalSetting.ComponentSetting[name]
	return val, ok
}

func newSetting() *Setting {
	return &Setting{
		ComponentSetting: make(map[string]interface{}),
	}
}

func (s *Setting) registerSetting(settingName string, settingVal interface{}) {
	s.ComponentSetting[settingName] = settingVal
}

func (s *Setting) parseSetting(tomlString string) error {
	var f settingFile
	md, err := toml.Decode(tomlString, &f)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse setting/reason:%s", err))
		return err
	}
	for name, prim := range f.Com {
		target, ok := s.ComponentSetting[name]
		if !ok {
			zap.L().Info(fmt.Sprintf("ignoring unregistered component setting:%s", name))
			continue
		}
		if err := md.PrimitiveDecode(prim, target); err != nil {
			zap.L().Error(fmt.Sprintf("failed to decode setting of %s/reason:%s", name, err))
			return errors.Wrapf(err, "decode [com.%s]", name)
		}
	}
	zap.L().Debug(fmt.Sprintf("Setting is %v", s.ComponentSetting))
	return nil
}
