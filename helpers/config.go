package helpers

import (
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type channelConfig struct {
	App struct {
		WebPort        int    `yaml:"web_port" koanf:"web_port"`
		VideoFilesPath string `yaml:"video_files_path" koanf:"video_files_path"`
		ScheduleFile   string `yaml:"schedule_file" koanf:"schedule_file"`
		LibraryFile    string `yaml:"library_file" koanf:"library_file"`
	} `yaml:"app" koanf:"app"`
	OBS struct {
		Host     string `yaml:"host" koanf:"host"`
		Port     int    `yaml:"port" koanf:"port"`
		Password string `yaml:"password" koanf:"password"`
	} `yaml:"obs" koanf:"obs"`
	Scheduler struct {
		Mode              string `yaml:"mode" koanf:"mode"`
		EmptyPollSeconds  int    `yaml:"empty_poll_seconds" koanf:"empty_poll_seconds"`
		DuePollMillis     int    `yaml:"due_poll_millis" koanf:"due_poll_millis"`
		StatusPollMillis  int    `yaml:"status_poll_millis" koanf:"status_poll_millis"`
		EarlySwitchMillis int    `yaml:"early_switch_millis" koanf:"early_switch_millis"`
	} `yaml:"scheduler" koanf:"scheduler"`
	Database struct {
		DBPath string `yaml:"db_path" koanf:"db_path"`
	} `yaml:"database" koanf:"database"`
}

var loadedConfig *channelConfig
var loadedConfigOnce sync.Once

func GetConfig() *channelConfig {
	loadedConfigOnce.Do(func() {
		var k = koanf.New(".")
		if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
			panic(err.Error())
		}
		if err := k.Load(env.Provider("APP_", ".", func(s string) string {
			return strings.Replace(strings.ToLower(
				strings.TrimPrefix(s, "APP_")), "_", ".", -1)
		}), nil); err != nil {
			panic(err.Error())
		}
		if err := k.Unmarshal("", &loadedConfig); err != nil {
			panic(err.Error())
		}
		applyDefaults(loadedConfig)
	})
	return loadedConfig
}

func applyDefaults(c *channelConfig) {
	if c.App.WebPort == 0 {
		c.App.WebPort = 8080
	}
	if c.App.VideoFilesPath == "" {
		c.App.VideoFilesPath = "videos"
	}
	if c.App.ScheduleFile == "" {
		c.App.ScheduleFile = "schedule.txt"
	}
	if c.App.LibraryFile == "" {
		c.App.LibraryFile = "videos.txt"
	}
	if c.OBS.Host == "" {
		c.OBS.Host = "127.0.0.1"
	}
	if c.OBS.Port == 0 {
		c.OBS.Port = 4455
	}
	if c.Scheduler.Mode == "" {
		c.Scheduler.Mode = "clock"
	}
	if c.Scheduler.EmptyPollSeconds == 0 {
		c.Scheduler.EmptyPollSeconds = 5
	}
	if c.Scheduler.DuePollMillis == 0 {
		c.Scheduler.DuePollMillis = 500
	}
	if c.Scheduler.StatusPollMillis == 0 {
		c.Scheduler.StatusPollMillis = 500
	}
	if c.Scheduler.EarlySwitchMillis == 0 {
		c.Scheduler.EarlySwitchMillis = 500
	}
}
