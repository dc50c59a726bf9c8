package config

import "time"

type Config struct {
	Device         string        `yaml:"device"` // "capture" or "wav"
	WavInput       string        `yaml:"wav_input"`
	WavOutput      string        `yaml:"wav_output"`
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`
	VizServer      struct {
		Port           int           `yaml:"port"`
		UpdateInterval time.Duration `yaml:"update_interval_ms"`
	} `yaml:"viz_server"`
}
