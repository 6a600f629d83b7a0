package config

// RuntimeConfig is the subset of the configuration that can be safely
// adjusted while the detector is running, through the web API or a config
// file rewrite. Camera intrinsics, stop lines and platform settings need a
// restart and are deliberately excluded.
type RuntimeConfig struct {
	Detector   DetectorConfig   `yaml:"Detector" json:"Detector"`
	Classifier ClassifierConfig `yaml:"Classifier" json:"Classifier"`
}
