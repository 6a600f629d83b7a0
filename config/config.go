// Package config loads and validates the detector's YAML configuration:
// camera intrinsics, stop-line positions, pipeline tuning, classifier
// profiles, platform and logging settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fido2478/udacity-sdc-nd/camera"
	"github.com/fido2478/udacity-sdc-nd/route"
)

type CameraConfig struct {
	FocalLengthX  float64       `yaml:"FocalLengthX"`
	FocalLengthY  float64       `yaml:"FocalLengthY"`
	ImageWidth    int           `yaml:"ImageWidth"`
	ImageHeight   int           `yaml:"ImageHeight"`
	TransformWait time.Duration `yaml:"TransformWait"`
	// Extrinsics is the fixed camera mount transform, used on the real
	// vehicle where no live transform source is wired.
	Extrinsics ExtrinsicsConfig `yaml:"Extrinsics"`
}

type ExtrinsicsConfig struct {
	Translation []float64 `yaml:"Translation,flow"`
	// Rotation is a quaternion, x y z w. Empty means identity.
	Rotation []float64 `yaml:"Rotation,flow"`
}

type DetectorConfig struct {
	StateCountThreshold int `yaml:"StateCountThreshold"`
	VisibilityRadius    int `yaml:"VisibilityRadius"`
	ROIHalfWidth        int `yaml:"ROIHalfWidth"`
	KDTreeMinWaypoints  int `yaml:"KDTreeMinWaypoints"`
}

type ClassifierProfile struct {
	MinValue      float64 `yaml:"MinValue"`
	MinSaturation float64 `yaml:"MinSaturation"`
	MinFraction   float64 `yaml:"MinFraction"`
}

type ClassifierConfig struct {
	Latitude  float64           `yaml:"Latitude"`
	Longitude float64           `yaml:"Longitude"`
	Day       ClassifierProfile `yaml:"Day"`
	Night     ClassifierProfile `yaml:"Night"`
}

type SimConfig struct {
	FrameInterval time.Duration `yaml:"FrameInterval"`
	VehicleSpeed  float64       `yaml:"VehicleSpeed"`
	PathLength    int           `yaml:"PathLength"`
	WaypointGap   float64       `yaml:"WaypointGap"`
}

type StopLampConfig struct {
	Enabled bool `yaml:"Enabled"`
	GPIOPin int  `yaml:"GPIOPin"`
}

type WebConfig struct {
	Enabled bool   `yaml:"Enabled"`
	Addr    string `yaml:"Addr"`
}

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

type LoggingConfig struct {
	Sim LogConfig `yaml:"Sim"`
	HW  LogConfig `yaml:"HW"`
}

type Config struct {
	// RealHW and Configfile are set from the command line, not the file.
	RealHW     bool   `yaml:"-"`
	Configfile string `yaml:"-"`

	Camera     CameraConfig     `yaml:"Camera"`
	Detector   DetectorConfig   `yaml:"Detector"`
	Classifier ClassifierConfig `yaml:"Classifier"`
	// StopLines is one [x, y] pair per intersection.
	StopLines [][]float64    `yaml:"StopLines"`
	Sim       SimConfig      `yaml:"Sim"`
	StopLamp  StopLampConfig `yaml:"StopLamp"`
	Web       WebConfig      `yaml:"Web"`
	Logging   LoggingConfig  `yaml:"Logging"`
}

// ReadConfig loads and validates the configuration file.
func ReadConfig(cfile string) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := defaultConfig()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(conf); err != nil {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	conf.Configfile = cfile

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", cfile, err)
	}
	return conf, nil
}

// defaultConfig carries the values that apply when a section is omitted.
func defaultConfig() *Config {
	return &Config{
		Camera: CameraConfig{
			TransformWait: time.Second,
		},
		Detector: DetectorConfig{
			StateCountThreshold: 3,
			VisibilityRadius:    100,
			ROIHalfWidth:        16,
		},
		Classifier: ClassifierConfig{
			Day:   ClassifierProfile{MinValue: 0.45, MinSaturation: 0.45, MinFraction: 0.15},
			Night: ClassifierProfile{MinValue: 0.25, MinSaturation: 0.35, MinFraction: 0.1},
		},
		Sim: SimConfig{
			FrameInterval: 200 * time.Millisecond,
			VehicleSpeed:  10,
			PathLength:    200,
			WaypointGap:   1,
		},
		Logging: LoggingConfig{
			Sim: LogConfig{Level: "INFO", Format: "text"},
			HW:  LogConfig{Level: "INFO", Format: "text"},
		},
	}
}

// Validate checks the semantic constraints that a YAML decode cannot.
func (c *Config) Validate() error {
	if c.Camera.FocalLengthX <= 0 || c.Camera.FocalLengthY <= 0 {
		return fmt.Errorf("camera focal lengths must be positive, got %v/%v",
			c.Camera.FocalLengthX, c.Camera.FocalLengthY)
	}
	if c.Camera.ImageWidth <= 0 || c.Camera.ImageHeight <= 0 {
		return fmt.Errorf("camera image dimensions must be positive, got %dx%d",
			c.Camera.ImageWidth, c.Camera.ImageHeight)
	}
	if c.Camera.TransformWait <= 0 {
		return fmt.Errorf("camera TransformWait must be positive, got %v", c.Camera.TransformWait)
	}
	if n := len(c.Camera.Extrinsics.Translation); n != 0 && n != 3 {
		return fmt.Errorf("camera extrinsics Translation must have 3 values, got %d", n)
	}
	if n := len(c.Camera.Extrinsics.Rotation); n != 0 && n != 4 {
		return fmt.Errorf("camera extrinsics Rotation must be a quaternion with 4 values, got %d", n)
	}
	if err := c.Detector.validate(); err != nil {
		return err
	}
	if len(c.StopLines) == 0 {
		return fmt.Errorf("at least one stop line position is required")
	}
	for i, sl := range c.StopLines {
		if len(sl) != 2 {
			return fmt.Errorf("stop line %d must be an [x, y] pair, got %d values", i, len(sl))
		}
	}
	for _, p := range []struct {
		name    string
		profile ClassifierProfile
	}{{"Day", c.Classifier.Day}, {"Night", c.Classifier.Night}} {
		if err := p.profile.validate(); err != nil {
			return fmt.Errorf("classifier %s profile: %w", p.name, err)
		}
	}
	if c.StopLamp.Enabled && c.StopLamp.GPIOPin <= 0 {
		return fmt.Errorf("stop lamp enabled but GPIOPin is %d", c.StopLamp.GPIOPin)
	}
	if c.Web.Enabled && c.Web.Addr == "" {
		return fmt.Errorf("web interface enabled but Addr is empty")
	}
	return nil
}

func (d DetectorConfig) validate() error {
	if d.StateCountThreshold < 1 {
		return fmt.Errorf("detector StateCountThreshold must be at least 1, got %d", d.StateCountThreshold)
	}
	if d.VisibilityRadius < 1 {
		return fmt.Errorf("detector VisibilityRadius must be at least 1, got %d", d.VisibilityRadius)
	}
	if d.ROIHalfWidth < 1 {
		return fmt.Errorf("detector ROIHalfWidth must be at least 1, got %d", d.ROIHalfWidth)
	}
	if d.KDTreeMinWaypoints < 0 {
		return fmt.Errorf("detector KDTreeMinWaypoints must not be negative, got %d", d.KDTreeMinWaypoints)
	}
	return nil
}

func (p ClassifierProfile) validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{{"MinValue", p.MinValue}, {"MinSaturation", p.MinSaturation}, {"MinFraction", p.MinFraction}} {
		if v.value < 0 || v.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", v.name, v.value)
		}
	}
	return nil
}

// Intrinsics returns the configured pinhole camera parameters.
func (c CameraConfig) Intrinsics() camera.Intrinsics {
	return camera.Intrinsics{
		FocalLengthX: c.FocalLengthX,
		FocalLengthY: c.FocalLengthY,
		ImageWidth:   c.ImageWidth,
		ImageHeight:  c.ImageHeight,
	}
}

// StaticTransform builds the camera transform from the configured mount
// extrinsics. Missing values mean zero translation and identity rotation.
func (c CameraConfig) StaticTransform() camera.Transform {
	tf := camera.Transform{Rotation: camera.Identity()}
	if len(c.Extrinsics.Translation) == 3 {
		copy(tf.Translation[:], c.Extrinsics.Translation)
	}
	if len(c.Extrinsics.Rotation) == 4 {
		r := c.Extrinsics.Rotation
		tf.Rotation = camera.Quaternion{X: r[0], Y: r[1], Z: r[2], W: r[3]}
	}
	return tf
}

// StopLinePoints returns the configured stop lines as route points.
func (c *Config) StopLinePoints() []route.Point {
	pts := make([]route.Point, len(c.StopLines))
	for i, sl := range c.StopLines {
		pts[i] = route.Point{X: sl[0], Y: sl[1]}
	}
	return pts
}
