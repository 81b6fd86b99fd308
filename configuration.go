package livepush

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Configuration represents a livepush configuration
type Configuration struct {
	Encoder ConfigurationEncoder `toml:"encoder" yaml:"encoder"`
	Exec    ConfigurationExec    `toml:"exec" yaml:"exec"`
	Ingest  ConfigurationIngest  `toml:"ingest" yaml:"ingest"`
	Input   ConfigurationInput   `toml:"input" yaml:"input"`
	Log     ConfigurationLog     `toml:"log" yaml:"log"`
	Output  ConfigurationOutput  `toml:"output" yaml:"output"`
	Server  ConfigurationServer  `toml:"server" yaml:"server"`
}

// ConfigurationEncoder represents an encoder configuration
type ConfigurationEncoder struct {
	Codec string `toml:"codec" yaml:"codec"`
	// Comma separated list of key=value pairs
	Options string `toml:"options" yaml:"options"`
	Policy  string `toml:"policy" yaml:"policy"`
}

// ConfigurationExec represents the external process configuration
type ConfigurationExec struct {
	Binary   string `toml:"binary" yaml:"binary"`
	Enabled  bool   `toml:"enabled" yaml:"enabled"`
	Realtime bool   `toml:"realtime" yaml:"realtime"`
	Tag      string `toml:"tag" yaml:"tag"`
}

// ConfigurationIngest represents an ingest configuration
type ConfigurationIngest struct {
	// Overrides the environment endpoint
	BaseURL     string `toml:"base_url" yaml:"base_url"`
	Environment string `toml:"environment" yaml:"environment"`
	Region      string `toml:"region" yaml:"region"`
	StreamKey   string `toml:"stream_key" yaml:"stream_key"`
}

// ConfigurationInput represents an input configuration
type ConfigurationInput struct {
	// Demuxer options
	Options map[string]string `toml:"options" yaml:"options"`
	Path    string            `toml:"path" yaml:"path"`
}

// ConfigurationLog represents a log configuration
type ConfigurationLog struct {
	// One of quiet, panic, fatal, error, warning, info, verbose, debug
	LibavLevel           string        `toml:"libav_level" yaml:"libav_level"`
	MessageMergingPeriod time.Duration `toml:"message_merging_period" yaml:"message_merging_period"`
}

// ConfigurationOutput represents an output configuration
type ConfigurationOutput struct {
	Format string `toml:"format" yaml:"format"`
	// Overrides the ingest target
	URL string `toml:"url" yaml:"url"`
}

// ConfigurationServer represents a status server configuration
type ConfigurationServer struct {
	// Empty disables the server
	Addr string `toml:"addr" yaml:"addr"`
}

// DefaultConfiguration returns the default configuration
func DefaultConfiguration() Configuration {
	return Configuration{
		Encoder: ConfigurationEncoder{
			Codec:   "libx264",
			Options: "preset=veryfast,tune=zerolatency",
			Policy:  string(TranscodeBest),
		},
		Exec: ConfigurationExec{
			Binary:   DefaultExecBinary,
			Realtime: true,
		},
		Ingest: ConfigurationIngest{
			Environment: string(EnvironmentDev),
			Region:      RegionNone,
		},
		Log: ConfigurationLog{
			LibavLevel: "error",
		},
		Output: ConfigurationOutput{
			Format: "flv",
		},
	}
}

// LoadConfiguration loads the file on top of the default configuration.
// The format is picked from the extension and unknown keys are rejected.
func LoadConfiguration(path string) (c Configuration, err error) {
	// Default configuration
	c = DefaultConfiguration()

	// No path
	if path == "" {
		return
	}

	// Switch on extension
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		// Decode
		var md toml.MetaData
		if md, err = toml.DecodeFile(path, &c); err != nil {
			err = fmt.Errorf("livepush: decoding %s failed: %w", path, err)
			return
		}

		// Check undecoded keys
		if ks := md.Undecoded(); len(ks) > 0 {
			err = fmt.Errorf("livepush: unknown keys %v in %s", ks, path)
			return
		}
	case ".yaml", ".yml":
		// Open file
		var f *os.File
		if f, err = os.Open(path); err != nil {
			err = fmt.Errorf("livepush: opening %s failed: %w", path, err)
			return
		}
		defer f.Close()

		// Decode
		d := yaml.NewDecoder(f)
		d.KnownFields(true)
		if err = d.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			err = fmt.Errorf("livepush: decoding %s failed: %w", path, err)
			return
		}
		err = nil
	default:
		err = fmt.Errorf("livepush: unsupported configuration extension %q", ext)
		return
	}
	return
}

// Target returns the ingest target
func (c Configuration) Target() (t IngestTarget, err error) {
	// Get base url
	if t.BaseURL = c.Ingest.BaseURL; t.BaseURL == "" {
		if t.BaseURL, err = IngestEndpoint(Environment(c.Ingest.Environment)); err != nil {
			return
		}
	}

	// Update target
	t.Region = c.Ingest.Region
	t.StreamKey = c.Ingest.StreamKey

	// Validate
	err = t.Validate()
	return
}

// OutputURL returns the url the output is muxed to
func (c Configuration) OutputURL() (string, error) {
	if c.Output.URL != "" {
		return c.Output.URL, nil
	}
	t, err := c.Target()
	if err != nil {
		return "", err
	}
	return t.URL(), nil
}

// EncoderSettings returns the encoder settings
func (c Configuration) EncoderSettings() (s EncoderSettings, err error) {
	s.Codec = c.Encoder.Codec
	if s.Options, err = ParseOptions(c.Encoder.Options); err != nil {
		err = fmt.Errorf("livepush: parsing encoder options failed: %w", err)
		return
	}
	return
}

// Validate checks the configuration is usable
func (c Configuration) Validate() (err error) {
	// Input
	if c.Input.Path == "" {
		return errors.New("livepush: empty input path")
	}

	// The external process only pushes to ingest targets
	if c.Exec.Enabled {
		_, err = c.Target()
		return
	}

	// Output
	if c.Output.Format == "" {
		return errors.New("livepush: empty output format")
	}
	if _, err = c.OutputURL(); err != nil {
		return
	}

	// Encoder
	if _, err = ParseTranscodePolicy(c.Encoder.Policy); err != nil {
		return
	}
	if _, err = c.EncoderSettings(); err != nil {
		return
	}
	return
}
