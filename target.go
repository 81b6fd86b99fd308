package livepush

import (
	"fmt"
	"strings"
)

// RegionNone disables region routing
const RegionNone = "none"

// Environment represents a platform environment
type Environment string

// Environments
const (
	EnvironmentDev        Environment = "dev"
	EnvironmentProduction Environment = "prod"
	EnvironmentStaging    Environment = "stg"
)

var environmentEndpoints = map[Environment]string{
	EnvironmentDev:        "rtmp://127.0.0.1:1935/live",
	EnvironmentProduction: "rtmp://rtmp.livepeer.com/live",
	EnvironmentStaging:    "rtmp://rtmp.livepeer.monster/live",
}

// IngestEndpoint returns the RTMP ingest base URL of an environment
func IngestEndpoint(e Environment) (string, error) {
	u, ok := environmentEndpoints[Environment(strings.ToLower(string(e)))]
	if !ok {
		return "", fmt.Errorf("livepush: unknown environment %q", e)
	}
	return u, nil
}

// IngestTarget represents where a stream is pushed to
type IngestTarget struct {
	BaseURL   string
	Region    string
	StreamKey string
}

// Validate checks the target is usable
func (t IngestTarget) Validate() error {
	if t.BaseURL == "" {
		return fmt.Errorf("livepush: empty ingest base url")
	}
	if t.StreamKey == "" {
		return fmt.Errorf("livepush: empty stream key")
	}
	if strings.Contains(t.StreamKey, "/") {
		return fmt.Errorf("livepush: stream key %q contains a slash", t.StreamKey)
	}
	return nil
}

// RegionalBaseURL returns the base URL with the region spliced in as a host prefix,
// e.g. rtmp://rtmp.livepeer.com/live becomes rtmp://fra-rtmp.livepeer.com/live
func (t IngestTarget) RegionalBaseURL() string {
	if t.Region == "" || t.Region == RegionNone {
		return t.BaseURL
	}
	return strings.Replace(t.BaseURL, "rtmp://", "rtmp://"+t.Region+"-", 1)
}

// URL returns {base}/{stream key}
func (t IngestTarget) URL() string {
	return strings.TrimSuffix(t.RegionalBaseURL(), "/") + "/" + t.StreamKey
}

func (t IngestTarget) String() string {
	// Stream keys are secrets
	return strings.TrimSuffix(t.RegionalBaseURL(), "/") + "/<stream key>"
}
