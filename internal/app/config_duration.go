package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/goknowledge/internal/pace"
)

// Duration is a time.Duration in config files. Both YAML and JSON accept
// strings such as "2s" or "1m30s"; JSON also accepts integer nanoseconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var v time.Duration
	if err := n.Decode(&v); err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\" or integer nanoseconds, got %s", b)
	}
	*d = Duration(n)
	return nil
}

// durationRange is the file form of pace.Range.
type durationRange struct {
	Min Duration `yaml:"min" json:"min"`
	Max Duration `yaml:"max" json:"max"`
}

func (r durationRange) Range() pace.Range {
	return pace.Range{Min: r.Min.Std(), Max: r.Max.Std()}
}
