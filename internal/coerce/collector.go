package coerce

import (
	"regexp"
	"strings"

	"github.com/starford/scribe/internal/vars"
)

var propertyKeyRe = regexp.MustCompile(`^\s*([^:]+):`)

// Collector accumulates the typed front matter properties found during one
// formatting pass. It is drained once when the pass ends.
type Collector struct {
	props   []vars.Property
	index   map[string]int
	drained bool
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{index: make(map[string]int)}
}

// MaybeCollect records raw under the property key of line when the match
// is the whole value of a YAML key and raw is not a plain string. The key
// falls back to fallbackKey when line has no "key:" prefix.
func (c *Collector) MaybeCollect(raw vars.Value, fallbackKey, line string, keyValue bool) (string, bool) {
	if !keyValue || raw.IsString() || c.drained {
		return "", false
	}
	key := PropertyKey(line)
	if key == "" {
		key = fallbackKey
	}
	if key == "" {
		return "", false
	}
	if i, ok := c.index[key]; ok {
		c.props[i].Value = raw
		return key, true
	}
	c.index[key] = len(c.props)
	c.props = append(c.props, vars.Property{Key: key, Value: raw})
	return key, true
}

// PropertyKey extracts the key of a "key: value" line.
func PropertyKey(line string) string {
	m := propertyKeyRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Len returns the number of collected properties.
func (c *Collector) Len() int { return len(c.props) }

// Drain returns the collected properties in first-seen order. Only the
// first call returns them.
func (c *Collector) Drain() []vars.Property {
	if c.drained {
		return nil
	}
	c.drained = true
	out := c.props
	c.props = nil
	c.index = nil
	return out
}
