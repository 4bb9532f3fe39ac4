// Package i18n provides a catalog-backed Translator for palette titles.
package i18n

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog maps translation keys to templates. Templates may reference
// parameters as {name}. Unknown keys translate to themselves.
// Safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	locale   string
	messages map[string]string
}

// New creates a catalog for locale with the given messages.
func New(locale string, messages map[string]string) *Catalog {
	m := make(map[string]string, len(messages))
	for k, v := range messages {
		m[k] = v
	}
	return &Catalog{locale: locale, messages: m}
}

// Locale returns the catalog locale tag.
func (c *Catalog) Locale() string { return c.locale }

// Translate implements ports.Translator.
func (c *Catalog) Translate(key string, params map[string]string) string {
	c.mu.RLock()
	tmpl, ok := c.messages[key]
	c.mu.RUnlock()
	if !ok {
		tmpl = key
	}
	return Interpolate(tmpl, params)
}

// Merge adds or replaces messages.
func (c *Catalog) Merge(messages map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range messages {
		c.messages[k] = v
	}
}

// Interpolate replaces every {name} in tmpl with params[name].
// Placeholders without a parameter are left as-is.
func Interpolate(tmpl string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// File is the YAML layout of a catalog file.
type File struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if f.Locale == "" {
		return nil, fmt.Errorf("catalog has no locale")
	}
	return New(f.Locale, f.Messages), nil
}

// Load reads a YAML catalog from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Builtin returns one of the embedded catalogs ("en", "zh").
// Unknown locales fall back to "en".
func Builtin(locale string) *Catalog {
	switch locale {
	case "zh", "zh-CN":
		return New("zh", zh)
	}
	return New("en", en)
}

var en = map[string]string{
	"Hand tool":     "Activate the hand tool",
	"Lasso tool":    "Activate the lasso tool",
	"Connect tool":  "Activate the global connect tool",
	"Start event":   "Create start event",
	"End event":     "Create end event",
	"Gateway":       "Create gateway",
	"User task":     "Create user task",
	"Participant":   "Create pool/participant",
	"Create {type}": "Create {type}",

	"a process must have a start and an end node": "A process must have a start and an end node",
}

var zh = map[string]string{
	"Hand tool":     "拖拽",
	"Lasso tool":    "选择",
	"Connect tool":  "连接线",
	"Start event":   "开始节点",
	"End event":     "结束节点",
	"Gateway":       "网关",
	"User task":     "用户任务",
	"Participant":   "泳池",
	"Create {type}": "创建 {type}",

	"a process must have a start and an end node": "一个流程图必须有一个开始和结束节点",
}
