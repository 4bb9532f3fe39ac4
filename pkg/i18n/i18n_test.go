package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Translate(t *testing.T) {
	c := New("en", map[string]string{"Create {type}": "New {type}!"})

	assert.Equal(t, "New UserTask!", c.Translate("Create {type}", map[string]string{"type": "UserTask"}))
	assert.Equal(t, "Unknown key", c.Translate("Unknown key", nil))
	assert.Equal(t, "Hello {name}", c.Translate("Hello {name}", map[string]string{"other": "x"}))
}

func TestBuiltin(t *testing.T) {
	assert.Equal(t, "拖拽", Builtin("zh").Translate("Hand tool", nil))
	assert.Equal(t, "en", Builtin("fr").Locale())
	assert.Equal(t, "Create start event", Builtin("en").Translate("Start event", nil))
}

func TestMerge(t *testing.T) {
	c := Builtin("en")
	c.Merge(map[string]string{"Gateway": "XOR"})
	assert.Equal(t, "XOR", c.Translate("Gateway", nil))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
locale: pt
messages:
  "Hand tool": "Mover"
  "Create {type}": "Criar {type}"
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pt", c.Locale())
	assert.Equal(t, "Mover", c.Translate("Hand tool", nil))
	assert.Equal(t, "Criar Task", c.Translate("Create {type}", map[string]string{"type": "Task"}))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("messages: {}"))
	assert.Error(t, err, "locale required")

	_, err = Parse([]byte(":\n  - ["))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
