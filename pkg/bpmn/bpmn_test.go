package bpmn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DefaultDiagram(t *testing.T) {
	root, err := Parse(DefaultDiagram)
	require.NoError(t, err)
	assert.True(t, root.IsModel(ElementDefinitions))
	assert.Equal(t, "sample-diagram", root.Attr("id"))

	proc := root.Child(ElementProcess)
	require.NotNil(t, proc)
	assert.Equal(t, "Process_1", proc.Attr("id"))
	assert.Len(t, proc.ChildrenNamed(ElementStartEvent), 1)
	assert.Empty(t, proc.ChildrenNamed(ElementEndEvent))
	assert.Equal(t, map[string]int{ElementStartEvent: 1}, proc.Count())
}

func TestParse_DiagramInterchangeIsNotModel(t *testing.T) {
	root, err := Parse(DefaultDiagram)
	require.NoError(t, err)
	assert.Nil(t, root.Child("BPMNDiagram"), "DI elements live in another namespace")
}

func TestParse_UnprefixedDocument(t *testing.T) {
	root, err := Parse(`<definitions><process id="p"><endEvent id="e"/></process></definitions>`)
	require.NoError(t, err)
	proc := root.Child(ElementProcess)
	require.NotNil(t, proc)
	assert.Len(t, proc.ChildrenNamed(ElementEndEvent), 1)
}

func TestParse_Errors(t *testing.T) {
	for name, in := range map[string]string{
		"empty":     "",
		"unclosed":  "<definitions><process>",
		"garbage":   "not xml at all <",
		"two roots": "<a/><b/>",
	} {
		_, err := Parse(in)
		assert.Error(t, err, name)
	}
}
