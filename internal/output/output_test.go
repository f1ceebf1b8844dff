package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_StatusLines(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Successf("indexed %d chapters", 5)
	w.Warning("telemetry disabled")
	w.Errorf("cannot open %s", "corpus.db")
	w.Status("", "indented")

	assert.Equal(t,
		"✅ indexed 5 chapters\n⚠️  telemetry disabled\n❌ cannot open corpus.db\n   indented\n",
		buf.String())
}

func TestWriter_FieldsAreAligned(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Fields(
		Field{Label: "Authors", Value: 3},
		Field{Label: "Unique phrases", Value: 1200},
	)

	assert.Equal(t, "  Authors:        3\n  Unique phrases: 1200\n", buf.String())
}

func TestWriter_Code(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Code("a\nb")

	assert.Equal(t, "\n  a\n  b\n\n", buf.String())
}
