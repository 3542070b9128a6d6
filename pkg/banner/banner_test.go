// pkg/banner/banner_test.go
package banner

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, "acq", "cyan")

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, ColorCyan))
		assert.True(t, strings.HasSuffix(l, ColorReset))
	}
}

func TestColorCode_Unknown(t *testing.T) {
	assert.Equal(t, ColorReset, colorCode("mauve"))
}
