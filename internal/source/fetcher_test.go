package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIngestible(t *testing.T) {
	assert.True(t, ingestible("procedures/safety.md"))
	assert.True(t, ingestible("notice.txt"))
	assert.False(t, ingestible("scan.pdf"), "binary formats are uploaded, not synced")
	assert.False(t, ingestible("logo.png"))
}
