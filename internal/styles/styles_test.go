package styles_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/confmedia/livestream/internal/styles"
)

func TestByName(t *testing.T) {
	assert.Equal(t, styles.Table.AudioOnly, styles.ByName("indicatorAudioOnly"))
	assert.Equal(t, styles.Table.Error, styles.ByName("error"))

	// Unknown names fall back to the zero style: text passes through.
	assert.Equal(t, "plain", styles.ByName("doesNotExist").Render("plain"))
}

func TestAudioOnlyIndicatorHasBackground(t *testing.T) {
	bg := styles.Table.AudioOnly.GetBackground()
	assert.NotNil(t, bg)
}
