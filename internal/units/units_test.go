package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpeedConversions(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 18.0, MPSToKMH(5.0), 1e-9)
	assert.InDelta(t, 5.0, KMHToMPS(18.0), 1e-9)

	assert.InDelta(t, 36.0, Convert(10.0, KMPH), 1e-9)
	assert.InDelta(t, 36.0, Convert(10.0, KPH), 1e-9)
	assert.Equal(t, 10.0, Convert(10.0, MPS))
	assert.Equal(t, 10.0, Convert(10.0, "furlongs"), "unknown units pass through")
}
