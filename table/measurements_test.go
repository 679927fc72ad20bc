package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeasurements(t *testing.T) {
	assert.Nil(t, GetMeasurement("test.counter"))

	AddToMeasurementInt("test.counter", 1)
	assert.Equal(t, 1, GetMeasurement("test.counter"))

	AddToMeasurementInt("test.counter", 2)
	assert.Equal(t, 3, GetMeasurement("test.counter"))

	assert.False(t, SetMeasurement("test.counter", 42, 0))
	assert.True(t, SetMeasurement("test.counter", 3, 0))
	assert.Equal(t, 0, GetMeasurement("test.counter"))
}
