package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_ConvertsToStage(t *testing.T) {
	p := Progress{Message: "Processing Local folders", Percent: 20}

	stage := Stage(p)
	assert.Equal(t, "Processing Local folders", stage.Message)
	assert.Equal(t, 20.0, stage.Percent)
}
