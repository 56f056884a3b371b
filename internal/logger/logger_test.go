package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"", "dev", "prod"} {
		l, err := New(env)
		require.NoError(t, err, "env %q", env)
		assert.NotNil(t, l)
	}

	_, err := New("verbose")
	assert.Error(t, err)
}
