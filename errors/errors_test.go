package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsSentinel(t *testing.T) {
	err := Wrapf(ErrDuplicate, "interface %s", "Node")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interface Node")
	assert.True(t, Is(err, ErrDuplicate))
	assert.False(t, Is(err, ErrUnknownBase))
}

func TestIsLinkageError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"duplicate", Wrap(ErrDuplicate, "x"), true},
		{"typedef cycle", Wrap(ErrCircularTypedef, "A -> A"), true},
		{"enum", ErrDuplicateEnumValue, true},
		{"assertion", AssertionFailedf("bad member"), false},
		{"parse", ErrParse, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLinkageError(tt.err))
		})
	}
}

func TestAssertionFailure(t *testing.T) {
	err := AssertionFailedf("unsupported on-instance member %s", "iterable")
	assert.True(t, HasAssertionFailure(err))
	assert.Contains(t, err.Error(), "iterable")
}
