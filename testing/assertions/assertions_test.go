package assertions_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/assertions"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestAssert_Equal(t *testing.T) {
	tests := []struct {
		name        string
		expected    interface{}
		actual      interface{}
		msg         []interface{}
		expectedErr string
	}{
		{name: "equal values", expected: 42, actual: 42},
		{name: "non-equal values", expected: 42, actual: 41, expectedErr: "Values are not equal, want: 42 (int), got: 41 (int)"},
		{name: "custom error message", expected: 42, actual: 41, msg: []interface{}{"Custom values are not equal"}, expectedErr: "Custom values are not equal, want: 42 (int), got: 41 (int)"},
		{name: "custom error message with params", expected: 42, actual: 41, msg: []interface{}{"Custom values are not equal (for slot %d)", 12}, expectedErr: "Custom values are not equal (for slot 12), want: 42 (int), got: 41 (int)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verify := func(got string) {
				if tt.expectedErr == "" && got != "" {
					t.Errorf("Unexpected error: %v", got)
				} else if !strings.Contains(got, tt.expectedErr) {
					t.Errorf("got: %q, want: %q", got, tt.expectedErr)
				}
			}
			tb := &assertions.TBMock{}
			assert.Equal(tb, tt.expected, tt.actual, tt.msg...)
			verify(tb.ErrorfMsg)
			tb = &assertions.TBMock{}
			require.Equal(tb, tt.expected, tt.actual, tt.msg...)
			verify(tb.FatalfMsg)
		})
	}
}

func TestAssert_DeepEqual(t *testing.T) {
	type pair struct{ A, B []byte }
	tb := &assertions.TBMock{}
	assert.DeepEqual(tb, pair{A: []byte{1}}, pair{A: []byte{1}})
	assert.Equal(t, "", tb.ErrorfMsg)

	assert.DeepEqual(tb, pair{A: []byte{1}}, pair{A: []byte{2}})
	if !strings.Contains(tb.ErrorfMsg, "Values are not equal") {
		t.Errorf("Unexpected message: %q", tb.ErrorfMsg)
	}
	if !strings.Contains(tb.ErrorfMsg, "diff:") {
		t.Errorf("Expected a diff in message: %q", tb.ErrorfMsg)
	}
}

func TestAssert_ErrorIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	wrapped := errors.New("other")
	tb := &assertions.TBMock{}
	assert.ErrorIs(tb, sentinel, sentinel)
	assert.Equal(t, "", tb.ErrorfMsg)
	assert.ErrorIs(tb, wrapped, sentinel)
	if !strings.Contains(tb.ErrorfMsg, "not in chain") {
		t.Errorf("Unexpected message: %q", tb.ErrorfMsg)
	}
}

func TestAssert_NotNil(t *testing.T) {
	var nilPtr *int
	tb := &assertions.TBMock{}
	assert.NotNil(tb, nilPtr)
	if !strings.Contains(tb.ErrorfMsg, "Unexpected nil value") {
		t.Errorf("Unexpected message: %q", tb.ErrorfMsg)
	}
	tb = &assertions.TBMock{}
	assert.NotNil(tb, 5)
	assert.Equal(t, "", tb.ErrorfMsg)
}

func TestAssert_LogsContain(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.WithField("prefix", "test").Info("processed epoch")

	tb := &assertions.TBMock{}
	assert.LogsContain(tb, hook, "processed epoch")
	assert.Equal(t, "", tb.ErrorfMsg)

	assert.LogsDoNotContain(tb, hook, "processed epoch")
	if !strings.Contains(tb.ErrorfMsg, "Unexpected log found") {
		t.Errorf("Unexpected message: %q", tb.ErrorfMsg)
	}
}
