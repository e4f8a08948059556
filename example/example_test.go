package example

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{Passed, "passed"},
		{Failed, "failed"},
		{Skipped, "skipped"},
		{Status(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []Status{Passed, Failed, Skipped} {
		got, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("exploded")
	assert.Error(t, err)
}

func TestStatusJSON(t *testing.T) {
	type wrapper struct {
		Status Status `json:"status"`
	}

	data, err := json.Marshal(wrapper{Status: Skipped})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"skipped"}`, string(data))

	var got wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"status":"failed"}`), &got))
	assert.Equal(t, Failed, got.Status)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"bogus"}`), &got))
}

func TestMetadataCopy(t *testing.T) {
	orig := Metadata{Name: "b", Method: "B", Given: []string{"a"}, Tags: []string{"x"}}
	cp := orig.Copy()
	assert.Equal(t, orig, cp)

	cp.Given[0] = "changed"
	cp.Tags[0] = "changed"
	assert.Equal(t, "a", orig.Given[0])
	assert.Equal(t, "x", orig.Tags[0])

	empty := Metadata{Name: "root"}.Copy()
	assert.NotNil(t, empty.Given)
	assert.Empty(t, empty.Given)
	assert.Nil(t, empty.Tags)

	nonNil := Metadata{Name: "root", Given: []string{}}.Copy()
	assert.Equal(t, empty, nonNil)
	assert.Equal(t, nonNil, nonNil.Copy())
}

func TestResultConstructors(t *testing.T) {
	passed := PassedResult("a", 7, 1500*time.Microsecond)
	assert.True(t, passed.IsSuccess())
	assert.Equal(t, 7, passed.Value)
	assert.NoError(t, passed.Err)
	assert.InDelta(t, 1.5, passed.DurationMs(), 1e-9)

	cause := errors.New("boom")
	failed := FailedResult("b", cause, time.Millisecond)
	assert.False(t, failed.IsSuccess())
	assert.Equal(t, Failed, failed.Status)
	assert.ErrorIs(t, failed.Err, cause)
	assert.Nil(t, failed.Value)

	noCause := FailedResult("c", nil, 0)
	assert.EqualError(t, noCause.Err, `example "c" failed`)

	skipped := SkippedResult("d")
	assert.Equal(t, Skipped, skipped.Status)
	assert.Zero(t, skipped.Duration)
	assert.NoError(t, skipped.Err)
}
