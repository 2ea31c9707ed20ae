package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataNormalize(t *testing.T) {
	meta := Metadata{
		"name":    "report.pdf",
		"count":   float64(3),
		"flag":    true,
		"nothing": nil,
		"ratio":   1.5,
		"nested":  map[string]interface{}{"a": 1},
	}
	out := meta.Normalize()
	require.Equal(t, "report.pdf", out["name"])
	require.Equal(t, 3, out["count"])
	require.Equal(t, true, out["flag"])
	require.Contains(t, out, "nothing")
	require.NotContains(t, out, "ratio")
	require.NotContains(t, out, "nested")
}

func TestMetadataScan(t *testing.T) {
	var meta Metadata
	require.NoError(t, meta.Scan([]byte(`{"position":2,"filename":"a.txt","starred":false}`)))
	require.Equal(t, 2, meta["position"])
	require.Equal(t, "a.txt", meta["filename"])
	require.Equal(t, false, meta["starred"])

	var empty Metadata
	require.NoError(t, empty.Scan(nil))
	require.NotNil(t, empty)
	require.Empty(t, empty)

	require.Error(t, meta.Scan(42))
}

func TestMetadataValue(t *testing.T) {
	meta := Metadata{}
	meta.SetString("k", "v")
	value, err := meta.Value()
	require.NoError(t, err)
	require.JSONEq(t, `{"k":"v"}`, value.(string))

	var none Metadata
	value, err = none.Value()
	require.NoError(t, err)
	require.Equal(t, "{}", value)
}
