package ntime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	var moment = FromTime(time.Date(2024, 5, 1, 10, 30, 0, 123456789, time.UTC))

	encoded, err := json.Marshal(moment)
	require.NoError(t, err)
	require.Equal(t, `"2024-05-01T10:30:00.123456789Z"`, string(encoded))

	var decoded NTime
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.True(t, decoded.Equal(moment))
}

func TestNullMarshalsAsNull(t *testing.T) {
	encoded, err := json.Marshal(NTime{})
	require.NoError(t, err)
	require.Equal(t, "null", string(encoded))

	var decoded NTime
	require.NoError(t, json.Unmarshal([]byte("null"), &decoded))
	require.False(t, decoded.IsValid())
}

func TestScan(t *testing.T) {
	var moment = time.Date(2024, 5, 1, 10, 30, 0, 123456789, time.UTC)

	var fromTime NTime
	require.NoError(t, fromTime.Scan(moment))
	require.True(t, fromTime.Equal(FromTime(moment)))

	var fromString NTime
	require.NoError(t, fromString.Scan("2024-05-01T10:30:00.123456789Z"))
	require.True(t, fromString.Equal(FromTime(moment)))

	var fromNil NTime
	require.NoError(t, fromNil.Scan(nil))
	require.False(t, fromNil.IsValid())
}

func TestValuePreservesPrecision(t *testing.T) {
	var moment = FromTime(time.Date(2024, 5, 1, 10, 30, 0, 123456789, time.UTC))

	value, err := moment.Value()
	require.NoError(t, err)

	// storing and re-reading must not flatten sub-second precision
	var restored NTime
	require.NoError(t, restored.Scan(value))
	require.True(t, restored.Equal(moment))

	null, err := NTime{}.Value()
	require.NoError(t, err)
	require.Nil(t, null)
}
