package quake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `{
  "type": "FeatureCollection",
  "metadata": {"title": "USGS All Earthquakes, Past Week", "generated": 1700000500000},
  "features": [
    {"type": "Feature", "id": "us7000abcd",
     "properties": {"mag": 5.2, "place": "10km N of Testville", "time": 1700000000},
     "geometry": {"type": "Point", "coordinates": [-117.5, 35.7, 110]}},
    {"type": "Feature", "id": "nomag",
     "properties": {"mag": null, "place": "somewhere", "time": 1700000001},
     "geometry": {"type": "Point", "coordinates": [1, 2, 3]}},
    {"type": "Feature", "id": "notime",
     "properties": {"mag": 1.1, "place": "somewhere"},
     "geometry": {"type": "Point", "coordinates": [1, 2, 3]}},
    {"type": "Feature", "id": "nodepth",
     "properties": {"mag": 1.1, "place": "somewhere", "time": 1700000002},
     "geometry": {"type": "Point", "coordinates": [1, 2]}},
    {"type": "Feature", "id": "nogeom",
     "properties": {"mag": 1.1, "place": "somewhere", "time": 1700000003},
     "geometry": null},
    {"type": "Feature", "id": "strmag",
     "properties": {"mag": "5.2", "place": "somewhere", "time": 1700000005},
     "geometry": {"type": "Point", "coordinates": [1, 2, 3]}},
    {"type": "Feature", "id": "strcoord",
     "properties": {"mag": 2.0, "place": "somewhere", "time": 1700000006},
     "geometry": {"type": "Point", "coordinates": ["1", 2, 3]}},
    {"type": "Feature", "id": "nulldepth",
     "properties": {"mag": 2.0, "place": "somewhere", "time": 1700000007},
     "geometry": {"type": "Point", "coordinates": [1, 2, null]}},
    {"type": "Feature", "id": "nulllat",
     "properties": {"mag": 2.0, "place": "somewhere", "time": 1700000008},
     "geometry": {"type": "Point", "coordinates": [1, null, 3]}},
    {"type": "Feature", "id": 42,
     "properties": {"mag": 0, "time": 1700000004},
     "geometry": {"type": "Point", "coordinates": [10, 20, -1.5]}}
  ]
}`

func TestDecode_SkipsMalformedFeatures(t *testing.T) {
	b, err := Decode([]byte(sampleFeed), Seconds)
	require.NoError(t, err)

	assert.Equal(t, "USGS All Earthquakes, Past Week", b.Title)
	assert.Equal(t, int64(1700000500000), b.Generated)
	require.Len(t, b.Events, 2)

	first := b.Events[0]
	assert.Equal(t, Event{
		ID:               "us7000abcd",
		Magnitude:        5.2,
		DepthKm:          110,
		Place:            "10km N of Testville",
		TimeEpochSeconds: 1700000000,
		Longitude:        -117.5,
		Latitude:         35.7,
	}, first)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), first.Time())

	second := b.Events[1]
	assert.Equal(t, "42", second.ID)
	assert.Equal(t, "", second.Place)
	assert.Equal(t, -1.5, second.DepthKm)

	assert.Equal(t, map[string]int{
		SkipMissingMagnitude: 1,
		SkipMissingTime:      1,
		SkipMissingGeometry:  2,
		SkipMissingDepth:     2,
		SkipMalformed:        2,
	}, b.Skipped)
	assert.Equal(t, 8, b.SkippedTotal())
}

func TestDecode_Milliseconds(t *testing.T) {
	raw := `{"type":"FeatureCollection","features":[
	  {"properties":{"mag":1,"time":1700000000123},"geometry":{"coordinates":[0,0,5]}}]}`
	b, err := Decode([]byte(raw), Milliseconds)
	require.NoError(t, err)
	require.Len(t, b.Events, 1)
	assert.Equal(t, int64(1700000000), b.Events[0].TimeEpochSeconds)
}

func TestDecode_EmptyCollection(t *testing.T) {
	b, err := Decode([]byte(`{"type":"FeatureCollection","features":[]}`), Seconds)
	require.NoError(t, err)
	assert.Empty(t, b.Events)
	assert.NotNil(t, b.Events)
	assert.Zero(t, b.SkippedTotal())
}

func TestDecode_TypeMismatchKeepsOtherEvents(t *testing.T) {
	raw := `{"type":"FeatureCollection","features":[
	  {"id":"ok","properties":{"mag":5.2,"place":"10km N of Testville","time":1700000000},"geometry":{"coordinates":[-117.1,35.2,110]}},
	  {"id":"bad","properties":{"mag":"5.2","place":"x","time":1700000000},"geometry":{"coordinates":[0,0,5]}}]}`
	b, err := Decode([]byte(raw), Seconds)
	require.NoError(t, err)
	require.Len(t, b.Events, 1)
	assert.Equal(t, "ok", b.Events[0].ID)
	assert.Equal(t, map[string]int{SkipMalformed: 1}, b.Skipped)
}

func TestDecode_NullDepthIsSkipped(t *testing.T) {
	raw := `{"type":"FeatureCollection","features":[
	  {"properties":{"mag":1,"time":1},"geometry":{"coordinates":[1,2,null]}}]}`
	b, err := Decode([]byte(raw), Seconds)
	require.NoError(t, err)
	assert.Empty(t, b.Events)
	assert.Equal(t, map[string]int{SkipMissingDepth: 1}, b.Skipped)
}

func TestDecode_DuplicateIDs(t *testing.T) {
	raw := `{"type":"FeatureCollection","features":[
	  {"id":"a","properties":{"mag":1,"time":1},"geometry":{"coordinates":[0,0,5]}},
	  {"id":"a","properties":{"mag":2,"time":2},"geometry":{"coordinates":[0,0,5]}},
	  {"properties":{"mag":3,"time":3},"geometry":{"coordinates":[0,0,5]}},
	  {"properties":{"mag":4,"time":4},"geometry":{"coordinates":[0,0,5]}}]}`
	b, err := Decode([]byte(raw), Seconds)
	require.NoError(t, err)
	require.Len(t, b.Events, 3)
	assert.Equal(t, 1.0, b.Events[0].Magnitude)
	assert.Equal(t, map[string]int{SkipDuplicateID: 1}, b.Skipped)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`{"type":`), Seconds)
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":"Feature"}`), Seconds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected type")
}

func TestParseTimeUnit(t *testing.T) {
	u, err := ParseTimeUnit("seconds")
	require.NoError(t, err)
	assert.Equal(t, Seconds, u)

	u, err = ParseTimeUnit("milliseconds")
	require.NoError(t, err)
	assert.Equal(t, Milliseconds, u)

	_, err = ParseTimeUnit("hours")
	assert.Error(t, err)
}

func TestRisk(t *testing.T) {
	assert.Equal(t, RiskLow, Risk(-1))
	assert.Equal(t, RiskLow, Risk(2.4))
	assert.Equal(t, RiskModerate, Risk(2.5))
	assert.Equal(t, RiskHigh, Risk(4.5))
	assert.Equal(t, RiskCritical, Risk(7.8))
	assert.Equal(t, "critical", RiskCritical.String())
	assert.Equal(t, "unknown", RiskLevel(9).String())
}

func TestEvent_Popup(t *testing.T) {
	e := Event{Magnitude: 5.2, DepthKm: 110, Place: "10km N of Testville", TimeEpochSeconds: 1700000000}
	p := e.Popup()
	assert.Contains(t, p.Text(), "Magnitude: 5.2")
	assert.Contains(t, p.Text(), "Depth(km): 110")
}
