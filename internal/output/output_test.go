package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/models"
)

func sampleDay() *models.DayMetrics {
	return &models.DayMetrics{
		Seed:    7,
		Profit:  812.50,
		Revenue: 2400.00,
		ArrivalsByChannel: map[string]int{
			models.ChannelWalkIn:    120,
			models.ChannelDriveThru: 80,
			models.ChannelMobile:    40,
		},
		ServedByChannel: map[string]int{
			models.ChannelWalkIn:    110,
			models.ChannelDriveThru: 75,
			models.ChannelMobile:    40,
		},
		MobileReadyRate: 0.9,
		Bins: []models.BinMetrics{
			{StartMin: 0, Arrivals: 60, Served: 55, Revenue: 800},
			{StartMin: 30, Arrivals: 180, Served: 170, Revenue: 1600},
		},
		Orders: []models.OrderRecord{
			{Ref: "c1a2b3", Name: "Avery Lane", Channel: models.ChannelWalkIn, Status: models.CustomerStatusPickedUp, ArrivalMin: 12.5, Items: 2, Value: 7.08},
			{Ref: "d4e5f6", Name: "Morgan Pierce", Channel: models.ChannelMobile, Status: models.CustomerStatusReneged, ArrivalMin: 40.0, Items: 1, Value: 4.29},
		},
	}
}

func TestNewDaySummaryRecordTotals(t *testing.T) {
	rec := NewDaySummaryRecord("baseline", sampleDay())
	assert.Equal(t, "baseline", rec.Scenario)
	assert.Equal(t, int64(7), rec.Seed)
	assert.Equal(t, int32(240), rec.Arrivals)
	assert.Equal(t, int32(225), rec.Served)
	assert.Equal(t, 812.50, rec.Profit)
}

func TestNewSeriesBinRecords(t *testing.T) {
	recs := NewSeriesBinRecords("baseline", sampleDay())
	require.Len(t, recs, 2)
	assert.Equal(t, 30.0, recs[1].StartMin)
	assert.Equal(t, int32(180), recs[1].Arrivals)
	assert.Equal(t, int64(7), recs[1].Seed)
}

func TestNewOrderEventRecords(t *testing.T) {
	recs := NewOrderEventRecords("baseline", sampleDay())
	require.Len(t, recs, 2)
	assert.Equal(t, "c1a2b3", recs[0].Ref)
	assert.Equal(t, "Avery Lane", recs[0].Name)
	assert.Equal(t, int64(7), recs[0].Seed)
	assert.Equal(t, models.CustomerStatusReneged, recs[1].Status)
	assert.Equal(t, int32(1), recs[1].Items)
}

func TestJSONSinkWritesNDJSON(t *testing.T) {
	dir := t.TempDir()
	sink := NewJSONSink(dir, "results")

	for _, rec := range NewSeriesBinRecords("baseline", sampleDay()) {
		msg, err := json.Marshal(rec)
		require.NoError(t, err)
		require.NoError(t, sink.WriteMessage(TopicSeriesBins, msg))
	}
	require.NoError(t, sink.Close())

	f, err := os.Open(filepath.Join(dir, "results", TopicSeriesBins+".json"))
	require.NoError(t, err)
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec SeriesBinRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		assert.Equal(t, "baseline", rec.Scenario)
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestCSVSinkWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	sink := NewCSVSink(dir, "results")

	msg, err := json.Marshal(NewDaySummaryRecord("baseline", sampleDay()))
	require.NoError(t, err)
	require.NoError(t, sink.WriteMessage(TopicDaySummaries, msg))
	require.NoError(t, sink.WriteMessage(TopicDaySummaries, msg))
	require.NoError(t, sink.Close())

	f, err := os.Open(filepath.Join(dir, "results", TopicDaySummaries+".csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two rows")
	assert.Contains(t, rows[0], "profit")
	assert.Contains(t, rows[0], "scenario")
	assert.Equal(t, len(rows[0]), len(rows[1]))
}

func TestCSVSinkCloseReleasesFiles(t *testing.T) {
	dir := t.TempDir()
	sink := NewCSVSink(dir, "results")

	msg, err := json.Marshal(NewDaySummaryRecord("baseline", sampleDay()))
	require.NoError(t, err)
	require.NoError(t, sink.WriteMessage(TopicDaySummaries, msg))

	file := sink.files[TopicDaySummaries]
	require.NotNil(t, file)
	require.NoError(t, sink.Close())

	_, err = file.WriteString("x")
	assert.ErrorIs(t, err, os.ErrClosed, "underlying handle must be closed")
}

func TestConsoleSinkWrites(t *testing.T) {
	sink := &ConsoleSink{}
	assert.NoError(t, sink.WriteMessage(TopicDaySummaries, []byte(`{"profit":1}`)))
	assert.NoError(t, sink.Close())
}

func TestGetSchemaKnownTopics(t *testing.T) {
	for _, topic := range []string{TopicDaySummaries, TopicSeriesBins, TopicScenarios, TopicOrderEvents} {
		sh, err := GetSchema(topic)
		require.NoError(t, err, topic)
		assert.NotNil(t, sh)
	}
	_, err := GetSchema("mystery_topic")
	assert.Error(t, err)
}

func TestNewSinkSelection(t *testing.T) {
	cfg := &models.Config{}
	sink, err := NewSink(cfg)
	require.NoError(t, err)
	assert.IsType(t, &ConsoleSink{}, sink, "no path configured falls back to console")

	cfg.Output.Path = t.TempDir()
	cfg.Output.Format = "csv"
	sink, err = NewSink(cfg)
	require.NoError(t, err)
	assert.IsType(t, &CSVSink{}, sink)

	cfg.Output.Format = "json"
	sink, err = NewSink(cfg)
	require.NoError(t, err)
	assert.IsType(t, &JSONSink{}, sink)

	cfg.Output.Format = "avro"
	_, err = NewSink(cfg)
	assert.Error(t, err)
}
