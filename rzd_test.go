package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, handler http.Handler) *RzdAPI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRzdAPI(srv.URL, time.Second, zerolog.Nop())
}

func TestStationByName(t *testing.T) {
	var gotQuery string
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/suggester", r.URL.Path)
		gotQuery = r.URL.Query().Get("stationNamePart")
		assert.Equal(t, "ru", r.URL.Query().Get("lang"))
		assert.Equal(t, "y", r.URL.Query().Get("compactMode"))
		w.Write([]byte(`[
			{"name":"МОСКВА ОКТЯБРЬСКАЯ","code":2006004},
			{"name":"МОСКВА КУРСКАЯ","code":2001025}
		]`))
	}))

	stations := api.StationByName(context.Background(), "Москва")

	assert.Equal(t, "Москва", gotQuery)
	require.Len(t, stations, 2)
	assert.Equal(t, Station{Code: "2006004", Name: "МОСКВА ОКТЯБРЬСКАЯ"}, stations[0])
}

func TestStationByNameSwallowsProviderErrors(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	assert.Empty(t, api.StationByName(context.Background(), "Москва"))
}

func TestGetTickets(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/timetable/public/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "5827", q.Get("layer_id"))
		assert.Equal(t, "1", q.Get("checkSeats"))
		assert.Equal(t, "2000000", q.Get("code0"))
		assert.Equal(t, "2004000", q.Get("code1"))
		assert.Equal(t, "24.08.2026", q.Get("dt0"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"tp":[
			{
				"number":"001A",
				"date0":"24.08.2026","time0":"23:55",
				"date1":"25.08.2026","time1":"07:55",
				"timeInWay":"8:00",
				"cars":[
					{"type":"Купе","freeSeats":12,"tariff":3200},
					{"type":"СВ","freeSeats":2}
				]
			},
			{"number":"002B","date0":"24.08.2026","time0":"10:05"}
		]}`))
	}))

	date := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	tickets, err := api.GetTickets(context.Background(), "2000000", "2004000", date)

	require.NoError(t, err)
	require.Len(t, tickets, 2)

	first := tickets[0]
	assert.Equal(t, "001A", first.TrainNumber)
	assert.Equal(t, "24.08.2026 23:55", first.Departure)
	assert.Equal(t, "25.08.2026 07:55", first.Arrival)
	require.NotNil(t, first.DurationMinutes)
	assert.Equal(t, 480, *first.DurationMinutes)
	require.Len(t, first.Seats, 2)
	require.NotNil(t, first.Seats[0].Price)
	assert.Equal(t, 3200.0, *first.Seats[0].Price)
	assert.Nil(t, first.Seats[1].Price, "missing tariff is unknown, not zero")
	assert.Equal(t, 2, first.Seats[1].FreeCount)

	second := tickets[1]
	assert.Equal(t, "24.08.2026 10:05", second.Departure)
	assert.Nil(t, second.DurationMinutes)
	assert.Empty(t, second.Seats)
}

func TestGetTicketsEmptyIsNotAnError(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tp":[]}`))
	}))

	tickets, err := api.GetTickets(context.Background(), "1", "2", testToday)

	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestGetTicketsProviderErrorIsAnError(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := api.GetTickets(context.Background(), "1", "2", testToday)
	assert.Error(t, err)
}

func TestGetTicketsMalformedResponseIsAnError(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))

	_, err := api.GetTickets(context.Background(), "1", "2", testToday)
	assert.Error(t, err)
}

func TestParseTimeInWay(t *testing.T) {
	d := parseTimeInWay("5:45")
	require.NotNil(t, d)
	assert.Equal(t, 345, *d)

	assert.Nil(t, parseTimeInWay(""))
	assert.Nil(t, parseTimeInWay("восемь часов"))
	assert.Nil(t, parseTimeInWay("8"))
}
