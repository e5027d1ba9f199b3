package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://pass.rzd.ru/"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// RzdAPI talks to the public RZD endpoints: the station suggester and
// the timetable. Implements StationResolver and TicketSource.
type RzdAPI struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

func NewRzdAPI(baseURL string, timeout time.Duration, log zerolog.Logger) *RzdAPI {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &RzdAPI{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

type suggesterStation struct {
	Name string      `json:"name"`
	Code json.Number `json:"code"`
}

// StationByName queries the suggester. Provider errors are swallowed
// here: the caller only distinguishes "no candidates".
func (a *RzdAPI) StationByName(ctx context.Context, name string) []Station {
	q := url.Values{}
	q.Set("stationNamePart", name)
	q.Set("lang", "ru")
	q.Set("compactMode", "y")

	var found []suggesterStation
	if err := a.getJSON(ctx, "suggester", q, &found); err != nil {
		a.log.Warn().Err(err).Str("query", name).Msg("station lookup failed")
		return nil
	}

	stations := make([]Station, 0, len(found))
	for _, s := range found {
		stations = append(stations, Station{Code: s.Code.String(), Name: s.Name})
	}
	return stations
}

type timetableResponse struct {
	Trains []timetableTrain `json:"tp"`
}

type timetableTrain struct {
	Number    string         `json:"number"`
	Date0     string         `json:"date0"`
	Time0     string         `json:"time0"`
	Date1     string         `json:"date1"`
	Time1     string         `json:"time1"`
	TimeInWay string         `json:"timeInWay"`
	Cars      []timetableCar `json:"cars"`
}

type timetableCar struct {
	Type      string      `json:"type"`
	FreeSeats int         `json:"freeSeats"`
	Tariff    json.Number `json:"tariff"`
}

// GetTickets fetches the timetable for a route and day. An error is a
// fetch failure; an empty slice with a nil error means the provider
// had no offers.
func (a *RzdAPI) GetTickets(ctx context.Context, fromCode, toCode string, date time.Time) ([]TicketOffer, error) {
	q := url.Values{}
	q.Set("layer_id", "5827")
	q.Set("dir", "0")
	q.Set("tfl", "3")
	q.Set("checkSeats", "1")
	q.Set("code0", fromCode)
	q.Set("code1", toCode)
	q.Set("dt0", date.Format(tripDateLayout))

	var tt timetableResponse
	if err := a.getJSON(ctx, "timetable/public/", q, &tt); err != nil {
		return nil, err
	}

	tickets := make([]TicketOffer, 0, len(tt.Trains))
	for _, train := range tt.Trains {
		tickets = append(tickets, TicketOffer{
			TrainNumber:     train.Number,
			Departure:       strings.TrimSpace(train.Date0 + " " + train.Time0),
			Arrival:         strings.TrimSpace(train.Date1 + " " + train.Time1),
			DurationMinutes: parseTimeInWay(train.TimeInWay),
			Seats:           parseCars(train.Cars),
		})
	}
	return tickets, nil
}

func (a *RzdAPI) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// parseTimeInWay converts the provider's "H:MM" time in way to
// minutes. Anything else means the duration is unknown.
func parseTimeInWay(s string) *int {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return nil
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return nil
	}
	mins, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	total := hours*60 + mins
	return &total
}

func parseCars(cars []timetableCar) []SeatClass {
	seats := make([]SeatClass, 0, len(cars))
	for _, car := range cars {
		sc := SeatClass{Type: car.Type, FreeCount: car.FreeSeats}
		if car.Tariff != "" {
			if price, err := car.Tariff.Float64(); err == nil {
				sc.Price = &price
			}
		}
		seats = append(seats, sc)
	}
	return seats
}
