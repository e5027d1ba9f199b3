package main

import "time"

// Station is a resolved timetable station. Many stations can share a
// display name; the first suggester match wins.
type Station struct {
	Code string
	Name string
}

// SeatClass is one car class on a train. A count the provider did not
// send means zero free seats; a tariff it did not send means the price
// is unknown, never zero.
type SeatClass struct {
	Type      string
	FreeCount int
	Price     *float64
}

// TicketOffer is a single train offer within one route/date.
// TrainNumber is the identity used for change detection.
type TicketOffer struct {
	TrainNumber     string
	Departure       string
	Arrival         string
	DurationMinutes *int
	Seats           []SeatClass
}

// SearchRecord is a completed search: the route, the travel date, the
// offers seen at the most recent successful fetch and when that fetch
// happened. A subscription is a SearchRecord promoted into the
// tracker's per-chat list.
type SearchRecord struct {
	ID            string
	From          Station
	To            Station
	Date          time.Time
	Tickets       []TicketOffer
	LastCheckedAt time.Time // UTC
}
