package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	tripDateLayout  = "02.01.2006"
	checkTimeLayout = "02.01.2006 15:04"
)

// show at most this many offers in a search result message
const maxShownOffers = 5

// parseTripDate validates user-entered ДД.ММ.ГГГГ text. Impossible
// dates and dates before today are rejected.
func parseTripDate(s string, today time.Time) (time.Time, bool) {
	d, err := time.Parse(tripDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	if d.Before(startOfDay(today)) {
		return time.Time{}, false
	}
	return d, true
}

// startOfDay maps t to its calendar day at UTC midnight, comparable
// with dates produced by parseTripDate.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// formatPrice summarizes seat prices as the minimum over classes with
// a known tariff.
func formatPrice(seats []SeatClass) string {
	var min *float64
	for i := range seats {
		p := seats[i].Price
		if p == nil {
			continue
		}
		if min == nil || *p < *min {
			min = p
		}
	}
	if min == nil {
		return "не указана"
	}
	return "от " + strconv.FormatFloat(*min, 'f', -1, 64) + " руб."
}

// formatSeats summarizes free seats across all seat classes.
func formatSeats(seats []SeatClass) string {
	total := 0
	for _, s := range seats {
		total += s.FreeCount
	}
	if total == 0 {
		return "нет мест"
	}
	return fmt.Sprintf("%d свободных", total)
}

func formatOffer(t TicketOffer, priceLabel string) string {
	return fmt.Sprintf(
		"🚂 Поезд: %s\n🕒 Отправление: %s\n🕓 Прибытие: %s\n💰 %s: %s\n💺 Места: %s\n\n",
		orNA(t.TrainNumber), orNA(t.Departure), orNA(t.Arrival),
		priceLabel, formatPrice(t.Seats), formatSeats(t.Seats),
	)
}

func formatSearchResults(tickets []TicketOffer) string {
	var b strings.Builder
	b.WriteString("🎫 Найденные билеты:\n\n")

	n := len(tickets)
	if n > maxShownOffers {
		n = maxShownOffers
	}
	for _, t := range tickets[:n] {
		b.WriteString(formatOffer(t, "Примерная цена"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatNewOffers(tickets []TicketOffer) string {
	var b strings.Builder
	b.WriteString("🚀 Появились новые билеты:\n\n")
	for _, t := range tickets {
		b.WriteString(formatOffer(t, "Цена"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatSummary renders the confirmation prompt for a conversation
// that has collected all three fields.
func formatSummary(c Conversation) string {
	return fmt.Sprintf(
		"Параметры поиска:\nОтправление: %s\nПрибытие: %s\nДата: %s\n\nПодтвердить поиск?",
		c.From.Name, c.To.Name, c.Date.Format(tripDateLayout),
	)
}

func formatSubscriptions(recs []SearchRecord) string {
	var b strings.Builder
	b.WriteString("Ваши активные подписки:\n\n")
	for _, rec := range recs {
		fmt.Fprintf(&b,
			"Маршрут: %s → %s\nДата: %s\nПоследняя проверка: %s\n\n",
			rec.From.Name, rec.To.Name,
			rec.Date.Format(tripDateLayout),
			rec.LastCheckedAt.Format(checkTimeLayout),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
