package main

// findNewOffers returns the offers in next whose train number was not
// seen in prev, preserving next's order. Offers in prev without a
// train number mask nothing. Trains that disappeared from next are not
// reported.
func findNewOffers(prev, next []TicketOffer) []TicketOffer {
	seen := make(map[string]struct{}, len(prev))
	for _, t := range prev {
		if t.TrainNumber != "" {
			seen[t.TrainNumber] = struct{}{}
		}
	}

	var fresh []TicketOffer
	for _, t := range next {
		if _, ok := seen[t.TrainNumber]; !ok {
			fresh = append(fresh, t)
		}
	}
	return fresh
}
