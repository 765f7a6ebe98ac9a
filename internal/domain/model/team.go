package model

// Team is a franchise as listed by the source's team table.
type Team struct {
	ID           string
	FullName     string
	Abbreviation string
	Nickname     string
	City         string
}

// SeasonYear maps a source season id (22003) to its year (2003). Values that
// already look like years pass through.
func SeasonYear(seasonID int) int {
	if seasonID > 10000 {
		return seasonID % 10000
	}
	return seasonID
}
