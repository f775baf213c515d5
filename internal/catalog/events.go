package catalog

var (
	both     = []Mode{ModeIndividual, ModeTeam}
	soloOnly = []Mode{ModeIndividual}
	teamOnly = []Mode{ModeTeam}
)

var events = []Event{
	{ID: 1, Code: "01", Name: "InsightCraft", Description: "Data Visualization Challenge", IndividualPrice: 100, TeamPrice: 200, AllowedModes: both, MinTeamSize: 2, MaxTeamSize: 2},
	{ID: 2, Code: "02", Name: "AI Music", Description: "Create & Remix", IndividualPrice: 100, TeamPrice: 200, AllowedModes: both, MinTeamSize: 2, MaxTeamSize: 2},
	{ID: 3, Code: "03", Name: "PromptStorm", Description: "Talk Smart with AI", IndividualPrice: 100, AllowedModes: soloOnly},
	{ID: 4, Code: "04", Name: "Echoes of Itihasa", Description: "Public Speaking", IndividualPrice: 100, AllowedModes: soloOnly},
	{ID: 5, Code: "05", Name: "Yuktivaad", Description: "Debate (For / Against)", IndividualPrice: 100, TeamPrice: 200, AllowedModes: both, MinTeamSize: 2, MaxTeamSize: 2},
	{ID: 6, Code: "06", Name: "Yugantar", Description: "Mythological Storytelling", IndividualPrice: 100, AllowedModes: soloOnly},
	{ID: 7, Code: "07", Name: "KavyaRas", Description: "Poetry Recitation", IndividualPrice: 100, AllowedModes: soloOnly},
	{ID: 8, Code: "08", Name: "TechVision", Description: "Offline Poster Making", IndividualPrice: 100, AllowedModes: soloOnly},
	{ID: 9, Code: "09", Name: "Rangrekha", Description: "Mono Acting", IndividualPrice: 100, AllowedModes: soloOnly},
	{ID: 10, Code: "10", Name: "LokDharohar", Description: "Street Play (Nukkad Natak)", TeamPrice: 200, AllowedModes: teamOnly, MinTeamSize: 8, MaxTeamSize: 15},
	{ID: 11, Code: "11", Name: "Khoj – Hidden Hustle", Description: "Treasure Hunt", TeamPrice: 200, AllowedModes: teamOnly, MinTeamSize: 3, MaxTeamSize: 4},
	{ID: 12, Code: "12", Name: "RANBHUMI.exe", Description: "BGMI Showdown", TeamPrice: 200, AllowedModes: teamOnly, MinTeamSize: 4, MaxTeamSize: 4},
	{ID: 13, Code: "13", Name: "Case Race", Description: "The Ultimate Case Challenge", TeamPrice: 200, AllowedModes: teamOnly, MinTeamSize: 2, MaxTeamSize: 4},
	{ID: 14, Code: "14", Name: "StockStorm", Description: "Mock Stock Market Simulation", IndividualPrice: 100, TeamPrice: 200, AllowedModes: both, MinTeamSize: 2, MaxTeamSize: 4},
	{ID: 15, Code: "15", Name: "Between Lectures", Description: "Short Film Showcase", IndividualPrice: 100, TeamPrice: 200, AllowedModes: both, MinTeamSize: 2, MaxTeamSize: 4},
}
