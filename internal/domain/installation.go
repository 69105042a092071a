package domain

import "time"

// Installation records the bot token a workspace granted when it installed
// the app. All chat API calls for a team are made with its BotToken.
type Installation struct {
	TeamID      string
	TeamName    string
	BotToken    string
	BotUserID   string
	InstalledAt time.Time
}
