package bot

// User-facing copy. Tests compare against these, so change them together.
const (
	msgJoined         = "*Great!* You've joined the event!"
	msgAlreadyJoined  = "You are already participating in that event."
	msgLeft           = "*Done!* You are now removed from the event!"
	msgNotJoined      = "*Oops!* Are you really joined to that event?"
	msgNoEventThatDay = "Couldn't find any event on that day."
	msgNotAuthor      = "*Sorry!* You can only delete events you created."
	msgDeletedPrefix  = "*Gotcha!* Event deleted: "
	msgOops           = "*Oops!* Something went wrong. Please try again later."
	msgFollowDialog   = "Please follow the instructions in the dialog!"
	msgNoUpcoming     = "There is no upcoming event planned"
	msgCreated        = "*Great!* Your event is planned: "
	msgNewEvent       = "A new event was created!"
	msgEventDeleted   = "An event was cancelled: "
	msgOccupied       = "Sorry, this day seems occupied"
	msgPastDate       = "*Oops!* The day has to be in the future."
	msgDayOver        = "*Oops!* That day is already over."
	msgBadDay         = "*Oops!* I don't know which day you mean."
	msgBadTime        = "*Oops!* Times look like 18:30."
	msgNeedDay        = "Please tell me which day, for example `%s friday`."
	msgNeedPlace      = "Please tell me what to look for, for example `suggest bars in Kreuzberg`."
	msgNoPlaces       = "I couldn't find any open places for that."
	msgPlacesOff      = "Place suggestions are not available right now."
	msgSuggestions    = "Here are the best rated places I found:"
	msgCreateUsage    = "Try `create friday 18:00 The Tap Room`, or just `create` to open a form."
	msgRemindEvent    = "*Reminder* Today there's an event planned! Don't forget to join if you want to come along."
	msgRemindEmpty    = "Hey guys, there was an event planned for today, but no one wants to go :("
	msgFooter         = "Brought to you by *Eventer*"
	msgWelcome        = "*Welcome to Eventer!* Plan team events, see who is coming and find a place to go."
)
