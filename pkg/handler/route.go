package handler

// Route type
type Route string

const (
	// RouteCreate upload a new confession
	RouteCreate Route = "create"
	// RouteList list confessions, newest first
	RouteList Route = "list"
	// RouteDelete remove a confession by deletion code
	RouteDelete Route = "delete"
	// RoutePlay count one playback
	RoutePlay Route = "play"
	// RoutePopular list the top confessions by daily plays
	RoutePopular Route = "popular"
	// RouteSearch find confessions by name fragment
	RouteSearch Route = "search"
	// RouteAudio stream stored audio bytes
	RouteAudio Route = "audio"
)
