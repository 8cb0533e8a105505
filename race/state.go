package race

// State is the phase of the event. The numeric values are sent to overlays.
type State uint8

const (
	Unknown State = iota
	WaitingForClients
	WaitingForReady
	WaitingForSpawns
	Qualifying
	LiningUp
	Countdown
	Race
	Finish
)

func (s State) String() string {
	switch s {
	case WaitingForClients:
		return "WaitingForClients"
	case WaitingForReady:
		return "WaitingForReady"
	case WaitingForSpawns:
		return "WaitingForSpawns"
	case Qualifying:
		return "Qualifying"
	case LiningUp:
		return "LiningUp"
	case Countdown:
		return "Countdown"
	case Race:
		return "Race"
	case Finish:
		return "Finish"
	default:
		return "Unknown"
	}
}

// OnTrack reports whether lap counting and track limits are active.
func (s State) OnTrack() bool {
	return s == Qualifying || s == Race
}
