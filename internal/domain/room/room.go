package room

type Mode string

const (
	ModePvP    Mode = "pvp"
	ModeEngine Mode = "engine"
)

const (
	ColorWhite = "white"
	ColorBlack = "black"
)

// Room pairs two participants behind a short human-typed code. It keeps
// connection identifiers only; the relay owns the connections themselves.
type Room struct {
	Code              string `json:"code"`
	HostColor         string `json:"host_color"`
	Status            string `json:"status"`
	Mode              Mode   `json:"mode"`
	Depth             int    `json:"-"`
	HostConnectionID  string `json:"-"`
	GuestConnectionID string `json:"-"`
}

func (r *Room) Participates(connID string) bool {
	return connID != "" && (r.HostConnectionID == connID || r.GuestConnectionID == connID)
}

// Other returns the connection id of the participant opposite to connID,
// or "" when there is none (waiting room, engine opponent).
func (r *Room) Other(connID string) string {
	if r.HostConnectionID == connID {
		return r.GuestConnectionID
	}
	if r.GuestConnectionID == connID {
		return r.HostConnectionID
	}
	return ""
}

func ValidColor(c string) bool {
	return c == ColorWhite || c == ColorBlack
}

func OppositeColor(c string) string {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}
