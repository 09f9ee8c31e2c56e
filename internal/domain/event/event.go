package event

import "encoding/json"

// Envelope is the wire form of every websocket message: a type tag plus
// a raw payload decoded (or forwarded untouched) depending on the type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	TypeCreateRoom         = "createRoom"
	TypeRoomCreated        = "roomCreated"
	TypeJoinRoom           = "joinRoom"
	TypeStartGame          = "startGame"
	TypeJoinedRoomFailed   = "joinedRoomFailed"
	TypeMakeMove           = "makeMove"
	TypeMoveMade           = "moveMade"
	TypePlayerDisconnected = "playerDisconnected"
	TypeError              = "error"
)

const (
	ReasonNotFound    = "not_found"
	ReasonFull        = "full"
	ReasonIllegalMove = "illegal_move"
	ReasonBadRequest  = "bad_request"
)

// Move is the protocol move payload. Promotion carries the lowercase
// piece letter ("q", "r", "b", "n") when the move promotes a pawn.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

type CreateRoomRequest struct {
	Color    string `json:"color"`
	Opponent string `json:"opponent,omitempty"`
	Depth    int    `json:"depth,omitempty"`
}

type RoomCreated struct {
	Code string `json:"code"`
}

type JoinRoomRequest struct {
	Code string `json:"code"`
}

type StartGame struct {
	RoomCode  string `json:"roomCode"`
	HostColor string `json:"hostColor"`
}

type JoinedRoomFailed struct {
	Reason string `json:"reason"`
}

// MakeMoveRequest keeps the move as raw bytes: in pvp rooms the relay
// forwards it byte-for-byte without interpreting it.
type MakeMoveRequest struct {
	Code string          `json:"code"`
	Move json.RawMessage `json:"move"`
}

type MoveMade struct {
	Move json.RawMessage `json:"move"`
}

type ErrorEvent struct {
	Reason string `json:"reason"`
}

// Make wraps a typed payload into an envelope. Payloads are plain
// structs defined above, so marshalling cannot realistically fail; a
// failure yields an envelope with the type tag only.
func Make(eventType string, payload any) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{Type: eventType}
	}
	return Envelope{Type: eventType, Payload: raw}
}
