package ws

import "encoding/json"

// Message represents a WebSocket message with type-based routing.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message types - Lobby
const (
	TypeCreateGame = "create_game"
	TypeJoinGame   = "join_game"
	TypeLeaveGame  = "leave_game"
	TypeUpdateGame = "update_game"
)

// Message types - Gameplay
const (
	TypeLocationUpdate  = "location_update"
	TypeSubmitCode      = "submit_code"
	TypeZoneState       = "zone_state"
	TypeChickenLocation = "chicken_location"
	TypeHunterLocations = "hunter_locations"
	TypeWinnerList      = "winner_list"
	TypeGameOver        = "game_over"
)

// Message types - System
const (
	TypeError    = "error"
	TypeGameInfo = "game_info"
)

// ErrorMessage is sent when an error occurs. Retryable errors (a wrong
// found code) carry Retryable=true so clients keep the input open.
type ErrorMessage struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// NewErrorMessage creates a Message with an error payload.
func NewErrorMessage(msg string) Message {
	data, _ := json.Marshal(ErrorMessage{Message: msg})
	return Message{Type: TypeError, Data: data}
}

// NewRetryableErrorMessage creates an error Message the client may retry.
func NewRetryableErrorMessage(msg string) Message {
	data, _ := json.Marshal(ErrorMessage{Message: msg, Retryable: true})
	return Message{Type: TypeError, Data: data}
}

// NewMessage creates a Message with a typed payload.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: data}, nil
}
