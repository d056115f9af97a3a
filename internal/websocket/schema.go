package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest is sent by the client to save a single answer.
type AnswerRequest struct {
	Action Action `json:"action"`
	Number int    `json:"number"`
	Answer string `json:"answer"`
}

// SubmitRequest is sent by the client to finish and score the session.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSuccess Event = "success"
	EventScored  Event = "scored"
	EventTick    Event = "tick"
	EventPong    Event = "pong"
)

type AnswerResponse struct {
	Event  Event `json:"event"`
	Number int   `json:"number"`
}

// ScoredResponse is pushed once the session has been scored, whether by an
// explicit submit or by clock expiry.
type ScoredResponse struct {
	Event   Event   `json:"event"`
	Correct int     `json:"correct"`
	Band    float64 `json:"band"`
	Expired bool    `json:"expired"`
}

// TickResponse carries the remaining time, pushed once per second while the
// session is running.
type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
