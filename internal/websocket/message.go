package websocket

// Posting feed actions.
const (
	ActionJobCreated = "job.created"
	ActionJobUpdated = "job.updated"
	ActionJobDeleted = "job.deleted"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}
