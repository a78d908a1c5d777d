package publishapplyevent

// Envelope is the request shape a function URL delivers: the original body
// as a string, base64 encoded for binary content types.
type Envelope struct {
	Body            string `json:"body"`
	IsBase64Encoded bool   `json:"isBase64Encoded"`
}

// Output is the success body.
type Output struct {
	Success bool `json:"success"`
}

const (
	msgPublishFailed = "Failed to publish event"
	msgInternal      = "Internal error publishing event"
	msgInvalidEvent  = "Invalid event payload"
)
