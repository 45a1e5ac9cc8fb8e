package models

// ChatResponse is the envelope returned for every chat message. The widget
// renders ChatText and the Data rows; Status mirrors the HTTP status so the
// payload is self describing. Data is always present, empty when nothing
// matched, so the client never branches on a missing key.
type ChatResponse struct {
	Status   int        `json:"status"`
	Success  bool       `json:"success"`
	Message  string     `json:"message"`
	ChatText string     `json:"chat_response"`
	Data     []PlanView `json:"data"`
}
