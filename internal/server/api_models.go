package server

// ProgressEvent is one stage transition streamed over the compare
// websocket.
type ProgressEvent struct {
	Stage  string `json:"stage" example:"fetching"`
	Detail string `json:"detail,omitempty" example:"https://dev.example.com"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
