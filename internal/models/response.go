package models

// EnhanceResponse is the success variant of the relay contract.
type EnhanceResponse struct {
	Success    bool   `json:"success" example:"true"`
	Original   string `json:"original"`
	Enhanced   string `json:"enhanced"`
	Creativity int    `json:"creativity" example:"3"`
}

// FailureResponse is the failure variant of the relay contract.
type FailureResponse struct {
	Success bool        `json:"success" example:"false"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// UpstreamErrorDetails is attached to failures caused by the Gemini call.
type UpstreamErrorDetails struct {
	HTTPStatus     int    `json:"http_status"`
	TransportError string `json:"transport_error"`
	RawResponse    string `json:"raw_response"`
}

// UploadErrorDetails is attached to upload transport failures.
type UploadErrorDetails struct {
	UploadError string `json:"upload_error"`
	Detail      string `json:"detail,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func NewFailure(message string, details interface{}) FailureResponse {
	return FailureResponse{Success: false, Message: message, Details: details}
}
