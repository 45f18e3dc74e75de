package dto

// ErrorDetail describes a failed request or batch item.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Status string      `json:"status" example:"error"`
	Error  ErrorDetail `json:"error"`
}

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Status string      `json:"status" example:"success"`
	Data   interface{} `json:"data"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Success builds a success envelope.
func Success(data interface{}) SuccessResponse {
	return SuccessResponse{Status: StatusSuccess, Data: data}
}

// Error builds an error envelope.
func Error(code int, message, reason string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Error: ErrorDetail{Code: code, Message: message, Reason: reason}}
}
