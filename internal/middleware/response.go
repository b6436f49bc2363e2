package middleware

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func failure(msg string) errorResponse {
	return errorResponse{Success: false, Error: msg}
}
