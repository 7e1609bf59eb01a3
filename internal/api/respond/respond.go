// Package respond implements the API's response envelope: successful calls
// wrap their payload in {"status":"success","data":...}, failures carry
// {"status":"fail|error","message":...}.
package respond

import (
	"encoding/json"
	"net/http"
)

type successEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type failureEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JSON writes a success envelope with the given HTTP status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Status: "success", Data: data})
}

// Error writes a failure envelope. Client errors report status "fail",
// server errors report "error".
func Error(w http.ResponseWriter, status int, message string) {
	kind := "fail"
	if status >= http.StatusInternalServerError {
		kind = "error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(failureEnvelope{Status: kind, Message: message})
}
