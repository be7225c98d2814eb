package api

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data,omitempty"`
}

func Write(w http.ResponseWriter, status int, msg string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		StatusCode: status,
		Msg:        msg,
		Data:       data,
	})
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	Write(w, status, msg, nil)
}
