package util

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrorResponse is the body of every failed invocation.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TextResponse is the body of a successful invocation.
type TextResponse struct {
	Text string `json:"text"`
}

func Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, &ErrorResponse{Error: msg})
}

func Text(w http.ResponseWriter, r *http.Request, text string) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &TextResponse{Text: text})
}
