package response

import (
	"net/http"

	"github.com/kawahiro39/online-status-trygreen/core/handler"
)

// NoContent writes 204 with no body.
func NoContent() handler.Response {
	return Status(http.StatusNoContent)
}

// Status writes an empty response with code; zero means 200.
func Status(code int) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		if code == 0 {
			code = http.StatusOK
		}
		w.WriteHeader(code)
		return nil
	}
}
