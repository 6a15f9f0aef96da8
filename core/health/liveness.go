package health

import (
	"github.com/kawahiro39/online-status-trygreen/core/handler"
	"github.com/kawahiro39/online-status-trygreen/core/response"
)

// Liveness reports that the process is serving requests.
func Liveness[C handler.Context](C) handler.Response {
	return response.JSON(map[string]any{"ok": true, "status": "alive"})
}
