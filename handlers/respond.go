package handlers

import "github.com/pocketbase/pocketbase/core"

// errorJSON writes a uniform JSON error body. Handlers in this app have
// no HTML front end; API consumers and the operator scripts both expect
// {"error": "..."} with an appropriate status code.
func errorJSON(e *core.RequestEvent, status int, message string) error {
	return e.JSON(status, map[string]string{"error": message})
}
