package handler

import (
	"log"
	"net/http"

	"stashbox/internal/common"
)

// respondServiceError maps a service error to its one externally visible
// status. Anything that maps to a 500 is logged in full and replaced with a
// generic message so internals never reach the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatusFromError(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		common.RespondWithError(w, status, "Internal server error")
		return
	}
	common.RespondWithError(w, status, err.Error())
}
