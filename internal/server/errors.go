package server

import (
	"net/http"

	apperrors "github.com/kwradar/kwradar/internal/errors"
)

// HandleError central handler for all errors
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}
