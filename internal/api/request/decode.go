package request

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/handgame/internal/api/apierr"
)

// maxBodyBytes bounds request bodies; every request here is a small JSON object
const maxBodyBytes = 4 << 10

// Decode reads a JSON request body into dst
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierr.NewInvalidRequestError("invalid request body")
	}
	return nil
}
