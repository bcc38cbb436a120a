package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/videosnap/internal/api/shared"
)

var errInvalidBase64 = errors.New("image_base64 is not valid base64")

// decodeAndValidate decodes the JSON body into v and validates it. On
// failure it writes the error response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		if errors.Is(err, shared.ErrBodyTooLarge) {
			HandleAPIError(w, r, err, "")
			return false
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
			shared.CodeInvalidRequest, "Invalid request format", err)
		return false
	}

	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
			shared.CodeInvalidRequest, shared.ValidationMessage(err), err)
		return false
	}
	return true
}

// decodeImage decodes a standard base64 payload. A data URL prefix such as
// "data:image/png;base64," is stripped and unpadded input is accepted.
func decodeImage(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, ","); i >= 0 {
			payload = payload[i+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	if err != nil {
		return nil, errInvalidBase64
	}
	return data, nil
}
