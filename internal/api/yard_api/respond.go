package yard_api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/BearBump/YardBox/internal/yarderr"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "error", err.Error())
	}
}

func httpStatus(code yarderr.Code) int {
	switch code {
	case yarderr.CodeNotFound:
		return http.StatusNotFound
	case yarderr.CodeConflict:
		return http.StatusConflict
	case yarderr.CodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := yarderr.CodeOf(err)
	if code == yarderr.CodeInternal {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	}
	writeJSON(w, httpStatus(code), errorBody{Error: yarderr.Message(err), Code: string(code)})
}

// decode reads a JSON body into dst and validates it. An empty body is
// accepted when allowEmpty is set.
func (a *YardAPI) decode(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return yarderr.InvalidArgument("invalid request body: %v", err)
	}
	if err := a.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return yarderr.InvalidArgument("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return yarderr.InvalidArgument("%s failed %s", fe.Field(), fe.Tag())
	}
	return yarderr.InvalidArgument("invalid request: %v", err)
}
