package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/adityaaa08012006/decivue-sub004/internal/apierrors"
)

var validate = validator.New()

// BodySize rejects write requests whose Content-Type or size is
// unacceptable before the handler ever decodes the body. Per-field
// validation of the decoded struct is the handler's job, via ValidateStruct.
func BodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodDelete || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if ct := r.Header.Get("Content-Type"); ct != "" && ct != "application/json" {
				apierrors.WriteError(w, apierrors.Validation("Content-Type must be application/json").WithRequestID(GetRequestID(r.Context())))
				return
			}
			if r.ContentLength > maxBytes {
				apierrors.WriteError(w, apierrors.Validation("request body exceeds the size limit").WithRequestID(GetRequestID(r.Context())))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ValidateStruct runs struct-tag validation over a decoded request body.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// DecodeAndValidate decodes r's JSON body into dst and runs struct-tag
// validation over it, so handlers get one call instead of repeating the
// decode/validate/FieldErrors dance.
func DecodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if err := ValidateStruct(dst); err != nil {
		return fmt.Errorf("%d validation error(s): %w", len(FieldErrors(err)), err)
	}
	return nil
}

// FieldErrors flattens a validator.ValidationErrors into a JSON-friendly
// shape for the APIError's Details field.
func FieldErrors(err error) []map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make([]map[string]string, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, map[string]string{
			"field": e.Field(),
			"issue": e.Tag(),
		})
	}
	return out
}
