package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jobsterhq/jobster-be/internal/apperror"
)

var validate = validator.New()

// writeJSON renders a success payload.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// envelope is the standard success response shape.
type envelope map[string]interface{}

// decodeBody parses a JSON request body and runs struct validation,
// translating violations to field-level messages.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.NewValidation("Invalid request body", err)
	}
	if err := validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, len(verrs))
			for i, ve := range verrs {
				msgs[i] = fieldMessage(ve)
			}
			return apperror.NewValidation(strings.Join(msgs, "; "), nil)
		}
		return apperror.NewValidation("Invalid request body", err)
	}
	return nil
}

func fieldMessage(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return fmt.Sprintf("Please enter the %s field", ve.Field())
	case "email":
		return fmt.Sprintf("Please enter a valid email for %s", ve.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", ve.Field(), ve.Param())
	case "oneof":
		return fmt.Sprintf("Please select a valid value for %s", ve.Field())
	default:
		return fmt.Sprintf("Invalid value for %s", ve.Field())
	}
}

// projectFields trims a serialized object list to the selected field names,
// realizing the field-limiting stage at render time.
func projectFields(v interface{}, fields []string) interface{} {
	if fields == nil {
		return v
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var list []map[string]interface{}
	if err := json.Unmarshal(data, &list); err != nil {
		return v
	}

	keep := make(map[string]bool, len(fields))
	for _, f := range fields {
		keep[f] = true
	}
	for i := range list {
		for k := range list[i] {
			if !keep[k] {
				delete(list[i], k)
			}
		}
	}
	return list
}
