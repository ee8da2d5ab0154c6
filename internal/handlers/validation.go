package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/hamzarao/carsaaz/pkg/errors"
	"github.com/hamzarao/carsaaz/pkg/response"
	appValidator "github.com/hamzarao/carsaaz/pkg/validator"
)

// bindAndValidate decodes the JSON body into dest and runs validation.
// On failure it writes the 400 response itself and returns false so
// handlers can bail with a bare return.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest(validationMessage(err)))
		return false
	}

	return true
}

// Human-readable phrasing per validation tag. %s is the field, %v the
// rule parameter where one applies.
var tagMessages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"min":      "%s must be at least %v characters",
	"max":      "%s must be at most %v characters",
	"gte":      "%s must be %v or more",
	"lte":      "%s must be %v or less",
	"oneof":    "%s must be one of: %v",
}

func validationMessage(err error) string {
	failures, ok := err.(appValidator.ValidationErrors)
	if !ok || len(failures) == 0 {
		return "invalid request payload"
	}

	messages := make([]string, 0, len(failures))
	for _, failure := range failures {
		field := readableField(failure.Field)
		format, known := tagMessages[failure.Tag]
		switch {
		case known && strings.Contains(format, "%v"):
			messages = append(messages, fmt.Sprintf(format, field, failure.Param))
		case known:
			messages = append(messages, fmt.Sprintf(format, field))
		case failure.Param != "":
			messages = append(messages, fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param))
		default:
			messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, failure.Tag))
		}
	}
	return strings.Join(messages, "; ")
}

func readableField(name string) string {
	if name == "" {
		return "field"
	}
	return strings.ToLower(strings.ReplaceAll(name, "_", " "))
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
