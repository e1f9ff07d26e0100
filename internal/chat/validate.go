package chat

import (
	"encoding/json"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"portfolio-backend/internal/models"
)

var errNotString = validation.NewError("validation_is_string", "must be a string")

// isString rejects any JSON type other than string, including null and
// booleans sent for the tts flag.
func isString(value interface{}) error {
	if _, ok := value.(string); !ok {
		return errNotString
	}
	return nil
}

var chatBodyRules = validation.Map(
	validation.Key("message", validation.By(isString)).Optional(),
	validation.Key("tts", validation.By(isString)).Optional(),
).AllowExtraKeys()

// Validate decodes a raw chat body. Both fields are optional strings, and a
// non-blank message is required unless tts is "welcome". Failures are
// validation.Errors keyed by field.
func Validate(raw []byte) (*models.ChatRequest, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return nil, validation.Errors{
			"body": validation.NewError("validation_is_json_object", "must be a JSON object"),
		}
	}

	if err := validation.Validate(body, chatBodyRules); err != nil {
		return nil, err
	}

	req := &models.ChatRequest{}
	if v, ok := body["message"].(string); ok {
		req.Message = &v
	}
	if v, ok := body["tts"].(string); ok {
		req.TTS = &v
	}

	if !req.IsWelcome() && strings.TrimSpace(req.MessageText()) == "" {
		return nil, validation.Errors{"message": validation.ErrRequired}
	}
	return req, nil
}

// errorDetails renders err for the details field of an error reply.
func errorDetails(err error) interface{} {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return verrs
	}
	return err.Error()
}
