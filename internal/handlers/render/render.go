package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
	ServiceErrorType    = "service_error"
)

// Credentials and tokens are tiny, anything larger is not a valid request
const maxBodyBytes = 1 << 16

var errEmptyBody = errors.New("request body is empty")

var validate = newValidator()

type Struct any

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, data any) {
	jsonWithStatus(w, data, http.StatusOK)
}

func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	jsonWithStatus(w, data, code)
}

// Message renders plain {"message": msg} response
func Message(w http.ResponseWriter, msg string, code int) {
	jsonWithStatus(w, MessageResponse{Message: msg}, code)
}

// Render ServiceError
func ServiceError(w http.ResponseWriter, error string, code int) {
	response := ErrorResponse{
		Error:   ServiceErrorType,
		Message: error,
	}

	jsonWithStatus(w, response, code)
}

// Render json DecodeError
// Too large body is reported with 413, everything else with 400
func DecodeError(w http.ResponseWriter, err error) {
	response := ErrorResponse{Error: DecodingErrorType}
	code := http.StatusBadRequest

	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		sizeErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &sizeErr):
		response.Message = fmt.Sprintf("Request body is too large (maximum %d bytes)", sizeErr.Limit)
		code = http.StatusRequestEntityTooLarge
	case errors.As(err, &typeErr):
		response.Message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	case errors.As(err, &syntaxErr):
		response.Message = fmt.Sprintf("Malformed JSON at position %d", syntaxErr.Offset)
	case errors.Is(err, errEmptyBody):
		response.Message = "Request body is empty"
	case errors.Is(err, io.ErrUnexpectedEOF):
		response.Message = "Malformed JSON: unexpected end of body"
	default:
		response.Message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	jsonWithStatus(w, response, code)
}

// Render ValidationErrors
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	response := ErrorResponse{
		Error:   ValidationErrorType,
		Message: "Request validation failed",
		Fields:  make(map[string]string, len(errs)),
	}

	// Create user-friendly error messages based on validation tag
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		case "username":
			message = "Only letters, digits and '.', '_', '-' are allowed"
		default:
			message = "Invalid value"
		}

		response.Fields[fieldError.Field()] = message
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// Bind decodes JSON request body into type T
// Empty body is an error; on any error the response is written already
func Bind[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	value, err := decode[T](w, r)
	if err != nil {
		DecodeError(w, err)
	}
	return value, err
}

// BindOptional is like Bind but empty body gives zero T
func BindOptional[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	value, err := decode[T](w, r)
	switch {
	case errors.Is(err, errEmptyBody):
		return value, nil
	case err != nil:
		DecodeError(w, err)
	}
	return value, err
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	value, err := Bind[T](w, r)
	if err != nil {
		return value, err
	}

	err = validate.Struct(value)

	var errs validator.ValidationErrors
	switch {
	case err == nil:
		return value, nil
	case errors.As(err, &errs):
		ValidationErrors(w, errs)
	default:
		ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}

	return value, err
}

func decode[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	if r.Body == nil || r.Body == http.NoBody {
		return value, errEmptyBody
	}

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&value)
	if errors.Is(err, io.EOF) {
		return value, errEmptyBody
	}

	return value, err
}

// renderJSONWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
