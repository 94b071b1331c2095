package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xela07ax/claims-ledger/internal/domain"
)

const msgInternal = "Internal server error"

// validate - общий экземпляр на пакет, validator кэширует разбор структур.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В сообщениях об ошибках используем имена полей из JSON, как их видит клиент
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError переводит вид ошибки реестра в HTTP-статус.
// Текст инфраструктурных ошибок клиенту не отдаем.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeErrorMessage(w, status, msgInternal)
		return
	}
	writeErrorMessage(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateID),
		errors.Is(err, domain.ErrLimitExceeded),
		errors.Is(err, domain.ErrDanglingReference),
		errors.Is(err, domain.ErrInvalidEnum):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decode читает тело запроса и проверяет обязательные поля.
// Возвращает текст для клиента, если запрос некорректен.
func decode(r *http.Request, dst interface{}) (string, bool) {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return "Invalid request body", false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Sprintf("%s is %s", verrs[0].Field(), verrs[0].Tag()), false
		}
		return "Invalid request body", false
	}
	return "", true
}
