// Package i18n localizes user-facing error messages. Supported locales are
// English (default), Brazilian Portuguese and Spanish; unknown locales fall
// back to English.
package i18n

import "strings"

// Message keys used at the HTTP boundary.
const (
	KeyInvalidRequest   = "invalid_request"
	KeyNotFound         = "not_found"
	KeyUnauthorized     = "unauthorized"
	KeyValidationFailed = "validation_failed"
	KeyGenerationFailed = "generation_failed"
	KeyPromptNotReady   = "prompt_not_ready"
	KeyInternalError    = "internal_error"
)

var messages = map[string]map[string]string{
	"en": {
		KeyInvalidRequest:   "The request body is invalid.",
		KeyNotFound:         "The requested resource was not found.",
		KeyUnauthorized:     "Authentication is required.",
		KeyValidationFailed: "The prompt failed validation.",
		KeyGenerationFailed: "Code generation failed. Please try again.",
		KeyPromptNotReady:   "The prompt needs clarification before generation can start.",
		KeyInternalError:    "An internal error occurred.",
	},
	"pt-br": {
		KeyInvalidRequest:   "O corpo da requisição é inválido.",
		KeyNotFound:         "O recurso solicitado não foi encontrado.",
		KeyUnauthorized:     "Autenticação é necessária.",
		KeyValidationFailed: "O prompt falhou na validação.",
		KeyGenerationFailed: "A geração de código falhou. Tente novamente.",
		KeyPromptNotReady:   "O prompt precisa de esclarecimentos antes de iniciar a geração.",
		KeyInternalError:    "Ocorreu um erro interno.",
	},
	"es": {
		KeyInvalidRequest:   "El cuerpo de la solicitud no es válido.",
		KeyNotFound:         "No se encontró el recurso solicitado.",
		KeyUnauthorized:     "Se requiere autenticación.",
		KeyValidationFailed: "El prompt no pasó la validación.",
		KeyGenerationFailed: "La generación de código falló. Inténtalo de nuevo.",
		KeyPromptNotReady:   "El prompt necesita aclaración antes de iniciar la generación.",
		KeyInternalError:    "Ocurrió un error interno.",
	},
}

// Localize returns the message for key in the closest supported locale.
// The locale is matched against an Accept-Language style value.
func Localize(locale, key string) string {
	lang := normalize(locale)
	if m, ok := messages[lang]; ok {
		if msg, ok := m[key]; ok {
			return msg
		}
	}
	if msg, ok := messages["en"][key]; ok {
		return msg
	}
	return key
}

func normalize(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, ",;"); i >= 0 {
		locale = locale[:i]
	}
	switch {
	case strings.HasPrefix(locale, "pt"):
		return "pt-br"
	case strings.HasPrefix(locale, "es"):
		return "es"
	default:
		return "en"
	}
}
