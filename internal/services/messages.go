package services

import "net/http"

// Error codes returned in the "error" field. Some are kept verbatim from the
// first app release, which matches on them.
const (
	CodeUnauthorized       = "unauthorized"
	CodeInvalidToken       = "invalid_token"
	CodeNotInitialized     = "firestore_not_initialized"
	CodeLimitExceeded      = "limit_exceeded"
	CodeTooManyRequests    = "too_many_requests"
	CodeInvalidModelOutput = "Invalid JSON from OpenAI"
	CodeUpstreamError      = "Server error"
	CodeInvalidParams      = "invalid_params"
	CodeUnknownProduct     = "unknown_product"
	CodeServerError        = "server_error"
)

var messages = map[string]string{
	CodeUnauthorized:       "Oturum doğrulanamadı, lütfen tekrar giriş yapın.",
	CodeInvalidToken:       "Oturum geçersiz veya süresi dolmuş.",
	CodeNotInitialized:     "Sunucu yapılandırması tamamlanmamış, lütfen daha sonra tekrar deneyin.",
	CodeLimitExceeded:      "Öneri hakkınız doldu. Devam etmek için kredi satın alabilirsiniz.",
	CodeTooManyRequests:    "Çok fazla istek gönderdiniz, lütfen biraz sonra tekrar deneyin.",
	CodeInvalidModelOutput: "Yapay zekâ yanıtı okunamadı, krediniz iade edildi.",
	CodeUpstreamError:      "Öneri servisine ulaşılamadı, lütfen tekrar deneyin.",
	CodeInvalidParams:      "Eksik veya hatalı parametre.",
	CodeUnknownProduct:     "Bilinmeyen ürün.",
	CodeServerError:        "Sunucu hatası, lütfen tekrar deneyin.",
}

// Message returns the Turkish user-facing text for an error code.
func Message(code string) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[CodeServerError]
}

// SendError writes {error: code, message} with the localized message.
func SendError(w http.ResponseWriter, statusCode int, code string) {
	SendErrorResponse(w, statusCode, code, Message(code), nil)
}
