package api

import (
	"log/slog"
	"net/http"

	"github.com/chengzhnag/taskboard/internal/api/shared"
	"github.com/chengzhnag/taskboard/internal/platform/logger"
	"github.com/chengzhnag/taskboard/internal/redact"
	"github.com/chengzhnag/taskboard/internal/service"
)

// SendMailRequest is the request body for POST /send-mail.
type SendMailRequest struct {
	To      string `json:"to"      validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// MailHandler handles transactional mail requests.
type MailHandler struct {
	mailService service.MailService
	logger      *slog.Logger
}

// NewMailHandler creates a new MailHandler.
func NewMailHandler(mailService service.MailService, log *slog.Logger) *MailHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for MailHandler")
	}

	return &MailHandler{
		mailService: mailService,
		logger:      log.With(slog.String("component", "mail_handler")),
	}
}

// SendMail handles POST /send-mail requests.
func (h *MailHandler) SendMail(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SendMailRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	messageID, err := h.mailService.Send(r.Context(), req.To, req.Subject, req.Text, req.HTML)
	if err != nil {
		status := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if status == http.StatusInternalServerError {
			safeMessage = "Failed to send mail"
		}
		shared.RespondWithErrorAndLog(w, r, status, safeMessage, err)
		return
	}

	shared.RespondWithSuccess(w, r, "Mail sent", map[string]string{"id": messageID})
}
