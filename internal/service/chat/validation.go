package chat

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"bedrockchat/internal/domain"
	domainChat "bedrockchat/internal/domain/services/chat"
)

func validateSendRequest(req *domainChat.SendRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.ConversationID, validation.Required),
		validation.Field(&req.ModelID, validation.Required),
		validation.Field(&req.Input, validation.Required),
	)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	return nil
}
