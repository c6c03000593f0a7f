package api

import "github.com/spec-kit/ticket-console/internal/domain"

// MessagePayload is the server's representation of a stored message.
type MessagePayload struct {
	ID         int64              `json:"id"`
	Content    string             `json:"content"`
	SenderID   string             `json:"sender_id"`
	SenderName string             `json:"sender_name"`
	CreatedAt  string             `json:"created_at"`
	IsInternal bool               `json:"is_internal"`
	Attachment *AttachmentPayload `json:"attachment"`
}

// AttachmentPayload is server-created attachment metadata.
type AttachmentPayload struct {
	ID       int64  `json:"id"`
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
	IsImage  bool   `json:"is_image"`
}

// ToDomain converts the payload into the client-side message type.
func (p *MessagePayload) ToDomain() domain.ChatMessage {
	message := domain.ChatMessage{
		ID:         p.ID,
		Content:    p.Content,
		SenderID:   p.SenderID,
		SenderName: p.SenderName,
		CreatedAt:  p.CreatedAt,
		IsInternal: p.IsInternal,
	}
	if p.Attachment != nil {
		message.Attachment = &domain.Attachment{
			ID:       p.Attachment.ID,
			FilePath: p.Attachment.FilePath,
			FileName: p.Attachment.FileName,
			IsImage:  p.Attachment.IsImage,
		}
	}
	return message
}

type sendMessageResponse struct {
	Success bool            `json:"success"`
	Message *MessagePayload `json:"message"`
	Error   string          `json:"error"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
