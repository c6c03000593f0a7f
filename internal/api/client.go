package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-console/internal/domain"
	"github.com/spec-kit/ticket-console/pkg/util"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the root URL of the desk server (e.g. "http://localhost:5000").
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, zap.NewNop() is used.
	Logger *zap.Logger
}

// Client is a typed HTTP client for the desk endpoints. The endpoints are
// black boxes; the client implements their wire contracts and maps every
// outcome onto the ValidationError / ServerRejection / TransportFailure
// taxonomy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a desk API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// SendMessageRequest describes an outgoing chat message.
type SendMessageRequest struct {
	TicketID int64
	// Message is sent even when empty: the server contract requires the
	// field to be present for attachment-only messages.
	Message    string
	Internal   bool
	Attachment *domain.PendingAttachment
}

// SendChatMessage submits one message as a multipart form and returns the
// server-created message payload.
func (c *Client) SendChatMessage(ctx context.Context, req SendMessageRequest) (*MessagePayload, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("ticket_id", strconv.FormatInt(req.TicketID, 10)); err != nil {
		return nil, util.NewTransportFailure(err)
	}
	if err := writer.WriteField("is_internal", strconv.FormatBool(req.Internal)); err != nil {
		return nil, util.NewTransportFailure(err)
	}
	if err := writer.WriteField("message", req.Message); err != nil {
		return nil, util.NewTransportFailure(err)
	}
	if req.Attachment != nil {
		part, err := writer.CreatePart(filePartHeader("image", req.Attachment.FileName, req.Attachment.MIMEType))
		if err != nil {
			return nil, util.NewTransportFailure(err)
		}
		if _, err := part.Write(req.Attachment.Data); err != nil {
			return nil, util.NewTransportFailure(err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, util.NewTransportFailure(err)
	}

	raw, err := c.post(ctx, "/send_chat_message", writer.FormDataContentType(), body, nil)
	if err != nil {
		return nil, err
	}

	var response sendMessageResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, util.NewTransportFailure(fmt.Errorf("api: malformed send response: %w", err))
	}
	if !response.Success {
		return nil, util.NewServerRejection(response.Error)
	}
	if response.Message == nil {
		return nil, util.NewTransportFailure(fmt.Errorf("api: send response missing message payload"))
	}
	return response.Message, nil
}

// ChangeStatus submits a status transition through the url-encoded page
// endpoint, marked as an AJAX request.
func (c *Client) ChangeStatus(ctx context.Context, ticketID int64, status domain.TicketStatus, reason string) error {
	form := url.Values{}
	form.Set("status", string(status))
	form.Set("reason", reason)

	path := fmt.Sprintf("/ticket/%d/change_status", ticketID)
	headers := map[string]string{"X-Requested-With": "XMLHttpRequest"}
	raw, err := c.post(ctx, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), headers)
	if err != nil {
		return err
	}

	var response statusResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return util.NewTransportFailure(fmt.Errorf("api: malformed status response: %w", err))
	}
	if !response.Success {
		return util.NewServerRejection(response.Error)
	}
	return nil
}

// ChangeStatusJSON submits a status transition through the JSON API
// endpoint used by one page variant. Failure text arrives in "message".
func (c *Client) ChangeStatusJSON(ctx context.Context, ticketID int64, status domain.TicketStatus, reason string) error {
	payload := map[string]string{"status": string(status), "reason": reason}
	path := fmt.Sprintf("/api/ticket/%d/status", ticketID)

	raw, err := c.postJSON(ctx, path, payload)
	if err != nil {
		return err
	}

	var response apiResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return util.NewTransportFailure(fmt.Errorf("api: malformed status response: %w", err))
	}
	if !response.Success {
		return util.NewServerRejection(response.Message)
	}
	return nil
}

// UpdateTicketField submits a single-field edit (category, priority, ...).
func (c *Client) UpdateTicketField(ctx context.Context, ticketID int64, field, value string) error {
	payload := map[string]string{"field": field, "value": value}
	path := fmt.Sprintf("/api/ticket/%d/update", ticketID)

	raw, err := c.postJSON(ctx, path, payload)
	if err != nil {
		return err
	}

	var response apiResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return util.NewTransportFailure(fmt.Errorf("api: malformed update response: %w", err))
	}
	if !response.Success {
		return util.NewServerRejection(response.Message)
	}
	return nil
}

// ChangeCategory assigns the ticket to a category.
func (c *Client) ChangeCategory(ctx context.Context, ticketID, categoryID int64) error {
	form := url.Values{}
	form.Set("category_id", strconv.FormatInt(categoryID, 10))

	path := fmt.Sprintf("/ticket/%d/change_category", ticketID)
	raw, err := c.post(ctx, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), nil)
	if err != nil {
		return err
	}

	var response statusResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return util.NewTransportFailure(fmt.Errorf("api: malformed category response: %w", err))
	}
	if !response.Success {
		return util.NewServerRejection(response.Error)
	}
	return nil
}

// TicketsFragment fetches the filtered ticket-table HTML fragment. The
// fragment is opaque to this layer and returned as-is.
func (c *Client) TicketsFragment(ctx context.Context, filters url.Values) (string, error) {
	raw, err := c.post(ctx, "/tickets/fragment", "application/x-www-form-urlencoded", strings.NewReader(filters.Encode()), nil)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, util.NewTransportFailure(err)
	}
	return c.post(ctx, path, "application/json", bytes.NewReader(encoded), nil)
}

// post issues the request and returns the raw response body. Network
// errors become transport failures; HTTP status is not inspected here
// because the desk endpoints carry their verdict in the JSON body even on
// non-2xx responses.
func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader, headers map[string]string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, util.NewTransportFailure(err)
	}
	request.Header.Set("Content-Type", contentType)
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		c.logger.Warn("desk request failed", zap.String("path", path), zap.Error(err))
		return nil, util.NewTransportFailure(err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, util.NewTransportFailure(err)
	}
	c.logger.Debug("desk request",
		zap.String("path", path),
		zap.Int("status", response.StatusCode),
		zap.Int("body_bytes", len(raw)))
	return raw, nil
}

func filePartHeader(field, fileName, mimeType string) textproto.MIMEHeader {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, fileName))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header.Set("Content-Type", mimeType)
	return header
}
