package devserver

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-console/internal/observability"
)

// Config controls the in-memory contract stub.
type Config struct {
	Logger *zap.Logger
	// SenderID and SenderName stand in for the authenticated session the
	// real server resolves; the stub trusts its caller.
	SenderID   string
	SenderName string
}

// Server implements the desk endpoint contracts in memory for local
// development and tests. The real endpoints stay black boxes; this stub
// only honors their wire shapes.
type Server struct {
	app     *fiber.App
	store   *store
	logger  *zap.Logger
	metrics *observability.Metrics

	senderID   string
	senderName string
}

// NewServer builds the stub with one seeded open ticket (id 1) and a
// small category list.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	senderID := cfg.SenderID
	if senderID == "" {
		senderID = "1"
	}
	senderName := cfg.SenderName
	if senderName == "" {
		senderName = "Support Staff"
	}

	server := &Server{
		app:        fiber.New(fiber.Config{DisableStartupMessage: true}),
		store:      newStore(),
		logger:     logger,
		metrics:    observability.NewMetrics(),
		senderID:   senderID,
		senderName: senderName,
	}

	server.app.Use(server.recoverMiddleware())
	server.app.Use(observability.RequestLogger(logger, server.metrics))
	server.registerRoutes()
	return server
}

// App exposes the fiber app for in-process tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the given address until shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) registerRoutes() {
	s.app.Post("/send_chat_message", s.sendChatMessage)
	s.app.Post("/ticket/:id/change_status", s.changeStatus)
	s.app.Post("/ticket/:id/change_category", s.changeCategory)
	s.app.Post("/api/ticket/:id/status", s.changeStatusAPI)
	s.app.Post("/api/ticket/:id/update", s.updateField)
	s.app.Post("/tickets/fragment", s.ticketsFragment)
	s.app.Get("/ticket_attachment/*", s.serveAttachment)
}

func (s *Server) recoverMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				s.metrics.RecordError(c.Path(), c.Method(), "PANIC")
				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false,
					"error":   "internal server error",
				})
			}
		}()
		return c.Next()
	}
}

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true,
	".xlsx": true, ".txt": true, ".ods": true, ".odt": true,
	".csv": true, ".odp": true,
}

func (s *Server) sendChatMessage(c *fiber.Ctx) error {
	ticketID, err := strconv.ParseInt(c.FormValue("ticket_id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid ticket_id"})
	}
	if _, ok := s.store.ticket(ticketID); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "ticket not found"})
	}

	isInternal := c.FormValue("is_internal") == "true"
	content := strings.TrimSpace(c.FormValue("message"))

	var attachment *attachmentRecord
	if header, err := c.FormFile("image"); err == nil && header != nil && header.Filename != "" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedExtensions[ext] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   fmt.Sprintf("file type %s is not allowed", ext),
			})
		}
		file, err := header.Open()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
		}
		contentType := header.Header.Get("Content-Type")
		attachment = s.store.addAttachment(ticketID, header.Filename, contentType, data)
	}

	message := s.store.addMessage(ticketID, s.senderID, s.senderName, content, isInternal, attachment)

	return c.JSON(fiber.Map{
		"success": true,
		"message": messageJSON(message),
	})
}

var validStatuses = map[string]bool{
	"new": true, "open": true, "in_progress": true,
	"resolved": true, "irrelevant": true, "closed": true,
}

func (s *Server) changeStatus(c *fiber.Ctx) error {
	ticketID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid ticket id"})
	}
	ticket, ok := s.store.ticket(ticketID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "ticket not found"})
	}

	status := c.FormValue("status")
	reason := c.FormValue("reason")
	if !validStatuses[status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid status"})
	}

	s.store.setStatus(ticket.ID, status, reason)
	return c.JSON(fiber.Map{"success": true, "status": status})
}

func (s *Server) changeStatusAPI(c *fiber.Ctx) error {
	ticketID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid ticket id"})
	}
	ticket, ok := s.store.ticket(ticketID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "ticket not found"})
	}

	var body struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}
	if !validStatuses[body.Status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid status"})
	}

	s.store.setStatus(ticket.ID, body.Status, body.Reason)

	// The API variant records the change as an internal system message,
	// mirroring the original server behavior.
	content := fmt.Sprintf("Status changed to '%s'", body.Status)
	if body.Reason != "" {
		content += "\nReason: " + body.Reason
	}
	s.store.addMessage(ticket.ID, "system", "System", content, true, nil)

	return c.JSON(fiber.Map{"success": true, "message": "status updated"})
}

var validPriorities = map[string]bool{"low": true, "normal": true, "high": true}

func (s *Server) updateField(c *fiber.Ctx) error {
	ticketID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid ticket id"})
	}
	ticket, ok := s.store.ticket(ticketID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "ticket not found"})
	}
	if ticket.Status == "resolved" || ticket.Status == "irrelevant" || ticket.Status == "closed" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "cannot modify a completed ticket"})
	}

	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}

	switch body.Field {
	case "priority":
		if !validPriorities[body.Value] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid priority"})
		}
		s.store.setPriority(ticket.ID, body.Value)
	case "category":
		categoryID, err := strconv.ParseInt(body.Value, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid category"})
		}
		if _, ok := s.store.category(categoryID); !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "category not found"})
		}
		s.store.setCategory(ticket.ID, categoryID)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "unknown field"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "updated"})
}

func (s *Server) changeCategory(c *fiber.Ctx) error {
	ticketID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid ticket id"})
	}
	ticket, ok := s.store.ticket(ticketID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "ticket not found"})
	}

	categoryID, err := strconv.ParseInt(c.FormValue("category_id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "category is required"})
	}
	if _, ok := s.store.category(categoryID); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "category not found"})
	}

	s.store.setCategory(ticket.ID, categoryID)
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) ticketsFragment(c *fiber.Ctx) error {
	status := c.FormValue("status", "all")
	tickets := s.store.listTickets(status)

	var fragment strings.Builder
	fragment.WriteString(`<tbody id="tickets-table-body">`)
	for _, ticket := range tickets {
		fragment.WriteString(fmt.Sprintf(
			`<tr data-ticket-id="%d"><td>%d</td><td><span class="status-badge status-%s" data-status-badge="%d">%s</span></td></tr>`,
			ticket.ID, ticket.ID, ticket.Status, ticket.ID, ticket.Status))
	}
	fragment.WriteString(`</tbody>`)

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(fragment.String())
}

func (s *Server) serveAttachment(c *fiber.Ctx) error {
	path := "/ticket_attachment/" + c.Params("*")
	record, ok := s.store.attachmentByPath(path)
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	c.Set(fiber.HeaderContentType, record.ContentType)
	return c.Send(record.Data)
}

func messageJSON(message *messageRecord) fiber.Map {
	out := fiber.Map{
		"id":          message.ID,
		"content":     message.Content,
		"sender_id":   message.SenderID,
		"sender_name": message.SenderName,
		"created_at":  message.CreatedAt.Format("02.01.2006 15:04"),
		"is_internal": message.IsInternal,
		"attachment":  nil,
	}
	if message.Attachment != nil {
		out["attachment"] = fiber.Map{
			"id":        message.Attachment.ID,
			"file_path": message.Attachment.FilePath,
			"file_name": message.Attachment.FileName,
			"is_image":  message.Attachment.IsImage,
		}
	}
	return out
}

// store is the in-memory state behind the stub.
type store struct {
	mu          sync.Mutex
	tickets     map[int64]*ticketRecord
	categories  map[int64]string
	messages    []*messageRecord
	attachments map[string]*attachmentRecord
	nextMessage int64
	nextAttach  int64
}

type ticketRecord struct {
	ID         int64
	Status     string
	Priority   string
	CategoryID int64
	Resolution string
}

type messageRecord struct {
	ID         int64
	TicketID   int64
	SenderID   string
	SenderName string
	Content    string
	IsInternal bool
	CreatedAt  time.Time
	Attachment *attachmentRecord
}

type attachmentRecord struct {
	ID          int64
	TicketID    int64
	FilePath    string
	FileName    string
	ContentType string
	IsImage     bool
	Data        []byte
}

func newStore() *store {
	return &store{
		tickets: map[int64]*ticketRecord{
			1: {ID: 1, Status: "new", Priority: "normal"},
		},
		categories: map[int64]string{
			1: "Hardware",
			2: "Software",
			3: "Access",
		},
		attachments: make(map[string]*attachmentRecord),
	}
}

func (st *store) ticket(id int64) (ticketRecord, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	ticket, ok := st.tickets[id]
	if !ok {
		return ticketRecord{}, false
	}
	return *ticket, true
}

func (st *store) category(id int64) (string, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	name, ok := st.categories[id]
	return name, ok
}

func (st *store) listTickets(status string) []ticketRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]ticketRecord, 0, len(st.tickets))
	for _, ticket := range st.tickets {
		if status != "all" && ticket.Status != status {
			continue
		}
		out = append(out, *ticket)
	}
	return out
}

func (st *store) setStatus(id int64, status, reason string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	ticket := st.tickets[id]
	previous := ticket.Status
	ticket.Status = status
	if (status == "resolved" || status == "irrelevant") && reason != "" {
		ticket.Resolution = reason
	}
	if (status == "new" || status == "in_progress") && (previous == "resolved" || previous == "irrelevant") {
		ticket.Resolution = ""
	}
}

func (st *store) setPriority(id int64, priority string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.tickets[id].Priority = priority
}

func (st *store) setCategory(id, categoryID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.tickets[id].CategoryID = categoryID
}

func (st *store) addMessage(ticketID int64, senderID, senderName, content string, isInternal bool, attachment *attachmentRecord) *messageRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.nextMessage++
	message := &messageRecord{
		ID:         st.nextMessage,
		TicketID:   ticketID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		IsInternal: isInternal,
		CreatedAt:  time.Now(),
		Attachment: attachment,
	}
	st.messages = append(st.messages, message)
	return message
}

func (st *store) addAttachment(ticketID int64, fileName, contentType string, data []byte) *attachmentRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.nextAttach++
	record := &attachmentRecord{
		ID:          st.nextAttach,
		TicketID:    ticketID,
		FileName:    fileName,
		ContentType: contentType,
		IsImage:     strings.HasPrefix(contentType, "image/"),
		Data:        data,
	}
	record.FilePath = fmt.Sprintf("/ticket_attachment/tickets/%d/%s_%s",
		ticketID, time.Now().Format("20060102150405"), fileName)
	st.attachments[record.FilePath] = record
	return record
}

func (st *store) attachmentByPath(path string) (*attachmentRecord, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	record, ok := st.attachments[path]
	return record, ok
}
