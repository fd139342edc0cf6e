package api

import (
	"context"
	"net/http"

	"nibog/internal/config"
	"nibog/internal/dispatch"
	"nibog/internal/email"
	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BroadcastHandler runs bulk email and WhatsApp sends.
type BroadcastHandler struct {
	DB      *gorm.DB
	Service *dispatch.Service
	Mailer  email.Sender
	WA      dispatch.MessageSender
	Config  *config.Config
}

func NewBroadcastHandler(db *gorm.DB, svc *dispatch.Service, mailer email.Sender, wa dispatch.MessageSender, cfg *config.Config) *BroadcastHandler {
	return &BroadcastHandler{DB: db, Service: svc, Mailer: mailer, WA: wa, Config: cfg}
}

// bulkRequest is accepted as JSON or as a multipart form with a "file" part
// holding a CSV or XLSX recipient list.
type bulkRequest struct {
	TemplateID   uint                `json:"template_id" form:"template_id"`
	Subject      string              `json:"subject" form:"subject"`
	Body         string              `json:"body" form:"body"`
	HTML         bool                `json:"html" form:"html"`
	TemplateName string              `json:"template_name" form:"template_name"`
	Language     string              `json:"language" form:"language"`
	Params       []string            `json:"params" form:"params"`
	Message      string              `json:"message" form:"message"`
	EventID      uint                `json:"event_id" form:"event_id"`
	Async        bool                `json:"async" form:"async"`
	Recipients   []map[string]string `json:"recipients" form:"-"`
}

func (h *BroadcastHandler) bind(c *gin.Context) (bulkRequest, bool) {
	var req bulkRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	if c.Query("async") == "true" {
		req.Async = true
	}
	return req, true
}

// recipients resolves the audience: uploaded file, inline list, then event bookings.
func (h *BroadcastHandler) recipients(c *gin.Context, req bulkRequest) ([]dispatch.Recipient, error) {
	var list []dispatch.Recipient
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if list, err = dispatch.ParseRecipients(fh.Filename, f); err != nil {
			return nil, err
		}
	} else if len(req.Recipients) > 0 {
		for _, fields := range req.Recipients {
			list = append(list, dispatch.NewRecipient(fields))
		}
	} else if req.EventID > 0 {
		var err error
		if list, err = h.Service.Audience(c.Request.Context(), req.EventID); err != nil {
			return nil, err
		}
	}
	if len(list) == 0 {
		return nil, models.ErrNoRecipients
	}
	return list, nil
}

func (h *BroadcastHandler) emailCampaign(ctx context.Context, req bulkRequest) (dispatch.EmailCampaign, error) {
	if req.TemplateID > 0 {
		var tmpl models.EmailTemplate
		if err := h.DB.WithContext(ctx).First(&tmpl, req.TemplateID).Error; err != nil {
			return dispatch.EmailCampaign{}, notFound(err, models.ErrTemplateNotFound)
		}
		if !tmpl.IsActive {
			return dispatch.EmailCampaign{}, models.ErrTemplateInactive
		}
		return dispatch.EmailCampaign{Name: tmpl.Name, Subject: tmpl.Subject, Body: tmpl.Body, HTML: req.HTML}, nil
	}
	if req.Subject == "" || req.Body == "" {
		return dispatch.EmailCampaign{}, models.ErrNoMessage
	}
	return dispatch.EmailCampaign{Name: "custom", Subject: req.Subject, Body: req.Body, HTML: req.HTML}, nil
}

// SendBulkEmail emails every valid recipient in order. Addresses failing
// validation are reported in the result and never attempted.
func (h *BroadcastHandler) SendBulkEmail(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	campaign, err := h.emailCampaign(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	list, err := h.recipients(c, req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.run(c, dispatch.EmailJob(h.Mailer, campaign, list), req.Async)
}

// SendBulkWhatsApp sends an approved template or a free text to every recipient.
func (h *BroadcastHandler) SendBulkWhatsApp(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	if req.TemplateName == "" && req.Message == "" {
		respondError(c, models.ErrNoMessage)
		return
	}
	list, err := h.recipients(c, req)
	if err != nil {
		respondError(c, err)
		return
	}
	lang := req.Language
	if lang == "" {
		lang = h.Config.WhatsAppLanguage
	}
	campaign := dispatch.WhatsAppCampaign{
		TemplateName: req.TemplateName,
		Language:     lang,
		Params:       req.Params,
		Message:      req.Message,
	}
	h.run(c, dispatch.WhatsAppJob(h.WA, campaign, h.Config.DefaultCountryCode, list), req.Async)
}

func (h *BroadcastHandler) run(c *gin.Context, job dispatch.Job, async bool) {
	if async {
		id, err := h.Service.Start(job)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": models.RunStatusRunning, "run_id": id})
		return
	}

	res, err := h.Service.Run(c.Request.Context(), job)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BroadcastHandler) ListRuns(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	runs, err := h.Service.Runs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if runs == nil {
		runs = []models.DispatchRun{}
	}
	c.JSON(http.StatusOK, runs)
}

func (h *BroadcastHandler) GetRun(c *gin.Context) {
	run, err := h.Service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// Audience previews the recipients an event_id bulk send would reach.
func (h *BroadcastHandler) Audience(c *gin.Context) {
	eventID := queryInt(c, "event_id", 0)
	if eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_id is required"})
		return
	}
	list, err := h.Service.Audience(c.Request.Context(), uint(eventID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "recipients": list})
}

// ListLogs returns the latest notification log entries.
func (h *BroadcastHandler) ListLogs(c *gin.Context) {
	limit := queryInt(c, "limit", 100)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := h.DB.WithContext(c.Request.Context()).Order("id desc").Limit(limit)
	if ch := c.Query("channel"); ch != "" {
		query = query.Where("channel = ?", ch)
	}
	if run := c.Query("run_id"); run != "" {
		query = query.Where("run_id = ?", run)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var logs []models.NotificationLog
	if err := query.Find(&logs).Error; err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []models.NotificationLog{}
	}
	c.JSON(http.StatusOK, logs)
}
