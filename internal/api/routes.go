package api

import (
	"net/http"

	"nibog/internal/cache"
	"nibog/internal/config"
	"nibog/internal/dispatch"
	"nibog/internal/email"
	"nibog/internal/metrics"
	"nibog/internal/webhook"
	"nibog/internal/whatsapp"
	"nibog/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries everything the HTTP layer needs. Sheet may be nil.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Cache    cache.Cache
	Hub      *ws.Hub
	WhatsApp *whatsapp.Client
	Mailer   email.Sender
	Notifier ConfirmationSender
	Dispatch *dispatch.Service
	Sheet    BookingSheet
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(CORS(), Logger(), gin.Recovery())

	timeout := Timeout(d.Config.RequestTimeout)

	events := NewEventHandler(d.DB, d.Cache, d.Hub, d.Config.EventsPageSize)
	games := NewGameHandler(d.DB, d.Cache, d.Hub)
	bookings := NewBookingHandler(d.DB, d.Notifier, d.Sheet, d.Hub)
	content := NewContentHandler(d.DB, d.Cache, d.Hub)
	enquiries := NewEnquiryHandler(d.DB, d.Hub)
	settings := NewSettingsHandler(d.DB, d.Config)
	emailTemplates := NewEmailTemplateHandler(d.DB)
	wa := NewWhatsAppHandler(d.DB, d.WhatsApp, d.Config)
	broadcast := NewBroadcastHandler(d.DB, d.Dispatch, d.Mailer, d.WhatsApp, d.Config)
	dashboard := NewDashboardHandler(d.DB)
	hook := webhook.NewHandler(d.Config, d.DB)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ws_clients": d.Hub.ClientCount()})
	})
	r.GET("/metrics", metrics.Handler())
	r.GET("/ws", d.Hub.ServeWs)

	// Webhook Routes
	r.GET("/webhook", hook.VerifyWebhook)
	r.POST("/webhook", hook.HandleMessage)

	// Website API Routes
	public := r.Group("/api", timeout)
	{
		public.GET("/events", events.ListEvents)
		public.GET("/events/cities", events.ListCities)
		public.GET("/events/:id", events.GetPublicEvent)
		public.GET("/games", games.ListGames)
		public.POST("/bookings", bookings.CreateBooking)
		public.GET("/faqs", content.ListFAQs)
		public.GET("/pages/:slug", content.GetPage)
		public.GET("/settings/footer", content.GetFooter)
		public.GET("/settings/general", content.GetGeneral)
		public.POST("/contact", enquiries.CreateEnquiry)
	}

	// Admin API Routes
	admin := r.Group("/api/admin")
	timed := admin.Group("", timeout)
	{
		timed.GET("/dashboard", dashboard.GetStats)

		timed.GET("/events", events.AdminListEvents)
		timed.POST("/events", events.CreateEvent)
		timed.GET("/events/:id", events.AdminGetEvent)
		timed.PUT("/events/:id", events.UpdateEvent)
		timed.DELETE("/events/:id", events.DeleteEvent)

		timed.GET("/games", games.ListGames)
		timed.POST("/games", games.CreateGame)
		timed.GET("/games/:id", games.GetGame)
		timed.PUT("/games/:id", games.UpdateGame)
		timed.DELETE("/games/:id", games.DeleteGame)

		timed.GET("/bookings", bookings.ListBookings)
		timed.GET("/bookings/export", bookings.ExportBookings)
		timed.POST("/bookings/sheet-sync", bookings.SyncSheet)
		timed.GET("/bookings/:id", bookings.GetBooking)
		timed.PATCH("/bookings/:id/status", bookings.UpdateStatus)
		timed.PATCH("/bookings/:id/payment", bookings.UpdatePaymentStatus)
		timed.DELETE("/bookings/:id", bookings.DeleteBooking)
		timed.POST("/bookings/:id/whatsapp", bookings.ResendWhatsApp)
		timed.POST("/bookings/:id/email", bookings.ResendEmail)

		timed.GET("/faqs", content.AdminListFAQs)
		timed.POST("/faqs", content.CreateFAQ)
		timed.PUT("/faqs/:id", content.UpdateFAQ)
		timed.DELETE("/faqs/:id", content.DeleteFAQ)
		timed.GET("/pages/:slug", content.GetPage)
		timed.PUT("/pages/:slug", content.UpdatePage)
		timed.PUT("/settings/footer", content.UpdateFooter)
		timed.PUT("/settings/general", content.UpdateGeneral)

		timed.GET("/system-settings", settings.GetSettings)
		timed.PUT("/system-settings", settings.UpdateSettings)

		timed.GET("/enquiries", enquiries.ListEnquiries)
		timed.GET("/enquiries/export", enquiries.ExportEnquiries)
		timed.PATCH("/enquiries/:id/status", enquiries.UpdateStatus)
		timed.DELETE("/enquiries/:id", enquiries.DeleteEnquiry)

		timed.GET("/email-templates", emailTemplates.ListTemplates)
		timed.POST("/email-templates", emailTemplates.CreateTemplate)
		timed.GET("/email-templates/:id", emailTemplates.GetTemplate)
		timed.PUT("/email-templates/:id", emailTemplates.UpdateTemplate)
		timed.DELETE("/email-templates/:id", emailTemplates.DeleteTemplate)
		timed.POST("/email-templates/:id/preview", emailTemplates.PreviewTemplate)

		whatsappGroup := timed.Group("/whatsapp")
		{
			whatsappGroup.POST("/send", wa.SendMessage)
			whatsappGroup.GET("/templates", wa.GetTemplates)
			whatsappGroup.GET("/templates/remote", wa.GetRemoteTemplates)
			whatsappGroup.POST("/templates/sync", wa.SyncTemplates)
			whatsappGroup.POST("/templates", wa.CreateTemplate)
			whatsappGroup.DELETE("/templates", wa.DeleteTemplate)
		}

		timed.GET("/notifications/runs", broadcast.ListRuns)
		timed.GET("/notifications/runs/:id", broadcast.GetRun)
		timed.GET("/notifications/audience", broadcast.Audience)
		timed.GET("/notifications/logs", broadcast.ListLogs)
	}

	// Synchronous bulk runs live as long as the request, so no timeout here.
	notifications := admin.Group("/notifications")
	{
		notifications.POST("/email/bulk", broadcast.SendBulkEmail)
		notifications.POST("/whatsapp/bulk", broadcast.SendBulkWhatsApp)
	}

	return r
}
