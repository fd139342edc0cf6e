package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"nibog/internal/config"
	"nibog/internal/database"
	"nibog/internal/dispatch"
	"nibog/internal/email"
	"nibog/internal/logging"
	"nibog/internal/metrics"
	"nibog/internal/models"

	"github.com/sirupsen/logrus"
)

// bulkmail sends one email per row of a CSV or XLSX file using the same
// dispatcher as the admin API. Interrupting the command stops the run before
// the next recipient.
func main() {
	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	file := flag.String("file", "", "CSV or XLSX recipient list (header row required)")
	templateName := flag.String("template", "", "name of a stored email template")
	subject := flag.String("subject", "", "subject with {{field}} placeholders (without -template)")
	bodyFile := flag.String("body", "", "file holding the body (without -template)")
	html := flag.Bool("html", false, "send the body as HTML")
	delay := flag.Duration("delay", cfg.DispatchDelay, "pause between sends")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.InitGorm(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	if err := database.SyncConfig(db, cfg); err != nil {
		logrus.Fatalf("Failed to sync system settings: %v", err)
	}
	metrics.Register()

	campaign := dispatch.EmailCampaign{Name: *templateName, Subject: *subject, HTML: *html}
	if *templateName != "" {
		var tmpl models.EmailTemplate
		if err := db.Where("name = ?", *templateName).First(&tmpl).Error; err != nil {
			logrus.Fatalf("Template %q: %v", *templateName, err)
		}
		if !tmpl.IsActive {
			logrus.Fatalf("Template %q: %v", *templateName, models.ErrTemplateInactive)
		}
		campaign.Subject, campaign.Body = tmpl.Subject, tmpl.Body
	} else {
		b, err := os.ReadFile(*bodyFile)
		if err != nil {
			logrus.Fatalf("Failed to read body: %v", err)
		}
		campaign.Name, campaign.Body = "cli", string(b)
	}
	if campaign.Subject == "" || campaign.Body == "" {
		logrus.Fatal(models.ErrNoMessage)
	}

	f, err := os.Open(*file)
	if err != nil {
		logrus.Fatalf("Failed to open recipients: %v", err)
	}
	recipients, err := dispatch.ParseRecipients(*file, f)
	f.Close()
	if err != nil {
		logrus.Fatalf("Failed to parse recipients: %v", err)
	}
	if len(recipients) == 0 {
		logrus.Fatal(models.ErrNoRecipients)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := dispatch.NewService(db, *delay, nil)
	res, err := svc.Run(ctx, dispatch.EmailJob(email.NewSender(cfg), campaign, recipients))
	if err != nil {
		logrus.Fatalf("Dispatch failed: %v", err)
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	os.Stdout.Write(append(out, '\n'))
	if res.Aborted {
		os.Exit(1)
	}
}
