package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nabil-hasan/bizbook/libs/config"
	"github.com/nabil-hasan/bizbook/libs/db"
	"github.com/nabil-hasan/bizbook/libs/httpx"
	"github.com/nabil-hasan/bizbook/libs/kafkax"
	otelx "github.com/nabil-hasan/bizbook/libs/otel"
	"github.com/nabil-hasan/bizbook/libs/runtime"
	"github.com/nabil-hasan/bizbook/services/notification-service/internal/consumer"
	"github.com/nabil-hasan/bizbook/services/notification-service/internal/email"
	"github.com/nabil-hasan/bizbook/services/notification-service/internal/inbox"
	"github.com/nabil-hasan/bizbook/services/notification-service/internal/sms"
	"github.com/nabil-hasan/bizbook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type appointmentCreatedPayload struct {
	AppointmentID string `json:"appointmentId"`
	ClientID      string `json:"clientId"`
	CompanyID     string `json:"companyId"`
	ServiceID     string `json:"serviceId"`
	StartTime     string `json:"startTime"`
}

type appointmentStatusPayload struct {
	AppointmentID string `json:"appointmentId"`
	ClientID      string `json:"clientId"`
	CompanyID     string `json:"companyId"`
	From          int    `json:"from"`
	To            int    `json:"to"`
}

type appointmentCompletedPayload struct {
	AppointmentID string  `json:"appointmentId"`
	SaleID        string  `json:"saleId"`
	CompanyID     string  `json:"companyId"`
	ClientID      string  `json:"clientId"`
	Total         float64 `json:"total"`
}

type notifier struct {
	repo   *storage.Repository
	email  email.Sender
	sms    sms.Sender
	logger *slog.Logger
}

// deliver sends the message over email and, when a phone number is on file,
// SMS. Delivery failures are recorded, not retried; the row is the audit trail.
func (n *notifier) deliver(ctx context.Context, kind, appointmentID, companyID, clientID, subject, body string, payload map[string]any) error {
	contact, err := n.repo.GetContact(ctx, clientID)
	if err != nil {
		n.logger.Error("contact lookup failed", "err", err, "client_id", clientID)
		return err
	}

	status := "sent"
	reason := ""
	if err := n.email.Send(contact.Email, subject, body); err != nil {
		status = "failed"
		reason = err.Error()
		n.logger.Error("email send failed", "err", err, "recipient", contact.Email)
	}
	if err := n.repo.Insert(ctx, storage.Notification{
		AppointmentID: appointmentID,
		CompanyID:     companyID,
		Kind:          kind,
		Channel:       "email",
		Recipient:     contact.Email,
		Payload:       payload,
		Status:        status,
		FailureReason: reason,
	}); err != nil {
		return err
	}

	if contact.Phone == "" {
		return nil
	}
	status = "sent"
	reason = ""
	if err := n.sms.Send(ctx, contact.Phone, body); err != nil {
		status = "failed"
		reason = err.Error()
		n.logger.Error("sms send failed", "err", err, "recipient", contact.Phone)
	}
	return n.repo.Insert(ctx, storage.Notification{
		AppointmentID: appointmentID,
		CompanyID:     companyID,
		Kind:          kind,
		Channel:       "sms",
		Recipient:     contact.Phone,
		Payload:       payload,
		Status:        status,
		FailureReason: reason,
	})
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	notificationsRepo := storage.NewRepository(pool)

	emailSender := email.NewSMTPSender(
		config.String("SMTP_HOST", "mailpit"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", "no-reply@bizbook.local"),
	)

	var smsSender sms.Sender
	switch strings.ToLower(config.String("SMS_PROVIDER", "noop")) {
	case "webhook":
		smsSender = sms.NewWebhookSender(config.String("SMS_WEBHOOK_URL", ""), config.String("SMS_WEBHOOK_TOKEN", ""))
	default:
		smsSender = sms.NewNoopSender()
	}

	n := &notifier{repo: notificationsRepo, email: emailSender, sms: smsSender, logger: logger}

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "notification-service")
	startConsumer := func(topic string, handler consumer.Handler) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		c := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}, handler)
		go c.Run(ctx)
	}

	startConsumer("appointment.created.v1", func(ctx context.Context, msg kafka.Message) error {
		var p appointmentCreatedPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			logger.Error("invalid appointment.created payload", "err", err)
			return nil
		}
		if p.AppointmentID == "" || p.ClientID == "" {
			logger.Error("missing appointment.created fields")
			return nil
		}
		when := p.StartTime
		if t, err := time.Parse(time.RFC3339, p.StartTime); err == nil {
			when = t.Format("Mon, 2 Jan 2006 at 15:04 MST")
		}
		body := fmt.Sprintf("Your appointment %s is booked for %s.", p.AppointmentID, when)
		return n.deliver(ctx, "appointment.created", p.AppointmentID, p.CompanyID, p.ClientID,
			"Appointment confirmed", body, map[string]any{"startTime": p.StartTime})
	})

	startConsumer("appointment.status_changed.v1", func(ctx context.Context, msg kafka.Message) error {
		var p appointmentStatusPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			logger.Error("invalid appointment.status_changed payload", "err", err)
			return nil
		}
		if p.AppointmentID == "" || p.ClientID == "" {
			logger.Error("missing appointment.status_changed fields")
			return nil
		}
		var subject, body string
		switch p.To {
		case 1:
			subject = "Appointment confirmed"
			body = fmt.Sprintf("Your appointment %s has been confirmed.", p.AppointmentID)
		case 4:
			subject = "Appointment cancelled"
			body = fmt.Sprintf("Your appointment %s has been cancelled.", p.AppointmentID)
		default:
			// Intermediate transitions are not worth a message.
			return nil
		}
		return n.deliver(ctx, "appointment.status_changed", p.AppointmentID, p.CompanyID, p.ClientID,
			subject, body, map[string]any{"from": p.From, "to": p.To})
	})

	startConsumer("appointment.completed.v1", func(ctx context.Context, msg kafka.Message) error {
		var p appointmentCompletedPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			logger.Error("invalid appointment.completed payload", "err", err)
			return nil
		}
		if p.AppointmentID == "" || p.ClientID == "" {
			logger.Error("missing appointment.completed fields")
			return nil
		}
		body := fmt.Sprintf("Thanks for your visit. Your total was %.2f (receipt %s).", p.Total, p.SaleID)
		return n.deliver(ctx, "appointment.completed", p.AppointmentID, p.CompanyID, p.ClientID,
			"Thanks for your visit", body, map[string]any{"saleId": p.SaleID, "total": p.Total})
	})

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
