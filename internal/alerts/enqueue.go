package alerts

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

// EnqueueWelcomeEmail schedules a welcome email to the user
func EnqueueWelcomeEmail(email, name string) error {
	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	base = strings.TrimRight(base, "/")

	env := EmailEnvelope{
		To:      email,
		Subject: fmt.Sprintf("Welcome to Vetra, %s!", name),
		Body:    fmt.Sprintf("Hi %s, thanks for joining Vetra.\n\nOpen Vetra: %s", name, base),
	}
	payload := WelcomeEmailPayload{Name: name, Email: email, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskWelcomeEmail, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueProductApproved notifies the shop that its product went live
func EnqueueProductApproved(shopEmail, productName string) error {
	env := EmailEnvelope{
		To:      shopEmail,
		Subject: "Your product has been approved",
		Body:    fmt.Sprintf("Good news: %q passed review and is now live on Vetra.", productName),
	}
	payload := ModerationEmailPayload{ProductName: productName, Email: shopEmail, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskProductApproved, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueProductRejected notifies the shop with the reviewer's note
func EnqueueProductRejected(shopEmail, productName, note string) error {
	env := EmailEnvelope{
		To:      shopEmail,
		Subject: "Your product was not approved",
		Body:    fmt.Sprintf("%q did not pass review.\n\nReviewer note: %s\n\nYou can edit and resubmit it.", productName, note),
	}
	payload := ModerationEmailPayload{ProductName: productName, Email: shopEmail, Note: note, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskProductRejected, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueAdminAlert sends an alert to the platform operators
func EnqueueAdminAlert(severity, message string) error {
	to := os.Getenv("ADMIN_ALERT_EMAIL")
	if to == "" {
		to = "admin@vetra.local"
	}
	env := EmailEnvelope{To: to, Subject: "Admin Alert", Body: message}
	payload := AdminAlertPayload{Severity: severity, Message: message, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskAdminAlert, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("alerts"))
	return err
}

// Notifier adapts the enqueue functions to the moderation service. Enqueue
// failures are logged, never surfaced: a full Redis must not block a
// moderation decision that already committed.
type Notifier struct{}

func (Notifier) ProductApproved(shopEmail, productName string) {
	if err := EnqueueProductApproved(shopEmail, productName); err != nil {
		log.Println("enqueue product approved email:", err)
	}
}

func (Notifier) ProductRejected(shopEmail, productName, note string) {
	if err := EnqueueProductRejected(shopEmail, productName, note); err != nil {
		log.Println("enqueue product rejected email:", err)
	}
}

func (Notifier) AdminAlert(severity, message string) {
	if err := EnqueueAdminAlert(severity, message); err != nil {
		log.Println("enqueue admin alert:", err)
	}
}
