package services

import (
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"setup-workflow-api/config"
	"setup-workflow-api/models"

	"gorm.io/gorm"
)

// NotifyUser writes an in-app notification row. Returns the error so callers
// inside a transaction can roll back, but transition side effects outside a
// transaction treat failures as non-fatal and just log.
func NotifyUser(db *gorm.DB, userID int, title, message, notifType string, relatedApplicationID *int) error {
	var related *uint
	if relatedApplicationID != nil {
		v := uint(*relatedApplicationID)
		related = &v
	}
	n := models.Notification{
		UserID:               uint(userID),
		Title:                title,
		Message:              message,
		Type:                 notifType,
		RelatedApplicationID: related,
		IsRead:               false,
		CreateAt:             time.Now(),
	}
	return db.Create(&n).Error
}

// NotifyRole fans a notification out to every active user holding the role.
func NotifyRole(db *gorm.DB, roleName, title, message, notifType string, relatedApplicationID *int) error {
	var users []models.User
	if err := db.Joins("JOIN roles ON roles.role_id = users.role_id").
		Where("roles.role = ? AND users.delete_at IS NULL", roleName).
		Find(&users).Error; err != nil {
		return err
	}

	for _, user := range users {
		if err := NotifyUser(db, user.UserID, title, message, notifType, relatedApplicationID); err != nil {
			return err
		}
	}
	return nil
}

// SendMailToUser emails a user a formal copy of a notification. Best effort:
// failures are logged, never propagated to the triggering transition.
func SendMailToUser(db *gorm.DB, userID int, subject, message string) {
	var user models.User
	if err := db.Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error; err != nil {
		log.Printf("notification email skipped, user %d not found: %v", userID, err)
		return
	}
	if strings.TrimSpace(user.Email) == "" {
		return
	}

	html := buildFormalEmailHTML(subject, user.FullName(), message)
	go sendMailSafe([]string{user.Email}, subject, html)
}

func sendMailSafe(to []string, subject, html string) {
	if err := config.SendMail(to, subject, html); err != nil {
		log.Printf("notification email send failed (subject=%q to=%v): %v", subject, to, err)
	}
}

func buildFormalEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "Sir/Madam"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
