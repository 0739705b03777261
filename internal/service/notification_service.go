package service

import (
	"encoding/json"
	"fmt"

	"coursepay/internal/domain"
	"coursepay/internal/models"
	"coursepay/internal/repository"
	"coursepay/pkg/alert"
)

// NotificationService writes in-app inbox messages and mirrors
// settlement events to the ops alert channel. Every method is best
// effort from the caller's point of view: a failure here must never fail
// the financial operation that triggered it.
type NotificationService struct {
	repo    *repository.NotificationRepository
	alerter *alert.Telegram
}

func NewNotificationService(repo *repository.NotificationRepository, alerter *alert.Telegram) *NotificationService {
	return &NotificationService{repo: repo, alerter: alerter}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
}

// AlertOps sends an operational alert; no-op when no channel is wired.
func (s *NotificationService) AlertOps(format string, args ...interface{}) {
	s.alerter.Send(fmt.Sprintf(format, args...))
}

func (s *NotificationService) NotifyCommissionEarned(userID uint, commissionCents int64, orderID string) error {
	return s.Notify(userID, domain.NotifCommissionEarned, "Commission earned",
		fmt.Sprintf("You earned %.2f commission on a referred payment.", float64(commissionCents)/100),
		map[string]interface{}{"commission_cents": commissionCents, "order_id": orderID})
}

func (s *NotificationService) NotifyWithdrawalApproved(userID uint, reference string, netCents int64) error {
	return s.Notify(userID, domain.NotifWithdrawalApproved, "Withdrawal approved",
		fmt.Sprintf("Your withdrawal %s was approved. %.2f will be paid out.", reference, float64(netCents)/100),
		map[string]interface{}{"reference": reference, "net_cents": netCents})
}

func (s *NotificationService) NotifyWithdrawalPaid(userID uint, reference string, netCents int64) error {
	return s.Notify(userID, domain.NotifWithdrawalPaid, "Withdrawal paid",
		fmt.Sprintf("Your withdrawal %s has been paid out.", reference),
		map[string]interface{}{"reference": reference, "net_cents": netCents})
}

func (s *NotificationService) NotifyWithdrawalRejected(userID uint, reference, reason string) error {
	return s.Notify(userID, domain.NotifWithdrawalRejected, "Withdrawal rejected",
		fmt.Sprintf("Your withdrawal %s was rejected: %s", reference, reason),
		map[string]interface{}{"reference": reference, "reason": reason})
}
