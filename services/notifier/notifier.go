package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-wallet-monitor/services/monitor"
	"solana-wallet-monitor/services/transaction"

	cloudmessaging "solana-wallet-monitor/pkg/firebase/cloud-messaging"

	"go.uber.org/zap"
)

const (
	alertTitle   = "Transaction Alert"
	summaryTitle = "Monitoring Finished"
	alertType    = "transaction-alert"
	summaryType  = "monitoring-summary"
)

// Notifier pushes a notification for every resolved transaction to a single
// device token. Push failures are logged and never reach the session.
type Notifier struct {
	cloudMessagingSvc cloudmessaging.Service
	pushToken         string
	sendTimeout       time.Duration
	logger            *zap.SugaredLogger
}

func NewNotifier(cloudMessagingSvc cloudmessaging.Service, pushToken string, sendTimeout time.Duration, logger *zap.SugaredLogger) (*Notifier, error) {
	if cloudMessagingSvc == nil {
		return nil, errors.New("[notifier] invalid cloud messaging service")
	}
	if pushToken == "" {
		return nil, errors.New("[notifier] invalid push token")
	}
	if sendTimeout <= 0 {
		return nil, errors.New("[notifier] invalid send timeout")
	}
	if logger == nil {
		return nil, errors.New("[notifier] invalid logger")
	}

	return &Notifier{
		cloudMessagingSvc: cloudMessagingSvc,
		pushToken:         pushToken,
		sendTimeout:       sendTimeout,
		logger:            logger,
	}, nil
}

func (n *Notifier) Present(ctx context.Context, tx *transaction.Transaction, unique int) {
	if tx == nil {
		return
	}

	body := fmt.Sprintf("#%d %s %s SOL fee, %s", unique, tx.Type, tx.Fee().String(), tx.Status)
	if tx.IsTransfer() {
		body = fmt.Sprintf("#%d %s SOL sent from %s to %s", unique, tx.TransferAmount().String(), short(tx.FromAccount), short(tx.ToAccount))
	}

	data := map[string]interface{}{
		"type":      alertType,
		"signature": string(tx.Signature),
		"status":    string(tx.Status),
		"slot":      tx.Slot,
		"unique":    unique,
	}
	if info, ok := monitor.SessionFromContext(ctx); ok {
		data["session_id"] = info.ID
		data["wallet"] = info.Subject
	}

	n.send(ctx, alertTitle, body, data)
}

func (n *Notifier) Finish(ctx context.Context, report monitor.Report) {
	body := fmt.Sprintf("%s: %d unique, %d resolved, %d dropped", report.State, report.Unique, report.Resolved, report.Dropped)

	n.send(ctx, summaryTitle, body, map[string]interface{}{
		"type":       summaryType,
		"session_id": report.SessionID,
		"wallet":     report.Subject,
		"state":      report.State.String(),
	})
}

func (n *Notifier) send(ctx context.Context, title, body string, data map[string]interface{}) {
	ctx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()

	response, err := n.cloudMessagingSvc.SendMessage(ctx, title, body, n.pushToken, data)
	if err != nil {
		n.logger.Errorf("error sending %s push notification: %v", data["type"], err)
		return
	}
	if response != nil {
		n.logger.Debugf("push notification sent: %s", *response)
	}
}

func short(account string) string {
	if len(account) <= 8 {
		return account
	}
	return account[:4] + ".." + account[len(account)-4:]
}
