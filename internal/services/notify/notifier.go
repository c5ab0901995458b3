package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
)

type Notifier interface {
	CaseSubmitted(ctx context.Context, c model.Case, attached, failed int)
	CaseDecided(ctx context.Context, c model.Case, record model.VerificationRecord)
}

type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Nop struct{}

func (Nop) CaseSubmitted(context.Context, model.Case, int, int) {}

func (Nop) CaseDecided(context.Context, model.Case, model.VerificationRecord) {}

const (
	sendTimeout     = 5 * time.Second
	maxPendingSends = 16
)

// TelegramNotifier posts to the moderators chat. Messages are sent in the
// background so a slow Telegram API never delays the request that triggered
// them. Delivery errors are logged and never surface to callers.
type TelegramNotifier struct {
	sender  Sender
	chatID  int64
	log     *zap.Logger
	timeout time.Duration

	slots chan struct{}
	wg    sync.WaitGroup
}

func NewTelegramNotifier(sender Sender, chatID int64, log *zap.Logger) *TelegramNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &TelegramNotifier{
		sender:  sender,
		chatID:  chatID,
		log:     log,
		timeout: sendTimeout,
		slots:   make(chan struct{}, maxPendingSends),
	}
}

// Wait blocks until in-flight messages are sent or ctx is done.
func (n *TelegramNotifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *TelegramNotifier) CaseSubmitted(ctx context.Context, c model.Case, attached, failed int) {
	text := fmt.Sprintf("New case %s\nType: %s\nCounty: %s\n%s\nEvidence: %d attached", c.ID, c.CaseType, c.County, c.ShortDescription, attached)
	if failed > 0 {
		text += fmt.Sprintf(", %d failed", failed)
	}
	n.send(ctx, "case_submitted", text)
}

func (n *TelegramNotifier) CaseDecided(ctx context.Context, c model.Case, record model.VerificationRecord) {
	text := fmt.Sprintf("Case %s marked %s\n%s", c.ID, record.Status, strings.TrimSpace(record.VerificationNotes))
	n.send(ctx, "case_decided", text)
}

func (n *TelegramNotifier) send(ctx context.Context, event, text string) {
	if n.sender == nil || n.chatID == 0 {
		return
	}
	select {
	case n.slots <- struct{}{}:
	default:
		n.log.Warn("notification dropped, too many pending sends", zap.String("event", event))
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	n.wg.Add(1)
	go func() {
		defer func() {
			cancel()
			<-n.slots
			n.wg.Done()
		}()
		if err := n.sender.SendText(sendCtx, n.chatID, text); err != nil {
			n.log.Warn("notification failed", zap.String("event", event), zap.Error(err))
		}
	}()
}
