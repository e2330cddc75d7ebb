package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"avatar_bot/internal/domain"
	"avatar_bot/internal/logger"
	"avatar_bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Ledger is what the admin bot may read and change.
type Ledger struct {
	Accounts  *service.AccountService
	Quota     *service.QuotaService
	Balance   *service.BalanceService
	Referrals *service.ReferralService
	Audit     *service.AuditService
}

// AdminBot handles admin commands via Telegram
type AdminBot struct {
	api      *tgbotapi.BotAPI
	sender   Sender
	ledger   Ledger
	adminIDs []int64 // Telegram user IDs who can use admin commands
	stopCh   chan struct{}
	wg       sync.WaitGroup
	log      *slog.Logger
}

// NewAdminBot creates a new admin bot on an authorized bot API.
func NewAdminBot(api *tgbotapi.BotAPI, ledger Ledger, adminIDs []int64) *AdminBot {
	log := logger.With("component", "admin_bot")
	log.Info("admin bot authorized", "username", api.Self.UserName)

	return &AdminBot{
		api:      api,
		sender:   api,
		ledger:   ledger,
		adminIDs: adminIDs,
		stopCh:   make(chan struct{}),
		log:      log,
	}
}

// Start runs the update loop and blocks until Stop is called, so callers
// run it in its own goroutine.
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			msg := update.Message
			if msg == nil || msg.From == nil || !msg.IsCommand() {
				continue
			}

			// Check if user is admin
			if !b.isAdmin(msg.From.ID) {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(msg)
		}
	}
}

// Stop gracefully stops the bot
func (b *AdminBot) Stop() {
	b.log.Info("stopping admin bot...")
	close(b.stopCh)
	b.api.StopReceivingUpdates()

	// Wait for pending handlers with timeout
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *AdminBot) isAdmin(userID int64) bool {
	return slices.Contains(b.adminIDs, userID)
}

func (b *AdminBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ctx = logger.NewContext(ctx, b.log.With("admin_id", msg.From.ID, "command", msg.Command()))
	response := b.respond(ctx, msg.From.ID, msg.Command(), msg.CommandArguments())

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.sender.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

// respond dispatches one admin command and returns the HTML reply.
func (b *AdminBot) respond(ctx context.Context, adminID int64, command, args string) string {
	switch command {
	case "start", "help":
		return helpMessage
	case "user":
		return b.handleUser(ctx, args)
	case "credit":
		return b.handleCredit(ctx, adminID, args)
	case "refstats":
		return b.handleRefStats(ctx, args)
	case "audit":
		return b.handleAudit(ctx, args)
	}
	return "❌ Неизвестная команда. Используйте /help для списка команд."
}

const helpMessage = `<b>🤖 Команды администратора</b>

/user &lt;tg_id&gt; - Баланс, лимиты и реферер пользователя
/credit &lt;tg_id&gt; &lt;сумма&gt; - Начислить звёзды
/refstats &lt;tg_id&gt; - Реферальная статистика
/audit &lt;tg_id&gt; - Последние входы и начисления`

func parseUserID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return id, err == nil && id > 0
}

func errorText(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "❌ Пользователь не найден"
	}
	return fmt.Sprintf("❌ Ошибка: %v", err)
}

func (b *AdminBot) handleUser(ctx context.Context, args string) string {
	userID, ok := parseUserID(args)
	if !ok {
		return "❌ Использование: /user <tg_id>"
	}

	left, err := b.ledger.Quota.Remaining(ctx, userID)
	if err != nil {
		return errorText(err)
	}
	acc, err := b.ledger.Accounts.Get(ctx, userID)
	if err != nil {
		return errorText(err)
	}

	referrer := "нет"
	if ref := acc.Referrer(); ref != 0 {
		referrer = strconv.FormatInt(ref, 10)
		if acc.RefBonusGiven {
			referrer += " (бонус выплачен)"
		}
	}

	return fmt.Sprintf(`<b>👤 Пользователь %d</b>

• ⭐ Баланс: %d
• 🎨 Stylize: %d
• ✂️ Remove BG: %d
• ✨ Enhance: %d
• 🔗 Реферер: %s
• 👥 Оплативших рефералов: %d (заработано %d ⭐)
• 📅 Регистрация: %s`,
		acc.ID,
		acc.StarBalance,
		left[domain.ModeStylize],
		left[domain.ModeRemoveBg],
		left[domain.ModeEnhance],
		referrer,
		acc.RefPaidCount,
		acc.RefEarnings,
		acc.CreatedAt.Format("02.01.2006 15:04"),
	)
}

func (b *AdminBot) handleCredit(ctx context.Context, adminID int64, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "❌ Использование: /credit <tg_id> <сумма>"
	}

	userID, ok := parseUserID(parts[0])
	if !ok {
		return "❌ Неверный ID пользователя"
	}

	amount, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || amount <= 0 {
		return "❌ Неверная сумма"
	}

	newBalance, err := b.ledger.Balance.Credit(ctx, userID, amount)
	if err != nil {
		return errorText(err)
	}

	logger.WithContext(ctx).Info("admin credit", "user_id", userID, "amount", amount)
	b.ledger.Audit.LogAdminCredit(ctx, adminID, userID, amount, newBalance)
	return fmt.Sprintf("✅ Начислено %d ⭐ пользователю %d. Новый баланс: %d ⭐", amount, userID, newBalance)
}

func (b *AdminBot) handleRefStats(ctx context.Context, args string) string {
	userID, ok := parseUserID(args)
	if !ok {
		return "❌ Использование: /refstats <tg_id>"
	}

	stats, err := b.ledger.Referrals.Stats(ctx, userID)
	if err != nil {
		return errorText(err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>👥 Рефералы пользователя %d</b>\n\n", userID)
	fmt.Fprintf(&sb, "• Приглашено: %d\n", stats.TotalReferrals)
	fmt.Fprintf(&sb, "• Оплатили: %d\n", stats.PaidReferrals)
	fmt.Fprintf(&sb, "• Заработано: %d ⭐\n", stats.TotalEarnings)
	fmt.Fprintf(&sb, "• Следующий бонус: +%d ⭐\n", stats.NextBonus)

	if len(stats.Recent) > 0 {
		sb.WriteString("\n<b>Последние:</b>\n")
		for i, r := range stats.Recent {
			mark := "⏳"
			if r.Paid {
				mark = "✅"
			}
			fmt.Fprintf(&sb, "%d. %d %s %s\n", i+1, r.AccountID, mark, r.CreatedAt.Format("02.01.2006"))
		}
	}
	return sb.String()
}

func (b *AdminBot) handleAudit(ctx context.Context, args string) string {
	userID, ok := parseUserID(args)
	if !ok {
		return "❌ Использование: /audit <tg_id>"
	}

	entries, err := b.ledger.Audit.Recent(ctx, userID, 10)
	if err != nil {
		return errorText(err)
	}
	if len(entries) == 0 {
		return fmt.Sprintf("📭 Нет записей для %d", userID)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>📜 Журнал пользователя %d</b>\n\n", userID)
	for _, e := range entries {
		switch e.Action {
		case domain.AuditActionAdminCredit:
			fmt.Fprintf(&sb, "• %s ⭐ +%v от %d\n", e.CreatedAt.Format("02.01 15:04"), e.Details["amount"], e.ActorID)
		default:
			fmt.Fprintf(&sb, "• %s %s\n", e.CreatedAt.Format("02.01 15:04"), e.Action)
		}
	}
	return sb.String()
}
