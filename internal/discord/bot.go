package discord

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NgigiN/expenso/internal/config"
	"github.com/NgigiN/expenso/internal/export"
	"github.com/NgigiN/expenso/internal/logger"
	"github.com/NgigiN/expenso/internal/repository"
	"github.com/NgigiN/expenso/internal/smsimport"
	"github.com/NgigiN/expenso/internal/storage"
	"github.com/NgigiN/expenso/internal/viewmodel"
	"github.com/NgigiN/expenso/internal/viewstate"
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// replyTimeout bounds how long a command waits for the view-model.
const replyTimeout = 10 * time.Second

type Bot struct {
	mu         sync.Mutex
	session    *discordgo.Session
	vm         *viewmodel.TransactionViewModel
	files      afero.Fs
	dest       *export.FileDestinations
	channelID  string
	healthAddr string
	health     *http.Server
	startTime  time.Time
	now        func() time.Time
	log        zerolog.Logger
}

func NewBot(cfg *config.Config, vm *viewmodel.TransactionViewModel, files afero.Fs, dest *export.FileDestinations, log zerolog.Logger) (*Bot, error) {
	if err := cfg.RequireDiscord(); err != nil {
		return nil, err
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	bot := &Bot{
		session:    session,
		vm:         vm,
		files:      files,
		dest:       dest,
		channelID:  cfg.DiscordChannelID,
		healthAddr: cfg.HealthAddr,
		startTime:  time.Now(),
		now:        time.Now,
		log:        log.With().Str("component", "discord").Logger(),
	}

	session.AddHandler(bot.handleMessage)
	session.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentMessageContent

	return bot, nil
}

func (b *Bot) Start() error {
	b.startHealthServer()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	b.log.Info().Str("channel", b.channelID).Msg("bot connected")
	return nil
}

func (b *Bot) Stop(ctx context.Context) {
	b.stopHealthServer(ctx)
	if err := b.session.Close(); err != nil {
		b.log.Warn().Err(err).Msg("failed to close Discord session")
	}
}

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if m.ChannelID != b.channelID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()
	log := b.log.With().Str("author", m.Author.ID).Str("message_id", m.ID).Logger()
	ctx = logger.WithContext(ctx, log)

	reply := b.dispatch(ctx, s, m.ChannelID, m.Content)
	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		log.Error().Err(err).Msg("failed to send reply")
	}
}

// dispatch runs one command and returns the reply. Commands share the
// view-model's list and detail slots, so they run one at a time.
func (b *Bot) dispatch(ctx context.Context, s *discordgo.Session, channelID, content string) string {
	content = strings.TrimSpace(content)
	lines := strings.Split(content, "\n")
	command := strings.Fields(lines[0])
	if len(command) == 0 {
		return ""
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch strings.ToLower(command[0]) {
	case "!add":
		return b.handleAdd(ctx, lines[1:])
	case "!edit":
		return b.handleEdit(ctx, command[1:], lines[1:])
	case "!list":
		return b.handleList(ctx, command[1:])
	case "!summary":
		return b.handleSummary(ctx)
	case "!delete":
		return b.handleDelete(ctx, command[1:])
	case "!undo":
		return b.handleUndo(ctx)
	case "!export":
		return b.handleExport(ctx, s, channelID)
	case "!help":
		return helpText
	}

	switch n := smsimport.Count(content); {
	case n > 1:
		return b.handleBatch(ctx, content)
	case n == 1:
		return b.handleImport(ctx, content)
	}
	return ""
}

const helpText = "**Commands**\n" +
	"`!add` then lines `Title:`, `Amount:`, `Type:`, `Tag:`, `Date:` (dd/mm/yyyy), `Note:`\n" +
	"`!list [overall|income|expense]`\n" +
	"`!summary`\n" +
	"`!edit <id>` then any of the `!add` lines to change\n" +
	"`!delete <id>` and `!undo`\n" +
	"`!export`\n" +
	"Paste one or more M-PESA messages, each optionally followed by `t: <tag>` and `n: <note>` lines."

func (b *Bot) handleAdd(ctx context.Context, lines []string) string {
	tx, err := parseEntry(lines, b.now())
	if err != nil {
		return fmt.Sprintf("Invalid transaction: %v", err)
	}
	if err := b.write(ctx, func() error { return b.vm.InsertTransaction(tx) }); err != nil {
		return fmt.Sprintf("Failed to save transaction: %v", err)
	}
	return formatSaved(tx)
}

func (b *Bot) handleImport(ctx context.Context, content string) string {
	entries := smsimport.Split(content)
	if len(entries) == 0 {
		return "No message content provided"
	}
	tx, err := b.draft(entries[0])
	if err != nil {
		return fmt.Sprintf("Invalid M-PESA message: %v", err)
	}
	if err := b.write(ctx, func() error { return b.vm.InsertTransaction(tx) }); err != nil {
		return fmt.Sprintf("Failed to save transaction: %v", err)
	}
	return formatSaved(tx)
}

func (b *Bot) handleBatch(ctx context.Context, content string) string {
	entries := smsimport.Split(content)

	var failures []string
	saved := 0
	for i, entry := range entries {
		tx, err := b.draft(entry)
		if err == nil {
			err = b.vm.InsertTransaction(tx)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("Transaction %d: %v", i+1, err))
			continue
		}
		saved++
	}
	if err := b.write(ctx, func() error { return nil }); err != nil {
		return fmt.Sprintf("Failed to save batch: %v", err)
	}

	var r strings.Builder
	r.WriteString("📊 **Batch Processing Complete**\n")
	fmt.Fprintf(&r, "✅ **Successfully processed**: %d transactions\n", saved)
	if len(failures) > 0 {
		fmt.Fprintf(&r, "❌ **Failed**: %d transactions\n**Errors:**\n", len(failures))
		for _, f := range failures {
			fmt.Fprintf(&r, "• %s\n", f)
		}
	}
	return r.String()
}

func (b *Bot) draft(entry smsimport.Entry) (tx storage.Transaction, err error) {
	msg, err := smsimport.Parse(entry.Message)
	if err != nil {
		return tx, err
	}
	tag, note, err := parseMetadata(entry.Metadata)
	if err != nil {
		return tx, err
	}
	return msg.Draft(tag, note), nil
}

// write runs enqueue and waits until the write queue has drained, reporting
// any queued write that failed.
func (b *Bot) write(ctx context.Context, enqueue func() error) error {
	if err := enqueue(); err != nil {
		return err
	}
	return b.vm.Flush(ctx)
}

func (b *Bot) handleList(ctx context.Context, args []string) string {
	filter := repository.Overall
	if len(args) > 0 {
		f, err := repository.ParseFilter(args[0])
		if err != nil {
			return err.Error()
		}
		filter = f
	}

	b.vm.SetFilter(filter)
	state, err := viewstate.Await(ctx, b.vm.List())
	if err == nil && state.Status == viewstate.Error {
		err = state.Err
	}
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("filter", string(filter)).Msg("list command failed")
		return fmt.Sprintf("Failed to get transactions: %v", err)
	}
	return formatList(filter, state.Data)
}

func (b *Bot) handleSummary(ctx context.Context) string {
	b.vm.Overall()
	state, err := viewstate.Await(ctx, b.vm.List())
	if err == nil && state.Status == viewstate.Error {
		err = state.Err
	}
	if err != nil {
		return fmt.Sprintf("Failed to get summary: %v", err)
	}
	return formatSummary(b.vm.Totals())
}

// lookup resolves an "#id" or "id" argument through the detail slot.
func (b *Bot) lookup(ctx context.Context, args []string, usage string) (storage.Transaction, string) {
	if len(args) != 1 {
		return storage.Transaction{}, usage
	}
	id, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
	if err != nil {
		return storage.Transaction{}, fmt.Sprintf("Invalid id: %s", args[0])
	}

	b.vm.GetByID(id)
	state, err := viewstate.Await(ctx, b.vm.Detail())
	switch {
	case err != nil:
		return storage.Transaction{}, fmt.Sprintf("Failed to get transaction: %v", err)
	case state.Status == viewstate.Error:
		return storage.Transaction{}, fmt.Sprintf("Failed to get transaction: %v", state.Err)
	case state.Status == viewstate.Empty:
		return storage.Transaction{}, fmt.Sprintf("No transaction with id %d", id)
	}
	return state.Data, ""
}

func (b *Bot) handleEdit(ctx context.Context, args, lines []string) string {
	tx, problem := b.lookup(ctx, args, "Usage: !edit <id> followed by field lines")
	if problem != "" {
		return problem
	}
	edited, err := applyEdits(tx, lines)
	if err != nil {
		return fmt.Sprintf("Invalid transaction: %v", err)
	}
	if err := b.write(ctx, func() error { return b.vm.UpdateTransaction(edited) }); err != nil {
		return fmt.Sprintf("Failed to update transaction: %v", err)
	}
	return fmt.Sprintf("Updated #%d %s", edited.ID, edited.Title)
}

func (b *Bot) handleDelete(ctx context.Context, args []string) string {
	tx, problem := b.lookup(ctx, args, "Usage: !delete <id>")
	if problem != "" {
		return problem
	}
	if err := b.write(ctx, func() error { return b.vm.DeleteTransaction(tx) }); err != nil {
		return fmt.Sprintf("Failed to delete transaction: %v", err)
	}
	return fmt.Sprintf("Deleted #%d %s. Send `!undo` to restore it.", tx.ID, tx.Title)
}

func (b *Bot) handleUndo(ctx context.Context) string {
	if err := b.write(ctx, b.vm.UndoDelete); err != nil {
		return fmt.Sprintf("Nothing restored: %v", err)
	}
	return "Restored the last deleted transaction."
}

func (b *Bot) handleExport(ctx context.Context, s *discordgo.Session, channelID string) string {
	handle := export.FileName(b.now(), export.FormatCSV)
	b.vm.ExportTransactionsToCSV(handle)

	state, err := viewstate.Await(ctx, b.vm.Export())
	if err == nil && state.Status == viewstate.Error {
		err = state.Err
	}
	if err != nil {
		return fmt.Sprintf("Export failed: %v", err)
	}

	f, err := b.files.Open(b.dest.Path(state.Data))
	if err != nil {
		return fmt.Sprintf("Export failed: %v", err)
	}
	defer f.Close()

	if _, err := s.ChannelFileSend(channelID, handle, f); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("handle", handle).Msg("failed to upload export")
		return fmt.Sprintf("Failed to upload export: %v", err)
	}
	return ""
}
