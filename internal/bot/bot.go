package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/rateai/internal/api"
	"github.com/xaenox/rateai/internal/store"
	"go.uber.org/zap"
)

// StoreFactory creates the store of one chat. scope namespaces its session cache.
type StoreFactory func(scope string, nav store.Navigator) (*store.Store, error)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api      *tgbotapi.BotAPI
	sender   sender
	newStore StoreFactory
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[int64]*chatSession
}

// chatSession is started once; concurrent updates of the same chat wait for it.
type chatSession struct {
	once  sync.Once
	store *store.Store
	err   error
}

func New(token string, debug bool, newStore StoreFactory, logger *zap.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	botAPI.Debug = debug

	return &Bot{
		api:      botAPI,
		sender:   botAPI,
		newStore: newStore,
		logger:   logger,
		sessions: make(map[int64]*chatSession),
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(update.Message)
		}
	}
}

// session returns the chat's store, bootstrapping it on first use.
func (b *Bot) session(ctx context.Context, chatID int64) (*store.Store, error) {
	b.mu.Lock()
	cs, ok := b.sessions[chatID]
	if !ok {
		cs = &chatSession{}
		b.sessions[chatID] = cs
	}
	b.mu.Unlock()

	cs.once.Do(func() {
		cs.store, cs.err = b.startSession(ctx, chatID)
	})
	if cs.err != nil {
		b.mu.Lock()
		if b.sessions[chatID] == cs {
			delete(b.sessions, chatID)
		}
		b.mu.Unlock()
		return nil, cs.err
	}
	return cs.store, nil
}

func (b *Bot) startSession(ctx context.Context, chatID int64) (*store.Store, error) {
	s, err := b.newStore(strconv.FormatInt(chatID, 10), b.navigator(chatID))
	if err != nil {
		return nil, err
	}
	s.Subscribe(func(ev store.Event) {
		b.logger.Debug("Store changed",
			zap.Int64("chat_id", chatID),
			zap.Int("kind", int(ev.Kind)),
			zap.Int("ai_id", ev.ItemID))
	})
	if err := s.Bootstrap(ctx); err != nil {
		b.logger.Warn("Bootstrap incomplete", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	return s, nil
}

// navigator turns the login redirect into a chat message.
func (b *Bot) navigator(chatID int64) store.Navigator {
	return store.NavigatorFunc(func(ctx context.Context, location string) {
		b.logger.Info("Login required", zap.Int64("chat_id", chatID), zap.String("location", location))
		b.sendMessage(chatID, loginPrompt(api.Origin(ctx)))
	})
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	ctx := context.Background()

	s, err := b.session(ctx, message.Chat.ID)
	if err != nil {
		b.logger.Error("Failed to create session",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't start your session. Please try again.")
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, s, message)
		return
	}

	// Plain text is a catalog search
	b.handleList(ctx, s, message.Chat.ID, message.Text)
}

func (b *Bot) handleCommand(ctx context.Context, s *store.Store, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	args := message.CommandArguments()

	switch message.Command() {
	case "start":
		b.sendMessage(chatID, welcomeText)
	case "help":
		b.sendMessage(chatID, helpText)
	case "list", "search":
		b.handleList(ctx, s, chatID, args)
	case "show":
		b.handleShow(ctx, s, chatID, args)
	case "comments":
		b.handleComments(ctx, s, chatID, args)
	case "rank":
		b.handleRank(ctx, s, chatID, args)
	case "rate":
		b.handleRate(ctx, s, chatID, args)
	case "fav":
		b.handleFavorite(ctx, s, chatID, args)
	case "favorites":
		b.handleFavorites(ctx, s, chatID)
	case "react":
		b.handleReact(ctx, s, chatID, args)
	case "tag":
		b.handleTag(ctx, s, chatID, args)
	case "suggest":
		b.handleSuggest(ctx, s, chatID, args)
	case "comment":
		b.handleComment(ctx, s, chatID, args)
	case "reply":
		b.handleReply(ctx, s, chatID, args)
	case "register":
		b.handleRegister(ctx, s, chatID, args)
	case "login":
		b.handleLogin(ctx, s, chatID, args)
	case "logout":
		s.Logout(ctx)
		b.sendMessage(chatID, "You are logged out.")
	case "me":
		b.handleMe(ctx, s, chatID)
	case "mycomments":
		b.handleMyComments(ctx, s, chatID)
	case "refresh":
		if err := s.Bootstrap(ctx); err != nil {
			b.sendErrorMessage(chatID, store.UserMessage(err))
			return
		}
		b.sendMessage(chatID, "Catalog refreshed.")
	default:
		b.sendMessage(chatID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send markdown message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

// fail reports a command error. Expired sessions are already announced by
// the navigator.
func (b *Bot) fail(chatID int64, err error) {
	if api.IsAuth(err) {
		return
	}
	b.sendErrorMessage(chatID, store.UserMessage(err))
}
