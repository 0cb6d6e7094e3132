// Package bot answers comment mentions with tracking-free versions of the
// links in the parent comment.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bnema/linkers/internal/cleaner"
	"github.com/bnema/linkers/internal/logger"
	"github.com/bnema/linkers/internal/models"
	"github.com/bnema/linkers/internal/pr0gramm"
)

// Platform is the subset of the pr0gramm client the bot uses
type Platform interface {
	UnreadComments(ctx context.Context) (int, error)
	Inbox(ctx context.Context) ([]pr0gramm.Message, error)
	Item(ctx context.Context, itemID int) (*pr0gramm.Item, error)
	PostComment(ctx context.Context, itemID, parentID int, text string) error
}

// Cleaner extracts cleaned links from comment text
type Cleaner interface {
	Clean(ctx context.Context, text string) []string
}

// Runner polls the inbox and replies to mentions
type Runner struct {
	platform Platform
	cleaner  Cleaner
	mention  *regexp.Regexp
	limiter  *rate.Limiter
	interval time.Duration
	running  atomic.Bool
}

// New creates a runner from bot settings
func New(p Platform, c Cleaner, cfg models.BotConfig) *Runner {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	mention := cfg.Mention
	if mention == "" {
		mention = models.DefaultMention
	}

	limit := rate.Inf
	if cfg.Spacing > 0 {
		limit = rate.Every(cfg.Spacing)
	}

	return &Runner{
		platform: p,
		cleaner:  c,
		mention:  regexp.MustCompile("(?i)" + regexp.QuoteMeta(mention)),
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Run triggers a pass immediately and then on every interval until ctx is
// done. Failed passes are logged and retried on the next tick; a tick that
// arrives while a pass is still active is skipped.
func (r *Runner) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	trigger := func() {
		if !r.running.CompareAndSwap(false, true) {
			logger.Warn("previous run still active, skipping tick")
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer r.running.Store(false)

			if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				logger.Error("run failed", "error", err)
			}
		}()
	}

	logger.Info("bot started", "interval", r.interval)
	trigger()

	for {
		select {
		case <-ctx.Done():
			logger.Info("bot stopping")
			return nil
		case <-ticker.C:
			trigger()
		}
	}
}

// RunOnce handles every pending mention once
func (r *Runner) RunOnce(ctx context.Context) error {
	log := logger.With("run", uuid.NewString())

	unread, err := r.platform.UnreadComments(ctx)
	if err != nil {
		return fmt.Errorf("checking inbox: %w", err)
	}
	if unread == 0 {
		log.Debug("no unread comments")
		return nil
	}

	messages, err := r.platform.Inbox(ctx)
	if err != nil {
		return fmt.Errorf("reading inbox: %w", err)
	}

	pending := r.mentions(messages)
	log.Info("processing mentions", "unread", unread, "mentions", len(pending))

	for _, m := range pending {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		if err := r.answer(ctx, log, m); err != nil {
			return err
		}
	}

	return nil
}

// mentions keeps unread comment notifications that address the bot
func (r *Runner) mentions(messages []pr0gramm.Message) []pr0gramm.Message {
	var out []pr0gramm.Message
	for _, m := range messages {
		if !m.IsUnread() || m.Type != "comment" || m.ItemID == nil {
			continue
		}
		if !r.mention.MatchString(m.Message) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// answer replies to a single mention with the cleaned links of its parent comment
func (r *Runner) answer(ctx context.Context, runLog *slog.Logger, m pr0gramm.Message) error {
	itemID := *m.ItemID
	log := runLog.With("item", itemID, "comment", m.ID)

	item, err := r.platform.Item(ctx, itemID)
	if err != nil {
		return fmt.Errorf("loading item: %w", err)
	}

	mention, ok := item.Comment(m.ID)
	if !ok {
		log.Debug("mentioning comment not found")
		return nil
	}
	if mention.Parent == 0 {
		log.Debug("mention is not a reply")
		return nil
	}

	parent, ok := item.Comment(mention.Parent)
	if !ok {
		log.Debug("parent comment not found", "parent", mention.Parent)
		return nil
	}

	links := r.cleaner.Clean(ctx, parent.Content)
	if err := r.platform.PostComment(ctx, itemID, mention.ID, cleaner.Reply(links)); err != nil {
		return fmt.Errorf("replying: %w", err)
	}

	log.Info("replied", "links", len(links))
	return nil
}
