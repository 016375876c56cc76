package app

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abiral/chessfeed/internal/builder"
	"github.com/abiral/chessfeed/internal/config"
	"github.com/abiral/chessfeed/internal/content"
	"github.com/abiral/chessfeed/internal/fetch"
	"github.com/abiral/chessfeed/internal/lesson"
	"github.com/abiral/chessfeed/internal/logging"
	"github.com/abiral/chessfeed/internal/playback"
	"github.com/abiral/chessfeed/internal/router"
	"github.com/abiral/chessfeed/internal/screen"
	"github.com/abiral/chessfeed/internal/screens/player"
	"github.com/abiral/chessfeed/internal/screens/welcome"
	"github.com/abiral/chessfeed/internal/store"
	"github.com/abiral/chessfeed/internal/ui/layout"
	"github.com/abiral/chessfeed/internal/ui/theme"
)

const shutdownTimeout = 2 * time.Second

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
	status playback.Status
}

// newAppModel creates a new AppModel starting on the given screen.
func newAppModel(first screen.Screen) AppModel {
	return AppModel{
		router: router.New(first),
		status: playback.StatusLoading,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case player.StatusMsg:
		// Mirrored here so the header badge tracks playback state.
		m.status = msg.Status

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	topic := ""
	if active != nil {
		topic = active.Topic()
	}

	header := layout.RenderHeader(topic, string(m.status), statusStyle(m.status), m.width)

	var footerHints []layout.KeyHint
	if provider, ok := active.(screen.KeyHintProvider); ok {
		footerHints = provider.KeyHints()
	} else {
		footerHints = []layout.KeyHint{
			{Key: "Q", Description: "Quit"},
		}
	}
	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

func statusStyle(st playback.Status) lipgloss.Style {
	switch st {
	case playback.StatusPaused:
		return theme.StatusPaused
	case playback.StatusLoading:
		return theme.StatusLoading
	default:
		return theme.StatusRunning
	}
}

// Run assembles the full pipeline and drives the TUI until quit: store,
// cache, fetcher, builder, scheduler, then the Bubble Tea program wired
// to all of them. On exit it stops both loops and persists the session.
func Run(cfg config.Config) error {
	log := zap.NewNop()
	if logPath, err := logging.DefaultLogPath(); err == nil {
		if fileLog, err := logging.NewFileLogger(logPath); err == nil {
			log = fileLog
			defer log.Sync()
		}
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	startedAt := time.Now()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	cache := content.NewCache(rng)
	cache.OnRecycle(func() {
		if err := st.RecordRepo().ResetUsed(ctx); err != nil {
			log.Warn("reset used records failed", zap.Error(err))
		}
	})
	if records, used, err := st.RecordRepo().All(ctx); err == nil {
		for _, r := range records {
			cache.Add(r)
			if used[r.ID] {
				cache.MarkUsed(r.ID)
			}
		}
		log.Info("cache primed", zap.Int("records", len(records)))
	} else {
		log.Warn("loading cached records failed", zap.Error(err))
	}

	imagesDir, err := cfg.ImagesDir()
	if err != nil {
		log.Warn("images dir unavailable", zap.Error(err))
		imagesDir = ""
	}
	client := fetch.NewClient(fetch.Config{
		Timeout:   cfg.FetchTimeout,
		ImagesDir: imagesDir,
		Logger:    log,
	})

	q := lesson.NewQueue()
	b := builder.NewBuilder(q, cache, client, rng, builder.Config{
		MinQueueDepth:    cfg.MinQueueDepth,
		MaxQueueDepth:    cfg.MaxQueueDepth,
		RecordsPerLesson: cfg.RecordsPerLesson,
		ShortPause:       cfg.BuilderShortPause,
		IdlePause:        cfg.BuilderIdlePause,
		Topics:           cfg.Topics,
		Logger:           log,
		OnLesson: func(l *lesson.Lesson, records []*content.Record) {
			for _, r := range records {
				if err := st.RecordRepo().Save(ctx, r, true); err != nil {
					log.Warn("persist record failed", zap.Error(err))
				}
			}
			if err := st.LessonRepo().Save(ctx, l); err != nil {
				log.Warn("persist lesson failed", zap.Error(err))
			}
			if err := st.LessonRepo().Prune(ctx, 100); err != nil {
				log.Warn("prune lessons failed", zap.Error(err))
			}
		},
	})

	sched := playback.NewScheduler(q, nil, playback.Config{
		Speed:          cfg.Speed,
		DequeueTimeout: cfg.DequeueTimeout,
		NeedContent:    b.NeedContent,
		Logger:         log,
	})

	playerFactory := func() screen.Screen {
		return player.New(sched)
	}
	model := newAppModel(welcome.New(playerFactory))
	p := tea.NewProgram(model)
	sched.SetSurface(player.NewSurface(p))

	// Give playback something to show right away when cached records
	// survive from a previous run; fresh fetches follow in the loop.
	if b.BuildFromCache() {
		log.Info("initial lesson built from cache")
	}

	go b.Run(ctx)
	go sched.Run()

	_, runErr := p.Run()

	sched.Stop(shutdownTimeout)
	b.Stop(shutdownTimeout)

	endedAt := time.Now()
	for _, l := range q.Completed() {
		if err := st.LessonRepo().MarkCompleted(ctx, l.ID, endedAt); err != nil {
			log.Warn("mark lesson completed failed", zap.Error(err))
		}
	}

	sess := &store.Session{
		ID:               uuid.NewString(),
		StartedAt:        startedAt,
		EndedAt:          &endedAt,
		SlidesShown:      sched.SlidesShown(),
		LessonsCompleted: q.CompletedCount(),
		LessonsBuilt:     b.LessonsBuilt(),
		RecordsFetched:   b.RecordsFetched(),
		TopicsSearched:   int64(client.SearchedCount()),
	}
	if err := st.SessionRepo().Save(ctx, sess); err != nil {
		log.Warn("persist session failed", zap.Error(err))
	}

	printSummary(sess, endedAt.Sub(startedAt))

	return runErr
}

func printSummary(s *store.Session, dur time.Duration) {
	fmt.Fprintf(os.Stdout, "\nSession over after %s\n", dur.Round(time.Second))
	fmt.Fprintf(os.Stdout, "  slides shown       %d\n", s.SlidesShown)
	fmt.Fprintf(os.Stdout, "  lessons completed  %d\n", s.LessonsCompleted)
	fmt.Fprintf(os.Stdout, "  lessons built      %d\n", s.LessonsBuilt)
	fmt.Fprintf(os.Stdout, "  records fetched    %d\n", s.RecordsFetched)
	fmt.Fprintf(os.Stdout, "  topics searched    %d\n", s.TopicsSearched)
}
