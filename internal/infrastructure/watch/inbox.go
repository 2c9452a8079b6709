package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/learnroad/pkg/application"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

const defaultDebounce = 500 * time.Millisecond

// Planner is the part of the pipeline the inbox needs.
type Planner interface {
	Run(ctx context.Context, in application.PipelineInput) (*learning.PlanOutput, error)
}

// Result reports one processed goal file.
type Result struct {
	GoalPath string
	PlanPath string
	Output   *learning.PlanOutput
	Err      error
}

type Option func(*Inbox)

func WithDebounce(d time.Duration) Option {
	return func(i *Inbox) {
		if d > 0 {
			i.debounce = d
		}
	}
}

func WithFilter(f *PatternFilter) Option {
	return func(i *Inbox) {
		if f != nil {
			i.filter = f
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(i *Inbox) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithOnResult registers a callback run after each goal file is handled.
func WithOnResult(fn func(Result)) Option {
	return func(i *Inbox) { i.onResult = fn }
}

// Inbox watches a single directory for goal files.
type Inbox struct {
	dir      string
	planner  Planner
	filter   *PatternFilter
	debounce time.Duration
	logger   *slog.Logger
	onResult func(Result)
}

func NewInbox(dir string, planner Planner, opts ...Option) *Inbox {
	i := &Inbox{
		dir:      dir,
		planner:  planner,
		filter:   DefaultGoalFilter(),
		debounce: defaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Scan plans every goal file in the directory that has no plan yet.
func (i *Inbox) Scan(ctx context.Context) ([]Result, error) {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	var results []Result
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		path := filepath.Join(i.dir, e.Name())
		if e.IsDir() || !i.filter.Matches(path) || i.answered(path) {
			continue
		}
		results = append(results, i.Process(ctx, path))
	}
	return results, nil
}

// Run scans once and then watches the directory until ctx is cancelled.
func (i *Inbox) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(i.dir); err != nil {
		return fmt.Errorf("watch %s: %w", i.dir, err)
	}
	if _, err := i.Scan(ctx); err != nil {
		return err
	}

	debouncer := NewDebouncer(i.debounce, func(path string) {
		if _, err := os.Stat(path); err != nil {
			return
		}
		i.Process(ctx, path)
	})
	defer debouncer.Stop()

	i.logger.Info("watching goal inbox", "dir", i.dir)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !i.filter.Matches(event.Name) {
				continue
			}
			debouncer.Trigger(event.Name)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// Process plans one goal file and writes the plan next to it.
func (i *Inbox) Process(ctx context.Context, path string) Result {
	res := Result{GoalPath: path, PlanPath: OutputPath(path)}
	defer func() {
		if res.Err != nil {
			i.logger.Warn("goal file failed", "path", path, "error", res.Err)
		} else {
			i.logger.Info("goal file planned", "path", path, "plan", res.PlanPath, "steps", res.Output.TotalSteps)
		}
		if i.onResult != nil {
			i.onResult(res)
		}
	}()

	// #nosec G304 -- path comes from the watched inbox directory
	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("read goal file: %w", err)
		return res
	}
	in := ParseGoalFile(data)
	if in.Goal == "" {
		res.Err = fmt.Errorf("goal file %s has no goal", filepath.Base(path))
		return res
	}

	out, err := i.planner.Run(ctx, in)
	if err != nil {
		res.Err = err
		return res
	}
	res.Output = out

	body, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		res.Err = fmt.Errorf("marshal plan: %w", err)
		return res
	}
	tmp := res.PlanPath + ".tmp"
	if err := os.WriteFile(tmp, body, 0600); err != nil {
		res.Err = fmt.Errorf("write plan: %w", err)
		return res
	}
	if err := os.Rename(tmp, res.PlanPath); err != nil {
		_ = os.Remove(tmp)
		res.Err = fmt.Errorf("replace plan: %w", err)
	}
	return res
}

// answered reports whether the goal already has a plan at least as new.
func (i *Inbox) answered(path string) bool {
	goal, err := os.Stat(path)
	if err != nil {
		return false
	}
	plan, err := os.Stat(OutputPath(path))
	if err != nil {
		return false
	}
	return !plan.ModTime().Before(goal.ModTime())
}
