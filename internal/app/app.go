package app

import (
	"log"
	"time"

	"ptm/backend/internal/dashboard"
	"ptm/backend/internal/model"
	"ptm/backend/internal/pomodoro"
	"ptm/backend/internal/project"
	"ptm/backend/internal/storage"
	"ptm/backend/internal/tag"
	"ptm/backend/internal/task"
)

type Options struct {
	SaveDelay    time.Duration
	TickInterval time.Duration
	Now          func() time.Time
	Location     *time.Location
	Notifier     pomodoro.Notifier
	Logger       *log.Logger
}

// App owns the stores and the timer engine and connects them. Stores never
// reference each other directly; the links are the resolvers and delete
// integrations registered here.
type App struct {
	Gateway  *storage.Gateway
	Tasks    *task.Store
	Projects *project.Store
	Tags     *tag.Store
	Pomodoro *pomodoro.Engine

	now func() time.Time
	loc *time.Location
}

func New(gateway *storage.Gateway, opts Options) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	a := &App{
		Gateway: gateway,
		Tasks: task.NewStore(gateway, task.Options{
			SaveDelay: opts.SaveDelay,
			Now:       opts.Now,
			Location:  opts.Location,
			Logger:    opts.Logger,
		}),
		Projects: project.NewStore(gateway, project.Options{
			SaveDelay: opts.SaveDelay,
			Now:       opts.Now,
			Logger:    opts.Logger,
		}),
		Tags: tag.NewStore(gateway, tag.Options{
			SaveDelay: opts.SaveDelay,
			Now:       opts.Now,
			Logger:    opts.Logger,
		}),
		now: opts.Now,
		loc: opts.Location,
	}

	// Integrations must be in place before any delete can happen.
	a.Tasks.SetResolvers(task.Resolvers{
		ProjectName: a.Projects.NameByID,
		TagName:     a.Tags.NameByID,
	})
	a.Projects.SetResolvers(project.Resolvers{TasksForProject: a.Tasks.TasksForProject})
	a.Projects.SetIntegrations(project.Integrations{OnProjectDeleted: a.Tasks.ClearProject})
	a.Tags.SetResolvers(tag.Resolvers{TasksWithTag: a.Tasks.TasksWithTag})
	a.Tags.SetIntegrations(tag.Integrations{OnTagDeleted: a.Tasks.RemoveTag})

	a.Tasks.Load()
	a.Projects.Load()
	a.Tags.Load()

	a.Pomodoro = pomodoro.NewEngine(gateway, pomodoro.Options{
		TickInterval: opts.TickInterval,
		Tasks:        a.Tasks,
		Notifier:     opts.Notifier,
		Logger:       opts.Logger,
	})
	return a
}

// Dashboard computes the statistics for the current collections.
func (a *App) Dashboard() dashboard.Stats {
	return dashboard.Calculate(a.Tasks.List(), a.Projects.List(), a.now(), a.loc)
}

// Flush writes every pending store change.
func (a *App) Flush() {
	a.Tasks.Flush()
	a.Projects.Flush()
	a.Tags.Flush()
}

// Export flushes pending writes and snapshots the stored data.
func (a *App) Export() (*model.ExportData, error) {
	a.Flush()
	return a.Gateway.ExportData()
}

// Import replaces stored data from an export document and reloads every
// store. All three stores are held for the whole write, so no mutation can
// land between the import and the reload. Locks are taken tasks, projects,
// tags; no other path holds more than one store lock.
func (a *App) Import(raw []byte, opts storage.ImportOptions) error {
	err := a.Tasks.Replace(func() error {
		return a.Projects.Replace(func() error {
			return a.Tags.Replace(func() error {
				return a.Gateway.ImportData(raw, opts)
			})
		})
	})
	if err != nil {
		return err
	}
	a.Pomodoro.ReloadSettings()
	return nil
}

// Reload re-reads all collections and timer settings from storage.
func (a *App) Reload() {
	a.Tasks.Load()
	a.Projects.Load()
	a.Tags.Load()
	a.Pomodoro.ReloadSettings()
}

func (a *App) Close() {
	a.Pomodoro.Close()
	a.Tasks.Close()
	a.Projects.Close()
	a.Tags.Close()
}
