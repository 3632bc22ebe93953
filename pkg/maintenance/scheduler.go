package maintenance

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	pfctx "github.com/vnykmshr/poolflow/pkg/common/context"
	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
	"github.com/vnykmshr/poolflow/pkg/common/logging"
	"github.com/vnykmshr/poolflow/pkg/common/validation"
	"github.com/vnykmshr/poolflow/pkg/threadpool"
)

var (
	// ErrDuplicateJob is returned when a job name is registered twice.
	ErrDuplicateJob = pferrors.New("maintenance job already registered")

	// ErrUnknownJob is returned for a job name that is not registered.
	ErrUnknownJob = pferrors.New("maintenance job not registered")
)

// Rescanner is a pool or container whose idle elements can be revalidated.
type Rescanner interface {
	RescanContainer() error
}

// Trimmer is a pool that can destroy surplus idle elements.
type Trimmer interface {
	TrimIdle(keep int) (int, error)
}

// Config configures a Scheduler.
type Config struct {
	// Name identifies the scheduler in logs.
	Name string

	// Location evaluates cron specs. Nil selects time.Local.
	Location *time.Location

	// JobTimeout bounds a single run. Zero or -1 (infinite) means no timeout.
	// Rescan and trim jobs do not block; they only skip a run whose context
	// is already done.
	JobTimeout time.Duration

	// OnError is called when a scheduled run fails.
	OnError func(name string, err error)

	// Logger receives run events and cron's own messages. Nil disables
	// logging.
	Logger *zerolog.Logger
}

// JobInfo describes a registered job.
type JobInfo struct {
	Name     string
	Spec     string
	Next     time.Time
	Runs     int64
	Failures int64
}

type job struct {
	name     string
	spec     string
	schedule cron.Schedule
	id       cron.EntryID
	task     threadpool.Task
	runs     atomic.Int64
	failures atomic.Int64
}

// Scheduler runs maintenance jobs on cron schedules. Specs take an optional
// leading seconds field and descriptors such as "@every 30s". A run that is
// still going when its next activation arrives makes that activation skip,
// and a panicking run is recovered and logged.
type Scheduler struct {
	cron     *cron.Cron
	parser   cron.Parser
	location *time.Location
	timeout  time.Duration
	onError  func(name string, err error)

	mu   sync.Mutex
	jobs map[string]*job

	log zerolog.Logger
}

// New creates a stopped Scheduler.
func New(config Config) (*Scheduler, error) {
	if err := validation.ValidateTimeout("maintenance", "JobTimeout", config.JobTimeout); err != nil {
		return nil, err
	}
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	log := logging.Component(logging.OrNop(config.Logger), "maintenance", config.Name)
	cl := cronLogger{log: log}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		parser:   parser,
		location: loc,
		timeout:  config.JobTimeout,
		onError:  config.OnError,
		jobs:     make(map[string]*job),
		log:      log,
	}, nil
}

// Register schedules task under name.
func (s *Scheduler) Register(name, spec string, task threadpool.Task) error {
	if err := validation.ValidateNotEmpty("maintenance", "name", name); err != nil {
		return err
	}
	if err := validation.ValidateNotNil("maintenance", "task", task); err != nil {
		return err
	}
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return pferrors.NewValidationError("maintenance", "spec", spec, err.Error()).
			WithHint(`use a cron spec such as "*/30 * * * * *" or "@every 1m"`)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return pferrors.NewOperationError("maintenance", "Register", ErrDuplicateJob).WithContext(name)
	}
	j := &job{name: name, spec: spec, schedule: schedule, task: task}
	j.id = s.cron.Schedule(schedule, cron.FuncJob(func() {
		_ = s.run(context.Background(), j)
	}))
	s.jobs[name] = j
	s.log.Debug().Str("job", name).Str("spec", spec).Msg("job registered")
	return nil
}

// RegisterRescan schedules r.RescanContainer.
func (s *Scheduler) RegisterRescan(name, spec string, r Rescanner) error {
	if err := validation.ValidateNotNil("maintenance", "rescanner", r); err != nil {
		return err
	}
	return s.Register(name, spec, threadpool.TaskFunc(func(ctx context.Context) error {
		if pfctx.IsCanceled(ctx) {
			return pferrors.NewCancelError("maintenance.Rescan", ctx)
		}
		return r.RescanContainer()
	}))
}

// RegisterTrim schedules t.TrimIdle(keep).
func (s *Scheduler) RegisterTrim(name, spec string, t Trimmer, keep int) error {
	if err := validation.ValidateNotNil("maintenance", "trimmer", t); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("maintenance", "keep", keep); err != nil {
		return err
	}
	return s.Register(name, spec, threadpool.TaskFunc(func(ctx context.Context) error {
		if pfctx.IsCanceled(ctx) {
			return pferrors.NewCancelError("maintenance.Trim", ctx)
		}
		removed, err := t.TrimIdle(keep)
		if removed > 0 {
			s.log.Info().Str("job", name).Int("removed", removed).Msg("trimmed idle elements")
		}
		return err
	}))
}

// Unregister removes the job. A run in progress completes.
func (s *Scheduler) Unregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok {
		return pferrors.NewOperationError("maintenance", "Unregister", ErrUnknownJob).WithContext(name)
	}
	s.cron.Remove(j.id)
	delete(s.jobs, name)
	return nil
}

// Next returns the next activation of the job.
func (s *Scheduler) Next(name string) (time.Time, error) {
	j, err := s.lookup("Next", name)
	if err != nil {
		return time.Time{}, err
	}
	if next := s.cron.Entry(j.id).Next; !next.IsZero() {
		return next, nil
	}
	// Not started yet.
	return j.schedule.Next(time.Now().In(s.location)), nil
}

// Jobs lists the registered jobs ordered by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	jobs := make([]*job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	infos := make([]JobInfo, 0, len(jobs))
	for _, j := range jobs {
		next, _ := s.Next(j.name)
		infos = append(infos, JobInfo{
			Name:     j.name,
			Spec:     j.spec,
			Next:     next,
			Runs:     j.runs.Load(),
			Failures: j.failures.Load(),
		})
	}
	sort.Slice(infos, func(a, b int) bool { return infos[a].Name < infos[b].Name })
	return infos
}

// RunNow runs the job synchronously, outside its schedule, and returns its
// error.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	j, err := s.lookup("RunNow", name)
	if err != nil {
		return err
	}
	return s.run(ctx, j)
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Debug().Int("jobs", len(s.Jobs())).Msg("scheduler started")
}

// Stop stops scheduling new runs. The returned channel closes once running
// jobs have returned.
func (s *Scheduler) Stop() <-chan struct{} {
	return s.cron.Stop().Done()
}

func (s *Scheduler) lookup(op, name string) (*job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok {
		return nil, pferrors.NewOperationError("maintenance", op, ErrUnknownJob).WithContext(name)
	}
	return j, nil
}

func (s *Scheduler) run(ctx context.Context, j *job) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := j.task.Execute(ctx)
	j.runs.Add(1)
	if err != nil {
		j.failures.Add(1)
		s.log.Warn().Err(err).Str("job", j.name).Bool("timed_out", pfctx.IsTimedOut(ctx)).
			Msg("maintenance run failed")
		if s.onError != nil {
			s.onError(j.name, err)
		}
		return err
	}
	s.log.Debug().Str("job", j.name).Dur("took", time.Since(start)).Msg("maintenance run")
	return nil
}
