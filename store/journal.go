package store

import (
	"fmt"
	"os"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	uuid "github.com/satori/go.uuid"
)

// revive:disable:exported
var (
	ErrNotInitialized = errors.New("journal not initialized")
	ErrRunNotFound    = errors.New("run not found")
)

// Run is one execution of a scenario
type Run struct {
	ID       string
	Name     string
	URL      string
	Started  time.Time
	Finished time.Time
	Passed   bool
}

// Entry is the outcome of a single scenario step
type Entry struct {
	RunID    string
	Step     int
	Action   string
	Target   string
	Passed   bool
	Error    string
	URL      string
	Started  time.Time
	Duration time.Duration
}

// Journal records runs and their steps in a badger database
type Journal struct {
	DB       *badger.DB
	filepath string
}

// NewJournal stored under filepath
func NewJournal(filepath string) *Journal {
	return &Journal{filepath: filepath}
}

// Init opens (or creates) the database
func (j *Journal) Init() error {
	if err := os.MkdirAll(j.filepath, 0700); err != nil {
		return err
	}
	opts := badger.DefaultOptions(j.filepath).WithLogger(&badgerLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return errors.Wrap(err, "failed to open journal")
	}
	j.DB = db
	return nil
}

// StartRun creates and stores a new run with a fresh ID
func (j *Journal) StartRun(name, url string) (*Run, error) {
	run := &Run{
		ID:      uuid.NewV4().String(),
		Name:    name,
		URL:     url,
		Started: time.Now(),
	}
	return run, j.put(MakeKey([]byte(run.ID), "run"), run)
}

// FinishRun stamps the run as finished with its overall result
func (j *Journal) FinishRun(run *Run, passed bool) error {
	run.Finished = time.Now()
	run.Passed = passed
	return j.put(MakeKey([]byte(run.ID), "run"), run)
}

// Record a step of a run
func (j *Journal) Record(entry *Entry) error {
	return j.put(entryKey(entry.RunID, entry.Step), entry)
}

// Runs returns every run, oldest first
func (j *Journal) Runs() ([]*Run, error) {
	runs := make([]*Run, 0)
	err := j.scan([]byte("run:"), func(val []byte) error {
		run := &Run{}
		if err := Decode(val, run); err != nil {
			return err
		}
		runs = append(runs, run)
		return nil
	})
	sort.Slice(runs, func(a, b int) bool { return runs[a].Started.Before(runs[b].Started) })
	return runs, err
}

// Run by ID
func (j *Journal) Run(id string) (*Run, error) {
	if j.DB == nil {
		return nil, ErrNotInitialized
	}
	run := &Run{}
	err := j.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(MakeKey([]byte(id), "run"))
		if err == badger.ErrKeyNotFound {
			return ErrRunNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return Decode(val, run)
		})
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Entries of a run in step order
func (j *Journal) Entries(runID string) ([]*Entry, error) {
	entries := make([]*Entry, 0)
	err := j.scan(MakeKey([]byte(runID+":"), "entry"), func(val []byte) error {
		entry := &Entry{}
		if err := Decode(val, entry); err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}

// Close the database
func (j *Journal) Close() error {
	if j.DB == nil {
		return nil
	}
	return j.DB.Close()
}

func (j *Journal) put(key []byte, value interface{}) error {
	if j.DB == nil {
		return ErrNotInitialized
	}
	bytez, err := Encode(value)
	if err != nil {
		return err
	}
	return j.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(key, bytez)
	})
}

func (j *Journal) scan(prefix []byte, fn func(val []byte) error) error {
	if j.DB == nil {
		return ErrNotInitialized
	}
	return j.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

// entryKey zero pads the step so keys sort in step order
func entryKey(runID string, step int) []byte {
	return MakeKey([]byte(fmt.Sprintf("%s:%06d", runID, step)), "entry")
}

// badgerLogger sends badger's own logging through zerolog
type badgerLogger struct{}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	log.Error().Str("component", "badger").Msgf(f, v...)
}

func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	log.Warn().Str("component", "badger").Msgf(f, v...)
}

func (l *badgerLogger) Infof(f string, v ...interface{}) {
	log.Debug().Str("component", "badger").Msgf(f, v...)
}

func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	log.Debug().Str("component", "badger").Msgf(f, v...)
}
