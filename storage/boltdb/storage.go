package boltdb

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"contestcal/contest"
	"contestcal/storage"
)

type LoggerFn func(string, ...interface{})

const DefaultFile = "contests.bdb"

type repo struct {
	d    *bolt.DB
	path string
	log  LoggerFn
	err  LoggerFn
}

var (
	contestsBucket = []byte("contests")
	linksBucket    = []byte("links")
	prefsBucket    = []byte("prefs")
)

// Config
type Config struct {
	Path  string
	LogFn LoggerFn
	ErrFn LoggerFn
}

// New returns a new contest repository
func New(c Config) *repo {
	b := repo{
		path: c.Path,
		log:  func(string, ...interface{}) {},
		err:  func(string, ...interface{}) {},
	}
	if c.ErrFn != nil {
		b.err = c.ErrFn
	}
	if c.LogFn != nil {
		b.log = c.LogFn
	}
	return &b
}

func (r *repo) open() error {
	var err error
	r.d, err = bolt.Open(r.path, 0600, nil)
	if err != nil {
		return fmt.Errorf("could not open db %s %w", r.path, err)
	}
	err = r.d.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{contestsBucket, linksBucket, prefsBucket} {
			root, err := tx.CreateBucketIfNotExists(name)
			if err != nil {
				return fmt.Errorf("unable to create root bucket %s: %w", name, err)
			}
			if !root.Writable() {
				return fmt.Errorf("non writeable root bucket %s", name)
			}
		}
		return nil
	})
	return err
}

// close closes the boltdb database if possible.
func (r *repo) close() error {
	if r.d == nil {
		return nil
	}
	return r.d.Close()
}

// UpsertContests inserts or overwrites contests keyed by their identity.
// The store never hard-deletes: a contest missing from an upstream listing
// keeps its record. Returns how many contests were written.
func (r *repo) UpsertContests(contests ...contest.Contest) (int, error) {
	if err := r.open(); err != nil {
		return 0, err
	}
	defer r.close()

	saved := 0
	var lastErr error
	for _, c := range contests {
		if err := save(r, c); err != nil {
			r.err("error saving contest %s: %s", c.ID, err)
			lastErr = err
			continue
		}
		saved++
	}
	return saved, lastErr
}

func save(r *repo, c contest.Contest) error {
	return r.d.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(contestsBucket)
		if root == nil {
			return fmt.Errorf("invalid bucket %s", contestsBucket)
		}
		raw, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("could not marshal contest: %w", err)
		}
		if err = root.Put([]byte(c.ID), raw); err != nil {
			return fmt.Errorf("could not store encoded contest: %w", err)
		}
		return nil
	})
}

// LoadContest returns the contest stored under id, or an error when the
// identity is unknown.
func (r *repo) LoadContest(id string) (contest.Contest, error) {
	c := contest.Contest{}
	if err := r.open(); err != nil {
		return c, err
	}
	defer r.close()

	err := r.d.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(contestsBucket)
		if root == nil {
			return fmt.Errorf("invalid bucket %s", contestsBucket)
		}
		raw := root.Get([]byte(id))
		if raw == nil {
			return fmt.Errorf("no contest with id %s", id)
		}
		return json.Unmarshal(raw, &c)
	})
	return c, err
}

// Upcoming scans the catalog for contests still worth a calendar entry:
// not yet ended asOf, starting inside the horizon. The catalog stays small
// enough that a full scan beats maintaining a second time-keyed index.
func (r *repo) Upcoming(asOf time.Time, horizon time.Duration) (contest.Contests, error) {
	if err := r.open(); err != nil {
		return nil, err
	}
	defer r.close()

	cutoff := asOf.Add(horizon)
	contests := make(contest.Contests, 0)
	err := r.d.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(contestsBucket)
		if root == nil {
			return fmt.Errorf("invalid bucket %s", contestsBucket)
		}
		return root.ForEach(func(k, raw []byte) error {
			c := contest.Contest{}
			if err := json.Unmarshal(raw, &c); err != nil {
				r.err("skipping undecodable contest %s: %s", k, err)
				return nil
			}
			if !c.IsValid() || !c.Upcoming(asOf) {
				return nil
			}
			if horizon > 0 && c.StartTime.After(cutoff) {
				return nil
			}
			contests = append(contests, c)
			return nil
		})
	})
	contests.SortByStart()
	return contests, err
}

// LoadLink returns the remote event link stored for a contest identity.
func (r *repo) LoadLink(id string) (storage.Link, bool, error) {
	l := storage.Link{}
	if err := r.open(); err != nil {
		return l, false, err
	}
	defer r.close()

	found := false
	err := r.d.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(linksBucket)
		if root == nil {
			return fmt.Errorf("invalid bucket %s", linksBucket)
		}
		raw := root.Get([]byte(id))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &l)
	})
	return l, found && err == nil, err
}

// SaveLink persists the identity to remote-event mapping.
func (r *repo) SaveLink(id string, l storage.Link) error {
	if err := r.open(); err != nil {
		return err
	}
	defer r.close()

	return r.d.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(linksBucket)
		if root == nil {
			return fmt.Errorf("invalid bucket %s", linksBucket)
		}
		raw, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("could not marshal link: %w", err)
		}
		return root.Put([]byte(id), raw)
	})
}

// DeleteLink drops the remote event mapping for a contest identity.
// Unknown identities are a no-op.
func (r *repo) DeleteLink(id string) error {
	if err := r.open(); err != nil {
		return err
	}
	defer r.close()

	return r.d.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(linksBucket)
		if root == nil {
			return fmt.Errorf("invalid bucket %s", linksBucket)
		}
		return root.Delete([]byte(id))
	})
}

func (r *repo) LoadPreference(key string) (string, bool, error) {
	if err := r.open(); err != nil {
		return "", false, err
	}
	defer r.close()

	val := ""
	found := false
	err := r.d.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(prefsBucket)
		if root == nil {
			return fmt.Errorf("invalid bucket %s", prefsBucket)
		}
		if raw := root.Get([]byte(key)); raw != nil {
			val = string(raw)
			found = true
		}
		return nil
	})
	return val, found, err
}

func (r *repo) SavePreference(key, value string) error {
	if err := r.open(); err != nil {
		return err
	}
	defer r.close()

	return r.d.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(prefsBucket)
		if root == nil {
			return fmt.Errorf("invalid bucket %s", prefsBucket)
		}
		return root.Put([]byte(key), []byte(value))
	})
}
