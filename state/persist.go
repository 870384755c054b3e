package state

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-sub009/errors"
)

var snapshotBucket = []byte("state")

// snapshotValue is the stored form of one leaf.
type snapshotValue struct {
	Kind  Kind    `json:"kind"`
	Bool  bool    `json:"bool,omitempty"`
	Int   int64   `json:"int,omitempty"`
	Float float64 `json:"float,omitempty"`
	Str   string  `json:"str,omitempty"`
}

// SaveSnapshot writes every scalar leaf to a bolt database at file,
// replacing any previous snapshot.
func (s *Store) SaveSnapshot(file string) error {
	db, err := bolt.Open(file, 0o600, nil)
	if err != nil {
		return errors.Wrap(errors.PhaseState, errors.KindInvalidData, err, "open snapshot database")
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket(snapshotBucket); b != nil {
			if err := tx.DeleteBucket(snapshotBucket); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(snapshotBucket)
		if err != nil {
			return err
		}

		var walkErr error
		s.EachLeaf(func(path string, v Value) {
			if walkErr != nil {
				return
			}
			data, err := json.Marshal(snapshotValue{
				Kind: v.Kind, Bool: v.Bool, Int: v.Int, Float: v.Float, Str: v.Str,
			})
			if err != nil {
				walkErr = err
				return
			}
			walkErr = b.Put([]byte(path), data)
		})
		return walkErr
	})
	if err != nil {
		return errors.Wrap(errors.PhaseState, errors.KindInvalidData, err, "write snapshot")
	}
	return nil
}

// LoadSnapshot reads a snapshot back into the store. Paths are
// vivified as needed; the load does not fire observers, since it
// replaces state wholesale rather than mutating live values.
func (s *Store) LoadSnapshot(file string) error {
	db, err := bolt.Open(file, 0o600, &bolt.Options{ReadOnly: true})
	if err != nil {
		return errors.Wrap(errors.PhaseState, errors.KindInvalidData, err, "open snapshot database")
	}
	defer db.Close()

	return db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotBucket)
		if b == nil {
			return errors.NotFound(errors.PhaseState, "snapshot bucket", string(snapshotBucket))
		}
		return b.ForEach(func(k, v []byte) error {
			var sv snapshotValue
			if err := json.Unmarshal(v, &sv); err != nil {
				return errors.Wrap(errors.PhaseState, errors.KindInvalidData, err, "decode snapshot value")
			}
			path := string(k)
			if err := s.EnsurePath(path); err != nil {
				return err
			}
			n, err := s.resolve(path)
			if err != nil {
				return err
			}
			n.kind = sv.Kind
			n.value = Value{Kind: sv.Kind, Bool: sv.Bool, Int: sv.Int, Float: sv.Float, Str: sv.Str}
			// Restored paths count as changed so bindings reconcile on
			// the next frame.
			s.changed = append(s.changed, path)
			return nil
		})
	})
}

// MustLoadSnapshot loads a snapshot and logs instead of failing when
// the file has no snapshot yet. For startup paths where a missing
// snapshot just means first run.
func (s *Store) MustLoadSnapshot(file string) {
	if err := s.LoadSnapshot(file); err != nil {
		Logger().Info("no state snapshot loaded",
			zap.String("file", file),
			zap.Error(err))
	}
}
