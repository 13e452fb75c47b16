package processor

import (
	"context"
	"fmt"

	"github.com/valscope/valscope/pkg/db/models"
)

// fakeStore is an in-memory Store with the same conflict semantics as the
// Postgres implementation.
type fakeStore struct {
	validators map[string]*models.Validator
	edits      []*models.EditEvent
	editKeys   map[string]bool
	unjailKeys map[string]bool
	votes      map[string]*models.VoteEvent
	snapshots  map[string]*models.DelegatorSnapshot
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		validators: map[string]*models.Validator{},
		editKeys:   map[string]bool{},
		unjailKeys: map[string]bool{},
		votes:      map[string]*models.VoteEvent{},
		snapshots:  map[string]*models.DelegatorSnapshot{},
	}
}

func (f *fakeStore) UpsertValidator(_ context.Context, v *models.Validator) error {
	copied := *v
	f.validators[v.OperatorAddress] = &copied
	return nil
}

func (f *fakeStore) UpsertValidators(ctx context.Context, validators []*models.Validator) error {
	for _, v := range validators {
		if err := f.UpsertValidator(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) InsertEditEvent(_ context.Context, e *models.EditEvent) (bool, error) {
	key := e.TxHash + "|" + e.OperatorAddress
	if f.editKeys[key] {
		return false, nil
	}
	f.editKeys[key] = true
	copied := *e
	copied.Diff = map[string]models.FieldChange{}
	for k, v := range e.Diff {
		copied.Diff[k] = v
	}
	f.edits = append(f.edits, &copied)
	return true, nil
}

func (f *fakeStore) InsertUnjail(_ context.Context, e *models.UnjailEvent) (bool, error) {
	key := e.TxHash + "|" + e.OperatorAddress
	if f.unjailKeys[key] {
		return false, nil
	}
	f.unjailKeys[key] = true
	return true, nil
}

func (f *fakeStore) InsertVote(_ context.Context, e *models.VoteEvent) (bool, error) {
	key := e.ProposalID + "|" + e.OperatorAddress
	if _, exists := f.votes[key]; exists {
		return false, nil
	}
	copied := *e
	f.votes[key] = &copied
	return true, nil
}

func (f *fakeStore) InsertDelegatorSnapshot(_ context.Context, s *models.DelegatorSnapshot) (bool, error) {
	key := s.OperatorAddress + "|" + s.SnapshotDate
	if _, exists := f.snapshots[key]; exists {
		return false, nil
	}
	copied := *s
	f.snapshots[key] = &copied
	return true, nil
}

// LastEditValueBefore mirrors the SQL lookup: most recent event strictly
// below height mentioning the field, height ties broken by insertion order.
func (f *fakeStore) LastEditValueBefore(_ context.Context, operator, field string, height int64) (string, bool, error) {
	var (
		best      *models.EditEvent
		bestIndex int
	)
	for i, e := range f.edits {
		if e.OperatorAddress != operator || e.BlockHeight >= height {
			continue
		}
		if _, ok := e.Diff[field]; !ok {
			continue
		}
		if best == nil || e.BlockHeight > best.BlockHeight ||
			(e.BlockHeight == best.BlockHeight && i > bestIndex) {
			best = e
			bestIndex = i
		}
	}
	if best == nil {
		return "", false, nil
	}
	return best.Diff[field].To, true, nil
}

func (f *fakeStore) HasValidator(_ context.Context, operator string) (bool, error) {
	_, ok := f.validators[operator]
	return ok, nil
}

func (f *fakeStore) HasEditEventsAtHeight(_ context.Context, height int64) (bool, error) {
	for _, e := range f.edits {
		if e.BlockHeight == height {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListValidatorAddresses(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(f.validators))
	for addr := range f.validators {
		out = append(out, addr)
	}
	return out, nil
}

func (f *fakeStore) editsFor(operator string) []*models.EditEvent {
	var out []*models.EditEvent
	for _, e := range f.edits {
		if e.OperatorAddress == operator {
			out = append(out, e)
		}
	}
	return out
}

var _ Store = (*fakeStore)(nil)

// failingStore wraps fakeStore to simulate store errors.
type failingStore struct {
	*fakeStore
	failUpserts bool
}

func (f *failingStore) UpsertValidator(ctx context.Context, v *models.Validator) error {
	if f.failUpserts {
		return fmt.Errorf("store unavailable")
	}
	return f.fakeStore.UpsertValidator(ctx, v)
}
