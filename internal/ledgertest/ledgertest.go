// Package ledgertest builds seeded in-memory ledgers for service tests.
package ledgertest

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/balance"
	"github.com/fkhayef/groupledger/internal/ledger"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
	"github.com/fkhayef/groupledger/internal/storage/memory"
	"github.com/fkhayef/groupledger/pkg/logging"
)

// Fixture is a group whose first user is its admin and whose other users are
// plain members, all in the order given to Seed.
type Fixture struct {
	Store    *memory.Store
	Balances *balance.Service
	Writer   *ledger.Writer
	Group    *models.Group
	Users    map[string]uuid.UUID
}

// Seed creates the users, the group and the memberships.
func Seed(t *testing.T, names ...string) *Fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	balances, err := balance.NewService(store, 16, nil, logging.Discard())
	if err != nil {
		t.Fatalf("balance.NewService: %v", err)
	}
	f := &Fixture{
		Store:    store,
		Balances: balances,
		Writer:   ledger.NewWriter(store, balances, nil, nil, logging.Discard(), 0),
		Users:    make(map[string]uuid.UUID),
	}

	for _, name := range names {
		f.Users[name] = f.AddUser(t, name)
	}

	f.Group = &models.Group{Name: "Trip"}
	if err := store.CreateGroup(ctx, f.Group, f.Users[names[0]]); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	for _, name := range names[1:] {
		f.Join(t, f.Users[name])
	}
	return f
}

// AddUser creates a user who belongs to no group.
func (f *Fixture) AddUser(t *testing.T, name string) uuid.UUID {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com"}
	if err := f.Store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return u.ID
}

// Join adds userID to the group as a plain member.
func (f *Fixture) Join(t *testing.T, userID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	err := f.Store.InGroupTx(ctx, f.Group.ID, func(tx storage.GroupTx) error {
		return tx.AddMember(ctx, &models.Member{UserID: userID, Role: models.RoleMember})
	})
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
}

// Net returns net(a, b) for the group: positive means b owes a.
func (f *Fixture) Net(t *testing.T, a, b string) models.Amount {
	t.Helper()
	l, err := f.Balances.Ledger(context.Background(), f.Group.ID)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	return l.Net(f.Users[a], f.Users[b])
}

// Pairs returns every nonzero pair of the group.
func (f *Fixture) Pairs(t *testing.T) []balance.Pair {
	t.Helper()
	l, err := f.Balances.Ledger(context.Background(), f.Group.ID)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	return l.Pairs()
}
