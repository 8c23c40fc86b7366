package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/roster/core/school"
)

type accountRepository struct {
	db *accountTable
}

var _ school.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) school.Repository {
	return &accountRepository{db: db.account}
}

func (repo *accountRepository) query() []school.Account {
	accounts := make([]school.Account, 0, len(repo.db.table))
	for _, acc := range repo.db.table {
		accounts = append(accounts, *acc)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return createdBefore(accounts[i].CreatedAt, accounts[j].CreatedAt, accounts[i].ID, accounts[j].ID)
	})
	return accounts
}

// emailTaken must be called with the lock held.
func (repo *accountRepository) emailTaken(email, excludedID string) bool {
	for id, acc := range repo.db.table {
		if acc.Email == email && id != excludedID {
			return true
		}
	}
	return false
}

func (repo *accountRepository) CreateAccount(_ context.Context, acc school.Account) (school.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.emailTaken(acc.Email, "") {
		return school.Account{}, school.ErrEmailExists
	}
	acc.ID = newID()
	repo.db.table[acc.ID] = &acc
	return acc, nil
}

func (repo *accountRepository) QueryAccounts(_ context.Context) ([]school.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *accountRepository) GetAccount(_ context.Context, id string) (school.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if acc, ok := repo.db.table[id]; ok {
		return *acc, nil
	}
	return school.Account{}, school.ErrNotFound
}

func (repo *accountRepository) GetAccountByEmail(_ context.Context, email string) (school.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, acc := range repo.db.table {
		if acc.Email == email {
			return *acc, nil
		}
	}
	return school.Account{}, school.ErrNotFound
}

func (repo *accountRepository) UpdateAccount(_ context.Context, acc school.Account) (school.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[acc.ID]
	if !ok {
		return school.Account{}, school.ErrNotFound
	}
	if repo.emailTaken(acc.Email, acc.ID) {
		return school.Account{}, school.ErrEmailExists
	}
	acc.CreatedAt = orig.CreatedAt
	repo.db.table[acc.ID] = &acc
	return acc, nil
}

func (repo *accountRepository) DeleteAccount(_ context.Context, id string) (school.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	acc, ok := repo.db.table[id]
	if !ok {
		return school.Account{}, school.ErrNotFound
	}
	delete(repo.db.table, id)
	return *acc, nil
}
