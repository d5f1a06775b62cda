package routes

import (
	"novaperp/core/types"
	"novaperp/storage"
)

// KVUserStore adapts a storage.Database into the UserStore interface the
// router expects, delegating to storage.SaveUser/LoadUser.
type KVUserStore struct {
	DB storage.Database
}

func (s KVUserStore) LoadUser(authority string) (*types.User, error) {
	return storage.LoadUser(s.DB, authority)
}

func (s KVUserStore) SaveUser(u *types.User) error {
	return storage.SaveUser(s.DB, u)
}
