package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"team-chat/domain"
	"team-chat/errors"
)

type IUserRepository interface {
	CreateUser(name, email, hashedPassword string) (domain.User, error)
	GetUserByEmail(email string) (domain.User, error)
	GetUserByID(id string) (domain.User, error)
	SetAvatar(userID string, data []byte, contentType string) error
	GetAvatar(userID string) ([]byte, string, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// Key layout:
//
//	user:id:<uuid>      -> JSON user record
//	user:email:<email>  -> user ID (uniqueness index)
//	avatar:<uuid>       -> raw image bytes
//	avatar:mime:<uuid>  -> content type
func userKey(id string) []byte     { return []byte("user:id:" + id) }
func emailKey(email string) []byte { return []byte("user:email:" + email) }

// CreateUser persists a new account. The email index is checked and written
// in the same transaction, so two concurrent signups for one email cannot
// both succeed.
func (u UserRepository) CreateUser(name, email, hashedPassword string) (domain.User, error) {
	user := domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Status:       domain.StatusOnline,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey(email), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(userKey(user.ID), data)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (u UserRepository) GetUserByEmail(email string) (domain.User, error) {
	var id string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return domain.User{}, errors.ErrUserNotFound
	}
	return u.GetUserByID(id)
}

func (u UserRepository) GetUserByID(id string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return domain.User{}, errors.ErrUserNotFound
	}
	return user, nil
}

// SetAvatar stores the uploaded image and points the user record at the
// serving path.
func (u UserRepository) SetAvatar(userID string, data []byte, contentType string) error {
	user, err := u.GetUserByID(userID)
	if err != nil {
		return err
	}
	user.Avatar = "/api/avatars/" + userID

	record, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return u.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte("avatar:"+userID), data); err != nil {
			return err
		}
		if err := txn.Set([]byte("avatar:mime:"+userID), []byte(contentType)); err != nil {
			return err
		}
		return txn.Set(userKey(userID), record)
	})
}

func (u UserRepository) GetAvatar(userID string) ([]byte, string, error) {
	var data []byte
	var contentType string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("avatar:" + userID))
		if err != nil {
			return err
		}
		if data, err = item.ValueCopy(nil); err != nil {
			return err
		}
		mimeItem, err := txn.Get([]byte("avatar:mime:" + userID))
		if err != nil {
			return err
		}
		return mimeItem.Value(func(val []byte) error {
			contentType = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, "", errors.ErrUserNotFound
	}
	return data, contentType, nil
}
