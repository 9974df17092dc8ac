package service

import (
	"context"
	"sync"
	"time"

	"wanderlog/internal/models"
	"wanderlog/internal/repository"
	"wanderlog/internal/storage"

	"github.com/spf13/afero"
)

// userRepoStub is an in-memory repository.UserRepository.
type userRepoStub struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.User
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{byID: map[uint]*models.User{}}
}

func (s *userRepoStub) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == user.Email {
			return models.NewFieldValidationError("email", "The email has already been taken.")
		}
	}
	s.nextID++
	user.ID = s.nextID
	cp := *user
	s.byID[user.ID] = &cp
	return nil
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	cp := *u
	return &cp, nil
}

func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *userRepoStub) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

// tokenRepoStub is an in-memory repository.TokenRepository.
type tokenRepoStub struct {
	mu      sync.Mutex
	nextID  uint
	byHash  map[string]*models.AccessToken
	touched map[uint]time.Time
	getErr  error
}

func newTokenRepoStub() *tokenRepoStub {
	return &tokenRepoStub{byHash: map[string]*models.AccessToken{}, touched: map[uint]time.Time{}}
}

func (s *tokenRepoStub) Create(_ context.Context, token *models.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	token.ID = s.nextID
	cp := *token
	s.byHash[token.TokenHash] = &cp
	return nil
}

func (s *tokenRepoStub) GetByHash(_ context.Context, hash string) (*models.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	t, ok := s.byHash[hash]
	if !ok {
		return nil, models.NewNotFoundError("Token", "(redacted)")
	}
	cp := *t
	return &cp, nil
}

func (s *tokenRepoStub) Touch(_ context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched[id] = at
	return nil
}

func (s *tokenRepoStub) DeleteByHash(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byHash, hash)
	return nil
}

func (s *tokenRepoStub) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for hash, t := range s.byHash {
		if t.Expired(now) {
			delete(s.byHash, hash)
			n++
		}
	}
	return n, nil
}

// storyRepoStub is a stub for repository.StoryRepository.
type storyRepoStub struct {
	createFn         func(context.Context, *models.Story) error
	getByIDFn        func(context.Context, uint) (*models.Story, error)
	getPublishedFn   func(context.Context, uint) (*models.Story, error)
	listPublishedFn  func(context.Context, int, int) ([]models.Story, int64, error)
	listByOwnerFn    func(context.Context, uint) ([]models.Story, error)
	updateFn         func(context.Context, *models.Story) error
	deleteFn         func(context.Context, uint) error
	incrementViewsFn func(context.Context, uint) (uint, error)
	existsFn         func(context.Context, uint) (bool, error)
	locationRowsFn   func(context.Context) ([]repository.LocationRow, error)
}

func (s *storyRepoStub) Create(ctx context.Context, story *models.Story) error {
	return s.createFn(ctx, story)
}
func (s *storyRepoStub) GetByID(ctx context.Context, id uint) (*models.Story, error) {
	return s.getByIDFn(ctx, id)
}
func (s *storyRepoStub) GetPublished(ctx context.Context, id uint) (*models.Story, error) {
	return s.getPublishedFn(ctx, id)
}
func (s *storyRepoStub) ListPublished(ctx context.Context, page, perPage int) ([]models.Story, int64, error) {
	return s.listPublishedFn(ctx, page, perPage)
}
func (s *storyRepoStub) ListByOwner(ctx context.Context, ownerID uint) ([]models.Story, error) {
	return s.listByOwnerFn(ctx, ownerID)
}
func (s *storyRepoStub) Update(ctx context.Context, story *models.Story) error {
	return s.updateFn(ctx, story)
}
func (s *storyRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *storyRepoStub) IncrementViews(ctx context.Context, id uint) (uint, error) {
	return s.incrementViewsFn(ctx, id)
}
func (s *storyRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *storyRepoStub) LocationRows(ctx context.Context) ([]repository.LocationRow, error) {
	return s.locationRowsFn(ctx)
}

// memStories backs a storyRepoStub with a map so create/update/get round-trip.
func memStories() (*storyRepoStub, map[uint]*models.Story) {
	rows := map[uint]*models.Story{}
	var nextID uint
	get := func(id uint) (*models.Story, error) {
		st, ok := rows[id]
		if !ok {
			return nil, models.NewNotFoundError("Story", id)
		}
		cp := *st
		return &cp, nil
	}
	stub := &storyRepoStub{
		createFn: func(_ context.Context, story *models.Story) error {
			nextID++
			story.ID = nextID
			cp := *story
			rows[story.ID] = &cp
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Story, error) { return get(id) },
		getPublishedFn: func(_ context.Context, id uint) (*models.Story, error) {
			st, err := get(id)
			if err != nil {
				return nil, err
			}
			if !st.IsPublished {
				return nil, models.NewNotFoundError("Story", id)
			}
			return st, nil
		},
		listPublishedFn: func(_ context.Context, _, _ int) ([]models.Story, int64, error) { return nil, 0, nil },
		listByOwnerFn:   func(_ context.Context, _ uint) ([]models.Story, error) { return nil, nil },
		updateFn: func(_ context.Context, story *models.Story) error {
			cp := *story
			rows[story.ID] = &cp
			return nil
		},
		deleteFn: func(_ context.Context, id uint) error {
			if _, ok := rows[id]; !ok {
				return models.NewNotFoundError("Story", id)
			}
			delete(rows, id)
			return nil
		},
		incrementViewsFn: func(_ context.Context, id uint) (uint, error) {
			st, ok := rows[id]
			if !ok {
				return 0, models.NewNotFoundError("Story", id)
			}
			st.Views++
			return st.Views, nil
		},
		existsFn: func(_ context.Context, id uint) (bool, error) {
			_, ok := rows[id]
			return ok, nil
		},
		locationRowsFn: func(_ context.Context) ([]repository.LocationRow, error) { return nil, nil },
	}
	return stub, rows
}

// interactionRepoStub is an in-memory repository.InteractionRepository.
type interactionRepoStub struct {
	mu      sync.Mutex
	entries map[models.InteractionKind]map[[2]uint]bool
	listFn  func(context.Context, models.InteractionKind, uint, int, int) ([]models.Story, int64, error)
}

func newInteractionRepoStub() *interactionRepoStub {
	return &interactionRepoStub{entries: map[models.InteractionKind]map[[2]uint]bool{
		models.InteractionLike: {},
		models.InteractionSave: {},
	}}
}

func (s *interactionRepoStub) Add(_ context.Context, kind models.InteractionKind, userID, storyID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uint{userID, storyID}
	if s.entries[kind][key] {
		if kind == models.InteractionSave {
			return models.NewConflictError("Story already saved.")
		}
		return models.NewConflictError("Story already liked.")
	}
	s.entries[kind][key] = true
	return nil
}

func (s *interactionRepoStub) Exists(_ context.Context, kind models.InteractionKind, userID, storyID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[kind][[2]uint{userID, storyID}], nil
}

func (s *interactionRepoStub) Remove(_ context.Context, kind models.InteractionKind, userID, storyID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uint{userID, storyID}
	existed := s.entries[kind][key]
	delete(s.entries[kind], key)
	return existed, nil
}

func (s *interactionRepoStub) Count(_ context.Context, kind models.InteractionKind, storyID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key := range s.entries[kind] {
		if key[1] == storyID {
			n++
		}
	}
	return n, nil
}

func (s *interactionRepoStub) ListStories(ctx context.Context, kind models.InteractionKind, userID uint, page, perPage int) ([]models.Story, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, kind, userID, page, perPage)
	}
	return nil, 0, nil
}

// failingStore is a storage.Store whose deletes always fail.
type failingStore struct{ storage.Store }

func (failingStore) Delete(context.Context, string) error { return errDeleteFailed }

func newMemMedia() (*MediaService, *storage.LocalStore) {
	store := storage.NewLocalStoreFs(afero.NewMemMapFs(), "/storage")
	return NewMediaService(store, 64), store
}
