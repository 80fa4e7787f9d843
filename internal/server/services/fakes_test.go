package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/authtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// --- transactor ---

// fakeHandle stands in for *sql.DB / *sql.Tx. Repositories built on it talk
// to the in-memory store; row locks taken inside a transaction are held
// until InTx returns.
type fakeHandle struct {
	inTx bool
	held []*sync.Mutex
}

var errNoSQL = errors.New("fake handle does not run SQL")

func (*fakeHandle) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, errNoSQL
}
func (*fakeHandle) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errNoSQL
}
func (*fakeHandle) QueryRowContext(context.Context, string, ...any) *sql.Row { return nil }

type fakeTransactor struct {
	txCount atomic.Int32
	txErr   error
}

func (t *fakeTransactor) Conn() dbx.DBTX { return &fakeHandle{} }

func (t *fakeTransactor) InTx(ctx context.Context, fn dbx.TxFunc) error {
	if t.txErr != nil {
		return t.txErr
	}
	t.txCount.Add(1)
	h := &fakeHandle{inTx: true}
	defer func() {
		for i := len(h.held) - 1; i >= 0; i-- {
			h.held[i].Unlock()
		}
	}()
	return fn(ctx, h)
}

// --- store ---

type store struct {
	mu       sync.Mutex
	users    map[string]*models.User
	tokens   map[string]*models.AuthToken // by user id
	resets   []*models.PasswordReset
	rowLocks map[string]*sync.Mutex
	calls    atomic.Int32

	// error injection
	usersErr  error
	tokensErr error
	resetsErr error
}

func newStore() *store {
	return &store{
		users:    map[string]*models.User{},
		tokens:   map[string]*models.AuthToken{},
		rowLocks: map[string]*sync.Mutex{},
	}
}

func (s *store) rowLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rowLocks[id]
	if !ok {
		m = &sync.Mutex{}
		s.rowLocks[id] = m
	}
	return m
}

func (s *store) tokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func (s *store) user(id string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.PhoneNumber != nil {
		p := *u.PhoneNumber
		c.PhoneNumber = &p
	}
	return &c
}

// --- users repo ---

type fakeUsersRepo struct {
	s  *store
	db dbx.DBTX
}

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.calls.Add(1)
	if r.s.usersErr != nil {
		return nil, r.s.usersErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.Email == u.Email {
			return nil, &common.ConflictError{Field: "email"}
		}
	}
	u.CreatedAt = time.Now()
	r.s.users[u.ID] = cloneUser(u)
	return u, nil
}

func (r *fakeUsersRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.s.calls.Add(1)
	if r.s.usersErr != nil {
		return nil, r.s.usersErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *fakeUsersRepo) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.PhoneNumber != nil && *u.PhoneNumber == phone })
}

func (r *fakeUsersRepo) Update(_ context.Context, u *models.User) error {
	r.s.calls.Add(1)
	if r.s.usersErr != nil {
		return r.s.usersErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return common.ErrorNotFound
	}
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *fakeUsersRepo) SetPassword(_ context.Context, id string, hash string) error {
	r.s.calls.Add(1)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *fakeUsersRepo) LockForUpdate(_ context.Context, id string) error {
	r.s.calls.Add(1)
	r.s.mu.Lock()
	_, ok := r.s.users[id]
	r.s.mu.Unlock()
	if !ok {
		return common.ErrorNotFound
	}
	if h, isHandle := r.db.(*fakeHandle); isHandle && h.inTx {
		m := r.s.rowLock(id)
		m.Lock()
		h.held = append(h.held, m)
	}
	return nil
}

// --- auth tokens repo ---

type fakeTokensRepo struct{ s *store }

func (r *fakeTokensRepo) GetByUser(_ context.Context, userID string) (*models.AuthToken, error) {
	r.s.calls.Add(1)
	if r.s.tokensErr != nil {
		return nil, r.s.tokensErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r *fakeTokensRepo) GetByKey(_ context.Context, key string) (*models.AuthToken, error) {
	r.s.calls.Add(1)
	if r.s.tokensErr != nil {
		return nil, r.s.tokensErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.Key == key {
			c := *t
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

// Create mirrors the primary key on user_id.
func (r *fakeTokensRepo) Create(_ context.Context, userID string, key string) (*models.AuthToken, error) {
	r.s.calls.Add(1)
	if r.s.tokensErr != nil {
		return nil, r.s.tokensErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tokens[userID]; ok {
		return nil, &common.ConflictError{Field: "user_id"}
	}
	t := &models.AuthToken{Key: key, UserID: userID, CreatedAt: time.Now()}
	r.s.tokens[userID] = t
	c := *t
	return &c, nil
}

func (r *fakeTokensRepo) DeleteByUser(_ context.Context, userID string) error {
	r.s.calls.Add(1)
	if r.s.tokensErr != nil {
		return r.s.tokensErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, userID)
	return nil
}

// --- password resets repo ---

type fakeResetsRepo struct{ s *store }

func (r *fakeResetsRepo) Create(_ context.Context, email string, token string) (*models.PasswordReset, error) {
	r.s.calls.Add(1)
	if r.s.resetsErr != nil {
		return nil, r.s.resetsErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, pr := range r.s.resets {
		if pr.Token == token {
			return nil, &common.ConflictError{Field: "token"}
		}
	}
	pr := &models.PasswordReset{ID: int64(len(r.s.resets) + 1), Email: email, Token: token, CreatedAt: time.Now()}
	r.s.resets = append(r.s.resets, pr)
	c := *pr
	return &c, nil
}

func (r *fakeResetsRepo) GetByToken(_ context.Context, token string) (*models.PasswordReset, error) {
	r.s.calls.Add(1)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, pr := range r.s.resets {
		if pr.Token == token {
			c := *pr
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- repo manager ---

type fakeRepoManager struct{ s *store }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository {
	return &fakeUsersRepo{s: m.s, db: db}
}
func (m *fakeRepoManager) AuthTokens(dbx.DBTX) authtokens.Repository {
	return &fakeTokensRepo{s: m.s}
}
func (m *fakeRepoManager) PasswordResets(dbx.DBTX) passwordresets.Repository {
	return &fakeResetsRepo{s: m.s}
}

// --- hasher & mailer ---

type fakeHasher struct {
	hashErr error
}

func (h fakeHasher) Hash(pw string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + pw, nil
}

func (h fakeHasher) Verify(hash, pw string) (bool, error) {
	if !strings.HasPrefix(hash, "hashed:") {
		return false, errors.New("malformed hash")
	}
	return hash == "hashed:"+pw, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// --- fixture ---

type fixture struct {
	svc    *UserService
	store  *store
	mailer *fakeMailer
	tx     *fakeTransactor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newStore()
	mailer := &fakeMailer{}
	tx := &fakeTransactor{}
	cfg := &config.Config{
		FrontendBaseURL:    "http://front.test/",
		MailFrom:           "admin@example.com",
		ResetTokenAttempts: 3,
	}
	svc := NewUserService(tx, &fakeRepoManager{s: st}, fakeHasher{}, mailer, cfg, logging.Nop())
	svc.resets.delay = time.Millisecond
	return &fixture{svc: svc, store: st, mailer: mailer, tx: tx}
}

func (f *fixture) register(t *testing.T, email, password string) *models.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{Email: email, Password: password})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func strptr(s string) *string { return &s }

// racingUsersRepo passes the uniqueness pre-check but loses the insert.
type racingUsersRepo struct {
	fakeUsersRepo
}

func (r *racingUsersRepo) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, common.ErrorNotFound
}

func (r *racingUsersRepo) Create(context.Context, *models.User) (*models.User, error) {
	return nil, &common.ConflictError{Field: "email"}
}

type racingRepoManager struct {
	fakeRepoManager
	users *racingUsersRepo
}

func (m *racingRepoManager) Users(dbx.DBTX) users.Repository { return m.users }
