package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "accounts-backend/internal/common/errors"
	"accounts-backend/internal/features/session"
	"accounts-backend/internal/features/user/models"
	"accounts-backend/internal/features/user/repository"
)

// --- mocks ---

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, id, role)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) AppendDocument(ctx context.Context, id string, doc models.Document) (*models.User, error) {
	args := m.Called(ctx, id, doc)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) TouchLastConnection(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Create(ctx context.Context, identity models.SessionIdentity) (string, error) {
	args := m.Called(ctx, identity)
	return args.String(0), args.Error(1)
}

func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*models.SessionIdentity, error) {
	args := m.Called(ctx, sessionID)
	if id := args.Get(0); id != nil {
		return id.(*models.SessionIdentity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) Delete(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Store(ctx context.Context, field, filename string, content io.Reader) (string, error) {
	args := m.Called(ctx, field, filename, content)
	return args.String(0), args.Error(1)
}

func newTestService(repo repository.UserRepository, sessions session.Store, storage *mockStorage) UserService {
	return NewUserService(repo, sessions, storage, bcrypt.MinCost)
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) *apperrors.AppError {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func testUser(role models.Role, documents ...models.Document) *models.User {
	return &models.User{
		ID:        "uid-1",
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
		Age:       30,
		Role:      role,
		Documents: documents,
	}
}

// --- Register ---

func TestRegisterValidationError(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newTestService(repo, new(mockSessionStore), new(mockStorage))

	_, err := svc.Register(context.Background(), &models.CreateUserRequest{
		FirstName: "John",
		Password:  "s3cret",
	})

	appErr := assertCode(t, err, apperrors.ErrCodeValidation)
	assert.Contains(t, appErr.Details, "last_name")
	assert.Contains(t, appErr.Details, "email")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterHashesPasswordAndDefaultsRole(t *testing.T) {
	repo := new(mockUserRepo)
	var created *models.User
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.User)
		}).
		Return(nil)

	svc := newTestService(repo, new(mockSessionStore), new(mockStorage))

	resp, err := svc.Register(context.Background(), &models.CreateUserRequest{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
		Age:       30,
		Password:  "s3cret",
	})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "s3cret", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("s3cret")))

	assert.Equal(t, created.ID, resp.ID)
	assert.Equal(t, "john@example.com", resp.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrEmailTaken)

	svc := newTestService(repo, new(mockSessionStore), new(mockStorage))

	_, err := svc.Register(context.Background(), &models.CreateUserRequest{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
		Password:  "s3cret",
	})
	assertCode(t, err, apperrors.ErrCodeEmailTaken)
}

// --- Login ---

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrUserNotFound)

	svc := newTestService(repo, new(mockSessionStore), new(mockStorage))

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "pw")
	assertCode(t, err, apperrors.ErrCodeUnauthorized)
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(models.RoleUser)
	user.PasswordHash = hashOf(t, "correct")

	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	sessions := new(mockSessionStore)
	svc := newTestService(repo, sessions, new(mockStorage))

	_, _, err := svc.Login(context.Background(), user.Email, "wrong")
	assertCode(t, err, apperrors.ErrCodeUnauthorized)
	sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLoginStoresProjectionAndTouchesLastConnection(t *testing.T) {
	user := testUser(models.RoleUser)
	user.PasswordHash = hashOf(t, "s3cret")

	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	repo.On("TouchLastConnection", mock.Anything, user.ID).Return(nil)

	sessions := new(mockSessionStore)
	sessions.On("Create", mock.Anything, models.SessionIdentity{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
	}).Return("sid-123", nil)

	svc := newTestService(repo, sessions, new(mockStorage))

	sid, identity, err := svc.Login(context.Background(), user.Email, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "sid-123", sid)
	assert.Equal(t, user.ID, identity.ID)
	assert.Equal(t, user.FirstName, identity.FirstName)

	repo.AssertCalled(t, "TouchLastConnection", mock.Anything, user.ID)
	sessions.AssertExpectations(t)
}

func TestCurrentSessionAbsent(t *testing.T) {
	sessions := new(mockSessionStore)
	sessions.On("Get", mock.Anything, "sid-404").Return(nil, session.ErrSessionNotFound)

	svc := newTestService(new(mockUserRepo), sessions, new(mockStorage))

	_, err := svc.CurrentSession(context.Background(), "sid-404")
	assertCode(t, err, apperrors.ErrCodeUnauthorized)
}

// --- UploadDocument ---

func TestUploadDocumentAppendsLedgerEntry(t *testing.T) {
	storage := new(mockStorage)
	storage.On("Store", mock.Anything, "document", "id.pdf", mock.Anything).
		Return("uploads/documents/id.pdf", nil)

	repo := new(mockUserRepo)
	updated := testUser(models.RoleUser, models.Document{Name: "Identificación", Reference: "uploads/documents/id.pdf"})
	repo.On("AppendDocument", mock.Anything, "uid-1", models.Document{
		Name:      "Identificación",
		Reference: "uploads/documents/id.pdf",
	}).Return(updated, nil)

	svc := newTestService(repo, new(mockSessionStore), storage)

	resp, err := svc.UploadDocument(context.Background(), "uid-1", "document", "id.pdf",
		"Identificación", strings.NewReader("content"))
	require.NoError(t, err)
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, "uploads/documents/id.pdf", resp.Documents[0].Reference)
}

func TestUploadDocumentDefaultsNameToFilename(t *testing.T) {
	storage := new(mockStorage)
	storage.On("Store", mock.Anything, "document", "misc.pdf", mock.Anything).
		Return("uploads/documents/misc.pdf", nil)

	repo := new(mockUserRepo)
	repo.On("AppendDocument", mock.Anything, "uid-1", models.Document{
		Name:      "misc.pdf",
		Reference: "uploads/documents/misc.pdf",
	}).Return(testUser(models.RoleUser), nil)

	svc := newTestService(repo, new(mockSessionStore), storage)

	_, err := svc.UploadDocument(context.Background(), "uid-1", "document", "misc.pdf",
		"", strings.NewReader("content"))
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUploadDocumentUnknownUser(t *testing.T) {
	storage := new(mockStorage)
	storage.On("Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("ref", nil)

	repo := new(mockUserRepo)
	repo.On("AppendDocument", mock.Anything, "missing", mock.Anything).
		Return(nil, repository.ErrUserNotFound)

	svc := newTestService(repo, new(mockSessionStore), storage)

	_, err := svc.UploadDocument(context.Background(), "missing", "document", "id.pdf",
		"Identificación", strings.NewReader("content"))
	assertCode(t, err, apperrors.ErrCodeUserNotFound)
}

// --- ToggleRole ---

func TestToggleRoleIsInvolutionOnUserPremium(t *testing.T) {
	tests := []struct {
		from models.Role
		to   models.Role
	}{
		{models.RoleUser, models.RolePremium},
		{models.RolePremium, models.RoleUser},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			repo := new(mockUserRepo)
			repo.On("GetByID", mock.Anything, "uid-1").Return(testUser(tt.from), nil)
			repo.On("UpdateRole", mock.Anything, "uid-1", tt.to).Return(testUser(tt.to), nil)

			svc := newTestService(repo, new(mockSessionStore), new(mockStorage))

			resp, err := svc.ToggleRole(context.Background(), "uid-1")
			require.NoError(t, err)
			assert.Equal(t, tt.to, resp.Role)
			repo.AssertExpectations(t)
		})
	}
}

func TestToggleRoleAdminRejected(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByID", mock.Anything, "uid-1").Return(testUser(models.RoleAdmin), nil)

	svc := newTestService(repo, new(mockSessionStore), new(mockStorage))

	_, err := svc.ToggleRole(context.Background(), "uid-1")
	assertCode(t, err, apperrors.ErrCodeConflict)
	repo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleRoleUnknownUser(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, repository.ErrUserNotFound)

	svc := newTestService(repo, new(mockSessionStore), new(mockStorage))

	_, err := svc.ToggleRole(context.Background(), "missing")
	assertCode(t, err, apperrors.ErrCodeUserNotFound)
}

func TestToggleRoleWrapsUnderlyingFailure(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByID", mock.Anything, "uid-1").Return(testUser(models.RoleUser), nil)
	repo.On("UpdateRole", mock.Anything, "uid-1", models.RolePremium).Return(nil, assert.AnError)

	svc := newTestService(repo, new(mockSessionStore), new(mockStorage))

	_, err := svc.ToggleRole(context.Background(), "uid-1")
	appErr := assertCode(t, err, apperrors.ErrCodeInternal)
	assert.ErrorIs(t, appErr, assert.AnError)
}

// --- UpgradeToPremium ---

func completeLedger() []models.Document {
	return []models.Document{
		{Name: "Comprobante de estado de cuenta", Reference: "r3"},
		{Name: "Identificación", Reference: "r1"},
		{Name: "Pasaporte", Reference: "r4"},
		{Name: "Comprobante de domicilio", Reference: "r2"},
	}
}

func TestUpgradeToPremiumIneligible(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByID", mock.Anything, "uid-1").
		Return(testUser(models.RoleUser, models.Document{Name: "Identificación", Reference: "r1"}), nil)

	svc := newTestService(repo, new(mockSessionStore), new(mockStorage))

	_, err := svc.UpgradeToPremium(context.Background(), "uid-1")
	appErr := assertCode(t, err, apperrors.ErrCodeMissingDocuments)
	assert.Equal(t, []string{"Comprobante de domicilio", "Comprobante de estado de cuenta"},
		appErr.Details["missing"])

	// Role must not be touched on an ineligible request.
	repo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpgradeToPremiumEligible(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByID", mock.Anything, "uid-1").
		Return(testUser(models.RoleUser, completeLedger()...), nil)
	repo.On("UpdateRole", mock.Anything, "uid-1", models.RolePremium).
		Return(testUser(models.RolePremium, completeLedger()...), nil)

	svc := newTestService(repo, new(mockSessionStore), new(mockStorage))

	resp, err := svc.UpgradeToPremium(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, models.RolePremium, resp.Role)
	repo.AssertExpectations(t)
}

func TestUpgradeToPremiumUnknownUser(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, repository.ErrUserNotFound)

	svc := newTestService(repo, new(mockSessionStore), new(mockStorage))

	_, err := svc.UpgradeToPremium(context.Background(), "missing")
	assertCode(t, err, apperrors.ErrCodeUserNotFound)
}

// --- concurrency ---

// raceRepo is a minimal thread-safe repository holding a single user.
type raceRepo struct {
	mu   sync.Mutex
	user models.User
}

func (r *raceRepo) snapshot() *models.User {
	u := r.user
	docs := make([]models.Document, len(r.user.Documents))
	copy(docs, r.user.Documents)
	u.Documents = docs
	return &u
}

func (r *raceRepo) Create(ctx context.Context, user *models.User) error { return nil }

func (r *raceRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != r.user.ID {
		return nil, repository.ErrUserNotFound
	}
	return r.snapshot(), nil
}

func (r *raceRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, repository.ErrUserNotFound
}

func (r *raceRepo) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != r.user.ID {
		return nil, repository.ErrUserNotFound
	}
	r.user.Role = role
	return r.snapshot(), nil
}

func (r *raceRepo) AppendDocument(ctx context.Context, id string, doc models.Document) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != r.user.ID {
		return nil, repository.ErrUserNotFound
	}
	r.user.Documents = append(r.user.Documents, doc)
	return r.snapshot(), nil
}

func (r *raceRepo) TouchLastConnection(ctx context.Context, id string) error { return nil }

// Two concurrent upgrades may both pass the eligibility check; both write
// role=premium, so the result stays valid (at-least-once, not exactly-once).
func TestConcurrentUpgradesLeaveValidPremiumRole(t *testing.T) {
	repo := &raceRepo{user: *testUser(models.RoleUser, completeLedger()...)}
	svc := newTestService(repo, new(mockSessionStore), new(mockStorage))

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.UpgradeToPremium(context.Background(), "uid-1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		assert.NoError(t, errs[i])
	}

	final, err := repo.GetByID(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, models.RolePremium, final.Role)
	assert.Len(t, final.Documents, len(completeLedger()))
}
