package transport

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/tahaet/book-ecommerce/internal/domain"
	"github.com/tahaet/book-ecommerce/internal/repository"
)

// Mock repositories for testing, map-backed and transaction-blind.

type mockTxManager struct{}

func (mockTxManager) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

type mockMailer struct {
	sent []string
}

func (m *mockMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, to+": "+subject+"\n"+body)
	return nil
}

type mockUserRepository struct {
	users map[uuid.UUID]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok || !user.Active {
		return nil, repository.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email && user.Active {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByEmailAnyStatus(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByTokenHash(ctx context.Context, purpose domain.TokenPurpose, hash string) (*domain.User, error) {
	now := time.Now()
	for _, user := range m.users {
		var storedHash *string
		var expires *time.Time
		switch purpose {
		case domain.TokenConfirm:
			storedHash, expires = user.ConfirmTokenHash, user.ConfirmTokenExpires
		case domain.TokenReset:
			storedHash, expires = user.ResetTokenHash, user.ResetTokenExpires
		case domain.TokenActivate:
			storedHash, expires = user.ActivateTokenHash, user.ActivateTokenExpires
		}
		if storedHash == nil || *storedHash != hash || expires == nil || expires.Before(now) {
			continue
		}
		if purpose != domain.TokenActivate && !user.Active {
			continue
		}
		clone := *user
		return &clone, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	users := []*domain.User{}
	for _, user := range m.users {
		if user.Active {
			clone := *user
			users = append(users, &clone)
		}
	}
	return users, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	stored, ok := m.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	stored.Name = user.Name
	stored.Email = user.Email
	stored.Photo = user.Photo
	stored.Role = user.Role
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	user, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.PasswordChangedAt = &changedAt
	return nil
}

func (m *mockUserRepository) SetConfirmed(ctx context.Context, id uuid.UUID) error {
	user, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.IsConfirmed = true
	return nil
}

func (m *mockUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	user, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Active = active
	return nil
}

func (m *mockUserRepository) SetToken(ctx context.Context, id uuid.UUID, purpose domain.TokenPurpose, hash string, expires time.Time) error {
	user, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	switch purpose {
	case domain.TokenConfirm:
		user.ConfirmTokenHash, user.ConfirmTokenExpires = &hash, &expires
	case domain.TokenReset:
		user.ResetTokenHash, user.ResetTokenExpires = &hash, &expires
	case domain.TokenActivate:
		user.ActivateTokenHash, user.ActivateTokenExpires = &hash, &expires
	}
	return nil
}

func (m *mockUserRepository) ClearToken(ctx context.Context, id uuid.UUID, purpose domain.TokenPurpose) error {
	user, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	switch purpose {
	case domain.TokenConfirm:
		user.ConfirmTokenHash, user.ConfirmTokenExpires = nil, nil
	case domain.TokenReset:
		user.ResetTokenHash, user.ResetTokenExpires = nil, nil
	case domain.TokenActivate:
		user.ActivateTokenHash, user.ActivateTokenExpires = nil, nil
	}
	return nil
}

func (m *mockUserRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	clone := *product
	m.products[product.ID] = &clone
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	clone := *product
	return &clone, nil
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, p := range m.products {
		clone := *p
		products = append(products, &clone)
	}
	return products, nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	clone := *product
	m.products[product.ID] = &clone
	return nil
}

func (m *mockProductRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

type mockCartRepository struct {
	headers map[uuid.UUID]*domain.CartHeader
	details map[uuid.UUID]*domain.CartDetail
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{
		headers: make(map[uuid.UUID]*domain.CartHeader),
		details: make(map[uuid.UUID]*domain.CartDetail),
	}
}

func (m *mockCartRepository) WithTx(tx *sql.Tx) repository.CartRepository { return m }

func (m *mockCartRepository) FindHeaderByUser(ctx context.Context, userID uuid.UUID) (*domain.CartHeader, error) {
	for _, h := range m.headers {
		if h.UserID == userID {
			clone := *h
			return &clone, nil
		}
	}
	return nil, repository.ErrCartNotFound
}

func (m *mockCartRepository) UpsertHeader(ctx context.Context, userID uuid.UUID) (*domain.CartHeader, error) {
	if header, err := m.FindHeaderByUser(ctx, userID); err == nil {
		return header, nil
	}
	header := &domain.CartHeader{ID: uuid.New(), UserID: userID}
	m.headers[header.ID] = header
	clone := *header
	return &clone, nil
}

func (m *mockCartRepository) DeleteHeader(ctx context.Context, headerID uuid.UUID) error {
	delete(m.headers, headerID)
	return nil
}

func (m *mockCartRepository) UpdateTotal(ctx context.Context, headerID uuid.UUID, total float64) error {
	header, ok := m.headers[headerID]
	if !ok {
		return repository.ErrCartNotFound
	}
	header.CartTotal = total
	return nil
}

func (m *mockCartRepository) FindDetail(ctx context.Context, headerID, productID uuid.UUID) (*domain.CartDetail, error) {
	for _, d := range m.details {
		if d.CartHeaderID == headerID && d.ProductID == productID {
			clone := *d
			return &clone, nil
		}
	}
	return nil, repository.ErrCartItemNotFound
}

func (m *mockCartRepository) ListDetails(ctx context.Context, headerID uuid.UUID) ([]*domain.CartDetail, error) {
	details := []*domain.CartDetail{}
	for _, d := range m.details {
		if d.CartHeaderID == headerID {
			clone := *d
			details = append(details, &clone)
		}
	}
	return details, nil
}

func (m *mockCartRepository) CreateDetail(ctx context.Context, detail *domain.CartDetail) error {
	clone := *detail
	m.details[detail.ID] = &clone
	return nil
}

func (m *mockCartRepository) UpdateDetail(ctx context.Context, detail *domain.CartDetail) error {
	stored, ok := m.details[detail.ID]
	if !ok {
		return repository.ErrCartItemNotFound
	}
	stored.Count = detail.Count
	stored.Price = detail.Price
	return nil
}

func (m *mockCartRepository) DeleteDetail(ctx context.Context, headerID, productID uuid.UUID) error {
	for id, d := range m.details {
		if d.CartHeaderID == headerID && d.ProductID == productID {
			delete(m.details, id)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepository) DeleteDetailsByHeader(ctx context.Context, headerID uuid.UUID) error {
	for id, d := range m.details {
		if d.CartHeaderID == headerID {
			delete(m.details, id)
		}
	}
	return nil
}

func (m *mockCartRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.CartHeader, error) {
	header, err := m.FindHeaderByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	header.Details, _ = m.ListDetails(ctx, header.ID)
	return header, nil
}

func (m *mockCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CartHeader, error) {
	header, ok := m.headers[id]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	clone := *header
	clone.Details, _ = m.ListDetails(ctx, id)
	return &clone, nil
}

func (m *mockCartRepository) List(ctx context.Context) ([]*domain.CartHeader, error) {
	headers := []*domain.CartHeader{}
	for _, h := range m.headers {
		clone := *h
		headers = append(headers, &clone)
	}
	return headers, nil
}
