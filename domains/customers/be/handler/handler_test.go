package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fixbay/fixbay-backend/domains/customers/be/service"
	platformauth "github.com/fixbay/fixbay-backend/platform/go/auth"
)

type mockService struct {
	createFn  func(ctx context.Context, input service.CreateInput) (service.Customer, error)
	getFn     func(ctx context.Context, id uuid.UUID) (service.Customer, error)
	getSelfFn func(ctx context.Context, subject string) (service.Customer, error)
	listFn    func(ctx context.Context) ([]service.Customer, error)
}

func (m *mockService) Create(ctx context.Context, input service.CreateInput) (service.Customer, error) {
	return m.createFn(ctx, input)
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID) (service.Customer, error) {
	return m.getFn(ctx, id)
}

func (m *mockService) GetSelf(ctx context.Context, subject string) (service.Customer, error) {
	return m.getSelfFn(ctx, subject)
}

func (m *mockService) List(ctx context.Context) ([]service.Customer, error) {
	return m.listFn(ctx)
}

func newRouter(svc service.Service) chi.Router {
	r := chi.NewRouter()
	New(svc, zap.NewNop()).Routes(r)
	return r
}

func TestCreateReturnsCreated(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{
		createFn: func(_ context.Context, input service.CreateInput) (service.Customer, error) {
			require.Equal(t, "alice@example.com", input.Email)
			return service.Customer{ID: id, Email: input.Email, FullName: input.FullName}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/customers",
		strings.NewReader(`{"email":"alice@example.com","fullName":"Alice"}`))
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/api/v1/customers/"+id.String(), rec.Header().Get("Location"))
}

func TestCreateLinksAuthenticatedSubject(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		createFn: func(_ context.Context, input service.CreateInput) (service.Customer, error) {
			require.NotNil(t, input.AuthSubject)
			require.Equal(t, "sub-alice", *input.AuthSubject)
			return service.Customer{ID: uuid.New()}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/customers",
		strings.NewReader(`{"email":"alice@example.com","fullName":"Alice"}`))
	req = req.WithContext(platformauth.WithUser(req.Context(), &platformauth.UserCredentials{ID: "sub-alice"}))
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateConflictReturns409(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		createFn: func(context.Context, service.CreateInput) (service.Customer, error) {
			return service.Customer{}, service.ErrConflict
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/customers",
		strings.NewReader(`{"email":"alice@example.com","fullName":"Alice"}`))
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestMeRequiresAuthentication(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/customers/me", nil)
	newRouter(&mockService{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeResolvesOwnProfile(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		getSelfFn: func(_ context.Context, subject string) (service.Customer, error) {
			require.Equal(t, "sub-alice", subject)
			return service.Customer{ID: uuid.New(), FullName: "Alice"}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/customers/me", nil)
	req = req.WithContext(platformauth.WithUser(req.Context(), &platformauth.UserCredentials{ID: "sub-alice"}))
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got customerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Alice", got.FullName)
}

func TestGetUnknownCustomerReturns404(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		getFn: func(context.Context, uuid.UUID) (service.Customer, error) {
			return service.Customer{}, service.ErrNotFound
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/customers/"+uuid.NewString(), nil)
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListReturnsItems(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		listFn: func(context.Context) ([]service.Customer, error) {
			return []service.Customer{{ID: uuid.New(), FullName: "Alice"}}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Alice")
}
