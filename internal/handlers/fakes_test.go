package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/prehome/backend/internal/middleware"
	"github.com/anonto42/prehome/backend/internal/models"
	"github.com/anonto42/prehome/backend/internal/repositories"
	"github.com/anonto42/prehome/backend/pkg/config"
	"github.com/anonto42/prehome/backend/pkg/firebase"
	"github.com/anonto42/prehome/backend/pkg/places"
	"github.com/anonto42/prehome/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
	"googlemaps.github.io/maps"
)

const testSecret = "handler-test-secret"

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*models.User{}}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := user.Validate(); err != nil {
		return err
	}
	for _, u := range r.users {
		if (user.Email != "" && u.Email == user.Email) || (user.FacebookID != "" && u.FacebookID == user.FacebookID) {
			return repositories.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrInvalidID
	}
	return r.find(func(u *models.User) bool { return u.ID == objID })
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email != "" && u.Email == email })
}

func (r *fakeUserRepo) GetUserByFacebookID(_ context.Context, facebookID string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.FacebookID != "" && u.FacebookID == facebookID })
}

func (r *fakeUserRepo) GetUsers(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.User{}
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.Password = passwordHash
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeUserRepo) ToggleBlocked(_ context.Context, id string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, repositories.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[objID]
	if !ok {
		return false, repositories.ErrNotFound
	}
	u.IsBlocked = !u.IsBlocked
	return u.IsBlocked, nil
}

func (r *fakeUserRepo) DeleteUser(_ context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[objID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.users, objID)
	return nil
}

// --- otps ---

type fakeOtpRepo struct {
	mu   sync.Mutex
	otps []models.Otp
}

func (r *fakeOtpRepo) Replace(_ context.Context, otp *models.Otp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.otps[:0]
	for _, o := range r.otps {
		if o.Email != otp.Email {
			kept = append(kept, o)
		}
	}
	otp.ID = primitive.NewObjectID()
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	r.otps = append(kept, *otp)
	return nil
}

func (r *fakeOtpRepo) FindValid(_ context.Context, email, code string, notBefore time.Time) (*models.Otp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.otps {
		if o.Email == email && o.Code == code && !o.CreatedAt.Before(notBefore) {
			found := o
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeOtpRepo) DeleteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.otps[:0]
	for _, o := range r.otps {
		if o.Email != email {
			kept = append(kept, o)
		}
	}
	r.otps = kept
	return nil
}

// --- properties ---

type fakePropertyRepo struct {
	mu         sync.Mutex
	properties map[primitive.ObjectID]*models.Property
}

func newFakePropertyRepo() *fakePropertyRepo {
	return &fakePropertyRepo{properties: map[primitive.ObjectID]*models.Property{}}
}

func (r *fakePropertyRepo) CreateProperty(_ context.Context, property *models.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	property.ID = primitive.NewObjectID()
	if property.Radius <= 0 {
		property.Radius = models.DefaultSearchRadius
	}
	stored := *property
	r.properties[property.ID] = &stored
	return nil
}

func (r *fakePropertyRepo) GetPropertyByID(_ context.Context, id string) (*models.Property, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.properties[objID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	found := *p
	return &found, nil
}

func (r *fakePropertyRepo) ListProperties(_ context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Property{}
	for _, p := range r.properties {
		if filter.Title != "" && p.Title != filter.Title {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() > out[j].ID.Hex() })
	return out, nil
}

func (r *fakePropertyRepo) UpdateProperty(_ context.Context, id string, property *models.Property) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.properties[objID]; !ok {
		return repositories.ErrNotFound
	}
	property.ID = objID
	stored := *property
	r.properties[objID] = &stored
	return nil
}

func (r *fakePropertyRepo) DeleteProperty(_ context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.properties[objID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.properties, objID)
	return nil
}

// --- activities ---

type fakeActivityRepo struct {
	mu         sync.Mutex
	activities map[[2]string]*models.Activity
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{activities: map[[2]string]*models.Activity{}}
}

func (r *fakeActivityRepo) Get(_ context.Context, userID, propertyID string) (*models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.activities[[2]string{userID, propertyID}]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	found := *a
	return &found, nil
}

func (r *fakeActivityRepo) Upsert(_ context.Context, userID, propertyID string, patch models.ActivityPatch) (*models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{userID, propertyID}
	a, ok := r.activities[key]
	if !ok {
		a = &models.Activity{ID: primitive.NewObjectID(), UserID: userID, PropertyID: propertyID, CreatedAt: time.Now()}
		r.activities[key] = a
	}
	patch.Apply(a)
	a.UpdatedAt = time.Now()
	found := *a
	return &found, nil
}

func (r *fakeActivityRepo) list(match func(*models.Activity) bool) []models.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Activity{}
	for _, a := range r.activities {
		if match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PropertyID < out[j].PropertyID })
	return out
}

func (r *fakeActivityRepo) ListByUser(_ context.Context, userID string) ([]models.Activity, error) {
	return r.list(func(a *models.Activity) bool { return a.UserID == userID }), nil
}

func (r *fakeActivityRepo) ListAll(_ context.Context) ([]models.Activity, error) {
	return r.list(func(*models.Activity) bool { return true }), nil
}

func (r *fakeActivityRepo) Delete(_ context.Context, userID, propertyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{userID, propertyID}
	if _, ok := r.activities[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.activities, key)
	return nil
}

// --- notifications ---

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []models.Notification
	createErr     error
}

func (r *fakeNotificationRepo) CreateNotification(n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	n.ID = uint(len(r.notifications) + 1)
	n.CreatedAt = time.Now()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *fakeNotificationRepo) forUser(userID string) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Notification{}
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].UserID == userID {
			out = append(out, r.notifications[i])
		}
	}
	return out
}

func (r *fakeNotificationRepo) messages(userID string) []string {
	var out []string
	for _, n := range r.forUser(userID) {
		out = append([]string{n.Message}, out...)
	}
	return out
}

func (r *fakeNotificationRepo) GetByUserID(userID string, page, limit int) ([]models.Notification, int64, error) {
	all := r.forUser(userID)
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *fakeNotificationRepo) GetGrouped(userID string) (models.NotificationGroups, error) {
	return models.GroupNotifications(r.forUser(userID), time.Now()), nil
}

func (r *fakeNotificationRepo) GetUnreadCount(userID string) (int64, error) {
	var count int64
	for _, n := range r.forUser(userID) {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAsRead(notificationID uint, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == notificationID && r.notifications[i].UserID == userID {
			r.notifications[i].IsRead = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeNotificationRepo) MarkAllAsRead(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].UserID == userID {
			r.notifications[i].IsRead = true
		}
	}
	return nil
}

// --- chat and form progress ---

type fakeChatRepo struct {
	mu       sync.Mutex
	messages []models.ChatMessage
}

func (r *fakeChatRepo) AppendMessages(userID string, messages []models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range messages {
		m.UserID = userID
		m.ID = uint(len(r.messages) + 1)
		r.messages = append(r.messages, m)
	}
	return nil
}

func (r *fakeChatRepo) GetHistory(userID string, limit int) ([]models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.ChatMessage{}
	for _, m := range r.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeFormRepo struct {
	mu       sync.Mutex
	progress map[string]*models.FormProgress
}

func (r *fakeFormRepo) Save(_ context.Context, userID string, responses []models.FormResponse) (*models.FormProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress == nil {
		r.progress = map[string]*models.FormProgress{}
	}
	p := &models.FormProgress{UserID: userID, Responses: responses, UpdatedAt: time.Now()}
	r.progress[userID] = p
	return p, nil
}

func (r *fakeFormRepo) Load(_ context.Context, userID string) (*models.FormProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.progress[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p, nil
}

// --- external services ---

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type fakeGoogle struct {
	identities map[string]*firebase.GoogleIdentity
}

func (g *fakeGoogle) VerifyGoogleToken(_ context.Context, idToken string) (*firebase.GoogleIdentity, error) {
	if id, ok := g.identities[idToken]; ok {
		return id, nil
	}
	return nil, errors.New("token rejected")
}

type fakeMaps struct {
	mu       sync.Mutex
	geocodes []string
	searches []maps.NearbySearchRequest
	located  bool
	byType   map[maps.PlaceType][]maps.PlacesSearchResult
	failType maps.PlaceType
}

func (f *fakeMaps) Geocode(_ context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geocodes = append(f.geocodes, r.Address)
	if !f.located {
		return nil, nil
	}
	return []maps.GeocodingResult{{
		Geometry: maps.AddressGeometry{Location: maps.LatLng{Lat: 19.076, Lng: 72.8777}},
	}}, nil
}

func (f *fakeMaps) NearbySearch(_ context.Context, r *maps.NearbySearchRequest) (maps.PlacesSearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, *r)
	if r.Type == f.failType {
		return maps.PlacesSearchResponse{}, errors.New("OVER_QUERY_LIMIT")
	}
	return maps.PlacesSearchResponse{Results: f.byType[r.Type]}, nil
}

func (f *fakeMaps) searchedTypes() []maps.PlaceType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]maps.PlaceType, len(f.searches))
	for i, s := range f.searches {
		out[i] = s.Type
	}
	return out
}

func mapsPlace(name string, lat, lng float64, types ...string) maps.PlacesSearchResult {
	return maps.PlacesSearchResult{
		Name:     name,
		Geometry: maps.AddressGeometry{Location: maps.LatLng{Lat: lat, Lng: lng}},
		Types:    types,
	}
}

type fakeStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (s *fakeStorage) Save(_ context.Context, name string, r io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[name] = data
	return "/uploads/" + name, nil
}

// --- harness ---

type testEnv struct {
	e             *echo.Echo
	cfg           *config.Config
	users         *fakeUserRepo
	otps          *fakeOtpRepo
	properties    *fakePropertyRepo
	activities    *fakeActivityRepo
	notifications *fakeNotificationRepo
	chats         *fakeChatRepo
	forms         *fakeFormRepo
	mail          *fakeMailer
	google        *fakeGoogle
	maps          *fakeMaps
	store         *fakeStorage
	auth          *AuthHandler
}

// newTestEnv wires the handlers the way router.SetupRoutes does, over in-memory fakes.
// The production route table itself is covered in the router package.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	env := &testEnv{
		cfg: &config.Config{
			JWTSecret:         testSecret,
			JWTTTL:            time.Hour,
			OtpTTL:            10 * time.Minute,
			AdminEmail:        "admin@prehome.io",
			AdminPasswordHash: string(adminHash),
		},
		users:         newFakeUserRepo(),
		otps:          &fakeOtpRepo{},
		properties:    newFakePropertyRepo(),
		activities:    newFakeActivityRepo(),
		notifications: &fakeNotificationRepo{},
		chats:         &fakeChatRepo{},
		forms:         &fakeFormRepo{},
		mail:          &fakeMailer{},
		google:        &fakeGoogle{identities: map[string]*firebase.GoogleIdentity{}},
		maps:          &fakeMaps{located: true, byType: map[maps.PlaceType][]maps.PlacesSearchResult{}},
		store:         &fakeStorage{},
	}

	e := echo.New()
	e.Validator = validators.NewValidator()

	env.auth = NewAuthHandler(env.users, env.otps, env.google, env.mail, env.cfg)
	env.auth.RegisterAuthRoutes(e.Group("/api/auth"))
	env.auth.RegisterAdminAuthRoutes(e.Group("/api/admin/auth"))

	propertyHandler := NewPropertyHandler(env.properties, places.NewGateway(env.maps))
	propertyHandler.RegisterPropertyRoutes(e.Group("/api/properties"))

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTAuthMiddleware(testSecret), middleware.RequireAdmin())
	propertyHandler.RegisterAdminPropertyRoutes(admin)
	NewUserHandler(env.users).RegisterAdminUserRoutes(admin)
	activityHandler := NewActivityHandler(env.activities, env.properties, env.notifications)
	activityHandler.RegisterAdminActivityRoutes(admin)
	NewUploadHandler(env.store).RegisterAdminUploadRoutes(admin)

	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(testSecret))
	activityHandler.RegisterActivityRoutes(api)
	NewNotificationHandler(env.notifications).RegisterNotificationRoutes(api)
	NewChatHandler(env.chats).RegisterChatRoutes(api)
	NewFormHandler(env.forms).RegisterFormRoutes(api)

	env.e = e
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) userToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := env.auth.generateJWT(userID, "", models.RoleUser)
	require.NoError(t, err)
	return token
}

func (env *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := env.auth.generateJWT(models.RoleAdmin, env.cfg.AdminEmail, models.RoleAdmin)
	require.NoError(t, err)
	return token
}

func (env *testEnv) addProperty(t *testing.T, p models.Property) string {
	t.Helper()
	require.NoError(t, env.properties.CreateProperty(context.Background(), &p))
	return p.ID.Hex()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	return body.Message
}
