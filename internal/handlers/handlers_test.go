package handlers_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"fleetdesk/internal/config"
	"fleetdesk/internal/handlers"
	"fleetdesk/internal/middleware"
	"fleetdesk/internal/repositories/memory"
	"fleetdesk/internal/services"
	"fleetdesk/internal/utils"
	"fleetdesk/pkg/logger"
	"fleetdesk/pkg/storage"
	"fleetdesk/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOrg  = "org-1"
	testUser = "dispatcher-1"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiResult struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *utils.APIError `json:"error"`
	Meta   *utils.Meta     `json:"meta"`
}

type testAPI struct {
	t        *testing.T
	router   *gin.Engine
	photoDir string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := memory.NewStore()
	notifier := services.NewNotificationEmitter(services.NotificationEmitterConfig{Store: store})
	safety := services.NewSafetyInspectionService(store, nil, notifier, nil)
	routeService := services.NewRouteLifecycleService(services.RouteLifecycleConfig{
		Store:    store,
		Safety:   safety,
		Notifier: notifier,
	})
	fleet := services.NewFleetService(store, notifier, nil)

	photoDir := t.TempDir()
	photos, err := storage.NewLocalStorage(photoDir, "http://files.test")
	require.NoError(t, err)
	pod := services.NewPODPhotoService(routeService, photos, 1<<20, nil)

	cfg := &config.Config{
		App:   &config.AppConfig{Name: "fleetdesk", Version: "test", Environment: "test"},
		Store: &config.StoreConfig{Provider: "memory"},
	}

	log := logger.Discard()
	r := gin.New()
	r.GET("/health", handlers.NewHealthHandler(cfg, store, nil).Health)
	v1 := r.Group("/api/v1")
	v1.Use(middleware.OrganizationScope("secret", true))
	routes.SetupRouteRoutes(v1, handlers.NewRouteHandler(routeService, pod, log))
	routes.SetupFleetRoutes(v1, handlers.NewFleetHandler(fleet, log))
	routes.SetupSafetyRoutes(v1, handlers.NewSafetyHandler(safety, log))
	routes.SetupNotificationRoutes(v1, handlers.NewNotificationHandler(notifier, log))

	return &testAPI{t: t, router: r, photoDir: photoDir}
}

func (a *testAPI) do(req *http.Request) (int, apiResult) {
	a.t.Helper()
	req.Header.Set("X-Organization-ID", testOrg)
	req.Header.Set("X-User-ID", testUser)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var result apiResult
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &result), rec.Body.String())
	return rec.Code, result
}

func (a *testAPI) call(method, path string, body interface{}) (int, apiResult) {
	a.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(a.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

func decode(t *testing.T, raw json.RawMessage, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, dest))
}

type routeBody struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Progress      int    `json:"progress"`
	DriverID      string `json:"driver_id"`
	VehiclePlate  string `json:"vehicle_plate"`
	TotalExpenses string `json:"total_expenses"`
	Balance       string `json:"balance"`
	Version       int64  `json:"version"`
	Stops         []struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		RecipientName string `json:"recipient_name"`
		PODPhotoURL   string `json:"pod_photo_url"`
	} `json:"stops"`
}

type stopBody struct {
	Route                    routeBody `json:"route"`
	AutoCompleted            bool      `json:"auto_completed"`
	RequiresManualCompletion bool      `json:"requires_manual_completion"`
}

// assignedRoute creates a driver, a vehicle and a two-stop route, then
// assigns them.
func (a *testAPI) assignedRoute() routeBody {
	a.t.Helper()

	code, res := a.call(http.MethodPost, "/api/v1/drivers", gin.H{"name": "Ana Ruiz", "phone": "+14155550100"})
	require.Equal(a.t, http.StatusCreated, code)
	var driver struct{ ID string }
	decode(a.t, res.Data, &driver)

	code, res = a.call(http.MethodPost, "/api/v1/vehicles", gin.H{"plate": "abc-123"})
	require.Equal(a.t, http.StatusCreated, code)
	var vehicle struct{ ID string }
	decode(a.t, res.Data, &vehicle)

	code, res = a.call(http.MethodPost, "/api/v1/routes", gin.H{
		"name":     "Morning run",
		"rate":     250,
		"distance": 12.5,
		"stops": []gin.H{
			{"address": "1 Dock Rd"},
			{"address": "2 Mill St"},
		},
	})
	require.Equal(a.t, http.StatusCreated, code)
	var route routeBody
	decode(a.t, res.Data, &route)

	code, res = a.call(http.MethodPost, "/api/v1/routes/"+route.ID+"/assign", gin.H{
		"driver_id":  driver.ID,
		"vehicle_id": vehicle.ID,
	})
	require.Equal(a.t, http.StatusOK, code, res.Error)
	decode(a.t, res.Data, &route)
	return route
}

func TestCreateRoute(t *testing.T) {
	api := newTestAPI(t)

	code, res := api.call(http.MethodPost, "/api/v1/routes", gin.H{
		"name":  "Morning run",
		"rate":  100,
		"stops": []gin.H{{"address": "1 Dock Rd"}},
	})
	require.Equal(t, http.StatusCreated, code)

	var route routeBody
	decode(t, res.Data, &route)
	assert.Equal(t, "Pending", route.Status)
	assert.Equal(t, "100.00", route.Balance)
	assert.Equal(t, "0.00", route.TotalExpenses)
	require.Len(t, route.Stops, 1)
	assert.Equal(t, "pending", route.Stops[0].Status)

	code, res = api.call(http.MethodGet, "/api/v1/routes", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, res.Meta.Count)
}

func TestCreateRouteValidation(t *testing.T) {
	api := newTestAPI(t)

	code, res := api.call(http.MethodPost, "/api/v1/routes", gin.H{"rate": -1})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, res.Error)
	assert.Equal(t, utils.CodeValidation, res.Error.Code)
	assert.Contains(t, res.Error.Details, "name")
}

func TestListRoutesRejectsUnknownStatus(t *testing.T) {
	api := newTestAPI(t)

	code, _ := api.call(http.MethodGet, "/api/v1/routes?status=Lost", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRequestsNeedOrganizationScope(t *testing.T) {
	api := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/routes", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	api := newTestAPI(t)
	route := api.assignedRoute()
	stopID := route.Stops[0].ID

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{
			name:   "unknown route",
			method: http.MethodGet,
			path:   "/api/v1/routes/missing",
			status: http.StatusNotFound,
			code:   utils.CodeNotFound,
		},
		{
			name:   "edit after assignment",
			method: http.MethodPatch,
			path:   "/api/v1/routes/" + route.ID,
			body:   gin.H{"name": "Renamed"},
			status: http.StatusConflict,
			code:   utils.CodePolicyViolation,
		},
		{
			name:   "skip arrival",
			method: http.MethodPatch,
			path:   "/api/v1/routes/" + route.ID + "/stops/" + stopID,
			body:   gin.H{"status": "completed"},
			status: http.StatusUnprocessableEntity,
			code:   utils.CodeInvalidTransition,
		},
		{
			name:   "fail without reason",
			method: http.MethodPatch,
			path:   "/api/v1/routes/" + route.ID + "/stops/" + stopID,
			body:   gin.H{"status": "failed"},
			status: http.StatusUnprocessableEntity,
			code:   utils.CodeInvalidTransition,
		},
		{
			name:   "complete with open stops",
			method: http.MethodPost,
			path:   "/api/v1/routes/" + route.ID + "/complete",
			status: http.StatusConflict,
			code:   utils.CodePreconditionFailed,
		},
		{
			name:   "manual on-route status",
			method: http.MethodPatch,
			path:   "/api/v1/drivers/" + route.DriverID + "/status",
			body:   gin.H{"status": "On-route"},
			status: http.StatusBadRequest,
			code:   utils.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, res := api.call(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, code)
			require.NotNil(t, res.Error)
			assert.Equal(t, tt.code, res.Error.Code)
		})
	}
}

func TestStopWorkflowAutoCompletes(t *testing.T) {
	api := newTestAPI(t)
	route := api.assignedRoute()
	assert.Equal(t, "In Progress", route.Status)
	assert.Equal(t, "ABC-123", route.VehiclePlate)

	base := "/api/v1/routes/" + route.ID + "/stops/"
	first, second := route.Stops[0].ID, route.Stops[1].ID

	code, res := api.call(http.MethodPatch, base+first, gin.H{"status": "arrived"})
	require.Equal(t, http.StatusOK, code)

	code, res = api.call(http.MethodPost, base+first+"/pod", gin.H{"recipient_name": "Front desk"})
	require.Equal(t, http.StatusOK, code)
	var result stopBody
	decode(t, res.Data, &result)
	assert.Equal(t, 50, result.Route.Progress)
	assert.False(t, result.AutoCompleted)

	// Resubmitting the same proof is accepted without a change.
	code, res = api.call(http.MethodPost, base+first+"/pod", gin.H{"recipient_name": "Front desk"})
	require.Equal(t, http.StatusOK, code)
	decode(t, res.Data, &result)
	assert.Equal(t, 50, result.Route.Progress)

	code, _ = api.call(http.MethodPost, base+second+"/pod", gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, res = api.call(http.MethodPost, base+second+"/pod", gin.H{"recipient_name": "J. Doe", "delivery_notes": "Left at dock"})
	require.Equal(t, http.StatusOK, code)
	decode(t, res.Data, &result)
	assert.True(t, result.AutoCompleted)
	assert.Equal(t, "Completed", result.Route.Status)
	assert.Equal(t, 100, result.Route.Progress)

	code, res = api.call(http.MethodGet, "/api/v1/drivers/"+route.DriverID, nil)
	require.Equal(t, http.StatusOK, code)
	var driver struct{ Status string }
	decode(t, res.Data, &driver)
	assert.Equal(t, "Idle", driver.Status)
}

func TestFailedStopNeedsManualCompletion(t *testing.T) {
	api := newTestAPI(t)
	route := api.assignedRoute()
	base := "/api/v1/routes/" + route.ID + "/stops/"

	code, _ := api.call(http.MethodPatch, base+route.Stops[0].ID, gin.H{"status": "failed", "notes": "Closed"})
	require.Equal(t, http.StatusOK, code)
	code, _ = api.call(http.MethodPatch, base+route.Stops[1].ID, gin.H{"status": "arrived"})
	require.Equal(t, http.StatusOK, code)

	code, res := api.call(http.MethodPost, base+route.Stops[1].ID+"/pod", gin.H{"recipient_name": "J. Doe"})
	require.Equal(t, http.StatusOK, code)
	var result stopBody
	decode(t, res.Data, &result)
	assert.False(t, result.AutoCompleted)
	assert.True(t, result.RequiresManualCompletion)

	code, res = api.call(http.MethodPost, "/api/v1/routes/"+route.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, code)
	var completed routeBody
	decode(t, res.Data, &completed)
	assert.Equal(t, "Completed", completed.Status)
}

func TestAddExpense(t *testing.T) {
	api := newTestAPI(t)
	route := api.assignedRoute()

	code, res := api.call(http.MethodPost, "/api/v1/routes/"+route.ID+"/expenses", gin.H{"type": "fuel", "amount": 70.5})
	require.Equal(t, http.StatusCreated, code)

	var updated routeBody
	decode(t, res.Data, &updated)
	assert.Equal(t, "70.50", updated.TotalExpenses)
	assert.Equal(t, "179.50", updated.Balance)

	code, _ = api.call(http.MethodPost, "/api/v1/routes/"+route.ID+"/expenses", gin.H{"type": "fuel", "amount": 0})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSubmitPODWithPhoto(t *testing.T) {
	api := newTestAPI(t)
	route := api.assignedRoute()
	base := "/api/v1/routes/" + route.ID + "/stops/" + route.Stops[0].ID

	code, _ := api.call(http.MethodPatch, base, gin.H{"status": "arrived"})
	require.Equal(t, http.StatusOK, code)

	code, res := api.do(podForm(t, base+"/pod", "Front desk"))
	require.Equal(t, http.StatusOK, code, res.Error)

	var result stopBody
	decode(t, res.Data, &result)
	stop := result.Route.Stops[0]
	assert.Equal(t, "completed", stop.Status)
	assert.Equal(t, "Front desk", stop.RecipientName)
	assert.True(t, strings.HasPrefix(stop.PODPhotoURL, "http://files.test/pod/"+testOrg+"/"+route.ID+"/"), stop.PODPhotoURL)
}

func TestRejectedPODDiscardsUploadedPhoto(t *testing.T) {
	api := newTestAPI(t)
	route := api.assignedRoute()
	base := "/api/v1/routes/" + route.ID + "/stops/" + route.Stops[0].ID

	code, _ := api.call(http.MethodPatch, base, gin.H{"status": "failed", "notes": "Closed"})
	require.Equal(t, http.StatusOK, code)

	code, _ = api.do(podForm(t, base+"/pod", "Front desk"))
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	var stored []string
	require.NoError(t, filepath.WalkDir(api.photoDir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			stored = append(stored, path)
		}
		return err
	}))
	assert.Empty(t, stored)
}

// podForm builds a multipart POD submission carrying a small PNG photo.
func podForm(t *testing.T, path, recipient string) *http.Request {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var photo bytes.Buffer
	require.NoError(t, png.Encode(&photo, img))

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("recipient_name", recipient))
	part, err := form.CreateFormFile("photo", "door.png")
	require.NoError(t, err)
	_, err = part.Write(photo.Bytes())
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req
}

func TestUploadPODPhotoRejectsNonImage(t *testing.T) {
	api := newTestAPI(t)
	route := api.assignedRoute()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("photo", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("not an image"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/routes/"+route.ID+"/stops/"+route.Stops[0].ID+"/photo", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	code, _ := api.do(req)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDuplicatePlateConflicts(t *testing.T) {
	api := newTestAPI(t)

	code, _ := api.call(http.MethodPost, "/api/v1/vehicles", gin.H{"plate": "XYZ-9"})
	require.Equal(t, http.StatusCreated, code)

	code, res := api.call(http.MethodPost, "/api/v1/vehicles", gin.H{"plate": "xyz-9"})
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, res.Error)
	assert.Equal(t, utils.CodeConflict, res.Error.Code)
}

func TestCreatorNotifiedOnCompletion(t *testing.T) {
	api := newTestAPI(t)
	route := api.assignedRoute()

	for _, stop := range route.Stops {
		code, _ := api.call(http.MethodPatch, "/api/v1/routes/"+route.ID+"/stops/"+stop.ID, gin.H{"status": "failed", "notes": "No access"})
		require.Equal(t, http.StatusOK, code)
	}
	code, _ := api.call(http.MethodPost, "/api/v1/routes/"+route.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, code)

	code, res := api.call(http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, code)

	var notifications []struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	}
	decode(t, res.Data, &notifications)
	require.NotEmpty(t, notifications)

	code, _ = api.call(http.MethodPatch, "/api/v1/notifications/"+notifications[0].ID+"/read", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.call(http.MethodPatch, "/api/v1/notifications/missing/read", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestChecklist(t *testing.T) {
	api := newTestAPI(t)

	code, res := api.call(http.MethodGet, "/api/v1/safety/checklist", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, res.Data)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res apiResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	var data struct {
		Store  string            `json:"store"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, res.Data, &data)
	assert.Equal(t, "memory", data.Store)
	assert.Equal(t, "ok", data.Checks["store"])
}
