package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pos_tables_backend/internal/cache"
	"pos_tables_backend/internal/models"
	"pos_tables_backend/internal/repositories/mocks"
	"pos_tables_backend/internal/router"
	"pos_tables_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("handler-test-secret")

type apiErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type openResponse struct {
	Token     string           `json:"token"`
	SessionID string           `json:"session_id"`
	View      models.TableView `json:"view"`
}

func networkProfile() *models.PrintProfile {
	return &models.PrintProfile{
		Name:        "Counter",
		Branch:      "Main",
		PrintType:   models.PrintTypeNetwork,
		Printer:     "Kitchen-1",
		PrintFormat: "Bill",
		Cashier:     "alice",
	}
}

func newEngine(gw *mocks.Gateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	router.Setup(engine, router.Dependencies{
		Sessions:      services.NewSessionService(gw, cache.NewMemoryStore(), testSecret, time.Hour),
		Printer:       services.NewTablePrintService(gw, services.NewPrintService(gw, services.PrintServiceOptions{})),
		SessionSecret: testSecret,
	})
	return engine
}

func do(engine *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

// openSession opens a session on room R1 holding an occupied T1 and a free T2.
func openSession(t *testing.T, profile *models.PrintProfile) (*gin.Engine, *mocks.Gateway, string) {
	t.Helper()
	gw := &mocks.Gateway{}
	gw.On("GetPrintProfile", mock.Anything, profile.Name).Return(profile, nil).Once()
	gw.On("ListRooms", mock.Anything, "Main").Return([]models.Room{{Name: "R1", Branch: "Main"}}, nil).Once()
	gw.On("CountTables", mock.Anything, "R1", "Main").Return(1, nil).Once()
	gw.On("ListTables", mock.Anything, "R1").Return([]models.Table{
		{Name: "T2", RestaurantRoom: "R1"},
		{Name: "T1", RestaurantRoom: "R1", Occupied: true},
	}, nil).Once()

	engine := newEngine(gw)
	rec := do(engine, http.MethodPost, "/api/v1/session", "", gin.H{"pos_profile": profile.Name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp openResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "R1", resp.View.SelectedRoom)
	require.Equal(t, models.SliceReady, resp.View.Tables.Status)
	require.Len(t, resp.View.Tables.Data, 2)
	require.Equal(t, "T1", resp.View.Tables.Data[0].Name)
	require.Equal(t, 1, resp.View.RoomCounts.Data["R1"])
	return engine, gw, resp.Token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiErrorBody {
	t.Helper()
	var body apiErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestOpenSession_RequiresProfile(t *testing.T) {
	engine := newEngine(&mocks.Gateway{})
	rec := do(engine, http.MethodPost, "/api/v1/session", "", gin.H{"branch": "Main"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "VALIDATION_FAILED", decodeError(t, rec).Error.Code)
}

func TestSessionRoutes_RejectMissingOrBadToken(t *testing.T) {
	engine := newEngine(&mocks.Gateway{})

	rec := do(engine, http.MethodGet, "/api/v1/tables/view", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(engine, http.MethodGet, "/api/v1/tables/view", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Error.Code)
}

func TestGetView_ReturnsSnapshotWithoutGatewayCalls(t *testing.T) {
	engine, gw, token := openSession(t, networkProfile())

	rec := do(engine, http.MethodGet, "/api/v1/tables/view", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view models.TableView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "Main", view.Branch)
	require.Equal(t, []models.Room{{Name: "R1", Branch: "Main"}}, view.Rooms.Data)
	gw.AssertNumberOfCalls(t, "ListTables", 1)
}

func TestSelectRoom_LoadsOtherRoom(t *testing.T) {
	engine, gw, token := openSession(t, networkProfile())
	gw.On("ListTables", mock.Anything, "Main Hall").Return([]models.Table{{Name: "M1", RestaurantRoom: "Main Hall"}}, nil).Once()

	rec := do(engine, http.MethodPost, "/api/v1/rooms/Main%20Hall/select", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view models.TableView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "Main Hall", view.SelectedRoom)
	require.Equal(t, "M1", view.Tables.Data[0].Name)
}

func TestPrintTable_SuccessReturnsResultAndRefreshedView(t *testing.T) {
	engine, gw, token := openSession(t, networkProfile())
	gw.On("GetActiveOrder", mock.Anything, "T1").Return("INV-01", nil).Once()
	gw.On("PrintToNetwork", mock.Anything, "INV-01", "Kitchen-1", "Bill").Return(nil).Once()
	gw.On("MarkPrinted", mock.Anything, "INV-01").Return(nil).Once()
	gw.On("ListTables", mock.Anything, "R1").Return([]models.Table{
		{Name: "T1", RestaurantRoom: "R1"},
		{Name: "T2", RestaurantRoom: "R1"},
	}, nil).Once()
	gw.On("CountTables", mock.Anything, "R1", "Main").Return(0, nil).Once()

	rec := do(engine, http.MethodPost, "/api/v1/tables/T1/print", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Result models.PrintResult `json:"result"`
		View   models.TableView   `json:"view"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, models.PrintChannelNetwork, resp.Result.Channel)
	require.Equal(t, "INV-01", resp.Result.OrderID)
	require.False(t, bool(resp.View.Tables.Data[0].Occupied))
	require.Equal(t, 0, resp.View.RoomCounts.Data["R1"])
	gw.AssertExpectations(t)
}

func TestPrintTable_ErrorStatusMapping(t *testing.T) {
	t.Run("no active order", func(t *testing.T) {
		engine, gw, token := openSession(t, networkProfile())
		gw.On("GetActiveOrder", mock.Anything, "T2").Return("", nil).Once()

		rec := do(engine, http.MethodPost, "/api/v1/tables/T2/print", token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "NO_ACTIVE_ORDER", decodeError(t, rec).Error.Code)
	})

	t.Run("direct printing without host", func(t *testing.T) {
		profile := networkProfile()
		profile.PrintType = models.PrintTypeQZ
		engine, gw, token := openSession(t, profile)
		gw.On("GetActiveOrder", mock.Anything, "T1").Return("INV-01", nil).Once()

		rec := do(engine, http.MethodPost, "/api/v1/tables/T1/print", token, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "PRINT_CONFIGURATION", decodeError(t, rec).Error.Code)
	})

	t.Run("printer failure", func(t *testing.T) {
		engine, gw, token := openSession(t, networkProfile())
		gw.On("GetActiveOrder", mock.Anything, "T1").Return("INV-01", nil).Once()
		gw.On("PrintToNetwork", mock.Anything, "INV-01", "Kitchen-1", "Bill").Return(errors.New("printer offline")).Once()

		rec := do(engine, http.MethodPost, "/api/v1/tables/T1/print", token, nil)
		require.Equal(t, http.StatusBadGateway, rec.Code)
		body := decodeError(t, rec)
		require.Equal(t, "PRINT_FAILED", body.Error.Code)
		require.Equal(t, "printer offline", body.Error.Message)
	})

	t.Run("table not displayed", func(t *testing.T) {
		engine, _, token := openSession(t, networkProfile())
		rec := do(engine, http.MethodPost, "/api/v1/tables/T9/print", token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCloseSession_InvalidatesToken(t *testing.T) {
	engine, _, token := openSession(t, networkProfile())

	rec := do(engine, http.MethodDelete, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(engine, http.MethodGet, "/api/v1/tables/view", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
