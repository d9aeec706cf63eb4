package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) (*API, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Habit{}, &db.Action{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	if err := gdb.Create(&db.User{Username: "tester", Password: "hashed"}).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	db.DB = gdb

	return NewAPI(db.DB, time.UTC), func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var parsed map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return parsed
}

func TestCreateHabit(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	payload := map[string]any{"name": "Meditation", "color": "blue", "notes": "**every** morning"}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/admin/api/habits", payload)

	api.CreateHabit(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	habit, ok := body["habit"].(map[string]any)
	if !ok {
		t.Fatalf("expected habit object, got %v", body)
	}
	if habit["name"] != "Meditation" || habit["color"] != "blue" {
		t.Fatalf("unexpected habit payload: %v", habit)
	}
	if habit["archived"] != false {
		t.Fatalf("new habit must not be archived: %v", habit)
	}
}

func TestCreateHabitInvalidColor(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	payload := map[string]any{"name": "Meditation", "color": "mauve"}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/admin/api/habits", payload)

	api.CreateHabit(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestGetHabitNotFound(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/api/habits/999", nil)
	c.Params = gin.Params{gin.Param{Key: "id", Value: "999"}}

	api.GetHabit(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestGetHabitRendersNotesAndHistory(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := db.Habit{Name: "Reading", Color: db.ColorGreen, Notes: "**30** pages"}
	if err := db.DB.Create(&habit).Error; err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/api/habits/"+strconv.Itoa(int(habit.ID)), nil)
	c.Params = gin.Params{gin.Param{Key: "id", Value: strconv.Itoa(int(habit.ID))}}

	api.GetHabit(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	item := body["habit"].(map[string]any)

	html, _ := item["notes_html"].(string)
	if html == "" || !bytes.Contains([]byte(html), []byte("<strong>30</strong>")) {
		t.Fatalf("expected rendered markdown notes, got %q", html)
	}

	history, ok := item["history"].(map[string]any)
	if !ok {
		t.Fatalf("expected history object, got %v", item)
	}
	if history["kind"] != "clean" {
		t.Fatalf("expected clean history for habit without actions, got %v", history)
	}
	if item["total_action_count"] != float64(0) {
		t.Fatalf("expected zero action count, got %v", item["total_action_count"])
	}
}

func TestUpdateArchivedHabitConflict(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := db.Habit{Name: "Old", Color: db.ColorRed, Archived: true}
	if err := db.DB.Create(&habit).Error; err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}

	payload := map[string]any{"name": "New name", "color": "red"}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPut, "/admin/api/habits/"+strconv.Itoa(int(habit.ID)), payload)
	c.Params = gin.Params{gin.Param{Key: "id", Value: strconv.Itoa(int(habit.ID))}}

	api.UpdateHabit(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}
}

func TestToggleActionRoundTrip(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := db.Habit{Name: "Workout", Color: db.ColorYellow}
	if err := db.DB.Create(&habit).Error; err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}
	id := strconv.Itoa(int(habit.ID))

	toggle := func(toggled bool) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = jsonRequest(t, http.MethodPost, "/admin/api/habits/"+id+"/toggle", map[string]any{
			"toggled": toggled,
			"date":    "2021-03-22",
		})
		c.Params = gin.Params{gin.Param{Key: "id", Value: id}}
		api.ToggleAction(c)
		return w
	}

	listActions := func() []any {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/admin/api/habits/"+id+"/actions", nil)
		c.Params = gin.Params{gin.Param{Key: "id", Value: id}}
		api.ListActions(c)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		actions, _ := decodeBody(t, w)["actions"].([]any)
		return actions
	}

	if w := toggle(true); w.Code != http.StatusOK {
		t.Fatalf("toggle on: expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	actions := listActions()
	if len(actions) != 1 {
		t.Fatalf("expected 1 action after toggle on, got %d", len(actions))
	}
	if entry := actions[0].(map[string]any); entry["date"] != "2021-03-22" {
		t.Fatalf("unexpected action date: %v", entry)
	}

	if w := toggle(false); w.Code != http.StatusOK {
		t.Fatalf("toggle off: expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if actions := listActions(); len(actions) != 0 {
		t.Fatalf("expected no actions after toggle off, got %d", len(actions))
	}
}

func TestToggleActionInvalidDate(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := db.Habit{Name: "Workout", Color: db.ColorYellow}
	if err := db.DB.Create(&habit).Error; err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}
	id := strconv.Itoa(int(habit.ID))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/admin/api/habits/"+id+"/toggle", map[string]any{
		"toggled": true,
		"date":    "22/03/2021",
	})
	c.Params = gin.Params{gin.Param{Key: "id", Value: id}}

	api.ToggleAction(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestToggleActionArchivedHabit(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := db.Habit{Name: "Retired", Color: db.ColorCyan, Archived: true}
	if err := db.DB.Create(&habit).Error; err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}
	id := strconv.Itoa(int(habit.ID))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/admin/api/habits/"+id+"/toggle", map[string]any{
		"toggled": true,
		"date":    "2021-03-22",
	})
	c.Params = gin.Params{gin.Param{Key: "id", Value: id}}

	api.ToggleAction(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}
}

func TestListHabitsExcludesArchivedByDefault(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	active := db.Habit{Name: "Active", Color: db.ColorGreen}
	archived := db.Habit{Name: "Archived", Color: db.ColorRed, Archived: true}
	if err := db.DB.Create(&active).Error; err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}
	if err := db.DB.Create(&archived).Error; err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}

	list := func(target string) []any {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)
		api.ListHabits(c)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		habits, _ := decodeBody(t, w)["habits"].([]any)
		return habits
	}

	if habits := list("/admin/api/habits"); len(habits) != 1 {
		t.Fatalf("expected 1 active habit, got %d", len(habits))
	}
	if habits := list("/admin/api/habits?include_archived=true"); len(habits) != 2 {
		t.Fatalf("expected 2 habits with include_archived, got %d", len(habits))
	}
}
