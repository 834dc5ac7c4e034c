package integrationtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"gitlab.com/yuriy.hrytsenko/contacts-backend/internal/config"
	"gitlab.com/yuriy.hrytsenko/contacts-backend/internal/model"
	"gitlab.com/yuriy.hrytsenko/contacts-backend/internal/service"
	"gitlab.com/yuriy.hrytsenko/contacts-backend/internal/store"
)

// setupRouter connects to the real database configured through the
// environment and returns a router serving the full API. Tests in this
// package are skipped unless DBHOST is set.
func setupRouter(t *testing.T) *gin.Engine {
	if os.Getenv("DBHOST") == "" {
		t.Skip("set DBHOST, DBUSER, DBPWD and DBNAME to run integration tests against a live database")
	}
	cfg := config.Load()
	db, err := config.OpenDatabase(cfg.Database)
	if err != nil {
		t.Fatalf("could not open database: %s", err)
	}
	t.Cleanup(func() { db.Close() })
	contacts, err := store.NewContactStore(db)
	if err != nil {
		t.Fatalf("could not create store: %s", err)
	}
	gin.SetMode(gin.ReleaseMode)
	return service.New(contacts).SetupHTTPRouter(false)
}

func run(router *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest(method, url, strings.NewReader(body))
	router.ServeHTTP(recorder, request)
	return recorder
}

func contactJSON(firstName, lastName, email, phone string, birthday time.Time) string {
	return fmt.Sprintf(`{
		"first_name": %q,
		"last_name": %q,
		"email": %q,
		"phone_number": %q,
		"birthday": %q
	}`, firstName, lastName, email, phone, birthday.Format(time.RFC3339))
}

func create(t *testing.T, router *gin.Engine, body string) model.Contact {
	recorder := run(router, "POST", "/contacts", body)
	assert.Equal(t, http.StatusCreated, recorder.Code)
	var contact model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &contact)
	return contact
}

func remove(router *gin.Engine, id int64) {
	run(router, "DELETE", fmt.Sprintf("/contacts/%d", id), "")
}

// TestContactHappyPath tests a POST, GET, PUT, and DELETE with valid data.
func TestContactHappyPath(t *testing.T) {
	router := setupRouter(t)

	created := create(t, router, contactJSON("Erika", "Mustermann", "erika.mustermann@example.org",
		"+49 0815 4711", time.Date(1969, time.March, 2, 0, 0, 0, 0, time.UTC)))
	assert.NotZero(t, created.Id)
	assert.Equal(t, "Erika", created.FirstName)
	url := fmt.Sprintf("/contacts/%d", created.Id)

	// the created contact can be fetched back unchanged
	getRecorder := run(router, "GET", url, "")
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var fetched model.Contact
	json.Unmarshal(getRecorder.Body.Bytes(), &fetched)
	assert.Equal(t, created.Id, fetched.Id)
	assert.Equal(t, "Mustermann", fetched.LastName)
	assert.Equal(t, "erika.mustermann@example.org", fetched.Email)

	// a full replace rewrites every field
	putRecorder := run(router, "PUT", url, contactJSON("Rudi", "Völler", "rudi.voeller@example.org",
		"+49 1234567890", time.Date(1960, time.April, 13, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, http.StatusOK, putRecorder.Code)
	var updated model.Contact
	json.Unmarshal(putRecorder.Body.Bytes(), &updated)
	assert.Equal(t, created.Id, updated.Id)
	assert.Equal(t, "Rudi", updated.FirstName)
	assert.Equal(t, "rudi.voeller@example.org", updated.Email)

	// a subsequent lookup returns the updated values
	getAgainRecorder := run(router, "GET", url, "")
	assert.Equal(t, http.StatusOK, getAgainRecorder.Code)
	var fetchedAgain model.Contact
	json.Unmarshal(getAgainRecorder.Body.Bytes(), &fetchedAgain)
	assert.Equal(t, "Völler", fetchedAgain.LastName)

	// the deletion returns the record as it was just before
	deleteRecorder := run(router, "DELETE", url, "")
	assert.Equal(t, http.StatusOK, deleteRecorder.Code)
	var deleted model.Contact
	json.Unmarshal(deleteRecorder.Body.Bytes(), &deleted)
	assert.Equal(t, created.Id, deleted.Id)
	assert.Equal(t, "Rudi", deleted.FirstName)

	// a final lookup correctly does not find the contact anymore
	getFinalRecorder := run(router, "GET", url, "")
	assert.Equal(t, http.StatusNotFound, getFinalRecorder.Code)
}

// TestFilteredListAndPaging creates a handful of contacts with a unique
// marker in the last name and verifies substring filtering, filter
// composition, and that paging never repeats a record.
func TestFilteredListAndPaging(t *testing.T) {
	router := setupRouter(t)

	marker := fmt.Sprintf("Ztest%d", time.Now().UnixNano())
	firstNames := []string{"Anton", "Antonia", "Berta", "Bertram", "Cornelia"}
	var ids []int64
	for i, name := range firstNames {
		email := fmt.Sprintf("%s.%s@example.org", strings.ToLower(name), strings.ToLower(marker))
		contact := create(t, router, contactJSON(name, marker, email,
			"+420 111 222 333", time.Date(1990, time.June, 1+i, 0, 0, 0, 0, time.UTC)))
		ids = append(ids, contact.Id)
	}
	defer func() {
		for _, id := range ids {
			remove(router, id)
		}
	}()

	// substring match on the last name finds exactly the created records
	listRecorder := run(router, "GET", "/contacts?last_name="+marker, "")
	assert.Equal(t, http.StatusOK, listRecorder.Code)
	var listed []model.Contact
	json.Unmarshal(listRecorder.Body.Bytes(), &listed)
	assert.Equal(t, len(firstNames), len(listed))

	// combining two filters returns only contacts matching both
	bothRecorder := run(router, "GET", "/contacts?last_name="+marker+"&first_name=Ant", "")
	var both []model.Contact
	json.Unmarshal(bothRecorder.Body.Bytes(), &both)
	assert.Equal(t, 2, len(both))
	for _, contact := range both {
		assert.Contains(t, contact.FirstName, "Ant")
		assert.Contains(t, contact.LastName, marker)
	}

	// paging through the filtered set never repeats a record
	seen := map[int64]bool{}
	for skip := 0; skip < len(firstNames); skip += 2 {
		pageRecorder := run(router, "GET",
			fmt.Sprintf("/contacts?last_name=%s&limit=2&skip=%d", marker, skip), "")
		var page []model.Contact
		json.Unmarshal(pageRecorder.Body.Bytes(), &page)
		assert.LessOrEqual(t, len(page), 2)
		for _, contact := range page {
			assert.False(t, seen[contact.Id], "contact %d appeared on two pages", contact.Id)
			seen[contact.Id] = true
		}
	}
	assert.Equal(t, len(firstNames), len(seen))
}

// TestUpcomingBirthdaysWindow creates one contact whose birthday is a few
// days ahead and one whose birthday has just passed, then checks which of
// the two the window query reports. The window may cross into January
// depending on the day the test runs; both shapes must behave the same.
func TestUpcomingBirthdaysWindow(t *testing.T) {
	router := setupRouter(t)

	today := time.Now().UTC()
	soon := today.AddDate(0, 0, 3)
	past := today.AddDate(0, 0, -10)

	inside := create(t, router, contactJSON("Within", "Window",
		fmt.Sprintf("within.window%d@example.org", today.UnixNano()), "+1 555 0100",
		time.Date(1990, soon.Month(), soon.Day(), 0, 0, 0, 0, time.UTC)))
	outside := create(t, router, contactJSON("Outside", "Window",
		fmt.Sprintf("outside.window%d@example.org", today.UnixNano()), "+1 555 0101",
		time.Date(1985, past.Month(), past.Day(), 0, 0, 0, 0, time.UTC)))
	defer remove(router, inside.Id)
	defer remove(router, outside.Id)

	recorder := run(router, "GET", "/contacts/birthdays?days=7", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	var matched []model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &matched)

	foundInside, foundOutside := false, false
	for _, contact := range matched {
		if contact.Id == inside.Id {
			foundInside = true
		}
		if contact.Id == outside.Id {
			foundOutside = true
		}
	}
	assert.True(t, foundInside, "contact with birthday in %d days must be reported", 3)
	assert.False(t, foundOutside, "contact with birthday 10 days ago must not be reported")
}
