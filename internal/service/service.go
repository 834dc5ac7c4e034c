package service

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gitlab.com/yuriy.hrytsenko/contacts-backend/internal/model"
	"gitlab.com/yuriy.hrytsenko/contacts-backend/internal/store"
)

// defaultListLimit is the page size used when the 'limit' URL parameter is
// omitted. The store has a smaller default of its own; the HTTP layer is
// always explicit so that only this one applies to API calls.
const defaultListLimit = 100

// Service translates HTTP requests into contact store calls. It contains no
// logic of its own beyond parameter parsing and mapping the store's
// not-found result onto 404 responses.
type Service struct {
	contacts *store.ContactStore
}

// New creates a Service on top of the given contact store.
func New(contacts *store.ContactStore) *Service {
	return &Service{contacts: contacts}
}

// SetupHTTPRouter initializes the REST API router and registers all
// endpoints. Request logging can be turned off for tests and benchmarks.
func (s *Service) SetupHTTPRouter(logging bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if logging {
		router.Use(requestLogger())
	}
	router.GET("/contacts", s.findContacts)
	router.POST("/contacts", s.createContact)
	router.GET("/contacts/birthdays", s.upcomingBirthdays)
	router.GET("/contacts/:id", s.findContactByID)
	router.PUT("/contacts/:id", s.updateContactByID)
	router.DELETE("/contacts/:id", s.deleteContactByID)
	return router
}

// requestLogger emits one structured log line per handled request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency_ms", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// findContacts responds with a list of contacts as JSON.
//
// The URL parameters 'first_name', 'last_name' and 'email' each restrict
// the result to contacts whose field contains the given value as a
// substring. All provided filters must match at the same time.
//
// The URL parameter 'limit' specifies how many contacts matching the search
// criteria are returned and defaults to 100. The URL parameter 'skip'
// specifies how many items of the filtered result are skipped in the
// beginning and defaults to 0. Together they implement search result paging.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts"
//	> curl "http://localhost:8080/contacts?first_name=Ji"
//	> curl "http://localhost:8080/contacts?last_name=Smi&email=example.org"
//	> curl "http://localhost:8080/contacts?limit=20&skip=60"
func (s *Service) findContacts(c *gin.Context) {
	skip, limit, ok := parseSkipAndLimit(c)
	if !ok {
		return
	}
	contacts, err := s.contacts.List(store.ListFilter{
		Skip:      skip,
		Limit:     limit,
		FirstName: c.Query("first_name"),
		LastName:  c.Query("last_name"),
		Email:     c.Query("email"),
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// parseSkipAndLimit inspects the URL parameters and determines values for
// skip and limit of the result set.
func parseSkipAndLimit(c *gin.Context) (skip int, limit int, success bool) {
	limit = defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid limit parameter"})
			return 0, 0, false
		}
	}
	if raw := c.Query("skip"); raw != "" {
		var err error
		skip, err = strconv.Atoi(raw)
		if err != nil || skip < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid skip parameter"})
			return 0, 0, false
		}
	}
	return skip, limit, true
}

// createContact inserts the contact specified in the request's JSON into
// the database. It responds with the full contact data including the newly
// assigned id. All fields except 'additional_info' are required; the names
// are bounded to 50 characters and the email address must be syntactically
// valid.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"first_name": "Hans", "last_name": "Wurst", "email": "hans@example.org", "phone_number": "0815", "birthday": "1969-03-02T00:00:00Z"}'
func (s *Service) createContact(c *gin.Context) {
	var base model.ContactBase
	if err := c.ShouldBindJSON(&base); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid contact data"})
		return
	}
	contact, err := s.contacts.Create(base)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, contact)
}

// findContactByID locates the contact whose ID value matches the id
// parameter of the request URL, then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56
func (s *Service) findContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	contact, err := s.contacts.GetByID(id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID replaces all fields of the contact whose ID value
// matches the id parameter of the request URL with the values from the
// JSON body, and responds with the new version of the contact. This is a
// full replace: the body must carry every field a create would, and an
// omitted 'additional_info' is written as null.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"first_name": "Erika", "last_name": "Mustermann", "email": "erika@example.org", "phone_number": "81970", "birthday": "1972-06-06T00:00:00Z"}'
func (s *Service) updateContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var base model.ContactBase
	if err := c.ShouldBindJSON(&base); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid contact data"})
		return
	}
	contact, err := s.contacts.Update(id, base)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the contact whose ID value matches the id
// parameter of the request URL from the database and responds with the
// contact as it was immediately before the deletion.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "DELETE"
func (s *Service) deleteContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	contact, err := s.contacts.Delete(id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// upcomingBirthdays responds with all contacts whose birthday falls within
// the next 'days' days, counted from today inclusive. The comparison uses
// only month and day, so the birth year never matters. An empty list is a
// normal response, not an error.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/birthdays?days=7"
func (s *Service) upcomingBirthdays(c *gin.Context) {
	days, err := strconv.Atoi(c.Query("days"))
	if err != nil || days < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid days parameter"})
		return
	}
	contacts, err := s.contacts.UpcomingBirthdays(days)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// parseID reads the id path parameter. Following the REST convention of
// this API, a non-numeric id is answered with NOT FOUND without reaching
// out to the database.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return 0, false
	}
	return id, true
}

// respondStoreError maps a store error onto the HTTP response: a missing
// row becomes 404, anything else is logged and answered with 500.
func respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("persistence failure")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
}
