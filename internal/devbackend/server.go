package devbackend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
)

const (
	objectPrefix          = "pet-profiles"
	defaultMainImage      = "main.jpg"
	defaultMaxObjectBytes = 20 << 20
)

// Server serves the listing backend contract over gin.
type Server struct {
	listings       ListingStore
	objects        ObjectStore
	publicURL      string
	newID          func() string
	logger         *slog.Logger
	maxObjectBytes int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator overrides how pet ids are generated when the client sends none.
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithMaxObjectBytes bounds a single uploaded object.
func WithMaxObjectBytes(limit int64) Option {
	return func(s *Server) {
		if limit > 0 {
			s.maxObjectBytes = limit
		}
	}
}

// NewServer builds a Server. publicURL is the externally reachable base used in upload and file URLs.
func NewServer(listings ListingStore, objects ObjectStore, publicURL string, opts ...Option) *Server {
	s := &Server{
		listings:       listings,
		objects:        objects,
		publicURL:      strings.TrimRight(publicURL, "/"),
		newID:          uuid.NewString,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxObjectBytes: defaultMaxObjectBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Router returns a gin engine with the backend routes. Middleware is installed first.
func (s *Server) Router(middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/pets", s.listPets)
	router.POST("/pets", s.createPet)
	router.GET("/pets/owner/:ownerId", s.petsByOwner)
	router.GET("/pets/:petId", s.getPet)
	router.PUT("/pets/:petId", s.updatePet)
	router.DELETE("/pets/:petId", s.deletePet)
	router.POST("/generate-upload-url", s.generateUploadURLs)
	router.PUT("/uploads/*key", s.putObject)
	router.GET("/uploads/*key", s.getObject)
	return router
}

func (s *Server) listPets(c *gin.Context) {
	query, err := ParseQuery(c.Request.URL.Query())
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	records, err := s.listings.All(c.Request.Context())
	if err != nil {
		s.internalError(c, "list pets", err)
		return
	}
	pets, next := query.Apply(records)
	c.JSON(http.StatusOK, listingtypes.ListingPage{Listings: pets, NextToken: next})
}

func (s *Server) getPet(c *gin.Context) {
	rec, err := s.listings.Get(c.Request.Context(), c.Param("petId"))
	if err != nil {
		s.storeError(c, "get pet", err)
		return
	}
	c.JSON(http.StatusOK, rec.Entity)
}

func (s *Server) petsByOwner(c *gin.Context) {
	ownerID := c.Param("ownerId")
	records, err := s.listings.All(c.Request.Context())
	if err != nil {
		s.internalError(c, "pets by owner", err)
		return
	}
	pets := []domain.Listing{}
	for _, rec := range records {
		if rec.Entity.OwnerID == ownerID {
			pets = append(pets, rec.Entity)
		}
	}
	c.JSON(http.StatusOK, pets)
}

func (s *Server) createPet(c *gin.Context) {
	var listing domain.Listing
	if err := c.ShouldBindJSON(&listing); err != nil {
		respondError(c, http.StatusBadRequest, "Bad Request: invalid pet body")
		return
	}
	listing.ID = strings.TrimSpace(listing.ID)
	if listing.ID == "" {
		listing.ID = s.newID()
	}
	listing = listing.Normalized()
	if _, err := s.listings.Put(c.Request.Context(), listing); err != nil {
		s.internalError(c, "create pet", err)
		return
	}
	s.logger.Info("pet created", slog.String("listing.id", listing.ID), slog.String("owner.id", listing.OwnerID))
	c.JSON(http.StatusCreated, listingtypes.CreateResult{ListingID: listing.ID, Message: "Pet created successfully"})
}

// updatePet merges the posted attributes into the stored listing.
func (s *Server) updatePet(c *gin.Context) {
	id := c.Param("petId")
	rec, err := s.listings.Get(c.Request.Context(), id)
	if err != nil {
		s.storeError(c, "update pet", err)
		return
	}
	merged, err := mergeListing(rec.Entity, c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Bad Request: invalid pet body")
		return
	}
	merged.ID = id
	merged = merged.Normalized()
	if _, err := s.listings.Put(c.Request.Context(), merged); err != nil {
		s.internalError(c, "update pet", err)
		return
	}
	s.logger.Info("pet updated", slog.String("listing.id", id))
	c.JSON(http.StatusOK, gin.H{"message": "Pet updated successfully", "updated_attributes": merged})
}

func (s *Server) deletePet(c *gin.Context) {
	id := c.Param("petId")
	if err := s.listings.Delete(c.Request.Context(), id); err != nil {
		s.storeError(c, "delete pet", err)
		return
	}
	s.logger.Info("pet deleted", slog.String("listing.id", id))
	c.JSON(http.StatusOK, gin.H{"message": "Pet deleted successfully"})
}

func (s *Server) generateUploadURLs(c *gin.Context) {
	var request listingtypes.UploadTargetRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "Bad Request: invalid body")
		return
	}
	petID := strings.TrimSpace(request.ListingID)
	if petID == "" || strings.Contains(petID, "/") {
		respondError(c, http.StatusBadRequest, "pet_id is required")
		return
	}
	mainImage := strings.TrimSpace(request.MainImage)
	if mainImage == "" {
		mainImage = defaultMainImage
	}
	targets := listingtypes.UploadTargets{}
	for key, name := range uploadNames(mainImage, request.Filenames) {
		if !safeObjectName(name) {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid filename %q", name))
			return
		}
		targets[key] = s.target(petID, name)
	}
	c.JSON(http.StatusOK, targets)
}

func uploadNames(mainImage string, filenames []string) map[string]string {
	names := map[string]string{listingtypes.MainImageKey: mainImage}
	for _, name := range filenames {
		names[name] = name
	}
	return names
}

func (s *Server) target(petID, name string) listingtypes.UploadTarget {
	objectURL := fmt.Sprintf("%s/uploads/%s/%s/%s", s.publicURL, objectPrefix, petID, name)
	return listingtypes.UploadTarget{UploadURL: objectURL, FileURL: objectURL}
}

func (s *Server) putObject(c *gin.Context) {
	key, ok := objectKey(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid object key")
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxObjectBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "object too large")
			return
		}
		respondError(c, http.StatusBadRequest, "unreadable body")
		return
	}
	contentType := c.GetHeader("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if err := s.objects.PutObject(c.Request.Context(), Object{Key: key, ContentType: contentType, Data: data}); err != nil {
		s.internalError(c, "put object", err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) getObject(c *gin.Context) {
	key, ok := objectKey(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid object key")
		return
	}
	object, err := s.objects.GetObject(c.Request.Context(), key)
	if err != nil {
		s.storeError(c, "get object", err)
		return
	}
	c.Data(http.StatusOK, object.ContentType, object.Data)
}

func objectKey(c *gin.Context) (string, bool) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || !strings.HasPrefix(key, objectPrefix+"/") {
		return "", false
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", false
		}
	}
	return key, true
}

func safeObjectName(name string) bool {
	return name != "" && name == path.Base(name) && name != "." && name != ".." && !strings.Contains(name, "\\")
}

func (s *Server) storeError(c *gin.Context, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		message := "Pet not found"
		if strings.Contains(op, "object") {
			message = "Object not found"
		}
		respondError(c, http.StatusNotFound, message)
		return
	}
	s.internalError(c, op, err)
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.Error("backend request failed", slog.String("op", op), slog.String("error", err.Error()))
	respondError(c, http.StatusInternalServerError, "Internal Server Error")
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// mergeListing overlays the posted attributes on stored. A key posted as null
// resets the attribute; keys absent from the body keep their stored value.
func mergeListing(stored domain.Listing, body io.Reader) (domain.Listing, error) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&patch); err != nil {
		return domain.Listing{}, err
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return domain.Listing{}, err
	}
	attributes := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &attributes); err != nil {
		return domain.Listing{}, err
	}
	for key, value := range patch {
		attributes[key] = value
	}
	raw, err = json.Marshal(attributes)
	if err != nil {
		return domain.Listing{}, err
	}
	var merged domain.Listing
	if err := json.Unmarshal(raw, &merged); err != nil {
		return domain.Listing{}, err
	}
	return merged, nil
}
