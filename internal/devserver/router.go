package devserver

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

const userKey = "user"

var tagNameOnce sync.Once

// useJSONNames makes validation errors report json keys, not Go field names.
func useJSONNames() {
	tagNameOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})
}

type Handler struct {
	Store *Store
	Log   *zap.Logger
}

// NewRouter wires every backend route onto a gin engine.
func NewRouter(store *Store, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	useJSONNames()
	h := &Handler{Store: store, Log: log}

	r := gin.Default()
	r.Use(cors)

	api := r.Group("/api")
	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.Register)

	authed := api.Group("", h.RequireAuth)
	{
		authed.GET("/auth/me", h.Me)

		authed.GET("/fields", h.ListFields)
		authed.GET("/fields/:id", h.GetField)
		authed.POST("/fields", h.CreateField)
		authed.PATCH("/fields/:id", h.UpdateField)
		authed.DELETE("/fields/:id", h.DeleteField)

		authed.GET("/objects", h.ListObjects)
		authed.GET("/objects/:id", h.GetObject)
		authed.POST("/objects", h.CreateObject)
		authed.PATCH("/objects/:id", h.UpdateObject)
		authed.DELETE("/objects/:id", h.DeleteObject)

		authed.GET("/object-fields", h.ListObjectFields)
		authed.POST("/object-fields", h.CreateObjectField)
		authed.POST("/object-fields/bulk-order", h.BulkUpdateOrder)
		authed.PATCH("/object-fields/:id", h.UpdateObjectField)
		authed.DELETE("/object-fields/:id", h.DeleteObjectField)

		authed.GET("/records", h.ListRecords)
		authed.POST("/records/search", h.SearchRecords)
		authed.GET("/records/:id", h.GetRecord)
		authed.POST("/records", h.CreateRecord)
		authed.PATCH("/records/:id", h.UpdateRecord)
		authed.DELETE("/records/:id", h.DeleteRecord)

		authed.GET("/relationships", h.ListRelationships)
		authed.GET("/relationships/:id", h.GetRelationship)
		authed.POST("/relationships", h.CreateRelationship)
		authed.PATCH("/relationships/:id", h.UpdateRelationship)
		authed.DELETE("/relationships/:id", h.DeleteRelationship)
		authed.GET("/relationships/:id/records", h.ListLinks)
		authed.POST("/relationships/:id/records", h.CreateLink)
		authed.DELETE("/relationships/:id/records/:linkId", h.DeleteLink)

		authed.GET("/applications", h.ListApplications)
		authed.GET("/applications/:id", h.GetApplication)
		authed.POST("/applications", h.CreateApplication)
		authed.PATCH("/applications/:id", h.UpdateApplication)
		authed.DELETE("/applications/:id", h.DeleteApplication)
		authed.POST("/applications/:id/publish", h.PublishApplication)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "route not found"})
	})
	return r
}

func cors(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH, DELETE")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization")
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

// --- error shaping ---

type detail struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

func writeError(c *gin.Context, err error) {
	var se *Error
	if errors.As(err, &se) {
		if se.Status == http.StatusUnprocessableEntity {
			loc := []any{"body"}
			if se.Field != "" {
				loc = append(loc, se.Field)
			}
			c.JSON(se.Status, gin.H{"detail": []detail{{Loc: loc, Msg: se.Detail, Type: "value_error"}}})
			return
		}
		c.JSON(se.Status, gin.H{"detail": se.Detail})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
}

// bindError answers a failed bind with a pydantic-style 422.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]detail, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, detail{
				Loc:  []any{"body", fe.Field()},
				Msg:  validationMessage(fe),
				Type: "value_error." + fe.Tag(),
			})
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": out})
		return
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []detail{{Loc: []any{"body"}, Msg: err.Error(), Type: "value_error.jsondecode"}}})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		return "ensure this value has at least " + fe.Param() + " characters"
	}
	return "invalid value"
}

func respond[T any](c *gin.Context, status int, v T, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, v)
}

// paginate applies optional page/page_size query parameters.
func paginate[T any](c *gin.Context, items []T) []T {
	size, _ := strconv.Atoi(c.Query("page_size"))
	if size <= 0 {
		return items
	}
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- Auth ---

func (h *Handler) RequireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	user, ok := h.Store.Authenticate(token)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}
	c.Set(userKey, user)
	c.Next()
}

func (h *Handler) Login(c *gin.Context) {
	username, password := c.PostForm("username"), c.PostForm("password")
	var missing []detail
	if username == "" {
		missing = append(missing, detail{Loc: []any{"body", "username"}, Msg: "field required", Type: "value_error.missing"})
	}
	if password == "" {
		missing = append(missing, detail{Loc: []any{"body", "password"}, Msg: "field required", Type: "value_error.missing"})
	}
	if len(missing) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": missing})
		return
	}
	tok, err := h.Store.Login(username, password)
	if err != nil {
		h.Log.Info("login rejected", zap.String("username", username))
	}
	respond(c, http.StatusOK, tok, err)
}

func (h *Handler) Register(c *gin.Context) {
	var in schema.Registration
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.Store.Register(in)
	respond(c, http.StatusCreated, u, err)
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, c.MustGet(userKey).(schema.User))
}

// --- Fields ---

func (h *Handler) ListFields(c *gin.Context) {
	var system *bool
	if v := c.Query("is_system_field"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(c, invalid("is_system_field", "value could not be parsed to a boolean"))
			return
		}
		system = &b
	}
	c.JSON(http.StatusOK, paginate(c, h.Store.ListFields(c.Query("category"), system)))
}

func (h *Handler) GetField(c *gin.Context) {
	f, err := h.Store.GetField(c.Param("id"))
	respond(c, http.StatusOK, f, err)
}

func (h *Handler) CreateField(c *gin.Context) {
	var in schema.FieldCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	f, err := h.Store.CreateField(in)
	respond(c, http.StatusCreated, f, err)
}

func (h *Handler) UpdateField(c *gin.Context) {
	var in schema.FieldUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	f, err := h.Store.UpdateField(c.Param("id"), in)
	respond(c, http.StatusOK, f, err)
}

func (h *Handler) DeleteField(c *gin.Context) {
	if err := h.Store.DeleteField(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Objects ---

func (h *Handler) ListObjects(c *gin.Context) {
	c.JSON(http.StatusOK, paginate(c, h.Store.ListObjects(c.Query("category"))))
}

func (h *Handler) GetObject(c *gin.Context) {
	o, err := h.Store.GetObject(c.Param("id"))
	respond(c, http.StatusOK, o, err)
}

func (h *Handler) CreateObject(c *gin.Context) {
	var in schema.ObjectCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	o, err := h.Store.CreateObject(in)
	respond(c, http.StatusCreated, o, err)
}

func (h *Handler) UpdateObject(c *gin.Context) {
	var in schema.ObjectUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	o, err := h.Store.UpdateObject(c.Param("id"), in)
	respond(c, http.StatusOK, o, err)
}

func (h *Handler) DeleteObject(c *gin.Context) {
	if err := h.Store.DeleteObject(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	h.Log.Info("object deleted with cascade", zap.String("id", c.Param("id")))
	c.Status(http.StatusNoContent)
}

// --- Object fields ---

func (h *Handler) ListObjectFields(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.ListObjectFields(c.Query("object_id")))
}

func (h *Handler) CreateObjectField(c *gin.Context) {
	var in schema.ObjectFieldCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	of, err := h.Store.CreateObjectField(in)
	respond(c, http.StatusCreated, of, err)
}

func (h *Handler) UpdateObjectField(c *gin.Context) {
	var in schema.ObjectFieldUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	of, err := h.Store.UpdateObjectField(c.Param("id"), in)
	respond(c, http.StatusOK, of, err)
}

func (h *Handler) DeleteObjectField(c *gin.Context) {
	if err := h.Store.DeleteObjectField(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) BulkUpdateOrder(c *gin.Context) {
	var in struct {
		Updates []schema.OrderUpdate `json:"updates" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	if err := h.Store.BulkUpdateOrder(in.Updates); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(in.Updates)})
}

// --- Records ---

func (h *Handler) ListRecords(c *gin.Context) {
	c.JSON(http.StatusOK, paginate(c, h.Store.ListRecords(c.Query("object_id"))))
}

func (h *Handler) GetRecord(c *gin.Context) {
	r, err := h.Store.GetRecord(c.Param("id"))
	respond(c, http.StatusOK, r, err)
}

func (h *Handler) CreateRecord(c *gin.Context) {
	var in schema.RecordCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	user := c.MustGet(userKey).(schema.User)
	r, err := h.Store.CreateRecord(in, user.ID)
	respond(c, http.StatusCreated, r, err)
}

func (h *Handler) UpdateRecord(c *gin.Context) {
	var in struct {
		Data map[string]any `json:"data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	r, err := h.Store.UpdateRecord(c.Param("id"), in.Data)
	respond(c, http.StatusOK, r, err)
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	if err := h.Store.DeleteRecord(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SearchRecords(c *gin.Context) {
	var in schema.RecordSearch
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Store.SearchRecords(in.ObjectID, in.Query))
}

// --- Relationships ---

func (h *Handler) ListRelationships(c *gin.Context) {
	c.JSON(http.StatusOK, paginate(c, h.Store.ListRelationships(c.Query("object_id"))))
}

func (h *Handler) GetRelationship(c *gin.Context) {
	r, err := h.Store.GetRelationship(c.Param("id"))
	respond(c, http.StatusOK, r, err)
}

func (h *Handler) CreateRelationship(c *gin.Context) {
	var in schema.RelationshipCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	r, err := h.Store.CreateRelationship(in)
	respond(c, http.StatusCreated, r, err)
}

func (h *Handler) UpdateRelationship(c *gin.Context) {
	var in schema.RelationshipUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	r, err := h.Store.UpdateRelationship(c.Param("id"), in)
	respond(c, http.StatusOK, r, err)
}

func (h *Handler) DeleteRelationship(c *gin.Context) {
	if err := h.Store.DeleteRelationship(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListLinks(c *gin.Context) {
	links, err := h.Store.ListLinks(c.Param("id"), c.Query("record_id"))
	respond(c, http.StatusOK, links, err)
}

func (h *Handler) CreateLink(c *gin.Context) {
	var in schema.LinkCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	l, err := h.Store.CreateLink(c.Param("id"), in)
	respond(c, http.StatusCreated, l, err)
}

func (h *Handler) DeleteLink(c *gin.Context) {
	if err := h.Store.DeleteLink(c.Param("id"), c.Param("linkId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Applications ---

func (h *Handler) ListApplications(c *gin.Context) {
	c.JSON(http.StatusOK, paginate(c, h.Store.ListApplications()))
}

func (h *Handler) GetApplication(c *gin.Context) {
	a, err := h.Store.GetApplication(c.Param("id"))
	respond(c, http.StatusOK, a, err)
}

func (h *Handler) CreateApplication(c *gin.Context) {
	var in schema.ApplicationCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	a, err := h.Store.CreateApplication(in)
	respond(c, http.StatusCreated, a, err)
}

func (h *Handler) UpdateApplication(c *gin.Context) {
	var in schema.ApplicationUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	a, err := h.Store.UpdateApplication(c.Param("id"), in)
	respond(c, http.StatusOK, a, err)
}

func (h *Handler) DeleteApplication(c *gin.Context) {
	if err := h.Store.DeleteApplication(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) PublishApplication(c *gin.Context) {
	a, err := h.Store.PublishApplication(c.Param("id"))
	respond(c, http.StatusOK, a, err)
}
