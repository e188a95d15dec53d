package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/httpx"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/platform"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/product"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/provider"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	streamWriteWait  = 10 * time.Second
)

// SetPlatformRequest switches the store's active platform.
// swagger:model SetPlatformRequest
type SetPlatformRequest struct {
	Platform string `json:"platform" example:"zendrop"`
}

// listOnlyHandler godoc
// @Summary      List local products
// @Description  Imported and synced products, newest first. q filters name and description.
// @Tags         products
// @Produce      json
// @Param        q       query     string  false  "text filter"
// @Param        source  query     string  false  "provider name or local"
// @Param        limit   query     int     false  "page size (max 100)"
// @Param        offset  query     int     false  "offset"
// @Success      200     {object}  product.ListResponse
// @Failure      400     {object}  httpx.ErrorBody
// @Router       /products [get]
func listOnlyHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := httpx.QueryInt(c, "limit", defaultListLimit)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		offset, err := httpx.QueryInt(c, "offset", 0)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		if limit <= 0 || limit > maxListLimit {
			limit = defaultListLimit
		}
		if offset < 0 {
			offset = 0
		}
		q := product.Query{
			Q:      strings.TrimSpace(c.Query("q")),
			Source: strings.ToLower(strings.TrimSpace(c.Query("source"))),
			Limit:  limit,
			Offset: offset,
		}
		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, product.ListResponse{Q: q.Q, Source: q.Source, Limit: limit, Offset: offset, Items: items})
	}
}

// searchHandler godoc
// @Summary      Search a provider catalogue
// @Description  Falls back to a sample catalogue (simulated=true) when the provider is unconfigured or failing.
// @Tags         products
// @Produce      json
// @Param        query     query     string  true   "keyword"
// @Param        provider  query     string  false  "cj, zendrop or appscenic; defaults to the active platform"
// @Param        category  query     string  false  "category filter"
// @Param        page      query     int     false  "page (1-based)"
// @Param        limit     query     int     false  "page size (max 100)"
// @Success      200       {object}  product.SearchPage
// @Failure      400       {object}  httpx.ErrorBody
// @Router       /products/search [get]
func searchHandler(catalog *product.Catalog, platforms *platform.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		keyword := strings.TrimSpace(c.Query("query"))
		if keyword == "" {
			httpx.BadRequest(c, "query is required")
			return
		}
		page, err := httpx.QueryInt(c, "page", 1)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		limit, err := httpx.QueryInt(c, "limit", product.DefaultSearchLimit)
		if err != nil {
			httpx.Error(c, err)
			return
		}

		name := strings.TrimSpace(c.Query("provider"))
		if name == "" {
			if name, err = platforms.Active(c.Request.Context()); err != nil {
				httpx.Error(c, err)
				return
			}
			if name == platform.Local {
				httpx.BadRequest(c, "provider is required while the local platform is active")
				return
			}
		}

		res, err := catalog.FetchProducts(c.Request.Context(), name, provider.Query{
			Keyword:  keyword,
			Category: strings.TrimSpace(c.Query("category")),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary  Get a product
// @Tags     products
// @Produce  json
// @Param    id   path      string  true  "product id"
// @Success  200  {object}  map[string]interface{}
// @Failure  404  {object}  httpx.ErrorBody
// @Router   /products/{id} [get]
func getProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			httpx.Error(c, apperr.NotFound("product", id))
			return
		}
		p, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": p})
	}
}

// importHandler godoc
// @Summary      Import a provider product into the store
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body  body      product.ImportRequest  true  "product"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  httpx.ErrorBody
// @Failure      409   {object}  httpx.ErrorBody
// @Router       /products/import [post]
func importHandler(catalog *product.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.ImportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid json: %v", err)
			return
		}
		p, err := catalog.Import(c.Request.Context(), req)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"product": p})
	}
}

// @Summary  Active platform
// @Tags     platforms
// @Produce  json
// @Success  200  {object}  platform.Config
// @Router   /platforms [get]
func getPlatformHandler(platforms *platform.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := platforms.Config(c.Request.Context())
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, cfg)
	}
}

// @Summary  Switch the active platform
// @Tags     platforms
// @Accept   json
// @Produce  json
// @Param    body  body      SetPlatformRequest  true  "platform"
// @Success  200   {object}  platform.Config
// @Failure  400   {object}  httpx.ErrorBody
// @Router   /platforms [put]
func setPlatformHandler(platforms *platform.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SetPlatformRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid json: %v", err)
			return
		}
		cfg, err := platforms.SetActive(c.Request.Context(), req.Platform)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, cfg)
	}
}

// syncHandler godoc
// @Summary      Sync the active provider's catalogue
// @Tags         platforms
// @Produce      json
// @Success      200  {object}  product.SyncResult
// @Failure      400  {object}  httpx.ErrorBody
// @Failure      409  {object}  httpx.ErrorBody
// @Router       /platforms/sync [post]
func syncHandler(platforms *platform.Service, syncer *product.Syncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := platforms.SyncTarget(c.Request.Context())
		if err != nil {
			httpx.Error(c, err)
			return
		}
		res, err := syncer.SyncAll(c.Request.Context(), target, nil)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func newUpgrader(origins []string) *websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				return true
			}
			if allowed[origin] {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// syncStreamHandler godoc
// @Summary      Sync the active provider over a websocket
// @Description  Each sync event is sent as one JSON text message. Closing the socket aborts the sync.
// @Tags         platforms
// @Success      101
// @Failure      400  {object}  httpx.ErrorBody
// @Router       /platforms/sync/stream [get]
func syncStreamHandler(platforms *platform.Service, syncer *product.Syncer, upgrader *websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := platforms.SyncTarget(c.Request.Context())
		if err != nil {
			httpx.Error(c, err)
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[sync] stream upgrade: %v", err)
			return
		}
		defer conn.Close()

		// The request context is not cancelled when a hijacked client goes
		// away; the read loop is what notices.
		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		send := func(v any) error {
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			return conn.WriteJSON(v)
		}
		_, err = syncer.SyncAll(ctx, target, func(e product.Event) {
			if err := send(e); err != nil {
				log.Printf("[sync] stream write: %v", err)
				cancel()
			}
		})
		if err != nil {
			msg := err.Error()
			if e, ok := apperr.As(err); ok {
				msg = e.Message
			}
			_ = send(product.Event{Type: product.EventError, Provider: target, Error: msg})
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "sync finished"),
			time.Now().Add(time.Second))
	}
}

// @Summary  Provider status and last sync
// @Tags     platforms
// @Produce  json
// @Success  200  {object}  platform.Status
// @Router   /platforms/status [get]
func platformStatusHandler(platforms *platform.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := platforms.Status(c.Request.Context())
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}
