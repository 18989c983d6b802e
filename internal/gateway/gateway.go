// Package gateway is the HTTP surface of the engine: catalog browsing,
// product-set replacement, building reports and a websocket stream of
// report updates.
package gateway

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"

	"github.com/terminal-bench/lcaengine/internal/catalog"
	"github.com/terminal-bench/lcaengine/internal/impact"
	"github.com/terminal-bench/lcaengine/internal/report"
	"github.com/terminal-bench/lcaengine/pkg/messaging"
	"github.com/terminal-bench/lcaengine/pkg/units"
)

// Config holds gateway configuration.
type Config struct {
	JWTSecret string
}

// Gateway routes API requests to the catalog store and report service.
type Gateway struct {
	router    *gin.Engine
	store     *catalog.Store
	reports   *report.Service
	msg       *messaging.Client
	jwtSecret []byte

	upgrader  websocket.Upgrader
	wsClients map[uuid.UUID]*wsClient
	wsMu      sync.RWMutex
}

type wsClient struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Claims is the JWT payload issued by the account service.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// NewGateway builds the router.
func NewGateway(cfg Config, store *catalog.Store, reports *report.Service, msg *messaging.Client) *Gateway {
	g := &Gateway{
		router:    gin.Default(),
		store:     store,
		reports:   reports,
		msg:       msg,
		jwtSecret: []byte(cfg.JWTSecret),
		upgrader:  websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		wsClients: make(map[uuid.UUID]*wsClient),
	}
	g.setupRoutes()
	return g
}

func (g *Gateway) setupRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := g.router.Group("/api/v1", g.authMiddleware())
	{
		v1.GET("/epds", g.listEPDs)
		v1.GET("/epds/:id/input-info", g.epdInputInfo)
		v1.PUT("/assemblies/:id/products", g.replaceProducts)
		v1.PUT("/buildings/:id/operational-products", g.replaceOperationalProducts)
		v1.GET("/buildings/:id/report", g.buildingReport)
		v1.GET("/ws", g.handleWebSocket)
	}
}

// Start begins serving and wires the report-update fanout.
func (g *Gateway) Start(addr string) error {
	if g.msg != nil {
		if err := g.msg.Subscribe(messaging.SubjectReportUpdated, g.broadcast); err != nil {
			return err
		}
	}
	return g.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (g *Gateway) Router() http.Handler {
	return g.router
}

func (g *Gateway) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return g.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Next()
	}
}

func parseDimension(c *gin.Context) (units.Dimension, bool) {
	raw := c.Query("dimension")
	switch units.Dimension(raw) {
	case units.DimensionNone, units.DimensionArea, units.DimensionVolume,
		units.DimensionMass, units.DimensionLength:
		return units.Dimension(raw), true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "unknown dimension '" + raw + "'"})
	return units.DimensionNone, false
}

func (g *Gateway) listEPDs(c *gin.Context) {
	dimension, ok := parseDimension(c)
	if !ok {
		return
	}

	epds, err := g.store.ListEPDs(c.Request.Context(), dimension)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type epdSummary struct {
		ID           uuid.UUID  `json:"id"`
		Name         string     `json:"name"`
		DeclaredUnit units.Unit `json:"declared_unit"`
		Category     string     `json:"category"`
		Country      string     `json:"country"`
		GWP          string     `json:"gwp_a1a3"`
		PENRT        string     `json:"penrt_a1a3"`
	}
	out := make([]epdSummary, 0, len(epds))
	for _, e := range epds {
		out = append(out, epdSummary{
			ID:           e.ID,
			Name:         e.Name,
			DeclaredUnit: e.DeclaredUnit,
			Category:     e.Category,
			Country:      e.Country,
			GWP:          e.GWPSum().StringFixed(2),
			PENRT:        e.PENRTSum().StringFixed(2),
		})
	}
	c.JSON(http.StatusOK, gin.H{"epds": out, "count": len(out)})
}

func (g *Gateway) epdInputInfo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid epd id"})
		return
	}
	dimension, ok := parseDimension(c)
	if !ok {
		return
	}

	epd, err := g.store.EPD(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	info, err := units.InputInfoFor(dimension, epd.DeclaredUnit)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": info.Prompt, "unit": info.Unit})
}

func (g *Gateway) replaceProducts(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assembly id"})
		return
	}

	var inputs []catalog.ProductInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := g.store.ReplaceProducts(c.Request.Context(), id, inputs); err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":         verr.Error(),
				"epd":           verr.EPDName,
				"declared_unit": verr.DeclaredUnit,
				"input_unit":    verr.InputUnit,
				"expected":      verr.Expected,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assembly_id": id, "products": len(inputs)})
}

func (g *Gateway) replaceOperationalProducts(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid building id"})
		return
	}

	var inputs []catalog.ProductInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := g.store.ReplaceOperationalProducts(c.Request.Context(), id, inputs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"building_id": id, "products": len(inputs)})
}

func (g *Gateway) buildingReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid building id"})
		return
	}

	rep, err := g.reports.BuildingReport(c.Request.Context(), id)
	if err != nil {
		var combo *impact.UnsupportedCombinationError
		var missing *impact.MissingConversionError
		if errors.As(err, &combo) || errors.As(err, &missing) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// handleWebSocket upgrades the connection and streams report updates.
func (g *Gateway) handleWebSocket(c *gin.Context) {
	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := &wsClient{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, 16),
		done: make(chan struct{}),
	}
	g.wsMu.Lock()
	g.wsClients[client.id] = client
	g.wsMu.Unlock()

	go g.wsReadPump(client)
	go g.wsWritePump(client)
}

// wsReadPump drains the read side to notice disconnects. It owns the
// client teardown: the done channel unblocks the write pump.
func (g *Gateway) wsReadPump(client *wsClient) {
	defer g.removeClient(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (g *Gateway) wsWritePump(client *wsClient) {
	for {
		select {
		case payload := <-client.send:
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				g.removeClient(client)
				return
			}
		case <-client.done:
			return
		}
	}
}

// removeClient is safe to call from both pumps; done closes only once.
func (g *Gateway) removeClient(client *wsClient) {
	g.wsMu.Lock()
	if _, ok := g.wsClients[client.id]; ok {
		delete(g.wsClients, client.id)
		close(client.done)
	}
	g.wsMu.Unlock()
	client.conn.Close()
}

func (g *Gateway) broadcast(msg *nats.Msg) {
	g.wsMu.RLock()
	defer g.wsMu.RUnlock()
	for _, client := range g.wsClients {
		select {
		case client.send <- msg.Data:
		default: // slow consumer, drop the update
		}
	}
}
